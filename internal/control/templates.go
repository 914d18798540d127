package control

import "fmt"

// Environment is the set of named templates declared once at engine
// construction. Templates may reference other templates, but not cycles.
type Environment map[string]Source

// Expand substitutes every TemplateRef in src with its referent from env,
// recursively, rejecting cycles. The returned tree contains no
// TemplateRef nodes.
func Expand(src Source, env Environment) (Source, error) {
	return expand(src, env, nil)
}

// ExpandAll expands every template in env against itself, returning a new
// environment of fully-substituted trees. Useful to validate a spec file
// at load time before any stage references a template.
func ExpandAll(env Environment) (Environment, error) {
	out := make(Environment, len(env))
	for name := range env {
		expanded, err := expand(TemplateRef{Name: name}, env, nil)
		if err != nil {
			return nil, err
		}
		out[name] = expanded
	}
	return out, nil
}

func expand(src Source, env Environment, visiting []string) (Source, error) {
	switch s := src.(type) {
	case TemplateRef:
		for _, name := range visiting {
			if name == s.Name {
				return nil, fmt.Errorf("invalid spec: template cycle at %s", s.Name)
			}
		}
		referent, ok := env[s.Name]
		if !ok {
			return nil, fmt.Errorf("invalid spec: unresolved template %q", s.Name)
		}
		return expand(referent, env, append(visiting, s.Name))
	case *Oscillator:
		freq, err := expand(s.Freq, env, visiting)
		if err != nil {
			return nil, err
		}
		baseline, err := expand(s.Baseline, env, visiting)
		if err != nil {
			return nil, err
		}
		amplitude, err := expand(s.Amplitude, env, visiting)
		if err != nil {
			return nil, err
		}
		return &Oscillator{Kind: s.Kind, Freq: freq, Baseline: baseline, Amplitude: amplitude}, nil
	case Linear:
		input, err := expand(s.Input, env, visiting)
		if err != nil {
			return nil, err
		}
		return Linear{Input: input, Map0: s.Map0, Map1: s.Map1}, nil
	case Semitones:
		child, err := expand(s.Child, env, visiting)
		if err != nil {
			return nil, err
		}
		return Semitones{Child: child}, nil
	case Add:
		a, err := expand(s.A, env, visiting)
		if err != nil {
			return nil, err
		}
		b, err := expand(s.B, env, visiting)
		if err != nil {
			return nil, err
		}
		return Add{A: a, B: b}, nil
	case Mul:
		a, err := expand(s.A, env, visiting)
		if err != nil {
			return nil, err
		}
		b, err := expand(s.B, env, visiting)
		if err != nil {
			return nil, err
		}
		return Mul{A: a, B: b}, nil
	default:
		// Value, Property, ControllerRead, *Time: no children to expand.
		return src, nil
	}
}
