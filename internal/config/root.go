// Package config loads and saves the engine's YAML instrument library:
// waveform and effect templates, envelopes, waveforms, and the global
// effects chain, generalizing the teacher's hand-rolled MML token
// parsing (mml/parser.go) to ordinary yaml-tag struct decoding of a
// tagged-variant wire format.
package config

import (
	"os"

	"github.com/cbegin/microwave-go/internal/apperr"
	"github.com/cbegin/microwave-go/internal/control"
	"github.com/cbegin/microwave-go/internal/effects"
	"github.com/cbegin/microwave-go/internal/envelope"
	"github.com/cbegin/microwave-go/internal/magnetron"

	"gopkg.in/yaml.v3"
)

// Root is the top-level config document.
type Root struct {
	WaveformTemplates map[string]sourceYAML   `yaml:"waveform_templates,omitempty"`
	WaveformEnvelopes map[string]envelopeYAML `yaml:"waveform_envelopes"`
	Waveforms         map[string]waveformYAML `yaml:"waveforms"`
	EffectTemplates   map[string]sourceYAML   `yaml:"effect_templates,omitempty"`
	Effects           []effectYAML            `yaml:"effects"`
}

// Load reads a config document from path. A missing file is not an
// error: Default() is written to path and returned, which Build can
// still turn into a working library, matching the CLI's "first run just
// works" expectation.
func Load(path string) (*Root, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		root := Default()
		if err := Save(path, root); err != nil {
			return nil, err
		}
		return root, nil
	}
	if err != nil {
		return nil, apperr.NewIoError(err)
	}
	var root Root
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, apperr.NewCommandError("malformed config at %s: %v", path, err)
	}
	return &root, nil
}

// Save writes root to path as YAML.
func Save(path string, root *Root) error {
	data, err := yaml.Marshal(root)
	if err != nil {
		return apperr.NewCommandError("could not encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperr.NewIoError(err)
	}
	return nil
}

// Default returns the engine's built-in instrument library: one
// sine-wave waveform per preset name in envelope.Presets, so a fresh
// config file is immediately playable. Only the preset names are taken
// from envelope.Presets; every envelope here uses the same velocity
// amplitude, 0 fadeout, 0.01s attack, no decay and 0.25s release.
func Default() *Root {
	envelopes := make(map[string]envelopeYAML, len(envelope.Presets()))
	waveforms := make(map[string]waveformYAML, len(envelope.Presets()))
	for name := range envelope.Presets() {
		envelopes[name] = envelopeYAML{
			Amplitude:   sourceYAML{Property: strPtr("velocity")},
			Fadeout:     sourceYAML{Value: float64Ptr(0)},
			AttackTime:  sourceYAML{Value: float64Ptr(0.01)},
			DecayRate:   sourceYAML{Value: float64Ptr(0)},
			ReleaseTime: sourceYAML{Value: float64Ptr(0.25)},
		}
		waveforms[name] = waveformYAML{
			Envelope: name,
			Stages: []stageYAML{{
				Oscillator: &oscillatorStageYAML{
					Kind:      "sine",
					Frequency: sourceYAML{Property: strPtr("pitch")},
					Out:       outYAML{Buffer: "audio_out", Level: sourceYAML{Value: float64Ptr(1)}},
				},
			}},
		}
	}
	return &Root{
		WaveformEnvelopes: envelopes,
		Waveforms:         waveforms,
		Effects: []effectYAML{
			{Reverb: &reverbYAML{RoomSize: 0.4, Feedback: 0.6, Wet: 0.25}},
		},
	}
}

func strPtr(s string) *string       { return &s }
func float64Ptr(v float64) *float64 { return &v }

// BufferCount reports how many named pool buffers the document's
// waveforms reference, so a caller can size a pool.Pool correctly
// before instantiating any voice.
func (r *Root) BufferCount() int {
	n := 0
	for _, wf := range r.Waveforms {
		for _, s := range wf.Stages {
			n = maxInt(n, s.bufferCount())
		}
	}
	return n
}

// Build resolves the document's templates and compiles a live
// magnetron.Library and effects.Chain, ready to back a running engine.
// sampleRate is fixed for the lifetime of the returned library, per the
// Stage Factory's no-per-block-allocation discipline.
func (r *Root) Build(sampleRate float64) (*magnetron.Library, *effects.Chain, error) {
	rawEnv := make(control.Environment, len(r.WaveformTemplates))
	for name, sy := range r.WaveformTemplates {
		src, err := sy.build()
		if err != nil {
			return nil, nil, err
		}
		rawEnv[name] = src
	}
	env, err := control.ExpandAll(rawEnv)
	if err != nil {
		return nil, nil, err
	}

	// effect_templates share the same expansion/cycle-detection pass so a
	// malformed template is caught at load time even though no built-in
	// effect currently reads from this environment (effects run at a
	// fixed block-level parameter set rather than per-sample control
	// rate; see DESIGN.md).
	rawEffectEnv := make(control.Environment, len(r.EffectTemplates))
	for name, sy := range r.EffectTemplates {
		src, err := sy.build()
		if err != nil {
			return nil, nil, err
		}
		rawEffectEnv[name] = src
	}
	if _, err := control.ExpandAll(rawEffectEnv); err != nil {
		return nil, nil, err
	}

	envelopes := make(map[string]envelope.Spec, len(r.WaveformEnvelopes))
	for name, ey := range r.WaveformEnvelopes {
		spec, err := ey.build()
		if err != nil {
			return nil, nil, err
		}
		expanded, err := expandEnvelope(spec, env)
		if err != nil {
			return nil, nil, err
		}
		envelopes[name] = expanded
	}

	waveforms := make(map[string]magnetron.WaveformSpec, len(r.Waveforms))
	for name, wy := range r.Waveforms {
		wf, err := wy.build(name)
		if err != nil {
			return nil, nil, err
		}
		waveforms[name] = wf
	}

	lib := &magnetron.Library{
		Factory:   magnetron.Factory{SampleRate: sampleRate, Templates: env},
		Waveforms: waveforms,
		Envelopes: envelopes,
	}

	chain := effects.NewChain()
	for _, ey := range r.Effects {
		effector, err := ey.build(int(sampleRate))
		if err != nil {
			return nil, nil, err
		}
		chain.Add(effector)
	}

	return lib, chain, nil
}

// expandEnvelope substitutes every TemplateRef in an envelope.Spec's
// control sources against env, since envelope.New clones its spec
// as-is and would otherwise carry unresolved template references into
// every voice built from it.
func expandEnvelope(spec envelope.Spec, env control.Environment) (envelope.Spec, error) {
	var err error
	if spec.Amplitude, err = control.Expand(spec.Amplitude, env); err != nil {
		return envelope.Spec{}, err
	}
	if spec.Fadeout, err = control.Expand(spec.Fadeout, env); err != nil {
		return envelope.Spec{}, err
	}
	if spec.AttackTime, err = control.Expand(spec.AttackTime, env); err != nil {
		return envelope.Spec{}, err
	}
	if spec.DecayRate, err = control.Expand(spec.DecayRate, env); err != nil {
		return envelope.Spec{}, err
	}
	if spec.ReleaseTime, err = control.Expand(spec.ReleaseTime, env); err != nil {
		return envelope.Spec{}, err
	}
	return spec, nil
}
