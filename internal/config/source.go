package config

import (
	"github.com/cbegin/microwave-go/internal/apperr"
	"github.com/cbegin/microwave-go/internal/control"
	"github.com/cbegin/microwave-go/internal/dsp"
)

// sourceYAML is the tagged-variant wire mirror of control.Source: exactly
// one field is populated per document, selected by which YAML key is
// present, generalizing the teacher's hand-rolled token-switch parsing in
// mml/parser.go to a YAML-key dispatch.
type sourceYAML struct {
	Value       *float64           `yaml:"value,omitempty"`
	Property    *string            `yaml:"property,omitempty"`
	Controller  *controllerYAML    `yaml:"controller,omitempty"`
	Oscillator  *oscillatorSrcYAML `yaml:"oscillator,omitempty"`
	Time        *timeYAML          `yaml:"time,omitempty"`
	Linear      *linearYAML        `yaml:"linear,omitempty"`
	Semitones   *sourceYAML        `yaml:"semitones,omitempty"`
	Add         *[2]sourceYAML     `yaml:"add,omitempty"`
	Mul         *[2]sourceYAML     `yaml:"mul,omitempty"`
	TemplateRef *string            `yaml:"template,omitempty"`
}

type controllerYAML struct {
	ID   uint32  `yaml:"id"`
	Map0 float64 `yaml:"map0"`
	Map1 float64 `yaml:"map1"`
}

type oscillatorSrcYAML struct {
	Kind      string     `yaml:"kind"`
	Freq      sourceYAML `yaml:"freq"`
	Baseline  sourceYAML `yaml:"baseline"`
	Amplitude sourceYAML `yaml:"amplitude"`
}

type timeYAML struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
	From  float64 `yaml:"from"`
	To    float64 `yaml:"to"`
}

type linearYAML struct {
	Input sourceYAML `yaml:"input"`
	Map0  float64    `yaml:"map0"`
	Map1  float64    `yaml:"map1"`
}

// build converts the wire mirror into a live control.Source tree.
func (s sourceYAML) build() (control.Source, error) {
	switch {
	case s.Value != nil:
		return control.Value(*s.Value), nil
	case s.Property != nil:
		prop, err := parseWaveformProperty(*s.Property)
		if err != nil {
			return nil, err
		}
		return control.Property{Prop: prop}, nil
	case s.Controller != nil:
		return control.ControllerRead{
			ID:   control.ControllerID(s.Controller.ID),
			Map0: s.Controller.Map0,
			Map1: s.Controller.Map1,
		}, nil
	case s.Oscillator != nil:
		kind, err := parseShapeKind(s.Oscillator.Kind)
		if err != nil {
			return nil, err
		}
		freq, err := s.Oscillator.Freq.build()
		if err != nil {
			return nil, err
		}
		baseline, err := s.Oscillator.Baseline.build()
		if err != nil {
			return nil, err
		}
		amplitude, err := s.Oscillator.Amplitude.build()
		if err != nil {
			return nil, err
		}
		return control.NewOscillator(kind, freq, baseline, amplitude), nil
	case s.Time != nil:
		return control.NewTime(s.Time.Start, s.Time.End, s.Time.From, s.Time.To), nil
	case s.Linear != nil:
		input, err := s.Linear.Input.build()
		if err != nil {
			return nil, err
		}
		return control.Linear{Input: input, Map0: s.Linear.Map0, Map1: s.Linear.Map1}, nil
	case s.Semitones != nil:
		child, err := s.Semitones.build()
		if err != nil {
			return nil, err
		}
		return control.Semitones{Child: child}, nil
	case s.Add != nil:
		a, err := s.Add[0].build()
		if err != nil {
			return nil, err
		}
		b, err := s.Add[1].build()
		if err != nil {
			return nil, err
		}
		return control.Add{A: a, B: b}, nil
	case s.Mul != nil:
		a, err := s.Mul[0].build()
		if err != nil {
			return nil, err
		}
		b, err := s.Mul[1].build()
		if err != nil {
			return nil, err
		}
		return control.Mul{A: a, B: b}, nil
	case s.TemplateRef != nil:
		return control.TemplateRef{Name: *s.TemplateRef}, nil
	default:
		return nil, apperr.NewCommandError("control source has no recognized variant")
	}
}

func parseWaveformProperty(name string) (control.WaveformProperty, error) {
	switch name {
	case "pitch":
		return control.PropPitch, nil
	case "period":
		return control.PropPeriod, nil
	case "velocity":
		return control.PropVelocity, nil
	case "off_velocity":
		return control.PropOffVelocity, nil
	case "key_pressure":
		return control.PropKeyPressure, nil
	case "curr_amplitude":
		return control.PropCurrAmplitude, nil
	case "fadeout_start":
		return control.PropFadeoutStart, nil
	default:
		return 0, apperr.NewCommandError("unknown waveform property %q", name)
	}
}

func parseShapeKind(name string) (dsp.Kind, error) {
	switch name {
	case "sine":
		return dsp.Sine, nil
	case "sine3":
		return dsp.Sine3, nil
	case "triangle":
		return dsp.Triangle, nil
	case "square":
		return dsp.Square, nil
	case "sawtooth":
		return dsp.Sawtooth, nil
	default:
		return 0, apperr.NewCommandError("unknown oscillator shape %q", name)
	}
}

