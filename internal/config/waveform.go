package config

import (
	"github.com/cbegin/microwave-go/internal/envelope"
	"github.com/cbegin/microwave-go/internal/magnetron"
)

// envelopeYAML is the wire mirror of envelope.Spec.
type envelopeYAML struct {
	Amplitude   sourceYAML `yaml:"amplitude"`
	Fadeout     sourceYAML `yaml:"fadeout"`
	AttackTime  sourceYAML `yaml:"attack_time"`
	DecayRate   sourceYAML `yaml:"decay_rate"`
	ReleaseTime sourceYAML `yaml:"release_time"`
}

func (e envelopeYAML) build() (envelope.Spec, error) {
	amplitude, err := e.Amplitude.build()
	if err != nil {
		return envelope.Spec{}, err
	}
	fadeout, err := e.Fadeout.build()
	if err != nil {
		return envelope.Spec{}, err
	}
	attackTime, err := e.AttackTime.build()
	if err != nil {
		return envelope.Spec{}, err
	}
	decayRate, err := e.DecayRate.build()
	if err != nil {
		return envelope.Spec{}, err
	}
	releaseTime, err := e.ReleaseTime.build()
	if err != nil {
		return envelope.Spec{}, err
	}
	return envelope.Spec{
		Amplitude:   amplitude,
		Fadeout:     fadeout,
		AttackTime:  attackTime,
		DecayRate:   decayRate,
		ReleaseTime: releaseTime,
	}, nil
}

// waveformYAML is the wire mirror of magnetron.WaveformSpec; its map key
// in Root.Waveforms supplies the waveform's name.
type waveformYAML struct {
	Envelope string      `yaml:"envelope"`
	Stages   []stageYAML `yaml:"stages"`
}

func (w waveformYAML) build(name string) (magnetron.WaveformSpec, error) {
	stages := make([]magnetron.Spec, len(w.Stages))
	for i, s := range w.Stages {
		stage, err := s.build()
		if err != nil {
			return magnetron.WaveformSpec{}, err
		}
		stages[i] = stage
	}
	return magnetron.WaveformSpec{
		Name:         name,
		EnvelopeName: w.Envelope,
		Stages:       stages,
	}, nil
}
