package config

import (
	"github.com/cbegin/microwave-go/internal/apperr"
	"github.com/cbegin/microwave-go/internal/effects"
)

// effectYAML is the tagged-variant wire mirror of one stage in the
// global effects chain.
type effectYAML struct {
	Echo          *echoYAML   `yaml:"echo,omitempty"`
	Reverb        *reverbYAML `yaml:"reverb,omitempty"`
	RotarySpeaker *rotaryYAML `yaml:"rotary_speaker,omitempty"`
}

func (e effectYAML) build(sampleRate int) (effects.Effector, error) {
	switch {
	case e.Echo != nil:
		return effects.NewDelay(sampleRate, e.Echo.DelayMs, e.Echo.Feedback, e.Echo.Cross, e.Echo.Wet), nil
	case e.Reverb != nil:
		return effects.NewReverb(sampleRate, e.Reverb.RoomSize, e.Reverb.Feedback, e.Reverb.Wet), nil
	case e.RotarySpeaker != nil:
		r := e.RotarySpeaker
		rotary := effects.NewRotarySpeaker(sampleRate, r.CrossoverHz, r.HornSlowHz, r.HornFastHz, r.DrumSlowHz, r.DrumFastHz, r.DepthMs, r.Wet)
		rotary.SetFast(r.Fast)
		return rotary, nil
	default:
		return nil, apperr.NewCommandError("effect has no recognized variant")
	}
}

// echoYAML mirrors effects.Delay, renamed "echo" per the engine's global
// effects chain (§2: echo, Schroeder reverb, rotary speaker).
type echoYAML struct {
	DelayMs  float64 `yaml:"delay_ms"`
	Feedback float32 `yaml:"feedback"`
	Cross    float32 `yaml:"cross"`
	Wet      float32 `yaml:"wet"`
}

// reverbYAML mirrors effects.Reverb, already a Schroeder four-comb/
// two-allpass design.
type reverbYAML struct {
	RoomSize float32 `yaml:"room_size"`
	Feedback float32 `yaml:"feedback"`
	Wet      float32 `yaml:"wet"`
}

// rotaryYAML mirrors effects.RotarySpeaker: a dual-rotor cabinet
// simulation toggled between chorale (slow) and tremolo (fast) speeds.
type rotaryYAML struct {
	CrossoverHz float64 `yaml:"crossover_hz"`
	HornSlowHz  float32 `yaml:"horn_slow_hz"`
	HornFastHz  float32 `yaml:"horn_fast_hz"`
	DrumSlowHz  float32 `yaml:"drum_slow_hz"`
	DrumFastHz  float32 `yaml:"drum_fast_hz"`
	DepthMs     float32 `yaml:"depth_ms"`
	Wet         float32 `yaml:"wet"`
	Fast        bool    `yaml:"fast"`
}

// DefaultEffectsChain returns the engine's standard global effects chain:
// a short slapback echo, a Schroeder reverb, and a rotary speaker set to
// its chorale speed.
func DefaultEffectsChain(sampleRate int) *effects.Chain {
	rotary := effects.NewRotarySpeaker(sampleRate, 800, 0.8, 6.8, 0.6, 5.8, 2.5, 0.5)
	return effects.NewChain(
		effects.NewDelay(sampleRate, 180, 0.25, 0.2, 0.15),
		effects.NewReverb(sampleRate, 0.4, 0.6, 0.25),
		rotary,
	)
}
