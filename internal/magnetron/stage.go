// Package magnetron implements the Stage Factory: translating declarative
// waveform specifications into live, stateful per-voice render stages.
package magnetron

import (
	"github.com/cbegin/microwave-go/internal/control"
	"github.com/cbegin/microwave-go/internal/pool"
)

// Stage is one node in a voice's signal graph. Each concrete Stage type
// holds its own DSP state (oscillator phase, filter history, comb delay
// line) inline, per the tagged-variant design: stages are never modeled
// as a runtime-inherited base, and nothing here allocates per block.
type Stage interface {
	Render(p *pool.Pool, ctl *control.Context)
}

// ModulationKind selects how an Oscillator stage's phase/frequency is
// perturbed by another buffer's signal.
type ModulationKind int

const (
	ModulationNone ModulationKind = iota
	ModulationByPhase
	ModulationByFrequency
)

// Modulation names the input buffer (when any) an Oscillator stage reads
// its modulator signal from.
type Modulation struct {
	Kind      ModulationKind
	ModBuffer pool.BufferRef
}

// Factory holds what the Stage Factory needs to compile a StageSpec into
// a live Stage: the engine's sample rate (fixed at construction, needed
// by any stage that pre-sizes a filter or delay line) and the template
// environment for LfSource expansion.
type Factory struct {
	SampleRate float64
	Templates  control.Environment
}

// Spec is a tagged-variant stage specification: exactly one of the
// pointer fields is non-nil. Build compiles it into a live Stage on the
// control thread, expanding any LfSource templates against the factory's
// environment.
type Spec struct {
	Oscillator    *OscillatorSpec
	Filter        *FilterSpec
	Signal        *SignalSpec
	Waveguide     *WaveguideSpec
	RingModulator *RingModulatorSpec
}

// Build dispatches to whichever variant is populated.
func (s Spec) Build(f Factory) (Stage, error) {
	switch {
	case s.Oscillator != nil:
		return s.Oscillator.Build(f)
	case s.Filter != nil:
		return s.Filter.Build(f)
	case s.Signal != nil:
		return s.Signal.Build(f)
	case s.Waveguide != nil:
		return s.Waveguide.Build(f)
	case s.RingModulator != nil:
		return s.RingModulator.Build(f)
	default:
		return nil, errEmptyStageSpec
	}
}

var errEmptyStageSpec = stageErr("stage spec has no populated variant")

type stageErr string

func (e stageErr) Error() string { return string(e) }
