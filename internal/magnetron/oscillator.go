package magnetron

import (
	"math"

	"github.com/cbegin/microwave-go/internal/control"
	"github.com/cbegin/microwave-go/internal/dsp"
	"github.com/cbegin/microwave-go/internal/pool"
)

// OscillatorSpec declares an oscillator stage: a shape, a frequency
// source, optional phase/frequency modulation from another buffer, and a
// destination.
type OscillatorSpec struct {
	Kind       dsp.Kind
	Frequency  control.Source
	Modulation Modulation
	Out        pool.OutSpec
}

// Build expands templates and returns a live oscillator stage.
func (s *OscillatorSpec) Build(f Factory) (Stage, error) {
	freq, err := control.Expand(s.Frequency, f.Templates)
	if err != nil {
		return nil, err
	}
	level, err := control.Expand(s.Out.Level, f.Templates)
	if err != nil {
		return nil, err
	}
	return &oscillatorStage{
		shape:      dsp.ShapeFunc(s.Kind),
		frequency:  freq,
		modulation: s.Modulation,
		out:        pool.OutSpec{Buffer: s.Out.Buffer, Level: level},
	}, nil
}

// oscillatorStage is the live, stateful form: phase is the only mutable
// state, advanced one audio sample at a time within a block.
type oscillatorStage struct {
	shape      dsp.Shape
	frequency  control.Source
	modulation Modulation
	out        pool.OutSpec
	phase      float64
}

func (o *oscillatorStage) Render(p *pool.Pool, ctl *control.Context) {
	frequency := o.frequency.Next(ctl)
	sampleSecs := 1.0 / ctl.SampleRate

	switch o.modulation.Kind {
	case ModulationByPhase:
		p.ReadOneAndWrite(o.modulation.ModBuffer, o.out, ctl, func(modSample float64) float64 {
			signal := o.shape(wrap01(o.phase + modSample))
			o.phase = wrap01(o.phase + sampleSecs*frequency)
			return signal
		})
	case ModulationByFrequency:
		p.ReadOneAndWrite(o.modulation.ModBuffer, o.out, ctl, func(modSample float64) float64 {
			signal := o.shape(o.phase)
			o.phase = wrap01(o.phase + sampleSecs*(frequency+modSample))
			return signal
		})
	default:
		p.ReadZeroAndWrite(o.out, ctl, func() float64 {
			signal := o.shape(o.phase)
			o.phase = wrap01(o.phase + sampleSecs*frequency)
			return signal
		})
	}
}

func wrap01(x float64) float64 {
	x = math.Mod(x, 1.0)
	if x < 0 {
		x += 1.0
	}
	return x
}
