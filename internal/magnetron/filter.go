package magnetron

import (
	"github.com/cbegin/microwave-go/internal/control"
	"github.com/cbegin/microwave-go/internal/dsp"
	"github.com/cbegin/microwave-go/internal/pool"
)

// FilterSpec declares a biquad filter stage: a response kind, a center
// frequency ("resonance") and Q ("quality"), both recomputed once per
// block, and a single in/out buffer pair.
type FilterSpec struct {
	Kind      dsp.BiquadKind
	Resonance control.Source
	Quality   control.Source
	In        pool.BufferRef
	Out       pool.OutSpec
}

func (s *FilterSpec) Build(f Factory) (Stage, error) {
	resonance, err := control.Expand(s.Resonance, f.Templates)
	if err != nil {
		return nil, err
	}
	quality, err := control.Expand(s.Quality, f.Templates)
	if err != nil {
		return nil, err
	}
	level, err := control.Expand(s.Out.Level, f.Templates)
	if err != nil {
		return nil, err
	}
	return &filterStage{
		resonance: resonance,
		quality:   quality,
		in:        s.In,
		out:       pool.OutSpec{Buffer: s.Out.Buffer, Level: level},
		biquad:    dsp.NewBiquad(s.Kind, f.SampleRate),
	}, nil
}

type filterStage struct {
	resonance control.Source
	quality   control.Source
	in        pool.BufferRef
	out       pool.OutSpec
	biquad    *dsp.Biquad
}

func (f *filterStage) Render(p *pool.Pool, ctl *control.Context) {
	f.biquad.SetParams(f.resonance.Next(ctl), f.quality.Next(ctl))
	p.ReadOneAndWrite(f.in, f.out, ctl, f.biquad.Process)
}
