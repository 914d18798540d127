package magnetron

import (
	"github.com/cbegin/microwave-go/internal/control"
	"github.com/cbegin/microwave-go/internal/pool"
)

// RingModulatorSpec declares a ring modulator: multiplies two named
// buffers sample-wise into the destination, scaled by Out.Level.
type RingModulatorSpec struct {
	In1, In2 pool.BufferRef
	Out      pool.OutSpec
}

func (s *RingModulatorSpec) Build(f Factory) (Stage, error) {
	level, err := control.Expand(s.Out.Level, f.Templates)
	if err != nil {
		return nil, err
	}
	return &ringModulatorStage{
		in1: s.In1,
		in2: s.In2,
		out: pool.OutSpec{Buffer: s.Out.Buffer, Level: level},
	}, nil
}

type ringModulatorStage struct {
	in1, in2 pool.BufferRef
	out      pool.OutSpec
}

func (r *ringModulatorStage) Render(p *pool.Pool, ctl *control.Context) {
	p.ReadTwoAndWrite(r.in1, r.in2, r.out, ctl, func(a, b float64) float64 {
		return a * b
	})
}
