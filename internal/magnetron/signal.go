package magnetron

import (
	"math/rand"

	"github.com/cbegin/microwave-go/internal/control"
	"github.com/cbegin/microwave-go/internal/dsp"
	"github.com/cbegin/microwave-go/internal/pool"
)

// SignalSpec declares a noise-generator stage: a new pseudo-random sample
// per step, independently seeded per voice.
type SignalSpec struct {
	Out pool.OutSpec
}

func (s *SignalSpec) Build(f Factory) (Stage, error) {
	level, err := control.Expand(s.Out.Level, f.Templates)
	if err != nil {
		return nil, err
	}
	return &signalStage{
		out: pool.OutSpec{Buffer: s.Out.Buffer, Level: level},
		rng: rand.New(rand.NewSource(rand.Int63())),
	}, nil
}

type signalStage struct {
	out pool.OutSpec
	rng *rand.Rand
}

func (s *signalStage) Render(p *pool.Pool, ctl *control.Context) {
	p.ReadZeroAndWrite(s.out, ctl, func() float64 {
		return dsp.Noise(s.rng)
	})
}
