package magnetron

import (
	"math"

	"github.com/cbegin/microwave-go/internal/control"
	"github.com/cbegin/microwave-go/internal/dsp"
	"github.com/cbegin/microwave-go/internal/pool"
)

// WaveguideSpec declares a digital waveguide (delay-line model of a
// vibrating string or air column): a fixed delay-line capacity, a
// frequency source setting the tap length, a loop-filter cutoff, a
// feedback magnitude, a reflectance sign selecting string vs. bore
// timbre, an excitation input buffer, and a destination.
type WaveguideSpec struct {
	SizeSecs    float64
	Freq        control.Source
	Cutoff      control.Source
	Reflectance float64 // +1 (bore, closed-open) or -1 (string, closed-closed)
	Feedback    control.Source
	In          pool.BufferRef
	Out         pool.OutSpec
}

func (s *WaveguideSpec) Build(f Factory) (Stage, error) {
	freq, err := control.Expand(s.Freq, f.Templates)
	if err != nil {
		return nil, err
	}
	cutoff, err := control.Expand(s.Cutoff, f.Templates)
	if err != nil {
		return nil, err
	}
	feedback, err := control.Expand(s.Feedback, f.Templates)
	if err != nil {
		return nil, err
	}
	level, err := control.Expand(s.Out.Level, f.Templates)
	if err != nil {
		return nil, err
	}
	capacity := int(math.Ceil(s.SizeSecs * f.SampleRate))
	return &waveguideStage{
		freq:        freq,
		cutoff:      cutoff,
		feedback:    feedback,
		reflectance: s.Reflectance,
		in:          s.In,
		out:         pool.OutSpec{Buffer: s.Out.Buffer, Level: level},
		comb:        dsp.NewCombFilter(capacity, 0),
		loopFilter:  dsp.NewOnePoleLowPass(f.SampleRate),
		sampleRate:  f.SampleRate,
	}, nil
}

type waveguideStage struct {
	freq        control.Source
	cutoff      control.Source
	feedback    control.Source
	reflectance float64
	in          pool.BufferRef
	out         pool.OutSpec
	comb        *dsp.CombFilter
	loopFilter  *dsp.OnePoleLowPass
	sampleRate  float64
}

func (w *waveguideStage) Render(p *pool.Pool, ctl *control.Context) {
	freq := w.freq.Next(ctl)
	cutoff := w.cutoff.Next(ctl)
	feedbackLf := w.feedback.Next(ctl)

	w.loopFilter.SetCutoff(cutoff)
	intrinsicDelay := w.loopFilter.IntrinsicDelaySamples()

	length := w.sampleRate/(2*freq) - intrinsicDelay
	if length < 0 {
		length = 0
	}
	w.comb.SetLength(length)

	feedback := w.reflectance * math.Abs(feedbackLf)

	p.ReadOneAndWrite(w.in, w.out, ctl, func(excitation float64) float64 {
		tapped := w.comb.TapFract(0)
		filtered := w.loopFilter.Process(tapped)
		y := excitation + feedback*filtered
		w.comb.Push(y)
		return y
	})
}
