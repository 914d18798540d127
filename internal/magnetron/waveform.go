package magnetron

import (
	"fmt"
	"math"

	"github.com/cbegin/microwave-go/internal/control"
	"github.com/cbegin/microwave-go/internal/envelope"
	"github.com/cbegin/microwave-go/internal/pool"
)

// WaveformSpec is a named, reusable instrument definition: an ordered
// list of stage specs and the name of the envelope preset driving its
// amplitude.
type WaveformSpec struct {
	Name         string
	EnvelopeName string
	Stages       []Spec
}

// Library resolves waveform and envelope names to their specs, as loaded
// from config.
type Library struct {
	Factory   Factory
	Waveforms map[string]WaveformSpec
	Envelopes map[string]envelope.Spec
}

// Instantiate builds a live Waveform from a named waveform spec, cloning
// its envelope and compiling each stage spec into a live Stage. Runs on
// the control thread: per spec.md's memory discipline, render only ever
// receives a fully-built Waveform via the lifecycle message queue.
func (lib Library) Instantiate(waveformName string, properties *control.Properties) (*Waveform, error) {
	wf, ok := lib.Waveforms[waveformName]
	if !ok {
		return nil, fmt.Errorf("unknown waveform %q", waveformName)
	}
	envSpec, ok := lib.Envelopes[wf.EnvelopeName]
	if !ok {
		return nil, fmt.Errorf("waveform %q references unresolved envelope %q", waveformName, wf.EnvelopeName)
	}

	stages := make([]Stage, len(wf.Stages))
	for i, spec := range wf.Stages {
		stage, err := spec.Build(lib.Factory)
		if err != nil {
			return nil, fmt.Errorf("waveform %q stage %d: %w", waveformName, i, err)
		}
		stages[i] = stage
	}

	return &Waveform{
		Stages:     stages,
		Envelope:   envelope.New(envSpec),
		Properties: properties,
	}, nil
}

// Waveform is one live voice: its compiled stages, its envelope, and the
// property record its control sources read from.
type Waveform struct {
	Stages     []Stage
	Envelope   *envelope.Envelope
	Properties *control.Properties
}

// Render runs one block for this voice: sets block_secs, clears the
// pool, runs each stage in source order, advances the envelope's clock
// to the end of this block, then shapes audio_out and updates
// curr_amplitude from the envelope's amplitude at that end-of-block
// instant. Never allocates, never blocks. controllers is the polyphony
// manager's shared controller storage, one instance per engine, read by
// every voice's Controller LfSources.
//
// Evaluating amplitude at the block's end (rather than its start) keeps
// curr_amplitude away from 0 during a voice's very first block: an
// attack ramp read at elapsed==0 is exactly 0, which would make the
// retirement check in synth.Synth.Render look identical to an already-
// decayed voice before a single sample has sounded.
func (w *Waveform) Render(p *pool.Pool, sampleRate float64, controllers *control.Controllers) {
	ctl := &control.Context{
		BlockSecs:   float64(p.BlockLen()) / sampleRate,
		SampleRate:  sampleRate,
		Properties:  w.Properties,
		Controllers: controllers,
	}
	p.Clear(p.BlockLen())
	for _, stage := range w.Stages {
		stage.Render(p, ctl)
	}

	w.Envelope.Advance(ctl.BlockSecs)
	amplitude := w.Envelope.Amplitude(ctl)
	audioOut := p.AudioOut()
	peak := 0.0
	for i := range audioOut {
		audioOut[i] *= amplitude
		if abs := math.Abs(audioOut[i]); abs > peak {
			peak = abs
		}
	}
	w.Properties.CurrAmplitude = peak
}
