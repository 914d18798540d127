// Package engine wires the config-loaded instrument library, the
// polyphony manager, the dispatch layer, and the global effects chain
// into a single audio.SampleSource, ready to hand to an audio.Player.
package engine

import (
	"github.com/cbegin/microwave-go/internal/config"
	"github.com/cbegin/microwave-go/internal/dispatch"
	"github.com/cbegin/microwave-go/internal/effects"
	"github.com/cbegin/microwave-go/internal/pitch"
	"github.com/cbegin/microwave-go/internal/pool"
	"github.com/cbegin/microwave-go/internal/scala"
	"github.com/cbegin/microwave-go/internal/synth"
)

// Options configures a new Engine.
type Options struct {
	SampleRate int
	BlockLen   int
	Scale      *scala.Scl
	Kbm        scala.Kbm
	// PitchWheelSensitivity is how far a full pitch-bend excursion
	// reaches, as a frequency ratio; midiin.PitchWheelSensitivitySemitones
	// is the MIDI-standard default.
	PitchWheelSensitivity pitch.Ratio
	// ExtraBackends are appended after the built-in waveform backend
	// (e.g. a midiout.DispatchBackend so every note is also sent to an
	// external MIDI device).
	ExtraBackends []dispatch.Backend
}

// Engine is the real-time render graph: it satisfies audio.SampleSource,
// so it can be handed directly to audio.NewPlayer.
type Engine struct {
	pool            *pool.Pool
	synth           *synth.Synth[int]
	dispatcher      *dispatch.Dispatcher
	waveformBackend *dispatch.WaveformBackend
	chain           *effects.Chain
	sampleRate      float64
	mix             []float64
}

// New builds an Engine from a loaded config.Root: it compiles root into
// a magnetron.Library and effects.Chain, sizes a pool.Pool to the
// library's buffer usage, and wires a dispatch.Dispatcher over the
// built-in waveform backend plus any extra backends (MIDI-out, etc).
func New(root *config.Root, opts Options) (*Engine, error) {
	lib, chain, err := root.Build(float64(opts.SampleRate))
	if err != nil {
		return nil, err
	}

	p := pool.New(root.BufferCount(), opts.BlockLen)
	s := synth.New[int](opts.PitchWheelSensitivity)

	waveformNames := make([]string, 0, len(lib.Waveforms))
	for name := range lib.Waveforms {
		waveformNames = append(waveformNames, name)
	}
	waveformBackend := dispatch.NewWaveformBackend(lib, s, waveformNames)

	backends := append([]dispatch.Backend{waveformBackend}, opts.ExtraBackends...)
	d := dispatch.New(backends, opts.Scale, opts.Kbm)

	return &Engine{
		pool:            p,
		synth:           s,
		dispatcher:      d,
		waveformBackend: waveformBackend,
		chain:           chain,
		sampleRate:      float64(opts.SampleRate),
		mix:             make([]float64, 2*opts.BlockLen),
	}, nil
}

// Dispatcher exposes the dispatch layer so a caller (MIDI-in router,
// on-screen keyboard, sequencer) can start/stop/update notes.
func (e *Engine) Dispatcher() *dispatch.Dispatcher { return e.dispatcher }

// Synth exposes the polyphony manager directly, for engine-global
// messages that bypass the dispatch layer (pitch bend, damper, CC).
func (e *Engine) Synth() *synth.Synth[int] { return e.synth }

// ProgramChange advances the built-in waveform backend's current
// instrument by delta (wrapping) and returns its new name.
func (e *Engine) ProgramChange(delta int) string {
	return e.waveformBackend.ProgramChange(delta)
}

// SetTuning retunes every backend (built-in and extra) to a new scale
// and keyboard mapping, for a reference-note or .kbm/.scl reload without
// restarting playback.
func (e *Engine) SetTuning(scl *scala.Scl, kbm scala.Kbm) {
	e.dispatcher.SetTuning(scl, kbm)
}

// Process implements audio.SampleSource: it renders exactly one block
// of every live voice into the shared pool's audio_out the way
// synth.Synth.Render does, then runs the resulting mix through the
// global effects chain and writes interleaved float32 samples into dst.
// len(dst) must be a multiple of 2 (stereo frames).
//
// Per sample rather than over the whole pool buffer at once: effects.Chain
// is a stereo Effector (Process(l, r float32) (float32, float32)), so the
// post-synth pass here runs it one interleaved frame at a time instead of
// in place over audio_out.
func (e *Engine) Process(dst []float32) {
	frames := len(dst) / 2
	if frames != e.pool.BlockLen() {
		e.pool.Clear(frames)
		e.mix = make([]float64, 2*frames)
	}

	for i := range e.mix {
		e.mix[i] = 0
	}
	e.synth.Render(e.pool, e.sampleRate, e.mix, nil)

	for i := 0; i < frames; i++ {
		l, r := e.chain.Process(float32(e.mix[2*i]), float32(e.mix[2*i+1]))
		dst[2*i] = l
		dst[2*i+1] = r
	}
}

// SetAudioIn feeds host-provided mono input (e.g. a microphone) into the
// pool's audio_in buffer ahead of the next Render, for waveforms that
// filter or ring-modulate live input.
func (e *Engine) SetAudioIn(samples []float64) {
	e.pool.SetAudioIn(samples)
}

// Reset clears the effects chain's state, without discarding the
// compiled instrument library. Live voices and the pool's buffers are
// left as they are.
func (e *Engine) Reset() {
	e.chain.Reset()
}
