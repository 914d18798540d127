// Package synth implements the polyphony manager: it owns every live
// voice, drains lifecycle/controller messages from the dispatch layer,
// renders each voice into the shared pool, and sums into the host's
// stereo output.
package synth

import (
	"math"

	"github.com/cbegin/microwave-go/internal/control"
	"github.com/cbegin/microwave-go/internal/magnetron"
	"github.com/cbegin/microwave-go/internal/pitch"
	"github.com/cbegin/microwave-go/internal/pool"
)

// DefaultRetirementThreshold is the curr_amplitude floor below which a
// voice is evicted at the end of a block. An implementer chasing
// accuracy for slowly-released pad voices under very small block sizes
// should track a short trailing RMS instead; this engine keeps the
// simple instantaneous check but makes the threshold configurable.
const DefaultRetirementThreshold = 1e-4

// VoiceKey identifies a live voice. A Stable key is held by exactly one
// actively-sounding source at a time; Stop rekeys it to a Fading key,
// one-way, so a source can start a new Stable voice immediately while
// its released tail keeps sounding under a distinct identity.
type VoiceKey[S comparable] struct {
	stable bool
	source S
	fadeID uint64
}

// Stable builds the key for a source's currently-held voice.
func Stable[S comparable](source S) VoiceKey[S] {
	return VoiceKey[S]{stable: true, source: source}
}

// Fading builds the key for a released voice's tail, identified by a
// monotonic counter rather than its source (a source may have several
// overlapping fading tails from repeated start/stop).
func Fading[S comparable](id uint64) VoiceKey[S] {
	return VoiceKey[S]{stable: false, fadeID: id}
}

// Message is one request drained by Synth.Render at the start of a
// block, submitted from the dispatch layer via a buffered channel that
// holds up to 256 messages; Render never waits on it, but Send blocks
// its caller while the buffer is full, until the next Render drains it.
type Message[S comparable] struct {
	kind           messageKind
	source         S
	waveform       *magnetron.Waveform
	pitch          pitch.Pitch
	pressure       float64
	damperPressure float64
	bendLevel      float64
	controller     control.ControllerID
	controlValue   float64
}

type messageKind int

const (
	msgStart messageKind = iota
	msgUpdatePitch
	msgUpdatePressure
	msgStop
	msgDamperPedal
	msgPitchBend
	msgControl
)

// StartMessage requests a new Stable voice for source, built from a
// fully-instantiated Waveform (instantiation — template expansion and
// stage construction — runs on the control thread, never here).
func StartMessage[S comparable](source S, waveform *magnetron.Waveform) Message[S] {
	return Message[S]{kind: msgStart, source: source, waveform: waveform}
}

// UpdatePitchMessage requests a pitch change for source's Stable voice,
// if one exists; a no-op otherwise (e.g. the voice already released).
func UpdatePitchMessage[S comparable](source S, p pitch.Pitch) Message[S] {
	return Message[S]{kind: msgUpdatePitch, source: source, pitch: p}
}

// UpdatePressureMessage requests a key-pressure change for source's
// Stable voice, if one exists.
func UpdatePressureMessage[S comparable](source S, pressure float64) Message[S] {
	return Message[S]{kind: msgUpdatePressure, source: source, pressure: pressure}
}

// StopMessage requests release of source's Stable voice: it is rekeyed
// to Fading and its envelope set released with the current damper
// pressure.
func StopMessage[S comparable](source S) Message[S] {
	return Message[S]{kind: msgStop, source: source}
}

// DamperPedalMessage updates the sustain pedal pressure (cubed, per the
// original curve, to give the pedal's travel a more natural feel) and
// recomputes every Fading voice's effective release time from this
// instant.
func DamperPedalMessage[S comparable](pressure float64) Message[S] {
	return Message[S]{kind: msgDamperPedal, damperPressure: pressure}
}

// PitchBendMessage sets the current pitch-bend wheel level in [-1,1];
// only Stable voices pick up the resulting bend each block.
func PitchBendMessage[S comparable](bendLevel float64) Message[S] {
	return Message[S]{kind: msgPitchBend, bendLevel: bendLevel}
}

// ControlMessage records a performer controller value (modulation,
// breath, foot, expression, etc.) read by voices' ControllerRead
// sources.
func ControlMessage[S comparable](id control.ControllerID, value float64) Message[S] {
	return Message[S]{kind: msgControl, controller: id, controlValue: value}
}

// Synth is the polyphony manager. It is driven entirely by Render: the
// dispatch layer only ever sends messages, never touches voice state
// directly, keeping all DSP state exclusively on the render thread.
type Synth[S comparable] struct {
	messages    chan Message[S]
	voices      map[VoiceKey[S]]*magnetron.Waveform
	controllers *control.Controllers

	damperPressure        float64
	pitchBend             pitch.Ratio
	pitchWheelSensitivity pitch.Ratio
	nextFadeID            uint64

	RetirementThreshold float64
}

// New builds a Synth with the given pitch-wheel sensitivity (the ratio
// a full +1 bend level applies) and a message queue buffered to 256
// messages; the queue is not unbounded.
func New[S comparable](pitchWheelSensitivity pitch.Ratio) *Synth[S] {
	return &Synth[S]{
		messages:              make(chan Message[S], 256),
		voices:                make(map[VoiceKey[S]]*magnetron.Waveform),
		controllers:           control.NewControllers(),
		pitchBend:             pitch.FromFloat(1),
		pitchWheelSensitivity: pitchWheelSensitivity,
		RetirementThreshold:   DefaultRetirementThreshold,
	}
}

// Send enqueues a message for the next Render call to process. Safe to
// call from any goroutine; never blocks the render thread, but blocks
// the calling goroutine while 256 messages are already queued.
func (s *Synth[S]) Send(msg Message[S]) {
	s.messages <- msg
}

// Render drains all queued messages in submission order, then renders
// every live voice one block at a time into p, mixing the result into
// the host's interleaved stereo buffer (out[2i], out[2i+1] are the left
// and right samples for audio frame i). Voices whose curr_amplitude
// falls below RetirementThreshold are evicted at the end of the block.
// audioIn is the host-provided mono input, forwarded to every voice's
// pool (e.g. for a waveform that samples live input through a filter).
func (s *Synth[S]) Render(p *pool.Pool, sampleRate float64, out []float64, audioIn []float64) {
	s.drainMessages()

	if audioIn != nil {
		p.SetAudioIn(audioIn)
	}

	blockLen := p.BlockLen()
	mix := make([]float64, blockLen)

	for key, waveform := range s.voices {
		if key.stable {
			waveform.Properties.PitchBend = s.pitchBend
		}
		waveform.Render(p, sampleRate, s.controllers)
		audioOut := p.AudioOut()
		for i := range mix {
			v := audioOut[i]
			if math.IsNaN(v) {
				v = 0
			}
			mix[i] += v
		}
		if waveform.Properties.CurrAmplitude < s.RetirementThreshold {
			delete(s.voices, key)
		}
	}

	for i, v := range mix {
		if 2*i+1 >= len(out) {
			break
		}
		out[2*i] += v / 10
		out[2*i+1] += v / 10
	}
}

func (s *Synth[S]) drainMessages() {
	for {
		select {
		case msg := <-s.messages:
			s.processMessage(msg)
		default:
			return
		}
	}
}

func (s *Synth[S]) processMessage(msg Message[S]) {
	switch msg.kind {
	case msgStart:
		s.voices[Stable(msg.source)] = msg.waveform

	case msgUpdatePitch:
		if w, ok := s.voices[Stable(msg.source)]; ok {
			w.Properties.Pitch = msg.pitch
		}

	case msgUpdatePressure:
		if w, ok := s.voices[Stable(msg.source)]; ok {
			w.Properties.KeyPressure = msg.pressure
		}

	case msgStop:
		key := Stable(msg.source)
		if w, ok := s.voices[key]; ok {
			delete(s.voices, key)
			ctl := &control.Context{Properties: w.Properties, Controllers: s.controllers}
			w.Envelope.SetReleased(ctl, s.damperPressure)
			s.voices[Fading[S](s.nextFadeID)] = w
			s.nextFadeID++
		}

	case msgDamperPedal:
		pressure := math.Max(0, math.Min(1, msg.damperPressure))
		s.damperPressure = pressure * pressure * pressure
		for key, w := range s.voices {
			if !key.stable {
				ctl := &control.Context{Properties: w.Properties, Controllers: s.controllers}
				w.Envelope.UpdateDamperPressure(ctl, s.damperPressure)
			}
		}

	case msgPitchBend:
		s.pitchBend = s.pitchWheelSensitivity.Repeated(msg.bendLevel)

	case msgControl:
		s.controllers.Set(msg.controller, msg.controlValue)
	}
}

// Voices reports how many voices (Stable and Fading combined) are
// currently live, for diagnostics.
func (s *Synth[S]) Voices() int {
	return len(s.voices)
}
