// Package midiout implements the MIDI-out backend: it forwards tuned
// pitches to an external MIDI device, allocating channels so that
// microtonal detuning survives standard 12-tone MIDI hardware/software
// that only supports per-channel (not per-note) pitch bend.
//
// No MIDI transport library exists anywhere in this module's reference
// corpus (see DESIGN.md) — the wire encoding and the out-bound Sender
// seam are hand-rolled against the standard MIDI 1.0 byte-stream
// format; only the channel-allocation/tuning-method domain logic is
// exercised by tests, since an actual OS MIDI port is outside this
// package's reach.
package midiout

import (
	"fmt"

	"github.com/cbegin/microwave-go/internal/pitch"
	"github.com/cbegin/microwave-go/internal/scala"
)

// TuningMethod selects how a MIDI-out backend approximates microtonal
// pitch using standard MIDI channels.
type TuningMethod int

const (
	FullKeyboard TuningMethod = iota
	FullKeyboardRT
	Octave1
	Octave1RT
	Octave2
	Octave2RT
	ChannelFineTuning
	PitchBend
)

// Capacity reports how many simultaneously and independently detuned
// notes a tuning method can sustain before it must reuse a channel's
// existing tuning or fall back to equal temperament. Full-keyboard
// methods dedicate one of the 16 MIDI channels per detuned note;
// octave-span methods share a single tuning table across a channel
// group, limiting how many distinct fractional offsets can be live at
// once; channel-fine-tuning holds one offset per channel; plain pitch
// bend is global and supports no simultaneous per-note detuning at all.
func (m TuningMethod) Capacity() int {
	switch m {
	case FullKeyboard, FullKeyboardRT:
		return 16
	case Octave1, Octave1RT:
		return 1
	case Octave2, Octave2RT:
		return 2
	case ChannelFineTuning:
		return 16
	default: // PitchBend
		return 1
	}
}

func (m TuningMethod) String() string {
	switch m {
	case FullKeyboard:
		return "full-keyboard"
	case FullKeyboardRT:
		return "full-keyboard-rt"
	case Octave1:
		return "octave-1"
	case Octave1RT:
		return "octave-1-rt"
	case Octave2:
		return "octave-2"
	case Octave2RT:
		return "octave-2-rt"
	case ChannelFineTuning:
		return "channel-fine-tuning"
	default:
		return "pitch-bend"
	}
}

// Sender is the outbound transport seam: something that can write a raw
// MIDI byte-stream message to a device or a recording sink. Kept as an
// interface rather than a concrete OS handle so this package can be
// unit-tested without a real MIDI port.
type Sender interface {
	Send(message []byte) error
}

// noteVoice ties a sounding source id to the channel and detune offset
// it was allocated.
type noteVoice struct {
	channel int
	detune  pitch.Ratio
}

// Backend implements dispatch.Backend by allocating MIDI channels so
// that simultaneously-sounding, differently-detuned notes keep their
// own per-channel pitch bend. When the tuning method's channel capacity
// is exhausted, new notes fall back to the nearest equal-temperament
// note on a shared, untuned channel and SendStatus reports "not tuned".
type Backend struct {
	sender  Sender
	method  TuningMethod
	voices  map[int]noteVoice
	tunings map[int]pitch.Ratio // channel -> detune currently programmed on it
	notTuned bool
}

// NewBackend builds a MIDI-out backend writing through sender with the
// given tuning method.
func NewBackend(sender Sender, method TuningMethod) *Backend {
	return &Backend{
		sender:  sender,
		method:  method,
		voices:  make(map[int]noteVoice),
		tunings: make(map[int]pitch.Ratio),
	}
}

// SetTuning is a no-op for the allocator itself: the allocator only
// needs each Start call's already-tuned target pitch, not the scale
// that produced it.
func (b *Backend) SetTuning(scl *scala.Scl, kbm scala.Kbm) {}

// allocate picks a channel for p relative to its nearest equal-tempered
// semitone, reusing a channel already carrying a close-enough detune,
// claiming a fresh channel while capacity allows, or falling back to
// the nearest equal-temperament note (detune forced to unison) once
// the method's channel budget is exhausted.
func (b *Backend) allocate(p pitch.Pitch) (channel int, detune pitch.Ratio, tuned bool) {
	target := equalTemperamentDeviation(p)

	const closeEnough = 0.02 // fraction of a semitone; channels within this share a tuning

	for ch, existing := range b.tunings {
		if channelFree(b.voices, ch) && ratioCloseCents(existing, target, closeEnough) {
			return ch, existing, true
		}
	}

	if len(b.tunings) < b.method.Capacity() {
		ch := len(b.tunings)
		b.tunings[ch] = target
		return ch, target, true
	}

	// Capacity exhausted: fall back to the nearest equal-temperament note on
	// channel 0, untuned.
	return 0, pitch.Unison(), false
}

func channelFree(voices map[int]noteVoice, channel int) bool {
	for _, v := range voices {
		if v.channel == channel {
			return false
		}
	}
	return true
}

func ratioCloseCents(a, b pitch.Ratio, semitoneTolerance float64) bool {
	diff := a.DeviationFrom(b).Abs().AsSemitones()
	return diff <= semitoneTolerance
}

// equalTemperamentDeviation is how far p deviates from its nearest
// 12-tone-equal-temperament note, as a Ratio.
func equalTemperamentDeviation(p pitch.Pitch) pitch.Ratio {
	semitonesFromA4 := pitch.FromFloat(p.AsHz() / 440.0).AsSemitones()
	nearest := roundToNearest(semitonesFromA4)
	return pitch.FromSemitones(semitonesFromA4 - nearest)
}

func roundToNearest(x float64) float64 {
	if x >= 0 {
		return float64(int(x + 0.5))
	}
	return -float64(int(-x + 0.5))
}

// Start allocates a channel for id at pitch p and sends a note-on,
// always sending the channel's pitch bend for the allocated detune
// first, whether the channel tuning is fresh or reused.
func (b *Backend) Start(id int, degree int, p pitch.Pitch, velocity uint8) {
	channel, detune, tuned := b.allocate(p)
	b.notTuned = !tuned
	b.voices[id] = noteVoice{channel: channel, detune: detune}

	nearestNote := nearestMidiNote(p)
	b.send(pitchBendMessage(channel, detune))
	b.send(noteOnMessage(channel, nearestNote, velocity))
}

// UpdatePitch re-bends the already-sounding voice's channel to track a
// new pitch, without reallocating a channel (the note stays on the
// channel it started on).
func (b *Backend) UpdatePitch(id int, degree int, p pitch.Pitch) {
	voice, ok := b.voices[id]
	if !ok {
		return
	}
	target := equalTemperamentDeviation(p)
	voice.detune = target
	b.voices[id] = voice
	b.tunings[voice.channel] = target
	b.send(pitchBendMessage(voice.channel, target))
}

// UpdatePressure sends channel (not per-note) pressure, the MIDI 1.0
// standard's only pressure granularity.
func (b *Backend) UpdatePressure(id int, pressure uint8) {
	voice, ok := b.voices[id]
	if !ok {
		return
	}
	b.send(channelPressureMessage(voice.channel, pressure))
}

// Stop sends a note-off and frees id's voice (its channel's tuning
// assignment is kept, so the next note needing the same detune reuses
// the channel; Start still resends the same pitch bend).
func (b *Backend) Stop(id int, velocity uint8) {
	voice, ok := b.voices[id]
	if !ok {
		return
	}
	delete(b.voices, id)
	b.send(noteOffMessage(voice.channel, velocity))
}

// SendStatus reports whether the most recent allocation had to fall
// back to an untuned equal-temperament note.
func (b *Backend) SendStatus() Status {
	if b.notTuned {
		return Status{Tuned: false, Detail: fmt.Sprintf("%s: not tuned (channel budget exhausted)", b.method)}
	}
	return Status{Tuned: true, Detail: b.method.String()}
}

// Status is the allocator's own status record; DispatchBackend converts
// it into a dispatch.Status.
type Status struct {
	Tuned  bool
	Detail string
}

func (b *Backend) send(message []byte) {
	if b.sender == nil {
		return
	}
	b.sender.Send(message)
}

func nearestMidiNote(p pitch.Pitch) uint8 {
	semitonesFromA4 := pitch.FromFloat(p.AsHz() / 440.0).AsSemitones()
	note := 69 + roundToNearest(semitonesFromA4)
	if note < 0 {
		note = 0
	}
	if note > 127 {
		note = 127
	}
	return uint8(note)
}

func noteOnMessage(channel int, note uint8, velocity uint8) []byte {
	return []byte{0x90 | byte(channel&0x0F), note, velocity}
}

func noteOffMessage(channel int, velocity uint8) []byte {
	return []byte{0x80 | byte(channel&0x0F), 0, velocity}
}

func channelPressureMessage(channel int, pressure uint8) []byte {
	return []byte{0xD0 | byte(channel&0x0F), pressure}
}

// pitchBendMessage encodes detune as a 14-bit MIDI pitch-bend value
// centered at 8192, assuming a +/-2-semitone bend range (the MIDI
// default).
func pitchBendMessage(channel int, detune pitch.Ratio) []byte {
	const bendRangeSemitones = 2.0
	fraction := detune.AsSemitones() / bendRangeSemitones
	if fraction > 1 {
		fraction = 1
	}
	if fraction < -1 {
		fraction = -1
	}
	value := int(8192 + fraction*8192)
	if value < 0 {
		value = 0
	}
	if value > 16383 {
		value = 16383
	}
	return []byte{0xE0 | byte(channel&0x0F), byte(value & 0x7F), byte((value >> 7) & 0x7F)}
}
