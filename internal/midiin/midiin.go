// Package midiin decodes standard MIDI 1.0 channel messages into engine
// events: note on/off and key pressure route through a dispatch.Dispatcher,
// while pitch bend, the damper pedal, and other performance controllers
// are engine-global and go straight to the polyphony manager, mirroring
// the MIDI byte-stream conventions midiout encodes on the way out.
//
// Device enumeration and opening (which OS MIDI port bytes arrive from)
// is an external collaborator per spec.md §1/§6: this package only
// interprets a byte slice already read from somewhere.
package midiin

import (
	"fmt"

	"github.com/cbegin/microwave-go/internal/control"
	"github.com/cbegin/microwave-go/internal/dispatch"
	"github.com/cbegin/microwave-go/internal/scala"
	"github.com/cbegin/microwave-go/internal/synth"
)

// CCMap names which MIDI CC numbers the performer surface uses for each
// standard expressive controller, mirroring §6's "per-controller CC
// numbers" run options.
type CCMap struct {
	Modulation, Breath, Foot, Volume, Expression uint8
	Damper, Sostenuto, Soft, Legato               uint8
	Sound                                          [10]uint8
}

// DefaultCCMap is the MIDI 1.0 standard assignment for each controller.
func DefaultCCMap() CCMap {
	return CCMap{
		Modulation: 1, Breath: 2, Foot: 4, Volume: 7, Expression: 11,
		Damper: 64, Sostenuto: 66, Soft: 67, Legato: 68,
		Sound: [10]uint8{70, 71, 72, 73, 74, 75, 76, 77, 78, 79},
	}
}

// PitchWheelSensitivitySemitones is the MIDI default pitch-bend range:
// a full +1/-1 wheel level bends two semitones.
const PitchWheelSensitivitySemitones = 2.0

// Router decodes raw MIDI channel messages and forwards them to a
// Dispatcher (note on/off, key pressure) and a Synth (pitch bend, damper
// pedal, other controllers).
type Router struct {
	dispatcher *dispatch.Dispatcher
	synth      *synth.Synth[int]
	kbm        scala.Kbm
	ccMap      CCMap
}

// NewRouter builds a Router over the given dispatcher and polyphony
// manager, keyed to kbm for scale-degree conversion and ccMap for CC
// interpretation.
func NewRouter(d *dispatch.Dispatcher, s *synth.Synth[int], kbm scala.Kbm, ccMap CCMap) *Router {
	return &Router{dispatcher: d, synth: s, kbm: kbm, ccMap: ccMap}
}

// HandleMessage decodes one raw MIDI message and routes it. An unknown
// or malformed message is reported so the caller can log a [WARNING]
// and continue, per §7's recoverable-condition handling.
func (r *Router) HandleMessage(msg []byte) error {
	if len(msg) == 0 {
		return fmt.Errorf("empty MIDI message")
	}
	status := msg[0]
	kind := status & 0xF0

	switch kind {
	case 0x80: // note off
		if len(msg) < 3 {
			return fmt.Errorf("short note-off message")
		}
		note := int(msg[1])
		velocity := msg[2]
		r.dispatcher.Stop(note, velocity)

	case 0x90: // note on (velocity 0 is a note off, by MIDI convention)
		if len(msg) < 3 {
			return fmt.Errorf("short note-on message")
		}
		note := int(msg[1])
		velocity := msg[2]
		if velocity == 0 {
			r.dispatcher.Stop(note, 0)
			return nil
		}
		degree := r.kbm.DegreeOfKey(note)
		r.dispatcher.Start(note, degree, velocity)

	case 0xA0: // polyphonic key pressure
		if len(msg) < 3 {
			return fmt.Errorf("short polyphonic-pressure message")
		}
		note := int(msg[1])
		pressure := msg[2]
		r.dispatcher.UpdatePressure(note, pressure)

	case 0xB0: // control change
		if len(msg) < 3 {
			return fmt.Errorf("short control-change message")
		}
		r.handleControlChange(msg[1], msg[2])

	case 0xD0: // channel pressure (applies to every sounding note)
		if len(msg) < 2 {
			return fmt.Errorf("short channel-pressure message")
		}
		// Channel pressure has no per-note target; approximate it as a
		// global controller so waveforms that read it via a
		// ControllerRead still respond.
		r.synth.Send(synth.ControlMessage[int](control.ControllerID(0xD0), float64(msg[1])/127.0))

	case 0xE0: // pitch bend
		if len(msg) < 3 {
			return fmt.Errorf("short pitch-bend message")
		}
		value := int(msg[1]) | int(msg[2])<<7
		bendLevel := (float64(value) - 8192) / 8192
		r.synth.Send(synth.PitchBendMessage[int](bendLevel))

	default:
		return fmt.Errorf("unsupported MIDI status byte 0x%02X", status)
	}
	return nil
}

func (r *Router) handleControlChange(cc, value uint8) {
	if cc == r.ccMap.Damper {
		r.synth.Send(synth.DamperPedalMessage[int](float64(value) / 127.0))
		return
	}
	r.synth.Send(synth.ControlMessage[int](control.ControllerID(cc), float64(value)/127.0))
}
