package midiin

import (
	"testing"

	"github.com/cbegin/microwave-go/internal/dispatch"
	"github.com/cbegin/microwave-go/internal/pitch"
	"github.com/cbegin/microwave-go/internal/scala"
	"github.com/cbegin/microwave-go/internal/synth"
)

type recordingBackend struct {
	startCalls []int
	stopCalls  []int
	pressures  []uint8
}

func (b *recordingBackend) SetTuning(scl *scala.Scl, kbm scala.Kbm) {}
func (b *recordingBackend) Start(id int, degree int, p pitch.Pitch, velocity uint8) {
	b.startCalls = append(b.startCalls, id)
}
func (b *recordingBackend) UpdatePitch(id int, degree int, p pitch.Pitch) {}
func (b *recordingBackend) UpdatePressure(id int, pressure uint8) {
	b.pressures = append(b.pressures, pressure)
}
func (b *recordingBackend) Stop(id int, velocity uint8) { b.stopCalls = append(b.stopCalls, id) }
func (b *recordingBackend) SendStatus() dispatch.Status { return dispatch.Status{Name: "recording"} }

func testRouter() (*Router, *recordingBackend) {
	scl := scala.EqualTemperament(12, pitch.Octave())
	kbm := scala.StandardKbm()
	backend := &recordingBackend{}
	d := dispatch.New([]dispatch.Backend{backend}, &scl, kbm)
	s := synth.New[int](pitch.FromSemitones(PitchWheelSensitivitySemitones))
	return NewRouter(d, s, kbm, DefaultCCMap()), backend
}

func TestNoteOnForwardsStartToDispatcher(t *testing.T) {
	r, backend := testRouter()
	if err := r.HandleMessage([]byte{0x90, 69, 100}); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(backend.startCalls) != 1 || backend.startCalls[0] != 69 {
		t.Errorf("expected a start call for note 69, got %v", backend.startCalls)
	}
}

func TestNoteOnWithZeroVelocityActsAsNoteOff(t *testing.T) {
	r, backend := testRouter()
	r.HandleMessage([]byte{0x90, 69, 100})
	if err := r.HandleMessage([]byte{0x90, 69, 0}); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(backend.stopCalls) != 1 || backend.stopCalls[0] != 69 {
		t.Errorf("expected zero-velocity note-on to stop note 69, got %v", backend.stopCalls)
	}
}

func TestNoteOffForwardsStop(t *testing.T) {
	r, backend := testRouter()
	r.HandleMessage([]byte{0x90, 60, 100})
	if err := r.HandleMessage([]byte{0x80, 60, 0}); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(backend.stopCalls) != 1 || backend.stopCalls[0] != 60 {
		t.Errorf("expected a stop call for note 60, got %v", backend.stopCalls)
	}
}

func TestPolyphonicPressureForwardsUpdatePressure(t *testing.T) {
	r, backend := testRouter()
	r.HandleMessage([]byte{0x90, 60, 100})
	if err := r.HandleMessage([]byte{0xA0, 60, 80}); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(backend.pressures) != 1 || backend.pressures[0] != 80 {
		t.Errorf("expected forwarded pressure 80, got %v", backend.pressures)
	}
}

func TestShortMessageIsRejected(t *testing.T) {
	r, _ := testRouter()
	if err := r.HandleMessage([]byte{0x90, 60}); err == nil {
		t.Error("expected a short note-on message to be rejected")
	}
}

func TestUnsupportedStatusByteIsRejected(t *testing.T) {
	r, _ := testRouter()
	if err := r.HandleMessage([]byte{0xF8}); err == nil {
		t.Error("expected an unsupported status byte to be rejected")
	}
}

func TestDamperControlChangeGoesToSynthNotDispatcher(t *testing.T) {
	r, backend := testRouter()
	if err := r.HandleMessage([]byte{0xB0, 64, 127}); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(backend.pressures) != 0 || len(backend.startCalls) != 0 {
		t.Error("expected a damper CC to never reach the dispatch backend")
	}
}

func TestPitchBendMessageIsAccepted(t *testing.T) {
	r, _ := testRouter()
	if err := r.HandleMessage([]byte{0xE0, 0x00, 0x40}); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
}
