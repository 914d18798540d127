// Package dispatch routes performer events (key presses, pitch updates,
// controllers) to whichever backend is currently active — the built-in
// waveform synth, a MIDI-out device, or (as a stub seam) a soundfont
// renderer — after converting a scale degree to a tuned pitch via the
// active Scl/Kbm.
package dispatch

import (
	"github.com/cbegin/microwave-go/internal/pitch"
	"github.com/cbegin/microwave-go/internal/scala"
)

// Status reports a backend's current user-facing state, shown in the UI
// status line.
type Status struct {
	Name   string
	Tuned  bool
	Detail string
}

// Backend is anything that can sound a tuned pitch: the built-in
// waveform synth, a MIDI-out device, or an external soundfont renderer.
// Grounded directly on the original's piano::Backend trait, referenced
// throughout synth.rs/midi.rs.
type Backend interface {
	SetTuning(scl *scala.Scl, kbm scala.Kbm)
	Start(id int, degree int, p pitch.Pitch, velocity uint8)
	UpdatePitch(id int, degree int, p pitch.Pitch)
	UpdatePressure(id int, pressure uint8)
	Stop(id int, velocity uint8)
	SendStatus() Status
}

// sourceState is the Idle/Sounding state machine the spec requires per
// source id, independent of which backend is active: Idle -> Sounding on
// Start, Sounding -> Sounding on UpdatePitch/UpdatePressure, Sounding ->
// Idle on Stop.
type sourceState int

const (
	stateIdle sourceState = iota
	stateSounding
)

// Dispatcher holds the active tuning and an ordered list of backends
// with a single active index, and converts performer events into
// (degree, pitch, velocity) triples forwarded to the active backend.
type Dispatcher struct {
	scl      *scala.Scl
	kbm      scala.Kbm
	backends []Backend
	active   int
	states   map[int]sourceState
}

// New builds a Dispatcher over an ordered list of backends (index 0
// active initially), tuned by scl/kbm.
func New(backends []Backend, scl *scala.Scl, kbm scala.Kbm) *Dispatcher {
	d := &Dispatcher{
		backends: backends,
		scl:      scl,
		kbm:      kbm,
		states:   make(map[int]sourceState),
	}
	for _, b := range backends {
		b.SetTuning(scl, kbm)
	}
	return d
}

// SetTuning updates the active Scl/Kbm and pushes it to every backend —
// changing the scale retunes every backend, not just the active one, so
// switching backends mid-session doesn't leave a stale tuning behind.
func (d *Dispatcher) SetTuning(scl *scala.Scl, kbm scala.Kbm) {
	d.scl = scl
	d.kbm = kbm
	for _, b := range d.backends {
		b.SetTuning(scl, kbm)
	}
}

// SetActiveBackend switches which backend subsequent events route to.
func (d *Dispatcher) SetActiveBackend(index int) {
	if index >= 0 && index < len(d.backends) {
		d.active = index
	}
}

// ActiveBackend returns the currently routed-to backend.
func (d *Dispatcher) ActiveBackend() Backend {
	if len(d.backends) == 0 {
		return nil
	}
	return d.backends[d.active]
}

// Start converts degree to a tuned pitch and forwards to the active
// backend. A second Start for an already-Sounding id issues a Stop then
// Start pair, per the state machine's explicit rule.
func (d *Dispatcher) Start(id int, degree int, velocity uint8) {
	backend := d.ActiveBackend()
	if backend == nil {
		return
	}
	if d.states[id] == stateSounding {
		backend.Stop(id, velocity)
	}
	p := d.kbm.PitchOf(*d.scl, degree)
	backend.Start(id, degree, p, velocity)
	d.states[id] = stateSounding
}

// UpdatePitch forwards a degree change for an already-Sounding id.
func (d *Dispatcher) UpdatePitch(id int, degree int) {
	if d.states[id] != stateSounding {
		return
	}
	backend := d.ActiveBackend()
	if backend == nil {
		return
	}
	p := d.kbm.PitchOf(*d.scl, degree)
	backend.UpdatePitch(id, degree, p)
}

// UpdatePressure forwards a key-pressure change for an already-Sounding
// id.
func (d *Dispatcher) UpdatePressure(id int, pressure uint8) {
	if d.states[id] != stateSounding {
		return
	}
	backend := d.ActiveBackend()
	if backend == nil {
		return
	}
	backend.UpdatePressure(id, pressure)
}

// Stop forwards release of id and moves it back to Idle.
func (d *Dispatcher) Stop(id int, velocity uint8) {
	if d.states[id] != stateSounding {
		return
	}
	backend := d.ActiveBackend()
	if backend == nil {
		return
	}
	backend.Stop(id, velocity)
	d.states[id] = stateIdle
}

// SendStatus asks the active backend to report its current status.
func (d *Dispatcher) SendStatus() Status {
	backend := d.ActiveBackend()
	if backend == nil {
		return Status{Name: "none"}
	}
	return backend.SendStatus()
}
