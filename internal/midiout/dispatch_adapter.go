package midiout

import "github.com/cbegin/microwave-go/internal/dispatch"

// DispatchBackend adapts Backend to satisfy dispatch.Backend, since
// this package's Status type has no reason to depend on the dispatch
// package (and dispatch, in turn, must not depend on every concrete
// backend).
type DispatchBackend struct {
	*Backend
	device string
}

// NewDispatchBackend wraps backend for a device named in status
// messages.
func NewDispatchBackend(backend *Backend, device string) *DispatchBackend {
	return &DispatchBackend{Backend: backend, device: device}
}

func (d *DispatchBackend) SendStatus() dispatch.Status {
	status := d.Backend.SendStatus()
	return dispatch.Status{Name: d.device, Tuned: status.Tuned, Detail: status.Detail}
}
