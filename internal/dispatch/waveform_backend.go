package dispatch

import (
	"fmt"

	"github.com/cbegin/microwave-go/internal/control"
	"github.com/cbegin/microwave-go/internal/magnetron"
	"github.com/cbegin/microwave-go/internal/pitch"
	"github.com/cbegin/microwave-go/internal/scala"
	"github.com/cbegin/microwave-go/internal/synth"
)

// WaveformBackend is a Backend that forwards events unchanged into the
// built-in polyphony manager. It also tracks which waveform from the
// library is currently selected (program-change style), so Start always
// instantiates the currently-dialed-in instrument.
type WaveformBackend struct {
	library *magnetron.Library
	synth   *synth.Synth[int]
	names   []string
	current int
}

// NewWaveformBackend builds a WaveformBackend over lib, forwarding
// voices into s. names fixes the program-change order (nil uses the
// library's map in unspecified order, which is fine for a single-entry
// library but should be set explicitly once config load order matters).
func NewWaveformBackend(lib *magnetron.Library, s *synth.Synth[int], names []string) *WaveformBackend {
	if names == nil {
		names = make([]string, 0, len(lib.Waveforms))
		for name := range lib.Waveforms {
			names = append(names, name)
		}
	}
	return &WaveformBackend{library: lib, synth: s, names: names}
}

// SetTuning is a no-op for the waveform backend: pitch arrives already
// tuned from the dispatcher, the waveform itself has no notion of scale.
func (b *WaveformBackend) SetTuning(scl *scala.Scl, kbm scala.Kbm) {}

// ProgramChange advances the current waveform by delta (wrapping), and
// returns the newly-selected name.
func (b *WaveformBackend) ProgramChange(delta int) string {
	if len(b.names) == 0 {
		return ""
	}
	b.current = ((b.current+delta)%len(b.names) + len(b.names)) % len(b.names)
	return b.names[b.current]
}

func (b *WaveformBackend) Start(id int, degree int, p pitch.Pitch, velocity uint8) {
	if len(b.names) == 0 {
		return
	}
	name := b.names[b.current]
	props := &control.Properties{
		Pitch:     p,
		PitchBend: pitch.FromFloat(1),
		Velocity:  float64(velocity) / 127.0,
		// CurrAmplitude starts at 1.0, not 0. Waveform.Render overwrites
		// it with the block's peak before Synth.Render's retirement
		// check, so the starting value only shows in what a
		// curr_amplitude property read sees during the first block.
		CurrAmplitude: 1.0,
	}
	waveform, err := b.library.Instantiate(name, props)
	if err != nil {
		return
	}
	b.synth.Send(synth.StartMessage(id, waveform))
}

func (b *WaveformBackend) UpdatePitch(id int, degree int, p pitch.Pitch) {
	b.synth.Send(synth.UpdatePitchMessage(id, p))
}

func (b *WaveformBackend) UpdatePressure(id int, pressure uint8) {
	b.synth.Send(synth.UpdatePressureMessage(id, float64(pressure)/127.0))
}

func (b *WaveformBackend) Stop(id int, velocity uint8) {
	b.synth.Send(synth.StopMessage(id))
}

func (b *WaveformBackend) SendStatus() Status {
	name := ""
	if len(b.names) > 0 {
		name = b.names[b.current]
	}
	return Status{
		Name:   name,
		Tuned:  true,
		Detail: fmt.Sprintf("%d voices", b.synth.Voices()),
	}
}

// SoundfontBackend is a stub seam satisfying Backend for an external
// soundfont renderer. Soundfont loading/rendering itself is out of
// scope; only the interface seam the dispatcher routes through is
// implemented here.
type SoundfontBackend struct {
	Loaded bool
}

func (b *SoundfontBackend) SetTuning(scl *scala.Scl, kbm scala.Kbm) {}
func (b *SoundfontBackend) Start(id int, degree int, p pitch.Pitch, velocity uint8) {}
func (b *SoundfontBackend) UpdatePitch(id int, degree int, p pitch.Pitch)           {}
func (b *SoundfontBackend) UpdatePressure(id int, pressure uint8)                   {}
func (b *SoundfontBackend) Stop(id int, velocity uint8)                             {}

func (b *SoundfontBackend) SendStatus() Status {
	if !b.Loaded {
		return Status{Name: "soundfont", Detail: "no soundfont loaded"}
	}
	return Status{Name: "soundfont", Tuned: false, Detail: "soundfont rendering not implemented"}
}
