// Package control implements LfSource, the low-frequency control
// expression tree sampled once per audio block, and the per-voice/per-
// engine state it reads from.
package control

import (
	"fmt"
	"math"

	"github.com/cbegin/microwave-go/internal/dsp"
	"github.com/cbegin/microwave-go/internal/pitch"
)

// WaveformProperty names one field of a voice's property record that a
// Property leaf can read.
type WaveformProperty int

const (
	PropPitch WaveformProperty = iota
	PropPeriod
	PropVelocity
	PropOffVelocity
	PropKeyPressure
	PropCurrAmplitude
	PropFadeoutStart
)

// Properties is the per-voice record LfSource Property leaves read from.
// curr_amplitude decays monotonically once fadeout_start is set (the
// envelope, not this struct, enforces that).
type Properties struct {
	Pitch         pitch.Pitch
	PitchBend     pitch.Ratio
	Velocity      float64
	OffVelocity   float64
	KeyPressure   float64
	CurrAmplitude float64
	FadeoutStart  float64
	FadeoutSet    bool
}

// WaveformPitch is pitch bent by the voice's current pitch bend.
func (p *Properties) WaveformPitch() pitch.Pitch {
	return p.Pitch.Mul(p.PitchBend)
}

// WaveformPeriod is the reciprocal of WaveformPitch, in seconds.
func (p *Properties) WaveformPeriod() float64 {
	return 1.0 / p.WaveformPitch().AsHz()
}

func (p *Properties) get(prop WaveformProperty) float64 {
	switch prop {
	case PropPitch:
		return p.WaveformPitch().AsHz()
	case PropPeriod:
		return p.WaveformPeriod()
	case PropVelocity:
		return p.Velocity
	case PropOffVelocity:
		return p.OffVelocity
	case PropKeyPressure:
		return p.KeyPressure
	case PropCurrAmplitude:
		return p.CurrAmplitude
	case PropFadeoutStart:
		return p.FadeoutStart
	default:
		return 0
	}
}

// ControllerID identifies a live MIDI-style controller (e.g. a CC number
// or a synth-internal control channel).
type ControllerID uint32

// Controllers is the shared parameter storage that Controller leaves read
// from. It is owned exclusively by the render thread: lifecycle/control
// messages queue a Set, applied during the block's message drain, never
// concurrently with a Get from the same block's rendering.
type Controllers struct {
	values map[ControllerID]float64
}

// NewControllers creates empty controller storage; unset controllers read
// as 0.
func NewControllers() *Controllers {
	return &Controllers{values: make(map[ControllerID]float64)}
}

func (c *Controllers) Get(id ControllerID) float64 {
	return c.values[id]
}

func (c *Controllers) Set(id ControllerID, value float64) {
	c.values[id] = value
}

// Context is threaded through Next calls once per block: it carries the
// block duration, sample rate, the rendering voice's properties, and the
// engine's shared controller storage.
type Context struct {
	BlockSecs   float64
	SampleRate  float64
	Properties  *Properties
	Controllers *Controllers
}

// Source is a low-frequency control expression: stateful leaves retain
// their own phase/elapsed-time; Next samples the whole tree exactly once
// per block.
type Source interface {
	Next(ctl *Context) float64
}

// Clone returns an independent copy of a Source tree, including any
// per-leaf mutable state (phase, elapsed time) reset to its initial value.
// Used when instantiating a new voice from a shared waveform/template
// spec so voices don't share oscillator phase or envelope-local clocks.
func Clone(s Source) Source {
	if c, ok := s.(interface{ clone() Source }); ok {
		return c.clone()
	}
	return s
}

// Value is a constant leaf.
type Value float64

func (v Value) Next(*Context) float64 { return float64(v) }
func (v Value) clone() Source         { return v }

// Property reads one field of the rendering voice's property record.
type Property struct {
	Prop WaveformProperty
}

func (p Property) Next(ctl *Context) float64 { return ctl.Properties.get(p.Prop) }
func (p Property) clone() Source             { return p }

// ControllerRead reads controller ID from shared storage (range [0,1]) and
// linearly maps it to [Map0, Map1].
type ControllerRead struct {
	ID         ControllerID
	Map0, Map1 float64
}

func (c ControllerRead) Next(ctl *Context) float64 {
	v := ctl.Controllers.Get(c.ID)
	return c.Map0 + v*(c.Map1-c.Map0)
}
func (c ControllerRead) clone() Source { return c }

// Oscillator is a low-frequency oscillator leaf: advances its own phase by
// freq.Next()*block_secs each block and returns baseline + amplitude*shape(phase).
type Oscillator struct {
	Kind      dsp.Kind
	Freq      Source
	Baseline  Source
	Amplitude Source
	phase     float64
}

func NewOscillator(kind dsp.Kind, freq, baseline, amplitude Source) *Oscillator {
	return &Oscillator{Kind: kind, Freq: freq, Baseline: baseline, Amplitude: amplitude}
}

func (o *Oscillator) Next(ctl *Context) float64 {
	freq := o.Freq.Next(ctl)
	baseline := o.Baseline.Next(ctl)
	amplitude := o.Amplitude.Next(ctl)
	o.phase += freq * ctl.BlockSecs
	o.phase -= math.Floor(o.phase)
	return baseline + amplitude*dsp.ShapeFunc(o.Kind)(o.phase)
}

func (o *Oscillator) clone() Source {
	return &Oscillator{Kind: o.Kind, Freq: Clone(o.Freq), Baseline: Clone(o.Baseline), Amplitude: Clone(o.Amplitude)}
}

// Time tracks voice-local elapsed seconds and linearly ramps from From to
// To between Start and End; Start==End yields a step at that instant.
type Time struct {
	Start, End float64
	From, To   float64
	elapsed    float64
}

func NewTime(start, end, from, to float64) *Time {
	return &Time{Start: start, End: end, From: from, To: to}
}

func (t *Time) Next(ctl *Context) float64 {
	t.elapsed += ctl.BlockSecs
	switch {
	case t.Start == t.End && t.elapsed >= t.End:
		return t.To
	case t.elapsed <= t.Start:
		return t.From
	case t.elapsed >= t.End:
		return t.To
	default:
		frac := (t.elapsed - t.Start) / (t.End - t.Start)
		return t.From + frac*(t.To-t.From)
	}
}

func (t *Time) clone() Source {
	return &Time{Start: t.Start, End: t.End, From: t.From, To: t.To}
}

// Linear maps a clamped-to-[0,1] child value into [Map0, Map1].
type Linear struct {
	Input      Source
	Map0, Map1 float64
}

func (l Linear) Next(ctl *Context) float64 {
	x := l.Input.Next(ctl)
	if x < 0 {
		x = 0
	} else if x > 1 {
		x = 1
	}
	return l.Map0 + x*(l.Map1-l.Map0)
}
func (l Linear) clone() Source { return Linear{Input: Clone(l.Input), Map0: l.Map0, Map1: l.Map1} }

// Semitones converts a semitone count into the corresponding frequency
// ratio: 2^(x/12).
type Semitones struct {
	Child Source
}

func (s Semitones) Next(ctl *Context) float64 {
	return pitch.FromSemitones(s.Child.Next(ctl)).AsFloat()
}
func (s Semitones) clone() Source { return Semitones{Child: Clone(s.Child)} }

// Add is the pointwise sum of two sources.
type Add struct{ A, B Source }

func (a Add) Next(ctl *Context) float64 { return a.A.Next(ctl) + a.B.Next(ctl) }
func (a Add) clone() Source             { return Add{Clone(a.A), Clone(a.B)} }

// Mul is the pointwise product of two sources.
type Mul struct{ A, B Source }

func (m Mul) Next(ctl *Context) float64 { return m.A.Next(ctl) * m.B.Next(ctl) }
func (m Mul) clone() Source             { return Mul{Clone(m.A), Clone(m.B)} }

// TemplateRef names a Source declared once at engine-construction time;
// it exists only until spec-load-time expansion substitutes the
// referenced tree in its place — no runtime Source ever holds one.
type TemplateRef struct {
	Name string
}

func (t TemplateRef) Next(*Context) float64 {
	panic(fmt.Sprintf("unexpanded template reference %q reached the render thread", t.Name))
}
func (t TemplateRef) clone() Source { return t }
