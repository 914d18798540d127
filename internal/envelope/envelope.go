// Package envelope implements per-voice amplitude envelopes: an
// attack/decay curve while held, and a damper-pedal-modulated release
// curve once a voice is stopped.
package envelope

import (
	"math"

	"github.com/cbegin/microwave-go/internal/control"
)

// releaseThreshold is the amplitude below which a voice is retired
// (matches synth.DefaultRetirementThreshold). The release curve is scaled
// so that amplitude falls to releaseStartAmplitude*releaseThreshold by
// the end of EffectiveReleaseTime, making the retirement-timing property
// ("curr_amplitude < 1e-4 within t0+effective_release_time+2*block_secs")
// hold by construction rather than by coincidence.
const releaseThreshold = 1e-4

// decayToThresholdConstant is -ln(releaseThreshold); multiplying the
// fraction of elapsed release time by this constant and exponentiating
// gives a curve that reaches releaseThreshold exactly at
// EffectiveReleaseTime.
var decayToThresholdConstant = -math.Log(releaseThreshold)

// Spec describes an envelope's control-source parameters: amplitude,
// fadeout, attack time, decay rate, release time, all sampled once per
// block.
type Spec struct {
	Amplitude   control.Source
	Fadeout     control.Source
	AttackTime  control.Source
	DecayRate   control.Source
	ReleaseTime control.Source
}

// Clone returns an independent Spec with independently-stateful Sources,
// for instantiating a new voice from a shared preset.
func (s Spec) Clone() Spec {
	return Spec{
		Amplitude:   control.Clone(s.Amplitude),
		Fadeout:     control.Clone(s.Fadeout),
		AttackTime:  control.Clone(s.AttackTime),
		DecayRate:   control.Clone(s.DecayRate),
		ReleaseTime: control.Clone(s.ReleaseTime),
	}
}

// Envelope tracks one voice's amplitude curve: elapsed time since the
// voice started, and (once released) elapsed time since release plus the
// amplitude and effective release time frozen at the moment of release.
type Envelope struct {
	spec Spec

	elapsed float64

	released              bool
	releaseElapsed        float64
	releaseStartAmplitude float64
	effectiveReleaseTime  float64
	damperAtRelease       float64
}

// New creates an envelope for a freshly-started voice.
func New(spec Spec) *Envelope {
	return &Envelope{spec: spec.Clone()}
}

// Released reports whether SetReleased has been called.
func (e *Envelope) Released() bool {
	return e.released
}

// Amplitude evaluates the envelope's amplitude at its current elapsed
// time, without advancing that clock itself (Advance does that). The
// voice render order calls Advance first, then Amplitude, so a block's
// amplitude reflects its end rather than its start.
func (e *Envelope) Amplitude(ctl *control.Context) float64 {
	if e.released {
		if e.effectiveReleaseTime <= 0 {
			return 0
		}
		frac := e.releaseElapsed / e.effectiveReleaseTime
		if frac >= 1 {
			return 0
		}
		return e.releaseStartAmplitude * math.Exp(-frac*decayToThresholdConstant)
	}

	amplitudeLf := e.spec.Amplitude.Next(ctl)
	attackTime := e.spec.AttackTime.Next(ctl)
	decayRate := e.spec.DecayRate.Next(ctl)

	if attackTime <= 0 || e.elapsed >= attackTime {
		sustainElapsed := e.elapsed - attackTime
		if sustainElapsed < 0 {
			sustainElapsed = 0
		}
		if decayRate > 0 {
			return amplitudeLf * math.Exp(-decayRate*sustainElapsed)
		}
		return amplitudeLf
	}
	return amplitudeLf * (e.elapsed / attackTime)
}

// Advance moves the envelope's internal clock(s) forward by one block.
func (e *Envelope) Advance(blockSecs float64) {
	e.elapsed += blockSecs
	if e.released {
		e.releaseElapsed += blockSecs
	}
}

// SetReleased marks the envelope released with the given damper pressure
// and fadeout (sampled once, at the moment of release), and freezes the
// envelope's current amplitude as the release curve's starting point.
func (e *Envelope) SetReleased(ctl *control.Context, damperPressure float64) {
	startAmplitude := e.Amplitude(ctl)
	releaseTime := e.spec.ReleaseTime.Next(ctl)
	fadeout := e.spec.Fadeout.Next(ctl)

	e.released = true
	e.releaseElapsed = 0
	e.releaseStartAmplitude = startAmplitude
	e.damperAtRelease = damperPressure
	e.effectiveReleaseTime = EffectiveReleaseTime(releaseTime, damperPressure, fadeout)
}

// UpdateDamperPressure recomputes the effective release time of a
// currently-fading voice from a fresh damper pressure value, restarting
// the release curve from the voice's current amplitude so there's no
// discontinuity when the pedal changes mid-release.
func (e *Envelope) UpdateDamperPressure(ctl *control.Context, damperPressure float64) {
	if !e.released {
		return
	}
	currentAmplitude := e.Amplitude(ctl)
	releaseTime := e.spec.ReleaseTime.Next(ctl)
	fadeout := e.spec.Fadeout.Next(ctl)

	e.releaseElapsed = 0
	e.releaseStartAmplitude = currentAmplitude
	e.damperAtRelease = damperPressure
	e.effectiveReleaseTime = EffectiveReleaseTime(releaseTime, damperPressure, fadeout)
}

// EffectiveReleaseTime stretches release_time by how much damper pressure
// suppresses the release, per fadeout. fadeout=1 means the damper has no
// effect; fadeout=0 means full damper pressure holds the voice
// indefinitely (math.Inf when damper*(1-fadeout) reaches 1).
func EffectiveReleaseTime(releaseTime, damperPressure, fadeout float64) float64 {
	suppression := damperPressure * (1 - fadeout)
	if suppression >= 1 {
		return math.Inf(1)
	}
	return releaseTime / (1 - suppression)
}
