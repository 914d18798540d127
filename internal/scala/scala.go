// Package scala implements scale and keyboard-mapping math: turning a
// scale degree into an absolute Pitch.
package scala

import "github.com/cbegin/microwave-go/internal/pitch"

// Scl is an ordered finite list of ratios defining the steps within one
// period (usually an octave), plus the period ratio itself. Degree 0 is
// always unison; Ratios[i] is the pitch of degree i+1.
type Scl struct {
	Ratios []pitch.Ratio
	Period pitch.Ratio
}

// PitchOf folds degree into Period-wide octaves (wrapping in both
// directions) and returns the corresponding ratio from unison.
func (s Scl) PitchOf(degree int) pitch.Ratio {
	n := len(s.Ratios)
	if n == 0 {
		return s.Period.Repeated(float64(degree))
	}
	periods := 0
	d := degree
	for d < 0 {
		d += n
		periods--
	}
	for d >= n {
		d -= n
		periods++
	}
	var step pitch.Ratio
	if d == 0 {
		step = pitch.Unison()
	} else {
		step = s.Ratios[d-1]
	}
	return step.StretchedBy(s.Period.Repeated(float64(periods)))
}

// EqualTemperament builds an n-tone equal division of period (defaulting
// period to an octave when period.AsFloat() is zero-valued Ratio).
func EqualTemperament(n int, period pitch.Ratio) Scl {
	if period.AsFloat() == 0 {
		period = pitch.Octave()
	}
	ratios := make([]pitch.Ratio, n)
	step := period.DividedIntoEqualSteps(float64(n))
	for i := range ratios {
		ratios[i] = step.Repeated(float64(i + 1))
	}
	return Scl{Ratios: ratios, Period: period}
}

// Kbm is a reference mapping from one MIDI key number to one Pitch, plus
// the degree offset to the scale's root.
type Kbm struct {
	RefKey     int
	RefPitch   pitch.Pitch
	RootDegree int
}

// PitchOf computes pitch_of(degree) = ref_pitch * scale.pitch_of(degree - root_degree).
func (k Kbm) PitchOf(scl Scl, degree int) pitch.Pitch {
	return k.RefPitch.Mul(scl.PitchOf(degree - k.RootDegree))
}

// DegreeOfKey maps a MIDI key number to a scale degree relative to RefKey,
// assuming a linear 1-semitone-per-key keyboard layout.
func (k Kbm) DegreeOfKey(key int) int {
	return key - k.RefKey
}

// StandardKbm is the conventional mapping: MIDI key 69 (A4) is 440Hz, root
// degree 0.
func StandardKbm() Kbm {
	return Kbm{RefKey: 69, RefPitch: pitch.FromHz(440), RootDegree: 0}
}
