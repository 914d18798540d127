package scala

import (
	"math"
	"testing"

	"github.com/cbegin/microwave-go/internal/pitch"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestEqualTemperamentPitchOfWraps(t *testing.T) {
	scl := EqualTemperament(12, pitch.Octave())
	if !almostEqual(scl.PitchOf(0).AsFloat(), 1.0, 1e-9) {
		t.Errorf("degree 0 should be unison")
	}
	if !almostEqual(scl.PitchOf(12).AsFloat(), 2.0, 1e-9) {
		t.Errorf("degree 12 should be one octave up, got %v", scl.PitchOf(12).AsFloat())
	}
	if !almostEqual(scl.PitchOf(-12).AsFloat(), 0.5, 1e-9) {
		t.Errorf("degree -12 should be one octave down, got %v", scl.PitchOf(-12).AsFloat())
	}
	if !almostEqual(scl.PitchOf(7).AsCents(), 700.0, 1e-6) {
		t.Errorf("degree 7 of 12-tet should be 700 cents, got %v", scl.PitchOf(7).AsCents())
	}
}

func TestKbmPitchOfReferenceKey(t *testing.T) {
	kbm := StandardKbm()
	scl := EqualTemperament(12, pitch.Octave())
	got := kbm.PitchOf(scl, kbm.DegreeOfKey(69))
	if !almostEqual(got.AsHz(), 440.0, 1e-6) {
		t.Errorf("reference key should map to reference pitch, got %v Hz", got.AsHz())
	}
}

func TestKbmPitchOfOneSemitoneUp(t *testing.T) {
	kbm := StandardKbm()
	scl := EqualTemperament(12, pitch.Octave())
	got := kbm.PitchOf(scl, kbm.DegreeOfKey(70))
	want := 440.0 * math.Pow(2, 1.0/12.0)
	if !almostEqual(got.AsHz(), want, 1e-6) {
		t.Errorf("got %v Hz, want %v Hz", got.AsHz(), want)
	}
}

func TestKbmRootDegreeOffset(t *testing.T) {
	scl := EqualTemperament(12, pitch.Octave())
	kbm := Kbm{RefKey: 60, RefPitch: pitch.FromHz(261.6256), RootDegree: 2}
	// degree equal to RootDegree should map to the reference pitch itself
	got := kbm.PitchOf(scl, 2)
	if !almostEqual(got.AsHz(), 261.6256, 1e-4) {
		t.Errorf("degree == RootDegree should map to ref pitch, got %v", got.AsHz())
	}
}
