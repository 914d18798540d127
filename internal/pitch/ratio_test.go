package pitch

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestFromCentsAndSemitones(t *testing.T) {
	if !almostEqual(FromCents(1200).AsFloat(), 2.0, 1e-9) {
		t.Errorf("1200 cents should be an octave, got %v", FromCents(1200).AsFloat())
	}
	if !almostEqual(FromSemitones(12).AsFloat(), 2.0, 1e-9) {
		t.Errorf("12 semitones should be an octave, got %v", FromSemitones(12).AsFloat())
	}
	if !almostEqual(FromCents(700).AsCents(), 700.0, 1e-9) {
		t.Errorf("round trip through cents failed")
	}
}

func TestOctave(t *testing.T) {
	if Octave().AsFloat() != 2.0 {
		t.Errorf("Octave() = %v, want 2.0", Octave().AsFloat())
	}
}

func TestBetweenPitches(t *testing.T) {
	a := FromHz(220)
	b := FromHz(440)
	r := BetweenPitches(a, b)
	if !almostEqual(r.AsFloat(), 2.0, 1e-9) {
		t.Errorf("BetweenPitches(220,440) = %v, want 2.0", r.AsFloat())
	}
}

func TestStretchedByReversesDeviationFrom(t *testing.T) {
	base := FromCents(350)
	stretch := FromCents(75)
	stretched := base.StretchedBy(stretch)
	if !almostEqual(stretched.DeviationFrom(stretch).AsFloat(), base.AsFloat(), 1e-9) {
		t.Errorf("DeviationFrom did not reverse StretchedBy")
	}
}

func TestRepeatedReversesDividedIntoEqualSteps(t *testing.T) {
	r := FromCents(1550)
	steps := 3.0
	divided := r.DividedIntoEqualSteps(steps)
	if !almostEqual(divided.Repeated(steps).AsCents(), r.AsCents(), 1e-6) {
		t.Errorf("Repeated did not reverse DividedIntoEqualSteps")
	}
	if !almostEqual(r.NumEqualStepsOfSize(divided), steps, 1e-6) {
		t.Errorf("NumEqualStepsOfSize mismatch: got %v, want %v", r.NumEqualStepsOfSize(divided), steps)
	}
}

func TestInv(t *testing.T) {
	r := FromFloat(1.5)
	if !almostEqual(r.Inv().AsFloat(), 1.0/1.5, 1e-12) {
		t.Errorf("Inv mismatch")
	}
}

func TestAbsFoldsSubunitRatios(t *testing.T) {
	if !almostEqual(FromFloat(0.5).Abs().AsFloat(), 2.0, 1e-9) {
		t.Errorf("Abs(0.5) should fold to 2.0")
	}
	if !almostEqual(FromFloat(1.5).Abs().AsFloat(), 1.5, 1e-9) {
		t.Errorf("Abs(1.5) should be unchanged")
	}
	if !almostEqual(FromFloat(-0.5).Abs().AsFloat(), -2.0, 1e-9) {
		t.Errorf("Abs(-0.5) should fold to -2.0")
	}
}

func TestIsNegligible(t *testing.T) {
	if !FromFloat(1.0000001).IsNegligible() {
		t.Errorf("expected 1.0000001 to be negligible")
	}
	if FromFloat(1.01).IsNegligible() {
		t.Errorf("expected 1.01 to not be negligible")
	}
}

func TestTotalCmpOrdersNaNConsistently(t *testing.T) {
	nan := FromFloat(math.NaN())
	one := FromFloat(1.0)
	if nan.TotalCmp(nan) != 0 {
		t.Errorf("NaN should total-compare equal to itself")
	}
	// must be a strict, consistent order: exactly one of the two holds
	lt := nan.TotalCmp(one) < 0
	gt := nan.TotalCmp(one) > 0
	if lt == gt {
		t.Errorf("NaN must compare strictly less or greater than a real value, not both or neither")
	}
	if one.TotalCmp(nan) != -nan.TotalCmp(one) {
		t.Errorf("TotalCmp must be antisymmetric")
	}
}

func TestNearestFractionOfPerfectFifth(t *testing.T) {
	fifth := FromCents(702.0)
	approx := fifth.NearestFraction(11)
	if approx.Numer != 3 || approx.Denom != 2 {
		t.Errorf("NearestFraction(702c, 11) = %d/%d, want 3/2", approx.Numer, approx.Denom)
	}
	if math.Abs(approx.Deviation.AsCents()) > 5 {
		t.Errorf("deviation too large: %v cents", approx.Deviation.AsCents())
	}
}

func TestNearestFractionNormalizesOctaves(t *testing.T) {
	// A compound fifth an octave up from unison: 2*3/2 = 3/1, should report
	// num_octaves=1 and numer/denom within one octave of it.
	r := FromFloat(3.0)
	approx := r.NearestFraction(11)
	if approx.NumOctaves != 1 {
		t.Errorf("NumOctaves = %d, want 1", approx.NumOctaves)
	}
	if approx.Numer != 3 || approx.Denom != 2 {
		t.Errorf("NearestFraction(3/1, 11) = %d/%d, want 3/2 folded into one octave", approx.Numer, approx.Denom)
	}
}

func TestOddFactors(t *testing.T) {
	cases := map[uint16]uint16{12: 3, 11: 11, 16: 1, 1: 1, 6: 3}
	for in, want := range cases {
		if got := oddFactors(in); got != want {
			t.Errorf("oddFactors(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestParseRatioFloat(t *testing.T) {
	r, err := ParseRatioValue("1.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(r.AsFloat(), 1.5, 1e-12) {
		t.Errorf("got %v, want 1.5", r.AsFloat())
	}
}

func TestParseRatioFraction(t *testing.T) {
	r, err := ParseRatioValue("3/2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(r.AsFloat(), 1.5, 1e-12) {
		t.Errorf("got %v, want 1.5", r.AsFloat())
	}
}

func TestParseRatioIntervalFraction(t *testing.T) {
	// 12 equal steps to the octave, step 7: a twelve-tone-equal fifth
	r, err := ParseRatioValue("7:12:2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(r.AsCents(), 700.0, 1e-9) {
		t.Errorf("got %v cents, want 700", r.AsCents())
	}
}

func TestParseRatioCents(t *testing.T) {
	r, err := ParseRatioValue("702c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(r.AsCents(), 702.0, 1e-9) {
		t.Errorf("got %v, want 702", r.AsCents())
	}
}

func TestParseRatioParenthesized(t *testing.T) {
	r, err := ParseRatioValue("(3/2)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(r.AsFloat(), 1.5, 1e-12) {
		t.Errorf("got %v, want 1.5", r.AsFloat())
	}
}

func TestParseRatioRejectsNonPositive(t *testing.T) {
	if _, err := ParseRatioValue("-1"); err == nil {
		t.Errorf("expected error for non-positive ratio")
	}
	if _, err := ParseRatioValue("garbage"); err == nil {
		t.Errorf("expected error for unparseable expression")
	}
}

func TestPitchMulDivRoundTrip(t *testing.T) {
	p := FromHz(440)
	r := FromCents(400)
	if !almostEqual(p.Mul(r).Div(r).AsHz(), p.AsHz(), 1e-9) {
		t.Errorf("Mul/Div did not round trip")
	}
}
