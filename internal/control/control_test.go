package control

import (
	"math"
	"testing"

	"github.com/cbegin/microwave-go/internal/dsp"
	"github.com/cbegin/microwave-go/internal/pitch"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func newCtx(blockSecs float64, props *Properties, ctrls *Controllers) *Context {
	if props == nil {
		props = &Properties{Pitch: pitch.FromHz(440), PitchBend: pitch.FromFloat(1)}
	}
	if ctrls == nil {
		ctrls = NewControllers()
	}
	return &Context{BlockSecs: blockSecs, SampleRate: 48000, Properties: props, Controllers: ctrls}
}

func TestValue(t *testing.T) {
	if Value(1.5).Next(newCtx(0.01, nil, nil)) != 1.5 {
		t.Errorf("Value should return its constant")
	}
}

func TestPropertyReadsWaveformPitch(t *testing.T) {
	props := &Properties{Pitch: pitch.FromHz(220), PitchBend: pitch.FromSemitones(12)}
	got := Property{Prop: PropPitch}.Next(newCtx(0.01, props, nil))
	if !almostEqual(got, 440, 1e-6) {
		t.Errorf("pitch-bent property read = %v, want 440", got)
	}
}

func TestPropertyPeriodIsReciprocalOfPitch(t *testing.T) {
	props := &Properties{Pitch: pitch.FromHz(500), PitchBend: pitch.FromFloat(1)}
	ctx := newCtx(0.01, props, nil)
	period := Property{Prop: PropPeriod}.Next(ctx)
	if !almostEqual(period, 1.0/500.0, 1e-9) {
		t.Errorf("period = %v, want %v", period, 1.0/500.0)
	}
}

func TestControllerReadMapsRange(t *testing.T) {
	ctrls := NewControllers()
	ctrls.Set(1, 0.5)
	got := ControllerRead{ID: 1, Map0: 10, Map1: 20}.Next(newCtx(0.01, nil, ctrls))
	if !almostEqual(got, 15, 1e-9) {
		t.Errorf("controller mapped value = %v, want 15", got)
	}
}

func TestOscillatorAdvancesPhase(t *testing.T) {
	osc := NewOscillator(dsp.Sawtooth, Value(1), Value(0), Value(1))
	ctx := newCtx(0.25, nil, nil)
	first := osc.Next(ctx)
	second := osc.Next(ctx)
	if almostEqual(first, second, 1e-9) {
		t.Errorf("oscillator should advance between calls")
	}
	// after 4 quarter-period blocks at 1Hz, phase should have wrapped to 0
	osc.Next(ctx)
	fourth := osc.Next(ctx)
	if !almostEqual(fourth, dsp.SawtoothShape(0), 1e-9) {
		t.Errorf("phase should wrap after a full cycle, got %v", fourth)
	}
}

func TestTimeSteppingAndStep(t *testing.T) {
	tm := NewTime(1.0, 2.0, 0.0, 10.0)
	ctx := newCtx(0.5, nil, nil)
	if v := tm.Next(ctx); v != 0.0 { // elapsed 0.5 <= start 1.0
		t.Errorf("before start, want From=0, got %v", v)
	}
	tm.Next(ctx) // elapsed 1.0
	mid := tm.Next(ctx) // elapsed 1.5, halfway between 1 and 2
	if !almostEqual(mid, 5.0, 1e-9) {
		t.Errorf("halfway through ramp, want 5.0, got %v", mid)
	}
	tm.Next(ctx) // elapsed 2.0
	after := tm.Next(ctx) // elapsed 2.5 > end
	if after != 10.0 {
		t.Errorf("after end, want To=10, got %v", after)
	}
}

func TestTimeStepAtInstantWhenStartEqualsEnd(t *testing.T) {
	tm := NewTime(1.0, 1.0, 0.0, 5.0)
	ctx := newCtx(0.5, nil, nil)
	tm.Next(ctx) // 0.5
	v := tm.Next(ctx) // 1.0, start==end reached
	if v != 5.0 {
		t.Errorf("at the step instant with start==end, want To=5, got %v", v)
	}
}

func TestLinearClampsInput(t *testing.T) {
	l := Linear{Input: Value(2.0), Map0: 0, Map1: 100}
	if got := l.Next(newCtx(0.01, nil, nil)); got != 100 {
		t.Errorf("Linear should clamp input above 1, got %v", got)
	}
	l2 := Linear{Input: Value(-1.0), Map0: 0, Map1: 100}
	if got := l2.Next(newCtx(0.01, nil, nil)); got != 0 {
		t.Errorf("Linear should clamp input below 0, got %v", got)
	}
}

func TestSemitonesConvertsToRatio(t *testing.T) {
	s := Semitones{Child: Value(12)}
	got := s.Next(newCtx(0.01, nil, nil))
	if !almostEqual(got, 2.0, 1e-9) {
		t.Errorf("12 semitones should be ratio 2.0, got %v", got)
	}
}

func TestAddAndMul(t *testing.T) {
	a := Add{A: Value(2), B: Value(3)}
	if a.Next(newCtx(0.01, nil, nil)) != 5 {
		t.Errorf("Add(2,3) should be 5")
	}
	m := Mul{A: Value(2), B: Value(3)}
	if m.Next(newCtx(0.01, nil, nil)) != 6 {
		t.Errorf("Mul(2,3) should be 6")
	}
}

func TestExpandSubstitutesTemplate(t *testing.T) {
	env := Environment{"vibrato": Value(5)}
	expanded, err := Expand(Mul{A: TemplateRef{Name: "vibrato"}, B: Value(2)}, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := expanded.Next(newCtx(0.01, nil, nil)); got != 10 {
		t.Errorf("expanded template should evaluate to 10, got %v", got)
	}
}

func TestExpandDetectsCycle(t *testing.T) {
	env := Environment{
		"a": Add{A: TemplateRef{Name: "b"}, B: Value(1)},
		"b": Add{A: TemplateRef{Name: "a"}, B: Value(1)},
	}
	if _, err := Expand(TemplateRef{Name: "a"}, env); err == nil {
		t.Errorf("expected a template cycle error")
	}
}

func TestExpandRejectsUnresolvedTemplate(t *testing.T) {
	if _, err := Expand(TemplateRef{Name: "missing"}, Environment{}); err == nil {
		t.Errorf("expected an error for an unresolved template")
	}
}

func TestCloneGivesIndependentOscillatorPhase(t *testing.T) {
	osc := NewOscillator(dsp.Sawtooth, Value(1), Value(0), Value(1))
	ctx := newCtx(0.1, nil, nil)
	osc.Next(ctx)
	osc.Next(ctx)
	cloned := Clone(osc).(*Oscillator)
	// cloned starts at phase 0 regardless of the original's advanced phase
	if !almostEqual(cloned.Next(newCtx(0.0, nil, nil)), dsp.SawtoothShape(0), 1e-9) {
		t.Errorf("clone should start with fresh phase state")
	}
}
