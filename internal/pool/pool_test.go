package pool

import (
	"math"
	"testing"

	"github.com/cbegin/microwave-go/internal/control"
	"github.com/cbegin/microwave-go/internal/pitch"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func newCtx() *control.Context {
	return &control.Context{
		BlockSecs:   0.01,
		SampleRate:  48000,
		Properties:  &control.Properties{Pitch: pitch.FromHz(440), PitchBend: pitch.FromFloat(1)},
		Controllers: control.NewControllers(),
	}
}

func TestClearZeroesBuffers(t *testing.T) {
	p := New(2, 4)
	copy(p.AudioOut(), []float64{1, 2, 3, 4})
	p.Clear(4)
	for i, v := range p.AudioOut() {
		if v != 0 {
			t.Errorf("audio_out[%d] = %v after Clear, want 0", i, v)
		}
	}
}

func TestReadZeroAndWriteScalesByLevel(t *testing.T) {
	p := New(1, 4)
	p.Clear(4)
	i := 0
	gen := func() float64 { i++; return float64(i) }
	p.ReadZeroAndWrite(OutSpec{Buffer: AudioOut(), Level: control.Value(2)}, newCtx(), gen)
	want := []float64{2, 4, 6, 8}
	for idx, w := range want {
		if !almostEqual(p.AudioOut()[idx], w, 1e-9) {
			t.Errorf("audio_out[%d] = %v, want %v", idx, p.AudioOut()[idx], w)
		}
	}
}

func TestReadZeroAndWriteAccumulatesAdditively(t *testing.T) {
	p := New(1, 2)
	p.Clear(2)
	p.ReadZeroAndWrite(OutSpec{Buffer: AudioOut(), Level: control.Value(1)}, newCtx(), func() float64 { return 1 })
	p.ReadZeroAndWrite(OutSpec{Buffer: AudioOut(), Level: control.Value(1)}, newCtx(), func() float64 { return 1 })
	for _, v := range p.AudioOut() {
		if v != 2 {
			t.Errorf("expected additive accumulation to reach 2, got %v", v)
		}
	}
}

func TestReadOneAndWriteTransformsSource(t *testing.T) {
	p := New(1, 3)
	p.Clear(3)
	named := p.Buffer(Named(0))
	copy(named, []float64{1, 2, 3})
	p.ReadOneAndWrite(Named(0), OutSpec{Buffer: AudioOut(), Level: control.Value(1)}, newCtx(), func(x float64) float64 { return x * x })
	want := []float64{1, 4, 9}
	for idx, w := range want {
		if !almostEqual(p.AudioOut()[idx], w, 1e-9) {
			t.Errorf("audio_out[%d] = %v, want %v", idx, p.AudioOut()[idx], w)
		}
	}
}

func TestReadTwoAndWriteCombinesBuffers(t *testing.T) {
	p := New(2, 2)
	p.Clear(2)
	copy(p.Buffer(Named(0)), []float64{1, 2})
	copy(p.Buffer(Named(1)), []float64{3, 4})
	p.ReadTwoAndWrite(Named(0), Named(1), OutSpec{Buffer: AudioOut(), Level: control.Value(1)}, newCtx(), func(a, b float64) float64 { return a * b })
	want := []float64{3, 8}
	for idx, w := range want {
		if !almostEqual(p.AudioOut()[idx], w, 1e-9) {
			t.Errorf("audio_out[%d] = %v, want %v", idx, p.AudioOut()[idx], w)
		}
	}
}

func TestSetAudioInCopiesSamples(t *testing.T) {
	p := New(0, 3)
	p.SetAudioIn([]float64{5, 6, 7})
	want := []float64{5, 6, 7}
	for idx, w := range want {
		if p.AudioIn()[idx] != w {
			t.Errorf("audio_in[%d] = %v, want %v", idx, p.AudioIn()[idx], w)
		}
	}
}
