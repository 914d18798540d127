package effects

import (
	"math"
	"testing"
)

func TestDelayProducesOutput(t *testing.T) {
	d := NewDelay(44100, 100, 0.5, 0, 0.5)
	// Feed a pulse and check delayed output appears
	d.Process(1.0, 1.0)
	for i := 0; i < 4409; i++ { // ~100ms at 44100Hz
		d.Process(0, 0)
	}
	l, r := d.Process(0, 0)
	if math.Abs(float64(l)) < 0.01 || math.Abs(float64(r)) < 0.01 {
		t.Errorf("expected delayed output, got l=%f r=%f", l, r)
	}
}

func TestReverbProducesOutput(t *testing.T) {
	r := NewReverb(44100, 0.5, 0.7, 0.5)
	// Feed impulse
	r.Process(1.0, 1.0)
	// After some samples, reverb tail should be present
	var maxOut float32
	for i := 0; i < 10000; i++ {
		l, _ := r.Process(0, 0)
		if l > maxOut {
			maxOut = l
		}
	}
	if maxOut < 0.001 {
		t.Error("expected reverb tail")
	}
}

func TestChainAppliesEffectsInOrder(t *testing.T) {
	c := NewChain(
		NewReverb(44100, 0.3, 0.5, 0.5),
		NewDelay(44100, 10, 0, 0, 0.5),
	)
	l, r := c.Process(0.5, 0.5)
	if l == 0 || r == 0 {
		t.Error("chain should produce output")
	}
}

func TestRotarySpeakerProducesWetOutput(t *testing.T) {
	r := NewRotarySpeaker(44100, 800, 0.8, 6.5, 0.6, 5.5, 2, 1.0)
	var maxOut float32
	for i := 0; i < 4410; i++ {
		l, _ := r.Process(float32(math.Sin(float64(i)*0.05)), float32(math.Sin(float64(i)*0.05)))
		if abs := float32(math.Abs(float64(l))); abs > maxOut {
			maxOut = abs
		}
	}
	if maxOut < 0.01 {
		t.Error("expected rotary speaker to produce audible output")
	}
}

func TestRotarySpeakerSetFastChangesModulationRate(t *testing.T) {
	slow := NewRotarySpeaker(44100, 800, 0.8, 6.5, 0.6, 5.5, 2, 1.0)
	fast := NewRotarySpeaker(44100, 800, 0.8, 6.5, 0.6, 5.5, 2, 1.0)
	fast.SetFast(true)

	var slowOut, fastOut [200]float32
	for i := 0; i < 200; i++ {
		in := float32(math.Sin(float64(i) * 0.3))
		slowOut[i], _ = slow.Process(in, in)
		fastOut[i], _ = fast.Process(in, in)
	}
	identical := true
	for i := range slowOut {
		if slowOut[i] != fastOut[i] {
			identical = false
			break
		}
	}
	if identical {
		t.Error("expected SetFast to change the rotor modulation, outputs were identical")
	}
}
