package effects

import "math"

// RotarySpeaker simulates a two-rotor Leslie-style cabinet: a fast
// treble "horn" rotor and a slower bass "drum" rotor, split by a
// one-pole crossover and each given its own Doppler-style modulated
// delay plus amplitude tremolo. Two preset speeds (chorale/tremolo) are
// toggled at runtime via SetFast, matching a Leslie's two-speed motor
// rather than a continuously variable rate.
type RotarySpeaker struct {
	sampleRate int

	crossoverY    float32
	crossoverCoef float32

	horn rotor
	drum rotor

	hornSlowHz, hornFastHz float64
	drumSlowHz, drumFastHz float64
	depthSamples           float32
	wet                    float32
	fast                   bool
}

type rotor struct {
	buf   []float32
	pos   int
	phase float64
	rate  float64
}

// NewRotarySpeaker builds a rotary speaker effect.
// crossoverHz splits the signal into the bands each rotor modulates.
// hornSlowHz/hornFastHz and drumSlowHz/drumFastHz are the horn and drum
// rotor's chorale (slow) and tremolo (fast) rotation rates in Hz.
// depthMs sets the Doppler delay's modulation depth; wet is the overall
// mix with the unprocessed signal.
func NewRotarySpeaker(sampleRate int, crossoverHz float64, hornSlowHz, hornFastHz, drumSlowHz, drumFastHz, depthMs, wet float32) *RotarySpeaker {
	depthSamples := float64(depthMs) * float64(sampleRate) / 1000.0
	size := int(depthSamples)*2 + 4
	if size < 8 {
		size = 8
	}
	return &RotarySpeaker{
		sampleRate:    sampleRate,
		crossoverCoef: onePoleCoef(crossoverHz, sampleRate),
		horn:          rotor{buf: make([]float32, size)},
		drum:          rotor{buf: make([]float32, size)},
		hornSlowHz:    float64(hornSlowHz),
		hornFastHz:    float64(hornFastHz),
		drumSlowHz:    float64(drumSlowHz),
		drumFastHz:    float64(drumFastHz),
		depthSamples:  float32(depthSamples),
		wet:           clamp(wet, 0, 1),
	}
}

func onePoleCoef(cutoffHz float64, sampleRate int) float32 {
	return float32(1 - math.Exp(-2*math.Pi*cutoffHz/float64(sampleRate)))
}

// SetFast switches both rotors between their chorale (false) and
// tremolo (true) speeds.
func (r *RotarySpeaker) SetFast(fast bool) {
	r.fast = fast
}

func (r *RotarySpeaker) hornRate() float64 {
	if r.fast {
		return r.hornFastHz
	}
	return r.hornSlowHz
}

func (r *RotarySpeaker) drumRate() float64 {
	if r.fast {
		return r.drumFastHz
	}
	return r.drumSlowHz
}

func (r *RotarySpeaker) Process(l, r2 float32) (float32, float32) {
	mono := (l + r2) * 0.5

	r.crossoverY += r.crossoverCoef * (mono - r.crossoverY)
	bass := r.crossoverY
	treble := mono - bass

	hornOut := r.horn.spin(treble, r.hornRate(), r.sampleRate, r.depthSamples)
	drumOut := r.drum.spin(bass, r.drumRate(), r.sampleRate, r.depthSamples*0.5)

	out := hornOut + drumOut
	return l*(1-r.wet) + out*r.wet, r2*(1-r.wet) + out*r.wet
}

// spin runs one sample through this rotor's modulated delay line, with
// amplitude tremolo in phase with the Doppler sweep (a rotor speaker
// sounds loudest as it sweeps past the listener).
func (r *rotor) spin(in float32, rateHz float64, sampleRate int, depth float32) float32 {
	r.rate = 2 * math.Pi * rateHz / float64(sampleRate)

	mod := float32(math.Sin(r.phase)) * depth
	tremolo := 0.7 + 0.3*float32(math.Cos(r.phase))
	r.phase += r.rate
	if r.phase > 2*math.Pi {
		r.phase -= 2 * math.Pi
	}

	size := len(r.buf)
	r.buf[r.pos] = in

	delay := float32(size/2) + mod
	readPos := float32(r.pos) - delay
	for readPos < 0 {
		readPos += float32(size)
	}
	idx := int(readPos)
	frac := readPos - float32(idx)
	idx2 := idx + 1
	if idx2 >= size {
		idx2 = 0
	}
	out := r.buf[idx]*(1-frac) + r.buf[idx2]*frac

	r.pos++
	if r.pos >= size {
		r.pos = 0
	}
	return out * tremolo
}

func (r *RotarySpeaker) Reset() {
	r.crossoverY = 0
	for i := range r.horn.buf {
		r.horn.buf[i] = 0
	}
	for i := range r.drum.buf {
		r.drum.buf[i] = 0
	}
	r.horn.pos, r.horn.phase = 0, 0
	r.drum.pos, r.drum.phase = 0, 0
}
