package config

import (
	"strconv"
	"strings"

	"github.com/cbegin/microwave-go/internal/apperr"
	"github.com/cbegin/microwave-go/internal/control"
	"github.com/cbegin/microwave-go/internal/dsp"
	"github.com/cbegin/microwave-go/internal/magnetron"
	"github.com/cbegin/microwave-go/internal/pool"
)

// bufferYAML parses a buffer reference written as "audio_out" or "buf0",
// "buf1", ... into a pool.BufferRef.
func bufferYAML(name string) (pool.BufferRef, error) {
	if name == "audio_out" {
		return pool.AudioOut(), nil
	}
	idx, ok := strings.CutPrefix(name, "buf")
	if !ok {
		return pool.BufferRef{}, apperr.NewCommandError("unknown buffer reference %q", name)
	}
	n, err := strconv.Atoi(idx)
	if err != nil {
		return pool.BufferRef{}, apperr.NewCommandError("unknown buffer reference %q", name)
	}
	return pool.Named(n), nil
}

// bufferHighWater returns one past the highest "bufN" index named, or 0
// if name doesn't reference a named buffer (audio_out, audio_in, or
// unset). Used to size a waveform's pool.Pool before any stage is built.
func bufferHighWater(name string) int {
	idx, ok := strings.CutPrefix(name, "buf")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(idx)
	if err != nil {
		return 0
	}
	return n + 1
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// bufferCount reports how many named pool buffers this stage references,
// scanning every buffer-name field regardless of which variant is
// populated.
func (s stageYAML) bufferCount() int {
	n := 0
	if s.Oscillator != nil {
		n = maxInt(n, bufferHighWater(s.Oscillator.ModulationBuf))
		n = maxInt(n, bufferHighWater(s.Oscillator.Out.Buffer))
	}
	if s.Filter != nil {
		n = maxInt(n, bufferHighWater(s.Filter.In))
		n = maxInt(n, bufferHighWater(s.Filter.Out.Buffer))
	}
	if s.Signal != nil {
		n = maxInt(n, bufferHighWater(s.Signal.Out.Buffer))
	}
	if s.Waveguide != nil {
		n = maxInt(n, bufferHighWater(s.Waveguide.In))
		n = maxInt(n, bufferHighWater(s.Waveguide.Out.Buffer))
	}
	if s.RingModulator != nil {
		n = maxInt(n, bufferHighWater(s.RingModulator.In1))
		n = maxInt(n, bufferHighWater(s.RingModulator.In2))
		n = maxInt(n, bufferHighWater(s.RingModulator.Out.Buffer))
	}
	return n
}

// outYAML is the wire form of pool.OutSpec: a named destination buffer
// plus an LfSource-valued output level.
type outYAML struct {
	Buffer string     `yaml:"buffer"`
	Level  sourceYAML `yaml:"level"`
}

func (o outYAML) build() (pool.OutSpec, error) {
	buf, err := bufferYAML(o.Buffer)
	if err != nil {
		return pool.OutSpec{}, err
	}
	level, err := o.Level.build()
	if err != nil {
		return pool.OutSpec{}, err
	}
	return pool.OutSpec{Buffer: buf, Level: level}, nil
}

// stageYAML is the tagged-variant wire mirror of magnetron.Spec.
type stageYAML struct {
	Oscillator    *oscillatorStageYAML `yaml:"oscillator,omitempty"`
	Filter        *filterStageYAML     `yaml:"filter,omitempty"`
	Signal        *signalStageYAML     `yaml:"signal,omitempty"`
	Waveguide     *waveguideStageYAML  `yaml:"waveguide,omitempty"`
	RingModulator *ringModStageYAML    `yaml:"ring_modulator,omitempty"`
}

func (s stageYAML) build() (magnetron.Spec, error) {
	switch {
	case s.Oscillator != nil:
		return s.Oscillator.build()
	case s.Filter != nil:
		return s.Filter.build()
	case s.Signal != nil:
		return s.Signal.build()
	case s.Waveguide != nil:
		return s.Waveguide.build()
	case s.RingModulator != nil:
		return s.RingModulator.build()
	default:
		return magnetron.Spec{}, apperr.NewCommandError("stage has no recognized variant")
	}
}

type oscillatorStageYAML struct {
	Kind          string     `yaml:"kind"`
	Frequency     sourceYAML `yaml:"frequency"`
	Modulation    string     `yaml:"modulation,omitempty"`
	ModulationBuf string     `yaml:"modulation_buffer,omitempty"`
	Out           outYAML    `yaml:"out"`
}

func (o *oscillatorStageYAML) build() (magnetron.Spec, error) {
	kind, err := parseShapeKind(o.Kind)
	if err != nil {
		return magnetron.Spec{}, err
	}
	freq, err := o.Frequency.build()
	if err != nil {
		return magnetron.Spec{}, err
	}
	out, err := o.Out.build()
	if err != nil {
		return magnetron.Spec{}, err
	}
	modulation, err := parseModulation(o.Modulation, o.ModulationBuf)
	if err != nil {
		return magnetron.Spec{}, err
	}
	return magnetron.Spec{Oscillator: &magnetron.OscillatorSpec{
		Kind:       kind,
		Frequency:  freq,
		Modulation: modulation,
		Out:        out,
	}}, nil
}

func parseModulation(kind, buf string) (magnetron.Modulation, error) {
	if kind == "" {
		return magnetron.Modulation{}, nil
	}
	bufRef, err := bufferYAML(buf)
	if err != nil {
		return magnetron.Modulation{}, err
	}
	switch kind {
	case "phase":
		return magnetron.Modulation{Kind: magnetron.ModulationByPhase, ModBuffer: bufRef}, nil
	case "frequency":
		return magnetron.Modulation{Kind: magnetron.ModulationByFrequency, ModBuffer: bufRef}, nil
	default:
		return magnetron.Modulation{}, apperr.NewCommandError("unknown oscillator modulation %q", kind)
	}
}

type filterStageYAML struct {
	Kind      string     `yaml:"kind"`
	Resonance sourceYAML `yaml:"resonance"`
	Quality   sourceYAML `yaml:"quality"`
	In        string     `yaml:"in"`
	Out       outYAML    `yaml:"out"`
}

func (f *filterStageYAML) build() (magnetron.Spec, error) {
	kind, err := parseBiquadKind(f.Kind)
	if err != nil {
		return magnetron.Spec{}, err
	}
	resonance, err := f.Resonance.build()
	if err != nil {
		return magnetron.Spec{}, err
	}
	quality, err := f.Quality.build()
	if err != nil {
		return magnetron.Spec{}, err
	}
	in, err := bufferYAML(f.In)
	if err != nil {
		return magnetron.Spec{}, err
	}
	out, err := f.Out.build()
	if err != nil {
		return magnetron.Spec{}, err
	}
	return magnetron.Spec{Filter: &magnetron.FilterSpec{
		Kind:      kind,
		Resonance: resonance,
		Quality:   quality,
		In:        in,
		Out:       out,
	}}, nil
}

func parseBiquadKind(name string) (dsp.BiquadKind, error) {
	switch name {
	case "low_pass":
		return dsp.BiquadLowPass, nil
	case "high_pass":
		return dsp.BiquadHighPass, nil
	default:
		return 0, apperr.NewCommandError("unknown filter kind %q", name)
	}
}

type signalStageYAML struct {
	Out outYAML `yaml:"out"`
}

func (s *signalStageYAML) build() (magnetron.Spec, error) {
	out, err := s.Out.build()
	if err != nil {
		return magnetron.Spec{}, err
	}
	return magnetron.Spec{Signal: &magnetron.SignalSpec{Out: out}}, nil
}

type waveguideStageYAML struct {
	SizeSecs    float64    `yaml:"size_secs"`
	Freq        sourceYAML `yaml:"freq"`
	Cutoff      sourceYAML `yaml:"cutoff"`
	Reflectance float64    `yaml:"reflectance"`
	Feedback    sourceYAML `yaml:"feedback"`
	In          string     `yaml:"in"`
	Out         outYAML    `yaml:"out"`
}

func (w *waveguideStageYAML) build() (magnetron.Spec, error) {
	freq, err := w.Freq.build()
	if err != nil {
		return magnetron.Spec{}, err
	}
	cutoff, err := w.Cutoff.build()
	if err != nil {
		return magnetron.Spec{}, err
	}
	feedback, err := w.Feedback.build()
	if err != nil {
		return magnetron.Spec{}, err
	}
	in, err := bufferYAML(w.In)
	if err != nil {
		return magnetron.Spec{}, err
	}
	out, err := w.Out.build()
	if err != nil {
		return magnetron.Spec{}, err
	}
	return magnetron.Spec{Waveguide: &magnetron.WaveguideSpec{
		SizeSecs:    w.SizeSecs,
		Freq:        freq,
		Cutoff:      cutoff,
		Reflectance: w.Reflectance,
		Feedback:    feedback,
		In:          in,
		Out:         out,
	}}, nil
}

type ringModStageYAML struct {
	In1 string  `yaml:"in1"`
	In2 string  `yaml:"in2"`
	Out outYAML `yaml:"out"`
}

func (r *ringModStageYAML) build() (magnetron.Spec, error) {
	in1, err := bufferYAML(r.In1)
	if err != nil {
		return magnetron.Spec{}, err
	}
	in2, err := bufferYAML(r.In2)
	if err != nil {
		return magnetron.Spec{}, err
	}
	out, err := r.Out.build()
	if err != nil {
		return magnetron.Spec{}, err
	}
	return magnetron.Spec{RingModulator: &magnetron.RingModulatorSpec{In1: in1, In2: in2, Out: out}}, nil
}
