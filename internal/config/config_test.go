package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cbegin/microwave-go/internal/control"
	"github.com/cbegin/microwave-go/internal/pitch"

	"gopkg.in/yaml.v3"
)

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}

func TestDefaultBuildsAPlayableLibrary(t *testing.T) {
	lib, chain, err := Default().Build(48000)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if chain == nil {
		t.Fatal("expected a non-nil effects chain")
	}
	if _, ok := lib.Waveforms["Piano"]; !ok {
		t.Fatal("expected Default() to include a Piano waveform")
	}

	props := &control.Properties{Pitch: pitch.FromHz(440), Velocity: 0.8}
	wf, err := lib.Instantiate("Piano", props)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	if len(wf.Stages) == 0 {
		t.Error("expected at least one compiled stage")
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	root, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(root.Waveforms) == 0 {
		t.Error("expected a missing file to fall back to Default()")
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := writeFile(path, "waveforms: [this is not a map"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected malformed YAML to be rejected")
	}
}

func TestBuildExpandsWaveformTemplates(t *testing.T) {
	doc := `
waveform_templates:
  vibrato_depth:
    value: 3.0
waveform_envelopes:
  Test:
    amplitude: {property: velocity}
    fadeout: {value: 0}
    attack_time: {value: 0.01}
    decay_rate: {value: 0}
    release_time: {value: 0.1}
waveforms:
  Test:
    envelope: Test
    stages:
      - oscillator:
          kind: sine
          frequency: {property: pitch}
          out: {buffer: audio_out, level: {template: vibrato_depth}}
effects: []
`
	var root Root
	if err := yaml.Unmarshal([]byte(doc), &root); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	lib, _, err := root.Build(48000)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ctl := &control.Context{SampleRate: 48000, Properties: &control.Properties{}}
	level := lib.Waveforms["Test"].Stages[0].Oscillator.Out.Level.Next(ctl)
	if level != 3.0 {
		t.Errorf("expected template-expanded level 3.0, got %v", level)
	}
}

func TestBuildRejectsTemplateCycle(t *testing.T) {
	root := Root{
		WaveformTemplates: map[string]sourceYAML{
			"a": {TemplateRef: strPtr("b")},
			"b": {TemplateRef: strPtr("a")},
		},
		WaveformEnvelopes: map[string]envelopeYAML{},
		Waveforms:         map[string]waveformYAML{},
	}
	if _, _, err := root.Build(48000); err == nil {
		t.Error("expected a template cycle to be rejected")
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	original := Default()
	if err := Save(path, original); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Waveforms) != len(original.Waveforms) {
		t.Errorf("waveform count changed across round-trip: got %d, want %d", len(loaded.Waveforms), len(original.Waveforms))
	}
}
