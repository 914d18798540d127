// Command microwave is the CLI entry point for the modular synthesis
// engine: it loads an instrument library, wires it into a real-time
// engine.Engine, and drives an audio.Player from it.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cbegin/microwave-go/internal/apperr"
	intaudio "github.com/cbegin/microwave-go/internal/audio"
	"github.com/cbegin/microwave-go/internal/config"
	"github.com/cbegin/microwave-go/internal/engine"
	"github.com/cbegin/microwave-go/internal/logging"
	"github.com/cbegin/microwave-go/internal/midiin"
	"github.com/cbegin/microwave-go/internal/midiout"
	"github.com/cbegin/microwave-go/internal/pitch"
	"github.com/cbegin/microwave-go/internal/scala"
)

// ccFlags are the per-controller CC number flags, collected separately
// from runOptions because flag.UintVar needs *uint, not *uint8; they are
// narrowed into a midiin.CCMap once parsing succeeds.
type ccFlags struct {
	modulation, breath, foot, volume, expression uint
	damper, sostenuto, soft, legato               uint
}

func (c ccFlags) toCCMap() midiin.CCMap {
	m := midiin.DefaultCCMap()
	m.Modulation = uint8(c.modulation)
	m.Breath = uint8(c.breath)
	m.Foot = uint8(c.foot)
	m.Volume = uint8(c.volume)
	m.Expression = uint8(c.expression)
	m.Damper = uint8(c.damper)
	m.Sostenuto = uint8(c.sostenuto)
	m.Soft = uint8(c.soft)
	m.Legato = uint8(c.legato)
	return m
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	var err error
	switch os.Args[1] {
	case "run":
		err = runCommand(os.Args[2:])
	case "ref-note":
		err = refNoteCommand(os.Args[2:])
	case "kbm-file":
		err = kbmFileCommand(os.Args[2:])
	case "devices":
		err = devicesCommand(os.Args[2:])
	case "bench":
		err = benchCommand(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		logging.Fail(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: microwave <run|ref-note|kbm-file|devices|bench> [options]")
}

// runOptions holds every flag enumerated in the CLI surface. Not all of
// them change engine behavior yet (MIDI device enumeration itself is an
// external collaborator); each flag is still accepted so a config file
// or launch script naming them doesn't fail CLI parsing.
type runOptions struct {
	midiInDevice    string
	midiOutDevice   string
	tuningMethod    string
	configPath      string
	bufferCount     int
	soundfontPath   string
	audioInBufSize  int
	audioOutBufSize int
	ringBufferSize  int
	sampleRate      int
	wavPrefix       string
	programStart    int
	oddLimit        int
	keyboardLayout  string

	cc ccFlags
}

func registerRunFlags(fs *flag.FlagSet, o *runOptions) {
	fs.StringVar(&o.midiInDevice, "midi-in", "", "MIDI input device name")
	fs.StringVar(&o.midiOutDevice, "midi-out", "", "MIDI output device name")
	fs.StringVar(&o.tuningMethod, "tuning-method", "pitch-bend",
		"MIDI-out tuning method: full-keyboard|full-keyboard-rt|octave-1|octave-1-rt|octave-2|octave-2-rt|channel-fine-tuning|pitch-bend")
	fs.StringVar(&o.configPath, "config", "microwave.yaml", "instrument config file")
	fs.IntVar(&o.bufferCount, "buffers", 8, "number of intermediate pool buffers")
	fs.StringVar(&o.soundfontPath, "soundfont", "", "soundfont file (rendering not implemented)")
	fs.IntVar(&o.audioInBufSize, "audio-in-buffer", 256, "audio input buffer size, in frames")
	fs.IntVar(&o.audioOutBufSize, "audio-out-buffer", 256, "audio output buffer size, in frames")
	fs.IntVar(&o.ringBufferSize, "exchange-ring-size", 256, "message exchange ring buffer size")
	fs.IntVar(&o.sampleRate, "sample-rate", 48000, "sample rate override")
	fs.StringVar(&o.wavPrefix, "wav-prefix", "", "WAV recording file prefix (recording not implemented)")
	fs.IntVar(&o.programStart, "program", 0, "starting waveform program number")
	fs.IntVar(&o.oddLimit, "odd-limit", 21, "odd-limit for fraction approximation of detected pitches")
	fs.StringVar(&o.keyboardLayout, "keyboard-layout", "ansi", "physical keyboard layout: ansi|var|iso")

	fs.UintVar(&o.cc.modulation, "cc-modulation", 1, "modulation wheel CC number")
	fs.UintVar(&o.cc.breath, "cc-breath", 2, "breath controller CC number")
	fs.UintVar(&o.cc.foot, "cc-foot", 4, "foot controller CC number")
	fs.UintVar(&o.cc.volume, "cc-volume", 7, "volume CC number")
	fs.UintVar(&o.cc.expression, "cc-expression", 11, "expression CC number")
	fs.UintVar(&o.cc.damper, "cc-damper", 64, "damper pedal CC number")
	fs.UintVar(&o.cc.sostenuto, "cc-sostenuto", 66, "sostenuto CC number")
	fs.UintVar(&o.cc.soft, "cc-soft", 67, "soft pedal CC number")
	fs.UintVar(&o.cc.legato, "cc-legato", 68, "legato CC number")
}

func parseTuningMethod(name string) (midiout.TuningMethod, error) {
	switch name {
	case "full-keyboard":
		return midiout.FullKeyboard, nil
	case "full-keyboard-rt":
		return midiout.FullKeyboardRT, nil
	case "octave-1":
		return midiout.Octave1, nil
	case "octave-1-rt":
		return midiout.Octave1RT, nil
	case "octave-2":
		return midiout.Octave2, nil
	case "octave-2-rt":
		return midiout.Octave2RT, nil
	case "channel-fine-tuning":
		return midiout.ChannelFineTuning, nil
	case "pitch-bend":
		return midiout.PitchBend, nil
	default:
		return 0, apperr.NewCommandError("unknown tuning method %q", name)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	opts := &runOptions{}
	registerRunFlags(fs, opts)
	if err := fs.Parse(args); err != nil {
		return apperr.NewCommandError("%v", err)
	}

	tuningMethod, err := parseTuningMethod(opts.tuningMethod)
	if err != nil {
		return err
	}
	ccMap := opts.cc.toCCMap()

	root, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	scl := scala.EqualTemperament(12, pitch.Octave())
	kbm := scala.StandardKbm()

	if opts.midiOutDevice != "" {
		// Device enumeration/opening is an external collaborator; with
		// no Sender to write to, a midiout.Backend has nothing to
		// forward bytes through.
		logging.Warn("midi-out %q requested but no transport is wired in; running without it", opts.midiOutDevice)
	}

	e, err := engine.New(root, engine.Options{
		SampleRate:            opts.sampleRate,
		BlockLen:              opts.audioOutBufSize,
		Scale:                 &scl,
		Kbm:                   kbm,
		PitchWheelSensitivity: pitch.FromSemitones(midiin.PitchWheelSensitivitySemitones),
	})
	if err != nil {
		return err
	}
	if opts.programStart != 0 {
		e.ProgramChange(opts.programStart)
	}

	// Built even without a live MIDI-in transport, so the CC-to-controller
	// routing (damper, modulation, etc.) is ready the moment one is wired
	// in; a future device backend feeds decoded bytes into router.HandleMessage.
	router := midiin.NewRouter(e.Dispatcher(), e.Synth(), kbm, ccMap)
	_ = router

	player, err := intaudio.NewPlayer(opts.sampleRate, e)
	if err != nil {
		return apperr.NewIoError(err)
	}
	player.Play()

	fmt.Printf("microwave running (config=%s, sample-rate=%d, tuning=%s); press Ctrl+C to stop\n",
		opts.configPath, opts.sampleRate, tuningMethod)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	return apperr.NewIoError(player.Stop())
}

// refNoteCommand takes a MIDI key and a reference pitch, logs them as a
// warning, and runs the engine the same way as run; the keyboard mapping
// is not retuned. Actual reference-note/keyboard-layout computation is an
// external collaborator (SPEC_FULL.md Non-goals); this subcommand
// validates its own arguments and otherwise defers to run.
func refNoteCommand(args []string) error {
	fs := flag.NewFlagSet("ref-note", flag.ContinueOnError)
	key := fs.Int("key", 69, "MIDI key number sounding the reference pitch")
	hz := fs.Float64("hz", 440, "reference pitch, in Hz")
	if err := fs.Parse(args); err != nil {
		return apperr.NewCommandError("%v", err)
	}
	logging.Warn("ref-note: key=%d hz=%.3f (keyboard remapping delegated to run)", *key, *hz)
	return runCommand(fs.Args())
}

// kbmFileCommand runs the engine against an imported Scala .kbm mapping.
// Parsing third-party .scl/.kbm files is an external collaborator
// (SPEC_FULL.md Non-goals: "tune-cli scale utilities"); this subcommand
// only validates that the path exists before handing off to run.
func kbmFileCommand(args []string) error {
	fs := flag.NewFlagSet("kbm-file", flag.ContinueOnError)
	path := fs.String("file", "", "path to a Scala .kbm keyboard mapping")
	if err := fs.Parse(args); err != nil {
		return apperr.NewCommandError("%v", err)
	}
	if *path == "" {
		return apperr.NewCommandError("kbm-file requires -file")
	}
	if _, err := os.Stat(*path); err != nil {
		return apperr.NewIoError(err)
	}
	logging.Warn("kbm-file: %s (import not implemented, running with standard tuning)", *path)
	return runCommand(fs.Args())
}

// devicesCommand enumerates available MIDI devices. Device enumeration
// itself is an external collaborator (SPEC_FULL.md Non-goals), so this
// reports that no platform MIDI backend is wired in, rather than
// fabricating a device list.
func devicesCommand(args []string) error {
	fs := flag.NewFlagSet("devices", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return apperr.NewCommandError("%v", err)
	}
	fmt.Println("no MIDI device backend configured")
	return nil
}

// benchCommand starts one note on a default engine and renders a fixed
// run of blocks through it to measure render-thread throughput, optionally reporting
// per-block timing statistics with -analyze.
func benchCommand(args []string) error {
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)
	analyze := fs.Bool("analyze", false, "report per-block timing statistics")
	blocks := fs.Int("blocks", 1000, "number of blocks to render")
	blockLen := fs.Int("block-len", 256, "block length, in frames")
	sampleRate := fs.Int("sample-rate", 48000, "sample rate")
	if err := fs.Parse(args); err != nil {
		return apperr.NewCommandError("%v", err)
	}

	scl := scala.EqualTemperament(12, pitch.Octave())
	e, err := engine.New(config.Default(), engine.Options{
		SampleRate: *sampleRate,
		BlockLen:   *blockLen,
		Scale:      &scl,
		Kbm:        scala.StandardKbm(),
	})
	if err != nil {
		return err
	}
	e.Dispatcher().Start(60, 0, 100)

	dst := make([]float32, 2*(*blockLen))
	start := time.Now()
	worst := time.Duration(0)
	for i := 0; i < *blocks; i++ {
		blockStart := time.Now()
		e.Process(dst)
		elapsed := time.Since(blockStart)
		if elapsed > worst {
			worst = elapsed
		}
	}
	total := time.Since(start)

	blockSecs := float64(*blockLen) / float64(*sampleRate)
	realtime := total.Seconds() / (blockSecs * float64(*blocks))
	fmt.Printf("rendered %d blocks of %d frames in %s (%.3fx realtime)\n", *blocks, *blockLen, total, realtime)
	if *analyze {
		fmt.Printf("worst single-block render time: %s\n", worst)
	}
	return nil
}

