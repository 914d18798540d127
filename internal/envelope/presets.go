package envelope

import "github.com/cbegin/microwave-go/internal/control"

// Fadeout is the standard template shared by every built-in preset: a
// constant 0, meaning a key release is always fully suppressible by
// damper pressure (the usual sustain-pedal behavior for organ/piano/pad/
// bell instruments).
func Fadeout() control.Source {
	return control.Value(0.0)
}

// DamperControllerID is the default controller slot the engine reserves
// for the sustain/damper pedal. Fadeout does not read it, and the
// polyphony manager's DamperPedal message carries its pressure directly.
const DamperControllerID control.ControllerID = 64

// Velocity reads the voice's note-on velocity directly.
func Velocity() control.Source {
	return control.Property{Prop: control.PropVelocity}
}

// Organ, Piano, Pad and Bell are the engine's built-in envelope presets,
// mirrored from the reference instrument library's waveform_envelopes.
func Organ() Spec {
	return Spec{
		Amplitude:   Velocity(),
		Fadeout:     Fadeout(),
		AttackTime:  control.Value(0.01),
		DecayRate:   control.Value(0.0),
		ReleaseTime: control.Value(0.01),
	}
}

func Piano() Spec {
	return Spec{
		Amplitude:   Velocity(),
		Fadeout:     Fadeout(),
		AttackTime:  control.Value(0.01),
		DecayRate:   control.Value(1.0),
		ReleaseTime: control.Value(0.25),
	}
}

func Pad() Spec {
	return Spec{
		Amplitude:   Velocity(),
		Fadeout:     Fadeout(),
		AttackTime:  control.Value(0.1),
		DecayRate:   control.Value(0.0),
		ReleaseTime: control.Value(2.0),
	}
}

func Bell() Spec {
	return Spec{
		Amplitude:   Velocity(),
		Fadeout:     Fadeout(),
		AttackTime:  control.Value(0.001),
		DecayRate:   control.Value(0.3),
		ReleaseTime: control.Value(10.0),
	}
}

// Presets returns the built-in name-to-spec table.
func Presets() map[string]Spec {
	return map[string]Spec{
		"Organ": Organ(),
		"Piano": Piano(),
		"Pad":   Pad(),
		"Bell":  Bell(),
	}
}
