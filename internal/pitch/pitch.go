package pitch

// Pitch is an absolute frequency in Hz.
type Pitch struct {
	hz float64
}

// FromHz wraps a raw frequency.
func FromHz(hz float64) Pitch {
	return Pitch{hz: hz}
}

// AsHz returns the frequency in Hz.
func (p Pitch) AsHz() float64 {
	return p.hz
}

// Mul stretches a pitch upward by a ratio.
func (p Pitch) Mul(r Ratio) Pitch {
	return FromHz(p.hz * r.AsFloat())
}

// Div compresses a pitch downward by a ratio.
func (p Pitch) Div(r Ratio) Pitch {
	return FromHz(p.hz / r.AsFloat())
}
