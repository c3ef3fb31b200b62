package controller

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidParameter is returned when a mode is constructed with a parameter
// outside its domain.
var ErrInvalidParameter = errors.New("invalid mode parameter")

// ----- Kind ----- //

// Kind ...
type Kind int

const (
	Paused Kind = iota
	Constant
	Oscillating
)

func (k Kind) String() string {
	switch k {
	case Paused:
		return "paused"
	case Constant:
		return "constant"
	case Oscillating:
		return "oscillating"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// KindFromString ...
func KindFromString(s string) (Kind, error) {
	switch s {
	case "paused":
		return Paused, nil
	case "constant":
		return Constant, nil
	case "oscillating":
		return Oscillating, nil
	}
	return Paused, fmt.Errorf("unknown mode %q", s)
}

// ----- Mode ----- //

// Mode is what the generation loop outputs. The zero value is Paused.
//
// For Constant, value is the level in [0, 1]. For Oscillating, value is the
// frequency in Hz and is strictly positive.
type Mode struct {
	kind  Kind
	value float64
}

// PausedMode ...
func PausedMode() Mode {
	return Mode{kind: Paused}
}

// NewConstant returns a mode holding the output at level.
func NewConstant(level float64) (Mode, error) {
	if math.IsNaN(level) || level < 0 || level > 1 {
		return Mode{}, fmt.Errorf("constant level %v not in [0, 1]: %w", level, ErrInvalidParameter)
	}
	return Mode{kind: Constant, value: level}, nil
}

// NewOscillating returns a mode following a sine of the given frequency.
func NewOscillating(freq float64) (Mode, error) {
	if math.IsNaN(freq) || math.IsInf(freq, 0) || freq <= 0 {
		return Mode{}, fmt.Errorf("frequency %v must be positive: %w", freq, ErrInvalidParameter)
	}
	return Mode{kind: Oscillating, value: freq}, nil
}

// Kind ...
func (m Mode) Kind() Kind {
	return m.kind
}

// Level returns the constant level, or 0 for other kinds.
func (m Mode) Level() float64 {
	if m.kind != Constant {
		return 0
	}
	return m.value
}

// Frequency returns the oscillator frequency in Hz, or 0 for other kinds.
func (m Mode) Frequency() float64 {
	if m.kind != Oscillating {
		return 0
	}
	return m.value
}

func (m Mode) String() string {
	switch m.kind {
	case Constant:
		return fmt.Sprintf("constant %.3f", m.value)
	case Oscillating:
		return fmt.Sprintf("oscillating %.3fHz", m.value)
	}
	return m.kind.String()
}

// ----- Sampling ----- //

// Sample returns the output fraction in [0, 1] for mode at elapsed time since
// the loop started. Paused has no output and yields 0.
//
// The oscillator phase comes from the loop clock, so switching into
// Oscillating continues the phase of that single clock instead of restarting
// at zero.
func Sample(mode Mode, elapsed time.Duration) float64 {
	switch mode.kind {
	case Constant:
		return clamp01(mode.value)
	case Oscillating:
		t := elapsed.Seconds()
		return clamp01((math.Sin(2.0*math.Pi*mode.value*t) + 1.0) / 2.0)
	}
	return 0
}

// Quantize converts a fraction into the 8-bit value written to the sink.
// The conversion truncates, so 0.5 becomes 127.
func Quantize(fraction float64) uint8 {
	return uint8(clamp01(fraction) * 255)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
