package controller

import (
	"errors"
	"math"
	"testing"
	"time"
)

func expectNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Errorf("expected no error, but got: %v", err)
	}
}

func mustConstant(t *testing.T, level float64) Mode {
	t.Helper()
	m, err := NewConstant(level)
	if err != nil {
		t.Fatalf("NewConstant(%v): %v", level, err)
	}
	return m
}

func mustOscillating(t *testing.T, freq float64) Mode {
	t.Helper()
	m, err := NewOscillating(freq)
	if err != nil {
		t.Fatalf("NewOscillating(%v): %v", freq, err)
	}
	return m
}

var sampleTimes = []time.Duration{
	0,
	time.Millisecond,
	37 * time.Millisecond,
	250 * time.Millisecond,
	time.Second,
	3*time.Second + 141*time.Millisecond,
	time.Hour,
}

func TestConstantSampleIsLevel(t *testing.T) {
	for _, level := range []float64{0, 0.1, 0.25, 0.5, 0.999, 1} {
		m := mustConstant(t, level)
		for _, d := range sampleTimes {
			if got := Sample(m, d); got != level {
				t.Errorf("Sample(%v, %v) = %v, want %v", m, d, got, level)
			}
		}
	}
}

func TestOscillatingSampleInRange(t *testing.T) {
	for _, freq := range []float64{0.1, 0.5, 1, 3.3, 10, 440} {
		m := mustOscillating(t, freq)
		for d := time.Duration(0); d < 5*time.Second; d += 7 * time.Millisecond {
			v := Sample(m, d)
			if v < 0 || v > 1 {
				t.Fatalf("Sample(%v, %v) = %v, out of [0, 1]", m, d, v)
			}
		}
	}
}

func TestOscillatingStartsAtMidpoint(t *testing.T) {
	for _, freq := range []float64{0.1, 1, 10} {
		if got := Sample(mustOscillating(t, freq), 0); got != 0.5 {
			t.Errorf("freq %v: Sample at 0 = %v, want 0.5", freq, got)
		}
	}
}

func TestOscillatingPeriod(t *testing.T) {
	const tolerance = 1e-6
	for _, freq := range []float64{0.5, 1, 2.5, 10} {
		m := mustOscillating(t, freq)
		period := time.Duration(float64(time.Second) / freq)
		for _, d := range sampleTimes[:6] {
			a, b := Sample(m, d), Sample(m, d+period)
			if math.Abs(a-b) > tolerance {
				t.Errorf("freq %v at %v: %v != %v one period later", freq, d, a, b)
			}
		}
	}
}

func TestOscillatingQuarterPeriodPeaks(t *testing.T) {
	m := mustOscillating(t, 1)
	if got := Sample(m, 250*time.Millisecond); math.Abs(got-1) > 1e-9 {
		t.Errorf("peak = %v, want 1", got)
	}
	if got := Sample(m, 750*time.Millisecond); math.Abs(got) > 1e-9 {
		t.Errorf("trough = %v, want 0", got)
	}
}

func TestPausedSampleIsZero(t *testing.T) {
	if got := Sample(PausedMode(), time.Second); got != 0 {
		t.Errorf("got %v", got)
	}
	var zero Mode
	if zero.Kind() != Paused {
		t.Errorf("zero Mode kind = %v, want paused", zero.Kind())
	}
}

func TestQuantize(t *testing.T) {
	cases := []struct {
		in   float64
		want uint8
	}{
		{0, 0},
		{1, 255},
		{0.5, 127},
		{0.25, 63},
		{-0.5, 0},
		{1.5, 255},
		{math.NaN(), 0},
	}
	for _, c := range cases {
		if got := Quantize(c.in); got != c.want {
			t.Errorf("Quantize(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestNewConstantRejectsOutOfRange(t *testing.T) {
	for _, level := range []float64{-0.01, 1.01, math.NaN(), math.Inf(1)} {
		if _, err := NewConstant(level); !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("NewConstant(%v) error = %v, want ErrInvalidParameter", level, err)
		}
	}
}

func TestNewOscillatingRejectsNonPositive(t *testing.T) {
	for _, freq := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := NewOscillating(freq); !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("NewOscillating(%v) error = %v, want ErrInvalidParameter", freq, err)
		}
	}
}

func TestModeAccessors(t *testing.T) {
	c := mustConstant(t, 0.3)
	if c.Level() != 0.3 || c.Frequency() != 0 || c.String() != "constant 0.300" {
		t.Errorf("unexpected constant %v level=%v freq=%v", c, c.Level(), c.Frequency())
	}
	o := mustOscillating(t, 2)
	if o.Frequency() != 2 || o.Level() != 0 || o.String() != "oscillating 2.000Hz" {
		t.Errorf("unexpected oscillating %v level=%v freq=%v", o, o.Level(), o.Frequency())
	}
	if PausedMode().String() != "paused" {
		t.Errorf("unexpected paused %v", PausedMode())
	}
}

func TestKindFromString(t *testing.T) {
	for _, k := range []Kind{Paused, Constant, Oscillating} {
		got, err := KindFromString(k.String())
		expectNoError(t, err)
		if got != k {
			t.Errorf("KindFromString(%q) = %v", k.String(), got)
		}
	}
	if _, err := KindFromString("circular"); err == nil {
		t.Error("expected error for unknown kind")
	}
}
