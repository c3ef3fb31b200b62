package controller

import (
	"errors"
	"io"
	"time"
)

// Sink receives quantized samples from the generation loop. A sink is owned by
// exactly one Generator and is closed by it.
type Sink interface {
	Write(value uint8) error
	Close() error
}

// ----- Echo ----- //

type echoSink struct {
	w    io.Writer
	next Sink
	line []byte
}

// Echo prints a bar of value/2 '#' characters to w for every write before
// forwarding it to next.
func Echo(w io.Writer, next Sink) Sink {
	return &echoSink{w: w, next: next, line: make([]byte, 0, 129)}
}

func (e *echoSink) Write(value uint8) error {
	e.line = e.line[:0]
	for i := uint8(0); i < value/2; i++ {
		e.line = append(e.line, '#')
	}
	e.line = append(e.line, '\n')
	// the bar is diagnostic only
	_, _ = e.w.Write(e.line)
	return e.next.Write(value)
}

func (e *echoSink) Close() error {
	return e.next.Close()
}

// ----- Tee ----- //

type teeSink []Sink

// Tee writes every sample to all sinks. Every sink is attempted even when an
// earlier one fails.
func Tee(sinks ...Sink) Sink {
	return teeSink(sinks)
}

func (t teeSink) Write(value uint8) error {
	var errs []error
	for _, s := range t {
		if err := s.Write(value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t teeSink) Close() error {
	var errs []error
	for _, s := range t {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ----- Simulated ----- //

type simulatedSink struct {
	delay time.Duration
}

// Simulated stands in for the device when none is attached: every write just
// takes delay.
func Simulated(delay time.Duration) Sink {
	return simulatedSink{delay: delay}
}

func (s simulatedSink) Write(value uint8) error {
	time.Sleep(s.delay)
	return nil
}

func (s simulatedSink) Close() error {
	return nil
}
