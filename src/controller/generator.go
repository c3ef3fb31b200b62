package controller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

const (
	defaultInterval       = 2 * time.Millisecond
	defaultPausedInterval = 10 * time.Millisecond
	statusBufferSize      = 16
)

// ErrSinkWrite wraps every error returned by the sink.
var ErrSinkWrite = errors.New("sink write failed")

// ----- Config ----- //

// Config ...
type Config struct {
	// Interval is the sleep after each sample written.
	Interval time.Duration
	// PausedInterval is the sleep of a cycle in which nothing is written. It
	// bounds how long a new command waits to be adopted.
	PausedInterval time.Duration
	// MaxSinkFailures is the number of consecutive failed writes after which
	// the loop falls back to Paused. 0 makes the first failure stop the loop.
	MaxSinkFailures int
}

// DefaultConfig ...
func DefaultConfig() Config {
	return Config{
		Interval:        defaultInterval,
		PausedInterval:  defaultPausedInterval,
		MaxSinkFailures: 0,
	}
}

// ----- Status ----- //

// StatusKind ...
type StatusKind int

const (
	StatusSinkError StatusKind = iota
	StatusFallback
	StatusStopped
)

func (k StatusKind) String() string {
	switch k {
	case StatusSinkError:
		return "sink-error"
	case StatusFallback:
		return "fallback"
	case StatusStopped:
		return "stopped"
	}
	return fmt.Sprintf("status(%d)", int(k))
}

// Status is an event reported by the generation loop.
type Status struct {
	Kind     StatusKind
	Mode     Mode // mode in effect when the event happened
	Failures int  // consecutive sink failures so far
	Err      error
}

// ----- Generator ----- //

// Generator is the generation loop. Everything but the status channel belongs
// to the goroutine running Start.
type Generator struct {
	rx        *Receiver
	sink      Sink
	config    Config
	statusCh  chan Status
	mode      Mode
	startTime time.Time
	failures  int
	now       func() time.Time
	closeOnce sync.Once
}

// NewGenerator creates a paused loop that drains rx and writes to sink. The
// oscillator clock starts here.
func NewGenerator(rx *Receiver, sink Sink, config Config) *Generator {
	return &Generator{
		rx:        rx,
		sink:      sink,
		config:    config,
		statusCh:  make(chan Status, statusBufferSize),
		mode:      PausedMode(),
		startTime: time.Now(),
		now:       time.Now,
	}
}

// Status returns the channel of loop events. It is closed when Start returns.
func (g *Generator) Status() <-chan Status {
	return g.statusCh
}

// Start runs the loop until ctx is cancelled or the sink fails fatally. The
// receiver and the sink are closed on return. Start must be called once.
func (g *Generator) Start(ctx context.Context) (err error) {
	defer func() {
		g.rx.Close()
		if cerr := g.closeSink(); cerr != nil {
			log.Printf("error while closing sink: %v\n", cerr)
		}
		g.publish(Status{Kind: StatusStopped, Mode: g.mode, Err: err})
		close(g.statusCh)
		log.Println("Start() ended.")
	}()
	for {
		select {
		case <-ctx.Done():
			log.Println("Start() interrupted.")
			return nil
		default:
		}
		if err := g.cycle(ctx); err != nil {
			return err
		}
	}
}

func (g *Generator) cycle(ctx context.Context) error {
	if mode, dropped, ok := g.rx.drain(); ok {
		if dropped > 0 {
			log.Printf("adopted %v (%d earlier commands discarded)\n", mode, dropped)
		} else {
			log.Printf("adopted %v\n", mode)
		}
		g.mode = mode
		g.failures = 0
	}
	if g.mode.Kind() == Paused {
		sleep(ctx, g.config.PausedInterval)
		return nil
	}
	value := Quantize(Sample(g.mode, g.now().Sub(g.startTime)))
	if err := g.write(value); err != nil {
		return err
	}
	sleep(ctx, g.config.Interval)
	return nil
}

func (g *Generator) write(value uint8) error {
	err := g.sink.Write(value)
	if err == nil {
		g.failures = 0
		return nil
	}
	err = fmt.Errorf("%w: %w", ErrSinkWrite, err)
	if g.config.MaxSinkFailures <= 0 {
		return err
	}
	g.failures++
	log.Printf("error: %v (%d/%d)\n", err, g.failures, g.config.MaxSinkFailures)
	g.publish(Status{Kind: StatusSinkError, Mode: g.mode, Failures: g.failures, Err: err})
	if g.failures >= g.config.MaxSinkFailures {
		log.Printf("[WARN] falling back to paused after %d failures\n", g.failures)
		g.publish(Status{Kind: StatusFallback, Mode: g.mode, Failures: g.failures, Err: err})
		g.mode = PausedMode()
		g.failures = 0
	}
	return nil
}

func (g *Generator) closeSink() (err error) {
	g.closeOnce.Do(func() {
		err = g.sink.Close()
	})
	return err
}

func (g *Generator) publish(s Status) {
	select {
	case g.statusCh <- s:
	default:
		log.Printf("[WARN] status dropped: %v\n", s.Kind)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
