// Package monitor makes the generated signal audible: it plays a tone whose
// amplitude follows the last value written to it.
package monitor

import (
	"context"
	"io"
	"log"
	"math"
	"sync/atomic"

	"github.com/hajimehoshi/oto"
)

const (
	sampleRate      = 48000
	channelNum      = 2
	bitDepthInBytes = 2
	samplesPerCycle = 1024
)
const bytesPerSample = bitDepthInBytes * channelNum
const bufferSizeInBytes = samplesPerCycle * bytesPerSample // should be >= 4096

// fraction of the distance to the target amplitude covered per sample (~2ms)
const smoothing = 1.0 / 96

// Options ...
type Options struct {
	ToneFreq float64 // Hz
	Gain     float64 // 0 ~ 1, amplitude at full scale
}

// DefaultOptions ...
func DefaultOptions() Options {
	return Options{ToneFreq: 440, Gain: 0.2}
}

// ----- Tone ----- //

type tone struct {
	freq   float64
	gain   float64
	phase  float64
	amp    float64
	level  atomic.Uint32
	closed atomic.Bool
	done   <-chan struct{}
}

var _ io.Reader = (*tone)(nil)

func newTone(opts Options) *tone {
	return &tone{freq: opts.ToneFreq, gain: opts.Gain}
}

func (t *tone) set(value uint8) {
	t.level.Store(uint32(value))
}

func (t *tone) Read(buf []byte) (int, error) {
	if t.closed.Load() {
		return 0, io.EOF
	}
	select {
	case <-t.done:
		log.Println("Read() interrupted.")
		return 0, io.EOF
	default:
	}
	target := float64(t.level.Load()) / 255 * t.gain
	samples := len(buf) / bytesPerSample
	for i := 0; i < samples; i++ {
		t.amp += (target - t.amp) * smoothing
		value := math.Sin(t.phase) * t.amp
		t.phase += 2.0 * math.Pi * t.freq / sampleRate
		if t.phase >= 2.0*math.Pi {
			t.phase -= 2.0 * math.Pi
		}
		writeSample(value, buf[bytesPerSample*i:bytesPerSample*(i+1)])
	}
	return samples * bytesPerSample, nil
}

func writeSample(value float64, frame []byte) {
	const max = 32767
	b := int16(value * max)
	for ch := 0; ch < channelNum; ch++ {
		frame[2*ch] = byte(b)
		frame[2*ch+1] = byte(b >> 8)
	}
}

// ----- Monitor ----- //

// Monitor is a controller.Sink backed by the audio device.
type Monitor struct {
	otoContext *oto.Context
	tone       *tone
}

// New opens the audio device.
func New(opts Options) (*Monitor, error) {
	otoContext, err := oto.NewContext(sampleRate, channelNum, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return nil, err
	}
	return &Monitor{
		otoContext: otoContext,
		tone:       newTone(opts),
	}, nil
}

// Write sets the tone amplitude. It never blocks on the audio device.
func (m *Monitor) Write(value uint8) error {
	m.tone.set(value)
	return nil
}

// Close silences the monitor and makes Start return.
func (m *Monitor) Close() error {
	log.Println("Closing Monitor...")
	m.tone.closed.Store(true)
	return nil
}

// Start plays until ctx is cancelled or Close is called.
func (m *Monitor) Start(ctx context.Context) error {
	p := m.otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("error: %v", err)
		}
		if err := m.otoContext.Close(); err != nil {
			log.Printf("error: %v", err)
		}
	}()
	m.tone.done = ctx.Done()

	// block until cancel() or Close() called
	if _, err := io.CopyBuffer(p, m.tone, make([]byte, bufferSizeInBytes)); err != nil {
		return err
	}
	log.Println("Monitor.Start() ended.")
	return nil
}
