//go:build linux

package spidev

import (
	"fmt"
	"log"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// Device is an open spidev port. It implements controller.Sink.
type Device struct {
	path      string
	port      spi.PortCloser
	conn      spi.Conn
	tx        [1]byte
	closeOnce sync.Once
}

// Open opens the spidev node at path, for example "/dev/spidev0.0", and
// configures it with opts.
func Open(path string, opts Options) (*Device, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("spidev: %w", err)
	}
	port, err := spireg.Open(path)
	if err != nil {
		return nil, fmt.Errorf("spidev: open %s: %w", path, err)
	}
	freq, mode, bits := opts.connectArgs()
	conn, err := port.Connect(freq, mode, bits)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("spidev: configure %s: %w", path, err)
	}
	log.Printf("opened %s (mode %d, %d bits, %v)\n", path, opts.Mode, opts.BitsPerWord, freq)
	return &Device{path: path, port: port, conn: conn}, nil
}

func (o Options) connectArgs() (physic.Frequency, spi.Mode, int) {
	return physic.Frequency(o.MaxSpeedHz) * physic.Hertz, spi.Mode(o.Mode), int(o.BitsPerWord)
}

// Write sends value as a single-byte transfer.
func (d *Device) Write(value uint8) error {
	d.tx[0] = value
	if err := d.conn.Tx(d.tx[:], nil); err != nil {
		return fmt.Errorf("spidev: transfer on %s: %w", d.path, err)
	}
	return nil
}

// Close releases the device. Further calls do nothing.
func (d *Device) Close() error {
	var err error
	d.closeOnce.Do(func() {
		log.Printf("Closing %s...\n", d.path)
		err = d.port.Close()
	})
	return err
}
