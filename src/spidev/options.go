// Package spidev writes samples to an SPI DAC through the Linux spidev driver.
package spidev

import (
	"errors"
	"fmt"
)

// ErrUnsupported is returned by Open on platforms without spidev.
var ErrUnsupported = errors.New("spidev: unsupported platform")

// DefaultPath is the first chip select of the first SPI bus on a Raspberry Pi.
const DefaultPath = "/dev/spidev0.0"

// Options ...
type Options struct {
	Mode        uint8 // SPI mode 0-3 (CPOL/CPHA)
	BitsPerWord uint8
	MaxSpeedHz  uint32
}

// DefaultOptions returns mode 0, 8 bits per word and 20 kHz.
func DefaultOptions() Options {
	return Options{
		Mode:        0,
		BitsPerWord: 8,
		MaxSpeedHz:  20000,
	}
}

func (o Options) validate() error {
	if o.Mode > 3 {
		return fmt.Errorf("spidev: invalid mode %d", o.Mode)
	}
	if o.BitsPerWord == 0 {
		return fmt.Errorf("spidev: bits per word must be positive")
	}
	if o.MaxSpeedHz == 0 {
		return fmt.Errorf("spidev: max speed must be positive")
	}
	return nil
}
