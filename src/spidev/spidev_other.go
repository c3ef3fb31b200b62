//go:build !linux

package spidev

// Device is unavailable on this platform.
type Device struct{}

// Open always fails with ErrUnsupported.
func Open(path string, opts Options) (*Device, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return nil, ErrUnsupported
}

// Write ...
func (d *Device) Write(value uint8) error {
	return ErrUnsupported
}

// Close ...
func (d *Device) Close() error {
	return nil
}
