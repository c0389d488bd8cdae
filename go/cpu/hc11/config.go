package hc11

import (
	"github.com/pkg/errors"
)

const (
	DefaultRAMSize = 1280
	DefaultClock   = 2000000
)

// Config describes one MC68HC11 part.
type Config struct {
	// 256 byte register window instead of 64
	HasExtendedIO   bool
	InternalRAMSize int
	// E clock in Hz, used by the scheduler
	Clock uint64
}

func DefaultConfig() *Config {
	return &Config{
		HasExtendedIO:   true,
		InternalRAMSize: DefaultRAMSize,
		Clock:           DefaultClock,
	}
}

func (c *Config) Validate() error {
	if c.InternalRAMSize < 0 || c.InternalRAMSize > 0x10000 {
		return errors.Errorf("internal ram size out of range: %d", c.InternalRAMSize)
	}
	if c.Clock == 0 {
		return errors.New("clock must be nonzero")
	}
	return nil
}

func (c *Config) regWindow() int {
	if c.HasExtendedIO {
		return 256
	}
	return 64
}
