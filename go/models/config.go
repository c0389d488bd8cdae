package models

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type TraceConfig struct {
	// binary trace output, written by the trace package
	Tracefile   string
	TraceWriter io.WriteCloser

	Ins  bool
	Mem  bool
	Reg  bool
	Intr bool
}

func (t *TraceConfig) Any() bool {
	return t.Ins || t.Mem || t.Reg || t.Intr || t.Tracefile != "" || t.TraceWriter != nil
}

type Config struct {
	Output  io.WriteCloser
	Color   bool
	Verbose bool
	// show instruction bytes with disassembly
	DisBytes bool
	// print per-device cycle counts when the run ends
	InsCount bool

	// emulated run length in seconds, 0 runs until stopped
	Duration float64
	// scheduler quantum in seconds, 0 uses the default
	Quantum float64

	SavePre  string
	SavePost string

	Trace TraceConfig
}

func (c *Config) Init() *Config {
	if c == nil {
		c = &Config{}
	}
	if c.Output == nil {
		c.Output = os.Stderr
	}
	return c
}

// Logger builds the logger every device of a machine shares.
func (c *Config) Logger() *logrus.Logger {
	log := logrus.New()
	log.Out = c.Output
	log.Formatter = &logrus.TextFormatter{ForceColors: c.Color, DisableColors: !c.Color}
	if c.Verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}
