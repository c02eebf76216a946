package models

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/lunixbochs/sandcorn/models/fs"
)

const (
	DefaultStrsize   = 30
	DefaultMaxStrLen = 4096
	DefaultStackSize = 8 * 1024 * 1024
)

type Config struct {
	// override loader detection
	Arch string
	OS   string

	// guest filesystem root, required unless HostPassthrough is set
	Rootfs string
	Args   []string
	Env    []string

	// give the guest the host filesystem instead of a Rootfs jail
	HostPassthrough bool

	Stdin, Stdout, Stderr fs.Stream
	// strace destination
	Output io.Writer

	LogOutput io.Writer
	LogLevel  string
	Verbose   bool
	Logger    hclog.Logger

	Color     bool
	TraceSys  bool
	TraceFile string
	Strsize   int
	MaxStrLen int

	StackSize uint64
	StackBase uint64
	ForceBase uint64

	// any handler error faults the session
	FatalErrors bool
	// unknown syscalls fault the session
	UnimplementedFatal bool
	FatalSyscalls      map[int]bool
}

// Init fills in defaults for unset fields.
func (c *Config) Init() {
	if c.Output == nil {
		c.Output = os.Stderr
	}
	if c.LogOutput == nil {
		c.LogOutput = os.Stderr
	}
	if c.Strsize <= 0 {
		c.Strsize = DefaultStrsize
	}
	if c.MaxStrLen <= 0 {
		c.MaxStrLen = DefaultMaxStrLen
	}
	if c.StackSize == 0 {
		c.StackSize = DefaultStackSize
	}
}

// NewLogger returns Logger if set, or builds one from the logging fields.
func (c *Config) NewLogger() hclog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	level := hclog.LevelFromString(c.LogLevel)
	if level == hclog.NoLevel {
		level = hclog.Warn
	}
	if c.Verbose {
		level = hclog.Debug
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "sandcorn",
		Level:  level,
		Output: c.LogOutput,
		Color:  hclog.AutoColor,
	})
}

// Fatal reports whether a handler failure for num must fault the session.
func (c *Config) Fatal(num int, unimplemented bool) bool {
	if c.FatalErrors || c.FatalSyscalls[num] {
		return true
	}
	return unimplemented && c.UnimplementedFatal
}
