package process

import (
	"io"
	"time"
)

// Command describes one subprocess invocation.
type Command struct {
	// Binary is looked up in PATH unless it contains a separator.
	Binary string
	Args   []string
	Dir    string
	// Env entries are added to the parent environment.
	Env   []string
	Stdin io.Reader
	// GracePeriod separates SIGTERM from SIGKILL; DefaultGracePeriod when
	// zero.
	GracePeriod time.Duration
}

// Result is what Run observed.
type Result struct {
	Stdout, Stderr []byte
	// ExitCode is -1 when the process did not exit on its own.
	ExitCode int
	Duration time.Duration
}
