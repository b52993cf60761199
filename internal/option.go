package internal

import (
	"io"
	"os"
)

// Mode selects what Run does once the journal is open.
type Mode string

// Run modes.
const (
	ModeServe   Mode = "serve"
	ModeMCP     Mode = "mcp"
	ModeRebuild Mode = "rebuild"
	ModePurge   Mode = "purge"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	mode      Mode
	confirmed bool
	in        io.Reader
	out       io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithMode sets the run mode. The default is ModeServe.
func WithMode(m Mode) Option {
	return func(a *application) {
		a.mode = m
	}
}

// WithConfirmed skips the interactive prompt of ModePurge.
func WithConfirmed(yes bool) Option {
	return func(a *application) {
		a.confirmed = yes
	}
}

// WithIO sets the streams used for prompts and command output.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(a *application) {
		a.in = in
		a.out = out
	}
}

func newApplication(opts ...Option) *application {
	app := &application{mode: ModeServe, in: os.Stdin, out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	return app
}
