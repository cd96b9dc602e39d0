package logging

import (
	"io"
	"log/slog"
)

// Option configures a logger created with New.
type Option func(*config)

// WithDebug enables debug-level logging when on is true.
func WithDebug(on bool) Option {
	return func(c *config) {
		if on {
			c.level = slog.LevelDebug
		}
	}
}

// WithLevel sets the minimum level explicitly.
func WithLevel(level slog.Level) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithPretty enables the charmbracelet/log handler for human-friendly
// terminal output.
func WithPretty(on bool) Option {
	return func(c *config) {
		c.pretty = on
	}
}

// WithJSON enables JSON output for machine-readable logs.
func WithJSON(on bool) Option {
	return func(c *config) {
		c.json = on
	}
}

// WithWriter sets the output writer. The default is stderr.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		c.writers = []io.Writer{w}
	}
}

// WithWriters sets multiple output writers that all receive every record.
func WithWriters(ws ...io.Writer) Option {
	return func(c *config) {
		c.writers = ws
	}
}

// WithSource adds source file and line information to each record.
func WithSource(on bool) Option {
	return func(c *config) {
		c.source = on
	}
}
