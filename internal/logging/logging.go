// Package logging wires loggo to a rotating log file.
//
// The TUI owns the terminal, so log output never goes to stdout or stderr
// unless a console writer is requested for headless runs.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/juju/loggo"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Defaults for the rotating log file.
const (
	DefaultLevel      = "<root>=INFO"
	DefaultFileName   = "repo-saves.log"
	MaxSizeMegabytes  = 5
	MaxBackups        = 3
	consoleWriterName = "console"
)

// Options configures Setup.
type Options struct {
	// File is the log file path. Empty discards file output.
	File string
	// Level is a loggo specification such as "<root>=INFO;repo-saves.controller=DEBUG".
	Level string
	// Console, when set, also receives warnings and errors.
	Console io.Writer
}

// Setup replaces loggo's default writer and applies the level specification.
// The returned closer flushes and closes the log file.
func Setup(opts Options) (io.Closer, error) {
	var (
		out    io.Writer = io.Discard
		closer io.Closer = nopCloser{}
	)

	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    MaxSizeMegabytes,
			MaxBackups: MaxBackups,
			Compress:   true,
		}
		out, closer = file, file
	}

	_, err := loggo.ReplaceDefaultWriter(loggo.NewSimpleWriter(out, loggo.DefaultFormatter))
	if err != nil {
		return nil, fmt.Errorf("failed to install log writer: %w", err)
	}

	_, _ = loggo.RemoveWriter(consoleWriterName)

	if opts.Console != nil {
		console := loggo.NewMinimumLevelWriter(loggo.NewSimpleWriter(opts.Console, ConsoleFormatter), loggo.WARNING)

		err = loggo.RegisterWriter(consoleWriterName, console)
		if err != nil {
			return nil, fmt.Errorf("failed to install console writer: %w", err)
		}
	}

	level := opts.Level
	if level == "" {
		level = DefaultLevel
	}

	err = loggo.ConfigureLoggers(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	return closer, nil
}

// ConsoleFormatter renders "warning: message" for humans.
func ConsoleFormatter(entry loggo.Entry) string {
	return strings.ToLower(entry.Level.String()) + ": " + entry.Message
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
