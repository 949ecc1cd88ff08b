// Package logging builds the zerolog loggers used by the CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"

	defaultMaxSizeMB  = 100
	defaultMaxBackups = 3
)

// Options selects level, format and an optional rotating log file.
type Options struct {
	Level      string `validate:"omitempty,oneof=trace debug info warn error disabled"`
	Format     string `validate:"omitempty,oneof=console json"`
	File       string
	MaxSizeMB  int `validate:"gte=0"`
	MaxBackups int `validate:"gte=0"`
	NoColor    bool
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks option ranges.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid log options: %w", err)
	}
	return nil
}

// ParseLevel maps a level name to a zerolog level. The empty string means
// warn, which keeps the CLI quiet unless something needs attention.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return zerolog.WarnLevel, nil
	case "disabled", "off":
		return zerolog.Disabled, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}

// New returns a logger writing to w (stderr when nil) and, when o.File is
// set, to a lumberjack-rotated file. The returned closer releases the file.
func New(w io.Writer, o Options) (zerolog.Logger, io.Closer, error) {
	if err := o.Validate(); err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}
	lvl, err := ParseLevel(o.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}
	if w == nil {
		w = os.Stderr
	}

	var writers []io.Writer
	if o.Format == FormatJSON {
		writers = append(writers, w)
	} else {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    o.NoColor,
			TimeFormat: time.Kitchen,
		})
	}

	var closer io.Closer = nopCloser{}
	if o.File != "" {
		lj := &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    orDefault(o.MaxSizeMB, defaultMaxSizeMB),
			MaxBackups: orDefault(o.MaxBackups, defaultMaxBackups),
		}
		writers = append(writers, lj)
		closer = lj
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().
		Timestamp().
		Logger()
	return logger, closer, nil
}

func orDefault(v, d int) int {
	if v <= 0 {
		return d
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
