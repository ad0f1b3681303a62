// Package logging builds the process logger for the geobatch command.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures New. Empty fields take defaults.
type Options struct {
	// Level is the minimum level logged: debug, info, warn or error.
	Level string
	// Format is "json" or "console".
	Format string

	// Stdout receives entries below error level, Stderr the rest.
	Stdout io.Writer
	Stderr io.Writer
}

// New returns a logger that writes errors to stderr and everything else to
// stdout, with RFC3339 timestamps and caller information.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(opts.Level))); err != nil {
			return nil, errors.Wrapf(err, "log level %q", opts.Level)
		}
	}

	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = zapcore.RFC3339TimeEncoder

	var encoder zapcore.Encoder
	switch strings.ToLower(opts.Format) {
	case "", "json":
		encoder = zapcore.NewJSONEncoder(config)
	case "console":
		config.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(config)
	default:
		return nil, errors.Errorf("unknown log format %q", opts.Format)
	}

	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	isError := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel && lvl >= level
	})
	isInfo := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl < zapcore.ErrorLevel && lvl >= level
	})

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(stderr)), isError),
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(stdout)), isInfo),
	)
	return zap.New(core, zap.AddCaller()), nil
}
