package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Options controls logger output.
type Options struct {
	Level  string
	Format string
	// Dir, when set, sends output to <Dir>/<component>.log instead of stderr.
	Dir string
}

// New creates a component logger and returns it with a cleanup. Output
// never goes to stdout, which the stdio transport owns.
func New(component string, opts Options) (*logrus.Entry, func(), error) {
	logger := logrus.New()

	if opts.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}
	logger.SetLevel(level)

	var out io.Writer = os.Stderr
	cleanup := func() {}
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, nil, err
		}
		path := filepath.Join(opts.Dir, component+".log")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		out = f
		cleanup = func() { _ = f.Close() }
	}

	logger.SetOutput(out)
	return logger.WithField("component", component), cleanup, nil
}
