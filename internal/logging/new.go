package logging

import (
	"fmt"
	"io"
	"strings"
)

// Supported backends.
const (
	BackendZap  = "zap"
	BackendSlog = "slog"
)

// Options selects and tunes a Logger backend.
type Options struct {
	Backend    string
	Level      string
	Production bool
	// Output is used by the slog backend; zap writes to stderr.
	Output io.Writer
}

// New builds a Logger for opts. The returned sync func flushes the backend
// and must be called before the process exits.
func New(opts Options) (Logger, func() error, error) {
	switch strings.ToLower(opts.Backend) {
	case "", BackendZap:
		zl, err := newZap(opts.Production, opts.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("zap init error: %w", err)
		}
		l := NewZapLogger(zl)
		return l, l.Sync, nil

	case BackendSlog:
		return newSlog(opts.Output, opts.Level), func() error { return nil }, nil
	}

	return nil, nil, fmt.Errorf("unsupported log backend %q", opts.Backend)
}
