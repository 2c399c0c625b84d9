package rescomp

import "log/slog"

// DefaultMaxSize is the capacity used when no WithMaxSize option is set.
const DefaultMaxSize uint32 = 1 << 20

// compileConfig holds configuration for image compilation.
type compileConfig struct {
	maxSize  uint32
	logger   *slog.Logger
	progress ProgressFunc
}

// CompileOption configures image compilation.
type CompileOption func(*compileConfig)

// WithMaxSize sets the hard capacity of the image in bytes. Compilation
// fails with ErrCapacityExceeded rather than grow past it.
func WithMaxSize(n uint32) CompileOption {
	return func(cfg *compileConfig) {
		cfg.maxSize = n
	}
}

// WithLogger sets the logger used for compilation diagnostics.
// A nil logger disables logging.
func WithLogger(logger *slog.Logger) CompileOption {
	return func(cfg *compileConfig) {
		cfg.logger = logger
	}
}

// WithProgress sets a callback invoked after each packed file.
func WithProgress(fn ProgressFunc) CompileOption {
	return func(cfg *compileConfig) {
		cfg.progress = fn
	}
}
