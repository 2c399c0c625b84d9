// Package precompress mirrors a directory tree into a second tree in which
// every file is gzip-compressed independently.
//
// The mirrored tree is an ordinary input for rescomp.Compile; the image
// format does not know that compression happened. Compressed files gain a
// ".gz" suffix so the firmware can tell them apart from files copied
// verbatim.
package precompress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/errgroup"

	"github.com/meigma/rescomp/internal/romtype"
)

// Suffix is appended to the name of every compressed file.
const Suffix = ".gz"

// ErrNotDirectory is returned when the source is not a directory.
var ErrNotDirectory = errors.New("precompress: not a directory")

// Stats summarizes a Mirror run.
type Stats struct {
	// Compressed is the number of files written gzip-compressed.
	Compressed int

	// Copied is the number of files copied verbatim because a SkipFunc
	// matched.
	Copied int

	// BytesIn is the total size of the source files.
	BytesIn uint64

	// BytesOut is the total size of the mirrored files.
	BytesOut uint64
}

// config holds configuration for Mirror.
type config struct {
	logger      *slog.Logger
	concurrency int
	level       int
	skip        []SkipFunc
	progress    romtype.ProgressFunc
}

// Option configures Mirror.
type Option func(*config)

// WithLogger sets the logger used for per-file diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithConcurrency sets how many files are compressed at once.
// Zero or negative uses runtime.GOMAXPROCS(0).
func WithConcurrency(n int) Option {
	return func(cfg *config) {
		cfg.concurrency = n
	}
}

// WithLevel sets the gzip compression level (gzip.BestSpeed through
// gzip.BestCompression). The default is gzip.BestCompression.
func WithLevel(level int) Option {
	return func(cfg *config) {
		cfg.level = level
	}
}

// WithSkip adds predicates that decide to copy a file verbatim.
// If any predicate returns true, compression is skipped for that file.
func WithSkip(fns ...SkipFunc) Option {
	return func(cfg *config) {
		cfg.skip = append(cfg.skip, fns...)
	}
}

// WithProgress sets a callback invoked after each mirrored file. It may be
// called from several goroutines at once.
func WithProgress(fn romtype.ProgressFunc) Option {
	return func(cfg *config) {
		cfg.progress = fn
	}
}

// job is one file to mirror.
type job struct {
	rel  string
	src  string
	info fs.FileInfo
}

// mirror holds state for a single Mirror run.
type mirror struct {
	cfg    config
	dstDir string

	mu    sync.Mutex
	stats Stats
	done  int
}

// Mirror compresses every regular file under srcDir into dstDir, keeping
// the relative layout. Directories are recreated even when empty.
// Existing files in dstDir with the same names are replaced; other files
// in dstDir are left untouched.
//
// Output is deterministic: gzip headers carry no name and no timestamp.
func Mirror(ctx context.Context, srcDir, dstDir string, opts ...Option) (Stats, error) {
	m := &mirror{
		cfg:    config{level: gzip.BestCompression},
		dstDir: dstDir,
	}
	for _, opt := range opts {
		opt(&m.cfg)
	}
	if m.cfg.concurrency <= 0 {
		m.cfg.concurrency = runtime.GOMAXPROCS(0)
	}

	info, err := os.Stat(srcDir)
	if err != nil {
		return Stats{}, err
	}
	if !info.IsDir() {
		return Stats{}, fmt.Errorf("%w: %s", ErrNotDirectory, srcDir)
	}

	jobs, err := m.plan(srcDir)
	if err != nil {
		return Stats{}, err
	}
	m.log().Info("compressing files", "src", srcDir, "dst", dstDir, "files", len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.concurrency)
	for _, j := range jobs {
		g.Go(func() error {
			return m.mirrorFile(gctx, j)
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	m.log().Info("compression finished",
		"compressed", m.stats.Compressed,
		"copied", m.stats.Copied,
		"bytes_in", m.stats.BytesIn,
		"bytes_out", m.stats.BytesOut)
	return m.stats, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (m *mirror) log() *slog.Logger {
	if m.cfg.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return m.cfg.logger
}

// plan walks srcDir, recreates its directories under dstDir and returns
// the files to mirror.
func (m *mirror) plan(srcDir string) ([]job, error) {
	var jobs []job
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			return os.MkdirAll(filepath.Join(m.dstDir, rel), 0o750)
		}

		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			m.log().Debug("skipped non-regular file", "path", rel, "mode", info.Mode().String())
			return nil
		}
		jobs = append(jobs, job{rel: rel, src: path, info: info})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// mirrorFile compresses or copies one file into the destination tree.
func (m *mirror) mirrorFile(ctx context.Context, j job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	skip := shouldSkip(j.rel, j.info, m.cfg.skip)
	dst := filepath.Join(m.dstDir, j.rel)
	if !skip {
		dst += Suffix
	}

	in, err := os.Open(j.src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst) //nolint:gosec // destination is derived from the caller's directory
	if err != nil {
		return err
	}
	written, err := m.write(out, in, skip)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dst)
		return fmt.Errorf("mirror %s: %w", j.rel, err)
	}

	m.mu.Lock()
	if skip {
		m.stats.Copied++
	} else {
		m.stats.Compressed++
	}
	m.stats.BytesIn += uint64(j.info.Size()) //nolint:gosec // regular file sizes are non-negative
	m.stats.BytesOut += written
	m.done++
	done, bytesOut := m.done, m.stats.BytesOut
	m.mu.Unlock()

	m.log().Debug("mirrored file", "path", j.rel, "size", j.info.Size(), "written", written, "compressed", !skip)
	if m.cfg.progress != nil {
		m.cfg.progress(romtype.ProgressEvent{
			Stage:     romtype.StageCompressing,
			Path:      j.rel,
			BytesDone: bytesOut,
			FilesDone: done,
		})
	}
	return nil
}

// write streams in to out, gzip-compressing unless raw is set, and returns
// the number of bytes written to out.
func (m *mirror) write(out io.Writer, in io.Reader, raw bool) (uint64, error) {
	cw := &countingWriter{w: out}
	if raw {
		_, err := io.Copy(cw, in)
		return cw.n, err
	}

	zw, err := gzip.NewWriterLevel(cw, m.cfg.level)
	if err != nil {
		return 0, err
	}
	if _, err := io.Copy(zw, in); err != nil {
		zw.Close()
		return 0, err
	}
	if err := zw.Close(); err != nil {
		return 0, err
	}
	return cw.n, nil
}

// countingWriter tracks how many bytes pass through it.
type countingWriter struct {
	w io.Writer
	n uint64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += uint64(n) //nolint:gosec // n is non-negative
	return n, err
}
