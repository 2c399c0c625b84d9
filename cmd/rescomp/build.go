package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"

	"github.com/meigma/rescomp"
	"github.com/meigma/rescomp/precompress"
)

const (
	defaultInputDir      = "dist"
	defaultCompressedDir = "resources"
	defaultOutputFile    = "res.c"

	// maxSizeEnv overrides the default of --maxsize.
	maxSizeEnv = "RESCOMP_MAXSIZE"
)

type buildOptions struct {
	noCompress     bool
	maxSize        string
	skipCompressed bool
	level          int
	concurrency    int
}

// globalOptions are shared by every subcommand.
type globalOptions struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	global := &globalOptions{}
	opts := &buildOptions{}

	defaultMax := os.Getenv(maxSizeEnv)
	if defaultMax == "" {
		defaultMax = humanize.IBytes(uint64(rescomp.DefaultMaxSize))
	}

	cmd := &cobra.Command{
		Use:   "rescomp [input_dir] [compressed_dir] [output_file]",
		Short: "Pack static resources into a firmware filesystem image",
		Long: `rescomp compresses every file under input_dir into compressed_dir and
packs the result into a single image. Output files ending in .c or .h
receive a C array named after the file; anything else receives raw bytes.`,
		Args:         cobra.MaximumNArgs(3),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, global, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.noCompress, "no-compress", "n", false, "pack input_dir directly without compressing it")
	flags.StringVarP(&opts.maxSize, "maxsize", "m", defaultMax, "maximum image size, e.g. 1048576 or 512KiB (env "+maxSizeEnv+")")
	flags.BoolVar(&opts.skipCompressed, "skip-compressed", false, "copy already-compressed formats such as .png and .woff2 verbatim")
	flags.IntVar(&opts.level, "level", gzip.BestCompression, "gzip compression level")
	flags.IntVarP(&opts.concurrency, "jobs", "j", 0, "files to compress in parallel (0 uses every CPU)")
	cmd.PersistentFlags().BoolVarP(&global.verbose, "verbose", "v", false, "log every packed file")

	cmd.AddCommand(newInspectCmd(global), newExtractCmd(global))
	return cmd
}

func runBuild(cmd *cobra.Command, global *globalOptions, opts *buildOptions, args []string) error {
	inputDir, compressedDir, outputFile := defaultInputDir, defaultCompressedDir, defaultOutputFile
	switch len(args) {
	case 3:
		outputFile = args[2]
		fallthrough
	case 2:
		compressedDir = args[1]
		fallthrough
	case 1:
		inputDir = args[0]
	}

	maxSize, err := parseMaxSize(opts.maxSize)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	logger := newLogger(cmd.ErrOrStderr(), global.verbose)

	if info, err := os.Stat(inputDir); err != nil {
		return fmt.Errorf("input directory: %w", err)
	} else if !info.IsDir() {
		return fmt.Errorf("input directory: %w: %s", rescomp.ErrNotDirectory, inputDir)
	}

	source := inputDir
	if opts.noCompress {
		logger.Info("skipping compression", "dir", inputDir)
	} else {
		mirrorOpts := []precompress.Option{
			precompress.WithLogger(logger),
			precompress.WithLevel(opts.level),
			precompress.WithConcurrency(opts.concurrency),
		}
		if opts.skipCompressed {
			mirrorOpts = append(mirrorOpts, precompress.WithSkip(precompress.DefaultSkip(0)))
		}
		stats, err := precompress.Mirror(ctx, inputDir, compressedDir, mirrorOpts...)
		if err != nil {
			return fmt.Errorf("compress %s: %w", inputDir, err)
		}
		fmt.Fprintf(out, "Compressed %d files (%d copied) from %s to %s: %s -> %s\n",
			stats.Compressed, stats.Copied, inputDir, compressedDir,
			humanize.IBytes(stats.BytesIn), humanize.IBytes(stats.BytesOut))
		source = compressedDir
	}

	img, err := rescomp.Compile(ctx, source,
		rescomp.WithMaxSize(maxSize),
		rescomp.WithLogger(logger))
	if errors.Is(err, rescomp.ErrCapacityExceeded) {
		return fmt.Errorf("resources in %s do not fit in %d bytes: %w", source, maxSize, err)
	}
	if err != nil {
		return err
	}

	if err := img.Save(outputFile,
		rescomp.CSourceWithComments(
			"Generated by rescomp from "+source+". Do not edit.",
			"digest: "+img.Digest().String(),
		)); err != nil {
		return err
	}

	printSummary(out, img, source, outputFile)
	return nil
}

// parseMaxSize accepts plain byte counts as well as humanized sizes.
func parseMaxSize(s string) (uint32, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid --maxsize %q: %w", s, err)
	}
	if n > math.MaxUint32 {
		return 0, fmt.Errorf("invalid --maxsize %q: exceeds %s", s, humanize.IBytes(math.MaxUint32))
	}
	return uint32(n), nil
}

func printSummary(w io.Writer, img *rescomp.Image, source, outputFile string) {
	fmt.Fprintln(w, "---------------------------------------------------------")
	fmt.Fprintln(w, "Resource compilation completed successfully")
	fmt.Fprintf(w, "%d bytes written to %s\n", img.Size(), outputFile)
	fmt.Fprintf(w, "Resource directory: %s\n", source)
	fmt.Fprintf(w, "Output file:        %s\n", outputFile)
	fmt.Fprintf(w, "Contents:           %d files in %d directories\n", img.Files(), img.Dirs())
	fmt.Fprintf(w, "Maximum size:       %d bytes (%s)\n", img.MaxSize(), humanize.IBytes(uint64(img.MaxSize())))
	fmt.Fprintf(w, "Free space:         %d bytes (%s)\n", img.Free(), humanize.IBytes(uint64(img.Free())))
	fmt.Fprintf(w, "Digest:             %s\n", img.Digest())
	fmt.Fprintln(w, "---------------------------------------------------------")
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
