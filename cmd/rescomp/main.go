// Command rescomp packs a directory of static web resources into a
// filesystem image and writes it either as raw bytes or as a C array for
// linking into firmware.
//
// Usage:
//
//	rescomp [input_dir] [compressed_dir] [output_file] [flags]
//	rescomp inspect <image> [path]
//	rescomp extract <image> <dest>
//
// By default every file under input_dir is gzip-compressed into
// compressed_dir, which is then packed into output_file. The defaults are
// dist, resources and res.c.
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
