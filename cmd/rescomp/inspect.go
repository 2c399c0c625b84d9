package main

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/rescomp"
)

func newInspectCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <image> [path]",
		Short: "Verify a raw image and list its contents",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr(), global.verbose)

			fsys, err := openImage(args[0])
			if err != nil {
				return err
			}
			if err := fsys.Verify(); err != nil {
				return fmt.Errorf("verify %s: %w", args[0], err)
			}
			logger.Debug("image verified", "path", args[0], "size", fsys.Size())

			root := "."
			if len(args) == 2 {
				root = rescomp.NormalizePath(args[1])
			}

			out := cmd.OutOrStdout()
			var files, dirs int
			var total uint64
			err = fs.WalkDir(fsys, root, func(name string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				e, _ := fsys.Entry(name)
				if d.IsDir() {
					dirs++
					fmt.Fprintf(out, "[DIR]  %-40s @%-8d %d\n", name, e.DataOffset, e.DataLength)
					return nil
				}
				files++
				total += uint64(e.DataLength)
				fmt.Fprintf(out, "[FILE] %-40s @%-8d %d bytes\n", name, e.DataOffset, e.DataLength)
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d files, %d directories, %s of file data in a %s image\n",
				files, dirs, humanize.IBytes(total), humanize.IBytes(uint64(fsys.Size())))
			return nil
		},
	}
}

// openImage reads a raw image from path.
func openImage(path string) (*rescomp.FS, error) {
	if rescomp.IsCSourcePath(path) {
		return nil, fmt.Errorf("%s: C output cannot be read back, write a raw image instead", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fsys, err := rescomp.Open(data)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return fsys, nil
}
