package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/rescomp"
)

type extractOptions struct {
	prefix    string
	overwrite bool
}

func newExtractCmd(global *globalOptions) *cobra.Command {
	opts := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract <image> <dest>",
		Short: "Extract the files of a raw image into a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr(), global.verbose)

			fsys, err := openImage(args[0])
			if err != nil {
				return err
			}
			stats, err := fsys.CopyDir(args[1], rescomp.NormalizePath(opts.prefix),
				rescomp.CopyWithOverwrite(opts.overwrite))
			if err != nil {
				return err
			}
			logger.Debug("image extracted", "dest", args[1], "skipped", stats.Skipped)
			fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d files (%s) into %s, %d skipped\n",
				stats.FileCount, humanize.IBytes(stats.TotalBytes), args[1], stats.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.prefix, "prefix", "p", "", "only extract this directory")
	cmd.Flags().BoolVar(&opts.overwrite, "overwrite", false, "replace files that already exist")
	return cmd
}
