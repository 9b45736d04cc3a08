package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"photoaudit/internal/exif"
	"photoaudit/internal/render"
)

func (a *app) newMetadataCmd() *cobra.Command {
	var (
		asJSON bool
		plain  bool
	)
	cmd := &cobra.Command{
		Use:   "metadata <image>",
		Short: "Print the flattened tag directory of an image",
		Long: `Prints the merged IFD0 and Exif sub-directory tags of the image, with the
vendor MakerNote removed. Needs no API key.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ex := exif.NewExtractor(nil, exif.WithRedact(a.cfg.Exif.Redact...))
			out := cmd.OutOrStdout()

			md := ex.ExtractFile(args[0])
			if asJSON {
				return writeJSON(out, md)
			}

			term, err := render.NewTerminal(0, plain)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, args[0])
			fmt.Fprintln(out, term.Metadata(md))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	cmd.Flags().BoolVar(&plain, "plain", false, "Disable terminal styling")
	return cmd
}
