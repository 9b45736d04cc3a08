package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"photoaudit/internal/audit"
	"photoaudit/internal/exif"
	"photoaudit/internal/render"
	"photoaudit/internal/rubric"
)

func (a *app) newAuditCmd() *cobra.Command {
	var (
		asJSON   bool
		plain    bool
		showMeta bool
		width    int
	)
	cmd := &cobra.Command{
		Use:   "audit <image>",
		Short: "Audit a photograph",
		Example: `  photoaudit audit shot.jpg
  photoaudit audit --json shot.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			auditor, err := a.auditor(ctx, a.cfg.Rubric.Name, a.cfg.Rubric.Path)
			if err != nil {
				return err
			}
			rep := auditor.AuditFile(ctx, args[0], a.cfg.Image.MaxBytes)

			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), rep); err != nil {
					return err
				}
			} else {
				term, err := render.NewTerminal(width, plain)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), term.Report(rep, showMeta))
			}

			if !rep.Result.OK {
				return fmt.Errorf("audit of %s failed", rep.Name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVar(&plain, "plain", false, "Disable terminal styling")
	cmd.Flags().BoolVar(&showMeta, "metadata", true, "Show the metadata panel")
	cmd.Flags().IntVar(&width, "width", 100, "Word wrap width")
	return cmd
}

// auditor resolves the rubric and backend into an Auditor. A non-empty
// rubricPath wins over rubricName.
func (a *app) auditor(ctx context.Context, rubricName, rubricPath string) (*audit.Auditor, error) {
	r, err := rubric.Resolve(rubricName, rubricPath)
	if err != nil {
		return nil, err
	}
	gen, err := a.generator(ctx)
	if err != nil {
		return nil, err
	}
	return audit.New(gen, a.cfg.LLM.Model, r,
		audit.WithExtractor(exif.NewExtractor(nil, exif.WithRedact(a.cfg.Exif.Redact...))),
		audit.WithJPEGQuality(a.cfg.Image.JPEGQuality),
	), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
