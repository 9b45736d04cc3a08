package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"photoaudit/internal/backend"
)

const checkPrompt = "System check: Are you ready to audit metadata?"

func (a *app) newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the API key and model respond",
		Long: `Sends a one-line text prompt to the configured model. On failure, lists the
models the key can access.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			gen, err := a.generator(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Connecting to %s...\n", a.cfg.LLM.Model)
			text, err := gen.Generate(cmd.Context(), a.cfg.LLM.Model, []backend.Part{backend.TextPart(checkPrompt)})
			if err == nil {
				fmt.Fprintln(out, "SUCCESS")
				fmt.Fprintf(out, "Agent: %s\n", text)
				return nil
			}

			fmt.Fprintf(out, "Error: %v\n", err)
			lister, ok := gen.(backend.ModelLister)
			if !ok {
				return err
			}
			models, listErr := lister.ListModels(cmd.Context())
			if listErr != nil {
				fmt.Fprintf(out, "Could not list models: %v\n", listErr)
				return err
			}
			fmt.Fprintln(out, "Available models for this key:")
			for _, m := range models {
				fmt.Fprintf(out, " - %s\n", m.Name)
			}
			return err
		},
	}
}
