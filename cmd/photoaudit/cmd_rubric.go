package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"photoaudit/internal/rubric"
)

func (a *app) newRubricCmd() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "rubric [name]",
		Short: "Print a rubric as it will be sent to the model",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if list {
				for _, n := range rubric.Names() {
					r, err := rubric.Load(n)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%-10s v%d  %s\n", n, r.Version, r.Description)
				}
				return nil
			}

			name := a.cfg.Rubric.Name
			path := a.cfg.Rubric.Path
			if len(args) == 1 {
				name, path = args[0], ""
			}
			r, err := rubric.Resolve(name, path)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, strings.TrimRight(r.Template(), "\n"))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&list, "list", "l", false, "List embedded rubrics")
	return cmd
}
