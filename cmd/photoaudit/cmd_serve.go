package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"photoaudit/internal/agent"
	"photoaudit/internal/httpx"
	"photoaudit/internal/logging"
	"photoaudit/internal/web"
)

func (a *app) newServeCmd() *cobra.Command {
	var withAgent bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the browser session",
		Long: `Serves the upload, preview and audit page on server.addr. With --with-agent the
hardware technician agent runs alongside on agent.addr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			auditor, err := a.auditor(ctx, a.cfg.Rubric.Name, a.cfg.Rubric.Path)
			if err != nil {
				return err
			}
			site := web.New(auditor, web.Options{
				MaxBytes:    a.cfg.Image.MaxBytes,
				JPEGQuality: a.cfg.Image.JPEGQuality,
			})

			var tech *agent.Agent
			if withAgent {
				if tech, err = a.technician(ctx); err != nil {
					return err
				}
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return httpx.Run(gctx, a.cfg.Server.Addr, site, a.cfg.GetShutdownTimeout(), a.announce(cmd, "Photograph Quality Agent", logging.CategoryWeb))
			})
			if tech != nil {
				g.Go(func() error {
					return httpx.Run(gctx, a.cfg.Agent.Addr, tech, a.cfg.GetShutdownTimeout(), a.announce(cmd, a.cfg.Agent.Name, logging.CategoryAgent))
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().BoolVar(&withAgent, "with-agent", false, "Also run the hardware technician agent")
	return cmd
}

func (a *app) newAgentCmd() *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Run the hardware technician agent",
		Long: `Serves the hardware technician on agent.addr:

  GET  /.well-known/agent.json   agent card
  POST /v1/tasks                 {"path": "..."} or multipart field "image"
  GET  /health`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if root != "" {
				a.cfg.Agent.Root = root
			}
			tech, err := a.technician(ctx)
			if err != nil {
				return err
			}
			return httpx.Run(ctx, a.cfg.Agent.Addr, tech, a.cfg.GetShutdownTimeout(), a.announce(cmd, a.cfg.Agent.Name, logging.CategoryAgent))
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "Only serve path requests beneath this directory")
	return cmd
}

// technician builds the agent on agent.rubric. The global rubric override
// does not apply to it.
func (a *app) technician(ctx context.Context) (*agent.Agent, error) {
	auditor, err := a.auditor(ctx, a.cfg.Agent.Rubric, "")
	if err != nil {
		return nil, err
	}
	return agent.New(auditor, agent.Options{
		Name:        a.cfg.Agent.Name,
		Description: a.cfg.Agent.Description,
		Version:     a.cfg.Version,
		URL:         "http://" + a.cfg.Agent.Addr + "/",
		Root:        a.cfg.Agent.Root,
		MaxBytes:    a.cfg.Image.MaxBytes,
	}), nil
}

func (a *app) announce(cmd *cobra.Command, what string, cat logging.Category) func(net.Addr) {
	return func(addr net.Addr) {
		logging.Get(cat).Info("%s listening on %s", what, addr)
		fmt.Fprintf(cmd.OutOrStdout(), "%s listening on http://%s\n", what, addr)
	}
}
