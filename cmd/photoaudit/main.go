package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"photoaudit/internal/backend"
	"photoaudit/internal/config"
	"photoaudit/internal/logging"
)

// newGenerator builds the reasoning backend. Tests replace it.
var newGenerator = func(ctx context.Context, cfg *config.Config) (backend.Generator, error) {
	g, err := backend.NewGenAI(ctx, cfg.LLM.APIKey, cfg.GetLLMTimeout())
	if err != nil {
		return nil, err
	}
	return backend.NewTracing(g), nil
}

// app carries state shared by every subcommand.
type app struct {
	configPath string
	verbose    bool
	model      string
	rubricName string
	rubricPath string
	logFormat  string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "photoaudit",
		Short: "Photograph Quality Agent - technical audit and professional critique",
		Long: `photoaudit extracts the tag directory of a photograph, pairs it with the
image, and asks a multimodal model for a hardware health audit and a
photography critique.

Set GOOGLE_API_KEY (or GEMINI_API_KEY) in the environment or a .env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", config.DefaultConfigFile, "Config file")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	pf.StringVar(&a.model, "model", "", "Model id (overrides config)")
	pf.StringVar(&a.rubricName, "rubric", "", "Embedded rubric name (overrides config)")
	pf.StringVar(&a.rubricPath, "rubric-file", "", "Rubric YAML file (overrides the embedded rubric)")
	pf.StringVar(&a.logFormat, "log-format", "", "Log format: console or json")

	root.AddCommand(
		a.newAuditCmd(),
		a.newMetadataCmd(),
		a.newServeCmd(),
		a.newAgentCmd(),
		a.newCheckCmd(),
		a.newRubricCmd(),
	)
	return root
}

// setup loads .env and config, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	config.LoadDotEnv()

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.model != "" {
		cfg.LLM.Model = a.model
	}
	if a.rubricName != "" {
		cfg.Rubric.Name = a.rubricName
	}
	if a.rubricPath != "" {
		cfg.Rubric.Path = a.rubricPath
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}

	if err := logging.Initialize(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		Categories: cfg.Logging.Categories,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logging.Boot("photoaudit %s starting %s (model=%s)", cfg.Version, cmd.Name(), cfg.LLM.Model)
	a.cfg = cfg
	return nil
}

// generator validates the backend config and builds the generator.
func (a *app) generator(ctx context.Context) (backend.Generator, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	return newGenerator(ctx, a.cfg)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
