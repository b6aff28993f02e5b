// Package cli provides the costctl command line.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/dig"

	"github.com/davidbz/creditmeter/internal/app"
	"github.com/davidbz/creditmeter/internal/config"
	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/routing"
	"github.com/davidbz/creditmeter/internal/usage"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// state is shared by every command of one invocation.
type state struct {
	loadConfig func() *config.Config

	catalogFile string
	redisAddr   string
	verbose     bool
	format      string

	cfg       *config.Config
	container *dig.Container
}

// NewRootCommand builds the costctl command tree. loadConfig supplies the
// environment configuration before flags are applied.
func NewRootCommand(loadConfig func() *config.Config) *cobra.Command {
	s := &state{loadConfig: loadConfig}

	root := &cobra.Command{
		Use:   "costctl",
		Short: "Price generative model usage",
		Long: `costctl prices model calls against the model catalog.

It computes exact costs from reported usage, estimates the cost of a call
before it runs, reprices exported usage logs and manages catalog files.

Examples:
  costctl calc --model anthropic/claude-sonnet-4 --input 1200 --output 300
  costctl estimate --model openai/gpt-4o --prompt "Summarize this ticket"
  costctl backfill usage.jsonl
  costctl catalog lint catalog.hcl`,
		SilenceUsage:      true,
		PersistentPreRunE: s.init,
	}

	root.PersistentFlags().StringVar(&s.catalogFile, "catalog", "", "catalog file (JSON or HCL) loaded over the built-in catalog")
	root.PersistentFlags().StringVar(&s.redisAddr, "redis", "", "use the shared catalog in Redis at this address")
	root.PersistentFlags().BoolVarP(&s.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&s.format, "format", "f", formatText, "output format (text, json)")

	root.AddCommand(
		s.calcCommand(),
		s.estimateCommand(),
		s.backfillCommand(),
		s.modelsCommand(),
		s.catalogCommand(),
	)

	return root
}

// Execute runs costctl with the process environment.
func Execute() error {
	return NewRootCommand(config.Load).Execute()
}

func (s *state) init(cmd *cobra.Command, _ []string) error {
	if s.format != formatText && s.format != formatJSON {
		return fmt.Errorf("unknown format %q (want %s or %s)", s.format, formatText, formatJSON)
	}

	cfg := s.loadConfig()
	if s.catalogFile != "" {
		cfg.Catalog.File = s.catalogFile
	}
	if s.redisAddr != "" {
		cfg.Redis.Enabled = true
		cfg.Redis.Addr = s.redisAddr
	}
	switch {
	case s.verbose:
		cfg.Log.Level = "debug"
	case os.Getenv("LOG_LEVEL") == "":
		cfg.Log.Level = "warn"
	}
	s.cfg = cfg

	container, err := app.BuildContainer(func() *config.Config { return cfg })
	if err != nil {
		return err
	}
	s.container = container

	return nil
}

// services resolves the billing service and the metadata decoder.
func (s *state) services() (*domain.BillingService, usage.MetadataDecoder, error) {
	var (
		billing *domain.BillingService
		decoder usage.MetadataDecoder
	)

	err := s.container.Invoke(func(b *domain.BillingService, d usage.MetadataDecoder) {
		billing = b
		decoder = d
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start cost engine: %w", err)
	}

	return billing, decoder, nil
}

// resolve fills in the provider of a model given by bare id.
func (s *state) resolve(ctx context.Context, model *usage.Model) error {
	if model.ProviderID != "" {
		return nil
	}

	var router *routing.SimpleRouter
	if err := s.container.Invoke(func(r *routing.SimpleRouter) { router = r }); err != nil {
		return fmt.Errorf("failed to start cost engine: %w", err)
	}

	ref, err := router.Route(ctx, model.ModelID, model.Modality)
	if err != nil {
		return err
	}

	model.ProviderID = ref.ProviderID
	model.Modality = ref.Modality
	return nil
}
