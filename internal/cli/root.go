// Package cli wires configuration into the briefing commands.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/chris/briefing/config"
	"github.com/chris/briefing/internal/agent"
	"github.com/chris/briefing/internal/cache"
	"github.com/chris/briefing/internal/llm"
	"github.com/chris/briefing/internal/logging"
	"github.com/chris/briefing/internal/reports"
	"github.com/chris/briefing/internal/speech"
	"github.com/chris/briefing/internal/tools"
	"github.com/spf13/cobra"
)

// app holds the components every command builds from the same config.
type app struct {
	cfg     *config.Config
	models  *llm.Selector
	tools   *tools.Registry
	reports *reports.Store
	agent   *agent.Agent
	speech  *speech.Client
}

func newApp(cfg *config.Config) *app {
	models := llm.NewSelector(llm.ProviderConfig{
		Prefer:            cfg.LLMPrefer,
		GeminiKey:         cfg.GeminiKey,
		GeminiModel:       cfg.GeminiModel,
		GeminiBaseURL:     cfg.GeminiBaseURL,
		OpenRouterKey:     cfg.OpenRouterKey,
		OpenRouterModel:   cfg.OpenRouterModel,
		OpenRouterBaseURL: cfg.OpenRouterBaseURL,
		OpenRouterVendor:  cfg.OpenRouterVendor,
		BlockOnRateLimit:  cfg.RateLimitBlock,
		MaxWait:           cfg.RateLimitMaxWait,
	})
	registry := tools.Default(tools.Deps{
		OpenWeatherMapKey: cfg.OpenWeatherMapKey,
		TicketmasterKey:   cfg.TicketmasterKey,
		Crawl4AIURL:       cfg.Crawl4AIURL,
		Summarizer:        models,
		Cache:             cache.New(cfg.CacheDir, cache.DefaultTTL),
	})
	store := reports.NewStore(cfg.ReportsDir)
	return &app{
		cfg:     cfg,
		models:  models,
		tools:   registry,
		reports: store,
		agent:   agent.New(models, registry, store, cfg.PersonalizationPath),
		speech:  speech.New(cfg.ElevenLabsKey, cfg.ElevenLabsVoice),
	}
}

// NewRootCmd constructs the command tree. Config and logging are set up
// before any subcommand runs.
func NewRootCmd() *cobra.Command {
	var a *app
	get := func() *app { return a }

	cmd := &cobra.Command{
		Use:           "briefing",
		Short:         "Daily report agent",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
				return err
			}
			a = newApp(cfg)
			return nil
		},
	}

	cmd.AddCommand(newServeCmd(get))
	cmd.AddCommand(newGenerateCmd(get))
	cmd.AddCommand(newShowCmd(get))
	cmd.AddCommand(newToolsCmd(get))
	cmd.AddCommand(newMCPCmd(get))
	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

const generateTimeout = 10 * time.Minute
