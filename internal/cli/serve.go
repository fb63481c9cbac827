package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/chris/briefing/internal/discord"
	"github.com/chris/briefing/internal/logging"
	"github.com/chris/briefing/internal/scheduler"
	"github.com/chris/briefing/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd(get func() *app) *cobra.Command {
	var noSchedule bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the report schedule and the Discord bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			cfg := a.cfg
			log := logging.For("serve")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var bot *discord.Bot
			if cfg.DiscordToken != "" {
				b, err := discord.NewBot(cfg.DiscordToken, cfg.DiscordChannelID, a.agent, a.reports)
				if err != nil {
					log.Error().Err(err).Msg("discord bot unavailable")
				} else {
					bot = b
					defer bot.Close()
				}
			}

			if !noSchedule {
				opts := scheduler.Options{
					Spec:       cfg.ReportCron,
					Timeout:    generateTimeout,
					WebhookURL: cfg.DiscordWebhook,
				}
				if bot != nil && cfg.DiscordChannelID != "" {
					opts.Send = bot.Deliver
				}
				if cfg.SpeakReports && a.speech.Enabled() {
					opts.Speaker = a.speech
					opts.AudioDir = cfg.AudioDir
				}
				sched := scheduler.New(a.agent, opts)
				if err := sched.Start(); err != nil {
					return err
				}
				defer sched.Stop()
			}

			srv := server.New(server.Options{
				Addr:                cfg.HTTPAddr,
				CORSOrigin:          cfg.CORSOrigin,
				PersonalizationPath: cfg.PersonalizationPath,
			}, a.agent, a.reports, a.tools, a.speech)
			return srv.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&noSchedule, "no-schedule", false, "Do not generate reports on the cron schedule")
	return cmd
}
