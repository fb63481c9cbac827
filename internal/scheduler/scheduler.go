// Package scheduler generates reports on a cron schedule and delivers them.
package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/chris/briefing/internal/discord"
	"github.com/chris/briefing/internal/logging"
	"github.com/chris/briefing/internal/render"
	"github.com/chris/briefing/internal/reports"
	"github.com/chris/briefing/internal/speech"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type Generator interface {
	Generate(ctx context.Context) (*reports.Report, error)
}

type Speaker interface {
	SaveFile(ctx context.Context, text, voice, path string) error
}

type Options struct {
	Spec    string        // cron spec, e.g. "@every 60m" or "0 7 * * *"
	Timeout time.Duration // per-run deadline
	// Speaker and AudioDir enable an MP3 next to every scheduled report.
	Speaker  Speaker
	AudioDir string
	// Send delivers to Discord; WebhookURL is the fallback.
	Send       func(content string) error
	WebhookURL string
}

type Scheduler struct {
	cron      *cron.Cron
	opts      Options
	generator Generator
	http      *http.Client
	log       zerolog.Logger
}

func New(generator Generator, opts Options) *Scheduler {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Minute
	}
	log := logging.For("scheduler")
	cl := cronLogger{log}
	return &Scheduler{
		cron:      cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		opts:      opts,
		generator: generator,
		http:      &http.Client{Timeout: 15 * time.Second},
		log:       log,
	}
}

// Start registers the report job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.opts.Spec, func() { _ = s.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("invalid report schedule %q: %w", s.opts.Spec, err)
	}
	s.cron.Start()
	s.log.Info().Str("spec", s.opts.Spec).Msg("scheduler started")
	return nil
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce generates, optionally speaks, and delivers one report.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	report, err := s.generator.Generate(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("scheduled report failed")
		return err
	}

	if s.opts.Speaker != nil && s.opts.AudioDir != "" {
		path := filepath.Join(s.opts.AudioDir, speech.AudioName(report.Name))
		if err := s.opts.Speaker.SaveFile(ctx, render.PlainText(report.Body), "", path); err != nil {
			s.log.Warn().Err(err).Str("report", report.Name).Msg("speaking report")
		}
	}

	s.deliver(ctx, report)
	s.log.Info().Str("report", report.Name).Msg("scheduled report completed")
	return nil
}

func (s *Scheduler) deliver(ctx context.Context, report *reports.Report) {
	content := report.Content()
	if s.opts.Send != nil {
		err := s.opts.Send(content)
		if err == nil {
			return
		}
		s.log.Warn().Err(err).Msg("discord delivery failed")
	}
	if s.opts.WebhookURL != "" {
		if err := s.postWebhook(ctx, content); err != nil {
			s.log.Error().Err(err).Msg("webhook delivery failed")
		}
		return
	}
	s.log.Debug().Str("report", report.Name).Msg("no delivery method configured")
}

// postWebhook posts content in chunks that fit a Discord webhook message.
func (s *Scheduler) postWebhook(ctx context.Context, content string) error {
	for _, chunk := range discord.SplitMessage(content, discord.MaxMessageLen) {
		body, err := json.Marshal(map[string]string{"content": chunk})
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.WebhookURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("creating webhook request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := s.http.Do(req)
		if err != nil {
			return fmt.Errorf("posting webhook: %w", err)
		}
		resp.Body.Close()
		if resp.StatusCode >= 400 {
			return fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
	}
	return nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct{ log zerolog.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
