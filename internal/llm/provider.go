package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chris/briefing/internal/logging"
	"github.com/rs/zerolog"
)

const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// ErrNoProvider means neither provider has credentials configured.
var ErrNoProvider = errors.New("no available provider: set GEMINI_KEY and/or OPENROUTER_KEY")

type ProviderConfig struct {
	Prefer string // gemini or openrouter

	GeminiKey     string
	GeminiModel   string
	GeminiBaseURL string

	OpenRouterKey     string
	OpenRouterModel   string
	OpenRouterBaseURL string
	OpenRouterVendor  string

	BlockOnRateLimit bool
	MaxWait          time.Duration
}

// Selector picks a chat client and model, preferring one provider and
// falling back to the other. It owns the sticky free-model choice and the
// set of models blocked by rate limits or removals; build one per process.
type Selector struct {
	cfg       ProviderConfig
	http      *http.Client
	newClient func(name, apiKey, baseURL string, headers map[string]string) Client
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
	log       zerolog.Logger

	mu          sync.Mutex
	cachedModel string
	blocked     map[string]time.Time
}

func NewSelector(cfg ProviderConfig) *Selector {
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = time.Hour
	}
	return &Selector{
		cfg:  cfg,
		http: &http.Client{Timeout: 10 * time.Second},
		newClient: func(name, apiKey, baseURL string, headers map[string]string) Client {
			return NewOpenAIClient(name, apiKey, baseURL, headers)
		},
		now:     time.Now,
		sleep:   sleepCtx,
		log:     logging.For("llm"),
		blocked: make(map[string]time.Time),
	}
}

// GetClientAndModel returns a client for the preferred provider, or for the
// alternate one when the preferred is unconfigured or fails.
func (s *Selector) GetClientAndModel(ctx context.Context) (Client, string, error) {
	order := []string{ProviderGemini, ProviderOpenRouter}
	if strings.ToLower(s.cfg.Prefer) == ProviderOpenRouter {
		order = []string{ProviderOpenRouter, ProviderGemini}
	}

	var lastErr error
	for _, name := range order {
		if !s.hasCredentials(name) {
			continue
		}
		client, model, err := s.build(ctx, name)
		if err == nil {
			return client, model, nil
		}
		s.log.Warn().Err(err).Str("provider", name).Msg("provider failed, trying the next one")
		lastErr = err
	}
	if lastErr != nil {
		return nil, "", lastErr
	}
	return nil, "", ErrNoProvider
}

func (s *Selector) hasCredentials(name string) bool {
	switch name {
	case ProviderGemini:
		return s.cfg.GeminiKey != ""
	case ProviderOpenRouter:
		return s.cfg.OpenRouterKey != ""
	}
	return false
}

func (s *Selector) build(ctx context.Context, name string) (Client, string, error) {
	switch name {
	case ProviderGemini:
		model := s.cfg.GeminiModel
		if model == "" {
			model = "gemini-2.5-flash-lite"
		}
		return s.newClient(ProviderGemini, s.cfg.GeminiKey, s.cfg.GeminiBaseURL, nil), model, nil
	case ProviderOpenRouter:
		client := s.newClient(ProviderOpenRouter, s.cfg.OpenRouterKey, s.openRouterBase(), map[string]string{
			"HTTP-Referer": "http://localhost:5173",
			"X-Title":      "briefing",
		})
		model := s.cfg.OpenRouterModel
		if model == "" {
			model = s.BestFreeModel(ctx, s.cfg.OpenRouterVendor)
		}
		return client, model, nil
	}
	return nil, "", fmt.Errorf("unknown LLM provider: %s", name)
}

func (s *Selector) openRouterBase() string {
	if s.cfg.OpenRouterBaseURL == "" {
		return "https://openrouter.ai/api/v1"
	}
	return strings.TrimRight(s.cfg.OpenRouterBaseURL, "/")
}

// Complete runs a single tool-less exchange and returns the reply text.
func (s *Selector) Complete(ctx context.Context, system, prompt string) (string, error) {
	client, model, err := s.GetClientAndModel(ctx)
	if err != nil {
		return "", err
	}
	resp, err := s.ChatWithRateLimit(ctx, client, model, []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: prompt},
	}, nil)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// MarkBlocked excludes a model from free-model selection for the rest of the process.
func (s *Selector) MarkBlocked(model string) {
	s.mu.Lock()
	s.blocked[model] = s.now()
	s.mu.Unlock()
	s.log.Warn().Str("model", model).Msg("model marked as blocked (rate/quota/removed)")
}

func (s *Selector) IsBlocked(model string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blocked[model]
	return ok
}

// InvalidateModel drops the cached free-model choice.
func (s *Selector) InvalidateModel() {
	s.mu.Lock()
	s.cachedModel = ""
	s.mu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
