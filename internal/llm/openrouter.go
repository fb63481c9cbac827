package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// fallbackModel is used when discovery finds nothing usable.
const fallbackModel = "gpt-4o-mini"

type modelInfo struct {
	ID            string
	Free          bool
	ContextLength int64
}

// BestFreeModel returns the free OpenRouter model with the largest context
// window, skipping blocked ones. vendor biases the choice towards ids that
// contain it. The choice sticks until the model is blocked or invalidated.
func (s *Selector) BestFreeModel(ctx context.Context, vendor string) string {
	vendor = strings.ToLower(vendor)

	s.mu.Lock()
	cached := s.cachedModel
	_, blocked := s.blocked[cached]
	s.mu.Unlock()
	if cached != "" && !blocked && (vendor == "" || strings.Contains(strings.ToLower(cached), vendor)) {
		return cached
	}

	models, err := s.listModels(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("fetching openrouter models")
		return s.remember(fallbackModel)
	}

	var free []modelInfo
	for _, m := range models {
		if m.Free && !s.IsBlocked(m.ID) {
			free = append(free, m)
		}
	}
	if len(free) == 0 {
		s.log.Warn().Msg("no free models found, using fallback")
		return s.remember(fallbackModel)
	}

	candidates := free
	if vendor != "" {
		var preferred []modelInfo
		for _, m := range free {
			if strings.Contains(strings.ToLower(m.ID), vendor) {
				preferred = append(preferred, m)
			}
		}
		if len(preferred) > 0 {
			candidates = preferred
		}
	}

	best := candidates[0]
	for _, m := range candidates[1:] {
		if m.ContextLength > best.ContextLength {
			best = m
		}
	}
	s.log.Info().Str("model", best.ID).Int64("context_length", best.ContextLength).Msg("selected free model")
	return s.remember(best.ID)
}

func (s *Selector) remember(model string) string {
	s.mu.Lock()
	s.cachedModel = model
	s.mu.Unlock()
	return model
}

func (s *Selector) listModels(ctx context.Context) ([]modelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.openRouterBase()+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing models: %s", resp.Status)
	}

	var models []modelInfo
	gjson.GetBytes(body, "data").ForEach(func(_, entry gjson.Result) bool {
		id := entry.Get("id").String()
		if id == "" {
			return true
		}
		models = append(models, modelInfo{
			ID:            id,
			Free:          entry.Get("free").Bool() || strings.HasSuffix(id, ":free"),
			ContextLength: entry.Get("context_length").Int(),
		})
		return true
	})
	return models, nil
}
