package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RateLimitError is returned when a model hit its rate limit or quota.
// ResetAt is zero when the provider did not advertise a reset time.
type RateLimitError struct {
	Model   string
	ResetAt time.Time
	Err     error
}

func (e *RateLimitError) Error() string {
	if e.ResetAt.IsZero() {
		return fmt.Sprintf("rate limit exceeded for %s: %v", e.Model, e.Err)
	}
	return fmt.Sprintf("rate limit exceeded for %s until %s: %v", e.Model, e.ResetAt.Format(time.RFC3339), e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// ChatWithRateLimit performs a chat call and applies the rate-limit policy:
// on a 429/quota error it either waits for the advertised reset (capped at
// MaxWait) and retries once, or blocks the model and returns a
// *RateLimitError. A missing model invalidates the cached choice.
func (s *Selector) ChatWithRateLimit(ctx context.Context, client Client, model string, messages []Message, tools []Tool) (*Response, error) {
	resp, err := client.Chat(ctx, model, messages, tools)
	if err == nil {
		return resp, nil
	}

	text := strings.ToLower(err.Error())
	var status int
	var header http.Header
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
		header = apiErr.Header
	}
	resetAt, hasReset := parseReset(header)
	remaining, hasRemaining := parseRemaining(header)

	limited := status == http.StatusTooManyRequests ||
		strings.Contains(text, "rate limit") ||
		strings.Contains(text, "quota") ||
		strings.Contains(text, "429")
	if limited || (hasRemaining && remaining == 0) {
		if s.cfg.BlockOnRateLimit && hasReset {
			wait := time.Duration(resetAt.Unix()-s.now().Unix()) * time.Second
			if wait > s.cfg.MaxWait {
				wait = s.cfg.MaxWait
			}
			if wait > 0 {
				s.log.Warn().Str("model", model).Dur("wait", wait).
					Time("until", s.now().Add(wait)).Msg("rate limit hit, waiting for reset")
				if err := s.sleep(ctx, wait); err != nil {
					return nil, err
				}
				return client.Chat(ctx, model, messages, tools)
			}
		}
		s.MarkBlocked(model)
		return nil, &RateLimitError{Model: model, ResetAt: resetAt, Err: err}
	}

	if status == http.StatusNotFound ||
		strings.Contains(text, "model_not_found") ||
		strings.Contains(text, "not found") ||
		strings.Contains(text, "404") {
		s.InvalidateModel()
		s.MarkBlocked(model)
		return nil, err
	}

	return nil, err
}

// parseReset reads X-RateLimit-Reset, a unix timestamp in milliseconds.
func parseReset(h http.Header) (time.Time, bool) {
	if h == nil {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func parseRemaining(h http.Header) (int, bool) {
	if h == nil {
		return 0, false
	}
	n, err := strconv.Atoi(h.Get("X-RateLimit-Remaining"))
	if err != nil {
		return 0, false
	}
	return n, true
}
