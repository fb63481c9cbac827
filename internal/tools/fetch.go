package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chris/briefing/internal/cache"
)

const userAgent = "briefing/1.0 (+https://github.com/chris/briefing)"

var defaultHTTPClient = &http.Client{Timeout: 10 * time.Second}

// fetch performs a GET and returns the body of a 2xx response.
func fetch(ctx context.Context, client *http.Client, url string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return do(client, req)
}

func do(client *http.Client, req *http.Request) ([]byte, error) {
	if client == nil {
		client = defaultHTTPClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s %s: %s: %s", req.Method, req.URL.Redacted(), resp.Status, truncate(string(body), 200))
	}
	return body, nil
}

// cached returns the stored result for (tool, key) when fresh. Otherwise it
// calls produce and stores the outcome unless it is an error result.
func cached(ctx context.Context, store *cache.Store, tool, key string, produce func(context.Context) (any, error)) (any, error) {
	if store != nil {
		if raw, ok := store.Get(tool, key); ok {
			return json.RawMessage(raw), nil
		}
	}
	v, err := produce(ctx)
	if err != nil || isError(v) || store == nil {
		return v, err
	}
	if err := store.Set(tool, v, key); err != nil {
		logger().Warn().Err(err).Str("tool", tool).Msg("storing cache entry")
	}
	return v, nil
}

func decodeInto(v any, dst any) error {
	raw, ok := v.(json.RawMessage)
	if !ok {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		raw = b
	}
	return json.Unmarshal(raw, dst)
}
