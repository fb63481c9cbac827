package tools

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/chris/briefing/internal/cache"
)

func newCache(t *testing.T) *cache.Store {
	t.Helper()
	return cache.New(t.TempDir(), cache.DefaultTTL)
}

// countingServer serves body for every request and counts hits.
func countingServer(t *testing.T, status int, body string, check func(*http.Request)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if check != nil {
			check(r)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}
