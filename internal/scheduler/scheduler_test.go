package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chris/briefing/internal/reports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	report *reports.Report
	err    error
	calls  int
}

func (f *fakeGenerator) Generate(context.Context) (*reports.Report, error) {
	f.calls++
	return f.report, f.err
}

type fakeSpeaker struct {
	text, path string
}

func (f *fakeSpeaker) SaveFile(_ context.Context, text, _ string, path string) error {
	f.text, f.path = text, path
	return os.WriteFile(path, []byte("mp3"), 0o644)
}

type webhook struct {
	mu       sync.Mutex
	messages []string
	status   int
}

func (w *webhook) handler(rw http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	w.mu.Lock()
	w.messages = append(w.messages, body.Content)
	w.mu.Unlock()
	if w.status != 0 {
		rw.WriteHeader(w.status)
		return
	}
	rw.WriteHeader(http.StatusNoContent)
}

func testReport(body string) *reports.Report {
	return &reports.Report{
		Name:        "report-2025-03-04_07-00-00.txt",
		GeneratedAt: time.Date(2025, 3, 4, 7, 0, 0, 0, time.UTC),
		Body:        body,
	}
}

func TestRunOnce_SendsToDiscord(t *testing.T) {
	hook := &webhook{}
	srv := httptest.NewServer(http.HandlerFunc(hook.handler))
	defer srv.Close()

	var sent []string
	s := New(&fakeGenerator{report: testReport("# Morning")}, Options{
		Send:       func(c string) error { sent = append(sent, c); return nil },
		WebhookURL: srv.URL,
	})

	require.NoError(t, s.RunOnce(context.Background()))
	require.Len(t, sent, 1)
	assert.True(t, strings.HasPrefix(sent[0], "Report generated at: "))
	assert.Contains(t, sent[0], "# Morning")
	assert.Empty(t, hook.messages, "webhook is only a fallback")
}

func TestRunOnce_FallsBackToWebhook(t *testing.T) {
	hook := &webhook{}
	srv := httptest.NewServer(http.HandlerFunc(hook.handler))
	defer srv.Close()

	s := New(&fakeGenerator{report: testReport("# Morning")}, Options{
		Send:       func(string) error { return errors.New("gateway closed") },
		WebhookURL: srv.URL,
	})

	require.NoError(t, s.RunOnce(context.Background()))
	require.Len(t, hook.messages, 1)
	assert.Contains(t, hook.messages[0], "# Morning")
}

func TestRunOnce_GenerationErrorSkipsDelivery(t *testing.T) {
	called := false
	s := New(&fakeGenerator{err: errors.New("no provider")}, Options{
		Send: func(string) error { called = true; return nil },
	})

	assert.Error(t, s.RunOnce(context.Background()))
	assert.False(t, called)
}

func TestRunOnce_SavesAudio(t *testing.T) {
	dir := t.TempDir()
	sp := &fakeSpeaker{}
	s := New(&fakeGenerator{report: testReport("## Weather\n\nSunny, **five** degrees.")}, Options{
		Speaker:  sp,
		AudioDir: dir,
	})

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, filepath.Join(dir, "report-2025-03-04_07-00-00.mp3"), sp.path)
	assert.NotContains(t, sp.text, "**")
	assert.Contains(t, sp.text, "Sunny, five degrees.")
	assert.FileExists(t, sp.path)
}

func TestPostWebhook_SplitsLongContent(t *testing.T) {
	hook := &webhook{}
	srv := httptest.NewServer(http.HandlerFunc(hook.handler))
	defer srv.Close()

	s := New(nil, Options{WebhookURL: srv.URL})
	content := strings.Repeat("line of text\n", 400)

	require.NoError(t, s.postWebhook(context.Background(), content))
	require.Greater(t, len(hook.messages), 1)
	assert.Equal(t, content, strings.Join(hook.messages, ""))
}

func TestPostWebhook_ErrorStatus(t *testing.T) {
	hook := &webhook{status: http.StatusBadRequest}
	srv := httptest.NewServer(http.HandlerFunc(hook.handler))
	defer srv.Close()

	s := New(nil, Options{WebhookURL: srv.URL})
	err := s.postWebhook(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestStart_InvalidSpec(t *testing.T) {
	s := New(&fakeGenerator{}, Options{Spec: "not a schedule"})
	assert.Error(t, s.Start())
}

func TestStart_ValidSpec(t *testing.T) {
	s := New(&fakeGenerator{}, Options{Spec: "0 7 * * *"})
	require.NoError(t, s.Start())
	s.Stop()
}
