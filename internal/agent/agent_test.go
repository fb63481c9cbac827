package agent

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chris/briefing/internal/llm"
	"github.com/chris/briefing/internal/personalization"
	"github.com/chris/briefing/internal/reports"
	"github.com/chris/briefing/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeClient struct{}

func (fakeClient) Provider() string { return "fake" }
func (fakeClient) Chat(context.Context, string, []llm.Message, []llm.Tool) (*llm.Response, error) {
	panic("the agent must call through the selector")
}

type fakeSelector struct {
	selectErr error
	respond   func(call int, messages []llm.Message) (*llm.Response, error)

	calls    int
	lastMsgs []llm.Message
	lastDefs []llm.Tool
}

func (f *fakeSelector) GetClientAndModel(context.Context) (llm.Client, string, error) {
	if f.selectErr != nil {
		return nil, "", f.selectErr
	}
	return fakeClient{}, "fake-model", nil
}

func (f *fakeSelector) ChatWithRateLimit(_ context.Context, _ llm.Client, _ string, messages []llm.Message, defs []llm.Tool) (*llm.Response, error) {
	f.calls++
	f.lastMsgs = append([]llm.Message(nil), messages...)
	f.lastDefs = defs
	return f.respond(f.calls, messages)
}

type fakeTool struct {
	name   string
	result any
	panics bool
	calls  int
	args   []map[string]any
}

func (f *fakeTool) Name() string        { return f.name }
func (f *fakeTool) Description() string { return f.name }
func (f *fakeTool) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}
func (f *fakeTool) Invoke(_ context.Context, args map[string]any) (any, error) {
	f.calls++
	f.args = append(f.args, args)
	if f.panics {
		panic("tool exploded")
	}
	return f.result, nil
}

func toolCall(id, name, args string) *llm.Response {
	return &llm.Response{ToolCalls: []llm.ToolCall{{ID: id, Name: name, Arguments: args}}}
}

type fixture struct {
	agent    *Agent
	selector *fakeSelector
	dir      string
}

func newFixture(t *testing.T, prefs personalization.Preferences, ts ...tools.Tool) *fixture {
	t.Helper()
	root := t.TempDir()
	prefsPath := filepath.Join(root, "personalization.json")
	if prefs != nil {
		require.NoError(t, personalization.Save(prefsPath, prefs))
	}
	dir := filepath.Join(root, "reports")
	sel := &fakeSelector{}
	a := New(sel, tools.NewRegistry(ts...), reports.NewStore(dir), prefsPath)
	a.now = func() time.Time { return time.Date(2025, 3, 4, 8, 0, 0, 0, time.Local) }
	return &fixture{agent: a, selector: sel, dir: dir}
}

func readOnlyReport(t *testing.T, dir string) string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	b, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	return string(b)
}

// --- Generate ---

func TestGenerate_NoToolCallsIsSingleModelCall(t *testing.T) {
	f := newFixture(t, nil)
	f.selector.respond = func(int, []llm.Message) (*llm.Response, error) {
		return &llm.Response{Content: "Plain report."}, nil
	}

	r, err := f.agent.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.selector.calls)
	assert.Equal(t, "Plain report.", r.Body)
	assert.Empty(t, f.selector.lastDefs, "empty personalization permits no tools")
	assert.Equal(t, "Report generated at: 2025-03-04 08:00:00.000000\n\nPlain report.", readOnlyReport(t, f.dir))
}

func TestGenerate_WeatherScenario(t *testing.T) {
	weather := &fakeTool{name: "get_weather", result: map[string]any{"temperature": 21.0}}
	menu := &fakeTool{name: "get_unicafe_menu"}
	f := newFixture(t, personalization.Preferences{"include_tools": []any{"get_weather"}, "tone": "cheerful"}, weather, menu)
	f.selector.respond = func(call int, _ []llm.Message) (*llm.Response, error) {
		if call == 1 {
			return toolCall("call_1", "get_weather", `{"city":"Helsinki"}`), nil
		}
		return &llm.Response{Content: "It is warm in Helsinki."}, nil
	}

	_, err := f.agent.Generate(context.Background())
	require.NoError(t, err)

	content := readOnlyReport(t, f.dir)
	assert.Equal(t, 1, strings.Count(content, "Report generated at:"))
	assert.True(t, strings.HasSuffix(content, "\n\nIt is warm in Helsinki."))

	assert.Equal(t, 1, weather.calls)
	assert.Equal(t, "Helsinki", weather.args[0]["city"])
	require.Len(t, f.selector.lastDefs, 1)
	assert.Equal(t, "get_weather", f.selector.lastDefs[0].Name)

	msgs := f.selector.lastMsgs
	require.Len(t, msgs, 4)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[1].Content, "cheerful tone")
	assert.Contains(t, msgs[1].Content, "the current weather in Helsinki")
	assert.Equal(t, llm.RoleAssistant, msgs[2].Role)
	assert.Equal(t, llm.Message{Role: llm.RoleTool, Content: `{"temperature":21}`, ToolCallID: "call_1"}, msgs[3])

	// The stored assistant message carries no empty content field.
	b, err := json.Marshal(msgs[2])
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"content"`)
}

func TestGenerate_StopsAtIterationCap(t *testing.T) {
	joke := &fakeTool{name: "get_dad_joke", result: map[string]string{"joke": "ha"}}
	f := newFixture(t, personalization.Preferences{"include_tools": []any{"get_dad_joke"}}, joke)
	f.selector.respond = func(call int, _ []llm.Message) (*llm.Response, error) {
		return toolCall("c", "get_dad_joke", ""), nil
	}

	r, err := f.agent.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, maxIterations, f.selector.calls)
	assert.Equal(t, maxIterations, joke.calls, "no joke splice after the cap")
	assert.Equal(t, `{"joke":"ha"}`, r.Body)
	assert.Contains(t, readOnlyReport(t, f.dir), "Report generated at:")
}

func TestGenerate_UnpermittedToolFailsGracefully(t *testing.T) {
	weather := &fakeTool{name: "get_weather"}
	menu := &fakeTool{name: "get_unicafe_menu"}
	f := newFixture(t, personalization.Preferences{"include_tools": []any{"get_weather"}}, weather, menu)
	f.selector.respond = func(int, []llm.Message) (*llm.Response, error) {
		return toolCall("c1", "get_unicafe_menu", `{"location":"Kumpula"}`), nil
	}

	r, err := f.agent.Generate(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(r.Body, "Error generating report: "))
	assert.Contains(t, r.Body, tools.ErrToolNotPermitted.Error())
	assert.Zero(t, menu.calls)
	assert.Equal(t, 1, f.selector.calls)
}

func TestGenerate_NoProviderWritesNothing(t *testing.T) {
	f := newFixture(t, nil)
	f.selector.selectErr = llm.ErrNoProvider

	_, err := f.agent.Generate(context.Background())
	assert.ErrorIs(t, err, llm.ErrNoProvider)
	_, statErr := os.Stat(f.dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestGenerate_ModelErrorBecomesErrorReport(t *testing.T) {
	f := newFixture(t, nil)
	f.selector.respond = func(int, []llm.Message) (*llm.Response, error) {
		return nil, &llm.RateLimitError{Model: "m", Err: errors.New("429")}
	}

	r, err := f.agent.Generate(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(r.Body, "Error generating report: rate limit exceeded for m"))
}

func TestGenerate_ToolPanicIsContained(t *testing.T) {
	bad := &fakeTool{name: "get_weather", panics: true}
	f := newFixture(t, personalization.Preferences{"include_tools": []any{"get_weather"}}, bad)
	f.selector.respond = func(int, []llm.Message) (*llm.Response, error) {
		return toolCall("c1", "get_weather", `{}`), nil
	}

	r, err := f.agent.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Error generating report: tool exploded", r.Body)
}

func TestGenerate_SplicesJokeBeforeNews(t *testing.T) {
	joke := &fakeTool{name: "get_dad_joke", result: map[string]string{"joke": "Why did the scarecrow win an award?"}}
	f := newFixture(t, personalization.Preferences{"include_tools": []any{"get_dad_joke"}}, joke)
	f.selector.respond = func(int, []llm.Message) (*llm.Response, error) {
		return &llm.Response{Content: "## Weather\n\nSunny.\n\n## News\n\n- item"}, nil
	}

	r, err := f.agent.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "## Weather\n\nSunny.\n\n## Joke of the day\n\nWhy did the scarecrow win an award?\n\n## News\n\n- item", r.Body)
}

func TestGenerate_PrefetchesNewsIntoPrompt(t *testing.T) {
	news := &fakeTool{name: "get_news", result: map[string]any{"items": []map[string]string{
		{"title": "Headline", "link": "https://yle.fi/a/1"},
		{"title": "No link"},
	}}}
	f := newFixture(t, personalization.Preferences{"include_tools": []any{"get_news"}, "city": "Oulu"}, news)
	f.selector.respond = func(int, []llm.Message) (*llm.Response, error) {
		return &llm.Response{Content: "done"}, nil
	}

	_, err := f.agent.Generate(context.Background())
	require.NoError(t, err)
	prompt := f.selector.lastMsgs[1].Content
	assert.Contains(t, prompt, "Latest news headlines:\n- [Headline](https://yle.fi/a/1)")
	assert.NotContains(t, prompt, "No link")
	assert.Contains(t, prompt, "- city: Oulu")
	assert.Contains(t, prompt, "markdown links")
	require.Len(t, news.args, 1)
	assert.Equal(t, "latest", news.args[0]["category"])
}

// --- helpers ---

func TestSpliceJoke(t *testing.T) {
	tests := []struct {
		name, body, want string
	}{
		{"before news heading", "Intro\n\n### Latest NEWS today\n- a", "Intro\n\n## Joke of the day\n\nj\n\n### Latest NEWS today\n- a"},
		{"appended without heading", "Just weather.\n", "Just weather.\n\n## Joke of the day\n\nj"},
		{"news mentioned in text only", "No news is good news.", "No news is good news.\n\n## Joke of the day\n\nj"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, spliceJoke(tt.body, "j"))
		})
	}
}

func TestLongDate(t *testing.T) {
	assert.Equal(t, "Tuesday 4th of March, 2025", longDate(time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Saturday 1st of March, 2025", longDate(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Wednesday 12th of March, 2025", longDate(time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Saturday 22nd of March, 2025", longDate(time.Date(2025, 3, 22, 0, 0, 0, 0, time.UTC)))
}

func TestJoinTopics(t *testing.T) {
	assert.Equal(t, "a", joinTopics([]string{"a"}))
	assert.Equal(t, "a, b and c", joinTopics([]string{"a", "b", "c"}))
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello world", 5); got != "hello..." {
		t.Errorf("got %q", got)
	}
	if got := truncate("hi", 5); got != "hi" {
		t.Errorf("got %q", got)
	}
	if got := truncate("Hyvää päivää", 4); got != "Hyv..." {
		t.Errorf("got %q", got)
	}
}
