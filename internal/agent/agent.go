// Package agent runs the bounded tool-calling loop that turns model calls
// and tool results into a stored report.
package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chris/briefing/internal/llm"
	"github.com/chris/briefing/internal/logging"
	"github.com/chris/briefing/internal/personalization"
	"github.com/chris/briefing/internal/reports"
	"github.com/chris/briefing/internal/tools"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const maxIterations = 10

// ModelSelector chooses the client and model for each call and applies the
// rate-limit policy. *llm.Selector implements it.
type ModelSelector interface {
	GetClientAndModel(ctx context.Context) (llm.Client, string, error)
	ChatWithRateLimit(ctx context.Context, client llm.Client, model string, messages []llm.Message, tools []llm.Tool) (*llm.Response, error)
}

type Agent struct {
	models    ModelSelector
	registry  *tools.Registry
	reports   *reports.Store
	prefsPath string
	now       func() time.Time
	log       zerolog.Logger
}

func New(models ModelSelector, registry *tools.Registry, store *reports.Store, prefsPath string) *Agent {
	return &Agent{
		models:    models,
		registry:  registry,
		reports:   store,
		prefsPath: prefsPath,
		now:       time.Now,
		log:       logging.For("agent"),
	}
}

// Generate produces and stores one report. Only a model configuration error
// is returned before anything is written; failures inside the loop become an
// "Error generating report" body instead.
func (a *Agent) Generate(ctx context.Context) (*reports.Report, error) {
	log := a.log.With().Str("run_id", uuid.NewString()).Logger()

	prefs := personalization.Load(a.prefsPath)
	permitted := a.registry.Subset(prefs.IncludeTools())
	log.Info().Strs("tools", permitted.Names()).Msg("generating report")

	if _, _, err := a.models.GetClientAndModel(ctx); err != nil {
		return nil, fmt.Errorf("selecting model: %w", err)
	}

	body, ok := a.run(ctx, log, prefs, permitted)
	if ok {
		body = a.addJoke(ctx, log, permitted, body)
	}

	r, err := a.reports.Write(a.now(), body)
	if err != nil {
		return nil, err
	}
	log.Info().Str("report", r.Name).Bool("ok", ok).Msg("report written")
	return r, nil
}

// run drives the conversation. ok is false when the body is an error
// message or the iteration cap cut the loop short.
func (a *Agent) run(ctx context.Context, log zerolog.Logger, prefs personalization.Preferences, permitted *tools.Registry) (body string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("report loop panicked")
			body, ok = errorBody(fmt.Errorf("%v", r)), false
		}
	}()

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: llm.SystemPrompt},
		{Role: llm.RoleUser, Content: a.userPrompt(ctx, log, prefs, permitted)},
	}
	defs := permitted.Definitions()

	for i := 1; i <= maxIterations; i++ {
		client, model, err := a.models.GetClientAndModel(ctx)
		if err != nil {
			return errorBody(err), false
		}
		size := llm.MeasurePrompt(messages, defs)
		log.Debug().Int("iteration", i).Str("provider", client.Provider()).Str("model", model).
			Int("est_tokens", size.Total()).Int("tool_result_tokens", size.ToolResults).
			Msg("calling model")

		resp, err := a.models.ChatWithRateLimit(ctx, client, model, messages, defs)
		if err != nil {
			log.Error().Err(err).Int("iteration", i).Msg("model call failed")
			return errorBody(err), false
		}
		messages = append(messages, resp.Message())

		if len(resp.ToolCalls) == 0 {
			log.Info().Int("iterations", i).Msg("model finished")
			return resp.Content, true
		}

		for _, tc := range resp.ToolCalls {
			result, err := permitted.Invoke(ctx, tc.Name, tc.Arguments)
			if err != nil {
				log.Error().Err(err).Str("tool", tc.Name).Msg("tool call failed")
				return errorBody(err), false
			}
			log.Info().Str("tool", tc.Name).Str("args", tc.Arguments).Str("result", truncate(result, 200)).Msg("tool call")
			messages = append(messages, llm.Message{Role: llm.RoleTool, Content: result, ToolCallID: tc.ID})
		}
	}

	log.Warn().Int("max_iterations", maxIterations).Msg("maximum iterations reached")
	return messages[len(messages)-1].Content, false
}

func errorBody(err error) string {
	return "Error generating report: " + err.Error()
}

var newsHeading = regexp.MustCompile(`(?im)^#{1,6}[^\n]*news`)

// addJoke fetches a joke through the permitted registry and splices it in
// before the news section, or at the end.
func (a *Agent) addJoke(ctx context.Context, log zerolog.Logger, permitted *tools.Registry, body string) string {
	if _, ok := permitted.Get("get_dad_joke"); !ok {
		return body
	}
	out, err := permitted.Invoke(ctx, "get_dad_joke", "{}")
	if err != nil {
		log.Warn().Err(err).Msg("fetching joke")
		return body
	}
	joke := strings.TrimSpace(gjson.Get(out, "joke").String())
	if joke == "" {
		return body
	}
	return spliceJoke(body, joke)
}

func spliceJoke(body, joke string) string {
	section := "## Joke of the day\n\n" + joke + "\n\n"
	if loc := newsHeading.FindStringIndex(body); loc != nil {
		return body[:loc[0]] + section + body[loc[0]:]
	}
	return strings.TrimRight(body, "\n") + "\n\n" + strings.TrimRight(section, "\n")
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
