package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chris/briefing/internal/personalization"
	"github.com/chris/briefing/internal/tools"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"github.com/tidwall/gjson"
)

const (
	defaultCity     = "Helsinki"
	defaultUnicafe  = "Kumpula"
	prefetchedNews  = 5
	prefetchTimeout = 20 * time.Second
)

// userPrompt builds the report request, including pre-fetched context for
// permitted tools and the personalization section.
func (a *Agent) userPrompt(ctx context.Context, log zerolog.Logger, prefs personalization.Preferences, permitted *tools.Registry) string {
	now := a.now()
	city := orDefault(prefs.Value("city"), defaultCity)
	lunch := orDefault(prefs.Value("unicafe_location"), defaultUnicafe)

	var topics []string
	has := func(name string) bool { _, ok := permitted.Get(name); return ok }
	if has("get_weather") {
		topics = append(topics, "the current weather in "+city)
	}
	if has("get_unicafe_menu") {
		topics = append(topics, "the lunch menu at Unicafe "+lunch)
	}
	if has("get_electricity_prices") {
		topics = append(topics, "the most important electricity prices")
	}
	if has("get_news") {
		topics = append(topics, "a summary of the news")
	}
	if has("stadissa_tool") || has("local_events_tool") {
		topics = append(topics, "notable events today")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "It is %s. ", longDate(now))
	if len(topics) == 0 {
		b.WriteString("Generate a concise daily report.")
	} else {
		fmt.Fprintf(&b, "Generate a concise report about %s.", joinTopics(topics))
	}

	news, events := a.prefetch(ctx, log, prefs, permitted, city)
	if news != "" {
		b.WriteString("\n\nLatest news headlines:\n" + news)
	}
	if events != "" {
		b.WriteString("\n\nEvents:\n" + events)
	}
	if section := prefs.PromptSection(permitted.Names()); section != "" {
		b.WriteString("\n\n" + section)
	}
	return b.String()
}

// prefetch fetches news links and an events digest directly, without the
// model, so the first model call already sees them. Failures only skip the
// block.
func (a *Agent) prefetch(ctx context.Context, log zerolog.Logger, prefs personalization.Preferences, permitted *tools.Registry, city string) (news, events string) {
	ctx, cancel := context.WithTimeout(ctx, prefetchTimeout)
	defer cancel()

	var wg conc.WaitGroup
	if _, ok := permitted.Get("get_news"); ok {
		wg.Go(func() {
			out, err := permitted.Invoke(ctx, "get_news", fmt.Sprintf(`{"category":"latest","max_items":%d}`, prefetchedNews))
			if err != nil || gjson.Get(out, "error").Exists() {
				log.Warn().Err(err).Msg("prefetching news")
				return
			}
			news = formatNews(out)
		})
	}
	if _, ok := permitted.Get("stadissa_tool"); ok {
		wg.Go(func() {
			out, err := permitted.Invoke(ctx, "stadissa_tool", `{"city":"helsinki"}`)
			if err != nil {
				log.Warn().Err(err).Msg("prefetching stadissa events")
				return
			}
			events = gjson.Get(out, "summary").String()
		})
	} else if _, ok := permitted.Get("local_events_tool"); ok {
		wg.Go(func() {
			args, _ := json.Marshal(map[string]any{"city": city, "interests": prefs.Value("interests"), "max_events": 5})
			out, err := permitted.Invoke(ctx, "local_events_tool", string(args))
			if err != nil {
				log.Warn().Err(err).Msg("prefetching local events")
				return
			}
			events = formatEvents(out)
		})
	}
	wg.Wait()
	return news, events
}

func formatNews(out string) string {
	var lines []string
	gjson.Get(out, "items").ForEach(func(_, item gjson.Result) bool {
		title, link := item.Get("title").String(), item.Get("link").String()
		if title != "" && link != "" {
			lines = append(lines, fmt.Sprintf("- [%s](%s)", title, link))
		}
		return true
	})
	return strings.Join(lines, "\n")
}

func formatEvents(out string) string {
	var lines []string
	gjson.Get(out, "events").ForEach(func(_, ev gjson.Result) bool {
		lines = append(lines, fmt.Sprintf("- %s at %s, %s %s",
			ev.Get("name").String(), ev.Get("venue").String(), ev.Get("date").String(), ev.Get("time").String()))
		return true
	})
	return strings.Join(lines, "\n")
}

// longDate renders e.g. "Tuesday 4th of March, 2025".
func longDate(t time.Time) string {
	return fmt.Sprintf("%s %d%s of %s, %d", t.Weekday(), t.Day(), ordinal(t.Day()), t.Month(), t.Year())
}

func ordinal(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}

func joinTopics(topics []string) string {
	if len(topics) == 1 {
		return topics[0]
	}
	return strings.Join(topics[:len(topics)-1], ", ") + " and " + topics[len(topics)-1]
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
