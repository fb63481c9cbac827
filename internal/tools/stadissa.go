package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chris/briefing/internal/cache"
	"github.com/chris/briefing/internal/llm"
	"github.com/tidwall/gjson"
)

const (
	stadissaURL       = "https://www.stadissa.fi"
	maxSummarizedHits = 10
)

var (
	stadissaCategories = []string{"musiikki", "urheilu", "teatteri & taide", "muut menot"}
	stadissaCities     = []string{"helsinki"}
)

// Summarizer runs a single tool-less completion. *llm.Selector satisfies it.
type Summarizer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Stadissa crawls the stadissa.fi event calendar through a Crawl4AI service
// and asks the model for a short summary of what it found.
type Stadissa struct {
	crawlURL   string
	siteURL    string
	summarizer Summarizer
	cache      *cache.Store
	http       *http.Client
	now        func() time.Time
}

func NewStadissa(crawl4aiURL string, summarizer Summarizer, store *cache.Store) *Stadissa {
	return &Stadissa{
		crawlURL:   strings.TrimRight(crawl4aiURL, "/"),
		siteURL:    stadissaURL,
		summarizer: summarizer,
		cache:      store,
		http:       &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
}

func (s *Stadissa) Name() string { return "stadissa_tool" }
func (s *Stadissa) Description() string {
	return "A tool to fetch events from Stadissa.fi based on category and city filters and summarize them."
}

func (s *Stadissa) Parameters() map[string]any {
	return obj(map[string]any{
		"category": enumProp("Filter by event category", stadissaCategories...),
		"city":     enumProp("Filter by city", stadissaCities...),
	})
}

type stadissaEvent struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Venue       string `json:"venue"`
}

func (s *Stadissa) Invoke(ctx context.Context, args map[string]any) (any, error) {
	category, _ := getString(args, "category")
	city, _ := getString(args, "city")
	filters := map[string]any{"category": nilIfEmpty(category), "city": nilIfEmpty(city)}

	return cached(ctx, s.cache, s.Name(), stadissaKey(category, city), func(ctx context.Context) (any, error) {
		events, err := s.events(ctx, category)
		if err != nil {
			logger().Error().Err(err).Msg("fetching stadissa events")
			events = nil
		}
		if len(events) == 0 {
			return map[string]any{
				"status":  "no_events",
				"message": "No events found matching your request",
				"filters": filters,
			}, nil
		}

		summary, err := s.summarize(ctx, events)
		if err != nil {
			return map[string]any{
				"error":   "summarizing events",
				"status":  "error",
				"message": fmt.Sprintf("Error processing events or generating summary: %v", err),
				"filters": filters,
			}, nil
		}
		return map[string]any{
			"status":  "success",
			"summary": summary,
			"count":   len(events),
			"filters": filters,
			"events":  events,
		}, nil
	})
}

func stadissaKey(category, city string) string {
	var parts []string
	if category != "" {
		parts = append(parts, "category_"+category)
	}
	if city != "" {
		parts = append(parts, "city_"+city)
	}
	if len(parts) == 0 {
		return "all_events"
	}
	return strings.Join(parts, "_")
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s *Stadissa) pageURL(category string) string {
	q := url.Values{}
	if category != "" {
		slug := strings.ReplaceAll(strings.ReplaceAll(strings.ToLower(category), " ", "-"), "&", "ja")
		q.Set("category", slug)
	}
	q.Set("date", s.now().Format("2006-01-02"))
	return s.siteURL + "?" + q.Encode()
}

// events blocks until the crawl finishes or ctx is done.
func (s *Stadissa) events(ctx context.Context, category string) ([]stadissaEvent, error) {
	if s.crawlURL == "" {
		return nil, fmt.Errorf("crawl service is not configured")
	}
	page := s.pageURL(category)
	logger().Info().Str("url", page).Msg("crawling stadissa")

	payload, err := json.Marshal(map[string]any{
		"urls":        []string{page},
		"llm_extract": false,
		"markdown":    false,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.crawlURL+"/crawl", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", "qc_cmp_consent=1;")

	body, err := do(s.http, req)
	if err != nil {
		return nil, fmt.Errorf("crawling %s: %w", page, err)
	}
	html := gjson.GetBytes(body, "results.0.html")
	if !html.Exists() {
		return nil, fmt.Errorf("crawl of %s returned no html", page)
	}
	return extractStadissaEvents(html.String(), s.siteURL)
}

func extractStadissaEvents(html, base string) ([]stadissaEvent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, err
	}

	var events []stadissaEvent
	doc.Find("div.calendarevent").Each(func(_ int, c *goquery.Selection) {
		link := c.Find("div.calendareventtitle a").First()
		if link.Length() == 0 {
			return
		}
		ev := stadissaEvent{
			Title:       strings.TrimSpace(link.Text()),
			Description: "See event details for more information.",
			Venue:       "Unknown Venue",
		}
		if href, ok := link.Attr("href"); ok {
			if ref, err := url.Parse(href); err == nil {
				ev.URL = baseURL.ResolveReference(ref).String()
			}
		}
		if v := strings.TrimSpace(c.Find("div.calendareventvenue").First().Text()); v != "" {
			ev.Venue = v
		}
		events = append(events, ev)
	})
	return events, nil
}

func (s *Stadissa) summarize(ctx context.Context, events []stadissaEvent) (string, error) {
	if s.summarizer == nil {
		return "", fmt.Errorf("no summarizer configured")
	}
	if len(events) > maxSummarizedHits {
		events = events[:maxSummarizedHits]
	}
	lines := make([]string, len(events))
	for i, ev := range events {
		lines[i] = fmt.Sprintf("- %s at %s (%s)", ev.Title, ev.Venue, ev.URL)
	}
	return s.summarizer.Complete(ctx, llm.SummarizerPrompt, "Summarize the following events from Stadissa.fi. Focus on key details like event name, venue, and provide a brief overview. If there are many events, group similar ones or highlight the most prominent ones. Events:\n"+strings.Join(lines, "\n"))
}
