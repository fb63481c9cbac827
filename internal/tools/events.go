package tools

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/chris/briefing/internal/cache"
	"github.com/tidwall/gjson"
)

const ticketmasterURL = "https://app.ticketmaster.com/discovery/v2/events.json"

// Ticketmaster segment ids by interest.
var interestSegments = map[string]string{
	"music":   "KZFzniwnSyZfZ7v7nJ",
	"sports":  "KZFzniwnSyZfZ7v7nE",
	"sport":   "KZFzniwnSyZfZ7v7nE",
	"art":     "KZFzniwnSyZfZ7v7na",
	"arts":    "KZFzniwnSyZfZ7v7na",
	"theatre": "KZFzniwnSyZfZ7v7na",
	"theater": "KZFzniwnSyZfZ7v7na",
	"film":    "KZFzniwnSyZfZ7v7nn",
	"movie":   "KZFzniwnSyZfZ7v7nn",
	"movies":  "KZFzniwnSyZfZ7v7nn",
	"family":  "KZFzniwnSyZfZ7v7n1",
}

// LocalEvents finds upcoming events in a Finnish city through the
// Ticketmaster discovery API.
type LocalEvents struct {
	apiKey  string
	baseURL string
	cache   *cache.Store
	now     func() time.Time
}

func NewLocalEvents(apiKey string, store *cache.Store) *LocalEvents {
	return &LocalEvents{apiKey: apiKey, baseURL: ticketmasterURL, cache: store, now: time.Now}
}

func (l *LocalEvents) Name() string { return "local_events_tool" }
func (l *LocalEvents) Description() string {
	return "Finds local events based on a city and optional interests. Uses personalization for defaults. ALWAYS returns a list of events in the 'events' field."
}

func (l *LocalEvents) Parameters() map[string]any {
	return objReq(map[string]any{
		"city":       prop("string", "The city to search for events, e.g., 'Helsinki'. This should be based on the user's 'city' personalization."),
		"interests":  listProp("Optional: Interests to filter by, as a list or a comma-separated string (e.g., 'music,art,sports'). This should be based on the user's 'interests' personalization."),
		"max_events": map[string]any{"type": "integer", "minimum": 1, "maximum": 100, "description": "Maximum number of events to return (default: 10)"},
	}, "city")
}

type event struct {
	Name     string `json:"name"`
	Venue    string `json:"venue"`
	Category string `json:"category"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Price    string `json:"price"`
	URL      string `json:"url"`
	Image    string `json:"image,omitempty"`
}

func (l *LocalEvents) Invoke(ctx context.Context, args map[string]any) (any, error) {
	city, _ := getString(args, "city")
	city = strings.TrimSpace(city)
	interests := getList(args, "interests")
	maxEvents := int64(10)
	if v, ok := getInt(args, "max_events"); ok && v > 0 {
		maxEvents = v
	}
	if city == "" {
		return map[string]any{"error": "City parameter is required.", "events": []event{}, "summary": "Error: No city specified"}, nil
	}

	key := fmt.Sprintf("%s|%s|%d", strings.ToLower(city), strings.Join(interests, ","), maxEvents)
	return cached(ctx, l.cache, l.Name(), key, func(ctx context.Context) (any, error) {
		if l.apiKey == "" {
			return errorResult("events service is not configured (TICKETMASTER_API_KEY)"), nil
		}
		q := url.Values{
			"apikey":      {l.apiKey},
			"city":        {city},
			"countryCode": {"FI"},
			"size":        {strconv.FormatInt(maxEvents, 10)},
			"sort":        {"date,asc"},
			"locale":      {"*"},
		}
		if segments := segmentIDs(interests); segments != "" {
			q.Set("segmentId", segments)
		}
		body, err := fetch(ctx, nil, l.baseURL+"?"+q.Encode(), nil)
		if err != nil {
			return errorResult("Could not fetch events for %s: %v", city, err), nil
		}
		return l.summarize(city, interests, gjson.ParseBytes(body)), nil
	})
}

func segmentIDs(interests []string) string {
	var ids []string
	seen := map[string]bool{}
	for _, i := range interests {
		if id, ok := interestSegments[i]; ok && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return strings.Join(ids, ",")
}

func (l *LocalEvents) summarize(city string, interests []string, data gjson.Result) map[string]any {
	events := []event{}
	data.Get("_embedded.events").ForEach(func(_, e gjson.Result) bool {
		ev := event{
			Name:     orDefault(e.Get("name").String(), "Unknown Event"),
			Venue:    orDefault(e.Get("_embedded.venues.0.name").String(), "TBA"),
			Category: orDefault(e.Get("classifications.0.segment.name").String(), orDefault(e.Get("classifications.0.genre.name").String(), "General")),
			Date:     orDefault(e.Get("dates.start.localDate").String(), "TBA"),
			Time:     orDefault(e.Get("dates.start.localTime").String(), "TBA"),
			Price:    priceInfo(e.Get("priceRanges.0")),
			URL:      e.Get("url").String(),
			Image:    e.Get("images.0.url").String(),
		}
		events = append(events, ev)
		return true
	})

	summary := fmt.Sprintf("Found %d events in %s", len(events), city)
	if len(events) == 0 {
		summary = "No events found in " + city
	}
	if len(interests) > 0 {
		summary += " matching interests: " + strings.Join(interests, ", ")
	}
	if interests == nil {
		interests = []string{}
	}
	return map[string]any{
		"city":             city,
		"interests_filter": interests,
		"summary":          summary,
		"events":           events,
		"events_count":     len(events),
		"total_found":      data.Get("page.totalElements").Int(),
		"timestamp":        l.now().Format(time.RFC3339),
	}
}

func priceInfo(r gjson.Result) string {
	currency := orDefault(r.Get("currency").String(), "EUR")
	lo, hi := r.Get("min").Float(), r.Get("max").Float()
	switch {
	case lo > 0 && hi > 0:
		return fmt.Sprintf("%g-%g %s", lo, hi, currency)
	case lo > 0:
		return fmt.Sprintf("From %g %s", lo, currency)
	}
	return "See website"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
