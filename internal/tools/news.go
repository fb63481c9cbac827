package tools

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chris/briefing/internal/cache"
	"github.com/mmcdole/gofeed"
)

// Yle RSS feeds by category.
var yleFeeds = map[string]string{
	"latest":   "https://yle.fi/rss/uutiset/tuoreimmat",
	"main":     "https://yle.fi/rss/uutiset/paauutiset",
	"domestic": "https://yle.fi/rss/t/18-34837/fi",
	"foreign":  "https://yle.fi/rss/t/18-34953/fi",
	"economy":  "https://yle.fi/rss/t/18-19274/fi",
	"politics": "https://yle.fi/rss/t/18-38033/fi",
}

var newsCategories = []string{"latest", "main", "domestic", "foreign", "economy", "politics"}

const defaultNewsItems = 10

// News reads an Yle news feed.
type News struct {
	feeds map[string]string
	cache *cache.Store
	now   func() time.Time
}

func NewNews(store *cache.Store) *News {
	return &News{feeds: yleFeeds, cache: store, now: time.Now}
}

func (n *News) Name() string { return "get_news" }
func (n *News) Description() string {
	return "Fetch the newest Yle news headlines for a category. Returns title, link, summary, categories and publication time for each item."
}

func (n *News) Parameters() map[string]any {
	return obj(map[string]any{
		"category":  enumProp("News category (default latest).", newsCategories...),
		"max_items": map[string]any{"type": "integer", "minimum": 1, "maximum": 50, "description": "Maximum number of items to return (default 10)."},
	})
}

type newsItem struct {
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Summary     string     `json:"summary,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Categories  []string   `json:"categories,omitempty"`
}

func (n *News) Invoke(ctx context.Context, args map[string]any) (any, error) {
	category, _ := getString(args, "category")
	if category == "" {
		category = "latest"
	}
	limit := defaultNewsItems
	if v, ok := getInt(args, "max_items"); ok && v > 0 {
		limit = int(v)
	}
	feedURL, ok := n.feeds[category]
	if !ok {
		return errorResult("unknown news category %q", category), nil
	}

	out, err := cached(ctx, n.cache, n.Name(), category, func(ctx context.Context) (any, error) {
		return n.read(ctx, category, feedURL), nil
	})
	if err != nil || isError(out) {
		return out, err
	}
	return limitItems(out, limit), nil
}

// newsFeed is the cached shape; limits are applied on the way out so one
// cache entry serves every max_items.
type newsFeed struct {
	Category  string     `json:"category"`
	Source    string     `json:"source"`
	URL       string     `json:"url"`
	FetchedAt time.Time  `json:"fetched_at"`
	Count     int        `json:"count"`
	Items     []newsItem `json:"items"`
}

func (n *News) read(ctx context.Context, category, feedURL string) any {
	body, err := fetch(ctx, nil, feedURL, http.Header{"Accept": {"application/rss+xml, */*;q=0.8"}})
	if err != nil {
		return errorResult("Error fetching news feed: %v", err)
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return errorResult("Error parsing news feed: %v", err)
	}

	out := newsFeed{Category: category, Source: feed.Title, URL: feedURL, FetchedAt: n.now().UTC(), Items: []newsItem{}}
	for _, it := range feed.Items {
		item := newsItem{
			Title:      strings.TrimSpace(it.Title),
			Link:       strings.TrimSpace(it.Link),
			Summary:    stripHTML(it.Description),
			Categories: it.Categories,
		}
		if it.PublishedParsed != nil {
			t := it.PublishedParsed.UTC()
			item.PublishedAt = &t
		}
		out.Items = append(out.Items, item)
	}
	out.Count = len(out.Items)
	return out
}

func limitItems(v any, limit int) any {
	var feed newsFeed
	switch f := v.(type) {
	case newsFeed:
		feed = f
	default:
		// Cache hits come back as raw JSON.
		if err := decodeInto(v, &feed); err != nil {
			return v
		}
	}
	if len(feed.Items) > limit {
		feed.Items = feed.Items[:limit]
	}
	feed.Count = len(feed.Items)
	return feed
}

func stripHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
