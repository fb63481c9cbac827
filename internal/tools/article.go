package tools

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/chris/briefing/internal/cache"
)

const maxArticleChars = 6000

// Article fetches a news article and returns its readable text.
type Article struct {
	cache *cache.Store
}

func NewArticle(store *cache.Store) *Article {
	return &Article{cache: store}
}

func (a *Article) Name() string { return "get_news_article" }
func (a *Article) Description() string {
	return "Fetch a news article by URL and return its title and body text. Use it to read more about a headline from get_news."
}

func (a *Article) Parameters() map[string]any {
	return objReq(map[string]any{
		"url": prop("string", "Absolute http(s) URL of the article."),
	}, "url")
}

func (a *Article) Invoke(ctx context.Context, args map[string]any) (any, error) {
	raw, _ := getString(args, "url")
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errorResult("url must be an absolute http(s) URL"), nil
	}
	return cached(ctx, a.cache, a.Name(), u.String(), func(ctx context.Context) (any, error) {
		body, err := fetch(ctx, nil, u.String(), nil)
		if err != nil {
			return errorResult("Error fetching article: %v", err), nil
		}
		title, text, err := extractArticle(body)
		if err != nil {
			return errorResult("Error parsing article: %v", err), nil
		}
		if text == "" {
			return errorResult("no article text found"), nil
		}
		return map[string]any{"url": u.String(), "title": title, "text": text}, nil
	})
}

func extractArticle(body []byte) (title, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}

	title, _ = doc.Find(`meta[property="og:title"]`).Attr("content")
	if title == "" {
		title = doc.Find("h1").First().Text()
	}
	if title == "" {
		title = doc.Find("title").First().Text()
	}

	paragraphs := doc.Find("article p")
	if paragraphs.Length() == 0 {
		paragraphs = doc.Find("p")
	}
	var parts []string
	paragraphs.Each(func(_ int, s *goquery.Selection) {
		if p := strings.Join(strings.Fields(s.Text()), " "); p != "" {
			parts = append(parts, p)
		}
	})
	text = strings.Join(parts, "\n\n")
	if len(text) > maxArticleChars {
		text = truncate(text, maxArticleChars)
	}
	return strings.TrimSpace(title), text, nil
}
