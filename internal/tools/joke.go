package tools

import (
	"context"
	"net/http"

	"github.com/chris/briefing/internal/cache"
	"github.com/tidwall/gjson"
)

const dadJokeURL = "https://icanhazdadjoke.com/"

type DadJoke struct {
	url   string
	cache *cache.Store
}

func NewDadJoke(store *cache.Store) *DadJoke {
	return &DadJoke{url: dadJokeURL, cache: store}
}

func (d *DadJoke) Name() string               { return "get_dad_joke" }
func (d *DadJoke) Description() string        { return "Fetch a random dad joke from icanhazdadjoke API." }
func (d *DadJoke) Parameters() map[string]any { return obj(nil) }

func (d *DadJoke) Invoke(ctx context.Context, _ map[string]any) (any, error) {
	return cached(ctx, d.cache, d.Name(), "", func(ctx context.Context) (any, error) {
		body, err := fetch(ctx, nil, d.url, http.Header{"Accept": {"application/json"}})
		if err != nil {
			return errorResult("Error fetching dad joke: %v", err), nil
		}
		joke := gjson.GetBytes(body, "joke").String()
		if joke == "" {
			joke = "Couldn't fetch a dad joke."
		}
		return map[string]string{"joke": joke}, nil
	})
}
