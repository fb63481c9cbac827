package tools

import "github.com/chris/briefing/internal/cache"

// Deps carries what the built-in tools need.
type Deps struct {
	OpenWeatherMapKey string
	TicketmasterKey   string
	Crawl4AIURL       string
	Summarizer        Summarizer
	Cache             *cache.Store
}

// Default returns a registry holding every built-in tool.
func Default(d Deps) *Registry {
	return NewRegistry(
		NewWeather(d.OpenWeatherMapKey, d.Cache),
		NewUnicafe(d.Cache),
		NewElectricity(d.Cache),
		NewNews(d.Cache),
		NewArticle(d.Cache),
		NewLocalEvents(d.TicketmasterKey, d.Cache),
		NewDadJoke(d.Cache),
		NewStadissa(d.Crawl4AIURL, d.Summarizer, d.Cache),
	)
}
