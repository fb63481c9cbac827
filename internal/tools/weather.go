package tools

import (
	"context"
	"net/url"
	"strings"

	"github.com/chris/briefing/internal/cache"
	"github.com/tidwall/gjson"
)

const openWeatherMapURL = "https://api.openweathermap.org/data/2.5/weather"

// Weather reports current conditions from OpenWeatherMap.
type Weather struct {
	apiKey  string
	baseURL string
	cache   *cache.Store
}

func NewWeather(apiKey string, store *cache.Store) *Weather {
	return &Weather{apiKey: apiKey, baseURL: openWeatherMapURL, cache: store}
}

func (w *Weather) Name() string        { return "get_weather" }
func (w *Weather) Description() string { return "Get current weather information for a specified city." }

func (w *Weather) Parameters() map[string]any {
	return objReq(map[string]any{
		"city": prop("string", "The name of the city to get the weather for."),
	}, "city")
}

func (w *Weather) Invoke(ctx context.Context, args map[string]any) (any, error) {
	city, _ := getString(args, "city")
	city = strings.TrimSpace(city)
	if city == "" {
		return errorResult("city is required"), nil
	}
	return cached(ctx, w.cache, w.Name(), city, func(ctx context.Context) (any, error) {
		if w.apiKey == "" {
			return errorResult("weather service is not configured (OPENWEATHERMAP_KEY)"), nil
		}
		q := url.Values{"q": {city}, "appid": {w.apiKey}, "units": {"metric"}}
		body, err := fetch(ctx, nil, w.baseURL+"?"+q.Encode(), nil)
		if err != nil {
			return errorResult("Error fetching weather data: %v", err), nil
		}
		return weatherSummary(body), nil
	})
}

func weatherSummary(body []byte) map[string]any {
	r := gjson.ParseBytes(body)
	return map[string]any{
		"city":        r.Get("name").String(),
		"country":     r.Get("sys.country").String(),
		"conditions":  r.Get("weather.0.description").String(),
		"temperature": r.Get("main.temp").Float(),
		"feels_like":  r.Get("main.feels_like").Float(),
		"temp_min":    r.Get("main.temp_min").Float(),
		"temp_max":    r.Get("main.temp_max").Float(),
		"humidity":    r.Get("main.humidity").Int(),
		"wind_speed":  r.Get("wind.speed").Float(),
		"cloudiness":  r.Get("clouds.all").Int(),
		"units":       "metric",
	}
}
