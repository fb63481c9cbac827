package tools

import (
	"context"
	"math"
	"sort"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/chris/briefing/internal/cache"
	"github.com/tidwall/gjson"
)

const porssisahkoURL = "https://api.porssisahko.net/v1/latest-prices.json"

var helsinki = mustLoadLocation("Europe/Helsinki")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// Electricity reports upcoming Finnish spot prices by the hour.
type Electricity struct {
	url   string
	cache *cache.Store
	now   func() time.Time
}

func NewElectricity(store *cache.Store) *Electricity {
	return &Electricity{url: porssisahkoURL, cache: store, now: time.Now}
}

func (e *Electricity) Name() string        { return "get_electricity_prices" }
func (e *Electricity) Description() string { return "Get upcoming hourly electricity spot prices." }
func (e *Electricity) Parameters() map[string]any {
	return obj(nil)
}

type hourPrice struct {
	Date  string `json:"date"`
	Hour  string `json:"hour"`
	Price string `json:"price"`
}

func (e *Electricity) Invoke(ctx context.Context, _ map[string]any) (any, error) {
	return cached(ctx, e.cache, e.Name(), "", func(ctx context.Context) (any, error) {
		body, err := fetch(ctx, nil, e.url, nil)
		if err != nil {
			return errorResult("Failed to fetch data: %v", err), nil
		}
		prices := gjson.GetBytes(body, "prices").Array()
		if len(prices) == 0 {
			return errorResult("No price data returned from API"), nil
		}

		now := e.now().In(helsinki)
		upcoming := []hourPrice{}
		for _, p := range prices {
			start, err1 := time.Parse(time.RFC3339, p.Get("startDate").String())
			end, err2 := time.Parse(time.RFC3339, p.Get("endDate").String())
			if err1 != nil || err2 != nil {
				continue
			}
			start, end = start.In(helsinki), end.In(helsinki)
			if !end.After(now) || start.Minute() != 0 {
				continue
			}
			cents := math.Round(p.Get("price").Float()*100) / 100
			upcoming = append(upcoming, hourPrice{
				Date:  start.Format("2006-01-02"),
				Hour:  start.Format("15:00"),
				Price: strconv.FormatFloat(cents, 'f', -1, 64) + " c/kWh",
			})
		}
		sort.SliceStable(upcoming, func(i, j int) bool {
			return upcoming[i].Date+upcoming[i].Hour < upcoming[j].Date+upcoming[j].Hour
		})
		if len(upcoming) == 0 {
			return errorResult("No upcoming full-hour price data available"), nil
		}
		return map[string]any{"timezone": helsinki.String(), "upcoming_hours": upcoming}, nil
	})
}
