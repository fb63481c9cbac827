package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/chris/briefing/internal/cache"
	"github.com/tidwall/gjson"
)

const unicafeURL = "https://unicafe.fi/wp-json/swiss/v1/restaurants/?lang=en"

var unicafeLocations = []string{"Keskusta", "Kumpula", "Meilahti", "Viikki"}

// Unicafe lists today's lunch menus for University of Helsinki restaurants.
type Unicafe struct {
	url   string
	cache *cache.Store
	now   func() time.Time
}

func NewUnicafe(store *cache.Store) *Unicafe {
	return &Unicafe{url: unicafeURL, cache: store, now: time.Now}
}

func (u *Unicafe) Name() string { return "get_unicafe_menu" }
func (u *Unicafe) Description() string {
	return "Get the current lunch menu for a specified Unicafe location in Helsinki."
}

func (u *Unicafe) Parameters() map[string]any {
	return objReq(map[string]any{
		"location": enumProp("The name of the Unicafe location. Options are: Keskusta, Kumpula, Meilahti, Viikki.", unicafeLocations...),
	}, "location")
}

type unicafeRestaurant struct {
	Name          string          `json:"name"`
	VisitingHours json.RawMessage `json:"visitingHours,omitempty"`
	Menus         []any           `json:"menus"`
}

func (u *Unicafe) Invoke(ctx context.Context, args map[string]any) (any, error) {
	location, _ := getString(args, "location")
	return cached(ctx, u.cache, u.Name(), location, func(ctx context.Context) (any, error) {
		body, err := fetch(ctx, nil, u.url, nil)
		if err != nil {
			return errorResult("Error fetching unicafe menu data: %v", err), nil
		}
		if !gjson.ValidBytes(body) {
			return errorResult("unicafe returned invalid JSON"), nil
		}
		return filterMenus(body, location, u.now().Format("Mon 02.01.")), nil
	})
}

// filterMenus keeps restaurants at location and their menus for day.
func filterMenus(body []byte, location, day string) []unicafeRestaurant {
	restaurants := []unicafeRestaurant{}
	gjson.ParseBytes(body).ForEach(func(_, r gjson.Result) bool {
		if r.Get("location.0.name").String() != location {
			return true
		}
		menuData := r.Get("menuData")
		restaurant := unicafeRestaurant{Name: menuData.Get("name").String(), Menus: []any{}}
		if vh := menuData.Get("visitingHours"); vh.Exists() {
			restaurant.VisitingHours = json.RawMessage(vh.Raw)
		}
		menuData.Get("menus").ForEach(func(_, m gjson.Result) bool {
			if m.Get("date").String() == day {
				restaurant.Menus = append(restaurant.Menus, m.Value())
			}
			return true
		})
		restaurants = append(restaurants, restaurant)
		return true
	})
	return restaurants
}
