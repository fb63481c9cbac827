package tools

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pricesBody = `{"prices":[
 {"price":7.456,"startDate":"2025-03-04T11:00:00.000Z","endDate":"2025-03-04T12:00:00.000Z"},
 {"price":5.3,"startDate":"2025-03-04T10:00:00.000Z","endDate":"2025-03-04T11:00:00.000Z"},
 {"price":9.9,"startDate":"2025-03-04T10:15:00.000Z","endDate":"2025-03-04T10:30:00.000Z"},
 {"price":1.0,"startDate":"2025-03-04T08:00:00.000Z","endDate":"2025-03-04T09:00:00.000Z"}
]}`

func TestElectricityUpcomingFullHours(t *testing.T) {
	srv, _ := countingServer(t, http.StatusOK, pricesBody, nil)
	e := NewElectricity(newCache(t))
	e.url = srv.URL
	e.now = func() time.Time { return time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC) }

	out, err := e.Invoke(context.Background(), nil)
	require.NoError(t, err)
	got := out.(map[string]any)
	assert.Equal(t, "Europe/Helsinki", got["timezone"])
	assert.Equal(t, []hourPrice{
		{Date: "2025-03-04", Hour: "12:00", Price: "5.3 c/kWh"},
		{Date: "2025-03-04", Hour: "13:00", Price: "7.46 c/kWh"},
	}, got["upcoming_hours"])
}

func TestElectricityNoData(t *testing.T) {
	srv, _ := countingServer(t, http.StatusOK, `{"prices":[]}`, nil)
	e := NewElectricity(newCache(t))
	e.url = srv.URL
	out, err := e.Invoke(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, errorResult("No price data returned from API"), out)
}
