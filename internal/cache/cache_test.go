package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestStore(t *testing.T) (*Store, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2025, 3, 4, 8, 0, 0, 0, time.UTC)}
	s := New(t.TempDir(), DefaultTTL)
	s.now = c.now
	return s, c
}

func TestGetMissingFile(t *testing.T) {
	s, _ := newTestStore(t)
	_, ok := s.Get("get_weather", "Helsinki")
	assert.False(t, ok)
}

func TestSetThenGetWithinTTL(t *testing.T) {
	s, c := newTestStore(t)
	require.NoError(t, s.Set("get_weather", map[string]any{"temp": 3.5}, "Helsinki"))

	c.t = c.t.Add(59 * time.Second)
	v, ok := s.Get("get_weather", "Helsinki")
	require.True(t, ok)
	assert.JSONEq(t, `{"temp":3.5}`, string(v))

	_, ok = s.Get("get_weather", "Espoo")
	assert.False(t, ok)
}

func TestExpiresAtTTL(t *testing.T) {
	s, c := newTestStore(t)
	require.NoError(t, s.Set("get_dad_joke", map[string]string{"joke": "x"}, ""))

	c.t = c.t.Add(DefaultTTL)
	_, ok := s.Get("get_dad_joke", "")
	assert.False(t, ok)
}

func TestSharedTimestampRefreshesAllKeys(t *testing.T) {
	s, c := newTestStore(t)
	require.NoError(t, s.Set("get_unicafe_menu", []string{"soup"}, "Kumpula"))

	c.t = c.t.Add(50 * time.Second)
	require.NoError(t, s.Set("get_unicafe_menu", []string{"pasta"}, "Viikki"))

	// 100s after the first write, but the file was stamped again at 50s.
	c.t = c.t.Add(50 * time.Second)
	v, ok := s.Get("get_unicafe_menu", "Kumpula")
	require.True(t, ok)
	assert.JSONEq(t, `["soup"]`, string(v))
}

func TestWholeBlob(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Set("get_electricity_prices", []float64{1.2, 3.4}, ""))
	v, ok := s.Get("get_electricity_prices", "")
	require.True(t, ok)
	assert.JSONEq(t, `[1.2,3.4]`, string(v))
}

func TestKeyedSetReplacesNonObjectData(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Set("get_news", []string{"a"}, ""))
	require.NoError(t, s.Set("get_news", "fresh", "main"))

	v, ok := s.Get("get_news", "")
	require.True(t, ok)
	assert.JSONEq(t, `{"main":"fresh"}`, string(v))
}

func TestFileLayout(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Set("get_weather", map[string]int{"temp": 1}, "Oulu"))

	b, err := os.ReadFile(filepath.Join(s.dir, "get_weather_cache.json"))
	require.NoError(t, err)
	var raw struct {
		Timestamp string                     `json:"timestamp"`
		Data      map[string]json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "2025-03-04T08:00:00Z", raw.Timestamp)
	assert.Contains(t, raw.Data, "Oulu")
}

func TestCorruptFileIsMiss(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, os.WriteFile(s.path("get_weather"), []byte("{not json"), 0o644))
	_, ok := s.Get("get_weather", "Helsinki")
	assert.False(t, ok)

	require.NoError(t, s.Set("get_weather", 1, "Helsinki"))
	v, ok := s.Get("get_weather", "Helsinki")
	require.True(t, ok)
	assert.Equal(t, "1", string(v))
}
