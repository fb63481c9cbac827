package personalization

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingAndInvalid(t *testing.T) {
	dir := t.TempDir()
	p := Load(filepath.Join(dir, "nope.json"))
	assert.Empty(t, p)
	assert.Empty(t, p.IncludeTools())

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`["not", "an", "object"]`), 0o644))
	assert.Empty(t, Load(bad))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "personalization.json")
	require.NoError(t, Save(path, Preferences{"include_tools": []any{"get_weather"}, "tone": "cheerful"}))

	p := Load(path)
	assert.Equal(t, []string{"get_weather"}, p.IncludeTools())
	assert.Equal(t, "cheerful", p.Tone())
}

func TestIncludeToolsRequiresList(t *testing.T) {
	assert.Empty(t, Preferences{"include_tools": "get_weather"}.IncludeTools())
	assert.Equal(t, []string{"a", "b"}, Preferences{"include_tools": []any{"a", 3.0, "", "b"}}.IncludeTools())
}

func TestContentLines(t *testing.T) {
	p := Preferences{
		"include_tools": []any{"get_weather"},
		"tone":          "cheerful",
		"city":          "Helsinki",
		"interests":     []any{"music", "art"},
		"age":           31.0,
	}
	assert.Equal(t, []string{
		"age: 31",
		"city: Helsinki",
		"interests: music, art",
		"tone: cheerful",
	}, p.ContentLines())
	assert.Equal(t, "Helsinki", p.Value("city"))
	assert.Equal(t, "music, art", p.Value("interests"))
	assert.Equal(t, "", p.Value("missing"))
}

func TestInstructions(t *testing.T) {
	p := Preferences{"tone": "cheerful"}
	instr := p.Instructions([]string{"get_weather"})
	require.Len(t, instr, 2)
	assert.Contains(t, instr[0], "cheerful tone")
	assert.Contains(t, instr[1], "whole numbers")

	instr = Preferences{}.Instructions([]string{"get_news", "get_electricity_prices"})
	require.Len(t, instr, 2)
	assert.Contains(t, instr[0], "markdown links")
	assert.Contains(t, instr[1], "cents per kilowatt hour")

	assert.Empty(t, Preferences{}.Instructions(nil))
}

func TestPromptSection(t *testing.T) {
	assert.Equal(t, "", Preferences{}.PromptSection(nil))

	got := Preferences{"include_tools": []any{"get_weather"}, "tone": "cheerful"}.PromptSection([]string{"get_weather"})
	assert.Contains(t, got, "Content preferences:\n- tone: cheerful\n\nFormatting instructions:\n- Write the whole report in a cheerful tone")
	assert.NotContains(t, got, "include_tools")
}
