// Package personalization reads the user's preferences document and turns
// it into the permitted tool set and prompt instructions for a report.
package personalization

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chris/briefing/internal/logging"
)

const (
	KeyIncludeTools = "include_tools"
	KeyTone         = "tone"
)

// Preferences is a flat JSON object. Only include_tools and tone carry
// meaning; other keys are passed to the model as free-text preferences.
type Preferences map[string]any

// Load reads path. A missing, unreadable or invalid document yields empty
// preferences, which permit no tools.
func Load(path string) Preferences {
	log := logging.For("personalization")
	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("reading personalization")
		}
		return Preferences{}
	}
	var p Preferences
	if err := json.Unmarshal(b, &p); err != nil || p == nil {
		log.Warn().Err(err).Str("path", path).Msg("personalization is not a JSON object, ignoring")
		return Preferences{}
	}
	return p
}

// Save writes prefs to path as indented JSON, creating the directory.
func Save(path string, prefs Preferences) error {
	if prefs == nil {
		prefs = Preferences{}
	}
	b, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding personalization: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating personalization dir: %w", err)
		}
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing personalization: %w", err)
	}
	return nil
}

// IncludeTools returns the permitted tool names. Anything but a list of
// strings permits nothing.
func (p Preferences) IncludeTools() []string {
	list, ok := p[KeyIncludeTools].([]any)
	if !ok {
		return []string{}
	}
	names := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok && s != "" {
			names = append(names, s)
		}
	}
	return names
}

func (p Preferences) Tone() string {
	s, _ := p[KeyTone].(string)
	return strings.TrimSpace(s)
}

// ContentLines renders every key except include_tools as "key: value",
// sorted by key. Lists are comma-joined.
func (p Preferences) ContentLines() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		if k != KeyIncludeTools {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", k, formatValue(p[k])))
	}
	return lines
}

// Value renders a free-text key the same way ContentLines does.
func (p Preferences) Value(key string) string {
	v, ok := p[key]
	if !ok {
		return ""
	}
	return strings.TrimSpace(formatValue(v))
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			parts = append(parts, formatValue(item))
		}
		return strings.Join(parts, ", ")
	case float64:
		return fmt.Sprintf("%g", x)
	case bool:
		return fmt.Sprintf("%t", x)
	}
	b, _ := json.Marshal(v) // v came from json.Unmarshal; re-encoding cannot fail
	return string(b)
}

// Instructions returns formatting rules for the report, driven by the tone
// and by which tools are permitted.
func (p Preferences) Instructions(permitted []string) []string {
	has := make(map[string]bool, len(permitted))
	for _, n := range permitted {
		has[n] = true
	}

	var out []string
	if tone := p.Tone(); tone != "" {
		out = append(out, fmt.Sprintf("Write the whole report in a %s tone and keep that tone consistent throughout.", tone))
	}
	if has["get_weather"] {
		out = append(out, "Give temperatures as whole numbers and spell out units (for example \"5 degrees Celsius\", \"4 meters per second\") so the report reads well aloud.")
	}
	if has["get_news"] {
		out = append(out, "List news items as markdown links in the form [Short description of the article](url to article), each on its own line.")
	}
	if has["get_electricity_prices"] {
		out = append(out, "Spell out electricity price units (for example \"5.3 cents per kilowatt hour\") instead of abbreviations.")
	}
	return out
}

// PromptSection is the personalization block appended to the user prompt.
// It is empty when there is nothing to say.
func (p Preferences) PromptSection(permitted []string) string {
	var b strings.Builder
	if lines := p.ContentLines(); len(lines) > 0 {
		b.WriteString("Content preferences:\n")
		for _, l := range lines {
			b.WriteString("- " + l + "\n")
		}
	}
	if instr := p.Instructions(permitted); len(instr) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Formatting instructions:\n")
		for _, l := range instr {
			b.WriteString("- " + l + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
