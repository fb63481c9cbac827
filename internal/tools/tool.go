// Package tools holds the capabilities the report model may call: each one
// is a named Tool with a JSON Schema, and a Registry dispatches calls to them.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/chris/briefing/internal/llm"
	"github.com/xeipuuv/gojsonschema"
)

// ErrToolNotPermitted is returned for calls to tools outside the registry.
var ErrToolNotPermitted = errors.New("tool not permitted")

// Tool is one capability advertised to the model.
//
// Invoke reports expected failures (network errors, missing data) as an
// ErrorResult value. A returned error is unexpected and aborts the caller.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Invoke(ctx context.Context, args map[string]any) (any, error)
}

// ErrorResult is the structured failure a tool hands back to the model.
type ErrorResult struct {
	Error string `json:"error"`
}

func errorResult(format string, a ...any) ErrorResult {
	return ErrorResult{Error: fmt.Sprintf(format, a...)}
}

// isError reports whether v is a failure result, typed or as a map with an
// "error" key.
func isError(v any) bool {
	switch r := v.(type) {
	case ErrorResult:
		return true
	case map[string]any:
		_, ok := r["error"]
		return ok
	}
	return false
}

type entry struct {
	tool   Tool
	schema *gojsonschema.Schema
}

// Registry is a fixed name-keyed set of tools. It is built once and only read afterwards.
type Registry struct {
	order   []string
	entries map[string]entry
}

// NewRegistry panics on duplicate names or invalid schemas.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{entries: make(map[string]entry, len(tools))}
	for _, t := range tools {
		name := t.Name()
		if _, dup := r.entries[name]; dup {
			panic("tools: duplicate tool name " + name)
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(t.Parameters()))
		if err != nil {
			panic(fmt.Sprintf("tools: invalid schema for %s: %v", name, err))
		}
		r.order = append(r.order, name)
		r.entries[name] = entry{tool: t, schema: schema}
	}
	return r
}

func (r *Registry) Get(name string) (Tool, bool) {
	e, ok := r.entries[name]
	return e.tool, ok
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) Len() int { return len(r.order) }

// Definitions returns the descriptors advertised to the model.
func (r *Registry) Definitions() []llm.Tool {
	defs := make([]llm.Tool, 0, len(r.order))
	for _, name := range r.order {
		t := r.entries[name].tool
		defs = append(defs, llm.Tool{Name: t.Name(), Description: t.Description(), Parameters: t.Parameters()})
	}
	return defs
}

// Subset returns a registry holding only the named tools. Unknown names are
// ignored and registration order is kept.
func (r *Registry) Subset(names []string) *Registry {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	sub := &Registry{entries: make(map[string]entry)}
	for _, name := range r.order {
		if want[name] {
			sub.order = append(sub.order, name)
			sub.entries[name] = r.entries[name]
		}
	}
	return sub
}

// Invoke runs the named tool with JSON-encoded arguments and returns the
// JSON-encoded result. Schema violations come back as an error result so the
// model can correct itself; unknown tools and malformed JSON are errors.
func (r *Registry) Invoke(ctx context.Context, name, rawArgs string) (string, error) {
	e, ok := r.entries[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrToolNotPermitted, name)
	}

	args := map[string]any{}
	if strings.TrimSpace(rawArgs) != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return "", fmt.Errorf("parsing arguments for %s: %w", name, err)
		}
		if args == nil {
			args = map[string]any{}
		}
	}

	var result any
	if res, err := e.schema.Validate(gojsonschema.NewGoLoader(args)); err != nil {
		return "", fmt.Errorf("validating arguments for %s: %w", name, err)
	} else if !res.Valid() {
		var msgs []string
		for _, ve := range res.Errors() {
			msgs = append(msgs, ve.String())
		}
		sort.Strings(msgs)
		result = errorResult("invalid arguments: %s", strings.Join(msgs, "; "))
	} else {
		out, err := e.tool.Invoke(ctx, args)
		if err != nil {
			return "", fmt.Errorf("tool %s: %w", name, err)
		}
		result = out
	}

	b, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encoding %s result: %w", name, err)
	}
	return string(b), nil
}
