package tools

import "github.com/sahilm/fuzzy"

// Suggest returns up to three registered names that fuzzily match name.
func (r *Registry) Suggest(name string) []string {
	var out []string
	for _, m := range fuzzy.Find(name, r.order) {
		out = append(out, m.Str)
		if len(out) == 3 {
			break
		}
	}
	return out
}
