package categories

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// Registry maps category aliases to canonical category names so reporters
// who type "Gadget" and security staff who file under "Electronics" still
// end up in the same matching pool.
type Registry struct {
	canonical map[string]string
}

type registryFile struct {
	Categories []struct {
		Name    string   `yaml:"name"`
		Aliases []string `yaml:"aliases"`
	} `yaml:"categories"`
}

// defaultAliases covers the categories the reporting form offers out of the
// box. A YAML file extends or overrides these.
var defaultAliases = map[string][]string{
	"Electronics":  {"gadget", "gadgets", "electronic device", "device"},
	"Documents":    {"document", "papers", "paperwork"},
	"Student ID":   {"id", "school id", "id card"},
	"Accessories":  {"accessory", "jewelry"},
	"Clothing":     {"clothes", "apparel", "garment"},
	"Bags":         {"bag", "backpack", "purse"},
	"Keys":         {"key", "keychain"},
	"Books":        {"book", "notebook", "textbook"},
	"Umbrellas":    {"umbrella"},
	"Water Bottle": {"bottle", "tumbler"},
}

// NewRegistry builds a registry from the built-in aliases.
func NewRegistry() *Registry {
	r := &Registry{canonical: make(map[string]string)}
	for name, aliases := range defaultAliases {
		r.add(name, aliases)
	}
	return r
}

// Load builds a registry from the built-in aliases extended by the given
// YAML file. An empty path returns the built-in registry.
func Load(path string) (*Registry, error) {
	r := NewRegistry()
	if path == "" {
		return r, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read categories file: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse categories file: %w", err)
	}

	for _, c := range file.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("categories file entry is missing a name")
		}
		r.add(c.Name, c.Aliases)
	}

	return r, nil
}

func (r *Registry) add(name string, aliases []string) {
	r.canonical[normalize(name)] = name
	for _, alias := range aliases {
		r.canonical[normalize(alias)] = name
	}
}

// Normalize returns the canonical category name for a raw value. Unknown
// values pass through trimmed so novel categories still match themselves.
func (r *Registry) Normalize(category string) string {
	key := normalize(category)
	if key == "" {
		return ""
	}
	if name, ok := r.canonical[key]; ok {
		return name
	}
	return strings.TrimSpace(category)
}

// Equal reports whether two raw category values normalize to the same
// canonical category. Empty values never equal anything.
func (r *Registry) Equal(a, b string) bool {
	na, nb := r.Normalize(a), r.Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return fold(na) == fold(nb)
}

// Count returns the number of known alias entries.
func (r *Registry) Count() int {
	return len(r.canonical)
}

// fold applies Unicode case folding, so values that differ only by case
// compare equal regardless of the writing system.
func fold(s string) string {
	// A Caser is stateful and must not be shared between goroutines.
	return cases.Fold().String(s)
}

func normalize(value string) string {
	return fold(strings.TrimSpace(value))
}
