// Package modelmap holds the static table mapping short model aliases to
// fully-qualified provider identifiers. The table is built once at process
// start and is read-only afterwards.
package modelmap

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultModel is used when a request omits the model field entirely.
const DefaultModel = "meta-llama/Llama-3.1-8B-Instruct"

// defaultAliases covers the hosted models the gateway fronts out of the box.
var defaultAliases = map[string]string{
	"llama-3.1-8b":  "meta-llama/Llama-3.1-8B-Instruct",
	"llama-3.1-70b": "meta-llama/Llama-3.1-70B-Instruct",
	"llama-3.3-70b": "meta-llama/Llama-3.3-70B-Instruct",
	"mixtral-8x7b":  "mistralai/Mixtral-8x7B-Instruct-v0.1",
	"qwen-2.5-72b":  "Qwen/Qwen2.5-72B-Instruct",
	"deepseek-v3":   "deepseek-ai/DeepSeek-V3",
}

// Entry is one alias table row, shaped for the /v1/models listing.
type Entry struct {
	Alias  string
	FullID string
}

// Table is an immutable alias table.
type Table struct {
	defaultModel string
	aliases      map[string]string
	built        time.Time
}

// New builds a table from the given aliases. An empty defaultModel falls
// back to DefaultModel.
func New(defaultModel string, aliases map[string]string) *Table {
	if defaultModel == "" {
		defaultModel = DefaultModel
	}
	copied := make(map[string]string, len(aliases))
	for alias, full := range aliases {
		copied[alias] = full
	}
	return &Table{
		defaultModel: defaultModel,
		aliases:      copied,
		built:        time.Now(),
	}
}

// Default returns the compiled-in table.
func Default(defaultModel string) *Table {
	return New(defaultModel, defaultAliases)
}

type tableFile struct {
	DefaultModel string            `yaml:"default_model"`
	Models       map[string]string `yaml:"models"`
}

// Load reads an alias table from a YAML file. The file replaces the
// compiled-in aliases entirely; defaultModel (when non-empty) overrides the
// file's default_model.
func Load(path, defaultModel string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("modelmap: read %s: %w", path, err)
	}

	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("modelmap: parse %s: %w", path, err)
	}
	if len(f.Models) == 0 {
		return nil, fmt.Errorf("modelmap: %s defines no models", path)
	}

	if defaultModel == "" {
		defaultModel = f.DefaultModel
	}
	return New(defaultModel, f.Models), nil
}

// Resolve maps a client model name to a fully-qualified identifier. Unknown
// names pass through verbatim (treated as already qualified); an empty name
// resolves to the default model.
func (t *Table) Resolve(name string) string {
	if name == "" {
		return t.defaultModel
	}
	if full, ok := t.aliases[name]; ok {
		return full
	}
	return name
}

// DefaultModel returns the identifier used for requests without a model.
func (t *Table) DefaultModel() string {
	return t.defaultModel
}

// BuiltAt is when the table was constructed (process start).
func (t *Table) BuiltAt() time.Time {
	return t.built
}

// Entries lists the table rows in stable alias order.
func (t *Table) Entries() []Entry {
	entries := make([]Entry, 0, len(t.aliases))
	for alias, full := range t.aliases {
		entries = append(entries, Entry{Alias: alias, FullID: full})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Alias < entries[j].Alias })
	return entries
}

// Owner derives an owner string from a fully-qualified id, e.g.
// "meta-llama/Llama-3.1-8B-Instruct" -> "meta-llama".
func Owner(fullID string) string {
	if org, _, ok := strings.Cut(fullID, "/"); ok && org != "" {
		return org
	}
	return "system"
}
