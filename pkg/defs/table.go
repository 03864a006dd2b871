// Package defs loads the TOML definition tables that drive explosion
// generators: the per-tag spawn tables, the class alias lists, and the
// per-spawn "properties" maps that hold field scripts.
//
// All keys are folded to lower case at parse time. Lookups on a missing
// or mistyped key return the caller's default, and SubTable on a missing
// key returns an invalid table whose getters all default, so consumers
// can chain lookups without checking each step.
package defs

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/chazu/expgen/pkg/vmath"
)

// Table is a read-only view over one level of a parsed definition file.
type Table struct {
	valid bool
	data  map[string]any
}

var invalidTable = &Table{}

// Parse parses TOML source into a Table.
func Parse(src string) (*Table, error) {
	var raw map[string]any
	if err := toml.Unmarshal([]byte(src), &raw); err != nil {
		return nil, fmt.Errorf("defs: parse: %w", err)
	}
	return &Table{valid: true, data: lowerKeys(raw)}, nil
}

// Load reads and parses a TOML definition file.
func Load(path string) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("defs: read %s: %w", path, err)
	}
	t, err := Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("defs: %s: %w", path, err)
	}
	return t, nil
}

// FileLoader returns a loader bound to path, for callers that re-read
// their tables on reload.
func FileLoader(path string) func() (*Table, error) {
	return func() (*Table, error) { return Load(path) }
}

func lowerKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch sub := v.(type) {
		case map[string]any:
			v = lowerKeys(sub)
		case []map[string]any:
			lowered := make([]map[string]any, len(sub))
			for i, e := range sub {
				lowered[i] = lowerKeys(e)
			}
			v = lowered
		}
		out[strings.ToLower(k)] = v
	}
	return out
}

// IsValid reports whether the table exists. Getters on an invalid table
// return their defaults.
func (t *Table) IsValid() bool {
	return t != nil && t.valid
}

// SubTable returns the nested table under key, or an invalid table if
// the key is missing or not a table.
func (t *Table) SubTable(key string) *Table {
	if !t.IsValid() {
		return invalidTable
	}
	if sub, ok := t.data[strings.ToLower(key)].(map[string]any); ok {
		return &Table{valid: true, data: sub}
	}
	return invalidTable
}

// Keys returns every key in the table, sorted. Sorting keeps spawn-entry
// compilation order stable across loads of the same file.
func (t *Table) Keys() []string {
	if !t.IsValid() {
		return nil
	}
	keys := make([]string, 0, len(t.data))
	for k := range t.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetBool returns the boolean at key, or def. Numeric values count as
// true when non-zero.
func (t *Table) GetBool(key string, def bool) bool {
	if !t.IsValid() {
		return def
	}
	switch v := t.data[strings.ToLower(key)].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case float64:
		return v != 0
	}
	return def
}

// GetInt returns the integer at key, or def. Floats truncate.
func (t *Table) GetInt(key string, def int) int {
	if !t.IsValid() {
		return def
	}
	switch v := t.data[strings.ToLower(key)].(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// GetFloat returns the float at key, or def.
func (t *Table) GetFloat(key string, def float32) float32 {
	if !t.IsValid() {
		return def
	}
	switch v := t.data[strings.ToLower(key)].(type) {
	case float64:
		return float32(v)
	case int64:
		return float32(v)
	}
	return def
}

// GetString returns the string at key, or def. Numbers and booleans are
// formatted, matching the loose typing of hand-written content.
func (t *Table) GetString(key string, def string) string {
	if !t.IsValid() {
		return def
	}
	if s, ok := scalarString(t.data[strings.ToLower(key)]); ok {
		return s
	}
	return def
}

// GetFloat3 returns the 3-element numeric array at key, or def.
func (t *Table) GetFloat3(key string, def vmath.Float3) vmath.Float3 {
	if !t.IsValid() {
		return def
	}
	arr, ok := t.data[strings.ToLower(key)].([]any)
	if !ok || len(arr) < 3 {
		return def
	}
	var out [3]float32
	for i := 0; i < 3; i++ {
		switch v := arr[i].(type) {
		case float64:
			out[i] = float32(v)
		case int64:
			out[i] = float32(v)
		default:
			return def
		}
	}
	return vmath.Float3{X: out[0], Y: out[1], Z: out[2]}
}

// StringMap returns every scalar entry of the table as strings, keyed by
// the (lower-cased) entry name. Nested tables and arrays are skipped.
func (t *Table) StringMap() map[string]string {
	out := map[string]string{}
	if !t.IsValid() {
		return out
	}
	for k, v := range t.data {
		if s, ok := scalarString(v); ok {
			out[k] = s
		}
	}
	return out
}

func scalarString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case int64:
		return strconv.FormatInt(s, 10), true
	case float64:
		return strconv.FormatFloat(s, 'g', -1, 64), true
	case bool:
		return strconv.FormatBool(s), true
	}
	return "", false
}
