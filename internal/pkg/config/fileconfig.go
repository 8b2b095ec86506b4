package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileConfig is a dotted-key view over a JSON or YAML configuration
// document: Get("store.archive.dsn") walks nested objects. Save writes the
// document back atomically (temp file + rename), the same persistence
// discipline the key rotator uses for its own state file.
type FileConfig struct {
	path string
	doc  map[string]any
}

// LoadFile reads path and decodes it by extension: .yaml/.yml via YAML,
// anything else as JSON.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	doc := make(map[string]any)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("config: decode yaml %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("config: decode json %s: %w", path, err)
		}
	}
	return &FileConfig{path: path, doc: doc}, nil
}

// Get returns the value at the dotted key, or nil if any path segment is
// missing or not an object.
func (c *FileConfig) Get(key string) any {
	parts := strings.Split(key, ".")
	var cur any = c.doc
	for _, p := range parts {
		m, ok := toStringMap(cur)
		if !ok {
			return nil
		}
		cur, ok = m[p]
		if !ok {
			return nil
		}
	}
	return cur
}

// GetString returns the string at key, or fallback when absent or not a
// string.
func (c *FileConfig) GetString(key, fallback string) string {
	if v, ok := c.Get(key).(string); ok {
		return v
	}
	return fallback
}

// GetStrings returns the string list at key, or nil when absent.
func (c *FileConfig) GetStrings(key string) []string {
	list, ok := c.Get(key).([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// GetFloat returns the number at key, or fallback. JSON decodes numbers as
// float64; YAML may produce int.
func (c *FileConfig) GetFloat(key string, fallback float64) float64 {
	switch v := c.Get(key).(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return fallback
	}
}

// GetInt returns the integer at key, or fallback.
func (c *FileConfig) GetInt(key string, fallback int) int {
	switch v := c.Get(key).(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

// Set writes value at the dotted key, creating intermediate objects as
// needed. Setting through a non-object segment returns an error rather
// than clobbering it.
func (c *FileConfig) Set(key string, value any) error {
	parts := strings.Split(key, ".")
	m := c.doc
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p]
		if !ok {
			child := make(map[string]any)
			m[p] = child
			m = child
			continue
		}
		childMap, ok := toStringMap(next)
		if !ok {
			return fmt.Errorf("config: %q is not an object", p)
		}
		// Normalize YAML's map[any]any form in place so Save round-trips.
		m[p] = childMap
		m = childMap
	}
	m[parts[len(parts)-1]] = value
	return nil
}

// Save writes the document back to its source path atomically, in the
// format implied by the path's extension.
func (c *FileConfig) Save() error {
	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(c.path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c.doc)
	default:
		data, err = json.MarshalIndent(c.doc, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".config-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, c.path)
}

func toStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	default:
		return nil, false
	}
}
