// ABOUTME: Static source hints loaded from YAML, embedded by default
// ABOUTME: Hints are the last-resort config for every source and seed the oracle prompt

package sources

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"newsfeed-canon/core/domain"
)

//go:embed sources.yaml
var defaultSources []byte

type file struct {
	Sources []domain.SourceConfig `yaml:"sources"`
}

// Registry holds the static hints keyed by source code.
type Registry struct {
	hints map[string]*domain.SourceConfig
}

// Default returns the embedded registry.
func Default() (*Registry, error) {
	return Parse(defaultSources)
}

// Load reads hints from path, or the embedded file when path is empty.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML hints document.
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sources: %w", err)
	}
	reg := &Registry{hints: make(map[string]*domain.SourceConfig, len(f.Sources))}
	for i := range f.Sources {
		cfg := f.Sources[i]
		cfg.Sanitize()
		if cfg.SourceCode == "" {
			return nil, fmt.Errorf("parse sources: entry %d has no source_code", i)
		}
		if _, dup := reg.hints[cfg.SourceCode]; dup {
			return nil, fmt.Errorf("parse sources: duplicate source_code %q", cfg.SourceCode)
		}
		reg.hints[cfg.SourceCode] = &cfg
	}
	return reg, nil
}

// Hints returns a copy of the hints for code.
func (r *Registry) Hints(code string) (*domain.SourceConfig, bool) {
	cfg, ok := r.hints[code]
	if !ok {
		return nil, false
	}
	return cfg.Clone(), true
}

// Codes returns every known source code, sorted.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.hints))
	for code := range r.hints {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
