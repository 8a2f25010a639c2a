// ABOUTME: CacheConfigStore persists resolved source configs in any Cache backend
// ABOUTME: Configs are stored as JSON under source_config:<code> without expiry

package config

import (
	"context"
	"encoding/json"
	"fmt"

	"newsfeed-canon/core/domain"
	"newsfeed-canon/core/interfaces"
)

const configKeyPrefix = "source_config:"

// CacheConfigStore implements interfaces.ConfigStore on top of interfaces.Cache.
type CacheConfigStore struct {
	cache interfaces.Cache
}

// NewCacheConfigStore creates a store backed by cache.
func NewCacheConfigStore(cache interfaces.Cache) *CacheConfigStore {
	return &CacheConfigStore{cache: cache}
}

func configKey(sourceCode string) string {
	return configKeyPrefix + sourceCode
}

// Load returns the stored config, or interfaces.ErrCacheMiss when none exists.
func (s *CacheConfigStore) Load(ctx context.Context, sourceCode string) (*domain.SourceConfig, error) {
	data, err := s.cache.Get(ctx, configKey(sourceCode))
	if err != nil {
		return nil, err
	}
	var cfg domain.SourceConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode stored config for %s: %w", sourceCode, err)
	}
	if cfg.SourceCode == "" {
		cfg.SourceCode = sourceCode
	}
	return &cfg, nil
}

// Save replaces the stored config for cfg.SourceCode.
func (s *CacheConfigStore) Save(ctx context.Context, cfg *domain.SourceConfig) error {
	if cfg == nil || cfg.SourceCode == "" {
		return fmt.Errorf("save config: source code is required")
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config for %s: %w", cfg.SourceCode, err)
	}
	return s.cache.Set(ctx, configKey(cfg.SourceCode), data, 0)
}
