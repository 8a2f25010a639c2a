// ABOUTME: Feature flag management for optional AI-assisted behavior
// ABOUTME: Flags are read from prefixed or bare environment variables, with in-process overrides

package featureflags

import (
	"context"
	"os"
	"strings"
	"sync"
)

// FeatureFlag represents a single feature flag
type FeatureFlag string

// Defined feature flags
const (
	// AIConfigEnabled lets the resolver consult the config oracle
	AIConfigEnabled FeatureFlag = "ai_config_enabled"

	// AllowAIListURL lets an oracle-generated config replace the hint list URL
	AllowAIListURL FeatureFlag = "allow_ai_list_url"

	// AllowAIURLPrefix lets an oracle-generated config replace the hint URL prefix
	AllowAIURLPrefix FeatureFlag = "allow_ai_url_prefix"

	// EnableAIExtraction enables the AI author-extraction tier
	EnableAIExtraction FeatureFlag = "enable_ai_extraction"

	// SentimentEnabled attaches oracle sentiment to stored articles
	SentimentEnabled FeatureFlag = "sentiment_enabled"

	// MetricsEnabled exposes the Prometheus endpoint on the admin API
	MetricsEnabled FeatureFlag = "metrics_enabled"

	// RateLimitEnabled enables per-IP rate limiting on the admin API
	RateLimitEnabled FeatureFlag = "rate_limit_enabled"
)

var allFlags = []FeatureFlag{
	AIConfigEnabled,
	AllowAIListURL,
	AllowAIURLPrefix,
	EnableAIExtraction,
	SentimentEnabled,
	MetricsEnabled,
	RateLimitEnabled,
}

// Manager defines the interface for feature flag management
type Manager interface {
	// IsEnabled checks if a feature flag is enabled
	IsEnabled(ctx context.Context, flag FeatureFlag) bool

	// SetEnabled sets a feature flag's state (for testing)
	SetEnabled(flag FeatureFlag, enabled bool)

	// GetAllFlags returns the state of all flags
	GetAllFlags() map[FeatureFlag]bool
}

// EnvManager implements Manager using environment variables.
// FEATURE_ALLOW_AI_LIST_URL and ALLOW_AI_LIST_URL are both honored; the prefixed form wins.
type EnvManager struct {
	mu        sync.RWMutex
	overrides map[FeatureFlag]bool
	prefix    string
}

// NewEnvManager creates a new environment-based feature flag manager
func NewEnvManager(prefix string) *EnvManager {
	if prefix == "" {
		prefix = "FEATURE_"
	}
	return &EnvManager{
		overrides: make(map[FeatureFlag]bool),
		prefix:    prefix,
	}
}

// IsEnabled checks if a feature flag is enabled
func (m *EnvManager) IsEnabled(ctx context.Context, flag FeatureFlag) bool {
	m.mu.RLock()
	if enabled, ok := m.overrides[flag]; ok {
		m.mu.RUnlock()
		return enabled
	}
	m.mu.RUnlock()

	name := strings.ToUpper(string(flag))
	value, ok := os.LookupEnv(m.prefix + name)
	if !ok {
		value = os.Getenv(name)
	}
	return parseBool(value)
}

// SetEnabled sets a feature flag's state (mainly for testing)
func (m *EnvManager) SetEnabled(flag FeatureFlag, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[flag] = enabled
}

// GetAllFlags returns the state of all defined flags
func (m *EnvManager) GetAllFlags() map[FeatureFlag]bool {
	ctx := context.Background()
	flags := make(map[FeatureFlag]bool, len(allFlags))
	for _, f := range allFlags {
		flags[f] = m.IsEnabled(ctx, f)
	}
	return flags
}

// StaticManager implements Manager with static configuration
type StaticManager struct {
	flags map[FeatureFlag]bool
	mu    sync.RWMutex
}

// NewStaticManager creates a manager with predefined flag states
func NewStaticManager(flags map[FeatureFlag]bool) *StaticManager {
	if flags == nil {
		flags = make(map[FeatureFlag]bool)
	}
	return &StaticManager{
		flags: flags,
	}
}

// IsEnabled checks if a feature flag is enabled
func (m *StaticManager) IsEnabled(ctx context.Context, flag FeatureFlag) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags[flag]
}

// SetEnabled sets a feature flag's state
func (m *StaticManager) SetEnabled(flag FeatureFlag, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[flag] = enabled
}

// GetAllFlags returns all flag states
func (m *StaticManager) GetAllFlags() map[FeatureFlag]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[FeatureFlag]bool)
	for k, v := range m.flags {
		result[k] = v
	}
	return result
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "enabled", "yes", "on":
		return true
	}
	return false
}

// ContextKey for storing feature flags in context
type contextKey struct{}

// WithManager adds a feature flag manager to the context
func WithManager(ctx context.Context, manager Manager) context.Context {
	return context.WithValue(ctx, contextKey{}, manager)
}

// FromContext retrieves the feature flag manager from context
func FromContext(ctx context.Context) Manager {
	if manager, ok := ctx.Value(contextKey{}).(Manager); ok {
		return manager
	}
	// Everything is off unless a manager was attached
	return NewStaticManager(nil)
}

// IsEnabled is a convenience function to check if a feature is enabled
func IsEnabled(ctx context.Context, flag FeatureFlag) bool {
	return FromContext(ctx).IsEnabled(ctx, flag)
}
