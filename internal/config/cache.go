package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// CacheConfig tunes the Redis response cache used for public availability
// lookups.  Variables are prefixed CACHE_.
type CacheConfig struct {
	Enabled      bool          `default:"true"`
	Methods      []string      `default:"GET"`
	TTL          time.Duration `default:"30s"`
	KeyStrategy  string        `split_words:"true" default:"route_query"`
	Prefix       string        `default:"cache"`
	MaxBodyBytes int           `split_words:"true" default:"1048576"`
}

func LoadCacheConfig() (CacheConfig, error) {
	var c CacheConfig
	err := envconfig.Process("CACHE", &c)
	return c, err
}

// MethodSet returns the cached methods upper-cased for lookup.
func (c CacheConfig) MethodSet() map[string]bool {
	m := make(map[string]bool, len(c.Methods))
	for _, v := range c.Methods {
		if v = strings.ToUpper(strings.TrimSpace(v)); v != "" {
			m[v] = true
		}
	}
	return m
}
