package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// RateLimitConfig tunes the Redis token bucket in front of the public and
// guest routes.  Variables are prefixed RATE_LIMIT_.
type RateLimitConfig struct {
	Enabled        bool          `default:"true"`
	Capacity       int           `default:"30"`
	RefillTokens   int           `split_words:"true" default:"1"`
	RefillInterval time.Duration `split_words:"true" default:"2s"`
	TTL            time.Duration `default:"10m"`
	KeyStrategy    string        `split_words:"true" default:"ip_user_route"`
	Prefix         string        `default:"rl"`
	Debug          bool          `default:"false"`
}

func LoadRateLimitConfig() (RateLimitConfig, error) {
	var c RateLimitConfig
	if err := envconfig.Process("RATE_LIMIT", &c); err != nil {
		return c, err
	}
	c.normalize()
	return c, nil
}

func (c *RateLimitConfig) normalize() {
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillTokens < 1 {
		c.RefillTokens = 1
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	// Buckets live at least five refill intervals.
	if minTTL := 5 * c.RefillInterval; c.TTL < minTTL {
		c.TTL = minTTL
	}
}
