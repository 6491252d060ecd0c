package config

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"
)

// RedisConfig locates the Redis server backing rate limiting and caching.
// Variables are prefixed REDIS_; ADDR wins over HOST and PORT.
type RedisConfig struct {
	Addr     string
	Host     string
	Port     string
	Password string
	DB       int
	TLS      bool
}

func LoadRedisConfig() (RedisConfig, error) {
	var c RedisConfig
	err := envconfig.Process("REDIS", &c)
	return c, err
}

func (c RedisConfig) address() string {
	switch {
	case c.Addr != "":
		return c.Addr
	case c.Host != "" && c.Port != "":
		return c.Host + ":" + c.Port
	}
	return "localhost:6379"
}

// NewRedisClient connects and pings Redis.  It returns nil when the server
// is unreachable; the middleware then runs without rate limiting or caching.
func NewRedisClient(c RedisConfig) *redis.Client {
	opts := &redis.Options{Addr: c.address(), Password: c.Password, DB: c.DB}
	if c.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
