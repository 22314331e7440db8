// Package limiter provides the ratelimit.Store implementations behind the
// API's request quotas.
package limiter

import (
	"context"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/infieles/reportes/config"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Rule allows Limit attempts per Window.
type Rule struct {
	Name   string
	Limit  uint
	Window time.Duration
}

// GlobalRules returns the per-caller quota applied to every endpoint.
func GlobalRules(c *config.Config) []Rule {
	return []Rule{
		{Name: "day", Limit: c.RateLimitDaily, Window: 24 * time.Hour},
		{Name: "hour", Limit: c.RateLimitHourly, Window: time.Hour},
	}
}

// CreateRule returns the quota on report submissions.
func CreateRule(c *config.Config) Rule {
	return Rule{Name: "create", Limit: c.CreateLimit, Window: c.CreateWindow}
}

// Factory builds one store per rule on the configured backend.
type Factory struct {
	backend string
	clock   Clock
	redis   *redis.Client

	memory []*MemoryStore
}

func NewFactory(c *config.Config, clock Clock) (*Factory, error) {
	f := &Factory{backend: c.RateLimitBackend, clock: clock}
	if c.RateLimitBackend == config.BackendRedis {
		opt, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			return nil, errors.Wrap(err, "invalid redis_url")
		}
		f.redis = redis.NewClient(opt)
	}
	return f, nil
}

// Ping checks the redis connection when one is configured.
func (f *Factory) Ping(ctx context.Context) error {
	if f.redis == nil {
		return nil
	}
	return f.redis.Ping(ctx).Err()
}

func (f *Factory) Store(rule Rule) ratelimit.Store {
	if f.redis != nil {
		return &prefixed{
			prefix: "reportes:" + rule.Name + ":",
			store: ratelimit.RedisStore(&ratelimit.RedisOptions{
				RedisClient: f.redis,
				Rate:        rule.Window,
				Limit:       rule.Limit,
			}),
		}
	}
	s := NewMemoryStore(rule, f.clock)
	f.memory = append(f.memory, s)
	return s
}

// Chain builds a store that enforces every rule at once.
func (f *Factory) Chain(rules ...Rule) ratelimit.Store {
	stores := make([]ratelimit.Store, 0, len(rules))
	for _, r := range rules {
		stores = append(stores, f.Store(r))
	}
	return Chain(stores...)
}

// RunSweepers clears expired in-memory windows until ctx is done. It is a
// no-op on the redis backend, where keys expire on their own.
func (f *Factory) RunSweepers(ctx context.Context, interval time.Duration) {
	for _, s := range f.memory {
		go s.RunSweeper(ctx, interval)
	}
}

func (f *Factory) Close() error {
	if f.redis == nil {
		return nil
	}
	return f.redis.Close()
}

type prefixed struct {
	prefix string
	store  ratelimit.Store
}

func (p *prefixed) Limit(key string, c *gin.Context) ratelimit.Info {
	return p.store.Limit(p.prefix+key, c)
}

type chain []ratelimit.Store

// Chain combines stores; the request is limited as soon as one of them
// limits it. All stores count the attempt.
func Chain(stores ...ratelimit.Store) ratelimit.Store {
	return chain(stores)
}

func (ch chain) Limit(key string, c *gin.Context) ratelimit.Info {
	var result ratelimit.Info
	first := true
	for _, s := range ch {
		info := s.Limit(key, c)
		switch {
		case result.RateLimited:
		case info.RateLimited:
			result = info
		case first || info.RemainingHits < result.RemainingHits:
			result = info
		}
		first = false
	}
	return result
}
