package limiter

import (
	"sync"
	"testing"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/infieles/reportes/config"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func TestMemoryStoreWindow(t *testing.T) {
	clock := newClock()
	s := NewMemoryStore(Rule{Limit: 1, Window: 20 * time.Minute}, clock.Now)

	if info := s.Limit("1.2.3.4", nil); info.RateLimited {
		t.Fatal("first attempt should pass")
	}
	if info := s.Limit("1.2.3.4", nil); !info.RateLimited {
		t.Fatal("second attempt inside the window should be limited")
	}
	if info := s.Limit("5.6.7.8", nil); info.RateLimited {
		t.Fatal("other callers have their own window")
	}

	clock.Advance(19 * time.Minute)
	if info := s.Limit("1.2.3.4", nil); !info.RateLimited {
		t.Fatal("still inside the window")
	}

	clock.Advance(time.Minute)
	info := s.Limit("1.2.3.4", nil)
	if info.RateLimited {
		t.Fatal("window should have reset")
	}
	if want := clock.Now().Add(20 * time.Minute); !info.ResetTime.Equal(want) {
		t.Errorf("reset = %v, want %v", info.ResetTime, want)
	}
}

func TestMemoryStoreRemaining(t *testing.T) {
	s := NewMemoryStore(Rule{Limit: 3, Window: time.Hour}, newClock().Now)
	for want := uint(2); ; want-- {
		info := s.Limit("k", nil)
		if info.RemainingHits != want || info.Limit != 3 {
			t.Fatalf("info = %+v, want remaining %d", info, want)
		}
		if want == 0 {
			break
		}
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	clock := newClock()
	s := NewMemoryStore(Rule{Limit: 5, Window: time.Minute}, clock.Now)
	s.Limit("a", nil)
	clock.Advance(30 * time.Second)
	s.Limit("b", nil)
	clock.Advance(40 * time.Second)

	if removed := s.Sweep(); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if s.Len() != 1 {
		t.Errorf("len = %d, want 1", s.Len())
	}
}

func TestMemoryStoreConcurrent(t *testing.T) {
	s := NewMemoryStore(Rule{Limit: 50, Window: time.Hour}, newClock().Now)
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !s.Limit("same", nil).RateLimited {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if allowed != 50 {
		t.Errorf("allowed = %d, want 50", allowed)
	}
}

func TestChain(t *testing.T) {
	clock := newClock()
	hour := NewMemoryStore(Rule{Limit: 2, Window: time.Hour}, clock.Now)
	day := NewMemoryStore(Rule{Limit: 3, Window: 24 * time.Hour}, clock.Now)
	ch := Chain(day, hour)

	for i := 0; i < 2; i++ {
		if ch.Limit("ip", nil).RateLimited {
			t.Fatalf("attempt %d should pass", i+1)
		}
	}
	if !ch.Limit("ip", nil).RateLimited {
		t.Fatal("hourly quota should trip")
	}

	clock.Advance(time.Hour)
	if !ch.Limit("ip", nil).RateLimited {
		t.Fatal("daily quota counts rejected attempts too")
	}
}

func TestFactoryMemoryBackend(t *testing.T) {
	cfg := &config.Config{
		RateLimitBackend: config.BackendMemory,
		RateLimitDaily:   2000,
		RateLimitHourly:  500,
		CreateLimit:      1,
		CreateWindow:     20 * time.Minute,
	}
	f, err := NewFactory(cfg, newClock().Now)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	create := f.Store(CreateRule(cfg))
	if create.Limit("ip", nil).RateLimited || !create.Limit("ip", nil).RateLimited {
		t.Error("create rule should allow exactly one submission")
	}

	global := f.Chain(GlobalRules(cfg)...)
	info := global.Limit("ip", nil)
	if info.RateLimited || info.RemainingHits != 499 {
		t.Errorf("global info = %+v", info)
	}
	if len(f.memory) != 3 {
		t.Errorf("expected 3 memory stores, got %d", len(f.memory))
	}
}

func TestFactoryBadRedisURL(t *testing.T) {
	cfg := &config.Config{RateLimitBackend: config.BackendRedis, RedisURL: "://nope"}
	if _, err := NewFactory(cfg, nil); err == nil {
		t.Fatal("expected error for invalid redis url")
	}
}

type recordingStore struct {
	keys []string
}

func (r *recordingStore) Limit(key string, c *gin.Context) ratelimit.Info {
	r.keys = append(r.keys, key)
	return ratelimit.Info{Limit: 1, RemainingHits: 1}
}

func TestPrefixedKeys(t *testing.T) {
	rec := &recordingStore{}
	s := &prefixed{prefix: "reportes:create:", store: rec}
	s.Limit("203.0.113.9", nil)
	if len(rec.keys) != 1 || rec.keys[0] != "reportes:create:203.0.113.9" {
		t.Errorf("keys = %v", rec.keys)
	}
}

func TestFactoryRedisBackend(t *testing.T) {
	cfg := &config.Config{
		RateLimitBackend: config.BackendRedis,
		RedisURL:         "redis://localhost:6379/0",
		RateLimitDaily:   2000,
		RateLimitHourly:  500,
		CreateLimit:      1,
		CreateWindow:     20 * time.Minute,
	}
	f, err := NewFactory(cfg, newClock().Now)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	create, ok := f.Store(CreateRule(cfg)).(*prefixed)
	if !ok {
		t.Fatalf("redis store should be namespaced, got %T", create)
	}
	if create.prefix != "reportes:create:" {
		t.Errorf("prefix = %q", create.prefix)
	}

	global, ok := f.Chain(GlobalRules(cfg)...).(chain)
	if !ok || len(global) != 2 {
		t.Fatalf("unexpected chain %#v", global)
	}
	want := []string{"reportes:day:", "reportes:hour:"}
	for i, s := range global {
		p, ok := s.(*prefixed)
		if !ok || p.prefix != want[i] {
			t.Errorf("store %d = %#v, want prefix %q", i, s, want[i])
		}
	}
	if len(f.memory) != 0 {
		t.Errorf("no memory stores expected, got %d", len(f.memory))
	}
}
