package limiter

import (
	"context"
	"sync"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
)

type Clock func() time.Time

type window struct {
	start time.Time
	hits  uint
}

// MemoryStore is a fixed-window counter kept in process memory. Every call
// to Limit counts as an attempt, accepted or not.
type MemoryStore struct {
	rule Rule
	now  Clock

	mu      sync.Mutex
	windows map[string]*window
}

var _ ratelimit.Store = (*MemoryStore)(nil)

func NewMemoryStore(rule Rule, clock Clock) *MemoryStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryStore{
		rule:    rule,
		now:     clock,
		windows: make(map[string]*window),
	}
}

func (s *MemoryStore) Limit(key string, c *gin.Context) ratelimit.Info {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || !now.Before(w.start.Add(s.rule.Window)) {
		w = &window{start: now}
		s.windows[key] = w
	}
	w.hits++

	info := ratelimit.Info{
		Limit:     s.rule.Limit,
		ResetTime: w.start.Add(s.rule.Window),
	}
	if w.hits > s.rule.Limit {
		info.RateLimited = true
		return info
	}
	info.RemainingHits = s.rule.Limit - w.hits
	return info
}

// Sweep drops windows that have already ended.
func (s *MemoryStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, w := range s.windows {
		if !now.Before(w.start.Add(s.rule.Window)) {
			delete(s.windows, key)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
