package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/iho/procureledger/internal/domain"
	"github.com/iho/procureledger/internal/usecase"
)

// ProcessCache caches approval process definitions in front of a ProcessReader.
// Concurrent misses for the same title share one load.
type ProcessCache struct {
	next   usecase.ProcessReader
	cache  usecase.Cache
	ttl    time.Duration
	group  singleflight.Group
	logger zerolog.Logger
}

// NewProcessCache wraps next with a cache entry per process title.
func NewProcessCache(next usecase.ProcessReader, cache usecase.Cache, ttl time.Duration, logger zerolog.Logger) *ProcessCache {
	return &ProcessCache{next: next, cache: cache, ttl: ttl, logger: logger}
}

func processKey(title string) string {
	return "process:" + title
}

// GetByTitle implements usecase.ProcessReader. Cache failures fall through to next.
func (c *ProcessCache) GetByTitle(ctx context.Context, title string) (*domain.Process, error) {
	if raw, err := c.cache.Get(ctx, processKey(title)); err == nil {
		var p domain.Process
		if err := json.Unmarshal(raw, &p); err == nil {
			return &p, nil
		}
		c.logger.Warn().Str("title", title).Msg("discarding undecodable cached process")
	} else if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn().Err(err).Str("title", title).Msg("process cache read failed")
	}

	v, err, _ := c.group.Do(title, func() (any, error) {
		p, err := c.next.GetByTitle(ctx, title)
		if err != nil {
			return nil, err
		}

		if raw, err := json.Marshal(p); err == nil {
			if err := c.cache.Set(ctx, processKey(title), raw, c.ttl); err != nil {
				c.logger.Warn().Err(err).Str("title", title).Msg("process cache write failed")
			}
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}

	// Hand each caller its own copy of the shared result.
	p := *v.(*domain.Process)
	p.Steps = append([]domain.ProcessStep(nil), p.Steps...)
	return &p, nil
}

// InvalidateProcesses drops the cached definitions of titles so the next read
// loads them from the database again.
func InvalidateProcesses(ctx context.Context, cache usecase.Cache, titles ...string) error {
	var errs []error
	for _, title := range titles {
		if err := cache.Delete(ctx, processKey(title)); err != nil {
			errs = append(errs, fmt.Errorf("invalidate process %q: %w", title, err))
		}
	}
	return errors.Join(errs...)
}
