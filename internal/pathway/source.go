package pathway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"pathogen/internal/model"
)

// ErrPathwayNotFound marks a permanently missing pathway id. The fetcher
// gives up immediately instead of retrying.
var ErrPathwayNotFound = errors.New("pathway not found")

// Source provides pathway graphs. Network access and upstream formats live
// behind this boundary; the engine only sees pathways or errors.
type Source interface {
	FetchPathwayGraph(ctx context.Context, pathwayID string) (model.Pathway, error)
}

// Cache holds fetched pathways for one run. It replaces the module-level
// cache of earlier designs: lifetime is explicit and owned by the caller.
type Cache struct {
	mu       sync.RWMutex
	pathways map[string]model.Pathway
}

func NewCache() *Cache {
	return &Cache{pathways: make(map[string]model.Pathway)}
}

func (c *Cache) Get(pathwayID string) (model.Pathway, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	pw, ok := c.pathways[pathwayID]
	return pw, ok
}

func (c *Cache) Put(pw model.Pathway) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pathways[pw.ID] = pw
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pathways = make(map[string]model.Pathway)
}

type FetcherConfig struct {
	Source         Source
	Cache          *Cache
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	Logger         *zap.Logger
}

func defaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		MaxAttempts:    3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		BackoffFactor:  2.0,
	}
}

func normalizeFetcherConfig(cfg FetcherConfig) FetcherConfig {
	def := defaultFetcherConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}
	if cfg.BackoffFactor < 1 {
		cfg.BackoffFactor = def.BackoffFactor
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return cfg
}

// Fetcher wraps a Source with bounded retry, backoff, and caching. Transient
// errors are retried; ErrPathwayNotFound is surfaced immediately so a run
// can skip the pathway and continue.
type Fetcher struct {
	cfg FetcherConfig
}

func NewFetcher(cfg FetcherConfig) (*Fetcher, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("pathway source is required")
	}
	return &Fetcher{cfg: normalizeFetcherConfig(cfg)}, nil
}

func (f *Fetcher) Fetch(ctx context.Context, pathwayID string) (model.Pathway, error) {
	if f.cfg.Cache != nil {
		if pw, ok := f.cfg.Cache.Get(pathwayID); ok {
			f.cfg.Logger.Debug("pathway cache hit", zap.String("pathway_id", pathwayID))
			return pw, nil
		}
	}

	backoff := f.cfg.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return model.Pathway{}, err
		}

		pw, err := f.cfg.Source.FetchPathwayGraph(ctx, pathwayID)
		if err == nil {
			if f.cfg.Cache != nil {
				f.cfg.Cache.Put(pw)
			}
			return pw, nil
		}
		if errors.Is(err, ErrPathwayNotFound) {
			return model.Pathway{}, err
		}

		lastErr = err
		f.cfg.Logger.Warn("pathway fetch failed",
			zap.String("pathway_id", pathwayID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt == f.cfg.MaxAttempts {
			break
		}
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return model.Pathway{}, ctx.Err()
		case <-timer.C:
		}
		next := time.Duration(float64(backoff) * f.cfg.BackoffFactor)
		if next > f.cfg.MaxBackoff {
			next = f.cfg.MaxBackoff
		}
		backoff = next
	}

	return model.Pathway{}, fmt.Errorf("fetch pathway %s after %d attempts: %w", pathwayID, f.cfg.MaxAttempts, lastErr)
}
