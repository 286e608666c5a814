package pathway

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"pathogen/internal/model"
)

type scriptedSource struct {
	calls   int
	outcome func(call int) (model.Pathway, error)
}

func (s *scriptedSource) FetchPathwayGraph(_ context.Context, pathwayID string) (model.Pathway, error) {
	s.calls++
	return s.outcome(s.calls)
}

func fastFetcher(t *testing.T, source Source, cache *Cache) *Fetcher {
	t.Helper()
	fetcher, err := NewFetcher(FetcherConfig{
		Source:         source,
		Cache:          cache,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	return fetcher
}

func TestFetcherRetriesTransientErrors(t *testing.T) {
	source := &scriptedSource{outcome: func(call int) (model.Pathway, error) {
		if call < 3 {
			return model.Pathway{}, errors.New("connection reset")
		}
		return model.Pathway{ID: "ko00010"}, nil
	}}

	fetcher := fastFetcher(t, source, nil)
	pw, err := fetcher.Fetch(context.Background(), "ko00010")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if pw.ID != "ko00010" {
		t.Fatalf("unexpected pathway: %+v", pw)
	}
	if source.calls != 3 {
		t.Fatalf("source calls = %d, want 3", source.calls)
	}
}

func TestFetcherExhaustsAttempts(t *testing.T) {
	source := &scriptedSource{outcome: func(int) (model.Pathway, error) {
		return model.Pathway{}, errors.New("unavailable")
	}}

	fetcher := fastFetcher(t, source, nil)
	if _, err := fetcher.Fetch(context.Background(), "ko00010"); err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if source.calls != 3 {
		t.Fatalf("source calls = %d, want 3", source.calls)
	}
}

func TestFetcherNotFoundIsNotRetried(t *testing.T) {
	source := &scriptedSource{outcome: func(int) (model.Pathway, error) {
		return model.Pathway{}, fmt.Errorf("%w: ko99999", ErrPathwayNotFound)
	}}

	fetcher := fastFetcher(t, source, nil)
	_, err := fetcher.Fetch(context.Background(), "ko99999")
	if !errors.Is(err, ErrPathwayNotFound) {
		t.Fatalf("expected ErrPathwayNotFound, got %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("source calls = %d, want 1", source.calls)
	}
}

func TestFetcherServesFromCache(t *testing.T) {
	source := &scriptedSource{outcome: func(int) (model.Pathway, error) {
		return model.Pathway{ID: "ko00010"}, nil
	}}
	cache := NewCache()

	fetcher := fastFetcher(t, source, cache)
	ctx := context.Background()
	if _, err := fetcher.Fetch(ctx, "ko00010"); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if _, err := fetcher.Fetch(ctx, "ko00010"); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("source calls = %d, want 1 (second served from cache)", source.calls)
	}

	cache.Clear()
	if _, err := fetcher.Fetch(ctx, "ko00010"); err != nil {
		t.Fatalf("fetch after clear: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("source calls = %d, want 2 after cache clear", source.calls)
	}
}

func TestFetcherHonorsContextCancellation(t *testing.T) {
	source := &scriptedSource{outcome: func(int) (model.Pathway, error) {
		return model.Pathway{}, errors.New("unavailable")
	}}
	fetcher, err := NewFetcher(FetcherConfig{
		Source:         source,
		MaxAttempts:    5,
		InitialBackoff: time.Hour,
	})
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	if _, err := fetcher.Fetch(ctx, "ko00010"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewFetcherRequiresSource(t *testing.T) {
	if _, err := NewFetcher(FetcherConfig{}); err == nil {
		t.Fatal("expected error for missing source")
	}
}
