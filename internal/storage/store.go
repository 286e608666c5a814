// Package storage persists run and swarm snapshots behind a backend-neutral
// interface. Records carry schema and codec versions so stale snapshots are
// rejected instead of silently misread.
package storage

import (
	"context"

	"pathogen/internal/model"
)

// Store defines persistence operations for mutation-run entities.
type Store interface {
	Init(ctx context.Context) error
	SaveRunState(ctx context.Context, state model.RunState) error
	GetRunState(ctx context.Context, runID string) (model.RunState, bool, error)
	SaveSwarmState(ctx context.Context, runID string, state model.SwarmState) error
	GetSwarmState(ctx context.Context, runID string) (model.SwarmState, bool, error)
	SaveRunSummary(ctx context.Context, summary model.RunSummary) error
	GetRunSummary(ctx context.Context, runID string) (model.RunSummary, bool, error)
	ListRunSummaries(ctx context.Context) ([]model.RunSummary, error)
	SaveMutationHistory(ctx context.Context, runID string, history []model.FitnessResult) error
	GetMutationHistory(ctx context.Context, runID string) ([]model.FitnessResult, bool, error)
}
