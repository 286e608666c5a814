// Package engine drives mutation runs: fetch pathway graphs, analyze them
// into candidates, map candidates to mutations, dispatch to the swarm, and
// record every outcome.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pathogen/internal/evo"
	"pathogen/internal/metrics"
	"pathogen/internal/model"
	"pathogen/internal/pathway"
	"pathogen/internal/storage"
	"pathogen/internal/swarm"
)

const (
	DefaultGenerations      = 10
	DefaultMutationsPerGen  = 10
	DefaultEvolveEvery      = 5
	DefaultKeepFraction     = 0.2
	DefaultPathwayID        = "ko01100"
	snapshotFilePermissions = 0o644
)

type Config struct {
	RunID                 string
	PathwayIDs            []string
	Generations           int
	TargetMutationsPerGen int
	// EvolveEvery triggers swarm evolution after every Nth generation,
	// never mid-generation. Zero disables evolution.
	EvolveEvery  int
	KeepFraction float64

	Fetcher      *pathway.Fetcher
	Analyzer     *pathway.Analyzer
	Orchestrator *swarm.Orchestrator
	Log          *MutationLog
	Store        storage.Store
	Logger       *zap.Logger
}

// Engine owns the generation counter and the full mutation history of one
// run. It is not safe for concurrent Run calls.
type Engine struct {
	cfg Config

	generation  int
	mutationSeq int
	history     []model.FitnessResult
	seen        map[string]struct{}
}

func New(cfg Config) (*Engine, error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("pathway fetcher is required")
	}
	if cfg.Orchestrator == nil {
		return nil, fmt.Errorf("swarm orchestrator is required")
	}
	if cfg.RunID == "" {
		cfg.RunID = "run-" + uuid.NewString()[:8]
	}
	if len(cfg.PathwayIDs) == 0 {
		cfg.PathwayIDs = []string{DefaultPathwayID}
	}
	if cfg.Generations <= 0 {
		cfg.Generations = DefaultGenerations
	}
	if cfg.TargetMutationsPerGen <= 0 {
		cfg.TargetMutationsPerGen = DefaultMutationsPerGen
	}
	if cfg.EvolveEvery < 0 {
		cfg.EvolveEvery = DefaultEvolveEvery
	}
	if cfg.KeepFraction <= 0 || cfg.KeepFraction > 1 {
		cfg.KeepFraction = DefaultKeepFraction
	}
	if cfg.Analyzer == nil {
		cfg.Analyzer = &pathway.Analyzer{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Engine{
		cfg:  cfg,
		seen: make(map[string]struct{}),
	}, nil
}

func (e *Engine) RunID() string { return e.cfg.RunID }

func (e *Engine) Generation() int { return e.generation }

// Run executes the configured number of generations, continuing from the
// engine's current generation counter when resuming a restored run.
func (e *Engine) Run(ctx context.Context) error {
	start := e.generation + 1
	last := e.generation + e.cfg.Generations

	e.cfg.Logger.Info("run started",
		zap.String("run_id", e.cfg.RunID),
		zap.Int("from_generation", start),
		zap.Int("to_generation", last),
		zap.Strings("pathway_ids", e.cfg.PathwayIDs),
	)

	for gen := start; gen <= last; gen++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.runGeneration(ctx, gen); err != nil {
			return err
		}
		e.generation = gen

		if e.cfg.EvolveEvery > 0 && gen%e.cfg.EvolveEvery == 0 && gen < last {
			if err := e.cfg.Orchestrator.Evolve(e.cfg.KeepFraction); err != nil {
				return fmt.Errorf("evolve swarm after generation %d: %w", gen, err)
			}
		}
	}

	if err := e.persist(ctx); err != nil {
		return err
	}

	stats := e.Statistics()
	e.cfg.Logger.Info("run finished",
		zap.String("run_id", e.cfg.RunID),
		zap.Int("generations", e.generation),
		zap.Int("total_mutations", stats.TotalMutations),
		zap.Float64("success_rate", stats.SuccessRate),
	)
	return nil
}

func (e *Engine) runGeneration(ctx context.Context, generation int) error {
	start := time.Now()
	defer func() {
		metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	}()

	mutations, err := e.collectMutations(ctx, generation)
	if err != nil {
		return err
	}
	if len(mutations) == 0 {
		e.cfg.Logger.Info("generation produced no mutations",
			zap.Int("generation", generation),
		)
		return nil
	}

	results := e.cfg.Orchestrator.AssignAndRun(ctx, generation, mutations)
	for _, result := range results {
		if err := e.record(result); err != nil {
			return err
		}
	}

	e.cfg.Logger.Info("generation complete",
		zap.Int("generation", generation),
		zap.Int("mutations", len(mutations)),
		zap.Int("evaluated", len(results)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// collectMutations fetches and analyzes every configured pathway, merging
// the per-pathway mutation queues into one priority order and truncating to
// the per-generation target. A pathway that cannot be fetched is skipped;
// the generation proceeds with whatever remains.
func (e *Engine) collectMutations(ctx context.Context, generation int) ([]model.Mutation, error) {
	var merged []model.Mutation

	for _, pathwayID := range e.cfg.PathwayIDs {
		pw, err := e.cfg.Fetcher.Fetch(ctx, pathwayID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			metrics.PathwayFetchFailures.Inc()
			e.cfg.Logger.Warn("skipping pathway",
				zap.String("pathway_id", pathwayID),
				zap.Error(err),
			)
			continue
		}

		graph, err := pathway.NewGraph(pw)
		if err != nil {
			// Malformed source data is boundary input like a failed fetch:
			// skip the pathway, keep the generation going.
			metrics.PathwayGraphFailures.Inc()
			e.cfg.Logger.Warn("skipping malformed pathway",
				zap.String("pathway_id", pathwayID),
				zap.Error(err),
			)
			continue
		}
		stats := graph.Analyze()
		candidates := e.cfg.Analyzer.Candidates(graph)

		mutations, err := evo.Map(stats, candidates, func() string {
			e.mutationSeq++
			return fmt.Sprintf("mut-%d-%d", generation, e.mutationSeq)
		})
		if err != nil {
			return nil, fmt.Errorf("map candidates for %s: %w", pathwayID, err)
		}
		merged = append(merged, mutations...)
	}

	merged = evo.Reorder(merged)
	if len(merged) > e.cfg.TargetMutationsPerGen {
		merged = merged[:e.cfg.TargetMutationsPerGen]
	}
	return merged, nil
}

// record appends one result to the in-memory history and the JSONL log.
// A duplicate mutation id means the id allocator is broken, so the run
// stops instead of corrupting the audit trail.
func (e *Engine) record(result model.FitnessResult) error {
	if _, dup := e.seen[result.MutationID]; dup {
		return fmt.Errorf("duplicate mutation id %s in history", result.MutationID)
	}
	e.seen[result.MutationID] = struct{}{}
	e.history = append(e.history, result)

	if e.cfg.Log != nil {
		if err := e.cfg.Log.Append(result); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) Statistics() model.RunStatistics {
	stats := model.RunStatistics{
		TotalMutations:   len(e.history),
		TotalGenerations: e.generation,
	}

	deltaSum := 0.0
	for _, result := range e.history {
		if result.Success {
			stats.SuccessfulMutations++
		} else {
			stats.FailedMutations++
		}
		deltaSum += result.FitnessDelta
	}
	if stats.TotalMutations > 0 {
		stats.SuccessRate = float64(stats.SuccessfulMutations) / float64(stats.TotalMutations)
		stats.MeanFitnessDelta = deltaSum / float64(stats.TotalMutations)
	}
	if stats.TotalGenerations > 0 {
		stats.MutationsPerGen = float64(stats.TotalMutations) / float64(stats.TotalGenerations)
	}
	return stats
}

// History returns a copy of all recorded results, oldest first.
func (e *Engine) History() []model.FitnessResult {
	return append([]model.FitnessResult(nil), e.history...)
}

func (e *Engine) runState() model.RunState {
	return model.RunState{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		RunID:           e.cfg.RunID,
		Generation:      e.generation,
		MutationHistory: e.History(),
		Statistics:      e.Statistics(),
	}
}

// SaveState snapshots the run to a JSON file.
func (e *Engine) SaveState(path string) error {
	data, err := json.MarshalIndent(e.runState(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode run state: %w", err)
	}
	if err := os.WriteFile(path, data, snapshotFilePermissions); err != nil {
		return fmt.Errorf("write run state %s: %w", path, err)
	}
	return nil
}

// LoadState restores a snapshot written by SaveState. The next Run call
// continues at the snapshot's generation plus one.
func (e *Engine) LoadState(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read run state %s: %w", path, err)
	}
	state, err := storage.DecodeRunState(data)
	if err != nil {
		return fmt.Errorf("decode run state %s: %w", path, err)
	}
	return e.Restore(state)
}

// Restore replaces the engine's run position and history from a snapshot.
func (e *Engine) Restore(state model.RunState) error {
	if state.Generation < 0 {
		return fmt.Errorf("negative generation in run state: %d", state.Generation)
	}

	seen := make(map[string]struct{}, len(state.MutationHistory))
	maxSeq := 0
	for _, result := range state.MutationHistory {
		if _, dup := seen[result.MutationID]; dup {
			return fmt.Errorf("duplicate mutation id %s in restored history", result.MutationID)
		}
		seen[result.MutationID] = struct{}{}

		var gen, seq int
		if _, err := fmt.Sscanf(result.MutationID, "mut-%d-%d", &gen, &seq); err == nil && seq > maxSeq {
			maxSeq = seq
		}
	}

	if state.RunID != "" {
		e.cfg.RunID = state.RunID
	}
	e.generation = state.Generation
	e.history = append([]model.FitnessResult(nil), state.MutationHistory...)
	e.seen = seen
	e.mutationSeq = maxSeq
	return nil
}

func (e *Engine) persist(ctx context.Context) error {
	if e.cfg.Store == nil {
		return nil
	}

	if err := e.cfg.Store.SaveRunState(ctx, e.runState()); err != nil {
		return fmt.Errorf("save run state: %w", err)
	}

	swarmState := e.cfg.Orchestrator.State()
	swarmState.SchemaVersion = storage.CurrentSchemaVersion
	swarmState.CodecVersion = storage.CurrentCodecVersion
	swarmState.Generation = e.generation
	if err := e.cfg.Store.SaveSwarmState(ctx, e.cfg.RunID, swarmState); err != nil {
		return fmt.Errorf("save swarm state: %w", err)
	}

	if err := e.cfg.Store.SaveMutationHistory(ctx, e.cfg.RunID, e.History()); err != nil {
		return fmt.Errorf("save mutation history: %w", err)
	}

	stats := e.Statistics()
	summary := model.RunSummary{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		RunID:            e.cfg.RunID,
		CreatedAtUTC:     time.Now().UTC().Format(time.RFC3339),
		PathwayIDs:       append([]string(nil), e.cfg.PathwayIDs...),
		Generations:      e.generation,
		PopulationSize:   e.cfg.Orchestrator.PopulationSize(),
		TotalMutations:   stats.TotalMutations,
		SuccessRate:      stats.SuccessRate,
		MeanFitnessDelta: stats.MeanFitnessDelta,
	}
	if err := e.cfg.Store.SaveRunSummary(ctx, summary); err != nil {
		return fmt.Errorf("save run summary: %w", err)
	}
	return nil
}
