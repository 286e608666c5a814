// Package pathogen is the public entry point for running bio-inspired code
// mutation: pathway graphs are analyzed into mutation candidates, mapped to
// code operators, and evaluated by an evolving agent swarm.
package pathogen

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"pathogen/internal/engine"
	"pathogen/internal/fitness"
	"pathogen/internal/model"
	"pathogen/internal/pathway"
	"pathogen/internal/storage"
	"pathogen/internal/swarm"
)

const defaultDBPath = "pathogen.db"

type Options struct {
	StoreKind string
	DBPath    string
	Logger    *zap.Logger
}

type Client struct {
	store  storage.Store
	logger *zap.Logger

	initialized bool
}

type RunRequest struct {
	// Source provides pathway graphs; Scorer benchmarks mutated artifacts.
	// Both are required.
	Source pathway.Source
	Scorer fitness.Scorer

	RunID                  string
	PathwayIDs             []string
	Generations            int
	MutationsPerGeneration int
	PopulationSize         int
	Workers                int
	EvolveEvery            int
	KeepFraction           float64
	LearningRate           float64
	Baseline               float64
	MaxLinearChains        int

	// MutationLogPath appends every fitness result as JSONL when set.
	MutationLogPath string
	// StatePath snapshots the run on completion; with Resume it is also
	// loaded first so the run continues where the snapshot stopped.
	StatePath string
	Resume    bool
}

type RunSummary struct {
	RunID               string
	Generations         int
	TotalMutations      int
	SuccessfulMutations int
	SuccessRate         float64
	MeanFitnessDelta    float64
	MeanAgentFitness    float64
	TopMutations        []string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{store: store, logger: logger}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.ensureStore(ctx)
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Source == nil {
		return RunSummary{}, errors.New("pathway source is required")
	}
	if req.Scorer == nil {
		return RunSummary{}, errors.New("scorer is required")
	}
	if err := c.ensureStore(ctx); err != nil {
		return RunSummary{}, err
	}

	fetcher, err := pathway.NewFetcher(pathway.FetcherConfig{
		Source: req.Source,
		Cache:  pathway.NewCache(),
		Logger: c.logger,
	})
	if err != nil {
		return RunSummary{}, err
	}

	evaluator, err := fitness.NewEvaluator(fitness.Config{
		Scorer:   req.Scorer,
		Baseline: req.Baseline,
		Logger:   c.logger,
	})
	if err != nil {
		return RunSummary{}, err
	}

	orchestrator, err := swarm.NewOrchestrator(swarm.Config{
		Evaluator:      evaluator,
		PopulationSize: req.PopulationSize,
		Workers:        req.Workers,
		LearningRate:   req.LearningRate,
		Logger:         c.logger,
	})
	if err != nil {
		return RunSummary{}, err
	}

	var log *engine.MutationLog
	if req.MutationLogPath != "" {
		log, err = engine.OpenMutationLog(req.MutationLogPath)
		if err != nil {
			return RunSummary{}, err
		}
		defer log.Close()
	}

	eng, err := engine.New(engine.Config{
		RunID:                 req.RunID,
		PathwayIDs:            req.PathwayIDs,
		Generations:           req.Generations,
		TargetMutationsPerGen: req.MutationsPerGeneration,
		EvolveEvery:           req.EvolveEvery,
		KeepFraction:          req.KeepFraction,
		Analyzer:              &pathway.Analyzer{MaxLinearChains: req.MaxLinearChains},
		Fetcher:               fetcher,
		Orchestrator:          orchestrator,
		Log:                   log,
		Store:                 c.store,
		Logger:                c.logger,
	})
	if err != nil {
		return RunSummary{}, err
	}

	if req.Resume {
		if req.StatePath == "" {
			return RunSummary{}, errors.New("resume requires a state path")
		}
		if err := c.resume(ctx, eng, orchestrator, req.StatePath); err != nil {
			return RunSummary{}, err
		}
	}

	if err := eng.Run(ctx); err != nil {
		return RunSummary{}, err
	}

	if req.StatePath != "" {
		if err := eng.SaveState(req.StatePath); err != nil {
			return RunSummary{}, err
		}
	}

	stats := eng.Statistics()
	knowledge := orchestrator.AggregateKnowledge()
	return RunSummary{
		RunID:               eng.RunID(),
		Generations:         stats.TotalGenerations,
		TotalMutations:      stats.TotalMutations,
		SuccessfulMutations: stats.SuccessfulMutations,
		SuccessRate:         stats.SuccessRate,
		MeanFitnessDelta:    stats.MeanFitnessDelta,
		MeanAgentFitness:    knowledge.MeanFitness,
		TopMutations:        knowledge.TopMutations,
	}, nil
}

// resume restores the run snapshot and, when the store holds a swarm
// snapshot for the same run, the agent population with it.
func (c *Client) resume(ctx context.Context, eng *engine.Engine, orchestrator *swarm.Orchestrator, statePath string) error {
	if _, err := os.Stat(statePath); err != nil {
		return fmt.Errorf("resume state %s: %w", statePath, err)
	}
	if err := eng.LoadState(statePath); err != nil {
		return err
	}

	swarmState, ok, err := c.store.GetSwarmState(ctx, eng.RunID())
	if err != nil {
		return err
	}
	if ok {
		if err := orchestrator.Restore(swarmState); err != nil {
			return fmt.Errorf("restore swarm for run %s: %w", eng.RunID(), err)
		}
	}
	return nil
}

func (c *Client) Runs(ctx context.Context, limit int) ([]model.RunSummary, error) {
	if limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}

	summaries, err := c.store.ListRunSummaries(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[len(summaries)-limit:]
	}
	return summaries, nil
}

func (c *Client) History(ctx context.Context, runID string) ([]model.FitnessResult, error) {
	if runID == "" {
		return nil, errors.New("run id is required")
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}

	history, ok, err := c.store.GetMutationHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("mutation history not found for run id: %s", runID)
	}
	return history, nil
}

func (c *Client) SwarmState(ctx context.Context, runID string) (model.SwarmState, error) {
	if runID == "" {
		return model.SwarmState{}, errors.New("run id is required")
	}
	if err := c.ensureStore(ctx); err != nil {
		return model.SwarmState{}, err
	}

	state, ok, err := c.store.GetSwarmState(ctx, runID)
	if err != nil {
		return model.SwarmState{}, err
	}
	if !ok {
		return model.SwarmState{}, fmt.Errorf("swarm state not found for run id: %s", runID)
	}
	return state, nil
}

func (c *Client) ensureStore(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}
