package storage

import (
	"context"
	"sort"
	"sync"

	"pathogen/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runStates   map[string]model.RunState
	swarmStates map[string]model.SwarmState
	summaries   map[string]model.RunSummary
	history     map[string][]model.FitnessResult
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runStates = make(map[string]model.RunState)
	s.swarmStates = make(map[string]model.SwarmState)
	s.summaries = make(map[string]model.RunSummary)
	s.history = make(map[string][]model.FitnessResult)
	return nil
}

func (s *MemoryStore) SaveRunState(_ context.Context, state model.RunState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := state
	copied.MutationHistory = append([]model.FitnessResult(nil), state.MutationHistory...)
	s.runStates[state.RunID] = copied
	return nil
}

func (s *MemoryStore) GetRunState(_ context.Context, runID string) (model.RunState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.runStates[runID]
	if !ok {
		return model.RunState{}, false, nil
	}
	copied := state
	copied.MutationHistory = append([]model.FitnessResult(nil), state.MutationHistory...)
	return copied, true, nil
}

func (s *MemoryStore) SaveSwarmState(_ context.Context, runID string, state model.SwarmState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := state
	copied.Agents = append([]model.AgentState(nil), state.Agents...)
	s.swarmStates[runID] = copied
	return nil
}

func (s *MemoryStore) GetSwarmState(_ context.Context, runID string) (model.SwarmState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.swarmStates[runID]
	if !ok {
		return model.SwarmState{}, false, nil
	}
	copied := state
	copied.Agents = append([]model.AgentState(nil), state.Agents...)
	return copied, true, nil
}

func (s *MemoryStore) SaveRunSummary(_ context.Context, summary model.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.summaries[summary.RunID] = summary
	return nil
}

func (s *MemoryStore) GetRunSummary(_ context.Context, runID string) (model.RunSummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, ok := s.summaries[runID]
	return summary, ok, nil
}

func (s *MemoryStore) ListRunSummaries(_ context.Context) ([]model.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]model.RunSummary, 0, len(s.summaries))
	for _, summary := range s.summaries {
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAtUTC != summaries[j].CreatedAtUTC {
			return summaries[i].CreatedAtUTC < summaries[j].CreatedAtUTC
		}
		return summaries[i].RunID < summaries[j].RunID
	})
	return summaries, nil
}

func (s *MemoryStore) SaveMutationHistory(_ context.Context, runID string, history []model.FitnessResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := append([]model.FitnessResult(nil), history...)
	s.history[runID] = copied
	return nil
}

func (s *MemoryStore) GetMutationHistory(_ context.Context, runID string) ([]model.FitnessResult, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	copied := append([]model.FitnessResult(nil), history...)
	return copied, true, nil
}
