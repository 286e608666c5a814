// Package swarm manages the population of specialized evaluator agents and
// its fitness-driven evolution across generations.
package swarm

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"pathogen/internal/model"
)

const (
	// Fitness bounds every agent stays inside after each learning update.
	MinFitness     = 0.1
	MaxFitness     = 1.0
	InitialFitness = 0.5

	DefaultLearningRate   = 0.1
	DefaultExperienceSize = 200

	// Matching specializations amplify the learning signal.
	specializationBoost = 1.5

	bestPracticeLimit = 5
)

// Evaluator is the scoring boundary an agent delegates to. Satisfied by
// *fitness.Evaluator.
type Evaluator interface {
	Evaluate(ctx context.Context, generation int, mutation model.Mutation) model.FitnessResult
}

// Agent applies mutations one at a time and adapts its own fitness from the
// outcomes. Each agent owns its state exclusively; the orchestrator only
// touches it through these methods.
type Agent struct {
	id             string
	specialization model.Operator
	learningRate   float64

	// applyMu serializes ApplyMutation: one mutation in flight per agent.
	applyMu sync.Mutex

	mu               sync.RWMutex
	fitness          float64
	mutationsApplied int
	successes        int
	experience       *experienceRing
}

func NewAgent(specialization model.Operator, learningRate float64, experienceSize int) (*Agent, error) {
	if !specialization.Valid() {
		return nil, fmt.Errorf("invalid specialization: %s", specialization)
	}
	if learningRate <= 0 {
		learningRate = DefaultLearningRate
	}
	if experienceSize <= 0 {
		experienceSize = DefaultExperienceSize
	}

	return &Agent{
		id:             "agent-" + uuid.NewString()[:8],
		specialization: specialization,
		learningRate:   learningRate,
		fitness:        InitialFitness,
		experience:     newExperienceRing(experienceSize),
	}, nil
}

// RestoreAgent rebuilds an agent from a persisted snapshot. Fitness outside
// the legal range is a corrupt snapshot, not flakiness, so it is rejected.
func RestoreAgent(state model.AgentState, learningRate float64, experienceSize int) (*Agent, error) {
	agent, err := NewAgent(state.Specialization, learningRate, experienceSize)
	if err != nil {
		return nil, err
	}
	if state.Fitness < MinFitness || state.Fitness > MaxFitness {
		return nil, fmt.Errorf("agent %s fitness out of range: %v", state.ID, state.Fitness)
	}
	if state.MutationsApplied < state.Successes {
		return nil, fmt.Errorf("agent %s has more successes than applications", state.ID)
	}
	if state.ID != "" {
		agent.id = state.ID
	}
	agent.fitness = state.Fitness
	agent.mutationsApplied = state.MutationsApplied
	agent.successes = state.Successes
	return agent, nil
}

func (a *Agent) ID() string { return a.id }

func (a *Agent) Specialization() model.Operator { return a.specialization }

func (a *Agent) Fitness() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.fitness
}

// ApplyMutation evaluates one mutation and folds the outcome into the
// agent's fitness. The exponential-moving update amplifies deltas on the
// agent's own specialization by 1.5x and clamps fitness into
// [MinFitness, MaxFitness].
func (a *Agent) ApplyMutation(ctx context.Context, generation int, mutation model.Mutation, evaluator Evaluator) model.FitnessResult {
	a.applyMu.Lock()
	defer a.applyMu.Unlock()

	result := evaluator.Evaluate(ctx, generation, mutation)
	result.AgentID = a.id

	a.mu.Lock()
	defer a.mu.Unlock()

	deltaEffective := result.FitnessDelta
	if mutation.Operator == a.specialization {
		deltaEffective *= specializationBoost
	}
	a.fitness += a.learningRate * deltaEffective
	if a.fitness < MinFitness {
		a.fitness = MinFitness
	}
	if a.fitness > MaxFitness {
		a.fitness = MaxFitness
	}

	a.mutationsApplied++
	if result.Success {
		a.successes++
	}
	a.experience.append(result)

	return result
}

// Knowledge is a read-only snapshot an agent shares with the swarm.
type Knowledge struct {
	AgentID        string
	Specialization model.Operator
	Fitness        float64
	// BestMutations holds up to five successful mutation ids, highest
	// fitness delta first.
	BestMutations []string
}

// ShareKnowledge snapshots the agent without mutating it.
func (a *Agent) ShareKnowledge() Knowledge {
	a.mu.RLock()
	defer a.mu.RUnlock()

	successful := make([]model.FitnessResult, 0, a.experience.len())
	for _, result := range a.experience.items() {
		if result.Success {
			successful = append(successful, result)
		}
	}
	sort.SliceStable(successful, func(i, j int) bool {
		return successful[i].FitnessDelta > successful[j].FitnessDelta
	})
	if len(successful) > bestPracticeLimit {
		successful = successful[:bestPracticeLimit]
	}

	best := make([]string, 0, len(successful))
	for _, result := range successful {
		best = append(best, result.MutationID)
	}

	return Knowledge{
		AgentID:        a.id,
		Specialization: a.specialization,
		Fitness:        a.fitness,
		BestMutations:  best,
	}
}

// State snapshots the agent for persistence.
func (a *Agent) State() model.AgentState {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return model.AgentState{
		ID:               a.id,
		Specialization:   a.specialization,
		Fitness:          a.fitness,
		MutationsApplied: a.mutationsApplied,
		Successes:        a.successes,
	}
}

// experienceRing keeps the most recent N results, evicting oldest first.
type experienceRing struct {
	buf  []model.FitnessResult
	next int
	full bool
}

func newExperienceRing(capacity int) *experienceRing {
	return &experienceRing{buf: make([]model.FitnessResult, capacity)}
}

func (r *experienceRing) append(result model.FitnessResult) {
	r.buf[r.next] = result
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
}

func (r *experienceRing) len() int {
	if r.full {
		return len(r.buf)
	}
	return r.next
}

// items returns results oldest to newest.
func (r *experienceRing) items() []model.FitnessResult {
	if !r.full {
		return append([]model.FitnessResult(nil), r.buf[:r.next]...)
	}
	out := make([]model.FitnessResult, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	out = append(out, r.buf[:r.next]...)
	return out
}
