package swarm

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"pathogen/internal/metrics"
	"pathogen/internal/model"
)

const (
	DefaultPopulationSize = 24
	DefaultWorkers        = 4
	DefaultKeepFraction   = 0.2
	knowledgeTopLimit     = 10
)

type Config struct {
	Evaluator      Evaluator
	PopulationSize int
	Workers        int
	LearningRate   float64
	ExperienceSize int
	Logger         *zap.Logger
}

// Orchestrator owns the agent population. Population size is fixed for the
// lifetime of the orchestrator: Evolve replaces agents, never grows or
// shrinks the set.
type Orchestrator struct {
	cfg Config

	mu     sync.RWMutex
	agents []*Agent
}

func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.Evaluator == nil {
		return nil, fmt.Errorf("evaluator is required")
	}
	if cfg.PopulationSize <= 0 {
		cfg.PopulationSize = DefaultPopulationSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = DefaultLearningRate
	}
	if cfg.ExperienceSize <= 0 {
		cfg.ExperienceSize = DefaultExperienceSize
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	o := &Orchestrator{cfg: cfg}

	operators := model.Operators()
	for i := 0; i < cfg.PopulationSize; i++ {
		agent, err := NewAgent(operators[i%len(operators)], cfg.LearningRate, cfg.ExperienceSize)
		if err != nil {
			return nil, err
		}
		o.agents = append(o.agents, agent)
	}

	cfg.Logger.Info("swarm initialized",
		zap.Int("population", cfg.PopulationSize),
		zap.Int("workers", cfg.Workers),
	)
	return o, nil
}

func (o *Orchestrator) PopulationSize() int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return len(o.agents)
}

// AssignAndRun dispatches mutations in their given priority order across a
// bounded worker pool. Completion order is unordered; the returned slice is
// indexed by the input order. Cancelling ctx stops new dispatch while
// in-flight evaluations drain.
func (o *Orchestrator) AssignAndRun(ctx context.Context, generation int, mutations []model.Mutation) []model.FitnessResult {
	if len(mutations) == 0 {
		return nil
	}

	type job struct {
		idx      int
		mutation model.Mutation
	}
	type outcome struct {
		idx    int
		result model.FitnessResult
	}

	jobs := make(chan job)
	outcomes := make(chan outcome, len(mutations))

	workerCount := o.cfg.Workers
	if workerCount > len(mutations) {
		workerCount = len(mutations)
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				agent := o.selectAgent(j.mutation.Operator)
				metrics.MutationsAssigned.WithLabelValues(string(j.mutation.Operator)).Inc()
				o.cfg.Logger.Debug("mutation assigned",
					zap.String("mutation_id", j.mutation.ID),
					zap.String("agent_id", agent.ID()),
					zap.Int("generation", generation),
				)
				result := agent.ApplyMutation(ctx, generation, j.mutation, o.cfg.Evaluator)
				outcomes <- outcome{idx: j.idx, result: result}
			}
		}()
	}

	dispatched := 0
dispatch:
	for i := range mutations {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- job{idx: i, mutation: mutations[i]}:
			dispatched++
		}
	}
	close(jobs)

	wg.Wait()
	close(outcomes)

	results := make([]model.FitnessResult, 0, dispatched)
	byIndex := make(map[int]model.FitnessResult, dispatched)
	for out := range outcomes {
		byIndex[out.idx] = out.result
	}
	for i := range mutations {
		if result, ok := byIndex[i]; ok {
			results = append(results, result)
		}
	}
	return results
}

// selectAgent picks the fittest agent specialized on the operator, falling
// back to the globally fittest agent. Ties keep population order.
func (o *Orchestrator) selectAgent(operator model.Operator) *Agent {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var best *Agent
	for _, agent := range o.agents {
		if agent.Specialization() != operator {
			continue
		}
		if best == nil || agent.Fitness() > best.Fitness() {
			best = agent
		}
	}
	if best != nil {
		return best
	}

	for _, agent := range o.agents {
		if best == nil || agent.Fitness() > best.Fitness() {
			best = agent
		}
	}
	return best
}

// Evolve retains the top keepFraction of agents by fitness and replaces the
// rest with fresh agents cloned round-robin from the retained top
// performers. Never call it while AssignAndRun is in flight.
func (o *Orchestrator) Evolve(keepFraction float64) error {
	if keepFraction <= 0 || keepFraction > 1 {
		return fmt.Errorf("keep fraction must be in (0, 1]: %v", keepFraction)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	ranked := make([]*Agent, len(o.agents))
	copy(ranked, o.agents)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness() > ranked[j].Fitness()
	})

	keepCount := int(float64(len(ranked)) * keepFraction)
	if keepCount < 1 {
		keepCount = 1
	}
	retained := ranked[:keepCount]

	next := make([]*Agent, 0, len(ranked))
	next = append(next, retained...)
	for i := 0; len(next) < len(ranked); i++ {
		template := retained[i%len(retained)]
		clone, err := NewAgent(template.Specialization(), o.cfg.LearningRate, o.cfg.ExperienceSize)
		if err != nil {
			return err
		}
		next = append(next, clone)
	}

	o.agents = next
	o.cfg.Logger.Info("swarm evolved",
		zap.Int("retained", keepCount),
		zap.Int("replaced", len(next)-keepCount),
	)
	return nil
}

// SwarmKnowledge aggregates what the population currently agrees on.
type SwarmKnowledge struct {
	Agents       int      `json:"agents"`
	TopMutations []string `json:"top_mutations"`
	MeanFitness  float64  `json:"mean_fitness"`
}

// AggregateKnowledge tallies every agent's best mutation ids and returns
// the ten most frequent (ties broken by first occurrence) plus the
// population's mean fitness. Pure read; no agent state changes.
func (o *Orchestrator) AggregateKnowledge() SwarmKnowledge {
	o.mu.RLock()
	agents := make([]*Agent, len(o.agents))
	copy(agents, o.agents)
	o.mu.RUnlock()

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0
	fitnessSum := 0.0

	for _, agent := range agents {
		knowledge := agent.ShareKnowledge()
		fitnessSum += knowledge.Fitness
		for _, id := range knowledge.BestMutations {
			if _, seen := counts[id]; !seen {
				firstSeen[id] = order
				order++
			}
			counts[id]++
		}
	}

	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.SliceStable(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return firstSeen[ids[i]] < firstSeen[ids[j]]
	})
	if len(ids) > knowledgeTopLimit {
		ids = ids[:knowledgeTopLimit]
	}

	knowledge := SwarmKnowledge{
		Agents:       len(agents),
		TopMutations: ids,
	}
	if len(agents) > 0 {
		knowledge.MeanFitness = fitnessSum / float64(len(agents))
	}
	return knowledge
}

// SpecializationStats aggregates agents sharing one specialization.
type SpecializationStats struct {
	Count       int     `json:"count"`
	MeanFitness float64 `json:"mean_fitness"`
}

// Statistics summarizes the whole swarm.
type Statistics struct {
	PopulationSize   int                                    `json:"population_size"`
	TotalMutations   int                                    `json:"total_mutations"`
	TotalSuccessful  int                                    `json:"total_successful"`
	SuccessRate      float64                                `json:"success_rate"`
	MeanFitness      float64                                `json:"mean_fitness"`
	TopAgents        []model.AgentState                     `json:"top_agents"`
	BySpecialization map[model.Operator]SpecializationStats `json:"by_specialization"`
}

const topAgentSample = 10

func (o *Orchestrator) Statistics() Statistics {
	o.mu.RLock()
	agents := make([]*Agent, len(o.agents))
	copy(agents, o.agents)
	o.mu.RUnlock()

	stats := Statistics{
		PopulationSize:   len(agents),
		BySpecialization: make(map[model.Operator]SpecializationStats),
	}

	states := make([]model.AgentState, 0, len(agents))
	fitnessSum := 0.0
	specSums := make(map[model.Operator]float64)

	for _, agent := range agents {
		state := agent.State()
		states = append(states, state)
		stats.TotalMutations += state.MutationsApplied
		stats.TotalSuccessful += state.Successes
		fitnessSum += state.Fitness

		entry := stats.BySpecialization[state.Specialization]
		entry.Count++
		stats.BySpecialization[state.Specialization] = entry
		specSums[state.Specialization] += state.Fitness
	}

	for spec, entry := range stats.BySpecialization {
		entry.MeanFitness = specSums[spec] / float64(entry.Count)
		stats.BySpecialization[spec] = entry
	}
	if len(agents) > 0 {
		stats.MeanFitness = fitnessSum / float64(len(agents))
	}
	if stats.TotalMutations > 0 {
		stats.SuccessRate = float64(stats.TotalSuccessful) / float64(stats.TotalMutations)
	}

	sort.SliceStable(states, func(i, j int) bool {
		return states[i].Fitness > states[j].Fitness
	})
	if len(states) > topAgentSample {
		states = states[:topAgentSample]
	}
	stats.TopAgents = states

	return stats
}

// State snapshots every agent for persistence. Generation is filled in by
// the engine that owns the counter.
func (o *Orchestrator) State() model.SwarmState {
	o.mu.RLock()
	defer o.mu.RUnlock()

	state := model.SwarmState{Agents: make([]model.AgentState, 0, len(o.agents))}
	for _, agent := range o.agents {
		state.Agents = append(state.Agents, agent.State())
	}
	return state
}

// Restore replaces the population from a persisted snapshot. The snapshot
// must carry the same population size the orchestrator was built with.
func (o *Orchestrator) Restore(state model.SwarmState) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(state.Agents) != len(o.agents) {
		return fmt.Errorf("population size mismatch: got=%d want=%d", len(state.Agents), len(o.agents))
	}

	restored := make([]*Agent, 0, len(state.Agents))
	for _, agentState := range state.Agents {
		agent, err := RestoreAgent(agentState, o.cfg.LearningRate, o.cfg.ExperienceSize)
		if err != nil {
			return err
		}
		restored = append(restored, agent)
	}
	o.agents = restored
	return nil
}
