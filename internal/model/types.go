package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// NodeType classifies pathway graph nodes.
type NodeType string

const (
	NodeGene     NodeType = "gene"
	NodeCompound NodeType = "compound"
	NodeEnzyme   NodeType = "enzyme"
	NodeReaction NodeType = "reaction"
	NodeUnknown  NodeType = "unknown"
)

type Pathway struct {
	VersionedRecord
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Genes     []string      `json:"genes,omitempty"`
	Compounds []string      `json:"compounds,omitempty"`
	Nodes     []PathwayNode `json:"nodes"`
	Edges     []PathwayEdge `json:"edges"`
}

type PathwayNode struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Name     string   `json:"name,omitempty"`
	Reaction string   `json:"reaction,omitempty"`
}

type PathwayEdge struct {
	From       string            `json:"from"`
	To         string            `json:"to"`
	Type       string            `json:"type,omitempty"`
	ReactionID string            `json:"reaction_id,omitempty"`
	Subtypes   map[string]string `json:"subtypes,omitempty"`
}

// MutationCandidate is a structural pattern found in a pathway graph. It only
// lives inside one generation's analysis pass.
type MutationCandidate struct {
	Type       CandidateType `json:"type"`
	NodeID     string        `json:"node_id,omitempty"`
	Path       []string      `json:"path,omitempty"`
	OutDegree  int           `json:"out_degree,omitempty"`
	InDegree   int           `json:"in_degree,omitempty"`
	PathLength int           `json:"path_length,omitempty"`
	Successors []string      `json:"successors,omitempty"`
	Reaction   string        `json:"reaction,omitempty"`
}

// Mutation is an immutable, priority-ranked code-mutation operation mapped
// from one candidate. IDs are unique for the whole run.
type Mutation struct {
	ID          string            `json:"id"`
	Type        CandidateType     `json:"type"`
	Operator    Operator          `json:"operator"`
	Description string            `json:"description"`
	Priority    Priority          `json:"priority"`
	Confidence  float64           `json:"confidence"`
	Source      MutationCandidate `json:"source"`
}

// FitnessResult records the outcome of evaluating one mutation. One record
// per mutation, appended to the run's mutation log and never mutated.
type FitnessResult struct {
	MutationID   string        `json:"mutation_id"`
	Generation   int           `json:"generation"`
	Type         CandidateType `json:"type"`
	Operator     Operator      `json:"operator"`
	Confidence   float64       `json:"confidence"`
	Success      bool          `json:"success"`
	FitnessDelta float64       `json:"fitness_delta"`
	Timestamp    float64       `json:"timestamp"`
	AgentID      string        `json:"agent_id,omitempty"`
}

// AgentState is the persistable view of one swarm agent.
type AgentState struct {
	ID               string   `json:"id"`
	Specialization   Operator `json:"specialization"`
	Fitness          float64  `json:"fitness"`
	MutationsApplied int      `json:"mutations_applied"`
	Successes        int      `json:"successes"`
}

type SwarmState struct {
	VersionedRecord
	Agents     []AgentState `json:"agents"`
	Generation int          `json:"generation"`
}

type RunStatistics struct {
	TotalMutations      int     `json:"total_mutations"`
	SuccessfulMutations int     `json:"successful_mutations"`
	FailedMutations     int     `json:"failed_mutations"`
	SuccessRate         float64 `json:"success_rate"`
	MeanFitnessDelta    float64 `json:"mean_fitness_delta"`
	TotalGenerations    int     `json:"total_generations"`
	MutationsPerGen     float64 `json:"mutations_per_generation"`
}

// RunState is the snapshot that makes a run resumable: restoring it and
// continuing at Generation+1 preserves the full mutation history.
type RunState struct {
	VersionedRecord
	RunID           string          `json:"run_id,omitempty"`
	Generation      int             `json:"generation"`
	MutationHistory []FitnessResult `json:"mutation_history"`
	Statistics      RunStatistics   `json:"statistics"`
}

type RunSummary struct {
	VersionedRecord
	RunID            string   `json:"run_id"`
	CreatedAtUTC     string   `json:"created_at_utc"`
	PathwayIDs       []string `json:"pathway_ids"`
	Generations      int      `json:"generations"`
	PopulationSize   int      `json:"population_size"`
	TotalMutations   int      `json:"total_mutations"`
	SuccessRate      float64  `json:"success_rate"`
	MeanFitnessDelta float64  `json:"mean_fitness_delta"`
}
