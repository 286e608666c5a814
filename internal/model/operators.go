package model

import "fmt"

// CandidateType is the closed set of structural patterns the analyzer emits.
type CandidateType string

const (
	CandidateBranchingPathway  CandidateType = "branching_pathway"
	CandidateCatalyticReaction CandidateType = "catalytic_reaction"
	CandidateMetabolicCross    CandidateType = "metabolic_crossover"
	CandidateInhibition        CandidateType = "pathway_inhibition"
	CandidateLinearChain       CandidateType = "linear_chain"
	CandidateConvergencePoint  CandidateType = "convergence_point"
)

func (t CandidateType) Valid() bool {
	switch t {
	case CandidateBranchingPathway, CandidateCatalyticReaction, CandidateMetabolicCross,
		CandidateInhibition, CandidateLinearChain, CandidateConvergencePoint:
		return true
	}
	return false
}

// Operator is the closed set of code-transformation strategies a mutation
// can carry. Agents specialize on exactly one operator.
type Operator string

const (
	OpFunctionDecomposition Operator = "function_decomposition"
	OpCodeOptimization      Operator = "code_optimization"
	OpModuleCombination     Operator = "module_combination"
	OpDeadCodeRemoval       Operator = "dead_code_removal"
	OpPipelineCreation      Operator = "pipeline_creation"
	OpAbstractionCreation   Operator = "abstraction_creation"
)

// Operators lists every operator in a fixed order. Swarm initialization
// assigns specializations round-robin over this slice.
func Operators() []Operator {
	return []Operator{
		OpFunctionDecomposition,
		OpCodeOptimization,
		OpModuleCombination,
		OpDeadCodeRemoval,
		OpPipelineCreation,
		OpAbstractionCreation,
	}
}

func (o Operator) Valid() bool {
	switch o {
	case OpFunctionDecomposition, OpCodeOptimization, OpModuleCombination,
		OpDeadCodeRemoval, OpPipelineCreation, OpAbstractionCreation:
		return true
	}
	return false
}

func ParseOperator(s string) (Operator, error) {
	op := Operator(s)
	if !op.Valid() {
		return "", fmt.Errorf("unknown operator: %s", s)
	}
	return op, nil
}

// Priority orders mutations for dispatch. Higher rank dispatches first.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}
