// Package evo maps structural pathway candidates onto prioritized
// code-mutation operations.
package evo

import (
	"fmt"
	"sort"

	"pathogen/internal/model"
	"pathogen/internal/pathway"
)

// OperatorSpec is the fixed mapping target for one candidate type.
type OperatorSpec struct {
	Operator    model.Operator
	Description string
	Priority    model.Priority
}

// SpecFor resolves the static candidate-type table. The mapping is total
// over the closed CandidateType set; extending the set without extending
// this switch surfaces as a mapping error at run time.
func SpecFor(t model.CandidateType) (OperatorSpec, bool) {
	switch t {
	case model.CandidateBranchingPathway:
		return OperatorSpec{
			Operator:    model.OpFunctionDecomposition,
			Description: "Split complex functions into smaller, focused functions",
			Priority:    model.PriorityHigh,
		}, true
	case model.CandidateCatalyticReaction:
		return OperatorSpec{
			Operator:    model.OpCodeOptimization,
			Description: "Optimize code performance using catalytic patterns",
			Priority:    model.PriorityMedium,
		}, true
	case model.CandidateMetabolicCross:
		return OperatorSpec{
			Operator:    model.OpModuleCombination,
			Description: "Combine related modules for better cohesion",
			Priority:    model.PriorityMedium,
		}, true
	case model.CandidateInhibition:
		return OperatorSpec{
			Operator:    model.OpDeadCodeRemoval,
			Description: "Remove unused code and optimize imports",
			Priority:    model.PriorityLow,
		}, true
	case model.CandidateLinearChain:
		return OperatorSpec{
			Operator:    model.OpPipelineCreation,
			Description: "Create processing pipelines from linear operations",
			Priority:    model.PriorityMedium,
		}, true
	case model.CandidateConvergencePoint:
		return OperatorSpec{
			Operator:    model.OpAbstractionCreation,
			Description: "Create abstractions for common patterns",
			Priority:    model.PriorityHigh,
		}, true
	default:
		return OperatorSpec{}, false
	}
}

const (
	baseConfidence        = 0.5
	successorBonusPerEdge = 0.1
	successorBonusCap     = 0.3
	acyclicBonus          = 0.1
	densityBonus          = 0.1
	densityThreshold      = 0.3
)

// Map turns candidates into a priority-ordered mutation queue. Every
// candidate maps to exactly one mutation; ids come from the caller's
// allocator so they stay monotonic across pathways and generations.
// Ordering is stable: ties on (priority, confidence) keep discovery order.
func Map(stats pathway.Stats, candidates []model.MutationCandidate, nextID func() string) ([]model.Mutation, error) {
	if nextID == nil {
		return nil, fmt.Errorf("mutation id allocator is required")
	}

	mutations := make([]model.Mutation, 0, len(candidates))
	for _, candidate := range candidates {
		spec, ok := SpecFor(candidate.Type)
		if !ok {
			return nil, fmt.Errorf("no operator mapping for candidate type %q", candidate.Type)
		}
		mutations = append(mutations, model.Mutation{
			ID:          nextID(),
			Type:        candidate.Type,
			Operator:    spec.Operator,
			Description: spec.Description,
			Priority:    spec.Priority,
			Confidence:  Confidence(candidate, stats),
			Source:      candidate,
		})
	}

	return Reorder(mutations), nil
}

// Reorder sorts mutations by priority rank then confidence, highest first.
// The sort is stable, so ties keep their current order. Used both inside Map
// and when merging queues from multiple pathways.
func Reorder(mutations []model.Mutation) []model.Mutation {
	sort.SliceStable(mutations, func(i, j int) bool {
		if mutations[i].Priority.Rank() != mutations[j].Priority.Rank() {
			return mutations[i].Priority.Rank() > mutations[j].Priority.Rank()
		}
		return mutations[i].Confidence > mutations[j].Confidence
	})
	return mutations
}

// Confidence scores one candidate in [0, 1]: base 0.5, plus structural
// bonuses for branching fan-out, acyclicity, and graph density.
func Confidence(candidate model.MutationCandidate, stats pathway.Stats) float64 {
	confidence := baseConfidence

	if candidate.Type == model.CandidateBranchingPathway {
		bonus := float64(candidate.OutDegree) * successorBonusPerEdge
		if bonus > successorBonusCap {
			bonus = successorBonusCap
		}
		confidence += bonus
	}
	if stats.Acyclic {
		confidence += acyclicBonus
	}
	if stats.Density > densityThreshold {
		confidence += densityBonus
	}

	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}
