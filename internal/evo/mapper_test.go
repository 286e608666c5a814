package evo

import (
	"fmt"
	"testing"

	"pathogen/internal/model"
	"pathogen/internal/pathway"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("mut-1-%d", n)
	}
}

func TestSpecForCoversAllCandidateTypes(t *testing.T) {
	cases := []struct {
		candidate model.CandidateType
		operator  model.Operator
		priority  model.Priority
	}{
		{model.CandidateBranchingPathway, model.OpFunctionDecomposition, model.PriorityHigh},
		{model.CandidateCatalyticReaction, model.OpCodeOptimization, model.PriorityMedium},
		{model.CandidateMetabolicCross, model.OpModuleCombination, model.PriorityMedium},
		{model.CandidateInhibition, model.OpDeadCodeRemoval, model.PriorityLow},
		{model.CandidateLinearChain, model.OpPipelineCreation, model.PriorityMedium},
		{model.CandidateConvergencePoint, model.OpAbstractionCreation, model.PriorityHigh},
	}

	for _, tc := range cases {
		spec, ok := SpecFor(tc.candidate)
		if !ok {
			t.Fatalf("no spec for %s", tc.candidate)
		}
		if spec.Operator != tc.operator {
			t.Fatalf("%s operator = %s, want %s", tc.candidate, spec.Operator, tc.operator)
		}
		if spec.Priority != tc.priority {
			t.Fatalf("%s priority = %s, want %s", tc.candidate, spec.Priority, tc.priority)
		}
		if spec.Description == "" {
			t.Fatalf("%s has empty description", tc.candidate)
		}
	}

	if _, ok := SpecFor(model.CandidateType("nonsense")); ok {
		t.Fatal("expected no spec for unknown candidate type")
	}
}

func TestMapPreservesCandidateCount(t *testing.T) {
	candidates := []model.MutationCandidate{
		{Type: model.CandidateCatalyticReaction, NodeID: "e1"},
		{Type: model.CandidateBranchingPathway, NodeID: "b1", OutDegree: 2},
		{Type: model.CandidateInhibition, NodeID: "i1"},
	}

	mutations, err := Map(pathway.Stats{}, candidates, sequentialIDs())
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if len(mutations) != len(candidates) {
		t.Fatalf("mutation count = %d, want %d", len(mutations), len(candidates))
	}
	for _, m := range mutations {
		if m.ID == "" {
			t.Fatalf("mutation without id: %+v", m)
		}
		if m.Source.NodeID == "" {
			t.Fatalf("mutation without source: %+v", m)
		}
	}
}

func TestMapOrdersByPriorityThenConfidence(t *testing.T) {
	candidates := []model.MutationCandidate{
		{Type: model.CandidateInhibition, NodeID: "low"},
		{Type: model.CandidateCatalyticReaction, NodeID: "med"},
		{Type: model.CandidateBranchingPathway, NodeID: "high", OutDegree: 2},
	}

	mutations, err := Map(pathway.Stats{}, candidates, sequentialIDs())
	if err != nil {
		t.Fatalf("map: %v", err)
	}

	wantOrder := []string{"high", "med", "low"}
	for i, nodeID := range wantOrder {
		if mutations[i].Source.NodeID != nodeID {
			t.Fatalf("position %d = %s, want %s", i, mutations[i].Source.NodeID, nodeID)
		}
	}
}

func TestMapStableOnPriorityTies(t *testing.T) {
	// Catalytic and linear chain share medium priority and base confidence,
	// so discovery order must survive the sort.
	candidates := []model.MutationCandidate{
		{Type: model.CandidateCatalyticReaction, NodeID: "first"},
		{Type: model.CandidateLinearChain, NodeID: "second", PathLength: 3},
	}

	mutations, err := Map(pathway.Stats{}, candidates, sequentialIDs())
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if mutations[0].Source.NodeID != "first" || mutations[1].Source.NodeID != "second" {
		t.Fatalf("tie order not preserved: %+v", mutations)
	}
}

func TestMapRejectsUnknownCandidateType(t *testing.T) {
	candidates := []model.MutationCandidate{{Type: model.CandidateType("mystery")}}
	if _, err := Map(pathway.Stats{}, candidates, sequentialIDs()); err == nil {
		t.Fatal("expected error for unknown candidate type")
	}
}

func TestMapRequiresIDAllocator(t *testing.T) {
	if _, err := Map(pathway.Stats{}, nil, nil); err == nil {
		t.Fatal("expected error for nil id allocator")
	}
}

func TestConfidenceBase(t *testing.T) {
	got := Confidence(model.MutationCandidate{Type: model.CandidateCatalyticReaction}, pathway.Stats{})
	if got != 0.5 {
		t.Fatalf("base confidence = %v, want 0.5", got)
	}
}

func TestConfidenceBranchingBonusCapped(t *testing.T) {
	moderate := Confidence(model.MutationCandidate{
		Type:      model.CandidateBranchingPathway,
		OutDegree: 2,
	}, pathway.Stats{})
	if moderate != 0.7 {
		t.Fatalf("confidence with out-degree 2 = %v, want 0.7", moderate)
	}

	capped := Confidence(model.MutationCandidate{
		Type:      model.CandidateBranchingPathway,
		OutDegree: 10,
	}, pathway.Stats{})
	if capped != 0.8 {
		t.Fatalf("capped confidence = %v, want 0.8", capped)
	}
}

func TestConfidenceStructuralBonuses(t *testing.T) {
	stats := pathway.Stats{Acyclic: true, Density: 0.4}
	got := Confidence(model.MutationCandidate{Type: model.CandidateCatalyticReaction}, stats)
	if got != 0.7 {
		t.Fatalf("confidence with both bonuses = %v, want 0.7", got)
	}
}

func TestConfidenceNeverExceedsOne(t *testing.T) {
	stats := pathway.Stats{Acyclic: true, Density: 0.9}
	got := Confidence(model.MutationCandidate{
		Type:      model.CandidateBranchingPathway,
		OutDegree: 10,
	}, stats)
	if got != 1.0 {
		t.Fatalf("confidence = %v, want clamp at 1.0", got)
	}
}

func TestReorderMergedQueues(t *testing.T) {
	mutations := []model.Mutation{
		{ID: "a", Priority: model.PriorityLow, Confidence: 0.9},
		{ID: "b", Priority: model.PriorityHigh, Confidence: 0.5},
		{ID: "c", Priority: model.PriorityHigh, Confidence: 0.8},
	}

	ordered := Reorder(mutations)
	wantOrder := []string{"c", "b", "a"}
	for i, id := range wantOrder {
		if ordered[i].ID != id {
			t.Fatalf("position %d = %s, want %s", i, ordered[i].ID, id)
		}
	}
}
