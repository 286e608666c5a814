package pathogen

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"pathogen/internal/model"
	"pathogen/internal/pathway"
)

type staticSource struct {
	pathways map[string]model.Pathway
}

func (s *staticSource) FetchPathwayGraph(_ context.Context, pathwayID string) (model.Pathway, error) {
	pw, ok := s.pathways[pathwayID]
	if !ok {
		return model.Pathway{}, fmt.Errorf("%w: %s", pathway.ErrPathwayNotFound, pathwayID)
	}
	return pw, nil
}

type fixedScorer struct {
	score float64
}

func (s *fixedScorer) Score(context.Context, model.Mutation) (float64, error) {
	return s.score, nil
}

func testPathway(id string) model.Pathway {
	return model.Pathway{
		ID: id,
		Nodes: []model.PathwayNode{
			{ID: "hub", Type: model.NodeGene},
			{ID: "x", Type: model.NodeCompound},
			{ID: "y", Type: model.NodeCompound},
			{ID: "end", Type: model.NodeEnzyme},
		},
		Edges: []model.PathwayEdge{
			{From: "hub", To: "x"},
			{From: "hub", To: "y"},
			{From: "x", To: "end"},
			{From: "y", To: "end"},
		},
	}
}

func testRequest(t *testing.T, runID string) RunRequest {
	t.Helper()
	dir := t.TempDir()
	return RunRequest{
		Source:                 &staticSource{pathways: map[string]model.Pathway{"ko00010": testPathway("ko00010")}},
		Scorer:                 &fixedScorer{score: 1.0},
		RunID:                  runID,
		PathwayIDs:             []string{"ko00010"},
		Generations:            2,
		MutationsPerGeneration: 4,
		PopulationSize:         6,
		Workers:                2,
		Baseline:               0.5,
		MutationLogPath:        filepath.Join(dir, "mutations.jsonl"),
		StatePath:              filepath.Join(dir, "state.json"),
	}
}

func TestClientRunProducesSummary(t *testing.T) {
	client, err := New(Options{StoreKind: "memory"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	summary, err := client.Run(context.Background(), testRequest(t, "run-api"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if summary.RunID != "run-api" {
		t.Fatalf("run id = %s", summary.RunID)
	}
	if summary.Generations != 2 {
		t.Fatalf("generations = %d, want 2", summary.Generations)
	}
	if summary.TotalMutations == 0 || summary.SuccessfulMutations != summary.TotalMutations {
		t.Fatalf("every mutation should improve on the baseline: %+v", summary)
	}
	if summary.SuccessRate != 1.0 {
		t.Fatalf("success rate = %v, want 1.0", summary.SuccessRate)
	}
	if len(summary.TopMutations) == 0 {
		t.Fatal("expected top mutations from swarm knowledge")
	}
}

func TestClientRunRequiresSourceAndScorer(t *testing.T) {
	client, err := New(Options{StoreKind: "memory"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	req := testRequest(t, "run-bad")
	req.Source = nil
	if _, err := client.Run(context.Background(), req); err == nil {
		t.Fatal("expected error without a source")
	}

	req = testRequest(t, "run-bad")
	req.Scorer = nil
	if _, err := client.Run(context.Background(), req); err == nil {
		t.Fatal("expected error without a scorer")
	}
}

func TestClientRunsAndHistory(t *testing.T) {
	client, err := New(Options{StoreKind: "memory"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	if _, err := client.Run(ctx, testRequest(t, "run-query")); err != nil {
		t.Fatalf("run: %v", err)
	}

	summaries, err := client.Runs(ctx, 10)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(summaries) != 1 || summaries[0].RunID != "run-query" {
		t.Fatalf("unexpected summaries: %+v", summaries)
	}

	history, err := client.History(ctx, "run-query")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) == 0 {
		t.Fatal("expected recorded history")
	}

	state, err := client.SwarmState(ctx, "run-query")
	if err != nil {
		t.Fatalf("swarm state: %v", err)
	}
	if len(state.Agents) != 6 {
		t.Fatalf("agent count = %d, want 6", len(state.Agents))
	}

	if _, err := client.History(ctx, "run-missing"); err == nil {
		t.Fatal("expected error for unknown run id")
	}
}

func TestClientResumeContinuesRun(t *testing.T) {
	client, err := New(Options{StoreKind: "memory"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	req := testRequest(t, "run-resume")
	first, err := client.Run(ctx, req)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}

	req.Resume = true
	second, err := client.Run(ctx, req)
	if err != nil {
		t.Fatalf("resumed run: %v", err)
	}

	if second.Generations != first.Generations+req.Generations {
		t.Fatalf("generations after resume = %d, want %d",
			second.Generations, first.Generations+req.Generations)
	}
	if second.TotalMutations <= first.TotalMutations {
		t.Fatalf("resume should extend history: %d then %d",
			first.TotalMutations, second.TotalMutations)
	}
}

func TestClientResumeRequiresStatePath(t *testing.T) {
	client, err := New(Options{StoreKind: "memory"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	req := testRequest(t, "run-nostate")
	req.StatePath = ""
	req.Resume = true
	if _, err := client.Run(context.Background(), req); err == nil {
		t.Fatal("expected error when resuming without a state path")
	}
}
