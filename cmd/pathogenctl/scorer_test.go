package main

import (
	"context"
	"testing"

	"pathogen/internal/model"
)

func TestSimulatedScorerDeterministicPerSeed(t *testing.T) {
	mutation := model.Mutation{ID: "mut-1-1", Confidence: 0.7}

	first := newSimulatedScorer(42, 1.0)
	second := newSimulatedScorer(42, 1.0)

	a, err := first.Score(context.Background(), mutation)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	b, err := second.Score(context.Background(), mutation)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if a != b {
		t.Fatalf("same seed produced different scores: %v vs %v", a, b)
	}
}

func TestSimulatedScorerStaysNearBaseline(t *testing.T) {
	scorer := newSimulatedScorer(1, 10.0)
	for i := 0; i < 100; i++ {
		score, err := scorer.Score(context.Background(), model.Mutation{Confidence: 0.5})
		if err != nil {
			t.Fatalf("score: %v", err)
		}
		if score < 9.5 || score > 10.5 {
			t.Fatalf("score %v outside expected band around baseline", score)
		}
	}
}

func TestCommandScorerParsesOutput(t *testing.T) {
	scorer := &commandScorer{command: "echo 1.25"}
	score, err := scorer.Score(context.Background(), model.Mutation{ID: "mut-1-1"})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != 1.25 {
		t.Fatalf("score = %v, want 1.25", score)
	}
}

func TestCommandScorerRejectsNonNumericOutput(t *testing.T) {
	scorer := &commandScorer{command: "echo not-a-number"}
	if _, err := scorer.Score(context.Background(), model.Mutation{ID: "mut-1-1"}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCommandScorerReportsCommandFailure(t *testing.T) {
	scorer := &commandScorer{command: "exit 3"}
	if _, err := scorer.Score(context.Background(), model.Mutation{ID: "mut-1-1"}); err == nil {
		t.Fatal("expected command failure")
	}
}

func TestScorerFromFlagsSelection(t *testing.T) {
	if _, ok := scorerFromFlags("echo 1", 1, 0).(*commandScorer); !ok {
		t.Fatal("expected command scorer when a command is configured")
	}
	if _, ok := scorerFromFlags("", 1, 0).(*simulatedScorer); !ok {
		t.Fatal("expected simulated scorer by default")
	}
}
