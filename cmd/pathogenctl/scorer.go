package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"pathogen/internal/model"
)

// commandScorer shells out to a user-supplied benchmark command. The
// mutation is written to stdin as JSON; the command prints the new score as
// a single float on stdout.
type commandScorer struct {
	command string
}

func (s *commandScorer) Score(ctx context.Context, mutation model.Mutation) (float64, error) {
	payload, err := json.Marshal(mutation)
	if err != nil {
		return 0, err
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", s.command)
	cmd.Stdin = bytes.NewReader(payload)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("score command for %s: %w", mutation.ID, err)
	}

	score, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("score command for %s: parse output: %w", mutation.ID, err)
	}
	return score, nil
}

// simulatedScorer stands in when no benchmark command is configured: scores
// wander around the baseline, skewed upward for high-confidence mutations.
type simulatedScorer struct {
	baseline float64

	mu  sync.Mutex
	rng *rand.Rand
}

func newSimulatedScorer(seed int64, baseline float64) *simulatedScorer {
	return &simulatedScorer{
		baseline: baseline,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

func (s *simulatedScorer) Score(_ context.Context, mutation model.Mutation) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Centered so that confidence 0.5 improves roughly half the time.
	noise := s.rng.Float64() - 0.5
	return s.baseline + noise + (mutation.Confidence-0.5)*0.2, nil
}
