package main

import (
	"encoding/json"
	"fmt"
	"os"

	pathapi "pathogen/pkg/pathogen"
)

func loadRunRequestFromConfig(path string) (pathapi.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pathapi.RunRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return pathapi.RunRequest{}, err
	}

	var req pathapi.RunRequest
	if v, ok := asString(raw["run_id"]); ok {
		req.RunID = v
	}
	if v, ok := asStringSlice(raw["pathway_ids"]); ok {
		req.PathwayIDs = v
	}
	if v, ok := asInt(raw["generations"]); ok {
		req.Generations = v
	}
	if v, ok := asInt(raw["mutations_per_generation"]); ok {
		req.MutationsPerGeneration = v
	}
	if v, ok := asInt(raw["population"]); ok {
		req.PopulationSize = v
	}
	if v, ok := asInt(raw["workers"]); ok {
		req.Workers = v
	}
	if v, ok := asInt(raw["evolve_every"]); ok {
		req.EvolveEvery = v
	}
	if v, ok := asFloat64(raw["keep_fraction"]); ok {
		req.KeepFraction = v
	}
	if v, ok := asFloat64(raw["learning_rate"]); ok {
		req.LearningRate = v
	}
	if v, ok := asFloat64(raw["baseline"]); ok {
		req.Baseline = v
	}
	if v, ok := asInt(raw["max_linear_chains"]); ok {
		req.MaxLinearChains = v
	}
	if v, ok := asString(raw["mutation_log"]); ok {
		req.MutationLogPath = v
	}
	if v, ok := asString(raw["state_path"]); ok {
		req.StatePath = v
	}

	return req, nil
}

func loadOrDefaultRunRequest(configPath string) (pathapi.RunRequest, error) {
	if configPath == "" {
		return pathapi.RunRequest{}, nil
	}
	req, err := loadRunRequestFromConfig(configPath)
	if err != nil {
		return pathapi.RunRequest{}, fmt.Errorf("load config: %w", err)
	}
	return req, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

func asStringSlice(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
