package storage

import (
	"encoding/json"
	"errors"

	"pathogen/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeRunState(s model.RunState) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeRunState(data []byte) (model.RunState, error) {
	var state model.RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return model.RunState{}, err
	}
	if err := checkVersion(state.VersionedRecord); err != nil {
		return model.RunState{}, err
	}
	return state, nil
}

func EncodeSwarmState(s model.SwarmState) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeSwarmState(data []byte) (model.SwarmState, error) {
	var state model.SwarmState
	if err := json.Unmarshal(data, &state); err != nil {
		return model.SwarmState{}, err
	}
	if err := checkVersion(state.VersionedRecord); err != nil {
		return model.SwarmState{}, err
	}
	return state, nil
}

func EncodeRunSummary(s model.RunSummary) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeRunSummary(data []byte) (model.RunSummary, error) {
	var summary model.RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return model.RunSummary{}, err
	}
	if err := checkVersion(summary.VersionedRecord); err != nil {
		return model.RunSummary{}, err
	}
	return summary, nil
}

func EncodeMutationHistory(history []model.FitnessResult) ([]byte, error) {
	return json.Marshal(history)
}

func DecodeMutationHistory(data []byte) ([]model.FitnessResult, error) {
	var history []model.FitnessResult
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
