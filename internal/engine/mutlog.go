package engine

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"pathogen/internal/model"
)

// MutationLog is the append-only JSONL audit trail of fitness results. One
// JSON object per line, appended in completion order; existing content is
// never rewritten.
type MutationLog struct {
	path string

	mu   sync.Mutex
	file *os.File
}

func OpenMutationLog(path string) (*MutationLog, error) {
	if path == "" {
		return nil, fmt.Errorf("mutation log path is required")
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open mutation log %s: %w", path, err)
	}
	return &MutationLog{path: path, file: file}, nil
}

func (l *MutationLog) Path() string { return l.path }

// Append writes one result as a single JSON line.
func (l *MutationLog) Append(result model.FitnessResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode mutation log entry %s: %w", result.MutationID, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("mutation log %s is closed", l.path)
	}
	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append mutation log %s: %w", l.path, err)
	}
	return nil
}

func (l *MutationLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("close mutation log %s: %w", l.path, err)
	}
	return nil
}

// ReadMutationLog decodes every line of a JSONL mutation log. A malformed
// line aborts the read with its line number.
func ReadMutationLog(path string) ([]model.FitnessResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mutation log %s: %w", path, err)
	}
	defer file.Close()

	var results []model.FitnessResult
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var result model.FitnessResult
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("decode mutation log %s line %d: %w", path, line, err)
		}
		results = append(results, result)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read mutation log %s: %w", path, err)
	}
	return results, nil
}
