package backfill

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const DefaultStatePath = "~/.mockview/backfill-state.json"

// State tracks progress for resumable backfill runs, keyed by interview id.
type State struct {
	StartedAt       time.Time         `json:"started_at"`
	LastProcessedAt time.Time         `json:"last_processed_at"`
	Processed       map[string]string `json:"processed"` // interview id -> feedback id
	Failed          map[string]string `json:"failed"`    // interview id -> last error

	mu   sync.Mutex
	path string
}

// LoadState loads the state at path, or starts a new one if none exists.
func LoadState(path string) (*State, error) {
	p := expandHome(path)

	s := &State{path: p}
	data, err := os.ReadFile(p)
	switch {
	case os.IsNotExist(err):
		s.StartedAt = time.Now().UTC()
	case err != nil:
		return nil, fmt.Errorf("read state: %w", err)
	default:
		if err := json.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("parse state: %w", err)
		}
	}
	if s.Processed == nil {
		s.Processed = make(map[string]string)
	}
	if s.Failed == nil {
		s.Failed = make(map[string]string)
	}
	return s, nil
}

// Save persists the state to disk.
func (s *State) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastProcessedAt = time.Now().UTC()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	return os.WriteFile(s.path, data, 0o644)
}

func (s *State) IsProcessed(interviewID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Processed[interviewID]
	return ok
}

func (s *State) MarkProcessed(interviewID, feedbackID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Processed[interviewID] = feedbackID
	delete(s.Failed, interviewID)
}

func (s *State) MarkFailed(interviewID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Failed[interviewID] = err.Error()
}

func expandHome(path string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
