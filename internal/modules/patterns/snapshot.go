package patterns

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// SaveSnapshot serializes the learned store to a msgpack file.
// Returns ErrNotTrained when there is nothing to save.
func (l *Learner) SaveSnapshot(path string) error {
	l.mu.RLock()
	model := l.model
	l.mu.RUnlock()

	if model == nil || len(model.Classes) == 0 {
		return ErrNotTrained
	}

	data, err := msgpack.Marshal(model)
	if err != nil {
		return fmt.Errorf("failed to encode model snapshot: %w", err)
	}

	// Write to a temp file first so a crash never leaves a torn snapshot
	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write model snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to finalize model snapshot: %w", err)
	}

	l.log.Info().Str("path", path).Int("classes", len(model.Classes)).Msg("Model snapshot saved")
	return nil
}

// LoadSnapshot restores a learned store from a msgpack file and swaps it in
func (l *Learner) LoadSnapshot(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read model snapshot: %w", err)
	}

	var model store
	if err := msgpack.Unmarshal(data, &model); err != nil {
		return fmt.Errorf("failed to decode model snapshot: %w", err)
	}

	l.mu.Lock()
	l.model = &model
	l.mu.Unlock()

	l.log.Info().Str("path", path).Int("classes", len(model.Classes)).Msg("Model snapshot loaded")
	return nil
}
