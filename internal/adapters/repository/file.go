package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/scout/pkg/logger"
)

// FileStore keeps the registry as a JSON object {id: epoch_seconds}.
type FileStore struct {
	path string
	log  logger.Logger
}

// NewFileStore returns a store for path. The file is created on first Save.
func NewFileStore(path string, opts ...Option) *FileStore {
	o := buildOptions(opts)
	return &FileStore{path: path, log: o.log}
}

// Load reads the registry. A missing file is an empty registry; a corrupt file
// is logged and also treated as empty so a bad write cannot block every later run.
func (s *FileStore) Load(ctx context.Context) (map[string]time.Time, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]time.Time{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	// Epoch seconds may have been written as floats.
	var stored map[string]float64
	if err := json.Unmarshal(raw, &stored); err != nil {
		s.log.Warn(ctx, "registry file unreadable, starting empty",
			logger.String("path", s.path),
			logger.Error(fmt.Errorf("%w: %w", ErrCorrupt, err)),
		)
		return map[string]time.Time{}, nil
	}

	out := make(map[string]time.Time, len(stored))
	for id, sec := range stored {
		whole, frac := math.Modf(sec)
		out[id] = time.Unix(int64(whole), int64(frac*1e9))
	}
	return out, nil
}

// Save writes the registry atomically.
func (s *FileStore) Save(_ context.Context, seen map[string]time.Time) error {
	stored := make(map[string]int64, len(seen))
	for id, ts := range seen {
		stored[id] = ts.Unix()
	}
	raw, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	return writeAtomic(s.path, raw)
}

// writeAtomic replaces path with data via a temp file in the same directory.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}
