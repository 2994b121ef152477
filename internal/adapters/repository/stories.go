package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/okian/scout/internal/domain/story"
	"github.com/okian/scout/pkg/logger"
)

// StoriesFile persists the alerts monitor's story database as JSON.
type StoriesFile struct {
	path string
	log  logger.Logger
}

// NewStoriesFile returns a store for path.
func NewStoriesFile(path string, opts ...Option) *StoriesFile {
	o := buildOptions(opts)
	return &StoriesFile{path: path, log: o.log}
}

// Load reads the database. A missing file yields an empty database; an undecodable
// one yields ErrCorrupt.
func (s *StoriesFile) Load(ctx context.Context) (story.Database, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return story.Database{}, nil
	}
	if err != nil {
		return story.Database{}, fmt.Errorf("read %s: %w", s.path, err)
	}
	var db story.Database
	if err := json.Unmarshal(raw, &db); err != nil {
		// Starting empty would let the next Save overwrite stories and their outreach status.
		err = fmt.Errorf("%w: %s: %w", ErrCorrupt, s.path, err)
		s.log.Error(ctx, "stories file unreadable", logger.String("path", s.path), logger.Error(err))
		return story.Database{}, err
	}
	s.log.Debug(ctx, "stories loaded", logger.String("path", s.path), logger.Int("stories", len(db.Stories)))
	return db, nil
}

// Save writes the database atomically.
func (s *StoriesFile) Save(_ context.Context, db story.Database) error {
	raw, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return fmt.Errorf("encode stories: %w", err)
	}
	return writeAtomic(s.path, raw)
}
