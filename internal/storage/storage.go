// Package storage keeps exported sessions on disk between restarts.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dkeye/lvgo/internal/domain"
	"github.com/keshon/datastore"
)

const sessionsKey = "sessions"

type Storage struct {
	ds     *datastore.DataStore
	cancel context.CancelFunc
}

// New opens the store at filePath. Writes reach the disk every saveInterval
// and on Close.
func New(ctx context.Context, filePath string, saveInterval time.Duration) (*Storage, error) {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
	}
	ctx, cancel := context.WithCancel(ctx)
	var opts []datastore.Option
	if saveInterval > 0 {
		opts = append(opts, datastore.WithSaveInterval(saveInterval))
	}
	ds, err := datastore.New(ctx, filePath, opts...)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return &Storage{ds: ds, cancel: cancel}, nil
}

// Close stops the background flush and writes the store one last time.
func (s *Storage) Close() error {
	s.cancel()
	return s.ds.Close()
}

// SaveSessions replaces the stored sessions.
func (s *Storage) SaveSessions(sessions []domain.SerializedSession) error {
	if sessions == nil {
		sessions = []domain.SerializedSession{}
	}
	if err := s.ds.Set(sessionsKey, sessions); err != nil {
		return fmt.Errorf("save sessions: %w", err)
	}
	return nil
}

// Sessions returns what was stored last, nil when nothing was.
func (s *Storage) Sessions() ([]domain.SerializedSession, error) {
	var sessions []domain.SerializedSession
	if _, err := s.ds.Get(sessionsKey, &sessions); err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	return sessions, nil
}

// ClearSessions drops stored sessions once they were imported.
func (s *Storage) ClearSessions() error {
	if err := s.ds.Delete(sessionsKey); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	return nil
}
