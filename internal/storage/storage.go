package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"menu-planner/internal/planner"
)

const (
	weekSuffix    = "_week.json"
	historySuffix = "_history.json"
)

// FileStore provides a file-based storage for weekly menus and regeneration
// histories, one JSON file of each per owner.
type FileStore struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileStore creates a new FileStore and ensures the base directory exists.
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &FileStore{basePath: basePath}, nil
}

// ownerPath returns the file for an owner. Owner ids are escaped so they can
// never leave the base directory.
func (s *FileStore) ownerPath(ownerID, suffix string) string {
	return filepath.Join(s.basePath, url.PathEscape(ownerID)+suffix)
}

// SaveWeek stores the owner's week, replacing any previous one.
func (s *FileStore) SaveWeek(_ context.Context, ownerID string, week planner.WeekMenu) error {
	if err := s.writeJSON(s.ownerPath(ownerID, weekSuffix), week); err != nil {
		return fmt.Errorf("failed to save week for owner %s: %w", ownerID, err)
	}
	return nil
}

// LoadWeek returns the owner's stored week. found is false when there is none.
func (s *FileStore) LoadWeek(_ context.Context, ownerID string) (planner.WeekMenu, bool, error) {
	var week planner.WeekMenu
	found, err := s.readJSON(s.ownerPath(ownerID, weekSuffix), &week)
	if err != nil {
		return planner.WeekMenu{}, false, fmt.Errorf("failed to load week for owner %s: %w", ownerID, err)
	}
	return week, found, nil
}

// DeleteWeek removes the owner's week. Deleting a missing week is not an error.
func (s *FileStore) DeleteWeek(_ context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.ownerPath(ownerID, weekSuffix))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete week for owner %s: %w", ownerID, err)
	}
	return nil
}

// SaveHistory stores the owner's regeneration history.
func (s *FileStore) SaveHistory(_ context.Context, ownerID string, history planner.RegenerationHistory) error {
	if err := s.writeJSON(s.ownerPath(ownerID, historySuffix), history); err != nil {
		return fmt.Errorf("failed to save history for owner %s: %w", ownerID, err)
	}
	return nil
}

// LoadHistory returns the owner's regeneration history, empty if none was stored.
func (s *FileStore) LoadHistory(_ context.Context, ownerID string) (planner.RegenerationHistory, error) {
	var history planner.RegenerationHistory
	if _, err := s.readJSON(s.ownerPath(ownerID, historySuffix), &history); err != nil {
		return planner.RegenerationHistory{}, fmt.Errorf("failed to load history for owner %s: %w", ownerID, err)
	}
	return history, nil
}

// ListOwners returns every owner that has a stored week.
func (s *FileStore) ListOwners(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches, err := filepath.Glob(filepath.Join(s.basePath, "*"+weekSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to glob week files: %w", err)
	}
	owners := make([]string, 0, len(matches))
	for _, match := range matches {
		escaped := strings.TrimSuffix(filepath.Base(match), weekSuffix)
		owner, err := url.PathUnescape(escaped)
		if err != nil {
			continue
		}
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	return owners, nil
}

// writeJSON replaces path atomically through a temporary file.
func (s *FileStore) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}

func (s *FileStore) readJSON(path string, v any) (bool, error) {
	s.mu.RLock()
	data, err := os.ReadFile(path)
	s.mu.RUnlock()
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read file: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal: %w", err)
	}
	return true, nil
}
