package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/store"
)

// JSON-backed storage for the dev backend. Single file, human-readable.
// Every mutation rewrites the file; fine for a local dev server.

const DefaultFileName = "todos.json"

// Store keeps the items in insertion order.
type Store struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// Open returns a store backed by path. The file is created on first write.
func Open(path string) *Store {
	if path == "" {
		path = DefaultFileName
	}
	return &Store{path: path, now: time.Now}
}

func (s *Store) Path() string { return s.path }

func (s *Store) List() ([]model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) Create(title string) (model.Item, error) {
	title, err := store.PrepareTitle(title)
	if err != nil {
		return model.Item{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load()
	if err != nil {
		return model.Item{}, err
	}
	it := model.Item{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: s.now().UnixMilli(),
	}
	items = append(items, it)
	if err := s.save(items); err != nil {
		return model.Item{}, err
	}
	return it, nil
}

func (s *Store) Patch(id string, p model.Patch) (model.Item, error) {
	p, err := store.PreparePatch(p)
	if err != nil {
		return model.Item{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load()
	if err != nil {
		return model.Item{}, err
	}
	idx := model.IndexOf(items, id)
	if idx < 0 {
		return model.Item{}, store.ErrNotFound
	}
	items[idx] = p.Apply(items[idx])
	if err := s.save(items); err != nil {
		return model.Item{}, err
	}
	return items[idx], nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load()
	if err != nil {
		return err
	}
	idx := model.IndexOf(items, id)
	if idx < 0 {
		return store.ErrNotFound
	}
	items = append(items[:idx], items[idx+1:]...)
	return s.save(items)
}

func (s *Store) load() ([]model.Item, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Item{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	var items []model.Item
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

func (s *Store) save(items []model.Item) error {
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
