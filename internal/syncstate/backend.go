package syncstate

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var ErrInvalidInput = errors.New("invalid input")

// Backend persists the last commit applied to each space, so a later run
// can resume where the previous one stopped.
type Backend interface {
	Load(ctx context.Context, space string) (string, error)
	Save(ctx context.Context, space, commit string) error
}

type MemoryBackend struct {
	mu      sync.Mutex
	cursors map[string]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{cursors: make(map[string]string)}
}

func (b *MemoryBackend) Load(ctx context.Context, space string) (string, error) {
	if b == nil {
		return "", nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursors[space], nil
}

func (b *MemoryBackend) Save(ctx context.Context, space, commit string) error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cursors[space] = commit
	return nil
}

type FileBackend struct {
	Path string

	mu sync.Mutex
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{Path: strings.TrimSpace(path)}
}

func (b *FileBackend) Load(ctx context.Context, space string) (string, error) {
	if b == nil || strings.TrimSpace(b.Path) == "" {
		return "", nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	cursors, err := b.read()
	if err != nil {
		return "", err
	}
	return cursors[space], nil
}

func (b *FileBackend) Save(ctx context.Context, space, commit string) error {
	if b == nil || strings.TrimSpace(b.Path) == "" {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	cursors, err := b.read()
	if err != nil {
		return err
	}
	cursors[space] = commit
	data, err := json.Marshal(cursors)
	if err != nil {
		return err
	}
	dir := filepath.Dir(b.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := b.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, b.Path)
}

func (b *FileBackend) read() (map[string]string, error) {
	data, err := os.ReadFile(b.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	cursors := map[string]string{}
	if err := json.Unmarshal(data, &cursors); err != nil {
		return nil, err
	}
	return cursors, nil
}
