package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Sink stores one named artifact and returns where it was stored
type Sink interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// DirSink writes artifacts into a directory. Each artifact is written to a
// temporary file and renamed into place, so readers never see partial files.
type DirSink struct {
	Dir string
}

// NewDirSink creates a directory sink
func NewDirSink(dir string) *DirSink {
	return &DirSink{Dir: dir}
}

// Put writes data to Dir/name
func (s *DirSink) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("failed to close %s: %w", name, err)
	}

	path := filepath.Join(s.Dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		cleanup()
		return "", fmt.Errorf("failed to rename %s: %w", name, err)
	}
	return path, nil
}

// MemorySink keeps artifacts in memory
type MemorySink struct {
	mu        sync.Mutex
	artifacts map[string][]byte
}

// NewMemorySink creates an empty in-memory sink
func NewMemorySink() *MemorySink {
	return &MemorySink{artifacts: make(map[string][]byte)}
}

// Put stores a copy of data under name
func (s *MemorySink) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.artifacts[name]; exists {
		return "", fmt.Errorf("artifact %q already stored", name)
	}
	s.artifacts[name] = append([]byte(nil), data...)
	return "mem://" + name, nil
}

// Get returns a stored artifact
func (s *MemorySink) Get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.artifacts[name]
	return data, ok
}

// Names returns stored artifact names in sorted order
func (s *MemorySink) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.artifacts))
	for name := range s.artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
