package filesystem

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
)

// Memory is an in-memory FS. Paths are cleaned before use.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
}

var _ FS = (*Memory)(nil)

// NewMemory creates a Memory seeded with the given path → content pairs.
func NewMemory(seed map[string]string) *Memory {
	m := &Memory{files: make(map[string][]byte, len(seed))}
	for path, content := range seed {
		m.files[filepath.Clean(path)] = []byte(content)
	}
	return m
}

func (m *Memory) Open(path string) (io.ReadCloser, error) {
	data, err := m.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *Memory) ReadFile(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[filepath.Clean(path)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return bytes.Clone(data), nil
}

func (m *Memory) WriteFile(path string, data []byte, _ fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[filepath.Clean(path)] = bytes.Clone(data)
	return nil
}

func (m *Memory) Exists(path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.files[filepath.Clean(path)]
	return ok, nil
}

func (m *Memory) Copy(src, dst string) error {
	data, err := m.ReadFile(src)
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return m.WriteFile(dst, data, 0644)
}

// Paths returns every stored path in sorted order.
func (m *Memory) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
