package csvstore

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Backing is where a table's bytes live.
type Backing interface {
	// Open returns the stored table. It returns an error wrapping
	// fs.ErrNotExist when nothing has been stored yet.
	Open() (io.ReadCloser, error)

	// Replace swaps the stored table for data in one step.
	Replace(data []byte) error

	// String names the backing in logs and errors.
	String() string
}

// FileBacking stores a table in a file on disk.
type FileBacking struct {
	path string
}

// NewFileBacking creates a backing for the file at path. The file and its
// directory are created on first write.
func NewFileBacking(path string) *FileBacking {
	return &FileBacking{path: path}
}

func (b *FileBacking) Open() (io.ReadCloser, error) {
	return os.Open(b.path)
}

// Replace writes data to a temp file in the same directory and renames it
// over the target, so readers never see a truncated table.
func (b *FileBacking) Replace(data []byte) error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		return fmt.Errorf("replace %s: %w", b.path, err)
	}
	return nil
}

func (b *FileBacking) String() string { return b.path }

// Path returns the file path.
func (b *FileBacking) Path() string { return b.path }

// MemoryBacking keeps a table in memory. The zero value holds no table.
type MemoryBacking struct {
	mu     sync.RWMutex
	data   []byte
	exists bool
}

// NewMemoryBacking creates an empty in-memory backing.
func NewMemoryBacking() *MemoryBacking {
	return &MemoryBacking{}
}

// NewMemoryBackingFrom creates an in-memory backing holding data, as if it
// had been written before.
func NewMemoryBackingFrom(data []byte) *MemoryBacking {
	return &MemoryBacking{data: bytes.Clone(data), exists: true}
}

func (b *MemoryBacking) Open() (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.exists {
		return nil, fmt.Errorf("memory table: %w", fs.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(b.data))), nil
}

func (b *MemoryBacking) Replace(data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = bytes.Clone(data)
	b.exists = true
	return nil
}

func (b *MemoryBacking) String() string { return "memory" }

// Bytes returns a copy of the stored table.
func (b *MemoryBacking) Bytes() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return bytes.Clone(b.data)
}
