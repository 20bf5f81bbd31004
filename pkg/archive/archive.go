// Package archive ships two reference implementations of the loader's
// consumed Archive interface (texturestream/pkg/loader.Archive): a
// directory-backed store and an in-memory store, both keyed by filename.
// Digest computes an xxhash.Sum64 content digest of a payload; neither
// store uses it for lookup. Neither is part of the core
// pipeline's contract — the pack archive itself is an external
// collaborator, and these exist only so the pipeline is exercisable end to
// end in tests and the demo CLI.
package archive

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/valyala/bytebufferpool"

	"texturestream/pkg/bufferpool"
	"texturestream/pkg/helper/log"
)

// staging is a process-wide pool of short-lived read buffers used while a
// file is pulled off disk, before its bytes are copied into the caller's
// pool-lent buffer.
var staging = bytebufferpool.Pool{}

// DirArchive reads files rooted at a directory, lending buffer capacity
// from the caller-supplied bufferpool.Pool. Files are looked up by their
// path relative to the root, not by content digest.
type DirArchive struct {
	root   string
	logger log.Logger
}

// NewDirArchive creates a DirArchive rooted at root. Paths passed to
// ReadFileWithPool are joined onto root and must not escape it.
func NewDirArchive(root string, logger log.Logger) *DirArchive {
	if logger == nil {
		logger = log.NewLogger()
	}
	return &DirArchive{root: root, logger: logger}
}

// ReadFileWithPool reads name relative to the archive root. On miss or
// error it returns an empty, non-nil slice drawn from pool — this is not
// itself an error from the loader pool's perspective.
func (a *DirArchive) ReadFileWithPool(_ context.Context, name string, pool *bufferpool.Pool) []byte {
	path := filepath.Join(a.root, filepath.Clean("/"+name))

	info, err := os.Stat(path)
	if err != nil {
		a.logger.WithField("file", name).Debug("archive: miss")
		return pool.Acquire(0)
	}

	f, err := os.Open(path)
	if err != nil {
		a.logger.WithField("file", name).WithError(err).Warn("archive: open failed")
		return pool.Acquire(0)
	}
	defer f.Close()

	sb := staging.Get()
	defer staging.Put(sb)

	if _, err := sb.ReadFrom(f); err != nil {
		a.logger.WithField("file", name).WithError(err).Warn("archive: read failed")
		return pool.Acquire(0)
	}

	buf := pool.Acquire(int(info.Size()))
	buf = append(buf, sb.Bytes()...)
	return buf
}

// Digest returns the xxhash.Sum64 content address of data.
func Digest(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// MemArchive is an in-memory Archive, keyed by filename, used by tests and
// benchmarks that shouldn't depend on the filesystem.
type MemArchive struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemArchive creates an in-memory archive from an initial file set. A
// nil or empty map starts the archive empty; Put adds files afterward.
func NewMemArchive(files map[string][]byte) *MemArchive {
	m := &MemArchive{files: make(map[string][]byte, len(files))}
	for k, v := range files {
		m.files[k] = v
	}
	return m
}

// Put inserts or replaces a file's contents.
func (a *MemArchive) Put(name string, data []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.files[name] = data
}

// ReadFileWithPool reads name from the in-memory file set, drawing buffer
// capacity from pool. Returns an empty, non-nil slice on miss.
func (a *MemArchive) ReadFileWithPool(_ context.Context, name string, pool *bufferpool.Pool) []byte {
	a.mu.RLock()
	data, ok := a.files[name]
	a.mu.RUnlock()

	if !ok {
		return pool.Acquire(0)
	}

	buf := pool.Acquire(len(data))
	buf = append(buf, data...)
	return buf
}
