// Package blob stores document bytes in a hierarchical namespace.
package blob

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrNotExist    = errors.New("blob: path does not exist")
	ErrExists      = errors.New("blob: path already exists")
	ErrOutsideRoot = errors.New("blob: path escapes storage root")
)

// Entry is one child of a listed directory.
type Entry struct {
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Store is the byte-storage client the document lifecycle depends on.
// Paths are slash separated and relative to the store root.
type Store interface {
	EnsureDir(ctx context.Context, dir string) error
	// Move fails with ErrExists when dst is occupied and ErrNotExist when src is missing.
	Move(ctx context.Context, src, dst string) error
	Exists(ctx context.Context, p string) (bool, error)
	// RemoveTree and RemoveFile treat an absent path as already removed.
	RemoveTree(ctx context.Context, dir string) error
	RemoveFile(ctx context.Context, p string) error
	Write(ctx context.Context, p string, r io.Reader) (int64, error)
	// List returns nil without error when dir does not exist.
	List(ctx context.Context, dir string) ([]Entry, error)
}
