package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFS(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	require.NoError(t, err)
	return fs
}

func TestWriteAndExists(t *testing.T) {
	ctx := context.Background()
	fs := newTestFS(t)

	n, err := fs.Write(ctx, "a/b/c.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	ok, err := fs.Exists(ctx, "a/b/c.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fs.Exists(ctx, "a/b/missing.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = fs.Write(ctx, "a/b/c.txt", strings.NewReader("again"))
	assert.True(t, errors.Is(err, ErrExists))
}

func TestMoveTree(t *testing.T) {
	ctx := context.Background()
	fs := newTestFS(t)
	_, err := fs.Write(ctx, "T/employees/A_E1/one.txt", strings.NewReader("1"))
	require.NoError(t, err)

	require.NoError(t, fs.Move(ctx, "T/employees/A_E1", "T/employees/B_E1"))

	ok, _ := fs.Exists(ctx, "T/employees/A_E1")
	assert.False(t, ok)
	data, err := os.ReadFile(filepath.Join(fs.Root(), "T", "employees", "B_E1", "one.txt"))
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))
}

func TestMoveRefusesOccupiedDestination(t *testing.T) {
	ctx := context.Background()
	fs := newTestFS(t)
	require.NoError(t, fs.EnsureDir(ctx, "src"))
	require.NoError(t, fs.EnsureDir(ctx, "dst"))

	err := fs.Move(ctx, "src", "dst")
	assert.True(t, errors.Is(err, ErrExists))

	err = fs.Move(ctx, "nowhere", "elsewhere")
	assert.True(t, errors.Is(err, ErrNotExist))
}

func TestRemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fs := newTestFS(t)
	_, err := fs.Write(ctx, "d/f.txt", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, fs.RemoveFile(ctx, "d/f.txt"))
	require.NoError(t, fs.RemoveFile(ctx, "d/f.txt"))
	require.NoError(t, fs.RemoveTree(ctx, "d"))
	require.NoError(t, fs.RemoveTree(ctx, "d"))

	ok, err := fs.Exists(ctx, "d")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPathsCannotEscapeRoot(t *testing.T) {
	ctx := context.Background()
	fs := newTestFS(t)

	err := fs.RemoveTree(ctx, "/")
	assert.True(t, errors.Is(err, ErrOutsideRoot))
	err = fs.RemoveTree(ctx, "")
	assert.True(t, errors.Is(err, ErrOutsideRoot))

	// ".." segments are cleaned against the root instead of leaving it.
	_, err = fs.Write(ctx, "../../outside.txt", strings.NewReader("x"))
	require.NoError(t, err)
	ok, _ := fs.Exists(ctx, "outside.txt")
	assert.True(t, ok)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	fs := newTestFS(t)
	_, err := fs.Write(ctx, "dir/a.txt", strings.NewReader("a"))
	require.NoError(t, err)
	require.NoError(t, fs.EnsureDir(ctx, "dir/sub"))

	entries, err := fs.List(ctx, "dir")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name] = e.IsDir
	}
	assert.False(t, names["a.txt"])
	assert.True(t, names["sub"])

	entries, err = fs.List(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, entries)

	root, err := fs.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, root, 1)
}
