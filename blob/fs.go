package blob

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// FS is a Store on the local filesystem.
type FS struct {
	root string
}

func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve storage root %q", root)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create storage root %q", abs)
	}
	return &FS{root: abs}, nil
}

func (f *FS) Root() string { return f.root }

func (f *FS) resolve(p string) (string, error) {
	clean := path.Clean("/" + filepath.ToSlash(p))
	if clean == "/" {
		return "", errors.Wrapf(ErrOutsideRoot, "refusing to operate on the root for %q", p)
	}
	full := filepath.Join(f.root, filepath.FromSlash(clean))
	if !strings.HasPrefix(full, f.root+string(filepath.Separator)) {
		return "", errors.Wrapf(ErrOutsideRoot, "%q", p)
	}
	return full, nil
}

func (f *FS) EnsureDir(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := f.resolve(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(full, 0o755); err != nil {
		return errors.Wrapf(err, "mkdir %q", dir)
	}
	return nil
}

/*
* Source must exist and destination must be free
* Parent of the destination is created first
* os.Rename moves a whole tree in one call on the same device
 */
func (f *FS) Move(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	from, err := f.resolve(src)
	if err != nil {
		return err
	}
	to, err := f.resolve(dst)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(from); err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrNotExist, "move source %q", src)
		}
		return errors.Wrapf(err, "stat %q", src)
	}
	if _, err := os.Lstat(to); err == nil {
		return errors.Wrapf(ErrExists, "move destination %q", dst)
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "stat %q", dst)
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return errors.Wrapf(err, "mkdir parent of %q", dst)
	}
	if err := os.Rename(from, to); err != nil {
		return errors.Wrapf(err, "rename %q to %q", src, dst)
	}
	return nil
}

func (f *FS) Exists(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	full, err := f.resolve(p)
	if err != nil {
		return false, err
	}
	_, err = os.Lstat(full)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrapf(err, "stat %q", p)
}

func (f *FS) RemoveTree(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := f.resolve(dir)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(full); err != nil {
		return errors.Wrapf(err, "remove tree %q", dir)
	}
	return nil
}

func (f *FS) RemoveFile(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := f.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove %q", p)
	}
	return nil
}

// Write creates p from r. A partially written file is removed on failure.
func (f *FS) Write(ctx context.Context, p string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	full, err := f.resolve(p)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return 0, errors.Wrapf(err, "mkdir parent of %q", p)
	}
	out, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return 0, errors.Wrapf(ErrExists, "write %q", p)
		}
		return 0, errors.Wrapf(err, "create %q", p)
	}
	n, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(full)
		return 0, errors.Wrapf(err, "write %q", p)
	}
	return n, nil
}

func (f *FS) List(ctx context.Context, dir string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var full string
	if strings.Trim(dir, "/.") == "" {
		full = f.root
	} else {
		var err error
		if full, err = f.resolve(dir); err != nil {
			return nil, err
		}
	}
	des, err := os.ReadDir(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "list %q", dir)
	}
	entries := make([]Entry, 0, len(des))
	for _, de := range des {
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:    de.Name(),
			IsDir:   de.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return entries, nil
}
