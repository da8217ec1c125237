package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Dir is a workspace rooted at a directory on disk.
type Dir struct {
	// Root is the directory every name is resolved against.
	Root string
}

// NewDir creates the root directory if needed and returns a workspace on it.
func NewDir(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspace %s: %w", abs, err)
	}
	return &Dir{Root: abs}, nil
}

// resolvePath converts a name to an absolute path inside Root.
func (d *Dir) resolvePath(name string) (string, error) {
	rel, err := Clean(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.Root, filepath.FromSlash(rel)), nil
}

func (d *Dir) ReadFile(name string) ([]byte, error) {
	resolved, err := d.resolvePath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(resolved)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, name)
	}
	return data, err
}

func (d *Dir) WriteFile(name string, data []byte) error {
	resolved, err := d.resolvePath(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0755); err != nil {
		return err
	}
	return os.WriteFile(resolved, data, 0644)
}

func (d *Dir) Remove(name string) error {
	resolved, err := d.resolvePath(name)
	if err != nil {
		return err
	}
	err = os.Remove(resolved)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotExist, name)
	}
	return err
}

func (d *Dir) Exists(name string) bool {
	resolved, err := d.resolvePath(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(resolved)
	return err == nil
}

// List walks Root and returns every regular file, by slash-separated name.
func (d *Dir) List() ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(d.Root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(d.Root, p)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{Name: filepath.ToSlash(rel), Size: info.Size()})
		return nil
	})
	return entries, err
}
