// Package workspace holds the files the host exports to guest code before a
// run, and exposes them to the guest as the "fs" module.
package workspace

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
)

// DefaultMaxFileSize caps reads and writes through the guest fs module.
const DefaultMaxFileSize = 1024 * 1024

var (
	// ErrOutsideWorkspace is returned for paths that escape the workspace root.
	ErrOutsideWorkspace = errors.New("path is outside the workspace")

	// ErrNotExist is returned for missing files.
	ErrNotExist = errors.New("no such file")
)

// File is one exported file: a name relative to the workspace root and its text.
type File struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Entry describes a file found in the workspace.
type Entry struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Workspace is the file area guest code can see.
type Workspace interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte) error
	Remove(name string) error
	Exists(name string) bool
	List() ([]Entry, error)
}

// Sync makes ws hold exactly files: each one is written and any other file
// already present is removed.
func Sync(ws Workspace, files []File) error {
	keep := make(map[string]struct{}, len(files))
	for _, f := range files {
		name, err := Clean(f.Name)
		if err != nil {
			return fmt.Errorf("failed to export %s: %w", f.Name, err)
		}
		if err := ws.WriteFile(name, []byte(f.Content)); err != nil {
			return fmt.Errorf("failed to export %s: %w", name, err)
		}
		keep[name] = struct{}{}
	}

	existing, err := ws.List()
	if err != nil {
		return fmt.Errorf("failed to list workspace: %w", err)
	}
	for _, e := range existing {
		if _, ok := keep[e.Name]; ok {
			continue
		}
		if err := ws.Remove(e.Name); err != nil {
			return fmt.Errorf("failed to remove stale %s: %w", e.Name, err)
		}
	}
	return nil
}

// Clean normalises a workspace-relative name and rejects names that leave
// the workspace.
func Clean(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	cleaned := path.Clean("/" + name)
	if cleaned == "/" || strings.Contains(name, "\x00") {
		return "", fmt.Errorf("%w: %q", ErrOutsideWorkspace, name)
	}
	rel := strings.TrimPrefix(cleaned, "/")
	if up := path.Clean(name); up == ".." || strings.HasPrefix(up, "../") {
		return "", fmt.Errorf("%w: %q", ErrOutsideWorkspace, name)
	}
	return rel, nil
}

func checkSize(name string, size int64, limit int64) error {
	if limit > 0 && size > limit {
		return fmt.Errorf("%s is %s, over the %s limit",
			name, humanize.IBytes(uint64(size)), humanize.IBytes(uint64(limit)))
	}
	return nil
}
