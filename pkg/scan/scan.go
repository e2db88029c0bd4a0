// Package scan finds candidate proof photos below a directory.
package scan

import (
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

type Options struct {
	// MaxDepth limits recursion; -1 means unlimited and 0 means the root only.
	MaxDepth int

	Extensions []string
}

func DefaultOptions() Options {
	return Options{
		MaxDepth:   -1,
		Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic", ".heif"},
	}
}

// Candidate is a file whose extension marks it as a photo.
type Candidate struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Candidates walks root in fsys and returns matching files sorted by path.
// Paths are relative to root and slash-separated.
func Candidates(fsys fs.FS, root string, opts Options) ([]Candidate, error) {
	if opts.MaxDepth < -1 {
		return nil, fs.ErrInvalid
	}

	exts := normalizeExts(opts.Extensions)
	prefix := strings.TrimSuffix(path.Clean(root), "/") + "/"

	var found []Candidate
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel := strings.TrimPrefix(p, prefix)
		if root == "." {
			rel = p
		}

		if d.IsDir() {
			if opts.MaxDepth >= 0 && depth(rel) >= opts.MaxDepth {
				return fs.SkipDir
			}
			return nil
		}
		if !exts[strings.ToLower(path.Ext(rel))] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		found = append(found, Candidate{Path: rel, Size: info.Size(), ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].Path < found[j].Path
	})
	return found, nil
}

func normalizeExts(exts []string) map[string]bool {
	m := make(map[string]bool, len(exts))
	for _, ext := range exts {
		e := strings.TrimSpace(strings.ToLower(ext))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		m[e] = true
	}
	return m
}

// depth counts the directory levels of a directory path relative to the root.
func depth(rel string) int {
	return strings.Count(rel, "/")
}
