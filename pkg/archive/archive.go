// Package archive keeps a copy of accepted proof photos, filed by quest and
// capture day and named by content hash.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrDestinationExists is returned when the archive already holds the photo.
var ErrDestinationExists = errors.New("destination file already exists")

const unassigned = "_unassigned"

// Item is a verified photo to archive.
type Item struct {
	SourcePath string
	Hash       string
	QuestID    string
	Taken      time.Time
}

// Operation is a planned copy from source to destination.
type Operation struct {
	SourcePath      string
	DestinationPath string
}

// Result contains the outcome of an operation.
type Result struct {
	Operation Operation
	Copied    bool
	// Existing is set when identical content was already archived.
	Existing bool
	Error    error
}

// Destination returns <root>/<quest>/YYYY/MM/DD/<hash><ext>. Photos without a
// quest go under _unassigned.
func Destination(root, questID, hash, ext string, taken time.Time) string {
	quest := sanitizeSegment(questID)
	if quest == "" {
		quest = unassigned
	}
	return filepath.Join(root, quest,
		fmt.Sprintf("%04d", taken.Year()),
		fmt.Sprintf("%02d", taken.Month()),
		fmt.Sprintf("%02d", taken.Day()),
		hash+strings.ToLower(ext))
}

func sanitizeSegment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, s)
	if s == "." || s == ".." {
		return ""
	}
	return s
}

// Plan computes destinations for items. Items without a hash are skipped, as
// are repeats of a hash already planned.
func Plan(root string, items []Item) []Operation {
	seen := make(map[string]bool, len(items))
	ops := make([]Operation, 0, len(items))
	for _, it := range items {
		if it.Hash == "" {
			continue
		}
		dest := Destination(root, it.QuestID, it.Hash, filepath.Ext(it.SourcePath), it.Taken)
		if seen[dest] {
			continue
		}
		seen[dest] = true
		ops = append(ops, Operation{SourcePath: it.SourcePath, DestinationPath: dest})
	}
	return ops
}

// Execute performs the operations. It creates directories as needed and never
// overwrites an archived file.
func Execute(ops []Operation) []Result {
	results := make([]Result, 0, len(ops))
	for _, op := range ops {
		res := Result{Operation: op}

		if err := os.MkdirAll(filepath.Dir(op.DestinationPath), 0o755); err != nil {
			res.Error = fmt.Errorf("create directory: %w", err)
			results = append(results, res)
			continue
		}

		err := copyFile(op.SourcePath, op.DestinationPath)
		switch {
		case errors.Is(err, ErrDestinationExists):
			res.Existing = true
		case err != nil:
			res.Error = fmt.Errorf("copy file: %w", err)
		default:
			res.Copied = true
		}
		results = append(results, res)
	}
	return results
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer srcFile.Close()

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return ErrDestinationExists
		}
		return fmt.Errorf("create destination: %w", err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("copy content: %w", err)
	}

	if err := dstFile.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	return nil
}
