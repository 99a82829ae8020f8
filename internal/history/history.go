// Package history implements the History Store (C4): an append-only,
// crash-tolerant log of Story slices, one JSON file per run.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kreciklabs/krecik/internal/story"
)

const (
	filePrefix = "krecik-history-"
	fileSuffix = ".json"

	// timestampLayout zero-pads the fractional-second component to a fixed
	// 9 digits and always uses UTC ("Z"), so filenames sort lexicographically
	// in the same order they were written — the Warden depends on this.
	timestampLayout = "2006-01-02T15:04:05.000000000Z"
)

// Now is overridable in tests for deterministic filenames.
var Now = time.Now

// Store persists, enumerates, and prunes run documents under Dir.
type Store struct {
	Dir string
}

// New returns a Store rooted at dir. The directory is created if absent.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &Store{Dir: dir}, nil
}

func fileName(t time.Time) string {
	return filePrefix + t.UTC().Format(timestampLayout) + fileSuffix
}

// Write creates a new history file containing stories as a JSON array.
// Files are append-only at creation and never rewritten afterward.
func (s *Store) Write(stories story.Stories) (string, error) {
	if stories == nil {
		stories = story.Stories{}
	}
	data, err := json.Marshal(stories)
	if err != nil {
		return "", fmt.Errorf("marshal history: %w", err)
	}

	name := fileName(Now())
	path := filepath.Join(s.Dir, name)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write history: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("finalize history file: %w", err)
	}
	return path, nil
}

// List returns history file paths under Dir, sorted newest-last — this
// matches the lexicographic filename ordering and is the order the Warden
// consumes.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("list history dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if strings.HasPrefix(n, filePrefix) && strings.HasSuffix(n, fileSuffix) {
			names = append(names, n)
		}
	}
	sort.Strings(names)

	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(s.Dir, n)
	}
	return paths, nil
}

// Read deserializes a history file into Stories. A missing, truncated, or
// otherwise unparsable file yields an empty list — it never raises, since a
// partially-written file must be tolerated as if it were empty.
func (s *Store) Read(path string) story.Stories {
	data, err := os.ReadFile(path)
	if err != nil {
		return story.Stories{}
	}
	var stories story.Stories
	if err := json.Unmarshal(data, &stories); err != nil {
		return story.Stories{}
	}
	return stories
}

// Prune deletes files beyond the keep most-recent, returning the number
// removed. Calling Prune(keep) twice in a row is a no-op the second time.
func (s *Store) Prune(keep int) (int, error) {
	paths, err := s.List()
	if err != nil {
		return 0, err
	}
	if keep < 0 {
		keep = 0
	}
	if len(paths) <= keep {
		return 0, nil
	}

	toRemove := paths[:len(paths)-keep]
	removed := 0
	for _, p := range toRemove {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("prune %s: %w", p, err)
		}
		removed++
	}
	return removed, nil
}
