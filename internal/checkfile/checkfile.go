// Package checkfile loads Check definitions from a directory of JSON files,
// deriving each Check's Name from its filename (minus extension) since the
// wire format itself carries no name field.
package checkfile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/kreciklabs/krecik/internal/check"
	"github.com/kreciklabs/krecik/internal/story"
)

// Loaded pairs a successfully parsed Check with the path it came from.
type Loaded struct {
	Path  string
	Check check.Check
}

// LoadDir walks dir non-recursively for *.json files, parsing each into a
// Check. A malformed file does not abort the walk: it yields a
// CheckParseProblem Story instead, per the "not process-fatal" contract.
func LoadDir(dir string) ([]Loaded, story.Stories) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, story.Stories{story.Error(story.CheckParseProblem("read check directory: " + err.Error()))}
	}

	var (
		loaded   []Loaded
		problems story.Stories
	)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			problems = append(problems, story.Error(story.CheckParseProblem(path+": "+err.Error())))
			continue
		}

		c, err := check.ParseCheck(data)
		if err != nil {
			problems = append(problems, story.Error(story.CheckParseProblem(path+": "+err.Error())))
			continue
		}
		c.Name = strings.TrimSuffix(e.Name(), ".json")
		loaded = append(loaded, Loaded{Path: path, Check: c})
	}
	return loaded, problems
}

// LoadOne loads a single named check file from dir — the
// "/check/{path}/{name}" front-end route resolves to this.
func LoadOne(dir, name string) (check.Check, error) {
	path := filepath.Join(dir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return check.Check{}, err
	}
	c, err := check.ParseCheck(data)
	if err != nil {
		return check.Check{}, err
	}
	c.Name = name
	return c, nil
}
