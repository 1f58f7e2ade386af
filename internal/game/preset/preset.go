// Package preset loads named dice expressions from YAML files.
package preset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/d7/internal/game/dice"
)

// Preset is a named dice expression, e.g. a character's attack roll.
//
// Precondition: ID and Expression must be non-empty after loading.
type Preset struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Expression  string `yaml:"expression"`
	// MaxReroll overrides the roller's "rr" cap when set.
	MaxReroll *int `yaml:"max_reroll"`
}

// Parse parses p's expression, applying p.MaxReroll when set and
// defaultMaxReroll otherwise.
func (p *Preset) Parse(defaultMaxReroll int) (dice.Expression, error) {
	maxReroll := defaultMaxReroll
	if p.MaxReroll != nil {
		maxReroll = *p.MaxReroll
	}
	e, err := dice.ParseWithMaxReroll(p.Expression, maxReroll)
	if err != nil {
		return dice.Expression{}, fmt.Errorf("preset %q: %w", p.ID, err)
	}
	return e, nil
}

// file is the on-disk layout: one document may hold several presets.
type file struct {
	Presets []*Preset `yaml:"presets"`
}

// Load reads all .yaml/.yml files in dir and returns their presets sorted by ID.
//
// Precondition: dir must be a readable directory path.
// Postcondition: Returns presets whose expressions all parse, or a non-nil
// error naming the first invalid file or preset.
func Load(dir string) ([]*Preset, error) {
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}
	var presets []*Preset
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var f file
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing preset file %s: %w", path, err)
		}
		for _, p := range f.Presets {
			if err := validate(p); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			presets = append(presets, p)
		}
	}
	sort.Slice(presets, func(i, j int) bool { return presets[i].ID < presets[j].ID })
	return presets, nil
}

func validate(p *Preset) error {
	if p.ID == "" {
		return fmt.Errorf("preset id must not be empty")
	}
	if p.Expression == "" {
		return fmt.Errorf("preset %q: expression must not be empty", p.ID)
	}
	_, err := p.Parse(dice.DefaultMaxReroll)
	return err
}

func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	return paths, nil
}
