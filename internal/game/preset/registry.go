package preset

import (
	"fmt"

	"github.com/cory-johannsen/d7/internal/game/dice"
)

// Registry indexes presets by ID.
type Registry struct {
	byID map[string]*Preset
}

// NewRegistry indexes presets, rejecting duplicate IDs.
//
// Postcondition: Returns a non-nil Registry or an error naming the duplicate.
func NewRegistry(presets []*Preset) (*Registry, error) {
	r := &Registry{byID: make(map[string]*Preset, len(presets))}
	for _, p := range presets {
		if _, dup := r.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate preset id %q", p.ID)
		}
		r.byID[p.ID] = p
	}
	return r, nil
}

// Get returns the preset with id.
func (r *Registry) Get(id string) (*Preset, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// Len returns the number of presets.
func (r *Registry) Len() int {
	return len(r.byID)
}

// Resolve parses ref as a preset ID when one exists, otherwise as a dice
// expression. A nil Registry resolves every ref as an expression.
func (r *Registry) Resolve(ref string, maxReroll int) (dice.Expression, error) {
	if r != nil {
		if p, ok := r.byID[ref]; ok {
			return p.Parse(maxReroll)
		}
	}
	return dice.ParseWithMaxReroll(ref, maxReroll)
}
