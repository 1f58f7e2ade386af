// Package report renders roll results for display as text, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/d7/internal/game/dice"
)

// Format names an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates s as a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("report: unknown format %q (want text, json or yaml)", s)
	}
}

// Die is the serialized form of a single die.
type Die struct {
	Size     int   `json:"size" yaml:"size"`
	Keep     bool  `json:"keep" yaml:"keep"`
	Exploded bool  `json:"exploded" yaml:"exploded"`
	Result   *int  `json:"result" yaml:"result"`
	History  []int `json:"history" yaml:"history"`
}

// Roll is the serialized form of an evaluated expression.
type Roll struct {
	ID         string         `json:"id,omitempty" yaml:"id,omitempty"`
	Expression string         `json:"expression" yaml:"expression"`
	MaxReroll  int            `json:"maxReroll" yaml:"maxReroll"`
	Args       map[string]any `json:"args" yaml:"args"`
	Dice       []Die          `json:"dice" yaml:"dice"`
	Rolls      []int          `json:"rolls" yaml:"rolls"` // final result of each die, in roll order
	Total      int            `json:"total" yaml:"total"`
}

// FromResult builds the serialized view of r.
func FromResult(r dice.RollResult) Roll {
	out := Roll{
		ID:         r.ID,
		Expression: r.Expression,
		MaxReroll:  r.MaxReroll,
		Args:       Args(r.Params),
		Dice:       make([]Die, 0, len(r.Dice)),
		Rolls:      r.Results(),
		Total:      r.Total,
	}
	for _, d := range r.Dice {
		view := Die{
			Size:     d.Size,
			Keep:     d.Keep,
			Exploded: d.Exploded,
			History:  append([]int{}, d.History...),
		}
		if v, ok := d.Result(); ok {
			view.Result = &v
		}
		out.Dice = append(out.Dice, view)
	}
	return out
}

// Args flattens p into the named groups of the dice grammar. Absent
// segments are omitted.
func Args(p dice.Params) map[string]any {
	args := map[string]any{
		"nDice":    p.NDice,
		"diceSize": p.DiceSize,
	}
	if p.Reroll != nil {
		args["reroll"] = p.Reroll.Token()
		args["rerollValue"] = p.Reroll.Value
	}
	if p.Min != nil {
		args["min"] = "mi"
		args["minValue"] = p.Min.Value
	}
	if p.Keep != nil {
		args["keep"] = p.Keep.Token()
		args["keepValue"] = p.Keep.Value
	}
	if p.Explode != nil {
		args["explode"] = true
		args["explodeValue"] = p.Explode.Value
	}
	if p.Mod != nil {
		args["mod"] = p.Mod.Op.Token()
		args["modValue"] = p.Mod.Value
	}
	return args
}

// Write encodes r to w in format f.
func Write(w io.Writer, f Format, r dice.RollResult) error {
	switch f {
	case FormatText:
		_, err := fmt.Fprintln(w, r.String())
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(FromResult(r)); err != nil {
			return fmt.Errorf("report: encoding json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(FromResult(r)); err != nil {
			return fmt.Errorf("report: encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("report: unknown format %q", f)
	}
}
