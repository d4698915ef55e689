// Package preset defines the named output shapes a source image is framed
// into.
package preset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownPreset is returned when a preset name is not in the table.
var ErrUnknownPreset = errors.New("unknown preset")

// Preset is a named target size. Its aspect ratio constrains the crop; the
// size is the nominal display size of the crop area.
type Preset struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Aspect returns Width / Height.
func (p Preset) Aspect() float64 {
	return float64(p.Width) / float64(p.Height)
}

func (p Preset) String() string {
	return fmt.Sprintf("%s:%dx%d", p.Name, p.Width, p.Height)
}

// Defaults is the built-in preset table.
var Defaults = []Preset{
	{Name: "square", Width: 256, Height: 256},
	{Name: "portrait", Width: 256, Height: 320},
	{Name: "landscape", Width: 320, Height: 256},
	{Name: "story", Width: 288, Height: 512},
}

// Table is an ordered, immutable set of presets.
type Table struct {
	presets []Preset
	byName  map[string]Preset
}

// NewTable builds a table, rejecting duplicate names and non-positive sizes.
func NewTable(presets []Preset) (*Table, error) {
	if len(presets) == 0 {
		return nil, errors.New("preset table is empty")
	}
	t := &Table{
		presets: make([]Preset, 0, len(presets)),
		byName:  make(map[string]Preset, len(presets)),
	}
	for _, p := range presets {
		if p.Name == "" {
			return nil, errors.New("preset name is empty")
		}
		if p.Width <= 0 || p.Height <= 0 {
			return nil, fmt.Errorf("preset %s: size must be positive, got %dx%d", p.Name, p.Width, p.Height)
		}
		if _, dup := t.byName[p.Name]; dup {
			return nil, fmt.Errorf("duplicate preset %s", p.Name)
		}
		t.presets = append(t.presets, p)
		t.byName[p.Name] = p
	}
	return t, nil
}

// DefaultTable returns a table holding Defaults.
func DefaultTable() *Table {
	t, err := NewTable(Defaults)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the preset called name.
func (t *Table) Lookup(name string) (Preset, error) {
	p, ok := t.byName[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	return p, nil
}

// Names returns preset names in table order.
func (t *Table) Names() []string {
	names := make([]string, len(t.presets))
	for i, p := range t.presets {
		names[i] = p.Name
	}
	return names
}

// All returns a copy of the presets in table order.
func (t *Table) All() []Preset {
	return append([]Preset(nil), t.presets...)
}

// Parse reads a comma separated list of "name:WxH" entries, e.g.
// "square:256x256,banner:1500x500".
func Parse(s string) ([]Preset, error) {
	var out []Preset
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, size, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("invalid preset %q: want name:WxH", entry)
		}
		ws, hs, ok := strings.Cut(strings.ToLower(size), "x")
		if !ok {
			return nil, fmt.Errorf("invalid preset size %q: want WxH", size)
		}
		w, err := strconv.Atoi(ws)
		if err != nil {
			return nil, fmt.Errorf("invalid preset width %q: %w", ws, err)
		}
		h, err := strconv.Atoi(hs)
		if err != nil {
			return nil, fmt.Errorf("invalid preset height %q: %w", hs, err)
		}
		out = append(out, Preset{Name: strings.TrimSpace(name), Width: w, Height: h})
	}
	return out, nil
}
