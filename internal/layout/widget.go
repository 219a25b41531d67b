// Package layout holds the customizable dashboard layout: an ordered list
// of widgets, per-widget settings and the grid they are placed on.
package layout

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var (
	ErrWidgetNotFound  = errors.New("widget not found")
	ErrWidgetDisabled  = errors.New("widget is disabled")
	ErrSizeUnavailable = errors.New("size not available for widget")
	ErrInvalidSize     = errors.New("invalid widget size")
	ErrInvalidGrid     = errors.New("invalid grid")
	ErrInvalidLayout   = errors.New("invalid layout document")
)

// Widget describes a dashboard tile. CurrentSize is always one of
// AvailableSizes.
type Widget struct {
	ID             string   `json:"id" yaml:"id"`
	Type           string   `json:"type" yaml:"type"`
	Title          string   `json:"title" yaml:"title"`
	CurrentSize    string   `json:"currentSize" yaml:"current_size"`
	AvailableSizes []string `json:"availableSizes" yaml:"available_sizes"`
	Enabled        bool     `json:"enabled" yaml:"enabled"`
}

// Grid holds the placement parameters of the dashboard.
type Grid struct {
	Columns   int `json:"columns" yaml:"columns"`
	RowHeight int `json:"rowHeight" yaml:"row_height"`
	Gap       int `json:"gap" yaml:"gap"`
}

// Config is the open key/value settings map of a single widget.
type Config map[string]any

// State is the persisted layout document.
type State struct {
	Version int               `json:"version"`
	Widgets []Widget          `json:"widgets"`
	Configs map[string]Config `json:"widgetConfigs"`
	Grid    Grid              `json:"grid"`
}

// Size is a parsed "<cols>x<rows>" widget size.
type Size struct {
	Cols int
	Rows int
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Cols, s.Rows)
}

// ParseSize parses sizes such as "2x1".
func ParseSize(s string) (Size, error) {
	cols, rows, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return Size{}, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	c, err := strconv.Atoi(cols)
	if err != nil || c <= 0 {
		return Size{}, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	r, err := strconv.Atoi(rows)
	if err != nil || r <= 0 {
		return Size{}, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	return Size{Cols: c, Rows: r}, nil
}

// HasSize reports whether size is one of the widget's available sizes.
func (w Widget) HasSize(size string) bool {
	return slices.Contains(w.AvailableSizes, size)
}

func (w Widget) Validate() error {
	if strings.TrimSpace(w.ID) == "" {
		return errors.New("widget id cannot be empty")
	}
	if len(w.AvailableSizes) == 0 {
		return fmt.Errorf("widget %s: no available sizes", w.ID)
	}
	for _, s := range w.AvailableSizes {
		if _, err := ParseSize(s); err != nil {
			return fmt.Errorf("widget %s: %w", w.ID, err)
		}
	}
	if !w.HasSize(w.CurrentSize) {
		return fmt.Errorf("widget %s: %w: %q", w.ID, ErrSizeUnavailable, w.CurrentSize)
	}
	return nil
}

func (g Grid) Validate() error {
	if g.Columns <= 0 || g.RowHeight <= 0 || g.Gap < 0 {
		return fmt.Errorf("%w: columns=%d rowHeight=%d gap=%d", ErrInvalidGrid, g.Columns, g.RowHeight, g.Gap)
	}
	return nil
}

// Index returns the position of the widget with the given id, or -1.
func (s State) Index(id string) int {
	for i, w := range s.Widgets {
		if w.ID == id {
			return i
		}
	}
	return -1
}

// Enabled returns the enabled widgets in display order.
func (s State) Enabled() []Widget {
	out := make([]Widget, 0, len(s.Widgets))
	for _, w := range s.Widgets {
		if w.Enabled {
			out = append(out, w)
		}
	}
	return out
}

// Clone returns a deep copy of the state. Config values are copied one
// level deep.
func (s State) Clone() State {
	out := State{Version: s.Version, Grid: s.Grid}
	out.Widgets = make([]Widget, len(s.Widgets))
	for i, w := range s.Widgets {
		w.AvailableSizes = slices.Clone(w.AvailableSizes)
		out.Widgets[i] = w
	}
	out.Configs = make(map[string]Config, len(s.Configs))
	for id, c := range s.Configs {
		out.Configs[id] = c.clone()
	}
	return out
}

func (c Config) clone() Config {
	out := make(Config, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// normalize round-trips a config through JSON so that values have the same
// types they get after a save and load (numbers become float64).
func normalize(c Config) (Config, error) {
	if c == nil {
		return Config{}, nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	out := Config{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
