package layout

// Merge reconciles a saved layout with the current defaults.
//
// Saved widgets keep their order, enabled flag, type, size and config.
// Widgets that still exist in the defaults adopt the default title and
// available sizes, and the default type only when none was saved. A saved
// size that is no longer available falls back to the default size. Saved
// widgets missing from the defaults are kept as they are. Default widgets
// missing from the saved layout are appended once, in catalog order. An
// invalid saved grid is replaced by the default grid.
func Merge(saved, defaults State) State {
	out := State{
		Version: defaults.Version,
		Widgets: make([]Widget, 0, len(saved.Widgets)+len(defaults.Widgets)),
		Configs: make(map[string]Config, len(defaults.Widgets)),
		Grid:    saved.Grid,
	}
	if out.Grid.Validate() != nil {
		out.Grid = defaults.Grid
	}

	byID := make(map[string]Widget, len(defaults.Widgets))
	for _, d := range defaults.Widgets {
		byID[d.ID] = d
	}

	seen := make(map[string]bool, len(saved.Widgets))
	for _, w := range saved.Widgets {
		if w.ID == "" || seen[w.ID] {
			continue
		}
		seen[w.ID] = true

		if d, ok := byID[w.ID]; ok {
			merged := d
			merged.Enabled = w.Enabled
			if w.Type != "" {
				merged.Type = w.Type
			}
			if d.HasSize(w.CurrentSize) {
				merged.CurrentSize = w.CurrentSize
			}
			out.Widgets = append(out.Widgets, merged)
		} else {
			out.Widgets = append(out.Widgets, w)
		}
		out.Configs[w.ID] = pickConfig(w.ID, saved.Configs, defaults.Configs)
	}

	for _, d := range defaults.Widgets {
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true
		out.Widgets = append(out.Widgets, d)
		out.Configs[d.ID] = pickConfig(d.ID, nil, defaults.Configs)
	}

	return out.Clone()
}

func pickConfig(id string, saved, defaults map[string]Config) Config {
	if c, ok := saved[id]; ok && c != nil {
		return c
	}
	if c, ok := defaults[id]; ok && c != nil {
		return c
	}
	return Config{}
}
