package render

import (
	"strings"

	"github.com/portalctl/portalctl/internal/config/data"
	"github.com/portalctl/portalctl/internal/grid"
)

// Stat is one footer counter.
type Stat struct {
	Label string
	Count int
	Class string
}

// Stats counts the loaded rows per spec.
func Stats(specs []data.StatSpec, rows []grid.Row) []Stat {
	out := make([]Stat, 0, len(specs))
	for _, s := range specs {
		st := Stat{Label: s.Label, Class: s.Class}
		for _, r := range rows {
			if s.Key == "" || strings.EqualFold(grid.Stringify(r[s.Key]), s.Value) {
				st.Count++
			}
		}
		out = append(out, st)
	}

	return out
}
