package classify

import "strings"

// LocationColor pairs a substring of a location with its colour.
type LocationColor struct {
	Marker string `toml:"marker" json:"marker"`
	Color  string `toml:"color" json:"color"`
}

// Palette colours locations by the first marker they contain.
type Palette struct {
	Entries []LocationColor
	Default string
}

// DefaultPalette marks the two school sites.
func DefaultPalette() Palette {
	return Palette{
		Entries: []LocationColor{
			{Marker: "SMC", Color: "#e21737"},
			{Marker: "MES", Color: "#1c3e93"},
		},
		Default: "#253745",
	}
}

func (p Palette) Color(location string) string {
	for _, e := range p.Entries {
		if e.Marker != "" && strings.Contains(location, e.Marker) {
			return e.Color
		}
	}
	return p.Default
}
