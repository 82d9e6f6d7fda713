package main

import (
	"encoding/json"

	"github.com/charmbracelet/lipgloss"

	"github.com/kir-gadjello/ikoi/kv"
)

// Theme is a named lipgloss palette for the TUI. Purely decorative; the
// selected name is persisted under kv.KeyTheme.
type Theme struct {
	Name      string
	User      lipgloss.Style
	Assistant lipgloss.Style
	Error     lipgloss.Style
	Accent    lipgloss.Style
	Dim       lipgloss.Style
	Highlight lipgloss.Style
}

var themeOrder = []string{"ocean", "dusk", "mono"}

var themes = map[string]Theme{
	"ocean": {
		Name:      "ocean",
		User:      lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		Assistant: lipgloss.NewStyle().Foreground(lipgloss.Color("171")).Bold(true),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Accent:    lipgloss.NewStyle().Foreground(lipgloss.Color("51")),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Highlight: lipgloss.NewStyle().Background(lipgloss.Color("220")).Foreground(lipgloss.Color("16")),
	},
	"dusk": {
		Name:      "dusk",
		User:      lipgloss.NewStyle().Foreground(lipgloss.Color("215")).Bold(true),
		Assistant: lipgloss.NewStyle().Foreground(lipgloss.Color("141")).Bold(true),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		Accent:    lipgloss.NewStyle().Foreground(lipgloss.Color("219")),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		Highlight: lipgloss.NewStyle().Background(lipgloss.Color("215")).Foreground(lipgloss.Color("16")),
	},
	"mono": {
		Name:      "mono",
		User:      lipgloss.NewStyle().Bold(true),
		Assistant: lipgloss.NewStyle().Bold(true),
		Error:     lipgloss.NewStyle().Reverse(true),
		Accent:    lipgloss.NewStyle().Underline(true),
		Dim:       lipgloss.NewStyle().Faint(true),
		Highlight: lipgloss.NewStyle().Reverse(true),
	},
}

type themeRecord struct {
	Name string `json:"name"`
}

// loadTheme reads the persisted theme selection, falling back to the
// configured or default palette when absent or unparsable.
func loadTheme(kvs kv.Store, fallback string) Theme {
	name := fallback
	if data, err := kvs.Get(kv.KeyTheme); err == nil {
		var rec themeRecord
		if json.Unmarshal(data, &rec) == nil && rec.Name != "" {
			name = rec.Name
		}
	}
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[themeOrder[0]]
}

func saveTheme(kvs kv.Store, name string) {
	data, err := json.Marshal(themeRecord{Name: name})
	if err != nil {
		return
	}
	kvs.Put(kv.KeyTheme, data)
}

// nextTheme cycles through the palette order.
func nextTheme(current string) Theme {
	for i, name := range themeOrder {
		if name == current {
			return themes[themeOrder[(i+1)%len(themeOrder)]]
		}
	}
	return themes[themeOrder[0]]
}
