// Package render turns solve reports into console tables, CSV files and
// Mermaid flow charts.
package render

import (
	"fmt"
	"strings"

	"github.com/rcarv/factory-planner/pkg/factory"
)

// Names resolves catalog keys to display names, falling back to the key
// when the catalog carries no localized name (test fixtures usually don't).
type Names struct {
	items   map[string]string
	recipes map[string]string
}

// NewNames builds the lookup tables from raw game data.
func NewNames(data *factory.GameData) *Names {
	n := &Names{
		items:   make(map[string]string, len(data.Items)),
		recipes: make(map[string]string, len(data.Recipes)),
	}
	for _, item := range data.Items {
		n.items[item.Key] = displayName(item.LocalizedName, item.Key)
	}
	for _, recipe := range data.Recipes {
		n.recipes[recipe.Key] = displayName(recipe.LocalizedName, recipe.Key)
	}
	return n
}

// Item returns the display name for an item key.
func (n *Names) Item(key string) string {
	if name, ok := n.items[key]; ok {
		return name
	}
	return key
}

// Recipe returns the display name for a recipe key.
func (n *Names) Recipe(key string) string {
	if name, ok := n.recipes[key]; ok {
		return name
	}
	return key
}

func displayName(localized map[string]string, fallback string) string {
	if name, ok := localized["en"]; ok {
		return strings.ToLower(name)
	}
	return fallback
}

// formatAmount renders a per-second rate with precision scaled to its
// magnitude; very small amounts switch to scientific notation.
func formatAmount(f float64) string {
	switch {
	case f >= 1.0:
		return fmt.Sprintf("%.2f", f)
	case f >= 0.1:
		return fmt.Sprintf("%.3f", f)
	case f >= 0.01:
		return fmt.Sprintf("%.4f", f)
	default:
		return fmt.Sprintf("%.2e", f)
	}
}

// moduleLabel abbreviates a module loadout, e.g. "2Q 2P 4BS".
func moduleLabel(numQual, numProd, numBeaconedSpeed int) string {
	var parts []string
	if numQual > 0 {
		parts = append(parts, fmt.Sprintf("%dQ", numQual))
	}
	if numProd > 0 {
		parts = append(parts, fmt.Sprintf("%dP", numProd))
	}
	if numBeaconedSpeed > 0 {
		parts = append(parts, fmt.Sprintf("%dBS", numBeaconedSpeed))
	}
	return strings.Join(parts, " ")
}
