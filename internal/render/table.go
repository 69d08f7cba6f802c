package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"

	"github.com/rcarv/factory-planner/internal/mechanics"
	"github.com/rcarv/factory-planner/pkg/factory"
)

var craftingColumns = []string{
	"recipe_name", "recipe_quality", "machine",
	"num_qual_modules", "num_prod_modules", "num_beaconed_speed_modules",
	"num_buildings",
}

// CraftingRows flattens the nested crafting recipe report into table rows,
// ordered by recipe key then quality tier.
func CraftingRows(report *factory.SolveReport, names *Names) [][]string {
	var rows [][]string
	for _, recipeKey := range sortedKeys(report.CraftingRecipes) {
		byQuality := report.CraftingRecipes[recipeKey]
		for _, quality := range sortedQualities(byQuality) {
			for _, rec := range byQuality[quality] {
				rows = append(rows, []string{
					names.Recipe(recipeKey),
					quality,
					names.Item(rec.Machine),
					fmt.Sprintf("%d", rec.NumQualModules),
					fmt.Sprintf("%d", rec.NumProdModules),
					fmt.Sprintf("%d", rec.NumBeaconedSpeedModules),
					formatAmount(rec.NumBuildings),
				})
			}
		}
	}
	return rows
}

// WriteTable renders the crafting plan as a console table.
func WriteTable(w io.Writer, report *factory.SolveReport, names *Names) error {
	table := tablewriter.NewTable(w, tablewriter.WithHeader(craftingColumns))
	for _, row := range CraftingRows(report, names) {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("appending table row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	return nil
}

// WriteCSV exports the crafting plan in spreadsheet form.
func WriteCSV(w io.Writer, report *factory.SolveReport, names *Names) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(craftingColumns); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, row := range CraftingRows(report, names) {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortedQualities orders quality names by tier, not alphabetically.
func sortedQualities[V any](m map[string]V) []string {
	keys := sortedKeys(m)
	sort.Slice(keys, func(i, j int) bool {
		ti, erri := mechanics.ParseTier(keys[i])
		tj, errj := mechanics.ParseTier(keys[j])
		if erri != nil || errj != nil {
			return keys[i] < keys[j]
		}
		return ti < tj
	})
	return keys
}
