package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/rcarv/factory-planner/pkg/factory"
)

var qualityColors = map[string]*color.Color{
	"normal":    color.New(color.FgHiWhite),
	"uncommon":  color.New(color.FgGreen),
	"rare":      color.New(color.FgBlue),
	"epic":      color.New(color.FgMagenta),
	"legendary": color.New(color.FgYellow),
}

func qualityLabel(quality string) string {
	if c, ok := qualityColors[quality]; ok {
		return c.Sprint(quality)
	}
	return quality
}

// Print writes a human-readable report. Verbose mode adds per-variant
// ingredient and product breakdowns.
func Print(w io.Writer, report *factory.SolveReport, names *Names, verbose bool) {
	if !report.Solved {
		_, _ = color.New(color.FgRed, color.Bold).Fprintln(w, "The problem does not have an optimal solution.")
		return
	}

	title := color.New(color.FgCyan, color.Bold)
	_, _ = title.Fprintln(w, "Solution:")
	fmt.Fprintf(w, "Objective value = %g\n", report.Cost)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Buildings used: %s\n", formatAmount(report.NumBuildings))
	fmt.Fprintf(w, "Modules used: %s\n", formatAmount(report.NumModules))

	fmt.Fprintln(w)
	_, _ = title.Fprintln(w, "Input Resources:")
	for _, key := range sortedKeys(report.InputResources) {
		fmt.Fprintf(w, "%s (resource): %s\n", names.Item(key), formatAmount(report.InputResources[key]))
	}
	_, _ = title.Fprintln(w, "Input Items:")
	printNested(w, report.InputItems, names)

	if len(report.Byproducts) > 0 {
		fmt.Fprintln(w)
		_, _ = title.Fprintln(w, "Byproducts:")
		printNested(w, report.Byproducts, names)
	}

	fmt.Fprintln(w)
	_, _ = title.Fprintln(w, "Mining Recipes:")
	for _, resourceKey := range sortedKeys(report.MiningRecipes) {
		for _, rec := range report.MiningRecipes[resourceKey] {
			label := moduleLabel(rec.NumQualModules, rec.NumProdModules, rec.NumBeaconedSpeedModules)
			if label != "" {
				label += " "
			}
			fmt.Fprintf(w, "%s%s mining in %s: %s\n",
				label, names.Item(resourceKey), names.Item(rec.Machine), formatAmount(rec.NumBuildings))
			if verbose {
				fmt.Fprintf(w, "    Resource Consumption: %s\n", formatAmount(rec.ResourceConsumption))
				fmt.Fprintln(w, "    Ingredients:")
				for _, item := range sortedKeys(rec.Ingredients) {
					fmt.Fprintf(w, "        %s: %s\n", names.Item(item), formatAmount(rec.Ingredients[item]))
				}
				fmt.Fprintln(w, "    Products:")
				printIndentedNested(w, rec.Products, names)
			}
		}
	}

	fmt.Fprintln(w)
	_, _ = title.Fprintln(w, "Crafting Recipes:")
	for _, recipeKey := range sortedKeys(report.CraftingRecipes) {
		byQuality := report.CraftingRecipes[recipeKey]
		for _, quality := range sortedQualities(byQuality) {
			for _, rec := range byQuality[quality] {
				label := moduleLabel(rec.NumQualModules, rec.NumProdModules, rec.NumBeaconedSpeedModules)
				if label != "" {
					label += " "
				}
				fmt.Fprintf(w, "%s%s %s in %s: %s\n",
					label, qualityLabel(quality), names.Recipe(recipeKey),
					names.Item(rec.Machine), formatAmount(rec.NumBuildings))
				if verbose {
					fmt.Fprintln(w, "    Ingredients:")
					printIndentedNested(w, rec.Ingredients, names)
					fmt.Fprintln(w, "    Products:")
					printIndentedNested(w, rec.Products, names)
				}
			}
		}
	}
}

func printNested(w io.Writer, amounts map[string]map[string]float64, names *Names) {
	for _, item := range sortedKeys(amounts) {
		byQuality := amounts[item]
		for _, quality := range sortedQualities(byQuality) {
			fmt.Fprintf(w, "%s %s: %s\n", qualityLabel(quality), names.Item(item), formatAmount(byQuality[quality]))
		}
	}
}

func printIndentedNested(w io.Writer, amounts map[string]map[string]float64, names *Names) {
	for _, item := range sortedKeys(amounts) {
		byQuality := amounts[item]
		for _, quality := range sortedQualities(byQuality) {
			fmt.Fprintf(w, "        %s %s: %s\n", qualityLabel(quality), names.Item(item), formatAmount(byQuality[quality]))
		}
	}
}
