package planner

import (
	"github.com/rcarv/factory-planner/pkg/factory"
)

// Report decodes the solved variable values back into the nested,
// domain-keyed solve report. Values at or below the solution epsilon are
// floating-point noise and omitted. On an infeasible model the report only
// carries solved=false.
func (m *Model) Report() *factory.SolveReport {
	if m.state != stateSolved {
		return &factory.SolveReport{Solved: false}
	}
	values := m.solution.Values

	report := &factory.SolveReport{
		Solved:         true,
		Cost:           m.solution.Objective,
		NumBuildings:   values[m.numBuildingsVar],
		NumModules:     values[m.numModulesVar],
		InputResources: make(map[string]float64),
		InputItems:     make(map[string]map[string]float64),
	}

	for key, v := range m.inputVars {
		amount := values[v]
		if amount <= solutionEpsilon {
			continue
		}
		if IsResourceItem(key.Item) {
			report.InputResources[BaseKey(key.Item)] = amount
		} else {
			putNested(report.InputItems, key.Item, key.Quality.String(), amount)
		}
	}

	if m.req.AllowByproducts {
		report.Byproducts = make(map[string]map[string]float64)
		for key, v := range m.byproductVars {
			amount := values[v]
			if amount <= solutionEpsilon {
				continue
			}
			putNested(report.Byproducts, key.Item, key.Quality.String(), amount)
		}
	}

	report.MiningRecipes = make(map[string][]factory.MiningRecipe)
	report.CraftingRecipes = make(map[string]map[string][]factory.CraftingRecipe)

	for _, key := range m.variantOrder {
		v := m.variantVars[key]
		numBuildings := values[v]
		if numBuildings <= solutionEpsilon {
			continue
		}
		if IsMiningRecipe(key.Recipe) {
			resourceKey := BaseKey(key.Recipe)
			report.MiningRecipes[resourceKey] = append(
				report.MiningRecipes[resourceKey],
				m.miningVariantReport(key, v, numBuildings),
			)
		} else {
			byQuality := report.CraftingRecipes[key.Recipe]
			if byQuality == nil {
				byQuality = make(map[string][]factory.CraftingRecipe)
				report.CraftingRecipes[key.Recipe] = byQuality
			}
			qualityName := key.Quality.String()
			byQuality[qualityName] = append(byQuality[qualityName], m.craftingVariantReport(key, v, numBuildings))
		}
	}

	return report
}

// miningVariantReport rebuilds one mining variant's breakdown by re-scanning
// every item node for terms owned by this variant's variable, scaled by the
// solved building count. The pseudo-resource term becomes the deposit
// consumption; other negative terms are real ingredients (mining fluids).
func (m *Model) miningVariantReport(key VariantKey, v int, numBuildings float64) factory.MiningRecipe {
	resourceKey := BaseKey(key.Recipe)
	rec := factory.MiningRecipe{
		NumBuildings:            numBuildings,
		Machine:                 key.Machine,
		NumQualModules:          key.QualModules,
		NumProdModules:          key.ProdModules,
		NumBeaconedSpeedModules: key.BeaconedSpeedModules,
		Products:                make(map[string]map[string]float64),
	}

	for _, nodeKey := range m.nodeOrder {
		for _, t := range m.nodes[nodeKey].terms {
			if t.v != v {
				continue
			}
			total := t.coeff * numBuildings
			switch {
			case total < 0 && nodeKey.Item == ResourceItemKey(resourceKey):
				rec.ResourceConsumption = -total
			case total < 0:
				if rec.Ingredients == nil {
					rec.Ingredients = make(map[string]float64)
				}
				rec.Ingredients[nodeKey.Item] = -total
			case total > 0:
				putNested(rec.Products, nodeKey.Item, nodeKey.Quality.String(), total)
			}
		}
	}
	return rec
}

// craftingVariantReport is the crafting-side counterpart of
// miningVariantReport, with quality-nested ingredient and product maps.
func (m *Model) craftingVariantReport(key VariantKey, v int, numBuildings float64) factory.CraftingRecipe {
	rec := factory.CraftingRecipe{
		NumBuildings:            numBuildings,
		Machine:                 key.Machine,
		NumQualModules:          key.QualModules,
		NumProdModules:          key.ProdModules,
		NumBeaconedSpeedModules: key.BeaconedSpeedModules,
		Ingredients:             make(map[string]map[string]float64),
		Products:                make(map[string]map[string]float64),
	}

	for _, nodeKey := range m.nodeOrder {
		for _, t := range m.nodes[nodeKey].terms {
			if t.v != v {
				continue
			}
			// A term can be exactly zero, e.g. an unreachable quality
			// fan-out with no quality modules installed; those are not
			// reported.
			total := t.coeff * numBuildings
			switch {
			case total < 0:
				putNested(rec.Ingredients, nodeKey.Item, nodeKey.Quality.String(), -total)
			case total > 0:
				putNested(rec.Products, nodeKey.Item, nodeKey.Quality.String(), total)
			}
		}
	}
	return rec
}

func putNested(m map[string]map[string]float64, outer, inner string, amount float64) {
	nested := m[outer]
	if nested == nil {
		nested = make(map[string]float64)
		m[outer] = nested
	}
	nested[inner] = amount
}
