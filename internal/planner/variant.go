package planner

import (
	"errors"
	"fmt"

	"github.com/rcarv/factory-planner/internal/mechanics"
	"github.com/rcarv/factory-planner/pkg/factory"
)

// ErrAmbiguousMachine reports that best-machine selection found more than
// one machine tying on module slots, productivity bonus and speed at once.
// Selection must be deterministic, so ties are fatal rather than broken
// arbitrarily.
var ErrAmbiguousMachine = errors.New("unable to disambiguate best crafting machine")

// bestMachine picks the single machine for a recipe: among allowed machines
// covering the recipe's category, the one simultaneously maximizing module
// slots, intrinsic productivity bonus and crafting speed. A nil result
// means no machine matches and the recipe is skipped.
func (m *Model) bestMachine(recipe *CatalogRecipe) (*factory.CraftingMachine, error) {
	var candidates []*factory.CraftingMachine
	for _, machineKey := range m.cat.MachineOrder {
		if !m.machineAllowed(machineKey) {
			continue
		}
		machine := m.cat.Machines[machineKey]
		for _, category := range machine.CraftingCategories {
			if category == recipe.Category {
				candidates = append(candidates, machine)
				break
			}
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	maxSlots, maxProd, maxSpeed := candidates[0].ModuleSlots, candidates[0].ProdBonus, candidates[0].CraftingSpeed
	for _, c := range candidates[1:] {
		maxSlots = max(maxSlots, c.ModuleSlots)
		maxProd = max(maxProd, c.ProdBonus)
		maxSpeed = max(maxSpeed, c.CraftingSpeed)
	}

	var best []*factory.CraftingMachine
	for _, c := range candidates {
		if c.ModuleSlots == maxSlots && c.ProdBonus == maxProd && c.CraftingSpeed == maxSpeed {
			best = append(best, c)
		}
	}
	if len(best) != 1 {
		return nil, fmt.Errorf("%w for recipe %q", ErrAmbiguousMachine, recipe.Key)
	}
	return best[0], nil
}

// addRecipeVariants enumerates every valid loadout of the recipe in the
// machine: each eligible quality tier, each split of module slots into
// quality modules (the remainder becomes productivity modules when the
// recipe allows them), and each candidate beaconed speed module count.
func (m *Model) addRecipeVariants(recipe *CatalogRecipe, machine *factory.CraftingMachine) error {
	research := m.req.ProductivityResearch[recipe.Key]
	speedCandidates := mechanics.SpeedModuleCandidates(m.req.CheckSpeedModules)

	for _, quality := range recipe.Qualities {
		for numQual := 0; numQual <= machine.ModuleSlots; numQual++ {
			numProd := 0
			if recipe.AllowProductivity {
				numProd = machine.ModuleSlots - numQual
			}
			for _, numBeaconed := range speedCandidates {
				key := VariantKey{
					Recipe:               recipe.Key,
					Quality:              quality,
					Machine:              machine.Key,
					QualModules:          numQual,
					ProdModules:          numProd,
					BeaconedSpeedModules: numBeaconed,
				}
				if err := m.addVariant(key, recipe, machine, research); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// addVariant registers one decision variable and its signed per-second
// contributions to every item node the variant touches. The variable value
// is the number of buildings running this exact configuration.
func (m *Model) addVariant(key VariantKey, recipe *CatalogRecipe, machine *factory.CraftingMachine, research float64) error {
	effSpeed := m.mech.EffectiveSpeedModules(key.BeaconedSpeedModules)
	prodBonus := m.mech.ProductivityBonus(key.ProdModules, machine.ProdBonus, research)
	speedFactor := machine.CraftingSpeed *
		(1 + m.mech.BuildingSpeedBonus) *
		m.mech.ModuleSpeedFactor(effSpeed, key.QualModules, key.ProdModules)

	v := m.addVar(key.String(), 0)
	m.variantOrder = append(m.variantOrder, key)
	m.variantVars[key] = v

	m.buildingTerms = append(m.buildingTerms, term{v: v, coeff: 1})
	if numModules := key.QualModules + key.ProdModules + key.BeaconedSpeedModules; numModules > 0 {
		m.moduleTerms = append(m.moduleTerms, term{v: v, coeff: float64(numModules)})
	}

	// Ingredients are consumed at the recipe's own quality; quality-
	// ineligible ingredients (fluids, pseudo resources) stay at normal.
	for _, ing := range recipe.Ingredients {
		item := m.cat.Items[ing.Name]
		quality := mechanics.Normal
		if item.AllowsQuality {
			quality = key.Quality
		}
		rate := ing.Amount * speedFactor / recipe.EnergyRequired
		m.addTerm(ItemKey{Item: ing.Name, Quality: quality}, v, -rate)
	}

	// Each result fans out across every quality tier at or above the
	// recipe's tier, weighted by the advance probability. Quality never
	// regresses.
	qualityPercent := m.mech.QualityPercent(key.QualModules, effSpeed)
	for _, res := range recipe.Results {
		item := m.cat.Items[res.Name]
		expected := mechanics.ExpectedResultAmount(res, prodBonus)
		for _, resultQuality := range item.Qualities {
			shift := 1.0
			if item.AllowsQuality {
				if resultQuality < key.Quality {
					continue
				}
				var err error
				shift, err = mechanics.QualityShiftProbability(key.Quality, resultQuality, m.cat.MaxQuality, qualityPercent)
				if err != nil {
					return fmt.Errorf("variant %s: %w", key, err)
				}
			}
			rate := expected * speedFactor * shift / recipe.EnergyRequired
			m.addTerm(ItemKey{Item: res.Name, Quality: resultQuality}, v, rate)
		}
	}
	return nil
}
