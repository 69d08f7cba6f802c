package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarv/factory-planner/internal/mechanics"
	"github.com/rcarv/factory-planner/pkg/factory"
)

func modelFor(t *testing.T, data *factory.GameData, req *factory.SolveRequest) *Model {
	t.Helper()
	mech, err := mechanics.New(req)
	require.NoError(t, err)
	return newModel(BuildCatalog(data, mech.MaxQuality), mech, req)
}

func TestBestMachinePicksSimultaneousMaximum(t *testing.T) {
	data := &factory.GameData{
		Items: []factory.Item{{Key: "iron-plate", Type: "item"}},
		Recipes: []factory.Recipe{
			{
				Key:         "smelting",
				Ingredients: []factory.Ingredient{{Name: "iron-plate", Amount: 1}},
				Results:     []factory.Result{{Name: "iron-plate", Amount: amount(1)}},
				Category:    "smelting",
			},
		},
		CraftingMachines: []factory.CraftingMachine{
			{Key: "stone-furnace", ModuleSlots: 0, CraftingSpeed: 1, CraftingCategories: []string{"smelting"}},
			{Key: "electric-furnace", ModuleSlots: 2, CraftingSpeed: 2, CraftingCategories: []string{"smelting"}},
			{Key: "assembler", ModuleSlots: 4, CraftingSpeed: 1, CraftingCategories: []string{"crafting"}},
		},
	}
	m := modelFor(t, data, testRequest())

	machine, err := m.bestMachine(m.cat.Recipes["smelting"])
	require.NoError(t, err)
	require.NotNil(t, machine)
	assert.Equal(t, "electric-furnace", machine.Key)
}

func TestBestMachineAmbiguousTie(t *testing.T) {
	data := &factory.GameData{
		Items: []factory.Item{{Key: "iron-plate", Type: "item"}},
		Recipes: []factory.Recipe{
			{
				Key:         "smelting",
				Ingredients: []factory.Ingredient{{Name: "iron-plate", Amount: 1}},
				Results:     []factory.Result{{Name: "iron-plate", Amount: amount(1)}},
				Category:    "smelting",
			},
		},
		CraftingMachines: []factory.CraftingMachine{
			{Key: "furnace-a", ModuleSlots: 2, CraftingSpeed: 2, CraftingCategories: []string{"smelting"}},
			{Key: "furnace-b", ModuleSlots: 2, CraftingSpeed: 2, CraftingCategories: []string{"smelting"}},
		},
	}
	m := modelFor(t, data, testRequest())

	_, err := m.bestMachine(m.cat.Recipes["smelting"])
	assert.ErrorIs(t, err, ErrAmbiguousMachine)
}

func TestBestMachineNoCandidate(t *testing.T) {
	data := &factory.GameData{
		Items: []factory.Item{{Key: "iron-plate", Type: "item"}},
		Recipes: []factory.Recipe{
			{
				Key:         "smelting",
				Ingredients: []factory.Ingredient{{Name: "iron-plate", Amount: 1}},
				Results:     []factory.Result{{Name: "iron-plate", Amount: amount(1)}},
				Category:    "smelting",
			},
		},
	}
	m := modelFor(t, data, testRequest())

	machine, err := m.bestMachine(m.cat.Recipes["smelting"])
	require.NoError(t, err)
	assert.Nil(t, machine)
}

func TestBestMachineHonorsFilters(t *testing.T) {
	data := &factory.GameData{
		Items: []factory.Item{{Key: "iron-plate", Type: "item"}},
		Recipes: []factory.Recipe{
			{
				Key:         "smelting",
				Ingredients: []factory.Ingredient{{Name: "iron-plate", Amount: 1}},
				Results:     []factory.Result{{Name: "iron-plate", Amount: amount(1)}},
				Category:    "smelting",
			},
		},
		CraftingMachines: []factory.CraftingMachine{
			{Key: "stone-furnace", ModuleSlots: 0, CraftingSpeed: 1, CraftingCategories: []string{"smelting"}},
			{Key: "electric-furnace", ModuleSlots: 2, CraftingSpeed: 2, CraftingCategories: []string{"smelting"}},
		},
	}
	req := testRequest()
	req.DisallowedCraftingMachines = []string{"electric-furnace"}
	m := modelFor(t, data, req)

	machine, err := m.bestMachine(m.cat.Recipes["smelting"])
	require.NoError(t, err)
	require.NotNil(t, machine)
	assert.Equal(t, "stone-furnace", machine.Key)
}

func TestVariantEnumeration(t *testing.T) {
	data := &factory.GameData{
		Items: []factory.Item{
			{Key: "iron-plate", Type: "item"},
			{Key: "iron-gear-wheel", Type: "item"},
		},
		Recipes: []factory.Recipe{
			{
				Key:               "iron-gear-wheel",
				Ingredients:       []factory.Ingredient{{Name: "iron-plate", Amount: 2}},
				Results:           []factory.Result{{Name: "iron-gear-wheel", Amount: amount(1)}},
				EnergyRequired:    0.5,
				Category:          "crafting",
				AllowProductivity: true,
			},
		},
		CraftingMachines: []factory.CraftingMachine{
			{Key: "assembler", ModuleSlots: 2, CraftingSpeed: 1, CraftingCategories: []string{"crafting"}},
		},
	}

	m := modelFor(t, data, testRequest())
	require.NoError(t, m.build())

	// One quality tier, three slot splits, no beaconed speed search.
	require.Len(t, m.variantOrder, 3)
	for i, key := range m.variantOrder {
		assert.Equal(t, i, key.QualModules)
		assert.Equal(t, 2-i, key.ProdModules, "remaining slots become prod modules")
		assert.Zero(t, key.BeaconedSpeedModules)
	}
}

func TestVariantEnumerationModulelessMachine(t *testing.T) {
	data := &factory.GameData{
		Items: []factory.Item{
			{Key: "iron-plate", Type: "item"},
			{Key: "iron-gear-wheel", Type: "item"},
		},
		Recipes: []factory.Recipe{
			{
				Key:            "iron-gear-wheel",
				Ingredients:    []factory.Ingredient{{Name: "iron-plate", Amount: 2}},
				Results:        []factory.Result{{Name: "iron-gear-wheel", Amount: amount(1)}},
				EnergyRequired: 0.5,
				Category:       "crafting",
			},
		},
		CraftingMachines: []factory.CraftingMachine{
			{Key: "assembler", ModuleSlots: 0, CraftingSpeed: 1, CraftingCategories: []string{"crafting"}},
		},
	}

	req := testRequest()
	req.MaxQualityUnlocked = "legendary"
	m := modelFor(t, data, req)
	require.NoError(t, m.build())

	// No module slots and no beaconed speed search collapse the loadout
	// space to exactly one variant per eligible quality tier.
	require.Len(t, m.variantOrder, int(mechanics.Legendary)+1)
	seen := make(map[mechanics.Tier]bool)
	for _, key := range m.variantOrder {
		assert.Zero(t, key.QualModules)
		assert.Zero(t, key.ProdModules)
		assert.Zero(t, key.BeaconedSpeedModules)
		assert.False(t, seen[key.Quality], "duplicate variant for tier %v", key.Quality)
		seen[key.Quality] = true
	}
}

func TestVariantEnumerationWithSpeedSearch(t *testing.T) {
	data := &factory.GameData{
		Items: []factory.Item{
			{Key: "iron-plate", Type: "item"},
			{Key: "iron-gear-wheel", Type: "item"},
		},
		Recipes: []factory.Recipe{
			{
				Key:            "iron-gear-wheel",
				Ingredients:    []factory.Ingredient{{Name: "iron-plate", Amount: 2}},
				Results:        []factory.Result{{Name: "iron-gear-wheel", Amount: amount(1)}},
				EnergyRequired: 0.5,
				Category:       "crafting",
			},
		},
		CraftingMachines: []factory.CraftingMachine{
			{Key: "assembler", ModuleSlots: 1, CraftingSpeed: 1, CraftingCategories: []string{"crafting"}},
		},
	}

	req := testRequest()
	req.CheckSpeedModules = true
	m := modelFor(t, data, req)
	require.NoError(t, m.build())

	// Two slot splits times seventeen beaconed speed counts. The recipe
	// disallows productivity, so the unfilled slot stays empty.
	require.Len(t, m.variantOrder, 2*(mechanics.MaxBeaconedSpeedModules+1))
	for _, key := range m.variantOrder {
		assert.Zero(t, key.ProdModules)
	}
}
