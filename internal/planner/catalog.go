package planner

import (
	"github.com/rcarv/factory-planner/internal/mechanics"
	"github.com/rcarv/factory-planner/pkg/factory"
)

// defaultResourceCategory is assumed for resources that don't declare one.
const defaultResourceCategory = "basic-solid"

// CatalogItem is an item with its derived quality eligibility.
type CatalogItem struct {
	factory.Item
	AllowsQuality bool
	Qualities     []mechanics.Tier
}

// CatalogRecipe is a recipe with its derived quality eligibility.
type CatalogRecipe struct {
	factory.Recipe
	AllowsQuality bool
	Qualities     []mechanics.Tier
}

// Catalog is the normalized game data one solve operates on. It is built
// fresh per request and not mutated afterwards. The *Order slices preserve
// input order (synthetic entities appended last) so that variable
// registration is deterministic.
type Catalog struct {
	Items    map[string]*CatalogItem
	Recipes  map[string]*CatalogRecipe
	Machines map[string]*factory.CraftingMachine

	ItemOrder    []string
	RecipeOrder  []string
	MachineOrder []string

	MaxQuality mechanics.Tier
}

// BuildCatalog normalizes raw game data: it derives per-entity quality
// eligibility, drops recipes referencing unknown items, and synthesizes
// pseudo items/recipes for resources and pseudo machines for mining drills.
// The input data is not modified.
func BuildCatalog(data *factory.GameData, maxQuality mechanics.Tier) *Catalog {
	cat := &Catalog{
		Items:      make(map[string]*CatalogItem, len(data.Items)),
		Recipes:    make(map[string]*CatalogRecipe, len(data.Recipes)),
		Machines:   make(map[string]*factory.CraftingMachine, len(data.CraftingMachines)),
		MaxQuality: maxQuality,
	}

	for _, item := range data.Items {
		allowsQuality := item.Type != "fluid"
		cat.addItem(&CatalogItem{
			Item:          item,
			AllowsQuality: allowsQuality,
			Qualities:     itemQualities(allowsQuality, maxQuality),
		})
	}

	for _, recipe := range data.Recipes {
		// A handful of catalog entries reference items that don't exist;
		// those recipes are dropped rather than treated as an error.
		known := true
		allowsQuality := false
		for _, ing := range recipe.Ingredients {
			item, ok := cat.Items[ing.Name]
			if !ok {
				known = false
				break
			}
			if item.AllowsQuality {
				allowsQuality = true
			}
		}
		for _, res := range recipe.Results {
			if _, ok := cat.Items[res.Name]; !ok {
				known = false
				break
			}
		}
		if !known {
			continue
		}
		cat.addRecipe(&CatalogRecipe{
			Recipe:        recipe,
			AllowsQuality: allowsQuality,
			Qualities:     itemQualities(allowsQuality, maxQuality),
		})
	}

	for i := range data.CraftingMachines {
		cat.addMachine(&data.CraftingMachines[i])
	}

	for _, resource := range data.Resources {
		cat.addResource(resource)
	}
	for _, drill := range data.MiningDrills {
		cat.addMiningDrill(drill)
	}

	return cat
}

// addResource synthesizes the pseudo item and pseudo recipe that make a raw
// deposit participate in the mass-balance system: mining one unit consumes
// one unit of the pseudo item (plus any required fluid) and yields the
// resource's declared results.
func (c *Catalog) addResource(resource factory.Resource) {
	itemKey := ResourceItemKey(resource.Key)
	c.addItem(&CatalogItem{
		Item:          factory.Item{Key: itemKey},
		AllowsQuality: false,
		Qualities:     itemQualities(false, c.MaxQuality),
	})

	ingredients := []factory.Ingredient{{Name: itemKey, Amount: 1}}
	if resource.RequiredFluid != "" {
		ingredients = append(ingredients, factory.Ingredient{
			Name:   resource.RequiredFluid,
			Amount: resource.FluidAmount,
		})
	}
	category := resource.Category
	if category == "" {
		category = defaultResourceCategory
	}
	c.addRecipe(&CatalogRecipe{
		Recipe: factory.Recipe{
			Key:            MiningRecipeKey(resource.Key),
			Ingredients:    ingredients,
			Results:        resource.Results,
			EnergyRequired: resource.MiningTime,
			Category:       category,
			// Prod modules in drills only reduce deposit drain; quality
			// modules are the interesting choice there.
			AllowProductivity: false,
		},
		AllowsQuality: false,
		Qualities:     itemQualities(false, c.MaxQuality),
	})
}

// addMiningDrill synthesizes a crafting machine so drills compete in best-
// machine selection like any assembler.
func (c *Catalog) addMiningDrill(drill factory.MiningDrill) {
	c.addMachine(&factory.CraftingMachine{
		Key:                drill.Key,
		ModuleSlots:        drill.ModuleSlots,
		CraftingSpeed:      drill.MiningSpeed,
		CraftingCategories: drill.ResourceCategories,
		ProdBonus:          0,
	})
}

func (c *Catalog) addItem(item *CatalogItem) {
	if _, ok := c.Items[item.Key]; !ok {
		c.ItemOrder = append(c.ItemOrder, item.Key)
	}
	c.Items[item.Key] = item
}

func (c *Catalog) addRecipe(recipe *CatalogRecipe) {
	if _, ok := c.Recipes[recipe.Key]; !ok {
		c.RecipeOrder = append(c.RecipeOrder, recipe.Key)
	}
	c.Recipes[recipe.Key] = recipe
}

func (c *Catalog) addMachine(machine *factory.CraftingMachine) {
	if _, ok := c.Machines[machine.Key]; !ok {
		c.MachineOrder = append(c.MachineOrder, machine.Key)
	}
	c.Machines[machine.Key] = machine
}

func itemQualities(allowsQuality bool, maxQuality mechanics.Tier) []mechanics.Tier {
	if !allowsQuality {
		return []mechanics.Tier{mechanics.Normal}
	}
	tiers := make([]mechanics.Tier, 0, int(maxQuality)+1)
	for t := mechanics.Normal; t <= maxQuality; t++ {
		tiers = append(tiers, t)
	}
	return tiers
}
