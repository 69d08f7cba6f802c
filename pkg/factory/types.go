// Package factory contains the core types for the factory planning server.
package factory

// ============================================
// SOLVE REQUEST TYPES
// ============================================

// SolveRequest is the full configuration for one planning run.
//
// AllowedRecipes and DisallowedRecipes are mutually exclusive; a nil slice
// means "no restriction" while an empty slice means "nothing allowed". The
// same applies to the crafting machine lists.
type SolveRequest struct {
	QualityModuleTier    int    `json:"quality_module_tier"`
	QualityModuleQuality string `json:"quality_module_quality"`

	ProdModuleTier    int    `json:"prod_module_tier"`
	ProdModuleQuality string `json:"prod_module_quality"`

	// CheckSpeedModules expands the search space with beaconed speed module
	// counts. Off by default since it multiplies the variant count.
	CheckSpeedModules  bool   `json:"check_speed_modules,omitempty"`
	SpeedModuleTier    int    `json:"speed_module_tier"`
	SpeedModuleQuality string `json:"speed_module_quality"`

	BuildingQuality    string `json:"building_quality"`
	MaxQualityUnlocked string `json:"max_quality_unlocked"`

	// ProductivityResearch maps recipe keys to a researched bonus fraction.
	ProductivityResearch map[string]float64 `json:"productivity_research,omitempty"`

	AllowByproducts bool `json:"allow_byproducts,omitempty"`

	ModuleCost   float64 `json:"module_cost"`
	BuildingCost float64 `json:"building_cost"`

	AllowedRecipes    []string `json:"allowed_recipes,omitempty"`
	DisallowedRecipes []string `json:"disallowed_recipes,omitempty"`

	AllowedCraftingMachines    []string `json:"allowed_crafting_machines,omitempty"`
	DisallowedCraftingMachines []string `json:"disallowed_crafting_machines,omitempty"`

	Inputs  []Input  `json:"inputs"`
	Outputs []Output `json:"outputs"`
}

// Input declares an externally supplied item with a per-unit cost.
// Quantity is decided by the solver (non-negative, unbounded).
type Input struct {
	Key     string  `json:"key"`
	Quality string  `json:"quality"`
	Cost    float64 `json:"cost"`
	// Resource marks raw resources (ore patches etc) rather than items.
	Resource bool `json:"resource,omitempty"`
}

// Output declares a required production rate for an item at a quality.
type Output struct {
	Key     string  `json:"key"`
	Quality string  `json:"quality"`
	Amount  float64 `json:"amount"`
}

// ============================================
// GAME DATA TYPES
// ============================================

// GameData is the static catalog the planner operates on.
type GameData struct {
	Items            []Item            `json:"items"`
	Recipes          []Recipe          `json:"recipes"`
	CraftingMachines []CraftingMachine `json:"crafting_machines"`
	Resources        []Resource        `json:"resources"`
	MiningDrills     []MiningDrill     `json:"mining_drills"`
}

// Item is a craftable or minable thing. Fluids never carry a quality tier.
type Item struct {
	Key           string            `json:"key"`
	Type          string            `json:"type"`
	LocalizedName map[string]string `json:"localized_name,omitempty"`
}

// Ingredient is one input line of a recipe.
type Ingredient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Result is one output line of a recipe. Either Amount is set, or AmountMin
// and AmountMax describe a uniform range. A nil Probability means 1.0.
type Result struct {
	Name                  string   `json:"name"`
	Amount                *float64 `json:"amount,omitempty"`
	AmountMin             float64  `json:"amount_min,omitempty"`
	AmountMax             float64  `json:"amount_max,omitempty"`
	Probability           *float64 `json:"probability,omitempty"`
	IgnoredByProductivity float64  `json:"ignored_by_productivity,omitempty"`
	ExtraCountFraction    float64  `json:"extra_count_fraction,omitempty"`
}

// Recipe converts ingredients into results in a machine of its category.
type Recipe struct {
	Key               string            `json:"key"`
	Ingredients       []Ingredient      `json:"ingredients"`
	Results           []Result          `json:"results"`
	EnergyRequired    float64           `json:"energy_required"`
	Category          string            `json:"category"`
	AllowProductivity bool              `json:"allow_productivity"`
	LocalizedName     map[string]string `json:"localized_name,omitempty"`
}

// CraftingMachine runs recipes of its categories.
type CraftingMachine struct {
	Key                string   `json:"key"`
	ModuleSlots        int      `json:"module_slots"`
	CraftingSpeed      float64  `json:"crafting_speed"`
	CraftingCategories []string `json:"crafting_categories"`
	ProdBonus          float64  `json:"prod_bonus"`
}

// Resource is a raw deposit mined by drills of a matching category.
type Resource struct {
	Key           string   `json:"key"`
	MiningTime    float64  `json:"mining_time"`
	Category      string   `json:"category,omitempty"`
	Results       []Result `json:"results"`
	RequiredFluid string   `json:"required_fluid,omitempty"`
	FluidAmount   float64  `json:"fluid_amount,omitempty"`
}

// MiningDrill extracts resources of its categories.
type MiningDrill struct {
	Key                string   `json:"key"`
	ModuleSlots        int      `json:"module_slots"`
	MiningSpeed        float64  `json:"mining_speed"`
	ResourceCategories []string `json:"resource_categories"`
}

// ============================================
// SOLVE REPORT TYPES
// ============================================

// SolveReport is the decoded result of one planning run.
//
// Nested maps are keyed item key -> quality name -> amount per second,
// except InputResources which is flat (resources have no quality).
type SolveReport struct {
	Solved bool `json:"solved"`

	Cost         float64 `json:"cost,omitempty"`
	NumBuildings float64 `json:"num_buildings,omitempty"`
	NumModules   float64 `json:"num_modules,omitempty"`

	InputResources map[string]float64            `json:"input_resources,omitempty"`
	InputItems     map[string]map[string]float64 `json:"input_items,omitempty"`
	Byproducts     map[string]map[string]float64 `json:"byproducts,omitempty"`

	// MiningRecipes is keyed by resource key; a resource can be mined by
	// several distinct drill loadouts at once.
	MiningRecipes map[string][]MiningRecipe `json:"mining_recipes,omitempty"`

	// CraftingRecipes is keyed recipe key -> quality name. A recipe can
	// appear multiple times at the same quality with different loadouts.
	CraftingRecipes map[string]map[string][]CraftingRecipe `json:"crafting_recipes,omitempty"`
}

// CraftingRecipe reports one solved recipe variant.
type CraftingRecipe struct {
	NumBuildings            float64                       `json:"num_buildings"`
	Machine                 string                        `json:"machine"`
	NumQualModules          int                           `json:"num_qual_modules"`
	NumProdModules          int                           `json:"num_prod_modules"`
	NumBeaconedSpeedModules int                           `json:"num_beaconed_speed_modules"`
	Ingredients             map[string]map[string]float64 `json:"ingredients"`
	Products                map[string]map[string]float64 `json:"products"`
}

// MiningRecipe reports one solved mining variant. Ingredients is flat since
// the only real ingredients of mining are fluids, which carry no quality.
type MiningRecipe struct {
	NumBuildings            float64                       `json:"num_buildings"`
	Machine                 string                        `json:"machine"`
	NumQualModules          int                           `json:"num_qual_modules"`
	NumProdModules          int                           `json:"num_prod_modules"`
	NumBeaconedSpeedModules int                           `json:"num_beaconed_speed_modules"`
	ResourceConsumption     float64                       `json:"resource_consumption"`
	Ingredients             map[string]float64            `json:"ingredients,omitempty"`
	Products                map[string]map[string]float64 `json:"products"`
}
