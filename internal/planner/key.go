package planner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rcarv/factory-planner/internal/mechanics"
)

// Synthetic key suffixes marking entities the normalizer invents so that
// raw-resource extraction runs through the same constraint system.
const (
	resourceItemSuffix  = "--resource"
	miningRecipeSuffix  = "--mining"
	variantFieldSep     = "__"
	inputVarPrefix      = "input" + variantFieldSep
	byproductVarPrefix  = "byproduct" + variantFieldSep
	numModulesVarName   = "num-modules"
	numBuildingsVarName = "num-buildings"
)

// ResourceItemKey returns the pseudo-item key for a raw resource deposit.
func ResourceItemKey(resourceKey string) string {
	return resourceKey + resourceItemSuffix
}

// MiningRecipeKey returns the pseudo-recipe key for extracting a resource.
func MiningRecipeKey(resourceKey string) string {
	return resourceKey + miningRecipeSuffix
}

// IsResourceItem reports whether key names a synthetic resource pseudo-item.
func IsResourceItem(key string) bool {
	return strings.HasSuffix(key, resourceItemSuffix)
}

// IsMiningRecipe reports whether key names a synthetic mining pseudo-recipe.
func IsMiningRecipe(key string) bool {
	return strings.HasSuffix(key, miningRecipeSuffix)
}

// BaseKey strips the synthetic suffix, if any, returning the game's key.
func BaseKey(key string) string {
	if i := strings.Index(key, "--"); i >= 0 {
		return key[:i]
	}
	return key
}

// ItemKey identifies one (item, quality) node of the mass-balance system.
type ItemKey struct {
	Item    string
	Quality mechanics.Tier
}

// String encodes the key as "<quality>__<item>", the flat form used for
// engine variable names.
func (k ItemKey) String() string {
	return k.Quality.String() + variantFieldSep + k.Item
}

// ParseItemKey decodes the flat "<quality>__<item>" form.
func ParseItemKey(s string) (ItemKey, error) {
	parts := strings.SplitN(s, variantFieldSep, 2)
	if len(parts) != 2 {
		return ItemKey{}, fmt.Errorf("malformed item key %q", s)
	}
	quality, err := mechanics.ParseTier(parts[0])
	if err != nil {
		return ItemKey{}, fmt.Errorf("item key %q: %w", s, err)
	}
	return ItemKey{Item: parts[1], Quality: quality}, nil
}

// VariantKey identifies one recipe variant: a recipe running at a quality
// tier in a specific machine with a specific module loadout. Each distinct
// key becomes one decision variable (number of buildings).
type VariantKey struct {
	Recipe               string
	Quality              mechanics.Tier
	Machine              string
	QualModules          int
	ProdModules          int
	BeaconedSpeedModules int
}

// String encodes the key into the delimited flat form used for engine
// variable names, e.g.
// "rare__iron-gear-wheel__assembling-machine-3__2-qual__2-prod__0-beaconed-speed".
func (k VariantKey) String() string {
	return strings.Join([]string{
		k.Quality.String(),
		k.Recipe,
		k.Machine,
		strconv.Itoa(k.QualModules) + "-qual",
		strconv.Itoa(k.ProdModules) + "-prod",
		strconv.Itoa(k.BeaconedSpeedModules) + "-beaconed-speed",
	}, variantFieldSep)
}

// ParseVariantKey decodes the flat form back into a structured key. It is
// the exact inverse of String.
func ParseVariantKey(s string) (VariantKey, error) {
	parts := strings.Split(s, variantFieldSep)
	if len(parts) != 6 {
		return VariantKey{}, fmt.Errorf("malformed variant key %q", s)
	}
	quality, err := mechanics.ParseTier(parts[0])
	if err != nil {
		return VariantKey{}, fmt.Errorf("variant key %q: %w", s, err)
	}
	numQual, err := parseCountField(parts[3], "-qual")
	if err != nil {
		return VariantKey{}, fmt.Errorf("variant key %q: %w", s, err)
	}
	numProd, err := parseCountField(parts[4], "-prod")
	if err != nil {
		return VariantKey{}, fmt.Errorf("variant key %q: %w", s, err)
	}
	numBeaconed, err := parseCountField(parts[5], "-beaconed-speed")
	if err != nil {
		return VariantKey{}, fmt.Errorf("variant key %q: %w", s, err)
	}
	return VariantKey{
		Recipe:               parts[1],
		Quality:              quality,
		Machine:              parts[2],
		QualModules:          numQual,
		ProdModules:          numProd,
		BeaconedSpeedModules: numBeaconed,
	}, nil
}

func parseCountField(field, suffix string) (int, error) {
	raw, ok := strings.CutSuffix(field, suffix)
	if !ok {
		return 0, fmt.Errorf("field %q missing suffix %q", field, suffix)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", field, err)
	}
	return n, nil
}
