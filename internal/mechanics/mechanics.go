// Package mechanics implements the game's quality, productivity and speed
// arithmetic as pure functions over immutable constant tables.
package mechanics

import (
	"fmt"
	"math"

	"github.com/rcarv/factory-planner/pkg/factory"
)

// Tier is a discrete quality level. Higher tiers strictly improve an item.
type Tier int

// Quality tiers, lowest to highest.
const (
	Normal Tier = iota
	Uncommon
	Rare
	Epic
	Legendary
)

// NumTiers is the number of quality tiers the game defines.
const NumTiers = 5

var tierNames = [NumTiers]string{"normal", "uncommon", "rare", "epic", "legendary"}

// String returns the lowercase in-game name of the tier.
func (t Tier) String() string {
	if t < 0 || int(t) >= NumTiers {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return tierNames[t]
}

// ParseTier maps a quality name back to its tier.
func ParseTier(name string) (Tier, error) {
	for i, n := range tierNames {
		if n == name {
			return Tier(i), nil
		}
	}
	return 0, fmt.Errorf("unknown quality name %q", name)
}

// JumpQualityProbability is the chance of skipping one extra tier each time
// a quality upgrade procs.
const JumpQualityProbability = 0.1

// Module effect tables, indexed [module tier - 1][module quality tier].
var (
	qualityProbabilities = [3][NumTiers]float64{
		{.01, .013, .016, .019, .025},
		{.02, .026, .032, .038, .05},
		{.025, .032, .04, .047, .062},
	}
	prodBonuses = [3][NumTiers]float64{
		{.04, .05, .06, .07, .1},
		{.06, .07, .09, .11, .15},
		{.1, .13, .16, .19, .25},
	}
	speedBonuses = [3][NumTiers]float64{
		{.2, .26, .32, .38, .5},
		{.3, .39, .48, .57, .75},
		{.5, .65, .8, .95, 1.25},
	}

	speedPenaltiesPerQualityModule = [3]float64{.05, .05, .05}
	speedPenaltiesPerProdModule    = [3]float64{.05, .1, .15}
	qualityPenaltiesPerSpeedModule = [3]float64{.01, .015, .025}

	// Indexed by building quality tier.
	buildingSpeedBonuses = [NumTiers]float64{0, .3, .6, .9, 1.5}
	beaconEfficiencies   = [NumTiers]float64{1.5, 1.7, 1.9, 2.1, 2.5}
)

const (
	// MinModuleSpeedFactor floors the combined module speed multiplier.
	MinModuleSpeedFactor = 0.2
	// MaxProductivityBonus caps accumulated productivity.
	MaxProductivityBonus = 3.0
	// MaxBeaconedSpeedModules bounds the beaconed speed module search
	// space: up to 8 beacons with 2 modules each.
	MaxBeaconedSpeedModules = 16
)

// Mechanics holds the per-request scalars resolved from the constant tables.
// It is immutable after construction.
type Mechanics struct {
	QualityModuleProbability     float64
	ProdModuleBonus              float64
	SpeedModuleBonus             float64
	SpeedPenaltyPerQualModule    float64
	SpeedPenaltyPerProdModule    float64
	QualityPenaltyPerSpeedModule float64
	BuildingSpeedBonus           float64
	BeaconEfficiency             float64
	MaxQuality                   Tier
}

// New resolves the module and building selections of a solve request into
// concrete bonus values.
func New(req *factory.SolveRequest) (*Mechanics, error) {
	qualQ, err := ParseTier(req.QualityModuleQuality)
	if err != nil {
		return nil, fmt.Errorf("quality_module_quality: %w", err)
	}
	prodQ, err := ParseTier(req.ProdModuleQuality)
	if err != nil {
		return nil, fmt.Errorf("prod_module_quality: %w", err)
	}
	speedQ, err := ParseTier(req.SpeedModuleQuality)
	if err != nil {
		return nil, fmt.Errorf("speed_module_quality: %w", err)
	}
	buildingQ, err := ParseTier(req.BuildingQuality)
	if err != nil {
		return nil, fmt.Errorf("building_quality: %w", err)
	}
	maxQ, err := ParseTier(req.MaxQualityUnlocked)
	if err != nil {
		return nil, fmt.Errorf("max_quality_unlocked: %w", err)
	}

	if err := checkModuleTier("quality_module_tier", req.QualityModuleTier); err != nil {
		return nil, err
	}
	if err := checkModuleTier("prod_module_tier", req.ProdModuleTier); err != nil {
		return nil, err
	}
	if err := checkModuleTier("speed_module_tier", req.SpeedModuleTier); err != nil {
		return nil, err
	}

	return &Mechanics{
		QualityModuleProbability:     qualityProbabilities[req.QualityModuleTier-1][qualQ],
		ProdModuleBonus:              prodBonuses[req.ProdModuleTier-1][prodQ],
		SpeedModuleBonus:             speedBonuses[req.SpeedModuleTier-1][speedQ],
		SpeedPenaltyPerQualModule:    speedPenaltiesPerQualityModule[req.QualityModuleTier-1],
		SpeedPenaltyPerProdModule:    speedPenaltiesPerProdModule[req.ProdModuleTier-1],
		QualityPenaltyPerSpeedModule: qualityPenaltiesPerSpeedModule[req.SpeedModuleTier-1],
		BuildingSpeedBonus:           buildingSpeedBonuses[buildingQ],
		BeaconEfficiency:             beaconEfficiencies[buildingQ],
		MaxQuality:                   maxQ,
	}, nil
}

func checkModuleTier(field string, tier int) error {
	if tier < 1 || tier > 3 {
		return fmt.Errorf("%s must be between 1 and 3, got %d", field, tier)
	}
	return nil
}

// EffectiveSpeedModules converts a beaconed speed module count into an
// effective module count. Per-beacon transmission tapers with the square
// root of the beacon count; each beacon holds two modules.
func (m *Mechanics) EffectiveSpeedModules(beaconedCount int) float64 {
	if beaconedCount == 0 {
		return 0
	}
	numBeacons := math.Ceil(float64(beaconedCount) / 2)
	return float64(beaconedCount) * m.BeaconEfficiency * math.Pow(numBeacons, -0.5)
}

// ModuleSpeedFactor combines speed bonuses and quality/productivity module
// speed penalties, floored at MinModuleSpeedFactor.
func (m *Mechanics) ModuleSpeedFactor(effectiveSpeedModules float64, numQualModules, numProdModules int) float64 {
	factor := 1 +
		effectiveSpeedModules*m.SpeedModuleBonus -
		float64(numQualModules)*m.SpeedPenaltyPerQualModule -
		float64(numProdModules)*m.SpeedPenaltyPerProdModule
	return math.Max(MinModuleSpeedFactor, factor)
}

// ProductivityBonus accumulates module, machine and research productivity,
// capped at MaxProductivityBonus.
func (m *Mechanics) ProductivityBonus(numProdModules int, machineBonus, researchBonus float64) float64 {
	bonus := float64(numProdModules)*m.ProdModuleBonus + machineBonus + researchBonus
	return math.Min(MaxProductivityBonus, bonus)
}

// QualityPercent is the chance a craft advances its output by at least one
// quality tier. Speed modules reduce it; it never drops below zero.
func (m *Mechanics) QualityPercent(numQualModules int, effectiveSpeedModules float64) float64 {
	percent := float64(numQualModules)*m.QualityModuleProbability -
		effectiveSpeedModules*m.QualityPenaltyPerSpeedModule
	return math.Max(0, percent)
}

// SpeedModuleCandidates returns the beaconed speed module counts to search.
func SpeedModuleCandidates(checkSpeedModules bool) []int {
	if !checkSpeedModules {
		return []int{0}
	}
	counts := make([]int, MaxBeaconedSpeedModules+1)
	for i := range counts {
		counts[i] = i
	}
	return counts
}

// ExpectedResultAmount is the mean output amount of one craft of a result
// line. A fraction of the base amount can be exempt from productivity; the
// rest scales with the bonus, then occurrence probability and the extra
// count fraction apply.
func ExpectedResultAmount(res factory.Result, prodBonus float64) float64 {
	baseAmount := 0.5 * (res.AmountMin + res.AmountMax)
	if res.Amount != nil {
		baseAmount = *res.Amount
	}
	probability := 1.0
	if res.Probability != nil {
		probability = *res.Probability
	}

	exempt := res.IgnoredByProductivity
	afterProd := exempt + (baseAmount-exempt)*(1+prodBonus)
	return afterProd * probability * (1 + res.ExtraCountFraction)
}

// QualityShiftProbability is the probability that a craft started at tier
// start yields tier end, given the per-craft advance chance qualityPercent
// and the unlocked maximum tier.
func QualityShiftProbability(start, end, maxUnlocked Tier, qualityPercent float64) (float64, error) {
	switch {
	case start > maxUnlocked:
		return 0, fmt.Errorf("starting quality %v above max quality unlocked %v", start, maxUnlocked)
	case end > maxUnlocked:
		return 0, fmt.Errorf("ending quality %v above max quality unlocked %v", end, maxUnlocked)
	case end < start:
		return 0, fmt.Errorf("ending quality %v below starting quality %v", end, start)
	}

	switch {
	case end == start && start == maxUnlocked:
		// Nowhere further to advance to.
		return 1, nil
	case end == start:
		return 1 - qualityPercent, nil
	case end < maxUnlocked:
		// Advanced once, jumped (end-start-1) extra tiers, then stopped.
		return qualityPercent * (1 - JumpQualityProbability) *
			math.Pow(JumpQualityProbability, float64(end-start-1)), nil
	default:
		// end == maxUnlocked: no terminal stop term, nowhere left to jump.
		return qualityPercent * math.Pow(JumpQualityProbability, float64(end-start-1)), nil
	}
}
