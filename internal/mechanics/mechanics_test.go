package mechanics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarv/factory-planner/pkg/factory"
)

func baseRequest() *factory.SolveRequest {
	return &factory.SolveRequest{
		QualityModuleTier:    3,
		QualityModuleQuality: "legendary",
		ProdModuleTier:       3,
		ProdModuleQuality:    "legendary",
		SpeedModuleTier:      3,
		SpeedModuleQuality:   "legendary",
		BuildingQuality:      "normal",
		MaxQualityUnlocked:   "legendary",
	}
}

func TestParseTierRoundTrip(t *testing.T) {
	for tier := Normal; tier <= Legendary; tier++ {
		parsed, err := ParseTier(tier.String())
		require.NoError(t, err)
		assert.Equal(t, tier, parsed)
	}

	_, err := ParseTier("mythic")
	assert.Error(t, err)
}

func TestNewResolvesTables(t *testing.T) {
	m, err := New(baseRequest())
	require.NoError(t, err)

	assert.InDelta(t, 0.062, m.QualityModuleProbability, 1e-12)
	assert.InDelta(t, 0.25, m.ProdModuleBonus, 1e-12)
	assert.InDelta(t, 1.25, m.SpeedModuleBonus, 1e-12)
	assert.InDelta(t, 0.05, m.SpeedPenaltyPerQualModule, 1e-12)
	assert.InDelta(t, 0.15, m.SpeedPenaltyPerProdModule, 1e-12)
	assert.InDelta(t, 0.025, m.QualityPenaltyPerSpeedModule, 1e-12)
	assert.InDelta(t, 0.0, m.BuildingSpeedBonus, 1e-12)
	assert.InDelta(t, 1.5, m.BeaconEfficiency, 1e-12)
	assert.Equal(t, Legendary, m.MaxQuality)
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*factory.SolveRequest)
	}{
		{"bad quality module tier", func(r *factory.SolveRequest) { r.QualityModuleTier = 0 }},
		{"bad prod module tier", func(r *factory.SolveRequest) { r.ProdModuleTier = 4 }},
		{"bad speed module tier", func(r *factory.SolveRequest) { r.SpeedModuleTier = -1 }},
		{"bad module quality", func(r *factory.SolveRequest) { r.QualityModuleQuality = "shiny" }},
		{"bad building quality", func(r *factory.SolveRequest) { r.BuildingQuality = "" }},
		{"bad max quality", func(r *factory.SolveRequest) { r.MaxQualityUnlocked = "tier-6" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			tt.mutate(req)
			_, err := New(req)
			assert.Error(t, err)
		})
	}
}

func TestEffectiveSpeedModules(t *testing.T) {
	m, err := New(baseRequest())
	require.NoError(t, err)

	assert.Zero(t, m.EffectiveSpeedModules(0))
	// One beacon: no taper.
	assert.InDelta(t, 2*1.5, m.EffectiveSpeedModules(2), 1e-12)
	// Two beacons: taper by 1/sqrt(2).
	assert.InDelta(t, 4*1.5/math.Sqrt2, m.EffectiveSpeedModules(4), 1e-12)
}

func TestModuleSpeedFactorFloor(t *testing.T) {
	m, err := New(baseRequest())
	require.NoError(t, err)

	// Unmodified machine.
	assert.InDelta(t, 1.0, m.ModuleSpeedFactor(0, 0, 0), 1e-12)
	// Two quality modules cost 5% each.
	assert.InDelta(t, 0.9, m.ModuleSpeedFactor(0, 2, 0), 1e-12)
	// Heavy penalties bottom out at the floor.
	assert.InDelta(t, MinModuleSpeedFactor, m.ModuleSpeedFactor(0, 10, 10), 1e-12)
}

func TestProductivityBonusCap(t *testing.T) {
	m, err := New(baseRequest())
	require.NoError(t, err)

	assert.InDelta(t, 4*0.25+0.5+0.1, m.ProductivityBonus(4, 0.5, 0.1), 1e-12)
	assert.InDelta(t, MaxProductivityBonus, m.ProductivityBonus(20, 0.5, 5.0), 1e-12)
}

func TestQualityPercentNeverNegative(t *testing.T) {
	m, err := New(baseRequest())
	require.NoError(t, err)

	assert.InDelta(t, 2*0.062, m.QualityPercent(2, 0), 1e-12)
	// Enough beaconed speed modules wipe out the quality chance entirely.
	assert.Zero(t, m.QualityPercent(1, 100))
}

func TestSpeedModuleCandidates(t *testing.T) {
	assert.Equal(t, []int{0}, SpeedModuleCandidates(false))

	counts := SpeedModuleCandidates(true)
	require.Len(t, counts, MaxBeaconedSpeedModules+1)
	assert.Equal(t, 0, counts[0])
	assert.Equal(t, MaxBeaconedSpeedModules, counts[len(counts)-1])
}

func TestExpectedResultAmount(t *testing.T) {
	amount := func(v float64) *float64 { return &v }

	tests := []struct {
		name      string
		res       factory.Result
		prodBonus float64
		want      float64
	}{
		{
			name: "fixed amount no bonus",
			res:  factory.Result{Amount: amount(2)},
			want: 2,
		},
		{
			name:      "fixed amount with bonus",
			res:       factory.Result{Amount: amount(2)},
			prodBonus: 0.5,
			want:      3,
		},
		{
			name: "uniform range",
			res:  factory.Result{AmountMin: 1, AmountMax: 3},
			want: 2,
		},
		{
			name: "probability scales",
			res:  factory.Result{Amount: amount(4), Probability: amount(0.25)},
			want: 1,
		},
		{
			name:      "productivity-exempt fraction",
			res:       factory.Result{Amount: amount(2), IgnoredByProductivity: 1},
			prodBonus: 1.0,
			want:      1 + 1*2,
		},
		{
			name: "extra count fraction",
			res:  factory.Result{Amount: amount(1), ExtraCountFraction: 0.5},
			want: 1.5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ExpectedResultAmount(tt.res, tt.prodBonus), 1e-12)
		})
	}
}

func TestQualityShiftProbabilityDistributes(t *testing.T) {
	// From any start tier, the probabilities over all reachable end tiers
	// must sum to exactly one.
	for _, maxUnlocked := range []Tier{Normal, Rare, Legendary} {
		for start := Normal; start <= maxUnlocked; start++ {
			total := 0.0
			for end := start; end <= maxUnlocked; end++ {
				p, err := QualityShiftProbability(start, end, maxUnlocked, 0.062)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, p, 0.0)
				total += p
			}
			assert.InDelta(t, 1.0, total, 1e-12,
				"start=%v max=%v", start, maxUnlocked)
		}
	}
}

func TestQualityShiftProbabilityValues(t *testing.T) {
	const q = 0.1

	// Staying put keeps the complement of the advance chance.
	p, err := QualityShiftProbability(Normal, Normal, Legendary, q)
	require.NoError(t, err)
	assert.InDelta(t, 1-q, p, 1e-12)

	// One step up, then stopping short of the cap.
	p, err = QualityShiftProbability(Normal, Uncommon, Legendary, q)
	require.NoError(t, err)
	assert.InDelta(t, q*(1-JumpQualityProbability), p, 1e-12)

	// Two steps means one jump proc.
	p, err = QualityShiftProbability(Normal, Rare, Legendary, q)
	require.NoError(t, err)
	assert.InDelta(t, q*(1-JumpQualityProbability)*JumpQualityProbability, p, 1e-12)

	// Landing on the cap drops the stop term.
	p, err = QualityShiftProbability(Epic, Legendary, Legendary, q)
	require.NoError(t, err)
	assert.InDelta(t, q, p, 1e-12)

	// Already at the cap: nowhere to go.
	p, err = QualityShiftProbability(Legendary, Legendary, Legendary, q)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, p, 1e-12)
}

func TestQualityShiftProbabilityErrors(t *testing.T) {
	_, err := QualityShiftProbability(Epic, Epic, Rare, 0.1)
	assert.Error(t, err)

	_, err = QualityShiftProbability(Normal, Epic, Rare, 0.1)
	assert.Error(t, err)

	_, err = QualityShiftProbability(Rare, Normal, Legendary, 0.1)
	assert.Error(t, err)
}
