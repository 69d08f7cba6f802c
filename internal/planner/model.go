package planner

import (
	"errors"
	"fmt"

	"github.com/rcarv/factory-planner/internal/lp"
	"github.com/rcarv/factory-planner/internal/mechanics"
	"github.com/rcarv/factory-planner/pkg/factory"
)

// ErrAlreadySolved reports a second Run on a single-use model.
var ErrAlreadySolved = errors.New("model has already been solved")

// solutionEpsilon filters floating-point noise out of reports.
const solutionEpsilon = 1e-9

type solveState int

const (
	stateBuilding solveState = iota
	stateSolving
	stateSolved
	stateInfeasible
)

// term is one signed per-second contribution of a variable to an item node.
type term struct {
	v     int
	coeff float64
}

// itemNode accumulates every contribution touching one (item, quality)
// pair. At the optimum the signed sum plus the constant must be zero.
type itemNode struct {
	key      ItemKey
	terms    []term
	constant float64
}

// Model owns the full variable/constraint/objective graph for one solve.
// Each instance is built once, solved once, and then only read.
type Model struct {
	cat  *Catalog
	mech *mechanics.Mechanics
	req  *factory.SolveRequest

	names     []string
	objective []float64

	nodes     map[ItemKey]*itemNode
	nodeOrder []ItemKey

	variantOrder  []VariantKey
	variantVars   map[VariantKey]int
	inputVars     map[ItemKey]int
	byproductVars map[ItemKey]int
	outputKeys    map[ItemKey]bool

	// buildingTerms and moduleTerms accumulate per-variant usage for the
	// auxiliary num-buildings / num-modules tie constraints.
	buildingTerms []term
	moduleTerms   []term

	numModulesVar   int
	numBuildingsVar int

	allowedRecipes     map[string]bool
	disallowedRecipes  map[string]bool
	allowedMachines    map[string]bool
	disallowedMachines map[string]bool

	state    solveState
	solution *lp.Solution
}

func newModel(cat *Catalog, mech *mechanics.Mechanics, req *factory.SolveRequest) *Model {
	return &Model{
		cat:  cat,
		mech: mech,
		req:  req,

		nodes:         make(map[ItemKey]*itemNode),
		variantVars:   make(map[VariantKey]int),
		inputVars:     make(map[ItemKey]int),
		byproductVars: make(map[ItemKey]int),
		outputKeys:    make(map[ItemKey]bool),

		allowedRecipes:     keySet(req.AllowedRecipes),
		disallowedRecipes:  keySet(req.DisallowedRecipes),
		allowedMachines:    keySet(req.AllowedCraftingMachines),
		disallowedMachines: keySet(req.DisallowedCraftingMachines),

		state: stateBuilding,
	}
}

// keySet converts a filter list to a set, preserving the nil / empty
// distinction: nil means "no filter configured".
func keySet(keys []string) map[string]bool {
	if keys == nil {
		return nil
	}
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}

func (m *Model) recipeAllowed(key string) bool {
	if m.allowedRecipes != nil {
		return m.allowedRecipes[key]
	}
	if m.disallowedRecipes != nil {
		return !m.disallowedRecipes[key]
	}
	return true
}

func (m *Model) machineAllowed(key string) bool {
	if m.allowedMachines != nil {
		return m.allowedMachines[key]
	}
	if m.disallowedMachines != nil {
		return !m.disallowedMachines[key]
	}
	return true
}

// addVar registers a decision variable and returns its index.
func (m *Model) addVar(name string, cost float64) int {
	m.names = append(m.names, name)
	m.objective = append(m.objective, cost)
	return len(m.names) - 1
}

func (m *Model) node(key ItemKey) *itemNode {
	n, ok := m.nodes[key]
	if !ok {
		n = &itemNode{key: key}
		m.nodes[key] = n
		m.nodeOrder = append(m.nodeOrder, key)
	}
	return n
}

func (m *Model) addTerm(key ItemKey, v int, coeff float64) {
	n := m.node(key)
	n.terms = append(n.terms, term{v: v, coeff: coeff})
}

func (m *Model) addConstant(key ItemKey, amount float64) {
	m.node(key).constant += amount
}

// build registers every variable and contribution: the auxiliary counters,
// all recipe variants, input supplies, output demands and byproduct sinks.
func (m *Model) build() error {
	m.numModulesVar = m.addVar(numModulesVarName, m.req.ModuleCost)
	m.numBuildingsVar = m.addVar(numBuildingsVarName, m.req.BuildingCost)

	for _, recipeKey := range m.cat.RecipeOrder {
		if !m.recipeAllowed(recipeKey) {
			continue
		}
		recipe := m.cat.Recipes[recipeKey]
		machine, err := m.bestMachine(recipe)
		if err != nil {
			return err
		}
		if machine == nil {
			// No machine can run this category with the current data;
			// legitimately unreachable, not an error.
			continue
		}
		if err := m.addRecipeVariants(recipe, machine); err != nil {
			return err
		}
	}

	if err := m.addInputs(); err != nil {
		return err
	}
	if err := m.addOutputs(); err != nil {
		return err
	}
	if m.req.AllowByproducts {
		m.addByproducts()
	}
	return nil
}

// addInputs creates one free-supply variable per declared input, priced at
// its per-unit cost.
func (m *Model) addInputs() error {
	for _, in := range m.req.Inputs {
		key, err := m.declaredItemKey(in.Key, in.Quality, in.Resource)
		if err != nil {
			return fmt.Errorf("input %s: %w", in.Key, err)
		}
		v := m.addVar(inputVarPrefix+key.String(), in.Cost)
		m.inputVars[key] = v
		m.addTerm(key, v, 1)
	}
	return nil
}

// addOutputs injects each required output as a fixed negative demand
// constant; outputs are not decision variables.
func (m *Model) addOutputs() error {
	for _, out := range m.req.Outputs {
		key, err := m.declaredItemKey(out.Key, out.Quality, false)
		if err != nil {
			return fmt.Errorf("output %s: %w", out.Key, err)
		}
		m.addConstant(key, -out.Amount)
		m.outputKeys[key] = true
	}
	return nil
}

// declaredItemKey resolves a user-declared (item, quality) pair against the
// catalog, rejecting unknown items and quality tiers the item cannot carry.
func (m *Model) declaredItemKey(itemKey, qualityName string, resource bool) (ItemKey, error) {
	if resource {
		itemKey = ResourceItemKey(itemKey)
	}
	item, ok := m.cat.Items[itemKey]
	if !ok {
		return ItemKey{}, fmt.Errorf("unknown item %q", itemKey)
	}
	quality, err := mechanics.ParseTier(qualityName)
	if err != nil {
		return ItemKey{}, err
	}
	if !item.AllowsQuality && quality != mechanics.Normal {
		return ItemKey{}, fmt.Errorf("item %q does not carry quality", itemKey)
	}
	if quality > m.cat.MaxQuality {
		return ItemKey{}, fmt.Errorf("quality %v above max quality unlocked %v", quality, m.cat.MaxQuality)
	}
	return ItemKey{Item: itemKey, Quality: quality}, nil
}

// addByproducts gives every (item, quality) that is neither a declared
// input nor a declared output a zero-cost disposal variable, so excess
// production drains instead of making the program infeasible.
func (m *Model) addByproducts() {
	for _, itemKey := range m.cat.ItemOrder {
		item := m.cat.Items[itemKey]
		for _, quality := range item.Qualities {
			key := ItemKey{Item: itemKey, Quality: quality}
			if _, isInput := m.inputVars[key]; isInput {
				continue
			}
			if m.outputKeys[key] {
				continue
			}
			v := m.addVar(byproductVarPrefix+key.String(), 0)
			m.byproductVars[key] = v
			m.addTerm(key, v, -1)
		}
	}
}

// problem assembles the final equality system: one mass-balance constraint
// per touched item node plus the two auxiliary tie constraints. The second
// return is true when a node is trivially unsatisfiable (a demanded item
// nothing can produce), short-circuiting to an infeasible outcome.
func (m *Model) problem() (*lp.Problem, bool) {
	constraints := make([]lp.Constraint, 0, len(m.nodeOrder)+2)

	for _, key := range m.nodeOrder {
		n := m.nodes[key]
		if len(n.terms) == 0 {
			if n.constant != 0 {
				return nil, true
			}
			continue
		}
		terms := make([]lp.Term, len(n.terms))
		for i, t := range n.terms {
			terms[i] = lp.Term{Var: t.v, Coeff: t.coeff}
		}
		constraints = append(constraints, lp.Constraint{Terms: terms, RHS: -n.constant})
	}

	constraints = append(constraints,
		tieConstraint(m.numBuildingsVar, m.buildingTerms),
		tieConstraint(m.numModulesVar, m.moduleTerms),
	)

	return &lp.Problem{
		Names:       m.names,
		Objective:   m.objective,
		Constraints: constraints,
	}, false
}

// tieConstraint equates an auxiliary counter variable with a sum of
// per-variant usages: counter - sum(coeff * variant) = 0.
func tieConstraint(counter int, usage []term) lp.Constraint {
	terms := make([]lp.Term, 0, len(usage)+1)
	terms = append(terms, lp.Term{Var: counter, Coeff: 1})
	for _, t := range usage {
		terms = append(terms, lp.Term{Var: t.v, Coeff: -t.coeff})
	}
	return lp.Constraint{Terms: terms, RHS: 0}
}

// Run delegates the assembled problem to the engine exactly once and
// records the terminal outcome. An infeasible program is a valid result;
// any other engine failure is returned as an error.
func (m *Model) Run(engine lp.Engine) error {
	if m.state != stateBuilding {
		return ErrAlreadySolved
	}
	m.state = stateSolving

	prob, infeasible := m.problem()
	if infeasible {
		m.state = stateInfeasible
		return nil
	}

	sol, err := engine.Solve(prob)
	if errors.Is(err, lp.ErrInfeasible) {
		m.state = stateInfeasible
		return nil
	}
	if err != nil {
		m.state = stateInfeasible
		return fmt.Errorf("solving linear program: %w", err)
	}

	m.solution = sol
	m.state = stateSolved
	return nil
}

// Solved reports whether the model reached an optimal solution.
func (m *Model) Solved() bool {
	return m.state == stateSolved
}
