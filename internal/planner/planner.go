// Package planner builds cost-minimal production plans: it normalizes game
// data, enumerates recipe variants, assembles the mass-balance linear
// system, delegates to the LP engine and decodes the outcome into a report.
package planner

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/rcarv/factory-planner/internal/lp"
	"github.com/rcarv/factory-planner/internal/mechanics"
	"github.com/rcarv/factory-planner/pkg/factory"
)

// Configuration errors detected before any engine work.
var (
	ErrConflictingRecipeFilters  = errors.New("cannot set both allowed_recipes and disallowed_recipes")
	ErrConflictingMachineFilters = errors.New("cannot set both allowed_crafting_machines and disallowed_crafting_machines")
)

// RequestError marks failures the caller can fix by changing the solve
// request: conflicting filters, unknown keys, invalid quality names,
// ambiguous machine selection. Engine failures are not RequestErrors.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return e.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

// Planner runs solve requests against game data. It holds no per-request
// state; concurrent solves each build their own model.
type Planner struct {
	engine lp.Engine
	logger *slog.Logger
}

// New creates a Planner using the given engine.
func New(engine lp.Engine, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Planner{engine: engine, logger: logger}
}

// Solve runs one complete planning pass. Configuration problems and engine
// failures are errors; an infeasible program is a valid report with
// solved=false.
func (p *Planner) Solve(req *factory.SolveRequest, data *factory.GameData) (*factory.SolveReport, error) {
	if err := validateFilters(req); err != nil {
		return nil, &RequestError{Err: err}
	}

	mech, err := mechanics.New(req)
	if err != nil {
		return nil, &RequestError{Err: err}
	}

	cat := BuildCatalog(data, mech.MaxQuality)
	if err := validateResearch(req, cat); err != nil {
		return nil, &RequestError{Err: err}
	}

	model := newModel(cat, mech, req)
	if err := model.build(); err != nil {
		return nil, &RequestError{Err: err}
	}
	p.logger.Debug("model built",
		"variables", len(model.names),
		"variants", len(model.variantOrder),
		"item_nodes", len(model.nodeOrder),
	)

	if err := model.Run(p.engine); err != nil {
		return nil, err
	}

	report := model.Report()
	if report.Solved {
		p.logger.Debug("solved",
			"cost", report.Cost,
			"buildings", report.NumBuildings,
			"modules", report.NumModules,
		)
	} else {
		p.logger.Info("no optimal solution for request")
	}
	return report, nil
}

func validateFilters(req *factory.SolveRequest) error {
	if req.AllowedRecipes != nil && req.DisallowedRecipes != nil {
		return ErrConflictingRecipeFilters
	}
	if req.AllowedCraftingMachines != nil && req.DisallowedCraftingMachines != nil {
		return ErrConflictingMachineFilters
	}
	return nil
}

// validateResearch rejects productivity research naming recipes the catalog
// doesn't have. Synthetic mining recipes don't take research.
func validateResearch(req *factory.SolveRequest, cat *Catalog) error {
	for key := range req.ProductivityResearch {
		if _, ok := cat.Recipes[key]; !ok || IsMiningRecipe(key) {
			return fmt.Errorf("no recipe found for productivity research key %q", key)
		}
	}
	return nil
}
