// Package lp defines the boundary to the linear-programming engine.
//
// The planner builds a Problem of continuous non-negative variables, linear
// equality constraints and a linear cost objective, and hands it to an
// Engine exactly once. The engine is an opaque capability: it either returns
// an optimal primal solution or reports infeasibility.
package lp

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	gonumlp "gonum.org/v1/gonum/optimize/convex/lp"
)

// ErrInfeasible reports that no assignment satisfies all constraints.
// Callers treat this as a valid outcome, not a failure.
var ErrInfeasible = errors.New("linear program is infeasible")

// Term is one variable coefficient inside a constraint.
type Term struct {
	Var   int
	Coeff float64
}

// Constraint is a linear equality: sum of terms equals RHS.
type Constraint struct {
	Terms []Term
	RHS   float64
}

// Problem is a complete minimization problem over non-negative variables.
// Names carry the flat per-variable identifiers the engine reports with.
type Problem struct {
	Names       []string
	Objective   []float64
	Constraints []Constraint
}

// Solution holds the optimal objective value and per-variable values.
type Solution struct {
	Objective float64
	Values    []float64
}

// Engine solves a single problem. Implementations must be safe to share
// only if stateless; the planner uses one Engine per solve invocation.
type Engine interface {
	Solve(p *Problem) (*Solution, error)
}

// Simplex is an Engine backed by gonum's dense simplex implementation.
type Simplex struct {
	// Tol is the tolerance passed to the underlying solver. Zero selects
	// the solver default.
	Tol float64
}

// NewSimplex returns a Simplex engine with default tolerance.
func NewSimplex() *Simplex {
	return &Simplex{}
}

// Solve presolves p, then runs the simplex method on whatever system
// remains. Presolving matters beyond speed: the underlying solver rejects
// systems with more equality rows than variables, and that is the normal
// shape of an infeasible mass-balance model once dead variables pile up.
func (s *Simplex) Solve(p *Problem) (*Solution, error) {
	n := len(p.Objective)
	if n == 0 {
		return nil, fmt.Errorf("problem has no variables")
	}

	rows, forced, err := presolve(p, n)
	if err != nil {
		return nil, err
	}

	values := make([]float64, n)
	if len(rows) == 0 {
		// Nothing constrains the surviving variables; the minimum of a
		// linear objective over the non-negative orthant is all zeros.
		return &Solution{Values: values}, nil
	}

	// Map surviving variables to dense columns; eliminated ones stay zero.
	colOf := make([]int, n)
	var cols []int
	for v := 0; v < n; v++ {
		colOf[v] = -1
		if !forced[v] {
			colOf[v] = len(cols)
			cols = append(cols, v)
		}
	}

	a := mat.NewDense(len(rows), len(cols), nil)
	b := make([]float64, len(rows))
	c := make([]float64, len(cols))
	for j, v := range cols {
		c[j] = p.Objective[v]
	}
	for i, row := range rows {
		b[i] = row.rhs
		flip := 1.0
		// Simplex expects non-negative right-hand sides; equalities can
		// be flipped freely.
		if b[i] < 0 {
			b[i] = -b[i]
			flip = -1
		}
		for v, coeff := range row.coeffs {
			a.Set(i, colOf[v], flip*coeff)
		}
	}

	opt, reduced, err := runSimplex(c, a, b, s.Tol)
	if err != nil {
		if errors.Is(err, gonumlp.ErrInfeasible) {
			return nil, ErrInfeasible
		}
		return nil, err
	}

	for j, v := range cols {
		values[v] = reduced[j]
	}
	return &Solution{Objective: opt, Values: values}, nil
}

// runSimplex isolates the gonum call so that a panic inside the solver
// surfaces as an error instead of crashing the caller.
func runSimplex(c []float64, a mat.Matrix, b []float64, tol float64) (opt float64, x []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("simplex: %v", r)
		}
	}()
	opt, x, err = gonumlp.Simplex(c, a, b, tol, nil)
	if err != nil {
		err = fmt.Errorf("simplex: %w", err)
	}
	return opt, x, err
}

// row is one merged equality constraint during presolve.
type row struct {
	coeffs map[int]float64
	rhs    float64
}

// presolve merges duplicate terms, then iteratively eliminates variables a
// zero-RHS single-signed row forces to zero, dropping rows as they empty.
// A row that non-negative values can no longer satisfy proves the whole
// program infeasible without an engine call.
func presolve(p *Problem, n int) ([]row, []bool, error) {
	rows := make([]row, 0, len(p.Constraints))
	for _, cons := range p.Constraints {
		r := row{coeffs: make(map[int]float64, len(cons.Terms)), rhs: cons.RHS}
		for _, t := range cons.Terms {
			r.coeffs[t.Var] += t.Coeff
		}
		for v, coeff := range r.coeffs {
			if coeff == 0 {
				delete(r.coeffs, v)
			}
		}
		rows = append(rows, r)
	}

	forced := make([]bool, n)
	for changed := true; changed; {
		changed = false
		kept := rows[:0]
		for _, r := range rows {
			for v := range r.coeffs {
				if forced[v] {
					delete(r.coeffs, v)
				}
			}
			pos, neg := 0, 0
			for _, coeff := range r.coeffs {
				if coeff > 0 {
					pos++
				} else {
					neg++
				}
			}
			switch {
			case len(r.coeffs) == 0:
				if r.rhs != 0 {
					return nil, nil, ErrInfeasible
				}
				// Trivially satisfied; drop.
			case r.rhs == 0 && (pos == 0 || neg == 0):
				// Non-negative terms of one sign summing to zero force
				// every participant to zero.
				for v := range r.coeffs {
					forced[v] = true
				}
				changed = true
			case r.rhs > 0 && pos == 0, r.rhs < 0 && neg == 0:
				return nil, nil, ErrInfeasible
			default:
				kept = append(kept, r)
			}
		}
		rows = kept
	}
	return rows, forced, nil
}
