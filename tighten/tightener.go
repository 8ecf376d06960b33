// Package tighten implements spec.md's RowTightener: deducing tighter
// variable bounds from sparse rows of the original constraint matrix A and
// from rows of the inverted-basis tableau, iterating to a fixed point.
package tighten

import (
	"math"

	"github.com/crillab/plverify/bound"
	"github.com/crillab/plverify/engine"
	"gonum.org/v1/gonum/mat"
)

// Strategy selects how inverted-basis rows are derived, spec.md §6
// EXPLICIT_BASIS_BOUND_TIGHTENING_TYPE.
type Strategy byte

const (
	// UseConstraintMatrix skips the inverted-basis pass entirely; only the
	// constraint-matrix pass runs.
	UseConstraintMatrix Strategy = iota
	// ComputeInvertedBasisMatrix derives tableau rows via an explicit B⁻¹.
	ComputeInvertedBasisMatrix
	// UseImplicitInvertedBasisMatrix derives tableau rows column-by-column
	// via the oracle's forward-transformation operation, without ever
	// materializing B⁻¹.
	UseImplicitInvertedBasisMatrix
)

// Options are the construction-time knobs of spec.md §6.
type Options struct {
	Strategy              Strategy
	SaturationIterations  int
	RoundingConstant      float64
	MinCoeffForTightening float64
}

// DefaultOptions returns the knob values spec.md treats as typical: a
// handful of saturation rounds, a small rounding constant, and a coefficient
// floor that only filters genuine near-zero noise.
func DefaultOptions() Options {
	return Options{
		Strategy:              ComputeInvertedBasisMatrix,
		SaturationIterations:  5,
		RoundingConstant:      1e-8,
		MinCoeffForTightening: 1e-10,
	}
}

// Tightener is spec.md's RowTightener: the stateless knobs of Options plus
// the per-call logic for both bound-derivation passes. It owns no buffers of
// its own; every pass reads and writes directly through the bound.Manager
// it's given.
type Tightener struct {
	opts Options
}

// New returns a Tightener configured with opts.
func New(opts Options) *Tightener {
	return &Tightener{opts: opts}
}

func (t *Tightener) skipCoeff(c float64) bool {
	return math.Abs(c) <= t.opts.MinCoeffForTightening
}

// roundLower returns x shifted down by the rounding constant, the way
// spec.md §4.C requires before registering a derived lower bound.
func (t *Tightener) roundLower(x float64) float64 {
	if math.IsInf(x, 0) {
		return x
	}
	return x - t.opts.RoundingConstant
}

// roundUpper is roundLower's mirror image for upper bounds.
func (t *Tightener) roundUpper(x float64) float64 {
	if math.IsInf(x, 0) {
		return x
	}
	return x + t.opts.RoundingConstant
}

// TightenFromMatrix runs one constraint-matrix pass (spec.md §4.C mode 1)
// over rows, applying accepted tightenings to mgr with Gauss-Seidel
// visibility: a tightening derived from row i is visible to row i+1 in the
// same pass. It returns how many new bounds were accepted.
func (t *Tightener) TightenFromMatrix(mgr *bound.Manager, rows []bound.SparseRow) int {
	accepted := 0
	for _, row := range rows {
		accepted += t.tightenOneMatrixRow(mgr, row)
		if !mgr.ConsistentBounds() {
			return accepted
		}
	}
	return accepted
}

func (t *Tightener) tightenOneMatrixRow(mgr *bound.Manager, row bound.SparseRow) int {
	var sumLB, sumUB float64
	for _, e := range row.Entries {
		if t.skipCoeff(e.Coeff) {
			continue
		}
		lb, ub := mgr.LowerBound(e.Variable), mgr.UpperBound(e.Variable)
		if e.Coeff > 0 {
			sumLB += e.Coeff * lb
			sumUB += e.Coeff * ub
		} else {
			sumLB += e.Coeff * ub
			sumUB += e.Coeff * lb
		}
	}

	accepted := 0
	for _, e := range row.Entries {
		if t.skipCoeff(e.Coeff) {
			continue
		}
		lb, ub := mgr.LowerBound(e.Variable), mgr.UpperBound(e.Variable)
		var myLB, myUB float64
		if e.Coeff > 0 {
			myLB, myUB = e.Coeff*lb, e.Coeff*ub
		} else {
			myLB, myUB = e.Coeff*ub, e.Coeff*lb
		}
		restLB := sumLB - myLB
		restUB := sumUB - myUB

		newLower := (row.RHS - restUB) / e.Coeff
		newUpper := (row.RHS - restLB) / e.Coeff
		if e.Coeff < 0 {
			newLower, newUpper = newUpper, newLower
		}
		if !math.IsNaN(newLower) && mgr.SetLowerBoundCaused(e.Variable, t.roundLower(newLower), bound.CauseConstraintMatrix) {
			accepted++
		}
		if !mgr.ConsistentBounds() {
			return accepted
		}
		if !math.IsNaN(newUpper) && mgr.SetUpperBoundCaused(e.Variable, t.roundUpper(newUpper), bound.CauseConstraintMatrix) {
			accepted++
		}
		if !mgr.ConsistentBounds() {
			return accepted
		}
	}
	return accepted
}

// TightenFromTableauRows runs one inverted-basis pass (spec.md §4.C mode 2)
// over already-derived tableau rows. Each row is tightened forward (the
// basic variable y from its non-basic terms) and then each non-basic
// variable is tightened by rearranging the same equation.
func (t *Tightener) TightenFromTableauRows(mgr *bound.Manager, rows []bound.TableauRow) int {
	accepted := 0
	for _, row := range rows {
		accepted += t.tightenOneTableauRow(mgr, row, bound.CauseInvertedBasis)
		if !mgr.ConsistentBounds() {
			return accepted
		}
	}
	return accepted
}

// TightenPivotRow is the pivot-row shortcut of spec.md §4.C: an optimization
// hook that runs the same per-row logic as TightenFromTableauRows but on
// just the row the simplex engine pivoted on, bypassing a full pass.
func (t *Tightener) TightenPivotRow(mgr *bound.Manager, row bound.TableauRow) int {
	return t.tightenOneTableauRow(mgr, row, bound.CausePivotRow)
}

func (t *Tightener) tightenOneTableauRow(mgr *bound.Manager, row bound.TableauRow, cause bound.Cause) int {
	accepted := 0

	// Forward: tighten the basic variable y from the non-basic terms.
	lowerY := mgr.ComputeRowBound(row, false)
	upperY := mgr.ComputeRowBound(row, true)
	if !math.IsNaN(lowerY) && mgr.SetLowerBoundCaused(row.Basic, t.roundLower(lowerY), cause) {
		accepted++
	}
	if !mgr.ConsistentBounds() {
		return accepted
	}
	if !math.IsNaN(upperY) && mgr.SetUpperBoundCaused(row.Basic, t.roundUpper(upperY), cause) {
		accepted++
	}
	if !mgr.ConsistentBounds() {
		return accepted
	}

	// Backward: rearrange y = Σ cᵢxᵢ + β, i.e. -y + Σ cᵢxᵢ + β = 0, to
	// tighten each xᵢ in turn via the same sparse-row formula.
	asRow := bound.SparseRow{RHS: -row.Beta}
	asRow.Entries = append(asRow.Entries, bound.Entry{Variable: row.Basic, Coeff: -1})
	asRow.Entries = append(asRow.Entries, row.Entries...)
	for _, e := range row.Entries {
		if t.skipCoeff(e.Coeff) {
			continue
		}
		value, ok := mgr.ComputeSparseRowBound(asRow, false, e.Variable)
		if ok && !math.IsNaN(value) && mgr.SetLowerBoundCaused(e.Variable, t.roundLower(value), cause) {
			accepted++
		}
		if !mgr.ConsistentBounds() {
			return accepted
		}
		value, ok = mgr.ComputeSparseRowBound(asRow, true, e.Variable)
		if ok && !math.IsNaN(value) && mgr.SetUpperBoundCaused(e.Variable, t.roundUpper(value), cause) {
			accepted++
		}
		if !mgr.ConsistentBounds() {
			return accepted
		}
	}
	return accepted
}

// ExamineInvertedBasisMatrix derives tableau rows from oracle according to
// t.opts.Strategy. For ComputeInvertedBasisMatrix, the explicit inverse is a
// scoped resource: oracle.ReleaseInverse is deferred immediately after
// acquisition, so it runs on every exit path including a panic (spec.md §9).
// Returns nil, nil if the strategy is UseConstraintMatrix (no inverted-basis
// pass requested).
func (t *Tightener) ExamineInvertedBasisMatrix(oracle Oracle) ([]bound.TableauRow, error) {
	switch t.opts.Strategy {
	case UseConstraintMatrix:
		return nil, nil
	case ComputeInvertedBasisMatrix:
		return t.explicitInverseRows(oracle)
	case UseImplicitInvertedBasisMatrix:
		return t.implicitInverseRows(oracle)
	default:
		engine.Panic("tighten: unknown Strategy")
		return nil, nil
	}
}

func (t *Tightener) explicitInverseRows(oracle Oracle) (rows []bound.TableauRow, err error) {
	inv, err := oracle.ExplicitInverse()
	if err != nil {
		return nil, err
	}
	defer oracle.ReleaseInverse()

	an := oracle.NonBasicMatrix()
	nonBasic := oracle.NonBasicVariables()
	basic := oracle.BasicVariables()
	beta := oracle.Beta()

	var product mat.Dense
	product.Mul(inv, an)

	m, _ := product.Dims()
	rows = make([]bound.TableauRow, m)
	for i := 0; i < m; i++ {
		entries := make([]bound.Entry, 0, len(nonBasic))
		for j, v := range nonBasic {
			c := product.At(i, j)
			if t.skipCoeff(c) {
				continue
			}
			entries = append(entries, bound.Entry{Variable: v, Coeff: c})
		}
		rows[i] = bound.TableauRow{Basic: basic[i], Beta: beta[i], Entries: entries}
	}
	return rows, nil
}

func (t *Tightener) implicitInverseRows(oracle Oracle) ([]bound.TableauRow, error) {
	nonBasic := oracle.NonBasicVariables()
	basic := oracle.BasicVariables()
	beta := oracle.Beta()

	rows := make([]bound.TableauRow, len(basic))
	for i := range rows {
		rows[i] = bound.TableauRow{Basic: basic[i], Beta: beta[i]}
	}
	for col, v := range nonBasic {
		z, err := oracle.ForwardTransform(col)
		if err != nil {
			return nil, err
		}
		for i, c := range z {
			if t.skipCoeff(c) {
				continue
			}
			rows[i].Entries = append(rows[i].Entries, bound.Entry{Variable: v, Coeff: c})
		}
	}
	return rows, nil
}

// Saturate drives both passes to a fixed point, per spec.md §4.C's
// "Iteration to saturation": a round is one constraint-matrix pass plus (if
// the strategy calls for it) one inverted-basis pass; rounds repeat until a
// round accepts zero new bounds or SaturationIterations is reached. It
// returns the number of rounds actually run. A crossing bound discovered
// during either pass surfaces as an *engine.InfeasibleQueryError.
func (t *Tightener) Saturate(mgr *bound.Manager, matrixRows []bound.SparseRow, oracle Oracle) (rounds int, err error) {
	for rounds = 0; rounds < t.opts.SaturationIterations; rounds++ {
		newBounds := t.TightenFromMatrix(mgr, matrixRows)
		if !mgr.ConsistentBounds() {
			return rounds + 1, engine.NewInfeasibleQuery(mgr.InconsistentVariable(), "row tightener derived crossing bounds")
		}
		if oracle != nil && t.opts.Strategy != UseConstraintMatrix {
			tableauRows, terr := t.ExamineInvertedBasisMatrix(oracle)
			if terr != nil {
				return rounds + 1, terr
			}
			newBounds += t.TightenFromTableauRows(mgr, tableauRows)
			if !mgr.ConsistentBounds() {
				return rounds + 1, engine.NewInfeasibleQuery(mgr.InconsistentVariable(), "row tightener derived crossing bounds")
			}
		}
		if newBounds == 0 {
			return rounds + 1, nil
		}
	}
	return rounds, nil
}
