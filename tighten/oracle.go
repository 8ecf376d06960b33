package tighten

import (
	"github.com/crillab/plverify/bound"
	"gonum.org/v1/gonum/mat"
)

// Oracle is the façade's row-extraction and forward-transformation surface
// that tighten.Tightener treats as opaque, per spec.md §1 ("we consume its
// row-extraction and forward-transformation operations as an opaque
// oracle"). A real simplex engine backs this with its live tableau;
// tighten never assumes anything about how the oracle computes its answers.
type Oracle interface {
	// ExplicitInverse returns the current basis inverse B⁻¹ as a dense
	// rows-by-rows matrix, for the ComputeInvertedBasisMatrix strategy.
	ExplicitInverse() (*mat.Dense, error)
	// ReleaseInverse releases whatever resources ExplicitInverse acquired.
	// Called exactly once per successful ExplicitInverse call, on every exit
	// path, including after a panic (spec.md §4.C / §9 scoped-resource note);
	// not called when ExplicitInverse returns an error.
	ReleaseInverse()
	// NonBasicMatrix returns A_N, the columns of A for the non-basic
	// variables (in the same order as NonBasicVariables), as a dense
	// rows-by-len(NonBasicVariables) matrix.
	NonBasicMatrix() *mat.Dense
	// NonBasicVariables lists the non-basic variables, column-aligned with
	// NonBasicMatrix and ForwardTransform's col argument.
	NonBasicVariables() []bound.Variable
	// BasicVariables lists the basic variable for each row, i.e. row i's
	// left-hand side y_i.
	BasicVariables() []bound.Variable
	// Beta returns the constant term β_i for each row.
	Beta() []float64
	// ForwardTransform solves B z = A[:,col] for z, where col indexes
	// NonBasicVariables, for the UseImplicitInvertedBasisMatrix strategy.
	ForwardTransform(col int) ([]float64, error)
}
