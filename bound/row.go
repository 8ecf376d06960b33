package bound

// SparseRow is a row of the original constraint matrix A: a list of non-zero
// (variable, coefficient) entries plus the right-hand side, denoting
// Σ Entries[i].Coeff * x[Entries[i].Variable] = RHS (spec.md §3 "Sparse Row").
type SparseRow struct {
	Entries []Entry
	RHS     float64
}

// TableauRow is a row of the inverted-basis tableau: Basic = Σ Entries[i].Coeff
// * x[Entries[i].Variable] + Beta (spec.md §3 "Tableau Row").
type TableauRow struct {
	Basic   Variable
	Beta    float64
	Entries []Entry
}
