// Package matrix defines the host-visible views the kernels borrow for the
// duration of one invocation: a CSR sparse matrix and dense buffers with a
// leading dimension and storage order.
package matrix

import (
	"fmt"

	"github.com/23skdu/longbow-bodkin/internal/scalar"
)

// Op selects the transpose mode requested for an operand.
type Op int

const (
	NoTrans Op = iota
	Trans
	ConjTrans
)

func (o Op) String() string {
	switch o {
	case NoTrans:
		return "n"
	case Trans:
		return "t"
	case ConjTrans:
		return "c"
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// ParseOp maps the conventional single-letter spelling (n/t/c) to an Op.
func ParseOp(s string) (Op, error) {
	switch s {
	case "n", "N":
		return NoTrans, nil
	case "t", "T":
		return Trans, nil
	case "c", "C":
		return ConjTrans, nil
	}
	return NoTrans, fmt.Errorf("matrix: unknown transpose mode %q", s)
}

// Order is the storage order of a dense buffer.
type Order int

const (
	RowMajor Order = iota
	ColMajor
)

func (o Order) String() string {
	if o == ColMajor {
		return "col"
	}
	return "row"
}

// CSR is a compressed-row sparse matrix view. RowPtr has Rows+1 entries and
// is non-decreasing; ColInd and Val have one entry per nonzero. Base (0 or 1)
// is subtracted uniformly from every stored index on access.
type CSR[T scalar.Scalar] struct {
	Rows   int
	Cols   int
	RowPtr []int
	ColInd []int
	Val    []T
	Base   int
}

// NNZ returns the number of stored nonzeros.
func (a *CSR[T]) NNZ() int {
	if len(a.RowPtr) == 0 {
		return 0
	}
	return a.RowPtr[a.Rows] - a.RowPtr[0]
}

// Validate checks the CSR structural invariants. The kernels themselves never
// validate; malformed input reaching them is undefined behavior, so every
// caller-facing entry point runs this first.
func (a *CSR[T]) Validate() error {
	if a.Rows < 0 || a.Cols < 0 {
		return fmt.Errorf("matrix: negative dimensions %dx%d", a.Rows, a.Cols)
	}
	if a.Base != 0 && a.Base != 1 {
		return fmt.Errorf("matrix: index base must be 0 or 1, got %d", a.Base)
	}
	if len(a.RowPtr) != a.Rows+1 {
		return fmt.Errorf("matrix: row_ptr length %d, want %d", len(a.RowPtr), a.Rows+1)
	}
	for i := 0; i < a.Rows; i++ {
		if a.RowPtr[i+1] < a.RowPtr[i] {
			return fmt.Errorf("matrix: row_ptr decreases at row %d", i)
		}
	}
	nnz := a.NNZ()
	if len(a.ColInd) != nnz || len(a.Val) != nnz {
		return fmt.Errorf("matrix: nnz %d but col_ind/val lengths %d/%d",
			nnz, len(a.ColInd), len(a.Val))
	}
	for i, c := range a.ColInd {
		if c-a.Base < 0 || c-a.Base >= a.Cols {
			return fmt.Errorf("matrix: col_ind[%d]=%d out of range [%d,%d)",
				i, c, a.Base, a.Cols+a.Base)
		}
	}
	return nil
}

// Dense is a dense matrix view over a flat buffer. LD is the stride between
// consecutive rows (RowMajor) or columns (ColMajor). The order flag drives
// output addressing; the kernels address B by variant, not by flag.
type Dense[T scalar.Scalar] struct {
	Data  []T
	LD    int
	Order Order
}

// Index returns the flat offset of logical element (i, j).
func (d *Dense[T]) Index(i, j int) int {
	if d.Order == ColMajor {
		return i + j*d.LD
	}
	return i*d.LD + j
}

// At returns element (i, j). Intended for tests and debugging; the kernels
// address Data directly.
func (d *Dense[T]) At(i, j int) T {
	return d.Data[d.Index(i, j)]
}

// Set stores v at element (i, j).
func (d *Dense[T]) Set(i, j int, v T) {
	d.Data[d.Index(i, j)] = v
}
