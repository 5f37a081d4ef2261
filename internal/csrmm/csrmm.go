// Package csrmm implements C = alpha*op(A)*op(B) + beta*C for a CSR sparse A
// and dense B, C, as a family of five kernels on the grid execution model:
//
//   - KernelNN, KernelNT: row-parallel variants for untransposed A, one
//     output element written by exactly one subgroup, no atomics.
//   - KernelTN, KernelTT: transposed-A variants that scatter contributions
//     into arbitrary output rows through atomic accumulation.
//   - Scale: standalone beta pre-scaling for the atomic variants.
//
// Kernels perform no validation; callers hand in shapes and buffers already
// checked at the host boundary (matrix.Validate). Malformed input is
// undefined behavior.
package csrmm

import (
	"github.com/rs/zerolog/log"

	"github.com/23skdu/longbow-bodkin/internal/grid"
	"github.com/23skdu/longbow-bodkin/internal/matrix"
	"github.com/23skdu/longbow-bodkin/internal/scalar"
)

// Args carries one invocation's operands. M, N, K are the dimensions of the
// multiplication C(MxN) = op(A)(MxK) * op(B)(KxN): the stored CSR has M rows
// when TransA is NoTrans and K rows otherwise (its stored rows then act as
// contraction-dimension slices).
//
// B's storage is addressed per variant: nn and tn read columns of B
// contiguously (Data[k + col*LD]), nt and tt read rows contiguously
// (Data[col + k*LD]). The transpose half of op(B) is thus realized by the
// caller's variant choice, while the kernels apply only the conjugation
// half. C honors its Order flag in every kernel.
type Args[T scalar.Scalar] struct {
	TransA matrix.Op
	TransB matrix.Op

	M, N, K int

	Alpha T
	Beta  T

	A matrix.CSR[T]
	B matrix.Dense[T]
	C matrix.Dense[T]
}

// Apply maps the requested transpose modes to a kernel and runs it, with the
// mandatory beta pre-pass for the atomic variants. The mapping is purely
// structural; performance-driven selection between nn and nt stays with the
// caller through columnTiled.
func Apply[T scalar.Scalar](cfg grid.Config, a *Args[T], columnTiled bool) {
	log.Debug().
		Str("op_a", a.TransA.String()).
		Str("op_b", a.TransB.String()).
		Bool("column_tiled", columnTiled).
		Int("subgroups", cfg.Subgroups).
		Int("width", cfg.Width).
		Msg("dispatching spmm kernel")

	if a.TransA == matrix.NoTrans {
		if columnTiled {
			rowCfg := cfg
			rowCfg.Subgroups = a.M
			KernelNT(rowCfg, a, 0, a.N)
			return
		}
		KernelNN(cfg, a)
		return
	}

	// The atomic kernels cannot apply beta inline without racing, and with
	// beta == 0 they must not read C at all, so C is prepared up front.
	switch {
	case scalar.IsZero(a.Beta):
		zeroFill(a.M, a.N, &a.C)
	case !scalar.IsOne(a.Beta):
		Scale(a.M, a.N, a.Beta, &a.C)
	}

	if a.TransB == matrix.NoTrans {
		KernelTN(cfg, a)
	} else {
		KernelTT(cfg, a)
	}
}

// zeroFill overwrites the MxN window of c with zeros. Unlike Scale it never
// reads the buffer, so uninitialized memory stays out of the computation.
func zeroFill[T scalar.Scalar](m, n int, c *matrix.Dense[T]) {
	var zero T
	grid.Launch2D(m, n, func(i, j int) {
		c.Data[c.Index(i, j)] = zero
	})
}
