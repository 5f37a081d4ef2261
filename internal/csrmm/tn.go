package csrmm

import (
	"time"

	"github.com/23skdu/longbow-bodkin/internal/grid"
	"github.com/23skdu/longbow-bodkin/internal/matrix"
	"github.com/23skdu/longbow-bodkin/internal/scalar"
)

// KernelTN handles transposed A: the stored CSR rows are walked as
// contraction-dimension slices (grid-strided over K), one B element is staged
// per lane, and each lane then scatters alpha*op(a)*B_cached into output row
// col_ind[j] with an atomic add. Different subgroups legitimately race on
// the same output row; the commutative atomic accumulate resolves it.
// Summation order is unspecified; results repeat only up to rounding.
//
// Beta must already have been applied through Scale (or a zero fill); an
// atomic add cannot fold in a per-element beta without reintroducing the
// race. B is read column-contiguously: Data[k + cid*LD].
//
// Atomic-scatter approach after Tao et al., ICPADS 2014.
func KernelTN[T scalar.Scalar](cfg grid.Config, a *Args[T]) {
	defer observe("tn", time.Now())
	scatterTransposed(cfg, a, false)
}

func scatterTransposed[T scalar.Scalar](cfg grid.Config, a *Args[T], bRowContig bool) {
	w := cfg.Width
	conjA := a.TransA == matrix.ConjTrans
	conjB := a.TransB == matrix.ConjTrans
	base := a.A.Base
	var zero T

	grid.Launch(cfg, grid.Tiles(a.N, w), func(sg grid.Subgroup) {
		bTile := make([]T, w)
		tileOff := sg.Tile * w

		for row := sg.Index; row < a.K; row += sg.Count {
			rowStart := a.A.RowPtr[row] - base
			rowEnd := a.A.RowPtr[row+1] - base

			// Stage one element of B per lane for this contraction slice.
			for lane := 0; lane < w; lane++ {
				cid := tileOff + lane
				bv := zero
				if cid < a.N {
					if bRowContig {
						bv = a.B.Data[row*a.B.LD+cid]
					} else {
						bv = a.B.Data[row+cid*a.B.LD]
					}
					if conjB {
						bv = scalar.Conj(bv)
					}
				}
				bTile[lane] = bv
			}

			// Each lane owns the nonzeros rowStart+lane, +width, ...
			for lane := 0; lane < w; lane++ {
				for j := rowStart + lane; j < rowEnd; j += w {
					col := a.A.ColInd[j] - base
					av := a.A.Val[j]
					if conjA {
						av = scalar.Conj(av)
					}
					val := a.Alpha * av

					for i := 0; i < w && tileOff+i < a.N; i++ {
						idx := a.C.Index(col, tileOff+i)
						scalar.AtomicAdd(&a.C.Data[idx], val*bTile[i])
					}
				}
			}
		}
	})
}
