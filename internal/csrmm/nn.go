package csrmm

import (
	"time"

	"github.com/23skdu/longbow-bodkin/internal/grid"
	"github.com/23skdu/longbow-bodkin/internal/matrix"
	"github.com/23skdu/longbow-bodkin/internal/scalar"
)

// KernelNN is the row-parallel SpMM kernel for untransposed A. Rows are
// grid-strided across subgroups; each lane owns output column
// lane + tile*width. A row's nonzeros are consumed in width-sized chunks:
// the stage loop buffers one (column, value) pair per lane into the scratch
// tile, then every lane scans the full tile accumulating its own column's
// dot product. The write/read split between the two loops stands in for the
// device barrier.
//
// B is read column-contiguously: Data[k + col*LD].
func KernelNN[T scalar.Scalar](cfg grid.Config, a *Args[T]) {
	defer observe("nn", time.Now())

	w := cfg.Width
	conjA := a.TransA == matrix.ConjTrans
	conjB := a.TransB == matrix.ConjTrans
	base := a.A.Base
	betaZero := scalar.IsZero(a.Beta)
	var zero T

	grid.Launch(cfg, grid.Tiles(a.N, w), func(sg grid.Subgroup) {
		cols := make([]int, w)
		vals := make([]T, w)
		sums := make([]T, w)
		colOff := sg.Tile * w

		for row := sg.Index; row < a.M; row += sg.Count {
			rowStart := a.A.RowPtr[row] - base
			rowEnd := a.A.RowPtr[row+1] - base

			for lane := range sums {
				sums[lane] = zero
			}

			for j := rowStart; j < rowEnd; j += w {
				// Stage: lane l loads pair j+l; padding lanes contribute a
				// harmless (0, zero) entry, as in the tile scan below the
				// zero value annihilates the column-0 load.
				for lane := 0; lane < w; lane++ {
					k := j + lane
					if k < rowEnd {
						cols[lane] = a.A.ColInd[k] - base
						v := a.A.Val[k]
						if conjA {
							v = scalar.Conj(v)
						}
						vals[lane] = v
					} else {
						cols[lane] = 0
						vals[lane] = zero
					}
				}

				for lane := 0; lane < w; lane++ {
					col := colOff + lane
					if col >= a.N {
						break
					}
					colB := col * a.B.LD
					sum := sums[lane]
					for i := 0; i < w; i++ {
						bv := a.B.Data[cols[i]+colB]
						if conjB {
							bv = scalar.Conj(bv)
						}
						sum = scalar.MulAdd(vals[i], bv, sum)
					}
					sums[lane] = sum
				}
			}

			for lane := 0; lane < w; lane++ {
				col := colOff + lane
				if col >= a.N {
					break
				}
				idx := a.C.Index(row, col)
				if betaZero {
					a.C.Data[idx] = a.Alpha * sums[lane]
				} else {
					a.C.Data[idx] = scalar.MulAdd(a.Beta, a.C.Data[idx], a.Alpha*sums[lane])
				}
			}
		}
	})
}
