package csrmm

import (
	"time"

	"github.com/23skdu/longbow-bodkin/internal/grid"
	"github.com/23skdu/longbow-bodkin/internal/matrix"
	"github.com/23skdu/longbow-bodkin/internal/scalar"
)

// KernelNT computes the same result as KernelNN but assigns exactly one
// subgroup to exactly one row (cfg.Subgroups must cover M; excess subgroups
// exit early) and loops over the [colOffset, colEnd) output-column window in
// width strides, re-staging the row's nonzero tile for every column tile.
// The redundant scratch traffic buys a row-contiguous scan of B, which wins
// when N is large.
//
// B is read row-contiguously: Data[col + k*LD].
func KernelNT[T scalar.Scalar](cfg grid.Config, a *Args[T], colOffset, colEnd int) {
	defer observe("nt", time.Now())

	w := cfg.Width
	conjA := a.TransA == matrix.ConjTrans
	conjB := a.TransB == matrix.ConjTrans
	base := a.A.Base
	betaZero := scalar.IsZero(a.Beta)
	var zero T

	grid.Launch(cfg, 1, func(sg grid.Subgroup) {
		row := sg.Index
		if row >= a.M {
			return
		}

		// Stored column offsets are premultiplied by B's leading dimension;
		// the tile scan then only adds the lane's column.
		bOffs := make([]int, w)
		vals := make([]T, w)
		sums := make([]T, w)

		rowStart := a.A.RowPtr[row] - base
		rowEnd := a.A.RowPtr[row+1] - base

		for l := colOffset; l < colEnd; l += w {
			for lane := range sums {
				sums[lane] = zero
			}

			for j := rowStart; j < rowEnd; j += w {
				for lane := 0; lane < w; lane++ {
					k := j + lane
					if k < rowEnd {
						bOffs[lane] = a.B.LD * (a.A.ColInd[k] - base)
						v := a.A.Val[k]
						if conjA {
							v = scalar.Conj(v)
						}
						vals[lane] = v
					} else {
						bOffs[lane] = 0
						vals[lane] = zero
					}
				}

				for lane := 0; lane < w; lane++ {
					col := l + lane
					if col >= colEnd {
						break
					}
					sum := sums[lane]
					for i := 0; i < w; i++ {
						bv := a.B.Data[col+bOffs[i]]
						if conjB {
							bv = scalar.Conj(bv)
						}
						sum = scalar.MulAdd(vals[i], bv, sum)
					}
					sums[lane] = sum
				}
			}

			for lane := 0; lane < w; lane++ {
				col := l + lane
				if col >= colEnd {
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
