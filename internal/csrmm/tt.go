package csrmm

import (
	"time"

	"github.com/23skdu/longbow-bodkin/internal/grid"
	"github.com/23skdu/longbow-bodkin/internal/scalar"
)

// KernelTT is KernelTN with B read row-contiguously (Data[k*LD + cid]).
// The contraction-slice walk, the staged B tile, the atomic scatter and the
// beta pre-pass requirement are identical.
func KernelTT[T scalar.Scalar](cfg grid.Config, a *Args[T]) {
	defer observe("tt", time.Now())
	scatterTransposed(cfg, a, true)
}
