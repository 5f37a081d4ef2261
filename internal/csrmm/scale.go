package csrmm

import (
	"time"

	"github.com/23skdu/longbow-bodkin/internal/grid"
	"github.com/23skdu/longbow-bodkin/internal/matrix"
	"github.com/23skdu/longbow-bodkin/internal/scalar"
)

// Scale multiplies every element of the m-by-n window of c by beta. Elements
// are independent, so the 2D index space is swept with no synchronization.
// Callers use it ahead of the atomic kernels when beta is neither 0 nor 1;
// for beta == 0 the caller must overwrite instead (see Apply), since scaling
// would read possibly uninitialized memory.
func Scale[T scalar.Scalar](m, n int, beta T, c *matrix.Dense[T]) {
	defer observe("scale", time.Now())

	grid.Launch2D(m, n, func(i, j int) {
		idx := c.Index(i, j)
		c.Data[idx] = c.Data[idx] * beta
	})
}
