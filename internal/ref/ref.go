// Package ref provides the reference SpMM used by tests and the CLI verify
// mode: a plain triple loop generic over the kernel element types, plus
// gonum-backed float64/complex128 paths for cross-checking.
package ref

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"

	"github.com/23skdu/longbow-bodkin/internal/scalar"
)

// SpMM computes C = alpha*A*B + beta*C over row-major flat slices:
// A is m*k, B is k*n, C is m*n. Beta equal to zero overwrites without
// reading C, matching the kernels' short-circuit.
func SpMM[T scalar.Scalar](m, n, k int, alpha T, a, b []T, beta T, c []T) {
	betaZero := scalar.IsZero(beta)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var sum T
			for l := 0; l < k; l++ {
				sum += a[i*k+l] * b[l*n+j]
			}
			if betaZero {
				c[i*n+j] = alpha * sum
			} else {
				c[i*n+j] = beta*c[i*n+j] + alpha*sum
			}
		}
	}
}

// SpMMFloat64 is the gonum-backed float64 reference. It goes through
// mat.Dense (and therefore whatever BLAS implementation is registered, see
// blas_cgo.go) rather than the triple loop, giving an independent oracle.
func SpMMFloat64(m, n, k int, alpha float64, a, b []float64, beta float64, c []float64) {
	am := mat.NewDense(m, k, a)
	bm := mat.NewDense(k, n, b)
	cm := mat.NewDense(m, n, c)

	var prod mat.Dense
	prod.Mul(am, bm)
	prod.Scale(alpha, &prod)
	if beta == 0 {
		cm.Copy(&prod)
		return
	}
	cm.Scale(beta, cm)
	cm.Add(cm, &prod)
}

// SpMMComplex128 is the gonum-backed complex reference, driving the
// registered complex128 BLAS through cblas128.Gemm. The product lands in a
// scratch buffer so the beta==0 short-circuit never reads c.
func SpMMComplex128(m, n, k int, alpha complex128, a, b []complex128, beta complex128, c []complex128) {
	prod := make([]complex128, m*n)
	cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1,
		cblas128.General{Rows: m, Cols: k, Stride: k, Data: a},
		cblas128.General{Rows: k, Cols: n, Stride: n, Data: b},
		0,
		cblas128.General{Rows: m, Cols: n, Stride: n, Data: prod})

	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			if beta == 0 {
				c[i*n+j] = alpha * prod[i*n+j]
			} else {
				c[i*n+j] = beta*c[i*n+j] + alpha*prod[i*n+j]
			}
		}
	}
}

// MaxAbsDiff returns the largest elementwise |a-b| over two equal-length
// real slices.
func MaxAbsDiff(a, b []float64) float64 {
	var max float64
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		if d > max {
			max = d
		}
	}
	return max
}
