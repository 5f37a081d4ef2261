package csrmm

import (
	"math/rand"
	"testing"

	"github.com/23skdu/longbow-bodkin/internal/grid"
	"github.com/23skdu/longbow-bodkin/internal/matrix"
)

func benchSetup(b *testing.B, rows, cols, n int, density float64) (*matrix.CSR[float64], []float64) {
	b.Helper()
	rng := rand.New(rand.NewSource(1))
	a := randCSR(rng, rows, cols, density, 0, rng.NormFloat64)
	bLogical := make([]float64, cols*n)
	for i := range bLogical {
		bLogical[i] = rng.NormFloat64()
	}
	return a, bLogical
}

func BenchmarkKernelNN(b *testing.B) {
	const m, n, k = 2048, 64, 2048
	a, bLogical := benchSetup(b, m, k, n, 0.01)
	bBuf := matrix.Dense[float64]{Data: packColContig(bLogical, k, n, k), LD: k}
	c := newDenseC[float64](m, n, matrix.RowMajor, 0, nil)

	cfg := grid.Config{Subgroups: 256, Width: 16}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		args := &Args[float64]{M: m, N: n, K: k, Alpha: 1, Beta: 0, A: *a, B: bBuf, C: c}
		KernelNN(cfg, args)
	}
}

func BenchmarkKernelNT(b *testing.B) {
	const m, n, k = 2048, 512, 2048
	a, bLogical := benchSetup(b, m, k, n, 0.01)
	bBuf := matrix.Dense[float64]{Data: packRowContig(bLogical, k, n, n), LD: n}
	c := newDenseC[float64](m, n, matrix.RowMajor, 0, nil)

	cfg := grid.Config{Subgroups: m, Width: 16}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		args := &Args[float64]{TransB: matrix.Trans, M: m, N: n, K: k, Alpha: 1, Beta: 0, A: *a, B: bBuf, C: c}
		KernelNT(cfg, args, 0, n)
	}
}

func BenchmarkKernelTN(b *testing.B) {
	const m, n, k = 2048, 64, 2048
	a, bLogical := benchSetup(b, k, m, n, 0.01)
	bBuf := matrix.Dense[float64]{Data: packColContig(bLogical, k, n, k), LD: k}
	c := newDenseC[float64](m, n, matrix.RowMajor, 0, nil)

	cfg := grid.Config{Subgroups: 256, Width: 16}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		args := &Args[float64]{TransA: matrix.Trans, M: m, N: n, K: k, Alpha: 1, Beta: 0, A: *a, B: bBuf, C: c}
		Apply(cfg, args, false)
	}
}

func BenchmarkScale(b *testing.B) {
	const m, n = 2048, 512
	c := newDenseC[float64](m, n, matrix.RowMajor, 0, func() float64 { return 1 })

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Scale(m, n, 1.0000001, &c)
	}
}
