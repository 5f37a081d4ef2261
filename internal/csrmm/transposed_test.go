package csrmm

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/23skdu/longbow-bodkin/internal/grid"
	"github.com/23skdu/longbow-bodkin/internal/matrix"
	"github.com/23skdu/longbow-bodkin/internal/ref"
)

// For the transposed-A kernels the stored CSR has K rows; op(A) is its
// transpose, an m-by-k logical matrix.
func opADense(t *testing.T, a *matrix.CSR[float64], conj bool) []float64 {
	t.Helper()
	d := transposeRM(denseFromCSR(a), a.Rows, a.Cols)
	if conj {
		d = conjAll(d)
	}
	return d
}

func TestKernelTN_MatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(52))
	const m, n, k = 11, 9, 14
	const alpha = 0.75

	for _, order := range []matrix.Order{matrix.RowMajor, matrix.ColMajor} {
		for _, beta := range []float64{0, 1, -1.5} {
			for _, base := range []int{0, 1} {
				// Stored A: k rows, m cols.
				a := randCSR(rng, k, m, 0.3, base, rng.NormFloat64)
				require.NoError(t, a.Validate())

				bLogical := make([]float64, k*n)
				for i := range bLogical {
					bLogical[i] = rng.NormFloat64()
				}

				c := newDenseC[float64](m, n, order, 2, rng.NormFloat64)
				expected := extractC(&c, m, n)
				ref.SpMM(m, n, k, alpha, opADense(t, a, false), bLogical, beta, expected)

				args := &Args[float64]{
					TransA: matrix.Trans, TransB: matrix.NoTrans,
					M: m, N: n, K: k,
					Alpha: alpha, Beta: beta,
					A: *a,
					B: matrix.Dense[float64]{Data: packColContig(bLogical, k, n, k+1), LD: k + 1},
					C: c,
				}
				Apply(grid.Config{Subgroups: 3, Width: 4}, args, false)

				requireClose(t, expected, extractC(&args.C, m, n), 1e-10)
			}
		}
	}
}

func TestKernelTT_MatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(53))
	const m, n, k = 8, 12, 10
	const alpha = -1.0

	for _, order := range []matrix.Order{matrix.RowMajor, matrix.ColMajor} {
		for _, beta := range []float64{0, 2.5} {
			a := randCSR(rng, k, m, 0.35, 0, rng.NormFloat64)

			bLogical := make([]float64, k*n)
			for i := range bLogical {
				bLogical[i] = rng.NormFloat64()
			}

			c := newDenseC[float64](m, n, order, 0, rng.NormFloat64)
			expected := extractC(&c, m, n)
			ref.SpMM(m, n, k, alpha, opADense(t, a, false), bLogical, beta, expected)

			args := &Args[float64]{
				TransA: matrix.Trans, TransB: matrix.Trans,
				M: m, N: n, K: k,
				Alpha: alpha, Beta: beta,
				A: *a,
				B: matrix.Dense[float64]{Data: packRowContig(bLogical, k, n, n+3), LD: n + 3},
				C: c,
			}
			Apply(grid.Config{Subgroups: 4, Width: 4}, args, false)

			requireClose(t, expected, extractC(&args.C, m, n), 1e-10)
		}
	}
}

// Scale followed by the atomic kernel must equal the one-shot
// beta*C_old + alpha*op(A)*B computation.
func TestScaleThenAtomicComposition(t *testing.T) {
	rng := rand.New(rand.NewSource(54))
	const m, n, k = 7, 6, 9
	const alpha, beta = 1.1, -0.4

	a := randCSR(rng, k, m, 0.4, 0, rng.NormFloat64)
	bLogical := make([]float64, k*n)
	for i := range bLogical {
		bLogical[i] = rng.NormFloat64()
	}

	c := newDenseC[float64](m, n, matrix.RowMajor, 0, rng.NormFloat64)
	expected := extractC(&c, m, n)
	ref.SpMM(m, n, k, alpha, opADense(t, a, false), bLogical, beta, expected)

	args := &Args[float64]{
		TransA: matrix.Trans,
		M:      m, N: n, K: k,
		Alpha: alpha, Beta: beta,
		A: *a,
		B: matrix.Dense[float64]{Data: packColContig(bLogical, k, n, k), LD: k},
		C: c,
	}
	// Explicit composition instead of Apply: the two steps are the contract.
	Scale(m, n, beta, &args.C)
	KernelTN(grid.Config{Subgroups: 2, Width: 8}, args)

	requireClose(t, expected, extractC(&args.C, m, n), 1e-10)
}

// Varying launch geometry only reorders the atomic summation; every
// geometry must land within tolerance of the reference.
func TestAtomicGeometryIndependence(t *testing.T) {
	rng := rand.New(rand.NewSource(55))
	const m, n, k = 15, 11, 18

	a := randCSR(rng, k, m, 0.3, 0, rng.NormFloat64)
	bLogical := make([]float64, k*n)
	for i := range bLogical {
		bLogical[i] = rng.NormFloat64()
	}
	b := matrix.Dense[float64]{Data: packColContig(bLogical, k, n, k), LD: k}

	expected := make([]float64, m*n)
	ref.SpMM(m, n, k, 1.0, opADense(t, a, false), bLogical, 0.0, expected)

	for _, cfg := range []grid.Config{
		{Subgroups: 1, Width: 2},
		{Subgroups: 3, Width: 5},
		{Subgroups: 7, Width: 8},
		{Subgroups: 16, Width: 16},
	} {
		c := newDenseC[float64](m, n, matrix.RowMajor, 0, nil)
		args := &Args[float64]{
			TransA: matrix.Trans,
			M:      m, N: n, K: k, Alpha: 1, Beta: 0,
			A: *a, B: b, C: c,
		}
		Apply(cfg, args, false)

		requireClose(t, expected, extractC(&args.C, m, n), 1e-9)
	}
}

// 2x2 complex operands with conjugate-transpose requested on both sides,
// checked against a scalar loop computing conj(a)*conj(b).
func TestConjTransposeComplex(t *testing.T) {
	const m, n, k = 2, 2, 2

	// Stored A (k x m): [[1+2i, 3-1i], [0, -2+0.5i]]
	a := &matrix.CSR[complex128]{
		Rows: k, Cols: m,
		RowPtr: []int{0, 2, 3},
		ColInd: []int{0, 1, 1},
		Val:    []complex128{complex(1, 2), complex(3, -1), complex(-2, 0.5)},
	}
	require.NoError(t, a.Validate())

	// bBuf holds B-transposed row-contiguously, as KernelTT reads it.
	bLogical := []complex128{
		complex(0.5, -0.5), complex(1, 1),
		complex(2, 0), complex(-1, 0.25),
	}
	aDense := denseFromCSR(a)

	expected := make([]complex128, m*n)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var sum complex128
			for l := 0; l < k; l++ {
				av := aDense[l*m+i] // op(A)[i][l] before conjugation
				bv := bLogical[l*n+j]
				sum += complex(real(av), -imag(av)) * complex(real(bv), -imag(bv))
			}
			expected[i*n+j] = sum
		}
	}

	c := newDenseC[complex128](m, n, matrix.RowMajor, 0, nil)
	args := &Args[complex128]{
		TransA: matrix.ConjTrans, TransB: matrix.ConjTrans,
		M: m, N: n, K: k, Alpha: 1, Beta: 0,
		A: *a,
		B: matrix.Dense[complex128]{Data: packRowContig(bLogical, k, n, n), LD: n},
		C: c,
	}
	Apply(grid.Config{Subgroups: 2, Width: 2}, args, false)

	got := extractC(&args.C, m, n)
	for i := range expected {
		require.InDeltaf(t, real(expected[i]), real(got[i]), 1e-12, "re %d", i)
		require.InDeltaf(t, imag(expected[i]), imag(got[i]), 1e-12, "im %d", i)
	}
}

// Conjugation without transposition on A: KernelNN applies only the value
// conjugation, matching a reference over conj(A).
func TestKernelNN_ConjugatedValues(t *testing.T) {
	rng := rand.New(rand.NewSource(56))
	const m, n, k = 5, 4, 6

	val := func() complex128 { return complex(rng.NormFloat64(), rng.NormFloat64()) }
	a := randCSR(rng, m, k, 0.5, 0, val)

	bLogical := make([]complex128, k*n)
	for i := range bLogical {
		bLogical[i] = val()
	}

	expected := make([]complex128, m*n)
	ref.SpMM(m, n, k, complex(1, 0), conjAll(denseFromCSR(a)), bLogical, complex(0, 0), expected)

	c := newDenseC[complex128](m, n, matrix.RowMajor, 0, nil)
	args := &Args[complex128]{
		TransA: matrix.ConjTrans, TransB: matrix.NoTrans,
		M: m, N: n, K: k, Alpha: 1, Beta: 0,
		A: *a,
		B: matrix.Dense[complex128]{Data: packColContig(bLogical, k, n, k), LD: k},
		C: c,
	}
	KernelNN(grid.Config{Subgroups: 2, Width: 4}, args)

	got := extractC(&args.C, m, n)
	for i := range expected {
		require.InDeltaf(t, real(expected[i]), real(got[i]), 1e-10, "re %d", i)
		require.InDeltaf(t, imag(expected[i]), imag(got[i]), 1e-10, "im %d", i)
	}
}

// Conjugation without transposition on B: the row-parallel kernels apply
// only the value conjugation, the caller's storage layout already being
// the untransposed one. Checked against a reference over conj(B).
func TestRowParallelConjugatedB(t *testing.T) {
	rng := rand.New(rand.NewSource(59))
	const m, n, k = 7, 5, 8
	const alpha, beta = complex(1.5, -0.5), complex(-0.25, 1)

	val := func() complex128 { return complex(rng.NormFloat64(), rng.NormFloat64()) }
	a := randCSR(rng, m, k, 0.4, 0, val)
	require.NoError(t, a.Validate())

	bLogical := make([]complex128, k*n)
	for i := range bLogical {
		bLogical[i] = val()
	}

	run := func(name string, launch func(args *Args[complex128])) {
		t.Run(name, func(t *testing.T) {
			c := newDenseC[complex128](m, n, matrix.RowMajor, 0, val)
			expected := extractC(&c, m, n)
			ref.SpMM(m, n, k, alpha, denseFromCSR(a), conjAll(bLogical), beta, expected)

			args := &Args[complex128]{
				TransA: matrix.NoTrans, TransB: matrix.ConjTrans,
				M: m, N: n, K: k,
				Alpha: alpha, Beta: beta,
				A: *a,
				C: c,
			}
			launch(args)

			got := extractC(&args.C, m, n)
			for i := range expected {
				require.InDeltaf(t, real(expected[i]), real(got[i]), 1e-10, "re %d", i)
				require.InDeltaf(t, imag(expected[i]), imag(got[i]), 1e-10, "im %d", i)
			}
		})
	}

	run("nn", func(args *Args[complex128]) {
		args.B = matrix.Dense[complex128]{Data: packColContig(bLogical, k, n, k+1), LD: k + 1}
		KernelNN(grid.Config{Subgroups: 3, Width: 4}, args)
	})
	run("nt", func(args *Args[complex128]) {
		args.B = matrix.Dense[complex128]{Data: packRowContig(bLogical, k, n, n+2), LD: n + 2}
		KernelNT(grid.Config{Subgroups: m, Width: 4}, args, 0, n)
	})
}

func TestScaleKernel(t *testing.T) {
	rng := rand.New(rand.NewSource(57))
	const m, n = 6, 5

	for _, order := range []matrix.Order{matrix.RowMajor, matrix.ColMajor} {
		c := newDenseC[float64](m, n, order, 3, rng.NormFloat64)
		before := extractC(&c, m, n)

		Scale(m, n, -2.5, &c)

		got := extractC(&c, m, n)
		for i := range before {
			require.InDelta(t, -2.5*before[i], got[i], 1e-14)
		}
	}
}

// Apply with beta == 0 on an atomic variant must zero-fill, not scale:
// NaN poison in C may not survive.
func TestApplyAtomicBetaZeroOverwrites(t *testing.T) {
	rng := rand.New(rand.NewSource(58))
	const m, n, k = 4, 3, 5

	a := randCSR(rng, k, m, 0.5, 0, rng.NormFloat64)
	bLogical := make([]float64, k*n)
	for i := range bLogical {
		bLogical[i] = rng.NormFloat64()
	}

	c := newDenseC[float64](m, n, matrix.RowMajor, 0, func() float64 { return math.NaN() })
	args := &Args[float64]{
		TransA: matrix.Trans,
		M:      m, N: n, K: k, Alpha: 1, Beta: 0,
		A: *a,
		B: matrix.Dense[float64]{Data: packColContig(bLogical, k, n, k), LD: k},
		C: c,
	}
	Apply(grid.Config{Subgroups: 2, Width: 4}, args, false)

	for i, v := range extractC(&args.C, m, n) {
		require.Falsef(t, math.IsNaN(v), "NaN leaked into element %d", i)
	}
}
