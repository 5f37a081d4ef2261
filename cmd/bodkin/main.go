package main

import (
	"context"
	"flag"
	"math/rand"
	"net/http"
	"os"
	"runtime/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/23skdu/longbow-bodkin/internal/csrmm"
	"github.com/23skdu/longbow-bodkin/internal/grid"
	"github.com/23skdu/longbow-bodkin/internal/matrix"
	"github.com/23skdu/longbow-bodkin/internal/ref"
)

var (
	flagM       = flag.Int("m", 4096, "Rows of op(A) / C")
	flagN       = flag.Int("n", 64, "Columns of B / C")
	flagK       = flag.Int("k", 4096, "Contraction dimension")
	flagDensity = flag.Float64("density", 0.01, "Nonzero density of the generated matrix")
	flagOpA     = flag.String("op-a", "n", "Transpose mode for A (n, t, c)")
	flagOpB     = flag.String("op-b", "n", "Transpose mode for B (n, t, c)")
	flagVariant = flag.String("variant", "nn", "Row-parallel strategy when A is untransposed (nn, nt)")
	flagOrder   = flag.String("order", "row", "Storage order for C (row, col)")
	flagAlpha   = flag.Float64("alpha", 1.0, "Scalar alpha")
	flagBeta    = flag.Float64("beta", 0.0, "Scalar beta")
	flagWidth   = flag.Int("width", 16, "Subgroup width (lanes)")
	flagGroups  = flag.Int("subgroups", 256, "Subgroup count along the row dimension")
	flagIters   = flag.Int("iters", 10, "Benchmark iterations")
	flagSeed    = flag.Int64("seed", 7, "RNG seed for generated inputs")
	flagVerify  = flag.Bool("verify", false, "Check the result against the gonum reference")
	flagMatrix  = flag.String("matrix", "", "Load A from a CBOR matrix file instead of generating")
	flagSave    = flag.String("save-matrix", "", "Write the generated A to a CBOR matrix file and exit")
	flagOut     = flag.String("out", "", "Write C as an Arrow IPC file")
	flagListen  = flag.String("listen", "", "Serve /metrics on this address during the run (e.g. :9090)")
	cpuProfile  = flag.String("cpuprofile", "", "Write cpu profile to file")
	enableOTel  = flag.Bool("otel", false, "Enable OpenTelemetry tracing (stdout)")
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	flag.Parse()
	if *flagIters < 1 {
		*flagIters = 1
	}

	if *enableOTel {
		shutdown, err := initTracer()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize tracer")
		}
		defer shutdown(context.Background())
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create CPU profile file")
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("Could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
	}

	if *flagListen != "" {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			log.Info().Str("addr", *flagListen).Msg("Serving metrics")
			if err := http.ListenAndServe(*flagListen, nil); err != nil {
				log.Error().Err(err).Msg("Metrics server stopped")
			}
		}()
	}

	opA, err := matrix.ParseOp(*flagOpA)
	if err != nil {
		log.Fatal().Err(err).Msg("Bad -op-a")
	}
	opB, err := matrix.ParseOp(*flagOpB)
	if err != nil {
		log.Fatal().Err(err).Msg("Bad -op-b")
	}

	order := matrix.RowMajor
	if *flagOrder == "col" {
		order = matrix.ColMajor
	}

	m, n, k := *flagM, *flagN, *flagK
	rng := rand.New(rand.NewSource(*flagSeed))

	// The stored CSR has m rows for untransposed A and k rows otherwise
	// (its rows then serve as contraction slices).
	aRows, aCols := m, k
	if opA != matrix.NoTrans {
		aRows, aCols = k, m
	}

	var a *matrix.CSR[float64]
	if *flagMatrix != "" {
		a, err = matrix.LoadCSRFile(*flagMatrix)
		if err != nil {
			log.Fatal().Err(err).Str("path", *flagMatrix).Msg("Failed to load matrix")
		}
		if a.Rows != aRows || a.Cols != aCols {
			log.Fatal().
				Int("rows", a.Rows).Int("cols", a.Cols).
				Int("want_rows", aRows).Int("want_cols", aCols).
				Msg("Matrix file shape does not match -m/-n/-k and -op-a")
		}
	} else {
		a = genCSR(rng, aRows, aCols, *flagDensity)
	}

	if *flagSave != "" {
		f, err := os.Create(*flagSave)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create matrix file")
		}
		defer f.Close()
		if err := matrix.WriteCSR(f, a); err != nil {
			log.Fatal().Err(err).Msg("Failed to write matrix file")
		}
		log.Info().Str("path", *flagSave).Int("nnz", a.NNZ()).Msg("Matrix written")
		return
	}

	// B's layout depends on the variant: nn/tn read columns contiguously,
	// nt/tt read rows contiguously.
	bLogical := make([]float64, k*n)
	for i := range bLogical {
		bLogical[i] = rng.NormFloat64()
	}
	rowContig := (opA == matrix.NoTrans && *flagVariant == "nt") ||
		(opA != matrix.NoTrans && opB != matrix.NoTrans)
	var b matrix.Dense[float64]
	if rowContig {
		b = matrix.Dense[float64]{Data: packRowContig(bLogical, k, n), LD: n}
	} else {
		b = matrix.Dense[float64]{Data: packColContig(bLogical, k, n), LD: k}
	}

	c := newDense(m, n, order)
	c0 := make([]float64, len(c.Data))
	for i := range c0 {
		c0[i] = rng.NormFloat64()
		c.Data[i] = c0[i]
	}

	cfg := grid.Config{Subgroups: *flagGroups, Width: *flagWidth}
	args := &csrmm.Args[float64]{
		TransA: opA, TransB: opB,
		M: m, N: n, K: k,
		Alpha: *flagAlpha, Beta: *flagBeta,
		A: *a, B: b, C: c,
	}

	log.Info().
		Int("m", m).Int("n", n).Int("k", k).
		Int("nnz", a.NNZ()).
		Str("op_a", opA.String()).Str("op_b", opB.String()).
		Str("variant", *flagVariant).
		Int("width", cfg.Width).Int("subgroups", cfg.Subgroups).
		Msg("Running SpMM")

	tracer := otel.Tracer("bodkin")
	elapsed := time.Duration(0)
	for i := 0; i < *flagIters; i++ {
		copy(c.Data, c0)
		_, span := tracer.Start(context.Background(), "spmm")
		start := time.Now()
		csrmm.Apply(cfg, args, *flagVariant == "nt")
		elapsed += time.Since(start)
		span.SetAttributes(attribute.Int("iteration", i))
		span.End()
	}

	perIter := elapsed / time.Duration(*flagIters)
	flops := 2 * float64(a.NNZ()) * float64(n)
	p := message.NewPrinter(language.English)
	p.Printf("spmm: %d x %d x %d, %d nonzeros, %v/iter, %.2f GFLOP/s\n",
		m, n, k, a.NNZ(), perIter, flops/perIter.Seconds()/1e9)

	if *flagVerify {
		expected := make([]float64, m*n)
		for i := 0; i < m; i++ {
			for j := 0; j < n; j++ {
				expected[i*n+j] = c0[c.Index(i, j)]
			}
		}
		ref.SpMMFloat64(m, n, k, *flagAlpha, denseOpA(a, opA), bLogical, *flagBeta, expected)

		got := make([]float64, m*n)
		for i := 0; i < m; i++ {
			for j := 0; j < n; j++ {
				got[i*n+j] = c.At(i, j)
			}
		}
		diff := ref.MaxAbsDiff(expected, got)
		log.Info().Float64("max_abs_diff", diff).Msg("Verified against gonum reference")
		if diff > 1e-8 {
			log.Fatal().Float64("max_abs_diff", diff).Msg("Verification FAILED")
		}
	}

	if *flagOut != "" {
		if err := writeArrowResult(*flagOut, &c, m, n); err != nil {
			log.Fatal().Err(err).Msg("Failed to write Arrow result")
		}
		log.Info().Str("path", *flagOut).Msg("Result written")
	}
}

func genCSR(rng *rand.Rand, rows, cols int, density float64) *matrix.CSR[float64] {
	rowPtr := make([]int, rows+1)
	var colInd []int
	var vals []float64
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if rng.Float64() < density {
				colInd = append(colInd, j)
				vals = append(vals, rng.NormFloat64())
			}
		}
		rowPtr[i+1] = len(colInd)
	}
	return &matrix.CSR[float64]{Rows: rows, Cols: cols, RowPtr: rowPtr, ColInd: colInd, Val: vals}
}

// denseOpA expands op(A) into a row-major m-by-k slice for verification.
func denseOpA(a *matrix.CSR[float64], op matrix.Op) []float64 {
	stored := make([]float64, a.Rows*a.Cols)
	for i := 0; i < a.Rows; i++ {
		for j := a.RowPtr[i] - a.Base; j < a.RowPtr[i+1]-a.Base; j++ {
			stored[i*a.Cols+(a.ColInd[j]-a.Base)] = a.Val[j]
		}
	}
	if op == matrix.NoTrans {
		return stored
	}
	out := make([]float64, len(stored))
	for i := 0; i < a.Rows; i++ {
		for j := 0; j < a.Cols; j++ {
			out[j*a.Rows+i] = stored[i*a.Cols+j]
		}
	}
	return out
}

func packColContig(b []float64, k, n int) []float64 {
	out := make([]float64, k*n)
	for l := 0; l < k; l++ {
		for col := 0; col < n; col++ {
			out[l+col*k] = b[l*n+col]
		}
	}
	return out
}

func packRowContig(b []float64, k, n int) []float64 {
	out := make([]float64, k*n)
	copy(out, b)
	return out
}

func newDense(m, n int, order matrix.Order) matrix.Dense[float64] {
	ld := n
	size := m * n
	if order == matrix.ColMajor {
		ld = m
	}
	return matrix.Dense[float64]{Data: make([]float64, size), LD: ld, Order: order}
}
