//go:build cgo

package ref

// This file registers the netlib BLAS implementation which uses system BLAS
// (Accelerate on macOS, OpenBLAS on Linux) when CGO is available, so the
// gonum reference path runs against the platform BLAS.

import (
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/netlib/blas/netlib"
)

func init() {
	blas64.Use(netlib.Implementation{})
	log.Debug().Msg("⚡ CGO/BLAS Acceleration Enabled (netlib)")
}
