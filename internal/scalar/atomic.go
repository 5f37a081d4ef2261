package scalar

import (
	"math"
	"sync/atomic"
	"unsafe"
)

// AtomicAdd adds v to *p with a compare-and-swap loop on the IEEE bit
// pattern. Complex values accumulate component-wise: the two halves are not
// updated as one unit, which is fine for a sum because each component only
// needs a commutative, associative add of its own contributions.
//
// The summation order across concurrent callers is unspecified; results are
// reproducible only up to floating-point rounding.
func AtomicAdd[T Scalar](p *T, v T) {
	switch pp := any(p).(type) {
	case *float32:
		addFloat32(pp, any(v).(float32))
	case *float64:
		addFloat64(pp, any(v).(float64))
	case *complex64:
		c := any(v).(complex64)
		parts := (*[2]float32)(unsafe.Pointer(pp))
		addFloat32(&parts[0], real(c))
		addFloat32(&parts[1], imag(c))
	case *complex128:
		c := any(v).(complex128)
		parts := (*[2]float64)(unsafe.Pointer(pp))
		addFloat64(&parts[0], real(c))
		addFloat64(&parts[1], imag(c))
	}
}

func addFloat32(p *float32, v float32) {
	bits := (*uint32)(unsafe.Pointer(p))
	for {
		old := atomic.LoadUint32(bits)
		next := math.Float32bits(math.Float32frombits(old) + v)
		if atomic.CompareAndSwapUint32(bits, old, next) {
			return
		}
	}
}

func addFloat64(p *float64, v float64) {
	bits := (*uint64)(unsafe.Pointer(p))
	for {
		old := atomic.LoadUint64(bits)
		next := math.Float64bits(math.Float64frombits(old) + v)
		if atomic.CompareAndSwapUint64(bits, old, next) {
			return
		}
	}
}
