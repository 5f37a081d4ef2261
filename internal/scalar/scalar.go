// Package scalar holds the numeric policy shared by every compute kernel:
// the element-type constraint, conjugation, multiply-add, and lock-free
// atomic accumulation.
package scalar

// Scalar is the set of element types the kernels operate on. The list is
// exact base types, not type sets with ~: Conj, IsOne, and AtomicAdd
// dispatch through type switches, so a defined type over one of these
// would silently take the wrong branch. Keeping the tilde off makes such
// an instantiation a compile error instead.
type Scalar interface {
	float32 | float64 | complex64 | complex128
}

// Conj returns the complex conjugate of v. For real types it is the identity.
func Conj[T Scalar](v T) T {
	switch x := any(v).(type) {
	case complex64:
		return any(complex(real(x), -imag(x))).(T)
	case complex128:
		return any(complex(real(x), -imag(x))).(T)
	}
	return v
}

// MulAdd returns a*b + c. Go has no fused single-precision or complex FMA,
// so this is an ordinary multiply-add; callers rely on the evaluation order,
// not on fusion.
func MulAdd[T Scalar](a, b, c T) T {
	return a*b + c
}

// IsZero reports whether v is exactly zero. Used for the beta==0
// short-circuit, which must never read the output buffer.
func IsZero[T Scalar](v T) bool {
	var zero T
	return v == zero
}

// IsOne reports whether v is exactly one.
func IsOne[T Scalar](v T) bool {
	return v == one[T]()
}

func one[T Scalar]() T {
	var o T
	switch any(o).(type) {
	case float32:
		return any(float32(1)).(T)
	case float64:
		return any(float64(1)).(T)
	case complex64:
		return any(complex64(1)).(T)
	case complex128:
		return any(complex128(1)).(T)
	}
	return o
}
