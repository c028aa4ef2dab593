package flux

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Scalar is the field of a kernel instantiation: real values, or complex values for complex-step derivatives.
type Scalar interface {
	float64 | complex128
}

func Real[T Scalar](x T) float64 {
	switch v := any(x).(type) {
	case float64:
		return v
	case complex128:
		return real(v)
	}
	panic("unreachable")
}

func FromFloat[T Scalar](x float64) (r T) {
	switch p := any(&r).(type) {
	case *float64:
		*p = x
	case *complex128:
		*p = complex(x, 0)
	}
	return
}

func Sqrt[T Scalar](x T) (r T) {
	switch v := any(x).(type) {
	case float64:
		return any(math.Sqrt(v)).(T)
	case complex128:
		return any(cmplx.Sqrt(v)).(T)
	}
	return
}

func Pow[T Scalar](x T, y float64) (r T) {
	switch v := any(x).(type) {
	case float64:
		return any(math.Pow(v, y)).(T)
	case complex128:
		return any(cmplx.Pow(v, complex(y, 0))).(T)
	}
	return
}

// Abs is the analytic continuation of |x|: the sign follows the real part, so derivatives survive complex steps.
func Abs[T Scalar](x T) T {
	if Real(x) < 0 {
		return -x
	}
	return x
}

// MaxReal returns the argument with the larger real part, preferring b on ties.
func MaxReal[T Scalar](a, b T) T {
	if Real(a) > Real(b) {
		return a
	}
	return b
}

func MinReal[T Scalar](a, b T) T {
	if Real(a) < Real(b) {
		return a
	}
	return b
}

// Reals panics for a complex slice; it guards the real-only complex-step paths.
func Reals[T Scalar](x []T) []float64 {
	switch v := any(x).(type) {
	case []float64:
		return v
	}
	panic(fmt.Errorf("complex-step Jacobians are only available on the real instantiation"))
}

func FromFloats[T Scalar](dst []T, src []float64) {
	for i, v := range src {
		dst[i] = FromFloat[T](v)
	}
}

func IsComplex[T Scalar]() bool {
	var zero T
	_, ok := any(zero).(complex128)
	return ok
}
