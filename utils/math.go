package utils

import (
	"fmt"
	"math"
)

const maxFactorial = 20

var (
	factorialTable [maxFactorial + 1]float64
	// gammaHalfTable[n] = Gamma(n + 1/2)
	gammaHalfTable [maxFactorial + 1]float64
)

func init() {
	factorialTable[0] = 1
	gammaHalfTable[0] = math.Sqrt(math.Pi)
	for n := 1; n <= maxFactorial; n++ {
		factorialTable[n] = factorialTable[n-1] * float64(n)
		gammaHalfTable[n] = gammaHalfTable[n-1] * (float64(n) - 0.5)
	}
}

func Factorial(n int) float64 {
	if n < 0 {
		panic(fmt.Errorf("factorial of negative integer %d", n))
	}
	if n <= maxFactorial {
		return factorialTable[n]
	}
	return math.Gamma(float64(n + 1))
}

// Gamma uses the tables for positive integers and half integers and math.Gamma otherwise.
func Gamma(x float64) float64 {
	if x > 0 && x <= maxFactorial+1 {
		if n := math.Floor(x); n == x {
			return factorialTable[int(n)-1]
		}
		if n := math.Floor(x); x-n == 0.5 {
			return gammaHalfTable[int(n)]
		}
	}
	return math.Gamma(x)
}

// Gamma0 is the squared norm of the order zero Jacobi polynomial with weights (alpha, beta).
func Gamma0(alpha, beta float64) float64 {
	ab1 := alpha + beta + 1.
	return Gamma(alpha+1) * Gamma(beta+1) * math.Pow(2, ab1) / ab1 / Gamma(ab1)
}

func Gamma1(alpha, beta float64) float64 {
	ab := alpha + beta
	return (alpha + 1.) * (beta + 1.) * Gamma0(alpha, beta) / (ab + 3.0)
}

func ConstArray(N int, val float64) (v []float64) {
	v = make([]float64, N)
	for i := range v {
		v[i] = val
	}
	return
}

func Linspace(a, b float64, N int) (v []float64) {
	v = make([]float64, N)
	if N == 1 {
		v[0] = a
		return
	}
	h := (b - a) / float64(N-1)
	for i := range v {
		v[i] = a + float64(i)*h
	}
	v[N-1] = b
	return
}

func POW(x float64, pp int) (y float64) {
	var (
		p       = pp
		flipped bool
	)
	if pp > 8 || pp < -8 {
		return math.Pow(x, float64(p))
	}
	if p < 0 {
		p = -pp
		flipped = true
	}
	y = 1
	for i := 0; i < p; i++ {
		y *= x
	}
	if flipped {
		y = 1. / y
	}
	return
}
