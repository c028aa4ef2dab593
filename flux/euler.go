package flux

import (
	"math"

	"github.com/notargets/godpg/types"
)

// Euler is the compressible Euler flux for conserved variables [rho, rho*u_1..rho*u_d, E].
type Euler[T Scalar] struct {
	D     int
	Gamma float64
}

func (e *Euler[T]) Dim() int       { return e.D }
func (e *Euler[T]) NEq() int       { return e.D + 2 }
func (e *Euler[T]) PDE() types.PDE { return types.Euler }

func (e *Euler[T]) Pressure(w []T) T {
	var (
		d      = e.D
		rhoInv = 1 / w[0]
		V2rho  T
	)
	for i := 0; i < d; i++ {
		V2rho += w[1+i] * w[1+i] * rhoInv
	}
	return FromFloat[T](e.Gamma-1) * (w[d+1] - 0.5*V2rho)
}

func (e *Euler[T]) Point(w, f, df []T) {
	var (
		d      = e.D
		neq    = d + 2
		gm1    = FromFloat[T](e.Gamma - 1)
		gamma  = FromFloat[T](e.Gamma)
		rho    = w[0]
		rhoInv = 1 / rho
		E      = w[d+1]
		u      = make([]T, d)
		V2     T
	)
	for i := range u {
		u[i] = w[1+i] * rhoInv
		V2 += u[i] * u[i]
	}
	p := gm1 * (E - 0.5*rho*V2)
	H := (E + p) * rhoInv
	for k := 0; k < d; k++ {
		f[k] = w[1+k]
		for i := 0; i < d; i++ {
			f[k+d*(1+i)] = w[1+k] * u[i]
			if i == k {
				f[k+d*(1+i)] += p
			}
		}
		f[k+d*(d+1)] = u[k] * (E + p)
	}
	if df == nil {
		return
	}
	for i := range df {
		df[i] = 0
	}
	at := func(k, eq, v int) *T { return &df[k+d*(eq+neq*v)] }
	for k := 0; k < d; k++ {
		// mass
		*at(k, 0, 1+k) = 1
		// momentum
		for i := 0; i < d; i++ {
			eq := 1 + i
			*at(k, eq, 0) = -u[k] * u[i]
			if i == k {
				*at(k, eq, 0) += gm1 * 0.5 * V2
				*at(k, eq, d+1) = gm1
			}
			for j := 0; j < d; j++ {
				var val T
				if j == k {
					val += u[i]
				}
				if i == j {
					val += u[k]
				}
				if i == k {
					val -= gm1 * u[j]
				}
				*at(k, eq, 1+j) = val
			}
		}
		// energy
		eq := d + 1
		*at(k, eq, 0) = -u[k]*H + u[k]*gm1*0.5*V2
		for j := 0; j < d; j++ {
			*at(k, eq, 1+j) = -gm1 * u[k] * u[j]
			if j == k {
				*at(k, eq, 1+j) += H
			}
		}
		*at(k, eq, d+1) = gamma * u[k]
	}
}

// WaveSpeed is |V| + c.
func (e *Euler[T]) WaveSpeed(w []T, n []float64, dl []T) T {
	var (
		d      = e.D
		gm1    = FromFloat[T](e.Gamma - 1)
		gamma  = FromFloat[T](e.Gamma)
		rho    = w[0]
		rhoInv = 1 / rho
		u      = make([]T, d)
		V2     T
	)
	for i := range u {
		u[i] = w[1+i] * rhoInv
		V2 += u[i] * u[i]
	}
	p := gm1 * (w[d+1] - 0.5*rho*V2)
	// |V| is not differentiable at rest; both instantiations take it as zero there
	var V T
	if !atRest(w[1 : d+1]) {
		V = Sqrt(V2)
	}
	c := Sqrt(gamma * p * rhoInv)
	if dl != nil {
		// dp/dw and d(1/rho)/dw
		dp := make([]T, d+2)
		dp[0] = gm1 * 0.5 * V2
		for i := 0; i < d; i++ {
			dp[1+i] = -gm1 * u[i]
		}
		dp[d+1] = gm1
		for v := range dl {
			var dV T
			if Real(V) != 0 {
				switch {
				case v == 0:
					for i := 0; i < d; i++ {
						dV += -u[i] * u[i] * rhoInv
					}
				case v <= d:
					dV = u[v-1] * rhoInv
				}
				dV /= V
			}
			dRhoInv := FromFloat[T](0)
			if v == 0 {
				dRhoInv = -rhoInv * rhoInv
			}
			dl[v] = dV + 0.5*gamma/c*(dp[v]*rhoInv+p*dRhoInv)
		}
	}
	return V + c
}

// atRest reports a zero real momentum. Complex steps of a resting state only carry imaginary momentum.
func atRest[T Scalar](m []T) bool {
	for _, mi := range m {
		if Real(mi) != 0 {
			return false
		}
	}
	return true
}

// FreestreamState is the conserved state with unit density, unit sound speed and Mach number minf at angle
// alpha degrees in the x-y plane.
func FreestreamState(d int, gamma, minf, alpha float64) (w []float64) {
	var (
		rho = 1.
		p   = 1. / gamma
		a   = alpha * math.Pi / 180
		u   = make([]float64, d)
	)
	u[0] = minf * math.Cos(a)
	if d > 1 {
		u[1] = minf * math.Sin(a)
	}
	w = make([]float64, d+2)
	w[0] = rho
	var V2 float64
	for i := range u {
		w[1+i] = rho * u[i]
		V2 += u[i] * u[i]
	}
	w[d+1] = p/(gamma-1) + 0.5*rho*V2
	return
}
