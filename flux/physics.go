package flux

import (
	"github.com/notargets/godpg/types"
)

// Input is a batch of N states in variable-major layout W[var*N + i].
type Input[T Scalar] struct {
	N int
	W []T
}

/*
Output receives the physical flux in the layout F[i + N*(dim + D*eq)] and, when DFdW is non-nil, its Jacobian
in the layout DFdW[i + N*(dim + D*(eq + NEq*var))].
*/
type Output[T Scalar] struct {
	F    []T
	DFdW []T
}

// Physics is a closed-form physical flux. Point evaluates one state with f[dim + D*eq] and
// df[dim + D*(eq + NEq*var)]; df may be nil.
type Physics[T Scalar] interface {
	Dim() int
	NEq() int
	Point(w, f, df []T)
	// WaveSpeed is the dissipation coefficient of the Lax-Friedrichs flux in direction n, with its state
	// derivative written to dl when dl is non-nil.
	WaveSpeed(w []T, n []float64, dl []T) T
	PDE() types.PDE
}

// Flux evaluates the physical flux of a batch.
func Flux[T Scalar](p Physics[T], in *Input[T], out *Output[T]) {
	var (
		d, neq = p.Dim(), p.NEq()
		n      = in.N
		w      = make([]T, neq)
		f      = make([]T, d*neq)
		df     []T
	)
	if out.DFdW != nil {
		df = make([]T, d*neq*neq)
	}
	for i := 0; i < n; i++ {
		for v := range w {
			w[v] = in.W[v*n+i]
		}
		p.Point(w, f, df)
		for k, val := range f {
			out.F[i+n*k] = val
		}
		for k, val := range df {
			out.DFdW[i+n*k] = val
		}
	}
}

// NewPhysics returns the physical flux of a PDE. The advection velocity b sets the dimension of advection.
func NewPhysics[T Scalar](pde types.PDE, d int, gamma float64, b []float64) (p Physics[T], err error) {
	switch pde {
	case types.Advection:
		if len(b) != d {
			return nil, types.NewConfigurationError("advection velocity %v does not match dimension %d", b, d)
		}
		return &Advection[T]{B: b}, nil
	case types.Burgers:
		return &Burgers[T]{D: d}, nil
	case types.Euler:
		if gamma <= 1 {
			return nil, types.NewConfigurationError("ratio of specific heats %v must exceed 1", gamma)
		}
		return &Euler[T]{D: d, Gamma: gamma}, nil
	}
	return nil, types.NewConfigurationError("unknown PDE %v", pde)
}

// CheckStates validates a batch of Euler states; other PDEs have no admissibility constraint.
func CheckStates[T Scalar](p Physics[T], in *Input[T]) error {
	e, ok := p.(*Euler[T])
	if !ok {
		return nil
	}
	w := make([]T, p.NEq())
	for i := 0; i < in.N; i++ {
		for v := range w {
			w[v] = in.W[v*in.N+i]
		}
		rho, pr := Real(w[0]), Real(e.Pressure(w))
		if !(rho > 0) || !(pr > 0) {
			return types.NewNumericalDomainError("non-physical state at node %d: density %g, pressure %g", i, rho, pr)
		}
	}
	return nil
}
