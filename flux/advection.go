package flux

import (
	"math"

	"github.com/notargets/godpg/types"
)

// Advection is linear advection of one scalar with the constant velocity B: F_k = B_k u.
type Advection[T Scalar] struct {
	B []float64
}

func (a *Advection[T]) Dim() int       { return len(a.B) }
func (a *Advection[T]) NEq() int       { return 1 }
func (a *Advection[T]) PDE() types.PDE { return types.Advection }

func (a *Advection[T]) Point(w, f, df []T) {
	for k, bk := range a.B {
		f[k] = FromFloat[T](bk) * w[0]
		if df != nil {
			df[k] = FromFloat[T](bk)
		}
	}
}

// NormalSpeed is B·n.
func (a *Advection[T]) NormalSpeed(n []float64) (bn float64) {
	for k, bk := range a.B {
		bn += bk * n[k]
	}
	return
}

func (a *Advection[T]) WaveSpeed(w []T, n []float64, dl []T) T {
	if dl != nil {
		dl[0] = 0
	}
	return FromFloat[T](math.Abs(a.NormalSpeed(n)))
}

// Burgers is the inviscid Burgers flux F_k = u^2/2 in every direction.
type Burgers[T Scalar] struct {
	D int
}

func (b *Burgers[T]) Dim() int       { return b.D }
func (b *Burgers[T]) NEq() int       { return 1 }
func (b *Burgers[T]) PDE() types.PDE { return types.Burgers }

func (b *Burgers[T]) Point(w, f, df []T) {
	for k := 0; k < b.D; k++ {
		f[k] = 0.5 * w[0] * w[0]
		if df != nil {
			df[k] = w[0]
		}
	}
}

// WaveSpeed is |u sum_k n_k|.
func (b *Burgers[T]) WaveSpeed(w []T, n []float64, dl []T) T {
	var sn float64
	for k := 0; k < b.D; k++ {
		sn += n[k]
	}
	s := w[0] * FromFloat[T](sn)
	if dl != nil {
		dl[0] = FromFloat[T](sn)
		if Real(s) < 0 {
			dl[0] = -dl[0]
		}
	}
	return Abs(s)
}
