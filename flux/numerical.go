package flux

import (
	"github.com/notargets/godpg/types"
)

// NumFluxInput is a batch of N left/right state pairs, W[var*N + i], with unit normals n[i*D + k] pointing from
// left to right.
type NumFluxInput[T Scalar] struct {
	N       int
	WL, WR  []T
	Normals []float64
}

// NumFluxOutput receives nF[i + N*eq] and, when non-nil, dnF/dW[i + N*(eq + NEq*var)] for both sides.
type NumFluxOutput[T Scalar] struct {
	NF             []T
	DNFdWL, DNFdWR []T
}

type NumericalFlux[T Scalar] interface {
	Dim() int
	NEq() int
	Compute(in *NumFluxInput[T], out *NumFluxOutput[T])
}

// pointNumFlux evaluates one state pair: nf[eq], dl and dr as [eq + NEq*var], either may be nil.
type pointNumFlux[T Scalar] interface {
	point(wl, wr []T, n []float64, nf, dl, dr []T)
}

func computeBatch[T Scalar](pf pointNumFlux[T], d, neq int, in *NumFluxInput[T], out *NumFluxOutput[T]) {
	var (
		N      = in.N
		wl, wr = make([]T, neq), make([]T, neq)
		nf     = make([]T, neq)
		dl, dr []T
	)
	withJac := out.DNFdWL != nil
	if withJac {
		dl, dr = make([]T, neq*neq), make([]T, neq*neq)
	}
	for i := 0; i < N; i++ {
		for v := 0; v < neq; v++ {
			wl[v], wr[v] = in.WL[v*N+i], in.WR[v*N+i]
		}
		pf.point(wl, wr, in.Normals[i*d:(i+1)*d], nf, dl, dr)
		for eq, val := range nf {
			out.NF[i+N*eq] = val
		}
		if withJac {
			for k := range dl {
				out.DNFdWL[i+N*k] = dl[k]
				out.DNFdWR[i+N*k] = dr[k]
			}
		}
	}
}

// LaxFriedrichs is nF = (n·(F_L + F_R) + lambda (W_L - W_R))/2 with lambda the larger side wave speed.
type LaxFriedrichs[T Scalar] struct {
	Phys Physics[T]
}

func (lf *LaxFriedrichs[T]) Dim() int { return lf.Phys.Dim() }
func (lf *LaxFriedrichs[T]) NEq() int { return lf.Phys.NEq() }

func (lf *LaxFriedrichs[T]) Compute(in *NumFluxInput[T], out *NumFluxOutput[T]) {
	computeBatch[T](lf, lf.Dim(), lf.NEq(), in, out)
}

func (lf *LaxFriedrichs[T]) point(wl, wr []T, n []float64, nf, dl, dr []T) {
	var (
		d, neq       = lf.Dim(), lf.NEq()
		fl, fr       = make([]T, d*neq), make([]T, d*neq)
		dfl, dfr     []T
		dlamL, dlamR []T
	)
	if dl != nil {
		dfl, dfr = make([]T, d*neq*neq), make([]T, d*neq*neq)
		dlamL, dlamR = make([]T, neq), make([]T, neq)
	}
	lf.Phys.Point(wl, fl, dfl)
	lf.Phys.Point(wr, fr, dfr)
	lamL := lf.Phys.WaveSpeed(wl, n, dlamL)
	lamR := lf.Phys.WaveSpeed(wr, n, dlamR)
	leftMax := Real(lamL) > Real(lamR)
	lam := lamR
	if leftMax {
		lam = lamL
	}
	for eq := 0; eq < neq; eq++ {
		var sum T
		for k := 0; k < d; k++ {
			sum += FromFloat[T](n[k]) * (fl[k+d*eq] + fr[k+d*eq])
		}
		nf[eq] = 0.5 * (sum + lam*(wl[eq]-wr[eq]))
	}
	if dl == nil {
		return
	}
	for eq := 0; eq < neq; eq++ {
		jump := wl[eq] - wr[eq]
		for v := 0; v < neq; v++ {
			var sl, sr T
			for k := 0; k < d; k++ {
				nk := FromFloat[T](n[k])
				sl += nk * dfl[k+d*(eq+neq*v)]
				sr += nk * dfr[k+d*(eq+neq*v)]
			}
			if eq == v {
				sl += lam
				sr -= lam
			}
			if leftMax {
				sl += jump * dlamL[v]
			} else {
				sr += jump * dlamR[v]
			}
			dl[eq+neq*v] = 0.5 * sl
			dr[eq+neq*v] = 0.5 * sr
		}
	}
}

// Upwind takes the advected state from the side the velocity comes from.
type Upwind[T Scalar] struct {
	Adv *Advection[T]
}

func (uw *Upwind[T]) Dim() int { return uw.Adv.Dim() }
func (uw *Upwind[T]) NEq() int { return 1 }

func (uw *Upwind[T]) Compute(in *NumFluxInput[T], out *NumFluxOutput[T]) {
	computeBatch[T](uw, uw.Dim(), 1, in, out)
}

func (uw *Upwind[T]) point(wl, wr []T, n []float64, nf, dl, dr []T) {
	bn := uw.Adv.NormalSpeed(n)
	if bn >= 0 {
		nf[0] = FromFloat[T](bn) * wl[0]
	} else {
		nf[0] = FromFloat[T](bn) * wr[0]
	}
	if dl != nil {
		dl[0], dr[0] = 0, 0
		if bn >= 0 {
			dl[0] = FromFloat[T](bn)
		} else {
			dr[0] = FromFloat[T](bn)
		}
	}
}

// NewNumericalFlux pairs a flux scheme with the physics it applies to.
func NewNumericalFlux[T Scalar](ft types.FluxType, p Physics[T]) (nf NumericalFlux[T], err error) {
	switch ft {
	case types.FLUX_LaxFriedrichs:
		return &LaxFriedrichs[T]{Phys: p}, nil
	case types.FLUX_Upwind:
		if adv, ok := p.(*Advection[T]); ok {
			return &Upwind[T]{Adv: adv}, nil
		}
	case types.FLUX_RoePike:
		if e, ok := p.(*Euler[T]); ok {
			return &RoePike[T]{D: e.D, Gamma: e.Gamma}, nil
		}
	}
	return nil, types.NewConfigurationError("flux %s is not available for %s", ft, p.PDE())
}
