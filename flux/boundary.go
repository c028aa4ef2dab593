package flux

import (
	"github.com/notargets/godpg/types"
)

// BoundaryInput is a batch of N interior states, W[var*N + i], with outward unit normals n[i*D + k].
type BoundaryInput[T Scalar] struct {
	N       int
	WL      []T
	Normals []float64
}

// BoundaryOutput receives the exterior state and, when DWRdWL is non-nil, dWR/dWL[i + N*(vr + NEq*vl)].
type BoundaryOutput[T Scalar] struct {
	WR     []T
	DWRdWL []T
}

type BoundaryCondition[T Scalar] interface {
	Kind() types.BCFLAG
	Compute(in *BoundaryInput[T], out *BoundaryOutput[T])
}

type pointBC[T Scalar] interface {
	// point writes wr[v] and, when dw is non-nil, dw[vr + neq*vl].
	point(wl []T, n []float64, wr, dw []T)
}

func computeBoundary[T Scalar](bc pointBC[T], d, neq int, in *BoundaryInput[T], out *BoundaryOutput[T]) {
	var (
		N  = in.N
		wl = make([]T, neq)
		wr = make([]T, neq)
		dw []T
	)
	if out.DWRdWL != nil {
		dw = make([]T, neq*neq)
	}
	for i := 0; i < N; i++ {
		for v := 0; v < neq; v++ {
			wl[v] = in.WL[v*N+i]
		}
		bc.point(wl, in.Normals[i*d:(i+1)*d], wr, dw)
		for v := 0; v < neq; v++ {
			out.WR[v*N+i] = wr[v]
		}
		for k, val := range dw {
			out.DWRdWL[i+N*k] = val
		}
	}
}

// complexStepState fills dw with the complex-step derivative of a real-valued exterior state map.
func complexStepState[T Scalar](state func(wl []complex128, n []float64, wr []complex128), wl []T, n []float64,
	dw []T) {
	jac := ComplexStepJacobian(func(x, y []complex128) { state(x, n, y) }, Reals(wl), len(wl))
	for k, val := range jac {
		dw[k] = FromFloat[T](val)
	}
}

// ChainRule adds dnF/dWR · dWR/dWL into dnF/dWL for a batch of N nodes in the [i + N*(row + neq*col)] layout.
func ChainRule[T Scalar](N, neq int, dnFdWL, dnFdWR, dWRdWL []T) {
	for i := 0; i < N; i++ {
		for eq := 0; eq < neq; eq++ {
			for vl := 0; vl < neq; vl++ {
				var sum T
				for vr := 0; vr < neq; vr++ {
					sum += dnFdWR[i+N*(eq+neq*vr)] * dWRdWL[i+N*(vr+neq*vl)]
				}
				dnFdWL[i+N*(eq+neq*vl)] += sum
			}
		}
	}
}

// Prescribed imposes a fixed exterior state.
type Prescribed[T Scalar] struct {
	Flag  types.BCFLAG
	D     int
	State []float64
}

func (b *Prescribed[T]) Kind() types.BCFLAG { return b.Flag }

func (b *Prescribed[T]) Compute(in *BoundaryInput[T], out *BoundaryOutput[T]) {
	computeBoundary[T](b, b.D, len(b.State), in, out)
}

func (b *Prescribed[T]) point(wl []T, n []float64, wr, dw []T) {
	FromFloats(wr, b.State)
	for k := range dw {
		dw[k] = 0
	}
}

// Extrapolate copies the interior state.
type Extrapolate[T Scalar] struct {
	Flag types.BCFLAG
	D    int
	NEq  int
}

func (b *Extrapolate[T]) Kind() types.BCFLAG { return b.Flag }

func (b *Extrapolate[T]) Compute(in *BoundaryInput[T], out *BoundaryOutput[T]) {
	computeBoundary[T](b, b.D, b.NEq, in, out)
}

func (b *Extrapolate[T]) point(wl []T, n []float64, wr, dw []T) {
	copy(wr, wl)
	identity(b.NEq, dw)
}

func identity[T Scalar](neq int, dw []T) {
	if dw == nil {
		return
	}
	for k := range dw {
		dw[k] = 0
	}
	for v := 0; v < neq; v++ {
		dw[v+neq*v] = 1
	}
}

// SlipWall mirrors the normal momentum: m_R = m_L - 2(n·m_L)n.
type SlipWall[T Scalar] struct {
	D int
}

func (b *SlipWall[T]) Kind() types.BCFLAG { return types.BC_Slip }

func (b *SlipWall[T]) Compute(in *BoundaryInput[T], out *BoundaryOutput[T]) {
	computeBoundary[T](b, b.D, b.D+2, in, out)
}

func (b *SlipWall[T]) point(wl []T, n []float64, wr, dw []T) {
	var (
		d   = b.D
		neq = d + 2
		mn  T
	)
	for k := 0; k < d; k++ {
		mn += FromFloat[T](n[k]) * wl[1+k]
	}
	wr[0], wr[d+1] = wl[0], wl[d+1]
	for k := 0; k < d; k++ {
		wr[1+k] = wl[1+k] - 2*mn*FromFloat[T](n[k])
	}
	if dw == nil {
		return
	}
	identity(neq, dw)
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			dw[(1+i)+neq*(1+j)] -= FromFloat[T](2 * n[i] * n[j])
		}
	}
}

// Riemann is the characteristic far-field condition against the free state Free.
type Riemann[T Scalar] struct {
	D     int
	Gamma float64
	Free  []float64
}

func (b *Riemann[T]) Kind() types.BCFLAG { return types.BC_Riemann }

func (b *Riemann[T]) Compute(in *BoundaryInput[T], out *BoundaryOutput[T]) {
	computeBoundary[T](b, b.D, b.D+2, in, out)
}

func (b *Riemann[T]) point(wl []T, n []float64, wr, dw []T) {
	b.state(wl, n, wr)
	if dw != nil {
		cb := &Riemann[complex128]{D: b.D, Gamma: b.Gamma, Free: b.Free}
		complexStepState(cb.state, wl, n, dw)
	}
}

type primitive[T Scalar] struct {
	rho, p, c, Vn T
	u             []T
}

func toPrimitive[T Scalar](w []T, n []float64, gamma float64) (s primitive[T]) {
	d := len(w) - 2
	s.rho = w[0]
	s.u = make([]T, d)
	var V2 T
	for k := 0; k < d; k++ {
		s.u[k] = w[1+k] / s.rho
		s.Vn += FromFloat[T](n[k]) * s.u[k]
		V2 += s.u[k] * s.u[k]
	}
	s.p = FromFloat[T](gamma-1) * (w[d+1] - 0.5*s.rho*V2)
	s.c = Sqrt(FromFloat[T](gamma) * s.p / s.rho)
	return
}

func toConserved[T Scalar](rho, p T, u []T, gamma float64, w []T) {
	d := len(u)
	var V2 T
	w[0] = rho
	for k := 0; k < d; k++ {
		w[1+k] = rho * u[k]
		V2 += u[k] * u[k]
	}
	w[d+1] = p/FromFloat[T](gamma-1) + 0.5*rho*V2
}

func (b *Riemann[T]) state(wl []T, n []float64, wr []T) {
	var (
		d     = b.D
		gm1   = FromFloat[T](b.Gamma - 1)
		gamma = FromFloat[T](b.Gamma)
		free  = make([]T, d+2)
	)
	FromFloats(free, b.Free)
	L, R := toPrimitive(wl, n, b.Gamma), toPrimitive(free, n, b.Gamma)
	// outgoing and incoming invariants
	RL := L.Vn + 2/gm1*L.c
	RR := R.Vn - 2/gm1*R.c
	Vn := 0.5 * (RL + RR)
	c := 0.25 * gm1 * (RL - RR)

	inlet := Real(Vn) < 0
	if Real(Abs(Vn)) >= Real(Abs(c)) {
		if inlet {
			copy(wr, free)
		} else {
			copy(wr, wl)
		}
		return
	}
	up := L
	if inlet {
		up = R
	}
	s := up.p / Pow(up.rho, b.Gamma)
	rho := Pow(c*c/(gamma*s), 1/(b.Gamma-1))
	u := make([]T, d)
	for k := 0; k < d; k++ {
		nk := FromFloat[T](n[k])
		u[k] = Vn*nk + (up.u[k] - up.Vn*nk)
	}
	toConserved(rho, c*c*rho/gamma, u, b.Gamma, wr)
}

// BackPressure prescribes the exit pressure PBack on subsonic outflow and extrapolates otherwise.
type BackPressure[T Scalar] struct {
	D     int
	Gamma float64
	PBack float64
}

func (b *BackPressure[T]) Kind() types.BCFLAG { return types.BC_BackPressure }

func (b *BackPressure[T]) Compute(in *BoundaryInput[T], out *BoundaryOutput[T]) {
	computeBoundary[T](b, b.D, b.D+2, in, out)
}

func (b *BackPressure[T]) point(wl []T, n []float64, wr, dw []T) {
	b.state(wl, n, wr)
	if dw != nil {
		cb := &BackPressure[complex128]{D: b.D, Gamma: b.Gamma, PBack: b.PBack}
		complexStepState(cb.state, wl, n, dw)
	}
}

func (b *BackPressure[T]) state(wl []T, n []float64, wr []T) {
	L := toPrimitive(wl, n, b.Gamma)
	var V2 T
	for _, uk := range L.u {
		V2 += uk * uk
	}
	c2 := L.c * L.c
	if Real(V2) >= Real(c2) {
		copy(wr, wl)
		return
	}
	rhoB := FromFloat[T](b.Gamma*b.PBack) / c2
	toConserved(rhoB, FromFloat[T](b.PBack), L.u, b.Gamma, wr)
}

/*
NewBoundaryCondition builds the condition of one boundary tag. free is the free-stream state used by inflow
and far-field conditions; params may override it with "value" (scalar PDEs) and supply "p_back".
*/
func NewBoundaryCondition[T Scalar](kind types.BCFLAG, p Physics[T], params map[string]float64,
	free []float64) (bc BoundaryCondition[T], err error) {
	var (
		d, neq     = p.Dim(), p.NEq()
		e, isEuler = p.(*Euler[T])
	)
	if len(free) != neq {
		return nil, types.NewConfigurationError("free state has %d variables, want %d", len(free), neq)
	}
	switch kind {
	case types.BC_In:
		state := append([]float64{}, free...)
		if v, ok := params["value"]; ok && !isEuler {
			state[0] = v
		}
		return &Prescribed[T]{Flag: kind, D: d, State: state}, nil
	case types.BC_Out:
		return &Extrapolate[T]{Flag: kind, D: d, NEq: neq}, nil
	}
	if !isEuler {
		return nil, types.NewConfigurationError("boundary condition %s needs the Euler equations, have %s",
			kind, p.PDE())
	}
	switch kind {
	case types.BC_Slip:
		return &SlipWall[T]{D: d}, nil
	case types.BC_Riemann:
		return &Riemann[T]{D: d, Gamma: e.Gamma, Free: free}, nil
	case types.BC_SupersonicIn:
		return &Prescribed[T]{Flag: kind, D: d, State: free}, nil
	case types.BC_SupersonicOut:
		return &Extrapolate[T]{Flag: kind, D: d, NEq: neq}, nil
	case types.BC_BackPressure:
		pb, ok := params["p_back"]
		if !ok || pb <= 0 {
			return nil, types.NewConfigurationError("back pressure boundary needs a positive p_back, have %v", params)
		}
		return &BackPressure[T]{D: d, Gamma: e.Gamma, PBack: pb}, nil
	}
	return nil, types.NewConfigurationError("unsupported boundary condition %s", kind)
}
