package flux

// RoePike is the Roe-Pike approximate Riemann solver for the Euler equations with the Harten-style entropy fix
// on the acoustic eigenvalues. Its Jacobians are complex-step derivatives of the real instantiation.
type RoePike[T Scalar] struct {
	D     int
	Gamma float64
}

func (r *RoePike[T]) Dim() int { return r.D }
func (r *RoePike[T]) NEq() int { return r.D + 2 }

func (r *RoePike[T]) Compute(in *NumFluxInput[T], out *NumFluxOutput[T]) {
	computeBatch[T](r, r.D, r.NEq(), in, out)
}

func (r *RoePike[T]) point(wl, wr []T, n []float64, nf, dl, dr []T) {
	r.flux(wl, wr, n, nf)
	if dl == nil {
		return
	}
	var (
		neq = r.NEq()
		x   = make([]float64, 2*neq)
		cr  = &RoePike[complex128]{D: r.D, Gamma: r.Gamma}
	)
	copy(x, Reals(wl))
	copy(x[neq:], Reals(wr))
	jac := ComplexStepJacobian(func(xc, yc []complex128) {
		cr.flux(xc[:neq], xc[neq:], n, yc)
	}, x, neq)
	for k := 0; k < neq*neq; k++ {
		dl[k] = FromFloat[T](jac[k])
		dr[k] = FromFloat[T](jac[neq*neq+k])
	}
}

type roeSide[T Scalar] struct {
	rho, E, p, H, Vn, V2 T
	u                    []T
}

func (r *RoePike[T]) side(w []T, n []float64) (s roeSide[T]) {
	d := r.D
	s.rho, s.E = w[0], w[d+1]
	s.u = make([]T, d)
	for k := 0; k < d; k++ {
		s.u[k] = w[1+k] / s.rho
		s.Vn += FromFloat[T](n[k]) * s.u[k]
		s.V2 += s.u[k] * s.u[k]
	}
	s.p = FromFloat[T](r.Gamma-1) * (s.E - 0.5*s.rho*s.V2)
	s.H = (s.E + s.p) / s.rho
	return
}

func (r *RoePike[T]) flux(wl, wr []T, n []float64, nf []T) {
	var (
		d      = r.D
		gm1    = FromFloat[T](r.Gamma - 1)
		L, R   = r.side(wl, n), r.side(wr, n)
		rr     = Sqrt(R.rho / L.rho)
		rP1Inv = 1 / (rr + 1)
		rho    = rr * L.rho
		u      = make([]T, d)
		H      = (rr*R.H + L.H) * rP1Inv
		Vn, V2 T
	)
	for k := 0; k < d; k++ {
		u[k] = (rr*R.u[k] + L.u[k]) * rP1Inv
		Vn += FromFloat[T](n[k]) * u[k]
		V2 += u[k] * u[k]
	}
	c := Sqrt(gm1 * (H - 0.5*V2))

	// eigenvalues with entropy fix
	var (
		l1   = MinReal(Abs(L.Vn-c), Abs(Vn-c))
		l5   = MaxReal(Abs(R.Vn+c), Abs(Vn+c))
		l234 = Abs(Vn)

		dp  = R.p - L.p
		dVn = R.Vn - L.Vn

		lc1 = 0.5*(l5+l1) - l234
		lc2 = 0.5 * (l5 - l1)

		disInter1 = lc1*dp/(c*c) + lc2*rho*dVn/c
		disInter2 = lc1*rho*dVn + lc2*dp/c

		rhoVnL, rhoVnR = L.rho * L.Vn, R.rho * R.Vn
		pLR            = L.p + R.p
	)
	nf[0] = 0.5 * (rhoVnL + rhoVnR - (l234*(R.rho-L.rho) + disInter1))
	for k := 0; k < d; k++ {
		nk := FromFloat[T](n[k])
		central := rhoVnL*L.u[k] + rhoVnR*R.u[k] + nk*pLR
		dis := l234*(wr[1+k]-wl[1+k]) + disInter1*u[k] + disInter2*nk
		nf[1+k] = 0.5 * (central - dis)
	}
	central := L.Vn*(L.E+L.p) + R.Vn*(R.E+R.p)
	dis := l234*(R.E-L.E) + disInter1*H + disInter2*Vn
	nf[d+1] = 0.5 * (central - dis)
}
