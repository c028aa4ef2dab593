package solver

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/cmplxs"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/godpg/flux"
	"github.com/notargets/godpg/types"
)

// JacobianCheck compares the assembled LHS with a complex-step directional derivative of the residual.
type JacobianCheck struct {
	// RelErr is |Im(RHS(u + ihv))/h - LHS·v| / |LHS·v|.
	RelErr float64
	// RealErr is the distance between the real part of the complex residual and the real residual.
	RealErr float64
	Norm    float64
}

/*
CheckJacobian probes the linearization along a random direction. The complex instantiation of every kernel
shares its formulas with the real one, so agreement checks the closed-form and complex-step Jacobians of the
fluxes, the boundary chain rule and the assembly of every block at once.
*/
func (asm *Assembler) CheckJacobian(seed int64) (jc JacobianCheck, err error) {
	var sys *System
	if sys, err = asm.Assemble(true); err != nil {
		return
	}
	var (
		rng  = rand.New(rand.NewSource(seed))
		dirn = make([]float64, sys.NTrial)
		h    = flux.ComplexStepH
	)
	for i := range dirn {
		dirn[i] = rng.Float64() - 0.5
	}
	coefC := make([][]complex128, len(asm.volumes))
	for i, sv := range asm.volumes {
		off := asm.trialOffset[i]
		coefC[i] = make([]complex128, len(sv.SolCoef))
		for k, u := range sv.SolCoef {
			coefC[i][k] = complex(u, h*dirn[off+k])
		}
	}
	var rhsC []complex128
	if rhsC, err = AssembleRHS(asm, func(i int) []complex128 { return coefC[i] }); err != nil {
		return
	}
	var (
		jv = make([]float64, len(rhsC))
		re = make([]float64, len(rhsC))
		lv = sys.LHS.MulVec(dirn)
	)
	for i, val := range rhsC {
		jv[i] = imag(val) / h
		re[i] = real(val)
	}
	jc.Norm = floats.Norm(lv, 2)
	if jc.Norm == 0 || math.IsNaN(cmplxs.Norm(rhsC, 2)) {
		return jc, types.NewNumericalDomainError("degenerate Jacobian probe, |LHS·v| = %g", jc.Norm)
	}
	jc.RelErr = floats.Distance(jv, lv, 2) / jc.Norm
	jc.RealErr = floats.Distance(re, sys.RHS, 2)
	return
}
