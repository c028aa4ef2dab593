package solver

import (
	"github.com/notargets/godpg/elements"
	"github.com/notargets/godpg/types"
	"github.com/notargets/godpg/utils"
)

/*
AssembleDPG forms the normal equations of the discontinuous Petrov-Galerkin discretization. With B the
test×trial Jacobian, r the test residual and G the block-diagonal test norm Gram matrix,

	LHS = Bᵀ G⁻¹ B,  RHS = Bᵀ G⁻¹ r

With EnforceConservation, one row per volume and variable is appended holding the sum of that block's test
rows of B, the linearized element mean, and the system becomes the saddle point [[LHS, Cᵀ], [C, 0]].
*/
func (asm *Assembler) AssembleDPG() (sys *System, err error) {
	if asm.Sim.Scheme != types.DPG {
		return nil, types.NewConfigurationError("normal equations need the dpg scheme, have %s", asm.Sim.Scheme)
	}
	var B *System
	if B, err = asm.Assemble(true); err != nil {
		return
	}
	var (
		nvar     = asm.Sim.NVar
		Ginv     = utils.NewDOK(B.NTest, B.NTest)
		conserve bool
	)
	for i, sv := range asm.volumes {
		dv := elements.AsDPG(asm.C.Volumes.Get(sv.Handle))
		var MInv utils.Matrix
		if MInv, err = dv.InverseGram(); err != nil {
			return
		}
		conserve = conserve || dv.EnforceConservation
		npt := sv.NpTest()
		for v := 0; v < nvar; v++ {
			off := asm.testOffset[i] + v*npt
			Ginv.AddBlock(off, off, npt, npt, MInv.Data())
		}
	}
	var (
		Bt    = B.LHS.Transpose()
		BtG   = Bt.Mul(Ginv.ToCSR())
		N     = BtG.Mul(*B.LHS)
		rhs   = BtG.MulVec(B.RHS)
		nCons = 0
	)
	sys = &System{
		NTrial:      B.NTrial,
		NTest:       B.NTrial,
		TrialOffset: B.TrialOffset,
		TestOffset:  B.TrialOffset,
	}
	if !conserve {
		N.SetReadOnly("DPG normal matrix")
		sys.LHS, sys.RHS = &N, rhs
		return
	}
	nCons = nvar * len(asm.volumes)
	var (
		n   = B.NTrial + nCons
		K   = utils.NewDOK(n, n)
		row = make([]int, B.NTest) // conservation row of each test row
	)
	for i, sv := range asm.volumes {
		npt := sv.NpTest()
		for v := 0; v < nvar; v++ {
			for j := 0; j < npt; j++ {
				row[asm.testOffset[i]+v*npt+j] = B.NTrial + i*nvar + v
			}
		}
	}
	N.DoNonZero(func(i, j int, val float64) {
		K.Add(i, j, val)
	})
	B.LHS.DoNonZero(func(i, j int, val float64) {
		K.Add(row[i], j, val)
		K.Add(j, row[i], val)
	})
	sys.RHS = make([]float64, n)
	copy(sys.RHS, rhs)
	for i, r := range B.RHS {
		sys.RHS[row[i]] += r
	}
	csr := K.ToCSR()
	csr.SetReadOnly("DPG saddle point matrix")
	sys.LHS = &csr
	sys.NTrial, sys.NTest = n, n
	asm.Sim.Logger.Printf("run %s: dpg normal equations with %d conservation constraints", asm.Sim.RunID, nCons)
	return
}
