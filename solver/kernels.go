package solver

import (
	"github.com/notargets/godpg/elements"
	"github.com/notargets/godpg/flux"
	"github.com/notargets/godpg/simulation"
	"github.com/notargets/godpg/types"
	"github.com/notargets/godpg/utils"
)

// volumeContribution is one volume's residual [eq*NpTest + j] and Jacobian block
// [(eq*NpTest + j)*(NVar*Np) + var*Np + i].
type volumeContribution[T flux.Scalar] struct {
	rhs []T
	lhs []float64
}

// faceContribution holds the residual of each side and the blocks lhs[row side][column side].
type faceContribution[T flux.Scalar] struct {
	rhs [2][]T
	lhs [2][2][]float64
}

// toNodes interpolates nodal coefficients to nq points, W[var*nq + q].
func toNodes[T flux.Scalar](I utils.Matrix, direct bool, coef []T, neq int) (W []T) {
	var (
		nq, np = I.Dims()
	)
	W = make([]T, neq*nq)
	if direct {
		copy(W, coef)
		return
	}
	for v := 0; v < neq; v++ {
		for q := 0; q < nq; q++ {
			var sum T
			for i := 0; i < np; i++ {
				sum += flux.FromFloat[T](I.At(q, i)) * coef[v*np+i]
			}
			W[v*nq+q] = sum
		}
	}
	return
}

/*
volumeTerm integrates the physical flux against the test gradients, the ∫∇φ·F part of the residual. The flux is
taken to reference space with the metric terms dr/dx and weighted by w·|J| before the test derivatives apply.
*/
func volumeTerm[T flux.Scalar](k *simulation.Kernels[T], sv *elements.SolverVolume, coef []T,
	withLHS bool) (vc volumeContribution[T]) {
	var (
		ops     = sv.Ops
		np, npt = sv.Np(), sv.NpTest()
		nq      = ops.Cub.Len()
		d, neq  = k.Phys.Dim(), k.Phys.NEq()
		W       = toNodes(ops.I, ops.Collocated, coef, neq)
		out     = &flux.Output[T]{F: make([]T, nq*d*neq)}
	)
	if withLHS {
		out.DFdW = make([]T, nq*d*neq*neq)
	}
	flux.Flux(k.Phys, &flux.Input[T]{N: nq, W: W}, out)

	// Fr[q + nq*(r + d*eq)]
	toReference := func(F []T, ncomp int) (Fr []T) {
		Fr = make([]T, nq*d*ncomp)
		for q := 0; q < nq; q++ {
			var (
				wJ = flux.FromFloat[T](ops.Cub.Weights[q] * sv.DetJ[q])
				G  = sv.Metrics[q]
			)
			for c := 0; c < ncomp; c++ {
				for r := 0; r < d; r++ {
					var sum T
					for x := 0; x < d; x++ {
						sum += flux.FromFloat[T](G[r][x]) * F[q+nq*(x+d*c)]
					}
					Fr[q+nq*(r+d*c)] = wJ * sum
				}
			}
		}
		return
	}
	Fr := toReference(out.F, neq)
	vc.rhs = make([]T, neq*npt)
	for eq := 0; eq < neq; eq++ {
		for j := 0; j < npt; j++ {
			var sum T
			for r := 0; r < d; r++ {
				for q := 0; q < nq; q++ {
					sum += flux.FromFloat[T](ops.TestD[r].At(q, j)) * Fr[q+nq*(r+d*eq)]
				}
			}
			vc.rhs[eq*npt+j] = sum
		}
	}
	if !withLHS {
		return
	}
	var (
		dFr  = toReference(out.DFdW, neq*neq)
		ncol = neq * np
		tmp  = make([]float64, nq)
	)
	vc.lhs = make([]float64, neq*npt*ncol)
	for eq := 0; eq < neq; eq++ {
		for v := 0; v < neq; v++ {
			for j := 0; j < npt; j++ {
				for q := 0; q < nq; q++ {
					var sum float64
					for r := 0; r < d; r++ {
						sum += ops.TestD[r].At(q, j) * flux.Real(dFr[q+nq*(r+d*(eq+neq*v))])
					}
					tmp[q] = sum
				}
				row := (eq*npt + j) * ncol
				for i := 0; i < np; i++ {
					var sum float64
					for q := 0; q < nq; q++ {
						if ops.Collocated {
							if q == i {
								sum += tmp[q]
							}
							continue
						}
						sum += tmp[q] * ops.I.At(q, i)
					}
					vc.lhs[row+v*np+i] = sum
				}
			}
		}
	}
	return
}

/*
faceTerm evaluates the numerical flux at the face cubature nodes and applies it with opposite signs to the two
sides, the −∮φ F̂·n part of the residual. A boundary face takes its exterior state from the boundary condition
of its tag and folds dWR/dWL into the interior block.
*/
func faceTerm[T flux.Scalar](k *simulation.Kernels[T], sf *elements.SolverFace, sv [2]*elements.SolverVolume,
	coef [2][]T, withLHS bool) (fc faceContribution[T], err error) {
	var (
		nq    = sf.NNodes()
		neq   = k.Phys.NEq()
		sides = 2
		W     [2][]T
		nf    = make([]T, nq*neq)
		dn    [2][]T
	)
	if sf.Boundary() {
		sides = 1
	}
	for s := 0; s < sides; s++ {
		W[s] = toNodes(sf.Interp[s], false, coef[s], neq)
	}
	if withLHS {
		dn[0], dn[1] = make([]T, nq*neq*neq), make([]T, nq*neq*neq)
	}
	var dWR []T
	if sides == 1 {
		bc, ok := k.BCs[sf.Tag]
		if !ok {
			return fc, types.NewConfigurationError("no boundary condition for tag %q on face %d", sf.Tag, sf.Handle)
		}
		W[1] = make([]T, nq*neq)
		bout := &flux.BoundaryOutput[T]{WR: W[1]}
		if withLHS {
			dWR = make([]T, nq*neq*neq)
			bout.DWRdWL = dWR
		}
		bc.Compute(&flux.BoundaryInput[T]{N: nq, WL: W[0], Normals: sf.N}, bout)
	}
	k.NumFlux.Compute(&flux.NumFluxInput[T]{N: nq, WL: W[0], WR: W[1], Normals: sf.N},
		&flux.NumFluxOutput[T]{NF: nf, DNFdWL: dn[0], DNFdWR: dn[1]})
	if sides == 1 && withLHS {
		flux.ChainRule(nq, neq, dn[0], dn[1], dWR)
	}

	wJ := make([]float64, nq)
	for q := range wJ {
		wJ[q] = sf.Cub.Weights[q] * sf.DetJ[q]
	}
	sign := [2]float64{-1, 1}
	for a := 0; a < sides; a++ {
		var (
			npt = sv[a].NpTest()
			TI  = sf.TestInterp[a]
		)
		fc.rhs[a] = make([]T, neq*npt)
		for eq := 0; eq < neq; eq++ {
			for j := 0; j < npt; j++ {
				var sum T
				for q := 0; q < nq; q++ {
					sum += flux.FromFloat[T](sign[a]*wJ[q]*TI.At(q, j)) * nf[q+nq*eq]
				}
				fc.rhs[a][eq*npt+j] = sum
			}
		}
		if !withLHS {
			continue
		}
		for b := 0; b < sides; b++ {
			var (
				np   = sv[b].Np()
				ncol = neq * np
				I    = sf.Interp[b]
				blk  = make([]float64, neq*npt*ncol)
			)
			for eq := 0; eq < neq; eq++ {
				for v := 0; v < neq; v++ {
					for j := 0; j < npt; j++ {
						row := (eq*npt + j) * ncol
						for i := 0; i < np; i++ {
							var sum float64
							for q := 0; q < nq; q++ {
								sum += wJ[q] * TI.At(q, j) * flux.Real(dn[b][q+nq*(eq+neq*v)]) * I.At(q, i)
							}
							blk[row+v*np+i] = sign[a] * sum
						}
					}
				}
			}
			fc.lhs[a][b] = blk
		}
	}
	return
}
