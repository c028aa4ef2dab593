package adaptation

import (
	"math"

	"github.com/notargets/godpg/elements"
	"github.com/notargets/godpg/geometry"
	"github.com/notargets/godpg/operators"
	"github.com/notargets/godpg/types"
	"github.com/notargets/godpg/utils"
)

// piece is one integration region of an L2 projection: a physical cell, the map from its reference points to
// the reference points of the destination volume, and the source field on it.
type piece struct {
	xyzVe  [][]float64
	toDst  func(r []float64) []float64
	values func(v int, r [][]float64) []float64
}

// projectSolution is the projection used by merge and p-coarsening.
var projectSolution = project

/*
project replaces the solution of dst by the L2 projection of the pieces onto its trial basis,

	M a = b,  M_ij = ∫ φ_i φ_j,  b_iv = Σ_pieces ∫ φ_i u_v

with Gauss cubature on every piece. Mass is conserved, and a source already in the trial space is reproduced.
*/
func project(dst *elements.SolverVolume, nvar int, pieces []piece) (coef []float64, err error) {
	var (
		np  = dst.Np()
		cub = operators.GaussCubature(dst.Type, dst.PRef+2)
		nq  = cub.Len()
		M   = utils.NewMatrix(np, np)
		B   = utils.NewMatrix(np, nvar)
	)
	for _, pc := range pieces {
		var (
			rd = make([][]float64, nq)
			wJ = make([]float64, nq)
		)
		for q, r := range cub.Points {
			_, det := geometry.InvertSmall(dst.Topo.Jacobian(pc.xyzVe, r))
			wJ[q] = cub.Weights[q] * math.Abs(det)
			rd[q] = pc.toDst(r)
		}
		Phi := dst.Ops.Trial.Interpolation(rd)
		for i := 0; i < np; i++ {
			for j := 0; j < np; j++ {
				var sum float64
				for q := 0; q < nq; q++ {
					sum += wJ[q] * Phi.At(q, i) * Phi.At(q, j)
				}
				M.Set(i, j, M.At(i, j)+sum)
			}
		}
		for v := 0; v < nvar; v++ {
			u := pc.values(v, cub.Points)
			for i := 0; i < np; i++ {
				var sum float64
				for q := 0; q < nq; q++ {
					sum += wJ[q] * Phi.At(q, i) * u[q]
				}
				B.Set(i, v, B.At(i, v)+sum)
			}
		}
	}
	var X utils.Matrix
	if X, err = M.Solve(B); err != nil {
		return nil, types.NewNumericalDomainError("singular projection mass matrix on volume %d: %v", dst.Handle, err)
	}
	coef = make([]float64, nvar*np)
	for v := 0; v < nvar; v++ {
		for i := 0; i < np; i++ {
			coef[v*np+i] = X.At(i, v)
		}
	}
	return
}

// interpolate evaluates the solution of src at the destination nodes, given their reference points in src.
func interpolate(src *elements.SolverVolume, nvar int, r [][]float64) (coef []float64) {
	var (
		np = src.Np()
		I  = src.Ops.Trial.Interpolation(r)
	)
	coef = make([]float64, nvar*len(r))
	for v := 0; v < nvar; v++ {
		copy(coef[v*len(r):], I.MulVec(src.SolCoef[v*np:(v+1)*np]))
	}
	return
}

// solutionOf is the source field of a whole volume in its own reference coordinates.
func solutionOf(sv *elements.SolverVolume) func(v int, r [][]float64) []float64 {
	return func(v int, r [][]float64) []float64 { return sv.Evaluate(v, r) }
}

// tolerance scales the geometric matching tolerance with the size of a cell.
func tolerance(xyzVe [][]float64) float64 {
	lo, hi := geometry.BBox(xyzVe)
	var d float64
	for k := range lo {
		d = math.Max(d, hi[k]-lo[k])
	}
	return 1.e-10 * d
}
