package adaptation

import (
	"github.com/notargets/godpg/elements"
	"github.com/notargets/godpg/mesh"
	"github.com/notargets/godpg/types"
)

/*
changeOrder moves the leaf volume h to order p+dp clamped to the allowed range. Raising the order interpolates
the solution, which is exact; lowering it L2-projects. An order already at its limit is left alone and
reported as unchanged.
*/
func (d *Driver) changeOrder(h mesh.Handle, dp int) (changed bool, err error) {
	var (
		sim  = d.Sim
		nvar = sim.NVar
		r    = d.C.Volumes.Get(h)
	)
	if r == nil {
		return false, types.NewStructuralError("order change of dead volume %d", h)
	}
	sv := elements.AsSolver(r)
	if !sv.Leaf() {
		return false, types.NewStructuralError("order change of non-leaf volume %d", h)
	}
	var (
		pOld = sv.PRef
		pNew = sim.OrderRange(pOld + dp)
	)
	sv.Adapt.AdaptType = types.ADAPT_NONE
	if pNew == pOld {
		return
	}
	// The old solution stays reachable through a copy of the record
	var (
		old     = *sv
		oldCoef = append([]float64(nil), sv.SolCoef...)
	)
	old.SolCoef = oldCoef
	if err = elements.SetOrder(sim, r, pNew); err != nil {
		return
	}
	var coef []float64
	if pNew > pOld {
		coef = interpolate(&old, nvar, sv.Ops.Trial.Nodes)
	} else {
		coef, err = projectSolution(sv, nvar, []piece{{
			xyzVe:  sv.XyzVe,
			toDst:  func(r []float64) []float64 { return r },
			values: solutionOf(&old),
		}})
		if err != nil {
			if rerr := elements.SetOrder(sim, r, pOld); rerr != nil {
				panic(rerr)
			}
			copy(sv.SolCoef, oldCoef)
			return
		}
	}
	copy(sv.SolCoef, coef)
	sv.Adapt.PRefPrev = pOld
	sv.Adapt.Updated = true
	for _, list := range sv.Faces {
		for _, fh := range list {
			d.C.Face(fh).Adapt.UpdatedGeomNCFace = true
		}
	}
	return true, nil
}
