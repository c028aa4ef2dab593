package adaptation

import (
	"sort"

	"github.com/notargets/godpg/elements"
	"github.com/notargets/godpg/mesh"
	"github.com/notargets/godpg/types"
)

/*
merge collapses the children of h back into h. Every child must be a live leaf; otherwise nothing is changed.
The children's solution is L2-projected onto the parent basis at the highest child order. Faces between
children are freed, the others are moved to the parent, and subdivided faces whose pieces again join the same
two volumes are restored.
*/
func (d *Driver) merge(h mesh.Handle) (err error) {
	var (
		c    = d.C
		sim  = d.Sim
		nvar = sim.NVar
		pr   = c.Volumes.Get(h)
	)
	if pr == nil {
		return types.NewStructuralError("merge into dead volume %d", h)
	}
	P := elements.AsSolver(pr)
	if P.Leaf() {
		return types.NewStructuralError("merge into volume %d which has no children", h)
	}
	var (
		tp       = P.Topo
		nc       = P.Adapt.NChildren
		children = make([]*elements.SolverVolume, nc)
		isChild  = make(map[mesh.Handle]int, nc)
		p        = 0
	)
	for ci := range children {
		ch := P.Adapt.Child0 + mesh.Handle(ci)
		if children[ci] = c.Volume(ch); children[ci] == nil {
			return types.NewStructuralError("volume %d: child %d is dead", h, ch)
		}
		if !children[ci].Leaf() {
			return types.NewStructuralError("volume %d: child %d is not a leaf", h, ch)
		}
		isChild[ch] = ci
		p = max(p, children[ci].PRef)
	}

	var (
		pOld    = P.PRef
		oldCoef = append([]float64(nil), P.SolCoef...)
	)
	if err = elements.SetOrder(sim, pr, p); err != nil {
		return
	}
	pieces := make([]piece, nc)
	for ci, ch := range children {
		cref := tp.Children[ci]
		pieces[ci] = piece{
			xyzVe:  ch.XyzVe,
			toDst:  func(r []float64) []float64 { return tp.Map(cref, r) },
			values: solutionOf(ch),
		}
	}
	var coef []float64
	if coef, err = projectSolution(P, nvar, pieces); err != nil {
		if rerr := elements.SetOrder(sim, pr, pOld); rerr != nil {
			panic(rerr)
		}
		copy(P.SolCoef, oldCoef)
		return
	}
	copy(P.SolCoef, coef)

	// Nothing below fails
	var (
		seen    = make(map[mesh.Handle]bool)
		parents = make(map[mesh.Handle]bool)
	)
	for ci, ch := range children {
		for cf, list := range ch.Faces {
			for _, fh := range list {
				if seen[fh] {
					continue
				}
				seen[fh] = true
				f := c.Face(fh)
				if ps := f.Adapt.Parent; ps.Valid() {
					parents[ps] = true
				}
				_, in0 := isChild[f.Neigh[0].Volume]
				_, in1 := isChild[f.Neigh[1].Volume]
				if in0 && in1 {
					d.freeInterior(f, isChild)
					continue
				}
				s := f.Side(ch.Handle)
				pf := tp.ChildFaceOnParent[ci][cf]
				f.Neigh[s] = elements.Neighbour{Volume: h, LocalFace: pf}
				P.AttachFace(pf, fh)
				f.Adapt.UpdatedGeomNCFace = true
			}
		}
	}
	for _, ch := range children {
		c.FreeVolume(ch.Handle)
	}
	P.Adapt.Child0, P.Adapt.NChildren = mesh.NoHandle, 0
	P.Adapt.Updated = true
	P.Adapt.AdaptType = types.ADAPT_NONE

	handles := make([]mesh.Handle, 0, len(parents))
	for ph := range parents {
		handles = append(handles, ph)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	for _, ph := range handles {
		d.restore(ph)
	}
	return
}

// freeInterior frees a face between two children, and its ancestors when they also lie between children.
func (d *Driver) freeInterior(f *elements.SolverFace, isChild map[mesh.Handle]int) {
	parent := f.Adapt.Parent
	d.C.FreeFace(f.Handle)
	for parent.Valid() {
		pf := d.C.Face(parent)
		if pf == nil {
			return
		}
		_, in0 := isChild[pf.Neigh[0].Volume]
		_, in1 := isChild[pf.Neigh[1].Volume]
		if !in0 || !in1 || !d.childrenDead(pf) {
			return
		}
		parent = pf.Adapt.Parent
		d.C.FreeFace(pf.Handle)
	}
}

func (d *Driver) childrenDead(f *elements.SolverFace) bool {
	for k := 0; k < f.Adapt.NChildren; k++ {
		if d.C.Faces.Live(f.Adapt.Child0 + mesh.Handle(k)) {
			return false
		}
	}
	return true
}

/*
restore turns the subdivided face h back into a leaf when all of its pieces are live leaves joining the same
pair of volumes, then tries the same one level up.
*/
func (d *Driver) restore(h mesh.Handle) {
	c := d.C
	for h.Valid() {
		H := c.Face(h)
		if H == nil || H.Leaf() {
			return
		}
		var neigh [2]elements.Neighbour
		for k := 0; k < H.Adapt.NChildren; k++ {
			sub := c.Face(H.Adapt.Child0 + mesh.Handle(k))
			if sub == nil || !sub.Leaf() {
				return
			}
			if k == 0 {
				neigh = sub.Neigh
			} else if sub.Neigh != neigh {
				return
			}
		}
		for k := 0; k < H.Adapt.NChildren; k++ {
			sh := H.Adapt.Child0 + mesh.Handle(k)
			for _, nb := range neigh {
				if v := c.Volume(nb.Volume); v != nil {
					v.DetachFace(nb.LocalFace, sh)
				}
			}
			c.FreeFace(sh)
		}
		H.Neigh = neigh
		for _, nb := range neigh {
			if v := c.Volume(nb.Volume); v != nil {
				v.AttachFace(nb.LocalFace, h)
				v.Adapt.UpdatedGeomNC = true
			}
		}
		H.Adapt.Child0, H.Adapt.NChildren = mesh.NoHandle, 0
		H.Adapt.UpdatedGeomNCFace = true
		h = H.Adapt.Parent
	}
}
