package adaptation

import (
	"github.com/notargets/godpg/elements"
	"github.com/notargets/godpg/geometry"
	"github.com/notargets/godpg/mesh"
	"github.com/notargets/godpg/types"
)

type localFace struct {
	child, face int
}

/*
split replaces the leaf volume h by its isotropic children. The children are built and paired before anything
is linked, so a failure leaves the tree as it was. Each face on the parent is then either moved to the child
face containing it, when the neighbour is already finer, or subdivided into one face per child face, in which
case the neighbour is flagged for a geometry update.
*/
func (d *Driver) split(h mesh.Handle) (err error) {
	var (
		c    = d.C
		sim  = d.Sim
		nvar = sim.NVar
		pr   = c.Volumes.Get(h)
	)
	if pr == nil {
		return types.NewStructuralError("split of dead volume %d", h)
	}
	P := elements.AsSolver(pr)
	if !P.Leaf() {
		return types.NewStructuralError("split of non-leaf volume %d", h)
	}
	tp := P.Topo
	if !tp.CanRefine() {
		return types.NewStructuralError("volume %d of type %s cannot be refined", h, P.Type)
	}
	var (
		nc       = len(tp.Children)
		children = make([]elements.VolumeRecord, nc)
		tol      = tolerance(P.XyzVe)
	)
	for ci, cref := range tp.Children {
		base := elements.Volume{
			Index:  P.Index,
			Type:   P.Type,
			Topo:   tp,
			Curved: P.Curved,
			Faces:  make([][]mesh.Handle, tp.NFaces()),
			BCTags: make([]string, tp.NFaces()),
		}
		for _, r := range cref {
			base.XyzVe = append(base.XyzVe, tp.Map(P.XyzVe, r))
		}
		for cf, pf := range tp.ChildFaceOnParent[ci] {
			if pf >= 0 && pf < len(P.BCTags) && P.BCTags[pf] != "" {
				base.BCTags[cf] = P.BCTags[pf]
				base.Boundary = true
			}
		}
		var r elements.VolumeRecord
		if r, err = c.NewVolume(base, P.PRef); err != nil {
			return
		}
		sv := elements.AsSolver(r)
		// Child nodes in parent reference coordinates
		rp := make([][]float64, sv.Np())
		for i, rc := range sv.Ops.Trial.Nodes {
			rp[i] = tp.Map(cref, rc)
		}
		copy(sv.SolCoef, interpolate(P, nvar, rp))
		sv.Adapt = &elements.AdaptiveState{
			PRefPrev: P.PRef,
			IndH:     P.Adapt.IndH + 1,
			Updated:  true,
			Child0:   mesh.NoHandle,
			Parent:   h,
		}
		children[ci] = r
	}

	// Pair the child faces interior to the parent
	var (
		interior [][2]localFace
		open     []localFace
	)
	for ci := range children {
		for cf, pf := range tp.ChildFaceOnParent[ci] {
			if pf >= 0 {
				continue
			}
			corners := children[ci].Base().FaceCorners(cf)
			matched := -1
			for k, lf := range open {
				if geometry.SameFace(corners, children[lf.child].Base().FaceCorners(lf.face), tol) {
					matched = k
					break
				}
			}
			if matched < 0 {
				open = append(open, localFace{ci, cf})
				continue
			}
			interior = append(interior, [2]localFace{open[matched], {ci, cf}})
			open = append(open[:matched], open[matched+1:]...)
		}
	}
	if len(open) != 0 {
		return types.NewStructuralError("volume %d: %d unpaired interior child faces", h, len(open))
	}

	// Nothing below fails
	first := c.AllocVolumes(children)
	child := func(ci int) *elements.SolverVolume { return elements.AsSolver(children[ci]) }
	for _, pair := range interior {
		a, b := pair[0], pair[1]
		f := &elements.SolverFace{
			Face: elements.Face{
				Index: -1,
				Type:  tp.FaceTypes[a.face],
				Neigh: [2]elements.Neighbour{
					{Volume: first + mesh.Handle(a.child), LocalFace: a.face},
					{Volume: first + mesh.Handle(b.child), LocalFace: b.face},
				},
				Corners: child(a.child).FaceCorners(a.face),
			},
			Adapt: newFaceState(mesh.NoHandle),
		}
		fh := c.AllocFace(f)
		child(a.child).AttachFace(a.face, fh)
		child(b.child).AttachFace(b.face, fh)
	}

	for pf := range P.Faces {
		var onFace []localFace
		for ci := range children {
			for cf, on := range tp.ChildFaceOnParent[ci] {
				if on == pf {
					onFace = append(onFace, localFace{ci, cf})
				}
			}
		}
		for _, fh := range P.Faces[pf] {
			d.splitFace(c.Face(fh), P, first, children, onFace, tol)
		}
		P.Faces[pf] = nil
	}
	P.Adapt.Child0, P.Adapt.NChildren = first, nc
	P.Adapt.AdaptType = types.ADAPT_NONE
	return
}

// splitFace moves face f of the parent P onto the children lying on the same parent face.
func (d *Driver) splitFace(f *elements.SolverFace, P *elements.SolverVolume, first mesh.Handle,
	children []elements.VolumeRecord, onFace []localFace, tol float64) {
	var (
		c = d.C
		s = f.Side(P.Handle)
	)
	for _, lf := range onFace {
		cv := elements.AsSolver(children[lf.child])
		if geometry.BoxInside(f.Corners, cv.FaceCorners(lf.face), tol) {
			f.Neigh[s] = elements.Neighbour{Volume: first + mesh.Handle(lf.child), LocalFace: lf.face}
			cv.AttachFace(lf.face, f.Handle)
			f.Adapt.UpdatedGeomNCFace = true
			return
		}
	}
	var (
		other = f.Neigh[1-s]
		subs  = make([]*elements.SolverFace, len(onFace))
	)
	for k, lf := range onFace {
		sub := &elements.SolverFace{
			Face: elements.Face{
				Index:   f.Index,
				Type:    f.Type,
				Tag:     f.Tag,
				BC:      f.BC,
				Curved:  f.Curved,
				Corners: elements.AsSolver(children[lf.child]).FaceCorners(lf.face),
			},
			Adapt: newFaceState(f.Handle),
		}
		sub.Neigh[s] = elements.Neighbour{Volume: first + mesh.Handle(lf.child), LocalFace: lf.face}
		sub.Neigh[1-s] = other
		subs[k] = sub
	}
	f0 := c.AllocFaces(subs)
	f.Adapt.Child0, f.Adapt.NChildren = f0, len(subs)
	for k, lf := range onFace {
		elements.AsSolver(children[lf.child]).AttachFace(lf.face, subs[k].Handle)
	}
	if nb := c.Volume(other.Volume); nb != nil {
		nb.DetachFace(other.LocalFace, f.Handle)
		for _, sub := range subs {
			nb.AttachFace(other.LocalFace, sub.Handle)
		}
		nb.Adapt.UpdatedGeomNC = true
	}
}

func newFaceState(parent mesh.Handle) *elements.AdaptiveFaceState {
	as := elements.NewAdaptiveFaceState()
	as.Updated, as.UpdatedGeomNCFace, as.Parent = true, true, parent
	return as
}
