package elements

import (
	"fmt"
	"sync"

	"github.com/notargets/godpg/mesh"
	"github.com/notargets/godpg/simulation"
	"github.com/notargets/godpg/types"
	"github.com/notargets/godpg/utils"
)

/*
Containers own every volume and face record in arenas addressed by stable handles. The active lists hold the
leaf records in ascending handle order and are what assembly traverses. Mu gives adaptation exclusive access.
*/
type Containers struct {
	Sim           *simulation.Simulation
	Volumes       *mesh.Arena[VolumeRecord]
	Faces         *mesh.Arena[FaceRecord]
	ActiveVolumes List[VolumeRecord]
	ActiveFaces   List[FaceRecord]
	Mu            sync.Mutex
	adaptive      bool
	destroyed     bool
}

// NewContainers builds one record per mesh volume and unique face, with solution and geometry initialized.
func NewContainers(sim *simulation.Simulation) (c *Containers, err error) {
	var (
		m    = sim.Mesh
		conn = m.Conn
		nv   = m.NVolumes()
	)
	c = &Containers{
		Sim:     sim,
		Volumes: mesh.NewArena[VolumeRecord](nv),
		Faces:   mesh.NewArena[FaceRecord](len(conn.Faces)),
	}
	for v := 0; v < nv; v++ {
		var (
			vol = m.Data.Volume(v)
			tp  = m.Elements.Topology(vol.Type)
			r   VolumeRecord
		)
		base := Volume{
			Handle:   mesh.Handle(v),
			Index:    v,
			Type:     vol.Type,
			Topo:     tp,
			XyzVe:    m.Vert.XyzVe[v],
			Boundary: m.Vert.Boundary[v],
			Curved:   m.Vert.Curved[v],
			BCTags:   append([]string(nil), conn.VToBC[v]...),
			Faces:    make([][]mesh.Handle, tp.NFaces()),
		}
		if r, err = newVolumeRecord(sim, base, sim.PRef); err != nil {
			return nil, fmt.Errorf("volume %d: %w", v, err)
		}
		AsSolver(r).SetState(sim.InitialState)
		c.Volumes.Alloc(r)
	}
	for fid := range conn.Faces {
		fi := &conn.Faces[fid]
		f := &SolverFace{Face: Face{
			Handle: mesh.Handle(fid),
			Index:  fid,
			Type:   fi.Type,
			Tag:    fi.Tag,
			Curved: m.Vert.FaceCurved[fid],
		}}
		for s := 0; s < 2; s++ {
			f.Neigh[s] = Neighbour{Volume: mesh.Handle(fi.Volumes[s]), LocalFace: fi.LocalFaces[s]}
			if fi.Volumes[s] < 0 {
				f.Neigh[s] = Neighbour{Volume: mesh.NoHandle, LocalFace: -1}
			}
		}
		if f.Boundary() {
			f.BC = sim.BCs[f.Tag].Kind
		}
		v0 := c.Volume(f.Neigh[0].Volume)
		f.Corners = v0.FaceCorners(f.Neigh[0].LocalFace)
		c.Faces.Alloc(f)
		for s := 0; s < 2; s++ {
			if f.Neigh[s].Volume.Valid() {
				c.Volume(f.Neigh[s].Volume).AttachFace(f.Neigh[s].LocalFace, f.Handle)
			}
		}
		if err = f.RebuildGeometry(sim, c.Volume); err != nil {
			return nil, err
		}
	}
	c.RebuildLists()
	sim.Logger.Printf("containers: %d %s volumes, %d faces", c.ActiveVolumes.Len(), sim.Scheme,
		c.ActiveFaces.Len())
	return
}

// Volume returns the solver record at h, nil for a dead handle.
func (c *Containers) Volume(h mesh.Handle) *SolverVolume {
	r := c.Volumes.Get(h)
	if r == nil {
		return nil
	}
	return AsSolver(r)
}

func (c *Containers) Face(h mesh.Handle) *SolverFace {
	r := c.Faces.Get(h)
	if r == nil {
		return nil
	}
	return AsSolverFace(r)
}

// RebuildLists relinks the active lists from the live leaf records in ascending handle order.
func (c *Containers) RebuildLists() {
	c.ActiveVolumes.Clear()
	c.ActiveFaces.Clear()
	c.Volumes.Each(func(h mesh.Handle, r VolumeRecord) {
		if AsSolver(r).Leaf() {
			c.ActiveVolumes.PushBack(r)
		}
	})
	c.Faces.Each(func(h mesh.Handle, r FaceRecord) {
		if AsSolverFace(r).Leaf() {
			c.ActiveFaces.PushBack(r)
		}
	})
}

// EnterAdaptation attaches the adaptive state to every record that lacks it.
func (c *Containers) EnterAdaptation() {
	if c.adaptive {
		return
	}
	c.Volumes.Each(func(h mesh.Handle, r VolumeRecord) {
		if sv := AsSolver(r); sv.Adapt == nil {
			sv.Adapt = NewAdaptiveState(sv.PRef)
		}
	})
	c.Faces.Each(func(h mesh.Handle, r FaceRecord) {
		if sf := AsSolverFace(r); sf.Adapt == nil {
			sf.Adapt = NewAdaptiveFaceState()
		}
	})
	c.adaptive = true
}

func (c *Containers) Adaptive() bool { return c.adaptive }

// AllocVolumes stores records in contiguous slots and stamps their handles.
func (c *Containers) AllocVolumes(rs []VolumeRecord) (first mesh.Handle) {
	first = c.Volumes.AllocN(rs)
	for i, r := range rs {
		r.Base().Handle = first + mesh.Handle(i)
	}
	return
}

func (c *Containers) AllocFace(f *SolverFace) mesh.Handle {
	f.Handle = c.Faces.Alloc(f)
	return f.Handle
}

// AllocFaces stores faces in contiguous slots.
func (c *Containers) AllocFaces(fs []*SolverFace) (first mesh.Handle) {
	rs := make([]FaceRecord, len(fs))
	for i, f := range fs {
		rs[i] = f
	}
	first = c.Faces.AllocN(rs)
	for i, f := range fs {
		f.Handle = first + mesh.Handle(i)
	}
	return
}

// NewVolume builds a record of the active scheme at order p from a base record.
func (c *Containers) NewVolume(base Volume, p int) (VolumeRecord, error) {
	return newVolumeRecord(c.Sim, base, p)
}

// FreeVolume releases derived fields, then the base fields, then the arena slot.
func (c *Containers) FreeVolume(h mesh.Handle) {
	r := c.Volumes.Get(h)
	if r == nil {
		panic(fmt.Errorf("free of dead volume %d", h))
	}
	if dv := AsDPG(r); dv != nil {
		dv.MInv = utils.Matrix{}
	}
	if dg := AsDG(r); dg != nil {
		dg.LHS = nil
	}
	sv := AsSolver(r)
	sv.Adapt = nil
	sv.Ops, sv.SolCoef, sv.RHS = nil, nil, nil
	sv.Xyz, sv.Metrics, sv.DetJ = nil, nil, nil
	sv.XyzVe, sv.Faces, sv.BCTags = nil, nil, nil
	c.Volumes.Free(h)
}

func (c *Containers) FreeFace(h mesh.Handle) {
	sf := c.Face(h)
	if sf == nil {
		panic(fmt.Errorf("free of dead face %d", h))
	}
	sf.release()
	sf.Adapt = nil
	sf.Corners = nil
	c.Faces.Free(h)
}

// Destroy releases every record in reverse order of acquisition. Calling it twice is a programming error.
func (c *Containers) Destroy() {
	if c.destroyed {
		panic(fmt.Errorf("containers destroyed twice"))
	}
	c.ActiveVolumes.Clear()
	c.ActiveFaces.Clear()
	for h := mesh.Handle(c.Faces.Len() - 1); h >= 0; h-- {
		if c.Faces.Live(h) {
			c.FreeFace(h)
		}
	}
	for h := mesh.Handle(c.Volumes.Len() - 1); h >= 0; h-- {
		if c.Volumes.Live(h) {
			c.FreeVolume(h)
		}
	}
	c.destroyed = true
}

// ServiceGeometry recomputes the geometry flagged by adaptation on neighbouring elements and clears the flags.
func (c *Containers) ServiceGeometry() (n int, err error) {
	if !c.adaptive {
		return
	}
	stale := make(map[mesh.Handle]bool)
	c.ActiveVolumes.Each(func(r VolumeRecord) bool {
		sv := AsSolver(r)
		if sv.Adapt != nil && sv.Adapt.UpdatedGeomNC {
			for _, list := range sv.Faces {
				for _, fh := range list {
					stale[fh] = true
				}
			}
			sv.Adapt.UpdatedGeomNC = false
			n++
		}
		return true
	})
	c.ActiveFaces.Each(func(r FaceRecord) bool {
		sf := AsSolverFace(r)
		if stale[sf.Handle] || (sf.Adapt != nil && sf.Adapt.UpdatedGeomNCFace) {
			if err = sf.RebuildGeometry(c.Sim, c.Volume); err != nil {
				return false
			}
			if sf.Adapt != nil {
				sf.Adapt.UpdatedGeomNCFace = false
			}
			n++
		}
		return true
	})
	return
}

// CheckLinks verifies that every active face and volume refer to each other consistently.
func (c *Containers) CheckLinks() error {
	var err error
	c.ActiveFaces.Each(func(r FaceRecord) bool {
		f := r.Base()
		for s := 0; s < 2; s++ {
			nb := f.Neigh[s]
			if !nb.Volume.Valid() {
				if s == 0 {
					err = types.NewStructuralError("face %d has no side 0 volume", f.Handle)
				}
				continue
			}
			sv := c.Volume(nb.Volume)
			if sv == nil || !sv.Leaf() {
				err = types.NewStructuralError("face %d side %d refers to non-leaf volume %d", f.Handle, s, nb.Volume)
				return false
			}
			found := false
			for _, fh := range sv.Faces[nb.LocalFace] {
				found = found || fh == f.Handle
			}
			if !found {
				err = types.NewStructuralError("volume %d does not list face %d on local face %d", nb.Volume,
					f.Handle, nb.LocalFace)
				return false
			}
		}
		return err == nil
	})
	return err
}
