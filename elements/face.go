package elements

import (
	"fmt"

	"github.com/notargets/godpg/geometry"
	"github.com/notargets/godpg/mesh"
	"github.com/notargets/godpg/operators"
	"github.com/notargets/godpg/simulation"
	"github.com/notargets/godpg/types"
	"github.com/notargets/godpg/utils"
)

type FaceRecord interface {
	Base() *Face
	Link() *Link[FaceRecord]
}

type FaceSolverCapable interface {
	Solver() *SolverFace
}

// Neighbour is one side of a face. Volume is mesh.NoHandle on the exterior side of a boundary face.
type Neighbour struct {
	Volume    mesh.Handle
	LocalFace int
}

// Face is the base record of a face between two volumes, or of a domain boundary face.
type Face struct {
	Handle  mesh.Handle
	Index   int
	Type    types.ElementType
	Neigh   [2]Neighbour
	Tag     string
	BC      types.BCFLAG
	Curved  bool
	Corners [][]float64
	link    Link[FaceRecord]
}

func (f *Face) Base() *Face             { return f }
func (f *Face) Link() *Link[FaceRecord] { return &f.link }

func (f *Face) Boundary() bool { return !f.Neigh[1].Volume.Valid() }

// Side returns the side of the face attached to volume h, -1 if none.
func (f *Face) Side(h mesh.Handle) int {
	for s := 0; s < 2; s++ {
		if f.Neigh[s].Volume == h {
			return s
		}
	}
	return -1
}

type AdaptiveFaceState struct {
	Updated           bool
	UpdatedGeomNCFace bool
	Child0            mesh.Handle
	NChildren         int
	Parent            mesh.Handle
}

func NewAdaptiveFaceState() *AdaptiveFaceState {
	return &AdaptiveFaceState{Child0: mesh.NoHandle, Parent: mesh.NoHandle}
}

func (as *AdaptiveFaceState) Leaf() bool { return as == nil || !as.Child0.Valid() }

/*
SolverFace caches the face geometry at its cubature nodes, xyz_fc, n_fc (unit normals n[i*D + k] pointing from
side 0 to side 1) and jacobian_det_fc, with the per-side trial and test interpolation operators. These are
replaced as a set by RebuildGeometry and never modified in place.
*/
type SolverFace struct {
	Face
	PRef       int
	CubType    types.GeomKind
	Cub        *operators.Cubature
	Xyz        [][]float64
	N          []float64
	DetJ       []float64
	Interp     [2]utils.Matrix
	TestInterp [2]utils.Matrix
	Adapt      *AdaptiveFaceState
}

func (sf *SolverFace) Solver() *SolverFace { return sf }

func (sf *SolverFace) Adaptive() *AdaptiveFaceState { return sf.Adapt }

func (sf *SolverFace) Leaf() bool { return sf.Adapt.Leaf() }

func (sf *SolverFace) NNodes() int { return sf.Cub.Len() }

func AsSolverFace(r FaceRecord) *SolverFace {
	if sc, ok := r.(FaceSolverCapable); ok {
		return sc.Solver()
	}
	return nil
}

type faceGeometry struct {
	pRef       int
	cubType    types.GeomKind
	cub        *operators.Cubature
	xyz        [][]float64
	n, detJ    []float64
	interp     [2]utils.Matrix
	testInterp [2]utils.Matrix
}

// RebuildGeometry recomputes the cached geometry from the current neighbours.
func (sf *SolverFace) RebuildGeometry(sim *simulation.Simulation, volumes func(h mesh.Handle) *SolverVolume) (err error) {
	var (
		sides = 2
		sv    [2]*SolverVolume
		fg    faceGeometry
		order int
	)
	if sf.Boundary() {
		sides = 1
	}
	fg.cubType = types.Straight
	if sf.Curved {
		fg.cubType = types.Curved
	}
	for s := 0; s < sides; s++ {
		if sv[s] = volumes(sf.Neigh[s].Volume); sv[s] == nil {
			return types.NewStructuralError("face %d side %d refers to dead volume %d", sf.Handle, s,
				sf.Neigh[s].Volume)
		}
		fg.pRef = max(fg.pRef, sv[s].PRef)
		order = max(order, sv[s].PTest)
		if sv[s].Curved {
			fg.cubType = types.Curved
		}
	}
	if fg.cub, err = sim.Catalog.Face(sf.Type, order, sim.CubKind, fg.cubType); err != nil {
		return
	}
	var (
		nq     = fg.cub.Len()
		d      = sim.Dim
		inside = sv[0].Centroid()
	)
	fg.xyz = make([][]float64, nq)
	fg.n = make([]float64, nq*d)
	fg.detJ = make([]float64, nq)
	for q, xi := range fg.cub.Points {
		x, n, detJ := geometry.FacePoint(sf.Corners, xi, inside)
		fg.xyz[q], fg.detJ[q] = x, detJ
		copy(fg.n[q*d:], n)
	}
	for s := 0; s < sides; s++ {
		r := make([][]float64, nq)
		for q, x := range fg.xyz {
			if r[q], err = sv[s].Topo.InverseMap(sv[s].XyzVe, x); err != nil {
				return fmt.Errorf("face %d side %d: %w", sf.Handle, s, err)
			}
		}
		fg.interp[s] = sv[s].Ops.Trial.Interpolation(r)
		fg.testInterp[s] = sv[s].Ops.Test.Interpolation(r)
	}
	sf.PRef, sf.CubType, sf.Cub = fg.pRef, fg.cubType, fg.cub
	sf.Xyz, sf.N, sf.DetJ = fg.xyz, fg.n, fg.detJ
	sf.Interp, sf.TestInterp = fg.interp, fg.testInterp
	return
}

// release drops the cached geometry.
func (sf *SolverFace) release() {
	sf.Cub, sf.Xyz, sf.N, sf.DetJ = nil, nil, nil, nil
	sf.Interp, sf.TestInterp = [2]utils.Matrix{}, [2]utils.Matrix{}
}
