package elements

import (
	"math"

	"github.com/notargets/godpg/geometry"
	"github.com/notargets/godpg/mesh"
	"github.com/notargets/godpg/operators"
	"github.com/notargets/godpg/simulation"
	"github.com/notargets/godpg/types"
	"github.com/notargets/godpg/utils"
)

// VolumeRecord is any volume specialization, reached through its base record.
type VolumeRecord interface {
	Base() *Volume
	Link() *Link[VolumeRecord]
}

// Capabilities of the volume specializations, checked by type assertion.
type (
	SolverCapable interface {
		Solver() *SolverVolume
	}
	DPGCapable interface {
		DPG() *DPGSolverVolume
	}
	DGCapable interface {
		DG() *DGSolverVolume
	}
)

// Volume is the base record of a mesh cell.
type Volume struct {
	Handle   mesh.Handle
	Index    int // mesh volume index, inherited by refined children
	Type     types.ElementType
	Topo     *geometry.Topology
	XyzVe    [][]float64
	Boundary bool
	Curved   bool
	BCTags   []string // per local face, empty for interior faces
	// Faces lists the leaf faces lying on each local face; several when the neighbour is finer.
	Faces [][]mesh.Handle
	link  Link[VolumeRecord]
}

func (v *Volume) Base() *Volume             { return v }
func (v *Volume) Link() *Link[VolumeRecord] { return &v.link }

func (v *Volume) Centroid() []float64 { return geometry.Centroid(v.XyzVe) }

// FaceCorners returns the physical vertices of local face lf.
func (v *Volume) FaceCorners(lf int) (pts [][]float64) {
	for _, lv := range v.Topo.FaceVertices[lf] {
		pts = append(pts, v.XyzVe[lv])
	}
	return
}

func (v *Volume) AttachFace(lf int, fh mesh.Handle) {
	v.Faces[lf] = append(v.Faces[lf], fh)
}

func (v *Volume) DetachFace(lf int, fh mesh.Handle) {
	list := v.Faces[lf]
	for i, h := range list {
		if h == fh {
			v.Faces[lf] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// AdaptiveState is attached on the first adaptation pass. Parent and Child0 are non-owning handles.
type AdaptiveState struct {
	AdaptType     types.AdaptType
	PRefPrev      int
	IndH          int // refinement level
	Updated       bool
	UpdatedGeomNC bool
	Child0        mesh.Handle
	NChildren     int
	Parent        mesh.Handle
}

func NewAdaptiveState(p int) *AdaptiveState {
	return &AdaptiveState{PRefPrev: p, Child0: mesh.NoHandle, Parent: mesh.NoHandle}
}

func (as *AdaptiveState) Leaf() bool { return as == nil || !as.Child0.Valid() }

// SolverVolume adds the solution and the geometry at the volume cubature nodes.
type SolverVolume struct {
	Volume
	PRef, PTest int
	Kind        types.CubatureKind
	Geom        types.GeomKind
	Ops         *operators.VolumeOperators
	SolCoef     []float64     // nodal, [var*Np + i]
	Xyz         [][]float64   // xyz_vc
	Metrics     [][][]float64 // metrics_vc: Metrics[q][k][j] = dr_k/dx_j
	DetJ        []float64     // jacobian_det_vc
	RHS         []float64     // [eq*NpTest + j]
	Adapt       *AdaptiveState
}

func (sv *SolverVolume) Solver() *SolverVolume { return sv }

// Adaptive returns the adaptive state, nil before the first adaptation pass.
func (sv *SolverVolume) Adaptive() *AdaptiveState { return sv.Adapt }

func (sv *SolverVolume) Np() int { return sv.Ops.Trial.Np }

func (sv *SolverVolume) NpTest() int { return sv.Ops.Test.Np }

// Leaf reports whether the volume takes part in assembly.
func (sv *SolverVolume) Leaf() bool { return sv.Adapt.Leaf() }

// DGSolverVolume keeps the diagonal block of the Jacobian, [row*(nvar*Np) + col].
type DGSolverVolume struct {
	SolverVolume
	LHS []float64
}

func (dv *DGSolverVolume) DG() *DGSolverVolume { return dv }

// DPGSolverVolume carries the test-space data of the normal equations. MInv is empty until InverseGram runs.
type DPGSolverVolume struct {
	SolverVolume
	MInv                utils.Matrix
	TestNorm            types.TestNorm
	EnforceConservation bool
}

func (dv *DPGSolverVolume) DPG() *DPGSolverVolume { return dv }

// InverseGram returns the inverse Gram matrix of the test norm for one variable, building it on first use.
func (dv *DPGSolverVolume) InverseGram() (MInv utils.Matrix, err error) {
	if !dv.MInv.IsEmpty() {
		return dv.MInv, nil
	}
	npt := dv.NpTest()
	if dv.TestNorm == types.TestNormNone {
		MInv = utils.NewIdentity(npt)
	} else {
		var (
			G  = utils.NewMatrix(npt, npt)
			TI = dv.Ops.TestI
		)
		for q, w := range dv.Ops.Cub.Weights {
			wJ := w * dv.DetJ[q]
			for i := 0; i < npt; i++ {
				phi := TI.At(q, i) * wJ
				for j := 0; j < npt; j++ {
					G.M.Set(i, j, G.At(i, j)+phi*TI.At(q, j))
				}
			}
		}
		if MInv, err = G.Inverse(); err != nil {
			return MInv, types.NewNumericalDomainError("singular test Gram matrix on volume %d: %v", dv.Handle, err)
		}
	}
	MInv.SetReadOnly("MInv")
	dv.MInv = MInv
	return
}

// AsSolver returns the solver capability of r, or nil.
func AsSolver(r VolumeRecord) *SolverVolume {
	if sc, ok := r.(SolverCapable); ok {
		return sc.Solver()
	}
	return nil
}

func AsDPG(r VolumeRecord) *DPGSolverVolume {
	if dc, ok := r.(DPGCapable); ok {
		return dc.DPG()
	}
	return nil
}

func AsDG(r VolumeRecord) *DGSolverVolume {
	if dc, ok := r.(DGCapable); ok {
		return dc.DG()
	}
	return nil
}

func newVolumeRecord(sim *simulation.Simulation, base Volume, p int) (r VolumeRecord, err error) {
	sv := SolverVolume{Volume: base, Kind: sim.CubKind}
	switch sim.Scheme {
	case types.DPG:
		dv := &DPGSolverVolume{
			SolverVolume:        sv,
			TestNorm:            sim.TestNorm,
			EnforceConservation: sim.Params.EnforceConservation,
		}
		r = dv
	default:
		r = &DGSolverVolume{SolverVolume: sv}
	}
	if err = SetOrder(sim, r, p); err != nil {
		return nil, err
	}
	return
}

/*
SetOrder rebuilds the operators, the geometry and the buffers of r for order p. The new set replaces the old
one in a single step; the solution coefficients are left to the caller and reset to zero when the size changes.
*/
func SetOrder(sim *simulation.Simulation, r VolumeRecord, p int) (err error) {
	sv := AsSolver(r)
	var (
		pTest = p
		geom  = types.Straight
		ops   *operators.VolumeOperators
	)
	if sim.Scheme == types.DPG {
		pTest = p + sim.DeltaPTest
	}
	if sv.Curved {
		geom = types.Curved
	}
	if ops, err = sim.Catalog.Volume(sv.Type, p, pTest, sv.Kind, geom); err != nil {
		return
	}
	xyz, metrics, detJ := volumeGeometry(sv.Topo, sv.XyzVe, ops.Cub)
	var (
		nvar = sim.NVar
		coef = sv.SolCoef
	)
	if len(coef) != nvar*ops.Trial.Np {
		coef = make([]float64, nvar*ops.Trial.Np)
	}
	*sv = SolverVolume{
		Volume:  sv.Volume,
		PRef:    p,
		PTest:   pTest,
		Kind:    sv.Kind,
		Geom:    geom,
		Ops:     ops,
		SolCoef: coef,
		Xyz:     xyz,
		Metrics: metrics,
		DetJ:    detJ,
		RHS:     make([]float64, nvar*ops.Test.Np),
		Adapt:   sv.Adapt,
	}
	if dv := AsDPG(r); dv != nil {
		dv.MInv = utils.Matrix{}
	}
	if dg := AsDG(r); dg != nil {
		n := nvar * ops.Trial.Np
		dg.LHS = make([]float64, n*n)
	}
	return
}

func volumeGeometry(tp *geometry.Topology, xyzVe [][]float64, cub *operators.Cubature) (xyz [][]float64,
	metrics [][][]float64, detJ []float64) {
	nq := cub.Len()
	xyz = make([][]float64, nq)
	metrics = make([][][]float64, nq)
	detJ = make([]float64, nq)
	for q, r := range cub.Points {
		xyz[q] = tp.Map(xyzVe, r)
		var det float64
		metrics[q], det = geometry.InvertSmall(tp.Jacobian(xyzVe, r))
		detJ[q] = math.Abs(det)
	}
	return
}

// NodeXyz returns the physical coordinates of the solution nodes.
func (sv *SolverVolume) NodeXyz() (x [][]float64) {
	for _, r := range sv.Ops.Trial.Nodes {
		x = append(x, sv.Topo.Map(sv.XyzVe, r))
	}
	return
}

// SetState sets the nodal solution from a pointwise state function.
func (sv *SolverVolume) SetState(state func(x []float64) []float64) {
	np := sv.Np()
	for i, x := range sv.NodeXyz() {
		for v, val := range state(x) {
			sv.SolCoef[v*np+i] = val
		}
	}
}

// Evaluate interpolates variable v of the solution to reference points r.
func (sv *SolverVolume) Evaluate(v int, r [][]float64) []float64 {
	np := sv.Np()
	return sv.Ops.Trial.Interpolation(r).MulVec(sv.SolCoef[v*np : (v+1)*np])
}
