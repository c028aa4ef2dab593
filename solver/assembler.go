package solver

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/notargets/godpg/elements"
	"github.com/notargets/godpg/flux"
	"github.com/notargets/godpg/mesh"
	"github.com/notargets/godpg/simulation"
	"github.com/notargets/godpg/utils"
)

// System is an assembled residual and its linearization, LHS = ∂RHS/∂SolCoef. Rows follow the test space.
type System struct {
	RHS           []float64
	LHS           *utils.CSR
	NTrial, NTest int
	TrialOffset   map[mesh.Handle]int
	TestOffset    map[mesh.Handle]int
}

/*
Assembler computes volume and face contributions over the active lists. Contributions are computed in parallel
buckets into slots owned by one task each, then added into the global system sequentially in list order.
*/
type Assembler struct {
	Sim *simulation.Simulation
	C   *elements.Containers

	volumes     []*elements.SolverVolume
	faces       []*elements.SolverFace
	pos         map[mesh.Handle]int
	trialOffset []int
	testOffset  []int
	nTrial      int
	nTest       int
	volBuckets  [][]int
	faceBuckets [][]int
}

func NewAssembler(sim *simulation.Simulation, c *elements.Containers) *Assembler {
	return &Assembler{Sim: sim, C: c}
}

// prepare services pending geometry updates, numbers the degrees of freedom and partitions the work.
func (asm *Assembler) prepare() (err error) {
	if _, err = asm.C.ServiceGeometry(); err != nil {
		return
	}
	var (
		nvar = asm.Sim.NVar
	)
	asm.volumes = asm.volumes[:0]
	asm.faces = asm.faces[:0]
	asm.C.ActiveVolumes.Each(func(r elements.VolumeRecord) bool {
		asm.volumes = append(asm.volumes, elements.AsSolver(r))
		return true
	})
	asm.C.ActiveFaces.Each(func(r elements.FaceRecord) bool {
		asm.faces = append(asm.faces, elements.AsSolverFace(r))
		return true
	})
	nv := len(asm.volumes)
	asm.pos = make(map[mesh.Handle]int, nv)
	asm.trialOffset = make([]int, nv)
	asm.testOffset = make([]int, nv)
	asm.nTrial, asm.nTest = 0, 0
	for i, sv := range asm.volumes {
		asm.pos[sv.Handle] = i
		asm.trialOffset[i], asm.testOffset[i] = asm.nTrial, asm.nTest
		asm.nTrial += nvar * sv.Np()
		asm.nTest += nvar * sv.NpTest()
	}
	if err = asm.partition(); err != nil {
		return
	}
	if asm.Sim.Params.CheckStates {
		return asm.checkStates()
	}
	return
}

func (asm *Assembler) partition() (err error) {
	var (
		nv     = len(asm.volumes)
		nparts = max(1, asm.Sim.Params.ParallelDegree)
		nvar   = asm.Sim.NVar
		part   []int
	)
	if nparts > 1 && strings.ToLower(asm.Sim.Params.Partitioner) == "metis" {
		g := mesh.NewDualGraph(nv, func(v int) (nbrs []int, faceDOFs []int32) {
			sv := asm.volumes[v]
			for _, list := range sv.Faces {
				for _, fh := range list {
					sf := asm.C.Face(fh)
					other := sf.Neigh[1-sf.Side(sv.Handle)].Volume
					if !other.Valid() {
						continue
					}
					nbrs = append(nbrs, asm.pos[other])
					faceDOFs = append(faceDOFs, int32(nvar*sf.NNodes()))
				}
			}
			return
		}, func(v int) int32 {
			return int32(nvar * asm.volumes[v].Np())
		})
		if part, err = mesh.Partition(g, mesh.DefaultPartitionConfig(int32(nparts)), asm.Sim.Logger); err != nil {
			return
		}
	} else {
		part = mesh.ContiguousPartition(nv, nparts)
	}
	asm.volBuckets = mesh.Buckets(part, nparts)
	asm.faceBuckets = make([][]int, len(asm.volBuckets))
	for i, sf := range asm.faces {
		b := part[asm.pos[sf.Neigh[0].Volume]]
		asm.faceBuckets[b] = append(asm.faceBuckets[b], i)
	}
	return
}

func (asm *Assembler) checkStates() error {
	k, err := simulation.NewKernels[float64](asm.Sim)
	if err != nil {
		return err
	}
	for _, sv := range asm.volumes {
		if err = flux.CheckStates(k.Phys, &flux.Input[float64]{N: sv.Np(), W: sv.SolCoef}); err != nil {
			return fmt.Errorf("volume %d: %w", sv.Handle, err)
		}
	}
	return nil
}

func (asm *Assembler) sides(sf *elements.SolverFace) (sv [2]*elements.SolverVolume, pos [2]int) {
	pos = [2]int{-1, -1}
	for s := 0; s < 2; s++ {
		if h := sf.Neigh[s].Volume; h.Valid() {
			pos[s] = asm.pos[h]
			sv[s] = asm.volumes[pos[s]]
		}
	}
	return
}

// compute runs the kernels bucket by bucket. Every slot of vols and faces has exactly one writer.
func compute[T flux.Scalar](asm *Assembler, k *simulation.Kernels[T], coef func(i int) []T,
	withLHS bool) (vols []volumeContribution[T], faces []faceContribution[T], err error) {
	vols = make([]volumeContribution[T], len(asm.volumes))
	faces = make([]faceContribution[T], len(asm.faces))
	var g errgroup.Group
	for b := range asm.volBuckets {
		g.Go(func() error {
			for _, i := range asm.volBuckets[b] {
				vols[i] = volumeTerm(k, asm.volumes[i], coef(i), withLHS)
			}
			for _, i := range asm.faceBuckets[b] {
				var (
					sf      = asm.faces[i]
					sv, pos = asm.sides(sf)
					cf      [2][]T
					ferr    error
				)
				for s := 0; s < 2; s++ {
					if pos[s] >= 0 {
						cf[s] = coef(pos[s])
					}
				}
				if faces[i], ferr = faceTerm(k, sf, sv, cf, withLHS); ferr != nil {
					return ferr
				}
			}
			return nil
		})
	}
	err = g.Wait()
	return
}

// accumulate adds the contributions into a global residual in list order.
func accumulate[T flux.Scalar](asm *Assembler, vols []volumeContribution[T], faces []faceContribution[T]) (rhs []T) {
	rhs = make([]T, asm.nTest)
	for i, vc := range vols {
		off := asm.testOffset[i]
		for k, val := range vc.rhs {
			rhs[off+k] += val
		}
	}
	for i, fc := range faces {
		_, pos := asm.sides(asm.faces[i])
		for s := 0; s < 2; s++ {
			if pos[s] < 0 {
				continue
			}
			off := asm.testOffset[pos[s]]
			for k, val := range fc.rhs[s] {
				rhs[off+k] += val
			}
		}
	}
	return
}

// Assemble evaluates the residual of the stored solution and, with withLHS, its Jacobian.
func (asm *Assembler) Assemble(withLHS bool) (sys *System, err error) {
	asm.C.Mu.Lock()
	defer asm.C.Mu.Unlock()
	timer := prometheus.NewTimer(asm.Sim.Metrics.AssemblyDuration)
	defer timer.ObserveDuration()

	if err = asm.prepare(); err != nil {
		return
	}
	var k *simulation.Kernels[float64]
	if k, err = simulation.NewKernels[float64](asm.Sim); err != nil {
		return
	}
	vols, faces, err := compute(asm, k, func(i int) []float64 { return asm.volumes[i].SolCoef }, withLHS)
	if err != nil {
		return nil, err
	}
	sys = asm.newSystem()
	sys.RHS = accumulate(asm, vols, faces)
	for i, sv := range asm.volumes {
		off := asm.testOffset[i]
		copy(sv.RHS, sys.RHS[off:off+len(sv.RHS)])
	}
	if withLHS {
		sys.LHS = asm.accumulateLHS(vols, faces)
	}
	asm.Sim.Metrics.AssemblyPasses.Inc()
	asm.Sim.Metrics.VolumesAssembled.Add(float64(len(vols)))
	asm.Sim.Metrics.FacesAssembled.Add(float64(len(faces)))
	asm.Sim.Logger.Printf("run %s: assembled %d volumes, %d faces, %d x %d dofs", asm.Sim.RunID,
		len(vols), len(faces), sys.NTest, sys.NTrial)
	return
}

func (asm *Assembler) newSystem() (sys *System) {
	sys = &System{
		NTrial:      asm.nTrial,
		NTest:       asm.nTest,
		TrialOffset: make(map[mesh.Handle]int, len(asm.volumes)),
		TestOffset:  make(map[mesh.Handle]int, len(asm.volumes)),
	}
	for i, sv := range asm.volumes {
		sys.TrialOffset[sv.Handle] = asm.trialOffset[i]
		sys.TestOffset[sv.Handle] = asm.testOffset[i]
	}
	return
}

// accumulateLHS adds every block into a DOK in list order and freezes it. DG volumes also keep their
// diagonal block.
func (asm *Assembler) accumulateLHS(vols []volumeContribution[float64], faces []faceContribution[float64]) *utils.CSR {
	var (
		nvar = asm.Sim.NVar
		A    = utils.NewDOK(asm.nTest, asm.nTrial)
	)
	addDiag := func(i int, blk []float64) {
		if dg := elements.AsDG(asm.C.Volumes.Get(asm.volumes[i].Handle)); dg != nil {
			for k, val := range blk {
				dg.LHS[k] += val
			}
		}
	}
	for i, vc := range vols {
		sv := asm.volumes[i]
		if dg := elements.AsDG(asm.C.Volumes.Get(sv.Handle)); dg != nil {
			clear(dg.LHS)
		}
		A.AddBlock(asm.testOffset[i], asm.trialOffset[i], nvar*sv.NpTest(), nvar*sv.Np(), vc.lhs)
		addDiag(i, vc.lhs)
	}
	for i, fc := range faces {
		sv, pos := asm.sides(asm.faces[i])
		for a := 0; a < 2; a++ {
			for b := 0; b < 2; b++ {
				if pos[a] < 0 || pos[b] < 0 {
					continue
				}
				A.AddBlock(asm.testOffset[pos[a]], asm.trialOffset[pos[b]], nvar*sv[a].NpTest(), nvar*sv[b].Np(),
					fc.lhs[a][b])
				if a == b {
					addDiag(pos[a], fc.lhs[a][b])
				}
			}
		}
	}
	csr := A.ToCSR()
	csr.SetReadOnly("LHS")
	return &csr
}

// AssembleRHS evaluates the residual of the coefficients coef(i) of the i-th active volume over any scalar field.
func AssembleRHS[T flux.Scalar](asm *Assembler, coef func(i int) []T) (rhs []T, err error) {
	asm.C.Mu.Lock()
	defer asm.C.Mu.Unlock()
	if err = asm.prepare(); err != nil {
		return
	}
	var k *simulation.Kernels[T]
	if k, err = simulation.NewKernels[T](asm.Sim); err != nil {
		return
	}
	vols, faces, err := compute(asm, k, coef, false)
	if err != nil {
		return nil, err
	}
	return accumulate(asm, vols, faces), nil
}

// ActiveVolumes returns the volumes of the last pass in DOF order.
func (asm *Assembler) ActiveVolumes() []*elements.SolverVolume { return asm.volumes }
