package solver

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/godpg/InputParameters"
	"github.com/notargets/godpg/elements"
	"github.com/notargets/godpg/mesh"
	"github.com/notargets/godpg/simulation"
	"github.com/notargets/godpg/types"
)

func newAssembler(t *testing.T, params string, data *mesh.Data) *Assembler {
	ip := &InputParameters.Parameters{}
	require.NoError(t, ip.Parse([]byte(params)))
	sim, err := simulation.New(ip, &mesh.Input{Data: data}, simulation.Quiet())
	require.NoError(t, err)
	c, err := elements.NewContainers(sim)
	require.NoError(t, err)
	return NewAssembler(sim, c)
}

func maxAbs(x []float64) (m float64) {
	for _, v := range x {
		m = math.Max(m, math.Abs(v))
	}
	return
}

const eulerFree = `
PDE: euler
FluxType: %s
PolynomialOrder: %d
Collocated: %v
Minf: 0.5
Alpha: 10
BCs:
  left: {Type: riemann}
  right: {Type: riemann}
  bottom: {Type: riemann}
  top: {Type: riemann}
  front: {Type: supersonic_inflow}
  back: {Type: supersonic_inflow}
`

func params(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}

func TestFreestreamPreservation(t *testing.T) {
	tests := []struct {
		name       string
		flux       string
		p          int
		collocated bool
		data       *mesh.Data
	}{
		{"line", "lax_friedrichs", 3, false, mesh.GenerateLine(4, 0, 1)},
		{"quads", "lax_friedrichs", 2, false, mesh.GenerateRectangle(3, 2, 0, 1.5, 0, 1, types.Quad)},
		{"quads collocated", "roe", 2, true, mesh.GenerateRectangle(2, 2, 0, 1, 0, 1, types.Quad)},
		{"tris", "roe", 2, false, mesh.GenerateRectangle(2, 2, 0, 1, -1, 0, types.Triangle)},
		{"hexes", "lax_friedrichs", 1, false, mesh.GenerateBox(1, 1, 2, []float64{0, 0, 0}, []float64{1, 1, 2})},
	}
	for _, tt := range tests {
		asm := newAssembler(t, params(eulerFree, tt.flux, tt.p, tt.collocated), tt.data)
		sys, err := asm.Assemble(false)
		require.NoError(t, err, tt.name)
		assert.Nil(t, sys.LHS, tt.name)
		assert.Less(t, maxAbs(sys.RHS), 1.e-11, tt.name)
		assert.Equal(t, sys.NTrial, sys.NTest, tt.name)
	}
}

const eulerSine = `
PDE: euler
FluxType: %s
InitType: sine
PolynomialOrder: 2
Minf: 0.3
Alpha: 5
ParallelDegree: %d
Partitioner: %s
BCs:
  left: {Type: riemann}
  right: {Type: back_pressure, Params: {p_back: 0.7}}
  bottom: {Type: slipwall}
  top: {Type: slipwall}
`

func TestJacobianComplexStep(t *testing.T) {
	tests := []struct {
		name   string
		params string
		data   *mesh.Data
	}{
		{"euler lf quads", params(eulerSine, "lax_friedrichs", 1, "contiguous"),
			mesh.GenerateRectangle(2, 2, 0, 1, 0, 1, types.Quad)},
		{"euler roe tris", params(eulerSine, "roe", 2, "contiguous"),
			mesh.GenerateRectangle(2, 1, 0, 1, 0, 1, types.Triangle)},
		{"euler lf quads at rest", `
PDE: euler
FluxType: lax_friedrichs
InitType: sine
PolynomialOrder: 2
Minf: 0
BCs:
  left: {Type: supersonic_inflow}
  right: {Type: supersonic_inflow}
  bottom: {Type: supersonic_inflow}
  top: {Type: supersonic_inflow}
`, mesh.GenerateRectangle(2, 2, 0, 1, 0, 1, types.Quad)},
		{"advection upwind line", `
PDE: advection
FluxType: upwind
InitType: sine
PolynomialOrder: 3
AdvectionVelocity: [1.5]
BCs:
  left: {Type: inflow, Params: {value: 0.5}}
  right: {Type: outflow}
`, mesh.GenerateLine(5, -1, 1)},
		{"burgers lf tris", `
PDE: burgers
InitType: sine
PolynomialOrder: 2
BCs: {left: {Type: inflow}, right: {Type: outflow}, bottom: {Type: outflow}, top: {Type: inflow}}
`, mesh.GenerateRectangle(2, 2, 0, 1, 0, 1, types.Triangle)},
	}
	for _, tt := range tests {
		asm := newAssembler(t, tt.params, tt.data)
		jc, err := asm.CheckJacobian(7)
		require.NoError(t, err, tt.name)
		assert.Less(t, jc.RelErr, 1.e-8, tt.name)
		assert.Less(t, jc.RealErr, 1.e-10, tt.name)
		assert.Greater(t, jc.Norm, 0., tt.name)
	}
}

func TestLocalBuffers(t *testing.T) {
	asm := newAssembler(t, params(eulerSine, "lax_friedrichs", 1, "contiguous"),
		mesh.GenerateRectangle(2, 2, 0, 1, 0, 1, types.Quad))
	sys, err := asm.Assemble(true)
	require.NoError(t, err)
	nvar := asm.Sim.NVar
	for _, sv := range asm.ActiveVolumes() {
		off := sys.TestOffset[sv.Handle]
		assert.InDeltaSlice(t, sys.RHS[off:off+len(sv.RHS)], sv.RHS, 1.e-15)
		dg := elements.AsDG(asm.C.Volumes.Get(sv.Handle))
		require.NotNil(t, dg)
		n := nvar * sv.Np()
		for r := 0; r < n; r++ {
			for c := 0; c < n; c++ {
				assert.InDelta(t, sys.LHS.At(off+r, off+c), dg.LHS[r*n+c], 1.e-14)
			}
		}
	}
	// Coupling blocks between neighbours are populated, blocks between distant volumes are not
	v0, v3 := asm.ActiveVolumes()[0], asm.ActiveVolumes()[3]
	var coupled, distant float64
	for r := 0; r < nvar*v0.Np(); r++ {
		for c := 0; c < nvar*v0.Np(); c++ {
			coupled += math.Abs(sys.LHS.At(sys.TestOffset[v0.Handle]+r, sys.TrialOffset[asm.ActiveVolumes()[1].Handle]+c))
			distant += math.Abs(sys.LHS.At(sys.TestOffset[v0.Handle]+r, sys.TrialOffset[v3.Handle]+c))
		}
	}
	assert.Greater(t, coupled, 0.)
	assert.Equal(t, 0., distant)
	assert.Equal(t, 1., testutil.ToFloat64(asm.Sim.Metrics.AssemblyPasses))
	assert.Equal(t, 4., testutil.ToFloat64(asm.Sim.Metrics.VolumesAssembled))
}

func TestParallelMatchesSerial(t *testing.T) {
	data := func() *mesh.Data { return mesh.GenerateRectangle(4, 4, 0, 1, 0, 1, types.Quad) }
	serial := newAssembler(t, params(eulerSine, "roe", 1, "contiguous"), data())
	s1, err := serial.Assemble(true)
	require.NoError(t, err)
	for _, partitioner := range []string{"contiguous", "metis"} {
		par := newAssembler(t, params(eulerSine, "roe", 3, partitioner), data())
		s2, err := par.Assemble(true)
		require.NoError(t, err, partitioner)
		assert.Equal(t, s1.RHS, s2.RHS, partitioner)
		assert.Equal(t, s1.LHS.ToDense().Data(), s2.LHS.ToDense().Data(), partitioner)
	}
}

func TestCheckStates(t *testing.T) {
	asm := newAssembler(t, `
PDE: euler
PolynomialOrder: 1
Minf: 0.5
CheckStates: true
BCs: {left: {Type: riemann}, right: {Type: riemann}}
`, mesh.GenerateLine(3, 0, 1))
	_, err := asm.Assemble(false)
	require.NoError(t, err)
	asm.C.Volume(1).SolCoef[0] = -1
	_, err = asm.Assemble(false)
	assert.True(t, errors.Is(err, types.ErrNumericalDomain))
}

func TestMissingBoundaryCondition(t *testing.T) {
	ip := &InputParameters.Parameters{}
	require.NoError(t, ip.Parse([]byte("PDE: euler\nPolynomialOrder: 1\nBCs: {left: {Type: riemann}}\n")))
	_, err := simulation.New(ip, &mesh.Input{Data: mesh.GenerateLine(3, 0, 1)}, simulation.Quiet())
	assert.True(t, errors.Is(err, types.ErrConfiguration))
}

const dpgAdvection = `
PDE: advection
Scheme: dpg
FluxType: upwind
InitType: %s
PolynomialOrder: 2
DeltaPTest: 1
TestNorm: %s
EnforceConservation: %v
AdvectionVelocity: [1, 0.5]
BCs:
  left: {Type: inflow}
  bottom: {Type: inflow}
  right: {Type: outflow}
  top: {Type: outflow}
`

func TestDPGNormalEquations(t *testing.T) {
	tests := []struct {
		name      string
		init      string
		norm      string
		conserve  bool
		extraRows int
	}{
		{"l2", "freestream", "l2", false, 0},
		{"none", "sine", "none", false, 0},
		{"l2 conservative", "sine", "l2", true, 4},
	}
	for _, tt := range tests {
		asm := newAssembler(t, params(dpgAdvection, tt.init, tt.norm, tt.conserve),
			mesh.GenerateRectangle(2, 2, 0, 1, 0, 1, types.Quad))
		B, err := asm.Assemble(true)
		require.NoError(t, err, tt.name)
		assert.Greater(t, B.NTest, B.NTrial, tt.name)
		for _, sv := range asm.ActiveVolumes() {
			dv := elements.AsDPG(asm.C.Volumes.Get(sv.Handle))
			require.NotNil(t, dv, tt.name)
			assert.True(t, dv.MInv.IsEmpty(), tt.name)
		}

		sys, err := asm.AssembleDPG()
		require.NoError(t, err, tt.name)
		n := B.NTrial + tt.extraRows
		assert.Equal(t, n, sys.NTrial, tt.name)
		assert.Equal(t, n, len(sys.RHS), tt.name)
		A := sys.LHS.ToDense()
		for i := 0; i < n; i++ {
			for j := 0; j < i; j++ {
				assert.InDelta(t, A.At(i, j), A.At(j, i), 1.e-12, tt.name)
			}
		}
		for i := 0; i < B.NTrial; i++ {
			assert.Greater(t, A.At(i, i), 0., tt.name)
		}
		if tt.init == "freestream" {
			assert.Less(t, maxAbs(sys.RHS), 1.e-12, tt.name)
		}
		for _, sv := range asm.ActiveVolumes() {
			dv := elements.AsDPG(asm.C.Volumes.Get(sv.Handle))
			assert.False(t, dv.MInv.IsEmpty(), tt.name)
		}
	}
}

func TestDPGRequiresScheme(t *testing.T) {
	asm := newAssembler(t, params(eulerSine, "lax_friedrichs", 1, "contiguous"),
		mesh.GenerateRectangle(1, 1, 0, 1, 0, 1, types.Quad))
	_, err := asm.AssembleDPG()
	assert.True(t, errors.Is(err, types.ErrConfiguration))
}
