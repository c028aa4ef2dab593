package adaptation

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
	"github.com/notargets/godpg/solver"
	"github.com/notargets/godpg/types"
)

func setup(t *testing.T, params string, data *mesh.Data) (*Driver, *solver.Assembler) {
	ip := &InputParameters.Parameters{}
	require.NoError(t, ip.Parse([]byte(params)))
	sim, err := simulation.New(ip, &mesh.Input{Data: data}, simulation.Quiet())
	require.NoError(t, err)
	c, err := elements.NewContainers(sim)
	require.NoError(t, err)
	return NewDriver(sim, c), solver.NewAssembler(sim, c)
}

const euler = `
PDE: euler
FluxType: roe
InitType: %s
PolynomialOrder: 2
PRefMax: 3
Minf: 0.4
Alpha: 15
BCs:
  left: {Type: riemann}
  right: {Type: riemann}
  bottom: {Type: riemann}
  top: {Type: riemann}
  front: {Type: riemann}
  back: {Type: riemann}
`

func eulerParams(init string) string {
	return fmt.Sprintf(euler, init)
}

func maxAbs(x []float64) (m float64) {
	for _, v := range x {
		m = math.Max(m, math.Abs(v))
	}
	return
}

func activeHandles(c *elements.Containers) (hs []mesh.Handle) {
	c.ActiveVolumes.Each(func(r elements.VolumeRecord) bool {
		hs = append(hs, r.Base().Handle)
		return true
	})
	return
}

func TestSplitMergeRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		data   *mesh.Data
		sample [][]float64
	}{
		{"line", mesh.GenerateLine(3, 0, 1), [][]float64{{-0.5}, {0.1}, {0.7}}},
		{"quad", mesh.GenerateRectangle(2, 2, 0, 1, 0, 1, types.Quad),
			[][]float64{{-0.5, -0.5}, {-0.2, 0.1}, {0.3, -0.6}}},
		{"tri", mesh.GenerateRectangle(2, 2, 0, 1, 0, 1, types.Triangle),
			[][]float64{{-0.5, -0.5}, {-0.2, 0.1}, {0.3, -0.6}}},
		{"hex", mesh.GenerateBox(2, 2, 1, []float64{0, 0, 0}, []float64{1, 1, 0.5}),
			[][]float64{{-0.5, -0.5, 0.2}, {0.1, -0.3, -0.6}, {0.3, 0.4, 0.5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, asm := setup(t, eulerParams("sine"), tt.data)
			c := d.C
			var (
				nv     = c.Volumes.Count()
				nf     = c.Faces.Count()
				coef   = append([]float64(nil), c.Volume(0).SolCoef...)
				before = c.Volume(0).Evaluate(0, tt.sample)
			)
			require.NoError(t, d.Split(0))
			require.NoError(t, c.CheckLinks())
			P := c.Volume(0)
			nc := len(P.Topo.Children)
			assert.False(t, P.Leaf())
			assert.Equal(t, nc, P.Adapt.NChildren)
			assert.Equal(t, nv-1+nc, c.ActiveVolumes.Len())
			for k := 0; k < nc; k++ {
				ch := c.Volume(P.Adapt.Child0 + mesh.Handle(k))
				assert.Equal(t, mesh.Handle(0), ch.Adapt.Parent)
				assert.Equal(t, 1, ch.Adapt.IndH)
				assert.False(t, ch.Adapt.Updated)
				// The child solution is the parent polynomial
				for _, x := range ch.NodeXyz() {
					r, err := P.Topo.InverseMap(P.XyzVe, x)
					require.NoError(t, err)
					assert.InDelta(t, P.Evaluate(0, [][]float64{r})[0], ch.Evaluate(0, [][]float64{
						mustInverse(t, ch, x)})[0], 1.e-12)
				}
			}

			// Nested refinement
			first := P.Adapt.Child0
			require.NoError(t, d.Split(first))
			require.NoError(t, c.CheckLinks())
			assert.Equal(t, nv-2+2*nc, c.ActiveVolumes.Len())
			jc, err := asm.CheckJacobian(3)
			require.NoError(t, err)
			assert.Less(t, jc.RelErr, 1.e-8)

			require.NoError(t, d.Merge(first))
			require.NoError(t, d.Merge(0))
			require.NoError(t, c.CheckLinks())
			assert.True(t, c.Volume(0).Leaf())
			assert.Equal(t, nv, c.Volumes.Count())
			assert.Equal(t, nf, c.Faces.Count())
			assert.Equal(t, nf, c.ActiveFaces.Len())
			assert.InDeltaSlice(t, coef, c.Volume(0).SolCoef, 1.e-11)
			assert.InDeltaSlice(t, before, c.Volume(0).Evaluate(0, tt.sample), 1.e-11)
		})
	}
}

func TestMergeKeepsParentOnFailedProjection(t *testing.T) {
	d, _ := setup(t, eulerParams("sine"), mesh.GenerateRectangle(2, 2, 0, 1, 0, 1, types.Quad))
	c := d.C
	require.NoError(t, d.Split(0))
	P := c.Volume(0)
	// A child at a higher order makes the merge raise the parent order
	require.NoError(t, d.RefineP(P.Adapt.Child0))
	var (
		pOld   = P.PRef
		coef   = append([]float64(nil), P.SolCoef...)
		nv     = c.Volumes.Count()
		nf     = c.Faces.Count()
		active = activeHandles(c)
	)
	defer func(orig func(*elements.SolverVolume, int, []piece) ([]float64, error)) { projectSolution = orig }(projectSolution)
	projectSolution = func(*elements.SolverVolume, int, []piece) ([]float64, error) {
		return nil, types.NewNumericalDomainError("singular mass matrix")
	}
	err := d.Merge(0)
	assert.True(t, errors.Is(err, types.ErrNumericalDomain))
	P = c.Volume(0)
	assert.Equal(t, pOld, P.PRef)
	assert.Equal(t, coef, P.SolCoef)
	assert.False(t, P.Leaf())
	assert.Equal(t, nv, c.Volumes.Count())
	assert.Equal(t, nf, c.Faces.Count())
	assert.Equal(t, active, activeHandles(c))
	require.NoError(t, c.CheckLinks())

	projectSolution = project
	require.NoError(t, d.Merge(0))
	assert.Equal(t, pOld+1, c.Volume(0).PRef)
}

func mustInverse(t *testing.T, sv *elements.SolverVolume, x []float64) []float64 {
	r, err := sv.Topo.InverseMap(sv.XyzVe, x)
	require.NoError(t, err)
	return r
}

func TestSplitFaces(t *testing.T) {
	d, _ := setup(t, eulerParams("freestream"), mesh.GenerateRectangle(2, 2, 0, 1, 0, 1, types.Quad))
	c := d.C
	require.NoError(t, d.Split(0))
	// Four faces between the children, and each of the four parent faces in two pieces
	assert.Equal(t, 12+4+8, c.Faces.Count())
	assert.Equal(t, 12-4+4+8, c.ActiveFaces.Len())
	var nonLeaf int
	c.Faces.Each(func(h mesh.Handle, r elements.FaceRecord) {
		f := elements.AsSolverFace(r)
		if f.Leaf() {
			assert.NotNil(t, f.Cub, "face %d", h)
			return
		}
		nonLeaf++
		assert.Equal(t, 2, f.Adapt.NChildren)
		for k := 0; k < 2; k++ {
			sub := c.Face(f.Adapt.Child0 + mesh.Handle(k))
			assert.Equal(t, h, sub.Adapt.Parent)
			assert.Equal(t, f.Tag, sub.Tag)
			assert.Equal(t, f.BC, sub.BC)
		}
	})
	assert.Equal(t, 4, nonLeaf)
	// The right neighbour sees the two pieces on its left face
	right := c.Volume(1)
	assert.Equal(t, 2, len(right.Faces[3]))
}

func TestNonConformingFreestream(t *testing.T) {
	for _, et := range []types.ElementType{types.Quad, types.Triangle} {
		d, asm := setup(t, eulerParams("freestream"), mesh.GenerateRectangle(3, 3, 0, 1, 0, 1, et))
		c := d.C
		require.NoError(t, d.Split(4))
		first := c.Volume(4).Adapt.Child0
		require.NoError(t, d.Split(first))
		require.NoError(t, d.Split(0))
		require.NoError(t, c.CheckLinks())

		sys, err := asm.Assemble(false)
		require.NoError(t, err)
		assert.Less(t, maxAbs(sys.RHS), 1.e-11)
	}
}

func TestNonConformingJacobian(t *testing.T) {
	d, asm := setup(t, eulerParams("sine"), mesh.GenerateRectangle(2, 2, 0, 1, 0, 1, types.Quad))
	require.NoError(t, d.Split(3))
	require.NoError(t, d.RefineP(1))
	jc, err := asm.CheckJacobian(3)
	require.NoError(t, err)
	assert.Less(t, jc.RelErr, 1.e-8)
}

func TestMergeRequiresLeafChildren(t *testing.T) {
	d, _ := setup(t, eulerParams("sine"), mesh.GenerateRectangle(2, 2, 0, 1, 0, 1, types.Quad))
	c := d.C
	require.NoError(t, d.Split(0))
	first := c.Volume(0).Adapt.Child0
	require.NoError(t, d.Split(first))
	var (
		nv     = c.Volumes.Count()
		nf     = c.Faces.Count()
		active = activeHandles(c)
	)
	err := d.Merge(0)
	assert.True(t, errors.Is(err, types.ErrStructural))
	assert.Equal(t, nv, c.Volumes.Count())
	assert.Equal(t, nf, c.Faces.Count())
	assert.Equal(t, active, activeHandles(c))
	require.NoError(t, c.CheckLinks())

	assert.True(t, errors.Is(d.Merge(1), types.ErrStructural))

	require.NoError(t, d.Merge(first))
	require.NoError(t, d.Merge(0))
	require.NoError(t, c.CheckLinks())
	assert.Equal(t, 4, c.Volumes.Count())
	assert.Equal(t, 12, c.Faces.Count())
	assert.Equal(t, 12, c.ActiveFaces.Len())
}

const advection = `
PDE: advection
FluxType: upwind
InitType: %s
PolynomialOrder: 2
PRefMin: 1
PRefMax: 3
AdvectionVelocity: [1, 0.5]
BCs: {left: {Type: inflow}, bottom: {Type: inflow}, right: {Type: outflow}, top: {Type: outflow}}
`

func TestPOrder(t *testing.T) {
	d, asm := setup(t, fmt.Sprintf(advection, "sine"), mesh.GenerateRectangle(2, 2, 0, 1, 0, 1, types.Quad))
	c := d.C
	var (
		sv     = c.Volume(0)
		coef   = append([]float64(nil), sv.SolCoef...)
		sample = [][]float64{{0.1, 0.2}, {-0.7, 0.4}}
		before = sv.Evaluate(0, sample)
	)
	require.NoError(t, d.RefineP(0))
	assert.Equal(t, 3, sv.PRef)
	assert.Equal(t, 2, sv.Adapt.PRefPrev)
	assert.Equal(t, 16, len(sv.SolCoef))
	assert.InDeltaSlice(t, before, sv.Evaluate(0, sample), 1.e-12)
	for _, list := range sv.Faces {
		for _, fh := range list {
			assert.Equal(t, 3, c.Face(fh).PRef)
		}
	}

	require.NoError(t, d.RefineP(0))
	assert.Equal(t, 3, sv.PRef)

	require.NoError(t, d.CoarsenP(0))
	assert.Equal(t, 2, sv.PRef)
	assert.InDeltaSlice(t, coef, sv.SolCoef, 1.e-11)

	require.NoError(t, d.CoarsenP(0))
	require.NoError(t, d.CoarsenP(0))
	assert.Equal(t, 1, sv.PRef)

	_, err := asm.Assemble(true)
	require.NoError(t, err)
	jc, err := asm.CheckJacobian(11)
	require.NoError(t, err)
	assert.Less(t, jc.RelErr, 1.e-8)
}

func TestMixedOrderFreestream(t *testing.T) {
	d, asm := setup(t, fmt.Sprintf(advection, "freestream"), mesh.GenerateRectangle(3, 2, 0, 1, 0, 1, types.Triangle))
	require.NoError(t, d.RefineP(0))
	require.NoError(t, d.CoarsenP(5))
	require.NoError(t, d.Split(2))
	sys, err := asm.Assemble(false)
	require.NoError(t, err)
	assert.Less(t, maxAbs(sys.RHS), 1.e-11)
}

func TestAdaptPass(t *testing.T) {
	d, asm := setup(t, eulerParams("sine"), mesh.GenerateRectangle(2, 2, 0, 1, 0, 1, types.Quad))
	c, m := d.C, d.Sim.Metrics
	require.NoError(t, d.Mark(0, types.H_REFINE))
	require.NoError(t, d.Mark(1, types.P_REFINE))
	require.NoError(t, d.Mark(2, types.H_COARSE))
	report, err := d.Adapt()
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrStructural))
	assert.Equal(t, 1, report.Split)
	assert.Equal(t, 1, report.PRefined)
	assert.Equal(t, 1, len(report.Errors))
	assert.Equal(t, 7, report.ActiveVolumes)
	assert.Equal(t, 1., testutil.ToFloat64(m.Adaptations.WithLabelValues(types.H_REFINE.String())))
	assert.Equal(t, 1., testutil.ToFloat64(m.AdaptErrors))
	require.NoError(t, c.CheckLinks())

	// Coarsen every child of volume 0; the parent is merged once
	n := d.MarkByIndicator(func(sv *elements.SolverVolume) types.AdaptType {
		if sv.Adapt.Parent == 0 {
			return types.H_COARSE
		}
		return types.ADAPT_NONE
	})
	assert.Equal(t, 4, n)
	report, err = d.Adapt()
	require.NoError(t, err)
	assert.Equal(t, 1, report.Merged)
	assert.Equal(t, 4, report.ActiveVolumes)
	assert.Equal(t, []mesh.Handle{0, 1, 2, 3}, activeHandles(c))
	assert.Equal(t, 3, c.Volume(1).PRef)

	sys, err := asm.Assemble(false)
	require.NoError(t, err)
	assert.Equal(t, 4*(9+9+16+9), sys.NTrial)
}

func TestIndicator(t *testing.T) {
	d, asm := setup(t, `
PDE: euler
InitType: sine
PolynomialOrder: 1
Minf: 0.5
BCs: {left: {Type: riemann}, right: {Type: riemann}}
`, mesh.GenerateLine(3, 0, 1))
	_, err := Indicator("adjoint", d.C)
	assert.True(t, errors.Is(err, types.ErrConfiguration))

	mark, err := Indicator("uniform_h", d.C)
	require.NoError(t, err)
	assert.Equal(t, 3, d.MarkByIndicator(mark))
	report, err := d.Adapt()
	require.NoError(t, err)
	assert.Equal(t, 3, report.Split)
	assert.Equal(t, 6, d.C.ActiveVolumes.Len())
	assert.Equal(t, 7, d.C.ActiveFaces.Len())
	require.NoError(t, d.C.CheckLinks())

	_, err = asm.Assemble(false)
	require.NoError(t, err)
	mark, err = Indicator("residual", d.C)
	require.NoError(t, err)
	n := d.MarkByIndicator(mark)
	assert.Greater(t, n, 0)
	assert.Less(t, n, 7)
}

func TestDeterministicRebuild(t *testing.T) {
	run := func() []mesh.Handle {
		d, _ := setup(t, eulerParams("sine"), mesh.GenerateRectangle(2, 2, 0, 1, 0, 1, types.Triangle))
		for _, h := range []mesh.Handle{5, 2} {
			require.NoError(t, d.Mark(h, types.H_REFINE))
		}
		_, err := d.Adapt()
		require.NoError(t, err)
		require.NoError(t, d.Split(d.C.Volume(2).Adapt.Child0+3))
		return activeHandles(d.C)
	}
	assert.Equal(t, run(), run())
}
