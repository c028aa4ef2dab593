package geometry

import (
	"testing"

	"github.com/notargets/godpg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeFunctions(t *testing.T) {
	for _, et := range []types.ElementType{types.Line, types.Triangle, types.Quad, types.Hex, types.Tet} {
		tp, ok := Lookup(et)
		require.True(t, ok)
		// Nodal property at the vertices
		for i, v := range tp.RefVertices {
			N, _ := tp.Shape(v)
			for j, Nj := range N {
				if i == j {
					assert.InDelta(t, 1., Nj, 1.e-15, "%s vertex %d", et, i)
				} else {
					assert.InDelta(t, 0., Nj, 1.e-15, "%s vertex %d", et, i)
				}
			}
		}
		// Partition of unity at the centroid
		N, dN := tp.Shape(tp.RefCentroid())
		var sum float64
		dsum := make([]float64, tp.Dim)
		for i := range N {
			sum += N[i]
			for k := range dsum {
				dsum[k] += dN[i][k]
			}
		}
		assert.InDelta(t, 1., sum, 1.e-15)
		for k := range dsum {
			assert.InDelta(t, 0., dsum[k], 1.e-15)
		}
	}
}

func TestInverseMap(t *testing.T) {
	{ // Skewed quad
		tp, _ := Lookup(types.Quad)
		xyz := [][]float64{{0, 0}, {2, 0.2}, {2.3, 1.9}, {-0.1, 1.2}}
		r0 := []float64{0.3, -0.7}
		x := tp.Map(xyz, r0)
		r, err := tp.InverseMap(xyz, x)
		require.NoError(t, err)
		assert.InDeltaSlice(t, r0, r, 1.e-12)
	}
	{ // Box hex
		tp, _ := Lookup(types.Hex)
		var xyz [][]float64
		for _, v := range tp.RefVertices {
			xyz = append(xyz, []float64{1 + 0.5*(v[0]+1), 2 * (v[1] + 1), 0.25 * v[2]})
		}
		r0 := []float64{-0.2, 0.9, 0.1}
		r, err := tp.InverseMap(xyz, tp.Map(xyz, r0))
		require.NoError(t, err)
		assert.InDeltaSlice(t, r0, r, 1.e-12)
		Jinv, det := InvertSmall(tp.Jacobian(xyz, r0))
		assert.InDelta(t, 0.5*2*0.25, det, 1.e-14)
		assert.InDelta(t, 2., Jinv[0][0], 1.e-13)
	}
	{ // Triangle
		tp, _ := Lookup(types.Triangle)
		xyz := [][]float64{{1, 1}, {3, 1}, {1, 2}}
		x := tp.Map(xyz, []float64{-1. / 3, -1. / 3})
		assert.InDeltaSlice(t, Centroid(xyz), x, 1.e-15)
	}
}

func TestRefinementTables(t *testing.T) {
	tp, _ := Lookup(types.Quad)
	require.Len(t, tp.Children, 4)
	assert.Equal(t, [][]float64{{-1, -1}, {0, -1}, {0, 0}, {-1, 0}}, tp.Children[0])
	assert.Equal(t, []int{0, -1, -1, 3}, tp.ChildFaceOnParent[0])
	assert.Equal(t, []int{-1, 1, 2, -1}, tp.ChildFaceOnParent[2])

	tri, _ := Lookup(types.Triangle)
	assert.Equal(t, []int{0, -1, 2}, tri.ChildFaceOnParent[0])
	assert.Equal(t, []int{0, 1, -1}, tri.ChildFaceOnParent[1])
	assert.Equal(t, []int{-1, 1, 2}, tri.ChildFaceOnParent[2])
	assert.Equal(t, []int{-1, -1, -1}, tri.ChildFaceOnParent[3])

	hex, _ := Lookup(types.Hex)
	require.Len(t, hex.Children, 8)
	var onParent int
	for c := range hex.Children {
		for _, pf := range hex.ChildFaceOnParent[c] {
			if pf >= 0 {
				onParent++
			}
		}
	}
	assert.Equal(t, 24, onParent) // each parent face holds four child faces

	line, _ := Lookup(types.Line)
	assert.Equal(t, [][]float64{{0}, {1}}, line.Children[1])
	assert.False(t, func() bool { tet, _ := Lookup(types.Tet); return tet.CanRefine() }())
}

func TestFacePoint(t *testing.T) {
	{ // 2D edge, normal away from the inside point
		x, n, detJ := FacePoint([][]float64{{1, 0}, {1, 2}}, []float64{0}, []float64{0, 1})
		assert.InDeltaSlice(t, []float64{1, 1}, x, 1.e-15)
		assert.InDeltaSlice(t, []float64{1, 0}, n, 1.e-15)
		assert.InDelta(t, 1., detJ, 1.e-15)
		_, n, _ = FacePoint([][]float64{{1, 0}, {1, 2}}, []float64{0}, []float64{2, 1})
		assert.InDeltaSlice(t, []float64{-1, 0}, n, 1.e-15)
	}
	{ // 3D quad face
		corners := [][]float64{{0, 0, 1}, {2, 0, 1}, {2, 2, 1}, {0, 2, 1}}
		_, n, detJ := FacePoint(corners, []float64{0.5, 0.5}, []float64{1, 1, 0})
		assert.InDeltaSlice(t, []float64{0, 0, 1}, n, 1.e-15)
		assert.InDelta(t, 1., detJ, 1.e-15)
	}
	{ // 1D point face
		_, n, detJ := FacePoint([][]float64{{2}}, nil, []float64{3})
		assert.Equal(t, []float64{-1}, n)
		assert.Equal(t, 1., detJ)
	}
	assert.True(t, SameFace([][]float64{{0, 0}, {1, 0}}, [][]float64{{1, 0}, {0, 0}}, 1.e-12))
	assert.True(t, BoxInside([][]float64{{0.5, 0}}, [][]float64{{0, 0}, {1, 0}}, 1.e-10))
	assert.False(t, BoxInside([][]float64{{1.5, 0}}, [][]float64{{0, 0}, {1, 0}}, 1.e-10))
}
