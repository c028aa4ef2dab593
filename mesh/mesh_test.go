package mesh

import (
	"errors"
	"io"
	"log"
	"path/filepath"
	"strings"
	"testing"

	"github.com/notargets/godpg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCatalog map[types.ElementType]bool

func (tc testCatalog) Supports(et types.ElementType) bool { return tc[et] }

var allTypes = testCatalog{types.Line: true, types.Triangle: true, types.Quad: true, types.Hex: true}

func TestFirstVolumeIndex(t *testing.T) {
	epd := []int{4, 12, 9}
	assert.Equal(t, 0, FirstVolumeIndex(epd, 0))
	assert.Equal(t, 4, FirstVolumeIndex(epd, 1))
	assert.Equal(t, 16, FirstVolumeIndex(epd, 2))
}

func TestBuildGenerated(t *testing.T) {
	tests := []struct {
		name      string
		data      *Data
		nVolumes  int
		nFaces    int
		nBoundary int
	}{
		{"line", GenerateLine(4, 0, 1), 4, 5, 2},
		{"quads", GenerateRectangle(2, 2, 0, 1, 0, 1, types.Quad), 4, 12, 8},
		{"tris", GenerateRectangle(2, 2, 0, 1, 0, 1, types.Triangle), 8, 16, 8},
		{"hexes", GenerateBox(1, 1, 2, []float64{0, 0, 0}, []float64{1, 1, 2}), 2, 11, 10},
	}
	for _, tt := range tests {
		m, err := Build(&Input{Data: tt.data}, allTypes)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.nVolumes, m.NVolumes(), tt.name)
		assert.Equal(t, tt.nFaces, len(m.Conn.Faces), tt.name)
		assert.Equal(t, tt.nBoundary, m.Conn.NBoundaryFaces(), tt.name)
		// Reciprocal connectivity
		for v := range m.Conn.VToV {
			for lf, nb := range m.Conn.VToV[v] {
				if nb < 0 {
					assert.NotEmpty(t, m.Conn.VToBC[v][lf], tt.name)
					assert.True(t, m.Vert.Boundary[v])
					continue
				}
				nlf := m.Conn.VToLF[v][lf]
				assert.Equal(t, v, m.Conn.VToV[nb][nlf], tt.name)
				assert.Equal(t, lf, m.Conn.VToLF[nb][nlf], tt.name)
				assert.Equal(t, m.Conn.VToF[v][lf], m.Conn.VToF[nb][nlf], tt.name)
			}
		}
		assert.True(t, m.Conn.Elements == m.Vert.Elements)
	}
}

func TestBuildDeterministic(t *testing.T) {
	data := GenerateRectangle(3, 2, 0, 3, 0, 2, types.Triangle)
	m1, err := Build(&Input{Data: data}, allTypes)
	require.NoError(t, err)
	m2, err := Build(&Input{Data: data}, allTypes)
	require.NoError(t, err)
	assert.Equal(t, m1.Conn.VToV, m2.Conn.VToV)
	assert.Equal(t, m1.Conn.VToLF, m2.Conn.VToLF)
	assert.Equal(t, m1.Conn.VToF, m2.Conn.VToF)
	assert.Equal(t, m1.Conn.Faces, m2.Conn.Faces)
}

func TestBuildErrors(t *testing.T) {
	base := func() *Data { return GenerateRectangle(1, 1, 0, 1, 0, 1, types.Quad) }
	{ // vertex out of range
		d := base()
		d.Entities[len(d.Entities)-1].Nodes[2] = 99
		_, err := Build(&Input{Data: d}, allTypes)
		assert.True(t, errors.Is(err, types.ErrMeshFormat))
	}
	{ // wrong node count
		d := base()
		d.Entities[len(d.Entities)-1].Nodes = []int{0, 1, 2}
		_, err := Build(&Input{Data: d}, allTypes)
		assert.True(t, errors.Is(err, types.ErrMeshFormat))
	}
	{ // boundary entity that matches nothing
		d := base()
		d.Entities = append(d.Entities, Entity{Type: types.Line, Nodes: []int{0, 3}, Tag: "diag"})
		_, err := Build(&Input{Data: d}, allTypes)
		assert.True(t, errors.Is(err, types.ErrMeshFormat))
	}
	{ // boundary entity on the edge shared by two quads
		d := GenerateRectangle(2, 1, 0, 2, 0, 1, types.Quad)
		d.Entities = append(d.Entities, Entity{Type: types.Line, Nodes: []int{1, 4}, Tag: "cut"})
		_, err := Build(&Input{Data: d}, allTypes)
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrMeshFormat))
		assert.Contains(t, err.Error(), "interior face")
	}
	{ // boundary face without a boundary entity
		d := base()
		d.Entities = d.Entities[1:]
		_, err := Build(&Input{Data: d}, allTypes)
		assert.True(t, errors.Is(err, types.ErrMeshFormat))
	}
	{ // three triangles on one edge
		d := &Data{
			Dimension: 2,
			Nodes:     [][]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {0, -1}},
			Entities: []Entity{
				{Type: types.Triangle, Nodes: []int{0, 1, 2}},
				{Type: types.Triangle, Nodes: []int{1, 3, 2}},
				{Type: types.Triangle, Nodes: []int{1, 2, 4}},
			},
		}
		_, err := Build(&Input{Data: d}, allTypes)
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrMeshFormat))
		assert.True(t, strings.Contains(err.Error(), "non-manifold"))
	}
	{ // element type missing from the catalog
		_, err := Build(&Input{Data: base()}, testCatalog{types.Triangle: true})
		assert.True(t, errors.Is(err, types.ErrConfiguration))
	}
	{ // unreadable input
		_, err := Build(&Input{FileName: filepath.Join(t.TempDir(), "missing.yaml")}, allTypes)
		assert.True(t, errors.Is(err, types.ErrConfiguration))
	}
}

func TestVerticesRequireMatchingElementSet(t *testing.T) {
	data, err := NewData(GenerateLine(2, 0, 1))
	require.NoError(t, err)
	es, err := NewElementSet(data, allTypes)
	require.NoError(t, err)
	conn, err := NewConnectivity(data, es)
	require.NoError(t, err)
	other, err := NewElementSet(data, allTypes)
	require.NoError(t, err)
	_, err = NewVertices(data, conn, nil, other)
	assert.True(t, errors.Is(err, types.ErrConfiguration))
	vert, err := NewVertices(data, conn, &Input{CurvedTags: []string{"right"}}, es)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true}, vert.Curved)
	assert.Equal(t, [][]float64{{0.5}, {1}}, vert.XyzVe[1])
}

func TestDestroy(t *testing.T) {
	m, err := Build(&Input{Data: GenerateLine(2, 0, 1)}, allTypes)
	require.NoError(t, err)
	m.Destroy()
	assert.Nil(t, m.Conn)
	assert.Nil(t, m.Vert)
	assert.Nil(t, m.Data)
	assert.Panics(t, func() { m.Destroy() })
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh.yaml")
	d := GenerateRectangle(2, 1, 0, 2, 0, 1, types.Triangle)
	require.NoError(t, d.Save(path))
	m, err := Build(&Input{FileName: path}, allTypes)
	require.NoError(t, err)
	assert.Equal(t, 4, m.NVolumes())
	assert.Equal(t, types.Triangle, m.Data.Volume(0).Type)
	assert.Equal(t, []int{0, 6, 4}, m.Data.ElemPerDim)
}

func TestArena(t *testing.T) {
	a := NewArena[*Entity](4)
	h0 := a.Alloc(&Entity{Tag: "a"})
	first := a.AllocN([]*Entity{{Tag: "b"}, {Tag: "c"}})
	assert.Equal(t, Handle(0), h0)
	assert.Equal(t, Handle(1), first)
	assert.Equal(t, 3, a.Count())
	a.Free(first)
	assert.False(t, a.Live(first))
	assert.Nil(t, a.Get(first))
	assert.Nil(t, a.Get(NoHandle))
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, 2, a.Count())
	var seen []string
	a.Each(func(h Handle, e *Entity) { seen = append(seen, e.Tag) })
	assert.Equal(t, []string{"a", "c"}, seen)
	assert.Panics(t, func() { a.Free(first) })
}

func TestPartition(t *testing.T) {
	m, err := Build(&Input{Data: GenerateRectangle(4, 4, 0, 1, 0, 1, types.Quad)}, allTypes)
	require.NoError(t, err)
	g := NewDualGraph(m.NVolumes(), func(v int) ([]int, []int32) {
		w := make([]int32, len(m.Conn.VToV[v]))
		for i := range w {
			w[i] = 2
		}
		return m.Conn.VToV[v], w
	}, func(v int) int32 { return 4 })
	assert.Equal(t, 17, len(g.Xadj))
	assert.Equal(t, int32(48), g.Xadj[16])
	logger := log.New(io.Discard, "", 0)
	part, err := Partition(g, DefaultPartitionConfig(2), logger)
	require.NoError(t, err)
	assert.Equal(t, 16, len(part))
	for _, p := range part {
		assert.True(t, p == 0 || p == 1)
	}
	cp := ContiguousPartition(5, 2)
	assert.Equal(t, []int{0, 0, 0, 1, 1}, cp)
	assert.Equal(t, [][]int{{0, 1, 2}, {3, 4}}, Buckets(cp, 2))
}
