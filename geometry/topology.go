package geometry

import (
	"math"

	"github.com/notargets/godpg/types"
)

// Topology is the reference description of an element type: vertices on [-1,1]^d, the vertex lists of each
// local face and the isotropic h-refinement pattern.
type Topology struct {
	Type         types.ElementType
	Dim          int
	RefVertices  [][]float64
	FaceVertices [][]int
	FaceTypes    []types.ElementType
	// Children holds the reference coordinates of every child's vertices, in the child's own vertex order.
	Children [][][]float64
	// ChildFaceOnParent[c][cf] is the parent face containing face cf of child c, -1 for interior faces.
	ChildFaceOnParent [][]int
	facePlanes        []facePlane
}

type facePlane struct {
	n      []float64
	offset float64
}

var topologies = map[types.ElementType]*Topology{}

func init() {
	add := func(tp *Topology) {
		tp.Dim = tp.Type.Dimension()
		tp.buildFacePlanes()
		tp.buildChildFaceTable()
		topologies[tp.Type] = tp
	}
	add(&Topology{
		Type:        types.Point,
		RefVertices: [][]float64{{}},
	})
	add(&Topology{
		Type:         types.Line,
		RefVertices:  [][]float64{{-1}, {1}},
		FaceVertices: [][]int{{0}, {1}},
		FaceTypes:    []types.ElementType{types.Point, types.Point},
		Children:     tensorChildren([][]float64{{-1}, {1}}),
	})
	add(&Topology{
		Type:         types.Triangle,
		RefVertices:  [][]float64{{-1, -1}, {1, -1}, {-1, 1}},
		FaceVertices: [][]int{{0, 1}, {1, 2}, {2, 0}},
		FaceTypes:    []types.ElementType{types.Line, types.Line, types.Line},
		Children:     triangleChildren(),
	})
	quad := [][]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	add(&Topology{
		Type:         types.Quad,
		RefVertices:  quad,
		FaceVertices: [][]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}},
		FaceTypes:    []types.ElementType{types.Line, types.Line, types.Line, types.Line},
		Children:     tensorChildren(quad),
	})
	hex := [][]float64{
		{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
		{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
	}
	add(&Topology{
		Type:         types.Hex,
		RefVertices:  hex,
		FaceVertices: [][]int{{0, 3, 2, 1}, {4, 5, 6, 7}, {0, 1, 5, 4}, {1, 2, 6, 5}, {2, 3, 7, 6}, {3, 0, 4, 7}},
		FaceTypes:    []types.ElementType{types.Quad, types.Quad, types.Quad, types.Quad, types.Quad, types.Quad},
		Children:     tensorChildren(hex),
	})
	add(&Topology{
		Type:         types.Tet,
		RefVertices:  [][]float64{{-1, -1, -1}, {1, -1, -1}, {-1, 1, -1}, {-1, -1, 1}},
		FaceVertices: [][]int{{1, 2, 3}, {0, 2, 3}, {0, 1, 3}, {0, 1, 2}},
		FaceTypes:    []types.ElementType{types.Triangle, types.Triangle, types.Triangle, types.Triangle},
	})
	add(&Topology{
		Type: types.Prism,
		RefVertices: [][]float64{
			{-1, -1, -1}, {1, -1, -1}, {-1, 1, -1},
			{-1, -1, 1}, {1, -1, 1}, {-1, 1, 1},
		},
		FaceVertices: [][]int{{0, 1, 2}, {3, 4, 5}, {0, 1, 4, 3}, {1, 2, 5, 4}, {2, 0, 3, 5}},
		FaceTypes:    []types.ElementType{types.Triangle, types.Triangle, types.Quad, types.Quad, types.Quad},
	})
	add(&Topology{
		Type:         types.Pyramid,
		RefVertices:  [][]float64{{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1}, {0, 0, 1}},
		FaceVertices: [][]int{{0, 1, 2, 3}, {0, 1, 4}, {1, 2, 4}, {2, 3, 4}, {3, 0, 4}},
		FaceTypes:    []types.ElementType{types.Quad, types.Triangle, types.Triangle, types.Triangle, types.Triangle},
	})
}

func Lookup(et types.ElementType) (tp *Topology, ok bool) {
	tp, ok = topologies[et]
	return
}

func (tp *Topology) NVerts() int  { return len(tp.RefVertices) }
func (tp *Topology) NFaces() int  { return len(tp.FaceVertices) }
func (tp *Topology) CanRefine() bool { return len(tp.Children) != 0 }

// FaceRefVertices returns the reference coordinates of the vertices of local face f.
func (tp *Topology) FaceRefVertices(f int) (pts [][]float64) {
	for _, v := range tp.FaceVertices[f] {
		pts = append(pts, tp.RefVertices[v])
	}
	return
}

// OnFace reports whether reference point r lies on the plane of local face f.
func (tp *Topology) OnFace(f int, r []float64, tol float64) bool {
	fp := tp.facePlanes[f]
	var dot float64
	for k, nk := range fp.n {
		dot += nk * r[k]
	}
	return math.Abs(dot-fp.offset) < tol
}

// RefCentroid is the centroid of the reference vertices.
func (tp *Topology) RefCentroid() []float64 {
	return Centroid(tp.RefVertices)
}

func (tp *Topology) buildFacePlanes() {
	tp.facePlanes = make([]facePlane, tp.NFaces())
	for f := range tp.FaceVertices {
		pts := tp.FaceRefVertices(f)
		var n []float64
		switch tp.Dim {
		case 1:
			n = []float64{1}
		case 2:
			t := sub(pts[1], pts[0])
			n = []float64{t[1], -t[0]}
		case 3:
			n = cross(sub(pts[1], pts[0]), sub(pts[2], pts[0]))
		}
		normalize(n)
		tp.facePlanes[f] = facePlane{n: n, offset: dot(n, pts[0])}
	}
}

func (tp *Topology) buildChildFaceTable() {
	tp.ChildFaceOnParent = make([][]int, len(tp.Children))
	for c, cv := range tp.Children {
		tp.ChildFaceOnParent[c] = make([]int, tp.NFaces())
		for cf, fv := range tp.FaceVertices {
			tp.ChildFaceOnParent[c][cf] = -1
			for pf := range tp.FaceVertices {
				on := true
				for _, v := range fv {
					if !tp.OnFace(pf, cv[v], 1.e-12) {
						on = false
						break
					}
				}
				if on {
					tp.ChildFaceOnParent[c][cf] = pf
					break
				}
			}
		}
	}
}

// tensorChildren bisects each reference direction. Child c is centered at half of reference vertex c and
// inherits the parent's vertex ordering.
func tensorChildren(ref [][]float64) (children [][][]float64) {
	children = make([][][]float64, len(ref))
	for c := range ref {
		children[c] = make([][]float64, len(ref))
		for v := range ref {
			pt := make([]float64, len(ref[v]))
			for k := range pt {
				pt[k] = 0.5*ref[c][k] + 0.5*ref[v][k]
			}
			children[c][v] = pt
		}
	}
	return
}

func triangleChildren() [][][]float64 {
	var (
		v0, v1, v2    = []float64{-1, -1}, []float64{1, -1}, []float64{-1, 1}
		m01, m12, m20 = []float64{0, -1}, []float64{0, 0}, []float64{-1, 0}
	)
	return [][][]float64{
		{v0, m01, m20},
		{m01, v1, m12},
		{m20, m12, v2},
		{m01, m12, m20},
	}
}
