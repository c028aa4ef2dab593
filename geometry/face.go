package geometry

import (
	"fmt"
	"math"

	"github.com/notargets/godpg/types"
)

// FaceTopology returns the topology used to parametrize a face with the given corner count in dimension d.
func FaceTopology(d, nCorners int) (tp *Topology) {
	switch {
	case d == 1:
		tp, _ = Lookup(types.Point)
	case d == 2:
		tp, _ = Lookup(types.Line)
	case d == 3 && nCorners == 3:
		tp, _ = Lookup(types.Triangle)
	case d == 3 && nCorners == 4:
		tp, _ = Lookup(types.Quad)
	default:
		panic(fmt.Errorf("no face parametrization for %d corners in %d dimensions", nCorners, d))
	}
	return
}

/*
FacePoint evaluates the face map at face reference point xi. It returns the physical point, the unit normal and
the area element |J_f|. The normal is oriented away from the point inside, normally the centroid of the volume
on side 0 of the face.
*/
func FacePoint(corners [][]float64, xi []float64, inside []float64) (x, n []float64, detJ float64) {
	var (
		d  = len(corners[0])
		tp = FaceTopology(d, len(corners))
	)
	x = tp.Map(corners, xi)
	switch d {
	case 1:
		n = []float64{1}
		detJ = 1
	case 2:
		J := tp.Jacobian(corners, xi)
		n = []float64{J[1][0], -J[0][0]}
		detJ = norm(n)
	case 3:
		J := tp.Jacobian(corners, xi)
		n = cross([]float64{J[0][0], J[1][0], J[2][0]}, []float64{J[0][1], J[1][1], J[2][1]})
		detJ = norm(n)
	}
	if detJ == 0 {
		panic(fmt.Errorf("degenerate face with corners %v", corners))
	}
	for k := range n {
		n[k] /= detJ
	}
	if dot(n, sub(Centroid(corners), inside)) < 0 {
		for k := range n {
			n[k] = -n[k]
		}
	}
	return
}

// SameFace reports whether two corner sets describe the same face.
func SameFace(a, b [][]float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for _, pa := range a {
		found := false
		for _, pb := range b {
			if math.Sqrt(dot(sub(pa, pb), sub(pa, pb))) < tol {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
