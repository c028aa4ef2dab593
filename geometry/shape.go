package geometry

import (
	"fmt"
	"math"

	"github.com/notargets/godpg/types"
)

// Shape evaluates the vertex shape functions and their reference derivatives at r: dN[i][k] = dN_i/dr_k.
func (tp *Topology) Shape(r []float64) (N []float64, dN [][]float64) {
	nv := tp.NVerts()
	N = make([]float64, nv)
	dN = make([][]float64, nv)
	for i := range dN {
		dN[i] = make([]float64, tp.Dim)
	}
	switch tp.Type {
	case types.Point:
		N[0] = 1
	case types.Line, types.Quad, types.Hex:
		// Multilinear: N_i = prod_k (1 + r_k*v_ik)/2
		for i, v := range tp.RefVertices {
			N[i] = 1
			for k := range r {
				N[i] *= 0.5 * (1 + r[k]*v[k])
			}
			for k := range r {
				d := 0.5 * v[k]
				for m := range r {
					if m != k {
						d *= 0.5 * (1 + r[m]*v[m])
					}
				}
				dN[i][k] = d
			}
		}
	case types.Triangle, types.Tet:
		// Linear: N_0 = -(d - 2 + sum r_k)/2, N_k+1 = (1 + r_k)/2
		var sum float64
		for _, rk := range r {
			sum += rk
		}
		N[0] = -0.5 * (float64(tp.Dim-2) + sum)
		for k := 0; k < tp.Dim; k++ {
			N[k+1] = 0.5 * (1 + r[k])
			dN[0][k] = -0.5
			dN[k+1][k] = 0.5
		}
	default:
		panic(fmt.Errorf("no geometric shape functions for %s", tp.Type))
	}
	return
}

// Map returns the physical coordinates of reference point r for an element with vertex coordinates xyzVe.
func (tp *Topology) Map(xyzVe [][]float64, r []float64) (x []float64) {
	N, _ := tp.Shape(r)
	x = make([]float64, len(xyzVe[0]))
	for i, Ni := range N {
		for j := range x {
			x[j] += Ni * xyzVe[i][j]
		}
	}
	return
}

// Jacobian returns J[j][k] = dx_j/dr_k at reference point r.
func (tp *Topology) Jacobian(xyzVe [][]float64, r []float64) (J [][]float64) {
	_, dN := tp.Shape(r)
	J = make([][]float64, len(xyzVe[0]))
	for j := range J {
		J[j] = make([]float64, tp.Dim)
		for i := range dN {
			for k := 0; k < tp.Dim; k++ {
				J[j][k] += dN[i][k] * xyzVe[i][j]
			}
		}
	}
	return
}

const (
	inverseMapTol     = 1.e-14
	inverseMapMaxIter = 50
)

// InverseMap finds the reference coordinates of physical point x by Newton iteration.
func (tp *Topology) InverseMap(xyzVe [][]float64, x []float64) (r []float64, err error) {
	r = tp.RefCentroid()
	scale := diameter(xyzVe)
	for iter := 0; iter < inverseMapMaxIter; iter++ {
		xr := tp.Map(xyzVe, r)
		res := sub(xr, x)
		var J = tp.Jacobian(xyzVe, r)
		Jinv, det := InvertSmall(J)
		if det == 0 {
			return nil, types.NewNumericalDomainError("singular element map at r = %v", r)
		}
		var step float64
		for k := range r {
			var dr float64
			for j := range res {
				dr += Jinv[k][j] * res[j]
			}
			r[k] -= dr
			step = math.Max(step, math.Abs(dr))
		}
		if norm(res) <= inverseMapTol*scale || step <= inverseMapTol {
			return
		}
	}
	err = types.NewNumericalDomainError("inverse map did not converge for x = %v", x)
	return
}

// InvertSmall inverts a 1x1, 2x2 or 3x3 matrix in closed form.
func InvertSmall(J [][]float64) (Jinv [][]float64, det float64) {
	n := len(J)
	Jinv = make([][]float64, n)
	for i := range Jinv {
		Jinv[i] = make([]float64, n)
	}
	switch n {
	case 1:
		det = J[0][0]
		if det != 0 {
			Jinv[0][0] = 1 / det
		}
	case 2:
		det = J[0][0]*J[1][1] - J[0][1]*J[1][0]
		if det != 0 {
			Jinv[0][0] = J[1][1] / det
			Jinv[0][1] = -J[0][1] / det
			Jinv[1][0] = -J[1][0] / det
			Jinv[1][1] = J[0][0] / det
		}
	case 3:
		det = J[0][0]*(J[1][1]*J[2][2]-J[1][2]*J[2][1]) -
			J[0][1]*(J[1][0]*J[2][2]-J[1][2]*J[2][0]) +
			J[0][2]*(J[1][0]*J[2][1]-J[1][1]*J[2][0])
		if det != 0 {
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					// cofactor transpose
					a, b := (j+1)%3, (j+2)%3
					c, d := (i+1)%3, (i+2)%3
					Jinv[i][j] = (J[a][c]*J[b][d] - J[a][d]*J[b][c]) / det
				}
			}
		}
	default:
		panic(fmt.Errorf("unsupported matrix dimension %d", n))
	}
	return
}

func Centroid(pts [][]float64) (c []float64) {
	c = make([]float64, len(pts[0]))
	for _, p := range pts {
		for k := range c {
			c[k] += p[k]
		}
	}
	for k := range c {
		c[k] /= float64(len(pts))
	}
	return
}

// BBox returns the componentwise bounds of a point set.
func BBox(pts [][]float64) (lo, hi []float64) {
	lo, hi = make([]float64, len(pts[0])), make([]float64, len(pts[0]))
	copy(lo, pts[0])
	copy(hi, pts[0])
	for _, p := range pts[1:] {
		for k := range p {
			lo[k] = math.Min(lo[k], p[k])
			hi[k] = math.Max(hi[k], p[k])
		}
	}
	return
}

// BoxInside reports whether every point of inner lies within the bounding box of outer.
func BoxInside(inner, outer [][]float64, tol float64) bool {
	lo, hi := BBox(outer)
	for _, p := range inner {
		for k := range p {
			if p[k] < lo[k]-tol || p[k] > hi[k]+tol {
				return false
			}
		}
	}
	return true
}

func diameter(pts [][]float64) (d float64) {
	lo, hi := BBox(pts)
	for k := range lo {
		d = math.Max(d, hi[k]-lo[k])
	}
	return
}

func sub(a, b []float64) (c []float64) {
	c = make([]float64, len(a))
	for i := range a {
		c[i] = a[i] - b[i]
	}
	return
}

func dot(a, b []float64) (d float64) {
	for i := range a {
		d += a[i] * b[i]
	}
	return
}

func norm(a []float64) float64 { return math.Sqrt(dot(a, a)) }

func normalize(a []float64) {
	n := norm(a)
	for i := range a {
		a[i] /= n
	}
}

func cross(a, b []float64) []float64 {
	return []float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
