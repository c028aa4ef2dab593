package operators

import (
	"fmt"
	"math"

	"github.com/notargets/godpg/types"
	"github.com/notargets/godpg/utils"
)

// SolutionNodes returns the nodal points of an order p element: Gauss-Lobatto-Legendre tensor points for the
// tensor product types and warp & blend points for the triangle.
func SolutionNodes(et types.ElementType, p int) (pts [][]float64) {
	switch et {
	case types.Line, types.Quad, types.Hex:
		var r1 []float64
		if p == 0 {
			r1 = []float64{0}
		} else {
			r1 = JacobiGL(0, 0, p)
		}
		pts = tensorPoints(et.Dimension(), r1)
	case types.Triangle:
		if p == 0 {
			return [][]float64{{-1. / 3., -1. / 3.}}
		}
		x, y := Nodes2D(p)
		r, s := XYtoRS(x, y)
		for i := range r {
			pts = append(pts, []float64{r[i], s[i]})
		}
	default:
		panic(fmt.Errorf("no solution nodes for %s", et))
	}
	return
}

// tensorPoints lays out the product of a 1D point set with the first coordinate varying fastest.
func tensorPoints(d int, r1 []float64) (pts [][]float64) {
	n := len(r1)
	switch d {
	case 1:
		for _, r := range r1 {
			pts = append(pts, []float64{r})
		}
	case 2:
		for j := 0; j < n; j++ {
			for i := 0; i < n; i++ {
				pts = append(pts, []float64{r1[i], r1[j]})
			}
		}
	case 3:
		for k := 0; k < n; k++ {
			for j := 0; j < n; j++ {
				for i := 0; i < n; i++ {
					pts = append(pts, []float64{r1[i], r1[j], r1[k]})
				}
			}
		}
	}
	return
}

func tensorWeights(d int, w1 []float64) (w []float64) {
	n := len(w1)
	switch d {
	case 0:
		w = []float64{1}
	case 1:
		w = append(w, w1...)
	case 2:
		for j := 0; j < n; j++ {
			for i := 0; i < n; i++ {
				w = append(w, w1[i]*w1[j])
			}
		}
	case 3:
		for k := 0; k < n; k++ {
			for j := 0; j < n; j++ {
				for i := 0; i < n; i++ {
					w = append(w, w1[i]*w1[j]*w1[k])
				}
			}
		}
	}
	return
}

// Nodes2D computes the warp & blend nodes in the equilateral triangle for polynomial order N.
func Nodes2D(N int) (x, y []float64) {
	var (
		alpha                  float64
		Np                     = (N + 1) * (N + 2) / 2
		L1, L2, L3             = make([]float64, Np), make([]float64, Np), make([]float64, Np)
		blend1, blend2, blend3 = make([]float64, Np), make([]float64, Np), make([]float64, Np)
		d1, d2, d3             = make([]float64, Np), make([]float64, Np), make([]float64, Np)
	)
	x, y = make([]float64, Np), make([]float64, Np)
	alpopt := []float64{
		0.0000, 0.0000, 1.4152, 0.1001, 0.2751,
		0.9800, 1.0999, 1.2832, 1.3648, 1.4773,
		1.4959, 1.5743, 1.5770, 1.6223, 1.6258,
	}
	if N < 16 {
		alpha = alpopt[N-1]
	} else {
		alpha = 5. / 3.
	}
	// Create equidistributed nodes on equilateral triangle
	fn := 1. / float64(N)
	var sk int
	for n := 0; n < N+1; n++ {
		for m := 0; m < (N + 1 - n); m++ {
			L1[sk] = float64(n) * fn
			L3[sk] = float64(m) * fn
			sk++
		}
	}
	for i := range x {
		L2[i] = 1 - L1[i] - L3[i]
		x[i] = L3[i] - L2[i]
		y[i] = (2*L1[i] - L3[i] - L2[i]) / math.Sqrt(3)
		// Compute blending function at each node for each edge
		blend1[i] = 4 * L2[i] * L3[i]
		blend2[i] = 4 * L1[i] * L3[i]
		blend3[i] = 4 * L1[i] * L2[i]
		d1[i] = L3[i] - L2[i]
		d2[i] = L1[i] - L3[i]
		d3[i] = L2[i] - L1[i]
	}
	// Amount of warp for each node, for each edge
	warpf1 := Warpfactor(N, d1)
	warpf2 := Warpfactor(N, d2)
	warpf3 := Warpfactor(N, d3)
	for i := range x {
		warp1 := blend1[i] * warpf1[i] * (1 + utils.POW(alpha*L1[i], 2))
		warp2 := blend2[i] * warpf2[i] * (1 + utils.POW(alpha*L2[i], 2))
		warp3 := blend3[i] * warpf3[i] * (1 + utils.POW(alpha*L3[i], 2))
		// Accumulate deformations associated with each edge
		x[i] += warp1 + math.Cos(2*math.Pi/3)*warp2 + math.Cos(4*math.Pi/3)*warp3
		y[i] += math.Sin(2*math.Pi/3)*warp2 + math.Sin(4*math.Pi/3)*warp3
	}
	return
}

func Warpfactor(N int, rout []float64) (warpF []float64) {
	var (
		Nr   = len(rout)
		Pmat = utils.NewMatrix(N+1, Nr)
	)
	// Compute LGL and equidistant node distribution
	LGLr := JacobiGL(0, 0, N)
	req := utils.Linspace(-1, 1, N+1)
	Veq := Vandermonde1D(N, req)
	// Evaluate Lagrange polynomial at rout
	for i := 0; i < (N + 1); i++ {
		Pmat.SetRow(i, JacobiP(rout, 0, 0, i))
	}
	Lmat, err := Veq.Transpose().Solve(Pmat)
	if err != nil {
		panic(err)
	}
	// Compute warp factor
	dist := make([]float64, N+1)
	for i := range dist {
		dist[i] = LGLr[i] - req[i]
	}
	warpF = Lmat.Transpose().MulVec(dist)
	// Scale factor
	for i, r := range rout {
		if math.Abs(r) < 1.0-1.e-10 {
			warpF[i] /= 1 - r*r
		} else {
			warpF[i] = 0
		}
	}
	return
}

// XYtoRS transfers from (x,y) in the equilateral triangle to (r,s) in the reference triangle.
func XYtoRS(x, y []float64) (r, s []float64) {
	r, s = make([]float64, len(x)), make([]float64, len(x))
	sr3 := math.Sqrt(3)
	for i := range x {
		l1 := (sr3*y[i] + 1) / 3
		l2 := (-3*x[i] - sr3*y[i] + 2) / 6
		l3 := (3*x[i] - sr3*y[i] + 2) / 6
		r[i] = -l2 + l3 - l1
		s[i] = -l2 - l3 + l1
	}
	return
}

// RStoAB maps the reference triangle to the collapsed square.
func RStoAB(r, s []float64) (a, b []float64) {
	a, b = make([]float64, len(r)), make([]float64, len(r))
	for n := range r {
		if s[n] != 1 {
			a[n] = 2*(1+r[n])/(1-s[n]) - 1
		} else {
			a[n] = -1
		}
		b[n] = s[n]
	}
	return
}
