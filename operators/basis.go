package operators

import (
	"fmt"
	"math"

	"github.com/notargets/godpg/types"
	"github.com/notargets/godpg/utils"
)

// NumModes is the dimension of the order p polynomial space on the element.
func NumModes(et types.ElementType, p int) int {
	switch et {
	case types.Line:
		return p + 1
	case types.Quad:
		return (p + 1) * (p + 1)
	case types.Hex:
		return (p + 1) * (p + 1) * (p + 1)
	case types.Triangle:
		return (p + 1) * (p + 2) / 2
	}
	panic(fmt.Errorf("no polynomial basis for %s", et))
}

func column(pts [][]float64, k int) (c []float64) {
	c = make([]float64, len(pts))
	for i, p := range pts {
		c[i] = p[k]
	}
	return
}

// Vandermonde evaluates the orthonormal modal basis at pts: V[i][m] = phi_m(pts[i]).
func Vandermonde(et types.ElementType, p int, pts [][]float64) (V utils.Matrix) {
	V = utils.NewMatrix(len(pts), NumModes(et, p))
	switch et {
	case types.Line, types.Quad, types.Hex:
		d := et.Dimension()
		P1 := make([][][]float64, d) // P1[k][a] = P_a evaluated at coordinate k of every point
		for k := 0; k < d; k++ {
			rk := column(pts, k)
			P1[k] = make([][]float64, p+1)
			for a := 0; a <= p; a++ {
				P1[k][a] = JacobiP(rk, 0, 0, a)
			}
		}
		for m, idx := range tensorModes(d, p) {
			col := make([]float64, len(pts))
			for i := range col {
				val := 1.
				for k, a := range idx {
					val *= P1[k][a][i]
				}
				col[i] = val
			}
			V.SetCol(m, col)
		}
	case types.Triangle:
		var sk int
		r, s := column(pts, 0), column(pts, 1)
		for i := 0; i <= p; i++ {
			for j := 0; j <= (p - i); j++ {
				V.SetCol(sk, Simplex2DP(r, s, i, j))
				sk++
			}
		}
	default:
		panic(fmt.Errorf("no polynomial basis for %s", et))
	}
	return
}

// GradVandermonde evaluates the reference gradients of the modal basis at pts, one matrix per direction.
func GradVandermonde(et types.ElementType, p int, pts [][]float64) (Vr []utils.Matrix) {
	var (
		d  = et.Dimension()
		Np = NumModes(et, p)
	)
	Vr = make([]utils.Matrix, d)
	for k := range Vr {
		Vr[k] = utils.NewMatrix(len(pts), Np)
	}
	switch et {
	case types.Line, types.Quad, types.Hex:
		P1, dP1 := make([][][]float64, d), make([][][]float64, d)
		for k := 0; k < d; k++ {
			rk := column(pts, k)
			P1[k], dP1[k] = make([][]float64, p+1), make([][]float64, p+1)
			for a := 0; a <= p; a++ {
				P1[k][a] = JacobiP(rk, 0, 0, a)
				dP1[k][a] = GradJacobiP(rk, 0, 0, a)
			}
		}
		for m, idx := range tensorModes(d, p) {
			for dir := 0; dir < d; dir++ {
				col := make([]float64, len(pts))
				for i := range col {
					val := 1.
					for k, a := range idx {
						if k == dir {
							val *= dP1[k][a][i]
						} else {
							val *= P1[k][a][i]
						}
					}
					col[i] = val
				}
				Vr[dir].SetCol(m, col)
			}
		}
	case types.Triangle:
		var sk int
		r, s := column(pts, 0), column(pts, 1)
		for i := 0; i <= p; i++ {
			for j := 0; j <= (p - i); j++ {
				ddr, dds := GradSimplex2DP(r, s, i, j)
				Vr[0].SetCol(sk, ddr)
				Vr[1].SetCol(sk, dds)
				sk++
			}
		}
	default:
		panic(fmt.Errorf("no polynomial basis for %s", et))
	}
	return
}

// tensorModes lists the per-direction orders of each tensor mode, first direction fastest.
func tensorModes(d, p int) (modes [][]int) {
	n := p + 1
	total := 1
	for k := 0; k < d; k++ {
		total *= n
	}
	for m := 0; m < total; m++ {
		idx := make([]int, d)
		rem := m
		for k := 0; k < d; k++ {
			idx[k] = rem % n
			rem /= n
		}
		modes = append(modes, idx)
	}
	return
}

func Simplex2DP(r, s []float64, i, j int) (P []float64) {
	var (
		a, b = RStoAB(r, s)
	)
	h1 := JacobiP(a, 0, 0, i)
	h2 := JacobiP(b, float64(2*i+1), 0, j)
	P = make([]float64, len(a))
	sq2 := math.Sqrt(2)
	for ii := range h1 {
		P[ii] = sq2 * h1[ii] * h2[ii] * utils.POW(1-b[ii], i)
	}
	return
}

func GradSimplex2DP(r, s []float64, id, jd int) (ddr, dds []float64) {
	var (
		a, b = RStoAB(r, s)
	)
	fa := JacobiP(a, 0, 0, id)
	dfa := GradJacobiP(a, 0, 0, id)
	gb := JacobiP(b, 2*float64(id)+1, 0, jd)
	dgb := GradJacobiP(b, 2*float64(id)+1, 0, jd)
	// d/dr = da/dr d/da + db/dr d/db = (2/(1-s)) d/da = (2/(1-B)) d/da
	ddr = make([]float64, len(gb))
	for i := range ddr {
		ddr[i] = dfa[i] * gb[i]
		if id > 0 {
			ddr[i] *= utils.POW(0.5*(1-b[i]), id-1)
		}
		ddr[i] *= math.Pow(2, float64(id)+0.5)
	}
	// d/ds = ((1+A)/2)/((1-B)/2) d/da + d/db
	dds = make([]float64, len(gb))
	for i := range dds {
		dds[i] = 0.5 * dfa[i] * gb[i] * (1 + a[i])
		if id > 0 {
			dds[i] *= utils.POW(0.5*(1-b[i]), id-1)
		}
		tmp := dgb[i] * utils.POW(0.5*(1-b[i]), id)
		if id > 0 {
			tmp -= 0.5 * float64(id) * gb[i] * utils.POW(0.5*(1-b[i]), id-1)
		}
		dds[i] += fa[i] * tmp
		dds[i] *= math.Pow(2, float64(id)+0.5)
	}
	return
}
