package operators

import (
	"fmt"

	"github.com/notargets/godpg/types"
)

// Cubature is a set of reference points and weights.
type Cubature struct {
	Points  [][]float64
	Weights []float64
}

func (c *Cubature) Len() int { return len(c.Weights) }

// GaussCubature is exact for polynomials of degree 2n-1 in each direction (total degree for the triangle).
func GaussCubature(et types.ElementType, n int) (cub *Cubature) {
	switch et {
	case types.Point:
		return &Cubature{Points: [][]float64{{}}, Weights: []float64{1}}
	case types.Line, types.Quad, types.Hex:
		x, w := JacobiGQ(0, 0, n-1)
		d := et.Dimension()
		return &Cubature{Points: tensorPoints(d, x), Weights: tensorWeights(d, w)}
	case types.Triangle:
		a, wa := JacobiGQ(0, 0, n-1)
		b, wb := JacobiGQ(1, 0, n-1)
		cub = &Cubature{}
		for j := range b {
			for i := range a {
				r := 0.5*(1+a[i])*(1-b[j]) - 1
				cub.Points = append(cub.Points, []float64{r, b[j]})
				cub.Weights = append(cub.Weights, 0.5*wa[i]*wb[j])
			}
		}
		return
	}
	panic(fmt.Errorf("no cubature for %s", et))
}

// LobattoCubature collocates with the order n-1 solution nodes of the tensor product types.
func LobattoCubature(et types.ElementType, n int) (cub *Cubature) {
	switch et {
	case types.Point:
		return &Cubature{Points: [][]float64{{}}, Weights: []float64{1}}
	case types.Line, types.Quad, types.Hex:
		if n == 1 {
			return GaussCubature(et, 1)
		}
		x := JacobiGL(0, 0, n-1)
		w := GLLWeights(x)
		d := et.Dimension()
		return &Cubature{Points: tensorPoints(d, x), Weights: tensorWeights(d, w)}
	}
	panic(fmt.Errorf("no collocated cubature for %s", et))
}
