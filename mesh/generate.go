package mesh

import (
	"fmt"

	"github.com/notargets/godpg/types"
	"github.com/notargets/godpg/utils"
)

// GenerateLine returns a uniform 1D mesh of K lines on [x0,x1] with boundary tags left and right.
func GenerateLine(K int, x0, x1 float64) (data *Data) {
	data = &Data{Dimension: 1}
	for _, x := range utils.Linspace(x0, x1, K+1) {
		data.Nodes = append(data.Nodes, []float64{x})
	}
	data.Entities = append(data.Entities,
		Entity{Type: types.Point, Nodes: []int{0}, Tag: "left"},
		Entity{Type: types.Point, Nodes: []int{K}, Tag: "right"},
	)
	for k := 0; k < K; k++ {
		data.Entities = append(data.Entities, Entity{Type: types.Line, Nodes: []int{k, k + 1}})
	}
	return
}

/*
GenerateRectangle returns a structured nx by ny mesh of [x0,x1]x[y0,y1] made of quads, or of triangles with
every quad cut along its (i+1,j)-(i,j+1) diagonal. Boundary tags are bottom, right, top and left.
*/
func GenerateRectangle(nx, ny int, x0, x1, y0, y1 float64, et types.ElementType) (data *Data) {
	if et != types.Quad && et != types.Triangle {
		panic(fmt.Errorf("rectangle generator does not produce %s elements", et))
	}
	var (
		xs, ys = utils.Linspace(x0, x1, nx+1), utils.Linspace(y0, y1, ny+1)
		id     = func(i, j int) int { return j*(nx+1) + i }
	)
	data = &Data{Dimension: 2}
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			data.Nodes = append(data.Nodes, []float64{xs[i], ys[j]})
		}
	}
	edge := func(a, b int, tag string) {
		data.Entities = append(data.Entities, Entity{Type: types.Line, Nodes: []int{a, b}, Tag: tag})
	}
	for i := 0; i < nx; i++ {
		edge(id(i, 0), id(i+1, 0), "bottom")
		edge(id(i+1, ny), id(i, ny), "top")
	}
	for j := 0; j < ny; j++ {
		edge(id(nx, j), id(nx, j+1), "right")
		edge(id(0, j+1), id(0, j), "left")
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			a, b, c, d := id(i, j), id(i+1, j), id(i+1, j+1), id(i, j+1)
			if et == types.Quad {
				data.Entities = append(data.Entities, Entity{Type: types.Quad, Nodes: []int{a, b, c, d}})
			} else {
				data.Entities = append(data.Entities,
					Entity{Type: types.Triangle, Nodes: []int{a, b, d}},
					Entity{Type: types.Triangle, Nodes: []int{b, c, d}},
				)
			}
		}
	}
	return
}

// GenerateBox returns a structured hex mesh of the box [lo,hi] with tags left, right, front, back, bottom and top.
func GenerateBox(nx, ny, nz int, lo, hi []float64) (data *Data) {
	var (
		xs = utils.Linspace(lo[0], hi[0], nx+1)
		ys = utils.Linspace(lo[1], hi[1], ny+1)
		zs = utils.Linspace(lo[2], hi[2], nz+1)
		id = func(i, j, k int) int { return (k*(ny+1)+j)*(nx+1) + i }
	)
	data = &Data{Dimension: 3}
	for k := 0; k <= nz; k++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i <= nx; i++ {
				data.Nodes = append(data.Nodes, []float64{xs[i], ys[j], zs[k]})
			}
		}
	}
	quad := func(tag string, nodes ...int) {
		data.Entities = append(data.Entities, Entity{Type: types.Quad, Nodes: nodes, Tag: tag})
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			quad("bottom", id(i, j, 0), id(i, j+1, 0), id(i+1, j+1, 0), id(i+1, j, 0))
			quad("top", id(i, j, nz), id(i+1, j, nz), id(i+1, j+1, nz), id(i, j+1, nz))
		}
	}
	for k := 0; k < nz; k++ {
		for i := 0; i < nx; i++ {
			quad("front", id(i, 0, k), id(i+1, 0, k), id(i+1, 0, k+1), id(i, 0, k+1))
			quad("back", id(i+1, ny, k), id(i, ny, k), id(i, ny, k+1), id(i+1, ny, k+1))
		}
		for j := 0; j < ny; j++ {
			quad("left", id(0, j+1, k), id(0, j, k), id(0, j, k+1), id(0, j+1, k+1))
			quad("right", id(nx, j, k), id(nx, j+1, k), id(nx, j+1, k+1), id(nx, j, k+1))
		}
	}
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				data.Entities = append(data.Entities, Entity{Type: types.Hex, Nodes: []int{
					id(i, j, k), id(i+1, j, k), id(i+1, j+1, k), id(i, j+1, k),
					id(i, j, k+1), id(i+1, j, k+1), id(i+1, j+1, k+1), id(i, j+1, k+1),
				}})
			}
		}
	}
	return
}
