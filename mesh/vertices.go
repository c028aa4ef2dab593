package mesh

import (
	"github.com/notargets/godpg/types"
)

// Vertices holds the processed vertex positions of every volume, keyed to the element set of the connectivity.
type Vertices struct {
	Elements *ElementSet
	XyzVe    [][][]float64 // volume, local vertex, coordinate
	Boundary []bool        // volume has a face on the domain boundary
	Curved   []bool        // volume has a face with a curved boundary tag
	// FaceCurved is indexed by the unique face index of the connectivity.
	FaceCurved []bool
}

func NewVertices(data *Data, conn *Connectivity, input *Input, es *ElementSet) (vert *Vertices, err error) {
	if conn.Elements != es {
		return nil, types.NewConfigurationError("connectivity was built from a different element list")
	}
	var (
		nv     = data.NVolumes()
		curved = make(map[string]bool)
	)
	if input != nil {
		for _, tag := range input.CurvedTags {
			curved[tag] = true
		}
	}
	vert = &Vertices{
		Elements:   es,
		XyzVe:      make([][][]float64, nv),
		Boundary:   make([]bool, nv),
		Curved:     make([]bool, nv),
		FaceCurved: make([]bool, len(conn.Faces)),
	}
	for v := 0; v < nv; v++ {
		vol := data.Volume(v)
		vert.XyzVe[v] = make([][]float64, len(vol.Nodes))
		for i, n := range vol.Nodes {
			vert.XyzVe[v][i] = append([]float64(nil), data.Nodes[n]...)
		}
		for lf, nb := range conn.VToV[v] {
			if nb >= 0 {
				continue
			}
			vert.Boundary[v] = true
			if curved[conn.VToBC[v][lf]] {
				vert.Curved[v] = true
				vert.FaceCurved[conn.VToF[v][lf]] = true
			}
		}
	}
	return
}
