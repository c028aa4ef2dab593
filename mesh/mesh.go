package mesh

import (
	"fmt"
	"io"
	"sort"
)

// Mesh owns the three views of the raw mesh input, constructed in the order Data, Connectivity, Vertices.
type Mesh struct {
	Input    *Input
	Data     *Data
	Conn     *Connectivity
	Vert     *Vertices
	Elements *ElementSet
	released bool
}

/*
Build constructs the mesh from its input. An unreadable input or an element type missing from the catalog is a
ConfigurationError, malformed topology a MeshFormatError. Nothing partially built is returned.
*/
func Build(input *Input, catalog ElementCatalog) (m *Mesh, err error) {
	var (
		raw  = input.Data
		data *Data
		es   *ElementSet
		conn *Connectivity
		vert *Vertices
	)
	if raw == nil {
		if raw, err = LoadData(input.FileName); err != nil {
			return
		}
	}
	if data, err = NewData(raw); err != nil {
		return
	}
	if es, err = NewElementSet(data, catalog); err != nil {
		return
	}
	if conn, err = NewConnectivity(data, es); err != nil {
		return
	}
	if vert, err = NewVertices(data, conn, input, es); err != nil {
		return
	}
	m = &Mesh{
		Input:    input,
		Data:     data,
		Conn:     conn,
		Vert:     vert,
		Elements: es,
	}
	return
}

// Destroy releases the three views. Calling it twice is a programming error.
func (m *Mesh) Destroy() {
	if m.released {
		panic(fmt.Errorf("mesh destroyed twice"))
	}
	m.Vert = nil
	m.Conn = nil
	m.Data = nil
	m.Elements = nil
	m.released = true
}

func (m *Mesh) Dimension() int { return m.Data.Dimension }

func (m *Mesh) NVolumes() int { return m.Data.NVolumes() }

// FirstVolumeIndex is the prefix sum of the entity counts below dimension d.
func FirstVolumeIndex(elemPerDim []int, d int) (ind int) {
	for dim := 0; dim < d; dim++ {
		ind += elemPerDim[dim]
	}
	return
}

func (m *Mesh) PrintStatistics(w io.Writer) {
	fmt.Fprintf(w, "Mesh Statistics:\n")
	fmt.Fprintf(w, "  Dimension: %d\n", m.Data.Dimension)
	fmt.Fprintf(w, "  Vertices: %d\n", len(m.Data.Nodes))
	fmt.Fprintf(w, "  Volumes: %d\n", m.NVolumes())
	fmt.Fprintf(w, "  Faces: %d\n", len(m.Conn.Faces))
	typeCounts := make(map[string]int)
	for v := 0; v < m.NVolumes(); v++ {
		typeCounts[m.Data.Volume(v).Type.String()]++
	}
	keys := make([]string, 0, len(typeCounts))
	for t := range typeCounts {
		keys = append(keys, t)
	}
	sort.Strings(keys)
	fmt.Fprintf(w, "  Element types:\n")
	for _, t := range keys {
		fmt.Fprintf(w, "    %s: %d\n", t, typeCounts[t])
	}
	fmt.Fprintf(w, "  Boundary faces: %d\n", m.Conn.NBoundaryFaces())
}
