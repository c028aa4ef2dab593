package mesh

import (
	"github.com/notargets/godpg/geometry"
	"github.com/notargets/godpg/types"
)

// ElementCatalog reports which element types have reference operators.
type ElementCatalog interface {
	Supports(et types.ElementType) bool
}

// ElementSet is the list of element topologies a mesh was built against.
type ElementSet struct {
	Topologies map[types.ElementType]*geometry.Topology
}

func NewElementSet(data *Data, catalog ElementCatalog) (es *ElementSet, err error) {
	es = &ElementSet{Topologies: make(map[types.ElementType]*geometry.Topology)}
	for v := 0; v < data.NVolumes(); v++ {
		et := data.Volume(v).Type
		if _, ok := es.Topologies[et]; ok {
			continue
		}
		if !catalog.Supports(et) {
			return nil, types.NewConfigurationError("volume type %s is not in the element catalog", et)
		}
		es.Topologies[et], _ = geometry.Lookup(et)
	}
	return
}

func (es *ElementSet) Topology(et types.ElementType) *geometry.Topology {
	return es.Topologies[et]
}

// FaceInfo describes one unique face. Side 1 is -1 on a domain boundary.
type FaceInfo struct {
	Type       types.ElementType
	Volumes    [2]int
	LocalFaces [2]int
	// Nodes are the face vertices in the local order of side 0.
	Nodes []int
	Tag   string
}

func (fi *FaceInfo) Boundary() bool { return fi.Volumes[1] < 0 }

// Connectivity is the volume adjacency. Faces are numbered by first appearance in volume order.
type Connectivity struct {
	Elements *ElementSet
	VToV     [][]int    // neighbour volume per local face, -1 on a boundary
	VToLF    [][]int    // neighbour local face, -1 on a boundary
	VToF     [][]int    // unique face index
	VToBC    [][]string // boundary tag, empty for interior faces
	Faces    []FaceInfo
}

func NewConnectivity(data *Data, es *ElementSet) (conn *Connectivity, err error) {
	var (
		nv      = data.NVolumes()
		faceMap = make(map[types.FaceKey]int)
		bcMap   = make(map[types.FaceKey]string)
		matched = make(map[types.FaceKey]bool)
	)
	for _, be := range data.BoundaryEntities() {
		key := types.NewFaceKey(be.Nodes)
		if _, dup := bcMap[key]; dup {
			return nil, types.NewMeshFormatError("duplicate boundary entity %s", key)
		}
		bcMap[key] = be.Tag
	}
	conn = &Connectivity{
		Elements: es,
		VToV:     make([][]int, nv),
		VToLF:    make([][]int, nv),
		VToF:     make([][]int, nv),
		VToBC:    make([][]string, nv),
	}
	for v := 0; v < nv; v++ {
		var (
			vol = data.Volume(v)
			tp  = es.Topology(vol.Type)
			nf  = tp.NFaces()
		)
		conn.VToV[v], conn.VToLF[v], conn.VToF[v] = make([]int, nf), make([]int, nf), make([]int, nf)
		conn.VToBC[v] = make([]string, nf)
		for lf, fv := range tp.FaceVertices {
			nodes := make([]int, len(fv))
			for i, lv := range fv {
				nodes[i] = vol.Nodes[lv]
			}
			key := types.NewFaceKey(nodes)
			conn.VToV[v][lf], conn.VToLF[v][lf] = -1, -1
			if fid, exists := faceMap[key]; exists {
				fi := &conn.Faces[fid]
				if fi.Volumes[1] >= 0 {
					return nil, types.NewMeshFormatError("non-manifold face %s shared by volumes %d, %d and %d",
						key, fi.Volumes[0], fi.Volumes[1], v)
				}
				if _, tagged := bcMap[key]; tagged {
					return nil, types.NewMeshFormatError("boundary entity %s lies on interior face between volumes %d and %d",
						key, fi.Volumes[0], v)
				}
				fi.Volumes[1], fi.LocalFaces[1] = v, lf
				conn.VToV[v][lf], conn.VToLF[v][lf] = fi.Volumes[0], fi.LocalFaces[0]
				conn.VToV[fi.Volumes[0]][fi.LocalFaces[0]] = v
				conn.VToLF[fi.Volumes[0]][fi.LocalFaces[0]] = lf
				conn.VToF[v][lf] = fid
				continue
			}
			tag := bcMap[key]
			if _, ok := bcMap[key]; ok {
				matched[key] = true
			}
			faceMap[key] = len(conn.Faces)
			conn.VToF[v][lf] = len(conn.Faces)
			conn.VToBC[v][lf] = tag
			conn.Faces = append(conn.Faces, FaceInfo{
				Type:       tp.FaceTypes[lf],
				Volumes:    [2]int{v, -1},
				LocalFaces: [2]int{lf, -1},
				Nodes:      nodes,
				Tag:        tag,
			})
		}
	}
	for key := range bcMap {
		if !matched[key] {
			return nil, types.NewMeshFormatError("boundary entity %s matches no volume face", key)
		}
	}
	for fid := range conn.Faces {
		fi := &conn.Faces[fid]
		if fi.Boundary() {
			if _, ok := bcMap[types.NewFaceKey(fi.Nodes)]; !ok {
				return nil, types.NewMeshFormatError("face %v of volume %d has no neighbour and no boundary entity",
					fi.Nodes, fi.Volumes[0])
			}
		}
	}
	return
}

// NBoundaryFaces counts the faces on the domain boundary.
func (conn *Connectivity) NBoundaryFaces() (n int) {
	for i := range conn.Faces {
		if conn.Faces[i].Boundary() {
			n++
		}
	}
	return
}
