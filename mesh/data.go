package mesh

import (
	"fmt"
	"os"
	"sort"

	"github.com/ghodss/yaml"
	"github.com/notargets/godpg/geometry"
	"github.com/notargets/godpg/types"
)

// Entity is one mesh primitive: a volume when its dimension equals the mesh dimension, a boundary entity when
// it is one dimension lower. Tag names the boundary or physical group.
type Entity struct {
	Type  types.ElementType `yaml:"Type"`
	Nodes []int             `yaml:"Nodes"`
	Tag   string            `yaml:"Tag"`
}

// Data is the raw mesh: node coordinates and entities sorted by increasing dimension.
type Data struct {
	Dimension  int         `yaml:"Dimension"`
	Nodes      [][]float64 `yaml:"Nodes"`
	ElemPerDim []int       `yaml:"ElemPerDim,omitempty"`
	Entities   []Entity    `yaml:"Entities"`
}

// Input names the raw mesh source, either in memory or a YAML file, and the boundary tags treated as curved.
type Input struct {
	Data       *Data
	FileName   string
	CurvedTags []string
}

func LoadData(path string) (data *Data, err error) {
	var b []byte
	if b, err = os.ReadFile(path); err != nil {
		return nil, types.NewConfigurationError("unable to read mesh input %q: %v", path, err)
	}
	data = &Data{}
	if err = yaml.Unmarshal(b, data); err != nil {
		return nil, types.NewConfigurationError("unable to decode mesh input %q: %v", path, err)
	}
	return
}

func (d *Data) Save(path string) (err error) {
	var b []byte
	if b, err = yaml.Marshal(d); err != nil {
		return
	}
	return os.WriteFile(path, b, 0644)
}

/*
NewData validates raw mesh data and returns a normalized copy: entities stably sorted by dimension and the
per-dimension entity counts filled in. Errors are MeshFormatErrors.
*/
func NewData(raw *Data) (data *Data, err error) {
	if raw == nil {
		return nil, types.NewConfigurationError("no mesh data")
	}
	if raw.Dimension < 1 || raw.Dimension > 3 {
		return nil, types.NewMeshFormatError("unsupported mesh dimension %d", raw.Dimension)
	}
	data = &Data{
		Dimension:  raw.Dimension,
		Nodes:      make([][]float64, len(raw.Nodes)),
		ElemPerDim: make([]int, raw.Dimension+1),
		Entities:   make([]Entity, len(raw.Entities)),
	}
	for i, x := range raw.Nodes {
		if len(x) != raw.Dimension {
			return nil, types.NewMeshFormatError("node %d has %d coordinates in a %dD mesh", i, len(x), raw.Dimension)
		}
		data.Nodes[i] = append([]float64(nil), x...)
	}
	for i, e := range raw.Entities {
		tp, ok := geometry.Lookup(e.Type)
		if !ok {
			return nil, types.NewMeshFormatError("entity %d has unknown type %s", i, e.Type)
		}
		if dim := e.Type.Dimension(); dim > raw.Dimension {
			return nil, types.NewMeshFormatError("entity %d of type %s exceeds mesh dimension %d",
				i, e.Type, raw.Dimension)
		}
		if len(e.Nodes) != tp.NVerts() {
			return nil, types.NewMeshFormatError("entity %d of type %s has %d nodes, expected %d",
				i, e.Type, len(e.Nodes), tp.NVerts())
		}
		for _, n := range e.Nodes {
			if n < 0 || n >= len(raw.Nodes) {
				return nil, types.NewMeshFormatError("entity %d references vertex %d, have %d vertices",
					i, n, len(raw.Nodes))
			}
		}
		data.Entities[i] = Entity{Type: e.Type, Nodes: append([]int(nil), e.Nodes...), Tag: e.Tag}
		data.ElemPerDim[e.Type.Dimension()]++
	}
	sort.SliceStable(data.Entities, func(i, j int) bool {
		return data.Entities[i].Type.Dimension() < data.Entities[j].Type.Dimension()
	})
	if data.NVolumes() == 0 {
		return nil, types.NewMeshFormatError("mesh has no %dD volumes", raw.Dimension)
	}
	return
}

func (d *Data) NVolumes() int { return d.ElemPerDim[d.Dimension] }

// Volume returns the v-th volume entity.
func (d *Data) Volume(v int) Entity {
	return d.Entities[FirstVolumeIndex(d.ElemPerDim, d.Dimension)+v]
}

// BoundaryEntities are the entities one dimension below the mesh dimension.
func (d *Data) BoundaryEntities() []Entity {
	var (
		i0 = FirstVolumeIndex(d.ElemPerDim, d.Dimension-1)
		i1 = FirstVolumeIndex(d.ElemPerDim, d.Dimension)
	)
	return d.Entities[i0:i1]
}

func (d *Data) String() string {
	return fmt.Sprintf("%dD mesh: %d nodes, entities per dimension %v", d.Dimension, len(d.Nodes), d.ElemPerDim)
}
