package operators

import (
	"sort"
	"sync"

	"github.com/notargets/godpg/types"
	"github.com/notargets/godpg/utils"
)

// Element is a nodal Lagrange element of order P built on the orthonormal modal basis.
type Element struct {
	Type    types.ElementType
	P, Np   int
	Nodes   [][]float64
	V, Vinv utils.Matrix
}

func newElement(et types.ElementType, p int) (el *Element) {
	el = &Element{
		Type:  et,
		P:     p,
		Np:    NumModes(et, p),
		Nodes: SolutionNodes(et, p),
	}
	el.V = Vandermonde(et, p, el.Nodes)
	el.V.SetReadOnly("V")
	el.Vinv = el.V.InverseWithCheck()
	el.Vinv.SetReadOnly("Vinv")
	return
}

// Interpolation returns the matrix taking nodal values to values at pts.
func (el *Element) Interpolation(pts [][]float64) utils.Matrix {
	return Vandermonde(el.Type, el.P, pts).Mul(el.Vinv)
}

// Gradients returns the matrices taking nodal values to reference derivatives at pts.
func (el *Element) Gradients(pts [][]float64) (D []utils.Matrix) {
	Vr := GradVandermonde(el.Type, el.P, pts)
	D = make([]utils.Matrix, len(Vr))
	for k := range Vr {
		D[k] = Vr[k].Mul(el.Vinv)
	}
	return
}

// VolumeOperators are the cubature and interpolation operators for one (type, order, test order, kind) key.
type VolumeOperators struct {
	Trial, Test *Element
	Kind        types.CubatureKind
	Geom        types.GeomKind
	Cub         *Cubature
	// I interpolates trial nodal values to the cubature points; the identity when collocated.
	I          utils.Matrix
	Collocated bool
	TestI      utils.Matrix
	TestD      []utils.Matrix
}

type elementKey struct {
	et types.ElementType
	p  int
}

type volumeKey struct {
	et       types.ElementType
	p, pTest int
	kind     types.CubatureKind
	geom     types.GeomKind
}

type faceKey struct {
	et    types.ElementType
	order int
	kind  types.CubatureKind
	geom  types.GeomKind
}

// MaxTestIncrement bounds the order increase of the DPG test space.
const MaxTestIncrement = 3

// Catalog builds and caches reference operators. It is safe for concurrent use.
type Catalog struct {
	PMax      int
	supported map[types.ElementType]bool
	mu        sync.Mutex
	elements  map[elementKey]*Element
	volumes   map[volumeKey]*VolumeOperators
	faces     map[faceKey]*Cubature
}

var DefaultElementTypes = []types.ElementType{types.Line, types.Triangle, types.Quad, types.Hex}

func NewCatalog(pMax int, ets ...types.ElementType) (c *Catalog) {
	if len(ets) == 0 {
		ets = DefaultElementTypes
	}
	c = &Catalog{
		PMax:      pMax,
		supported: make(map[types.ElementType]bool),
		elements:  make(map[elementKey]*Element),
		volumes:   make(map[volumeKey]*VolumeOperators),
		faces:     make(map[faceKey]*Cubature),
	}
	for _, et := range ets {
		c.supported[et] = true
	}
	return
}

func (c *Catalog) Supports(et types.ElementType) bool {
	return c.supported[et]
}

func (c *Catalog) Types() (ets []types.ElementType) {
	for et := range c.supported {
		ets = append(ets, et)
	}
	sort.Slice(ets, func(i, j int) bool { return ets[i] < ets[j] })
	return
}

func (c *Catalog) Element(et types.ElementType, p int) (el *Element, err error) {
	if !c.supported[et] {
		return nil, types.NewConfigurationError("element type %s is not in the catalog", et)
	}
	if p < 0 || p > c.PMax+MaxTestIncrement {
		return nil, types.NewConfigurationError("order %d is outside the catalog range [0,%d]", p, c.PMax+MaxTestIncrement)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.element(et, p), nil
}

func (c *Catalog) element(et types.ElementType, p int) (el *Element) {
	key := elementKey{et, p}
	var ok bool
	if el, ok = c.elements[key]; !ok {
		el = newElement(et, p)
		c.elements[key] = el
	}
	return
}

func (c *Catalog) Volume(et types.ElementType, p, pTest int, kind types.CubatureKind,
	geom types.GeomKind) (vo *VolumeOperators, err error) {
	if !c.supported[et] {
		return nil, types.NewConfigurationError("element type %s is not in the catalog", et)
	}
	if p < 0 || p > c.PMax {
		return nil, types.NewConfigurationError("trial order %d is outside the catalog range [0,%d]", p, c.PMax)
	}
	if pTest < p || pTest > p+MaxTestIncrement {
		return nil, types.NewConfigurationError("test order %d is invalid for trial order %d", pTest, p)
	}
	if kind == types.CubatureCollocated {
		if et == types.Triangle {
			return nil, types.NewConfigurationError("collocation is only available for tensor product elements")
		}
		if pTest != p {
			return nil, types.NewConfigurationError("collocation requires equal trial and test orders")
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := volumeKey{et, p, pTest, kind, geom}
	var ok bool
	if vo, ok = c.volumes[key]; ok {
		return
	}
	vo = &VolumeOperators{
		Trial: c.element(et, p),
		Test:  c.element(et, pTest),
		Kind:  kind,
		Geom:  geom,
	}
	n := cubatureCount(pTest, geom)
	if kind == types.CubatureCollocated && geom == types.Straight {
		vo.Cub = LobattoCubature(et, p+1)
		vo.Collocated = true
		vo.I = utils.NewIdentity(vo.Trial.Np)
	} else {
		vo.Cub = GaussCubature(et, n)
		vo.I = vo.Trial.Interpolation(vo.Cub.Points)
	}
	vo.TestI = vo.Test.Interpolation(vo.Cub.Points)
	vo.TestD = vo.Test.Gradients(vo.Cub.Points)
	c.volumes[key] = vo
	return
}

// Face returns the reference cubature for a face of the given type whose highest neighbouring order is order.
func (c *Catalog) Face(faceType types.ElementType, order int, kind types.CubatureKind,
	geom types.GeomKind) (cub *Cubature, err error) {
	switch faceType {
	case types.Point, types.Line, types.Quad, types.Triangle:
	default:
		return nil, types.NewConfigurationError("no face cubature for %s faces", faceType)
	}
	if kind == types.CubatureCollocated && faceType == types.Triangle {
		return nil, types.NewConfigurationError("collocation is only available for tensor product faces")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := faceKey{faceType, order, kind, geom}
	var ok bool
	if cub, ok = c.faces[key]; ok {
		return
	}
	if kind == types.CubatureCollocated && geom == types.Straight {
		cub = LobattoCubature(faceType, order+1)
	} else {
		cub = GaussCubature(faceType, cubatureCount(order, geom))
	}
	c.faces[key] = cub
	return
}

func cubatureCount(order int, geom types.GeomKind) int {
	if geom == types.Curved {
		return order + 2
	}
	return order + 1
}
