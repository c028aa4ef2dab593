package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type ElementType uint8

const (
	Point ElementType = iota
	Line
	Triangle
	Quad
	Tet
	Hex
	Prism
	Pyramid
)

var ElementTypeNameMap = map[string]ElementType{
	"point":    Point,
	"line":     Line,
	"tri":      Triangle,
	"triangle": Triangle,
	"quad":     Quad,
	"tet":      Tet,
	"hex":      Hex,
	"prism":    Prism,
	"wedge":    Prism,
	"pyramid":  Pyramid,
}

var elementTypeNames = []string{"point", "line", "tri", "quad", "tet", "hex", "prism", "pyramid"}

func (et ElementType) String() string {
	if int(et) < len(elementTypeNames) {
		return elementTypeNames[et]
	}
	return "ElementType(" + strconv.Itoa(int(et)) + ")"
}

// Dimension is the topological dimension of the element.
func (et ElementType) Dimension() int {
	switch et {
	case Point:
		return 0
	case Line:
		return 1
	case Triangle, Quad:
		return 2
	default:
		return 3
	}
}

func NewElementType(label string) (et ElementType, err error) {
	var ok bool
	if et, ok = ElementTypeNameMap[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = NewConfigurationError("unknown element type %q", label)
	}
	return
}

func (et ElementType) MarshalText() ([]byte, error) {
	return []byte(et.String()), nil
}

func (et *ElementType) UnmarshalText(text []byte) (err error) {
	*et, err = NewElementType(string(text))
	return
}

/*
FaceKey identifies a face by its vertex indices independent of their order, so the two volumes sharing a face
compute the same key from their own local vertex ordering.
*/
type FaceKey string

func NewFaceKey(verts []int) FaceKey {
	var (
		sorted = make([]int, len(verts))
		sb     strings.Builder
	)
	copy(sorted, verts)
	sort.Ints(sorted)
	for i, v := range sorted {
		if v < 0 {
			panic(fmt.Errorf("negative vertex index %d in face key", v))
		}
		if i != 0 {
			sb.WriteByte(':')
		}
		sb.WriteString(strconv.Itoa(v))
	}
	return FaceKey(sb.String())
}

func (fk FaceKey) GetVertices() (verts []int) {
	for _, s := range strings.Split(string(fk), ":") {
		v, err := strconv.Atoi(s)
		if err != nil {
			panic(err)
		}
		verts = append(verts, v)
	}
	return
}
