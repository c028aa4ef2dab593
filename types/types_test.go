package types

import (
	"errors"
	"testing"

	"github.com/ghodss/yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypes(t *testing.T) {
	{ // Face keys are independent of vertex order
		fk := NewFaceKey([]int{4, 0, 7, 3})
		assert.Equal(t, FaceKey("0:3:4:7"), fk)
		assert.Equal(t, fk, NewFaceKey([]int{3, 7, 0, 4}))
		assert.Equal(t, []int{0, 3, 4, 7}, fk.GetVertices())
		assert.Equal(t, FaceKey("12"), NewFaceKey([]int{12}))
		assert.Panics(t, func() { NewFaceKey([]int{-1, 2}) })
	}
	{ // Element types
		et, err := NewElementType("Tri")
		require.NoError(t, err)
		assert.Equal(t, Triangle, et)
		assert.Equal(t, 2, et.Dimension())
		assert.Equal(t, 3, Hex.Dimension())
		assert.Equal(t, 0, Point.Dimension())
		_, err = NewElementType("polygon")
		assert.True(t, errors.Is(err, ErrConfiguration))
	}
	{ // Text round trip through YAML
		type holder struct {
			Type ElementType `yaml:"Type"`
		}
		var h holder
		require.NoError(t, yaml.Unmarshal([]byte("Type: hex\n"), &h))
		assert.Equal(t, Hex, h.Type)
		out, err := yaml.Marshal(h)
		require.NoError(t, err)
		assert.Equal(t, "Type: hex\n", string(out))
	}
}

func TestEnums(t *testing.T) {
	p, err := NewPDE("Euler")
	require.NoError(t, err)
	assert.Equal(t, Euler, p)
	assert.Equal(t, 4, p.NVar(2))
	assert.Equal(t, 1, Advection.NVar(3))

	ft, err := NewFluxType("roe")
	require.NoError(t, err)
	assert.Equal(t, FLUX_RoePike, ft)
	assert.Equal(t, "roe_pike", ft.String())

	bf, err := NewBCFLAG("SlipWall")
	require.NoError(t, err)
	assert.Equal(t, BC_Slip, bf)
	_, err = NewBCFLAG("periodic")
	assert.ErrorIs(t, err, ErrConfiguration)

	s, err := NewScheme("")
	require.NoError(t, err)
	assert.Equal(t, DG, s)
	assert.Equal(t, AdaptType(103), H_REFINE)
	assert.Equal(t, "h_coarse", H_COARSE.String())
}

func TestErrorKinds(t *testing.T) {
	err := NewStructuralError("volume %d has non-leaf children", 3)
	assert.True(t, errors.Is(err, ErrStructural))
	assert.False(t, errors.Is(err, ErrMeshFormat))
	assert.Equal(t, "structural error: volume 3 has non-leaf children", err.Error())
}
