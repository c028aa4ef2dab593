package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/godpg/mesh"
	"github.com/notargets/godpg/types"
)

const channel = `
Title: Channel
PDE: euler
FluxType: roe
InitType: %s
PolynomialOrder: 1
PRefMax: 2
Minf: 0.4
Alpha: 5
AdaptStrategy: %s
BCs:
  left: {Type: riemann}
  right: {Type: back_pressure, Params: {p_back: 0.7}}
  bottom: {Type: slipwall}
  top: {Type: slipwall}
`

func writeCase(t *testing.T, element, init, strategy string) *Assembly {
	dir := t.TempDir()
	a := &Assembly{
		MeshFile:  filepath.Join(dir, "mesh.yaml"),
		InputFile: filepath.Join(dir, "input.yaml"),
	}
	var out bytes.Buffer
	g := &Generator{Element: element, NX: 2, NY: 2, Bounds: []float64{0, 2, 0, 1}}
	require.NoError(t, g.Write(a.MeshFile, &out))
	assert.Contains(t, out.String(), "wrote "+a.MeshFile)
	require.NoError(t, os.WriteFile(a.InputFile, []byte(fmt.Sprintf(channel, init, strategy)), 0644))
	return a
}

func TestGenerator(t *testing.T) {
	g := &Generator{Element: "tri", NX: 3, NY: 2, Bounds: []float64{0, 2, 0, 1}}
	data, err := g.Generate()
	require.NoError(t, err)
	assert.Equal(t, 2, data.Dimension)
	assert.Len(t, data.Nodes, 12)

	path := filepath.Join(t.TempDir(), "tri.yaml")
	var out bytes.Buffer
	require.NoError(t, g.Write(path, &out))
	assert.Contains(t, out.String(), "Volumes: 12")
	loaded, err := mesh.LoadData(path)
	require.NoError(t, err)
	assert.Equal(t, data.Nodes, loaded.Nodes)
	assert.Len(t, loaded.Entities, len(data.Entities))

	g = &Generator{Element: "line", NX: 5}
	data, err = g.Generate()
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, data.Nodes[5])

	for _, bad := range []*Generator{
		{Element: "tet", NX: 1, NY: 1, NZ: 1},
		{Element: "polygon", NX: 1},
		{Element: "quad", NX: 2, NY: 2, Bounds: []float64{0, 1}},
		{Element: "quad", NX: 2, NY: 2, Bounds: []float64{0, 1, 1, 1}},
		{Element: "hex", NX: 2, NY: 0, NZ: 2},
	} {
		_, err = bad.Generate()
		assert.Error(t, err, bad.Element)
	}
	_, err = (&Generator{Element: "quad", NX: 1, NY: 1, Bounds: []float64{1, 0, 0, 1}}).Generate()
	assert.True(t, errors.Is(err, types.ErrConfiguration))
}

func TestRunAssembly(t *testing.T) {
	a := writeCase(t, "quad", "freestream", "uniform_h")
	a.AdaptPasses = 1
	a.Metrics = true
	var out bytes.Buffer
	require.NoError(t, RunAssembly(a, &out))
	s := out.String()
	assert.Contains(t, s, "assembly 0: 4 volumes, 12 faces, 64 trial x 64 test")
	assert.Contains(t, s, "adaptation 1: split 4, merged 0")
	assert.Contains(t, s, "assembly 1: 16 volumes")
	assert.Contains(t, s, "godpg_assembly_passes_total 2")
	assert.Contains(t, s, `godpg_adaptations_total{type="h_refine"} 4`)
}

func TestRunAssemblyParallel(t *testing.T) {
	a := writeCase(t, "tri", "freestream", "none")
	a.ParallelDegree = 3
	var out bytes.Buffer
	require.NoError(t, RunAssembly(a, &out))
	assert.Contains(t, out.String(), "assembly 0: 8 volumes")
}

func TestRunAssemblyErrors(t *testing.T) {
	a := writeCase(t, "quad", "freestream", "none")
	a.Normal = true
	err := RunAssembly(a, &bytes.Buffer{})
	assert.True(t, errors.Is(err, types.ErrConfiguration))

	a = writeCase(t, "quad", "freestream", "adjoint")
	a.AdaptPasses = 1
	err = RunAssembly(a, &bytes.Buffer{})
	assert.True(t, errors.Is(err, types.ErrConfiguration))

	a = writeCase(t, "quad", "freestream", "none")
	a.MeshFile = filepath.Join(t.TempDir(), "missing.yaml")
	err = RunAssembly(a, &bytes.Buffer{})
	assert.True(t, errors.Is(err, types.ErrConfiguration))
}

func TestRunCheck(t *testing.T) {
	for _, element := range []string{"quad", "tri"} {
		t.Run(element, func(t *testing.T) {
			a := writeCase(t, element, "sine", "none")
			var out bytes.Buffer
			require.NoError(t, RunCheck(a, 7, 1e-8, &out))
			assert.Contains(t, out.String(), "relative error")
			// An impossible tolerance turns the comparison into a failure
			err := RunCheck(a, 7, -1, &bytes.Buffer{})
			assert.True(t, errors.Is(err, types.ErrNumericalDomain))
		})
	}
}
