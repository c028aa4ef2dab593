/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/notargets/godpg/mesh"
	"github.com/notargets/godpg/operators"
	"github.com/notargets/godpg/types"
)

// MeshCmd represents the mesh command
var MeshCmd = &cobra.Command{
	Use:   "mesh",
	Short: "Generate a structured mesh file",
	Long: `
Writes a structured line, quad, triangle or hex mesh in the YAML mesh format
read by the assemble and check commands. Boundary tags are left and right in
1D, plus bottom and top in 2D, plus front and back in 3D.

godpg mesh -e tri -x 8 -y 4 -b 0,2,0,1 -o channel.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		g := &Generator{}
		g.Element, _ = cmd.Flags().GetString("element")
		g.NX, _ = cmd.Flags().GetInt("nx")
		g.NY, _ = cmd.Flags().GetInt("ny")
		g.NZ, _ = cmd.Flags().GetInt("nz")
		g.Bounds, _ = cmd.Flags().GetFloat64Slice("bounds")
		out, _ := cmd.Flags().GetString("output")
		if err := g.Write(out, os.Stdout); err != nil {
			fmt.Printf("error: %s\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(MeshCmd)
	MeshCmd.Flags().StringP("element", "e", "quad", "element type: line, quad, tri or hex")
	MeshCmd.Flags().IntP("nx", "x", 4, "elements along x")
	MeshCmd.Flags().IntP("ny", "y", 4, "elements along y")
	MeshCmd.Flags().IntP("nz", "z", 4, "elements along z")
	MeshCmd.Flags().Float64SliceP("bounds", "b", nil, "xmin,xmax[,ymin,ymax[,zmin,zmax]], unit domain by default")
	MeshCmd.Flags().StringP("output", "o", "mesh.yaml", "mesh file to write")
}

// Generator describes a structured mesh.
type Generator struct {
	Element    string
	NX, NY, NZ int
	Bounds     []float64
}

func (g *Generator) Generate() (data *mesh.Data, err error) {
	var et types.ElementType
	if et, err = types.NewElementType(g.Element); err != nil {
		return
	}
	dim := et.Dimension()
	if dim < 1 {
		return nil, types.NewConfigurationError("cannot generate a mesh of %s elements", et)
	}
	bounds := g.Bounds
	if len(bounds) == 0 {
		for d := 0; d < dim; d++ {
			bounds = append(bounds, 0, 1)
		}
	}
	if len(bounds) != 2*dim {
		return nil, types.NewConfigurationError("%s mesh needs %d bounds, have %d", et, 2*dim, len(bounds))
	}
	for d := 0; d < dim; d++ {
		if bounds[2*d+1] <= bounds[2*d] {
			return nil, types.NewConfigurationError("empty extent [%g,%g] in direction %d",
				bounds[2*d], bounds[2*d+1], d)
		}
	}
	n := []int{g.NX, g.NY, g.NZ}
	for d := 0; d < dim; d++ {
		if n[d] < 1 {
			return nil, types.NewConfigurationError("need at least one element in direction %d", d)
		}
	}
	switch et {
	case types.Line:
		data = mesh.GenerateLine(g.NX, bounds[0], bounds[1])
	case types.Quad, types.Triangle:
		data = mesh.GenerateRectangle(g.NX, g.NY, bounds[0], bounds[1], bounds[2], bounds[3], et)
	case types.Hex:
		data = mesh.GenerateBox(g.NX, g.NY, g.NZ,
			[]float64{bounds[0], bounds[2], bounds[4]}, []float64{bounds[1], bounds[3], bounds[5]})
	default:
		return nil, types.NewConfigurationError("no structured generator for %s elements", et)
	}
	return
}

// Write generates the mesh, checks that it builds, prints its statistics to w and saves it to path.
func (g *Generator) Write(path string, w io.Writer) (err error) {
	var (
		data *mesh.Data
		m    *mesh.Mesh
	)
	if data, err = g.Generate(); err != nil {
		return
	}
	if m, err = mesh.Build(&mesh.Input{Data: data}, operators.NewCatalog(1)); err != nil {
		return
	}
	m.PrintStatistics(w)
	m.Destroy()
	if err = data.Save(path); err != nil {
		return
	}
	fmt.Fprintf(w, "wrote %s\n", path)
	return
}
