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

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/godpg/InputParameters"
	"github.com/notargets/godpg/adaptation"
	"github.com/notargets/godpg/elements"
	"github.com/notargets/godpg/mesh"
	"github.com/notargets/godpg/simulation"
	"github.com/notargets/godpg/solver"
	"github.com/notargets/godpg/types"
)

// AssembleCmd represents the assemble command
var AssembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Assemble the residual and Jacobian of a mesh and input file",
	Long: `
Builds the simulation from a mesh file and an input parameters file, assembles
the residual and its Jacobian, then optionally adapts the mesh with the
AdaptStrategy of the input file and assembles again after every pass.

godpg assemble -M mesh.yaml -I input.yaml -a 2`,
	Run: func(cmd *cobra.Command, args []string) {
		a := &Assembly{}
		a.MeshFile, _ = cmd.Flags().GetString("meshFile")
		a.InputFile, _ = cmd.Flags().GetString("inputParametersFile")
		a.AdaptPasses, _ = cmd.Flags().GetInt("adaptPasses")
		a.Normal, _ = cmd.Flags().GetBool("normal")
		a.Metrics, _ = cmd.Flags().GetBool("metrics")
		a.Verbose, _ = cmd.Flags().GetBool("verbose")
		a.ParallelDegree = viper.GetInt("parallel")
		if err := RunAssembly(a, os.Stdout); err != nil {
			fmt.Printf("error: %s\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(AssembleCmd)
	addSetupFlags(AssembleCmd)
	AssembleCmd.Flags().IntP("adaptPasses", "a", 0, "number of adaptation passes following the first assembly")
	AssembleCmd.Flags().BoolP("normal", "n", false, "form the DPG normal equations, needs Scheme: dpg")
	AssembleCmd.Flags().Bool("metrics", false, "print the collected metrics after the run")
}

func addSetupFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("meshFile", "M", "", "mesh YAML file, see the mesh command")
	cmd.Flags().StringP("inputParametersFile", "I", "", "input parameters YAML file")
	cmd.Flags().BoolP("verbose", "v", false, "log construction and assembly")
	_ = cmd.MarkFlagRequired("meshFile")
	_ = cmd.MarkFlagRequired("inputParametersFile")
}

// Assembly holds the options of one command line run.
type Assembly struct {
	MeshFile, InputFile string
	AdaptPasses         int
	Normal              bool
	Metrics             bool
	Verbose             bool
	ParallelDegree      int // Zero keeps the input file value
}

// Setup reads the input files and builds the simulation and its containers.
func (a *Assembly) Setup(w io.Writer) (sim *simulation.Simulation, c *elements.Containers, err error) {
	var ip *InputParameters.Parameters
	if ip, err = InputParameters.ReadFile(a.InputFile); err != nil {
		return
	}
	if a.ParallelDegree > 0 {
		ip.ParallelDegree = a.ParallelDegree
	}
	var opts []simulation.Option
	if !a.Verbose {
		opts = append(opts, simulation.Quiet())
	}
	if sim, err = simulation.New(ip, &mesh.Input{FileName: a.MeshFile}, opts...); err != nil {
		return
	}
	if a.Verbose {
		ip.Print()
		sim.Mesh.PrintStatistics(w)
	}
	if c, err = elements.NewContainers(sim); err != nil {
		sim.Mesh.Destroy()
		return nil, nil, err
	}
	return
}

func (a *Assembly) release(sim *simulation.Simulation, c *elements.Containers) {
	c.Destroy()
	sim.Mesh.Destroy()
}

// RunAssembly assembles, adapts and reassembles, writing one summary line per assembly to w.
func RunAssembly(a *Assembly, w io.Writer) (err error) {
	var (
		sim *simulation.Simulation
		c   *elements.Containers
	)
	if sim, c, err = a.Setup(w); err != nil {
		return
	}
	defer a.release(sim, c)
	if a.Normal && sim.Scheme != types.DPG {
		return types.NewConfigurationError("normal equations need the dpg scheme, have %s", sim.Scheme)
	}
	var (
		asm = solver.NewAssembler(sim, c)
		drv = adaptation.NewDriver(sim, c)
	)
	for pass := 0; ; pass++ {
		var sys *solver.System
		if a.Normal {
			sys, err = asm.AssembleDPG()
		} else {
			sys, err = asm.Assemble(true)
		}
		if err != nil {
			return
		}
		printSystem(w, pass, c, sys)
		if pass == a.AdaptPasses {
			break
		}
		var indicator func(sv *elements.SolverVolume) types.AdaptType
		if indicator, err = adaptation.Indicator(sim.Params.AdaptStrategy, c); err != nil {
			return
		}
		drv.MarkByIndicator(indicator)
		// Failed transitions are skipped by the driver and listed in the report
		report, _ := drv.Adapt()
		fmt.Fprintf(w, "adaptation %d: %s\n", pass+1, report)
		for _, e := range report.Errors {
			fmt.Fprintf(w, "    %s\n", e)
		}
	}
	if a.Metrics {
		err = writeMetrics(w, sim)
	}
	return
}

func printSystem(w io.Writer, pass int, c *elements.Containers, sys *solver.System) {
	var nnz int
	if sys.LHS != nil {
		nnz = sys.LHS.NNZ()
	}
	fmt.Fprintf(w, "assembly %d: %d volumes, %d faces, %d trial x %d test, |RHS| = %10.4e, LHS nnz %d\n",
		pass, c.ActiveVolumes.Len(), c.ActiveFaces.Len(), sys.NTrial, sys.NTest, floats.Norm(sys.RHS, 2), nnz)
}

func writeMetrics(w io.Writer, sim *simulation.Simulation) (err error) {
	mfs, err := sim.Registry.Gather()
	if err != nil {
		return
	}
	for _, mf := range mfs {
		if _, err = expfmt.MetricFamilyToText(w, mf); err != nil {
			return
		}
	}
	return
}
