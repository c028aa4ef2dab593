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
	"github.com/spf13/viper"

	"github.com/notargets/godpg/solver"
	"github.com/notargets/godpg/types"
)

// CheckCmd represents the check command
var CheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Compare the assembled Jacobian with a complex-step derivative of the residual",
	Long: `
Assembles the Jacobian, then evaluates the residual with complex coefficients
perturbed by i*h along a random direction. Im(R)/h must match LHS times the
direction for every flux, boundary condition and element type in the mesh.

godpg check -M mesh.yaml -I input.yaml -t 1e-8`,
	Run: func(cmd *cobra.Command, args []string) {
		a := &Assembly{}
		a.MeshFile, _ = cmd.Flags().GetString("meshFile")
		a.InputFile, _ = cmd.Flags().GetString("inputParametersFile")
		a.Verbose, _ = cmd.Flags().GetBool("verbose")
		a.ParallelDegree = viper.GetInt("parallel")
		seed, _ := cmd.Flags().GetInt64("seed")
		tol, _ := cmd.Flags().GetFloat64("tolerance")
		if err := RunCheck(a, seed, tol, os.Stdout); err != nil {
			fmt.Printf("error: %s\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(CheckCmd)
	addSetupFlags(CheckCmd)
	CheckCmd.Flags().Int64P("seed", "s", 1, "seed of the random direction")
	CheckCmd.Flags().Float64P("tolerance", "t", 1e-8, "largest relative error accepted")
}

// RunCheck fails with a NumericalDomainError when the relative error exceeds tol.
func RunCheck(a *Assembly, seed int64, tol float64, w io.Writer) (err error) {
	sim, c, err := a.Setup(w)
	if err != nil {
		return
	}
	defer a.release(sim, c)
	var jc solver.JacobianCheck
	if jc, err = solver.NewAssembler(sim, c).CheckJacobian(seed); err != nil {
		return
	}
	fmt.Fprintf(w, "%s %s %s: relative error %10.4e, real part error %10.4e, |LHS v| = %10.4e\n",
		sim.PDE, sim.Scheme, sim.FluxType, jc.RelErr, jc.RealErr, jc.Norm)
	if jc.RelErr > tol {
		return types.NewNumericalDomainError("jacobian relative error %g exceeds %g", jc.RelErr, tol)
	}
	return
}
