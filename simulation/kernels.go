package simulation

import (
	"fmt"

	"github.com/notargets/godpg/flux"
)

// Kernels are the flux evaluators of a simulation instantiated over one scalar field.
type Kernels[T flux.Scalar] struct {
	Phys    flux.Physics[T]
	NumFlux flux.NumericalFlux[T]
	BCs     map[string]flux.BoundaryCondition[T]
}

func NewKernels[T flux.Scalar](s *Simulation) (k *Kernels[T], err error) {
	k = &Kernels[T]{BCs: make(map[string]flux.BoundaryCondition[T])}
	if k.Phys, err = flux.NewPhysics[T](s.PDE, s.Dim, s.Gamma, s.AdvectionVelocity); err != nil {
		return nil, err
	}
	if k.NumFlux, err = flux.NewNumericalFlux[T](s.FluxType, k.Phys); err != nil {
		return nil, err
	}
	free := s.FreeState()
	for tag, spec := range s.BCs {
		var bc flux.BoundaryCondition[T]
		if bc, err = flux.NewBoundaryCondition[T](spec.Kind, k.Phys, spec.Params, free); err != nil {
			return nil, fmt.Errorf("boundary %q: %w", tag, err)
		}
		k.BCs[tag] = bc
	}
	return
}
