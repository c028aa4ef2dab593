package simulation

import (
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"sort"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/notargets/godpg/InputParameters"
	"github.com/notargets/godpg/flux"
	"github.com/notargets/godpg/mesh"
	"github.com/notargets/godpg/operators"
	"github.com/notargets/godpg/types"
)

// BoundarySpec is the resolved condition of one boundary tag.
type BoundarySpec struct {
	Kind   types.BCFLAG
	Params map[string]float64
}

// Simulation is the read-only context handed to every constructor and pass.
type Simulation struct {
	Params            *InputParameters.Parameters
	PDE               types.PDE
	Scheme            types.Scheme
	FluxType          types.FluxType
	Dim, NVar         int
	Collocated        bool
	CubKind           types.CubatureKind
	TestNorm          types.TestNorm
	PRef              int
	PRefMin, PRefMax  int
	DeltaPTest        int
	Gamma             float64
	AdvectionVelocity []float64
	Mesh              *mesh.Mesh
	Catalog           *operators.Catalog
	BCs               map[string]BoundarySpec
	Logger            *log.Logger
	Metrics           *Metrics
	Registry          *prometheus.Registry
	RunID             uuid.UUID
}

type Option func(s *Simulation)

func WithLogger(logger *log.Logger) Option {
	return func(s *Simulation) { s.Logger = logger }
}

// WithRegistry registers the metrics with reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Simulation) { s.Registry = reg }
}

// Quiet discards log output.
func Quiet() Option {
	return WithLogger(log.New(io.Discard, "", 0))
}

/*
New validates the parameters, builds the operator catalog and the mesh, and resolves the boundary condition of
every boundary tag. Any failure is returned as a ConfigurationError or MeshFormatError and nothing is kept.
*/
func New(params *InputParameters.Parameters, input *mesh.Input, opts ...Option) (sim *Simulation, err error) {
	if params == nil {
		return nil, types.NewConfigurationError("no input parameters")
	}
	params.SetDefaults()
	s := &Simulation{
		Params:     params,
		Collocated: params.Collocated,
		PRef:       params.PolynomialOrder,
		PRefMin:    params.PRefMin,
		PRefMax:    params.PRefMax,
		DeltaPTest: params.DeltaPTest,
		Gamma:      params.Gamma,
		RunID:      uuid.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Logger == nil {
		s.Logger = log.New(os.Stderr, "godpg: ", log.LstdFlags)
	}
	if s.Registry == nil {
		s.Registry = prometheus.NewRegistry()
	}
	if s.PDE, err = types.NewPDE(params.PDE); err != nil {
		return
	}
	if s.Scheme, err = types.NewScheme(params.Scheme); err != nil {
		return
	}
	if s.FluxType, err = types.NewFluxType(params.FluxType); err != nil {
		return
	}
	if s.TestNorm, err = types.NewTestNorm(params.TestNorm); err != nil {
		return
	}
	if err = s.checkOrders(); err != nil {
		return
	}
	if s.Collocated {
		s.CubKind = types.CubatureCollocated
	}
	s.Catalog = operators.NewCatalog(s.PRefMax)

	if input == nil {
		return nil, types.NewConfigurationError("no mesh input")
	}
	if len(input.CurvedTags) == 0 {
		input.CurvedTags = params.CurvedTags
	}
	if s.Mesh, err = mesh.Build(input, s.Catalog); err != nil {
		return
	}
	s.Dim = s.Mesh.Dimension()
	s.NVar = s.PDE.NVar(s.Dim)
	s.AdvectionVelocity = params.AdvectionVelocity
	if s.PDE == types.Advection && len(s.AdvectionVelocity) == 0 {
		s.AdvectionVelocity = make([]float64, s.Dim)
		s.AdvectionVelocity[0] = 1
	}
	if err = s.resolveBCs(); err != nil {
		s.Mesh.Destroy()
		return
	}
	// Every kernel must be constructible before anything is assembled
	if _, err = NewKernels[float64](s); err != nil {
		s.Mesh.Destroy()
		return
	}
	s.Metrics = NewMetrics(s.Registry)
	s.Logger.Printf("run %s: %s %s, flux %s, %dD, P=%d [%d,%d], %d volumes",
		s.RunID, s.PDE, s.Scheme, s.FluxType, s.Dim, s.PRef, s.PRefMin, s.PRefMax, s.Mesh.NVolumes())
	return s, nil
}

func (s *Simulation) checkOrders() error {
	switch {
	case s.PRef < 0:
		return types.NewConfigurationError("polynomial order %d is negative", s.PRef)
	case s.PRefMin < 0 || s.PRefMin > s.PRef || s.PRef > s.PRefMax:
		return types.NewConfigurationError("polynomial order %d is outside [%d,%d]", s.PRef, s.PRefMin, s.PRefMax)
	case s.DeltaPTest < 0 || s.DeltaPTest > operators.MaxTestIncrement:
		return types.NewConfigurationError("test order increment %d is outside [0,%d]",
			s.DeltaPTest, operators.MaxTestIncrement)
	case s.Collocated && s.DeltaPTest != 0 && s.Scheme == types.DPG:
		return types.NewConfigurationError("collocation requires equal trial and test orders")
	}
	return nil
}

func (s *Simulation) resolveBCs() (err error) {
	s.BCs = make(map[string]BoundarySpec)
	for _, fi := range s.Mesh.Conn.Faces {
		if !fi.Boundary() {
			continue
		}
		if _, done := s.BCs[fi.Tag]; done {
			continue
		}
		name := fi.Tag
		spec, ok := s.Params.BCs[fi.Tag]
		if ok {
			name = spec.Type
		}
		var kind types.BCFLAG
		if kind, err = types.NewBCFLAG(name); err != nil {
			return fmt.Errorf("boundary %q: %w", fi.Tag, err)
		}
		s.BCs[fi.Tag] = BoundarySpec{Kind: kind, Params: spec.Params}
	}
	return
}

// BoundaryTags lists the resolved boundary tags in sorted order.
func (s *Simulation) BoundaryTags() (tags []string) {
	for tag := range s.BCs {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return
}

// FreeState is the reference state: the Euler free stream, or unit value for scalar equations.
func (s *Simulation) FreeState() []float64 {
	if s.PDE == types.Euler {
		return flux.FreestreamState(s.Dim, s.Gamma, s.Params.Minf, s.Params.Alpha)
	}
	return []float64{1}
}

// InitialState is the state at physical point x selected by InitType.
func (s *Simulation) InitialState(x []float64) (w []float64) {
	w = s.FreeState()
	if s.Params.InitType != "sine" {
		return
	}
	var arg float64
	for _, xk := range x {
		arg += xk
	}
	amp := 1 + 0.2*math.Sin(math.Pi*arg)
	if s.PDE != types.Euler {
		w[0] *= amp
		return
	}
	// Density perturbation at constant velocity and pressure
	d := s.Dim
	var KE float64
	for k := 0; k < d; k++ {
		KE += 0.5 * w[1+k] * w[1+k] / w[0]
	}
	pe := w[d+1] - KE
	for v := 0; v <= d; v++ {
		w[v] *= amp
	}
	w[d+1] = pe + amp*KE
	return
}

// OrderRange clamps p into the allowed adaptation range.
func (s *Simulation) OrderRange(p int) int {
	return max(s.PRefMin, min(p, s.PRefMax))
}
