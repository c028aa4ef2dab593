package InputParameters

import (
	"fmt"
	"os"
	"sort"

	"github.com/ghodss/yaml"

	"github.com/notargets/godpg/types"
)

// BCSpec names the boundary condition applied to one boundary tag and its parameters, e.g. p_back.
type BCSpec struct {
	Type   string             `yaml:"Type"`
	Params map[string]float64 `yaml:"Params"`
}

// Parameters obtained from the YAML input file
type Parameters struct {
	Title               string            `yaml:"Title"`
	PDE                 string            `yaml:"PDE"`
	Scheme              string            `yaml:"Scheme"`
	FluxType            string            `yaml:"FluxType"`
	InitType            string            `yaml:"InitType"`
	PolynomialOrder     int               `yaml:"PolynomialOrder"`
	PRefMin             int               `yaml:"PRefMin"`
	PRefMax             int               `yaml:"PRefMax"`
	Collocated          bool              `yaml:"Collocated"`
	Gamma               float64           `yaml:"Gamma"`
	Minf                float64           `yaml:"Minf"`
	Alpha               float64           `yaml:"Alpha"`
	AdvectionVelocity   []float64         `yaml:"AdvectionVelocity"`
	BCs                 map[string]BCSpec `yaml:"BCs"` // Keyed by boundary tag
	CurvedTags          []string          `yaml:"CurvedTags"`
	TestNorm            string            `yaml:"TestNorm"`
	DeltaPTest          int               `yaml:"DeltaPTest"`
	EnforceConservation bool              `yaml:"EnforceConservation"`
	ParallelDegree      int               `yaml:"ParallelDegree"`
	Partitioner         string            `yaml:"Partitioner"`
	CheckStates         bool              `yaml:"CheckStates"`
	AdaptStrategy       string            `yaml:"AdaptStrategy"`
}

func (ip *Parameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

// ReadFile parses a parameter file, a missing or malformed file is a ConfigurationError.
func ReadFile(path string) (ip *Parameters, err error) {
	var data []byte
	if data, err = os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrConfiguration, err)
	}
	ip = &Parameters{}
	if err = ip.Parse(data); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", types.ErrConfiguration, path, err)
	}
	return
}

// SetDefaults fills the fields left empty by the input file.
func (ip *Parameters) SetDefaults() {
	if ip.PDE == "" {
		ip.PDE = "euler"
	}
	if ip.FluxType == "" {
		ip.FluxType = "lax_friedrichs"
	}
	if ip.InitType == "" {
		ip.InitType = "freestream"
	}
	if ip.Gamma == 0 {
		ip.Gamma = 1.4
	}
	if ip.PRefMax < ip.PolynomialOrder {
		ip.PRefMax = ip.PolynomialOrder
	}
	if ip.ParallelDegree < 1 {
		ip.ParallelDegree = 1
	}
	if ip.Partitioner == "" {
		ip.Partitioner = "contiguous"
	}
	if ip.AdaptStrategy == "" {
		ip.AdaptStrategy = "none"
	}
}

func (ip *Parameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%s]\t\t\t= PDE\n", ip.PDE)
	fmt.Printf("[%s]\t\t\t= Scheme\n", ip.Scheme)
	fmt.Printf("[%s]\t\t= Flux Type\n", ip.FluxType)
	fmt.Printf("[%s]\t\t= InitType\n", ip.InitType)
	fmt.Printf("[%d]\t\t\t\t= Polynomial Order\n", ip.PolynomialOrder)
	fmt.Printf("[%d,%d]\t\t\t= Polynomial Order Range\n", ip.PRefMin, ip.PRefMax)
	fmt.Printf("%8.5f\t\t= Gamma\n", ip.Gamma)
	fmt.Printf("%8.5f\t\t= Minf\n", ip.Minf)
	fmt.Printf("%8.5f\t\t= Alpha\n", ip.Alpha)
	if len(ip.AdvectionVelocity) != 0 {
		fmt.Printf("%v\t\t= Advection Velocity\n", ip.AdvectionVelocity)
	}
	if ip.Scheme == "dpg" {
		fmt.Printf("[%s] +%d\t\t= Test Norm, Test Order Increment\n", ip.TestNorm, ip.DeltaPTest)
		fmt.Printf("%v\t\t\t= Enforce Conservation\n", ip.EnforceConservation)
	}
	fmt.Printf("[%d, %s]\t\t= Parallel Degree, Partitioner\n", ip.ParallelDegree, ip.Partitioner)
	keys := make([]string, len(ip.BCs))
	i := 0
	for k := range ip.BCs {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("BCs[%s] = %s %v\n", key, ip.BCs[key].Type, ip.BCs[key].Params)
	}
}
