package types

import (
	"strings"
)

type BCFLAG uint8

const (
	BC_None BCFLAG = iota
	BC_In
	BC_Out
	BC_Slip
	BC_Riemann
	BC_SupersonicIn
	BC_SupersonicOut
	BC_BackPressure
)

var BCNameMap = map[string]BCFLAG{
	"inflow":             BC_In,
	"in":                 BC_In,
	"out":                BC_Out,
	"outflow":            BC_Out,
	"slip":               BC_Slip,
	"slipwall":           BC_Slip,
	"wall":               BC_Slip,
	"riemann":            BC_Riemann,
	"far":                BC_Riemann,
	"supersonic_inflow":  BC_SupersonicIn,
	"supersonic_outflow": BC_SupersonicOut,
	"back_pressure":      BC_BackPressure,
	"backpressure":       BC_BackPressure,
}

func NewBCFLAG(label string) (bf BCFLAG, err error) {
	var ok bool
	if bf, ok = BCNameMap[strings.ToLower(label)]; !ok {
		err = NewConfigurationError("unknown boundary condition type %q", label)
	}
	return
}

func (bf BCFLAG) String() string {
	return [...]string{"none", "inflow", "outflow", "slipwall", "riemann",
		"supersonic_inflow", "supersonic_outflow", "back_pressure"}[bf]
}

type PDE uint8

const (
	Advection PDE = iota
	Burgers
	Euler
)

var PDENameMap = map[string]PDE{
	"advection":        Advection,
	"burgers":          Burgers,
	"burgers_inviscid": Burgers,
	"euler":            Euler,
}

func NewPDE(label string) (p PDE, err error) {
	var ok bool
	if p, ok = PDENameMap[strings.ToLower(label)]; !ok {
		err = NewConfigurationError("unknown PDE %q", label)
	}
	return
}

func (p PDE) String() string {
	return [...]string{"advection", "burgers", "euler"}[p]
}

// NVar is the number of conserved variables for the equation set in dimension d.
func (p PDE) NVar(d int) int {
	if p == Euler {
		return d + 2
	}
	return 1
}

type Scheme uint8

const (
	DG Scheme = iota
	DPG
)

func NewScheme(label string) (s Scheme, err error) {
	switch strings.ToLower(label) {
	case "dg", "":
		s = DG
	case "dpg":
		s = DPG
	default:
		err = NewConfigurationError("unknown scheme %q", label)
	}
	return
}

func (s Scheme) String() string {
	return [...]string{"dg", "dpg"}[s]
}

type FluxType uint8

const (
	FLUX_LaxFriedrichs FluxType = iota
	FLUX_Upwind
	FLUX_RoePike
)

var FluxNameMap = map[string]FluxType{
	"lax_friedrichs": FLUX_LaxFriedrichs,
	"lax":            FLUX_LaxFriedrichs,
	"lf":             FLUX_LaxFriedrichs,
	"upwind":         FLUX_Upwind,
	"roe":            FLUX_RoePike,
	"roe_pike":       FLUX_RoePike,
}

func NewFluxType(label string) (ft FluxType, err error) {
	var ok bool
	if ft, ok = FluxNameMap[strings.ToLower(label)]; !ok {
		err = NewConfigurationError("unknown flux type %q", label)
	}
	return
}

func (ft FluxType) String() string {
	return [...]string{"lax_friedrichs", "upwind", "roe_pike"}[ft]
}

type AdaptType uint8

const (
	ADAPT_NONE AdaptType = 0
	P_REFINE   AdaptType = 101
	P_COARSE   AdaptType = 102
	H_REFINE   AdaptType = 103
	H_COARSE   AdaptType = 104
)

func (at AdaptType) String() string {
	switch at {
	case ADAPT_NONE:
		return "none"
	case P_REFINE:
		return "p_refine"
	case P_COARSE:
		return "p_coarse"
	case H_REFINE:
		return "h_refine"
	case H_COARSE:
		return "h_coarse"
	}
	return "unknown"
}

type TestNorm uint8

const (
	TestNormL2 TestNorm = iota
	TestNormNone
)

func NewTestNorm(label string) (tn TestNorm, err error) {
	switch strings.ToLower(label) {
	case "l2", "":
		tn = TestNormL2
	case "none":
		tn = TestNormNone
	default:
		err = NewConfigurationError("unknown DPG test norm %q", label)
	}
	return
}

// CubatureKind selects between overintegrated cubature and collocation at the solution nodes.
type CubatureKind uint8

const (
	CubatureGauss CubatureKind = iota
	CubatureCollocated
)

// GeomKind selects straight ('s') or curved ('c') operator sets.
type GeomKind byte

const (
	Straight GeomKind = 's'
	Curved   GeomKind = 'c'
)
