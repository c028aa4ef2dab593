package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// DOK is the accumulation format for global operators: entries are added block by block in a fixed order,
// then frozen into CSR for products.
type DOK struct {
	M        *sparse.DOK
	readOnly bool
	name     string
}

func NewDOK(nr, nc int) (R DOK) {
	R = DOK{
		sparse.NewDOK(nr, nc),
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m DOK) Dims() (r, c int)    { return m.M.Dims() }
func (m DOK) At(i, j int) float64 { return m.M.At(i, j) }
func (m DOK) T() mat.Matrix       { return m.M.T() }
func (m DOK) NNZ() int            { return m.M.NNZ() }

func (m *DOK) SetReadOnly(name ...string) DOK {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return *m
}

func (m DOK) Set(i, j int, val float64) DOK { // Changes receiver
	m.checkWritable()
	m.M.Set(i, j, val)
	return m
}

// Add accumulates val into entry (i,j).
func (m DOK) Add(i, j int, val float64) DOK { // Changes receiver
	m.checkWritable()
	if val == 0 {
		return m
	}
	m.M.Set(i, j, m.M.At(i, j)+val)
	return m
}

// AddBlock accumulates a row-major block with its top-left corner at (i0,j0).
func (m DOK) AddBlock(i0, j0, nr, nc int, block []float64) DOK { // Changes receiver
	if len(block) != nr*nc {
		panic(fmt.Errorf("block size mismatch: %dx%d block with %d entries", nr, nc, len(block)))
	}
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			m.Add(i0+i, j0+j, block[i*nc+j])
		}
	}
	return m
}

func (m DOK) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}

func (m DOK) ToCSR() CSR {
	return CSR{
		M:        m.M.ToCSR(),
		readOnly: m.readOnly,
		name:     m.name,
	}
}

type CSR struct {
	M        *sparse.CSR
	readOnly bool
	name     string
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m CSR) Dims() (r, c int)    { return m.M.Dims() }
func (m CSR) At(i, j int) float64 { return m.M.At(i, j) }
func (m CSR) T() mat.Matrix       { return m.M.T() }
func (m CSR) NNZ() int            { return m.M.NNZ() }

func (m *CSR) SetReadOnly(name ...string) CSR {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return *m
}

// Mul returns m*A.
func (m CSR) Mul(A CSR) (R CSR) {
	var (
		nr, _ = m.Dims()
		_, nc = A.Dims()
	)
	R = CSR{
		M:    sparse.NewCSR(nr, nc, nil, nil, nil),
		name: m.name + "*" + A.name,
	}
	R.M.Mul(m.M, A.M)
	return
}

// MulVec returns m*x.
func (m CSR) MulVec(x []float64) (y []float64) {
	var (
		nr, nc = m.Dims()
	)
	if len(x) != nc {
		panic(fmt.Errorf("dimension mismatch: matrix has %d columns, vector has %d entries", nc, len(x)))
	}
	y = make([]float64, nr)
	m.M.DoNonZero(func(i, j int, v float64) {
		y[i] += v * x[j]
	})
	return
}

// DoNonZero visits every stored entry in row order.
func (m CSR) DoNonZero(fn func(i, j int, v float64)) {
	m.M.DoNonZero(fn)
}

// ToDense is for inspection of small systems.
func (m CSR) ToDense() (R Matrix) {
	var nr, nc = m.Dims()
	R = NewMatrix(nr, nc)
	m.M.DoNonZero(func(i, j int, v float64) {
		R.M.Set(i, j, v)
	})
	return
}

// Transpose returns mᵀ in CSR form.
func (m CSR) Transpose() (R CSR) {
	var (
		nr, nc = m.Dims()
		T      = NewDOK(nc, nr)
	)
	m.M.DoNonZero(func(i, j int, v float64) {
		T.M.Set(j, i, v)
	})
	R = T.ToCSR()
	R.name = m.name + "ᵀ"
	return
}
