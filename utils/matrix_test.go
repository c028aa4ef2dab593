package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrix(t *testing.T) {
	// Transpose
	{
		M := NewMatrix(2, 3, []float64{
			1, 2, 3,
			4, 5, 6,
		})
		mNr, mNc := M.Dims()
		A := M.Transpose()
		aNr, aNc := A.Dims()
		assert.Equal(t, aNc, mNr)
		assert.Equal(t, aNr, mNc)
		assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, A.Data())
		assert.Equal(t, []float64{2, 5}, M.Col(1))
		assert.Equal(t, []float64{4, 5, 6}, M.Row(1))
		assert.Equal(t, []float64{14, 32}, M.MulVec([]float64{1, 2, 3}))
	}
	// Inverse and Solve
	{
		M := NewMatrix(2, 2, []float64{
			4, 7,
			2, 6,
		})
		Minv, err := M.Inverse()
		require.NoError(t, err)
		I := M.Mul(Minv)
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				var exp float64
				if i == j {
					exp = 1
				}
				assert.InDelta(t, exp, I.At(i, j), 1.e-14)
			}
		}
		X, err := M.Solve(NewMatrix(2, 1, []float64{1, 2}))
		require.NoError(t, err)
		assert.InDelta(t, -0.2, X.At(0, 0), 1.e-14)
		assert.InDelta(t, 0.4, X.At(1, 0), 1.e-14)
		_, err = NewMatrix(2, 2, []float64{1, 1, 1, 1}).Inverse()
		assert.Error(t, err)
	}
	// Read only protection
	{
		M := NewIdentity(3)
		M.SetReadOnly("Identity")
		assert.Panics(t, func() { M.Set(0, 0, 2) })
		assert.Panics(t, func() { NewMatrix(2, 2, []float64{1, 2, 3}) })
	}
}

func TestSparse(t *testing.T) {
	A := NewDOK(3, 3)
	A.Add(0, 0, 1).Add(0, 0, 1).Add(1, 2, 3).Add(2, 1, -1)
	A.AddBlock(1, 1, 2, 2, []float64{1, 0, 0, 1})
	assert.Equal(t, 2., A.At(0, 0))
	assert.Equal(t, 1., A.At(1, 1))
	assert.Equal(t, 3., A.At(1, 2))
	C := A.ToCSR()
	assert.Equal(t, []float64{2, 4, 0}, C.MulVec([]float64{1, 1, 1}))
	B := NewDOK(3, 1)
	B.Set(0, 0, 1).Set(1, 0, 1).Set(2, 0, 1)
	P := C.Mul(B.ToCSR())
	r, c := P.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 1, c)
	assert.Equal(t, []float64{2, 4, 0}, P.ToDense().Col(0))
	var visited int
	C.DoNonZero(func(i, j int, v float64) { visited++ })
	assert.Equal(t, C.NNZ(), visited)

	Ct := C.Transpose()
	assert.Equal(t, 3., Ct.At(2, 1))
	assert.Equal(t, -1., Ct.At(1, 2))
	assert.Equal(t, []float64{2, 0, 4}, Ct.MulVec([]float64{1, 1, 1}))
}

func TestMathTables(t *testing.T) {
	assert.Equal(t, 1., Factorial(0))
	assert.Equal(t, 120., Factorial(5))
	assert.Equal(t, 2432902008176640000., Factorial(20))
	assert.Equal(t, 24., Gamma(5))
	assert.InDelta(t, math.Sqrt(math.Pi), Gamma(0.5), 1.e-15)
	assert.InDelta(t, 0.75*math.Sqrt(math.Pi), Gamma(2.5), 1.e-14)
	assert.InDelta(t, math.Gamma(3.3), Gamma(3.3), 1.e-14)
	assert.InDelta(t, 2., Gamma0(0, 0), 1.e-15)
	assert.InDelta(t, 2./3., Gamma1(0, 0), 1.e-15)
	assert.Equal(t, []float64{-1, 0, 1}, Linspace(-1, 1, 3))
	assert.Equal(t, 0.125, POW(2, -3))
	assert.Equal(t, 1., POW(3, 0))
}
