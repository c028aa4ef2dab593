package operators

import (
	"math"

	"github.com/notargets/godpg/utils"
	"gonum.org/v1/gonum/mat"
)

// JacobiP evaluates the orthonormal Jacobi polynomial of order N with weights (alpha, beta) at x.
func JacobiP(x []float64, alpha, beta float64, N int) (p []float64) {
	var (
		Nc = len(x)
		rg = 1. / math.Sqrt(utils.Gamma0(alpha, beta))
	)
	if N == 0 {
		p = utils.ConstArray(Nc, rg)
		return
	}
	var (
		ab  = alpha + beta
		rg1 = 1. / math.Sqrt(utils.Gamma1(alpha, beta))
		PL  = make([][]float64, N+1)
	)
	PL[0] = utils.ConstArray(Nc, rg)
	PL[1] = make([]float64, Nc)
	for i, xi := range x {
		PL[1][i] = rg1 * ((ab+2.0)*xi/2.0 + (alpha-beta)/2.0)
	}
	aold := 2.0 * math.Sqrt((alpha+1.)*(beta+1.)/(ab+3.0)) / (ab + 2.0)
	for i := 1; i < N; i++ {
		fi := float64(i)
		h1 := 2.0*fi + ab
		anew := 2.0 / (h1 + 2.0) * math.Sqrt((fi+1)*(fi+1+ab)*(fi+1+alpha)*(fi+1+beta)/(h1+1.0)/(h1+3.0))
		bnew := -(alpha*alpha - beta*beta) / h1 / (h1 + 2.0)
		PL[i+1] = make([]float64, Nc)
		for j, xj := range x {
			PL[i+1][j] = (-aold*PL[i-1][j] + (xj-bnew)*PL[i][j]) / anew
		}
		aold = anew
	}
	p = PL[N]
	return
}

func GradJacobiP(x []float64, alpha, beta float64, N int) (p []float64) {
	if N == 0 {
		p = make([]float64, len(x))
		return
	}
	p = JacobiP(x, alpha+1, beta+1, N-1)
	fN := float64(N)
	fac := math.Sqrt(fN * (fN + alpha + beta + 1))
	for i, val := range p {
		p[i] = val * fac
	}
	return
}

// JacobiGQ returns the N+1 point Gauss-Jacobi quadrature with weights (alpha, beta).
func JacobiGQ(alpha, beta float64, N int) (X, W []float64) {
	var (
		h1, d0, d1 []float64
		VVr        *mat.Dense
	)
	if N == 0 {
		X = []float64{-(alpha - beta) / (alpha + beta + 2.)}
		W = []float64{2.}
		return
	}

	h1 = make([]float64, N+1)
	for i := 0; i < N+1; i++ {
		h1[i] = 2*float64(i) + alpha + beta
	}

	// main diagonal: diag(-1/2*(alpha^2-beta^2)./(h1+2)./h1)
	d0 = make([]float64, N+1)
	fac := -.5 * (alpha*alpha - beta*beta)
	for i := 0; i < N+1; i++ {
		val := h1[i]
		d0[i] = fac / (val * (val + 2.))
	}
	// Handle division by zero
	eps := 1.e-16
	if alpha+beta < 10*eps {
		d0[0] = 0.
	}

	// 1st upper diagonal
	d1 = make([]float64, N)
	for i := 0; i < N; i++ {
		ip1 := float64(i + 1)
		val := h1[i]
		d1[i] = 2. / (val + 2.)
		d1[i] *= math.Sqrt(ip1 * (ip1 + alpha + beta) * (ip1 + alpha) * (ip1 + beta) / ((val + 1.) * (val + 3.)))
	}

	JJ := utils.NewSymTriDiagonal(d0, d1)

	var eig mat.EigenSym
	if ok := eig.Factorize(JJ, true); !ok {
		panic("eigenvalue decomposition failed")
	}
	X = eig.Values(nil)

	VVr = mat.NewDense(len(X), len(X), nil)
	eig.VectorsTo(VVr)
	W = make([]float64, len(X))
	g0 := utils.Gamma0(alpha, beta)
	for i, v := range VVr.RawRowView(0) {
		W[i] = v * v * g0
	}
	return
}

// JacobiGL returns the N+1 Gauss-Lobatto points, including the end points.
func JacobiGL(alpha, beta float64, N int) (X []float64) {
	X = make([]float64, N+1)
	X[0], X[N] = -1, 1
	if N == 1 {
		return
	}
	xint, _ := JacobiGQ(alpha+1, beta+1, N-2)
	copy(X[1:N], xint)
	return
}

// GLLWeights are the Gauss-Lobatto-Legendre weights for the N+1 points of JacobiGL(0,0,N).
func GLLWeights(X []float64) (W []float64) {
	var (
		N  = len(X) - 1
		fN = float64(N)
		// JacobiP is orthonormal: P_N = sqrt(2/(2N+1)) * JacobiP
		PN   = JacobiP(X, 0, 0, N)
		norm = math.Sqrt(2. / (2*fN + 1))
	)
	W = make([]float64, len(X))
	for i := range X {
		pn := PN[i] * norm
		W[i] = 2. / (fN * (fN + 1) * pn * pn)
	}
	return
}

func Vandermonde1D(N int, R []float64) (V utils.Matrix) {
	V = utils.NewMatrix(len(R), N+1)
	for j := 0; j < N+1; j++ {
		V.SetCol(j, JacobiP(R, 0, 0, j))
	}
	return
}
