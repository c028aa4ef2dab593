package flux

// ComplexStepH is the imaginary perturbation of complex-step differentiation.
const ComplexStepH = 1.e-30

/*
ComplexStepJacobian differentiates f at x: jac[out + nOut*in] = Im(f(x + i*h*e_in)[out]) / h. f must be an
analytic function written over complex128, normally the complex instantiation of a generic kernel.
*/
func ComplexStepJacobian(f func(x, y []complex128), x []float64, nOut int) (jac []float64) {
	var (
		nIn = len(x)
		xc  = make([]complex128, nIn)
		yc  = make([]complex128, nOut)
	)
	jac = make([]float64, nOut*nIn)
	for in := 0; in < nIn; in++ {
		for k, v := range x {
			xc[k] = complex(v, 0)
		}
		xc[in] += complex(0, ComplexStepH)
		for k := range yc {
			yc[k] = 0
		}
		f(xc, yc)
		for out := range yc {
			jac[out+nOut*in] = imag(yc[out]) / ComplexStepH
		}
	}
	return
}
