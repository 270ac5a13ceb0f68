package varcomp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Method selects the likelihood that is maximized.
type Method int

const (
	REML Method = iota
	ML
)

func (m Method) String() string {
	if m == ML {
		return "ML"
	}
	return "REML"
}

// Components are fitted variances before they are turned into shares.
type Components struct {
	Method        Method
	Factors       []string
	Variances     []float64 // one per factor, in Factors order
	Residual      float64
	Intercept     float64
	LogLikelihood float64
	Observations  int
	Levels        []int // distinct levels per factor
	Evaluations   int
}

// Fitter estimates variance components for a validated design. It is the
// seam for swapping in another solver.
type Fitter interface {
	FitComponents(d Design) (Components, error)
}

// Profiled fits y = mu + sum_k Z_k u_k + e with independent random intercepts
// by maximizing the likelihood profiled over the residual variance. The
// marginal covariance is sigma^2 * H(theta), H = I + sum_k theta_k^2 Z_k Z_k',
// and theta is searched with Nelder-Mead, starting from 1.
type Profiled struct {
	Method Method

	// MaxIterations bounds the optimizer. Zero means 10000.
	MaxIterations int
}

type profile struct {
	method Method
	y      []float64
	groups []groups
	n      int

	// scratch
	h    *mat.SymDense
	chol mat.Cholesky
	ones *mat.VecDense
	yv   *mat.VecDense
	a, b *mat.VecDense
}

// evaluation is everything derived from one value of theta.
type evaluation struct {
	objective float64 // -2 log likelihood, without constants
	logDetH   float64
	logS      float64
	q         float64 // r' H^-1 r
	beta      float64
}

func newProfile(method Method, y []float64, g []groups) *profile {
	n := len(y)
	ones := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		ones.SetVec(i, 1)
	}

	return &profile{
		method: method,
		y:      y,
		groups: g,
		n:      n,
		h:      mat.NewSymDense(n, nil),
		ones:   ones,
		yv:     mat.NewVecDense(n, append([]float64(nil), y...)),
		a:      mat.NewVecDense(n, nil),
		b:      mat.NewVecDense(n, nil),
	}
}

// residualDF is the divisor of the profiled residual variance.
func (p *profile) residualDF() float64 {
	if p.method == ML {
		return float64(p.n)
	}
	return float64(p.n - 1)
}

func (p *profile) evaluate(theta []float64) (evaluation, error) {
	var out evaluation

	for i := 0; i < p.n; i++ {
		for j := i; j < p.n; j++ {
			v := 0.0
			if i == j {
				v = 1
			}
			for k, g := range p.groups {
				if g.index[i] == g.index[j] {
					v += theta[k] * theta[k]
				}
			}
			p.h.SetSym(i, j, v)
		}
	}

	if ok := p.chol.Factorize(p.h); !ok {
		return out, fmt.Errorf("covariance is not positive definite at theta=%v", theta)
	}

	if err := p.chol.SolveVecTo(p.a, p.ones); err != nil {
		return out, err
	}
	if err := p.chol.SolveVecTo(p.b, p.yv); err != nil {
		return out, err
	}

	// Generalized least squares for the intercept, then the weighted residual
	// sum of squares r' H^-1 r with r = y - beta.
	s := mat.Dot(p.ones, p.a)
	oneHy := mat.Dot(p.ones, p.b)
	out.beta = oneHy / s
	out.q = mat.Dot(p.yv, p.b) - out.beta*oneHy
	if out.q <= 0 {
		return out, fmt.Errorf("no residual variation left at theta=%v", theta)
	}

	out.logDetH = p.chol.LogDet()
	out.logS = math.Log(s)

	switch p.method {
	case ML:
		out.objective = out.logDetH + float64(p.n)*math.Log(out.q)
	default:
		out.objective = out.logDetH + out.logS + float64(p.n-1)*math.Log(out.q)
	}

	return out, nil
}

// logLikelihood returns the maximized (restricted) log likelihood.
func (p *profile) logLikelihood(e evaluation) float64 {
	df := p.residualDF()
	m2ll := e.logDetH + df*(1+math.Log(2*math.Pi*e.q/df))
	if p.method == REML {
		m2ll += e.logS
	}
	return -0.5 * m2ll
}

func (f Profiled) FitComponents(d Design) (Components, error) {
	g, err := d.validate()
	if err != nil {
		return Components{}, err
	}

	n := d.N()
	if n < len(g)+2 {
		return Components{}, &ModelFitError{Reason: fmt.Sprintf("%d observations are too few for %d variance components", n, len(g)+1)}
	}

	constant := true
	for _, v := range d.Response {
		if v != d.Response[0] {
			constant = false
			break
		}
	}
	if constant {
		return Components{}, &ModelFitError{Reason: "response is constant"}
	}

	p := newProfile(f.Method, d.Response, g)

	problem := optimize.Problem{
		Func: func(theta []float64) float64 {
			e, err := p.evaluate(theta)
			if err != nil {
				return math.Inf(1)
			}
			return e.objective
		},
	}

	maxIter := f.MaxIterations
	if maxIter <= 0 {
		maxIter = 10000
	}

	settings := &optimize.Settings{
		MajorIterations: maxIter,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Relative:   1e-12,
			Iterations: 100,
		},
	}

	theta0 := make([]float64, len(g))
	for k := range theta0 {
		theta0[k] = 1
	}

	result, err := optimize.Minimize(problem, theta0, settings, &optimize.NelderMead{})
	if err != nil {
		return Components{}, &ModelFitError{Reason: "optimizer failed", Err: err}
	}
	switch result.Status {
	case optimize.Failure, optimize.IterationLimit, optimize.FunctionEvaluationLimit, optimize.RuntimeLimit:
		return Components{}, &ModelFitError{Reason: fmt.Sprintf("optimizer did not converge (%v after %d iterations)", result.Status, result.Stats.MajorIterations)}
	}

	best, err := p.evaluate(result.X)
	if err != nil {
		return Components{}, &ModelFitError{Reason: "final evaluation", Err: err}
	}

	sigma2 := best.q / p.residualDF()

	out := Components{
		Method:        f.Method,
		Factors:       make([]string, len(g)),
		Variances:     make([]float64, len(g)),
		Levels:        make([]int, len(g)),
		Residual:      sigma2,
		Intercept:     best.beta,
		LogLikelihood: p.logLikelihood(best),
		Observations:  n,
		Evaluations:   result.Stats.FuncEvaluations,
	}
	for k, grp := range g {
		out.Factors[k] = grp.name
		out.Variances[k] = result.X[k] * result.X[k] * sigma2
		out.Levels[k] = grp.levels
	}

	if math.IsNaN(out.Residual) || math.IsInf(out.Residual, 0) {
		return Components{}, &ModelFitError{Reason: "residual variance is not finite"}
	}
	for k, v := range out.Variances {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Components{}, &ModelFitError{Reason: fmt.Sprintf("variance of %s is not finite", out.Factors[k])}
		}
	}

	return out, nil
}
