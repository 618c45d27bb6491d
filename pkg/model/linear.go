package model

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LinearRegressor is a least-squares regressor with an unpenalised intercept
// and an optional ridge penalty. Without a penalty a rank-deficient design is
// solved with a small scaled ridge unless Strict is set, in which case Fit
// returns ErrSingular.
type LinearRegressor struct {
	Alpha  float64
	Strict bool

	w *mat.Dense // (p+1) x 1, intercept first
}

func (m *LinearRegressor) Fit(X mat.Matrix, y Target) error {
	if err := checkFit(X, y, Regression); err != nil {
		return err
	}
	B := mat.NewDense(len(y.Values), 1, append([]float64(nil), y.Values...))
	w, err := solve(withIntercept(X), B, m.Alpha, m.Strict)
	if err != nil {
		return err
	}
	m.w = w
	return nil
}

func (m *LinearRegressor) Predict(X mat.Matrix) (Target, error) {
	if m.w == nil {
		return Target{}, ErrNotFitted
	}
	var out mat.Dense
	out.Mul(withIntercept(X), m.w)
	r, _ := out.Dims()
	vals := make([]float64, r)
	for i := range vals {
		vals[i] = out.At(i, 0)
		if math.IsNaN(vals[i]) || math.IsInf(vals[i], 0) {
			return Target{}, ErrNonFinite
		}
	}
	return Target{Task: Regression, Values: vals}, nil
}

// LinearClassifier fits one least-squares indicator regression per class and
// predicts the class with the largest score. Ties go to the smallest label.
type LinearClassifier struct {
	Alpha  float64
	Strict bool

	classes []string
	w       *mat.Dense // (p+1) x k
}

func (m *LinearClassifier) Fit(X mat.Matrix, y Target) error {
	if err := checkFit(X, y, Classification); err != nil {
		return err
	}
	seen := map[string]int{}
	for _, l := range y.Labels {
		seen[l] = 0
	}
	m.classes = make([]string, 0, len(seen))
	for l := range seen {
		m.classes = append(m.classes, l)
	}
	sort.Strings(m.classes)
	if len(m.classes) == 1 {
		m.w = nil
		return nil
	}
	for i, l := range m.classes {
		seen[l] = i
	}
	Y := mat.NewDense(len(y.Labels), len(m.classes), nil)
	for i, l := range y.Labels {
		Y.Set(i, seen[l], 1)
	}
	w, err := solve(withIntercept(X), Y, m.Alpha, m.Strict)
	if err != nil {
		return err
	}
	m.w = w
	return nil
}

func (m *LinearClassifier) Predict(X mat.Matrix) (Target, error) {
	if len(m.classes) == 0 {
		return Target{}, ErrNotFitted
	}
	r, _ := X.Dims()
	labels := make([]string, r)
	if len(m.classes) == 1 {
		for i := range labels {
			labels[i] = m.classes[0]
		}
		return Target{Task: Classification, Labels: labels}, nil
	}
	var scores mat.Dense
	scores.Mul(withIntercept(X), m.w)
	for i := 0; i < r; i++ {
		best := 0
		for k := 1; k < len(m.classes); k++ {
			if scores.At(i, k) > scores.At(i, best) {
				best = k
			}
		}
		if s := scores.At(i, best); math.IsNaN(s) || math.IsInf(s, 0) {
			return Target{}, ErrNonFinite
		}
		labels[i] = m.classes[best]
	}
	return Target{Task: Classification, Labels: labels}, nil
}

// withIntercept returns [1 | X].
func withIntercept(X mat.Matrix) *mat.Dense {
	r, c := X.Dims()
	A := mat.NewDense(r, c+1, nil)
	for i := 0; i < r; i++ {
		A.Set(i, 0, 1)
		for j := 0; j < c; j++ {
			A.Set(i, j+1, X.At(i, j))
		}
	}
	return A
}

// jitter is the ridge, relative to the largest diagonal entry of A'A, used
// when an unpenalised design is singular.
const jitter = 1e-9

func solve(A, B *mat.Dense, alpha float64, strict bool) (*mat.Dense, error) {
	W, err := leastSquares(A, B, alpha)
	if err == nil || alpha != 0 || strict || !errors.Is(err, ErrSingular) {
		return W, err
	}
	_, p := A.Dims()
	scale := 0.0
	for j := 0; j < p; j++ {
		col := mat.Col(nil, j, A)
		scale = math.Max(scale, floats.Dot(col, col))
	}
	return leastSquares(A, B, math.Max(jitter*scale, jitter))
}

// leastSquares solves min ||A W - B||^2 + alpha ||W[1:]||^2. The first
// column of A is the intercept and is not penalised.
func leastSquares(A, B *mat.Dense, alpha float64) (*mat.Dense, error) {
	var W mat.Dense
	if alpha == 0 {
		if err := W.Solve(A, B); err != nil {
			var cond mat.Condition
			if errors.As(err, &cond) {
				return nil, fmt.Errorf("%w: condition number %.3g", ErrSingular, float64(cond))
			}
			return nil, err
		}
		return &W, nil
	}

	_, p := A.Dims()
	var ata mat.SymDense
	ata.SymOuterK(1, A.T())
	for j := 1; j < p; j++ {
		ata.SetSym(j, j, ata.At(j, j)+alpha)
	}
	var atb mat.Dense
	atb.Mul(A.T(), B)
	var chol mat.Cholesky
	if ok := chol.Factorize(&ata); !ok {
		return nil, ErrSingular
	}
	if err := chol.SolveTo(&W, &atb); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return &W, nil
}
