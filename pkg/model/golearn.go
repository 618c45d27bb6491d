package model

// Estimators backed by github.com/sjwhitworth/golearn. Feature matrices are
// converted to base.DenseInstances with one float attribute per feature and
// the target as class attribute.

import (
	"fmt"
	"math"
	"strconv"

	"github.com/sjwhitworth/golearn/base"
	"github.com/sjwhitworth/golearn/knn"
	"github.com/sjwhitworth/golearn/linear_models"
	"gonum.org/v1/gonum/mat"
)

// DefaultNeighbors is k for KNNClassifier when none is configured.
const DefaultNeighbors = 5

// GolearnRegressor wraps golearn's QR-based linear regression.
type GolearnRegressor struct {
	lr    *linear_models.LinearRegression
	attrs []base.Attribute
	cls   *base.FloatAttribute
}

func (m *GolearnRegressor) Fit(X mat.Matrix, y Target) error {
	if err := checkFit(X, y, Regression); err != nil {
		return err
	}
	_, c := X.Dims()
	m.attrs = featureAttributes(c)
	m.cls = base.NewFloatAttribute("target")
	inst, err := toInstances(X, m.attrs, m.cls, func(r int) []byte {
		return base.PackFloatToBytes(y.Values[r])
	})
	if err != nil {
		return err
	}
	lr := linear_models.NewLinearRegression()
	if err := lr.Fit(inst); err != nil {
		return fmt.Errorf("golearn linear regression: %w", err)
	}
	m.lr = lr
	return nil
}

func (m *GolearnRegressor) Predict(X mat.Matrix) (Target, error) {
	if m.lr == nil {
		return Target{}, ErrNotFitted
	}
	zero := base.PackFloatToBytes(0)
	inst, err := toInstances(X, m.attrs, m.cls, func(int) []byte { return zero })
	if err != nil {
		return Target{}, err
	}
	pred, err := m.lr.Predict(inst)
	if err != nil {
		return Target{}, fmt.Errorf("golearn linear regression: %w", err)
	}
	spec, err := pred.GetAttribute(m.cls)
	if err != nil {
		return Target{}, err
	}
	r, _ := X.Dims()
	vals := make([]float64, r)
	for i := range vals {
		vals[i] = base.UnpackBytesToFloat(pred.Get(spec, i))
		if math.IsNaN(vals[i]) || math.IsInf(vals[i], 0) {
			return Target{}, ErrNonFinite
		}
	}
	return Target{Task: Regression, Values: vals}, nil
}

// KNNClassifier wraps golearn's brute-force nearest-neighbour classifier
// with euclidean distance. Vote ties are resolved by golearn and are not
// guaranteed to be deterministic.
type KNNClassifier struct {
	Neighbors int

	cls   *knn.KNNClassifier
	attrs []base.Attribute
	class *base.CategoricalAttribute
	first string
}

func (m *KNNClassifier) Fit(X mat.Matrix, y Target) error {
	if err := checkFit(X, y, Classification); err != nil {
		return err
	}
	_, c := X.Dims()
	m.attrs = featureAttributes(c)
	m.class = new(base.CategoricalAttribute)
	m.class.SetName("target")
	m.first = y.Labels[0]
	inst, err := toInstances(X, m.attrs, m.class, func(r int) []byte {
		return m.class.GetSysValFromString(y.Labels[r])
	})
	if err != nil {
		return err
	}
	k := m.Neighbors
	if k <= 0 {
		k = DefaultNeighbors
	}
	if k > len(y.Labels) {
		k = len(y.Labels)
	}
	cls := knn.NewKnnClassifier("euclidean", "linear", k)
	if err := cls.Fit(inst); err != nil {
		return fmt.Errorf("golearn knn: %w", err)
	}
	m.cls = cls
	return nil
}

func (m *KNNClassifier) Predict(X mat.Matrix) (Target, error) {
	if m.cls == nil {
		return Target{}, ErrNotFitted
	}
	placeholder := m.class.GetSysValFromString(m.first)
	inst, err := toInstances(X, m.attrs, m.class, func(int) []byte { return placeholder })
	if err != nil {
		return Target{}, err
	}
	pred, err := m.cls.Predict(inst)
	if err != nil {
		return Target{}, fmt.Errorf("golearn knn: %w", err)
	}
	r, _ := X.Dims()
	labels := make([]string, r)
	for i := range labels {
		labels[i] = base.GetClass(pred, i)
	}
	return Target{Task: Classification, Labels: labels}, nil
}

func featureAttributes(n int) []base.Attribute {
	attrs := make([]base.Attribute, n)
	for i := range attrs {
		attrs[i] = base.NewFloatAttribute("f" + strconv.Itoa(i))
	}
	return attrs
}

// toInstances converts X plus a class column into golearn DenseInstances.
func toInstances(X mat.Matrix, attrs []base.Attribute, class base.Attribute, classVal func(r int) []byte) (*base.DenseInstances, error) {
	rows, cols := X.Dims()
	if cols != len(attrs) {
		return nil, fmt.Errorf("%w: %d features vs %d attributes", ErrShapeMismatch, cols, len(attrs))
	}
	inst := base.NewDenseInstances()
	specs := make([]base.AttributeSpec, len(attrs))
	for i, a := range attrs {
		specs[i] = inst.AddAttribute(a)
	}
	clsSpec := inst.AddAttribute(class)
	if err := inst.AddClassAttribute(class); err != nil {
		return nil, err
	}
	if err := inst.Extend(rows); err != nil {
		return nil, err
	}
	for r := 0; r < rows; r++ {
		for c := range attrs {
			inst.Set(specs[c], r, base.PackFloatToBytes(X.At(r, c)))
		}
		inst.Set(clsSpec, r, classVal(r))
	}
	return inst, nil
}
