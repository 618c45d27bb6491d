// Package model defines the estimators used to re-estimate missing cells.
//
// A Model is created for a single Task, fitted once on the training rows of
// one target column and used to predict the held-out rows. Models keep no
// state that outlives a single fit/predict cycle.
package model

import (
	"errors"
	"fmt"

	tb "github.com/wdm0006/mice/pkg/table"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrNotFitted     = errors.New("model is not fitted")
	ErrTaskMismatch  = errors.New("target does not match model task")
	ErrEmptyTraining = errors.New("no training rows")
	ErrShapeMismatch = errors.New("feature and target row counts differ")
	ErrSingular      = errors.New("design matrix is singular")
	ErrUnknownFamily = errors.New("unknown model family")
	ErrNonFinite     = errors.New("model produced a non-finite prediction")
)

// Task is the kind of estimator a target column needs.
type Task int

const (
	Regression Task = iota
	Classification
)

func (t Task) String() string {
	if t == Classification {
		return "classification"
	}
	return "regression"
}

// TaskFor returns Classification for categorical kinds and Regression
// otherwise.
func TaskFor(k tb.Kind) Task {
	if k.IsCategorical() {
		return Classification
	}
	return Regression
}

// Target holds training targets or predictions. Values is used for
// regression, Labels for classification.
type Target struct {
	Task   Task
	Values []float64
	Labels []string
}

func (y Target) Len() int {
	if y.Task == Classification {
		return len(y.Labels)
	}
	return len(y.Values)
}

// Model is a trainable estimator.
type Model interface {
	Fit(X mat.Matrix, y Target) error
	Predict(X mat.Matrix) (Target, error)
}

// Factory returns a fresh, unfitted model for a task.
type Factory interface {
	New(task Task) (Model, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(Task) (Model, error)

func (f FactoryFunc) New(task Task) (Model, error) { return f(task) }

// Family names accepted by NewFactory.
const (
	FamilyLinear  = "linear"
	FamilyGolearn = "golearn"
)

// Options tune the estimators built by NewFactory.
type Options struct {
	// Alpha is the ridge penalty of the linear family; 0 means ordinary
	// least squares.
	Alpha float64
	// Strict makes the linear family fail with ErrSingular on rank-deficient
	// designs instead of regularising them.
	Strict bool
	// Neighbors is k for the golearn nearest-neighbour classifier.
	Neighbors int
}

// NewFactory returns the factory for a named model family.
func NewFactory(family string, opt Options) (Factory, error) {
	if opt.Alpha < 0 {
		return nil, fmt.Errorf("alpha must be >= 0, got %v", opt.Alpha)
	}
	switch family {
	case "", FamilyLinear:
		return FactoryFunc(func(task Task) (Model, error) {
			if task == Classification {
				return &LinearClassifier{Alpha: opt.Alpha, Strict: opt.Strict}, nil
			}
			return &LinearRegressor{Alpha: opt.Alpha, Strict: opt.Strict}, nil
		}), nil
	case FamilyGolearn:
		k := opt.Neighbors
		if k <= 0 {
			k = DefaultNeighbors
		}
		return FactoryFunc(func(task Task) (Model, error) {
			if task == Classification {
				return &KNNClassifier{Neighbors: k}, nil
			}
			return &GolearnRegressor{}, nil
		}), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, family)
}

func checkFit(X mat.Matrix, y Target, task Task) error {
	if y.Task != task {
		return fmt.Errorf("%w: want %s, got %s", ErrTaskMismatch, task, y.Task)
	}
	r, _ := X.Dims()
	if r == 0 || y.Len() == 0 {
		return ErrEmptyTraining
	}
	if r != y.Len() {
		return fmt.Errorf("%w: %d rows vs %d targets", ErrShapeMismatch, r, y.Len())
	}
	return nil
}
