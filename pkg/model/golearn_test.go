package model

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/mat"
)

func TestGolearnEstimators(t *testing.T) {
	convey.Convey("Given a noiseless linear relationship", t, func() {
		X, y := linearData(30)

		convey.Convey("The golearn regressor recovers it", func() {
			m := &GolearnRegressor{}
			err := m.Fit(X, Target{Task: Regression, Values: y})
			convey.So(err, convey.ShouldBeNil)

			pred, err := m.Predict(mat.NewDense(1, 2, []float64{50, 2}))
			convey.So(err, convey.ShouldBeNil)
			convey.So(pred.Values[0], convey.ShouldAlmostEqual, 1+100-6, 1e-6)
		})

		convey.Convey("Predicting before fitting fails", func() {
			_, err := (&GolearnRegressor{}).Predict(X)
			convey.So(err, convey.ShouldEqual, ErrNotFitted)
		})
	})

	convey.Convey("Given two well separated clusters", t, func() {
		X := mat.NewDense(6, 2, []float64{
			0, 0, 0.5, 0.2, 0.1, 0.4,
			10, 10, 10.3, 9.8, 9.7, 10.1,
		})
		y := Target{Task: Classification, Labels: []string{"a", "a", "a", "b", "b", "b"}}

		convey.Convey("The knn classifier labels new points by proximity", func() {
			m := &KNNClassifier{Neighbors: 3}
			convey.So(m.Fit(X, y), convey.ShouldBeNil)

			pred, err := m.Predict(mat.NewDense(2, 2, []float64{0.2, 0.1, 9.9, 10.2}))
			convey.So(err, convey.ShouldBeNil)
			convey.So(pred.Labels, convey.ShouldResemble, []string{"a", "b"})
		})

		convey.Convey("k larger than the training set is capped", func() {
			m := &KNNClassifier{Neighbors: 50}
			convey.So(m.Fit(X, y), convey.ShouldBeNil)
			_, err := m.Predict(mat.NewDense(1, 2, []float64{0, 0}))
			convey.So(err, convey.ShouldBeNil)
		})
	})
}
