// Package model provides the estimator interfaces shared by the tree,
// inspection and importance packages.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Scorer is the interface for models that can compute a score where higher
// is better.
type Scorer interface {
	// Score returns the coefficient of determination R^2 of the prediction,
	// averaged uniformly over target columns.
	Score(X mat.Matrix, y mat.Matrix) (float64, error)
}

// Regressor combines interfaces for regression models.
type Regressor interface {
	Estimator
	Scorer
}

// FeatureImportancer is implemented by models exposing impurity-based
// feature importances.
type FeatureImportancer interface {
	GetFeatureImportances() []float64
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models that allow parameter modification.
type ParameterSetter interface {
	// SetParams sets the model's hyperparameters.
	SetParams(params map[string]interface{}) error
}
