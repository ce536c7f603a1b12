package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/permimp/pkg/errors"
)

func TestStateManager(t *testing.T) {
	s := NewStateManager()
	assert.False(t, s.IsFitted())

	err := s.RequireFitted("DecisionTreeRegressor", "Predict")
	require.Error(t, err)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	s.SetFitted(5, 2, 80)
	assert.True(t, s.IsFitted())
	assert.NoError(t, s.RequireFitted("DecisionTreeRegressor", "Predict"))

	nFeatures, nOutputs, nSamples := s.Dimensions()
	assert.Equal(t, 5, nFeatures)
	assert.Equal(t, 2, nOutputs)
	assert.Equal(t, 80, nSamples)

	assert.NoError(t, s.RequireFeatures("Predict", 5))
	err = s.RequireFeatures("Predict", 4)
	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 1, dimErr.Axis)

	s.Reset()
	assert.False(t, s.IsFitted())
}
