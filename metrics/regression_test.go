package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/permimp/pkg/errors"
)

func TestMSE(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   *mat.VecDense
		yPred   *mat.VecDense
		want    float64
		wantErr bool
	}{
		{
			name:  "perfect prediction",
			yTrue: mat.NewVecDense(5, []float64{1, 2, 3, 4, 5}),
			yPred: mat.NewVecDense(5, []float64{1, 2, 3, 4, 5}),
			want:  0,
		},
		{
			name:  "simple case",
			yTrue: mat.NewVecDense(4, []float64{1, 2, 3, 4}),
			yPred: mat.NewVecDense(4, []float64{1.5, 2.5, 2.5, 3.5}),
			want:  0.25,
		},
		{
			name:  "larger errors",
			yTrue: mat.NewVecDense(3, []float64{10, 20, 30}),
			yPred: mat.NewVecDense(3, []float64{12, 18, 33}),
			want:  17.0 / 3.0,
		},
		{
			name:    "dimension mismatch",
			yTrue:   mat.NewVecDense(3, []float64{1, 2, 3}),
			yPred:   mat.NewVecDense(2, []float64{1, 2}),
			wantErr: true,
		},
		{
			name:    "empty vectors",
			yTrue:   &mat.VecDense{},
			yPred:   &mat.VecDense{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MSE(tt.yTrue, tt.yPred)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-10)

			rmse, err := RMSE(tt.yTrue, tt.yPred)
			require.NoError(t, err)
			assert.InDelta(t, math.Sqrt(tt.want), rmse, 1e-10)
		})
	}
}

func TestMSEMatrix(t *testing.T) {
	got, err := MSEMatrix(
		mat.NewDense(4, 1, []float64{1, 2, 3, 4}),
		mat.NewDense(4, 1, []float64{1.5, 2.5, 2.5, 3.5}),
	)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, got, 1e-10)

	_, err = MSEMatrix(
		mat.NewDense(2, 2, []float64{1, 2, 3, 4}),
		mat.NewDense(2, 2, []float64{1, 2, 3, 4}),
	)
	var valErr *errors.ValueError
	assert.True(t, errors.As(err, &valErr), "multi-column input must be rejected")
}

func TestMSEMultiOutput(t *testing.T) {
	yTrue := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})
	yPred := mat.NewDense(4, 2, []float64{
		1, 12,
		2, 18,
		3, 30,
		5, 40,
	})

	got, err := MSEMultiOutput(yTrue, yPred)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 0.25, got[0], 1e-12)
	assert.InDelta(t, 2.0, got[1], 1e-12)

	rmse, err := AggregateRMSE(got)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(1.125), rmse, 1e-12)
}

func TestMSEMultiOutput_Errors(t *testing.T) {
	_, err := MSEMultiOutput(mat.NewDense(3, 2, nil), mat.NewDense(2, 2, nil))
	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 0, dimErr.Axis)

	_, err = MSEMultiOutput(mat.NewDense(3, 2, nil), mat.NewDense(3, 1, nil))
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 1, dimErr.Axis)
}

func TestAggregateRMSE(t *testing.T) {
	tests := []struct {
		name    string
		mse     []float64
		want    float64
		wantErr bool
	}{
		{name: "single target", mse: []float64{4}, want: 2},
		{name: "averages before sqrt", mse: []float64{1, 9}, want: math.Sqrt(5)},
		{name: "zero error", mse: []float64{0, 0, 0}, want: 0},
		{name: "no targets", mse: nil, wantErr: true},
		{name: "negative mse", mse: []float64{-1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AggregateRMSE(tt.mse)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.GreaterOrEqual(t, got, 0.0)
		})
	}
}

func TestMAE(t *testing.T) {
	got, err := MAE(
		mat.NewVecDense(3, []float64{1, 2, 3}),
		mat.NewVecDense(3, []float64{2, 2, 1}),
	)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-12)

	_, err = MAE(&mat.VecDense{}, &mat.VecDense{})
	assert.Error(t, err)
}

func TestR2Score(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   *mat.VecDense
		yPred   *mat.VecDense
		want    float64
		wantErr bool
	}{
		{
			name:  "perfect prediction",
			yTrue: mat.NewVecDense(5, []float64{1, 2, 3, 4, 5}),
			yPred: mat.NewVecDense(5, []float64{1, 2, 3, 4, 5}),
			want:  1,
		},
		{
			name:    "no variance in yTrue",
			yTrue:   mat.NewVecDense(5, []float64{3, 3, 3, 3, 3}),
			yPred:   mat.NewVecDense(5, []float64{2, 3, 4, 3, 3}),
			wantErr: true,
		},
		{
			name:  "worse than mean baseline",
			yTrue: mat.NewVecDense(4, []float64{1, 2, 3, 4}),
			yPred: mat.NewVecDense(4, []float64{4, 3, 2, 1}),
			want:  -3,
		},
		{
			name:    "dimension mismatch",
			yTrue:   mat.NewVecDense(3, []float64{1, 2, 3}),
			yPred:   mat.NewVecDense(2, []float64{1, 2}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := R2Score(tt.yTrue, tt.yPred)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-10)
		})
	}
}

func TestR2ScoreMultiOutput(t *testing.T) {
	yTrue := mat.NewDense(4, 2, []float64{
		1, 1,
		2, 2,
		3, 3,
		4, 4,
	})

	t.Run("uniform average", func(t *testing.T) {
		yPred := mat.NewDense(4, 2, []float64{
			1, 4,
			2, 3,
			3, 2,
			4, 1,
		})
		got, err := R2ScoreMultiOutput(yTrue, yPred)
		require.NoError(t, err)
		// (1 + -3) / 2
		assert.InDelta(t, -1.0, got, 1e-12)
	})

	t.Run("matches single output R2", func(t *testing.T) {
		single := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
		pred := mat.NewDense(4, 1, []float64{1.5, 2, 2.5, 4})
		got, err := R2ScoreMultiOutput(single, pred)
		require.NoError(t, err)
		want, err := R2Score(mat.NewVecDense(4, []float64{1, 2, 3, 4}), mat.NewVecDense(4, []float64{1.5, 2, 2.5, 4}))
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-12)
	})

	t.Run("constant column", func(t *testing.T) {
		var warned int
		errors.SetWarningHandler(func(error) { warned++ })
		constant := mat.NewDense(3, 1, []float64{5, 5, 5})

		got, err := R2ScoreMultiOutput(constant, mat.NewDense(3, 1, []float64{5, 5, 5}))
		require.NoError(t, err)
		assert.Equal(t, 1.0, got)

		got, err = R2ScoreMultiOutput(constant, mat.NewDense(3, 1, []float64{4, 5, 6}))
		require.NoError(t, err)
		assert.Equal(t, 0.0, got)
		assert.Equal(t, 1, warned)
	})
}

func BenchmarkMSEMultiOutput(b *testing.B) {
	const size = 10000
	yTrue := mat.NewDense(size, 3, nil)
	yPred := mat.NewDense(size, 3, nil)
	for i := 0; i < size; i++ {
		for j := 0; j < 3; j++ {
			yTrue.Set(i, j, float64(i))
			yPred.Set(i, j, float64(i)+0.1*float64(i%10))
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = MSEMultiOutput(yTrue, yPred)
	}
}
