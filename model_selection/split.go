// Package model_selection provides reproducible train/test partitioning.
package model_selection

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/permimp/pkg/errors"
)

// Split holds the four partitions produced by TrainTestSplit together with
// the row indices (into the original matrices) that went into each side.
type Split struct {
	XTrain, XTest *mat.Dense
	YTrain, YTest *mat.Dense

	TrainIndices []int
	TestIndices  []int
}

// TrainTestSplit shuffles row indices with a PCG source seeded from
// randomSeed and assigns the first ceil(testSize*n) of them to the test set.
// The same inputs and seed always produce the same partition.
func TrainTestSplit(X, y mat.Matrix, testSize float64, randomSeed uint64) (*Split, error) {
	nSamples, nFeatures := X.Dims()
	yRows, nTargets := y.Dims()

	if nSamples == 0 || nFeatures == 0 {
		return nil, errors.NewModelError("TrainTestSplit", "empty feature table", errors.ErrEmptyData)
	}
	if nTargets == 0 {
		return nil, errors.NewModelError("TrainTestSplit", "empty target table", errors.ErrEmptyData)
	}
	if yRows != nSamples {
		return nil, errors.NewDimensionError("TrainTestSplit", nSamples, yRows, 0)
	}
	if !(testSize > 0 && testSize < 1) {
		return nil, errors.NewValidationError("test_size", "must be in the open interval (0, 1)", testSize)
	}

	nTest := int(math.Ceil(testSize * float64(nSamples)))
	nTrain := nSamples - nTest
	if nTrain < 1 || nTest < 1 {
		return nil, errors.NewValueError("TrainTestSplit",
			fmt.Sprintf("with n_samples=%d and test_size=%v the resulting train set would be empty", nSamples, testSize))
	}

	r := rand.New(rand.NewPCG(randomSeed, randomSeed))
	perm := r.Perm(nSamples)

	s := &Split{
		TestIndices:  append([]int(nil), perm[:nTest]...),
		TrainIndices: append([]int(nil), perm[nTest:]...),
	}
	s.XTest = takeRows(X, s.TestIndices)
	s.XTrain = takeRows(X, s.TrainIndices)
	s.YTest = takeRows(y, s.TestIndices)
	s.YTrain = takeRows(y, s.TrainIndices)
	return s, nil
}

// takeRows copies the given rows of m, in order, into a new matrix.
func takeRows(m mat.Matrix, rows []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(rows), c, nil)
	for i, r := range rows {
		for j := 0; j < c; j++ {
			out.Set(i, j, m.At(r, j))
		}
	}
	return out
}
