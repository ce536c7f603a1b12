// Package tree implements CART decision trees on gonum matrices.
package tree

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/permimp/core/model"
	"github.com/YuminosukeSato/permimp/core/parallel"
	"github.com/YuminosukeSato/permimp/metrics"
	"github.com/YuminosukeSato/permimp/pkg/errors"
	"github.com/YuminosukeSato/permimp/pkg/log"
)

const (
	modelName = "DecisionTreeRegressor"

	// featureThreshold is the smallest gap between two sorted feature values
	// that still yields a split position.
	featureThreshold = 1e-7

	// epsilon is the impurity under which a node is considered pure.
	epsilon = 2.220446049250313e-16

	predictParallelThreshold = 1000
)

var (
	_ model.Regressor          = (*DecisionTreeRegressor)(nil)
	_ model.FeatureImportancer = (*DecisionTreeRegressor)(nil)
	_ model.ParameterGetter    = (*DecisionTreeRegressor)(nil)
	_ model.ParameterSetter    = (*DecisionTreeRegressor)(nil)
)

// DecisionTreeRegressor is a CART regression tree with squared-error
// impurity. It supports any number of target columns: each leaf stores the
// mean of every target over its samples.
type DecisionTreeRegressor struct {
	criterion           string
	maxDepth            int
	minSamplesSplit     int
	minSamplesLeaf      int
	minImpurityDecrease float64
	randomState         uint64

	state *model.StateManager

	root               *node
	depth              int
	nLeaves            int
	featureImportances []float64
}

// node is either an internal split (left holds x[feature] <= threshold) or a leaf.
type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node

	value    []float64 // per-target mean of the samples reaching this node
	impurity float64
	nSamples int
}

func (n *node) isLeaf() bool {
	return n.left == nil
}

// NewDecisionTreeRegressor creates a regressor with scikit-learn defaults:
// unlimited depth, min_samples_split=2, min_samples_leaf=1.
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	dt := &DecisionTreeRegressor{
		criterion:       "squared_error",
		maxDepth:        0,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		state:           model.NewStateManager(),
	}
	for _, opt := range opts {
		opt(dt)
	}
	return dt
}

// builder holds the training data in a layout suited to split search.
type builder struct {
	dt *DecisionTreeRegressor

	cols     [][]float64 // feature-major copy of X
	y        []float64   // row-major copy of y
	nOutputs int
	nTotal   int

	rng         *rand.Rand
	importances []float64
}

// Fit builds the tree from X (n_samples × n_features) and y (n_samples × n_outputs).
func (dt *DecisionTreeRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "DecisionTreeRegressor.Fit")

	if err := dt.validateParams(); err != nil {
		return err
	}

	nSamples, nFeatures := X.Dims()
	yRows, nOutputs := y.Dims()

	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("DecisionTreeRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if nOutputs == 0 {
		return errors.NewModelError("DecisionTreeRegressor.Fit", "empty target", errors.ErrEmptyData)
	}
	if yRows != nSamples {
		return errors.NewDimensionError("DecisionTreeRegressor.Fit", nSamples, yRows, 0)
	}
	if err := errors.CheckMatrix("DecisionTreeRegressor.Fit", X, nSamples, nFeatures); err != nil {
		return err
	}
	if err := errors.CheckMatrix("DecisionTreeRegressor.Fit", y, yRows, nOutputs); err != nil {
		return err
	}

	start := time.Now()
	dt.state.Reset()

	b := &builder{
		dt:          dt,
		cols:        make([][]float64, nFeatures),
		y:           make([]float64, nSamples*nOutputs),
		nOutputs:    nOutputs,
		nTotal:      nSamples,
		rng:         rand.New(rand.NewPCG(dt.randomState, dt.randomState)),
		importances: make([]float64, nFeatures),
	}
	for j := 0; j < nFeatures; j++ {
		b.cols[j] = mat.Col(nil, j, X)
	}
	for i := 0; i < nSamples; i++ {
		for k := 0; k < nOutputs; k++ {
			b.y[i*nOutputs+k] = y.At(i, k)
		}
	}

	idx := make([]int, nSamples)
	for i := range idx {
		idx[i] = i
	}

	dt.depth = 0
	dt.nLeaves = 0
	dt.root = b.build(idx, 0)
	dt.featureImportances = normalize(b.importances)
	dt.state.SetFitted(nFeatures, nOutputs, nSamples)

	log.GetLoggerWithName("tree").Debug("fit completed",
		log.ModelNameKey, modelName,
		log.OperationKey, log.OperationFit,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.TargetsKey, nOutputs,
		log.TreeDepthKey, dt.depth,
		log.TreeLeavesKey, dt.nLeaves,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

func (dt *DecisionTreeRegressor) validateParams() error {
	if dt.criterion != "squared_error" {
		return errors.NewValidationError("criterion", "only 'squared_error' is supported", dt.criterion)
	}
	if dt.maxDepth < 0 {
		return errors.NewValidationError("max_depth", "must be >= 0 (0 means unlimited)", dt.maxDepth)
	}
	if dt.minSamplesSplit < 2 {
		return errors.NewValidationError("min_samples_split", "must be >= 2", dt.minSamplesSplit)
	}
	if dt.minSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be >= 1", dt.minSamplesLeaf)
	}
	if dt.minImpurityDecrease < 0 {
		return errors.NewValidationError("min_impurity_decrease", "must be >= 0", dt.minImpurityDecrease)
	}
	return nil
}

// nodeStats returns the per-target mean and the impurity (mean over targets
// of the per-target variance) of the samples in idx.
func (b *builder) nodeStats(idx []int) ([]float64, float64) {
	k := b.nOutputs
	mean := make([]float64, k)
	for _, i := range idx {
		for o := 0; o < k; o++ {
			mean[o] += b.y[i*k+o]
		}
	}
	n := float64(len(idx))
	for o := range mean {
		mean[o] /= n
	}

	var impurity float64
	for _, i := range idx {
		for o := 0; o < k; o++ {
			d := b.y[i*k+o] - mean[o]
			impurity += d * d
		}
	}
	return mean, impurity / n / float64(k)
}

type split struct {
	feature   int
	threshold float64
	pos       int     // number of samples going left
	proxy     float64 // sum of child SSE, lower is better
	order     []int   // samples sorted by the split feature
}

func (b *builder) build(idx []int, depth int) *node {
	dt := b.dt
	value, impurity := b.nodeStats(idx)
	nd := &node{value: value, impurity: impurity, nSamples: len(idx)}

	if depth > dt.depth {
		dt.depth = depth
	}

	n := len(idx)
	if n < dt.minSamplesSplit ||
		n < 2*dt.minSamplesLeaf ||
		(dt.maxDepth > 0 && depth >= dt.maxDepth) ||
		impurity <= epsilon {
		dt.nLeaves++
		return nd
	}

	best, ok := b.bestSplit(idx)
	if !ok {
		dt.nLeaves++
		return nd
	}

	left := best.order[:best.pos]
	right := best.order[best.pos:]
	_, impLeft := b.nodeStats(left)
	_, impRight := b.nodeStats(right)

	nf := float64(n)
	weighted := nf * (impurity - float64(len(left))/nf*impLeft - float64(len(right))/nf*impRight)
	if weighted/float64(b.nTotal)+epsilon < dt.minImpurityDecrease {
		dt.nLeaves++
		return nd
	}
	b.importances[best.feature] += weighted

	nd.feature = best.feature
	nd.threshold = best.threshold
	nd.left = b.build(left, depth+1)
	nd.right = b.build(right, depth+1)
	return nd
}

// bestSplit scans every feature in a random order and returns the split
// with the lowest summed child SSE. Earlier candidates win ties.
func (b *builder) bestSplit(idx []int) (split, bool) {
	dt := b.dt
	k := b.nOutputs
	n := len(idx)

	totalSum := make([]float64, k)
	totalSq := make([]float64, k)
	for _, i := range idx {
		for o := 0; o < k; o++ {
			v := b.y[i*k+o]
			totalSum[o] += v
			totalSq[o] += v * v
		}
	}

	best := split{feature: -1, proxy: math.Inf(1)}
	leftSum := make([]float64, k)
	leftSq := make([]float64, k)

	for _, f := range b.rng.Perm(len(b.cols)) {
		col := b.cols[f]
		order := append([]int(nil), idx...)
		sort.SliceStable(order, func(a, c int) bool { return col[order[a]] < col[order[c]] })

		if col[order[n-1]] <= col[order[0]]+featureThreshold {
			continue // constant within this node
		}

		for o := 0; o < k; o++ {
			leftSum[o], leftSq[o] = 0, 0
		}
		found := false
		var featBest split
		featBest.proxy = best.proxy

		for p := 0; p < n-1; p++ {
			i := order[p]
			for o := 0; o < k; o++ {
				v := b.y[i*k+o]
				leftSum[o] += v
				leftSq[o] += v * v
			}
			nLeft := p + 1
			nRight := n - nLeft
			if nLeft < dt.minSamplesLeaf {
				continue
			}
			if nRight < dt.minSamplesLeaf {
				break
			}
			x0, x1 := col[order[p]], col[order[p+1]]
			if x1 <= x0+featureThreshold {
				continue
			}

			var proxy float64
			for o := 0; o < k; o++ {
				rs := totalSum[o] - leftSum[o]
				rq := totalSq[o] - leftSq[o]
				proxy += leftSq[o] - leftSum[o]*leftSum[o]/float64(nLeft)
				proxy += rq - rs*rs/float64(nRight)
			}
			if proxy < featBest.proxy {
				thr := x0/2 + x1/2
				if thr == x1 || math.IsInf(thr, 0) || math.IsNaN(thr) {
					thr = x0
				}
				featBest = split{feature: f, threshold: thr, pos: nLeft, proxy: proxy}
				found = true
			}
		}

		if found {
			featBest.order = order
			best = featBest
		}
	}

	return best, best.feature >= 0
}

func normalize(v []float64) []float64 {
	out := make([]float64, len(v))
	var sum float64
	for _, x := range v {
		sum += x
	}
	if sum <= 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / sum
	}
	return out
}

// Predict returns an n_samples × n_outputs matrix of leaf means.
func (dt *DecisionTreeRegressor) Predict(X mat.Matrix) (pred mat.Matrix, err error) {
	defer errors.Recover(&err, "DecisionTreeRegressor.Predict")

	if err := dt.state.RequireFitted(modelName, "Predict"); err != nil {
		return nil, err
	}
	nSamples, nFeatures := X.Dims()
	if err := dt.state.RequireFeatures("DecisionTreeRegressor.Predict", nFeatures); err != nil {
		return nil, err
	}
	_, nOutputs, _ := dt.state.Dimensions()
	if nSamples == 0 {
		return nil, errors.NewValueError("DecisionTreeRegressor.Predict", "empty data")
	}

	out := mat.NewDense(nSamples, nOutputs, nil)
	parallel.ParallelizeWithThreshold(nSamples, predictParallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			out.SetRow(i, dt.apply(X, i).value)
		}
	})
	return out, nil
}

func (dt *DecisionTreeRegressor) apply(X mat.Matrix, row int) *node {
	nd := dt.root
	for !nd.isLeaf() {
		if X.At(row, nd.feature) <= nd.threshold {
			nd = nd.left
		} else {
			nd = nd.right
		}
	}
	return nd
}

// Score returns R² averaged uniformly over the target columns.
func (dt *DecisionTreeRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := dt.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMultiOutput(y, pred)
}

// GetFeatureImportances returns the normalized total impurity decrease
// contributed by each feature. All zeros for a single-leaf tree.
func (dt *DecisionTreeRegressor) GetFeatureImportances() []float64 {
	return append([]float64(nil), dt.featureImportances...)
}

// GetDepth returns the depth of the fitted tree (a single leaf has depth 0).
func (dt *DecisionTreeRegressor) GetDepth() int {
	return dt.depth
}

// GetNLeaves returns the number of leaves of the fitted tree.
func (dt *DecisionTreeRegressor) GetNLeaves() int {
	return dt.nLeaves
}

// IsFitted reports whether Fit has completed successfully.
func (dt *DecisionTreeRegressor) IsFitted() bool {
	return dt.state.IsFitted()
}

// GetParams returns the hyperparameters using scikit-learn names.
func (dt *DecisionTreeRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":             dt.criterion,
		"max_depth":             dt.maxDepth,
		"min_samples_split":     dt.minSamplesSplit,
		"min_samples_leaf":      dt.minSamplesLeaf,
		"min_impurity_decrease": dt.minImpurityDecrease,
		"random_state":          dt.randomState,
	}
}

// SetParams updates hyperparameters by scikit-learn name. Unknown names and
// mistyped values are rejected before anything is changed.
func (dt *DecisionTreeRegressor) SetParams(params map[string]interface{}) error {
	next := *dt
	for key, value := range params {
		var ok bool
		switch key {
		case "criterion":
			next.criterion, ok = value.(string)
		case "max_depth":
			next.maxDepth, ok = value.(int)
		case "min_samples_split":
			next.minSamplesSplit, ok = value.(int)
		case "min_samples_leaf":
			next.minSamplesLeaf, ok = value.(int)
		case "min_impurity_decrease":
			next.minImpurityDecrease, ok = value.(float64)
		case "random_state":
			switch v := value.(type) {
			case uint64:
				next.randomState, ok = v, true
			case int:
				next.randomState, ok = uint64(v), v >= 0
			}
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	if err := next.validateParams(); err != nil {
		return err
	}
	*dt = next
	return nil
}
