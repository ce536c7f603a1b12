package tree

// Option is a function that configures DecisionTreeRegressor
type Option func(*DecisionTreeRegressor)

// WithCriterion sets the split quality measure. Only "squared_error" is supported.
func WithCriterion(criterion string) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.criterion = criterion
	}
}

// WithMaxDepth limits the depth of the tree. 0 means no limit.
func WithMaxDepth(depth int) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.maxDepth = depth
	}
}

// WithMinSamplesSplit sets the minimum number of samples required to split a node.
func WithMinSamplesSplit(n int) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.minSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets the minimum number of samples required in each leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.minSamplesLeaf = n
	}
}

// WithMinImpurityDecrease sets the weighted impurity decrease a split must reach.
func WithMinImpurityDecrease(v float64) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.minImpurityDecrease = v
	}
}

// WithRandomState seeds the per-node feature order.
func WithRandomState(seed uint64) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.randomState = seed
	}
}
