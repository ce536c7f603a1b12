package importance

import (
	"io"
	"os"

	"github.com/YuminosukeSato/permimp/inspection"
	"github.com/YuminosukeSato/permimp/pkg/log"
)

type config struct {
	outputDir   string
	randomState uint64
	testSize    float64
	nRepeats    int
	topN        int
	createDirs  bool
	logger      log.Logger
	stdout      io.Writer
	scorer      inspection.Scorer
}

func defaultConfig() config {
	return config{
		outputDir:   "output",
		randomState: 42,
		testSize:    0.2,
		nRepeats:    10,
		topN:        10,
		stdout:      os.Stdout,
		scorer:      inspection.R2,
	}
}

// Option configures Run.
type Option func(*config)

// WithOutputDir sets the root directory for the CSV and plot artifacts.
func WithOutputDir(dir string) Option {
	return func(c *config) { c.outputDir = dir }
}

// WithRandomState seeds the split, the tree and the permutations.
func WithRandomState(seed uint64) Option {
	return func(c *config) { c.randomState = seed }
}

// WithTestSize sets the fraction of rows held out for evaluation.
func WithTestSize(f float64) Option {
	return func(c *config) { c.testSize = f }
}

// WithNRepeats sets the number of shuffles per feature.
func WithNRepeats(n int) Option {
	return func(c *config) { c.nRepeats = n }
}

// WithTopN sets how many feature names the Report carries.
func WithTopN(n int) Option {
	return func(c *config) { c.topN = n }
}

// WithCreateDirs makes Run create missing artifact directories.
func WithCreateDirs(create bool) Option {
	return func(c *config) { c.createDirs = create }
}

// WithLogger sets the structured logger.
func WithLogger(l log.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithStdout sets where the human-readable progress lines go.
// Pass io.Discard to silence them.
func WithStdout(w io.Writer) Option {
	return func(c *config) { c.stdout = w }
}

// WithScorer replaces the R² scorer used for permutation importance.
func WithScorer(s inspection.Scorer) Option {
	return func(c *config) { c.scorer = s }
}
