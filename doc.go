// Package permimp measures which input features a decision-tree regressor
// depends on, using permutation importance.
//
// For a dataset it splits the rows 80/20, fits a CART regression tree on the
// training part, reports the per-target MSE and the overall RMSE on the test
// part, then shuffles each feature of the test set in turn and records how
// much the R² score drops. Features are ranked by that drop, written to a
// CSV table and drawn as a horizontal bar chart.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/permimp/dataset"
//	    "github.com/YuminosukeSato/permimp/importance"
//	)
//
//	func main() {
//	    rep, err := importance.Run("data/housing.csv",
//	        dataset.CSVLoader{Targets: []string{"price"}},
//	        importance.WithOutputDir("output"),
//	        importance.WithCreateDirs(true),
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(rep.TestLoss, rep.TopFeatures)
//	}
//
// The run above writes
//
//	output/FI_Dataframes/Permutation/housing_PI_DT_without_corr.csv
//	output/FI_Plots/Permutation/housing_PI_DT_without_corr.png
//
// # Packages
//
//   - importance: the pipeline (Run, Report, options)
//   - sklearn/tree: DecisionTreeRegressor
//   - inspection: PermutationImportance
//   - model_selection: TrainTestSplit
//   - metrics: MSE, RMSE, R² (single and multi-output)
//   - dataset: Table, Loader, CSVLoader
//   - report: ranking, CSV export, bar chart
//   - core/model: estimator interfaces and fitted-state tracking
//   - core/parallel: parallel processing utilities
//   - pkg/errors, pkg/log: error types and structured logging
//
// # Performance
//
// Prediction is parallelized for inputs with more than 1000 rows, and
// permutation importance evaluates features concurrently, one worker per
// CPU core by default. Results do not depend on the degree of parallelism.
package permimp
