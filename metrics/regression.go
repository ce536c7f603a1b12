package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/permimp/pkg/errors"
)

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("MSE", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("MSE", n, yPred.Len(), 0)
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// MSEMatrix は n×1 行列形式の入力に対してMSEを計算する
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return 0, errors.NewValueError("MSEMatrix", "empty matrix")
	}
	if rTrue != rPred {
		return 0, errors.NewDimensionError("MSEMatrix", rTrue, rPred, 0)
	}
	if cTrue != cPred {
		return 0, errors.NewDimensionError("MSEMatrix", cTrue, cPred, 1)
	}
	if cTrue != 1 {
		return 0, errors.NewValueError("MSEMatrix", "must be a column vector (n×1 matrix); use MSEMultiOutput")
	}

	mse, err := MSEMultiOutput(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return mse[0], nil
}

// MSEMultiOutput は列ごとのMSEを返す（scikit-learnの multioutput='raw_values' に相当）
func MSEMultiOutput(yTrue, yPred mat.Matrix) ([]float64, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return nil, errors.NewValueError("MSEMultiOutput", "empty matrix")
	}
	if rTrue != rPred {
		return nil, errors.NewDimensionError("MSEMultiOutput", rTrue, rPred, 0)
	}
	if cTrue != cPred {
		return nil, errors.NewDimensionError("MSEMultiOutput", cTrue, cPred, 1)
	}

	out := make([]float64, cTrue)
	for j := 0; j < cTrue; j++ {
		var sum float64
		for i := 0; i < rTrue; i++ {
			diff := yTrue.At(i, j) - yPred.At(i, j)
			sum += diff * diff
		}
		out[j] = sum / float64(rTrue)
	}
	return out, nil
}

// AggregateRMSE は列ごとのMSEを平均してから平方根をとる
func AggregateRMSE(mse []float64) (float64, error) {
	if len(mse) == 0 {
		return 0, errors.NewValueError("AggregateRMSE", "no target columns")
	}
	for _, v := range mse {
		if v < 0 || math.IsNaN(v) {
			return 0, errors.NewValueError("AggregateRMSE", "mean squared errors must be non-negative")
		}
	}
	return math.Sqrt(stat.Mean(mse, nil)), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("MAE", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("MAE", n, yPred.Len(), 0)
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score は決定係数（R²）を計算する
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("R2Score", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("R2Score", n, yPred.Len(), 0)
	}

	// yTrueの平均を計算
	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
	}
	yMean /= float64(n)

	// 全変動（TSS）と残差変動（RSS）を計算
	var tss, rss float64
	for i := 0; i < n; i++ {
		yTrueVal := yTrue.AtVec(i)
		yPredVal := yPred.AtVec(i)

		tss += (yTrueVal - yMean) * (yTrueVal - yMean)
		rss += (yTrueVal - yPredVal) * (yTrueVal - yPredVal)
	}

	// 全変動が0の場合（すべてのyTrueが同じ値）
	if tss == 0 {
		return 0, errors.Newf("R2Score: total sum of squares is zero (no variance in yTrue)")
	}

	// R² = 1 - RSS/TSS
	return 1 - rss/tss, nil
}

// R2ScoreMultiOutput は列ごとのR²を一様平均する（multioutput='uniform_average'）。
// 定数列のR²は定義できないため、完全一致なら1、そうでなければ0として扱い警告を出す。
func R2ScoreMultiOutput(yTrue, yPred mat.Matrix) (float64, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return 0, errors.NewValueError("R2ScoreMultiOutput", "empty matrix")
	}
	if rTrue != rPred {
		return 0, errors.NewDimensionError("R2ScoreMultiOutput", rTrue, rPred, 0)
	}
	if cTrue != cPred {
		return 0, errors.NewDimensionError("R2ScoreMultiOutput", cTrue, cPred, 1)
	}

	scores := make([]float64, cTrue)
	col := make([]float64, rTrue)
	for j := 0; j < cTrue; j++ {
		mat.Col(col, j, yTrue)
		yMean := stat.Mean(col, nil)

		var tss, rss float64
		for i, v := range col {
			tss += (v - yMean) * (v - yMean)
			d := v - yPred.At(i, j)
			rss += d * d
		}

		switch {
		case tss != 0:
			scores[j] = 1 - rss/tss
		case rss == 0:
			scores[j] = 1
		default:
			scores[j] = 0
			errors.Warn(errors.NewUndefinedMetricWarning("r2_score", "constant y_true column", 0))
		}
	}
	return floats.Sum(scores) / float64(cTrue), nil
}
