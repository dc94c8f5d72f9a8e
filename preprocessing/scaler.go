package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/seqanomaly/core/model"
	"github.com/YuminosukeSato/seqanomaly/core/tensor"
	"github.com/YuminosukeSato/seqanomaly/pkg/errors"
)

// MaskedStandardScaler は系列データの標準化スケーラー
// マスク値のステップ（パディング）は統計から除外し、変換後もマスク値のまま残す
// 実データが変換後にちょうどマスク値になった場合は隣の浮動小数点数へずらし、
// パディングと区別できるようにする
type MaskedStandardScaler struct {
	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の標準偏差
	Scale []float64

	// NFeatures は特徴量の数
	NFeatures int

	// MaskValue はパディングを表す値（ネットワークのマスク値と一致させる）
	MaskValue float64

	// WithMean は平均を引くかどうか (デフォルト: true)
	WithMean bool

	// WithStd は標準偏差で割るかどうか (デフォルト: true)
	WithStd bool

	fitted bool
}

// NewMaskedStandardScaler は全特徴量を標準化し、maskValueのステップを
// パディングとして扱うスケーラーを作成する
//
//	scaler := preprocessing.NewMaskedStandardScaler(0)
//	Xs, err := scaler.FitTransform(X)
func NewMaskedStandardScaler(maskValue float64) *MaskedStandardScaler {
	return &MaskedStandardScaler{MaskValue: maskValue, WithMean: true, WithStd: true}
}

// IsFitted はFit済みかどうかを返す
func (s *MaskedStandardScaler) IsFitted() bool {
	return s.fitted
}

// Fit は訓練データのマスクされていないステップから平均と標準偏差を計算する
func (s *MaskedStandardScaler) Fit(X *tensor.Sequences) error {
	if X == nil {
		return errors.NewModelError("MaskedStandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	n, steps, f := X.Dims()
	mask := X.Mask(s.MaskValue)

	columns := make([][]float64, f)
	for i := 0; i < n; i++ {
		for t := 0; t < steps; t++ {
			if !mask[i][t] {
				continue
			}
			for k := 0; k < f; k++ {
				columns[k] = append(columns[k], X.At(i, t, k))
			}
		}
	}
	if f == 0 || len(columns[0]) == 0 {
		return errors.NewModelError("MaskedStandardScaler.Fit", "no unmasked steps", errors.ErrEmptyData)
	}

	s.NFeatures = f
	s.Mean = make([]float64, f)
	s.Scale = make([]float64, f)
	for k, col := range columns {
		mean, std := stat.PopMeanStdDev(col, nil)
		s.Mean[k] = 0
		if s.WithMean {
			s.Mean[k] = mean
		}
		s.Scale[k] = 1
		// 標準偏差が0に近い場合は1のまま（ゼロ除算を避ける）
		if s.WithStd && math.Abs(std) >= 1e-8 {
			s.Scale[k] = std
		}
	}
	s.fitted = true
	return nil
}

// Transform はマスクされていないステップを標準化した新しいバッチを返す
func (s *MaskedStandardScaler) Transform(X *tensor.Sequences) (*tensor.Sequences, error) {
	return s.apply("Transform", X, func(v float64, k int) float64 {
		return (v - s.Mean[k]) / s.Scale[k]
	})
}

// InverseTransform は標準化された値を元のスケールに戻す
func (s *MaskedStandardScaler) InverseTransform(X *tensor.Sequences) (*tensor.Sequences, error) {
	return s.apply("InverseTransform", X, func(v float64, k int) float64 {
		return v*s.Scale[k] + s.Mean[k]
	})
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *MaskedStandardScaler) FitTransform(X *tensor.Sequences) (*tensor.Sequences, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

func (s *MaskedStandardScaler) apply(method string, X *tensor.Sequences, fn func(v float64, k int) float64) (*tensor.Sequences, error) {
	if !s.fitted {
		return nil, errors.NewNotFittedError("MaskedStandardScaler", method)
	}
	if X == nil {
		return nil, errors.NewModelError("MaskedStandardScaler."+method, "empty data", errors.ErrEmptyData)
	}
	n, steps, f := X.Dims()
	if f != s.NFeatures {
		return nil, errors.NewDimensionError("MaskedStandardScaler."+method, s.NFeatures, f, 2)
	}

	mask := X.Mask(s.MaskValue)
	out := X.Clone()
	for i := 0; i < n; i++ {
		for t := 0; t < steps; t++ {
			if !mask[i][t] {
				continue
			}
			for k := 0; k < f; k++ {
				out.Set(i, t, k, s.offMask(fn(X.At(i, t, k), k)))
			}
		}
	}
	return out, nil
}

// offMask は実データがマスク値と衝突しないよう、一致した値を1ulpだけずらす
func (s *MaskedStandardScaler) offMask(v float64) float64 {
	if v == s.MaskValue {
		return math.Nextafter(s.MaskValue, math.Inf(1))
	}
	return v
}

// GetParams はスケーラーのパラメータを取得する
func (s *MaskedStandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean":  s.WithMean,
		"with_std":   s.WithStd,
		"mask_value": s.MaskValue,
	}
}

// String はスケーラーの短い説明を返す
func (s *MaskedStandardScaler) String() string {
	if !s.fitted {
		return fmt.Sprintf("MaskedStandardScaler(mask_value=%g, fitted=false)", s.MaskValue)
	}
	return fmt.Sprintf("MaskedStandardScaler(mask_value=%g, n_features=%d)", s.MaskValue, s.NFeatures)
}

var _ model.SequenceTransformer = (*MaskedStandardScaler)(nil)
