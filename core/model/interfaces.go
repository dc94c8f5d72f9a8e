package model

import (
	"github.com/YuminosukeSato/seqanomaly/core/tensor"
)

// SequenceClassifier は系列単位で二値分類を行うモデルのインターフェース
// 学習の入口はモデルごとにオプションが異なるため含めない
type SequenceClassifier interface {
	// Predict returns one decision per sequence.
	Predict(X *tensor.Sequences) ([]bool, error)

	// PredictProba returns P(positive) per sequence.
	PredictProba(X *tensor.Sequences) ([]float64, error)

	// Score returns the accuracy of Predict against y.
	Score(X *tensor.Sequences, y []float64) (float64, error)
}

// Persistable is the interface for models that can be saved and loaded.
type Persistable interface {
	Save(path string) error
	Load(path string) error
}

// ParameterGetter exposes hyperparameters for logging and inspection.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// WeightExporter はモデルの重みをエクスポート・インポート可能なモデルのインターフェース
type WeightExporter interface {
	ExportWeights() (*NetworkWeights, error)
	ImportWeights(weights *NetworkWeights) error
}
