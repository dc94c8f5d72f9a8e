package model

import "github.com/YuminosukeSato/seqanomaly/core/tensor"

// SequenceTransformer は系列データ変換のインターフェース
// パディングされたステップは変換の対象外とする
type SequenceTransformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X *tensor.Sequences) error

	// Transform はデータを変換する
	Transform(X *tensor.Sequences) (*tensor.Sequences, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X *tensor.Sequences) (*tensor.Sequences, error)

	// InverseTransform は変換を元に戻す
	InverseTransform(X *tensor.Sequences) (*tensor.Sequences, error)
}
