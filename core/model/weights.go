package model

import (
	"encoding/json"

	"github.com/YuminosukeSato/seqanomaly/pkg/errors"
)

// WeightsFormatVersion is bumped whenever NetworkWeights changes shape.
const WeightsFormatVersion = "1"

// LayerSpec describes one layer of a network well enough to rebuild it.
type LayerSpec struct {
	Kind       string  `json:"kind"`
	Units      int     `json:"units,omitempty"`
	Activation string  `json:"activation,omitempty"`
	Rate       float64 `json:"rate,omitempty"`
	MaskValue  float64 `json:"mask_value,omitempty"`
}

// ParamBlock is one trainable matrix in row-major order.
type ParamBlock struct {
	Name string    `json:"name"`
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

// NetworkWeights はネットワークの構造と重みを表す構造体（シリアライゼーション用）
type NetworkWeights struct {
	// ModelType はモデルの種類（RNNAnomalyDetector等）
	ModelType string `json:"model_type"`

	// Version は互換性チェック用のフォーマットバージョン
	Version string `json:"version"`

	// SeqLen is the bound sequence length, 0 for variable length.
	SeqLen   int `json:"seq_len"`
	InputDim int `json:"input_dim"`

	Layers []LayerSpec  `json:"layers"`
	Params []ParamBlock `json:"params"`

	// Metadata holds free-form annotations such as the best epoch.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ToJSON serializes the weights with indentation.
func (nw *NetworkWeights) ToJSON() ([]byte, error) {
	return json.MarshalIndent(nw, "", "  ")
}

// FromJSON replaces nw with the decoded document.
func (nw *NetworkWeights) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, nw); err != nil {
		return errors.Wrap(err, "decode network weights")
	}
	return nil
}

// Validate checks internal consistency.
func (nw *NetworkWeights) Validate() error {
	if nw.ModelType == "" {
		return errors.NewValidationError("model_type", "is required", nw.ModelType)
	}
	if nw.Version != WeightsFormatVersion {
		return errors.NewValidationError("version", "unsupported weights format", nw.Version)
	}
	if len(nw.Layers) == 0 {
		return errors.NewValidationError("layers", "network has no layers", len(nw.Layers))
	}
	for _, p := range nw.Params {
		if p.Rows*p.Cols != len(p.Data) {
			return errors.NewValidationError(p.Name, "data length does not match rows*cols", len(p.Data))
		}
	}
	return nil
}

// Clone returns a deep copy.
func (nw *NetworkWeights) Clone() *NetworkWeights {
	clone := &NetworkWeights{
		ModelType: nw.ModelType,
		Version:   nw.Version,
		SeqLen:    nw.SeqLen,
		InputDim:  nw.InputDim,
		Layers:    append([]LayerSpec(nil), nw.Layers...),
		Params:    make([]ParamBlock, len(nw.Params)),
	}
	for i, p := range nw.Params {
		clone.Params[i] = ParamBlock{
			Name: p.Name,
			Rows: p.Rows,
			Cols: p.Cols,
			Data: append([]float64(nil), p.Data...),
		}
	}
	if nw.Metadata != nil {
		clone.Metadata = make(map[string]string, len(nw.Metadata))
		for k, v := range nw.Metadata {
			clone.Metadata[k] = v
		}
	}
	return clone
}
