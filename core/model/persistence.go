package model

import (
	"encoding/gob"
	"io"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/seqanomaly/pkg/errors"
)

// SaveWeights はネットワークの重みをgob形式でファイルに保存する
//
// パラメータ:
//   - weights: 保存する重み
//   - filename: 保存先のファイルパス（親ディレクトリは作成される）
//
// 書き込みはアトミックではない。途中でクラッシュすると壊れたファイルが残る。
func SaveWeights(weights *NetworkWeights, filename string) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create directory %s", dir)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "create %s", filename)
	}
	if err := SaveWeightsToWriter(weights, file); err != nil {
		_ = file.Close()
		return errors.Wrapf(err, "write %s", filename)
	}
	if err := file.Close(); err != nil {
		return errors.Wrapf(err, "close %s", filename)
	}
	return nil
}

// LoadWeights はファイルからネットワークの重みを読み込む
func LoadWeights(filename string) (*NetworkWeights, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", filename)
	}
	defer file.Close()

	weights, err := LoadWeightsFromReader(file)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", filename)
	}
	return weights, nil
}

// SaveWeightsToWriter はio.Writerに重みを書き出す
func SaveWeightsToWriter(weights *NetworkWeights, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(weights); err != nil {
		return errors.Wrap(err, "encode weights")
	}
	return nil
}

// LoadWeightsFromReader はio.Readerから重みを読み込み、検証する
func LoadWeightsFromReader(r io.Reader) (*NetworkWeights, error) {
	var weights NetworkWeights
	if err := gob.NewDecoder(r).Decode(&weights); err != nil {
		return nil, errors.Wrap(err, "decode weights")
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &weights, nil
}
