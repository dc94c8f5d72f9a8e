// Package preprocessing prepares loss series for the sequence models.
package preprocessing

import (
	"github.com/YuminosukeSato/seqanomaly/core/tensor"
	"github.com/YuminosukeSato/seqanomaly/pkg/errors"
)

// Padding and truncation sides.
const (
	Pre  = "pre"
	Post = "post"
)

// PadOptions controls PadSequences.
type PadOptions struct {
	// MaxLen is the output length; 0 uses the longest series.
	MaxLen int
	// Padding is the side filled with Value: Pre (default) or Post.
	Padding string
	// Truncating is the side dropped from long series: Pre (default) or Post.
	Truncating string
	// Value fills padded steps. It should equal the network mask value.
	Value float64
}

// PadSequences turns variable-length scalar series into an (n, T, 1) batch.
//
//	X, err := preprocessing.PadSequences(series, preprocessing.PadOptions{MaxLen: 20})
func PadSequences(series [][]float64, opts PadOptions) (*tensor.Sequences, error) {
	if len(series) == 0 {
		return nil, errors.NewModelError("PadSequences", "empty data", errors.ErrEmptyData)
	}
	if opts.Padding == "" {
		opts.Padding = Pre
	}
	if opts.Truncating == "" {
		opts.Truncating = Pre
	}
	if opts.Padding != Pre && opts.Padding != Post {
		return nil, errors.NewValidationError("padding", "must be \"pre\" or \"post\"", opts.Padding)
	}
	if opts.Truncating != Pre && opts.Truncating != Post {
		return nil, errors.NewValidationError("truncating", "must be \"pre\" or \"post\"", opts.Truncating)
	}
	if opts.MaxLen < 0 {
		return nil, errors.NewValidationError("max_len", "must be >= 0", opts.MaxLen)
	}

	maxLen := opts.MaxLen
	if maxLen == 0 {
		for _, s := range series {
			maxLen = max(maxLen, len(s))
		}
	}
	if maxLen == 0 {
		return nil, errors.NewModelError("PadSequences", "all series are empty", errors.ErrEmptyData)
	}

	data := make([]float64, len(series)*maxLen)
	for i := range data {
		data[i] = opts.Value
	}
	for i, s := range series {
		if len(s) > maxLen {
			if opts.Truncating == Pre {
				s = s[len(s)-maxLen:]
			} else {
				s = s[:maxLen]
			}
		}
		offset := 0
		if opts.Padding == Pre {
			offset = maxLen - len(s)
		}
		copy(data[i*maxLen+offset:], s)
	}
	return tensor.NewSequences(len(series), maxLen, 1, data), nil
}
