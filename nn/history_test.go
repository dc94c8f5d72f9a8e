package nn

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/seqanomaly/pkg/errors"
)

func sampleHistory() *History {
	h := NewHistory()
	h.Record(0, map[string]float64{"loss": 0.7, "val_acc": 0.5})
	h.Record(1, map[string]float64{"loss": 0.5, "val_acc": 0.8})
	h.Record(2, map[string]float64{"loss": 0.6, "val_acc": 0.8})
	return h
}

func TestHistoryBest(t *testing.T) {
	h := sampleHistory()

	epoch, value, ok := h.Best("val_acc")
	require.True(t, ok)
	assert.Equal(t, 1, epoch)
	assert.Equal(t, 0.8, value)

	epoch, value, ok = h.Best("loss")
	require.True(t, ok)
	assert.Equal(t, 1, epoch)
	assert.Equal(t, 0.5, value)

	_, _, ok = h.Best("auc")
	assert.False(t, ok)

	last, ok := h.Last("loss")
	require.True(t, ok)
	assert.Equal(t, 0.6, last)
}

func TestHistoryPlot(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"curves.png", "curves.svg"} {
		path := filepath.Join(dir, name)
		require.NoError(t, sampleHistory().Plot(path))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	err := sampleHistory().Plot(filepath.Join(dir, "x.png"), "auc")
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr))

	err = NewHistory().Plot(filepath.Join(dir, "empty.png"))
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}
