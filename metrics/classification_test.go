package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAUC(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yScore  []float64
		want    float64
		wantErr bool
	}{
		{
			name:   "Anomalies ranked first",
			yTrue:  []float64{0, 0, 0, 1, 1, 1},
			yScore: []float64{0.1, 0.2, 0.3, 0.7, 0.8, 0.9},
			want:   1.0,
		},
		{
			name:   "Anomalies ranked last",
			yTrue:  []float64{0, 0, 0, 1, 1, 1},
			yScore: []float64{0.9, 0.8, 0.7, 0.3, 0.2, 0.1},
			want:   0.0,
		},
		{
			name:   "Constant scores",
			yTrue:  []float64{0, 1, 0, 1},
			yScore: []float64{0.5, 0.5, 0.5, 0.5},
			want:   0.5,
		},
		{
			name:   "One swapped pair",
			yTrue:  []float64{0, 0, 1, 1},
			yScore: []float64{0.1, 0.4, 0.35, 0.8},
			want:   0.75,
		},
		{
			name:   "Partial tie",
			yTrue:  []float64{0, 1, 1},
			yScore: []float64{0.4, 0.4, 0.9},
			want:   0.75,
		},
		{
			name:   "Only anomalies",
			yTrue:  []float64{1, 1, 1, 1},
			yScore: []float64{0.1, 0.4, 0.35, 0.8},
			want:   0.5,
		},
		{
			name:    "Soft labels",
			yTrue:   []float64{0, 0.5, 1},
			yScore:  []float64{0.1, 0.5, 0.9},
			wantErr: true,
		},
		{
			name:    "Length mismatch",
			yTrue:   []float64{0, 1},
			yScore:  []float64{0.5},
			wantErr: true,
		},
		{
			name:    "Empty",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AUC(FromSlice(tt.yTrue), FromSlice(tt.yScore))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestBinaryLogLoss(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{"confident and right", []float64{0, 1}, []float64{0, 1}, 0, false},
		{"mostly right", []float64{0, 0, 1, 1}, []float64{0.1, 0.2, 0.8, 0.9}, 0.164252, false},
		{"coin flip", []float64{0, 1}, []float64{0.5, 0.5}, math.Ln2, false},
		{"mostly wrong", []float64{0, 0, 1, 1}, []float64{0.9, 0.9, 0.1, 0.1}, 2.302585, false},
		{"soft labels", []float64{0, 0.5, 1}, []float64{0.1, 0.5, 0.9}, 0, true},
		{"empty", nil, nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BinaryLogLoss(FromSlice(tt.yTrue), FromSlice(tt.yPred))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-5)
		})
	}
}

func TestAccuracyAndError(t *testing.T) {
	yTrue := FromSlice([]float64{0, 1, 1, 0, 1})
	yPred := FromBools([]bool{false, true, false, false, true})

	acc, err := Accuracy(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, acc, 1e-12)

	errRate, err := ClassificationError(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, errRate, 1e-12)

	_, err = Accuracy(yTrue, FromSlice([]float64{1}))
	assert.Error(t, err)
	_, err = Accuracy(nil, nil)
	assert.Error(t, err)
}

func TestBrierScore(t *testing.T) {
	got, err := BrierScore(FromSlice([]float64{0, 1}), FromSlice([]float64{0.2, 0.6}))
	require.NoError(t, err)
	assert.InDelta(t, (0.04+0.16)/2, got, 1e-12)
}

func TestConfusionMatrix(t *testing.T) {
	yTrue := FromSlice([]float64{1, 1, 1, 0, 0, 0, 0})
	yPred := FromSlice([]float64{1, 1, 0, 1, 0, 0, 0})

	cm, err := NewConfusionMatrix(yTrue, yPred)
	require.NoError(t, err)
	assert.Equal(t, ConfusionMatrix{TruePositive: 2, FalsePositive: 1, TrueNegative: 3, FalseNegative: 1}, *cm)
	assert.InDelta(t, 2.0/3, cm.Precision(), 1e-12)
	assert.InDelta(t, 2.0/3, cm.Recall(), 1e-12)
	assert.InDelta(t, 2.0/3, cm.F1(), 1e-12)

	p, err := Precision(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, cm.Precision(), p, 1e-12)
	r, err := Recall(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, cm.Recall(), r, 1e-12)
	f, err := F1Score(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, cm.F1(), f, 1e-12)

	none := &ConfusionMatrix{TrueNegative: 4}
	assert.Equal(t, 0.0, none.Precision())
	assert.Equal(t, 0.0, none.Recall())
	assert.Equal(t, 0.0, none.F1())

	_, err = NewConfusionMatrix(yTrue, FromSlice([]float64{0.3, 1, 0, 1, 0, 0, 0}))
	assert.Error(t, err)
}

func BenchmarkAUC(b *testing.B) {
	n := 1000
	yTrue := make([]float64, n)
	yScore := make([]float64, n)
	for i := 0; i < n; i++ {
		if i >= n/2 {
			yTrue[i] = 1
		}
		yScore[i] = float64(i) / float64(n)
	}
	yTrueVec := FromSlice(yTrue)
	yScoreVec := FromSlice(yScore)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = AUC(yTrueVec, yScoreVec)
	}
}
