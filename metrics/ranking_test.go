package metrics

import (
	"math"
	"testing"
)

func TestAveragePrecision(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yScore  []float64
		want    float64
		wantErr bool
	}{
		{
			name:   "Anomalies on top",
			yTrue:  []float64{1, 1, 1, 0, 0},
			yScore: []float64{5, 4, 3, 2, 1},
			want:   1.0,
		},
		{
			name:   "Anomalies at the bottom",
			yTrue:  []float64{1, 1, 1, 0, 0},
			yScore: []float64{1, 2, 3, 4, 5},
			want:   (1.0/3 + 2.0/4 + 3.0/5) / 3,
		},
		{
			name:   "Interleaved",
			yTrue:  []float64{1, 0, 1, 0, 1},
			yScore: []float64{0.9, 0.8, 0.7, 0.6, 0.5},
			want:   (1.0/1 + 2.0/3 + 3.0/5) / 3,
		},
		{
			name:   "No anomalies",
			yTrue:  []float64{0, 0, 0, 0},
			yScore: []float64{1, 2, 3, 4},
			want:   0.0,
		},
		{
			name:    "Soft labels",
			yTrue:   []float64{0, 0.5, 1},
			yScore:  []float64{1, 2, 3},
			wantErr: true,
		},
		{
			name:    "Empty vectors",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AveragePrecision(FromSlice(tt.yTrue), FromSlice(tt.yScore))
			if (err != nil) != tt.wantErr {
				t.Errorf("AveragePrecision() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("AveragePrecision() = %v, want %v", got, tt.want)
			}
		})
	}
}
