package nn

import (
	"math"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/seqanomaly/pkg/errors"
)

// History is the per-epoch record of a Fit call.
type History struct {
	Epochs  []int
	Metrics map[string][]float64
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{Metrics: make(map[string][]float64)}
}

// Record appends one epoch.
func (h *History) Record(epoch int, results map[string]float64) {
	h.Epochs = append(h.Epochs, epoch)
	for name, value := range results {
		h.Metrics[name] = append(h.Metrics[name], value)
	}
}

// Len returns the number of recorded epochs.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.Epochs)
}

// Names returns the recorded metric names in sorted order.
func (h *History) Names() []string {
	names := make([]string, 0, len(h.Metrics))
	for name := range h.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Last returns the most recent value of metric.
func (h *History) Last(metric string) (float64, bool) {
	values := h.Metrics[metric]
	if len(values) == 0 {
		return 0, false
	}
	return values[len(values)-1], true
}

// Best returns the epoch and value where metric was best. Ties keep the
// earliest epoch.
func (h *History) Best(metric string) (epoch int, value float64, ok bool) {
	values := h.Metrics[metric]
	if len(values) == 0 {
		return 0, 0, false
	}
	higher := HigherIsBetter(metric)
	bestIdx := -1
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if bestIdx < 0 || (higher && v > values[bestIdx]) || (!higher && v < values[bestIdx]) {
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return 0, 0, false
	}
	return h.Epochs[bestIdx], values[bestIdx], true
}

// Plot draws learning curves for metrics (all recorded metrics when none
// are named) and saves them to path. The image format follows the file
// extension, e.g. .png or .svg.
func (h *History) Plot(path string, metrics ...string) error {
	if h.Len() == 0 {
		return errors.Wrap(errors.ErrEmptyData, "history has no epochs")
	}
	if len(metrics) == 0 {
		metrics = h.Names()
	}

	p := plot.New()
	p.Title.Text = "Training history"
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = "value"

	var lines []interface{}
	for _, name := range metrics {
		values, ok := h.Metrics[name]
		if !ok {
			return errors.NewValidationError("metric", "not recorded in history", name)
		}
		pts := make(plotter.XYs, len(values))
		for i, v := range values {
			pts[i].X = float64(h.Epochs[i])
			pts[i].Y = v
		}
		lines = append(lines, name, pts)
	}
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return errors.Wrap(err, "failed to add learning curves")
	}
	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "failed to save plot %s", path)
	}
	return nil
}
