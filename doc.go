// Package seqanomaly detects anomalous sequences with a small recurrent
// network, designed to run next to backend services that already produce
// per-step loss values.
//
// Each input is one series of scalar loss values. Series are zero padded to
// a common length, and padded steps are masked out of the recurrence. The
// detector outputs one normal/anomalous decision per series.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "log"
//
//	    "github.com/YuminosukeSato/seqanomaly/anomaly"
//	    "github.com/YuminosukeSato/seqanomaly/preprocessing"
//	)
//
//	func main() {
//	    series := [][]float64{{0.1, 0.2, 0.1}, {0.1, 2.4, 2.1, 0.3}}
//	    labels := []float64{0, 1}
//
//	    X, err := preprocessing.PadSequences(series, preprocessing.PadOptions{})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    detector := anomaly.NewRNNAnomalyDetector(anomaly.WithRandomState(42))
//	    if err := detector.Train(context.Background(), X, labels,
//	        anomaly.WithValidationSplit(0.5)); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    flags, err := detector.Predict(X)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    log.Println(flags)
//	}
//
// # Packages
//
//   - anomaly: RNNAnomalyDetector with build, train, predict and save
//   - nn: layers, RMSprop, binary cross-entropy, Fit loop and callbacks
//   - metrics: accuracy, log loss, AUC, precision/recall
//   - preprocessing: padding and a mask-aware standard scaler
//   - core/model: lifecycle state, weight snapshots and persistence
//   - core/tensor: the (samples, timesteps, features) container
//   - core/parallel: chunked parallel inference
//   - pkg/errors, pkg/log: error types and structured logging
//
// # Training
//
// Train holds out the tail of the data for validation, keeps the weights
// with the best validation accuracy in best_anomaly_weights.h5, stops after
// a configurable number of epochs without improvement and finally saves the
// restored model under saved_models/. Cancelling the context stops training
// at the next batch boundary and still restores and saves the best weights.
package seqanomaly
