// Package nn is a small recurrent network for binary sequence
// classification, backed by gonum matrices.
//
// A network is a fixed pipeline: optional masking, per-step dense and
// dropout layers, one SimpleRNN that returns its final state, dense and
// dropout layers on that state, and a single-unit output. It trains with
// mini-batch backpropagation through time.
//
//	net, err := nn.NewBuilder(20, 1).
//	    Masking(0).
//	    SimpleRNN(32, "tanh").
//	    Dense(1, "sigmoid").
//	    Compile(opt, nn.NewBinaryCrossEntropy(), 42)
//
// Fit reports per-epoch "loss" and "acc", plus "val_loss" and "val_acc"
// when validation data is given, to a list of callbacks such as
// ModelCheckpoint and EarlyStoppingCallback.
package nn
