// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides a fully connected multilayer perceptron with explicit
// forward and backward passes.
//
// # Overview
//
// This package contains:
//   - Network and Layer: a stack of dense layers a = f(x @ W + b)
//   - Activations: Identity, Sigmoid, Tanh, ReLU, LeakyReLU, Sign, HardTanh, Softmax
//   - Losses: MSE, CCE, MAE, BCE and their gradients
//   - Cache keys for inspecting the intermediates of a cycle
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/mlp/matrix"
//	    "github.com/born-ml/mlp/nn"
//	)
//
//	func main() {
//	    net, err := nn.NewSequential([]int{2, 4, 1},
//	        []nn.Activation{nn.ReLU, nn.Sigmoid}, nil)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    out, err := net.Feedforward(x)
//	    ...
//	}
//
// # Training Cycle
//
// A cycle is one Feedforward followed by one Backpropagate. Gradients are
// read from the completed cycle and applied by the caller (or by an
// optimizer from the optim package):
//
//	out, _ := net.Feedforward(x)
//	l, _ := nn.ComputeLoss(nn.MSE, out, y)
//	_ = net.Backpropagate(y, nn.MSE, nil)
//	for i := range net.NumLayers() {
//	    dW, _ := net.WeightGradient(i)
//	    db, _ := net.BiasGradient(i)
//	    ...
//	}
//
// Starting a new Feedforward discards the previous cycle entirely, so
// gradients can never mix values from two different passes.
//
// # Softmax with Cross-Entropy
//
// When the last layer uses Softmax and the loss is CCE, the output error
// signal is ŷ - y. The loss gradient function is not consulted in that case.
//
// # Saving Networks
//
// Save writes weights, biases and activations to a checksummed .born file
// and Load rebuilds the network from it. ExportSafeTensors writes the
// parameters for other tooling.
package nn
