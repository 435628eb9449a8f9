// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training neural networks.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Optimizer interface for custom optimizers
//
// An optimizer reads the gradients of a network's completed cycle and
// writes the updated parameters back with Network.SetParams.
//
// # Training Loop Pattern
//
//	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1, Momentum: 0.9})
//
//	for epoch := range numEpochs {
//	    // 1. Forward pass
//	    out, err := net.Feedforward(x)
//
//	    // 2. Backward pass
//	    err = net.Backpropagate(y, nn.MSE, nil)
//
//	    // 3. Update parameters
//	    err = opt.Step(net)
//	}
package optim
