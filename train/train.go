// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train fits networks with mini-batch gradient descent.
//
// Example:
//
//	history, err := train.Fit(net, x, y, optim.NewSGD(optim.SGDConfig{LR: 0.1}), train.Config{
//	    Epochs:    2000,
//	    BatchSize: 4,
//	    Loss:      nn.MSE,
//	    LogEvery:  500,
//	    Logger:    slog.Default(),
//	})
package train

import (
	"github.com/born-ml/mlp/internal/train"
	"github.com/born-ml/mlp/matrix"
	"github.com/born-ml/mlp/nn"
	"github.com/born-ml/mlp/optim"
)

// Config controls a training run.
type Config = train.Config

// Errors returned by training and evaluation.
var (
	ErrNoSamples      = train.ErrNoSamples
	ErrSampleMismatch = train.ErrSampleMismatch
	ErrInvalidConfig  = train.ErrInvalidConfig
	ErrDiverged       = train.ErrDiverged
)

// Fit trains net on x against y and returns the mean loss of every epoch.
func Fit(net *nn.Network, x, y *matrix.Matrix, opt optim.Optimizer, cfg Config) ([]float64, error) {
	return train.Fit(net, x, y, opt, cfg)
}

// Evaluate returns the loss of net's predictions for x against y.
func Evaluate(net *nn.Network, x, y *matrix.Matrix, l nn.Loss) (float64, error) {
	return train.Evaluate(net, x, y, l)
}

// Accuracy returns the fraction of rows whose arg-max prediction matches y.
func Accuracy(net *nn.Network, x, y *matrix.Matrix) (float64, error) {
	return train.Accuracy(net, x, y)
}
