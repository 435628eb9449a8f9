// Package optim implements optimization algorithms for training neural networks.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//
// An optimizer consumes the gradients of a network's completed
// feedforward/backpropagation cycle and writes updated parameters back.
//
// Example usage:
//
//	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1})
//
//	for epoch := range epochs {
//	    out, _ := net.Feedforward(x)
//	    _ = net.Backpropagate(y, loss.MSE, nil)
//	    if err := opt.Step(net); err != nil {
//	        return err
//	    }
//	}
package optim

import (
	"fmt"

	"github.com/born-ml/mlp/internal/matrix"
	"github.com/born-ml/mlp/internal/nn"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies one update to every layer of net using the gradients of
	// its current cycle. Backpropagate must have completed.
	Step(net *nn.Network) error

	// GetLR returns the current learning rate.
	GetLR() float64
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float64 // Learning rate
}

// paramKey identifies one parameter matrix of a network.
type paramKey struct {
	layer int
	bias  bool
}

func (k paramKey) String() string {
	if k.bias {
		return fmt.Sprintf("layer.%d.bias", k.layer)
	}
	return fmt.Sprintf("layer.%d.weights", k.layer)
}

// rule is the per-parameter half of an optimizer.
//
// prepare allocates or checks the state for one parameter and is the only
// stage allowed to fail. advance runs once per step after every parameter is
// prepared. apply then updates param in place.
type rule interface {
	prepare(key paramKey, param, grad *matrix.Matrix) error
	advance()
	apply(key paramKey, param, grad *matrix.Matrix)
}

// step reads every gradient of net's completed cycle, updates copies of the
// parameters with r, and stores them back into net. Nothing in net or in
// the optimizer's running state changes unless every parameter prepares
// successfully.
func step(net *nn.Network, r rule) error {
	if net == nil {
		return nn.ErrNilNetwork
	}
	grads, err := net.Gradients()
	if err != nil {
		return fmt.Errorf("optimizer step: %w", err)
	}

	layers := make([]nn.Layer, len(grads))
	for i, g := range grads {
		if layers[i], err = net.Layer(i); err != nil {
			return err
		}
		if err := r.prepare(paramKey{layer: i}, layers[i].Weights, g.Weights); err != nil {
			return err
		}
		if err := r.prepare(paramKey{layer: i, bias: true}, layers[i].Bias, g.Bias); err != nil {
			return err
		}
	}

	r.advance()
	for i, g := range grads {
		r.apply(paramKey{layer: i}, layers[i].Weights, g.Weights)
		r.apply(paramKey{layer: i, bias: true}, layers[i].Bias, g.Bias)
	}
	for i, l := range layers {
		if err := net.SetParams(i, l.Weights, l.Bias); err != nil {
			return err
		}
	}
	return nil
}

// checkGrad verifies that grad matches param.
func checkGrad(key paramKey, param, grad *matrix.Matrix) error {
	if !grad.SameShape(param) {
		return fmt.Errorf("%s: %w: gradient %s, parameter %s",
			key, matrix.ErrShapeMismatch, grad.Shape(), param.Shape())
	}
	return nil
}

// zerosLike returns a zero matrix with p's shape.
func zerosLike(p *matrix.Matrix) (*matrix.Matrix, error) {
	return matrix.New(p.Rows(), p.Cols())
}
