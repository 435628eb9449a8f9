// Package nn implements a stack of fully connected layers together with the
// forward and backward passes that train it.
//
// A training step is one cycle on a Network:
//
//	out, err := net.Feedforward(x)        // caches input, z_i and a_i
//	l, err := loss.Compute(loss.MSE, out, y)
//	err = net.Backpropagate(y, loss.MSE, nil) // caches delta_i
//	dW, err := net.WeightGradient(i)
//	db, err := net.BiasGradient(i)
//
// Each Feedforward starts a new cycle and discards everything cached by the
// previous one, so gradients can only ever be read from the cycle that
// produced them.
package nn

import (
	"errors"
	"log/slog"
)

// Errors returned by network operations.
var (
	ErrNilNetwork         = errors.New("network is nil")
	ErrNoLayers           = errors.New("network has no layers")
	ErrLayerChain         = errors.New("layer shapes are not chain compatible")
	ErrLayerIndex         = errors.New("layer index out of range")
	ErrNotFedForward      = errors.New("backpropagate called before feedforward")
	ErrBackpropIncomplete = errors.New("gradients requested before backpropagation completed")
)

// Option configures a Network.
type Option func(*Network)

// WithLogger routes the network's diagnostics to l.
// Without it the network logs nothing.
func WithLogger(l *slog.Logger) Option {
	return func(n *Network) {
		if l != nil {
			n.logger = l
		}
	}
}
