package nn

import (
	"fmt"

	"github.com/born-ml/mlp/internal/cache"
	"github.com/born-ml/mlp/internal/matrix"
)

// Feedforward runs input through every layer and returns the final
// activation, which the caller owns.
//
// It starts a new cycle: the cache is cleared, then "input", "z_<i>" and
// "a_<i>" are stored for every layer i. Rows of input are samples; its
// column count must equal the first layer's input width.
func (n *Network) Feedforward(input *matrix.Matrix) (*matrix.Matrix, error) {
	if n == nil {
		return nil, ErrNilNetwork
	}
	if input == nil {
		return nil, fmt.Errorf("feedforward: %w", matrix.ErrNilMatrix)
	}

	n.Reset()
	n.logger.Debug("feedforward", "batch", input.Rows(), "features", input.Cols())

	if err := n.cache.Put(cache.InputKey, input); err != nil {
		return nil, err
	}
	out, err := n.forward(input, true)
	if err != nil {
		return nil, err
	}
	n.phase = phaseFedForward
	return out, nil
}

// Predict computes the network output for input without touching the cache,
// so an in-progress cycle is left intact.
func (n *Network) Predict(input *matrix.Matrix) (*matrix.Matrix, error) {
	if n == nil {
		return nil, ErrNilNetwork
	}
	if input == nil {
		return nil, fmt.Errorf("predict: %w", matrix.ErrNilMatrix)
	}
	return n.forward(input, false)
}

func (n *Network) forward(input *matrix.Matrix, record bool) (*matrix.Matrix, error) {
	current := input
	for i, l := range n.layers {
		if current.Cols() != l.Weights.Rows() {
			return nil, fmt.Errorf("feedforward layer %d: %w: input %s, weights %s",
				i, matrix.ErrShapeMismatch, current.Shape(), l.Weights.Shape())
		}
		linear, err := matrix.Dot(current, l.Weights)
		if err != nil {
			return nil, fmt.Errorf("feedforward layer %d: %w", i, err)
		}
		z, err := matrix.AddBias(linear, l.Bias)
		if err != nil {
			return nil, fmt.Errorf("feedforward layer %d: %w", i, err)
		}
		if record {
			if err := n.cache.Put(cache.ZKey(i), z); err != nil {
				return nil, err
			}
		}
		a, err := n.activate(i, z)
		if err != nil {
			return nil, fmt.Errorf("feedforward layer %d: %w", i, err)
		}
		if record {
			if err := n.cache.Put(cache.AKey(i), a); err != nil {
				return nil, err
			}
		}
		current = a
	}
	return current, nil
}
