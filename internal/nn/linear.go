package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/mlp/internal/activation"
	"github.com/born-ml/mlp/internal/matrix"
)

// Layer is a fully connected (dense) layer.
//
// Performs the transformation: a = f(x @ W + b)
// where:
//   - x is the input with shape [batch_size, in_features]
//   - W is the weight matrix with shape [in_features, out_features]
//   - b is the bias row vector with shape [1, out_features]
//   - f is the layer's activation, with Leak used only by LeakyReLU
type Layer struct {
	Weights    *matrix.Matrix
	Bias       *matrix.Matrix
	Activation activation.Kind
	Leak       float64
}

// NewLayer creates a Layer with Xavier-style uniform weights scaled by the
// fan-in and a zero bias.
//
// Parameters:
//   - in: Number of input features
//   - out: Number of output features
//   - act: Activation applied to the layer output
//   - leak: Negative slope for LeakyReLU (ignored by other activations)
//   - rng: Source of randomness; nil draws a random seed
func NewLayer(in, out int, act activation.Kind, leak float64, rng *rand.Rand) (*Layer, error) {
	w, err := xavier(in, out, rng)
	if err != nil {
		return nil, fmt.Errorf("new layer %dx%d: %w", in, out, err)
	}
	b, err := zeros(out)
	if err != nil {
		return nil, fmt.Errorf("new layer %dx%d: %w", in, out, err)
	}
	return &Layer{Weights: w, Bias: b, Activation: act, Leak: leak}, nil
}

// In returns the number of input features.
func (l *Layer) In() int { return l.Weights.Rows() }

// Out returns the number of output features.
func (l *Layer) Out() int { return l.Weights.Cols() }

// NumParams returns the number of trainable values in the layer.
func (l *Layer) NumParams() int { return l.Weights.Len() + l.Bias.Len() }

// validate checks that the layer's own parameters are consistent.
func (l *Layer) validate() error {
	if l == nil {
		return fmt.Errorf("%w: layer is nil", ErrLayerChain)
	}
	if l.Weights == nil || l.Bias == nil {
		return fmt.Errorf("%w: layer parameters are nil", matrix.ErrNilMatrix)
	}
	if l.Bias.Rows() != 1 || l.Bias.Cols() != l.Weights.Cols() {
		return fmt.Errorf("%w: bias %s does not match weights %s",
			ErrLayerChain, l.Bias.Shape(), l.Weights.Shape())
	}
	return nil
}

// clone deep-copies the layer.
func (l *Layer) clone() (Layer, error) {
	w, err := matrix.Clone(l.Weights)
	if err != nil {
		return Layer{}, err
	}
	b, err := matrix.Clone(l.Bias)
	if err != nil {
		return Layer{}, err
	}
	return Layer{Weights: w, Bias: b, Activation: l.Activation, Leak: l.Leak}, nil
}
