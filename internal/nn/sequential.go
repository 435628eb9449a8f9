package nn

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/born-ml/mlp/internal/activation"
	"github.com/born-ml/mlp/internal/cache"
	"github.com/born-ml/mlp/internal/matrix"
)

// phase tracks where the current cycle is.
type phase int

const (
	phaseIdle       phase = iota // nothing cached for this cycle yet
	phaseFedForward              // input, z_i and a_i cached
	phaseComplete                // delta_i cached for every layer
)

// Network is an ordered stack of dense layers plus the cache that carries
// intermediate values from the forward pass to the backward pass.
//
// The network owns its layers and its cache. It is not safe for concurrent
// use: run one feedforward/backpropagation cycle at a time.
type Network struct {
	layers []*Layer
	cache  *cache.Cache
	phase  phase
	logger *slog.Logger
}

// New builds a network from layers, taking ownership of them.
// Adjacent layers must satisfy layers[i].Out() == layers[i+1].In().
func New(layers []*Layer, opts ...Option) (*Network, error) {
	if len(layers) == 0 {
		return nil, ErrNoLayers
	}
	for i, l := range layers {
		if err := l.validate(); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		if i > 0 && layers[i-1].Out() != l.In() {
			return nil, fmt.Errorf("%w: layer %d outputs %d features, layer %d expects %d",
				ErrLayerChain, i-1, layers[i-1].Out(), i, l.In())
		}
	}

	n := &Network{
		layers: append([]*Layer(nil), layers...),
		cache:  cache.New(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// NewSequential builds a network from layer widths.
//
// sizes lists the input width followed by every layer's output width, so a
// 2-4-1 network is sizes = {2, 4, 1} with two activations. LeakyReLU layers
// get activation.DefaultLeak.
//
// Example:
//
//	net, err := nn.NewSequential([]int{784, 128, 10},
//	    []activation.Kind{activation.ReLU, activation.Softmax}, rng)
func NewSequential(sizes []int, acts []activation.Kind, rng *rand.Rand, opts ...Option) (*Network, error) {
	if len(sizes) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 sizes, got %d", ErrNoLayers, len(sizes))
	}
	if len(acts) != len(sizes)-1 {
		return nil, fmt.Errorf("%w: %d sizes need %d activations, got %d",
			ErrLayerChain, len(sizes), len(sizes)-1, len(acts))
	}
	layers := make([]*Layer, len(acts))
	for i, act := range acts {
		l, err := NewLayer(sizes[i], sizes[i+1], act, activation.DefaultLeak, rng)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		layers[i] = l
	}
	return New(layers, opts...)
}

// NumLayers returns the number of layers, or 0 for a nil network.
func (n *Network) NumLayers() int {
	if n == nil {
		return 0
	}
	return len(n.layers)
}

// InputSize returns the number of features the first layer expects, or 0
// for a nil network.
func (n *Network) InputSize() int {
	if n == nil {
		return 0
	}
	return n.layers[0].In()
}

// OutputSize returns the width of the last layer, or 0 for a nil network.
func (n *Network) OutputSize() int {
	if n == nil {
		return 0
	}
	return n.layers[len(n.layers)-1].Out()
}

// NumParams returns the total number of trainable values.
func (n *Network) NumParams() int {
	if n == nil {
		return 0
	}
	total := 0
	for _, l := range n.layers {
		total += l.NumParams()
	}
	return total
}

// Layer returns a deep copy of layer i.
func (n *Network) Layer(i int) (Layer, error) {
	if n == nil {
		return Layer{}, ErrNilNetwork
	}
	if err := n.checkIndex(i); err != nil {
		return Layer{}, err
	}
	return n.layers[i].clone()
}

// SetParams replaces layer i's weights and bias with copies of w and b.
// The shapes must match the current parameters.
//
// Gradients of the current cycle stay readable: they depend only on cached
// activations and deltas, so a driver may update layers one at a time.
func (n *Network) SetParams(i int, w, b *matrix.Matrix) error {
	if n == nil {
		return ErrNilNetwork
	}
	if err := n.checkIndex(i); err != nil {
		return err
	}
	l := n.layers[i]
	if !w.SameShape(l.Weights) || !b.SameShape(l.Bias) {
		return fmt.Errorf("set params layer %d: %w: got weights %s bias %s, want %s and %s",
			i, matrix.ErrShapeMismatch, w.Shape(), b.Shape(), l.Weights.Shape(), l.Bias.Shape())
	}
	wc, err := matrix.Clone(w)
	if err != nil {
		return err
	}
	bc, err := matrix.Clone(b)
	if err != nil {
		return err
	}
	l.Weights, l.Bias = wc, bc
	return nil
}

// Cached returns a copy of the matrix the current cycle stored under key
// (see the cache package for the key scheme).
func (n *Network) Cached(key string) (*matrix.Matrix, error) {
	if n == nil {
		return nil, ErrNilNetwork
	}
	return n.cache.Get(key)
}

// CachedKeys lists the keys stored by the current cycle.
func (n *Network) CachedKeys() []string {
	if n == nil {
		return nil
	}
	return n.cache.Keys()
}

// Reset discards the current cycle.
func (n *Network) Reset() {
	if n == nil {
		return
	}
	n.cache.Clear()
	n.phase = phaseIdle
}

func (n *Network) checkIndex(i int) error {
	if i < 0 || i >= len(n.layers) {
		return fmt.Errorf("%w: %d (network has %d layers)", ErrLayerIndex, i, len(n.layers))
	}
	return nil
}
