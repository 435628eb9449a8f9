// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"log/slog"
	"math/rand"

	"github.com/born-ml/mlp/internal/activation"
	"github.com/born-ml/mlp/internal/cache"
	"github.com/born-ml/mlp/internal/loss"
	"github.com/born-ml/mlp/internal/matrix"
	"github.com/born-ml/mlp/internal/nn"
)

// Network is an ordered stack of dense layers with its intermediate cache.
type Network = nn.Network

// Layer is a fully connected layer: a = f(x @ W + b).
type Layer = nn.Layer

// Gradient holds one layer's weight and bias gradients.
type Gradient = nn.Gradient

// Option configures a Network.
type Option = nn.Option

// Errors returned by network operations.
var (
	ErrNilNetwork         = nn.ErrNilNetwork
	ErrNoLayers           = nn.ErrNoLayers
	ErrLayerChain         = nn.ErrLayerChain
	ErrLayerIndex         = nn.ErrLayerIndex
	ErrNotFedForward      = nn.ErrNotFedForward
	ErrBackpropIncomplete = nn.ErrBackpropIncomplete
)

// New builds a network from explicit layers.
func New(layers []*Layer, opts ...Option) (*Network, error) {
	return nn.New(layers, opts...)
}

// NewLayer creates a dense layer with fan-in scaled uniform weights and a
// zero bias.
//
// Example:
//
//	layer, err := nn.NewLayer(784, 128, nn.ReLU, 0, rng)
func NewLayer(in, out int, act Activation, leak float64, rng *rand.Rand) (*Layer, error) {
	return nn.NewLayer(in, out, act, leak, rng)
}

// NewSequential builds a network from layer widths: sizes holds the input
// width followed by each layer's output width.
//
// Example:
//
//	net, err := nn.NewSequential([]int{784, 128, 10},
//	    []nn.Activation{nn.ReLU, nn.Softmax}, rng)
func NewSequential(sizes []int, acts []Activation, rng *rand.Rand, opts ...Option) (*Network, error) {
	return nn.NewSequential(sizes, acts, rng, opts...)
}

// WithLogger routes the network's diagnostics to l.
func WithLogger(l *slog.Logger) Option { return nn.WithLogger(l) }

// Activations

// Activation selects a layer's activation function.
type Activation = activation.Kind

// Supported activations.
const (
	Identity  = activation.Identity
	Sigmoid   = activation.Sigmoid
	Tanh      = activation.Tanh
	ReLU      = activation.ReLU
	LeakyReLU = activation.LeakyReLU
	Sign      = activation.Sign
	HardTanh  = activation.HardTanh
	Softmax   = activation.Softmax
)

// FallbackActivation is applied, with a logged warning, to layers whose
// activation is not one of the supported kinds.
const FallbackActivation = activation.Fallback

// ErrUnknownActivation is returned for an Activation outside the enumeration.
var ErrUnknownActivation = activation.ErrUnknownKind

// ParseActivation parses an activation name such as "relu" or "leaky_relu".
func ParseActivation(s string) (Activation, error) { return activation.ParseKind(s) }

// Activate applies act to z.
func Activate(act Activation, z *matrix.Matrix, leak float64) (*matrix.Matrix, error) {
	return activation.Forward(act, z, leak)
}

// ActivationDerivative evaluates the derivative of act at z.
func ActivationDerivative(act Activation, z *matrix.Matrix, leak float64) (*matrix.Matrix, error) {
	return activation.Derivative(act, z, leak)
}

// Losses

// Loss selects a loss function.
type Loss = loss.Kind

// LossFunc computes a scalar loss from predictions and targets.
type LossFunc = loss.Func

// LossGradientFunc computes the gradient of a loss with respect to the predictions.
type LossGradientFunc = loss.GradientFunc

// Supported losses.
const (
	MSE = loss.MSE
	CCE = loss.CCE
	MAE = loss.MAE
	BCE = loss.BCE
)

// ErrUnknownLoss is returned for a Loss outside the enumeration.
var ErrUnknownLoss = loss.ErrUnknownKind

// ParseLoss parses a loss name such as "mse" or "cce".
func ParseLoss(s string) (Loss, error) { return loss.ParseKind(s) }

// ComputeLoss evaluates loss l on predictions yHat against targets y.
func ComputeLoss(l Loss, yHat, y *matrix.Matrix) (float64, error) {
	return loss.Compute(l, yHat, y)
}

// LossGradient evaluates the gradient of loss l with respect to yHat.
func LossGradient(l Loss, yHat, y *matrix.Matrix) (*matrix.Matrix, error) {
	return loss.Gradient(l, yHat, y)
}

// Cache keys

// InputKey is the cache key of the network input.
const InputKey = cache.InputKey

// ZKey returns the cache key of layer i's pre-activation.
func ZKey(i int) string { return cache.ZKey(i) }

// AKey returns the cache key of layer i's activation.
func AKey(i int) string { return cache.AKey(i) }

// DeltaKey returns the cache key of layer i's error signal.
func DeltaKey(i int) string { return cache.DeltaKey(i) }
