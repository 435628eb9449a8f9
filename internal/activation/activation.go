// Package activation implements the elementwise nonlinearities used by dense
// layers, their derivatives, and row-wise softmax.
//
// Derivatives take the pre-activation z, never the activated output, so the
// backward pass must keep z around.
package activation

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/born-ml/mlp/internal/matrix"
)

// ErrUnknownKind is returned when a Kind outside the enumeration reaches
// the dispatch functions.
var ErrUnknownKind = errors.New("unknown activation kind")

// Kind selects an activation function.
type Kind int

// Supported activations.
const (
	Identity Kind = iota
	Sigmoid
	Tanh
	ReLU
	LeakyReLU
	Sign
	HardTanh
	Softmax
)

// Fallback is the activation substituted for an unknown Kind by callers that
// choose to continue instead of failing.
const Fallback = Identity

// DefaultLeak is the customary negative slope for LeakyReLU.
const DefaultLeak = 0.01

var kindNames = [...]string{
	Identity:  "identity",
	Sigmoid:   "sigmoid",
	Tanh:      "tanh",
	ReLU:      "relu",
	LeakyReLU: "leaky_relu",
	Sign:      "sign",
	HardTanh:  "hard_tanh",
	Softmax:   "softmax",
}

// Valid reports whether k is one of the enumerated kinds.
func (k Kind) Valid() bool {
	return k >= Identity && k <= Softmax
}

// String returns the lowercase name of the activation.
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("unknown(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a name such as "relu" or "leaky_relu" to its Kind.
// Matching ignores case and accepts '-' in place of '_'.
func ParseKind(s string) (Kind, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for k, name := range kindNames {
		if name == norm {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Forward applies activation k to z and returns a new matrix.
// leak is only read by LeakyReLU.
func Forward(k Kind, z *matrix.Matrix, leak float64) (*matrix.Matrix, error) {
	switch k {
	case Identity:
		return matrix.Clone(z)
	case Sigmoid:
		return matrix.Apply(z, sigmoid)
	case Tanh:
		return matrix.Apply(z, math.Tanh)
	case ReLU:
		return matrix.Apply(z, relu)
	case LeakyReLU:
		return matrix.Apply(z, func(x float64) float64 {
			if x > 0 {
				return x
			}
			return leak * x
		})
	case Sign:
		return matrix.Apply(z, sign)
	case HardTanh:
		return matrix.Apply(z, hardTanh)
	case Softmax:
		return SoftmaxRows(z)
	default:
		return nil, fmt.Errorf("forward: %w: %d", ErrUnknownKind, int(k))
	}
}

// Derivative returns the elementwise derivative of activation k evaluated at
// the pre-activation z.
//
// For Softmax this is the diagonal term a·(1-a) with a = softmax(z). It is
// not the full Jacobian; a softmax output layer trained with categorical
// cross-entropy should skip it entirely (see nn.Network.Backpropagate).
func Derivative(k Kind, z *matrix.Matrix, leak float64) (*matrix.Matrix, error) {
	switch k {
	case Identity:
		return matrix.Apply(z, func(float64) float64 { return 1 })
	case Sigmoid:
		return matrix.Apply(z, func(x float64) float64 {
			s := sigmoid(x)
			return s * (1 - s)
		})
	case Tanh:
		return matrix.Apply(z, func(x float64) float64 {
			t := math.Tanh(x)
			return 1 - t*t
		})
	case ReLU:
		return matrix.Apply(z, func(x float64) float64 {
			if x > 0 {
				return 1
			}
			return 0
		})
	case LeakyReLU:
		return matrix.Apply(z, func(x float64) float64 {
			if x > 0 {
				return 1
			}
			return leak
		})
	case Sign:
		// Zero almost everywhere; used as a subgradient.
		return matrix.Apply(z, func(float64) float64 { return 0 })
	case HardTanh:
		return matrix.Apply(z, func(x float64) float64 {
			if x > -1 && x < 1 {
				return 1
			}
			return 0
		})
	case Softmax:
		a, err := SoftmaxRows(z)
		if err != nil {
			return nil, err
		}
		return matrix.Apply(a, func(v float64) float64 { return v * (1 - v) })
	default:
		return nil, fmt.Errorf("derivative: %w: %d", ErrUnknownKind, int(k))
	}
}

// SoftmaxRows normalizes every row of z into a probability distribution.
// The row maximum is subtracted before exponentiating.
func SoftmaxRows(z *matrix.Matrix) (*matrix.Matrix, error) {
	if z == nil {
		return nil, matrix.ErrNilMatrix
	}
	out, err := matrix.New(z.Rows(), z.Cols())
	if err != nil {
		return nil, err
	}
	cols := z.Cols()
	src, dst := z.Data(), out.Data()
	for i := 0; i < z.Rows(); i++ {
		row := src[i*cols : (i+1)*cols]
		res := dst[i*cols : (i+1)*cols]

		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}
		sum := 0.0
		for j, v := range row {
			e := math.Exp(v - maxVal)
			res[j] = e
			sum += e
		}
		for j := range res {
			res[j] /= sum
		}
	}
	return out, nil
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func relu(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

func hardTanh(x float64) float64 {
	return math.Max(-1, math.Min(1, x))
}
