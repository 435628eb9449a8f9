// Package loss implements scalar training losses and their gradients with
// respect to the predictions.
package loss

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/born-ml/mlp/internal/matrix"
)

// Epsilon guards every logarithm and division against zero or saturated
// predictions.
const Epsilon = 1e-15

// ErrUnknownKind is returned for a Kind outside the enumeration.
var ErrUnknownKind = errors.New("unknown loss kind")

// Kind selects a loss function.
type Kind int

// Supported losses.
const (
	MSE Kind = iota // Mean squared error.
	CCE             // Categorical cross-entropy.
	MAE             // Mean absolute error.
	BCE             // Binary cross-entropy.
)

var kindNames = [...]string{
	MSE: "mse",
	CCE: "cce",
	MAE: "mae",
	BCE: "bce",
}

// Func computes a scalar loss from predictions yHat and targets y.
type Func func(yHat, y *matrix.Matrix) (float64, error)

// GradientFunc computes dLoss/dyHat, shaped like yHat.
type GradientFunc func(yHat, y *matrix.Matrix) (*matrix.Matrix, error)

// Valid reports whether k is one of the enumerated kinds.
func (k Kind) Valid() bool {
	return k >= MSE && k <= BCE
}

// String returns the short lowercase name of the loss.
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("unknown(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps "mse", "cce", "mae" or "bce" (any case) to its Kind.
func ParseKind(s string) (Kind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == norm {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Func returns the loss function for k.
func (k Kind) Func() (Func, error) {
	switch k {
	case MSE:
		return MeanSquaredError, nil
	case CCE:
		return CategoricalCrossEntropy, nil
	case MAE:
		return MeanAbsoluteError, nil
	case BCE:
		return BinaryCrossEntropy, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
}

// Gradient returns the gradient function for k.
func (k Kind) Gradient() (GradientFunc, error) {
	switch k {
	case MSE:
		return MeanSquaredErrorGradient, nil
	case CCE:
		return CategoricalCrossEntropyGradient, nil
	case MAE:
		return MeanAbsoluteErrorGradient, nil
	case BCE:
		return BinaryCrossEntropyGradient, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
}

// Compute evaluates loss k on (yHat, y).
func Compute(k Kind, yHat, y *matrix.Matrix) (float64, error) {
	f, err := k.Func()
	if err != nil {
		return 0, err
	}
	return f(yHat, y)
}

// Gradient evaluates the gradient of loss k on (yHat, y).
func Gradient(k Kind, yHat, y *matrix.Matrix) (*matrix.Matrix, error) {
	g, err := k.Gradient()
	if err != nil {
		return nil, err
	}
	return g(yHat, y)
}

func checkPair(name string, yHat, y *matrix.Matrix) error {
	if yHat == nil || y == nil {
		return fmt.Errorf("%s: %w", name, matrix.ErrNilMatrix)
	}
	if !yHat.SameShape(y) {
		return fmt.Errorf("%s: %w: predictions %s vs targets %s",
			name, matrix.ErrShapeMismatch, yHat.Shape(), y.Shape())
	}
	return nil
}

// MeanSquaredError returns mean((yHat - y)²) over all elements.
func MeanSquaredError(yHat, y *matrix.Matrix) (float64, error) {
	if err := checkPair("mse", yHat, y); err != nil {
		return 0, err
	}
	p, t := yHat.Data(), y.Data()
	var sum float64
	for i := range p {
		d := p[i] - t[i]
		sum += d * d
	}
	return sum / float64(len(p)), nil
}

// MeanAbsoluteError returns mean(|yHat - y|) over all elements.
func MeanAbsoluteError(yHat, y *matrix.Matrix) (float64, error) {
	if err := checkPair("mae", yHat, y); err != nil {
		return 0, err
	}
	p, t := yHat.Data(), y.Data()
	var sum float64
	for i := range p {
		sum += math.Abs(p[i] - t[i])
	}
	return sum / float64(len(p)), nil
}

// CategoricalCrossEntropy returns -Σ y·log(yHat+ε) divided by the number of
// rows (samples).
func CategoricalCrossEntropy(yHat, y *matrix.Matrix) (float64, error) {
	if err := checkPair("cce", yHat, y); err != nil {
		return 0, err
	}
	p, t := yHat.Data(), y.Data()
	var sum float64
	for i := range p {
		sum -= t[i] * math.Log(p[i]+Epsilon)
	}
	return sum / float64(yHat.Rows()), nil
}

// BinaryCrossEntropy returns mean(-(y·log(yHat+ε) + (1-y)·log(1-yHat+ε))).
func BinaryCrossEntropy(yHat, y *matrix.Matrix) (float64, error) {
	if err := checkPair("bce", yHat, y); err != nil {
		return 0, err
	}
	p, t := yHat.Data(), y.Data()
	var sum float64
	for i := range p {
		sum -= t[i]*math.Log(p[i]+Epsilon) + (1-t[i])*math.Log(1-p[i]+Epsilon)
	}
	return sum / float64(len(p)), nil
}

func gradient(name string, yHat, y *matrix.Matrix, f func(p, t float64) float64) (*matrix.Matrix, error) {
	if err := checkPair(name, yHat, y); err != nil {
		return nil, err
	}
	out, err := matrix.New(yHat.Rows(), yHat.Cols())
	if err != nil {
		return nil, err
	}
	p, t, g := yHat.Data(), y.Data(), out.Data()
	for i := range g {
		g[i] = f(p[i], t[i])
	}
	return out, nil
}

// MeanSquaredErrorGradient returns 2·(yHat - y).
func MeanSquaredErrorGradient(yHat, y *matrix.Matrix) (*matrix.Matrix, error) {
	return gradient("mse gradient", yHat, y, func(p, t float64) float64 {
		return 2 * (p - t)
	})
}

// MeanAbsoluteErrorGradient returns sign(yHat - y), zero where they agree.
func MeanAbsoluteErrorGradient(yHat, y *matrix.Matrix) (*matrix.Matrix, error) {
	return gradient("mae gradient", yHat, y, func(p, t float64) float64 {
		switch {
		case p > t:
			return 1
		case p < t:
			return -1
		default:
			return 0
		}
	})
}

// CategoricalCrossEntropyGradient returns -y / (yHat + ε).
func CategoricalCrossEntropyGradient(yHat, y *matrix.Matrix) (*matrix.Matrix, error) {
	return gradient("cce gradient", yHat, y, func(p, t float64) float64 {
		return -t / (p + Epsilon)
	})
}

// BinaryCrossEntropyGradient returns (yHat - y) / (yHat·(1-yHat) + ε).
func BinaryCrossEntropyGradient(yHat, y *matrix.Matrix) (*matrix.Matrix, error) {
	return gradient("bce gradient", yHat, y, func(p, t float64) float64 {
		return (p - t) / (p*(1-p) + Epsilon)
	})
}
