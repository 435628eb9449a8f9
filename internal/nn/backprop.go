package nn

import (
	"fmt"

	"github.com/born-ml/mlp/internal/activation"
	"github.com/born-ml/mlp/internal/cache"
	"github.com/born-ml/mlp/internal/loss"
	"github.com/born-ml/mlp/internal/matrix"
)

// Gradient holds the parameter gradients of one layer for one cycle.
type Gradient struct {
	Weights *matrix.Matrix // shaped like the layer's weights
	Bias    *matrix.Matrix // 1×out, shaped like the layer's bias
}

// Backpropagate computes the error signal delta_i = dL/dz_i for every layer,
// walking from the last layer down to the first, and caches each under
// "delta_<i>".
//
// lossKind selects the loss being minimized; grad computes dL/dŷ and may be
// nil to use the gradient registered for lossKind. When the last layer is
// Softmax and lossKind is CCE the output delta is ŷ - y directly and grad
// is not called: the softmax Jacobian and the cross-entropy gradient cancel
// to that closed form.
//
// A Feedforward call must precede every Backpropagate.
func (n *Network) Backpropagate(yTrue *matrix.Matrix, lossKind loss.Kind, grad loss.GradientFunc) error {
	if n == nil {
		return ErrNilNetwork
	}
	if yTrue == nil {
		return fmt.Errorf("backpropagate: %w", matrix.ErrNilMatrix)
	}
	if !lossKind.Valid() {
		return fmt.Errorf("backpropagate: %w: %d", loss.ErrUnknownKind, int(lossKind))
	}
	if n.phase == phaseIdle {
		return ErrNotFedForward
	}
	n.phase = phaseFedForward

	last := len(n.layers) - 1
	yHat, err := n.cache.Get(cache.AKey(last))
	if err != nil {
		return fmt.Errorf("backpropagate: %w", err)
	}
	if !yHat.SameShape(yTrue) {
		return fmt.Errorf("backpropagate: %w: prediction %s, target %s",
			matrix.ErrShapeMismatch, yHat.Shape(), yTrue.Shape())
	}

	delta, err := n.outputDelta(last, yHat, yTrue, lossKind, grad)
	if err != nil {
		return fmt.Errorf("backpropagate layer %d: %w", last, err)
	}
	if err := n.cache.Put(cache.DeltaKey(last), delta); err != nil {
		return err
	}
	n.logger.Debug("output delta computed", "layer", last)

	for i := last - 1; i >= 0; i-- {
		if delta, err = n.hiddenDelta(i, delta); err != nil {
			return fmt.Errorf("backpropagate layer %d: %w", i, err)
		}
		if err := n.cache.Put(cache.DeltaKey(i), delta); err != nil {
			return err
		}
	}

	n.phase = phaseComplete
	return nil
}

// outputDelta computes delta for the last layer.
func (n *Network) outputDelta(last int, yHat, yTrue *matrix.Matrix, lossKind loss.Kind, grad loss.GradientFunc) (*matrix.Matrix, error) {
	if n.layers[last].Activation == activation.Softmax && lossKind == loss.CCE {
		return matrix.Subtract(yHat, yTrue)
	}

	if grad == nil {
		var err error
		if grad, err = lossKind.Gradient(); err != nil {
			return nil, err
		}
	}
	dLda, err := grad(yHat, yTrue)
	if err != nil {
		return nil, fmt.Errorf("loss gradient: %w", err)
	}
	if !dLda.SameShape(yHat) {
		return nil, fmt.Errorf("loss gradient: %w: got %s, want %s",
			matrix.ErrShapeMismatch, dLda.Shape(), yHat.Shape())
	}
	z, err := n.cache.Get(cache.ZKey(last))
	if err != nil {
		return nil, err
	}
	prime, err := n.activationPrime(last, z)
	if err != nil {
		return nil, err
	}
	return matrix.Multiply(dLda, prime)
}

// hiddenDelta computes delta_i = (delta_{i+1} @ W_{i+1}ᵀ) ⊙ f_i'(z_i).
func (n *Network) hiddenDelta(i int, next *matrix.Matrix) (*matrix.Matrix, error) {
	wT, err := matrix.Transpose(n.layers[i+1].Weights)
	if err != nil {
		return nil, err
	}
	propagated, err := matrix.Dot(next, wT)
	if err != nil {
		return nil, err
	}
	z, err := n.cache.Get(cache.ZKey(i))
	if err != nil {
		return nil, err
	}
	prime, err := n.activationPrime(i, z)
	if err != nil {
		return nil, err
	}
	return matrix.Multiply(propagated, prime)
}

// WeightGradient returns dL/dW_i = a_{i-1}ᵀ @ delta_i, where a_{-1} is the
// network input. Only valid once Backpropagate has completed for the
// current cycle.
func (n *Network) WeightGradient(i int) (*matrix.Matrix, error) {
	if err := n.checkGradient(i); err != nil {
		return nil, err
	}
	prevKey := cache.InputKey
	if i > 0 {
		prevKey = cache.AKey(i - 1)
	}
	prev, err := n.cache.Get(prevKey)
	if err != nil {
		return nil, fmt.Errorf("weight gradient layer %d: %w", i, err)
	}
	delta, err := n.cache.Get(cache.DeltaKey(i))
	if err != nil {
		return nil, fmt.Errorf("weight gradient layer %d: %w", i, err)
	}
	prevT, err := matrix.Transpose(prev)
	if err != nil {
		return nil, err
	}
	return matrix.Dot(prevT, delta)
}

// BiasGradient returns dL/db_i, the column sums of delta_i.
func (n *Network) BiasGradient(i int) (*matrix.Matrix, error) {
	if err := n.checkGradient(i); err != nil {
		return nil, err
	}
	delta, err := n.cache.Get(cache.DeltaKey(i))
	if err != nil {
		return nil, fmt.Errorf("bias gradient layer %d: %w", i, err)
	}
	return matrix.ColumnSum(delta)
}

// Gradients returns the weight and bias gradients of every layer.
func (n *Network) Gradients() ([]Gradient, error) {
	if n == nil {
		return nil, ErrNilNetwork
	}
	grads := make([]Gradient, len(n.layers))
	for i := range n.layers {
		w, err := n.WeightGradient(i)
		if err != nil {
			return nil, err
		}
		b, err := n.BiasGradient(i)
		if err != nil {
			return nil, err
		}
		grads[i] = Gradient{Weights: w, Bias: b}
	}
	return grads, nil
}

func (n *Network) checkGradient(i int) error {
	if n == nil {
		return ErrNilNetwork
	}
	if err := n.checkIndex(i); err != nil {
		return err
	}
	if n.phase != phaseComplete {
		return ErrBackpropIncomplete
	}
	return nil
}
