package optim

import (
	"fmt"

	"github.com/born-ml/mlp/internal/matrix"
	"github.com/born-ml/mlp/internal/nn"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Example:
//
//	optimizer := optim.NewSGD(optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
type SGD struct {
	lr         float64
	momentum   float64
	velocities map[paramKey]*matrix.Matrix
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD(config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[paramKey]*matrix.Matrix),
	}
}

// Step performs a single optimization step on every layer of net.
//
// Velocities are tracked per layer and parameter, so one SGD value must
// always be stepped with the same network.
func (s *SGD) Step(net *nn.Network) error {
	return step(net, s)
}

func (s *SGD) prepare(key paramKey, param, grad *matrix.Matrix) error {
	if err := checkGrad(key, param, grad); err != nil {
		return err
	}
	if s.momentum == 0 {
		return nil
	}
	velocity, exists := s.velocities[key]
	if !exists {
		var err error
		if velocity, err = zerosLike(param); err != nil {
			return err
		}
		s.velocities[key] = velocity
	}
	if !velocity.SameShape(param) {
		return fmt.Errorf("sgd %s: %w: velocity %s, parameter %s",
			key, matrix.ErrShapeMismatch, velocity.Shape(), param.Shape())
	}
	return nil
}

func (s *SGD) advance() {}

func (s *SGD) apply(key paramKey, param, grad *matrix.Matrix) {
	p, g := param.Data(), grad.Data()
	if s.momentum == 0 {
		for i := range p {
			p[i] -= s.lr * g[i]
		}
		return
	}
	v := s.velocities[key].Data()
	for i := range p {
		v[i] = s.momentum*v[i] + g[i]
		p[i] -= s.lr * v[i]
	}
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
//
// Useful for learning rate scheduling during training.
func (s *SGD) SetLR(lr float64) {
	s.lr = lr
}
