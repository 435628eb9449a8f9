package optim

import (
	"fmt"
	"math"

	"github.com/born-ml/mlp/internal/matrix"
	"github.com/born-ml/mlp/internal/nn"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)   // Parameter update
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64
	t     int                         // Timestep for bias correction
	m     map[paramKey]*matrix.Matrix // First moment estimates
	v     map[paramKey]*matrix.Matrix // Second moment estimates

	bc1, bc2 float64 // bias corrections for the step in progress
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float64    // Learning rate (default: 0.001)
	Betas [2]float64 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float64    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer, filling zero fields of config with
// the defaults LR 0.001, Betas {0.9, 0.999} and Eps 1e-8.
func NewAdam(config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	return &Adam{
		lr:    config.LR,
		beta1: config.Betas[0],
		beta2: config.Betas[1],
		eps:   config.Eps,
		m:     make(map[paramKey]*matrix.Matrix),
		v:     make(map[paramKey]*matrix.Matrix),
	}
}

// Step performs a single optimization step using Adam algorithm.
func (a *Adam) Step(net *nn.Network) error {
	return step(net, a)
}

// advance moves to the next timestep and its bias corrections.
func (a *Adam) advance() {
	a.t++
	a.bc1 = 1 - math.Pow(a.beta1, float64(a.t))
	a.bc2 = 1 - math.Pow(a.beta2, float64(a.t))
}

func (a *Adam) prepare(key paramKey, param, grad *matrix.Matrix) error {
	if err := checkGrad(key, param, grad); err != nil {
		return err
	}
	m, ok := a.m[key]
	if !ok {
		var err error
		if m, err = zerosLike(param); err != nil {
			return err
		}
		a.m[key] = m
	}
	v, ok := a.v[key]
	if !ok {
		var err error
		if v, err = zerosLike(param); err != nil {
			return err
		}
		a.v[key] = v
	}
	if !m.SameShape(param) || !v.SameShape(param) {
		return fmt.Errorf("adam %s: %w: moments do not match parameter %s",
			key, matrix.ErrShapeMismatch, param.Shape())
	}
	return nil
}

func (a *Adam) apply(key paramKey, param, grad *matrix.Matrix) {
	p, g, md, vd := param.Data(), grad.Data(), a.m[key].Data(), a.v[key].Data()
	for i := range p {
		md[i] = a.beta1*md[i] + (1-a.beta1)*g[i]
		vd[i] = a.beta2*vd[i] + (1-a.beta2)*g[i]*g[i]

		mHat := md[i] / a.bc1
		vHat := vd[i] / a.bc2
		p[i] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
	}
}

// GetLR returns the current learning rate.
func (a *Adam) GetLR() float64 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam) SetLR(lr float64) {
	a.lr = lr
}
