package nn

import (
	"github.com/born-ml/mlp/internal/activation"
	"github.com/born-ml/mlp/internal/matrix"
)

// kindFor returns layer i's activation, substituting activation.Fallback
// (with a warning) for kinds outside the enumeration.
func (n *Network) kindFor(i int) activation.Kind {
	k := n.layers[i].Activation
	if k.Valid() {
		return k
	}
	n.logger.Warn("unknown activation kind, using fallback",
		"layer", i,
		"kind", int(k),
		"fallback", activation.Fallback.String(),
	)
	return activation.Fallback
}

// activate applies layer i's activation to its pre-activation z.
func (n *Network) activate(i int, z *matrix.Matrix) (*matrix.Matrix, error) {
	return activation.Forward(n.kindFor(i), z, n.layers[i].Leak)
}

// activationPrime evaluates layer i's activation derivative at z.
func (n *Network) activationPrime(i int, z *matrix.Matrix) (*matrix.Matrix, error) {
	return activation.Derivative(n.kindFor(i), z, n.layers[i].Leak)
}
