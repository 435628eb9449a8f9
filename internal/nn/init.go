package nn

import (
	"math/rand"

	"github.com/born-ml/mlp/internal/matrix"
)

// xavier returns an in×out weight matrix with values drawn uniformly from
// [-1/sqrt(in), 1/sqrt(in)].
func xavier(in, out int, rng *rand.Rand) (*matrix.Matrix, error) {
	w, err := matrix.New(in, out)
	if err != nil {
		return nil, err
	}
	if err := matrix.Randomize(w, float64(in), rng); err != nil {
		return nil, err
	}
	return w, nil
}

// zeros returns a 1×n bias row filled with zeros.
func zeros(n int) (*matrix.Matrix, error) {
	return matrix.New(1, n)
}
