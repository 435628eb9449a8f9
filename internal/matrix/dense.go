package matrix

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ToDense copies m into a gonum dense matrix.
func ToDense(m *Matrix) (*mat.Dense, error) {
	if m == nil {
		return nil, ErrNilMatrix
	}
	data := make([]float64, len(m.data))
	copy(data, m.data)
	return mat.NewDense(m.rows, m.cols, data), nil
}

// FromDense copies any gonum matrix into a new Matrix.
func FromDense(d mat.Matrix) (*Matrix, error) {
	if d == nil {
		return nil, ErrNilMatrix
	}
	r, c := d.Dims()
	m, err := New(r, c)
	if err != nil {
		return nil, fmt.Errorf("from dense: %w", err)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.data[i*c+j] = d.At(i, j)
		}
	}
	return m, nil
}
