package matrix

import (
	"fmt"

	"github.com/born-ml/mlp/internal/parallel"
)

// elementwise allocates a result shaped like a and fills it with f(a[i], b[i]).
func elementwise(op string, a, b *Matrix, f func(x, y float64) float64) (*Matrix, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNilMatrix)
	}
	if a.rows != b.rows || a.cols != b.cols {
		return nil, fmt.Errorf("%s: %w: %s vs %s", op, ErrShapeMismatch, a.Shape(), b.Shape())
	}
	out := &Matrix{rows: a.rows, cols: a.cols, data: make([]float64, len(a.data))}
	ad, bd, od := a.data, b.data, out.data
	parallel.For(len(od), func(i int) {
		od[i] = f(ad[i], bd[i])
	}, par)
	return out, nil
}

// Add returns a + b elementwise.
func Add(a, b *Matrix) (*Matrix, error) {
	return elementwise("add", a, b, func(x, y float64) float64 { return x + y })
}

// Subtract returns a - b elementwise.
func Subtract(a, b *Matrix) (*Matrix, error) {
	return elementwise("subtract", a, b, func(x, y float64) float64 { return x - y })
}

// Multiply returns the elementwise (Hadamard) product a ⊙ b.
func Multiply(a, b *Matrix) (*Matrix, error) {
	return elementwise("multiply", a, b, func(x, y float64) float64 { return x * y })
}

// Apply returns a new matrix with f applied to every element of m.
func Apply(m *Matrix, f func(float64) float64) (*Matrix, error) {
	if m == nil {
		return nil, ErrNilMatrix
	}
	out := &Matrix{rows: m.rows, cols: m.cols, data: make([]float64, len(m.data))}
	src, dst := m.data, out.data
	parallel.For(len(dst), func(i int) {
		dst[i] = f(src[i])
	}, par)
	return out, nil
}

// AddScalar returns m + s.
func AddScalar(m *Matrix, s float64) (*Matrix, error) {
	return Apply(m, func(x float64) float64 { return x + s })
}

// Scale returns s·m.
func Scale(s float64, m *Matrix) (*Matrix, error) {
	return Apply(m, func(x float64) float64 { return x * s })
}

// Dot performs matrix multiplication: (M, K) @ (K, N) -> (M, N).
//
// Each output element is the inner product accumulated in ascending k, so
// the result is identical whether rows are computed on one goroutine or many.
func Dot(a, b *Matrix) (*Matrix, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("dot: %w", ErrNilMatrix)
	}
	if a.cols != b.rows {
		return nil, fmt.Errorf("dot: %w: [%d,%d] @ [%d,%d]", ErrShapeMismatch, a.rows, a.cols, b.rows, b.cols)
	}
	m, k, n := a.rows, a.cols, b.cols
	out := &Matrix{rows: m, cols: n, data: make([]float64, m*n)}
	ad, bd, c := a.data, b.data, out.data
	parallel.ForCost(m, k*n, func(i int) {
		row := ad[i*k : (i+1)*k]
		for j := 0; j < n; j++ {
			sum := 0.0
			for kIdx := 0; kIdx < k; kIdx++ {
				sum += row[kIdx] * bd[kIdx*n+j]
			}
			c[i*n+j] = sum
		}
	}, par)
	return out, nil
}

// Transpose returns the cols×rows matrix with result[j][i] = m[i][j].
func Transpose(m *Matrix) (*Matrix, error) {
	if m == nil {
		return nil, ErrNilMatrix
	}
	out := &Matrix{rows: m.cols, cols: m.rows, data: make([]float64, len(m.data))}
	rows, cols := m.rows, m.cols
	src, dst := m.data, out.data
	parallel.ForCost(rows, cols, func(i int) {
		for j := 0; j < cols; j++ {
			dst[j*rows+i] = src[i*cols+j]
		}
	}, par)
	return out, nil
}

// AddBias adds the 1×cols row vector bias to every row of m.
func AddBias(m, bias *Matrix) (*Matrix, error) {
	if m == nil || bias == nil {
		return nil, fmt.Errorf("add bias: %w", ErrNilMatrix)
	}
	if bias.rows != 1 || bias.cols != m.cols {
		return nil, fmt.Errorf("add bias: %w: bias %s must be 1x%d", ErrShapeMismatch, bias.Shape(), m.cols)
	}
	out := &Matrix{rows: m.rows, cols: m.cols, data: make([]float64, len(m.data))}
	cols := m.cols
	src, bd, dst := m.data, bias.data, out.data
	parallel.For(len(dst), func(i int) {
		dst[i] = src[i] + bd[i%cols]
	}, par)
	return out, nil
}

// ColumnSum sums m over its rows, producing a 1×cols row vector.
// Each column is accumulated top to bottom.
func ColumnSum(m *Matrix) (*Matrix, error) {
	if m == nil {
		return nil, ErrNilMatrix
	}
	out := &Matrix{rows: 1, cols: m.cols, data: make([]float64, m.cols)}
	rows, cols := m.rows, m.cols
	src, dst := m.data, out.data
	parallel.ForCost(cols, rows, func(j int) {
		sum := 0.0
		for i := 0; i < rows; i++ {
			sum += src[i*cols+j]
		}
		dst[j] = sum
	}, par)
	return out, nil
}
