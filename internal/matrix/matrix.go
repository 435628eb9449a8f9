// Package matrix implements the dense row-major float64 matrices used by the
// network engine.
//
// Every operation that produces a matrix returns a freshly allocated value
// owned by the caller; operands are never modified. Fill, Randomize and Set
// are the only in-place mutations.
package matrix

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/born-ml/mlp/internal/parallel"
	"gonum.org/v1/gonum/floats"
)

// Matrix is a dense two-dimensional buffer of float64 values in row-major
// order. len(data) == rows*cols always holds and the shape never changes.
type Matrix struct {
	rows int
	cols int
	data []float64
}

// par is the loop configuration shared by all operations. It is fixed at
// startup; workers only ever write disjoint output elements.
var par = parallel.DefaultConfig()

// MaxElements bounds rows*cols for any matrix.
const MaxElements = math.MaxInt32

// checkShape rejects non-positive dimensions and element counts above
// MaxElements.
func checkShape(rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("%w: %dx%d (dimensions must be > 0)", ErrInvalidShape, rows, cols)
	}
	if cols > MaxElements/rows {
		return fmt.Errorf("%w: %dx%d exceeds %d elements", ErrInvalidShape, rows, cols, MaxElements)
	}
	return nil
}

// New creates a zero-filled rows×cols matrix.
func New(rows, cols int) (*Matrix, error) {
	if err := checkShape(rows, cols); err != nil {
		return nil, err
	}
	return &Matrix{rows: rows, cols: cols, data: make([]float64, rows*cols)}, nil
}

// FromSlice creates a rows×cols matrix from row-major data.
// The slice is copied into the matrix's memory.
func FromSlice(rows, cols int, data []float64) (*Matrix, error) {
	m, err := New(rows, cols)
	if err != nil {
		return nil, err
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("%w: shape %dx%d requires %d elements, got %d",
			ErrInvalidShape, rows, cols, rows*cols, len(data))
	}
	copy(m.data, data)
	return m, nil
}

// FromRows creates a matrix from a slice of equally sized rows.
func FromRows(rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidShape)
	}
	m, err := New(len(rows), len(rows[0]))
	if err != nil {
		return nil, err
	}
	for i, r := range rows {
		if len(r) != m.cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidShape, i, len(r), m.cols)
		}
		copy(m.data[i*m.cols:], r)
	}
	return m, nil
}

// Identity returns an n×n identity matrix.
func Identity(n int) (*Matrix, error) {
	m, err := New(n, n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1.0
	}
	return m, nil
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.cols }

// Len returns rows*cols.
func (m *Matrix) Len() int { return len(m.data) }

// Data returns the row-major backing slice.
// WARNING: direct access to the matrix's memory; writes are visible to m.
func (m *Matrix) Data() []float64 { return m.data }

// At returns the element at row i, column j. It panics on out-of-range
// indices, like slice indexing.
func (m *Matrix) At(i, j int) float64 {
	m.checkIndex(i, j)
	return m.data[i*m.cols+j]
}

// Set stores v at row i, column j.
func (m *Matrix) Set(i, j int, v float64) {
	m.checkIndex(i, j)
	m.data[i*m.cols+j] = v
}

func (m *Matrix) checkIndex(i, j int) {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(fmt.Sprintf("matrix: index (%d,%d) out of range for %dx%d", i, j, m.rows, m.cols))
	}
}

// SameShape reports whether m and o have identical dimensions.
func (m *Matrix) SameShape(o *Matrix) bool {
	return m != nil && o != nil && m.rows == o.rows && m.cols == o.cols
}

// Shape formats the dimensions as "RxC".
func (m *Matrix) Shape() string {
	if m == nil {
		return "nil"
	}
	return fmt.Sprintf("%dx%d", m.rows, m.cols)
}

// Clone returns a deep copy of m.
func Clone(m *Matrix) (*Matrix, error) {
	if m == nil {
		return nil, ErrNilMatrix
	}
	out := &Matrix{rows: m.rows, cols: m.cols, data: make([]float64, len(m.data))}
	copy(out.data, m.data)
	return out, nil
}

// Fill sets every element of m to v in place.
func Fill(m *Matrix, v float64) error {
	if m == nil {
		return ErrNilMatrix
	}
	for i := range m.data {
		m.data[i] = v
	}
	return nil
}

// Randomize fills m in place with independent uniform samples from
// [-1/sqrt(n), 1/sqrt(n)], where n is normally the fan-in of the layer.
func Randomize(m *Matrix, n float64, rng *rand.Rand) error {
	if m == nil {
		return ErrNilMatrix
	}
	if n <= 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return fmt.Errorf("%w: randomize scale must be a positive finite number, got %v", ErrInvalidShape, n)
	}
	if rng == nil {
		//nolint:gosec // Weight initialization is not security-critical.
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	bound := 1.0 / math.Sqrt(n)
	for i := range m.data {
		m.data[i] = -bound + rng.Float64()*2*bound
	}
	return nil
}

// Flatten reshapes m into a vector.
//
// Axis 0 reinterprets the buffer as a 1×(rows*cols) row vector without
// moving data: the result shares m's backing array. Axis 1 builds a new
// (rows*cols)×1 column vector whose elements are gathered column by column.
func Flatten(m *Matrix, axis int) (*Matrix, error) {
	if m == nil {
		return nil, ErrNilMatrix
	}
	switch axis {
	case 0:
		return &Matrix{rows: 1, cols: len(m.data), data: m.data}, nil
	case 1:
		out := &Matrix{rows: len(m.data), cols: 1, data: make([]float64, len(m.data))}
		k := 0
		for j := 0; j < m.cols; j++ {
			for i := 0; i < m.rows; i++ {
				out.data[k] = m.data[i*m.cols+j]
				k++
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: got %d", ErrInvalidAxis, axis)
	}
}

// RowSlice copies rows [start, end) of m into a new matrix.
func RowSlice(m *Matrix, start, end int) (*Matrix, error) {
	if m == nil {
		return nil, ErrNilMatrix
	}
	if start < 0 || end > m.rows || start >= end {
		return nil, fmt.Errorf("%w: [%d,%d) of %d rows", ErrRowRange, start, end, m.rows)
	}
	out := &Matrix{rows: end - start, cols: m.cols, data: make([]float64, (end-start)*m.cols)}
	copy(out.data, m.data[start*m.cols:end*m.cols])
	return out, nil
}

// Argmax returns the flat row-major index of the largest element.
// Ties resolve to the lowest index.
func Argmax(m *Matrix) (int, error) {
	if m == nil {
		return 0, ErrNilMatrix
	}
	return floats.MaxIdx(m.data), nil
}

// Sum returns the sum of all elements.
func Sum(m *Matrix) (float64, error) {
	if m == nil {
		return 0, ErrNilMatrix
	}
	return floats.Sum(m.data), nil
}

// Equal reports whether a and b have the same shape and all elements agree
// within tol (absolute or relative).
func Equal(a, b *Matrix, tol float64) bool {
	if !a.SameShape(b) {
		return false
	}
	return floats.EqualApprox(a.data, b.data, tol)
}

// String renders m one row per line with three decimals.
func (m *Matrix) String() string {
	if m == nil {
		return "<nil>"
	}
	var sb strings.Builder
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%.3f", m.data[i*m.cols+j])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
