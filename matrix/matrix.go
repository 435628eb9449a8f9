// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package matrix

import (
	"io"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/mlp/internal/matrix"
)

// Matrix is a dense row-major matrix of float64 values.
type Matrix = matrix.Matrix

// Errors returned by matrix operations.
var (
	ErrNilMatrix     = matrix.ErrNilMatrix
	ErrInvalidShape  = matrix.ErrInvalidShape
	ErrShapeMismatch = matrix.ErrShapeMismatch
	ErrInvalidAxis   = matrix.ErrInvalidAxis
	ErrRowRange      = matrix.ErrRowRange
	ErrParse         = matrix.ErrParse
)

// Construction

// New returns a zero-filled rows×cols matrix.
func New(rows, cols int) (*Matrix, error) { return matrix.New(rows, cols) }

// FromSlice returns a rows×cols matrix holding a copy of data in row-major order.
func FromSlice(rows, cols int, data []float64) (*Matrix, error) {
	return matrix.FromSlice(rows, cols, data)
}

// FromRows builds a matrix from equally long rows.
func FromRows(rows [][]float64) (*Matrix, error) { return matrix.FromRows(rows) }

// Identity returns the n×n identity matrix.
func Identity(n int) (*Matrix, error) { return matrix.Identity(n) }

// Clone returns a deep copy of m.
func Clone(m *Matrix) (*Matrix, error) { return matrix.Clone(m) }

// Fill sets every element of m to v.
func Fill(m *Matrix, v float64) error { return matrix.Fill(m, v) }

// Randomize fills m with uniform samples from [-1/sqrt(n), 1/sqrt(n)].
func Randomize(m *Matrix, n float64, rng *rand.Rand) error { return matrix.Randomize(m, n, rng) }

// Elementwise

// Add returns a + b.
func Add(a, b *Matrix) (*Matrix, error) { return matrix.Add(a, b) }

// Subtract returns a - b.
func Subtract(a, b *Matrix) (*Matrix, error) { return matrix.Subtract(a, b) }

// Multiply returns the Hadamard product of a and b.
func Multiply(a, b *Matrix) (*Matrix, error) { return matrix.Multiply(a, b) }

// Apply returns f applied to every element of m.
func Apply(m *Matrix, f func(float64) float64) (*Matrix, error) { return matrix.Apply(m, f) }

// AddScalar returns m + s.
func AddScalar(m *Matrix, s float64) (*Matrix, error) { return matrix.AddScalar(m, s) }

// Scale returns s * m.
func Scale(s float64, m *Matrix) (*Matrix, error) { return matrix.Scale(s, m) }

// Linear algebra

// Dot returns the matrix product a @ b.
func Dot(a, b *Matrix) (*Matrix, error) { return matrix.Dot(a, b) }

// Transpose returns mᵀ.
func Transpose(m *Matrix) (*Matrix, error) { return matrix.Transpose(m) }

// AddBias adds the 1×cols row bias to every row of m.
func AddBias(m, bias *Matrix) (*Matrix, error) { return matrix.AddBias(m, bias) }

// ColumnSum returns the 1×cols row of column sums.
func ColumnSum(m *Matrix) (*Matrix, error) { return matrix.ColumnSum(m) }

// Reshaping and reductions

// Flatten reshapes m into a row vector (axis 0, sharing m's data) or a
// column vector gathered column by column (axis 1).
func Flatten(m *Matrix, axis int) (*Matrix, error) { return matrix.Flatten(m, axis) }

// RowSlice copies rows [start, end) of m.
func RowSlice(m *Matrix, start, end int) (*Matrix, error) { return matrix.RowSlice(m, start, end) }

// Argmax returns the row-major index of the largest element.
func Argmax(m *Matrix) (int, error) { return matrix.Argmax(m) }

// Sum returns the sum of all elements.
func Sum(m *Matrix) (float64, error) { return matrix.Sum(m) }

// Equal reports whether a and b have the same shape and agree within tol.
func Equal(a, b *Matrix, tol float64) bool { return matrix.Equal(a, b, tol) }

// I/O

// Write encodes m in the text format to w.
func Write(w io.Writer, m *Matrix) error { return matrix.Write(w, m) }

// Read decodes one matrix in the text format from r.
func Read(r io.Reader) (*Matrix, error) { return matrix.Read(r) }

// WriteFile writes m to the named file.
func WriteFile(path string, m *Matrix) error { return matrix.WriteFile(path, m) }

// ReadFile reads a matrix from the named file.
func ReadFile(path string) (*Matrix, error) { return matrix.ReadFile(path) }

// Gonum interop

// ToDense copies m into a gonum dense matrix.
func ToDense(m *Matrix) (*mat.Dense, error) { return matrix.ToDense(m) }

// FromDense copies any gonum matrix into a new Matrix.
func FromDense(d mat.Matrix) (*Matrix, error) { return matrix.FromDense(d) }
