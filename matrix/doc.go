// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package matrix provides the dense row-major float64 matrices the network
// is built on.
//
// # Overview
//
// This package contains:
//   - Construction: New, FromSlice, FromRows, Identity
//   - Elementwise arithmetic: Add, Subtract, Multiply, Scale, Apply
//   - Linear algebra: Dot, Transpose, AddBias, ColumnSum
//   - Reshaping: Flatten, RowSlice
//   - Text I/O: Write, Read, WriteFile, ReadFile
//   - Interop with gonum: ToDense, FromDense
//
// Every operation returns a new matrix and an error; inputs are never
// modified unless the function says so (Fill, Randomize, Set).
//
// # Basic Usage
//
//	a, _ := matrix.FromRows([][]float64{{1, 2}, {3, 4}})
//	b, _ := matrix.Identity(2)
//	c, err := matrix.Dot(a, b)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(c)
//
// # Text Format
//
// Write emits the row count, the column count, then one line per row with
// space-separated values:
//
//	2
//	2
//	1 0.25
//	-3 1e-20
package matrix
