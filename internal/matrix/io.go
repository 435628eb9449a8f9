package matrix

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// maxLineBytes bounds a single row line when reading text matrices.
const maxLineBytes = 64 << 20

// Write encodes m in the text format: the row count on the first line, the
// column count on the second, then one line per row of space-separated
// values. Values use the shortest decimal form that parses back exactly.
func Write(w io.Writer, m *Matrix) error {
	if m == nil {
		return ErrNilMatrix
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n%d\n", m.rows, m.cols)
	buf := make([]byte, 0, 32)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				bw.WriteByte(' ')
			}
			buf = strconv.AppendFloat(buf[:0], m.data[i*m.cols+j], 'g', -1, 64)
			bw.Write(buf)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// Read decodes a matrix in the text format produced by Write.
// Columns may be separated by any run of whitespace.
func Read(r io.Reader) (*Matrix, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	next := func(what string) (string, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", fmt.Errorf("read %s: %w", what, err)
			}
			return "", fmt.Errorf("%w: unexpected end of input reading %s (line %d)", ErrParse, what, line+1)
		}
		line++
		return sc.Text(), nil
	}
	dim := func(what string) (int, error) {
		s, err := next(what)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, fmt.Errorf("%w: invalid %s %q on line %d", ErrParse, what, s, line)
		}
		if n <= 0 {
			return 0, fmt.Errorf("%w: %s must be > 0, got %d", ErrParse, what, n)
		}
		return n, nil
	}

	rows, err := dim("row count")
	if err != nil {
		return nil, err
	}
	cols, err := dim("column count")
	if err != nil {
		return nil, err
	}
	if err := checkShape(rows, cols); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	// The buffer grows with the rows actually present, so a forged header
	// cannot force a huge allocation up front.
	data := make([]float64, 0, min(rows*cols, 1<<16))
	for i := 0; i < rows; i++ {
		s, err := next(fmt.Sprintf("row %d", i))
		if err != nil {
			return nil, err
		}
		fields := strings.Fields(s)
		if len(fields) != cols {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrParse, i, len(fields), cols)
		}
		for j, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d, col %d: %q", ErrParse, i, j, f)
			}
			data = append(data, v)
		}
	}
	return FromSlice(rows, cols, data)
}

// ReadFile loads a text matrix from path.
func ReadFile(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open matrix file: %w", err)
	}
	defer f.Close()

	m, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// WriteFile stores m at path in the text format, replacing any existing file.
func WriteFile(path string, m *Matrix) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create matrix file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return Write(f, m)
}
