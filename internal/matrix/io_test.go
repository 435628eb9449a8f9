package matrix

import (
	"bytes"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	in := "2\n3\n1 2 3\n4.5  -5\t6e-1\n"
	m, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 2, m.Rows())
	assert.Equal(t, 3, m.Cols())
	assert.Equal(t, []float64{1, 2, 3, 4.5, -5, 0.6}, m.Data())
}

func TestWrite(t *testing.T) {
	m := mustRows(t, [][]float64{{1, 0.25}, {-3, 1e-20}})
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, m))
	assert.Equal(t, "2\n2\n1 0.25\n-3 1e-20\n", buf.String())
}

func TestWriteRead_Exact(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	m := randomMatrix(t, rng, 4, 6)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, m))
	back, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, m.Data(), back.Data())
}

func TestRead_Malformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"bad rows", "x\n2\n"},
		{"zero cols", "1\n0\n"},
		{"missing row", "2\n2\n1 2\n"},
		{"short row", "1\n3\n1 2\n"},
		{"long row", "1\n2\n1 2 3 4 5\n"},
		{"huge shape", "2\n4611686018427387904\n1 2\n"},
		{"overflowing shape", "4294967296\n4294967296\n"},
		{"bad value", "1\n2\n1 nope\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.in))
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.txt")
	m := mustRows(t, [][]float64{{1.5, 2}, {3, 4}})

	require.NoError(t, WriteFile(path, m))
	back, err := ReadFile(path)
	require.NoError(t, err)
	assert.True(t, Equal(m, back, 0))

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
