package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/born-ml/mlp/internal/activation"
	"github.com/born-ml/mlp/internal/matrix"
	"github.com/born-ml/mlp/internal/nn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNetwork(t *testing.T) *nn.Network {
	t.Helper()
	net, err := nn.NewSequential([]int{3, 4, 2},
		[]activation.Kind{activation.LeakyReLU, activation.Softmax}, rand.New(rand.NewSource(17)))
	require.NoError(t, err)
	return net
}

func encode(t *testing.T, net *nn.Network, meta map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, net, meta))
	return buf.Bytes()
}

func assertSameNetwork(t *testing.T, want, got *nn.Network) {
	t.Helper()
	require.Equal(t, want.NumLayers(), got.NumLayers())
	for i := range want.NumLayers() {
		lw, err := want.Layer(i)
		require.NoError(t, err)
		lg, err := got.Layer(i)
		require.NoError(t, err)
		assert.Equal(t, lw.Weights.Data(), lg.Weights.Data(), "layer %d weights", i)
		assert.Equal(t, lw.Bias.Data(), lg.Bias.Data(), "layer %d bias", i)
		assert.True(t, lw.Weights.SameShape(lg.Weights))
		assert.Equal(t, lw.Activation, lg.Activation)
		assert.Equal(t, lw.Leak, lg.Leak)
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	net := testNetwork(t)
	raw := encode(t, net, map[string]string{"task": "demo"})

	assert.Equal(t, MagicBytes, string(raw[:4]))
	assert.Equal(t, uint32(FormatVersion), binary.LittleEndian.Uint32(raw[4:8]))
	assert.Equal(t, FlagHasMetadata, binary.LittleEndian.Uint32(raw[8:12]))

	headerSize := int64(binary.LittleEndian.Uint64(raw[16:24]))
	assert.Zero(t, dataOffset(headerSize)%HeaderAlignment)

	got, header, err := Read(bytes.NewReader(raw), ReaderOptions{})
	require.NoError(t, err)
	assertSameNetwork(t, net, got)

	assert.Equal(t, ModelTypeSequential, header.ModelType)
	assert.Equal(t, "demo", header.Metadata["task"])
	require.Len(t, header.Layers, 2)
	assert.Equal(t, "leaky_relu", header.Layers[0].Activation)
	assert.Equal(t, activation.DefaultLeak, header.Layers[0].Leak)
	assert.Equal(t, "softmax", header.Layers[1].Activation)
	require.Len(t, header.Tensors, 4)
	assert.Equal(t, WeightsName(0), header.Tensors[0].Name)
	assert.Equal(t, []int{3, 4}, header.Tensors[0].Shape)
	assert.Equal(t, BiasName(1), header.Tensors[3].Name)
}

func TestWriteRead_SpecialValues(t *testing.T) {
	w, err := matrix.FromRows([][]float64{{math.Inf(1), math.Copysign(0, -1)}, {1e-300, math.MaxFloat64}})
	require.NoError(t, err)
	b, err := matrix.FromRows([][]float64{{math.SmallestNonzeroFloat64, -1}})
	require.NoError(t, err)
	net, err := nn.New([]*nn.Layer{{Weights: w, Bias: b, Activation: activation.Identity}})
	require.NoError(t, err)

	got, _, err := Read(bytes.NewReader(encode(t, net, nil)), ReaderOptions{})
	require.NoError(t, err)
	assertSameNetwork(t, net, got)
}

func TestWrite_UnknownActivationStoredAsFallback(t *testing.T) {
	w, err := matrix.FromRows([][]float64{{1}})
	require.NoError(t, err)
	b, err := matrix.FromRows([][]float64{{0}})
	require.NoError(t, err)
	net, err := nn.New([]*nn.Layer{{Weights: w, Bias: b, Activation: activation.Kind(42)}})
	require.NoError(t, err)

	got, header, err := Read(bytes.NewReader(encode(t, net, nil)), ReaderOptions{})
	require.NoError(t, err)
	assert.Equal(t, activation.Fallback.String(), header.Layers[0].Activation)
	l, err := got.Layer(0)
	require.NoError(t, err)
	assert.Equal(t, activation.Fallback, l.Activation)
}

func TestSaveLoad(t *testing.T) {
	net := testNetwork(t)
	path := filepath.Join(t.TempDir(), "model.born")
	require.NoError(t, Save(path, net, nil))

	got, header, err := Load(path, ReaderOptions{})
	require.NoError(t, err)
	assertSameNetwork(t, net, got)
	assert.Empty(t, header.Metadata)

	_, _, err = Load(filepath.Join(t.TempDir(), "missing.born"), ReaderOptions{})
	assert.Error(t, err)
}

func TestRead_ChecksumMismatch(t *testing.T) {
	raw := encode(t, testNetwork(t), nil)
	raw[len(raw)-1] ^= 0xFF

	_, _, err := Read(bytes.NewReader(raw), ReaderOptions{})
	assert.ErrorIs(t, err, ErrChecksumMismatch)

	_, _, err = Read(bytes.NewReader(raw), ReaderOptions{SkipChecksumValidation: true})
	assert.NoError(t, err)
}

func TestRead_CorruptContainer(t *testing.T) {
	raw := encode(t, testNetwork(t), nil)

	badMagic := bytes.Clone(raw)
	copy(badMagic, "NOPE")
	_, _, err := Read(bytes.NewReader(badMagic), ReaderOptions{})
	assert.ErrorIs(t, err, ErrInvalidMagic)

	badVersion := bytes.Clone(raw)
	binary.LittleEndian.PutUint32(badVersion[4:8], 1)
	_, _, err = Read(bytes.NewReader(badVersion), ReaderOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	hugeHeader := bytes.Clone(raw)
	binary.LittleEndian.PutUint64(hugeHeader[16:24], MaxHeaderSize+1)
	_, _, err = Read(bytes.NewReader(hugeHeader), ReaderOptions{})
	assert.ErrorIs(t, err, ErrHeaderTooLarge)

	_, _, err = Read(bytes.NewReader(raw[:len(raw)-8]), ReaderOptions{})
	assert.Error(t, err)

	_, _, err = Read(bytes.NewReader(raw[:10]), ReaderOptions{})
	assert.Error(t, err)
}

// rewriteHeader re-encodes raw with the JSON header modified by edit,
// keeping the tensor data and its checksum.
func rewriteHeader(t *testing.T, raw []byte, edit func(h *Header)) []byte {
	t.Helper()
	headerSize := int64(binary.LittleEndian.Uint64(raw[16:24]))
	var h Header
	require.NoError(t, json.Unmarshal(raw[FixedHeaderSize:FixedHeaderSize+headerSize], &h))
	data := raw[dataOffset(headerSize):]

	edit(&h)
	headerJSON, err := json.Marshal(h)
	require.NoError(t, err)

	out := bytes.Clone(raw[:FixedHeaderSize])
	binary.LittleEndian.PutUint64(out[16:24], uint64(len(headerJSON)))
	out = append(out, headerJSON...)
	out = append(out, make([]byte, dataOffset(int64(len(headerJSON)))-int64(len(out)))...)
	return append(out, data...)
}

func TestRead_InvalidHeader(t *testing.T) {
	raw := encode(t, testNetwork(t), nil)

	tests := []struct {
		name string
		edit func(h *Header)
	}{
		{"model type", func(h *Header) { h.ModelType = "Transformer" }},
		{"dtype", func(h *Header) { h.Tensors[0].DType = "float32" }},
		{"size", func(h *Header) { h.Tensors[1].Size = 8 }},
		{"name", func(h *Header) { h.Tensors[2].Name = "../weights" }},
		{"overlap", func(h *Header) { h.Tensors[1].Offset = 8 }},
		{"out of bounds", func(h *Header) { h.Tensors[3].Offset = 1 << 20 }},
		{"tensor count", func(h *Header) { h.Tensors = h.Tensors[:3] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Read(bytes.NewReader(rewriteHeader(t, raw, tt.edit)), ReaderOptions{})
			assert.Error(t, err)
		})
	}

	// Renaming a tensor passes validation but leaves a layer without it.
	renamed := rewriteHeader(t, raw, func(h *Header) { h.Tensors[0].Name = "layer.9.weights" })
	_, _, err := Read(bytes.NewReader(renamed), ReaderOptions{})
	assert.ErrorIs(t, err, ErrMissingTensor)

	unknownAct := rewriteHeader(t, raw, func(h *Header) { h.Layers[1].Activation = "gelu" })
	_, _, err = Read(bytes.NewReader(unknownAct), ReaderOptions{})
	assert.ErrorIs(t, err, activation.ErrUnknownKind)

	// Without validation out-of-range regions are still refused.
	outside := rewriteHeader(t, raw, func(h *Header) { h.Tensors[3].Offset = 1 << 20 })
	_, _, err = Read(bytes.NewReader(outside), ReaderOptions{ValidationLevel: ValidationNone})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestValidateTensorOffsets(t *testing.T) {
	ok := []TensorMeta{
		{Name: "a", Offset: 0, Size: 16},
		{Name: "b", Offset: 16, Size: 8},
	}
	assert.NoError(t, ValidateTensorOffsets(ok, 24))

	var verr *ValidationError
	err := ValidateTensorOffsets([]TensorMeta{{Name: "a", Offset: 0, Size: 16}, {Name: "b", Offset: 15, Size: 8}}, 64)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "offset_overlap", verr.Type)
	assert.Contains(t, err.Error(), `"a" and "b"`)

	err = ValidateTensorOffsets([]TensorMeta{{Name: "a", Offset: -8, Size: 8}}, 64)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "negative_offset", verr.Type)

	err = ValidateTensorOffsets([]TensorMeta{{Name: "a", Offset: 60, Size: 8}}, 64)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "out_of_bounds", verr.Type)
}

func TestValidateTensorOffsets_NoOverflow(t *testing.T) {
	var verr *ValidationError
	tensors := []TensorMeta{
		{Name: "a", Offset: 0, Size: 8},
		{Name: "b", Offset: math.MaxInt64 - 3, Size: 8},
	}
	err := ValidateTensorOffsets(tensors, 64)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "out_of_bounds", verr.Type)
	assert.Equal(t, "b", verr.Tensor)
}

func TestRead_OffsetNearMaxInt64(t *testing.T) {
	raw := rewriteHeader(t, encode(t, testNetwork(t), nil), func(h *Header) {
		h.Tensors[0].Offset = math.MaxInt64 - 3
	})
	for _, level := range []ValidationLevel{ValidationStrict, ValidationNormal, ValidationNone} {
		var err error
		require.NotPanics(t, func() {
			_, _, err = Read(bytes.NewReader(raw), ReaderOptions{ValidationLevel: level})
		}, "level %d", level)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, "level %d", level)
	}
}

func TestValidateTensor_HugeShape(t *testing.T) {
	err := ValidateTensor(TensorMeta{Name: "w", DType: DTypeFloat64, Shape: []int{1 << 32, 1 << 32}, Size: 0})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "invalid_shape", verr.Type)
}

func TestValidateTensorName(t *testing.T) {
	assert.NoError(t, ValidateTensorName("layer.0.weights"))
	for _, name := range []string{"", "a/b", `a\b`, "..", "a\x00b", string(make([]byte, MaxTensorNameLen+1))} {
		assert.Error(t, ValidateTensorName(name), "%q", name)
	}
}

func TestChecksum(t *testing.T) {
	a := ComputeChecksum([]byte("weights"))
	assert.Equal(t, a, ComputeChecksum([]byte("weights")))
	assert.NotEqual(t, a, ComputeChecksum([]byte("weightz")))
	assert.NoError(t, ValidateChecksum(a, a))
	assert.ErrorIs(t, ValidateChecksum(a, [ChecksumSize]byte{}), ErrChecksumMismatch)
}

func TestWriteSafeTensors(t *testing.T) {
	net := testNetwork(t)
	var buf bytes.Buffer
	require.NoError(t, WriteSafeTensors(&buf, net, map[string]string{"format": "pt"}))
	raw := buf.Bytes()

	n := binary.LittleEndian.Uint64(raw[:8])
	var header map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw[8:8+n], &header))
	data := raw[8+n:]

	var meta map[string]string
	require.NoError(t, json.Unmarshal(header["__metadata__"], &meta))
	assert.Equal(t, "pt", meta["format"])
	assert.Equal(t, "leaky_relu", meta["layer.0.activation"])
	assert.Equal(t, "softmax", meta["layer.1.activation"])

	// Sorted by name: layer.0.bias, layer.0.weights, layer.1.bias, layer.1.weights.
	var bias0, weights1 SafeTensorHeader
	require.NoError(t, json.Unmarshal(header[BiasName(0)], &bias0))
	require.NoError(t, json.Unmarshal(header[WeightsName(1)], &weights1))
	assert.Equal(t, "F64", bias0.DType)
	assert.Equal(t, []int64{1, 4}, bias0.Shape)
	assert.Equal(t, [2]int64{0, 32}, bias0.DataOffsets)
	assert.Equal(t, []int64{4, 2}, weights1.Shape)
	assert.Equal(t, int64(len(data)), weights1.DataOffsets[1])

	l1, err := net.Layer(1)
	require.NoError(t, err)
	first := math.Float64frombits(binary.LittleEndian.Uint64(data[weights1.DataOffsets[0]:]))
	assert.Equal(t, l1.Weights.At(0, 0), first)
}

func TestSaveSafeTensors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.safetensors")
	require.NoError(t, SaveSafeTensors(path, testNetwork(t), nil))
	assert.ErrorIs(t, SaveSafeTensors(path, nil, nil), nn.ErrNilNetwork)
}
