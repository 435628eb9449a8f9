package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/born-ml/mlp/internal/activation"
	"github.com/born-ml/mlp/internal/matrix"
	"github.com/born-ml/mlp/internal/nn"
)

// ReaderOptions configures how a .born file is read.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level (zero value is strict)
}

// Read decodes a network from .born data in r. netOpts are applied to the
// returned network.
func Read(r io.Reader, opts ReaderOptions, netOpts ...nn.Option) (*nn.Network, Header, error) {
	header, data, err := readContainer(r, opts)
	if err != nil {
		return nil, Header{}, err
	}

	byName := make(map[string]TensorMeta, len(header.Tensors))
	for _, t := range header.Tensors {
		byName[t.Name] = t
	}
	layers := make([]*nn.Layer, len(header.Layers))
	for i, lm := range header.Layers {
		act, err := activation.ParseKind(lm.Activation)
		if err != nil {
			return nil, Header{}, fmt.Errorf("layer %d: %w", i, err)
		}
		w, err := decodeTensor(byName, WeightsName(i), data)
		if err != nil {
			return nil, Header{}, err
		}
		b, err := decodeTensor(byName, BiasName(i), data)
		if err != nil {
			return nil, Header{}, err
		}
		layers[i] = &nn.Layer{Weights: w, Bias: b, Activation: act, Leak: lm.Leak}
	}

	net, err := nn.New(layers, netOpts...)
	if err != nil {
		return nil, Header{}, fmt.Errorf("failed to rebuild network: %w", err)
	}
	return net, header, nil
}

// readContainer parses the fixed header, the JSON header and the tensor
// data, validating them according to opts.
func readContainer(r io.Reader, opts ReaderOptions) (Header, []byte, error) {
	var header Header

	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return header, nil, fmt.Errorf("failed to read fixed header: %w", err)
	}
	if string(fixed[0:4]) != MagicBytes {
		return header, nil, fmt.Errorf("%w: %q", ErrInvalidMagic, fixed[0:4])
	}
	if version := binary.LittleEndian.Uint32(fixed[4:8]); version != FormatVersion {
		return header, nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	headerSize := binary.LittleEndian.Uint64(fixed[16:24])
	dataSize := binary.LittleEndian.Uint64(fixed[24:32])
	var stored [ChecksumSize]byte
	copy(stored[:], fixed[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return header, nil, ErrHeaderTooLarge
	}
	if dataSize > math.MaxInt64 {
		return header, nil, fmt.Errorf("data size %d overflows", dataSize)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return header, nil, fmt.Errorf("failed to read header JSON: %w", err)
	}
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return header, nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize.
	padding := dataOffset(int64(headerSize)) - FixedHeaderSize - int64(headerSize)
	if _, err := io.CopyN(io.Discard, r, padding); err != nil {
		return header, nil, fmt.Errorf("failed to skip padding: %w", err)
	}

	// ReadAll grows with the input, so a forged data size cannot force a
	// huge allocation up front.
	data, err := io.ReadAll(io.LimitReader(r, int64(dataSize)))
	if err != nil {
		return header, nil, fmt.Errorf("failed to read tensor data: %w", err)
	}
	if uint64(len(data)) != dataSize {
		return header, nil, fmt.Errorf("tensor data truncated: got %d bytes, want %d: %w",
			len(data), dataSize, io.ErrUnexpectedEOF)
	}

	if !opts.SkipChecksumValidation {
		if err := ValidateChecksum(ComputeChecksum(data), stored); err != nil {
			return header, nil, err
		}
	}
	if err := ValidateHeader(&header, int64(len(data)), opts.ValidationLevel); err != nil {
		return header, nil, fmt.Errorf("validation failed: %w", err)
	}
	return header, data, nil
}

func decodeTensor(byName map[string]TensorMeta, name string, data []byte) (*matrix.Matrix, error) {
	t, ok := byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingTensor, name)
	}
	dataSize := int64(len(data))
	if len(t.Shape) != 2 || t.Offset < 0 || t.Size < 0 || t.Offset > dataSize || t.Size > dataSize-t.Offset {
		return nil, &ValidationError{Type: "out_of_bounds", Tensor: name, Details: "tensor region outside data section"}
	}
	raw := data[t.Offset : t.Offset+t.Size]
	values := make([]float64, len(raw)/float64Size)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*float64Size:]))
	}
	m, err := matrix.FromSlice(t.Shape[0], t.Shape[1], values)
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}
	return m, nil
}

// Load reads a network from the named .born file.
func Load(path string, opts ReaderOptions, netOpts ...nn.Option) (*nn.Network, Header, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, Header{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return Read(bufio.NewReader(file), opts, netOpts...)
}
