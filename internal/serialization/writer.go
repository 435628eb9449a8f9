package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/born-ml/mlp/internal/activation"
	"github.com/born-ml/mlp/internal/matrix"
	"github.com/born-ml/mlp/internal/nn"
)

const libraryVersion = "0.1.0"

// namedMatrix pairs a tensor name with its values.
type namedMatrix struct {
	name string
	m    *matrix.Matrix
}

// snapshot copies every layer of net, returning the layer configuration and
// the parameter tensors in layer order (weights before bias).
func snapshot(net *nn.Network) ([]LayerMeta, []namedMatrix, error) {
	if net == nil {
		return nil, nil, nn.ErrNilNetwork
	}
	layers := make([]LayerMeta, 0, net.NumLayers())
	tensors := make([]namedMatrix, 0, 2*net.NumLayers())
	for i := range net.NumLayers() {
		l, err := net.Layer(i)
		if err != nil {
			return nil, nil, err
		}
		// The network evaluates unknown kinds as the fallback, so that is
		// what gets stored.
		act := l.Activation
		if !act.Valid() {
			act = activation.Fallback
		}
		layers = append(layers, LayerMeta{Activation: act.String(), Leak: l.Leak})
		tensors = append(tensors,
			namedMatrix{name: WeightsName(i), m: l.Weights},
			namedMatrix{name: BiasName(i), m: l.Bias},
		)
	}
	return layers, tensors, nil
}

func appendFloat64s(dst []byte, values []float64) []byte {
	for _, v := range values {
		dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(v))
	}
	return dst
}

// Write encodes net in .born format to w.
func Write(w io.Writer, net *nn.Network, metadata map[string]string) error {
	layers, tensors, err := snapshot(net)
	if err != nil {
		return err
	}

	header := Header{
		FormatVersion: FormatVersion,
		Version:       libraryVersion,
		ModelType:     ModelTypeSequential,
		CreatedAt:     time.Now().UTC(),
		Layers:        layers,
		Tensors:       make([]TensorMeta, 0, len(tensors)),
		Metadata:      metadata,
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	var data []byte
	for _, t := range tensors {
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   t.name,
			DType:  DTypeFloat64,
			Shape:  []int{t.m.Rows(), t.m.Cols()},
			Offset: int64(len(data)),
			Size:   int64(t.m.Len() * float64Size),
		})
		data = appendFloat64s(data, t.m.Data())
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	flags := uint32(0)
	if len(metadata) > 0 {
		flags |= FlagHasMetadata
	}
	binary.LittleEndian.PutUint32(fixed[8:12], flags)
	// 0x0C-0x0F reserved
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(len(data)))
	checksum := ComputeChecksum(data)
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	padding := dataOffset(int64(len(headerJSON))) - int64(FixedHeaderSize+len(headerJSON))

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(fixed); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := bw.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header JSON: %w", err)
	}
	if _, err := bw.Write(make([]byte, padding)); err != nil {
		return fmt.Errorf("failed to write padding: %w", err)
	}
	if _, err := bw.Write(data); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return bw.Flush()
}

// Save writes net to the named .born file.
func Save(path string, net *nn.Network, metadata map[string]string) (err error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return Write(file, net, metadata)
}
