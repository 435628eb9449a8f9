package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/born-ml/mlp/internal/nn"
)

// SafeTensorHeader represents a tensor in the SafeTensors header.
type SafeTensorHeader struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// WriteSafeTensors exports net's parameters in SafeTensors format, the
// format HuggingFace tooling reads. Tensors are stored as F64 in
// alphabetical order. Layer activations are recorded in the metadata as
// "layer.<i>.activation" alongside any entries of metadata.
func WriteSafeTensors(w io.Writer, net *nn.Network, metadata map[string]string) error {
	layers, tensors, err := snapshot(net)
	if err != nil {
		return err
	}

	meta := make(map[string]string, len(metadata)+len(layers))
	for k, v := range metadata {
		meta[k] = v
	}
	for i, l := range layers {
		meta[fmt.Sprintf("layer.%d.activation", i)] = l.Activation
	}

	sort.Slice(tensors, func(i, j int) bool { return tensors[i].name < tensors[j].name })

	header := make(map[string]any, len(tensors)+1)
	header["__metadata__"] = meta
	var offset int64
	for _, t := range tensors {
		size := int64(t.m.Len() * float64Size)
		header[t.name] = SafeTensorHeader{
			DType:       "F64",
			Shape:       []int64{int64(t.m.Rows()), int64(t.m.Cols())},
			DataOffsets: [2]int64{offset, offset + size},
		}
		offset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := bw.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, t := range tensors {
		if _, err := bw.Write(appendFloat64s(nil, t.m.Data())); err != nil {
			return fmt.Errorf("failed to write tensor %s: %w", t.name, err)
		}
	}
	return bw.Flush()
}

// SaveSafeTensors writes net's parameters to the named SafeTensors file.
func SaveSafeTensors(path string, net *nn.Network, metadata map[string]string) (err error) {
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
	return WriteSafeTensors(file, net, metadata)
}
