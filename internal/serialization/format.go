package serialization

import (
	"fmt"
	"time"
)

// Format constants.
const (
	MagicBytes      = "BORN"
	FormatVersion   = 2    // With SHA-256 checksum
	HeaderAlignment = 64   // Tensor data starts on a 64-byte boundary
	FixedHeaderSize = 64   // Fixed header size (0x40 bytes)
	ChecksumSize    = 32   // SHA-256 checksum size (32 bytes)
	ChecksumOffset  = 0x20 // Checksum offset in the fixed header
)

// DTypeFloat64 is the only tensor data type networks are stored with.
const DTypeFloat64 = "float64"

// Flags for the .born format.
const (
	FlagHasMetadata uint32 = 1 << 2 // bit 2: custom metadata included
)

// ModelTypeSequential identifies a stack of dense layers.
const ModelTypeSequential = "Sequential"

// Header represents the JSON header in a .born file.
type Header struct {
	FormatVersion int               `json:"format_version"` // Version of the .born format
	Version       string            `json:"version"`        // Version of the library that wrote the file
	ModelType     string            `json:"model_type"`     // Type of model (always "Sequential")
	CreatedAt     time.Time         `json:"created_at"`     // When the file was created
	Layers        []LayerMeta       `json:"layers"`         // Per-layer configuration
	Tensors       []TensorMeta      `json:"tensors"`        // Tensor metadata
	Metadata      map[string]string `json:"metadata"`       // Custom metadata
}

// LayerMeta records the non-tensor configuration of one layer.
type LayerMeta struct {
	Activation string  `json:"activation"`     // Activation name, e.g. "relu"
	Leak       float64 `json:"leak,omitempty"` // LeakyReLU slope
}

// TensorMeta describes a tensor in the .born file.
type TensorMeta struct {
	Name   string `json:"name"`   // Tensor name (e.g., "layer.0.weights")
	DType  string `json:"dtype"`  // Data type, always "float64"
	Shape  []int  `json:"shape"`  // [rows, cols]
	Offset int64  `json:"offset"` // Offset in the data section (bytes from start of tensor data)
	Size   int64  `json:"size"`   // Size in bytes
}

// WeightsName returns the tensor name of layer i's weights.
func WeightsName(i int) string { return fmt.Sprintf("layer.%d.weights", i) }

// BiasName returns the tensor name of layer i's bias.
func BiasName(i int) string { return fmt.Sprintf("layer.%d.bias", i) }

// dataOffset returns where the tensor data starts for a JSON header of the
// given size.
func dataOffset(headerSize int64) int64 {
	pos := int64(FixedHeaderSize) + headerSize
	return pos + (HeaderAlignment-pos%HeaderAlignment)%HeaderAlignment
}
