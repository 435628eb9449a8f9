package nn

import (
	"fmt"
	"io"
	"strings"
)

const summaryRule = "=================================="

// Summary writes a human-readable description of the network: layer count,
// parameter shapes and activations.
func (n *Network) Summary(w io.Writer) error {
	if n == nil {
		return ErrNilNetwork
	}
	var sb strings.Builder
	sb.WriteString(summaryRule + "\n")
	sb.WriteString("      Neural Network Summary      \n")
	sb.WriteString(summaryRule + "\n")
	fmt.Fprintf(&sb, "Number of layers: %d\n", len(n.layers))
	for i, l := range n.layers {
		sb.WriteString("----------------------------------\n")
		fmt.Fprintf(&sb, "Layer %d:\n", i+1)
		fmt.Fprintf(&sb, "  Weights matrix: %d x %d\n", l.Weights.Rows(), l.Weights.Cols())
		fmt.Fprintf(&sb, "  Bias matrix:    %d x %d\n", l.Bias.Rows(), l.Bias.Cols())
		fmt.Fprintf(&sb, "  Activation:     %s\n", l.Activation)
	}
	sb.WriteString("----------------------------------\n")
	fmt.Fprintf(&sb, "Trainable parameters: %d\n", n.NumParams())
	sb.WriteString(summaryRule + "\n")

	_, err := io.WriteString(w, sb.String())
	return err
}
