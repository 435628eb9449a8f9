// Package main provides the mlp command-line tool.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/born-ml/mlp/matrix"
	"github.com/born-ml/mlp/nn"
	"github.com/born-ml/mlp/optim"
	"github.com/born-ml/mlp/train"
)

const version = "v0.1.0"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "mlp:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stdout)
		return nil
	}
	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "mlp %s\n", version)
		return nil
	case "xor":
		return runXOR(args[1:], stdout, stderr)
	case "summary":
		return runSummary(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
		return nil
	default:
		usage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "mlp - multilayer perceptron toolkit")
	fmt.Fprintf(w, "Version: %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version    Show version")
	fmt.Fprintln(w, "  xor        Train a 2-4-1 network on XOR and print its predictions")
	fmt.Fprintln(w, "  summary    Print the layout of a network or a saved .born file")
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func runXOR(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("xor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	epochs := fs.Int("epochs", 2000, "Number of training epochs")
	lr := fs.Float64("lr", 0.1, "Learning rate")
	seed := fs.Int64("seed", 1, "Random seed for weight initialization")
	verbose := fs.Bool("v", false, "Log every cycle at debug level")
	save := fs.String("save", "", "Write the trained network to this .born file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := newLogger(stderr, *verbose)
	net, err := nn.NewSequential([]int{2, 4, 1},
		[]nn.Activation{nn.ReLU, nn.Sigmoid},
		rand.New(rand.NewSource(*seed)), //nolint:gosec // Reproducible initialization.
		nn.WithLogger(logger))
	if err != nil {
		return err
	}

	x, err := matrix.FromRows([][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}})
	if err != nil {
		return err
	}
	y, err := matrix.FromRows([][]float64{{0}, {1}, {1}, {0}})
	if err != nil {
		return err
	}

	history, err := train.Fit(net, x, y, optim.NewSGD(optim.SGDConfig{LR: *lr}), train.Config{
		Epochs:   *epochs,
		Loss:     nn.MSE,
		LogEvery: max(*epochs/10, 1),
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	out, err := net.Predict(x)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "final loss: %.6f\n", history[len(history)-1])
	fmt.Fprintln(stdout, "input      target  prediction")
	for i := 0; i < x.Rows(); i++ {
		fmt.Fprintf(stdout, "%.0f %.0f        %.0f       %.4f\n",
			x.At(i, 0), x.At(i, 1), y.At(i, 0), out.At(i, 0))
	}

	if *save != "" {
		meta := map[string]string{"task": "xor", "epochs": strconv.Itoa(*epochs)}
		if err := nn.Save(net, *save, meta); err != nil {
			return fmt.Errorf("save model: %w", err)
		}
		logger.Info("model saved", "path", *save)
	}
	return nil
}

func runSummary(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	fs.SetOutput(stderr)
	layers := fs.String("layers", "2,4,1", "Comma-separated layer widths, input first")
	acts := fs.String("acts", "", "Comma-separated activations, one per layer (default: relu, softmax on the last)")
	model := fs.String("model", "", "Summarize a saved .born file instead of building from -layers")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *model != "" {
		net, header, err := nn.Load(*model, nn.LoadOptions{})
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "File: %s (written by %s at %s)\n",
			*model, header.Version, header.CreatedAt.Format("2006-01-02 15:04:05"))
		return net.Summary(stdout)
	}

	sizes, err := parseSizes(*layers)
	if err != nil {
		return err
	}
	kinds, err := parseActivations(*acts, len(sizes)-1)
	if err != nil {
		return err
	}
	net, err := nn.NewSequential(sizes, kinds, nil)
	if err != nil {
		return err
	}
	return net.Summary(stdout)
}

func parseSizes(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	sizes := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid layer width %q: %w", p, err)
		}
		sizes[i] = n
	}
	return sizes, nil
}

func parseActivations(s string, n int) ([]nn.Activation, error) {
	if n < 1 {
		return nil, fmt.Errorf("need at least two layer widths")
	}
	if s == "" {
		kinds := make([]nn.Activation, n)
		for i := range kinds {
			kinds[i] = nn.ReLU
		}
		kinds[n-1] = nn.Softmax
		return kinds, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("got %d activations for %d layers", len(parts), n)
	}
	kinds := make([]nn.Activation, n)
	for i, p := range parts {
		k, err := nn.ParseActivation(p)
		if err != nil {
			return nil, err
		}
		kinds[i] = k
	}
	return kinds, nil
}
