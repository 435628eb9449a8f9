// Package train drives a network through epochs of mini-batch gradient
// descent and measures how well it fits.
package train

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/mlp/internal/loss"
	"github.com/born-ml/mlp/internal/matrix"
	"github.com/born-ml/mlp/internal/nn"
	"github.com/born-ml/mlp/internal/optim"
)

// Errors returned by Fit and the evaluation helpers.
var (
	ErrNoSamples      = errors.New("no samples")
	ErrSampleMismatch = errors.New("inputs and targets have different row counts")
	ErrInvalidConfig  = errors.New("invalid training config")
	ErrDiverged       = errors.New("loss is not finite")
)

// Config controls a training run.
type Config struct {
	Epochs    int          // Number of passes over the data (required, > 0)
	BatchSize int          // Rows per mini-batch (default: all rows)
	Loss      loss.Kind    // Loss to minimize (default: MSE)
	LogEvery  int          // Log progress every N epochs (default: only the last epoch)
	Logger    *slog.Logger // Destination for progress logs (default: discard)
}

func (c Config) withDefaults(rows int) (Config, error) {
	if c.Epochs <= 0 {
		return c, fmt.Errorf("%w: epochs must be positive, got %d", ErrInvalidConfig, c.Epochs)
	}
	if c.BatchSize < 0 {
		return c, fmt.Errorf("%w: batch size must not be negative, got %d", ErrInvalidConfig, c.BatchSize)
	}
	if !c.Loss.Valid() {
		return c, fmt.Errorf("%w: %w: %d", ErrInvalidConfig, loss.ErrUnknownKind, int(c.Loss))
	}
	if c.BatchSize == 0 || c.BatchSize > rows {
		c.BatchSize = rows
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c, nil
}

// Fit trains net on the rows of x against the rows of y.
//
// Each epoch walks the data in contiguous mini-batches of cfg.BatchSize rows
// (the last batch may be shorter) and for each one runs Feedforward,
// computes the loss, runs Backpropagate and applies one optimizer step. It
// returns the mean batch loss of every epoch.
func Fit(net *nn.Network, x, y *matrix.Matrix, opt optim.Optimizer, cfg Config) ([]float64, error) {
	if net == nil {
		return nil, nn.ErrNilNetwork
	}
	if err := checkData(x, y); err != nil {
		return nil, err
	}
	if opt == nil {
		return nil, fmt.Errorf("%w: optimizer is nil", ErrInvalidConfig)
	}
	cfg, err := cfg.withDefaults(x.Rows())
	if err != nil {
		return nil, err
	}

	batches, err := split(x, y, cfg.BatchSize)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Info("training started",
		"epochs", cfg.Epochs,
		"samples", x.Rows(),
		"batches", len(batches),
		"loss", cfg.Loss.String(),
		"lr", opt.GetLR(),
	)

	history := make([]float64, 0, cfg.Epochs)
	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		var total float64
		for _, b := range batches {
			l, err := trainBatch(net, b, opt, cfg.Loss)
			if err != nil {
				return history, fmt.Errorf("epoch %d: %w", epoch, err)
			}
			total += l
		}
		mean := total / float64(len(batches))
		if math.IsNaN(mean) || math.IsInf(mean, 0) {
			return history, fmt.Errorf("epoch %d: %w", epoch, ErrDiverged)
		}
		history = append(history, mean)

		if epoch == cfg.Epochs || (cfg.LogEvery > 0 && epoch%cfg.LogEvery == 0) {
			cfg.Logger.Info("epoch complete", "epoch", epoch, "loss", mean)
		}
	}
	return history, nil
}

type batch struct {
	x, y *matrix.Matrix
}

func split(x, y *matrix.Matrix, size int) ([]batch, error) {
	batches := make([]batch, 0, (x.Rows()+size-1)/size)
	for start := 0; start < x.Rows(); start += size {
		end := min(start+size, x.Rows())
		bx, err := matrix.RowSlice(x, start, end)
		if err != nil {
			return nil, err
		}
		by, err := matrix.RowSlice(y, start, end)
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch{x: bx, y: by})
	}
	return batches, nil
}

func trainBatch(net *nn.Network, b batch, opt optim.Optimizer, kind loss.Kind) (float64, error) {
	out, err := net.Feedforward(b.x)
	if err != nil {
		return 0, err
	}
	l, err := loss.Compute(kind, out, b.y)
	if err != nil {
		return 0, err
	}
	if err := net.Backpropagate(b.y, kind, nil); err != nil {
		return 0, err
	}
	if err := opt.Step(net); err != nil {
		return 0, err
	}
	return l, nil
}

// Evaluate returns the loss of net's predictions for x against y. The
// network's current cycle is left untouched.
func Evaluate(net *nn.Network, x, y *matrix.Matrix, kind loss.Kind) (float64, error) {
	if net == nil {
		return 0, nn.ErrNilNetwork
	}
	if err := checkData(x, y); err != nil {
		return 0, err
	}
	out, err := net.Predict(x)
	if err != nil {
		return 0, err
	}
	return loss.Compute(kind, out, y)
}

// Accuracy returns the fraction of rows whose predicted arg-max column
// matches the arg-max column of y. Ties resolve to the lowest index.
func Accuracy(net *nn.Network, x, y *matrix.Matrix) (float64, error) {
	if net == nil {
		return 0, nn.ErrNilNetwork
	}
	if err := checkData(x, y); err != nil {
		return 0, err
	}
	out, err := net.Predict(x)
	if err != nil {
		return 0, err
	}
	if !out.SameShape(y) {
		return 0, fmt.Errorf("accuracy: %w: prediction %s, target %s",
			matrix.ErrShapeMismatch, out.Shape(), y.Shape())
	}

	cols := y.Cols()
	pred, want := out.Data(), y.Data()
	correct := 0
	for i := 0; i < y.Rows(); i++ {
		lo, hi := i*cols, (i+1)*cols
		if floats.MaxIdx(pred[lo:hi]) == floats.MaxIdx(want[lo:hi]) {
			correct++
		}
	}
	return float64(correct) / float64(y.Rows()), nil
}

func checkData(x, y *matrix.Matrix) error {
	if x == nil || y == nil {
		return matrix.ErrNilMatrix
	}
	if x.Rows() != y.Rows() {
		return fmt.Errorf("%w: %d inputs, %d targets", ErrSampleMismatch, x.Rows(), y.Rows())
	}
	if x.Rows() == 0 {
		return ErrNoSamples
	}
	return nil
}
