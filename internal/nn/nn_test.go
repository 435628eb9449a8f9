package nn_test

import (
	"math/rand"
	"testing"

	"github.com/born-ml/mlp/internal/activation"
	"github.com/born-ml/mlp/internal/cache"
	"github.com/born-ml/mlp/internal/loss"
	"github.com/born-ml/mlp/internal/matrix"
	"github.com/born-ml/mlp/internal/nn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mat(t *testing.T, rows ...[]float64) *matrix.Matrix {
	t.Helper()
	m, err := matrix.FromRows(rows)
	require.NoError(t, err)
	return m
}

func layer(t *testing.T, w, b *matrix.Matrix, act activation.Kind) *nn.Layer {
	t.Helper()
	return &nn.Layer{Weights: w, Bias: b, Activation: act}
}

func seeded(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func TestNewLayer(t *testing.T) {
	l, err := nn.NewLayer(4, 3, activation.ReLU, 0, seeded(1))
	require.NoError(t, err)

	assert.Equal(t, 4, l.In())
	assert.Equal(t, 3, l.Out())
	assert.Equal(t, 4*3+3, l.NumParams())
	assert.Equal(t, "1x3", l.Bias.Shape())

	bound := 1 / 2.0 // 1/sqrt(4)
	for _, v := range l.Weights.Data() {
		assert.LessOrEqual(t, v, bound)
		assert.GreaterOrEqual(t, v, -bound)
	}
	for _, v := range l.Bias.Data() {
		assert.Zero(t, v)
	}
}

func TestNewLayer_InvalidShape(t *testing.T) {
	_, err := nn.NewLayer(0, 3, activation.ReLU, 0, nil)
	assert.ErrorIs(t, err, matrix.ErrInvalidShape)
}

func TestNew_Validation(t *testing.T) {
	_, err := nn.New(nil)
	assert.ErrorIs(t, err, nn.ErrNoLayers)

	l1, err := nn.NewLayer(2, 3, activation.Tanh, 0, seeded(1))
	require.NoError(t, err)
	l2, err := nn.NewLayer(4, 1, activation.Sigmoid, 0, seeded(2))
	require.NoError(t, err)
	_, err = nn.New([]*nn.Layer{l1, l2})
	assert.ErrorIs(t, err, nn.ErrLayerChain)

	_, err = nn.New([]*nn.Layer{l1, nil})
	assert.ErrorIs(t, err, nn.ErrLayerChain)

	badBias := layer(t, mat(t, []float64{1, 2}), mat(t, []float64{0}), activation.Identity)
	_, err = nn.New([]*nn.Layer{badBias})
	assert.ErrorIs(t, err, nn.ErrLayerChain)

	_, err = nn.New([]*nn.Layer{{Activation: activation.ReLU}})
	assert.ErrorIs(t, err, matrix.ErrNilMatrix)
}

func TestNewSequential(t *testing.T) {
	net, err := nn.NewSequential([]int{2, 4, 1},
		[]activation.Kind{activation.ReLU, activation.Sigmoid}, seeded(7))
	require.NoError(t, err)

	assert.Equal(t, 2, net.NumLayers())
	assert.Equal(t, 2, net.InputSize())
	assert.Equal(t, 1, net.OutputSize())
	assert.Equal(t, (2*4+4)+(4*1+1), net.NumParams())

	_, err = nn.NewSequential([]int{2}, nil, nil)
	assert.ErrorIs(t, err, nn.ErrNoLayers)

	_, err = nn.NewSequential([]int{2, 4, 1}, []activation.Kind{activation.ReLU}, nil)
	assert.ErrorIs(t, err, nn.ErrLayerChain)
}

func TestNewSequential_Deterministic(t *testing.T) {
	acts := []activation.Kind{activation.Tanh, activation.Softmax}
	a, err := nn.NewSequential([]int{3, 5, 2}, acts, seeded(99))
	require.NoError(t, err)
	b, err := nn.NewSequential([]int{3, 5, 2}, acts, seeded(99))
	require.NoError(t, err)

	for i := 0; i < a.NumLayers(); i++ {
		la, err := a.Layer(i)
		require.NoError(t, err)
		lb, err := b.Layer(i)
		require.NoError(t, err)
		assert.Equal(t, la.Weights.Data(), lb.Weights.Data())
	}
}

func TestNetwork_LayerIsCopy(t *testing.T) {
	net, err := nn.NewSequential([]int{2, 2}, []activation.Kind{activation.Identity}, seeded(3))
	require.NoError(t, err)

	l, err := net.Layer(0)
	require.NoError(t, err)
	before := l.Weights.At(0, 0)
	l.Weights.Set(0, 0, before+100)

	again, err := net.Layer(0)
	require.NoError(t, err)
	assert.Equal(t, before, again.Weights.At(0, 0))

	_, err = net.Layer(1)
	assert.ErrorIs(t, err, nn.ErrLayerIndex)
	_, err = net.Layer(-1)
	assert.ErrorIs(t, err, nn.ErrLayerIndex)
}

func TestNetwork_SetParams(t *testing.T) {
	net, err := nn.NewSequential([]int{2, 1}, []activation.Kind{activation.Identity}, seeded(3))
	require.NoError(t, err)

	w := mat(t, []float64{2}, []float64{3})
	b := mat(t, []float64{1})
	require.NoError(t, net.SetParams(0, w, b))

	// The network keeps its own copy.
	w.Set(0, 0, 100)

	out, err := net.Feedforward(mat(t, []float64{1, 1}))
	require.NoError(t, err)
	assert.InDelta(t, 6.0, out.At(0, 0), 1e-12)

	err = net.SetParams(0, mat(t, []float64{1, 2}), b)
	assert.ErrorIs(t, err, matrix.ErrShapeMismatch)
	err = net.SetParams(2, w, b)
	assert.ErrorIs(t, err, nn.ErrLayerIndex)
}

func TestFeedforward_SingleSigmoid(t *testing.T) {
	l := layer(t, mat(t, []float64{0.3}, []float64{0.4}), mat(t, []float64{0}), activation.Sigmoid)
	net, err := nn.New([]*nn.Layer{l})
	require.NoError(t, err)

	out, err := net.Feedforward(mat(t, []float64{1, 2}))
	require.NoError(t, err)
	assert.Equal(t, "1x1", out.Shape())
	assert.InDelta(t, 0.7502601056, out.At(0, 0), 1e-9)
}

func TestFeedforward_CachesIntermediates(t *testing.T) {
	w0 := mat(t, []float64{1, -1}, []float64{0.5, 2})
	b0 := mat(t, []float64{0, -3})
	w1 := mat(t, []float64{1}, []float64{1})
	b1 := mat(t, []float64{0.5})
	net, err := nn.New([]*nn.Layer{
		layer(t, w0, b0, activation.ReLU),
		layer(t, w1, b1, activation.Identity),
	})
	require.NoError(t, err)

	x := mat(t, []float64{2, 1}, []float64{-1, 1})
	out, err := net.Feedforward(x)
	require.NoError(t, err)

	// z0 = x@W0 + b0 = [[2.5, -3], [-0.5, 0]]
	z0, err := net.Cached(cache.ZKey(0))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2.5, -3, -0.5, 0}, z0.Data(), 1e-12)

	a0, err := net.Cached(cache.AKey(0))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2.5, 0, 0, 0}, a0.Data(), 1e-12)

	assert.InDeltaSlice(t, []float64{3, 0.5}, out.Data(), 1e-12)

	in, err := net.Cached(cache.InputKey)
	require.NoError(t, err)
	assert.Equal(t, x.Data(), in.Data())

	assert.Equal(t,
		[]string{"a_0", "a_1", "input", "z_0", "z_1"},
		net.CachedKeys())
}

func TestFeedforward_OutputOwnedByCaller(t *testing.T) {
	net, err := nn.NewSequential([]int{2, 2}, []activation.Kind{activation.Tanh}, seeded(5))
	require.NoError(t, err)

	x := mat(t, []float64{0.1, 0.2})
	out, err := net.Feedforward(x)
	require.NoError(t, err)
	want := out.At(0, 0)
	out.Set(0, 0, 42)
	x.Set(0, 0, 42)

	a, err := net.Cached(cache.AKey(0))
	require.NoError(t, err)
	assert.Equal(t, want, a.At(0, 0))
	in, err := net.Cached(cache.InputKey)
	require.NoError(t, err)
	assert.Equal(t, 0.1, in.At(0, 0))
}

func TestFeedforward_Errors(t *testing.T) {
	net, err := nn.NewSequential([]int{3, 2}, []activation.Kind{activation.ReLU}, seeded(5))
	require.NoError(t, err)

	_, err = net.Feedforward(nil)
	assert.ErrorIs(t, err, matrix.ErrNilMatrix)

	_, err = net.Feedforward(mat(t, []float64{1, 2}))
	assert.ErrorIs(t, err, matrix.ErrShapeMismatch)

	var nilNet *nn.Network
	_, err = nilNet.Feedforward(mat(t, []float64{1, 2, 3}))
	assert.ErrorIs(t, err, nn.ErrNilNetwork)
}

func TestNilNetwork_Accessors(t *testing.T) {
	var net *nn.Network
	assert.NotPanics(t, func() {
		assert.Zero(t, net.NumLayers())
		assert.Zero(t, net.InputSize())
		assert.Zero(t, net.OutputSize())
		assert.Zero(t, net.NumParams())
		assert.Nil(t, net.CachedKeys())
		net.Reset()
	})
	_, err := net.Layer(0)
	assert.ErrorIs(t, err, nn.ErrNilNetwork)
	_, err = net.Gradients()
	assert.ErrorIs(t, err, nn.ErrNilNetwork)
}

func TestPredict_LeavesCycleIntact(t *testing.T) {
	net, err := nn.NewSequential([]int{2, 3, 1},
		[]activation.Kind{activation.Tanh, activation.Sigmoid}, seeded(11))
	require.NoError(t, err)

	x := mat(t, []float64{0.5, -0.5})
	out, err := net.Feedforward(x)
	require.NoError(t, err)
	keys := net.CachedKeys()

	other := mat(t, []float64{1, 1}, []float64{2, 2})
	pred, err := net.Predict(other)
	require.NoError(t, err)
	assert.Equal(t, "2x1", pred.Shape())
	assert.Equal(t, keys, net.CachedKeys())

	// The cycle started by Feedforward can still be completed.
	require.NoError(t, net.Backpropagate(mat(t, []float64{1}), loss.MSE, nil))

	same, err := net.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, out.Data(), same.Data())
}
