package surrogate

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/nanophotonic-structures/nanophotonic-structures/sim"
)

// TrainConfig holds the training hyper-parameters.
type TrainConfig struct {
	Hidden     []int   `yaml:"hidden"`      // hidden layer widths
	BatchSize  int     `yaml:"batch_size"`  // mini-batch size
	Epochs     int     `yaml:"epochs"`      // maximum epochs
	LearnRate  float64 `yaml:"learn_rate"`  // Adam step size
	MinEpochs  int     `yaml:"min_epochs"`  // epochs before early stopping is considered
	StopWindow int     `yaml:"stop_window"` // validation losses averaged for early stopping
	Seed       int64   `yaml:"seed"`        // weight initialization and batch order
}

// DefaultTrainConfig returns the hyper-parameters used for every surrogate.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Hidden:     []int{128, 64},
		BatchSize:  64,
		Epochs:     200,
		LearnRate:  0.001,
		MinEpochs:  20,
		StopWindow: 5,
		Seed:       42,
	}
}

// Validate checks the hyper-parameters.
func (c TrainConfig) Validate() error {
	if len(c.Hidden) == 0 {
		return fmt.Errorf("training.hidden: at least one hidden layer is required")
	}
	for i, h := range c.Hidden {
		if h <= 0 {
			return fmt.Errorf("training.hidden[%d]: must be positive, got %d", i, h)
		}
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("training.batch_size: must be positive, got %d", c.BatchSize)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("training.epochs: must be positive, got %d", c.Epochs)
	}
	if c.LearnRate <= 0 || math.IsNaN(c.LearnRate) {
		return fmt.Errorf("training.learn_rate: must be positive, got %g", c.LearnRate)
	}
	if c.MinEpochs < c.StopWindow || c.StopWindow <= 0 {
		return fmt.Errorf("training.min_epochs (%d) must be at least training.stop_window (%d) > 0", c.MinEpochs, c.StopWindow)
	}
	return nil
}

// History records per-epoch losses. TrainLoss is the running loss of the
// epoch's mini-batches weighted by the samples each batch adds, so the
// wrapped tail of the last batch does not count twice.
type History struct {
	TrainLoss []float64
	ValidLoss []float64
	Stopped   bool // early stopping triggered
}

// network is the training graph.
type network struct {
	g *gorgonia.ExprGraph
	x, y    *gorgonia.Node
	weights []*gorgonia.Node
	biases  []*gorgonia.Node
	cost    *gorgonia.Node
	costVal gorgonia.Value
}

func (n *network) learnables() gorgonia.Nodes {
	var out gorgonia.Nodes
	for i := range n.weights {
		out = append(out, n.weights[i], n.biases[i])
	}
	return out
}

func newNetwork(m *Model, batch int) (*network, error) {
	g := gorgonia.NewGraph()
	n := &network{g: g}
	n.x = gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(batch, m.Dim()), gorgonia.WithName("x"))
	n.y = gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(batch, 1), gorgonia.WithName("y"))

	h := n.x
	for i, l := range m.Layers {
		w := gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(l.In, l.Out), gorgonia.WithName(fmt.Sprintf("w%d", i)),
			gorgonia.WithValue(tensor.New(tensor.WithShape(l.In, l.Out), tensor.WithBacking(append([]float64(nil), l.W...)))))
		b := gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(1, l.Out), gorgonia.WithName(fmt.Sprintf("b%d", i)),
			gorgonia.WithValue(tensor.New(tensor.WithShape(1, l.Out), tensor.WithBacking(append([]float64(nil), l.B...)))))
		n.weights = append(n.weights, w)
		n.biases = append(n.biases, b)

		xw, err := gorgonia.Mul(h, w)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		z, err := gorgonia.BroadcastAdd(xw, b, nil, []byte{0})
		if err != nil {
			return nil, fmt.Errorf("layer %d bias: %w", i, err)
		}
		if i == len(m.Layers)-1 {
			h, err = gorgonia.Sigmoid(z)
		} else {
			h, err = gorgonia.Rectify(z)
		}
		if err != nil {
			return nil, fmt.Errorf("layer %d activation: %w", i, err)
		}
	}

	diff, err := gorgonia.Sub(h, n.y)
	if err != nil {
		return nil, err
	}
	sq, err := gorgonia.Square(diff)
	if err != nil {
		return nil, err
	}
	if n.cost, err = gorgonia.Mean(sq); err != nil {
		return nil, err
	}
	gorgonia.Read(n.cost, &n.costVal)
	if _, err := gorgonia.Grad(n.cost, n.learnables()...); err != nil {
		return nil, fmt.Errorf("building gradients: %w", err)
	}
	return n, nil
}

// extract copies the current graph weights into m.
func (n *network) extract(m *Model) {
	for i := range m.Layers {
		copy(m.Layers[i].W, n.weights[i].Value().Data().([]float64))
		copy(m.Layers[i].B, n.biases[i].Value().Data().([]float64))
	}
}

// initLayers draws weights and biases from U(-1/sqrt(in), 1/sqrt(in)).
func initLayers(dim int, hidden []int, rng *rand.Rand) []Layer {
	sizes := append(append([]int{dim}, hidden...), 1)
	layers := make([]Layer, len(sizes)-1)
	for i := range layers {
		in, out := sizes[i], sizes[i+1]
		bound := 1 / math.Sqrt(float64(in))
		l := Layer{In: in, Out: out, W: make([]float64, in*out), B: make([]float64, out)}
		for k := range l.W {
			l.W[k] = bound * (2*rng.Float64() - 1)
		}
		for k := range l.B {
			l.B[k] = bound * (2*rng.Float64() - 1)
		}
		layers[i] = l
	}
	return layers
}

// Train fits a model on the training partition and stops early once the
// validation loss rises above the mean of the previous StopWindow losses.
// Every epoch draws ceil(n/batch) full mini-batches from a fresh
// permutation; the last batch wraps around to the start of the permutation.
func Train(ctx context.Context, cfg TrainConfig, XTrain [][]float64, byTrain []float64, XValid [][]float64, byValid []float64) (*Model, *History, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if len(XTrain) == 0 || len(XTrain) != len(byTrain) {
		return nil, nil, fmt.Errorf("train: %d inputs for %d targets", len(XTrain), len(byTrain))
	}
	if len(XValid) == 0 || len(XValid) != len(byValid) {
		return nil, nil, fmt.Errorf("train: %d validation inputs for %d targets", len(XValid), len(byValid))
	}

	rngs := sim.NewPartitionedRNG(sim.NewSeedKey(cfg.Seed))
	m := &Model{}
	m.Mean, m.Std = standardization(XTrain)
	m.Layers = initLayers(m.Dim(), cfg.Hidden, rngs.ForSubsystem(sim.SubsystemWeights))
	if err := m.Validate(); err != nil {
		return nil, nil, err
	}

	xs, err := m.inputs(XTrain)
	if err != nil {
		return nil, nil, err
	}
	batch := min(cfg.BatchSize, len(XTrain))
	net, err := newNetwork(m, batch)
	if err != nil {
		return nil, nil, err
	}
	learnables := net.learnables()
	vm := gorgonia.NewTapeMachine(net.g, gorgonia.BindDualValues(learnables...))
	defer vm.Close()
	solver := gorgonia.NewAdamSolver(gorgonia.WithLearnRate(cfg.LearnRate))

	shuffle := rngs.ForSubsystem(sim.SubsystemShuffle)
	d := m.Dim()
	numBatches := (len(XTrain) + batch - 1) / batch
	xBuf := make([]float64, batch*d)
	yBuf := make([]float64, batch)
	hist := &History{}

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		perm := shuffle.Perm(len(XTrain))
		batchLosses := make([]float64, 0, numBatches)
		for b := 0; b < numBatches; b++ {
			for k := 0; k < batch; k++ {
				i := perm[(b*batch+k)%len(perm)]
				for j := 0; j < d; j++ {
					xBuf[k*d+j] = xs.At(i, j)
				}
				yBuf[k] = byTrain[i]
			}
			if err := gorgonia.Let(net.x, tensor.New(tensor.WithShape(batch, d), tensor.WithBacking(xBuf))); err != nil {
				return nil, nil, err
			}
			if err := gorgonia.Let(net.y, tensor.New(tensor.WithShape(batch, 1), tensor.WithBacking(yBuf))); err != nil {
				return nil, nil, err
			}
			if err := vm.RunAll(); err != nil {
				return nil, nil, fmt.Errorf("epoch %d batch %d: %w", epoch, b, err)
			}
			if err := solver.Step(gorgonia.NodesToValueGrads(learnables)); err != nil {
				return nil, nil, fmt.Errorf("epoch %d batch %d: %w", epoch, b, err)
			}
			batchLosses = append(batchLosses, net.costVal.Data().(float64))
			vm.Reset()
		}
		trainLoss := epochLoss(batchLosses, len(XTrain), batch)

		net.extract(m)
		validLoss, err := Loss(m, XValid, byValid)
		if err != nil {
			return nil, nil, err
		}
		hist.TrainLoss = append(hist.TrainLoss, trainLoss)
		hist.ValidLoss = append(hist.ValidLoss, validLoss)
		m.Epochs = epoch
		logrus.Debugf("epoch %d loss_train %.4f loss_valid %.4f", epoch, trainLoss, validLoss)

		if epoch > cfg.MinEpochs {
			prev := hist.ValidLoss[len(hist.ValidLoss)-1-cfg.StopWindow : len(hist.ValidLoss)-1]
			if mean := stat.Mean(prev, nil); mean < validLoss {
				logrus.Infof("stopping after epoch %d: mean_loss_valid %.6f < loss_valid %.6f", epoch, mean, validLoss)
				hist.Stopped = true
				break
			}
		}
	}
	return m, hist, nil
}

// epochLoss averages batch losses over n samples. Every batch but the last
// holds batch new samples; the last holds the remainder.
func epochLoss(batchLosses []float64, n, batch int) float64 {
	var total float64
	for b, loss := range batchLosses {
		total += loss * float64(min(batch, n-b*batch))
	}
	return total / float64(n)
}
