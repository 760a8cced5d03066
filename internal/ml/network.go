// Package ml implements the eligibility classifier: a small feed-forward
// binary network trained in-process on rule-labeled examples, plus named
// persistence for the resulting weights.
package ml

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog/log"
)

// Network layer widths. The input layer matches the normalized feature
// vector; the output is a single logistic unit interpreted as probability of
// eligibility.
const (
	InputSize   = 9
	hidden1Size = 64
	hidden2Size = 32
)

// Example is one training pair: a normalized feature vector and a {0,1}
// label. Examples are ephemeral; only the trained network is persisted.
type Example struct {
	Features []float64
	Label    float64
}

// TrainConfig carries the training hyperparameters.
type TrainConfig struct {
	Epochs       int
	BatchSize    int
	LearningRate float64
	Seed         int64
}

// DefaultTrainConfig is the production training setup: 5 epochs of
// mini-batch Adam at lr 0.001 with batches of 64.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{Epochs: 5, BatchSize: 64, LearningRate: 0.001}
}

// Network is a 9-64-32-1 feed-forward classifier with ReLU hidden
// activations and a sigmoid output. Once trained it is immutable: Predict
// never mutates parameters, so concurrent reads need no locking.
type Network struct {
	W1 [][]float64 `json:"w1"` // [hidden1][input]
	B1 []float64   `json:"b1"`
	W2 [][]float64 `json:"w2"` // [hidden2][hidden1]
	B2 []float64   `json:"b2"`
	W3 []float64   `json:"w3"` // [hidden2]
	B3 float64     `json:"b3"`

	Trained bool `json:"trained"`

	// FinalLoss records the average loss of the last training epoch, kept
	// alongside the weights the way model version metadata is.
	FinalLoss float64 `json:"final_loss"`
}

func newNetwork(rng *rand.Rand) *Network {
	n := &Network{
		W1: make([][]float64, hidden1Size),
		B1: make([]float64, hidden1Size),
		W2: make([][]float64, hidden2Size),
		B2: make([]float64, hidden2Size),
		W3: make([]float64, hidden2Size),
	}
	// He initialization for the ReLU layers, Xavier for the output.
	for i := range n.W1 {
		n.W1[i] = make([]float64, InputSize)
		for j := range n.W1[i] {
			n.W1[i][j] = rng.NormFloat64() * math.Sqrt(2.0/InputSize)
		}
	}
	for i := range n.W2 {
		n.W2[i] = make([]float64, hidden1Size)
		for j := range n.W2[i] {
			n.W2[i][j] = rng.NormFloat64() * math.Sqrt(2.0/hidden1Size)
		}
	}
	for i := range n.W3 {
		n.W3[i] = rng.NormFloat64() * math.Sqrt(1.0/hidden2Size)
	}
	return n
}

// Predict runs a single forward pass and returns the eligibility probability,
// strictly within (0,1) for any finite input vector.
func (n *Network) Predict(features []float64) float64 {
	_, _, out := n.forward(features)
	return out
}

func (n *Network) forward(x []float64) (h1, h2 []float64, out float64) {
	h1 = make([]float64, hidden1Size)
	for i := range h1 {
		s := n.B1[i]
		for j, v := range x {
			s += n.W1[i][j] * v
		}
		h1[i] = relu(s)
	}
	h2 = make([]float64, hidden2Size)
	for i := range h2 {
		s := n.B2[i]
		for j, v := range h1 {
			s += n.W2[i][j] * v
		}
		h2[i] = relu(s)
	}
	z := n.B3
	for i, v := range h2 {
		z += n.W3[i] * v
	}
	return h1, h2, sigmoid(z)
}

// Train fits a fresh network on the given examples with mini-batch Adam
// minimizing binary cross-entropy. Batches are reshuffled each epoch and the
// per-epoch average loss is logged as a diagnostic. Runs are deterministic
// only up to cfg.Seed.
func Train(examples []Example, cfg TrainConfig) (*Network, error) {
	if len(examples) == 0 {
		return nil, fmt.Errorf("ml: no training examples")
	}
	for i, ex := range examples {
		if len(ex.Features) != InputSize {
			return nil, fmt.Errorf("ml: example %d has %d features, want %d", i, len(ex.Features), InputSize)
		}
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = 5
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.001
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	n := newNetwork(rng)
	opt := newAdam(cfg.LearningRate)

	order := make([]int, len(examples))
	for i := range order {
		order[i] = i
	}

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		var totalLoss float64
		batches := 0
		for start := 0; start < len(order); start += cfg.BatchSize {
			end := start + cfg.BatchSize
			if end > len(order) {
				end = len(order)
			}
			totalLoss += n.trainBatch(examples, order[start:end], opt)
			batches++
		}

		n.FinalLoss = totalLoss / float64(batches)
		log.Info().
			Int("epoch", epoch).
			Int("epochs", cfg.Epochs).
			Float64("loss", n.FinalLoss).
			Msg("training epoch complete")
	}

	n.Trained = true
	return n, nil
}

// trainBatch accumulates gradients over one mini-batch and applies a single
// Adam step. Returns the mean BCE loss over the batch.
func (n *Network) trainBatch(examples []Example, idx []int, opt *adam) float64 {
	g := newGradients()
	var loss float64

	for _, i := range idx {
		x := examples[i].Features
		y := examples[i].Label

		h1, h2, p := n.forward(x)
		loss += bce(p, y)

		// dL/dz for sigmoid + BCE collapses to (p - y).
		dz := p - y

		dh2 := make([]float64, hidden2Size)
		for j := range n.W3 {
			g.w3[j] += dz * h2[j]
			dh2[j] = dz * n.W3[j]
		}
		g.b3 += dz

		dh1 := make([]float64, hidden1Size)
		for j := 0; j < hidden2Size; j++ {
			if h2[j] <= 0 {
				continue
			}
			d := dh2[j]
			g.b2[j] += d
			for k := 0; k < hidden1Size; k++ {
				g.w2[j][k] += d * h1[k]
				dh1[k] += d * n.W2[j][k]
			}
		}

		for j := 0; j < hidden1Size; j++ {
			if h1[j] <= 0 {
				continue
			}
			d := dh1[j]
			g.b1[j] += d
			for k := 0; k < InputSize; k++ {
				g.w1[j][k] += d * x[k]
			}
		}
	}

	g.scale(1 / float64(len(idx)))
	opt.step(n, g)
	return loss / float64(len(idx))
}

func relu(x float64) float64 {
	if x < 0 {
		return 0
	}
	return x
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// bce computes binary cross-entropy with the prediction nudged away from the
// exact 0/1 poles to keep the log finite.
func bce(p, y float64) float64 {
	const eps = 1e-12
	if p < eps {
		p = eps
	} else if p > 1-eps {
		p = 1 - eps
	}
	return -(y*math.Log(p) + (1-y)*math.Log(1-p))
}
