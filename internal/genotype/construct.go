package genotype

import (
	"fmt"
	"math/rand"
	"time"

	"copperhorn/internal/nn"
)

// Construct builds a fresh organism with no hidden neurons and one output
// neuron per output slot. Each output neuron reads from a random nonempty
// subset of the input positions; weights and biases are drawn uniformly from
// [-0.5, 0.5). The same seed always yields the same organism.
func Construct(inputs, outputs int, rng *rand.Rand, opts ...nn.OrganismOption) (*nn.Organism, error) {
	if outputs <= 0 {
		return nil, fmt.Errorf("output width must be positive: %d", outputs)
	}
	rng = ensureRNG(rng)

	neurons := make([]*nn.Neuron, 0, outputs)
	for i := 0; i < outputs; i++ {
		n, err := ConstructOutputNeuron(inputs, rng)
		if err != nil {
			return nil, err
		}
		neurons = append(neurons, n)
	}
	return nn.NewOrganism(nil, neurons, opts...), nil
}

// ConstructOutputNeuron wires a neuron to between 1 and inputs distinct input
// positions.
func ConstructOutputNeuron(inputs int, rng *rand.Rand) (*nn.Neuron, error) {
	if inputs <= 0 {
		return nil, fmt.Errorf("input width must be positive: %d", inputs)
	}
	rng = ensureRNG(rng)
	fanIn := 1 + rng.Intn(inputs)
	weights := make(map[int]float64, fanIn)
	for _, idx := range RandomSubset(rng, inputs, fanIn) {
		weights[idx] = randomCentered(rng)
	}
	return &nn.Neuron{
		Bias:   randomCentered(rng),
		Inputs: weights,
		Hidden: make(map[nn.NeuronID]float64),
	}, nil
}

func ensureRNG(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func randomCentered(rng *rand.Rand) float64 {
	return rng.Float64() - 0.5
}
