package nn

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var errOrganismRequired = errors.New("organism is required")

// connectionKeys holds a neuron's connection keys in ascending order. One pass
// sorts them once per neuron and shares them between firing and learning.
type connectionKeys struct {
	inputs []int
	hidden []NeuronID
}

func sortedKeys(n *Neuron) connectionKeys {
	return connectionKeys{
		inputs: slices.Sorted(maps.Keys(n.Inputs)),
		hidden: slices.Sorted(maps.Keys(n.Hidden)),
	}
}

// Fire computes a neuron's output: bias plus the weighted in-range inputs plus
// the weighted cached hidden signals, passed through act. Input indices outside
// input contribute nothing. Terms are summed in ascending key order.
//
// Every hidden neuron n reads from must already be in signals; a missing
// signal means the caller fired out of order and Fire panics.
func Fire(n *Neuron, signals Signals, input []float64, act ActivationFunc) float64 {
	return fire(n, sortedKeys(n), signals, input, act)
}

func fire(n *Neuron, keys connectionKeys, signals Signals, input []float64, act ActivationFunc) float64 {
	total := n.Bias
	for _, idx := range keys.inputs {
		if idx < 0 || idx >= len(input) {
			continue
		}
		total += input[idx] * n.Inputs[idx]
	}
	for _, id := range keys.hidden {
		y, ok := signals[id]
		if !ok {
			panic(fmt.Sprintf("nn: signal for hidden neuron %d requested before it fired", id))
		}
		total += y * n.Hidden[id]
	}
	if act == nil {
		return total
	}
	return act(total)
}

// Evaluate runs one forward pass and returns one value per output neuron, in
// output order. It does not modify the organism.
func Evaluate(o *Organism, input []float64) ([]float64, error) {
	return forward(o, input, nil)
}

// afterFire is called with each neuron right after it fires and its signal,
// if it has one, is cached.
type afterFire func(n *Neuron, keys connectionKeys, y float64, signals Signals)

// prepare resolves the activation and hidden order and checks every reference,
// so a pass that gets past it cannot fail halfway.
func prepare(o *Organism) (ActivationFunc, []NeuronID, error) {
	if o == nil {
		return nil, nil, errOrganismRequired
	}
	if err := checkNeurons(o.Hidden, o.Outputs); err != nil {
		return nil, nil, err
	}
	act, err := GetActivation(o.Activation)
	if err != nil {
		return nil, nil, err
	}
	order, err := TopologicalOrder(o.Hidden)
	if err != nil {
		return nil, nil, err
	}
	if err := checkOutputs(o.Hidden, o.Outputs); err != nil {
		return nil, nil, err
	}
	return act, order, nil
}

func forward(o *Organism, input []float64, after afterFire) ([]float64, error) {
	act, order, err := prepare(o)
	if err != nil {
		return nil, err
	}

	signals := make(Signals, len(order))
	for _, id := range order {
		n := o.Hidden[id]
		keys := sortedKeys(n)
		y := fire(n, keys, signals, input, act)
		signals[id] = y
		if after != nil {
			after(n, keys, y, signals)
		}
	}

	outputs := make([]float64, len(o.Outputs))
	for i, n := range o.Outputs {
		keys := sortedKeys(n)
		y := fire(n, keys, signals, input, act)
		outputs[i] = y
		if after != nil {
			after(n, keys, y, signals)
		}
	}
	return outputs, nil
}
