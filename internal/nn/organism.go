package nn

import (
	"maps"
	"slices"

	"copperhorn/internal/model"
)

// NeuronID identifies a hidden neuron within one organism.
type NeuronID uint32

// Signals caches the outputs of hidden neurons fired during a single call.
type Signals map[NeuronID]float64

// Neuron holds a bias and sparse weights from input positions and from other
// hidden neurons. A missing key means there is no connection.
type Neuron struct {
	Bias   float64
	Inputs map[int]float64
	Hidden map[NeuronID]float64
}

// Organism is one network: hidden neurons keyed by id plus output neurons whose
// position is their position in the output vector. Output neurons have no id
// and cannot feed any other neuron.
//
// The hidden connection graph must be acyclic. That is checked lazily by
// Evaluate and Learn, not at construction.
type Organism struct {
	Hidden     map[NeuronID]*Neuron
	Outputs    []*Neuron
	Activation string
}

type OrganismOption func(*Organism)

// WithActivation selects the registered activation applied by every neuron.
func WithActivation(name string) OrganismOption {
	return func(o *Organism) {
		o.Activation = name
	}
}

func NewOrganism(hidden map[NeuronID]*Neuron, outputs []*Neuron, opts ...OrganismOption) *Organism {
	if hidden == nil {
		hidden = make(map[NeuronID]*Neuron)
	}
	o := &Organism{
		Hidden:     hidden,
		Outputs:    outputs,
		Activation: DefaultActivation,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Clone returns a deep copy with identical topology and weights.
func (o *Organism) Clone() *Organism {
	hidden := make(map[NeuronID]*Neuron, len(o.Hidden))
	for id, n := range o.Hidden {
		hidden[id] = n.clone()
	}
	outputs := make([]*Neuron, len(o.Outputs))
	for i, n := range o.Outputs {
		outputs[i] = n.clone()
	}
	return &Organism{Hidden: hidden, Outputs: outputs, Activation: o.Activation}
}

func (n *Neuron) clone() *Neuron {
	if n == nil {
		return nil
	}
	return &Neuron{
		Bias:   n.Bias,
		Inputs: maps.Clone(n.Inputs),
		Hidden: maps.Clone(n.Hidden),
	}
}

// ConnectionCount returns the number of weights across all neurons.
func (o *Organism) ConnectionCount() int {
	total := 0
	for _, n := range o.Hidden {
		total += len(n.Inputs) + len(n.Hidden)
	}
	for _, n := range o.Outputs {
		total += len(n.Inputs) + len(n.Hidden)
	}
	return total
}

// Record converts the organism to its persisted shape. Neurons and weights are
// written in ascending key order so equal organisms encode identically.
func (o *Organism) Record(id string) model.OrganismRecord {
	rec := model.OrganismRecord{
		ID:         id,
		Activation: o.Activation,
		Hidden:     make([]model.NeuronRecord, 0, len(o.Hidden)),
		Outputs:    make([]model.NeuronRecord, 0, len(o.Outputs)),
	}
	for _, nid := range slices.Sorted(maps.Keys(o.Hidden)) {
		nr := neuronRecord(o.Hidden[nid])
		nr.ID = uint32(nid)
		rec.Hidden = append(rec.Hidden, nr)
	}
	for _, n := range o.Outputs {
		rec.Outputs = append(rec.Outputs, neuronRecord(n))
	}
	return rec
}

func neuronRecord(n *Neuron) model.NeuronRecord {
	nr := model.NeuronRecord{Bias: n.Bias}
	for _, idx := range slices.Sorted(maps.Keys(n.Inputs)) {
		nr.Inputs = append(nr.Inputs, model.InputWeight{Index: idx, Weight: n.Inputs[idx]})
	}
	for _, from := range slices.Sorted(maps.Keys(n.Hidden)) {
		nr.Hidden = append(nr.Hidden, model.HiddenWeight{From: uint32(from), Weight: n.Hidden[from]})
	}
	return nr
}

// FromRecord rebuilds an organism from its persisted shape. Like NewOrganism
// it does not validate the topology. A hidden id listed twice keeps the last
// entry.
func FromRecord(rec model.OrganismRecord) *Organism {
	hidden := make(map[NeuronID]*Neuron, len(rec.Hidden))
	for _, nr := range rec.Hidden {
		hidden[NeuronID(nr.ID)] = neuronFromRecord(nr)
	}
	outputs := make([]*Neuron, 0, len(rec.Outputs))
	for _, nr := range rec.Outputs {
		outputs = append(outputs, neuronFromRecord(nr))
	}
	activation := rec.Activation
	if activation == "" {
		activation = DefaultActivation
	}
	return NewOrganism(hidden, outputs, WithActivation(activation))
}

func neuronFromRecord(nr model.NeuronRecord) *Neuron {
	n := &Neuron{
		Bias:   nr.Bias,
		Inputs: make(map[int]float64, len(nr.Inputs)),
		Hidden: make(map[NeuronID]float64, len(nr.Hidden)),
	}
	for _, in := range nr.Inputs {
		n.Inputs[in.Index] = in.Weight
	}
	for _, h := range nr.Hidden {
		n.Hidden[NeuronID(h.From)] = h.Weight
	}
	return n
}
