package nn

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
)

const (
	PlasticityNone    = "none"
	PlasticityHebbian = "hebbian"
	PlasticityOja     = "oja"
)

// ErrNonFiniteWeight reports a weight that diverged to NaN or an infinity.
var ErrNonFiniteWeight = errors.New("non-finite weight")

// PlasticityConfig selects the weight update applied after each neuron fires.
// An empty Rule means Oja. SaturationLimit clamps updated weights to
// [-limit, limit]; zero or negative disables clamping.
type PlasticityConfig struct {
	Rule            string
	Rate            float64
	SaturationLimit float64
}

func NormalizePlasticityRuleName(rule string) string {
	switch strings.ToLower(strings.TrimSpace(rule)) {
	case PlasticityNone:
		return PlasticityNone
	case PlasticityHebbian, "hebbian_w":
		return PlasticityHebbian
	case "", PlasticityOja, "ojas", "ojas_w":
		return PlasticityOja
	default:
		return strings.ToLower(strings.TrimSpace(rule))
	}
}

// Learn runs a forward pass and applies Oja's rule to every existing weight of
// each neuron right after it fires:
//
//	w += eta * y * (x - y*w)
//
// where y is the neuron's output in this pass and x the signal the weight
// reads. Biases are not adapted, and weights on out-of-range input indices
// have no signal and are left as they are. Downstream neurons read the cached
// y, not a value recomputed with the new weights.
//
// If the organism cannot be evaluated (a cycle, an unknown hidden reference or
// an unknown activation) Learn returns the error without touching any weight.
func Learn(o *Organism, eta float64, input []float64) error {
	return LearnWith(o, input, PlasticityConfig{Rule: PlasticityOja, Rate: eta})
}

// LearnWith is Learn with a configurable plasticity rule.
func LearnWith(o *Organism, input []float64, cfg PlasticityConfig) error {
	rule := NormalizePlasticityRuleName(cfg.Rule)
	if err := validatePlasticityRule(rule, cfg.Rule); err != nil {
		return err
	}

	var update func(w, x, y float64) float64
	switch rule {
	case PlasticityOja:
		update = func(w, x, y float64) float64 { return w + cfg.Rate*y*(x-y*w) }
	case PlasticityHebbian:
		update = func(w, x, y float64) float64 { return w + cfg.Rate*x*y }
	}
	if update != nil && cfg.SaturationLimit > 0 {
		rawUpdate := update
		update = func(w, x, y float64) float64 {
			return SaturationWithSpread(rawUpdate(w, x, y), cfg.SaturationLimit)
		}
	}

	var after afterFire
	if update != nil {
		after = func(n *Neuron, keys connectionKeys, y float64, signals Signals) {
			adaptWeights(n, keys, y, signals, input, update)
		}
	}
	_, err := forward(o, input, after)
	return err
}

func adaptWeights(n *Neuron, keys connectionKeys, y float64, signals Signals, input []float64, update func(w, x, y float64) float64) {
	for _, idx := range keys.inputs {
		if idx < 0 || idx >= len(input) {
			continue
		}
		n.Inputs[idx] = update(n.Inputs[idx], input[idx], y)
	}
	for _, id := range keys.hidden {
		n.Hidden[id] = update(n.Hidden[id], signals[id], y)
	}
}

func validatePlasticityRule(rule, original string) error {
	switch rule {
	case PlasticityNone, PlasticityHebbian, PlasticityOja:
		return nil
	default:
		return fmt.Errorf("unsupported plasticity rule: %s", original)
	}
}

// CheckWeights returns ErrNonFiniteWeight, naming the neuron, for the first
// NaN or infinite weight. Hidden neurons are checked in ascending id order,
// then outputs.
func CheckWeights(o *Organism) error {
	for _, id := range slices.Sorted(maps.Keys(o.Hidden)) {
		if err := checkNeuronWeights(o.Hidden[id]); err != nil {
			return fmt.Errorf("%w: hidden %d %s", ErrNonFiniteWeight, id, err)
		}
	}
	for i, n := range o.Outputs {
		if err := checkNeuronWeights(n); err != nil {
			return fmt.Errorf("%w: output %d %s", ErrNonFiniteWeight, i, err)
		}
	}
	return nil
}

func checkNeuronWeights(n *Neuron) error {
	if n == nil {
		return nil
	}
	for _, idx := range slices.Sorted(maps.Keys(n.Inputs)) {
		if w := n.Inputs[idx]; math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("input %d weight %v", idx, w)
		}
	}
	for _, from := range slices.Sorted(maps.Keys(n.Hidden)) {
		if w := n.Hidden[from]; math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("hidden %d weight %v", from, w)
		}
	}
	return nil
}
