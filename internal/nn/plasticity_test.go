package nn

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestLearnOjaSingleStep(t *testing.T) {
	o := NewOrganism(nil, []*Neuron{
		{Bias: 0, Inputs: map[int]float64{0: 0.5}},
	})

	if err := Learn(o, 0.1, []float64{2}); err != nil {
		t.Fatalf("learn: %v", err)
	}
	// y = 2*0.5 = 1; w += 0.1 * 1 * (2 - 1*0.5) = 0.65
	if got := o.Outputs[0].Inputs[0]; math.Abs(got-0.65) > 1e-12 {
		t.Fatalf("unexpected weight after oja: got=%f want=0.65", got)
	}
}

func TestLearnConvergesToUnitWeight(t *testing.T) {
	o := NewOrganism(nil, []*Neuron{
		{Inputs: map[int]float64{0: 0.5}},
	})
	x := 2.0
	eta := 0.05

	prev := o.Outputs[0].Inputs[0]
	for i := 0; i < 200; i++ {
		if err := Learn(o, eta, []float64{x}); err != nil {
			t.Fatalf("learn step %d: %v", i, err)
		}
		w := o.Outputs[0].Inputs[0]
		if w < prev-1e-12 {
			t.Fatalf("step %d: weight moved away from equilibrium: %f -> %f", i, prev, w)
		}
		prev = w
	}

	out, err := Evaluate(o, []float64{x})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if math.Abs(out[0]-x) > 1e-9 {
		t.Fatalf("expected w*x to converge to x: got=%f want=%f", out[0], x)
	}
}

func TestLearnUsesCachedPreUpdateSignal(t *testing.T) {
	o := NewOrganism(
		map[NeuronID]*Neuron{
			1: {Inputs: map[int]float64{0: 0.5}},
		},
		[]*Neuron{
			{Hidden: map[NeuronID]float64{1: 2}},
		},
	)

	if err := Learn(o, 0.01, []float64{2}); err != nil {
		t.Fatalf("learn: %v", err)
	}
	// hidden: y=1, w = 0.5 + 0.01*1*(2 - 0.5) = 0.515
	if got := o.Hidden[1].Inputs[0]; math.Abs(got-0.515) > 1e-12 {
		t.Fatalf("unexpected hidden weight: got=%f want=0.515", got)
	}
	// output reads the cached y=1, so y=2 and w = 2 + 0.01*2*(1 - 2*2) = 1.94
	if got := o.Outputs[0].Hidden[1]; math.Abs(got-1.94) > 1e-12 {
		t.Fatalf("unexpected output weight: got=%f want=1.94", got)
	}
}

func TestLearnLeavesBiasAndStructureUntouched(t *testing.T) {
	o := NewOrganism(
		map[NeuronID]*Neuron{
			1: {Bias: 0.3, Inputs: map[int]float64{0: 0.2, 9: 0.7}},
		},
		[]*Neuron{
			{Bias: -0.1, Inputs: map[int]float64{1: 0.4}, Hidden: map[NeuronID]float64{1: 0.6}},
		},
		WithActivation("tanh"),
	)

	for i := 0; i < 10; i++ {
		if err := Learn(o, 0.2, []float64{1, -1}); err != nil {
			t.Fatalf("learn: %v", err)
		}
	}
	if o.Hidden[1].Bias != 0.3 || o.Outputs[0].Bias != -0.1 {
		t.Fatalf("bias must not be adapted: hidden=%f output=%f", o.Hidden[1].Bias, o.Outputs[0].Bias)
	}
	if o.Hidden[1].Inputs[9] != 0.7 {
		t.Fatalf("out-of-range input weight must stay as is: %f", o.Hidden[1].Inputs[9])
	}
	if len(o.Hidden[1].Inputs) != 2 || len(o.Hidden[1].Hidden) != 0 {
		t.Fatalf("hidden connections changed: %+v", o.Hidden[1])
	}
	if len(o.Outputs[0].Inputs) != 1 || len(o.Outputs[0].Hidden) != 1 {
		t.Fatalf("output connections changed: %+v", o.Outputs[0])
	}
	if _, ok := o.Outputs[0].Inputs[0]; ok {
		t.Fatal("learn must not create connections")
	}
}

func TestLearnRejectsCycleWithoutMutation(t *testing.T) {
	o := NewOrganism(
		map[NeuronID]*Neuron{
			1: {Inputs: map[int]float64{0: 0.5}, Hidden: map[NeuronID]float64{2: 1}},
			2: {Inputs: map[int]float64{0: 0.25}, Hidden: map[NeuronID]float64{1: 1}},
		},
		[]*Neuron{
			{Inputs: map[int]float64{0: 0.75}},
		},
	)
	before := o.Clone()

	err := Learn(o, 0.5, []float64{1})
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got: %v", err)
	}
	if !reflect.DeepEqual(before.Record("x"), o.Record("x")) {
		t.Fatalf("learn mutated a cyclic organism:\nbefore=%+v\nafter=%+v", before.Record("x"), o.Record("x"))
	}
}

func TestLearnRejectsUnknownActivationWithoutMutation(t *testing.T) {
	o := NewOrganism(nil, []*Neuron{{Inputs: map[int]float64{0: 0.5}}}, WithActivation("missing"))
	if err := Learn(o, 0.5, []float64{1}); !errors.Is(err, ErrActivationNotFound) {
		t.Fatalf("expected ErrActivationNotFound, got: %v", err)
	}
	if o.Outputs[0].Inputs[0] != 0.5 {
		t.Fatalf("weight changed on failed learn: %f", o.Outputs[0].Inputs[0])
	}
}

func TestLearnWithHebbian(t *testing.T) {
	o := NewOrganism(nil, []*Neuron{{Inputs: map[int]float64{0: 1.0}}})
	err := LearnWith(o, []float64{2}, PlasticityConfig{Rule: PlasticityHebbian, Rate: 0.1})
	if err != nil {
		t.Fatalf("learn hebbian: %v", err)
	}
	// y = 2; w += 0.1 * 2 * 2 = 1.4
	if got := o.Outputs[0].Inputs[0]; math.Abs(got-1.4) > 1e-12 {
		t.Fatalf("unexpected weight after hebbian: %f", got)
	}
}

func TestLearnWithSaturationLimit(t *testing.T) {
	o := NewOrganism(nil, []*Neuron{{Inputs: map[int]float64{0: 1.0}}})
	err := LearnWith(o, []float64{10}, PlasticityConfig{Rule: "hebbian_w", Rate: 1, SaturationLimit: 3})
	if err != nil {
		t.Fatalf("learn: %v", err)
	}
	if got := o.Outputs[0].Inputs[0]; got != 3 {
		t.Fatalf("expected clamped weight 3, got %f", got)
	}
}

func TestLearnWithNoneKeepsWeights(t *testing.T) {
	o := NewOrganism(nil, []*Neuron{{Inputs: map[int]float64{0: 1.0}}})
	if err := LearnWith(o, []float64{10}, PlasticityConfig{Rule: PlasticityNone, Rate: 1}); err != nil {
		t.Fatalf("learn: %v", err)
	}
	if got := o.Outputs[0].Inputs[0]; got != 1 {
		t.Fatalf("unexpected weight: %f", got)
	}
}

func TestLearnWithValidation(t *testing.T) {
	o := NewOrganism(nil, []*Neuron{{Inputs: map[int]float64{0: 1.0}}})
	if err := LearnWith(o, []float64{1}, PlasticityConfig{Rule: "bad", Rate: 0.1}); err == nil {
		t.Fatal("expected unsupported rule error")
	}
	if o.Outputs[0].Inputs[0] != 1 {
		t.Fatal("weights changed on invalid rule")
	}
}

func TestNormalizePlasticityRuleName(t *testing.T) {
	cases := map[string]string{
		"":          "oja",
		"none":      "none",
		"hebbian":   "hebbian",
		"hebbian_w": "hebbian",
		"oja":       "oja",
		" OJAS ":    "oja",
		"ojas_w":    "oja",
		"custom":    "custom",
	}
	for in, want := range cases {
		if got := NormalizePlasticityRuleName(in); got != want {
			t.Fatalf("NormalizePlasticityRuleName(%q)=%q want=%q", in, got, want)
		}
	}
}

func TestLearnRejectsUnknownOutputReferenceWithoutMutation(t *testing.T) {
	o := NewOrganism(
		map[NeuronID]*Neuron{1: {Inputs: map[int]float64{0: 0.5}}},
		[]*Neuron{{Hidden: map[NeuronID]float64{2: 1}}},
	)
	if err := Learn(o, 0.5, []float64{1}); !errors.Is(err, ErrUnknownNeuron) {
		t.Fatalf("expected ErrUnknownNeuron, got: %v", err)
	}
	if o.Hidden[1].Inputs[0] != 0.5 {
		t.Fatalf("hidden weight changed on failed learn: %f", o.Hidden[1].Inputs[0])
	}
}

func TestLearnWithNoneAndSaturationLimit(t *testing.T) {
	o := NewOrganism(
		map[NeuronID]*Neuron{1: {Inputs: map[int]float64{0: 4}}},
		[]*Neuron{{Hidden: map[NeuronID]float64{1: -7}}},
	)
	err := LearnWith(o, []float64{2}, PlasticityConfig{Rule: PlasticityNone, Rate: 0.1, SaturationLimit: 1})
	if err != nil {
		t.Fatalf("learn: %v", err)
	}
	// none leaves weights alone, even ones beyond the clamp.
	if o.Hidden[1].Inputs[0] != 4 || o.Outputs[0].Hidden[1] != -7 {
		t.Fatalf("unexpected weights: hidden=%+v output=%+v", o.Hidden[1], o.Outputs[0])
	}
}

func TestCheckWeights(t *testing.T) {
	o := NewOrganism(
		map[NeuronID]*Neuron{1: {Inputs: map[int]float64{0: 1}}},
		[]*Neuron{{Hidden: map[NeuronID]float64{1: 1}}},
	)
	if err := CheckWeights(o); err != nil {
		t.Fatalf("finite weights: %v", err)
	}

	o.Outputs[0].Hidden[1] = math.Inf(1)
	if err := CheckWeights(o); !errors.Is(err, ErrNonFiniteWeight) {
		t.Fatalf("expected ErrNonFiniteWeight, got: %v", err)
	}

	o.Outputs[0].Hidden[1] = 1
	o.Hidden[1].Inputs[0] = math.NaN()
	if err := CheckWeights(o); !errors.Is(err, ErrNonFiniteWeight) {
		t.Fatalf("expected ErrNonFiniteWeight for NaN, got: %v", err)
	}
}

func TestLearnRejectsNilNeuronWithoutMutation(t *testing.T) {
	o := NewOrganism(
		map[NeuronID]*Neuron{1: {Inputs: map[int]float64{0: 0.5}}},
		[]*Neuron{{Hidden: map[NeuronID]float64{1: 1}}, nil},
	)
	if err := Learn(o, 0.5, []float64{1}); !errors.Is(err, ErrNilNeuron) {
		t.Fatalf("expected ErrNilNeuron, got: %v", err)
	}
	if o.Hidden[1].Inputs[0] != 0.5 || o.Outputs[0].Hidden[1] != 1 {
		t.Fatalf("weights changed on failed learn: hidden=%+v output=%+v", o.Hidden[1], o.Outputs[0])
	}
}
