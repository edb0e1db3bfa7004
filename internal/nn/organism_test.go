package nn

import (
	"reflect"
	"testing"

	"copperhorn/internal/model"
)

func TestRecordRoundTripPreservesOutputs(t *testing.T) {
	o := NewOrganism(
		map[NeuronID]*Neuron{
			4: {Bias: 0.2, Inputs: map[int]float64{1: 0.5, 0: -0.25}},
			2: {Inputs: map[int]float64{0: 1}, Hidden: map[NeuronID]float64{4: 0.75}},
		},
		[]*Neuron{
			{Bias: 0.1, Hidden: map[NeuronID]float64{2: 1.5, 4: -1}},
			{Inputs: map[int]float64{1: 2}},
		},
		WithActivation("tanh"),
	)

	rec := o.Record("org-1")
	if rec.ID != "org-1" || rec.Activation != "tanh" {
		t.Fatalf("unexpected record header: %+v", rec)
	}
	if len(rec.Hidden) != 2 || rec.Hidden[0].ID != 2 || rec.Hidden[1].ID != 4 {
		t.Fatalf("expected hidden neurons in ascending id order: %+v", rec.Hidden)
	}
	if rec.Hidden[1].Inputs[0].Index != 0 || rec.Hidden[1].Inputs[1].Index != 1 {
		t.Fatalf("expected input weights in ascending index order: %+v", rec.Hidden[1].Inputs)
	}

	restored := FromRecord(rec)
	input := []float64{0.3, -0.6}
	want, err := Evaluate(o, input)
	if err != nil {
		t.Fatalf("evaluate original: %v", err)
	}
	got, err := Evaluate(restored, input)
	if err != nil {
		t.Fatalf("evaluate restored: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("restored organism differs: got=%v want=%v", got, want)
	}
	if !reflect.DeepEqual(rec, restored.Record("org-1")) {
		t.Fatal("record of restored organism differs from original record")
	}
}

func TestFromRecordDefaultsActivation(t *testing.T) {
	o := FromRecord(model.OrganismRecord{Outputs: []model.NeuronRecord{{Bias: 1}}})
	if o.Activation != DefaultActivation {
		t.Fatalf("unexpected activation: %q", o.Activation)
	}
	if len(o.Hidden) != 0 || len(o.Outputs) != 1 {
		t.Fatalf("unexpected organism: %+v", o)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	o := NewOrganism(
		map[NeuronID]*Neuron{1: {Inputs: map[int]float64{0: 0.5}}},
		[]*Neuron{{Hidden: map[NeuronID]float64{1: 1}}},
	)
	c := o.Clone()
	if err := Learn(c, 0.5, []float64{1}); err != nil {
		t.Fatalf("learn clone: %v", err)
	}
	if o.Hidden[1].Inputs[0] != 0.5 || o.Outputs[0].Hidden[1] != 1 {
		t.Fatalf("learning on clone changed original: %+v %+v", o.Hidden[1], o.Outputs[0])
	}
	if c.Hidden[1].Inputs[0] == 0.5 {
		t.Fatal("expected clone weights to change")
	}
}

func TestConnectionCount(t *testing.T) {
	o := NewOrganism(
		map[NeuronID]*Neuron{1: {Inputs: map[int]float64{0: 0.5, 1: 1}}},
		[]*Neuron{{Hidden: map[NeuronID]float64{1: 1}, Inputs: map[int]float64{2: 1}}},
	)
	if got := o.ConnectionCount(); got != 4 {
		t.Fatalf("unexpected connection count: %d", got)
	}
}
