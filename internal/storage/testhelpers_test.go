package storage

import "copperhorn/internal/model"

func sampleRecord(id string) model.OrganismRecord {
	return Stamp(model.OrganismRecord{
		ID:         id,
		Activation: "tanh",
		Hidden: []model.NeuronRecord{
			{ID: 1, Bias: 0.25, Inputs: []model.InputWeight{{Index: 0, Weight: 0.5}}},
			{ID: 2, Hidden: []model.HiddenWeight{{From: 1, Weight: -1.5}}},
		},
		Outputs: []model.NeuronRecord{
			{Bias: 0.1, Inputs: []model.InputWeight{{Index: 1, Weight: 2}}, Hidden: []model.HiddenWeight{{From: 2, Weight: 0.75}}},
		},
	})
}
