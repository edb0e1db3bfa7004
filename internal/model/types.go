package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version" yaml:"schema_version"`
	CodecVersion  int `json:"codec_version" yaml:"codec_version"`
}

// OrganismRecord is the persisted shape of an organism: hidden neurons in
// ascending id order followed by the output neurons in output-vector order.
type OrganismRecord struct {
	VersionedRecord `yaml:",inline"`
	ID              string         `json:"id" yaml:"id"`
	Activation      string         `json:"activation" yaml:"activation"`
	Hidden          []NeuronRecord `json:"hidden" yaml:"hidden"`
	Outputs         []NeuronRecord `json:"outputs" yaml:"outputs"`
}

// NeuronRecord stores one neuron. ID is ignored for output neurons.
type NeuronRecord struct {
	ID     uint32         `json:"id,omitempty" yaml:"id,omitempty"`
	Bias   float64        `json:"bias" yaml:"bias"`
	Inputs []InputWeight  `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Hidden []HiddenWeight `json:"hidden,omitempty" yaml:"hidden,omitempty"`
}

type InputWeight struct {
	Index  int     `json:"index" yaml:"index"`
	Weight float64 `json:"weight" yaml:"weight"`
}

type HiddenWeight struct {
	From   uint32  `json:"from" yaml:"from"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// OrganismSummary is a listing entry for stored organisms.
type OrganismSummary struct {
	ID          string `json:"id" yaml:"id"`
	Activation  string `json:"activation" yaml:"activation"`
	HiddenCount int    `json:"hidden_count" yaml:"hidden_count"`
	OutputCount int    `json:"output_count" yaml:"output_count"`
}

func (r OrganismRecord) Summary() OrganismSummary {
	return OrganismSummary{
		ID:          r.ID,
		Activation:  r.Activation,
		HiddenCount: len(r.Hidden),
		OutputCount: len(r.Outputs),
	}
}
