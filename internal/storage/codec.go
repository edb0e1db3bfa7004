package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"copperhorn/internal/model"

	"gopkg.in/yaml.v3"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Stamp sets the current schema and codec versions on record.
func Stamp(record model.OrganismRecord) model.OrganismRecord {
	record.SchemaVersion = CurrentSchemaVersion
	record.CodecVersion = CurrentCodecVersion
	return record
}

func EncodeOrganism(record model.OrganismRecord) ([]byte, error) {
	return json.Marshal(record)
}

func DecodeOrganism(data []byte) (model.OrganismRecord, error) {
	var record model.OrganismRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.OrganismRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.OrganismRecord{}, err
	}
	return record, nil
}

func EncodeOrganismYAML(record model.OrganismRecord) ([]byte, error) {
	return yaml.Marshal(record)
}

func DecodeOrganismYAML(data []byte) (model.OrganismRecord, error) {
	var record model.OrganismRecord
	if err := yaml.Unmarshal(data, &record); err != nil {
		return model.OrganismRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.OrganismRecord{}, err
	}
	return record, nil
}

// EncodeOrganismAs encodes record in the named format: json or yaml.
func EncodeOrganismAs(format string, record model.OrganismRecord) ([]byte, error) {
	switch format {
	case "", "json":
		return json.MarshalIndent(record, "", "  ")
	case "yaml", "yml":
		return EncodeOrganismYAML(record)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// DecodeOrganismAs decodes data in the named format: json or yaml.
func DecodeOrganismAs(format string, data []byte) (model.OrganismRecord, error) {
	switch format {
	case "", "json":
		return DecodeOrganism(data)
	case "yaml", "yml":
		return DecodeOrganismYAML(data)
	default:
		return model.OrganismRecord{}, fmt.Errorf("unsupported import format: %s", format)
	}
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, v.SchemaVersion, v.CodecVersion)
	}
	return nil
}

func cloneRecord(record model.OrganismRecord) model.OrganismRecord {
	record.Hidden = cloneNeuronRecords(record.Hidden)
	record.Outputs = cloneNeuronRecords(record.Outputs)
	return record
}

func cloneNeuronRecords(neurons []model.NeuronRecord) []model.NeuronRecord {
	if neurons == nil {
		return nil
	}
	out := make([]model.NeuronRecord, len(neurons))
	for i, n := range neurons {
		n.Inputs = append([]model.InputWeight(nil), n.Inputs...)
		n.Hidden = append([]model.HiddenWeight(nil), n.Hidden...)
		out[i] = n
	}
	return out
}
