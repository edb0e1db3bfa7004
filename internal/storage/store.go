package storage

import (
	"context"

	"copperhorn/internal/model"
)

// Store persists organism records.
type Store interface {
	Init(ctx context.Context) error
	SaveOrganism(ctx context.Context, record model.OrganismRecord) error
	GetOrganism(ctx context.Context, id string) (model.OrganismRecord, bool, error)
	ListOrganisms(ctx context.Context) ([]model.OrganismSummary, error)
	DeleteOrganism(ctx context.Context, id string) error
}
