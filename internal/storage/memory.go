package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"copperhorn/internal/model"
)

var errNotInitialized = errors.New("store is not initialized")

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	organisms   map[string]model.OrganismRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.organisms = make(map[string]model.OrganismRecord)
	return nil
}

func (s *MemoryStore) SaveOrganism(_ context.Context, record model.OrganismRecord) error {
	if record.ID == "" {
		return errors.New("organism id is required")
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.organisms[record.ID] = cloneRecord(record)
	return nil
}

func (s *MemoryStore) GetOrganism(_ context.Context, id string) (model.OrganismRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return model.OrganismRecord{}, false, errNotInitialized
	}
	record, ok := s.organisms[id]
	if !ok {
		return model.OrganismRecord{}, false, nil
	}
	return cloneRecord(record), true, nil
}

func (s *MemoryStore) ListOrganisms(_ context.Context) ([]model.OrganismSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, errNotInitialized
	}
	summaries := make([]model.OrganismSummary, 0, len(s.organisms))
	for _, record := range s.organisms {
		summaries = append(summaries, record.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries, nil
}

func (s *MemoryStore) DeleteOrganism(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	delete(s.organisms, id)
	return nil
}
