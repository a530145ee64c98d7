// Package testutil provides shared test fixtures: an in-memory MemoryStore
// and a fluent builder for memory records.
package testutil

import (
	"context"
	"errors"

	"github.com/ledgerline/recall/internal/model"
	"github.com/ledgerline/recall/internal/service"
)

// Store is an in-memory service.MemoryStore. Seeded memories keep their
// insertion order; error fields inject failures per operation.
type Store struct {
	Config  map[string]float64
	Audits  []*service.ThresholdAudit
	Updated []string

	FindVendorErr error
	FindTypeErr   error
	ScanErr       error
	GetConfigErr  error
	SetConfigErr  error
	AuditErr      error

	memories map[string]*model.Memory
	order    []string
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		Config:   make(map[string]float64),
		memories: make(map[string]*model.Memory),
	}
}

// Seed inserts memories, preserving call order for later lookups.
func (s *Store) Seed(memories ...model.Memory) {
	for _, m := range memories {
		copied := m
		if _, ok := s.memories[m.ID]; !ok {
			s.order = append(s.order, m.ID)
		}
		s.memories[m.ID] = &copied
	}
}

// Memory returns the stored record for direct assertions.
func (s *Store) Memory(id string) *model.Memory {
	return s.memories[id]
}

func (s *Store) FindMemoriesByVendor(_ context.Context, vendorID string) ([]model.Memory, error) {
	if s.FindVendorErr != nil {
		return nil, s.FindVendorErr
	}
	var out []model.Memory
	for _, id := range s.order {
		if s.memories[id].Context.VendorID == vendorID {
			out = append(out, *s.memories[id])
		}
	}
	return out, nil
}

func (s *Store) FindMemoriesByType(_ context.Context, memoryType model.MemoryType) ([]model.Memory, error) {
	if s.FindTypeErr != nil {
		return nil, s.FindTypeErr
	}
	var out []model.Memory
	for _, id := range s.order {
		if s.memories[id].Type == memoryType {
			out = append(out, *s.memories[id])
		}
	}
	return out, nil
}

func (s *Store) GetAllMemories(context.Context) ([]model.Memory, error) {
	if s.ScanErr != nil {
		return nil, s.ScanErr
	}
	var out []model.Memory
	for _, id := range s.order {
		out = append(out, *s.memories[id])
	}
	return out, nil
}

func (s *Store) GetMemory(_ context.Context, id string) (*model.Memory, error) {
	m, ok := s.memories[id]
	if !ok {
		return nil, errors.New("memory not found")
	}
	copied := *m
	return &copied, nil
}

func (s *Store) SaveMemory(_ context.Context, m *model.Memory) error {
	s.Seed(*m)
	return nil
}

func (s *Store) UpdateMemoryScores(_ context.Context, m *model.Memory) error {
	if _, ok := s.memories[m.ID]; !ok {
		return errors.New("memory not found")
	}
	copied := *m
	s.memories[m.ID] = &copied
	s.Updated = append(s.Updated, m.ID)
	return nil
}

func (s *Store) GetConfigValue(_ context.Context, key string) (float64, error) {
	if s.GetConfigErr != nil {
		return 0, s.GetConfigErr
	}
	value, ok := s.Config[key]
	if !ok {
		return 0, errors.New("config key not found")
	}
	return value, nil
}

func (s *Store) SetConfigValue(_ context.Context, key string, value float64) error {
	if s.SetConfigErr != nil {
		return s.SetConfigErr
	}
	s.Config[key] = value
	return nil
}

func (s *Store) SaveThresholdAudit(_ context.Context, audit *service.ThresholdAudit) error {
	if s.AuditErr != nil {
		return s.AuditErr
	}
	s.Audits = append(s.Audits, audit)
	return nil
}

func (s *Store) Migrate(context.Context) error { return nil }
func (s *Store) Close() error                  { return nil }
