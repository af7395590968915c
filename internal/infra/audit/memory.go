// Package audit stores the backoffice audit trail, in memory or in
// Postgres.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
)

// DefaultLimit caps listings that do not set AuditFilter.Limit.
const DefaultLimit = 100

// Memory is an in-memory audit log.
type Memory struct {
	mu      sync.RWMutex
	entries []domain.AuditEntry
}

// NewMemory creates an empty in-memory audit log.
func NewMemory() *Memory {
	return &Memory{}
}

// Record appends entry, assigning an ID and timestamp when missing.
func (m *Memory) Record(_ context.Context, entry domain.AuditEntry) error {
	prepare(&entry)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

// List returns matching entries, newest first.
func (m *Memory) List(_ context.Context, f domain.AuditFilter) ([]domain.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	out := []domain.AuditEntry{}
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if e := m.entries[i]; matches(e, f) {
			out = append(out, e)
		}
	}
	return out, nil
}

func matches(e domain.AuditEntry, f domain.AuditFilter) bool {
	switch {
	case f.CompanyID != "" && e.CompanyID != f.CompanyID:
		return false
	case f.ActorID != "" && e.ActorID != f.ActorID:
		return false
	case f.Action != "" && e.Action != f.Action:
		return false
	case f.From != nil && e.CreatedAt.Before(*f.From):
		return false
	case f.To != nil && e.CreatedAt.After(*f.To):
		return false
	}
	return true
}

func prepare(e *domain.AuditEntry) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
}
