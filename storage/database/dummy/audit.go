package dummydb

import (
	"github.com/google/uuid"

	"github.com/trezcool/tutorhub/core/audit"
)

type auditRepository struct {
	db *auditTable
}

var _ audit.Repository = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(db *DB) audit.Repository {
	return &auditRepository{db: db.audit}
}

func (repo *auditRepository) AppendEntry(entry audit.Entry) (audit.Entry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	entry.ID = uuid.New().String()
	repo.db.entries = append(repo.db.entries, entry)
	return entry, nil
}

func (repo *auditRepository) FilterEntries(filter audit.QueryFilter) ([]audit.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	entries := make([]audit.Entry, 0, len(repo.db.entries))
	// newest first
	for i := len(repo.db.entries) - 1; i >= 0; i-- {
		entry := repo.db.entries[i]
		if filter.Entity != "" && entry.Entity != filter.Entity {
			continue
		}
		if filter.EntityID != "" && entry.EntityID != filter.EntityID {
			continue
		}
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		if filter.ActorID != "" && entry.ActorID.String != filter.ActorID {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
