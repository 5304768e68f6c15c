package dummydb

import (
	"github.com/google/uuid"

	"github.com/trezcool/tutorhub/core/relation"
)

type relationRepository struct {
	db *relationTable
}

var _ relation.Repository = (*relationRepository)(nil) // interface compliance check

func NewRelationRepository(db *DB) relation.Repository {
	return &relationRepository{db: db.relation}
}

func (repo *relationRepository) CreateRelationship(rel relation.Relationship) (relation.Relationship, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	rel.ID = uuid.New().String()
	repo.db.table[rel.ID] = &rel
	return rel, nil
}

func (repo *relationRepository) GetRelationshipByID(id string) (relation.Relationship, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rel, ok := repo.db.table[id]; ok {
		return *rel, nil
	}
	return relation.Relationship{}, relation.ErrNotFound
}

func (repo *relationRepository) FilterRelationships(filter relation.QueryFilter) ([]relation.Relationship, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rels := make([]relation.Relationship, 0, len(repo.db.table))
	for _, rel := range repo.db.table {
		if filter.Type != "" && rel.Type != filter.Type {
			continue
		}
		if filter.AUserID != "" && rel.AUserID != filter.AUserID {
			continue
		}
		if filter.BUserID != "" && rel.BUserID != filter.BUserID {
			continue
		}
		if filter.Consent != nil && rel.Consent != *filter.Consent {
			continue
		}
		rels = append(rels, *rel)
	}
	return rels, nil
}

func (repo *relationRepository) UpdateConsent(id string, consent bool) (relation.Relationship, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	rel, ok := repo.db.table[id]
	if !ok {
		return relation.Relationship{}, relation.ErrNotFound
	}
	rel.Consent = consent
	return *rel, nil
}
