package dummydb

import (
	"github.com/google/uuid"

	"github.com/trezcool/tutorhub/core/policy"
)

type policyRepository struct {
	db *policyTable
}

var _ policy.Repository = (*policyRepository)(nil) // interface compliance check

func NewPolicyRepository(db *DB) policy.Repository {
	return &policyRepository{db: db.policy}
}

func (repo *policyRepository) CreatePolicy(pol policy.Policy) (policy.Policy, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	pol.ID = uuid.New().String()
	repo.db.table[pol.ID] = &pol
	return pol, nil
}

func (repo *policyRepository) LatestPolicy() (policy.Policy, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var latest *policy.Policy
	for _, pol := range repo.db.table {
		if latest == nil || pol.EffectiveFrom.After(latest.EffectiveFrom) {
			latest = pol
		}
	}
	if latest == nil {
		return policy.Policy{}, policy.ErrNoPolicy
	}
	return *latest, nil
}
