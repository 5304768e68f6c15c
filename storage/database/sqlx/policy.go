package sqlxrepos

import (
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/tutorhub/core/policy"
)

type policyRepository struct {
	db *sqlx.DB
}

var _ policy.Repository = (*policyRepository)(nil) // interface compliance check

func NewPolicyRepository(db *sqlx.DB) policy.Repository {
	return &policyRepository{db: db}
}

type policyRow struct {
	ID            string    `db:"id"`
	Rules         []byte    `db:"rules"`
	EffectiveFrom time.Time `db:"effective_from"`
	CreatedAt     time.Time `db:"created_at"`
}

func (row policyRow) model() (policy.Policy, error) {
	pol := policy.Policy{
		ID:            row.ID,
		EffectiveFrom: row.EffectiveFrom,
		CreatedAt:     row.CreatedAt,
	}
	if err := unmarshal(row.Rules, &pol.Rules); err != nil {
		return policy.Policy{}, err
	}
	return pol, nil
}

func (repo *policyRepository) CreatePolicy(pol policy.Policy) (policy.Policy, error) {
	rules, err := marshal(pol.Rules)
	if err != nil {
		return policy.Policy{}, err
	}
	row := policyRow{}
	err = repo.db.Get(&row, `
		INSERT INTO policy (rules, effective_from, created_at)
		VALUES ($1, $2, $3)
		RETURNING id, rules, effective_from, created_at`,
		rules, pol.EffectiveFrom, pol.CreatedAt,
	)
	if err != nil {
		return policy.Policy{}, err
	}
	return row.model()
}

func (repo *policyRepository) LatestPolicy() (policy.Policy, error) {
	row := policyRow{}
	err := repo.db.Get(&row, `
		SELECT id, rules, effective_from, created_at FROM policy
		ORDER BY effective_from DESC LIMIT 1`,
	)
	if err != nil {
		if isNoRows(err) {
			return policy.Policy{}, policy.ErrNoPolicy
		}
		return policy.Policy{}, err
	}
	return row.model()
}
