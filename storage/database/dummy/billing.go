package dummydb

import (
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/tutorhub/core/billing"
)

type billingRepository struct {
	db *billingTable
}

var _ billing.Repository = (*billingRepository)(nil) // interface compliance check

func NewBillingRepository(db *DB) billing.Repository {
	return &billingRepository{db: db.billing}
}

func (repo *billingRepository) CreateInvoice(inv billing.Invoice) (billing.Invoice, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	inv.ID = uuid.New().String()
	repo.db.table[inv.ID] = &inv
	return inv, nil
}

func (repo *billingRepository) GetInvoiceByID(id string) (billing.Invoice, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if inv, ok := repo.db.table[id]; ok {
		return *inv, nil
	}
	return billing.Invoice{}, billing.ErrNotFound
}

func (repo *billingRepository) QueryParentInvoices(parentID string) ([]billing.Invoice, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	invs := make([]billing.Invoice, 0)
	for _, inv := range repo.db.table {
		if inv.ParentID == parentID {
			invs = append(invs, *inv)
		}
	}
	sort.Slice(invs, func(i, j int) bool { return invs[i].IssuedAt.After(invs[j].IssuedAt) })
	return invs, nil
}
