package sqlxrepos

import (
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/tutorhub/core/billing"
)

type billingRepository struct {
	db *sqlx.DB
}

var _ billing.Repository = (*billingRepository)(nil) // interface compliance check

func NewBillingRepository(db *sqlx.DB) billing.Repository {
	return &billingRepository{db: db}
}

type invoiceRow struct {
	ID        string    `db:"id"`
	Period    string    `db:"period"`
	ParentID  string    `db:"parent_id"`
	TutorID   string    `db:"tutor_id"`
	LineItems []byte    `db:"line_items"`
	Total     float64   `db:"total"`
	Status    string    `db:"status"`
	IssuedAt  time.Time `db:"issued_at"`
}

func (row invoiceRow) model() (billing.Invoice, error) {
	inv := billing.Invoice{
		ID:       row.ID,
		Period:   row.Period,
		ParentID: row.ParentID,
		TutorID:  row.TutorID,
		Total:    row.Total,
		Status:   row.Status,
		IssuedAt: row.IssuedAt,
	}
	if err := unmarshal(row.LineItems, &inv.LineItems); err != nil {
		return billing.Invoice{}, err
	}
	return inv, nil
}

const invoiceColumns = `id, period, parent_id, tutor_id, line_items, total, status, issued_at`

func (repo *billingRepository) CreateInvoice(inv billing.Invoice) (billing.Invoice, error) {
	lineItems, err := marshal(inv.LineItems)
	if err != nil {
		return billing.Invoice{}, err
	}
	row := invoiceRow{}
	err = repo.db.Get(&row, `
		INSERT INTO invoice (period, parent_id, tutor_id, line_items, total, status, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+invoiceColumns,
		inv.Period, inv.ParentID, inv.TutorID, lineItems, inv.Total, inv.Status, inv.IssuedAt,
	)
	if err != nil {
		return billing.Invoice{}, err
	}
	return row.model()
}

func (repo *billingRepository) GetInvoiceByID(id string) (billing.Invoice, error) {
	row := invoiceRow{}
	if err := repo.db.Get(&row, `SELECT `+invoiceColumns+` FROM invoice WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return billing.Invoice{}, billing.ErrNotFound
		}
		return billing.Invoice{}, err
	}
	return row.model()
}

func (repo *billingRepository) QueryParentInvoices(parentID string) ([]billing.Invoice, error) {
	var rows []invoiceRow
	err := repo.db.Select(&rows, `
		SELECT `+invoiceColumns+` FROM invoice
		WHERE parent_id = $1 ORDER BY issued_at DESC`,
		parentID,
	)
	if err != nil {
		return nil, err
	}
	invs := make([]billing.Invoice, 0, len(rows))
	for _, row := range rows {
		inv, err := row.model()
		if err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}
	return invs, nil
}
