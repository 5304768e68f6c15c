package billing

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
)

const (
	LineTuition   = "tuition"
	LineMaterials = "materials"

	StatusIssued = "Issued"
)

// LineItem is one charge on an invoice. Qty is minutes for tuition lines and
// 1 for flat fees.
type LineItem struct {
	Type      string      `json:"type"`
	StudentID null.String `json:"student_id,omitempty"`
	Qty       float64     `json:"qty"`
	UnitPrice float64     `json:"unit_price"`
	Amount    float64     `json:"amount"`
}

type Invoice struct {
	ID        string     `json:"id"`
	Period    string     `json:"period"` // YYYY-MM
	ParentID  string     `json:"parent_id"`
	TutorID   string     `json:"tutor_id"`
	LineItems []LineItem `json:"line_items"`
	Total     float64    `json:"total"`
	Status    string     `json:"status"`
	IssuedAt  time.Time  `json:"issued_at"` // UTC
}

// NewInvoice contains information needed to issue an invoice.
type NewInvoice struct {
	ParentID string `json:"parent_id" validate:"required"`
	Period   string `json:"period" validate:"required,period"`
}

func (ni *NewInvoice) Validate(validate *validator.Validate) error {
	return validate.Struct(ni)
}
