package billing

import (
	"math"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/audit"
	"github.com/trezcool/tutorhub/core/relation"
	"github.com/trezcool/tutorhub/core/session"
	"github.com/trezcool/tutorhub/core/user"
)

var (
	ErrNotFound    = core.NewNotFoundError("invoice not found")
	ErrNotInvoicee = core.NewForbiddenError("invoice belongs to another parent")
)

const actionInvoiceIssued = "INVOICE_ISSUED"

type Repository interface {
	CreateInvoice(inv Invoice) (Invoice, error)
	GetInvoiceByID(id string) (Invoice, error) // ErrNotFound
	QueryParentInvoices(parentID string) ([]Invoice, error)
}

type Service struct {
	repo       Repository
	relSvc     *relation.Service
	sessionSvc *session.Service
	auditSvc   *audit.Service
	conf       *core.Config
	nowFn      func() time.Time
}

func NewService(repo Repository, relSvc *relation.Service, sessionSvc *session.Service, auditSvc *audit.Service, conf *core.Config) *Service {
	return &Service{repo: repo, relSvc: relSvc, sessionSvc: sessionSvc, auditSvc: auditSvc, conf: conf, nowFn: time.Now}
}

func NewServiceMock(repo Repository, relSvc *relation.Service, sessionSvc *session.Service, auditSvc *audit.Service, conf *core.Config, nowFn func() time.Time) *Service {
	return &Service{repo: repo, relSvc: relSvc, sessionSvc: sessionSvc, auditSvc: auditSvc, conf: conf, nowFn: nowFn}
}

// Issue aggregates a parent's consented students' attendance over the billing
// period into one invoice. Months with no held sessions get the flat materials
// fee instead of tuition lines.
func (svc *Service) Issue(tutorID string, data NewInvoice) (Invoice, error) {
	start, end, err := core.MonthBounds(data.Period)
	if err != nil {
		return Invoice{}, err
	}

	consented := true
	edges, err := svc.relSvc.Filter(relation.QueryFilter{
		Type:    relation.TypeStudentParent,
		BUserID: data.ParentID,
		Consent: &consented,
	})
	if err != nil {
		return Invoice{}, err
	}

	var items []LineItem
	for _, edge := range edges {
		minutes, err := svc.sessionSvc.SumAttendanceMinutes(edge.AUserID, start, end)
		if err != nil {
			return Invoice{}, err
		}
		if minutes == 0 {
			continue
		}
		rate := svc.conf.Billing.TuitionRatePerMinute
		items = append(items, LineItem{
			Type:      LineTuition,
			StudentID: null.StringFrom(edge.AUserID),
			Qty:       float64(minutes),
			UnitPrice: rate,
			Amount:    float64(minutes) * rate,
		})
	}
	if len(items) == 0 {
		fee := svc.conf.Billing.MaterialsFee
		items = append(items, LineItem{Type: LineMaterials, Qty: 1, UnitPrice: fee, Amount: fee})
	}

	var total float64
	for _, it := range items {
		total += it.Amount
	}
	total = math.Round(total*100) / 100

	inv := Invoice{
		Period:    data.Period,
		ParentID:  data.ParentID,
		TutorID:   tutorID,
		LineItems: items,
		Total:     total,
		Status:    StatusIssued,
		IssuedAt:  svc.nowFn().UTC(),
	}
	if inv, err = svc.repo.CreateInvoice(inv); err != nil {
		return Invoice{}, err
	}
	if _, err = svc.auditSvc.Record(audit.Entry{
		ActorID:  null.StringFrom(tutorID),
		Entity:   "invoice",
		EntityID: inv.ID,
		Action:   actionInvoiceIssued,
		ToState:  null.StringFrom(StatusIssued),
		Metadata: map[string]interface{}{
			"parent_id":       inv.ParentID,
			"period":          inv.Period,
			"total":           inv.Total,
			"line_item_count": len(inv.LineItems),
		},
	}); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

// Get returns an invoice. Parents may only read their own.
func (svc *Service) Get(requester user.User, id string) (Invoice, error) {
	inv, err := svc.repo.GetInvoiceByID(id)
	if err != nil {
		return Invoice{}, err
	}
	if requester.IsParent() && inv.ParentID != requester.ID {
		return Invoice{}, ErrNotInvoicee
	}
	return inv, nil
}

// QueryByParent lists a parent's own invoices.
func (svc *Service) QueryByParent(parentID string) ([]Invoice, error) {
	return svc.repo.QueryParentInvoices(parentID)
}
