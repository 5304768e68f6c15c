package policy

import (
	"strconv"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/audit"
)

var (
	// errors
	ErrNoPolicy        = core.NewNotFoundError("no policy configured")
	ErrUnsupportedType = core.NewInvalidInputError("unsupported exception type")
)

const actionExceptionApplied = "POLICY_EXCEPTION_APPLIED"

type (
	Repository interface {
		CreatePolicy(pol Policy) (Policy, error)
		// LatestPolicy returns the policy with the greatest effectiveFrom,
		// or ErrNoPolicy when none exists.
		LatestPolicy() (Policy, error)
	}

	Service struct {
		repo  Repository
		audit *audit.Service
		nowFn func() time.Time
	}

	// Evaluation is the outcome of one exception, as recorded in the trail.
	Evaluation struct {
		PolicyID string                 `json:"policy"`
		Outcome  map[string]interface{} `json:"outcome"`
	}
)

func NewService(repo Repository, auditSvc *audit.Service) *Service {
	return &Service{repo: repo, audit: auditSvc, nowFn: time.Now}
}

// NewServiceMock returns a Service with a caller-controlled clock. For tests.
func NewServiceMock(repo Repository, auditSvc *audit.Service, nowFn func() time.Time) *Service {
	return &Service{repo: repo, audit: auditSvc, nowFn: nowFn}
}

// Create stores a new policy version; it becomes authoritative once its
// effectiveFrom is the latest.
func (svc *Service) Create(pol Policy) (Policy, error) {
	pol.CreatedAt = svc.nowFn().UTC()
	if pol.EffectiveFrom.IsZero() {
		pol.EffectiveFrom = pol.CreatedAt
	}
	return svc.repo.CreatePolicy(pol)
}

// ApplyException evaluates an exception against the latest policy. The policy
// itself is never mutated; the outcome is appended to the audit trail.
func (svc *Service) ApplyException(actorID string, exc Exception) (Evaluation, error) {
	pol, err := svc.repo.LatestPolicy()
	if err != nil {
		return Evaluation{}, err
	}

	var outcome map[string]interface{}
	switch exc.Type {
	case ExceptionLate:
		outcome = evalLate(pol.Rules.Late, exc.Context)
	case ExceptionAbsence:
		outcome = evalAbsence(pol.Rules.Absence, exc.Context)
	case ExceptionMakeUp:
		outcome = evalMakeUp(pol.Rules.MakeUp)
	default:
		return Evaluation{}, ErrUnsupportedType
	}

	if _, err = svc.audit.Record(audit.Entry{
		ActorID:  null.StringFrom(actorID),
		Entity:   "Policy",
		EntityID: pol.ID,
		Action:   actionExceptionApplied,
		Metadata: map[string]interface{}{
			"type":    exc.Type,
			"context": exc.Context,
			"outcome": outcome,
		},
	}); err != nil {
		return Evaluation{}, err
	}
	return Evaluation{PolicyID: pol.ID, Outcome: outcome}, nil
}

func evalLate(rule *LateRule, ctx map[string]interface{}) map[string]interface{} {
	var grace int
	option := "standard"
	if rule != nil {
		grace = rule.GraceMinutes
		if rule.Option != "" {
			option = rule.Option
		}
	}
	minutesLate := ctxNumber(ctx, "minutesLate")
	waived := minutesLate <= float64(grace)
	adjustment := 0.0
	if !waived {
		adjustment = minutesLate - float64(grace)
	}
	return map[string]interface{}{
		"waived":     waived,
		"adjustment": adjustment,
		"option":     option,
	}
}

func evalAbsence(rule *AbsenceRule, ctx map[string]interface{}) map[string]interface{} {
	var requiredNotice int
	chargePolicy := ChargeFull
	if rule != nil {
		requiredNotice = rule.NoticeHours
		if rule.ChargePolicy != "" {
			chargePolicy = rule.ChargePolicy
		}
	}
	chargeRate := 1.0
	if chargePolicy == ChargeHalf {
		chargeRate = 0.5
	}
	noticeHours := ctxNumber(ctx, "noticeHours")
	waived := noticeHours >= float64(requiredNotice)
	if waived {
		chargeRate = 0
	}
	return map[string]interface{}{
		"waived":     waived,
		"chargeRate": chargeRate,
		"policy":     chargePolicy,
	}
}

func evalMakeUp(rule *MakeUpRule) map[string]interface{} {
	windowDays := 0
	slots := "none"
	if rule != nil {
		windowDays = rule.WindowDays
		if rule.Slots != "" {
			slots = rule.Slots
		}
	}
	return map[string]interface{}{
		"window_days": windowDays,
		"slots":       slots,
	}
}

// ctxNumber reads a numeric context value; JSON numbers arrive as float64,
// ints come from typed callers, numeric strings from loose JSON clients.
func ctxNumber(ctx map[string]interface{}, key string) float64 {
	switch v := ctx[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
		return 0
	default:
		return 0
	}
}
