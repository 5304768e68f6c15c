package policy

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Exception types
const (
	ExceptionLate    = "late"
	ExceptionAbsence = "absence"
	ExceptionMakeUp  = "make_up"
)

// Charge policy codes for un-waived absences.
const (
	ChargeHalf = "50_percent"
	ChargeFull = "full"
)

type (
	LateRule struct {
		GraceMinutes int    `json:"grace_minutes"`
		Option       string `json:"option"`
	}

	AbsenceRule struct {
		NoticeHours  int    `json:"notice_hours"`
		ChargePolicy string `json:"charge_policy"`
	}

	MakeUpRule struct {
		WindowDays int    `json:"window_days"`
		Slots      string `json:"slots"`
	}

	Rules struct {
		Late    *LateRule    `json:"late,omitempty"`
		Absence *AbsenceRule `json:"absence,omitempty"`
		MakeUp  *MakeUpRule  `json:"make_up,omitempty"`
	}

	// Policy is a versioned rule document. Only the most recently effective
	// one is authoritative at evaluation time.
	Policy struct {
		ID            string    `json:"id"`
		Rules         Rules     `json:"rules"`
		EffectiveFrom time.Time `json:"effective_from"`
		CreatedAt     time.Time `json:"created_at"` // UTC
	}
)

// Exception is one evaluation request: a type plus free-form context.
type Exception struct {
	Type    string                 `json:"type" validate:"required,oneof=late absence make_up"`
	Context map[string]interface{} `json:"context" validate:"required"`
}

func (e *Exception) Validate(validate *validator.Validate) error {
	return validate.Struct(e)
}
