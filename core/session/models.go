package session

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/visibility"
)

// Calendar event lifecycle.
type EventStatus string

const (
	EventProposed    EventStatus = "Proposed"
	EventConfirmed   EventStatus = "Confirmed"
	EventRescheduled EventStatus = "Rescheduled"
)

// CalendarEvent is one proposed or scheduled session window. Participants is
// the authorization set for confirm/reschedule actions.
type CalendarEvent struct {
	ID           string      `json:"id"`
	TutorID      string      `json:"tutor_id"`
	StudentID    string      `json:"student_id"`
	ParentID     null.String `json:"parent_id,omitempty"`
	Participants []string    `json:"participants"`
	Start        time.Time   `json:"start"`
	End          time.Time   `json:"end"`
	Status       EventStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"` // UTC
}

// Overlaps applies the half-open interval test [start, end).
func (ev CalendarEvent) Overlaps(other CalendarEvent) bool {
	return other.Start.Before(ev.End) && other.End.After(ev.Start)
}

// AttendanceLog records one held session occurrence. ConfirmedByParent flips
// false→true exactly once, via signature.
type AttendanceLog struct {
	ID                string    `json:"id"`
	EventID           string    `json:"event_id"`
	SessionDate       time.Time `json:"session_date"`
	StartTs           time.Time `json:"start_ts"`
	EndTs             time.Time `json:"end_ts"`
	Minutes           int       `json:"minutes"`
	StudentID         string    `json:"student_id"`
	TutorID           string    `json:"tutor_id"`
	ConfirmedByParent bool      `json:"confirmed_by_parent"`
	SignatureTs       null.Time `json:"signature_ts,omitempty"`
	CreatedAt         time.Time `json:"created_at"` // UTC
}

// SessionNote carries its visibility scope inline; list reads filter on it.
type SessionNote struct {
	ID          string           `json:"id"`
	TutorID     string           `json:"tutor_id"`
	StudentID   string           `json:"student_id"`
	Date        time.Time        `json:"date"`
	Summary     string           `json:"summary"`
	Issues      []string         `json:"issues"`
	NextActions []string         `json:"next_actions"`
	Scope       visibility.Scope `json:"visibility_scope"`
	CreatedAt   time.Time        `json:"created_at"` // UTC
}

type Window struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required"`
}

// NewProposal contains a tutor's candidate windows for one student.
type NewProposal struct {
	StudentID string   `json:"student_id" validate:"required"`
	Options   []Window `json:"options" validate:"required,min=3,dive"`
}

func (np *NewProposal) Validate(validate *validator.Validate) error {
	return validate.Struct(np)
}

// NewAttendance contains information needed to log a held session.
type NewAttendance struct {
	StudentID string    `json:"student_id" validate:"required"`
	TutorID   string    `json:"tutor_id" validate:"required"`
	StartTs   time.Time `json:"start_ts" validate:"required"`
	EndTs     time.Time `json:"end_ts" validate:"required"`
	Minutes   int       `json:"minutes" validate:"required,gt=0"`
}

func (na *NewAttendance) Validate(validate *validator.Validate) error {
	return validate.Struct(na)
}

// NewNote contains information needed to record a session note.
type NewNote struct {
	StudentID   string           `json:"student_id" validate:"required"`
	Date        time.Time        `json:"date" validate:"required"`
	Summary     string           `json:"summary" validate:"required"`
	Issues      []string         `json:"issues"`
	NextActions []string         `json:"next_actions"`
	Scope       visibility.Scope `json:"visibility_scope" validate:"required,oneof=S SP ST SPT"`
}

func (nn *NewNote) Validate(validate *validator.Validate) error {
	nn.Summary = core.CleanString(nn.Summary)
	return validate.Struct(nn)
}

type EventQueryFilter struct {
	Status EventStatus
	// AnyParty matches events whose tutor, student or parent is any of these ids.
	AnyParty  []string
	ExcludeID string
}

type AttendanceQueryFilter struct {
	StudentID         string
	TutorID           string
	From              time.Time // inclusive, on SessionDate
	To                time.Time // exclusive, on SessionDate
	ConfirmedByParent *bool
}
