package report

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/assignment"
	"github.com/trezcool/tutorhub/core/session"
)

// KPIs are the per-student monthly progress counters.
type KPIs struct {
	AssignmentsFinalized int `json:"assignments_finalized"`
	SubmissionsMade      int `json:"submissions_made"`
	AttendanceMinutes    int `json:"attendance_minutes"`
}

type MonthlyReport struct {
	ID        string    `json:"id"`
	TutorID   string    `json:"tutor_id"`
	StudentID string    `json:"student_id"`
	Period    string    `json:"period"` // YYYY-MM
	KPIs      KPIs      `json:"kpis"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewReport contains information needed to issue a monthly report.
type NewReport struct {
	StudentID string `json:"student_id" validate:"required"`
	Period    string `json:"period" validate:"required,period"`
}

func (nr *NewReport) Validate(validate *validator.Validate) error {
	return validate.Struct(nr)
}

// Digest is a point-in-time snapshot of a student's standing, scoped to what
// the requester may see.
type Digest struct {
	Highlights Highlights `json:"highlights"`
	Risks      Risks      `json:"risks"`
	Next       NextSteps  `json:"next"`
}

type Highlights struct {
	LastSubmission *assignment.Submission `json:"last_submission,omitempty"`
	LatestNote     *session.SessionNote   `json:"latest_note,omitempty"`
}

type Risks struct {
	DueSoon            []assignment.Assignment `json:"due_soon"`
	UnsignedAttendance []session.AttendanceLog `json:"unsigned_attendance"`
}

type NextSteps struct {
	NextDue   *assignment.Assignment `json:"next_due,omitempty"`
	Checklist []string               `json:"checklist"`
}

// Encouragement is a parent's nudge to a student; either a template or a free
// message, never both empty.
type Encouragement struct {
	StudentID  string `json:"student_id" validate:"required"`
	TemplateID string `json:"template_id"`
	Message    string `json:"message"`
}

func (e *Encouragement) Validate(validate *validator.Validate) error {
	e.Message = core.CleanString(e.Message)
	if err := validate.Struct(e); err != nil {
		return err
	}
	if e.TemplateID == "" && e.Message == "" {
		return core.NewInvalidInputError("either template_id or message is required")
	}
	return nil
}
