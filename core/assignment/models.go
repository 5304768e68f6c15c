package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/visibility"
)

// Assignment lifecycle. Transitions outside the table are rejected.
type Status string

const (
	StatusOpen        Status = "Open"
	StatusSubmitted   Status = "Submitted"
	StatusReviewed    Status = "Reviewed"
	StatusResubmitted Status = "Resubmitted"
	StatusFinalized   Status = "Finalized"
)

var statusTransitions = map[Status][]Status{
	StatusOpen:        {StatusSubmitted},
	StatusSubmitted:   {StatusReviewed, StatusFinalized},
	StatusReviewed:    {StatusResubmitted, StatusFinalized},
	StatusResubmitted: {StatusReviewed, StatusFinalized},
	StatusFinalized:   nil,
}

func canTransition(from, to Status) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Submission lifecycle. Approval and resubmit-request are mutually exclusive
// outcomes of a single review.
type SubmissionStatus string

const (
	SubmissionSubmitted     SubmissionStatus = "Submitted"
	SubmissionApproved      SubmissionStatus = "Approved"
	SubmissionNeedsResubmit SubmissionStatus = "NeedsResubmit"
)

type Assignment struct {
	ID             string      `json:"id"`
	TutorID        string      `json:"tutor_id"`
	StudentID      string      `json:"student_id"`
	Title          string      `json:"title"`
	Goal           string      `json:"goal"`
	Difficulty     string      `json:"difficulty"` // E | M | H
	DueAt          time.Time   `json:"due_at"`
	RubricID       null.String `json:"rubric_id,omitempty"`
	ModelAnswerRef null.String `json:"model_answer_ref,omitempty"`
	Status         Status      `json:"status"`
	CreatedAt      time.Time   `json:"created_at"` // UTC
	UpdatedAt      time.Time   `json:"updated_at"` // UTC
}

// Ref is the entity ref under which the assignment's visibility scope is stored.
func (a Assignment) Ref() string { return "assignment:" + a.ID }

type File struct {
	Name string `json:"name" validate:"required"`
	Mime string `json:"mime" validate:"required"`
	URL  string `json:"url" validate:"required,url"`
}

type CoverMeta struct {
	Unit  string   `json:"unit" validate:"required"`
	Pages null.Int `json:"pages,omitempty"`
}

// Submission is immutable once created except for the reviewer-added fields.
// A resubmission is a new row with the next version, never a mutation.
type Submission struct {
	ID                    string                 `json:"id"`
	AssignmentID          string                 `json:"assignment_id"`
	StudentID             string                 `json:"student_id"`
	Version               int                    `json:"version"`
	Files                 []File                 `json:"files"`
	CoverMeta             CoverMeta              `json:"cover_meta"`
	Status                SubmissionStatus       `json:"status"`
	RubricScore           map[string]interface{} `json:"rubric_score,omitempty"`
	Comment               null.String            `json:"comment,omitempty"`
	RequestedResubmit     bool                   `json:"requested_resubmit"`
	ReviewedAt            null.Time              `json:"reviewed_at,omitempty"`
	ReviewDurationSeconds null.Int64             `json:"review_duration_seconds,omitempty"`
	CreatedAt             time.Time              `json:"created_at"` // UTC
}

// StudentAssignment is an assignment a requester is allowed to see, with its
// resolved scope and version-ordered submissions.
type StudentAssignment struct {
	Assignment  Assignment       `json:"assignment"`
	Scope       visibility.Scope `json:"scope"`
	Submissions []Submission     `json:"submissions"`
}

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	StudentID      string           `json:"student_id" validate:"required"`
	Title          string           `json:"title" validate:"required"`
	Goal           string           `json:"goal" validate:"required"`
	Difficulty     string           `json:"difficulty" validate:"required,oneof=E M H"`
	DueAt          time.Time        `json:"due_at" validate:"required"`
	RubricID       string           `json:"rubric_id"`
	ModelAnswerRef string           `json:"model_answer_ref"`
	Scope          visibility.Scope `json:"visibility_scope" validate:"omitempty,oneof=S SP ST SPT"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Goal = core.CleanString(na.Goal)
	return validate.Struct(na)
}

// NewSubmission contains information needed to create a Submission's first version.
type NewSubmission struct {
	AssignmentID string    `json:"assignment_id" validate:"required"`
	Files        []File    `json:"files" validate:"required,min=1,dive"`
	CoverMeta    CoverMeta `json:"cover_meta" validate:"required"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	return validate.Struct(ns)
}

// ReviewSubmission is a tutor's one-shot review outcome for a submission version.
type ReviewSubmission struct {
	RubricScore  map[string]interface{} `json:"rubric_score" validate:"required"`
	Comment      string                 `json:"comment"`
	ResubmitFlag bool                   `json:"resubmit_flag"`
}

func (rs *ReviewSubmission) Validate(validate *validator.Validate) error {
	rs.Comment = core.CleanString(rs.Comment)
	return validate.Struct(rs)
}

// Resubmission creates the next version; omitted fields default to the prior
// submission's values.
type Resubmission struct {
	Files     []File     `json:"files" validate:"omitempty,dive"`
	CoverMeta *CoverMeta `json:"cover_meta"`
}

func (r *Resubmission) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

type AssignmentQueryFilter struct {
	StudentID   string
	Status      Status
	DueBefore   time.Time
	CreatedFrom time.Time
	CreatedTo   time.Time
}

func (qf *AssignmentQueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.Status == "" &&
		qf.DueBefore.IsZero() && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}
