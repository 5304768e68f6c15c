package assignment

import (
	"math"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/audit"
	"github.com/trezcool/tutorhub/core/relation"
	"github.com/trezcool/tutorhub/core/user"
	"github.com/trezcool/tutorhub/core/visibility"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("assignment not found")
	ErrSubmissionNotFound = core.NewNotFoundError("submission not found")
	ErrNotOwner           = core.NewForbiddenError("cannot submit for other students")
	ErrVersionConflict    = core.NewConflictError("a submission with this version already exists")
	ErrAlreadyReviewed    = core.NewInvalidStateError("submission has already been reviewed")
	ErrNotFlagged         = core.NewInvalidStateError("submission not flagged for resubmission")
	ErrNoFiles            = core.NewInvalidInputError("resubmission requires at least one file")
	ErrNoCoverMeta        = core.NewInvalidInputError("resubmission requires cover metadata")
)

// audit actions
const (
	actionCreated       = "ASSIGNMENT_CREATED"
	actionStatusChanged = "ASSIGNMENT_STATUS_CHANGED"
	actionSubmitted     = "SUBMISSION_CREATED"
	actionReviewed      = "SUBMISSION_REVIEWED"
	actionResubmitted   = "SUBMISSION_RESUBMITTED"
)

var allowedMimes = map[string]bool{
	"application/pdf": true,
	"text/plain":      true,
	"image/png":       true,
	"image/jpeg":      true,
}

type (
	Repository interface {
		CreateAssignment(a Assignment) (Assignment, error)
		GetAssignmentByID(id string) (Assignment, error)
		// FilterAssignments applies AND operation on available
		// AssignmentQueryFilter fields, ordered by due date ascending.
		FilterAssignments(filter AssignmentQueryFilter) ([]Assignment, error)
		UpdateAssignmentStatus(id string, to Status, updatedAt time.Time) (Assignment, error)

		// CreateSubmission fails with ErrVersionConflict when the
		// (assignment, version) pair is taken: the loser of a concurrent
		// resubmission race must fail, not overwrite.
		CreateSubmission(sub Submission) (Submission, error)
		GetSubmissionByID(id string) (Submission, error)
		// QueryAssignmentSubmissions returns an assignment's submissions
		// ordered by version ascending.
		QueryAssignmentSubmissions(assignmentID string) ([]Submission, error)
		// LatestSubmissionForStudent fails with ErrSubmissionNotFound when the
		// student never submitted anything.
		LatestSubmissionForStudent(studentID string) (Submission, error)
		UpdateSubmissionReview(sub Submission) (Submission, error)
	}

	Service struct {
		repo     Repository
		relSvc   *relation.Service
		visSvc   *visibility.Service
		auditSvc *audit.Service
		nowFn    func() time.Time
	}
)

func NewService(repo Repository, relSvc *relation.Service, visSvc *visibility.Service, auditSvc *audit.Service) *Service {
	return &Service{repo: repo, relSvc: relSvc, visSvc: visSvc, auditSvc: auditSvc, nowFn: time.Now}
}

// NewServiceMock returns a Service with a caller-controlled clock. For tests.
func NewServiceMock(repo Repository, relSvc *relation.Service, visSvc *visibility.Service, auditSvc *audit.Service, nowFn func() time.Time) *Service {
	return &Service{repo: repo, relSvc: relSvc, visSvc: visSvc, auditSvc: auditSvc, nowFn: nowFn}
}

// Create opens a new assignment for a linked student and stores its visibility scope.
func (svc *Service) Create(tutorID string, data NewAssignment) (Assignment, error) {
	if err := svc.relSvc.AuthorizeTutorForStudent(tutorID, data.StudentID); err != nil {
		return Assignment{}, err
	}

	now := svc.nowFn().UTC()
	a := Assignment{
		TutorID:        tutorID,
		StudentID:      data.StudentID,
		Title:          data.Title,
		Goal:           data.Goal,
		Difficulty:     data.Difficulty,
		DueAt:          data.DueAt,
		RubricID:       null.NewString(data.RubricID, data.RubricID != ""),
		ModelAnswerRef: null.NewString(data.ModelAnswerRef, data.ModelAnswerRef != ""),
		Status:         StatusOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	a, err := svc.repo.CreateAssignment(a)
	if err != nil {
		return Assignment{}, err
	}

	scope := data.Scope
	if scope == "" {
		scope = visibility.DefaultScope
	}
	if _, err = svc.visSvc.Set(tutorID, a.Ref(), scope); err != nil {
		return Assignment{}, err
	}

	if _, err = svc.auditSvc.Record(audit.Entry{
		ActorID:  null.StringFrom(tutorID),
		Entity:   "Assignment",
		EntityID: a.ID,
		Action:   actionCreated,
		ToState:  null.StringFrom(string(StatusOpen)),
	}); err != nil {
		return Assignment{}, err
	}
	return a, nil
}

// QueryByStudent lists a student's assignments the requester may see.
// Relationship authorization runs first; visibility filtering never replaces it.
func (svc *Service) QueryByStudent(requester user.User, studentID string) ([]StudentAssignment, error) {
	if err := svc.relSvc.AuthorizeVisibility(requester.ID, requester.Role, studentID); err != nil {
		return nil, err
	}

	assignments, err := svc.repo.FilterAssignments(AssignmentQueryFilter{StudentID: studentID})
	if err != nil {
		return nil, err
	}

	result := make([]StudentAssignment, 0, len(assignments))
	for _, a := range assignments {
		scope, err := svc.visSvc.Resolve(a.Ref())
		if err != nil {
			return nil, err
		}
		if !visibility.ScopeAllows(scope, requester.Role) {
			continue
		}
		subs, err := svc.repo.QueryAssignmentSubmissions(a.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, StudentAssignment{Assignment: a, Scope: scope, Submissions: subs})
	}
	return result, nil
}

func (svc *Service) GetByID(id string) (Assignment, error) {
	return svc.repo.GetAssignmentByID(id)
}

// SetStatus transitions an assignment. It is idempotent: when the current
// status already equals `to` it is a no-op and writes no audit record;
// otherwise it writes the status and appends exactly one audit record.
func (svc *Service) SetStatus(id string, to Status, actorID string) (Assignment, error) {
	a, err := svc.repo.GetAssignmentByID(id)
	if err != nil {
		return Assignment{}, err
	}
	if a.Status == to {
		return a, nil
	}
	if !canTransition(a.Status, to) {
		return Assignment{}, core.NewInvalidStateError(
			"assignment cannot transition from " + string(a.Status) + " to " + string(to))
	}

	from := a.Status
	a, err = svc.repo.UpdateAssignmentStatus(id, to, svc.nowFn().UTC())
	if err != nil {
		return Assignment{}, err
	}
	if _, err = svc.auditSvc.Record(audit.Entry{
		ActorID:   null.StringFrom(actorID),
		Entity:    "Assignment",
		EntityID:  a.ID,
		Action:    actionStatusChanged,
		FromState: null.StringFrom(string(from)),
		ToState:   null.StringFrom(string(to)),
	}); err != nil {
		return Assignment{}, err
	}
	return a, nil
}

// Submit creates an assignment's next submission version and drives the
// assignment to Submitted.
func (svc *Service) Submit(studentID string, data NewSubmission) (Submission, error) {
	a, err := svc.repo.GetAssignmentByID(data.AssignmentID)
	if err != nil {
		return Submission{}, err
	}
	if a.StudentID != studentID {
		return Submission{}, ErrNotOwner
	}
	if err = checkFileTypes(data.Files); err != nil {
		return Submission{}, err
	}

	subs, err := svc.repo.QueryAssignmentSubmissions(a.ID)
	if err != nil {
		return Submission{}, err
	}

	sub := Submission{
		AssignmentID: a.ID,
		StudentID:    studentID,
		Version:      len(subs) + 1,
		Files:        data.Files,
		CoverMeta:    data.CoverMeta,
		Status:       SubmissionSubmitted,
		CreatedAt:    svc.nowFn().UTC(),
	}
	sub, err = svc.repo.CreateSubmission(sub)
	if err != nil {
		return Submission{}, err
	}

	if _, err = svc.SetStatus(a.ID, StatusSubmitted, studentID); err != nil {
		return Submission{}, err
	}
	if _, err = svc.auditSvc.Record(audit.Entry{
		ActorID:  null.StringFrom(studentID),
		Entity:   "Submission",
		EntityID: sub.ID,
		Action:   actionSubmitted,
		ToState:  null.StringFrom(string(SubmissionSubmitted)),
	}); err != nil {
		return Submission{}, err
	}
	return sub, nil
}

// Review records a tutor's one-shot outcome for a submission version and moves
// the assignment accordingly: a resubmit request lands on Reviewed; an approval
// finalizes when this is a later version (or the assignment already holds
// Resubmitted) and lands on Reviewed otherwise.
func (svc *Service) Review(tutorID, submissionID string, data ReviewSubmission) (Submission, error) {
	sub, err := svc.repo.GetSubmissionByID(submissionID)
	if err != nil {
		return Submission{}, err
	}
	a, err := svc.repo.GetAssignmentByID(sub.AssignmentID)
	if err != nil {
		return Submission{}, err
	}
	if err = svc.relSvc.AuthorizeTutorForStudent(tutorID, a.StudentID); err != nil {
		return Submission{}, err
	}
	if sub.ReviewedAt.Valid {
		return Submission{}, ErrAlreadyReviewed
	}

	status := SubmissionApproved
	if data.ResubmitFlag {
		status = SubmissionNeedsResubmit
	}
	now := svc.nowFn().UTC()
	secs := int64(math.Round(now.Sub(sub.CreatedAt).Seconds()))
	if secs < 0 {
		secs = 0
	}

	from := sub.Status
	sub.Status = status
	sub.RubricScore = data.RubricScore
	sub.Comment = null.NewString(data.Comment, data.Comment != "")
	sub.RequestedResubmit = data.ResubmitFlag
	sub.ReviewedAt = null.TimeFrom(now)
	sub.ReviewDurationSeconds = null.Int64From(secs)
	sub, err = svc.repo.UpdateSubmissionReview(sub)
	if err != nil {
		return Submission{}, err
	}

	target := StatusReviewed
	if !data.ResubmitFlag && (sub.Version > 1 || a.Status == StatusResubmitted) {
		target = StatusFinalized
	}
	if _, err = svc.SetStatus(a.ID, target, tutorID); err != nil {
		return Submission{}, err
	}

	if _, err = svc.auditSvc.Record(audit.Entry{
		ActorID:   null.StringFrom(tutorID),
		Entity:    "Submission",
		EntityID:  sub.ID,
		Action:    actionReviewed,
		FromState: null.StringFrom(string(from)),
		ToState:   null.StringFrom(string(status)),
		Metadata:  map[string]interface{}{"resubmit": data.ResubmitFlag},
	}); err != nil {
		return Submission{}, err
	}
	return sub, nil
}

// Resubmit creates the next version from a submission flagged NeedsResubmit,
// inheriting the prior files and cover metadata when the payload omits them.
func (svc *Service) Resubmit(studentID, submissionID string, data Resubmission) (Submission, error) {
	orig, err := svc.repo.GetSubmissionByID(submissionID)
	if err != nil {
		return Submission{}, err
	}
	if orig.StudentID != studentID {
		return Submission{}, ErrNotOwner
	}
	if orig.Status != SubmissionNeedsResubmit {
		return Submission{}, ErrNotFlagged
	}

	subs, err := svc.repo.QueryAssignmentSubmissions(orig.AssignmentID)
	if err != nil {
		return Submission{}, err
	}

	files := data.Files
	if len(files) == 0 {
		files = orig.Files
	}
	if len(files) == 0 {
		return Submission{}, ErrNoFiles
	}
	if err = checkFileTypes(files); err != nil {
		return Submission{}, err
	}

	cover := orig.CoverMeta
	if data.CoverMeta != nil {
		cover = *data.CoverMeta
	}
	if cover.Unit == "" {
		return Submission{}, ErrNoCoverMeta
	}

	sub := Submission{
		AssignmentID: orig.AssignmentID,
		StudentID:    studentID,
		Version:      len(subs) + 1,
		Files:        files,
		CoverMeta:    cover,
		Status:       SubmissionSubmitted,
		CreatedAt:    svc.nowFn().UTC(),
	}
	sub, err = svc.repo.CreateSubmission(sub)
	if err != nil {
		return Submission{}, err
	}

	if _, err = svc.SetStatus(orig.AssignmentID, StatusResubmitted, studentID); err != nil {
		return Submission{}, err
	}
	if _, err = svc.auditSvc.Record(audit.Entry{
		ActorID:   null.StringFrom(studentID),
		Entity:    "Submission",
		EntityID:  sub.ID,
		Action:    actionResubmitted,
		FromState: null.StringFrom(string(orig.Status)),
		ToState:   null.StringFrom(string(SubmissionSubmitted)),
	}); err != nil {
		return Submission{}, err
	}
	return sub, nil
}

func checkFileTypes(files []File) error {
	for _, f := range files {
		if !allowedMimes[f.Mime] {
			return core.NewInvalidInputError("unsupported file type " + f.Mime)
		}
	}
	return nil
}
