package sqlxrepos

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tutorhub/core/assignment"
)

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

type assignmentRow struct {
	ID             string      `db:"id"`
	TutorID        string      `db:"tutor_id"`
	StudentID      string      `db:"student_id"`
	Title          string      `db:"title"`
	Goal           string      `db:"goal"`
	Difficulty     string      `db:"difficulty"`
	DueAt          time.Time   `db:"due_at"`
	RubricID       null.String `db:"rubric_id"`
	ModelAnswerRef null.String `db:"model_answer_ref"`
	Status         string      `db:"status"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

func (row assignmentRow) model() assignment.Assignment {
	return assignment.Assignment{
		ID:             row.ID,
		TutorID:        row.TutorID,
		StudentID:      row.StudentID,
		Title:          row.Title,
		Goal:           row.Goal,
		Difficulty:     row.Difficulty,
		DueAt:          row.DueAt,
		RubricID:       row.RubricID,
		ModelAnswerRef: row.ModelAnswerRef,
		Status:         assignment.Status(row.Status),
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

type submissionRow struct {
	ID                    string      `db:"id"`
	AssignmentID          string      `db:"assignment_id"`
	StudentID             string      `db:"student_id"`
	Version               int         `db:"version"`
	Files                 []byte      `db:"files"`
	CoverMeta             []byte      `db:"cover_meta"`
	Status                string      `db:"status"`
	RubricScore           []byte      `db:"rubric_score"`
	Comment               null.String `db:"comment"`
	RequestedResubmit     bool        `db:"requested_resubmit"`
	ReviewedAt            null.Time   `db:"reviewed_at"`
	ReviewDurationSeconds null.Int64  `db:"review_duration_seconds"`
	CreatedAt             time.Time   `db:"created_at"`
}

func (row submissionRow) model() (assignment.Submission, error) {
	sub := assignment.Submission{
		ID:                    row.ID,
		AssignmentID:          row.AssignmentID,
		StudentID:             row.StudentID,
		Version:               row.Version,
		Status:                assignment.SubmissionStatus(row.Status),
		Comment:               row.Comment,
		RequestedResubmit:     row.RequestedResubmit,
		ReviewedAt:            row.ReviewedAt,
		ReviewDurationSeconds: row.ReviewDurationSeconds,
		CreatedAt:             row.CreatedAt,
	}
	if err := unmarshal(row.Files, &sub.Files); err != nil {
		return assignment.Submission{}, err
	}
	if err := unmarshal(row.CoverMeta, &sub.CoverMeta); err != nil {
		return assignment.Submission{}, err
	}
	if err := unmarshal(row.RubricScore, &sub.RubricScore); err != nil {
		return assignment.Submission{}, err
	}
	return sub, nil
}

const (
	assignmentColumns = `id, tutor_id, student_id, title, goal, difficulty, due_at, rubric_id, model_answer_ref, status, created_at, updated_at`
	submissionColumns = `id, assignment_id, student_id, version, files, cover_meta, status, rubric_score, comment, requested_resubmit, reviewed_at, review_duration_seconds, created_at`
)

func (repo *assignmentRepository) CreateAssignment(a assignment.Assignment) (assignment.Assignment, error) {
	row := assignmentRow{}
	err := repo.db.Get(&row, `
		INSERT INTO assignment (tutor_id, student_id, title, goal, difficulty, due_at, rubric_id, model_answer_ref, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+assignmentColumns,
		a.TutorID, a.StudentID, a.Title, a.Goal, a.Difficulty, a.DueAt, a.RubricID, a.ModelAnswerRef, string(a.Status), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return assignment.Assignment{}, err
	}
	return row.model(), nil
}

func (repo *assignmentRepository) GetAssignmentByID(id string) (assignment.Assignment, error) {
	row := assignmentRow{}
	if err := repo.db.Get(&row, `SELECT `+assignmentColumns+` FROM assignment WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return assignment.Assignment{}, assignment.ErrNotFound
		}
		return assignment.Assignment{}, err
	}
	return row.model(), nil
}

func (repo *assignmentRepository) FilterAssignments(filter assignment.AssignmentQueryFilter) ([]assignment.Assignment, error) {
	where := make([]string, 0, 5)
	args := make([]interface{}, 0, 5)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.StudentID != "" {
		where = append(where, "student_id = "+arg(filter.StudentID))
	}
	if filter.Status != "" {
		where = append(where, "status = "+arg(string(filter.Status)))
	}
	if !filter.DueBefore.IsZero() {
		where = append(where, "due_at < "+arg(filter.DueBefore))
	}
	if !filter.CreatedFrom.IsZero() {
		where = append(where, "created_at >= "+arg(filter.CreatedFrom.UTC()))
	}
	if !filter.CreatedTo.IsZero() {
		where = append(where, "created_at < "+arg(filter.CreatedTo.UTC()))
	}

	q := `SELECT ` + assignmentColumns + ` FROM assignment`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY due_at`

	var rows []assignmentRow
	if err := repo.db.Select(&rows, q, args...); err != nil {
		return nil, err
	}
	as := make([]assignment.Assignment, 0, len(rows))
	for _, row := range rows {
		as = append(as, row.model())
	}
	return as, nil
}

func (repo *assignmentRepository) UpdateAssignmentStatus(id string, to assignment.Status, updatedAt time.Time) (assignment.Assignment, error) {
	row := assignmentRow{}
	err := repo.db.Get(&row, `
		UPDATE assignment SET status = $2, updated_at = $3 WHERE id = $1
		RETURNING `+assignmentColumns,
		id, string(to), updatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return assignment.Assignment{}, assignment.ErrNotFound
		}
		return assignment.Assignment{}, err
	}
	return row.model(), nil
}

func (repo *assignmentRepository) CreateSubmission(sub assignment.Submission) (assignment.Submission, error) {
	files, err := marshal(sub.Files)
	if err != nil {
		return assignment.Submission{}, err
	}
	coverMeta, err := marshal(sub.CoverMeta)
	if err != nil {
		return assignment.Submission{}, err
	}

	row := submissionRow{}
	err = repo.db.Get(&row, `
		INSERT INTO submission (assignment_id, student_id, version, files, cover_meta, status, requested_resubmit, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+submissionColumns,
		sub.AssignmentID, sub.StudentID, sub.Version, files, coverMeta, string(sub.Status), sub.RequestedResubmit, sub.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return assignment.Submission{}, assignment.ErrVersionConflict
		}
		return assignment.Submission{}, err
	}
	return row.model()
}

func (repo *assignmentRepository) GetSubmissionByID(id string) (assignment.Submission, error) {
	row := submissionRow{}
	if err := repo.db.Get(&row, `SELECT `+submissionColumns+` FROM submission WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return assignment.Submission{}, assignment.ErrSubmissionNotFound
		}
		return assignment.Submission{}, err
	}
	return row.model()
}

func (repo *assignmentRepository) QueryAssignmentSubmissions(assignmentID string) ([]assignment.Submission, error) {
	var rows []submissionRow
	err := repo.db.Select(&rows, `
		SELECT `+submissionColumns+` FROM submission
		WHERE assignment_id = $1 ORDER BY version`,
		assignmentID,
	)
	if err != nil {
		return nil, err
	}
	subs := make([]assignment.Submission, 0, len(rows))
	for _, row := range rows {
		sub, err := row.model()
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (repo *assignmentRepository) LatestSubmissionForStudent(studentID string) (assignment.Submission, error) {
	row := submissionRow{}
	err := repo.db.Get(&row, `
		SELECT `+submissionColumns+` FROM submission
		WHERE student_id = $1 ORDER BY created_at DESC LIMIT 1`,
		studentID,
	)
	if err != nil {
		if isNoRows(err) {
			return assignment.Submission{}, assignment.ErrSubmissionNotFound
		}
		return assignment.Submission{}, err
	}
	return row.model()
}

func (repo *assignmentRepository) UpdateSubmissionReview(sub assignment.Submission) (assignment.Submission, error) {
	rubricScore, err := marshal(sub.RubricScore)
	if err != nil {
		return assignment.Submission{}, err
	}

	row := submissionRow{}
	err = repo.db.Get(&row, `
		UPDATE submission
		SET status = $2, rubric_score = $3, comment = $4, requested_resubmit = $5, reviewed_at = $6, review_duration_seconds = $7
		WHERE id = $1
		RETURNING `+submissionColumns,
		sub.ID, string(sub.Status), rubricScore, sub.Comment, sub.RequestedResubmit, sub.ReviewedAt, sub.ReviewDurationSeconds,
	)
	if err != nil {
		if isNoRows(err) {
			return assignment.Submission{}, assignment.ErrSubmissionNotFound
		}
		return assignment.Submission{}, err
	}
	return row.model()
}
