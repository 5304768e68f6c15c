package dummydb

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/tutorhub/core/assignment"
)

type assignmentRepository struct {
	db *assignmentTable
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db.assignment}
}

func (repo *assignmentRepository) CreateAssignment(a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	a.ID = uuid.New().String()
	repo.db.assignments[a.ID] = &a
	return a, nil
}

func (repo *assignmentRepository) GetAssignmentByID(id string) (assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.assignments[id]; ok {
		return *a, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) FilterAssignments(filter assignment.AssignmentQueryFilter) ([]assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	as := make([]assignment.Assignment, 0, len(repo.db.assignments))
	for _, a := range repo.db.assignments {
		if filter.StudentID != "" && a.StudentID != filter.StudentID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if !filter.DueBefore.IsZero() && !a.DueAt.Before(filter.DueBefore) {
			continue
		}
		if !filter.CreatedFrom.IsZero() && a.CreatedAt.Before(filter.CreatedFrom.UTC()) {
			continue
		}
		if !filter.CreatedTo.IsZero() && !a.CreatedAt.Before(filter.CreatedTo.UTC()) {
			continue
		}
		as = append(as, *a)
	}
	sort.Slice(as, func(i, j int) bool { return as[i].DueAt.Before(as[j].DueAt) })
	return as, nil
}

func (repo *assignmentRepository) UpdateAssignmentStatus(id string, to assignment.Status, updatedAt time.Time) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	a, ok := repo.db.assignments[id]
	if !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	a.Status = to
	a.UpdatedAt = updatedAt
	return *a, nil
}

func (repo *assignmentRepository) CreateSubmission(sub assignment.Submission) (assignment.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, s := range repo.db.submissions {
		if s.AssignmentID == sub.AssignmentID && s.Version == sub.Version {
			return assignment.Submission{}, assignment.ErrVersionConflict
		}
	}
	sub.ID = uuid.New().String()
	repo.db.submissions[sub.ID] = &sub
	return sub, nil
}

func (repo *assignmentRepository) GetSubmissionByID(id string) (assignment.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sub, ok := repo.db.submissions[id]; ok {
		return *sub, nil
	}
	return assignment.Submission{}, assignment.ErrSubmissionNotFound
}

func (repo *assignmentRepository) QueryAssignmentSubmissions(assignmentID string) ([]assignment.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := make([]assignment.Submission, 0)
	for _, sub := range repo.db.submissions {
		if sub.AssignmentID == assignmentID {
			subs = append(subs, *sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Version < subs[j].Version })
	return subs, nil
}

func (repo *assignmentRepository) LatestSubmissionForStudent(studentID string) (assignment.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var latest *assignment.Submission
	for _, sub := range repo.db.submissions {
		if sub.StudentID != studentID {
			continue
		}
		if latest == nil || sub.CreatedAt.After(latest.CreatedAt) {
			latest = sub
		}
	}
	if latest == nil {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	return *latest, nil
}

func (repo *assignmentRepository) UpdateSubmissionReview(sub assignment.Submission) (assignment.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.submissions[sub.ID]
	if !ok {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	orig.Status = sub.Status
	orig.RubricScore = sub.RubricScore
	orig.Comment = sub.Comment
	orig.RequestedResubmit = sub.RequestedResubmit
	orig.ReviewedAt = sub.ReviewedAt
	orig.ReviewDurationSeconds = sub.ReviewDurationSeconds
	return *orig, nil
}
