package assignment_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/assignment"
	"github.com/trezcool/tutorhub/core/audit"
	"github.com/trezcool/tutorhub/core/relation"
	"github.com/trezcool/tutorhub/core/user"
	"github.com/trezcool/tutorhub/core/visibility"
	dummydb "github.com/trezcool/tutorhub/storage/database/dummy"
	testutil "github.com/trezcool/tutorhub/tests"
)

var now = time.Date(2021, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db        *dummydb.DB
	svc       *assignment.Service
	auditSvc  *audit.Service
	relSvc    *relation.Service
	visSvc    *visibility.Service
	student   user.User
	parent    user.User
	tutor     user.User
	nowFn     func() time.Time
	clockTime time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	f := &fixture{db: db, clockTime: now}
	f.nowFn = func() time.Time { return f.clockTime }

	f.auditSvc = audit.NewServiceMock(dummydb.NewAuditRepository(db), f.nowFn)
	f.relSvc = relation.NewServiceMock(dummydb.NewRelationRepository(db), f.auditSvc, f.nowFn)
	f.visSvc = visibility.NewService(dummydb.NewVisibilityRepository(db), f.auditSvc)
	f.svc = assignment.NewServiceMock(dummydb.NewAssignmentRepository(db), f.relSvc, f.visSvc, f.auditSvc, f.nowFn)

	usrRepo := dummydb.NewUserRepository(db)
	f.student = testutil.CreateUser(t, usrRepo, "Sam Student", "sam@test.cm", "", user.RoleStudent)
	f.parent = testutil.CreateUser(t, usrRepo, "Pat Parent", "pat@test.cm", "", user.RoleParent)
	f.tutor = testutil.CreateUser(t, usrRepo, "Tim Tutor", "tim@test.cm", "", user.RoleTutor)
	testutil.LinkUsers(t, dummydb.NewRelationRepository(db), relation.TypeStudentTutor, f.student.ID, f.tutor.ID, true)
	testutil.LinkUsers(t, dummydb.NewRelationRepository(db), relation.TypeStudentParent, f.student.ID, f.parent.ID, true)
	return f
}

func (f *fixture) create(t *testing.T, scope visibility.Scope) assignment.Assignment {
	t.Helper()
	a, err := f.svc.Create(f.tutor.ID, assignment.NewAssignment{
		StudentID:  f.student.ID,
		Title:      "Fractions drill",
		Goal:       "master adding fractions",
		Difficulty: "M",
		DueAt:      now.Add(72 * time.Hour),
		Scope:      scope,
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	return a
}

func (f *fixture) submit(t *testing.T, assignmentID string) assignment.Submission {
	t.Helper()
	sub, err := f.svc.Submit(f.student.ID, assignment.NewSubmission{
		AssignmentID: assignmentID,
		Files:        []assignment.File{{Name: "work.pdf", Mime: "application/pdf", URL: "https://files.test.cm/work.pdf"}},
		CoverMeta:    assignment.CoverMeta{Unit: "fractions"},
	})
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	return sub
}

func TestService_Create(t *testing.T) {
	f := setup(t)

	a := f.create(t, "")
	assert.Equal(t, assignment.StatusOpen, a.Status)

	// default scope is the widest
	scope, err := f.visSvc.Resolve(a.Ref())
	assert.NoError(t, err)
	assert.Equal(t, visibility.ScopeSPT, scope)
}

func TestService_Create_requiresConsentedEdge(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Create(f.tutor.ID, assignment.NewAssignment{
		StudentID:  "stranger",
		Title:      "t",
		Goal:       "g",
		Difficulty: "E",
		DueAt:      now.Add(time.Hour),
	})
	assert.True(t, core.IsForbidden(err))
}

func TestService_Submit_versionsIncrement(t *testing.T) {
	f := setup(t)
	a := f.create(t, "")

	sub1 := f.submit(t, a.ID)
	assert.Equal(t, 1, sub1.Version)
	assert.Equal(t, assignment.SubmissionSubmitted, sub1.Status)

	a, err := f.svc.GetByID(a.ID)
	assert.NoError(t, err)
	assert.Equal(t, assignment.StatusSubmitted, a.Status)
}

func TestService_Submit_versionRaceSurfacesConflict(t *testing.T) {
	f := setup(t)
	a := f.create(t, "")
	sub := f.submit(t, a.ID)

	// a concurrent writer taking the same (assignment, version) pair loses
	repo := dummydb.NewAssignmentRepository(f.db)
	_, err := repo.CreateSubmission(assignment.Submission{
		AssignmentID: a.ID,
		StudentID:    f.student.ID,
		Version:      sub.Version,
		Files:        sub.Files,
		CoverMeta:    sub.CoverMeta,
		Status:       assignment.SubmissionSubmitted,
		CreatedAt:    f.clockTime,
	})
	assert.True(t, core.IsConflict(err))
}

func TestService_Submit_otherStudent(t *testing.T) {
	f := setup(t)
	a := f.create(t, "")

	_, err := f.svc.Submit("stranger", assignment.NewSubmission{
		AssignmentID: a.ID,
		Files:        []assignment.File{{Name: "work.pdf", Mime: "application/pdf", URL: "https://files.test.cm/work.pdf"}},
		CoverMeta:    assignment.CoverMeta{Unit: "fractions"},
	})
	assert.True(t, core.IsForbidden(err))
}

func TestService_Submit_rejectsUnsupportedFileType(t *testing.T) {
	f := setup(t)
	a := f.create(t, "")

	_, err := f.svc.Submit(f.student.ID, assignment.NewSubmission{
		AssignmentID: a.ID,
		Files:        []assignment.File{{Name: "work.exe", Mime: "application/octet-stream", URL: "https://files.test.cm/work.exe"}},
		CoverMeta:    assignment.CoverMeta{Unit: "fractions"},
	})
	assert.True(t, core.IsInvalidInput(err))
}

func TestService_SetStatus_idempotent(t *testing.T) {
	f := setup(t)
	a := f.create(t, "")
	f.submit(t, a.ID)

	before, err := f.auditSvc.Filter(audit.QueryFilter{EntityID: a.ID})
	assert.NoError(t, err)

	// same target status writes nothing
	a2, err := f.svc.SetStatus(a.ID, assignment.StatusSubmitted, f.tutor.ID)
	assert.NoError(t, err)
	assert.Equal(t, assignment.StatusSubmitted, a2.Status)

	after, err := f.auditSvc.Filter(audit.QueryFilter{EntityID: a.ID})
	assert.NoError(t, err)
	assert.Len(t, after, len(before))
}

func TestService_SetStatus_illegalTransition(t *testing.T) {
	f := setup(t)
	a := f.create(t, "")

	_, err := f.svc.SetStatus(a.ID, assignment.StatusFinalized, f.tutor.ID)
	assert.True(t, core.IsInvalidState(err))
}

func TestService_Review_requestResubmit(t *testing.T) {
	f := setup(t)
	a := f.create(t, "")
	sub := f.submit(t, a.ID)

	reviewed, err := f.svc.Review(f.tutor.ID, sub.ID, assignment.ReviewSubmission{
		RubricScore:  map[string]interface{}{"accuracy": 2},
		Comment:      "show your steps",
		ResubmitFlag: true,
	})
	assert.NoError(t, err)
	assert.Equal(t, assignment.SubmissionNeedsResubmit, reviewed.Status)
	assert.True(t, reviewed.ReviewedAt.Valid)

	a, err = f.svc.GetByID(a.ID)
	assert.NoError(t, err)
	assert.Equal(t, assignment.StatusReviewed, a.Status)
}

func TestService_Review_approveFirstVersionDoesNotFinalize(t *testing.T) {
	f := setup(t)
	a := f.create(t, "")
	sub := f.submit(t, a.ID)

	reviewed, err := f.svc.Review(f.tutor.ID, sub.ID, assignment.ReviewSubmission{
		RubricScore: map[string]interface{}{"accuracy": 4},
	})
	assert.NoError(t, err)
	assert.Equal(t, assignment.SubmissionApproved, reviewed.Status)

	a, err = f.svc.GetByID(a.ID)
	assert.NoError(t, err)
	assert.Equal(t, assignment.StatusReviewed, a.Status)
}

func TestService_Review_onlyOnce(t *testing.T) {
	f := setup(t)
	a := f.create(t, "")
	sub := f.submit(t, a.ID)

	_, err := f.svc.Review(f.tutor.ID, sub.ID, assignment.ReviewSubmission{RubricScore: map[string]interface{}{"accuracy": 3}})
	assert.NoError(t, err)

	_, err = f.svc.Review(f.tutor.ID, sub.ID, assignment.ReviewSubmission{RubricScore: map[string]interface{}{"accuracy": 5}})
	assert.True(t, core.IsInvalidState(err))
}

func TestService_Resubmit_fullCycle(t *testing.T) {
	f := setup(t)
	a := f.create(t, "")
	sub1 := f.submit(t, a.ID)

	_, err := f.svc.Review(f.tutor.ID, sub1.ID, assignment.ReviewSubmission{
		RubricScore:  map[string]interface{}{"accuracy": 2},
		ResubmitFlag: true,
	})
	assert.NoError(t, err)

	sub2, err := f.svc.Resubmit(f.student.ID, sub1.ID, assignment.Resubmission{})
	assert.NoError(t, err)
	assert.Equal(t, 2, sub2.Version)
	// prior files and cover carry over
	assert.Equal(t, sub1.Files, sub2.Files)
	assert.Equal(t, sub1.CoverMeta, sub2.CoverMeta)

	a, err = f.svc.GetByID(a.ID)
	assert.NoError(t, err)
	assert.Equal(t, assignment.StatusResubmitted, a.Status)

	// an approval on a later version finalizes
	reviewed, err := f.svc.Review(f.tutor.ID, sub2.ID, assignment.ReviewSubmission{
		RubricScore: map[string]interface{}{"accuracy": 5},
	})
	assert.NoError(t, err)
	assert.Equal(t, assignment.SubmissionApproved, reviewed.Status)

	a, err = f.svc.GetByID(a.ID)
	assert.NoError(t, err)
	assert.Equal(t, assignment.StatusFinalized, a.Status)
}

func TestService_Resubmit_requiresFlag(t *testing.T) {
	f := setup(t)
	a := f.create(t, "")
	sub := f.submit(t, a.ID)

	_, err := f.svc.Resubmit(f.student.ID, sub.ID, assignment.Resubmission{})
	assert.True(t, core.IsInvalidState(err))
}

func TestService_QueryByStudent_scopeFiltering(t *testing.T) {
	f := setup(t)
	f.create(t, visibility.ScopeS)
	f.create(t, visibility.ScopeSP)
	f.create(t, visibility.ScopeSPT)

	// the student sees everything
	res, err := f.svc.QueryByStudent(f.student, f.student.ID)
	assert.NoError(t, err)
	assert.Len(t, res, 3)

	// the parent only sees SP and SPT
	res, err = f.svc.QueryByStudent(f.parent, f.student.ID)
	assert.NoError(t, err)
	assert.Len(t, res, 2)

	// the tutor only sees SPT
	res, err = f.svc.QueryByStudent(f.tutor, f.student.ID)
	assert.NoError(t, err)
	assert.Len(t, res, 1)
}
