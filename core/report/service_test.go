package report_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/assignment"
	"github.com/trezcool/tutorhub/core/audit"
	"github.com/trezcool/tutorhub/core/relation"
	"github.com/trezcool/tutorhub/core/report"
	"github.com/trezcool/tutorhub/core/session"
	"github.com/trezcool/tutorhub/core/user"
	"github.com/trezcool/tutorhub/core/visibility"
	emailsvc "github.com/trezcool/tutorhub/services/email"
	dummydb "github.com/trezcool/tutorhub/storage/database/dummy"
	testutil "github.com/trezcool/tutorhub/tests"
)

var (
	now  = time.Date(2021, 3, 20, 9, 0, 0, 0, time.UTC)
	conf = &core.Config{AppName: "TutorHub"}
)

type fixture struct {
	db        *dummydb.DB
	svc       *report.Service
	assignSvc *assignment.Service
	sessSvc   *session.Service
	sessRepo  session.Repository
	student   user.User
	parent    user.User
	tutor     user.User
	clockTime time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	f := &fixture{db: db, clockTime: now}
	nowFn := func() time.Time { return f.clockTime }

	auditSvc := audit.NewServiceMock(dummydb.NewAuditRepository(db), nowFn)
	relSvc := relation.NewServiceMock(dummydb.NewRelationRepository(db), auditSvc, nowFn)
	visSvc := visibility.NewService(dummydb.NewVisibilityRepository(db), auditSvc)
	usrSvc := user.NewServiceMock(dummydb.NewUserRepository(db), auditSvc, nowFn)
	f.assignSvc = assignment.NewServiceMock(dummydb.NewAssignmentRepository(db), relSvc, visSvc, auditSvc, nowFn)
	f.sessRepo = dummydb.NewSessionRepository(db)
	f.sessSvc = session.NewServiceMock(f.sessRepo, relSvc, auditSvc, nowFn)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	f.svc = report.NewServiceMock(
		dummydb.NewReportRepository(db), relSvc, usrSvc, f.assignSvc, f.sessSvc, auditSvc, mailSvc, nowFn)

	usrRepo := dummydb.NewUserRepository(db)
	relRepo := dummydb.NewRelationRepository(db)
	f.student = testutil.CreateUser(t, usrRepo, "Sam Student", "sam@test.cm", "", user.RoleStudent)
	f.parent = testutil.CreateUser(t, usrRepo, "Pat Parent", "pat@test.cm", "", user.RoleParent)
	f.tutor = testutil.CreateUser(t, usrRepo, "Tim Tutor", "tim@test.cm", "", user.RoleTutor)
	testutil.LinkUsers(t, relRepo, relation.TypeStudentTutor, f.student.ID, f.tutor.ID, true)
	testutil.LinkUsers(t, relRepo, relation.TypeStudentParent, f.student.ID, f.parent.ID, true)
	return f
}

func (f *fixture) finalizeAssignment(t *testing.T) {
	t.Helper()
	a, err := f.assignSvc.Create(f.tutor.ID, assignment.NewAssignment{
		StudentID:  f.student.ID,
		Title:      "Essay",
		Goal:       "structure an argument",
		Difficulty: "M",
		DueAt:      now.Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	sub, err := f.assignSvc.Submit(f.student.ID, assignment.NewSubmission{
		AssignmentID: a.ID,
		Files:        []assignment.File{{Name: "essay.pdf", Mime: "application/pdf", URL: "https://files.test.cm/essay.pdf"}},
		CoverMeta:    assignment.CoverMeta{Unit: "essays"},
	})
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if _, err = f.assignSvc.Review(f.tutor.ID, sub.ID, assignment.ReviewSubmission{
		RubricScore:  map[string]interface{}{"structure": 2},
		ResubmitFlag: true,
	}); err != nil {
		t.Fatalf("Review() failed: %v", err)
	}
	sub2, err := f.assignSvc.Resubmit(f.student.ID, sub.ID, assignment.Resubmission{})
	if err != nil {
		t.Fatalf("Resubmit() failed: %v", err)
	}
	if _, err = f.assignSvc.Review(f.tutor.ID, sub2.ID, assignment.ReviewSubmission{
		RubricScore: map[string]interface{}{"structure": 5},
	}); err != nil {
		t.Fatalf("Review() failed: %v", err)
	}
}

func (f *fixture) logMinutes(t *testing.T, day time.Time, minutes int) {
	t.Helper()
	start := day.Add(14 * time.Hour)
	_, err := f.sessRepo.CreateAttendanceLog(session.AttendanceLog{
		EventID:     "ev-1",
		SessionDate: day,
		StartTs:     start,
		EndTs:       start.Add(time.Duration(minutes) * time.Minute),
		Minutes:     minutes,
		StudentID:   f.student.ID,
		TutorID:     f.tutor.ID,
		CreatedAt:   f.clockTime,
	})
	if err != nil {
		t.Fatalf("CreateAttendanceLog() failed: %v", err)
	}
}

func TestService_Issue(t *testing.T) {
	f := setup(t)
	f.finalizeAssignment(t)
	f.logMinutes(t, time.Date(2021, 3, 2, 0, 0, 0, 0, time.UTC), 60)
	f.logMinutes(t, time.Date(2021, 3, 9, 0, 0, 0, 0, time.UTC), 45)

	rep, err := f.svc.Issue(f.tutor, report.NewReport{StudentID: f.student.ID, Period: "2021-03"})
	assert.NoError(t, err)
	assert.Equal(t, 1, rep.KPIs.AssignmentsFinalized)
	assert.Equal(t, 2, rep.KPIs.SubmissionsMade)
	assert.Equal(t, 105, rep.KPIs.AttendanceMinutes)
}

func TestService_Issue_unlinkedStudent(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Issue(f.tutor, report.NewReport{StudentID: "stranger", Period: "2021-03"})
	assert.True(t, core.IsForbidden(err))
}

func TestService_QueryByStudent(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Issue(f.tutor, report.NewReport{StudentID: f.student.ID, Period: "2021-03"})
	assert.NoError(t, err)

	reps, err := f.svc.QueryByStudent(f.parent, f.student.ID)
	assert.NoError(t, err)
	assert.Len(t, reps, 1)

	stranger := user.User{ID: "x", Role: user.RoleParent}
	_, err = f.svc.QueryByStudent(stranger, f.student.ID)
	assert.True(t, core.IsForbidden(err))
}

func TestService_BuildDigest(t *testing.T) {
	f := setup(t)

	// due within 48h, not finalized
	_, err := f.assignSvc.Create(f.tutor.ID, assignment.NewAssignment{
		StudentID:  f.student.ID,
		Title:      "Quiz prep",
		Goal:       "revise chapter 3",
		Difficulty: "E",
		DueAt:      now.Add(24 * time.Hour),
	})
	assert.NoError(t, err)

	f.logMinutes(t, time.Date(2021, 3, 19, 0, 0, 0, 0, time.UTC), 60)

	_, _, err = f.sessSvc.CreateNote(f.tutor.ID, session.NewNote{
		StudentID:   f.student.ID,
		Date:        now,
		Summary:     "good progress",
		NextActions: []string{"revise chapter 3", "practice quiz"},
		Scope:       visibility.ScopeSPT,
	})
	assert.NoError(t, err)

	digest, err := f.svc.BuildDigest(f.parent, f.student.ID)
	assert.NoError(t, err)
	assert.Len(t, digest.Risks.DueSoon, 1)
	assert.Len(t, digest.Risks.UnsignedAttendance, 1)
	if assert.NotNil(t, digest.Next.NextDue) {
		assert.Equal(t, "Quiz prep", digest.Next.NextDue.Title)
	}
	if assert.NotNil(t, digest.Highlights.LatestNote) {
		assert.Equal(t, "good progress", digest.Highlights.LatestNote.Summary)
	}
	assert.Equal(t, []string{"revise chapter 3", "practice quiz"}, digest.Next.Checklist)
}

func TestService_Encourage(t *testing.T) {
	f := setup(t)

	err := f.svc.Encourage(f.parent, report.Encouragement{StudentID: f.student.ID, TemplateID: "keep_going"})
	assert.NoError(t, err)

	var found bool
	for _, msg := range emailsvc.SentMessages {
		for _, to := range msg.To {
			if to.Address == f.student.Email {
				found = true
			}
		}
	}
	assert.True(t, found)
}

func TestService_Encourage_unknownTemplate(t *testing.T) {
	f := setup(t)

	err := f.svc.Encourage(f.parent, report.Encouragement{StudentID: f.student.ID, TemplateID: "nope"})
	assert.True(t, core.IsInvalidInput(err))
}
