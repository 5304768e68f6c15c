package billing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/audit"
	"github.com/trezcool/tutorhub/core/billing"
	"github.com/trezcool/tutorhub/core/relation"
	"github.com/trezcool/tutorhub/core/session"
	"github.com/trezcool/tutorhub/core/user"
	dummydb "github.com/trezcool/tutorhub/storage/database/dummy"
	testutil "github.com/trezcool/tutorhub/tests"
)

var (
	now  = time.Date(2021, 3, 20, 9, 0, 0, 0, time.UTC)
	conf = &core.Config{Billing: core.BillingConfig{TuitionRatePerMinute: 1.2, MaterialsFee: 10}}
)

type fixture struct {
	db       *dummydb.DB
	svc      *billing.Service
	sessRepo session.Repository
	parent   user.User
	tutor    user.User
	kids     []user.User
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	nowFn := func() time.Time { return now }

	auditSvc := audit.NewServiceMock(dummydb.NewAuditRepository(db), nowFn)
	relSvc := relation.NewServiceMock(dummydb.NewRelationRepository(db), auditSvc, nowFn)
	sessRepo := dummydb.NewSessionRepository(db)
	sessSvc := session.NewServiceMock(sessRepo, relSvc, auditSvc, nowFn)

	f := &fixture{
		db:       db,
		svc:      billing.NewServiceMock(dummydb.NewBillingRepository(db), relSvc, sessSvc, auditSvc, conf, nowFn),
		sessRepo: sessRepo,
	}

	usrRepo := dummydb.NewUserRepository(db)
	relRepo := dummydb.NewRelationRepository(db)
	f.parent = testutil.CreateUser(t, usrRepo, "Pat Parent", "pat@test.cm", "", user.RoleParent)
	f.tutor = testutil.CreateUser(t, usrRepo, "Tim Tutor", "tim@test.cm", "", user.RoleTutor)
	for _, nm := range []struct{ name, email string }{
		{"Kid One", "kid1@test.cm"},
		{"Kid Two", "kid2@test.cm"},
	} {
		kid := testutil.CreateUser(t, usrRepo, nm.name, nm.email, "", user.RoleStudent)
		testutil.LinkUsers(t, relRepo, relation.TypeStudentParent, kid.ID, f.parent.ID, true)
		testutil.LinkUsers(t, relRepo, relation.TypeStudentTutor, kid.ID, f.tutor.ID, true)
		f.kids = append(f.kids, kid)
	}
	return f
}

func (f *fixture) logMinutes(t *testing.T, studentID string, day time.Time, minutes int) {
	t.Helper()
	start := day.Add(14 * time.Hour)
	_, err := f.sessRepo.CreateAttendanceLog(session.AttendanceLog{
		EventID:     "ev-" + studentID,
		SessionDate: day,
		StartTs:     start,
		EndTs:       start.Add(time.Duration(minutes) * time.Minute),
		Minutes:     minutes,
		StudentID:   studentID,
		TutorID:     f.tutor.ID,
		CreatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateAttendanceLog() failed: %v", err)
	}
}

func TestService_Issue_tuitionLines(t *testing.T) {
	f := setup(t)
	f.logMinutes(t, f.kids[0].ID, time.Date(2021, 3, 2, 0, 0, 0, 0, time.UTC), 60)
	f.logMinutes(t, f.kids[1].ID, time.Date(2021, 3, 9, 0, 0, 0, 0, time.UTC), 90)
	// outside the period, never billed
	f.logMinutes(t, f.kids[0].ID, time.Date(2021, 4, 2, 0, 0, 0, 0, time.UTC), 45)

	inv, err := f.svc.Issue(f.tutor.ID, billing.NewInvoice{ParentID: f.parent.ID, Period: "2021-03"})
	assert.NoError(t, err)
	assert.Equal(t, billing.StatusIssued, inv.Status)
	assert.Len(t, inv.LineItems, 2)
	for _, it := range inv.LineItems {
		assert.Equal(t, billing.LineTuition, it.Type)
	}
	// (60 + 90) minutes at 1.2
	assert.Equal(t, 180.0, inv.Total)
}

func TestService_Issue_materialsFallback(t *testing.T) {
	f := setup(t)

	inv, err := f.svc.Issue(f.tutor.ID, billing.NewInvoice{ParentID: f.parent.ID, Period: "2021-03"})
	assert.NoError(t, err)
	assert.Len(t, inv.LineItems, 1)
	assert.Equal(t, billing.LineMaterials, inv.LineItems[0].Type)
	assert.Equal(t, 10.0, inv.Total)
}

func TestService_Issue_invalidPeriod(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Issue(f.tutor.ID, billing.NewInvoice{ParentID: f.parent.ID, Period: "03-2021"})
	assert.True(t, core.IsInvalidInput(err))
}

func TestService_Get_parentOwnOnly(t *testing.T) {
	f := setup(t)

	inv, err := f.svc.Issue(f.tutor.ID, billing.NewInvoice{ParentID: f.parent.ID, Period: "2021-03"})
	assert.NoError(t, err)

	got, err := f.svc.Get(f.parent, inv.ID)
	assert.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)

	other := user.User{ID: "other-parent", Role: user.RoleParent}
	_, err = f.svc.Get(other, inv.ID)
	assert.True(t, core.IsForbidden(err))

	// the issuing tutor may read it
	_, err = f.svc.Get(f.tutor, inv.ID)
	assert.NoError(t, err)
}

func TestService_QueryByParent(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Issue(f.tutor.ID, billing.NewInvoice{ParentID: f.parent.ID, Period: "2021-02"})
	assert.NoError(t, err)
	_, err = f.svc.Issue(f.tutor.ID, billing.NewInvoice{ParentID: f.parent.ID, Period: "2021-03"})
	assert.NoError(t, err)

	invs, err := f.svc.QueryByParent(f.parent.ID)
	assert.NoError(t, err)
	assert.Len(t, invs, 2)
}
