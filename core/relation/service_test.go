package relation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/audit"
	"github.com/trezcool/tutorhub/core/relation"
	"github.com/trezcool/tutorhub/core/user"
	dummydb "github.com/trezcool/tutorhub/storage/database/dummy"
	testutil "github.com/trezcool/tutorhub/tests"
)

var now = time.Date(2021, 3, 1, 9, 0, 0, 0, time.UTC)

func newSvc(t *testing.T) (*relation.Service, *dummydb.DB) {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	auditSvc := audit.NewServiceMock(dummydb.NewAuditRepository(db), func() time.Time { return now })
	return relation.NewServiceMock(dummydb.NewRelationRepository(db), auditSvc, func() time.Time { return now }), db
}

func users(t *testing.T, db *dummydb.DB) (student, parent, tutor user.User) {
	t.Helper()
	repo := dummydb.NewUserRepository(db)
	student = testutil.CreateUser(t, repo, "Sam Student", "sam@test.cm", "", user.RoleStudent)
	parent = testutil.CreateUser(t, repo, "Pat Parent", "pat@test.cm", "", user.RoleParent)
	tutor = testutil.CreateUser(t, repo, "Tim Tutor", "tim@test.cm", "", user.RoleTutor)
	return
}

func TestService_Grant(t *testing.T) {
	svc, db := newSvc(t)
	student, _, tutor := users(t, db)

	rel, err := svc.Grant(tutor.ID, student.ID, tutor.ID, relation.TypeStudentTutor)
	assert.NoError(t, err)
	assert.True(t, rel.Consent)

	assert.NoError(t, svc.AuthorizeTutorForStudent(tutor.ID, student.ID))
}

func TestService_Grant_unsupportedType(t *testing.T) {
	svc, db := newSvc(t)
	student, _, tutor := users(t, db)

	_, err := svc.Grant(tutor.ID, student.ID, tutor.ID, "S-X")
	assert.True(t, core.IsInvalidInput(err))
}

func TestService_SetConsent_revokesOnNextCheck(t *testing.T) {
	svc, db := newSvc(t)
	student, parent, _ := users(t, db)

	rel, err := svc.Grant(parent.ID, student.ID, parent.ID, relation.TypeStudentParent)
	assert.NoError(t, err)
	assert.NoError(t, svc.AuthorizeParentForStudent(parent.ID, student.ID))

	_, err = svc.SetConsent(parent.ID, rel.ID, false)
	assert.NoError(t, err)

	err = svc.AuthorizeParentForStudent(parent.ID, student.ID)
	assert.True(t, core.IsForbidden(err))

	// re-consent restores access
	_, err = svc.SetConsent(parent.ID, rel.ID, true)
	assert.NoError(t, err)
	assert.NoError(t, svc.AuthorizeParentForStudent(parent.ID, student.ID))
}

func TestService_AuthorizeVisibility(t *testing.T) {
	svc, db := newSvc(t)
	student, parent, tutor := users(t, db)

	// students only see themselves
	assert.NoError(t, svc.AuthorizeVisibility(student.ID, student.Role, student.ID))
	err := svc.AuthorizeVisibility(student.ID, student.Role, "someone-else")
	assert.True(t, core.IsForbidden(err))

	// no edge, no access
	err = svc.AuthorizeVisibility(tutor.ID, tutor.Role, student.ID)
	assert.True(t, core.IsForbidden(err))
	err = svc.AuthorizeVisibility(parent.ID, parent.Role, student.ID)
	assert.True(t, core.IsForbidden(err))

	_, err = svc.Grant(tutor.ID, student.ID, tutor.ID, relation.TypeStudentTutor)
	assert.NoError(t, err)
	assert.NoError(t, svc.AuthorizeVisibility(tutor.ID, tutor.Role, student.ID))
}

func TestService_ConsentedParentID(t *testing.T) {
	svc, db := newSvc(t)
	student, parent, _ := users(t, db)

	_, ok, err := svc.ConsentedParentID(student.ID)
	assert.NoError(t, err)
	assert.False(t, ok)

	rel, err := svc.Grant(parent.ID, student.ID, parent.ID, relation.TypeStudentParent)
	assert.NoError(t, err)

	pid, ok, err := svc.ConsentedParentID(student.ID)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, parent.ID, pid)

	_, err = svc.SetConsent(parent.ID, rel.ID, false)
	assert.NoError(t, err)
	_, ok, err = svc.ConsentedParentID(student.ID)
	assert.NoError(t, err)
	assert.False(t, ok)
}
