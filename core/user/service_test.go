package user_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/audit"
	"github.com/trezcool/tutorhub/core/user"
	dummydb "github.com/trezcool/tutorhub/storage/database/dummy"
)

var now = time.Date(2021, 3, 1, 9, 0, 0, 0, time.UTC)

func newSvc(t *testing.T) *user.Service {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	auditSvc := audit.NewServiceMock(dummydb.NewAuditRepository(db), func() time.Time { return now })
	return user.NewServiceMock(dummydb.NewUserRepository(db), auditSvc, func() time.Time { return now })
}

func TestService_Register(t *testing.T) {
	svc := newSvc(t)

	usr, err := svc.Register(user.NewUser{
		Name:     "Sam Student",
		Email:    "sam@test.cm",
		Password: "s3cr3t-pwd",
		Role:     user.RoleStudent,
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.True(t, usr.IsActive)
	assert.True(t, usr.IsStudent())
	assert.NoError(t, usr.CheckPassword("s3cr3t-pwd"))
	assert.Error(t, usr.CheckPassword("wrong"))

	got, err := svc.GetByEmail("SAM@test.cm")
	assert.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)
}

func TestService_Register_duplicateEmail(t *testing.T) {
	svc := newSvc(t)

	nu := user.NewUser{Name: "Sam", Email: "sam@test.cm", Password: "s3cr3t-pwd", Role: user.RoleStudent}
	_, err := svc.Register(nu)
	assert.NoError(t, err)

	_, err = svc.Register(nu)
	assert.True(t, core.IsConflict(err))
}

func TestService_SetLastLogin(t *testing.T) {
	svc := newSvc(t)

	usr, err := svc.Register(user.NewUser{Name: "Sam", Email: "sam@test.cm", Password: "s3cr3t-pwd", Role: user.RoleStudent})
	assert.NoError(t, err)
	assert.True(t, usr.LastLogin.IsZero())

	usr, err = svc.SetLastLogin(usr)
	assert.NoError(t, err)
	assert.Equal(t, now, usr.LastLogin)
}

func TestService_GetByID_notFound(t *testing.T) {
	svc := newSvc(t)

	_, err := svc.GetByID("nope")
	assert.True(t, core.IsNotFound(err))
}
