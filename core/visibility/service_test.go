package visibility_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/audit"
	"github.com/trezcool/tutorhub/core/user"
	"github.com/trezcool/tutorhub/core/visibility"
	dummydb "github.com/trezcool/tutorhub/storage/database/dummy"
)

func newSvc(t *testing.T) (*visibility.Service, *audit.Service) {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	auditSvc := audit.NewServiceMock(dummydb.NewAuditRepository(db), func() time.Time { return time.Now() })
	return visibility.NewService(dummydb.NewVisibilityRepository(db), auditSvc), auditSvc
}

func TestScopeAllows(t *testing.T) {
	tests := []struct {
		scope visibility.Scope
		role  string
		want  bool
	}{
		{visibility.ScopeS, user.RoleStudent, true},
		{visibility.ScopeS, user.RoleParent, false},
		{visibility.ScopeS, user.RoleTutor, false},
		{visibility.ScopeSP, user.RoleStudent, true},
		{visibility.ScopeSP, user.RoleParent, true},
		{visibility.ScopeSP, user.RoleTutor, false},
		{visibility.ScopeST, user.RoleStudent, true},
		{visibility.ScopeST, user.RoleParent, false},
		{visibility.ScopeST, user.RoleTutor, true},
		{visibility.ScopeSPT, user.RoleStudent, true},
		{visibility.ScopeSPT, user.RoleParent, true},
		{visibility.ScopeSPT, user.RoleTutor, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.scope)+"/"+tt.role, func(t *testing.T) {
			assert.Equal(t, tt.want, visibility.ScopeAllows(tt.scope, tt.role))
		})
	}
}

func TestService_Resolve_defaultsToWidest(t *testing.T) {
	svc, _ := newSvc(t)

	scope, err := svc.Resolve("assignment:unknown")
	assert.NoError(t, err)
	assert.Equal(t, visibility.ScopeSPT, scope)
}

func TestService_Set(t *testing.T) {
	svc, auditSvc := newSvc(t)

	setting, err := svc.Set("tutor1", "assignment:a1", visibility.ScopeSP)
	assert.NoError(t, err)
	assert.Equal(t, visibility.ScopeSP, setting.Scope)

	scope, err := svc.Resolve("assignment:a1")
	assert.NoError(t, err)
	assert.Equal(t, visibility.ScopeSP, scope)

	// narrowing overwrites, no second row
	_, err = svc.Set("tutor1", "assignment:a1", visibility.ScopeS)
	assert.NoError(t, err)
	scope, err = svc.Resolve("assignment:a1")
	assert.NoError(t, err)
	assert.Equal(t, visibility.ScopeS, scope)

	entries, err := auditSvc.Filter(audit.QueryFilter{EntityID: "assignment:a1"})
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestService_Set_invalidScope(t *testing.T) {
	svc, _ := newSvc(t)

	_, err := svc.Set("tutor1", "assignment:a1", "SPX")
	assert.True(t, core.IsInvalidInput(err))
}

func TestService_Allows(t *testing.T) {
	svc, _ := newSvc(t)

	_, err := svc.Set("tutor1", "note:n1", visibility.ScopeST)
	assert.NoError(t, err)

	ok, err := svc.Allows("note:n1", user.RoleParent)
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Allows("note:n1", user.RoleTutor)
	assert.NoError(t, err)
	assert.True(t, ok)
}
