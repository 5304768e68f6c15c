package user

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/audit"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("user not found")
	ErrEmailExists     = core.NewConflictError("a user with this email already exists")
	ErrUnsupportedRole = core.NewInvalidInputError("unsupported role")
)

// audit actions
const (
	actionRegister = "REGISTER"
	actionLogin    = "LOGIN"
)

type (
	Repository interface {
		// CreateUser fails with ErrEmailExists when the email is taken.
		CreateUser(usr User) (User, error)
		GetUserByID(id string) (User, error)
		GetUserByEmail(email string) (User, error)
		QueryAllUsers() ([]User, error)
		SetLastLogin(usr User) (User, error)
	}

	Service struct {
		repo  Repository
		audit *audit.Service
		nowFn func() time.Time
	}
)

func NewService(repo Repository, auditSvc *audit.Service) *Service {
	return &Service{repo: repo, audit: auditSvc, nowFn: time.Now}
}

// NewServiceMock returns a Service with a caller-controlled clock. For tests.
func NewServiceMock(repo Repository, auditSvc *audit.Service, nowFn func() time.Time) *Service {
	return &Service{repo: repo, audit: auditSvc, nowFn: nowFn}
}

func (svc *Service) Register(nu NewUser) (User, error) {
	switch nu.Role {
	case RoleStudent, RoleParent, RoleTutor:
	default:
		return User{}, ErrUnsupportedRole
	}

	now := svc.nowFn().UTC()
	usr := User{
		Name:      core.CleanString(nu.Name),
		Email:     core.CleanString(nu.Email, true /* lower */),
		Role:      nu.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	usr, err := svc.repo.CreateUser(usr)
	if err != nil {
		return User{}, err
	}
	if _, err = svc.audit.Record(audit.Entry{
		ActorID:  null.StringFrom(usr.ID),
		Entity:   "User",
		EntityID: usr.ID,
		Action:   actionRegister,
		Metadata: map[string]interface{}{"role": usr.Role},
	}); err != nil {
		return User{}, err
	}
	return usr, nil
}

func (svc *Service) GetByID(id string) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUserByEmail(core.CleanString(email, true /* lower */))
}

func (svc *Service) QueryAll() ([]User, error) {
	return svc.repo.QueryAllUsers()
}

// SetLastLogin stamps a successful authentication and audits it.
func (svc *Service) SetLastLogin(usr User) (User, error) {
	usr.LastLogin = svc.nowFn().UTC()
	usr, err := svc.repo.SetLastLogin(usr)
	if err != nil {
		return User{}, err
	}
	if _, err = svc.audit.Record(audit.Entry{
		ActorID:  null.StringFrom(usr.ID),
		Entity:   "User",
		EntityID: usr.ID,
		Action:   actionLogin,
	}); err != nil {
		return User{}, err
	}
	return usr, nil
}
