package visibility

import (
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/audit"
)

var (
	// errors
	ErrNotFound     = core.NewNotFoundError("visibility setting not found")
	ErrInvalidScope = core.NewInvalidInputError("invalid visibility scope")
)

const actionUpdated = "VISIBILITY_UPDATED"

type (
	Repository interface {
		// GetSetting fails with ErrNotFound when no scope was set for the ref.
		GetSetting(entityRef string) (Setting, error)
		UpsertSetting(setting Setting) (Setting, error)
	}

	Service struct {
		repo  Repository
		audit *audit.Service
	}
)

func NewService(repo Repository, auditSvc *audit.Service) *Service {
	return &Service{repo: repo, audit: auditSvc}
}

// Resolve returns the stored scope for the ref, or DefaultScope when unset.
func (svc *Service) Resolve(entityRef string) (Scope, error) {
	setting, err := svc.repo.GetSetting(entityRef)
	if err != nil {
		if core.IsNotFound(err) {
			return DefaultScope, nil
		}
		return "", err
	}
	return setting.Scope, nil
}

// Allows resolves the ref's scope and checks it against the requester's role.
// List-style reads call this per item, after relationship authorization.
func (svc *Service) Allows(entityRef, role string) (bool, error) {
	scope, err := svc.Resolve(entityRef)
	if err != nil {
		return false, err
	}
	return ScopeAllows(scope, role), nil
}

// Set upserts the ref's scope and audits the change.
func (svc *Service) Set(actorID, entityRef string, scope Scope) (Setting, error) {
	if !scope.IsValid() {
		return Setting{}, ErrInvalidScope
	}
	setting, err := svc.repo.UpsertSetting(Setting{EntityRef: entityRef, Scope: scope})
	if err != nil {
		return Setting{}, err
	}
	// Keyed by the ref, not the row id: the setting row is an upsert target and
	// the trail should read as one history per ref.
	if _, err = svc.audit.Record(audit.Entry{
		ActorID:  null.StringFrom(actorID),
		Entity:   "Visibility",
		EntityID: setting.EntityRef,
		Action:   actionUpdated,
		Metadata: map[string]interface{}{"scope": string(scope)},
	}); err != nil {
		return Setting{}, err
	}
	return setting, nil
}
