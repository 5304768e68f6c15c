package relation

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/audit"
	"github.com/trezcool/tutorhub/core/user"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("relationship not found")
	ErrTutorNotLinked     = core.NewForbiddenError("tutor not linked to student")
	ErrParentNotLinked    = core.NewForbiddenError("parent not linked to student")
	ErrOtherStudentAccess = core.NewForbiddenError("cannot access other students")
	ErrRoleNotAllowed     = core.NewForbiddenError("role not allowed")
)

// audit actions
const (
	actionGranted        = "RELATIONSHIP_GRANTED"
	actionConsentChanged = "RELATIONSHIP_CONSENT_CHANGED"
)

type (
	Repository interface {
		CreateRelationship(rel Relationship) (Relationship, error)
		GetRelationshipByID(id string) (Relationship, error)
		// FilterRelationships applies AND operation on available QueryFilter fields.
		FilterRelationships(filter QueryFilter) ([]Relationship, error)
		UpdateConsent(id string, consent bool) (Relationship, error)
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

// HasConsentedEdge reports whether at least one consented edge (typ, aUserID, bUserID)
// currently exists. The check always hits the store; consent revocation is
// reflected on the very next call.
func (svc *Service) HasConsentedEdge(aUserID, bUserID, typ string) (bool, error) {
	consented := true
	rels, err := svc.repo.FilterRelationships(QueryFilter{
		Type:    typ,
		AUserID: aUserID,
		BUserID: bUserID,
		Consent: &consented,
	})
	if err != nil {
		return false, err
	}
	return len(rels) > 0, nil
}

// AuthorizeTutorForStudent fails with Forbidden unless a consented
// Student-Tutor edge exists.
func (svc *Service) AuthorizeTutorForStudent(tutorID, studentID string) error {
	ok, err := svc.HasConsentedEdge(studentID, tutorID, TypeStudentTutor)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTutorNotLinked
	}
	return nil
}

// AuthorizeParentForStudent fails with Forbidden unless a consented
// Student-Parent edge exists.
func (svc *Service) AuthorizeParentForStudent(parentID, studentID string) error {
	ok, err := svc.HasConsentedEdge(studentID, parentID, TypeStudentParent)
	if err != nil {
		return err
	}
	if !ok {
		return ErrParentNotLinked
	}
	return nil
}

// AuthorizeVisibility gates read access to a student's data: students may only
// see themselves, parents and tutors need a consented edge.
func (svc *Service) AuthorizeVisibility(userID, role, studentID string) error {
	switch role {
	case user.RoleStudent:
		if userID != studentID {
			return ErrOtherStudentAccess
		}
		return nil
	case user.RoleTutor:
		return svc.AuthorizeTutorForStudent(userID, studentID)
	case user.RoleParent:
		return svc.AuthorizeParentForStudent(userID, studentID)
	default:
		return ErrRoleNotAllowed
	}
}

// ConsentedParentID returns the parent of a student's first consented
// Student-Parent edge, or ok=false when none exists.
func (svc *Service) ConsentedParentID(studentID string) (parentID string, ok bool, err error) {
	consented := true
	rels, err := svc.repo.FilterRelationships(QueryFilter{
		Type:    TypeStudentParent,
		AUserID: studentID,
		Consent: &consented,
	})
	if err != nil {
		return "", false, err
	}
	if len(rels) == 0 {
		return "", false, nil
	}
	return rels[0].BUserID, true, nil
}

// Grant creates a new consented edge.
func (svc *Service) Grant(actorID, aUserID, bUserID, typ string) (Relationship, error) {
	switch typ {
	case TypeStudentParent, TypeStudentTutor, TypeParentTutor:
	default:
		return Relationship{}, core.NewInvalidInputError("unsupported relationship type " + typ)
	}
	rel := Relationship{
		Type:      typ,
		AUserID:   aUserID,
		BUserID:   bUserID,
		Consent:   true,
		CreatedAt: svc.nowFn().UTC(),
	}
	rel, err := svc.repo.CreateRelationship(rel)
	if err != nil {
		return Relationship{}, err
	}
	if _, err = svc.audit.Record(audit.Entry{
		ActorID:  null.StringFrom(actorID),
		Entity:   "Relationship",
		EntityID: rel.ID,
		Action:   actionGranted,
		Metadata: map[string]interface{}{"type": typ, "a_user_id": aUserID, "b_user_id": bUserID},
	}); err != nil {
		return Relationship{}, err
	}
	return rel, nil
}

// SetConsent flips an edge's consent flag. The new value is authoritative for
// the next authorization check.
func (svc *Service) SetConsent(actorID, relationshipID string, consent bool) (Relationship, error) {
	rel, err := svc.repo.UpdateConsent(relationshipID, consent)
	if err != nil {
		return Relationship{}, err
	}
	if _, err = svc.audit.Record(audit.Entry{
		ActorID:  null.StringFrom(actorID),
		Entity:   "Relationship",
		EntityID: rel.ID,
		Action:   actionConsentChanged,
		Metadata: map[string]interface{}{"consent": consent},
	}); err != nil {
		return Relationship{}, err
	}
	return rel, nil
}

func (svc *Service) Filter(filter QueryFilter) ([]Relationship, error) {
	return svc.repo.FilterRelationships(filter)
}
