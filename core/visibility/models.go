package visibility

import (
	"github.com/trezcool/tutorhub/core/user"
)

// Scope is the visibility breadth attached to an entity, ordered S ⊂ {SP, ST} ⊂ SPT.
type Scope string

const (
	ScopeS   Scope = "S"
	ScopeSP  Scope = "SP"
	ScopeST  Scope = "ST"
	ScopeSPT Scope = "SPT"
)

// DefaultScope applies when no scope was ever set for an entity ref.
const DefaultScope = ScopeSPT

func (s Scope) IsValid() bool {
	switch s {
	case ScopeS, ScopeSP, ScopeST, ScopeSPT:
		return true
	}
	return false
}

// ScopeAllows reports whether a role may read an entity carrying the given scope.
// The student always sees their own data; parent and tutor only on the widened scopes.
func ScopeAllows(scope Scope, role string) bool {
	switch role {
	case user.RoleStudent:
		return scope.IsValid()
	case user.RoleParent:
		return scope == ScopeSP || scope == ScopeSPT
	case user.RoleTutor:
		return scope == ScopeST || scope == ScopeSPT
	default:
		return false
	}
}

// Setting maps one entity ref to its scope. One scope per ref, upsertable.
type Setting struct {
	ID        string `json:"id"`
	EntityRef string `json:"entity_ref"`
	Scope     Scope  `json:"scope"`
}
