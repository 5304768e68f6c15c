package testutil

import (
	"testing"
	"time"

	"github.com/trezcool/tutorhub/core/relation"
	"github.com/trezcool/tutorhub/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  true,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func LinkUsers(
	t *testing.T,
	repo relation.Repository,
	typ, aUserID, bUserID string,
	consent bool,
) relation.Relationship {
	rel, err := repo.CreateRelationship(relation.Relationship{
		Type:      typ,
		AUserID:   aUserID,
		BUserID:   bUserID,
		Consent:   consent,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("LinkUsers() failed: %v", err)
	}
	return rel
}
