package sqlxrepos

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/tutorhub/core/relation"
)

type relationRepository struct {
	db *sqlx.DB
}

var _ relation.Repository = (*relationRepository)(nil) // interface compliance check

func NewRelationRepository(db *sqlx.DB) relation.Repository {
	return &relationRepository{db: db}
}

type relationRow struct {
	ID        string    `db:"id"`
	Type      string    `db:"type"`
	AUserID   string    `db:"a_user_id"`
	BUserID   string    `db:"b_user_id"`
	Consent   bool      `db:"consent"`
	CreatedAt time.Time `db:"created_at"`
}

func (row relationRow) model() relation.Relationship {
	return relation.Relationship{
		ID:        row.ID,
		Type:      row.Type,
		AUserID:   row.AUserID,
		BUserID:   row.BUserID,
		Consent:   row.Consent,
		CreatedAt: row.CreatedAt,
	}
}

const relationColumns = `id, type, a_user_id, b_user_id, consent, created_at`

func (repo *relationRepository) CreateRelationship(rel relation.Relationship) (relation.Relationship, error) {
	row := relationRow{}
	err := repo.db.Get(&row, `
		INSERT INTO relationship (type, a_user_id, b_user_id, consent, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+relationColumns,
		rel.Type, rel.AUserID, rel.BUserID, rel.Consent, rel.CreatedAt,
	)
	if err != nil {
		return relation.Relationship{}, err
	}
	return row.model(), nil
}

func (repo *relationRepository) GetRelationshipByID(id string) (relation.Relationship, error) {
	row := relationRow{}
	if err := repo.db.Get(&row, `SELECT `+relationColumns+` FROM relationship WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return relation.Relationship{}, relation.ErrNotFound
		}
		return relation.Relationship{}, err
	}
	return row.model(), nil
}

func (repo *relationRepository) FilterRelationships(filter relation.QueryFilter) ([]relation.Relationship, error) {
	where := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Type != "" {
		where = append(where, "type = "+arg(filter.Type))
	}
	if filter.AUserID != "" {
		where = append(where, "a_user_id = "+arg(filter.AUserID))
	}
	if filter.BUserID != "" {
		where = append(where, "b_user_id = "+arg(filter.BUserID))
	}
	if filter.Consent != nil {
		where = append(where, "consent = "+arg(*filter.Consent))
	}

	q := `SELECT ` + relationColumns + ` FROM relationship`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at`

	var rows []relationRow
	if err := repo.db.Select(&rows, q, args...); err != nil {
		return nil, err
	}
	rels := make([]relation.Relationship, 0, len(rows))
	for _, row := range rows {
		rels = append(rels, row.model())
	}
	return rels, nil
}

func (repo *relationRepository) UpdateConsent(id string, consent bool) (relation.Relationship, error) {
	row := relationRow{}
	err := repo.db.Get(&row, `
		UPDATE relationship SET consent = $2 WHERE id = $1
		RETURNING `+relationColumns,
		id, consent,
	)
	if err != nil {
		if isNoRows(err) {
			return relation.Relationship{}, relation.ErrNotFound
		}
		return relation.Relationship{}, err
	}
	return row.model(), nil
}
