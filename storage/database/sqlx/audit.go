package sqlxrepos

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tutorhub/core/audit"
)

type auditRepository struct {
	db *sqlx.DB
}

var _ audit.Repository = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(db *sqlx.DB) audit.Repository {
	return &auditRepository{db: db}
}

type auditRow struct {
	ID        string      `db:"id"`
	ActorID   null.String `db:"actor_id"`
	Entity    string      `db:"entity"`
	EntityID  string      `db:"entity_id"`
	Action    string      `db:"action"`
	FromState null.String `db:"from_state"`
	ToState   null.String `db:"to_state"`
	Metadata  []byte      `db:"metadata"`
	CreatedAt time.Time   `db:"created_at"`
}

func (row auditRow) model() (audit.Entry, error) {
	entry := audit.Entry{
		ID:        row.ID,
		ActorID:   row.ActorID,
		Entity:    row.Entity,
		EntityID:  row.EntityID,
		Action:    row.Action,
		FromState: row.FromState,
		ToState:   row.ToState,
		CreatedAt: row.CreatedAt,
	}
	if err := unmarshal(row.Metadata, &entry.Metadata); err != nil {
		return audit.Entry{}, err
	}
	return entry, nil
}

const auditColumns = `id, actor_id, entity, entity_id, action, from_state, to_state, metadata, created_at`

func (repo *auditRepository) AppendEntry(entry audit.Entry) (audit.Entry, error) {
	metadata, err := marshal(entry.Metadata)
	if err != nil {
		return audit.Entry{}, err
	}
	row := auditRow{}
	err = repo.db.Get(&row, `
		INSERT INTO audit_entry (actor_id, entity, entity_id, action, from_state, to_state, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+auditColumns,
		entry.ActorID, entry.Entity, entry.EntityID, entry.Action, entry.FromState, entry.ToState, metadata, entry.CreatedAt,
	)
	if err != nil {
		return audit.Entry{}, err
	}
	return row.model()
}

func (repo *auditRepository) FilterEntries(filter audit.QueryFilter) ([]audit.Entry, error) {
	where := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Entity != "" {
		where = append(where, "entity = "+arg(filter.Entity))
	}
	if filter.EntityID != "" {
		where = append(where, "entity_id = "+arg(filter.EntityID))
	}
	if filter.Action != "" {
		where = append(where, "action = "+arg(filter.Action))
	}
	if filter.ActorID != "" {
		where = append(where, "actor_id = "+arg(filter.ActorID))
	}

	q := `SELECT ` + auditColumns + ` FROM audit_entry`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC`

	var rows []auditRow
	if err := repo.db.Select(&rows, q, args...); err != nil {
		return nil, err
	}
	entries := make([]audit.Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := row.model()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
