package sqlxrepos

import (
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/tutorhub/core/visibility"
)

type visibilityRepository struct {
	db *sqlx.DB
}

var _ visibility.Repository = (*visibilityRepository)(nil) // interface compliance check

func NewVisibilityRepository(db *sqlx.DB) visibility.Repository {
	return &visibilityRepository{db: db}
}

type visibilityRow struct {
	ID        string `db:"id"`
	EntityRef string `db:"entity_ref"`
	Scope     string `db:"scope"`
}

func (row visibilityRow) model() visibility.Setting {
	return visibility.Setting{
		ID:        row.ID,
		EntityRef: row.EntityRef,
		Scope:     visibility.Scope(row.Scope),
	}
}

func (repo *visibilityRepository) GetSetting(entityRef string) (visibility.Setting, error) {
	row := visibilityRow{}
	err := repo.db.Get(&row, `SELECT id, entity_ref, scope FROM visibility_setting WHERE entity_ref = $1`, entityRef)
	if err != nil {
		if isNoRows(err) {
			return visibility.Setting{}, visibility.ErrNotFound
		}
		return visibility.Setting{}, err
	}
	return row.model(), nil
}

func (repo *visibilityRepository) UpsertSetting(setting visibility.Setting) (visibility.Setting, error) {
	row := visibilityRow{}
	err := repo.db.Get(&row, `
		INSERT INTO visibility_setting (entity_ref, scope)
		VALUES ($1, $2)
		ON CONFLICT (entity_ref) DO UPDATE SET scope = EXCLUDED.scope
		RETURNING id, entity_ref, scope`,
		setting.EntityRef, string(setting.Scope),
	)
	if err != nil {
		return visibility.Setting{}, err
	}
	return row.model(), nil
}
