package dummydb

import (
	"github.com/google/uuid"

	"github.com/trezcool/tutorhub/core/visibility"
)

type visibilityRepository struct {
	db *visibilityTable
}

var _ visibility.Repository = (*visibilityRepository)(nil) // interface compliance check

func NewVisibilityRepository(db *DB) visibility.Repository {
	return &visibilityRepository{db: db.visibility}
}

func (repo *visibilityRepository) GetSetting(entityRef string) (visibility.Setting, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if setting, ok := repo.db.table[entityRef]; ok {
		return *setting, nil
	}
	return visibility.Setting{}, visibility.ErrNotFound
}

func (repo *visibilityRepository) UpsertSetting(setting visibility.Setting) (visibility.Setting, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if orig, ok := repo.db.table[setting.EntityRef]; ok {
		orig.Scope = setting.Scope
		return *orig, nil
	}
	setting.ID = uuid.New().String()
	repo.db.table[setting.EntityRef] = &setting
	return setting, nil
}
