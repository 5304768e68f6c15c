package dummydb

import (
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/tutorhub/core/report"
)

type reportRepository struct {
	db *reportTable
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *DB) report.Repository {
	return &reportRepository{db: db.report}
}

func (repo *reportRepository) CreateReport(r report.MonthlyReport) (report.MonthlyReport, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	r.ID = uuid.New().String()
	repo.db.table[r.ID] = &r
	return r, nil
}

func (repo *reportRepository) GetReportByID(id string) (report.MonthlyReport, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.table[id]; ok {
		return *r, nil
	}
	return report.MonthlyReport{}, report.ErrNotFound
}

func (repo *reportRepository) QueryStudentReports(studentID string) ([]report.MonthlyReport, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	reports := make([]report.MonthlyReport, 0)
	for _, r := range repo.db.table {
		if r.StudentID == studentID {
			reports = append(reports, *r)
		}
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].CreatedAt.After(reports[j].CreatedAt) })
	return reports, nil
}
