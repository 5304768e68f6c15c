package sqlxrepos

import (
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/tutorhub/core/report"
)

type reportRepository struct {
	db *sqlx.DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *sqlx.DB) report.Repository {
	return &reportRepository{db: db}
}

type reportRow struct {
	ID        string    `db:"id"`
	TutorID   string    `db:"tutor_id"`
	StudentID string    `db:"student_id"`
	Period    string    `db:"period"`
	KPIs      []byte    `db:"kpis"`
	CreatedAt time.Time `db:"created_at"`
}

func (row reportRow) model() (report.MonthlyReport, error) {
	rep := report.MonthlyReport{
		ID:        row.ID,
		TutorID:   row.TutorID,
		StudentID: row.StudentID,
		Period:    row.Period,
		CreatedAt: row.CreatedAt,
	}
	if err := unmarshal(row.KPIs, &rep.KPIs); err != nil {
		return report.MonthlyReport{}, err
	}
	return rep, nil
}

const reportColumns = `id, tutor_id, student_id, period, kpis, created_at`

func (repo *reportRepository) CreateReport(r report.MonthlyReport) (report.MonthlyReport, error) {
	kpis, err := marshal(r.KPIs)
	if err != nil {
		return report.MonthlyReport{}, err
	}
	row := reportRow{}
	err = repo.db.Get(&row, `
		INSERT INTO monthly_report (tutor_id, student_id, period, kpis, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+reportColumns,
		r.TutorID, r.StudentID, r.Period, kpis, r.CreatedAt,
	)
	if err != nil {
		return report.MonthlyReport{}, err
	}
	return row.model()
}

func (repo *reportRepository) GetReportByID(id string) (report.MonthlyReport, error) {
	row := reportRow{}
	if err := repo.db.Get(&row, `SELECT `+reportColumns+` FROM monthly_report WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return report.MonthlyReport{}, report.ErrNotFound
		}
		return report.MonthlyReport{}, err
	}
	return row.model()
}

func (repo *reportRepository) QueryStudentReports(studentID string) ([]report.MonthlyReport, error) {
	var rows []reportRow
	err := repo.db.Select(&rows, `
		SELECT `+reportColumns+` FROM monthly_report
		WHERE student_id = $1 ORDER BY created_at DESC`,
		studentID,
	)
	if err != nil {
		return nil, err
	}
	reports := make([]report.MonthlyReport, 0, len(rows))
	for _, row := range rows {
		rep, err := row.model()
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}
