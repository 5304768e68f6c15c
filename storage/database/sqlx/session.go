package sqlxrepos

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tutorhub/core/session"
	"github.com/trezcool/tutorhub/core/visibility"
)

type sessionRepository struct {
	db *sqlx.DB
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *sqlx.DB) session.Repository {
	return &sessionRepository{db: db}
}

type eventRow struct {
	ID           string      `db:"id"`
	TutorID      string      `db:"tutor_id"`
	StudentID    string      `db:"student_id"`
	ParentID     null.String `db:"parent_id"`
	Participants []byte      `db:"participants"`
	Start        time.Time   `db:"start_ts"`
	End          time.Time   `db:"end_ts"`
	Status       string      `db:"status"`
	CreatedAt    time.Time   `db:"created_at"`
}

func (row eventRow) model() (session.CalendarEvent, error) {
	ev := session.CalendarEvent{
		ID:        row.ID,
		TutorID:   row.TutorID,
		StudentID: row.StudentID,
		ParentID:  row.ParentID,
		Start:     row.Start,
		End:       row.End,
		Status:    session.EventStatus(row.Status),
		CreatedAt: row.CreatedAt,
	}
	if err := unmarshal(row.Participants, &ev.Participants); err != nil {
		return session.CalendarEvent{}, err
	}
	return ev, nil
}

type attendanceRow struct {
	ID                string    `db:"id"`
	EventID           string    `db:"event_id"`
	SessionDate       time.Time `db:"session_date"`
	StartTs           time.Time `db:"start_ts"`
	EndTs             time.Time `db:"end_ts"`
	Minutes           int       `db:"minutes"`
	StudentID         string    `db:"student_id"`
	TutorID           string    `db:"tutor_id"`
	ConfirmedByParent bool      `db:"confirmed_by_parent"`
	SignatureTs       null.Time `db:"signature_ts"`
	CreatedAt         time.Time `db:"created_at"`
}

func (row attendanceRow) model() session.AttendanceLog {
	return session.AttendanceLog{
		ID:                row.ID,
		EventID:           row.EventID,
		SessionDate:       row.SessionDate,
		StartTs:           row.StartTs,
		EndTs:             row.EndTs,
		Minutes:           row.Minutes,
		StudentID:         row.StudentID,
		TutorID:           row.TutorID,
		ConfirmedByParent: row.ConfirmedByParent,
		SignatureTs:       row.SignatureTs,
		CreatedAt:         row.CreatedAt,
	}
}

type noteRow struct {
	ID          string    `db:"id"`
	TutorID     string    `db:"tutor_id"`
	StudentID   string    `db:"student_id"`
	Date        time.Time `db:"date"`
	Summary     string    `db:"summary"`
	Issues      []byte    `db:"issues"`
	NextActions []byte    `db:"next_actions"`
	Scope       string    `db:"visibility_scope"`
	CreatedAt   time.Time `db:"created_at"`
}

func (row noteRow) model() (session.SessionNote, error) {
	note := session.SessionNote{
		ID:        row.ID,
		TutorID:   row.TutorID,
		StudentID: row.StudentID,
		Date:      row.Date,
		Summary:   row.Summary,
		Scope:     visibility.Scope(row.Scope),
		CreatedAt: row.CreatedAt,
	}
	if err := unmarshal(row.Issues, &note.Issues); err != nil {
		return session.SessionNote{}, err
	}
	if err := unmarshal(row.NextActions, &note.NextActions); err != nil {
		return session.SessionNote{}, err
	}
	return note, nil
}

const (
	eventColumns      = `id, tutor_id, student_id, parent_id, participants, start_ts, end_ts, status, created_at`
	attendanceColumns = `id, event_id, session_date, start_ts, end_ts, minutes, student_id, tutor_id, confirmed_by_parent, signature_ts, created_at`
	noteColumns       = `id, tutor_id, student_id, date, summary, issues, next_actions, visibility_scope, created_at`
)

func (repo *sessionRepository) CreateEvent(ev session.CalendarEvent) (session.CalendarEvent, error) {
	participants, err := marshal(ev.Participants)
	if err != nil {
		return session.CalendarEvent{}, err
	}
	row := eventRow{}
	err = repo.db.Get(&row, `
		INSERT INTO calendar_event (tutor_id, student_id, parent_id, participants, start_ts, end_ts, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+eventColumns,
		ev.TutorID, ev.StudentID, ev.ParentID, participants, ev.Start, ev.End, string(ev.Status), ev.CreatedAt,
	)
	if err != nil {
		return session.CalendarEvent{}, err
	}
	return row.model()
}

func (repo *sessionRepository) GetEventByID(id string) (session.CalendarEvent, error) {
	row := eventRow{}
	if err := repo.db.Get(&row, `SELECT `+eventColumns+` FROM calendar_event WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return session.CalendarEvent{}, session.ErrEventNotFound
		}
		return session.CalendarEvent{}, err
	}
	return row.model()
}

func (repo *sessionRepository) FilterEvents(filter session.EventQueryFilter) ([]session.CalendarEvent, error) {
	where := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Status != "" {
		where = append(where, "status = "+arg(string(filter.Status)))
	}
	if len(filter.AnyParty) > 0 {
		p := arg(pq.Array(filter.AnyParty))
		where = append(where, fmt.Sprintf("(tutor_id = ANY(%s) OR student_id = ANY(%s) OR parent_id = ANY(%s))", p, p, p))
	}
	if filter.ExcludeID != "" {
		where = append(where, "id <> "+arg(filter.ExcludeID))
	}

	q := `SELECT ` + eventColumns + ` FROM calendar_event`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY start_ts`

	var rows []eventRow
	if err := repo.db.Select(&rows, q, args...); err != nil {
		return nil, err
	}
	evs := make([]session.CalendarEvent, 0, len(rows))
	for _, row := range rows {
		ev, err := row.model()
		if err != nil {
			return nil, err
		}
		evs = append(evs, ev)
	}
	return evs, nil
}

func (repo *sessionRepository) UpdateEvent(ev session.CalendarEvent) error {
	res, err := repo.db.Exec(`
		UPDATE calendar_event SET start_ts = $2, end_ts = $3, status = $4 WHERE id = $1`,
		ev.ID, ev.Start, ev.End, string(ev.Status),
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return session.ErrEventNotFound
	}
	return nil
}

func (repo *sessionRepository) CreateAttendanceLog(log session.AttendanceLog) (session.AttendanceLog, error) {
	row := attendanceRow{}
	err := repo.db.Get(&row, `
		INSERT INTO attendance_log (event_id, session_date, start_ts, end_ts, minutes, student_id, tutor_id, confirmed_by_parent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+attendanceColumns,
		log.EventID, log.SessionDate, log.StartTs, log.EndTs, log.Minutes, log.StudentID, log.TutorID, log.ConfirmedByParent, log.CreatedAt,
	)
	if err != nil {
		return session.AttendanceLog{}, err
	}
	return row.model(), nil
}

func (repo *sessionRepository) GetAttendanceLogByID(id string) (session.AttendanceLog, error) {
	row := attendanceRow{}
	if err := repo.db.Get(&row, `SELECT `+attendanceColumns+` FROM attendance_log WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return session.AttendanceLog{}, session.ErrLogNotFound
		}
		return session.AttendanceLog{}, err
	}
	return row.model(), nil
}

func (repo *sessionRepository) FilterAttendanceLogs(filter session.AttendanceQueryFilter) ([]session.AttendanceLog, error) {
	where := make([]string, 0, 5)
	args := make([]interface{}, 0, 5)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.StudentID != "" {
		where = append(where, "student_id = "+arg(filter.StudentID))
	}
	if filter.TutorID != "" {
		where = append(where, "tutor_id = "+arg(filter.TutorID))
	}
	if !filter.From.IsZero() {
		where = append(where, "session_date >= "+arg(filter.From))
	}
	if !filter.To.IsZero() {
		where = append(where, "session_date < "+arg(filter.To))
	}
	if filter.ConfirmedByParent != nil {
		where = append(where, "confirmed_by_parent = "+arg(*filter.ConfirmedByParent))
	}

	q := `SELECT ` + attendanceColumns + ` FROM attendance_log`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY start_ts`

	var rows []attendanceRow
	if err := repo.db.Select(&rows, q, args...); err != nil {
		return nil, err
	}
	logs := make([]session.AttendanceLog, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, row.model())
	}
	return logs, nil
}

func (repo *sessionRepository) LatestAttendanceForPair(tutorID, studentID string) (session.AttendanceLog, error) {
	row := attendanceRow{}
	err := repo.db.Get(&row, `
		SELECT `+attendanceColumns+` FROM attendance_log
		WHERE tutor_id = $1 AND student_id = $2
		ORDER BY end_ts DESC LIMIT 1`,
		tutorID, studentID,
	)
	if err != nil {
		if isNoRows(err) {
			return session.AttendanceLog{}, session.ErrLogNotFound
		}
		return session.AttendanceLog{}, err
	}
	return row.model(), nil
}

func (repo *sessionRepository) UpdateAttendanceSignature(id string, signedAt time.Time) error {
	res, err := repo.db.Exec(`
		UPDATE attendance_log SET confirmed_by_parent = TRUE, signature_ts = $2 WHERE id = $1`,
		id, signedAt,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return session.ErrLogNotFound
	}
	return nil
}

func (repo *sessionRepository) CreateNote(n session.SessionNote) (session.SessionNote, error) {
	issues, err := marshal(n.Issues)
	if err != nil {
		return session.SessionNote{}, err
	}
	nextActions, err := marshal(n.NextActions)
	if err != nil {
		return session.SessionNote{}, err
	}

	row := noteRow{}
	err = repo.db.Get(&row, `
		INSERT INTO session_note (tutor_id, student_id, date, summary, issues, next_actions, visibility_scope, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+noteColumns,
		n.TutorID, n.StudentID, n.Date, n.Summary, issues, nextActions, string(n.Scope), n.CreatedAt,
	)
	if err != nil {
		return session.SessionNote{}, err
	}
	return row.model()
}

func (repo *sessionRepository) QueryStudentNotes(studentID string) ([]session.SessionNote, error) {
	var rows []noteRow
	err := repo.db.Select(&rows, `
		SELECT `+noteColumns+` FROM session_note
		WHERE student_id = $1 ORDER BY date DESC`,
		studentID,
	)
	if err != nil {
		return nil, err
	}
	notes := make([]session.SessionNote, 0, len(rows))
	for _, row := range rows {
		note, err := row.model()
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, nil
}
