package dummydb

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/tutorhub/core/session"
)

type sessionRepository struct {
	db *sessionTable
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *DB) session.Repository {
	return &sessionRepository{db: db.session}
}

func (repo *sessionRepository) CreateEvent(ev session.CalendarEvent) (session.CalendarEvent, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	ev.ID = uuid.New().String()
	repo.db.events[ev.ID] = &ev
	return ev, nil
}

func (repo *sessionRepository) GetEventByID(id string) (session.CalendarEvent, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ev, ok := repo.db.events[id]; ok {
		return *ev, nil
	}
	return session.CalendarEvent{}, session.ErrEventNotFound
}

func (repo *sessionRepository) FilterEvents(filter session.EventQueryFilter) ([]session.CalendarEvent, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	evs := make([]session.CalendarEvent, 0)
	for _, ev := range repo.db.events {
		if ev.ID == filter.ExcludeID {
			continue
		}
		if filter.Status != "" && ev.Status != filter.Status {
			continue
		}
		if len(filter.AnyParty) > 0 && !sharesParty(*ev, filter.AnyParty) {
			continue
		}
		evs = append(evs, *ev)
	}
	return evs, nil
}

func sharesParty(ev session.CalendarEvent, parties []string) bool {
	for _, pid := range parties {
		if ev.TutorID == pid || ev.StudentID == pid || (ev.ParentID.Valid && ev.ParentID.String == pid) {
			return true
		}
	}
	return false
}

func (repo *sessionRepository) UpdateEvent(ev session.CalendarEvent) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.events[ev.ID]
	if !ok {
		return session.ErrEventNotFound
	}
	orig.Start = ev.Start
	orig.End = ev.End
	orig.Status = ev.Status
	return nil
}

func (repo *sessionRepository) CreateAttendanceLog(log session.AttendanceLog) (session.AttendanceLog, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	log.ID = uuid.New().String()
	repo.db.attendance[log.ID] = &log
	return log, nil
}

func (repo *sessionRepository) GetAttendanceLogByID(id string) (session.AttendanceLog, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if log, ok := repo.db.attendance[id]; ok {
		return *log, nil
	}
	return session.AttendanceLog{}, session.ErrLogNotFound
}

func (repo *sessionRepository) FilterAttendanceLogs(filter session.AttendanceQueryFilter) ([]session.AttendanceLog, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	logs := make([]session.AttendanceLog, 0)
	for _, log := range repo.db.attendance {
		if filter.StudentID != "" && log.StudentID != filter.StudentID {
			continue
		}
		if filter.TutorID != "" && log.TutorID != filter.TutorID {
			continue
		}
		if !filter.From.IsZero() && log.SessionDate.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !log.SessionDate.Before(filter.To) {
			continue
		}
		if filter.ConfirmedByParent != nil && log.ConfirmedByParent != *filter.ConfirmedByParent {
			continue
		}
		logs = append(logs, *log)
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].StartTs.Before(logs[j].StartTs) })
	return logs, nil
}

func (repo *sessionRepository) LatestAttendanceForPair(tutorID, studentID string) (session.AttendanceLog, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var latest *session.AttendanceLog
	for _, log := range repo.db.attendance {
		if log.TutorID != tutorID || log.StudentID != studentID {
			continue
		}
		if latest == nil || log.EndTs.After(latest.EndTs) {
			latest = log
		}
	}
	if latest == nil {
		return session.AttendanceLog{}, session.ErrLogNotFound
	}
	return *latest, nil
}

func (repo *sessionRepository) UpdateAttendanceSignature(id string, signedAt time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	log, ok := repo.db.attendance[id]
	if !ok {
		return session.ErrLogNotFound
	}
	log.ConfirmedByParent = true
	log.SignatureTs.SetValid(signedAt)
	return nil
}

func (repo *sessionRepository) CreateNote(n session.SessionNote) (session.SessionNote, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	n.ID = uuid.New().String()
	repo.db.notes[n.ID] = &n
	return n, nil
}

func (repo *sessionRepository) QueryStudentNotes(studentID string) ([]session.SessionNote, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	notes := make([]session.SessionNote, 0)
	for _, n := range repo.db.notes {
		if n.StudentID == studentID {
			notes = append(notes, *n)
		}
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].Date.After(notes[j].Date) })
	return notes, nil
}
