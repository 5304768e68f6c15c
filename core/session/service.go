package session

import (
	"math"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/audit"
	"github.com/trezcool/tutorhub/core/relation"
	"github.com/trezcool/tutorhub/core/user"
	"github.com/trezcool/tutorhub/core/visibility"
)

var (
	ErrEventNotFound  = core.NewNotFoundError("calendar event not found")
	ErrLogNotFound    = core.NewNotFoundError("attendance log not found")
	ErrNotParticipant = core.NewForbiddenError("user is not a participant of this event")
	ErrTutorMismatch  = core.NewForbiddenError("attendance tutor does not match the acting tutor")
	ErrEventMismatch  = core.NewInvalidInputError("attendance does not match the event parties")
	ErrAlreadySigned  = core.NewInvalidStateError("attendance log is already signed")
	ErrInvalidWindow  = core.NewInvalidInputError("window start must be before end")
)

const (
	actionCalendarProposed    = "CALENDAR_PROPOSED"
	actionCalendarConfirmed   = "CALENDAR_CONFIRMED"
	actionCalendarRescheduled = "CALENDAR_RESCHEDULED"
	actionAttendanceRecorded  = "ATTENDANCE_RECORDED"
	actionAttendanceSigned    = "ATTENDANCE_SIGNED"
	actionNoteRecorded        = "SESSION_NOTE_RECORDED"
)

// noteTimingWindow bounds how long after a session's end a note still counts
// as timely. Later notes are accepted with an advisory warning.
const noteTimingWindow = 60 * time.Second

// NoteTimingWarning flags a note recorded outside the timing window.
const NoteTimingWarning = "session note created outside 60s window"

type Repository interface {
	CreateEvent(ev CalendarEvent) (CalendarEvent, error)
	GetEventByID(id string) (CalendarEvent, error) // ErrEventNotFound
	FilterEvents(filter EventQueryFilter) ([]CalendarEvent, error)
	UpdateEvent(ev CalendarEvent) error

	CreateAttendanceLog(log AttendanceLog) (AttendanceLog, error)
	GetAttendanceLogByID(id string) (AttendanceLog, error) // ErrLogNotFound
	FilterAttendanceLogs(filter AttendanceQueryFilter) ([]AttendanceLog, error)
	// LatestAttendanceForPair returns the log with the greatest EndTs for the
	// tutor/student pair, or ErrLogNotFound.
	LatestAttendanceForPair(tutorID, studentID string) (AttendanceLog, error)
	UpdateAttendanceSignature(id string, signedAt time.Time) error

	CreateNote(n SessionNote) (SessionNote, error)
	QueryStudentNotes(studentID string) ([]SessionNote, error) // date desc
}

type Service struct {
	repo     Repository
	relSvc   *relation.Service
	auditSvc *audit.Service
	nowFn    func() time.Time
}

func NewService(repo Repository, relSvc *relation.Service, auditSvc *audit.Service) *Service {
	return &Service{repo: repo, relSvc: relSvc, auditSvc: auditSvc, nowFn: time.Now}
}

func NewServiceMock(repo Repository, relSvc *relation.Service, auditSvc *audit.Service, nowFn func() time.Time) *Service {
	return &Service{repo: repo, relSvc: relSvc, auditSvc: auditSvc, nowFn: nowFn}
}

// Propose creates one Proposed event per candidate window. The tutor must hold
// a consented edge to the student; a consented parent is attached to every
// event's participant set.
func (svc *Service) Propose(tutorID string, data NewProposal) ([]CalendarEvent, error) {
	if err := svc.relSvc.AuthorizeTutorForStudent(tutorID, data.StudentID); err != nil {
		return nil, err
	}
	for _, w := range data.Options {
		if !w.Start.Before(w.End) {
			return nil, ErrInvalidWindow
		}
	}
	parentID, hasParent, err := svc.relSvc.ConsentedParentID(data.StudentID)
	if err != nil {
		return nil, err
	}

	now := svc.nowFn().UTC()
	events := make([]CalendarEvent, 0, len(data.Options))
	for _, w := range data.Options {
		ev := CalendarEvent{
			TutorID:      tutorID,
			StudentID:    data.StudentID,
			Participants: []string{tutorID, data.StudentID},
			Start:        w.Start,
			End:          w.End,
			Status:       EventProposed,
			CreatedAt:    now,
		}
		if hasParent {
			ev.ParentID.SetValid(parentID)
			ev.Participants = append(ev.Participants, parentID)
		}
		ev, err = svc.repo.CreateEvent(ev)
		if err != nil {
			return nil, err
		}
		if _, err = svc.auditSvc.Record(audit.Entry{
			ActorID:  null.StringFrom(tutorID),
			Entity:   "calendarEvent",
			EntityID: ev.ID,
			Action:   actionCalendarProposed,
			ToState:  null.StringFrom(string(EventProposed)),
			Metadata: map[string]interface{}{"start": ev.Start, "end": ev.End},
		}); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// AuthorizeParticipant loads the event and ensures the user belongs to its
// participant set.
func (svc *Service) AuthorizeParticipant(userID, eventID string) (CalendarEvent, error) {
	ev, err := svc.repo.GetEventByID(eventID)
	if err != nil {
		return CalendarEvent{}, err
	}
	for _, pid := range ev.Participants {
		if pid == userID {
			return ev, nil
		}
	}
	return CalendarEvent{}, ErrNotParticipant
}

// ConfirmResult reports an advisory scheduling conflict alongside the
// confirmed event. A conflict never blocks confirmation.
type ConfirmResult struct {
	Event    CalendarEvent `json:"event"`
	Conflict bool          `json:"conflict"`
}

// Confirm moves an event to Confirmed and scans other confirmed events sharing
// any party for an overlap.
func (svc *Service) Confirm(parentID, eventID string) (ConfirmResult, error) {
	ev, err := svc.AuthorizeParticipant(parentID, eventID)
	if err != nil {
		return ConfirmResult{}, err
	}
	if err = svc.relSvc.AuthorizeParentForStudent(parentID, ev.StudentID); err != nil {
		return ConfirmResult{}, err
	}

	prev := ev.Status
	ev.Status = EventConfirmed
	if err = svc.repo.UpdateEvent(ev); err != nil {
		return ConfirmResult{}, err
	}

	conflict, err := svc.detectConflict(ev)
	if err != nil {
		return ConfirmResult{}, err
	}
	if _, err = svc.auditSvc.Record(audit.Entry{
		ActorID:   null.StringFrom(parentID),
		Entity:    "calendarEvent",
		EntityID:  ev.ID,
		Action:    actionCalendarConfirmed,
		FromState: null.StringFrom(string(prev)),
		ToState:   null.StringFrom(string(EventConfirmed)),
		Metadata:  map[string]interface{}{"conflict": conflict},
	}); err != nil {
		return ConfirmResult{}, err
	}
	return ConfirmResult{Event: ev, Conflict: conflict}, nil
}

func (svc *Service) detectConflict(ev CalendarEvent) (bool, error) {
	parties := []string{ev.TutorID, ev.StudentID}
	if ev.ParentID.Valid {
		parties = append(parties, ev.ParentID.String)
	}
	others, err := svc.repo.FilterEvents(EventQueryFilter{
		Status:    EventConfirmed,
		AnyParty:  parties,
		ExcludeID: ev.ID,
	})
	if err != nil {
		return false, err
	}
	for _, other := range others {
		if ev.Overlaps(other) {
			return true, nil
		}
	}
	return false, nil
}

// Reschedule moves a confirmed or proposed event to a new window.
func (svc *Service) Reschedule(userID, eventID string, window Window) (CalendarEvent, error) {
	ev, err := svc.AuthorizeParticipant(userID, eventID)
	if err != nil {
		return CalendarEvent{}, err
	}
	if !window.Start.Before(window.End) {
		return CalendarEvent{}, ErrInvalidWindow
	}

	prevStart, prevEnd, prevStatus := ev.Start, ev.End, ev.Status
	ev.Start = window.Start
	ev.End = window.End
	ev.Status = EventRescheduled
	if err = svc.repo.UpdateEvent(ev); err != nil {
		return CalendarEvent{}, err
	}
	if _, err = svc.auditSvc.Record(audit.Entry{
		ActorID:   null.StringFrom(userID),
		Entity:    "calendarEvent",
		EntityID:  ev.ID,
		Action:    actionCalendarRescheduled,
		FromState: null.StringFrom(string(prevStatus)),
		ToState:   null.StringFrom(string(EventRescheduled)),
		Metadata:  map[string]interface{}{"previous_start": prevStart, "previous_end": prevEnd},
	}); err != nil {
		return CalendarEvent{}, err
	}
	return ev, nil
}

// LogAttendance records a held session against an event. Only the event's own
// tutor may log, and the log's parties must match the event's.
func (svc *Service) LogAttendance(tutorID, eventID string, data NewAttendance) (AttendanceLog, error) {
	if err := svc.relSvc.AuthorizeTutorForStudent(tutorID, data.StudentID); err != nil {
		return AttendanceLog{}, err
	}
	ev, err := svc.repo.GetEventByID(eventID)
	if err != nil {
		return AttendanceLog{}, err
	}
	if data.TutorID != tutorID || ev.TutorID != tutorID {
		return AttendanceLog{}, ErrTutorMismatch
	}
	if ev.StudentID != data.StudentID {
		return AttendanceLog{}, ErrEventMismatch
	}
	if !data.StartTs.Before(data.EndTs) {
		return AttendanceLog{}, ErrInvalidWindow
	}

	log := AttendanceLog{
		EventID:     ev.ID,
		SessionDate: data.StartTs.UTC().Truncate(24 * time.Hour),
		StartTs:     data.StartTs,
		EndTs:       data.EndTs,
		Minutes:     data.Minutes,
		StudentID:   data.StudentID,
		TutorID:     tutorID,
		CreatedAt:   svc.nowFn().UTC(),
	}
	if log, err = svc.repo.CreateAttendanceLog(log); err != nil {
		return AttendanceLog{}, err
	}
	if _, err = svc.auditSvc.Record(audit.Entry{
		ActorID:  null.StringFrom(tutorID),
		Entity:   "attendanceLog",
		EntityID: log.ID,
		Action:   actionAttendanceRecorded,
		Metadata: map[string]interface{}{"event_id": ev.ID, "minutes": log.Minutes},
	}); err != nil {
		return AttendanceLog{}, err
	}
	return log, nil
}

// SignAttendance records the parent's one-time confirmation of a log.
func (svc *Service) SignAttendance(parentID, logID string) (AttendanceLog, error) {
	log, err := svc.repo.GetAttendanceLogByID(logID)
	if err != nil {
		return AttendanceLog{}, err
	}
	if err = svc.relSvc.AuthorizeParentForStudent(parentID, log.StudentID); err != nil {
		return AttendanceLog{}, err
	}
	if log.ConfirmedByParent {
		return AttendanceLog{}, ErrAlreadySigned
	}

	now := svc.nowFn().UTC()
	if err = svc.repo.UpdateAttendanceSignature(log.ID, now); err != nil {
		return AttendanceLog{}, err
	}
	log.ConfirmedByParent = true
	log.SignatureTs.SetValid(now)
	if _, err = svc.auditSvc.Record(audit.Entry{
		ActorID:  null.StringFrom(parentID),
		Entity:   "attendanceLog",
		EntityID: log.ID,
		Action:   actionAttendanceSigned,
		Metadata: map[string]interface{}{"signature_ts": now},
	}); err != nil {
		return AttendanceLog{}, err
	}
	return log, nil
}

// CreateNote records a session note. A non-empty warning is returned when the
// note lands outside the timing window of the pair's latest session; the note
// is stored either way.
func (svc *Service) CreateNote(tutorID string, data NewNote) (SessionNote, string, error) {
	if err := svc.relSvc.AuthorizeTutorForStudent(tutorID, data.StudentID); err != nil {
		return SessionNote{}, "", err
	}

	// The warning only applies once a session has been held for the pair.
	var warning string
	latest, err := svc.repo.LatestAttendanceForPair(tutorID, data.StudentID)
	switch {
	case err == nil:
		drift := svc.nowFn().Sub(latest.EndTs)
		if drift < 0 {
			drift = -drift
		}
		if drift > noteTimingWindow {
			warning = NoteTimingWarning
		}
	case core.IsNotFound(err):
	default:
		return SessionNote{}, "", err
	}

	note := SessionNote{
		TutorID:     tutorID,
		StudentID:   data.StudentID,
		Date:        data.Date,
		Summary:     data.Summary,
		Issues:      data.Issues,
		NextActions: data.NextActions,
		Scope:       data.Scope,
		CreatedAt:   svc.nowFn().UTC(),
	}
	if note, err = svc.repo.CreateNote(note); err != nil {
		return SessionNote{}, "", err
	}
	if _, err = svc.auditSvc.Record(audit.Entry{
		ActorID:  null.StringFrom(tutorID),
		Entity:   "sessionNote",
		EntityID: note.ID,
		Action:   actionNoteRecorded,
		Metadata: map[string]interface{}{"student_id": note.StudentID, "warning": warning != ""},
	}); err != nil {
		return SessionNote{}, "", err
	}
	return note, warning, nil
}

// QueryNotes returns the student's notes filtered down to those the
// requester's role may see, newest first.
func (svc *Service) QueryNotes(requester user.User, studentID string) ([]SessionNote, error) {
	if err := svc.relSvc.AuthorizeVisibility(requester.ID, requester.Role, studentID); err != nil {
		return nil, err
	}
	notes, err := svc.repo.QueryStudentNotes(studentID)
	if err != nil {
		return nil, err
	}
	visible := make([]SessionNote, 0, len(notes))
	for _, n := range notes {
		if visibility.ScopeAllows(n.Scope, requester.Role) {
			visible = append(visible, n)
		}
	}
	return visible, nil
}

// SumAttendanceMinutes totals logged minutes for a student over [from, to).
func (svc *Service) SumAttendanceMinutes(studentID string, from, to time.Time) (int, error) {
	logs, err := svc.repo.FilterAttendanceLogs(AttendanceQueryFilter{StudentID: studentID, From: from, To: to})
	if err != nil {
		return 0, err
	}
	var total int
	for _, log := range logs {
		total += log.Minutes
	}
	return total, nil
}

// FilterAttendance exposes raw log queries to reporting.
func (svc *Service) FilterAttendance(filter AttendanceQueryFilter) ([]AttendanceLog, error) {
	return svc.repo.FilterAttendanceLogs(filter)
}

// DurationMinutes rounds a session window to whole minutes.
func DurationMinutes(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Minutes()))
}
