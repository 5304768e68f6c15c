package report

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/assignment"
	"github.com/trezcool/tutorhub/core/audit"
	"github.com/trezcool/tutorhub/core/relation"
	"github.com/trezcool/tutorhub/core/session"
	"github.com/trezcool/tutorhub/core/user"
)

var ErrNotFound = core.NewNotFoundError("report not found")

const (
	actionReportIssued      = "REPORT_ISSUED"
	actionEncouragementSent = "ENCOURAGEMENT_SENT"
)

// dueSoonWindow marks assignments at risk of missing their deadline.
const dueSoonWindow = 48 * time.Hour

// encouragementTemplates maps template ids to canned messages.
var encouragementTemplates = map[string]string{
	"keep_going":  "Keep going, you are making steady progress!",
	"great_work":  "Great work on your latest submission!",
	"almost_done": "You are almost there, finish strong!",
}

type Repository interface {
	CreateReport(r MonthlyReport) (MonthlyReport, error)
	GetReportByID(id string) (MonthlyReport, error) // ErrNotFound
	QueryStudentReports(studentID string) ([]MonthlyReport, error)
}

type Service struct {
	repo       Repository
	relSvc     *relation.Service
	userSvc    *user.Service
	assignSvc  *assignment.Service
	sessionSvc *session.Service
	auditSvc   *audit.Service
	mailSvc    core.EmailService
	nowFn      func() time.Time
}

func NewService(repo Repository, relSvc *relation.Service, userSvc *user.Service, assignSvc *assignment.Service,
	sessionSvc *session.Service, auditSvc *audit.Service, mailSvc core.EmailService) *Service {
	return &Service{
		repo: repo, relSvc: relSvc, userSvc: userSvc, assignSvc: assignSvc,
		sessionSvc: sessionSvc, auditSvc: auditSvc, mailSvc: mailSvc, nowFn: time.Now,
	}
}

func NewServiceMock(repo Repository, relSvc *relation.Service, userSvc *user.Service, assignSvc *assignment.Service,
	sessionSvc *session.Service, auditSvc *audit.Service, mailSvc core.EmailService, nowFn func() time.Time) *Service {
	svc := NewService(repo, relSvc, userSvc, assignSvc, sessionSvc, auditSvc, mailSvc)
	svc.nowFn = nowFn
	return svc
}

// Issue computes a student's monthly KPIs over the tutor-visible assignments
// and the attendance log, and stores the report.
func (svc *Service) Issue(tutor user.User, data NewReport) (MonthlyReport, error) {
	if err := svc.relSvc.AuthorizeTutorForStudent(tutor.ID, data.StudentID); err != nil {
		return MonthlyReport{}, err
	}
	start, end, err := core.MonthBounds(data.Period)
	if err != nil {
		return MonthlyReport{}, err
	}

	sas, err := svc.assignSvc.QueryByStudent(tutor, data.StudentID)
	if err != nil {
		return MonthlyReport{}, err
	}
	var kpis KPIs
	for _, sa := range sas {
		a := sa.Assignment
		if a.Status == assignment.StatusFinalized && inWindow(a.UpdatedAt, start, end) {
			kpis.AssignmentsFinalized++
		}
		for _, sub := range sa.Submissions {
			if inWindow(sub.CreatedAt, start, end) {
				kpis.SubmissionsMade++
			}
		}
	}
	if kpis.AttendanceMinutes, err = svc.sessionSvc.SumAttendanceMinutes(data.StudentID, start, end); err != nil {
		return MonthlyReport{}, err
	}

	rep := MonthlyReport{
		TutorID:   tutor.ID,
		StudentID: data.StudentID,
		Period:    data.Period,
		KPIs:      kpis,
		CreatedAt: svc.nowFn().UTC(),
	}
	if rep, err = svc.repo.CreateReport(rep); err != nil {
		return MonthlyReport{}, err
	}
	if _, err = svc.auditSvc.Record(audit.Entry{
		ActorID:  null.StringFrom(tutor.ID),
		Entity:   "monthlyReport",
		EntityID: rep.ID,
		Action:   actionReportIssued,
		Metadata: map[string]interface{}{
			"student_id": rep.StudentID,
			"period":     rep.Period,
			"kpis":       rep.KPIs,
		},
	}); err != nil {
		return MonthlyReport{}, err
	}
	return rep, nil
}

// Get returns a stored report; requesters go through the student visibility gate.
func (svc *Service) Get(requester user.User, id string) (MonthlyReport, error) {
	rep, err := svc.repo.GetReportByID(id)
	if err != nil {
		return MonthlyReport{}, err
	}
	if err = svc.relSvc.AuthorizeVisibility(requester.ID, requester.Role, rep.StudentID); err != nil {
		return MonthlyReport{}, err
	}
	return rep, nil
}

// QueryByStudent lists a student's reports for an authorized requester.
func (svc *Service) QueryByStudent(requester user.User, studentID string) ([]MonthlyReport, error) {
	if err := svc.relSvc.AuthorizeVisibility(requester.ID, requester.Role, studentID); err != nil {
		return nil, err
	}
	return svc.repo.QueryStudentReports(studentID)
}

// BuildDigest assembles the requester-visible snapshot of a student's
// standing: latest activity, looming deadlines, and what to do next.
func (svc *Service) BuildDigest(requester user.User, studentID string) (Digest, error) {
	sas, err := svc.assignSvc.QueryByStudent(requester, studentID)
	if err != nil {
		return Digest{}, err
	}
	notes, err := svc.sessionSvc.QueryNotes(requester, studentID)
	if err != nil {
		return Digest{}, err
	}

	var digest Digest

	// highlights: the most recent submission and note
	for _, sa := range sas {
		for i := range sa.Submissions {
			sub := sa.Submissions[i]
			if digest.Highlights.LastSubmission == nil || sub.CreatedAt.After(digest.Highlights.LastSubmission.CreatedAt) {
				s := sub
				digest.Highlights.LastSubmission = &s
			}
		}
	}
	if len(notes) > 0 {
		digest.Highlights.LatestNote = &notes[0]
	}

	// risks: due within the window and not finalized, plus unsigned sessions
	now := svc.nowFn()
	digest.Risks.DueSoon = make([]assignment.Assignment, 0)
	for _, sa := range sas {
		a := sa.Assignment
		if a.Status == assignment.StatusFinalized {
			continue
		}
		if a.DueAt.After(now) && a.DueAt.Sub(now) <= dueSoonWindow {
			digest.Risks.DueSoon = append(digest.Risks.DueSoon, a)
		}
	}
	unsigned := false
	if digest.Risks.UnsignedAttendance, err = svc.sessionSvc.FilterAttendance(session.AttendanceQueryFilter{
		StudentID:         studentID,
		ConfirmedByParent: &unsigned,
	}); err != nil {
		return Digest{}, err
	}

	// next: the nearest future due date and the latest note's action items
	for _, sa := range sas {
		a := sa.Assignment
		if a.Status == assignment.StatusFinalized || !a.DueAt.After(now) {
			continue
		}
		if digest.Next.NextDue == nil || a.DueAt.Before(digest.Next.NextDue.DueAt) {
			next := a
			digest.Next.NextDue = &next
		}
	}
	digest.Next.Checklist = make([]string, 0)
	if digest.Highlights.LatestNote != nil {
		digest.Next.Checklist = append(digest.Next.Checklist, digest.Highlights.LatestNote.NextActions...)
	}
	return digest, nil
}

// Encourage sends a parent's nudge to their student's inbox.
func (svc *Service) Encourage(parent user.User, data Encouragement) error {
	if err := svc.relSvc.AuthorizeParentForStudent(parent.ID, data.StudentID); err != nil {
		return err
	}
	student, err := svc.userSvc.GetByID(data.StudentID)
	if err != nil {
		return err
	}

	msg := data.Message
	if msg == "" {
		tpl, ok := encouragementTemplates[data.TemplateID]
		if !ok {
			return core.NewInvalidInputError("unknown encouragement template")
		}
		msg = tpl
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject: fmt.Sprintf("A note from %s", parent.Name),
		BodyStr: msg,
	})
	_, err = svc.auditSvc.Record(audit.Entry{
		ActorID:  null.StringFrom(parent.ID),
		Entity:   "encouragement",
		EntityID: data.StudentID,
		Action:   actionEncouragementSent,
		Metadata: map[string]interface{}{"template_id": data.TemplateID, "has_message": data.Message != ""},
	})
	return err
}

func inWindow(ts, from, to time.Time) bool {
	return !ts.Before(from) && ts.Before(to)
}
