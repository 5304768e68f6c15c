package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	echoapi "github.com/trezcool/tutorhub/apps/api/echo"
	"github.com/trezcool/tutorhub/core/assignment"
	"github.com/trezcool/tutorhub/core/billing"
	"github.com/trezcool/tutorhub/core/policy"
	"github.com/trezcool/tutorhub/core/relation"
	"github.com/trezcool/tutorhub/core/session"
	"github.com/trezcool/tutorhub/core/user"
)

func registerUser(t *testing.T, name, email, role string) user.User {
	t.Helper()
	usr, err := usrSvc.Register(user.NewUser{Name: name, Email: email, Password: "s3cr3t-pwd", Role: role})
	if err != nil {
		t.Fatalf("registerUser() failed: %v", err)
	}
	return usr
}

func TestTutoringWorkflow(t *testing.T) {
	student := registerUser(t, "Wf Student", "wf.student@test.cm", user.RoleStudent)
	parent := registerUser(t, "Wf Parent", "wf.parent@test.cm", user.RoleParent)
	tutor := registerUser(t, "Wf Tutor", "wf.tutor@test.cm", user.RoleTutor)
	studentToken := getToken(t, student)
	parentToken := getToken(t, parent)
	tutorToken := getToken(t, tutor)

	// grant the edges
	for _, gr := range []echoapi.GrantRequest{
		{Type: relation.TypeStudentTutor, AUserID: student.ID, BUserID: tutor.ID},
		{Type: relation.TypeStudentParent, AUserID: student.ID, BUserID: parent.ID},
	} {
		req, rec := newAuthRequest(http.MethodPost, "/v1/relationships", tutorToken, jsonBytes(t, gr))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)
	}

	// only tutors may open assignments
	na := assignment.NewAssignment{
		StudentID:  student.ID,
		Title:      "Decimals",
		Goal:       "order decimals",
		Difficulty: "E",
		DueAt:      time.Now().Add(72 * time.Hour),
	}
	req, rec := newAuthRequest(http.MethodPost, "/v1/assignments", studentToken, jsonBytes(t, na))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodPost, "/v1/assignments", tutorToken, jsonBytes(t, na))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	var asg assignment.Assignment
	decode(t, rec, &asg)

	// the student submits
	req, rec = newAuthRequest(http.MethodPost, "/v1/submissions", studentToken, jsonBytes(t, assignment.NewSubmission{
		AssignmentID: asg.ID,
		Files:        []assignment.File{{Name: "hw.pdf", Mime: "application/pdf", URL: "https://files.test.cm/hw.pdf"}},
		CoverMeta:    assignment.CoverMeta{Unit: "decimals"},
	}))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	var sub assignment.Submission
	decode(t, rec, &sub)
	assert.Equal(t, 1, sub.Version)

	// SLA projection for the parent
	req, rec = newAuthRequest(http.MethodGet, "/v1/students/"+student.ID+"/feedback", parentToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	var state assignment.FeedbackState
	decode(t, rec, &state)
	assert.Equal(t, assignment.FeedbackWaiting, state.Status)

	// the tutor reviews
	req, rec = newAuthRequest(http.MethodPost, "/v1/submissions/"+sub.ID+"/review", tutorToken, jsonBytes(t, assignment.ReviewSubmission{
		RubricScore: map[string]interface{}{"accuracy": 5},
	}))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// a second review of the same version is rejected
	req, rec = newAuthRequest(http.MethodPost, "/v1/submissions/"+sub.ID+"/review", tutorToken, jsonBytes(t, assignment.ReviewSubmission{
		RubricScore: map[string]interface{}{"accuracy": 1},
	}))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSchedulingWorkflow(t *testing.T) {
	student := registerUser(t, "Cal Student", "cal.student@test.cm", user.RoleStudent)
	parent := registerUser(t, "Cal Parent", "cal.parent@test.cm", user.RoleParent)
	tutor := registerUser(t, "Cal Tutor", "cal.tutor@test.cm", user.RoleTutor)
	parentToken := getToken(t, parent)
	tutorToken := getToken(t, tutor)

	if _, err := relSvc.Grant(tutor.ID, student.ID, tutor.ID, relation.TypeStudentTutor); err != nil {
		t.Fatalf("Grant() failed: %v", err)
	}
	if _, err := relSvc.Grant(parent.ID, student.ID, parent.ID, relation.TypeStudentParent); err != nil {
		t.Fatalf("Grant() failed: %v", err)
	}

	base := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Hour)
	req, rec := newAuthRequest(http.MethodPost, "/v1/calendar/propose", tutorToken, jsonBytes(t, session.NewProposal{
		StudentID: student.ID,
		Options: []session.Window{
			{Start: base, End: base.Add(time.Hour)},
			{Start: base.Add(24 * time.Hour), End: base.Add(25 * time.Hour)},
			{Start: base.Add(48 * time.Hour), End: base.Add(49 * time.Hour)},
		},
	}))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	var events []session.CalendarEvent
	decode(t, rec, &events)
	assert.Len(t, events, 3)

	// the parent confirms one option
	req, rec = newAuthRequest(http.MethodPost, "/v1/calendar/"+events[0].ID+"/confirm", parentToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	var res session.ConfirmResult
	decode(t, rec, &res)
	assert.Equal(t, session.EventConfirmed, res.Event.Status)
	assert.False(t, res.Conflict)

	// the tutor logs attendance against the confirmed event
	req, rec = newAuthRequest(http.MethodPost, "/v1/calendar/"+events[0].ID+"/attendance", tutorToken, jsonBytes(t, session.NewAttendance{
		StudentID: student.ID,
		TutorID:   tutor.ID,
		StartTs:   events[0].Start,
		EndTs:     events[0].End,
		Minutes:   60,
	}))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	var log session.AttendanceLog
	decode(t, rec, &log)

	// the parent signs once; a second signature is rejected
	req, rec = newAuthRequest(http.MethodPost, "/v1/attendance/"+log.ID+"/sign", parentToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req, rec = newAuthRequest(http.MethodPost, "/v1/attendance/"+log.ID+"/sign", parentToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// invoice for the month of the held session
	req, rec = newAuthRequest(http.MethodPost, "/v1/invoices", tutorToken, jsonBytes(t, billing.NewInvoice{
		ParentID: parent.ID,
		Period:   events[0].Start.Format("2006-01"),
	}))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	var inv billing.Invoice
	decode(t, rec, &inv)
	assert.Equal(t, billing.StatusIssued, inv.Status)
	assert.Equal(t, 72.0, inv.Total) // 60 minutes at 1.2
}

func TestPolicyExceptionEndpoint(t *testing.T) {
	tutor := registerUser(t, "Pol Tutor", "pol.tutor@test.cm", user.RoleTutor)
	tutorToken := getToken(t, tutor)

	req, rec := newAuthRequest(http.MethodPost, "/v1/policies", tutorToken, jsonBytes(t, echoapi.PolicyRequest{
		Rules: policy.Rules{Late: &policy.LateRule{GraceMinutes: 15, Option: "deduct"}},
	}))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	req, rec = newAuthRequest(http.MethodPost, "/v1/policies/exceptions", tutorToken, jsonBytes(t, policy.Exception{
		Type:    policy.ExceptionLate,
		Context: map[string]interface{}{"minutesLate": 20},
	}))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	var eval policy.Evaluation
	decode(t, rec, &eval)
	assert.Equal(t, false, eval.Outcome["waived"])
	assert.Equal(t, 5.0, eval.Outcome["adjustment"])
}
