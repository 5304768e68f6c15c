package assignment_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/tutorhub/core/assignment"
)

func TestService_Feedback_noSubmission(t *testing.T) {
	f := setup(t)

	state, err := f.svc.Feedback(f.student, f.student.ID)
	assert.NoError(t, err)
	assert.Equal(t, assignment.FeedbackDone, state.Status)
	assert.Nil(t, state.ETAWindow)
}

func TestService_Feedback_waiting(t *testing.T) {
	f := setup(t)
	a := f.create(t, "")
	sub := f.submit(t, a.ID)

	state, err := f.svc.Feedback(f.student, f.student.ID)
	assert.NoError(t, err)
	assert.Equal(t, assignment.FeedbackWaiting, state.Status)
	if assert.NotNil(t, state.ETAWindow) {
		assert.Equal(t, sub.CreatedAt, state.ETAWindow.Start)
		assert.Equal(t, sub.CreatedAt.Add(24*time.Hour), state.ETAWindow.End)
	}
}

func TestService_Feedback_inProgressAfterResubmitRequest(t *testing.T) {
	f := setup(t)
	a := f.create(t, "")
	sub := f.submit(t, a.ID)

	_, err := f.svc.Review(f.tutor.ID, sub.ID, assignment.ReviewSubmission{
		RubricScore:  map[string]interface{}{"accuracy": 2},
		ResubmitFlag: true,
	})
	assert.NoError(t, err)

	state, err := f.svc.Feedback(f.student, f.student.ID)
	assert.NoError(t, err)
	assert.Equal(t, assignment.FeedbackInProgress, state.Status)
	if assert.NotNil(t, state.ETAWindow) {
		assert.Equal(t, sub.CreatedAt.Add(48*time.Hour), state.ETAWindow.End)
	}
}

func TestService_Feedback_doneAfterApproval(t *testing.T) {
	f := setup(t)
	a := f.create(t, "")
	sub := f.submit(t, a.ID)

	_, err := f.svc.Review(f.tutor.ID, sub.ID, assignment.ReviewSubmission{
		RubricScore: map[string]interface{}{"accuracy": 5},
	})
	assert.NoError(t, err)

	state, err := f.svc.Feedback(f.student, f.student.ID)
	assert.NoError(t, err)
	assert.Equal(t, assignment.FeedbackDone, state.Status)
	assert.Nil(t, state.ETAWindow)
}
