package assignment

import (
	"time"

	"github.com/trezcool/tutorhub/core"
	"github.com/trezcool/tutorhub/core/user"
)

// Feedback statuses, derived on demand from the student's latest submission.
const (
	FeedbackWaiting    = "waiting"
	FeedbackInProgress = "in_progress"
	FeedbackDone       = "done"
)

// Review ETA widths per pending submission status.
const (
	firstReviewETA = 24 * time.Hour
	reReviewETA    = 48 * time.Hour
)

type (
	ETAWindow struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	}

	// FeedbackState is a pure read-side projection; nothing is written and the
	// window is recomputed fresh on every query.
	FeedbackState struct {
		Status    string     `json:"status"`
		ETAWindow *ETAWindow `json:"eta_window"`
	}
)

// Feedback derives the review SLA state for a student's latest submission.
func (svc *Service) Feedback(requester user.User, studentID string) (FeedbackState, error) {
	if err := svc.relSvc.AuthorizeVisibility(requester.ID, requester.Role, studentID); err != nil {
		return FeedbackState{}, err
	}

	sub, err := svc.repo.LatestSubmissionForStudent(studentID)
	if err != nil {
		if core.IsNotFound(err) {
			return FeedbackState{Status: FeedbackDone}, nil
		}
		return FeedbackState{}, err
	}

	switch sub.Status {
	case SubmissionSubmitted:
		return FeedbackState{
			Status:    FeedbackWaiting,
			ETAWindow: &ETAWindow{Start: sub.CreatedAt, End: sub.CreatedAt.Add(firstReviewETA)},
		}, nil
	case SubmissionNeedsResubmit:
		return FeedbackState{
			Status:    FeedbackInProgress,
			ETAWindow: &ETAWindow{Start: sub.CreatedAt, End: sub.CreatedAt.Add(reReviewETA)},
		}, nil
	default:
		return FeedbackState{Status: FeedbackDone}, nil
	}
}
