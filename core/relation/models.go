package relation

import "time"

// Relationship types. For the student-anchored types the student is always
// the A party.
const (
	TypeStudentParent = "S-P"
	TypeStudentTutor  = "S-T"
	TypeParentTutor   = "P-T"
)

// Relationship is one consent-flagged edge between two users. Several edges may
// exist historically for the same pair and type; only the presence of at least
// one consented edge authorizes an action.
type Relationship struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	AUserID   string    `json:"a_user_id"`
	BUserID   string    `json:"b_user_id"`
	Consent   bool      `json:"consent"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type QueryFilter struct {
	Type    string
	AUserID string
	BUserID string
	Consent *bool
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Type == "" && qf.AUserID == "" && qf.BUserID == "" && qf.Consent == nil
}
