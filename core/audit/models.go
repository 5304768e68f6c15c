package audit

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Entry is one append-only audit record. Entries are never updated or deleted.
type Entry struct {
	ID        string                 `json:"id"`
	ActorID   null.String            `json:"actor_id,omitempty"`
	Entity    string                 `json:"entity"`
	EntityID  string                 `json:"entity_id"`
	Action    string                 `json:"action"`
	FromState null.String            `json:"from_state,omitempty"`
	ToState   null.String            `json:"to_state,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"` // UTC
}

type QueryFilter struct {
	Entity   string `query:"entity"`
	EntityID string `query:"entity_id"`
	Action   string `query:"action"`
	ActorID  string `query:"actor_id"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Entity == "" && qf.EntityID == "" && qf.Action == "" && qf.ActorID == ""
}
