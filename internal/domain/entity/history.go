package entity

import (
	"time"

	"github.com/vlaamswoordenboek/woordenboek/internal/domain/workflow"
)

// ArticleHistory is one entry of an article's review trail
type ArticleHistory struct {
	ID            int64           `json:"id"`
	ArticleID     int64           `json:"article_id"`
	ActorID       *int64          `json:"actor_id,omitempty"`
	PreviousState *workflow.State `json:"previous_state,omitempty"`
	NewState      workflow.State  `json:"new_state"`
	Action        string          `json:"action"`
	EditorID      *int64          `json:"editor_id,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}
