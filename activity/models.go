package activity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// LogEntry models the persisted row in directory_activity.
type LogEntry struct {
	bun.BaseModel `bun:"table:directory_activity"`

	ID         uuid.UUID      `bun:",pk,type:uuid"`
	ActorID    uuid.UUID      `bun:"actor_id,type:uuid"`
	Verb       string         `bun:"verb"`
	ObjectType string         `bun:"object_type"`
	ObjectID   string         `bun:"object_id"`
	Data       map[string]any `bun:"data,type:jsonb"`
	CreatedAt  time.Time      `bun:"created_at"`
}
