package outbox

import (
	"time"
)

// OutboxMessage is an event that could not be delivered to the broker yet.
type OutboxMessage struct {
	ID          int64
	Topic       string
	Key         string
	Payload     []byte
	ContentType string
	RetryCount  int
	MaxRetries  int
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	NextRetryAt time.Time
}
