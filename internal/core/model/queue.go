package model

import (
	"time"

	"github.com/google/uuid"
)

// QueueItem is one pending delivery. RetryCount and LastError are the only
// mutable fields; both change only after a failed send attempt.
type QueueItem struct {
	ID         string    `json:"id" bson:"id"`
	FixID      string    `json:"fixId" bson:"fixid"`
	Payload    string    `json:"payload" bson:"payload"`
	RetryCount int       `json:"retryCount" bson:"retrycount"`
	LastError  string    `json:"lastError,omitempty" bson:"lasterror,omitempty"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdat"`
}

func NewQueueItem(fixID string, payload []byte) *QueueItem {
	return &QueueItem{
		ID:        uuid.NewString(),
		FixID:     fixID,
		Payload:   string(payload),
		CreatedAt: time.Now().UTC(),
	}
}
