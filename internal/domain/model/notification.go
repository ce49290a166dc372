package model

import "time"

// NotificationKind categorizes a synthesized notification.
type NotificationKind string

const (
	NotificationSubmission NotificationKind = "submission"
	NotificationSubscriber NotificationKind = "subscriber"
)

// Notification is not persisted. The feed is synthesized on read from
// recent submissions and subscribers, so there is no unread state to
// track and nothing to migrate.
type Notification struct {
	Kind      NotificationKind `json:"kind"`
	RefID     string           `json:"ref_id"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"created_at"`
}
