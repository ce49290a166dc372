package model

import "time"

// Subscriber represents a newsletter subscription. UnsubscribeToken is a
// random opaque value embedded in newsletter footers so unsubscribe links
// work without a login.
type Subscriber struct {
	ID               string    `json:"id"         db:"id"`
	Email            string    `json:"email"      db:"email"`
	Confirmed        bool      `json:"confirmed"  db:"confirmed"`
	UnsubscribeToken string    `json:"-"          db:"unsubscribe_token"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// SubscribeRequest represents parameters to join the newsletter.
type SubscribeRequest struct {
	Email string `json:"email"`
}

// Validate validates SubscribeRequest and normalizes the email in place.
func (r *SubscribeRequest) Validate() error {
	email, err := NormalizeEmail(r.Email)
	if err != nil {
		return err
	}
	r.Email = email
	return nil
}

// UnsubscribeRequest carries the opaque unsubscribe token.
type UnsubscribeRequest struct {
	Token string `json:"token"`
}

// BroadcastRequest announces a published issue to subscribers.
type BroadcastRequest struct {
	IssueID string `json:"issue_id"`
}
