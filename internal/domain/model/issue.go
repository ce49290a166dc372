package model

import (
	"errors"
	"strings"
	"time"
)

// Issue represents a published edition of the magazine.
type Issue struct {
	ID          string     `json:"id"                     db:"id"`
	Number      int        `json:"number"                 db:"number"`
	TitleEn     string     `json:"title_en"               db:"title_en"`
	TitleAm     string     `json:"title_am"               db:"title_am"`
	Theme       string     `json:"theme"                  db:"theme"`
	CoverURL    *string    `json:"cover_url,omitempty"    db:"cover_url"`
	Published   bool       `json:"published"              db:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty" db:"published_at"`
	CreatedAt   time.Time  `json:"created_at"             db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"             db:"updated_at"`
}

// CreateIssueRequest represents parameters to create an Issue.
type CreateIssueRequest struct {
	Number   int     `json:"number"`
	TitleEn  string  `json:"title_en"`
	TitleAm  string  `json:"title_am"`
	Theme    string  `json:"theme"`
	CoverURL *string `json:"cover_url,omitempty"`
}

// Validate validates CreateIssueRequest.
func (r *CreateIssueRequest) Validate() error {
	if r.Number <= 0 {
		return errors.New("number must be > 0")
	}
	if strings.TrimSpace(r.TitleEn) == "" && strings.TrimSpace(r.TitleAm) == "" {
		return errors.New("at least one language title is required")
	}
	return nil
}

// UpdateIssueRequest represents parameters to update an Issue.
type UpdateIssueRequest struct {
	TitleEn  *string `json:"title_en,omitempty"`
	TitleAm  *string `json:"title_am,omitempty"`
	Theme    *string `json:"theme,omitempty"`
	CoverURL *string `json:"cover_url,omitempty"`
}

// IssuesListOptions controls paging and filtering for listing issues.
type IssuesListOptions struct {
	Limit         int
	Offset        int
	PublishedOnly bool
}
