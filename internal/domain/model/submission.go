package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const maxSubmissionBodyLen = 100_000

// SubmissionKind distinguishes reader-submitted articles from poems.
type SubmissionKind string

const (
	SubmissionArticle SubmissionKind = "article"
	SubmissionPoem    SubmissionKind = "poem"
)

// Valid reports whether the submission kind is supported.
func (k SubmissionKind) Valid() bool {
	return k == SubmissionArticle || k == SubmissionPoem
}

// SubmissionStatus is the editorial review state of a submission.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionAccepted SubmissionStatus = "accepted"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Valid reports whether the submission status is supported.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionPending, SubmissionAccepted, SubmissionRejected:
		return true
	default:
		return false
	}
}

// Submission represents a reader-submitted piece awaiting editorial review.
type Submission struct {
	ID             string           `json:"id"                      db:"id"`
	SubmitterName  string           `json:"submitter_name"          db:"submitter_name"`
	SubmitterEmail string           `json:"submitter_email"         db:"submitter_email"`
	Kind           SubmissionKind   `json:"kind"                    db:"kind"`
	Title          string           `json:"title"                   db:"title"`
	Body           string           `json:"body"                    db:"body"`
	Language       Language         `json:"language"                db:"language"`
	Status         SubmissionStatus `json:"status"                  db:"status"`
	ReviewedBy     *string          `json:"reviewed_by,omitempty"   db:"reviewed_by"`
	ReviewerNote   *string          `json:"reviewer_note,omitempty" db:"reviewer_note"`
	CreatedAt      time.Time        `json:"created_at"              db:"created_at"`
	ReviewedAt     *time.Time       `json:"reviewed_at,omitempty"   db:"reviewed_at"`
}

// CreateSubmissionRequest represents parameters to submit a piece.
type CreateSubmissionRequest struct {
	SubmitterName  string         `json:"submitter_name"`
	SubmitterEmail string         `json:"submitter_email"`
	Kind           SubmissionKind `json:"kind"`
	Title          string         `json:"title"`
	Body           string         `json:"body"`
	Language       Language       `json:"language"`
}

// Validate validates CreateSubmissionRequest and normalizes the email in place.
func (r *CreateSubmissionRequest) Validate() error {
	email, err := NormalizeEmail(r.SubmitterEmail)
	if err != nil {
		return err
	}
	r.SubmitterEmail = email

	if strings.TrimSpace(r.SubmitterName) == "" {
		return errors.New("submitter_name is required")
	}
	if !r.Kind.Valid() {
		return errors.New("kind must be article or poem")
	}
	if !r.Language.Valid() {
		return errors.New("language must be en or am")
	}
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title is required")
	}
	if strings.TrimSpace(r.Body) == "" {
		return errors.New("body is required")
	}
	if utf8.RuneCountInString(r.Body) > maxSubmissionBodyLen {
		return errors.New("body cannot exceed 100000 characters")
	}
	return nil
}

// ReviewSubmissionRequest represents an editorial accept/reject decision.
type ReviewSubmissionRequest struct {
	Status SubmissionStatus `json:"status"`
	Note   *string          `json:"note,omitempty"`
}

// Validate validates ReviewSubmissionRequest.
func (r *ReviewSubmissionRequest) Validate() error {
	if r.Status != SubmissionAccepted && r.Status != SubmissionRejected {
		return errors.New("status must be accepted or rejected")
	}
	return nil
}

// SubmissionsListOptions controls paging and filtering for the review queue.
type SubmissionsListOptions struct {
	Limit  int
	Offset int
	Status *SubmissionStatus // exact match
	Kind   *SubmissionKind   // exact match
}
