package model

import (
	"errors"
	"strings"
	"time"
)

// Poem represents a poem with bilingual text. Translator is set when the
// second language is a translation rather than an original.
type Poem struct {
	ID          string        `json:"id"                     db:"id"`
	Slug        string        `json:"slug"                   db:"slug"`
	TitleEn     string        `json:"title_en"               db:"title_en"`
	TitleAm     string        `json:"title_am"               db:"title_am"`
	BodyEn      string        `json:"body_en"                db:"body_en"`
	BodyAm      string        `json:"body_am"                db:"body_am"`
	Translator  *string       `json:"translator,omitempty"   db:"translator"`
	AuthorID    string        `json:"author_id"              db:"author_id"`
	IssueID     *string       `json:"issue_id,omitempty"     db:"issue_id"`
	Status      ContentStatus `json:"status"                 db:"status"`
	PublishedAt *time.Time    `json:"published_at,omitempty" db:"published_at"`
	CreatedAt   time.Time     `json:"created_at"             db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"             db:"updated_at"`
}

// CreatePoemRequest represents parameters to create a Poem.
type CreatePoemRequest struct {
	Slug       string  `json:"slug"`
	TitleEn    string  `json:"title_en"`
	TitleAm    string  `json:"title_am"`
	BodyEn     string  `json:"body_en"`
	BodyAm     string  `json:"body_am"`
	Translator *string `json:"translator,omitempty"`
	IssueID    *string `json:"issue_id,omitempty"`
}

// Validate validates CreatePoemRequest.
func (r *CreatePoemRequest) Validate() error {
	r.Slug = strings.TrimSpace(strings.ToLower(r.Slug))
	if !slugPattern.MatchString(r.Slug) {
		return errors.New("slug must be lowercase letters, digits, and hyphens")
	}
	return validateBilingualText(r.TitleEn, r.TitleAm, r.BodyEn, r.BodyAm)
}

// UpdatePoemRequest represents parameters to update a Poem.
type UpdatePoemRequest struct {
	Slug       *string `json:"slug,omitempty"`
	TitleEn    *string `json:"title_en,omitempty"`
	TitleAm    *string `json:"title_am,omitempty"`
	BodyEn     *string `json:"body_en,omitempty"`
	BodyAm     *string `json:"body_am,omitempty"`
	Translator *string `json:"translator,omitempty"`
	IssueID    *string `json:"issue_id,omitempty"`
}

// Validate validates UpdatePoemRequest.
func (r *UpdatePoemRequest) Validate() error {
	if r.Slug != nil {
		*r.Slug = strings.TrimSpace(strings.ToLower(*r.Slug))
		if !slugPattern.MatchString(*r.Slug) {
			return errors.New("slug must be lowercase letters, digits, and hyphens")
		}
	}
	return nil
}
