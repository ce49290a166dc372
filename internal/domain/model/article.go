package model

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const maxTitleLen = 300

// ContentStatus is the publication state shared by articles and poems.
type ContentStatus string

const (
	StatusDraft     ContentStatus = "draft"
	StatusPublished ContentStatus = "published"
	StatusArchived  ContentStatus = "archived"
)

// Valid reports whether the content status is supported.
func (s ContentStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	default:
		return false
	}
}

// Language identifies which of the two magazine languages a text is in.
type Language string

const (
	LangEnglish Language = "en"
	LangAmharic Language = "am"
)

// Valid reports whether the language is supported.
func (l Language) Valid() bool {
	return l == LangEnglish || l == LangAmharic
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Article represents a magazine article with bilingual title and body.
// At least one language pair must be present; the other may be empty until
// a translation lands.
type Article struct {
	ID          string        `json:"id"                     db:"id"`
	Slug        string        `json:"slug"                   db:"slug"`
	TitleEn     string        `json:"title_en"               db:"title_en"`
	TitleAm     string        `json:"title_am"               db:"title_am"`
	BodyEn      string        `json:"body_en"                db:"body_en"`
	BodyAm      string        `json:"body_am"                db:"body_am"`
	Category    string        `json:"category"               db:"category"`
	AuthorID    string        `json:"author_id"              db:"author_id"`
	IssueID     *string       `json:"issue_id,omitempty"     db:"issue_id"`
	Status      ContentStatus `json:"status"                 db:"status"`
	PublishedAt *time.Time    `json:"published_at,omitempty" db:"published_at"`
	CreatedAt   time.Time     `json:"created_at"             db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"             db:"updated_at"`
}

// CreateArticleRequest represents parameters to create an Article.
type CreateArticleRequest struct {
	Slug     string  `json:"slug"`
	TitleEn  string  `json:"title_en"`
	TitleAm  string  `json:"title_am"`
	BodyEn   string  `json:"body_en"`
	BodyAm   string  `json:"body_am"`
	Category string  `json:"category"`
	IssueID  *string `json:"issue_id,omitempty"`
}

// Validate validates CreateArticleRequest.
func (r *CreateArticleRequest) Validate() error {
	r.Slug = strings.TrimSpace(strings.ToLower(r.Slug))
	if !slugPattern.MatchString(r.Slug) {
		return errors.New("slug must be lowercase letters, digits, and hyphens")
	}
	return validateBilingualText(r.TitleEn, r.TitleAm, r.BodyEn, r.BodyAm)
}

// UpdateArticleRequest represents parameters to update an Article.
type UpdateArticleRequest struct {
	Slug     *string `json:"slug,omitempty"`
	TitleEn  *string `json:"title_en,omitempty"`
	TitleAm  *string `json:"title_am,omitempty"`
	BodyEn   *string `json:"body_en,omitempty"`
	BodyAm   *string `json:"body_am,omitempty"`
	Category *string `json:"category,omitempty"`
	IssueID  *string `json:"issue_id,omitempty"`
}

// Validate validates UpdateArticleRequest.
func (r *UpdateArticleRequest) Validate() error {
	if r.Slug != nil {
		*r.Slug = strings.TrimSpace(strings.ToLower(*r.Slug))
		if !slugPattern.MatchString(*r.Slug) {
			return errors.New("slug must be lowercase letters, digits, and hyphens")
		}
	}
	for _, title := range []*string{r.TitleEn, r.TitleAm} {
		if title != nil && utf8.RuneCountInString(*title) > maxTitleLen {
			return errors.New("title cannot exceed 300 characters")
		}
	}
	return nil
}

// ContentListOptions controls paging and filtering for listing articles and poems.
type ContentListOptions struct {
	Limit         int
	Offset        int
	Q             *string        // substring match on titles (ILIKE)
	Lang          *Language      // only entries with complete text in this language
	Category      *string        // exact match
	IssueID       *string        // exact match
	Status        *ContentStatus // exact match; public routes pin this to published
	PublishedOnly bool
}

// validateBilingualText requires at least one complete (title, body) pair.
func validateBilingualText(titleEn, titleAm, bodyEn, bodyAm string) error {
	enOK := strings.TrimSpace(titleEn) != "" && strings.TrimSpace(bodyEn) != ""
	amOK := strings.TrimSpace(titleAm) != "" && strings.TrimSpace(bodyAm) != ""
	if !enOK && !amOK {
		return errors.New("at least one language must have both title and body")
	}
	for _, title := range []string{titleEn, titleAm} {
		if utf8.RuneCountInString(title) > maxTitleLen {
			return errors.New("title cannot exceed 300 characters")
		}
	}
	return nil
}
