// Package devseed populates a development database with an admin account
// and sample bilingual content. It only runs when dev mode is enabled.
package devseed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/beranamag/berana/internal/domain/model"
	"github.com/beranamag/berana/internal/service"
)

const (
	adminEmail    = "admin@berana.local"
	adminPassword = "berana-dev-password"
)

// Options bundles the dependencies needed for development seeding.
type Options struct {
	Auth     *service.AuthService
	Articles *service.ArticleService
	Issues   *service.IssueService
	DB       *sql.DB
	Logger   *slog.Logger
}

// Seed creates the dev admin and sample content. It is idempotent:
// existing rows are left alone.
func Seed(ctx context.Context, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "devseed"))

	adminID, err := seedAdmin(ctx, opts, logger)
	if err != nil {
		return err
	}

	issueID, err := seedIssue(ctx, opts.Issues, logger)
	if err != nil {
		return err
	}

	return seedArticles(ctx, opts.Articles, adminID, issueID, logger)
}

// seedAdmin registers the dev admin through the normal flow, then
// promotes it with direct SQL since role changes are an admin-only API.
func seedAdmin(ctx context.Context, opts Options, logger *slog.Logger) (string, error) {
	_, err := opts.Auth.Register(ctx, &model.RegisterRequest{
		Email:    adminEmail,
		Name:     "Berana Admin",
		Password: adminPassword,
	})
	if err != nil && !errors.Is(err, service.ErrEmailTaken) {
		return "", fmt.Errorf("register dev admin: %w", err)
	}
	if err == nil {
		logger.InfoContext(ctx, "dev admin created", "email", adminEmail)
	}

	var adminID string
	row := opts.DB.QueryRowContext(ctx,
		`UPDATE users SET role = 'admin', verified = TRUE WHERE email = $1 RETURNING id`,
		adminEmail)
	if scanErr := row.Scan(&adminID); scanErr != nil {
		return "", fmt.Errorf("promote dev admin: %w", scanErr)
	}
	return adminID, nil
}

func seedIssue(ctx context.Context, issues *service.IssueService, logger *slog.Logger) (*string, error) {
	issue, err := issues.Create(ctx, &model.CreateIssueRequest{
		Number:  1,
		TitleEn: "First Light",
		TitleAm: "የመጀመሪያ ብርሃን",
		Theme:   "beginnings",
	})
	if err != nil {
		if errors.Is(err, service.ErrIssueNumberTaken) {
			logger.InfoContext(ctx, "sample issue already exists", "number", 1)
			return nil, nil
		}
		return nil, fmt.Errorf("create sample issue: %w", err)
	}

	if _, err := issues.SetPublished(ctx, issue.ID, true); err != nil {
		return nil, fmt.Errorf("publish sample issue: %w", err)
	}
	logger.InfoContext(ctx, "sample issue published", "number", issue.Number)
	return &issue.ID, nil
}

func seedArticles(
	ctx context.Context,
	articles *service.ArticleService,
	authorID string,
	issueID *string,
	logger *slog.Logger,
) error {
	samples := []model.CreateArticleRequest{
		{
			Slug:     "welcome-to-berana",
			TitleEn:  "Welcome to Berana",
			TitleAm:  "እንኳን ወደ ብራና በደህና መጡ",
			BodyEn:   "Berana is a bilingual magazine of Ethiopian writing.",
			BodyAm:   "ብራና የኢትዮጵያ ጽሑፍ መጽሔት ነው።",
			Category: "editorial",
			IssueID:  issueID,
		},
		{
			Slug:     "addis-in-the-rain",
			TitleEn:  "Addis in the Rain",
			TitleAm:  "አዲስ በዝናብ",
			BodyEn:   "Notes from the city during kiremt.",
			BodyAm:   "ከከተማዋ በክረምት ወራት ማስታወሻዎች።",
			Category: "essay",
			IssueID:  issueID,
		},
	}

	for i := range samples {
		req := samples[i]
		article, err := articles.Create(ctx, authorID, &req)
		if err != nil {
			if errors.Is(err, service.ErrSlugTaken) {
				continue
			}
			return fmt.Errorf("create sample article %q: %w", req.Slug, err)
		}
		if _, err := articles.SetStatus(ctx, article.ID, model.StatusPublished); err != nil {
			return fmt.Errorf("publish sample article %q: %w", req.Slug, err)
		}
		logger.InfoContext(ctx, "sample article published", "slug", req.Slug)
	}
	return nil
}
