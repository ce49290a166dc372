package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/beranamag/berana/internal/data"
	"github.com/beranamag/berana/internal/domain/model"
)

// Content sentinels shared by the article, poem, and issue services.
var (
	ErrContentNotFound = errors.New("content not found")
	ErrSlugTaken       = errors.New("slug already in use")
)

// ArticleStore is the persistence surface ArticleService depends on.
type ArticleStore interface {
	Create(ctx context.Context, authorID string, req *model.CreateArticleRequest) (*model.Article, error)
	GetByID(ctx context.Context, id string) (*model.Article, error)
	GetBySlug(ctx context.Context, slug string) (*model.Article, error)
	List(ctx context.Context, opts model.ContentListOptions) ([]*model.Article, error)
	Update(ctx context.Context, id string, req model.UpdateArticleRequest) (*model.Article, error)
	SetStatus(ctx context.Context, id string, status model.ContentStatus) (*model.Article, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ArticleService exposes the public reading surface and the editorial
// write surface for articles.
type ArticleService struct {
	store ArticleStore
}

// NewArticleService constructs a new ArticleService.
func NewArticleService(store ArticleStore) *ArticleService {
	return &ArticleService{store: store}
}

// ListPublished returns published articles for the public site.
func (s *ArticleService) ListPublished(ctx context.Context, opts model.ContentListOptions) ([]*model.Article, error) {
	opts.PublishedOnly = true
	return s.store.List(ctx, opts)
}

// GetPublishedBySlug returns a published article by slug.
func (s *ArticleService) GetPublishedBySlug(ctx context.Context, slug string) (*model.Article, error) {
	article, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, data.ErrArticleNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, err
	}
	return article, nil
}

// List returns articles in any status for the back office.
func (s *ArticleService) List(ctx context.Context, opts model.ContentListOptions) ([]*model.Article, error) {
	return s.store.List(ctx, opts)
}

// Get returns an article in any status for the back office.
func (s *ArticleService) Get(ctx context.Context, id string) (*model.Article, error) {
	article, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrArticleNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, err
	}
	return article, nil
}

// Create drafts a new article owned by authorID.
func (s *ArticleService) Create(ctx context.Context, authorID string, req *model.CreateArticleRequest) (*model.Article, error) {
	article, err := s.store.Create(ctx, authorID, req)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return article, nil
}

// Update edits an article.
func (s *ArticleService) Update(ctx context.Context, id string, req model.UpdateArticleRequest) (*model.Article, error) {
	article, err := s.store.Update(ctx, id, req)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return article, nil
}

// SetStatus publishes, unpublishes, or archives an article.
func (s *ArticleService) SetStatus(ctx context.Context, id string, status model.ContentStatus) (*model.Article, error) {
	if !status.Valid() {
		return nil, errors.New("invalid content status")
	}
	article, err := s.store.SetStatus(ctx, id, status)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return article, nil
}

// Delete removes an article.
func (s *ArticleService) Delete(ctx context.Context, id string) error {
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if !deleted {
		return ErrContentNotFound
	}
	return nil
}

func (s *ArticleService) mapErr(err error) error {
	switch {
	case errors.Is(err, data.ErrArticleNotFound):
		return ErrContentNotFound
	case errors.Is(err, data.ErrSlugExists):
		return ErrSlugTaken
	default:
		return err
	}
}
