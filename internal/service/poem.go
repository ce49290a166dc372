package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/beranamag/berana/internal/data"
	"github.com/beranamag/berana/internal/domain/model"
)

// PoemStore is the persistence surface PoemService depends on.
type PoemStore interface {
	Create(ctx context.Context, authorID string, req *model.CreatePoemRequest) (*model.Poem, error)
	GetByID(ctx context.Context, id string) (*model.Poem, error)
	GetBySlug(ctx context.Context, slug string) (*model.Poem, error)
	List(ctx context.Context, opts model.ContentListOptions) ([]*model.Poem, error)
	Update(ctx context.Context, id string, req model.UpdatePoemRequest) (*model.Poem, error)
	SetStatus(ctx context.Context, id string, status model.ContentStatus) (*model.Poem, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// PoemService exposes the public reading surface and the editorial write
// surface for poems.
type PoemService struct {
	store PoemStore
}

// NewPoemService constructs a new PoemService.
func NewPoemService(store PoemStore) *PoemService {
	return &PoemService{store: store}
}

// ListPublished returns published poems for the public site.
func (s *PoemService) ListPublished(ctx context.Context, opts model.ContentListOptions) ([]*model.Poem, error) {
	opts.PublishedOnly = true
	opts.Category = nil
	return s.store.List(ctx, opts)
}

// GetPublishedBySlug returns a published poem by slug.
func (s *PoemService) GetPublishedBySlug(ctx context.Context, slug string) (*model.Poem, error) {
	poem, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, data.ErrPoemNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, err
	}
	return poem, nil
}

// List returns poems in any status for the back office.
func (s *PoemService) List(ctx context.Context, opts model.ContentListOptions) ([]*model.Poem, error) {
	opts.Category = nil
	return s.store.List(ctx, opts)
}

// Get returns a poem in any status for the back office.
func (s *PoemService) Get(ctx context.Context, id string) (*model.Poem, error) {
	poem, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrPoemNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, err
	}
	return poem, nil
}

// Create drafts a new poem owned by authorID.
func (s *PoemService) Create(ctx context.Context, authorID string, req *model.CreatePoemRequest) (*model.Poem, error) {
	poem, err := s.store.Create(ctx, authorID, req)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return poem, nil
}

// Update edits a poem.
func (s *PoemService) Update(ctx context.Context, id string, req model.UpdatePoemRequest) (*model.Poem, error) {
	poem, err := s.store.Update(ctx, id, req)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return poem, nil
}

// SetStatus publishes, unpublishes, or archives a poem.
func (s *PoemService) SetStatus(ctx context.Context, id string, status model.ContentStatus) (*model.Poem, error) {
	if !status.Valid() {
		return nil, errors.New("invalid content status")
	}
	poem, err := s.store.SetStatus(ctx, id, status)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return poem, nil
}

// Delete removes a poem.
func (s *PoemService) Delete(ctx context.Context, id string) error {
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete poem: %w", err)
	}
	if !deleted {
		return ErrContentNotFound
	}
	return nil
}

func (s *PoemService) mapErr(err error) error {
	switch {
	case errors.Is(err, data.ErrPoemNotFound):
		return ErrContentNotFound
	case errors.Is(err, data.ErrSlugExists):
		return ErrSlugTaken
	default:
		return err
	}
}
