package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/beranamag/berana/internal/data"
	"github.com/beranamag/berana/internal/domain/model"
)

// Submission sentinels.
var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrAlreadyReviewed    = errors.New("submission already reviewed")
)

// SubmissionStore is the persistence surface SubmissionService depends on.
type SubmissionStore interface {
	Create(ctx context.Context, req *model.CreateSubmissionRequest) (*model.Submission, error)
	GetByID(ctx context.Context, id string) (*model.Submission, error)
	List(ctx context.Context, opts model.SubmissionsListOptions) ([]*model.Submission, error)
	Review(ctx context.Context, id, reviewerID string, req model.ReviewSubmissionRequest) (*model.Submission, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// SubmissionService handles the reader submission inbox and its editorial
// review queue.
type SubmissionService struct {
	store SubmissionStore
}

// NewSubmissionService constructs a new SubmissionService.
func NewSubmissionService(store SubmissionStore) *SubmissionService {
	return &SubmissionService{store: store}
}

// Submit files a new pending submission. The endpoint is public, so the
// request carries the submitter's own name and email.
func (s *SubmissionService) Submit(ctx context.Context, req *model.CreateSubmissionRequest) (*model.Submission, error) {
	return s.store.Create(ctx, req)
}

// Get returns a submission for the review queue.
func (s *SubmissionService) Get(ctx context.Context, id string) (*model.Submission, error) {
	sub, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrSubmissionNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return sub, nil
}

// List returns submissions for the review queue.
func (s *SubmissionService) List(ctx context.Context, opts model.SubmissionsListOptions) ([]*model.Submission, error) {
	return s.store.List(ctx, opts)
}

// Review records an accept or reject decision by reviewerID. A submission
// can only be decided once.
func (s *SubmissionService) Review(ctx context.Context, id, reviewerID string, req model.ReviewSubmissionRequest) (*model.Submission, error) {
	sub, err := s.store.Review(ctx, id, reviewerID, req)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrSubmissionNotFound):
			return nil, ErrSubmissionNotFound
		case errors.Is(err, data.ErrSubmissionAlreadyReviewed):
			return nil, ErrAlreadyReviewed
		default:
			return nil, err
		}
	}
	return sub, nil
}

// Delete removes a submission from the queue.
func (s *SubmissionService) Delete(ctx context.Context, id string) error {
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	if !deleted {
		return ErrSubmissionNotFound
	}
	return nil
}
