package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/beranamag/berana/internal/data"
	"github.com/beranamag/berana/internal/domain/model"
)

// ErrIssueNumberTaken is returned when an issue number is already used.
var ErrIssueNumberTaken = errors.New("issue number already in use")

// IssueStore is the persistence surface IssueService depends on.
type IssueStore interface {
	Create(ctx context.Context, req *model.CreateIssueRequest) (*model.Issue, error)
	GetByID(ctx context.Context, id string) (*model.Issue, error)
	GetByNumber(ctx context.Context, number int) (*model.Issue, error)
	List(ctx context.Context, opts model.IssuesListOptions) ([]*model.Issue, error)
	Update(ctx context.Context, id string, req model.UpdateIssueRequest) (*model.Issue, error)
	SetPublished(ctx context.Context, id string, published bool) (*model.Issue, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// IssueService manages magazine issues.
type IssueService struct {
	store IssueStore
}

// NewIssueService constructs a new IssueService.
func NewIssueService(store IssueStore) *IssueService {
	return &IssueService{store: store}
}

// ListPublished returns published issues for the public site.
func (s *IssueService) ListPublished(ctx context.Context, opts model.IssuesListOptions) ([]*model.Issue, error) {
	opts.PublishedOnly = true
	return s.store.List(ctx, opts)
}

// GetPublishedByNumber returns a published issue by its number.
func (s *IssueService) GetPublishedByNumber(ctx context.Context, number int) (*model.Issue, error) {
	issue, err := s.store.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, data.ErrIssueNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, err
	}
	return issue, nil
}

// List returns issues in any state for the back office.
func (s *IssueService) List(ctx context.Context, opts model.IssuesListOptions) ([]*model.Issue, error) {
	return s.store.List(ctx, opts)
}

// Get returns an issue in any state for the back office.
func (s *IssueService) Get(ctx context.Context, id string) (*model.Issue, error) {
	issue, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrIssueNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, err
	}
	return issue, nil
}

// Create adds a new unpublished issue.
func (s *IssueService) Create(ctx context.Context, req *model.CreateIssueRequest) (*model.Issue, error) {
	issue, err := s.store.Create(ctx, req)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return issue, nil
}

// Update edits an issue.
func (s *IssueService) Update(ctx context.Context, id string, req model.UpdateIssueRequest) (*model.Issue, error) {
	issue, err := s.store.Update(ctx, id, req)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return issue, nil
}

// SetPublished publishes or unpublishes an issue.
func (s *IssueService) SetPublished(ctx context.Context, id string, published bool) (*model.Issue, error) {
	issue, err := s.store.SetPublished(ctx, id, published)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return issue, nil
}

// Delete removes an issue. Articles and poems referencing it are detached
// by the schema, not deleted.
func (s *IssueService) Delete(ctx context.Context, id string) error {
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete issue: %w", err)
	}
	if !deleted {
		return ErrContentNotFound
	}
	return nil
}

func (s *IssueService) mapErr(err error) error {
	switch {
	case errors.Is(err, data.ErrIssueNotFound):
		return ErrContentNotFound
	case errors.Is(err, data.ErrIssueNumberExists):
		return ErrIssueNumberTaken
	default:
		return err
	}
}
