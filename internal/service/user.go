package service

import (
	"context"
	"errors"

	"github.com/beranamag/berana/internal/data"
	"github.com/beranamag/berana/internal/domain/model"
)

// ErrSelfDemotion is returned when an admin tries to strip or deactivate
// their own account, which could lock the last admin out.
var ErrSelfDemotion = errors.New("cannot change own role or active state")

// UserAdminStore is the persistence surface UserService depends on.
type UserAdminStore interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context, opts model.UsersListOptions) ([]*model.User, error)
	Update(ctx context.Context, id string, req model.UpdateUserRequest) (*model.User, error)
}

// UserService is the admin-facing account management surface.
type UserService struct {
	store UserAdminStore
}

// NewUserService constructs a new UserService.
func NewUserService(store UserAdminStore) *UserService {
	return &UserService{store: store}
}

// List returns accounts matching the filter.
func (s *UserService) List(ctx context.Context, opts model.UsersListOptions) ([]*model.User, error) {
	return s.store.List(ctx, opts)
}

// Get returns one account.
func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Update applies administrative changes to an account. actorID is the
// admin performing the change; role and active edits to one's own account
// are rejected. Deactivation takes effect on the target's next request
// because the middleware rechecks the stored account every time.
func (s *UserService) Update(ctx context.Context, actorID, id string, req model.UpdateUserRequest) (*model.User, error) {
	if actorID == id && (req.Role != nil || req.Active != nil) {
		return nil, ErrSelfDemotion
	}

	user, err := s.store.Update(ctx, id, req)
	if err != nil {
		if errors.Is(err, data.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
