package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beranamag/berana/internal/data"
	domainauth "github.com/beranamag/berana/internal/domain/auth"
	"github.com/beranamag/berana/internal/domain/model"
)

type fakeUserAdminStore struct {
	byID map[string]*model.User
}

func (f *fakeUserAdminStore) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, data.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserAdminStore) List(context.Context, model.UsersListOptions) ([]*model.User, error) {
	out := make([]*model.User, 0, len(f.byID))
	for _, u := range f.byID {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUserAdminStore) Update(_ context.Context, id string, req model.UpdateUserRequest) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, data.ErrUserNotFound
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.Active != nil {
		u.Active = *req.Active
	}
	return u, nil
}

func TestUserService_UpdateRejectsSelfRoleAndActiveChanges(t *testing.T) {
	store := &fakeUserAdminStore{byID: map[string]*model.User{
		"admin-1":  {ID: "admin-1", Role: domainauth.RoleAdmin, Active: true},
		"reader-1": {ID: "reader-1", Role: domainauth.RoleReader, Active: true},
	}}
	svc := NewUserService(store)

	role := domainauth.RoleReader
	inactive := false

	_, err := svc.Update(context.Background(), "admin-1", "admin-1", model.UpdateUserRequest{Role: &role})
	assert.ErrorIs(t, err, ErrSelfDemotion)
	_, err = svc.Update(context.Background(), "admin-1", "admin-1", model.UpdateUserRequest{Active: &inactive})
	assert.ErrorIs(t, err, ErrSelfDemotion)

	// Renaming yourself is fine.
	name := "New Name"
	updated, err := svc.Update(context.Background(), "admin-1", "admin-1", model.UpdateUserRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)

	// Deactivating someone else works.
	updated, err = svc.Update(context.Background(), "admin-1", "reader-1", model.UpdateUserRequest{Active: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.Active)
}

func TestUserService_GetUnknownUser(t *testing.T) {
	svc := NewUserService(&fakeUserAdminStore{byID: map[string]*model.User{}})
	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
