package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-ops/rims-api/internal/models"
	appErrors "github.com/campus-ops/rims-api/pkg/errors"
)

type fakeUserStore struct {
	user       *models.User
	users      []models.User
	total      int
	listErr    error
	updateErr  error
	deleted    []int64
	deleteErr  error
	request    *models.AccountRequest
	requests   []models.AccountRequest
	resolved   struct {
		id      int64
		approve bool
		role    models.UserRole
	}
	resolveErr error
}

func (f *fakeUserStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, sql.ErrNoRows
	}
	return f.user, nil
}

func (f *fakeUserStore) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	return f.users, f.total, nil
}

func (f *fakeUserStore) UpdateProfile(ctx context.Context, user *models.User) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.user = user
	return nil
}

func (f *fakeUserStore) DeleteBatch(ctx context.Context, ids []int64) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	f.deleted = ids
	return int64(len(ids)), nil
}

func (f *fakeUserStore) ListAccountRequests(ctx context.Context) ([]models.AccountRequest, error) {
	return f.requests, nil
}

func (f *fakeUserStore) FindAccountRequest(ctx context.Context, id int64) (*models.AccountRequest, error) {
	if f.request == nil || f.request.ID != id {
		return nil, sql.ErrNoRows
	}
	return f.request, nil
}

func (f *fakeUserStore) ResolveAccountRequest(ctx context.Context, id int64, approve bool, role models.UserRole) error {
	if f.resolveErr != nil {
		return f.resolveErr
	}
	f.resolved.id = id
	f.resolved.approve = approve
	f.resolved.role = role
	return nil
}

func (f *fakeUserStore) DeleteAccountRequest(ctx context.Context, id int64) error {
	if f.request == nil || f.request.ID != id {
		return sql.ErrNoRows
	}
	f.request = nil
	return nil
}

type fakeInbox struct {
	notifications []*models.Notification
	err           error
}

func (f *fakeInbox) Create(ctx context.Context, n *models.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.notifications = append(f.notifications, n)
	return nil
}

func newUserService(store *fakeUserStore, inbox *fakeInbox) *UserService {
	return NewUserService(store, inbox, validator.New(), zap.NewNop())
}

func TestUserServiceUpdate(t *testing.T) {
	store := &fakeUserStore{user: &models.User{ID: 5, Email: "staff@example.edu", Role: models.RoleEmployee}}
	svc := newUserService(store, &fakeInbox{})

	updated, err := svc.Update(context.Background(), 5, UpdateUserRequest{
		FirstName:  "Dana",
		LastName:   "Cruz",
		Department: "Facilities",
		Role:       models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "Dana", updated.FirstName)
	assert.Equal(t, models.RoleAdmin, updated.Role)
}

func TestUserServiceUpdateUnknownRole(t *testing.T) {
	store := &fakeUserStore{user: &models.User{ID: 5}}
	svc := newUserService(store, &fakeInbox{})

	_, err := svc.Update(context.Background(), 5, UpdateUserRequest{
		FirstName:  "Dana",
		LastName:   "Cruz",
		Department: "Facilities",
		Role:       "SUPERUSER",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceDeleteBatchRejectsSelf(t *testing.T) {
	store := &fakeUserStore{}
	svc := newUserService(store, &fakeInbox{})

	_, err := svc.DeleteBatch(context.Background(), []int64{4, 9}, models.Identity{UserID: 9, Role: models.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, store.deleted)
}

func TestUserServiceDeleteBatch(t *testing.T) {
	store := &fakeUserStore{}
	svc := newUserService(store, &fakeInbox{})

	n, err := svc.DeleteBatch(context.Background(), []int64{4, 6}, models.Identity{UserID: 9, Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, []int64{4, 6}, store.deleted)
}

func TestUserServiceResolveAccountRequestApprove(t *testing.T) {
	store := &fakeUserStore{request: &models.AccountRequest{
		ID:     12,
		UserID: 5,
		Role:   models.RoleEmployee,
		Status: models.AccountStatusPending,
	}}
	inbox := &fakeInbox{}
	svc := newUserService(store, inbox)

	err := svc.ResolveAccountRequest(context.Background(), 12, ResolveAccountRequestInput{Approve: true, Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.True(t, store.resolved.approve)
	assert.Equal(t, models.RoleAdmin, store.resolved.role)
	require.Len(t, inbox.notifications, 1)
	assert.Equal(t, "Account Approved", inbox.notifications[0].Title)
	assert.Equal(t, models.NotificationSuccess, inbox.notifications[0].Type)
}

func TestUserServiceResolveAccountRequestDefaultsRole(t *testing.T) {
	store := &fakeUserStore{request: &models.AccountRequest{
		ID:     12,
		UserID: 5,
		Role:   models.RoleEmployee,
		Status: models.AccountStatusPending,
	}}
	svc := newUserService(store, &fakeInbox{})

	err := svc.ResolveAccountRequest(context.Background(), 12, ResolveAccountRequestInput{Approve: true})
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, store.resolved.role)
}

func TestUserServiceResolveAccountRequestReject(t *testing.T) {
	store := &fakeUserStore{request: &models.AccountRequest{
		ID:     12,
		UserID: 5,
		Role:   models.RoleEmployee,
		Status: models.AccountStatusPending,
	}}
	inbox := &fakeInbox{}
	svc := newUserService(store, inbox)

	err := svc.ResolveAccountRequest(context.Background(), 12, ResolveAccountRequestInput{})
	require.NoError(t, err)
	assert.False(t, store.resolved.approve)
	require.Len(t, inbox.notifications, 1)
	assert.Equal(t, "Account Rejected", inbox.notifications[0].Title)
	assert.Equal(t, models.NotificationWarning, inbox.notifications[0].Type)
}

func TestUserServiceResolveAccountRequestAlreadyReviewed(t *testing.T) {
	store := &fakeUserStore{request: &models.AccountRequest{
		ID:     12,
		UserID: 5,
		Status: models.AccountStatusApproved,
	}}
	svc := newUserService(store, &fakeInbox{})

	err := svc.ResolveAccountRequest(context.Background(), 12, ResolveAccountRequestInput{Approve: true})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceResolveAccountRequestNotifyFailureIsNonFatal(t *testing.T) {
	store := &fakeUserStore{request: &models.AccountRequest{
		ID:     12,
		UserID: 5,
		Role:   models.RoleEmployee,
		Status: models.AccountStatusPending,
	}}
	svc := newUserService(store, &fakeInbox{err: assert.AnError})

	err := svc.ResolveAccountRequest(context.Background(), 12, ResolveAccountRequestInput{Approve: true})
	require.NoError(t, err)
}

func TestUserServiceGetNotFound(t *testing.T) {
	svc := newUserService(&fakeUserStore{}, &fakeInbox{})

	_, err := svc.Get(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
