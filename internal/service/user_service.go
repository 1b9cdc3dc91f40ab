package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-ops/rims-api/internal/models"
	appErrors "github.com/campus-ops/rims-api/pkg/errors"
)

type userStore interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	DeleteBatch(ctx context.Context, ids []int64) (int64, error)
	ListAccountRequests(ctx context.Context) ([]models.AccountRequest, error)
	FindAccountRequest(ctx context.Context, id int64) (*models.AccountRequest, error)
	ResolveAccountRequest(ctx context.Context, id int64, approve bool, role models.UserRole) error
	DeleteAccountRequest(ctx context.Context, id int64) error
}

type inboxWriter interface {
	Create(ctx context.Context, n *models.Notification) error
}

// UpdateUserRequest patches the mutable profile fields of a user.
type UpdateUserRequest struct {
	FirstName   string          `json:"first_name" validate:"required"`
	LastName    string          `json:"last_name" validate:"required"`
	Department  string          `json:"department" validate:"required"`
	PhoneNumber string          `json:"phone_number"`
	Role        models.UserRole `json:"role" validate:"required,oneof=ADMIN EMPLOYEE"`
}

// ResolveAccountRequestInput carries an account review decision.
type ResolveAccountRequestInput struct {
	Approve bool            `json:"approve"`
	Role    models.UserRole `json:"role"`
}

// UserService provides account administration use cases.
type UserService struct {
	repo      userStore
	inbox     inboxWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(repo userStore, inbox inboxWriter, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, inbox: inbox, validator: validate, logger: logger}
}

// List returns users matching the filter.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, paginate(filter.Page, filter.PageSize, total), nil
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Update patches a user's profile fields.
func (s *UserService) Update(ctx context.Context, id int64, req UpdateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Department = req.Department
	user.PhoneNumber = req.PhoneNumber
	user.Role = req.Role

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	return user, nil
}

// DeleteBatch removes a set of users. Admins cannot remove themselves.
func (s *UserService) DeleteBatch(ctx context.Context, ids []int64, actor models.Identity) (int64, error) {
	if len(ids) == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "no user ids provided")
	}
	for _, id := range ids {
		if id == actor.UserID {
			return 0, appErrors.Clone(appErrors.ErrValidation, "cannot delete your own account")
		}
	}
	n, err := s.repo.DeleteBatch(ctx, ids)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete users")
	}
	return n, nil
}

// ListAccountRequests returns registrations awaiting review.
func (s *UserService) ListAccountRequests(ctx context.Context) ([]models.AccountRequest, error) {
	requests, err := s.repo.ListAccountRequests(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list account requests")
	}
	return requests, nil
}

// ResolveAccountRequest approves or rejects a registration. Approval unlocks
// login for the account and notifies the user.
func (s *UserService) ResolveAccountRequest(ctx context.Context, id int64, input ResolveAccountRequestInput) error {
	request, err := s.repo.FindAccountRequest(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "account request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account request")
	}
	if request.Status != models.AccountStatusPending {
		return appErrors.Clone(appErrors.ErrConflict, "account request has already been reviewed")
	}

	role := input.Role
	if role == "" {
		role = request.Role
	}
	if err := s.repo.ResolveAccountRequest(ctx, id, input.Approve, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "account request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve account request")
	}

	notification := &models.Notification{
		UserID:  request.UserID,
		Title:   "Account Approved",
		Message: "Your account has been approved. You can now sign in.",
		Type:    models.NotificationSuccess,
	}
	if !input.Approve {
		notification.Title = "Account Rejected"
		notification.Message = "Your registration was not approved. Contact an administrator for details."
		notification.Type = models.NotificationWarning
	}
	if err := s.inbox.Create(ctx, notification); err != nil {
		s.logger.Warn("failed to notify user of account decision", zap.Int64("user_id", request.UserID), zap.Error(err))
	}

	s.logger.Info("account request resolved",
		zap.Int64("request_id", id),
		zap.Bool("approved", input.Approve),
		zap.String("role", string(role)))
	return nil
}

// DeleteAccountRequest removes a reviewed registration record.
func (s *UserService) DeleteAccountRequest(ctx context.Context, id int64) error {
	if err := s.repo.DeleteAccountRequest(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "account request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete account request")
	}
	return nil
}
