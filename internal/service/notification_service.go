package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/campus-ops/rims-api/internal/models"
	appErrors "github.com/campus-ops/rims-api/pkg/errors"
)

const notificationPageSize = 20

type notificationStore interface {
	ListByUser(ctx context.Context, userID int64, unreadOnly bool, page, pageSize int) ([]models.Notification, int, int, error)
	MarkRead(ctx context.Context, id, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, id, userID int64) error
	DeleteAll(ctx context.Context, userID int64) (int64, error)
}

// NotificationService provides inbox use cases. Entries are created by the
// ledger transactions; this service only reads and resolves them.
type NotificationService struct {
	repo   notificationStore
	logger *zap.Logger
}

// NewNotificationService constructs a NotificationService instance.
func NewNotificationService(repo notificationStore, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, logger: logger}
}

// Inbox returns the caller's notifications with the unread count.
func (s *NotificationService) Inbox(ctx context.Context, actor models.Identity, unreadOnly bool, page int) ([]models.Notification, *models.Pagination, int, error) {
	items, total, unread, err := s.repo.ListByUser(ctx, actor.UserID, unreadOnly, page, notificationPageSize)
	if err != nil {
		return nil, nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return items, paginate(page, notificationPageSize, total), unread, nil
}

// MarkRead flips one of the caller's entries to read.
func (s *NotificationService) MarkRead(ctx context.Context, id int64, actor models.Identity) error {
	if err := s.repo.MarkRead(ctx, id, actor.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// MarkAllRead flips every unread entry of the caller to read.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor models.Identity) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, actor.UserID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return n, nil
}

// Delete removes one of the caller's entries.
func (s *NotificationService) Delete(ctx context.Context, id int64, actor models.Identity) error {
	if err := s.repo.Delete(ctx, id, actor.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notification")
	}
	return nil
}

// DeleteAll clears the caller's inbox.
func (s *NotificationService) DeleteAll(ctx context.Context, actor models.Identity) (int64, error) {
	n, err := s.repo.DeleteAll(ctx, actor.UserID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear notifications")
	}
	return n, nil
}
