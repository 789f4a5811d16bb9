package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/facundomartinezvidal/biblioteca-uade/internal/domain"
	"github.com/facundomartinezvidal/biblioteca-uade/internal/repository"
	customError "github.com/facundomartinezvidal/biblioteca-uade/pkg/errors"
	"github.com/facundomartinezvidal/biblioteca-uade/pkg/utils"

	"github.com/google/uuid"
)

type NotificationService struct {
	NotificationRepo repository.NotificationRepository
	now              func() time.Time
}

func NewNotificationService(notificationRepo repository.NotificationRepository) *NotificationService {
	return &NotificationService{
		NotificationRepo: notificationRepo,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, params domain.PaginationParams) (*domain.PaginatedResponse[domain.Notification], error) {
	params.Validate()

	notifications, total, err := s.NotificationRepo.ListByUser(ctx, userID, unreadOnly, params)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	resp := domain.NewPaginatedResponse(notifications, params.Page, params.PageSize, total)
	return &resp, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	count, err := s.NotificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}
	return count, nil
}

// MarkAsRead marks one notification read. Notifications of other users are
// reported as not found.
func (s *NotificationService) MarkAsRead(ctx context.Context, id uuid.UUID, userID string) error {
	ok, err := s.NotificationRepo.MarkAsRead(ctx, id, userID)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if !ok {
		return customError.WrapNotificationNotFound(id.String())
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	updated, err := s.NotificationRepo.MarkAllAsRead(ctx, userID)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}
	return updated, nil
}

// Cleanup deletes notifications older than the retention period.
func (s *NotificationService) Cleanup(ctx context.Context, retention time.Duration) (*domain.CleanupResponse, error) {
	if retention <= 0 {
		return nil, customError.WrapValidation("retention must be positive")
	}

	cutoff := utils.RetentionCutoff(s.now(), retention)
	deleted, err := s.NotificationRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	slog.InfoContext(ctx, "expired notifications deleted", "deleted", deleted, "cutoff", cutoff)
	return &domain.CleanupResponse{Deleted: deleted, Cutoff: cutoff}, nil
}
