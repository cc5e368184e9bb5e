package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/blogfolio/backend/errs"
	"github.com/blogfolio/backend/models"
)

const notificationPageLimit = 50

// NotificationList is what the admin bell polls for.
type NotificationList struct {
	Notifications []models.Notification `json:"notifications"`
	Unread        int64                 `json:"unread"`
}

// NotificationService serves the admin notification bell. Admin-only.
type NotificationService struct {
	guard  Guard
	store  NotificationStore
	logger zerolog.Logger
}

func NewNotificationService(guard Guard, store NotificationStore, logger zerolog.Logger) *NotificationService {
	return &NotificationService{
		guard:  guard,
		store:  store,
		logger: logger.With().Str("service", "notifications").Logger(),
	}
}

func (s *NotificationService) List(ctx context.Context) (*NotificationList, error) {
	if err := s.guard.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	notifications, err := s.store.FindRecent(ctx, notificationPageLimit)
	if err != nil {
		return nil, errs.NewPersistenceError("list", "notifications", err)
	}
	unread, err := s.store.CountUnread(ctx)
	if err != nil {
		return nil, errs.NewPersistenceError("count", "notifications", err)
	}
	return &NotificationList{Notifications: notifications, Unread: unread}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id uuid.UUID) error {
	if err := s.guard.RequireAdmin(ctx); err != nil {
		return err
	}

	if err := s.store.MarkRead(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NewNotFound("notification")
		}
		return errs.NewPersistenceError("update", "notification", err)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	if err := s.guard.RequireAdmin(ctx); err != nil {
		return err
	}

	if err := s.store.MarkAllRead(ctx); err != nil {
		return errs.NewPersistenceError("update", "notifications", err)
	}
	return nil
}
