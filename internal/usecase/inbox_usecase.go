package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/yooncheol/pricewatch/internal/domain"
	"go.uber.org/zap"
)

var ErrAlertNotFound = errors.New("alert not found")

// InboxUsecase serves the generated alert records back to their owner:
// listing, unread tracking, read/dismiss transitions and per-user statistics.
// The monitoring cycle never touches alerts after creation; every mutation
// goes through here.
type InboxUsecase struct {
	alerts domain.AlertRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewInboxUsecase(alerts domain.AlertRepository, logger *zap.Logger) *InboxUsecase {
	return &InboxUsecase{alerts: alerts, logger: logger, now: time.Now}
}

func (u *InboxUsecase) List(ctx context.Context, userID uint) ([]domain.Alert, error) {
	return u.alerts.ListByUser(ctx, userID)
}

func (u *InboxUsecase) ListUnread(ctx context.Context, userID uint) ([]domain.Alert, error) {
	return u.alerts.ListUnreadByUser(ctx, userID)
}

func (u *InboxUsecase) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return u.alerts.CountUnreadByUser(ctx, userID)
}

// ListRecent returns the user's alerts from the last 24 hours.
func (u *InboxUsecase) ListRecent(ctx context.Context, userID uint) ([]domain.Alert, error) {
	return u.alerts.ListByUserSince(ctx, userID, u.now().Add(-24*time.Hour))
}

func (u *InboxUsecase) ListHighPriority(ctx context.Context, userID uint) ([]domain.Alert, error) {
	return u.alerts.ListHighPriorityByUser(ctx, userID)
}

func (u *InboxUsecase) Get(ctx context.Context, userID, alertID uint) (*domain.Alert, error) {
	alert, err := u.alerts.GetByID(ctx, alertID)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, ErrAlertNotFound
		}
		return nil, err
	}
	if alert.UserID != userID {
		return nil, ErrAlertNotFound
	}
	return alert, nil
}

func (u *InboxUsecase) MarkRead(ctx context.Context, userID, alertID uint) error {
	if err := u.alerts.MarkRead(ctx, userID, alertID, u.now()); err != nil {
		if err == domain.ErrNotFound {
			return ErrAlertNotFound
		}
		return err
	}
	return nil
}

func (u *InboxUsecase) MarkUnread(ctx context.Context, userID, alertID uint) error {
	if err := u.alerts.MarkUnread(ctx, userID, alertID); err != nil {
		if err == domain.ErrNotFound {
			return ErrAlertNotFound
		}
		return err
	}
	return nil
}

func (u *InboxUsecase) MarkAllRead(ctx context.Context, userID uint) error {
	return u.alerts.MarkAllRead(ctx, userID, u.now())
}

// Dismiss marks an alert dismissed. A dismissed alert is also considered
// read.
func (u *InboxUsecase) Dismiss(ctx context.Context, userID, alertID uint) error {
	if err := u.alerts.Dismiss(ctx, userID, alertID, u.now()); err != nil {
		if err == domain.ErrNotFound {
			return ErrAlertNotFound
		}
		return err
	}
	u.logger.Info("alert dismissed", zap.Uint("user_id", userID), zap.Uint("alert_id", alertID))
	return nil
}

// InboxStats summarizes a user's inbox.
type InboxStats struct {
	Total        int
	Unread       int64
	Recent       int
	HighPriority int
}

func (u *InboxUsecase) StatsByUser(ctx context.Context, userID uint) (InboxStats, error) {
	all, err := u.alerts.ListByUser(ctx, userID)
	if err != nil {
		return InboxStats{}, err
	}
	unread, err := u.alerts.CountUnreadByUser(ctx, userID)
	if err != nil {
		return InboxStats{}, err
	}
	recent, err := u.alerts.ListByUserSince(ctx, userID, u.now().Add(-24*time.Hour))
	if err != nil {
		return InboxStats{}, err
	}
	high, err := u.alerts.ListHighPriorityByUser(ctx, userID)
	if err != nil {
		return InboxStats{}, err
	}
	return InboxStats{
		Total:        len(all),
		Unread:       unread,
		Recent:       len(recent),
		HighPriority: len(high),
	}, nil
}
