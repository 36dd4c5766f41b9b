package postgres

import (
	"context"
	"errors"

	domain "github.com/borobepari/marketplace-api/internal/domain"
)

// NotificationRepository inserts in-app notifications.
type NotificationRepository struct {
	db *DB
}

// NewNotificationRepository constructs a notification repository bound to the shared DB.
func NewNotificationRepository(db *DB) (*NotificationRepository, error) {
	if db == nil {
		return nil, errors.New("notification repository: db is required")
	}
	return &NotificationRepository{db: db}, nil
}

// Insert stores a single in-app notification row.
func (r *NotificationRepository) Insert(ctx context.Context, notification domain.Notification) error {
	_, err := r.db.querier(ctx).Exec(ctx, `
		INSERT INTO notifications (id, user_id, title, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		notification.ID, notification.UserID, notification.Title, notification.Body, notification.CreatedAt)
	if err != nil {
		return wrapError("notification insert", err)
	}
	return nil
}
