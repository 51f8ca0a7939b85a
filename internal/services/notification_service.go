package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"pulse-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService is the durable notification store. It records
// notifications independent of connection state; the hub calls it
// alongside real-time delivery and never blocks on it.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// Persist writes one durable notification record.
func (s *NotificationService) Persist(ctx context.Context, userID, kind, title, body string, data map[string]interface{}) error {
	encoded := "{}"
	if len(data) > 0 {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode notification data: %w", err)
		}
		encoded = string(raw)
	}

	record := &models.Notification{
		ID:     uuid.New().String(),
		UserID: userID,
		Kind:   kind,
		Title:  title,
		Body:   body,
		Data:   encoded,
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}
	return nil
}

// ListByUser pages through a user's notifications, newest first.
func (s *NotificationService) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var notifications []models.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead flags one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	result := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true)
	if result.Error != nil {
		return fmt.Errorf("mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
