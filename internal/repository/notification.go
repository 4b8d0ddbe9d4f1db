package repository

import (
	"context"

	"freebies/internal/models"
	"freebies/internal/observability"

	"gorm.io/gorm"
)

// NotificationKey identifies the dedup tuple of a notification.
type NotificationKey struct {
	RecipientID uint
	ActorID     uint
	PostID      *uint
	Type        models.NotificationType
}

// NotificationRepository persists user notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	Exists(ctx context.Context, key NotificationKey) (bool, error)
	DeleteMatching(ctx context.Context, key NotificationKey) (int64, error)
	GetByID(ctx context.Context, id uint) (*models.Notification, error)
	ListForUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Notification, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, id uint) error
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository returns a new NotificationRepository implementation.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) Exists(ctx context.Context, key NotificationKey) (bool, error) {
	var count int64
	err := matchKey(r.db.WithContext(ctx).Model(&models.Notification{}), key).Count(&count).Error
	return count > 0, err
}

func (r *notificationRepository) DeleteMatching(ctx context.Context, key NotificationKey) (int64, error) {
	res := matchKey(r.db.WithContext(ctx), key).Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}

func (r *notificationRepository) GetByID(ctx context.Context, id uint) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.WithContext(ctx).Preload("Actor").First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) ListForUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Notification, error) {
	defer observability.TrackQuery("list", "notifications")()

	var list []*models.Notification
	db := readDB(r.db).WithContext(ctx).
		Preload("Actor").
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC")
	err := paginate(db, limit, offset).Find(&list).Error
	return list, err
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ?", id).
		Update("is_read", true).Error
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func matchKey(db *gorm.DB, key NotificationKey) *gorm.DB {
	db = db.Where("user_id = ? AND actor_id = ? AND type = ?", key.RecipientID, key.ActorID, key.Type)
	if key.PostID == nil {
		return db.Where("post_id IS NULL")
	}
	return db.Where("post_id = ?", *key.PostID)
}
