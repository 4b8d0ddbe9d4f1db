package repository

import (
	"context"

	"freebies/internal/models"

	"gorm.io/gorm"
)

// MessageFilter narrows an inbox listing.
type MessageFilter struct {
	ReceiverID uint
	Type       models.MessageType
	UnreadOnly bool
	Limit      int
	Offset     int
}

// MessageRepository persists inbox messages.
type MessageRepository interface {
	Create(ctx context.Context, m *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	List(ctx context.Context, f MessageFilter) ([]*models.Message, error)
	MarkRead(ctx context.Context, id uint) error
	MarkAllRead(ctx context.Context, receiverID uint) (int64, error)
	Delete(ctx context.Context, id uint) error
	CountUnreadByType(ctx context.Context, receiverID uint) (map[models.MessageType]int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository returns a new MessageRepository implementation.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, m *models.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var m models.Message
	if err := r.db.WithContext(ctx).Preload("Sender").First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *messageRepository) List(ctx context.Context, f MessageFilter) ([]*models.Message, error) {
	var list []*models.Message
	db := readDB(r.db).WithContext(ctx).
		Preload("Sender").
		Where("receiver_id = ?", f.ReceiverID)
	if f.Type != "" {
		db = db.Where("type = ?", f.Type)
	}
	if f.UnreadOnly {
		db = db.Where("read = ?", false)
	}
	db = db.Order("created_at DESC").Order("id DESC")
	err := paginate(db, f.Limit, f.Offset).Find(&list).Error
	return list, err
}

func (r *messageRepository) MarkRead(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ?", id).
		Update("read", true).Error
}

func (r *messageRepository) MarkAllRead(ctx context.Context, receiverID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND read = ?", receiverID, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}

func (r *messageRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Message{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

type typeCount struct {
	Type  models.MessageType
	Count int64
}

// CountUnreadByType returns unread counts keyed by type. Every known type is present.
func (r *messageRepository) CountUnreadByType(ctx context.Context, receiverID uint) (map[models.MessageType]int64, error) {
	var rows []typeCount
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Select("type, COUNT(*) AS count").
		Where("receiver_id = ? AND read = ?", receiverID, false).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.MessageType]int64, len(models.MessageTypes))
	for _, t := range models.MessageTypes {
		counts[t] = 0
	}
	for _, row := range rows {
		counts[row.Type] = row.Count
	}
	return counts, nil
}
