package repository

import (
	"context"

	"freebies/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HiddenPostRepository tracks posts a user removed from their feed.
type HiddenPostRepository interface {
	Hide(ctx context.Context, userID, postID uint) (bool, error)
	Unhide(ctx context.Context, userID, postID uint) (bool, error)
	IsHidden(ctx context.Context, userID, postID uint) (bool, error)
	HiddenPostIDs(ctx context.Context, userID uint) ([]uint, error)
}

type hiddenPostRepository struct {
	db *gorm.DB
}

// NewHiddenPostRepository returns a new HiddenPostRepository implementation.
func NewHiddenPostRepository(db *gorm.DB) HiddenPostRepository {
	return &hiddenPostRepository{db: db}
}

func (r *hiddenPostRepository) Hide(ctx context.Context, userID, postID uint) (bool, error) {
	row := models.HiddenPost{UserID: userID, PostID: postID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	return res.RowsAffected > 0, res.Error
}

func (r *hiddenPostRepository) Unhide(ctx context.Context, userID, postID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.HiddenPost{})
	return res.RowsAffected > 0, res.Error
}

func (r *hiddenPostRepository) IsHidden(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.HiddenPost{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	return count > 0, err
}

func (r *hiddenPostRepository) HiddenPostIDs(ctx context.Context, userID uint) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).Model(&models.HiddenPost{}).
		Where("user_id = ?", userID).
		Pluck("post_id", &ids).Error
	return ids, err
}
