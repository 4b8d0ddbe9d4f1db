package repository

import (
	"context"

	"freebies/internal/models"
	"freebies/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GotItRepository persists "got it" claims on posts.
type GotItRepository interface {
	Exists(ctx context.Context, userID, postID uint) (bool, error)
	Create(ctx context.Context, userID, postID, giverID uint) (bool, error)
	Delete(ctx context.Context, userID, postID uint) (bool, error)
	ListUsers(ctx context.Context, postID uint) ([]models.User, error)
	// CountReceived counts rows where userID is the receiver.
	CountReceived(ctx context.Context, userID uint) (int64, error)
	// CountGiven counts rows where userID is the recorded giver.
	CountGiven(ctx context.Context, userID uint) (int64, error)
}

type gotItRepository struct {
	db *gorm.DB
}

// NewGotItRepository returns a new GotItRepository implementation.
func NewGotItRepository(db *gorm.DB) GotItRepository {
	return &gotItRepository{db: db}
}

func (r *gotItRepository) Exists(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GotIt{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	return count > 0, err
}

func (r *gotItRepository) Create(ctx context.Context, userID, postID, giverID uint) (bool, error) {
	row := models.GotIt{UserID: userID, PostID: &postID, GiverID: giverID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	return res.RowsAffected > 0, res.Error
}

func (r *gotItRepository) Delete(ctx context.Context, userID, postID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.GotIt{})
	return res.RowsAffected > 0, res.Error
}

func (r *gotItRepository) ListUsers(ctx context.Context, postID uint) ([]models.User, error) {
	var users []models.User
	err := readDB(r.db).WithContext(ctx).
		Joins("JOIN got_its ON got_its.user_id = users.id").
		Where("got_its.post_id = ?", postID).
		Order("got_its.created_at ASC").
		Find(&users).Error
	return users, err
}

func (r *gotItRepository) CountReceived(ctx context.Context, userID uint) (int64, error) {
	defer observability.TrackQuery("count", "got_its")()

	var count int64
	err := readDB(r.db).WithContext(ctx).Model(&models.GotIt{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *gotItRepository) CountGiven(ctx context.Context, userID uint) (int64, error) {
	defer observability.TrackQuery("count", "got_its")()

	var count int64
	err := readDB(r.db).WithContext(ctx).Model(&models.GotIt{}).Where("giver_id = ?", userID).Count(&count).Error
	return count, err
}
