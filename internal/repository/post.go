package repository

import (
	"context"
	"strings"

	"freebies/internal/models"
	"freebies/internal/observability"

	"gorm.io/gorm"
)

// FeedQuery is the SQL-side part of a feed request.
type FeedQuery struct {
	ViewerID uint
	// ExcludeIDs are post ids never returned (the viewer's hidden posts).
	ExcludeIDs []uint
	// OwnerIDs restricts results to these owners when non-nil. A non-nil empty
	// slice matches nothing.
	OwnerIDs []uint
	Category models.Category
	// Limit <= 0 means unbounded.
	Limit  int
	Offset int
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	ListForFeed(ctx context.Context, q FeedQuery) ([]*models.Post, error)
	ListByOwner(ctx context.Context, ownerID uint, limit, offset int, viewerID uint) ([]*models.Post, error)
	Search(ctx context.Context, query string, limit, offset int, viewerID uint) ([]*models.Post, error)
	CountByOwner(ctx context.Context, ownerID uint) (int64, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error) {
	var post models.Post
	err := applyPostDetails(r.db.WithContext(ctx), viewerID).
		Preload("Owner").
		Where("posts.id = ?", id).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).
		Model(post).
		Select("title", "description", "category", "latitude", "longitude", "address", "photo_url", "is_gone").
		Updates(post).Error
}

// Delete removes a post and applies the per-relation policy in one transaction:
// likes, comments, notifications, messages and hidden markers are deleted; got-it
// rows keep their giving history with post_id set to NULL.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "posts")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&models.Like{},
			&models.Comment{},
			&models.Notification{},
			&models.Message{},
			&models.HiddenPost{},
		} {
			if err := tx.Where("post_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.GotIt{}).
			Where("post_id = ?", id).
			Update("post_id", gorm.Expr("NULL")).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ListForFeed returns candidate posts newest first, ties broken by id ascending.
func (r *postRepository) ListForFeed(ctx context.Context, q FeedQuery) ([]*models.Post, error) {
	defer observability.TrackQuery("feed", "posts")()

	if q.OwnerIDs != nil && len(q.OwnerIDs) == 0 {
		return []*models.Post{}, nil
	}

	db := applyPostDetails(readDB(r.db).WithContext(ctx), q.ViewerID).Preload("Owner")
	if len(q.ExcludeIDs) > 0 {
		db = db.Where("posts.id NOT IN ?", q.ExcludeIDs)
	}
	if q.OwnerIDs != nil {
		db = db.Where("posts.owner_id IN ?", q.OwnerIDs)
	}
	if q.Category != "" {
		db = db.Where("posts.category = ?", q.Category)
	}

	var posts []*models.Post
	err := paginate(recencyOrder(db), q.Limit, q.Offset).Find(&posts).Error
	return posts, err
}

func (r *postRepository) ListByOwner(ctx context.Context, ownerID uint, limit, offset int, viewerID uint) ([]*models.Post, error) {
	var posts []*models.Post
	db := applyPostDetails(readDB(r.db).WithContext(ctx), viewerID).
		Preload("Owner").
		Where("posts.owner_id = ?", ownerID)
	err := paginate(recencyOrder(db), limit, offset).Find(&posts).Error
	return posts, err
}

func (r *postRepository) Search(ctx context.Context, query string, limit, offset int, viewerID uint) ([]*models.Post, error) {
	var posts []*models.Post
	like := "%" + strings.ToLower(query) + "%"
	db := applyPostDetails(readDB(r.db).WithContext(ctx), viewerID).
		Preload("Owner").
		Where("LOWER(posts.title) LIKE ? OR LOWER(posts.description) LIKE ?", like, like)
	err := paginate(recencyOrder(db), limit, offset).Find(&posts).Error
	return posts, err
}

func (r *postRepository) CountByOwner(ctx context.Context, ownerID uint) (int64, error) {
	defer observability.TrackQuery("count", "posts")()

	var count int64
	err := readDB(r.db).WithContext(ctx).Model(&models.Post{}).Where("owner_id = ?", ownerID).Count(&count).Error
	return count, err
}

func recencyOrder(db *gorm.DB) *gorm.DB {
	return db.Order("posts.created_at DESC").Order("posts.id ASC")
}

// applyPostDetails adds subqueries to fetch counts and liked status in a single query.
func applyPostDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count, " +
		"(SELECT COUNT(*) FROM got_its WHERE got_its.post_id = posts.id) AS got_it_count"

	if viewerID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) AS liked", viewerID)
	}
	return db.Select(selectQuery + ", false AS liked")
}
