package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"freebies/internal/cache"
	"freebies/internal/featureflags"
	"freebies/internal/geo"
	"freebies/internal/models"
	"freebies/internal/repository"
)

// DefaultReportGoneMaxDistanceKm is how close a reporter must be to mark an item gone.
const DefaultReportGoneMaxDistanceKm = 0.1

type PostService struct {
	postRepo   repository.PostRepository
	userRepo   repository.UserRepository
	likeRepo   repository.LikeRepository
	gotItRepo  repository.GotItRepository
	hiddenRepo repository.HiddenPostRepository
	flags      *featureflags.Manager
	cache      *cache.Store

	reportGoneMaxKm float64
}

// PostDeps groups the collaborators of PostService.
type PostDeps struct {
	Posts   repository.PostRepository
	Users   repository.UserRepository
	Likes   repository.LikeRepository
	GotIts  repository.GotItRepository
	Hidden  repository.HiddenPostRepository
	Flags   *featureflags.Manager
	Cache   *cache.Store
	// ReportGoneMaxDistanceKm defaults to DefaultReportGoneMaxDistanceKm when zero.
	ReportGoneMaxDistanceKm float64
}

type CreatePostInput struct {
	UserID      uint
	Title       string
	Description string
	Category    models.Category
	Latitude    float64
	Longitude   float64
	Address     string
	PhotoURL    string
}

// UpdatePostInput carries optional fields; nil leaves the stored value unchanged.
type UpdatePostInput struct {
	UserID      uint
	PostID      uint
	Title       *string
	Description *string
	Category    *models.Category
	Latitude    *float64
	Longitude   *float64
	Address     *string
	PhotoURL    *string
	IsGone      *bool
}

type ReportGoneInput struct {
	UserID    uint
	PostID    uint
	Latitude  float64
	Longitude float64
	PhotoURL  string
}

func NewPostService(deps PostDeps) *PostService {
	maxKm := deps.ReportGoneMaxDistanceKm
	if maxKm <= 0 {
		maxKm = DefaultReportGoneMaxDistanceKm
	}
	return &PostService{
		postRepo:        deps.Posts,
		userRepo:        deps.Users,
		likeRepo:        deps.Likes,
		gotItRepo:       deps.GotIts,
		hiddenRepo:      deps.Hidden,
		flags:           deps.Flags,
		cache:           deps.Cache,
		reportGoneMaxKm: maxKm,
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	const maxTitleLen = 200

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 200 characters)")
	}
	if !in.Category.Valid() {
		return nil, models.NewValidationError("Invalid category")
	}
	if err := validateCoordinates(in.Latitude, in.Longitude); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:       title,
		Description: in.Description,
		Category:    in.Category,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Address:     in.Address,
		PhotoURL:    in.PhotoURL,
		OwnerID:     in.UserID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, storeError(ctx, err, "Post", 0, "create post")
	}

	return s.load(ctx, post.ID, in.UserID)
}

// GetPost returns one post with counts. Anonymous reads go through the Redis
// cache when the post_cache flag is on.
func (s *PostService) GetPost(ctx context.Context, id uint, viewerID uint) (*models.Post, error) {
	if viewerID != 0 || !s.flags.Enabled(featureflags.PostCache, 0) {
		return s.load(ctx, id, viewerID)
	}

	var post models.Post
	err := s.cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		p, err := s.postRepo.GetByID(ctx, id, 0)
		if err != nil {
			return err
		}
		post = *p
		return nil
	})
	if err != nil {
		return nil, storeError(ctx, err, "Post", id, "load post")
	}
	return &post, nil
}

func (s *PostService) SearchPosts(ctx context.Context, query string, limit, offset int, viewerID uint) ([]*models.Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	posts, err := s.postRepo.Search(ctx, query, limit, offset, viewerID)
	if err != nil {
		return nil, storeError(ctx, err, "Post", query, "search posts")
	}
	return posts, nil
}

// GetUserPosts lists ownerID's posts newest first.
func (s *PostService) GetUserPosts(ctx context.Context, ownerID uint, limit, offset int, viewerID uint) ([]*models.Post, error) {
	if _, err := s.userRepo.GetByID(ctx, ownerID); err != nil {
		return nil, storeError(ctx, err, "User", ownerID, "load user")
	}
	posts, err := s.postRepo.ListByOwner(ctx, ownerID, limit, offset, viewerID)
	if err != nil {
		return nil, storeError(ctx, err, "Post", ownerID, "list posts")
	}
	return posts, nil
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, storeError(ctx, err, "Post", in.PostID, "load post")
	}
	if post.OwnerID != in.UserID {
		return nil, models.NewForbiddenError("You can only update your own posts")
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, models.NewValidationError("Title cannot be empty")
		}
		post.Title = title
	}
	if in.Description != nil {
		post.Description = *in.Description
	}
	if in.Category != nil {
		if !in.Category.Valid() {
			return nil, models.NewValidationError("Invalid category")
		}
		post.Category = *in.Category
	}
	if in.Latitude != nil {
		post.Latitude = *in.Latitude
	}
	if in.Longitude != nil {
		post.Longitude = *in.Longitude
	}
	if err := validateCoordinates(post.Latitude, post.Longitude); err != nil {
		return nil, err
	}
	if in.Address != nil {
		post.Address = *in.Address
	}
	if in.PhotoURL != nil {
		post.PhotoURL = *in.PhotoURL
	}
	if in.IsGone != nil {
		post.IsGone = *in.IsGone
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, storeError(ctx, err, "Post", in.PostID, "update post")
	}
	s.cache.Invalidate(ctx, cache.PostKey(post.ID))
	return post, nil
}

// DeletePost removes a post owned by userID together with its dependent rows.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID, 0)
	if err != nil {
		return storeError(ctx, err, "Post", postID, "load post")
	}
	if post.OwnerID != userID {
		return models.NewForbiddenError("You can only delete your own posts")
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return storeError(ctx, err, "Post", postID, "delete post")
	}
	s.cache.Invalidate(ctx, cache.PostKey(postID))
	return nil
}

// ReportGone marks a post gone on behalf of a user standing next to it.
func (s *PostService) ReportGone(ctx context.Context, in ReportGoneInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, storeError(ctx, err, "Post", in.PostID, "load post")
	}
	reporter, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, storeError(ctx, err, "User", in.UserID, "load user")
	}

	distance := geo.Distance(in.Latitude, in.Longitude, post.Latitude, post.Longitude)
	// Negated so an unusable distance is rejected too.
	if !(distance <= s.reportGoneMaxKm) {
		return nil, &models.AppError{
			Code: models.CodeInvalidState,
			Message: fmt.Sprintf(
				"You must be within %d meters of the item to report it as gone. You are %d meters away.",
				int(s.reportGoneMaxKm*1000), int(distance*1000),
			),
			Status: http.StatusForbidden,
		}
	}

	post.Description = fmt.Sprintf("Reported all gone by %s.\n\n%s", reporter.Username, post.Description)
	post.PhotoURL = in.PhotoURL
	post.IsGone = true

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, storeError(ctx, err, "Post", in.PostID, "update post")
	}
	s.cache.Invalidate(ctx, cache.PostKey(post.ID))
	return post, nil
}

// HidePost hides postID from userID's feed. Hiding twice is not an error.
func (s *PostService) HidePost(ctx context.Context, userID, postID uint) error {
	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		return storeError(ctx, err, "Post", postID, "load post")
	}
	if _, err := s.hiddenRepo.Hide(ctx, userID, postID); err != nil {
		return storeError(ctx, err, "HiddenPost", postID, "hide post")
	}
	return nil
}

// UnhidePost reverses HidePost. It fails with NotFound when the post was not hidden.
func (s *PostService) UnhidePost(ctx context.Context, userID, postID uint) error {
	removed, err := s.hiddenRepo.Unhide(ctx, userID, postID)
	if err != nil {
		return storeError(ctx, err, "HiddenPost", postID, "unhide post")
	}
	if !removed {
		return &models.AppError{Code: models.CodeNotFound, Message: "Post was not hidden"}
	}
	return nil
}

func (s *PostService) IsHidden(ctx context.Context, userID, postID uint) (bool, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		return false, storeError(ctx, err, "Post", postID, "load post")
	}
	hidden, err := s.hiddenRepo.IsHidden(ctx, userID, postID)
	if err != nil {
		return false, storeError(ctx, err, "HiddenPost", postID, "load hidden status")
	}
	return hidden, nil
}

// ListLikers returns the users who liked postID.
func (s *PostService) ListLikers(ctx context.Context, postID uint) ([]models.User, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		return nil, storeError(ctx, err, "Post", postID, "load post")
	}
	users, err := s.likeRepo.ListUsers(ctx, postID)
	if err != nil {
		return nil, storeError(ctx, err, "Like", postID, "list likes")
	}
	return users, nil
}

// ListGotIt returns the users who collected the item of postID.
func (s *PostService) ListGotIt(ctx context.Context, postID uint) ([]models.User, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		return nil, storeError(ctx, err, "Post", postID, "load post")
	}
	users, err := s.gotItRepo.ListUsers(ctx, postID)
	if err != nil {
		return nil, storeError(ctx, err, "GotIt", postID, "list got-it")
	}
	return users, nil
}

func (s *PostService) load(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id, viewerID)
	if err != nil {
		return nil, storeError(ctx, err, "Post", id, "load post")
	}
	return post, nil
}

func validateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return models.NewValidationError("Latitude must be between -90 and 90")
	}
	if lon < -180 || lon > 180 {
		return models.NewValidationError("Longitude must be between -180 and 180")
	}
	return nil
}
