package service

import (
	"context"
	"log/slog"
	"strings"

	"freebies/internal/cache"
	"freebies/internal/middleware"
	"freebies/internal/models"
	"freebies/internal/repository"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	fanout      Fanout
	cache       *cache.Store
}

type CreateCommentInput struct {
	UserID  uint
	PostID  uint
	Content string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	fanout Fanout,
	store *cache.Store,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
		fanout:      fanout,
		cache:       store,
	}
}

// CreateComment stores a comment and notifies the post owner. Comment
// notifications are never deduplicated.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	const maxCommentLen = 10000

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	post, err := s.postRepo.GetByID(ctx, in.PostID, 0)
	if err != nil {
		return nil, storeError(ctx, err, "Post", in.PostID, "load post")
	}

	comment := &models.Comment{
		Content: content,
		UserID:  in.UserID,
		PostID:  in.PostID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, storeError(ctx, err, "Comment", 0, "create comment")
	}
	s.cache.Invalidate(ctx, cache.PostKey(in.PostID))

	if s.fanout != nil {
		actor := &comment.User
		if actor.ID == 0 {
			if actor, err = s.userRepo.GetByID(ctx, in.UserID); err != nil {
				middleware.Logger.WarnContext(ctx, "failed to load comment author",
					slog.Uint64("user_id", uint64(in.UserID)),
					slog.String("error", err.Error()),
				)
				return comment, nil
			}
		}
		s.fanout.Notify(ctx, post, actor, models.NotificationComment)
	}

	return comment, nil
}

// ListComments returns the comments of postID oldest first.
func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		return nil, storeError(ctx, err, "Post", postID, "load post")
	}
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, storeError(ctx, err, "Comment", postID, "list comments")
	}
	return comments, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, storeError(ctx, err, "Comment", in.CommentID, "load comment")
	}

	if comment.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only delete your own comments")
	}

	if err := s.commentRepo.Delete(ctx, in.CommentID); err != nil {
		return nil, storeError(ctx, err, "Comment", in.CommentID, "delete comment")
	}
	s.cache.Invalidate(ctx, cache.PostKey(comment.PostID))

	return comment, nil
}
