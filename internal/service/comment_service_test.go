package service

import (
	"context"
	"testing"

	"freebies/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	getByIDFn    func(context.Context, uint) (*models.Comment, error)
	listByPostFn func(context.Context, uint) ([]*models.Comment, error)
	deleteFn     func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, c *models.Comment) error {
			c.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, UserID: 1, PostID: 5}, nil
		},
		listByPostFn: func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
		deleteFn:     func(_ context.Context, _ uint) error { return nil },
	}
}

func TestCommentService_CreateComment(t *testing.T) {
	posts := noopPostRepo()
	posts.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
		return &models.Post{ID: id, OwnerID: 9}, nil
	}
	fanout := &fanoutStub{}
	svc := NewCommentService(noopCommentRepo(), posts, noopUserRepo(), fanout, nil)
	ctx := context.Background()

	_, err := svc.CreateComment(ctx, CreateCommentInput{UserID: 1, PostID: 5, Content: "   "})
	assertValidationError(t, err)

	for i := 0; i < 2; i++ {
		comment, err := svc.CreateComment(ctx, CreateCommentInput{UserID: 1, PostID: 5, Content: " thanks! "})
		require.NoError(t, err)
		assert.Equal(t, "thanks!", comment.Content)
	}
	assert.Equal(t, []models.NotificationType{models.NotificationComment, models.NotificationComment}, fanout.notified)
}

func TestCommentService_CreateComment_MissingPost(t *testing.T) {
	posts := noopPostRepo()
	posts.getByIDFn = notFoundPost
	svc := NewCommentService(noopCommentRepo(), posts, noopUserRepo(), &fanoutStub{}, nil)

	_, err := svc.CreateComment(context.Background(), CreateCommentInput{UserID: 1, PostID: 5, Content: "hi"})
	assertAppError(t, err, models.CodeNotFound)
}

func TestCommentService_DeleteComment_AuthorOnly(t *testing.T) {
	svc := NewCommentService(noopCommentRepo(), noopPostRepo(), noopUserRepo(), nil, nil)
	ctx := context.Background()

	_, err := svc.DeleteComment(ctx, DeleteCommentInput{UserID: 2, CommentID: 3})
	assertAppError(t, err, models.CodeForbidden)

	comment, err := svc.DeleteComment(ctx, DeleteCommentInput{UserID: 1, CommentID: 3})
	require.NoError(t, err)
	assert.Equal(t, uint(3), comment.ID)
}
