package service

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"freebies/internal/cache"
	"freebies/internal/featureflags"
	"freebies/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostService(posts *postRepoStub, hidden *hiddenRepoStub) *PostService {
	if hidden == nil {
		hidden = &hiddenRepoStub{pairStore: newPairStore()}
	}
	return NewPostService(PostDeps{
		Posts:  posts,
		Users:  noopUserRepo(),
		Likes:  &likeRepoStub{pairStore: newPairStore()},
		GotIts: &gotItRepoStub{pairStore: newPairStore()},
		Hidden: hidden,
	})
}

func TestPostService_CreatePost_Validation(t *testing.T) {
	t.Parallel()

	svc := newPostService(noopPostRepo(), nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreatePostInput
	}{
		{
			name:  "empty title",
			input: CreatePostInput{UserID: 1, Title: "  ", Category: models.CategoryNew},
		},
		{
			name:  "title too long",
			input: CreatePostInput{UserID: 1, Title: strings.Repeat("x", 201), Category: models.CategoryNew},
		},
		{
			name:  "invalid category",
			input: CreatePostInput{UserID: 1, Title: "Chair", Category: "furniture"},
		},
		{
			name:  "latitude out of range",
			input: CreatePostInput{UserID: 1, Title: "Chair", Category: models.CategoryNew, Latitude: 91},
		},
		{
			name:  "longitude out of range",
			input: CreatePostInput{UserID: 1, Title: "Chair", Category: models.CategoryNew, Longitude: -181},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.CreatePost(ctx, tc.input)
			assertValidationError(t, err)
		})
	}
}

func TestPostService_CreatePost_Success(t *testing.T) {
	repo := noopPostRepo()
	var created *models.Post
	repo.createFn = func(_ context.Context, p *models.Post) error {
		p.ID = 9
		created = p
		return nil
	}
	svc := newPostService(repo, nil)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		UserID: 3, Title: " Soup ", Category: models.CategoryHomeMade, Latitude: 51.5, Longitude: -0.12,
	})
	require.NoError(t, err)
	assert.Equal(t, uint(9), post.ID)
	assert.Equal(t, "Soup", created.Title)
	assert.Equal(t, uint(3), created.OwnerID)
}

func TestPostService_UpdateAndDelete_OwnerOnly(t *testing.T) {
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
		return &models.Post{ID: id, OwnerID: 1, Title: "Old", Category: models.CategoryNew}, nil
	}
	deleted := false
	repo.deleteFn = func(_ context.Context, _ uint) error {
		deleted = true
		return nil
	}
	svc := newPostService(repo, nil)
	ctx := context.Background()

	_, err := svc.UpdatePost(ctx, UpdatePostInput{UserID: 2, PostID: 5, Title: ptr("New")})
	assertAppError(t, err, models.CodeForbidden)

	post, err := svc.UpdatePost(ctx, UpdatePostInput{UserID: 1, PostID: 5, Title: ptr("New"), IsGone: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, "New", post.Title)
	assert.True(t, post.IsGone)

	err = svc.DeletePost(ctx, 2, 5)
	assertAppError(t, err, models.CodeForbidden)
	assert.False(t, deleted)

	require.NoError(t, svc.DeletePost(ctx, 1, 5))
	assert.True(t, deleted)
}

func TestPostService_DeletePost_NotFound(t *testing.T) {
	repo := noopPostRepo()
	repo.getByIDFn = notFoundPost
	svc := newPostService(repo, nil)

	err := svc.DeletePost(context.Background(), 1, 5)
	assertAppError(t, err, models.CodeNotFound)
}

func TestPostService_ReportGone(t *testing.T) {
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
		return &models.Post{ID: id, OwnerID: 1, Description: "Two chairs", Latitude: 0, Longitude: 0, PhotoURL: "old.jpg"}, nil
	}
	var saved *models.Post
	repo.updateFn = func(_ context.Context, p *models.Post) error {
		saved = p
		return nil
	}
	svc := newPostService(repo, nil)
	ctx := context.Background()

	t.Run("too far away", func(t *testing.T) {
		_, err := svc.ReportGone(ctx, ReportGoneInput{UserID: 2, PostID: 5, Latitude: 0.01, Longitude: 0, PhotoURL: "new.jpg"})
		appErr := assertAppError(t, err, models.CodeInvalidState)
		assert.Equal(t, http.StatusForbidden, models.StatusFor(err))
		assert.Equal(t, "You must be within 100 meters of the item to report it as gone. You are 1111 meters away.", appErr.Message)
		assert.Nil(t, saved)
	})

	t.Run("other side of the globe", func(t *testing.T) {
		farRepo := noopPostRepo()
		farRepo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
			return &models.Post{ID: id, OwnerID: 1, Latitude: -80, Longitude: -170}, nil
		}
		updated := false
		farRepo.updateFn = func(_ context.Context, _ *models.Post) error {
			updated = true
			return nil
		}
		_, err := newPostService(farRepo, nil).ReportGone(ctx, ReportGoneInput{UserID: 2, PostID: 5, Latitude: 80, Longitude: 10, PhotoURL: "new.jpg"})
		assertAppError(t, err, models.CodeInvalidState)
		assert.Equal(t, http.StatusForbidden, models.StatusFor(err))
		assert.False(t, updated)
	})

	t.Run("close enough", func(t *testing.T) {
		post, err := svc.ReportGone(ctx, ReportGoneInput{UserID: 2, PostID: 5, Latitude: 0.0005, Longitude: 0, PhotoURL: "new.jpg"})
		require.NoError(t, err)
		assert.True(t, post.IsGone)
		assert.Equal(t, "new.jpg", post.PhotoURL)
		assert.Equal(t, "Reported all gone by user.\n\nTwo chairs", post.Description)
		assert.Same(t, post, saved)
	})
}

func TestPostService_HideUnhide(t *testing.T) {
	hidden := &hiddenRepoStub{pairStore: newPairStore()}
	svc := newPostService(noopPostRepo(), hidden)
	ctx := context.Background()

	require.NoError(t, svc.HidePost(ctx, 1, 5))
	require.NoError(t, svc.HidePost(ctx, 1, 5))

	isHidden, err := svc.IsHidden(ctx, 1, 5)
	require.NoError(t, err)
	assert.True(t, isHidden)

	require.NoError(t, svc.UnhidePost(ctx, 1, 5))
	err = svc.UnhidePost(ctx, 1, 5)
	appErr := assertAppError(t, err, models.CodeNotFound)
	assert.Equal(t, "Post was not hidden", appErr.Message)
}

func TestPostService_SearchRequiresQuery(t *testing.T) {
	svc := newPostService(noopPostRepo(), nil)
	_, err := svc.SearchPosts(context.Background(), "  ", 10, 0, 0)
	assertValidationError(t, err)
}

func TestPostService_GetPost_AnonymousCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := noopPostRepo()
	calls := 0
	repo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
		calls++
		return &models.Post{ID: id, Title: "Lamp", LikesCount: 2}, nil
	}
	svc := NewPostService(PostDeps{
		Posts: repo,
		Users: noopUserRepo(),
		Flags: featureflags.NewManager("post_cache=on"),
		Cache: cache.NewStore(rdb),
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		post, err := svc.GetPost(ctx, 4, 0)
		require.NoError(t, err)
		assert.Equal(t, "Lamp", post.Title)
		assert.Equal(t, 2, post.LikesCount)
	}
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists(cache.PostKey(4)))

	_, err := svc.GetPost(ctx, 4, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
