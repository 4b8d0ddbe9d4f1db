package service

import (
	"context"
	"testing"

	"freebies/internal/featureflags"
	"freebies/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type toggleFixture struct {
	svc     *ToggleService
	posts   *postRepoStub
	users   *userRepoStub
	likes   *likeRepoStub
	gotIts  *gotItRepoStub
	follows *followRepoStub
	fanout  *fanoutStub
}

func newToggleFixture(flags string) *toggleFixture {
	f := &toggleFixture{
		posts:   noopPostRepo(),
		users:   noopUserRepo(),
		likes:   &likeRepoStub{pairStore: newPairStore()},
		gotIts:  &gotItRepoStub{pairStore: newPairStore()},
		follows: &followRepoStub{pairStore: newPairStore()},
		fanout:  &fanoutStub{},
	}
	f.posts.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
		return &models.Post{ID: id, OwnerID: 10}, nil
	}
	f.svc = NewToggleService(ToggleDeps{
		Posts:   f.posts,
		Users:   f.users,
		Likes:   f.likes,
		GotIts:  f.gotIts,
		Follows: f.follows,
		Fanout:  f.fanout,
		Flags:   featureflags.NewManager(flags),
	})
	return f
}

func TestToggleService_ToggleLike_Reversible(t *testing.T) {
	f := newToggleFixture("")
	ctx := context.Background()

	outcome, post, err := f.svc.ToggleLike(ctx, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, ToggleCreated, outcome)
	assert.Equal(t, uint(5), post.ID)
	assert.Len(t, f.likes.rows, 1)

	outcome, _, err = f.svc.ToggleLike(ctx, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, ToggleRemoved, outcome)
	assert.Empty(t, f.likes.rows)

	// Only the creation notifies, and removal does not retract by default.
	assert.Equal(t, []models.NotificationType{models.NotificationLike}, f.fanout.notified)
	assert.Empty(t, f.fanout.retracted)
}

func TestToggleService_ToggleLike_RearmRetracts(t *testing.T) {
	f := newToggleFixture("notification_rearm=on")
	ctx := context.Background()

	_, _, err := f.svc.ToggleLike(ctx, 2, 5)
	require.NoError(t, err)
	_, _, err = f.svc.ToggleLike(ctx, 2, 5)
	require.NoError(t, err)

	assert.Equal(t, []models.NotificationType{models.NotificationLike}, f.fanout.retracted)
}

func TestToggleService_ToggleLike_PostNotFound(t *testing.T) {
	f := newToggleFixture("")
	f.posts.getByIDFn = notFoundPost

	_, _, err := f.svc.ToggleLike(context.Background(), 2, 99)
	assertAppError(t, err, models.CodeNotFound)
	assert.Empty(t, f.likes.rows)
}

func TestToggleService_ToggleLike_ConcurrentInsertResolvesToCreated(t *testing.T) {
	f := newToggleFixture("")
	f.likes.createErr = gorm.ErrDuplicatedKey

	outcome, _, err := f.svc.ToggleLike(context.Background(), 2, 5)
	require.NoError(t, err)
	assert.Equal(t, ToggleCreated, outcome)
}

func TestToggleService_ToggleLike_StoreFailure(t *testing.T) {
	f := newToggleFixture("")
	f.likes.createErr = errStore

	_, _, err := f.svc.ToggleLike(context.Background(), 2, 5)
	assertAppError(t, err, models.CodePersistenceFailure)
	assert.Empty(t, f.fanout.notified)
}

func TestToggleService_ToggleGotIt(t *testing.T) {
	t.Run("snapshots the giver", func(t *testing.T) {
		f := newToggleFixture("")
		outcome, _, err := f.svc.ToggleGotIt(context.Background(), 3, 7)
		require.NoError(t, err)
		assert.Equal(t, ToggleCreated, outcome)
		assert.Equal(t, uint(10), f.gotIts.rows[[2]uint{3, 7}])
		assert.Equal(t, []models.NotificationType{models.NotificationGotIt}, f.fanout.notified)
	})

	t.Run("gone post is rejected before existence check", func(t *testing.T) {
		f := newToggleFixture("")
		f.gotIts.rows[[2]uint{3, 7}] = 10
		f.posts.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
			return &models.Post{ID: id, OwnerID: 10, IsGone: true}, nil
		}

		_, _, err := f.svc.ToggleGotIt(context.Background(), 3, 7)
		appErr := assertAppError(t, err, models.CodeInvalidState)
		assert.Equal(t, "item no longer available", appErr.Message)
		assert.Len(t, f.gotIts.rows, 1)
	})

	t.Run("missing post", func(t *testing.T) {
		f := newToggleFixture("")
		f.posts.getByIDFn = notFoundPost
		_, _, err := f.svc.ToggleGotIt(context.Background(), 3, 7)
		assertAppError(t, err, models.CodeNotFound)
	})
}

func TestToggleService_ToggleFollow(t *testing.T) {
	f := newToggleFixture("")
	ctx := context.Background()

	outcome, err := f.svc.ToggleFollow(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, ToggleCreated, outcome)
	assert.Equal(t, []uint{2}, f.fanout.follows)

	outcome, err = f.svc.ToggleFollow(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, ToggleRemoved, outcome)
	assert.Len(t, f.fanout.follows, 1)
}

func TestToggleService_ToggleFollow_UnknownUser(t *testing.T) {
	f := newToggleFixture("")
	f.users.getByIDFn = func(_ context.Context, _ uint) (*models.User, error) {
		return nil, gorm.ErrRecordNotFound
	}

	_, err := f.svc.ToggleFollow(context.Background(), 1, 42)
	assertAppError(t, err, models.CodeNotFound)
	assert.Empty(t, f.follows.rows)
}
