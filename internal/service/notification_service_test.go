package service

import (
	"context"
	"fmt"
	"testing"

	"freebies/internal/cache"
	"freebies/internal/models"
	"freebies/internal/notifications"
	"freebies/internal/observability"
	"freebies/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// notificationRepoStub keeps notifications in memory.
type notificationRepoStub struct {
	items       []*models.Notification
	createErr   error
	countCalls  int
	markAllRead int64
}

func keyMatches(n *models.Notification, key repository.NotificationKey) bool {
	if n.UserID != key.RecipientID || n.ActorID != key.ActorID || n.Type != key.Type {
		return false
	}
	if key.PostID == nil || n.PostID == nil {
		return key.PostID == nil && n.PostID == nil
	}
	return *key.PostID == *n.PostID
}

func (s *notificationRepoStub) Create(_ context.Context, n *models.Notification) error {
	if s.createErr != nil {
		return s.createErr
	}
	n.ID = uint(len(s.items) + 1)
	s.items = append(s.items, n)
	return nil
}
func (s *notificationRepoStub) Exists(_ context.Context, key repository.NotificationKey) (bool, error) {
	for _, n := range s.items {
		if keyMatches(n, key) {
			return true, nil
		}
	}
	return false, nil
}
func (s *notificationRepoStub) DeleteMatching(_ context.Context, key repository.NotificationKey) (int64, error) {
	kept := s.items[:0]
	var deleted int64
	for _, n := range s.items {
		if keyMatches(n, key) {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	s.items = kept
	return deleted, nil
}
func (s *notificationRepoStub) GetByID(_ context.Context, id uint) (*models.Notification, error) {
	for _, n := range s.items {
		if n.ID == id {
			cp := *n
			return &cp, nil
		}
	}
	return nil, errNotFound
}
func (s *notificationRepoStub) ListForUser(_ context.Context, userID uint, _, _ int) ([]*models.Notification, error) {
	var out []*models.Notification
	for _, n := range s.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}
func (s *notificationRepoStub) CountUnread(_ context.Context, userID uint) (int64, error) {
	s.countCalls++
	var c int64
	for _, n := range s.items {
		if n.UserID == userID && !n.IsRead {
			c++
		}
	}
	return c, nil
}
func (s *notificationRepoStub) MarkRead(_ context.Context, id uint) error {
	for _, n := range s.items {
		if n.ID == id {
			n.IsRead = true
		}
	}
	return nil
}
func (s *notificationRepoStub) MarkAllRead(_ context.Context, _ uint) (int64, error) {
	return s.markAllRead, nil
}

type publishedEvent struct {
	userID    uint
	eventType string
}

type publisherStub struct {
	events []publishedEvent
}

func (p *publisherStub) PublishEvent(_ context.Context, userID uint, eventType string, _ interface{}) error {
	p.events = append(p.events, publishedEvent{userID: userID, eventType: eventType})
	return nil
}

func TestNotificationService_Notify(t *testing.T) {
	owner := &models.User{ID: 10, Username: "owner"}
	actor := &models.User{ID: 20, Username: "sam", DisplayName: "Sam"}
	post := &models.Post{ID: 1, OwnerID: owner.ID}

	t.Run("self interaction is suppressed", func(t *testing.T) {
		repo := &notificationRepoStub{}
		svc := NewNotificationService(repo, nil, nil)
		assert.Nil(t, svc.Notify(context.Background(), post, owner, models.NotificationLike))
		assert.Empty(t, repo.items)
	})

	t.Run("like and got-it are one-shot per tuple", func(t *testing.T) {
		for _, typ := range []models.NotificationType{models.NotificationLike, models.NotificationGotIt} {
			repo := &notificationRepoStub{}
			pub := &publisherStub{}
			svc := NewNotificationService(repo, pub, nil)

			first := svc.Notify(context.Background(), post, actor, typ)
			require.NotNil(t, first)
			assert.Nil(t, svc.Notify(context.Background(), post, actor, typ))
			assert.Len(t, repo.items, 1)
			assert.Equal(t, []publishedEvent{{userID: 10, eventType: notifications.EventNotificationCreated}}, pub.events)
		}
	})

	t.Run("comment is never deduplicated", func(t *testing.T) {
		repo := &notificationRepoStub{}
		svc := NewNotificationService(repo, nil, nil)
		require.NotNil(t, svc.Notify(context.Background(), post, actor, models.NotificationComment))
		require.NotNil(t, svc.Notify(context.Background(), post, actor, models.NotificationComment))
		assert.Len(t, repo.items, 2)
		assert.Equal(t, "Sam commented on your post", repo.items[0].Message)
	})

	t.Run("persistence failure is swallowed", func(t *testing.T) {
		repo := &notificationRepoStub{createErr: errStore}
		pub := &publisherStub{}
		svc := NewNotificationService(repo, pub, nil)
		assert.Nil(t, svc.Notify(context.Background(), post, actor, models.NotificationLike))
		assert.Empty(t, pub.events)
	})

	t.Run("losing a concurrent insert counts as duplicate", func(t *testing.T) {
		dup := observability.NotificationsTotal.WithLabelValues(string(models.NotificationLike), observability.OutcomeDuplicate)
		failed := observability.NotificationsTotal.WithLabelValues(string(models.NotificationLike), observability.OutcomeFailed)
		dupBefore, failedBefore := testutil.ToFloat64(dup), testutil.ToFloat64(failed)

		repo := &notificationRepoStub{createErr: fmt.Errorf("insert notification: %w", gorm.ErrDuplicatedKey)}
		pub := &publisherStub{}
		svc := NewNotificationService(repo, pub, nil)
		assert.Nil(t, svc.Notify(context.Background(), post, actor, models.NotificationLike))
		assert.Empty(t, pub.events)
		assert.Equal(t, dupBefore+1, testutil.ToFloat64(dup))
		assert.Equal(t, failedBefore, testutil.ToFloat64(failed))
	})

	t.Run("retract re-arms the tuple", func(t *testing.T) {
		repo := &notificationRepoStub{}
		svc := NewNotificationService(repo, nil, nil)
		require.NotNil(t, svc.Notify(context.Background(), post, actor, models.NotificationLike))
		svc.Retract(context.Background(), post, actor.ID, models.NotificationLike)
		assert.Empty(t, repo.items)
		assert.NotNil(t, svc.Notify(context.Background(), post, actor, models.NotificationLike))
	})
}

func TestNotificationService_NotifyFollow(t *testing.T) {
	repo := &notificationRepoStub{}
	svc := NewNotificationService(repo, nil, nil)
	follower := &models.User{ID: 3, Username: "kim"}

	n := svc.NotifyFollow(context.Background(), follower, 4)
	require.NotNil(t, n)
	assert.Equal(t, uint(4), n.UserID)
	assert.Nil(t, n.PostID)
	assert.Equal(t, "kim started following you.", n.Message)

	assert.Nil(t, svc.NotifyFollow(context.Background(), follower, 3))
}

func TestNotificationMessage(t *testing.T) {
	actor := &models.User{Username: "jo"}
	assert.Equal(t, "jo liked your post", NotificationMessage(models.NotificationLike, actor))
	assert.Equal(t, "jo got the item from your post", NotificationMessage(models.NotificationGotIt, actor))
}

func TestNotificationService_UnreadCountCachedAndInvalidated(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := &notificationRepoStub{}
	svc := NewNotificationService(repo, notifications.NewNotifier(rdb), cache.NewStore(rdb))
	ctx := context.Background()
	post := &models.Post{ID: 1, OwnerID: 10}

	require.NotNil(t, svc.Notify(ctx, post, &models.User{ID: 2, Username: "a"}, models.NotificationLike))

	count, err := svc.UnreadCount(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = svc.UnreadCount(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, 1, repo.countCalls)
	assert.True(t, mr.Exists(cache.UnreadNotificationsKey(10)))

	_, err = svc.MarkRead(ctx, 10, repo.items[0].ID)
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.UnreadNotificationsKey(10)))

	count, err = svc.UnreadCount(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNotificationService_MarkRead_RecipientOnly(t *testing.T) {
	repo := &notificationRepoStub{}
	svc := NewNotificationService(repo, nil, nil)
	require.NoError(t, repo.Create(context.Background(), &models.Notification{UserID: 10, ActorID: 2, Type: models.NotificationFollow}))

	_, err := svc.MarkRead(context.Background(), 11, 1)
	assertAppError(t, err, models.CodeForbidden)

	_, err = svc.MarkRead(context.Background(), 10, 99)
	assertAppError(t, err, models.CodeNotFound)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishEvent(ctx context.Context, userID uint, eventType string, payload interface{}) error {
	args := m.Called(ctx, userID, eventType, payload)
	return args.Error(0)
}

func TestNotificationService_PublishFailureDoesNotFailFanout(t *testing.T) {
	repo := &notificationRepoStub{}
	pub := new(mockPublisher)
	pub.On("PublishEvent", mock.Anything, uint(10), notifications.EventNotificationCreated, mock.AnythingOfType("*models.Notification")).
		Return(errStore).Once()

	svc := NewNotificationService(repo, pub, nil)
	n := svc.Notify(context.Background(), &models.Post{ID: 1, OwnerID: 10}, &models.User{ID: 2, Username: "lee"}, models.NotificationGotIt)

	require.NotNil(t, n)
	assert.Len(t, repo.items, 1)
	pub.AssertExpectations(t)
}
