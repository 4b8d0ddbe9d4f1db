package service

import (
	"context"
	"fmt"
	"log/slog"

	"freebies/internal/cache"
	"freebies/internal/database"
	"freebies/internal/middleware"
	"freebies/internal/models"
	"freebies/internal/notifications"
	"freebies/internal/observability"
	"freebies/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// EventPublisher delivers notification events to subscribers. *notifications.Notifier
// implements it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, userID uint, eventType string, payload interface{}) error
}

// Fanout derives notifications from social actions. Implementations never fail the
// triggering action: errors are logged and reported, and the result is nil.
type Fanout interface {
	Notify(ctx context.Context, post *models.Post, actor *models.User, t models.NotificationType) *models.Notification
	NotifyFollow(ctx context.Context, follower *models.User, followedID uint) *models.Notification
	Retract(ctx context.Context, post *models.Post, actorID uint, t models.NotificationType)
}

// NotificationMessage renders the text shown for a notification of type t by actor.
func NotificationMessage(t models.NotificationType, actor *models.User) string {
	name := actor.DisplayLabel()
	switch t {
	case models.NotificationLike:
		return name + " liked your post"
	case models.NotificationComment:
		return name + " commented on your post"
	case models.NotificationGotIt:
		return name + " got the item from your post"
	case models.NotificationFollow:
		return name + " started following you."
	default:
		return fmt.Sprintf("%s interacted with you", name)
	}
}

type NotificationService struct {
	repo      repository.NotificationRepository
	publisher EventPublisher
	cache     *cache.Store
}

func NewNotificationService(
	repo repository.NotificationRepository,
	publisher EventPublisher,
	store *cache.Store,
) *NotificationService {
	return &NotificationService{
		repo:      repo,
		publisher: publisher,
		cache:     store,
	}
}

// Notify records that actor interacted with post. It returns nil when the actor owns
// the post, when a deduplicated type was already notified for the same tuple, or when
// persistence fails.
func (s *NotificationService) Notify(ctx context.Context, post *models.Post, actor *models.User, t models.NotificationType) *models.Notification {
	if post == nil || actor == nil {
		return nil
	}
	span, ctx := observability.NewSpan(ctx, "notifications.notify",
		attribute.String("type", string(t)),
		attribute.Int("post_id", int(post.ID)),
	)
	defer span.End()

	if actor.ID == post.OwnerID {
		observability.NotificationsTotal.WithLabelValues(string(t), observability.OutcomeSuppressed).Inc()
		return nil
	}

	postID := post.ID
	key := repository.NotificationKey{
		RecipientID: post.OwnerID,
		ActorID:     actor.ID,
		PostID:      &postID,
		Type:        t,
	}
	if t.Deduplicated() {
		exists, err := s.repo.Exists(ctx, key)
		if err != nil {
			span.SetError(err)
			s.fail(ctx, t, err)
			return nil
		}
		if exists {
			observability.NotificationsTotal.WithLabelValues(string(t), observability.OutcomeDuplicate).Inc()
			return nil
		}
	}

	return s.create(ctx, &models.Notification{
		UserID:  post.OwnerID,
		ActorID: actor.ID,
		Actor:   *actor,
		PostID:  &postID,
		Type:    t,
		Message: NotificationMessage(t, actor),
	})
}

// NotifyFollow tells followedID that follower started following them.
func (s *NotificationService) NotifyFollow(ctx context.Context, follower *models.User, followedID uint) *models.Notification {
	if follower == nil {
		return nil
	}
	if follower.ID == followedID {
		observability.NotificationsTotal.WithLabelValues(string(models.NotificationFollow), observability.OutcomeSuppressed).Inc()
		return nil
	}
	return s.create(ctx, &models.Notification{
		UserID:  followedID,
		ActorID: follower.ID,
		Actor:   *follower,
		Type:    models.NotificationFollow,
		Message: NotificationMessage(models.NotificationFollow, follower),
	})
}

// Retract deletes the notification matching (post owner, post, actor, t). It is used
// when an action is undone and notifications should re-arm.
func (s *NotificationService) Retract(ctx context.Context, post *models.Post, actorID uint, t models.NotificationType) {
	if post == nil || actorID == post.OwnerID {
		return
	}
	postID := post.ID
	deleted, err := s.repo.DeleteMatching(ctx, repository.NotificationKey{
		RecipientID: post.OwnerID,
		ActorID:     actorID,
		PostID:      &postID,
		Type:        t,
	})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to retract notification",
			slog.Uint64("post_id", uint64(post.ID)),
			slog.String("type", string(t)),
			slog.String("error", err.Error()),
		)
		return
	}
	if deleted > 0 {
		s.cache.Invalidate(ctx, cache.UnreadNotificationsKey(post.OwnerID))
	}
}

func (s *NotificationService) create(ctx context.Context, n *models.Notification) *models.Notification {
	// Actor is preloaded for the response only.
	actor := n.Actor
	n.Actor = models.User{}
	if err := s.repo.Create(ctx, n); err != nil {
		// A concurrent Notify for the same key won the unique index.
		if n.Type.Deduplicated() && database.IsUniqueViolation(err) {
			observability.NotificationsTotal.WithLabelValues(string(n.Type), observability.OutcomeDuplicate).Inc()
			return nil
		}
		s.fail(ctx, n.Type, err)
		return nil
	}
	n.Actor = actor
	observability.NotificationsTotal.WithLabelValues(string(n.Type), observability.OutcomeCreated).Inc()

	s.cache.Invalidate(ctx, cache.UnreadNotificationsKey(n.UserID))
	s.publish(ctx, n.UserID, notifications.EventNotificationCreated, n)
	return n
}

func (s *NotificationService) fail(ctx context.Context, t models.NotificationType, err error) {
	observability.NotificationsTotal.WithLabelValues(string(t), observability.OutcomeFailed).Inc()
	middleware.Logger.ErrorContext(ctx, "notification fanout failed",
		slog.String("type", string(t)),
		slog.String("error", err.Error()),
	)
	observability.CaptureError(ctx, err, map[string]string{"component": "notification_fanout", "type": string(t)})
}

func (s *NotificationService) publish(ctx context.Context, userID uint, eventType string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, userID, eventType, payload); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish notification event",
			slog.Uint64("user_id", uint64(userID)),
			slog.String("event", eventType),
			slog.String("error", err.Error()),
		)
	}
}

// List returns userID's notifications newest first.
func (s *NotificationService) List(ctx context.Context, userID uint, limit, offset int) ([]*models.Notification, error) {
	list, err := s.repo.ListForUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, storeError(ctx, err, "Notification", userID, "list notifications")
	}
	return list, nil
}

// UnreadCount returns the number of unread notifications, served from Redis when cached.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.cache.Aside(ctx, cache.UnreadNotificationsKey(userID), &count, cache.UnreadCountTTL, func() error {
		var fetchErr error
		count, fetchErr = s.repo.CountUnread(ctx, userID)
		return fetchErr
	})
	if err != nil {
		return 0, storeError(ctx, err, "Notification", userID, "count notifications")
	}
	return count, nil
}

// MarkRead marks one notification read. Only its recipient may do so.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) (*models.Notification, error) {
	n, err := s.repo.GetByID(ctx, notificationID)
	if err != nil {
		return nil, storeError(ctx, err, "Notification", notificationID, "load notification")
	}
	if n.UserID != userID {
		return nil, models.NewForbiddenError("Not authorized to modify this notification")
	}
	if n.IsRead {
		return n, nil
	}
	if err := s.repo.MarkRead(ctx, notificationID); err != nil {
		return nil, storeError(ctx, err, "Notification", notificationID, "update notification")
	}
	n.IsRead = true

	s.cache.Invalidate(ctx, cache.UnreadNotificationsKey(userID))
	s.publish(ctx, userID, notifications.EventNotificationsRead, map[string]interface{}{"ids": []uint{notificationID}})
	return n, nil
}

// MarkAllRead marks every unread notification of userID read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	updated, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return storeError(ctx, err, "Notification", userID, "update notifications")
	}
	s.cache.Invalidate(ctx, cache.UnreadNotificationsKey(userID))
	if updated > 0 {
		s.publish(ctx, userID, notifications.EventNotificationsRead, map[string]interface{}{"all": true})
	}
	return nil
}
