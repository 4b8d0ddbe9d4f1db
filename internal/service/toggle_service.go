package service

import (
	"context"
	"log/slog"

	"freebies/internal/cache"
	"freebies/internal/database"
	"freebies/internal/featureflags"
	"freebies/internal/middleware"
	"freebies/internal/models"
	"freebies/internal/observability"
	"freebies/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// ToggleOutcome is the result of flipping a relation pair.
type ToggleOutcome string

const (
	ToggleCreated ToggleOutcome = "created"
	ToggleRemoved ToggleOutcome = "removed"
)

// ToggleService flips like, got-it and follow relations and triggers the
// notification fanout on creation.
type ToggleService struct {
	posts   repository.PostRepository
	users   repository.UserRepository
	likes   repository.LikeRepository
	gotIts  repository.GotItRepository
	follows repository.FollowRepository
	fanout  Fanout
	flags   *featureflags.Manager
	cache   *cache.Store
}

// ToggleDeps groups the collaborators of ToggleService.
type ToggleDeps struct {
	Posts   repository.PostRepository
	Users   repository.UserRepository
	Likes   repository.LikeRepository
	GotIts  repository.GotItRepository
	Follows repository.FollowRepository
	Fanout  Fanout
	Flags   *featureflags.Manager
	Cache   *cache.Store
}

func NewToggleService(deps ToggleDeps) *ToggleService {
	return &ToggleService{
		posts:   deps.Posts,
		users:   deps.Users,
		likes:   deps.Likes,
		gotIts:  deps.GotIts,
		follows: deps.Follows,
		fanout:  deps.Fanout,
		flags:   deps.Flags,
		cache:   deps.Cache,
	}
}

// ToggleLike likes postID for userID, or removes the like if present.
// The returned post carries refreshed counts for the viewer.
func (s *ToggleService) ToggleLike(ctx context.Context, userID, postID uint) (ToggleOutcome, *models.Post, error) {
	span, ctx := observability.NewSpan(ctx, "toggle.like", attribute.Int("post_id", int(postID)))
	defer span.End()

	post, err := s.posts.GetByID(ctx, postID, userID)
	if err != nil {
		return "", nil, storeError(ctx, err, "Post", postID, "load post")
	}

	outcome, err := s.toggle(ctx, "like",
		func() (bool, error) { return s.likes.Exists(ctx, userID, postID) },
		func() (bool, error) { return s.likes.Create(ctx, userID, postID) },
		func() (bool, error) { return s.likes.Delete(ctx, userID, postID) },
	)
	if err != nil {
		span.SetError(err)
		return "", nil, err
	}

	s.afterPostToggle(ctx, post, userID, outcome, models.NotificationLike)
	return outcome, s.refresh(ctx, post, userID), nil
}

// ToggleGotIt records that userID collected the item of postID, or removes the claim.
// Posts marked gone accept no toggles in either direction.
func (s *ToggleService) ToggleGotIt(ctx context.Context, userID, postID uint) (ToggleOutcome, *models.Post, error) {
	span, ctx := observability.NewSpan(ctx, "toggle.got_it", attribute.Int("post_id", int(postID)))
	defer span.End()

	post, err := s.posts.GetByID(ctx, postID, userID)
	if err != nil {
		return "", nil, storeError(ctx, err, "Post", postID, "load post")
	}
	if post.IsGone {
		return "", nil, models.NewInvalidStateError("item no longer available")
	}

	giverID := post.OwnerID
	outcome, err := s.toggle(ctx, "got_it",
		func() (bool, error) { return s.gotIts.Exists(ctx, userID, postID) },
		func() (bool, error) { return s.gotIts.Create(ctx, userID, postID, giverID) },
		func() (bool, error) { return s.gotIts.Delete(ctx, userID, postID) },
	)
	if err != nil {
		span.SetError(err)
		return "", nil, err
	}

	s.afterPostToggle(ctx, post, userID, outcome, models.NotificationGotIt)
	return outcome, s.refresh(ctx, post, userID), nil
}

// ToggleFollow makes followerID follow followingID, or unfollows.
// Self-follow is rejected by the caller.
func (s *ToggleService) ToggleFollow(ctx context.Context, followerID, followingID uint) (ToggleOutcome, error) {
	span, ctx := observability.NewSpan(ctx, "toggle.follow", attribute.Int("following_id", int(followingID)))
	defer span.End()

	if _, err := s.users.GetByID(ctx, followingID); err != nil {
		return "", storeError(ctx, err, "User", followingID, "load user")
	}

	var inserted bool
	outcome, err := s.toggle(ctx, "follow",
		func() (bool, error) { return s.follows.Exists(ctx, followerID, followingID) },
		func() (bool, error) {
			created, err := s.follows.Create(ctx, followerID, followingID)
			inserted = created
			return created, err
		},
		func() (bool, error) { return s.follows.Delete(ctx, followerID, followingID) },
	)
	if err != nil {
		span.SetError(err)
		return "", err
	}

	if inserted && s.fanout != nil {
		if follower := s.actor(ctx, followerID); follower != nil {
			s.fanout.NotifyFollow(ctx, follower, followingID)
		}
	}
	return outcome, nil
}

// toggle removes the pair when it exists and inserts it otherwise. An insert that
// lost a race against a concurrent one still resolves to created.
func (s *ToggleService) toggle(
	ctx context.Context,
	kind string,
	exists func() (bool, error),
	create func() (bool, error),
	remove func() (bool, error),
) (ToggleOutcome, error) {
	present, err := exists()
	if err != nil {
		return "", persistenceError(ctx, "check "+kind, err)
	}

	if present {
		if _, err := remove(); err != nil {
			return "", persistenceError(ctx, "remove "+kind, err)
		}
		observability.ToggleTotal.WithLabelValues(kind, observability.OutcomeRemoved).Inc()
		return ToggleRemoved, nil
	}

	if _, err := create(); err != nil && !database.IsUniqueViolation(err) {
		return "", persistenceError(ctx, "create "+kind, err)
	}
	observability.ToggleTotal.WithLabelValues(kind, observability.OutcomeCreated).Inc()
	return ToggleCreated, nil
}

func (s *ToggleService) afterPostToggle(ctx context.Context, post *models.Post, userID uint, outcome ToggleOutcome, t models.NotificationType) {
	s.cache.Invalidate(ctx, cache.PostKey(post.ID))
	if s.fanout == nil {
		return
	}

	switch outcome {
	case ToggleCreated:
		if actor := s.actor(ctx, userID); actor != nil {
			s.fanout.Notify(ctx, post, actor, t)
		}
	case ToggleRemoved:
		if s.flags.Enabled(featureflags.NotificationRearm, post.OwnerID) {
			s.fanout.Retract(ctx, post, userID, t)
		}
	}
}

// actor loads the acting user for a notification. A failure only costs the notification.
func (s *ToggleService) actor(ctx context.Context, userID uint) *models.User {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to load notification actor",
			slog.Uint64("user_id", uint64(userID)),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return user
}

// refresh reloads post so its counts reflect the toggle. On failure the stale copy is returned.
func (s *ToggleService) refresh(ctx context.Context, post *models.Post, viewerID uint) *models.Post {
	fresh, err := s.posts.GetByID(ctx, post.ID, viewerID)
	if err != nil {
		return post
	}
	return fresh
}
