package service

import (
	"context"

	"freebies/internal/geo"
	"freebies/internal/models"
	"freebies/internal/observability"
	"freebies/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// FeedFilter describes a feed request. Nil or zero fields mean no constraint.
type FeedFilter struct {
	Category      models.Category
	Latitude      *float64
	Longitude     *float64
	RadiusKm      *float64
	FollowingOnly bool
	Skip          int
	Limit         int
}

// hasRadius reports whether the filter carries a complete radius constraint.
func (f FeedFilter) hasRadius() bool {
	return f.Latitude != nil && f.Longitude != nil && f.RadiusKm != nil
}

type FeedService struct {
	posts   repository.PostRepository
	hidden  repository.HiddenPostRepository
	follows repository.FollowRepository
}

func NewFeedService(
	posts repository.PostRepository,
	hidden repository.HiddenPostRepository,
	follows repository.FollowRepository,
) *FeedService {
	return &FeedService{posts: posts, hidden: hidden, follows: follows}
}

// ComposeFeed returns the posts viewerID sees for f. Filters apply in order: hidden
// posts, followed owners, category, radius, recency, then skip and limit.
func (s *FeedService) ComposeFeed(ctx context.Context, viewerID uint, f FeedFilter) ([]*models.Post, error) {
	withRadius := f.hasRadius()
	defer observability.TrackFeed(withRadius)()

	span, ctx := observability.NewSpan(ctx, "feed.compose",
		attribute.Bool("following_only", f.FollowingOnly),
		attribute.Bool("radius", withRadius),
		attribute.String("category", string(f.Category)),
	)
	defer span.End()

	hiddenIDs, err := s.hidden.HiddenPostIDs(ctx, viewerID)
	if err != nil {
		span.SetError(err)
		return nil, persistenceError(ctx, "load hidden posts", err)
	}

	q := repository.FeedQuery{
		ViewerID:   viewerID,
		ExcludeIDs: hiddenIDs,
		Category:   f.Category,
	}

	if f.FollowingOnly {
		ids, err := s.follows.FollowingIDs(ctx, viewerID)
		if err != nil {
			span.SetError(err)
			return nil, persistenceError(ctx, "load followed users", err)
		}
		if len(ids) == 0 {
			return []*models.Post{}, nil
		}
		q.OwnerIDs = ids
	}

	if !withRadius {
		q.Offset, q.Limit = f.Skip, f.Limit
		posts, err := s.posts.ListForFeed(ctx, q)
		if err != nil {
			span.SetError(err)
			return nil, persistenceError(ctx, "load feed", err)
		}
		return posts, nil
	}

	candidates, err := s.posts.ListForFeed(ctx, q)
	if err != nil {
		span.SetError(err)
		return nil, persistenceError(ctx, "load feed", err)
	}

	origin := geo.Point{Lat: *f.Latitude, Lon: *f.Longitude}
	nearby := make([]*models.Post, 0, len(candidates))
	for _, p := range candidates {
		if origin.Within(geo.Point{Lat: p.Latitude, Lon: p.Longitude}, *f.RadiusKm) {
			nearby = append(nearby, p)
		}
	}
	span.AddAttributes(attribute.Int("candidates", len(candidates)), attribute.Int("nearby", len(nearby)))

	return window(nearby, f.Skip, f.Limit), nil
}

// window applies skip then limit to an ordered slice. limit <= 0 keeps the rest.
func window(posts []*models.Post, skip, limit int) []*models.Post {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(posts) {
		return []*models.Post{}
	}
	posts = posts[skip:]
	if limit > 0 && limit < len(posts) {
		posts = posts[:limit]
	}
	return posts
}
