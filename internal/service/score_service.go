package service

import (
	"context"

	"freebies/internal/models"
	"freebies/internal/repository"
)

type levelTier struct {
	Level    int
	MinScore int64
	Badge    string
	Title    string
}

// levelTiers is ordered by ascending MinScore.
var levelTiers = []levelTier{
	{1, 0, "🌱", "Newcomer"},
	{2, 5, "🍃", "Helper"},
	{3, 15, "🌿", "Contributor"},
	{4, 30, "🌳", "Supporter"},
	{5, 50, "🌲", "Community Member"},
	{6, 75, "🌴", "Active Helper"},
	{7, 100, "🌵", "Generous Soul"},
	{8, 150, "🎋", "Sharing Champion"},
	{9, 200, "🎍", "Community Hero"},
	{10, 300, "🏆", "Freebie Legend"},
}

// LevelFor derives the level of a total score. At the top tier the bar is full
// and there is no next level.
func LevelFor(totalScore int64) models.LevelInfo {
	idx := 0
	for i, tier := range levelTiers {
		if totalScore >= tier.MinScore {
			idx = i
		}
	}
	cur := levelTiers[idx]

	info := models.LevelInfo{
		Level:      cur.Level,
		Badge:      cur.Badge,
		Title:      cur.Title,
		TotalScore: totalScore,
	}

	if idx == len(levelTiers)-1 {
		info.Progress = 100
		return info
	}

	next := levelTiers[idx+1]
	progress := float64(totalScore-cur.MinScore) / float64(next.MinScore-cur.MinScore) * 100
	if progress > 100 {
		progress = 100
	}
	info.Progress = progress
	info.NextLevel = &next.Level
	info.NextTitle = &next.Title
	return info
}

// ScoreService aggregates contribution counts. Nothing it returns is cached.
type ScoreService struct {
	posts  repository.PostRepository
	gotIts repository.GotItRepository
}

func NewScoreService(posts repository.PostRepository, gotIts repository.GotItRepository) *ScoreService {
	return &ScoreService{posts: posts, gotIts: gotIts}
}

// Stats counts posts owned, items received and items given by userID.
func (s *ScoreService) Stats(ctx context.Context, userID uint) (models.UserStats, error) {
	var stats models.UserStats
	var err error

	if stats.Posts, err = s.posts.CountByOwner(ctx, userID); err != nil {
		return models.UserStats{}, persistenceError(ctx, "count posts", err)
	}
	if stats.GotIt, err = s.gotIts.CountReceived(ctx, userID); err != nil {
		return models.UserStats{}, persistenceError(ctx, "count received items", err)
	}
	if stats.Gave, err = s.gotIts.CountGiven(ctx, userID); err != nil {
		return models.UserStats{}, persistenceError(ctx, "count given items", err)
	}
	return stats, nil
}

// LevelInfo computes userID's current level from fresh stats.
func (s *ScoreService) LevelInfo(ctx context.Context, userID uint) (models.LevelInfo, error) {
	stats, err := s.Stats(ctx, userID)
	if err != nil {
		return models.LevelInfo{}, err
	}
	return LevelFor(stats.Total()), nil
}
