package service

import (
	"context"
	"errors"
	"testing"

	"freebies/internal/models"
	"freebies/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	errStore    = errors.New("connection reset")
	errNotFound = gorm.ErrRecordNotFound
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn       func(context.Context, *models.Post) error
	getByIDFn      func(context.Context, uint, uint) (*models.Post, error)
	updateFn       func(context.Context, *models.Post) error
	deleteFn       func(context.Context, uint) error
	listForFeedFn  func(context.Context, repository.FeedQuery) ([]*models.Post, error)
	listByOwnerFn  func(context.Context, uint, int, int, uint) ([]*models.Post, error)
	searchFn       func(context.Context, string, int, int, uint) ([]*models.Post, error)
	countByOwnerFn func(context.Context, uint) (int64, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, viewerID)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) ListForFeed(ctx context.Context, q repository.FeedQuery) ([]*models.Post, error) {
	return s.listForFeedFn(ctx, q)
}
func (s *postRepoStub) ListByOwner(ctx context.Context, ownerID uint, limit, offset int, viewerID uint) ([]*models.Post, error) {
	return s.listByOwnerFn(ctx, ownerID, limit, offset, viewerID)
}
func (s *postRepoStub) Search(ctx context.Context, query string, limit, offset int, viewerID uint) ([]*models.Post, error) {
	return s.searchFn(ctx, query, limit, offset, viewerID)
}
func (s *postRepoStub) CountByOwner(ctx context.Context, ownerID uint) (int64, error) {
	return s.countByOwnerFn(ctx, ownerID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:       func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn:      func(_ context.Context, id, _ uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		updateFn:       func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:       func(_ context.Context, _ uint) error { return nil },
		listForFeedFn:  func(_ context.Context, _ repository.FeedQuery) ([]*models.Post, error) { return nil, nil },
		listByOwnerFn:  func(_ context.Context, _ uint, _, _ int, _ uint) ([]*models.Post, error) { return nil, nil },
		searchFn:       func(_ context.Context, _ string, _, _ int, _ uint) ([]*models.Post, error) { return nil, nil },
		countByOwnerFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn        func(context.Context, *models.User) error
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	updateFn        func(context.Context, *models.User) error
	existsFn        func(context.Context, uint) (bool, error)
}

func (s *userRepoStub) Create(ctx context.Context, u *models.User) error { return s.createFn(ctx, u) }
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Update(ctx context.Context, u *models.User) error { return s.updateFn(ctx, u) }
func (s *userRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn: func(_ context.Context, _ *models.User) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "user"}, nil
		},
		getByUsernameFn: func(_ context.Context, name string) (*models.User, error) {
			return &models.User{ID: 1, Username: name}, nil
		},
		updateFn: func(_ context.Context, _ *models.User) error { return nil },
		existsFn: func(_ context.Context, _ uint) (bool, error) { return true, nil },
	}
}

// pairStore is an in-memory relation set shared by the toggle repository stubs.
type pairStore struct {
	rows      map[[2]uint]uint
	createErr error
}

func newPairStore() *pairStore {
	return &pairStore{rows: map[[2]uint]uint{}}
}

func (p *pairStore) exists(a, b uint) (bool, error) {
	_, ok := p.rows[[2]uint{a, b}]
	return ok, nil
}

func (p *pairStore) create(a, b, extra uint) (bool, error) {
	if p.createErr != nil {
		return false, p.createErr
	}
	if _, ok := p.rows[[2]uint{a, b}]; ok {
		return false, nil
	}
	p.rows[[2]uint{a, b}] = extra
	return true, nil
}

func (p *pairStore) remove(a, b uint) (bool, error) {
	if _, ok := p.rows[[2]uint{a, b}]; !ok {
		return false, nil
	}
	delete(p.rows, [2]uint{a, b})
	return true, nil
}

type likeRepoStub struct {
	*pairStore
	listUsersFn func(context.Context, uint) ([]models.User, error)
}

func (s *likeRepoStub) Exists(_ context.Context, userID, postID uint) (bool, error) {
	return s.exists(userID, postID)
}
func (s *likeRepoStub) Create(_ context.Context, userID, postID uint) (bool, error) {
	return s.create(userID, postID, 0)
}
func (s *likeRepoStub) Delete(_ context.Context, userID, postID uint) (bool, error) {
	return s.remove(userID, postID)
}
func (s *likeRepoStub) ListUsers(ctx context.Context, postID uint) ([]models.User, error) {
	return s.listUsersFn(ctx, postID)
}

type gotItRepoStub struct {
	*pairStore
	countReceivedFn func(context.Context, uint) (int64, error)
	countGivenFn    func(context.Context, uint) (int64, error)
}

func (s *gotItRepoStub) Exists(_ context.Context, userID, postID uint) (bool, error) {
	return s.exists(userID, postID)
}
func (s *gotItRepoStub) Create(_ context.Context, userID, postID, giverID uint) (bool, error) {
	return s.create(userID, postID, giverID)
}
func (s *gotItRepoStub) Delete(_ context.Context, userID, postID uint) (bool, error) {
	return s.remove(userID, postID)
}
func (s *gotItRepoStub) ListUsers(_ context.Context, _ uint) ([]models.User, error) {
	return nil, nil
}
func (s *gotItRepoStub) CountReceived(ctx context.Context, userID uint) (int64, error) {
	return s.countReceivedFn(ctx, userID)
}
func (s *gotItRepoStub) CountGiven(ctx context.Context, userID uint) (int64, error) {
	return s.countGivenFn(ctx, userID)
}

type followRepoStub struct {
	*pairStore
}

func (s *followRepoStub) Exists(_ context.Context, a, b uint) (bool, error) { return s.exists(a, b) }
func (s *followRepoStub) Create(_ context.Context, a, b uint) (bool, error) {
	return s.create(a, b, 0)
}
func (s *followRepoStub) Delete(_ context.Context, a, b uint) (bool, error) { return s.remove(a, b) }
func (s *followRepoStub) FollowingIDs(_ context.Context, followerID uint) ([]uint, error) {
	ids := []uint{}
	for pair := range s.rows {
		if pair[0] == followerID {
			ids = append(ids, pair[1])
		}
	}
	return ids, nil
}
func (s *followRepoStub) ListFollowers(_ context.Context, _ uint, _, _ int) ([]models.User, error) {
	return nil, nil
}
func (s *followRepoStub) ListFollowing(_ context.Context, _ uint, _, _ int) ([]models.User, error) {
	return nil, nil
}

type hiddenRepoStub struct {
	*pairStore
}

func (s *hiddenRepoStub) Hide(_ context.Context, userID, postID uint) (bool, error) {
	return s.create(userID, postID, 0)
}
func (s *hiddenRepoStub) Unhide(_ context.Context, userID, postID uint) (bool, error) {
	return s.remove(userID, postID)
}
func (s *hiddenRepoStub) IsHidden(_ context.Context, userID, postID uint) (bool, error) {
	return s.exists(userID, postID)
}
func (s *hiddenRepoStub) HiddenPostIDs(_ context.Context, userID uint) ([]uint, error) {
	ids := []uint{}
	for pair := range s.rows {
		if pair[0] == userID {
			ids = append(ids, pair[1])
		}
	}
	return ids, nil
}

// fanoutStub records fanout calls.
type fanoutStub struct {
	notified  []models.NotificationType
	follows   []uint
	retracted []models.NotificationType
}

func (f *fanoutStub) Notify(_ context.Context, _ *models.Post, _ *models.User, t models.NotificationType) *models.Notification {
	f.notified = append(f.notified, t)
	return &models.Notification{Type: t}
}
func (f *fanoutStub) NotifyFollow(_ context.Context, _ *models.User, followedID uint) *models.Notification {
	f.follows = append(f.follows, followedID)
	return &models.Notification{Type: models.NotificationFollow}
}
func (f *fanoutStub) Retract(_ context.Context, _ *models.Post, _ uint, t models.NotificationType) {
	f.retracted = append(f.retracted, t)
}

func assertAppError(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeValidation)
}

func notFoundPost(_ context.Context, _, _ uint) (*models.Post, error) {
	return nil, gorm.ErrRecordNotFound
}
