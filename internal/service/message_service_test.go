package service

import (
	"context"
	"testing"

	"freebies/internal/models"
	"freebies/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// messageRepoStub is a stub for repository.MessageRepository.
type messageRepoStub struct {
	listFn        func(context.Context, repository.MessageFilter) ([]*models.Message, error)
	getByIDFn     func(context.Context, uint) (*models.Message, error)
	markReadFn    func(context.Context, uint) error
	markAllReadFn func(context.Context, uint) (int64, error)
	deleteFn      func(context.Context, uint) error
	countFn       func(context.Context, uint) (map[models.MessageType]int64, error)
}

func (s *messageRepoStub) Create(_ context.Context, _ *models.Message) error { return nil }
func (s *messageRepoStub) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	return s.getByIDFn(ctx, id)
}
func (s *messageRepoStub) List(ctx context.Context, f repository.MessageFilter) ([]*models.Message, error) {
	return s.listFn(ctx, f)
}
func (s *messageRepoStub) MarkRead(ctx context.Context, id uint) error { return s.markReadFn(ctx, id) }
func (s *messageRepoStub) MarkAllRead(ctx context.Context, id uint) (int64, error) {
	return s.markAllReadFn(ctx, id)
}
func (s *messageRepoStub) Delete(ctx context.Context, id uint) error { return s.deleteFn(ctx, id) }
func (s *messageRepoStub) CountUnreadByType(ctx context.Context, id uint) (map[models.MessageType]int64, error) {
	return s.countFn(ctx, id)
}

func noopMessageRepo() *messageRepoStub {
	return &messageRepoStub{
		listFn: func(_ context.Context, _ repository.MessageFilter) ([]*models.Message, error) { return nil, nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Message, error) {
			return &models.Message{ID: id, ReceiverID: 1}, nil
		},
		markReadFn:    func(_ context.Context, _ uint) error { return nil },
		markAllReadFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		deleteFn:      func(_ context.Context, _ uint) error { return nil },
		countFn: func(_ context.Context, _ uint) (map[models.MessageType]int64, error) {
			return map[models.MessageType]int64{
				models.MessageLike: 2, models.MessageComment: 1, models.MessageGotIt: 0, models.MessageFollow: 4,
			}, nil
		},
	}
}

func TestMessageService_List(t *testing.T) {
	repo := noopMessageRepo()
	var got repository.MessageFilter
	repo.listFn = func(_ context.Context, f repository.MessageFilter) ([]*models.Message, error) {
		got = f
		return nil, nil
	}
	svc := NewMessageService(repo)

	_, err := svc.List(context.Background(), ListMessagesInput{UserID: 1, Type: "poke"})
	assertValidationError(t, err)

	_, err = svc.List(context.Background(), ListMessagesInput{UserID: 1, Type: models.MessageGotIt, UnreadOnly: true, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, repository.MessageFilter{ReceiverID: 1, Type: models.MessageGotIt, UnreadOnly: true, Limit: 5}, got)
}

func TestMessageService_ReceiverOnly(t *testing.T) {
	svc := NewMessageService(noopMessageRepo())
	ctx := context.Background()

	_, err := svc.MarkRead(ctx, 2, 7)
	assertAppError(t, err, models.CodeForbidden)
	assertAppError(t, svc.Delete(ctx, 2, 7), models.CodeForbidden)

	m, err := svc.MarkRead(ctx, 1, 7)
	require.NoError(t, err)
	assert.True(t, m.Read)
	require.NoError(t, svc.Delete(ctx, 1, 7))
}

func TestMessageService_UnreadCount(t *testing.T) {
	svc := NewMessageService(noopMessageRepo())

	counts, err := svc.UnreadCount(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(7), counts.Total)
	assert.Equal(t, int64(4), counts.ByType[models.MessageFollow])
}
