package service

import (
	"context"

	"freebies/internal/models"
	"freebies/internal/repository"
)

// MessageService serves the inbox. Messages are produced by the seed tool only.
type MessageService struct {
	repo repository.MessageRepository
}

type ListMessagesInput struct {
	UserID     uint
	Type       models.MessageType
	UnreadOnly bool
	Limit      int
	Offset     int
}

func NewMessageService(repo repository.MessageRepository) *MessageService {
	return &MessageService{repo: repo}
}

func (s *MessageService) List(ctx context.Context, in ListMessagesInput) ([]*models.Message, error) {
	if in.Type != "" && !in.Type.Valid() {
		return nil, models.NewValidationError("Invalid message type")
	}
	list, err := s.repo.List(ctx, repository.MessageFilter{
		ReceiverID: in.UserID,
		Type:       in.Type,
		UnreadOnly: in.UnreadOnly,
		Limit:      in.Limit,
		Offset:     in.Offset,
	})
	if err != nil {
		return nil, storeError(ctx, err, "Message", in.UserID, "list messages")
	}
	return list, nil
}

func (s *MessageService) MarkRead(ctx context.Context, userID, messageID uint) (*models.Message, error) {
	m, err := s.owned(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}
	if m.Read {
		return m, nil
	}
	if err := s.repo.MarkRead(ctx, messageID); err != nil {
		return nil, storeError(ctx, err, "Message", messageID, "update message")
	}
	m.Read = true
	return m, nil
}

func (s *MessageService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, storeError(ctx, err, "Message", userID, "update messages")
	}
	return n, nil
}

func (s *MessageService) Delete(ctx context.Context, userID, messageID uint) error {
	if _, err := s.owned(ctx, userID, messageID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, messageID); err != nil {
		return storeError(ctx, err, "Message", messageID, "delete message")
	}
	return nil
}

// UnreadCount summarises the unread inbox of userID.
func (s *MessageService) UnreadCount(ctx context.Context, userID uint) (*models.UnreadMessageCount, error) {
	byType, err := s.repo.CountUnreadByType(ctx, userID)
	if err != nil {
		return nil, storeError(ctx, err, "Message", userID, "count messages")
	}
	out := &models.UnreadMessageCount{ByType: byType}
	for _, n := range byType {
		out.Total += n
	}
	return out, nil
}

// owned loads messageID and checks that userID received it.
func (s *MessageService) owned(ctx context.Context, userID, messageID uint) (*models.Message, error) {
	m, err := s.repo.GetByID(ctx, messageID)
	if err != nil {
		return nil, storeError(ctx, err, "Message", messageID, "load message")
	}
	if m.ReceiverID != userID {
		return nil, models.NewForbiddenError("Not authorized to access this message")
	}
	return m, nil
}
