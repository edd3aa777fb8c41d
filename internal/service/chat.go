package service

import (
	"context"
	"log/slog"
	"strings"

	"homefinder-client/internal/model"
	"homefinder-client/pkg/apierror"
)

// ChatService handles conversations between users.
type ChatService struct {
	repos  Repositories
	logger *slog.Logger
}

// NewChatService creates a new chat service.
func NewChatService(repos Repositories, logger *slog.Logger) *ChatService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatService{repos: repos, logger: logger}
}

// List returns the actor's chats with participants and listing embedded.
func (s *ChatService) List(ctx context.Context, actor Actor) ([]model.Chat, error) {
	chats, err := s.repos.Chats.ListForUser(ctx, actor.ID)
	if err != nil {
		return nil, apierror.InternalError(err.Error())
	}
	for i := range chats {
		s.embed(ctx, &chats[i])
	}
	return chats, nil
}

func (s *ChatService) embed(ctx context.Context, c *model.Chat) {
	if rec, err := s.repos.Users.GetByID(ctx, c.SenderID); err == nil {
		c.Sender = rec.User.Clone()
	}
	if rec, err := s.repos.Users.GetByID(ctx, c.ReceiverID); err == nil {
		c.Receiver = rec.User.Clone()
	}
	if l, err := s.repos.Listings.Get(ctx, c.PropertyID); err == nil {
		c.Property = &l
	}
}

func (s *ChatService) participantChat(ctx context.Context, actor Actor, chatID model.ID, action string) (model.Chat, error) {
	c, err := s.repos.Chats.Get(ctx, chatID)
	if err != nil {
		return model.Chat{}, notFoundOr(err, "Chat not found")
	}
	if !c.HasParticipant(actor.ID) {
		return model.Chat{}, apierror.Forbidden("Unauthorized to " + action + " this chat")
	}
	return c, nil
}

// Messages returns a chat's messages, oldest first.
func (s *ChatService) Messages(ctx context.Context, actor Actor, chatID model.ID) ([]model.Message, error) {
	if _, err := s.participantChat(ctx, actor, chatID, "view"); err != nil {
		return nil, err
	}
	msgs, err := s.repos.Chats.Messages(ctx, chatID)
	if err != nil {
		return nil, notFoundOr(err, "Chat not found")
	}
	return msgs, nil
}

// Send appends a message from the actor.
func (s *ChatService) Send(ctx context.Context, actor Actor, chatID model.ID, text string) (model.Message, error) {
	if strings.TrimSpace(text) == "" {
		return model.Message{}, apierror.BadRequest("Message content is required")
	}
	if _, err := s.participantChat(ctx, actor, chatID, "send message in"); err != nil {
		return model.Message{}, err
	}
	m := model.Message{ChatID: chatID, SenderID: actor.ID, Message: text}
	if err := s.repos.Chats.AddMessage(ctx, &m); err != nil {
		return model.Message{}, notFoundOr(err, "Chat not found")
	}
	return m, nil
}

// MarkRead marks a chat read on behalf of the actor.
func (s *ChatService) MarkRead(ctx context.Context, actor Actor, chatID model.ID) error {
	if _, err := s.participantChat(ctx, actor, chatID, "update"); err != nil {
		return err
	}
	if err := s.repos.Chats.MarkRead(ctx, chatID); err != nil {
		return notFoundOr(err, "Chat not found")
	}
	return nil
}
