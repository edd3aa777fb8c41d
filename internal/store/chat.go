package store

import (
	"context"
	"log/slog"
	"net/url"
	"slices"
	"sync"
	"time"

	"homefinder-client/internal/model"
	"homefinder-client/pkg/apierror"
)

const sliceMessages = "messages"

const (
	msgFetchChatsFailed    = "Failed to fetch chats"
	msgFetchMessagesFailed = "Failed to fetch messages"
	msgSendMessageFailed   = "Failed to send message"
)

// markReadTimeout bounds background mark-as-read calls.
const markReadTimeout = 10 * time.Second

// ChatPhase is the lifecycle of the open conversation.
type ChatPhase string

const (
	ChatClosed  ChatPhase = "closed"
	ChatOpening ChatPhase = "opening"
	ChatOpen    ChatPhase = "open"
)

// Viewer identifies the signed-in user.
type Viewer interface {
	ViewerID() model.ID
}

// ChatState is a snapshot of the chat store.
type ChatState struct {
	Chats        []model.Chat
	ActiveChatID *model.ID
	ActiveChat   *model.Chat
	Messages     []model.Message
	Phase        ChatPhase
	IsLoading    bool
	Error        string
}

// ChatStore holds the user's conversations and the messages of the one
// that is open.
type ChatStore struct {
	api    API
	viewer Viewer
	logger *slog.Logger

	mu       sync.RWMutex
	chats    []model.Chat
	activeID model.ID
	active   *model.Chat
	messages []model.Message
	phase    ChatPhase
	loading  bool
	err      string
	seq      sequence
	subs     subscribers

	background sync.WaitGroup
}

// NewChatStore creates an empty chat store for viewer.
func NewChatStore(api API, viewer Viewer, logger *slog.Logger) *ChatStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatStore{
		api:    api,
		viewer: viewer,
		logger: logger.With(slog.String("store", "chats")),
		phase:  ChatClosed,
		seq:    sequence{},
	}
}

// Subscribe registers fn to run after every state change.
func (s *ChatStore) Subscribe(fn func()) (unsubscribe func()) {
	return s.subs.add(fn)
}

func cloneChats(in []model.Chat) []model.Chat {
	if in == nil {
		return nil
	}
	out := make([]model.Chat, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}

// State returns a snapshot.
func (s *ChatStore) State() ChatState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := ChatState{
		Chats:     cloneChats(s.chats),
		Messages:  slices.Clone(s.messages),
		Phase:     s.phase,
		IsLoading: s.loading,
		Error:     s.err,
	}
	if s.activeID != "" {
		st.ActiveChatID = model.IDPtr(s.activeID)
	}
	if s.active != nil {
		c := s.active.Clone()
		st.ActiveChat = &c
	}
	return st
}

// Chats returns the conversation list, most recently updated first after
// any send.
func (s *ChatStore) Chats() []model.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneChats(s.chats)
}

// Messages returns the messages of the open conversation.
func (s *ChatStore) Messages() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.messages)
}

// ActiveChatID returns the open conversation's id, or "".
func (s *ChatStore) ActiveChatID() model.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Error returns the last user-facing error message.
func (s *ChatStore) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *ChatStore) indexOf(id model.ID) int {
	return slices.IndexFunc(s.chats, func(c model.Chat) bool { return c.ID == id })
}

// FetchUserChats replaces the conversation list.
func (s *ChatStore) FetchUserChats(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()
	s.subs.notify()

	var chats []model.Chat
	_, err := s.api.Get(ctx, "/chat", nil, &chats)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.err = msgFetchChatsFailed
	} else {
		if chats == nil {
			chats = []model.Chat{}
		}
		s.chats = chats
		if s.activeID != "" {
			if i := s.indexOf(s.activeID); i >= 0 {
				c := s.chats[i].Clone()
				s.active = &c
			}
		}
	}
	s.mu.Unlock()
	s.subs.notify()

	if err != nil {
		s.logger.Warn("fetch chats failed", slog.String("error", err.Error()))
	}
	return err
}

// SetActiveChat opens the conversation id, or closes the open one when id
// is nil. Opening marks the conversation read when it has unread messages
// from the other participant, then loads its messages. A load that finishes
// after another SetActiveChat is discarded.
func (s *ChatStore) SetActiveChat(ctx context.Context, id *model.ID) error {
	if id == nil || *id == "" {
		s.CloseChat()
		return nil
	}
	chatID := *id
	viewer := s.viewer.ViewerID()

	s.mu.Lock()
	token := s.seq.next(sliceMessages)
	s.activeID = chatID
	s.active = nil
	s.messages = nil
	s.phase = ChatOpening
	s.loading = true
	s.err = ""
	markRead := false
	if i := s.indexOf(chatID); i >= 0 {
		c := s.chats[i].Clone()
		s.active = &c
		lastFromViewer := c.LastMessageSenderID != nil && *c.LastMessageSenderID == viewer
		markRead = !c.IsRead && !lastFromViewer
	}
	s.mu.Unlock()
	s.subs.notify()

	if markRead {
		s.markReadLocal(chatID)
		s.background.Add(1)
		go func() {
			defer s.background.Done()
			bgCtx, cancel := context.WithTimeout(context.Background(), markReadTimeout)
			defer cancel()
			s.sendRead(bgCtx, chatID)
		}()
	}

	var messages []model.Message
	_, err := s.api.Get(ctx, "/chat/"+url.PathEscape(chatID.String())+"/messages", nil, &messages)

	s.mu.Lock()
	if !s.seq.current(sliceMessages, token) || s.activeID != chatID {
		s.mu.Unlock()
		return ErrSuperseded
	}
	s.loading = false
	if err != nil {
		s.err = msgFetchMessagesFailed
		s.activeID = ""
		s.active = nil
		s.messages = nil
		s.phase = ChatClosed
	} else {
		if messages == nil {
			messages = []model.Message{}
		}
		s.messages = messages
		s.phase = ChatOpen
	}
	s.mu.Unlock()
	s.subs.notify()

	if err != nil {
		s.logger.Warn("fetch messages failed", slog.String("chat_id", chatID.String()), slog.String("error", err.Error()))
	}
	return err
}

// CloseChat tears down the open conversation and drops any pending load.
func (s *ChatStore) CloseChat() {
	s.mu.Lock()
	s.seq.invalidate(sliceMessages)
	s.activeID = ""
	s.active = nil
	s.messages = nil
	s.phase = ChatClosed
	s.loading = false
	s.mu.Unlock()
	s.subs.notify()
}

// SendMessage posts text to chatID. The message is appended to the open
// conversation if chatID is still open when the backend answers, and the
// conversation's summary moves to the top of the list.
func (s *ChatStore) SendMessage(ctx context.Context, chatID model.ID, text string) (model.Message, error) {
	in := model.MessageInput{Message: text}
	if err := in.Validate(); err != nil {
		return model.Message{}, err
	}

	var sent model.Message
	if _, err := s.api.Post(ctx, "/chat/"+url.PathEscape(chatID.String())+"/messages", in, &sent); err != nil {
		s.mu.Lock()
		s.err = msgSendMessageFailed
		s.mu.Unlock()
		s.subs.notify()
		s.logger.Warn("send message failed", slog.String("chat_id", chatID.String()), slog.String("error", err.Error()))
		return model.Message{}, err
	}
	if sent.ChatID == "" {
		sent.ChatID = chatID
	}
	if sent.Message == "" {
		sent.Message = text
	}
	if sent.SenderID == "" {
		sent.SenderID = s.viewer.ViewerID()
	}
	if sent.CreatedAt.IsZero() {
		sent.CreatedAt = model.Now()
	}

	s.mu.Lock()
	if s.activeID == chatID {
		s.messages = append(s.messages, sent)
	}
	summarize := func(c *model.Chat) {
		c.LastMessage = model.SnippetOf(sent.Message)
		c.UpdatedAt = sent.CreatedAt
		c.LastMessageSenderID = model.IDPtr(sent.SenderID)
		c.IsRead = false
	}
	if i := s.indexOf(chatID); i >= 0 {
		summarize(&s.chats[i])
	}
	if s.active != nil && s.active.ID == chatID {
		summarize(s.active)
	}
	slices.SortStableFunc(s.chats, func(a, b model.Chat) int {
		return b.UpdatedAt.Compare(a.UpdatedAt.Time)
	})
	s.err = ""
	s.mu.Unlock()
	s.subs.notify()
	return sent, nil
}

// MarkAsRead flips the conversation to read and tells the backend. The flip
// is not undone on failure; it reports whether the backend confirmed.
func (s *ChatStore) MarkAsRead(ctx context.Context, chatID model.ID) bool {
	s.markReadLocal(chatID)
	return s.sendRead(ctx, chatID)
}

func (s *ChatStore) markReadLocal(chatID model.ID) {
	s.mu.Lock()
	if i := s.indexOf(chatID); i >= 0 {
		s.chats[i].IsRead = true
	}
	if s.active != nil && s.active.ID == chatID {
		s.active.IsRead = true
	}
	s.mu.Unlock()
	s.subs.notify()
}

func (s *ChatStore) sendRead(ctx context.Context, chatID model.ID) bool {
	if _, err := s.api.Post(ctx, "/chat/"+url.PathEscape(chatID.String())+"/read", nil, nil); err != nil {
		level := slog.LevelWarn
		if apierror.IsNetwork(err) {
			level = slog.LevelInfo
		}
		s.logger.Log(ctx, level, "mark as read failed", slog.String("chat_id", chatID.String()), slog.String("error", err.Error()))
		return false
	}
	return true
}

// Wait blocks until background mark-as-read requests finish.
func (s *ChatStore) Wait() {
	s.background.Wait()
}
