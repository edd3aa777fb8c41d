package repository

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"

	"homefinder-client/internal/model"
)

// idCounter hands out sequential numeric IDs.
type idCounter struct {
	last int64
}

func (c *idCounter) next() model.ID {
	c.last++
	return model.ID(strconv.FormatInt(c.last, 10))
}

// compareIDs orders numeric IDs numerically.
func compareIDs(a, b model.ID) int {
	x, errA := strconv.ParseInt(a.String(), 10, 64)
	y, errB := strconv.ParseInt(b.String(), 10, 64)
	if errA != nil || errB != nil {
		return strings.Compare(a.String(), b.String())
	}
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// MemoryUserRepository implements UserRepository in memory.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	ids   idCounter
	users map[model.ID]UserRecord
}

var _ UserRepository = (*MemoryUserRepository)(nil)

// NewMemoryUserRepository creates an empty user repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[model.ID]UserRecord)}
}

func cloneRecord(r UserRecord) *UserRecord {
	c := r
	c.PasswordHash = slices.Clone(r.PasswordHash)
	return &c
}

func (r *MemoryUserRepository) Create(ctx context.Context, u *UserRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Username, u.Username) || strings.EqualFold(existing.Email, u.Email) {
			return ErrConflict
		}
	}
	u.ID = r.ids.next()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = model.Now()
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	r.users[u.ID] = *cloneRecord(*u)
	return nil
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id model.ID) (*UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(u), nil
}

func (r *MemoryUserRepository) GetByLogin(ctx context.Context, login string) (*UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Username, login) || strings.EqualFold(u.Email, login) {
			return cloneRecord(u), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) Update(ctx context.Context, u model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	for id, other := range r.users {
		if id != u.ID && (strings.EqualFold(other.Username, u.Username) || strings.EqualFold(other.Email, u.Email)) {
			return ErrConflict
		}
	}
	existing.User = u
	r.users[u.ID] = existing
	return nil
}

func (r *MemoryUserRepository) SetPassword(ctx context.Context, id model.ID, hash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	existing.PasswordHash = slices.Clone(hash)
	r.users[id] = existing
	return nil
}

// MemoryListingRepository implements ListingRepository in memory.
type MemoryListingRepository struct {
	mu       sync.RWMutex
	ids      idCounter
	listings map[model.ID]model.Listing
}

var _ ListingRepository = (*MemoryListingRepository)(nil)

// NewMemoryListingRepository creates an empty listing repository.
func NewMemoryListingRepository() *MemoryListingRepository {
	return &MemoryListingRepository{listings: make(map[model.ID]model.Listing)}
}

// List returns every listing in creation order.
func (r *MemoryListingRepository) List(ctx context.Context) ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Listing, 0, len(r.listings))
	for _, l := range r.listings {
		out = append(out, l.Clone())
	}
	slices.SortFunc(out, func(a, b model.Listing) int { return compareIDs(a.ID, b.ID) })
	return out, nil
}

func (r *MemoryListingRepository) Get(ctx context.Context, id model.ID) (model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.listings[id]
	if !ok {
		return model.Listing{}, ErrNotFound
	}
	return l.Clone(), nil
}

func (r *MemoryListingRepository) Create(ctx context.Context, l *model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l.ID = r.ids.next()
	now := model.Now()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	r.listings[l.ID] = l.Clone()
	return nil
}

func (r *MemoryListingRepository) Update(ctx context.Context, l model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[l.ID]; !ok {
		return ErrNotFound
	}
	l.UpdatedAt = model.Now()
	r.listings[l.ID] = l.Clone()
	return nil
}

func (r *MemoryListingRepository) Delete(ctx context.Context, id model.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[id]; !ok {
		return ErrNotFound
	}
	delete(r.listings, id)
	return nil
}

// MemoryFavoriteRepository implements FavoriteRepository in memory.
type MemoryFavoriteRepository struct {
	mu        sync.RWMutex
	ids       idCounter
	favorites []model.Favorite
}

var _ FavoriteRepository = (*MemoryFavoriteRepository)(nil)

// NewMemoryFavoriteRepository creates an empty favorite repository.
func NewMemoryFavoriteRepository() *MemoryFavoriteRepository {
	return &MemoryFavoriteRepository{}
}

func (r *MemoryFavoriteRepository) ListByUser(ctx context.Context, userID model.ID) ([]model.Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []model.Favorite{}
	for _, f := range r.favorites {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *MemoryFavoriteRepository) Add(ctx context.Context, userID, propertyID model.ID) (model.Favorite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range r.favorites {
		if f.UserID == userID && f.PropertyID == propertyID {
			return model.Favorite{}, ErrConflict
		}
	}
	now := model.Now()
	f := model.Favorite{ID: r.ids.next(), UserID: userID, PropertyID: propertyID, CreatedAt: now, UpdatedAt: now}
	r.favorites = append(r.favorites, f)
	return f, nil
}

func (r *MemoryFavoriteRepository) Remove(ctx context.Context, userID, propertyID model.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.favorites)
	r.favorites = slices.DeleteFunc(r.favorites, func(f model.Favorite) bool {
		return f.UserID == userID && f.PropertyID == propertyID
	})
	if len(r.favorites) == n {
		return ErrNotFound
	}
	return nil
}

func (r *MemoryFavoriteRepository) RemoveProperty(ctx context.Context, propertyID model.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.favorites = slices.DeleteFunc(r.favorites, func(f model.Favorite) bool { return f.PropertyID == propertyID })
	return nil
}

// MemoryInquiryRepository implements InquiryRepository in memory.
type MemoryInquiryRepository struct {
	mu        sync.RWMutex
	ids       idCounter
	inquiries []model.Inquiry
}

var _ InquiryRepository = (*MemoryInquiryRepository)(nil)

// NewMemoryInquiryRepository creates an empty inquiry repository.
func NewMemoryInquiryRepository() *MemoryInquiryRepository {
	return &MemoryInquiryRepository{}
}

func (r *MemoryInquiryRepository) List(ctx context.Context) ([]model.Inquiry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Inquiry, 0, len(r.inquiries))
	for _, q := range r.inquiries {
		out = append(out, q.Clone())
	}
	return out, nil
}

func (r *MemoryInquiryRepository) Get(ctx context.Context, id model.ID) (model.Inquiry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, q := range r.inquiries {
		if q.ID == id {
			return q.Clone(), nil
		}
	}
	return model.Inquiry{}, ErrNotFound
}

func (r *MemoryInquiryRepository) Create(ctx context.Context, q *model.Inquiry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	q.ID = r.ids.next()
	if q.CreatedAt.IsZero() {
		q.CreatedAt = model.Now()
	}
	if q.Status == "" {
		q.Status = model.InquiryPending
	}
	r.inquiries = append(r.inquiries, q.Clone())
	return nil
}

func (r *MemoryInquiryRepository) UpdateStatus(ctx context.Context, id model.ID, status model.InquiryStatus) (model.Inquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.inquiries {
		if r.inquiries[i].ID == id {
			r.inquiries[i].Status = status
			return r.inquiries[i].Clone(), nil
		}
	}
	return model.Inquiry{}, ErrNotFound
}

// MemoryChatRepository implements ChatRepository in memory.
type MemoryChatRepository struct {
	mu       sync.RWMutex
	chatIDs  idCounter
	msgIDs   idCounter
	chats    map[model.ID]model.Chat
	messages map[model.ID][]model.Message
}

var _ ChatRepository = (*MemoryChatRepository)(nil)

// NewMemoryChatRepository creates an empty chat repository.
func NewMemoryChatRepository() *MemoryChatRepository {
	return &MemoryChatRepository{
		chats:    make(map[model.ID]model.Chat),
		messages: make(map[model.ID][]model.Message),
	}
}

func (r *MemoryChatRepository) ListForUser(ctx context.Context, userID model.ID) ([]model.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []model.Chat{}
	for _, c := range r.chats {
		if c.HasParticipant(userID) {
			out = append(out, c.Clone())
		}
	}
	slices.SortFunc(out, func(a, b model.Chat) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt.Time); c != 0 {
			return c
		}
		return compareIDs(b.ID, a.ID)
	})
	return out, nil
}

func (r *MemoryChatRepository) Get(ctx context.Context, id model.ID) (model.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.chats[id]
	if !ok {
		return model.Chat{}, ErrNotFound
	}
	return c.Clone(), nil
}

func (r *MemoryChatRepository) Create(ctx context.Context, c *model.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c.ID = r.chatIDs.next()
	now := model.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	r.chats[c.ID] = c.Clone()
	return nil
}

func (r *MemoryChatRepository) AddMessage(ctx context.Context, m *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.chats[m.ChatID]
	if !ok {
		return ErrNotFound
	}
	m.ID = r.msgIDs.next()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = model.Now()
	}
	m.UpdatedAt = m.CreatedAt
	r.messages[m.ChatID] = append(r.messages[m.ChatID], *m)

	c.LastMessage = model.SnippetOf(m.Message)
	c.LastMessageSenderID = model.IDPtr(m.SenderID)
	c.IsRead = false
	c.UpdatedAt = m.CreatedAt
	r.chats[c.ID] = c
	return nil
}

func (r *MemoryChatRepository) Messages(ctx context.Context, chatID model.ID) ([]model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.chats[chatID]; !ok {
		return nil, ErrNotFound
	}
	out := slices.Clone(r.messages[chatID])
	if out == nil {
		out = []model.Message{}
	}
	return out, nil
}

func (r *MemoryChatRepository) MarkRead(ctx context.Context, chatID model.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.chats[chatID]
	if !ok {
		return ErrNotFound
	}
	c.IsRead = true
	r.chats[chatID] = c
	return nil
}
