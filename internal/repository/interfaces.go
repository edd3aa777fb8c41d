package repository

import (
	"context"

	"homefinder-client/internal/model"
)

// UserRepository defines user data access methods.
type UserRepository interface {
	// Create stores a new user and assigns its ID. Returns ErrConflict when
	// the username or email is taken.
	Create(ctx context.Context, u *UserRecord) error

	// GetByID finds a user by ID.
	GetByID(ctx context.Context, id model.ID) (*UserRecord, error)

	// GetByLogin finds a user by username or email.
	GetByLogin(ctx context.Context, login string) (*UserRecord, error)

	// Update replaces the profile fields of an existing user.
	Update(ctx context.Context, u model.User) error

	// SetPassword replaces the stored password hash.
	SetPassword(ctx context.Context, id model.ID, hash []byte) error
}

// ListingRepository defines listing data access methods.
type ListingRepository interface {
	List(ctx context.Context) ([]model.Listing, error)
	Get(ctx context.Context, id model.ID) (model.Listing, error)
	Create(ctx context.Context, l *model.Listing) error
	Update(ctx context.Context, l model.Listing) error
	Delete(ctx context.Context, id model.ID) error
}

// FavoriteRepository defines favorite data access methods.
type FavoriteRepository interface {
	ListByUser(ctx context.Context, userID model.ID) ([]model.Favorite, error)

	// Add returns ErrConflict when the listing is already a favorite.
	Add(ctx context.Context, userID, propertyID model.ID) (model.Favorite, error)

	Remove(ctx context.Context, userID, propertyID model.ID) error

	// RemoveProperty drops every favorite of a deleted listing.
	RemoveProperty(ctx context.Context, propertyID model.ID) error
}

// InquiryRepository defines inquiry data access methods.
type InquiryRepository interface {
	List(ctx context.Context) ([]model.Inquiry, error)
	Get(ctx context.Context, id model.ID) (model.Inquiry, error)
	Create(ctx context.Context, q *model.Inquiry) error
	UpdateStatus(ctx context.Context, id model.ID, status model.InquiryStatus) (model.Inquiry, error)
}

// ChatRepository defines chat and message data access methods.
type ChatRepository interface {
	// ListForUser returns the chats userID takes part in, most recently
	// updated first.
	ListForUser(ctx context.Context, userID model.ID) ([]model.Chat, error)
	Get(ctx context.Context, id model.ID) (model.Chat, error)
	Create(ctx context.Context, c *model.Chat) error

	// AddMessage appends m and updates the chat summary.
	AddMessage(ctx context.Context, m *model.Message) error
	Messages(ctx context.Context, chatID model.ID) ([]model.Message, error)
	MarkRead(ctx context.Context, chatID model.ID) error
}

// UserRecord is a stored user with its password hash.
type UserRecord struct {
	model.User
	PasswordHash []byte
}

// RepositoryError is a sentinel error returned by repositories.
type RepositoryError string

func (e RepositoryError) Error() string { return string(e) }

const (
	// ErrNotFound indicates the record does not exist.
	ErrNotFound RepositoryError = "record not found"

	// ErrConflict indicates a uniqueness constraint was violated.
	ErrConflict RepositoryError = "record already exists"
)
