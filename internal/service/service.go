// Package service holds the business rules of the fake marketplace backend.
package service

import (
	"errors"

	"homefinder-client/internal/repository"
	"homefinder-client/pkg/apierror"
)

// Repositories groups the data access dependencies of the services.
type Repositories struct {
	Users     repository.UserRepository
	Listings  repository.ListingRepository
	Favorites repository.FavoriteRepository
	Inquiries repository.InquiryRepository
	Chats     repository.ChatRepository
}

// NewMemoryRepositories returns empty in-memory repositories.
func NewMemoryRepositories() Repositories {
	return Repositories{
		Users:     repository.NewMemoryUserRepository(),
		Listings:  repository.NewMemoryListingRepository(),
		Favorites: repository.NewMemoryFavoriteRepository(),
		Inquiries: repository.NewMemoryInquiryRepository(),
		Chats:     repository.NewMemoryChatRepository(),
	}
}

// notFoundOr maps repository.ErrNotFound to a 404 with msg and anything
// else to a 500.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apierror.NotFound(msg)
	}
	return apierror.InternalError(err.Error())
}
