package service

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"homefinder-client/internal/model"
	"homefinder-client/internal/repository"
	"homefinder-client/pkg/apierror"
)

const (
	// DefaultPageSize is used when the request does not ask for one.
	DefaultPageSize = 10
	// MaxPageSize caps page_size.
	MaxPageSize = 100
)

// Actor is the caller of a service operation.
type Actor struct {
	ID   model.ID
	Role model.Role
}

// IsAdmin reports whether the actor may moderate any listing.
func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

// ListingService handles listings and favorites.
type ListingService struct {
	repos  Repositories
	logger *slog.Logger
}

// NewListingService creates a new listing service.
func NewListingService(repos Repositories, logger *slog.Logger) *ListingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListingService{repos: repos, logger: logger}
}

// withOwner embeds the owner's public profile.
func (s *ListingService) withOwner(ctx context.Context, l model.Listing) model.Listing {
	if rec, err := s.repos.Users.GetByID(ctx, l.UserID); err == nil {
		owner := rec.User
		l.User = &owner
	}
	return l
}

// Search returns one page of listings matching q's filters.
func (s *ListingService) Search(ctx context.Context, q url.Values) (model.ListingPage, error) {
	all, err := s.repos.Listings.List(ctx)
	if err != nil {
		return model.ListingPage{}, apierror.InternalError(err.Error())
	}
	filter := model.ParseListingFilter(q)
	matched := make([]model.Listing, 0, len(all))
	for _, l := range all {
		if filter.Matches(l) {
			matched = append(matched, l)
		}
	}
	sortListings(matched, q.Get("sort"))

	page := positiveInt(q.Get("page"), 1)
	size := min(positiveInt(q.Get("page_size"), DefaultPageSize), MaxPageSize)
	pages := (len(matched) + size - 1) / size

	start := min((page-1)*size, len(matched))
	end := min(start+size, len(matched))
	items := make([]model.Listing, 0, end-start)
	for _, l := range matched[start:end] {
		items = append(items, s.withOwner(ctx, l))
	}
	return model.ListingPage{
		Total:       len(matched),
		Pages:       pages,
		CurrentPage: page,
		PageSize:    size,
		Properties:  items,
	}, nil
}

func positiveInt(raw string, fallback int) int {
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return n
	}
	return fallback
}

// sortListings orders by a field name, descending with a leading "-".
// Unknown fields keep creation order.
func sortListings(list []model.Listing, field string) {
	desc := strings.HasPrefix(field, "-")
	field = strings.TrimPrefix(field, "-")

	var less func(a, b model.Listing) int
	switch field {
	case "price":
		less = func(a, b model.Listing) int { return cmp.Compare(a.Price, b.Price) }
	case "created_at", "createdAt":
		less = func(a, b model.Listing) int { return a.CreatedAt.Compare(b.CreatedAt.Time) }
	case "area":
		less = func(a, b model.Listing) int { return cmp.Compare(a.Features.Area, b.Features.Area) }
	default:
		return
	}
	slices.SortStableFunc(list, func(a, b model.Listing) int {
		if desc {
			return less(b, a)
		}
		return less(a, b)
	})
}

// Featured returns every featured listing.
func (s *ListingService) Featured(ctx context.Context) ([]model.Listing, error) {
	all, err := s.repos.Listings.List(ctx)
	if err != nil {
		return nil, apierror.InternalError(err.Error())
	}
	out := []model.Listing{}
	for _, l := range all {
		if l.IsFeatured {
			out = append(out, s.withOwner(ctx, l))
		}
	}
	return out, nil
}

// Mine returns the actor's own listings.
func (s *ListingService) Mine(ctx context.Context, actor Actor) ([]model.Listing, error) {
	all, err := s.repos.Listings.List(ctx)
	if err != nil {
		return nil, apierror.InternalError(err.Error())
	}
	out := []model.Listing{}
	for _, l := range all {
		if l.UserID == actor.ID {
			out = append(out, l)
		}
	}
	return out, nil
}

// Get returns one listing with its owner.
func (s *ListingService) Get(ctx context.Context, id model.ID) (model.Listing, error) {
	l, err := s.repos.Listings.Get(ctx, id)
	if err != nil {
		return model.Listing{}, notFoundOr(err, "Property not found")
	}
	return s.withOwner(ctx, l), nil
}

// Create stores a new listing owned by actor.
func (s *ListingService) Create(ctx context.Context, actor Actor, in model.ListingInput) (model.Listing, error) {
	if err := in.Validate(); err != nil {
		return model.Listing{}, err
	}
	l := in.Listing()
	l.UserID = actor.ID
	if err := s.repos.Listings.Create(ctx, &l); err != nil {
		return model.Listing{}, apierror.InternalError(err.Error())
	}
	s.logger.Info("listing created", slog.String("listing_id", l.ID.String()), slog.String("user_id", actor.ID.String()))
	return l, nil
}

func (s *ListingService) owned(ctx context.Context, actor Actor, id model.ID) (model.Listing, error) {
	l, err := s.repos.Listings.Get(ctx, id)
	if err != nil {
		return model.Listing{}, notFoundOr(err, "Property not found")
	}
	if l.UserID != actor.ID && !actor.IsAdmin() {
		return model.Listing{}, apierror.Forbidden("You do not own this property")
	}
	return l, nil
}

// Update replaces the editable fields of a listing the actor owns.
func (s *ListingService) Update(ctx context.Context, actor Actor, id model.ID, in model.ListingInput) (model.Listing, error) {
	if err := in.Validate(); err != nil {
		return model.Listing{}, err
	}
	prev, err := s.owned(ctx, actor, id)
	if err != nil {
		return model.Listing{}, err
	}
	l := in.Listing()
	l.ID = prev.ID
	l.UserID = prev.UserID
	l.IsFeatured = prev.IsFeatured
	l.CreatedAt = prev.CreatedAt
	if err := s.repos.Listings.Update(ctx, l); err != nil {
		return model.Listing{}, notFoundOr(err, "Property not found")
	}
	return s.repos.Listings.Get(ctx, id)
}

// Delete removes a listing the actor owns, and every favorite of it.
func (s *ListingService) Delete(ctx context.Context, actor Actor, id model.ID) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repos.Listings.Delete(ctx, id); err != nil {
		return notFoundOr(err, "Property not found")
	}
	if err := s.repos.Favorites.RemoveProperty(ctx, id); err != nil {
		s.logger.Warn("favorite cleanup failed", slog.String("listing_id", id.String()), slog.String("error", err.Error()))
	}
	return nil
}

// ToggleFeature flips a listing's featured flag. Admins only.
func (s *ListingService) ToggleFeature(ctx context.Context, actor Actor, id model.ID) (model.Listing, error) {
	if !actor.IsAdmin() {
		return model.Listing{}, apierror.Forbidden("Admin access required")
	}
	l, err := s.repos.Listings.Get(ctx, id)
	if err != nil {
		return model.Listing{}, notFoundOr(err, "Property not found")
	}
	l.IsFeatured = !l.IsFeatured
	if err := s.repos.Listings.Update(ctx, l); err != nil {
		return model.Listing{}, notFoundOr(err, "Property not found")
	}
	return s.Get(ctx, id)
}

// Favorites returns the actor's favorites.
func (s *ListingService) Favorites(ctx context.Context, actor Actor) ([]model.Favorite, error) {
	favs, err := s.repos.Favorites.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, apierror.InternalError(err.Error())
	}
	return favs, nil
}

// AddFavorite saves propertyID for the actor.
func (s *ListingService) AddFavorite(ctx context.Context, actor Actor, propertyID model.ID) (model.Favorite, error) {
	if propertyID == "" {
		return model.Favorite{}, apierror.BadRequest("Property ID is required")
	}
	if _, err := s.repos.Listings.Get(ctx, propertyID); err != nil {
		return model.Favorite{}, notFoundOr(err, "Property not found")
	}
	f, err := s.repos.Favorites.Add(ctx, actor.ID, propertyID)
	if errors.Is(err, repository.ErrConflict) {
		return model.Favorite{}, apierror.BadRequest("Property already in favourites")
	}
	if err != nil {
		return model.Favorite{}, apierror.InternalError(err.Error())
	}
	return f, nil
}

// RemoveFavorite forgets propertyID for the actor.
func (s *ListingService) RemoveFavorite(ctx context.Context, actor Actor, propertyID model.ID) error {
	if err := s.repos.Favorites.Remove(ctx, actor.ID, propertyID); err != nil {
		return notFoundOr(err, "Favorite not found")
	}
	return nil
}

// Favorite returns the actor's favorite for propertyID.
func (s *ListingService) Favorite(ctx context.Context, actor Actor, propertyID model.ID) (model.Favorite, error) {
	favs, err := s.repos.Favorites.ListByUser(ctx, actor.ID)
	if err != nil {
		return model.Favorite{}, apierror.InternalError(err.Error())
	}
	for _, f := range favs {
		if f.PropertyID == propertyID {
			return f, nil
		}
	}
	return model.Favorite{}, apierror.NotFound("Favorite not found")
}
