package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"sync"

	"homefinder-client/internal/apiclient"
	"homefinder-client/internal/model"
	"homefinder-client/internal/observability/metrics"
	"homefinder-client/pkg/apierror"
)

// Listing state slices, used for request sequencing.
const (
	sliceAll       = "listings"
	sliceFeatured  = "featured"
	sliceMine      = "mine"
	sliceCurrent   = "current"
	sliceFavorites = "favorites"
)

// User-facing listing messages.
const (
	msgFetchListingsFailed  = "Failed to fetch properties"
	msgFetchFeaturedFailed  = "Failed to fetch featured properties"
	msgFetchMineFailed      = "Failed to fetch user properties"
	msgListingNotFound      = "Property not found"
	msgFetchListingFailed   = "Failed to fetch property details"
	msgFetchFavoritesFailed = "Failed to fetch favorite properties"
	msgCreateListingFailed  = "Failed to create property"
	msgUpdateListingFailed  = "Failed to update property"
	msgDeleteListingFailed  = "Failed to delete property"
)

// ListingState is a comparable deep snapshot of the listing store.
type ListingState struct {
	Listings  []model.Listing
	Featured  []model.Listing
	Mine      []model.Listing
	Current   *model.Listing
	Favorites []model.ID
	Filters   model.ListingFilter
	IsLoading bool
	Error     string
}

// listingState keeps each listing once, keyed by id; the views hold ids.
type listingState struct {
	table     map[model.ID]model.Listing
	all       []model.ID
	featured  []model.ID
	mine      []model.ID
	currentID model.ID
	favorites []model.ID
	filters   model.ListingFilter
	loading   bool
	err       string
}

func (s listingState) clone() listingState {
	c := s
	c.table = make(map[model.ID]model.Listing, len(s.table))
	for id, l := range s.table {
		c.table[id] = l.Clone()
	}
	c.all = slices.Clone(s.all)
	c.featured = slices.Clone(s.featured)
	c.mine = slices.Clone(s.mine)
	c.favorites = slices.Clone(s.favorites)
	return c
}

// ListingStore holds listings, the featured and own-listing views, the
// listing being viewed, favorites and the active search filter.
type ListingStore struct {
	api    API
	logger *slog.Logger

	mu    sync.RWMutex
	state listingState
	seq   sequence
	subs  subscribers
}

// NewListingStore creates an empty listing store.
func NewListingStore(api API, logger *slog.Logger) *ListingStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListingStore{
		api:    api,
		logger: logger.With(slog.String("store", "listings")),
		state:  listingState{table: make(map[model.ID]model.Listing)},
		seq:    sequence{},
	}
}

// Subscribe registers fn to run after every state change.
func (s *ListingStore) Subscribe(fn func()) (unsubscribe func()) {
	return s.subs.add(fn)
}

func (s *ListingStore) resolve(ids []model.ID) []model.Listing {
	out := make([]model.Listing, 0, len(ids))
	for _, id := range ids {
		if l, ok := s.state.table[id]; ok {
			out = append(out, l.Clone())
		}
	}
	return out
}

// Listings returns the search results.
func (s *ListingStore) Listings() []model.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolve(s.state.all)
}

// Featured returns the featured view. Listings whose table entry is no
// longer featured are left out.
func (s *ListingStore) Featured() []model.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.featuredLocked()
}

func (s *ListingStore) featuredLocked() []model.Listing {
	out := make([]model.Listing, 0, len(s.state.featured))
	for _, l := range s.resolve(s.state.featured) {
		if l.IsFeatured {
			out = append(out, l)
		}
	}
	return out
}

// Mine returns the signed-in user's listings.
func (s *ListingStore) Mine() []model.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolve(s.state.mine)
}

// Current returns the listing being viewed, or nil.
func (s *ListingStore) Current() *model.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentLocked()
}

func (s *ListingStore) currentLocked() *model.Listing {
	if s.state.currentID == "" {
		return nil
	}
	l, ok := s.state.table[s.state.currentID]
	if !ok {
		return nil
	}
	c := l.Clone()
	return &c
}

// Favorites returns the ids of favorited listings.
func (s *ListingStore) Favorites() []model.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.favorites)
}

// IsFavorite reports whether id is favorited.
func (s *ListingStore) IsFavorite(id model.ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.state.favorites, id)
}

// Filters returns the active search filter.
func (s *ListingStore) Filters() model.ListingFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.filters
}

// Error returns the last user-facing error message.
func (s *ListingStore) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.err
}

// State returns a deep snapshot of every view.
func (s *ListingStore) State() ListingState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ListingState{
		Listings:  s.resolve(s.state.all),
		Featured:  s.featuredLocked(),
		Mine:      s.resolve(s.state.mine),
		Current:   s.currentLocked(),
		Favorites: slices.Clone(s.state.favorites),
		Filters:   s.state.filters,
		IsLoading: s.state.loading,
		Error:     s.state.err,
	}
}

// upsert writes listings into the table and returns their ids in order.
// Callers hold the lock.
func (s *ListingStore) upsert(listings []model.Listing) []model.ID {
	ids := make([]model.ID, 0, len(listings))
	for _, l := range listings {
		if l.ID == "" {
			continue
		}
		s.state.table[l.ID] = l.Clone()
		ids = append(ids, l.ID)
	}
	return ids
}

// begin marks slice as loading and returns its request token.
func (s *ListingStore) begin(slice string, fn func(*listingState)) uint64 {
	s.mu.Lock()
	token := s.seq.next(slice)
	s.state.loading = true
	s.state.err = ""
	if fn != nil {
		fn(&s.state)
	}
	s.mu.Unlock()
	s.subs.notify()
	return token
}

// settle applies fn if token is still the latest for slice.
func (s *ListingStore) settle(slice string, token uint64, fn func()) error {
	s.mu.Lock()
	if !s.seq.current(slice, token) {
		s.mu.Unlock()
		metrics.ObserveStaleResponse(slice)
		s.logger.Debug("discarding stale response", slog.String("slice", slice))
		return ErrSuperseded
	}
	s.state.loading = false
	fn()
	s.mu.Unlock()
	s.subs.notify()
	return nil
}

// decodeListings accepts a bare array or a ListingPage.
func decodeListings(raw json.RawMessage) ([]model.Listing, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '[' {
		var list []model.Listing
		err := json.Unmarshal(raw, &list)
		return list, err
	}
	var page model.ListingPage
	err := json.Unmarshal(raw, &page)
	return page.Properties, err
}

func (s *ListingStore) fetchList(ctx context.Context, query url.Values) ([]model.Listing, error) {
	var raw json.RawMessage
	if _, err := s.api.Get(ctx, "/properties", query, &raw); err != nil {
		return nil, err
	}
	listings, err := decodeListings(raw)
	if err != nil {
		return nil, &apierror.Error{StatusCode: http.StatusOK, Code: "INVALID_RESPONSE", Message: err.Error(), Body: raw}
	}
	return listings, nil
}

// FetchAll replaces the search results with the listings matching the
// active filter.
func (s *ListingStore) FetchAll(ctx context.Context) error {
	var filters model.ListingFilter
	token := s.begin(sliceAll, func(st *listingState) { filters = st.filters })

	listings, err := s.fetchList(ctx, filters.Query())
	if serr := s.settle(sliceAll, token, func() {
		if err != nil {
			s.state.err = msgFetchListingsFailed
			return
		}
		s.state.all = s.upsert(listings)
	}); serr != nil {
		return serr
	}
	if err != nil {
		s.logger.Warn("fetch listings failed", slog.String("error", err.Error()))
	}
	return err
}

// FetchFeatured loads the featured view.
func (s *ListingStore) FetchFeatured(ctx context.Context) error {
	token := s.begin(sliceFeatured, nil)

	listings, err := s.fetchList(ctx, url.Values{"variant": {"featured"}})
	if serr := s.settle(sliceFeatured, token, func() {
		if err != nil {
			s.state.err = msgFetchFeaturedFailed
			return
		}
		featured := make([]model.Listing, 0, len(listings))
		for _, l := range listings {
			if l.IsFeatured {
				featured = append(featured, l)
			}
		}
		s.state.featured = s.upsert(featured)
	}); serr != nil {
		return serr
	}
	if err != nil {
		s.logger.Warn("fetch featured failed", slog.String("error", err.Error()))
	}
	return err
}

// FetchMine loads the signed-in user's listings. On failure the previous
// view is kept.
func (s *ListingStore) FetchMine(ctx context.Context) error {
	token := s.begin(sliceMine, nil)

	listings, err := s.fetchList(ctx, url.Values{"variant": {"mine"}})
	if serr := s.settle(sliceMine, token, func() {
		if err != nil {
			s.state.err = apierror.MessageOr(err, msgFetchMineFailed)
			return
		}
		s.state.mine = s.upsert(listings)
	}); serr != nil {
		return serr
	}
	if err != nil {
		s.logger.Warn("fetch own listings failed", slog.String("error", err.Error()))
	}
	return err
}

// FetchByID loads one listing and makes it current. A missing listing
// leaves no current listing and sets "Property not found" without
// returning an error.
func (s *ListingStore) FetchByID(ctx context.Context, id model.ID) error {
	token := s.begin(sliceCurrent, func(st *listingState) { st.currentID = "" })

	var raw json.RawMessage
	_, err := s.api.Get(ctx, "/properties/"+url.PathEscape(id.String()), nil, &raw)

	var listing model.Listing
	notFound := apierror.StatusOf(err) == http.StatusNotFound
	if err == nil {
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			notFound = true
		} else if jerr := json.Unmarshal(raw, &listing); jerr != nil {
			err = &apierror.Error{StatusCode: http.StatusOK, Code: "INVALID_RESPONSE", Message: jerr.Error(), Body: raw}
		} else if listing.ID == "" {
			notFound = true
		}
	}
	if notFound {
		err = nil
	}

	if serr := s.settle(sliceCurrent, token, func() {
		switch {
		case notFound:
			s.state.err = msgListingNotFound
		case err != nil:
			s.state.err = msgFetchListingFailed
		default:
			s.upsert([]model.Listing{listing})
			s.state.currentID = listing.ID
		}
	}); serr != nil {
		return serr
	}
	return err
}

// ClearCurrent forgets the listing being viewed.
func (s *ListingStore) ClearCurrent() {
	s.mu.Lock()
	s.seq.invalidate(sliceCurrent)
	s.state.currentID = ""
	s.mu.Unlock()
	s.subs.notify()
}

// FetchFavoriteIDs loads the ids of the user's favorite listings.
func (s *ListingStore) FetchFavoriteIDs(ctx context.Context) error {
	token := s.begin(sliceFavorites, nil)

	var favorites []model.Favorite
	_, err := s.api.Get(ctx, "/favourites", nil, &favorites)
	if serr := s.settle(sliceFavorites, token, func() {
		if err != nil {
			s.state.err = msgFetchFavoritesFailed
			return
		}
		ids := make([]model.ID, 0, len(favorites))
		for _, f := range favorites {
			ids = append(ids, f.PropertyID)
		}
		s.state.favorites = ids
	}); serr != nil {
		return serr
	}
	if err != nil {
		s.logger.Warn("fetch favorites failed", slog.String("error", err.Error()))
	}
	return err
}

// ToggleFavorite adds or removes id from favorites immediately, then
// confirms with the backend. If the backend refuses, the favorites list is
// restored to exactly what it was before the toggle. It reports whether the
// backend confirmed; failures are logged, not returned.
func (s *ListingStore) ToggleFavorite(ctx context.Context, id model.ID) bool {
	s.mu.Lock()
	previous := slices.Clone(s.state.favorites)
	wasFavorite := slices.Contains(previous, id)
	txn := Begin(previous, func() {
		if wasFavorite {
			s.state.favorites = slices.DeleteFunc(slices.Clone(previous), func(f model.ID) bool { return f == id })
		} else {
			s.state.favorites = append(slices.Clone(previous), id)
		}
	}, func(prev []model.ID) {
		s.state.favorites = prev
	})
	s.mu.Unlock()
	s.subs.notify()

	var err error
	if wasFavorite {
		_, err = s.api.Delete(ctx, "/favourites/"+url.PathEscape(id.String()), nil)
	} else {
		_, err = s.api.Post(ctx, "/favourites", map[string]model.ID{"property_id": id}, nil)
	}
	if err != nil {
		s.mu.Lock()
		txn.Rollback()
		s.mu.Unlock()
		s.subs.notify()
		metrics.ObserveRollback("toggle_favorite")
		s.logger.Warn("toggle favorite failed", slog.String("property_id", id.String()), slog.String("error", err.Error()))
		return false
	}
	txn.Commit()
	return true
}

// ToggleFeature flips a listing's featured flag immediately, then confirms
// with the backend. On failure the whole store is restored to its state
// before the toggle. Unknown ids set "Property not found" without a request.
func (s *ListingStore) ToggleFeature(ctx context.Context, id model.ID) bool {
	s.mu.Lock()
	listing, ok := s.state.table[id]
	if !ok {
		s.state.err = msgListingNotFound
		s.mu.Unlock()
		s.subs.notify()
		return false
	}
	txn := Begin(s.state.clone(), func() {
		listing.IsFeatured = !listing.IsFeatured
		s.state.table[id] = listing
		if listing.IsFeatured {
			if !slices.Contains(s.state.featured, id) {
				s.state.featured = append(slices.Clone(s.state.featured), id)
			}
		} else {
			s.state.featured = slices.DeleteFunc(slices.Clone(s.state.featured), func(f model.ID) bool { return f == id })
		}
	}, func(prev listingState) {
		s.state = prev
	})
	s.mu.Unlock()
	s.subs.notify()

	var updated model.Listing
	if _, err := s.api.Patch(ctx, "/properties/"+url.PathEscape(id.String())+"/feature", nil, &updated); err != nil {
		s.mu.Lock()
		txn.Rollback()
		s.mu.Unlock()
		s.subs.notify()
		metrics.ObserveRollback("toggle_feature")
		s.logger.Warn("toggle feature failed", slog.String("property_id", id.String()), slog.String("error", err.Error()))
		return false
	}
	txn.Commit()

	if updated.ID == id {
		s.mu.Lock()
		s.upsert([]model.Listing{updated})
		s.mu.Unlock()
		s.subs.notify()
	}
	return true
}

// SetFilters replaces the active filter and reloads the search results.
func (s *ListingStore) SetFilters(ctx context.Context, f model.ListingFilter) error {
	s.mu.Lock()
	s.state.filters = f
	s.mu.Unlock()
	s.subs.notify()
	return s.FetchAll(ctx)
}

// Create validates and submits a new listing, adding it to the own and
// search views.
func (s *ListingStore) Create(ctx context.Context, in model.ListingInput) (model.Listing, error) {
	if err := in.Validate(); err != nil {
		return model.Listing{}, err
	}

	var created model.Listing
	if _, err := s.api.Post(ctx, "/properties", in, &created); err != nil {
		s.setError(apierror.MessageOr(err, msgCreateListingFailed))
		return model.Listing{}, err
	}
	if created.ID == "" {
		return model.Listing{}, &apierror.Error{StatusCode: http.StatusOK, Code: "INVALID_RESPONSE", Message: "created listing has no id"}
	}

	s.mu.Lock()
	s.upsert([]model.Listing{created})
	if !slices.Contains(s.state.mine, created.ID) {
		s.state.mine = append(s.state.mine, created.ID)
	}
	if !slices.Contains(s.state.all, created.ID) {
		s.state.all = append(s.state.all, created.ID)
	}
	s.state.err = ""
	s.mu.Unlock()
	s.subs.notify()
	return created.Clone(), nil
}

// Update validates and submits changes to a listing.
func (s *ListingStore) Update(ctx context.Context, id model.ID, in model.ListingInput) (model.Listing, error) {
	if err := in.Validate(); err != nil {
		return model.Listing{}, err
	}

	var updated model.Listing
	if _, err := s.api.Put(ctx, "/properties/"+url.PathEscape(id.String()), in, &updated); err != nil {
		s.setError(apierror.MessageOr(err, msgUpdateListingFailed))
		return model.Listing{}, err
	}
	if updated.ID == "" {
		// The backend acknowledged without echoing the record.
		s.mu.RLock()
		prev := s.state.table[id]
		s.mu.RUnlock()
		updated = in.Listing()
		updated.ID = id
		updated.UserID = prev.UserID
		updated.User = prev.User.Clone()
		updated.IsFeatured = prev.IsFeatured
		updated.CreatedAt = prev.CreatedAt
	}

	s.mu.Lock()
	s.upsert([]model.Listing{updated})
	s.state.err = ""
	s.mu.Unlock()
	s.subs.notify()
	return updated.Clone(), nil
}

// Delete removes a listing on the backend and from every view.
func (s *ListingStore) Delete(ctx context.Context, id model.ID) error {
	if _, err := s.api.Delete(ctx, "/properties/"+url.PathEscape(id.String()), nil); err != nil {
		s.setError(apierror.MessageOr(err, msgDeleteListingFailed))
		return err
	}

	s.mu.Lock()
	drop := func(ids []model.ID) []model.ID {
		return slices.DeleteFunc(slices.Clone(ids), func(v model.ID) bool { return v == id })
	}
	delete(s.state.table, id)
	s.state.all = drop(s.state.all)
	s.state.featured = drop(s.state.featured)
	s.state.mine = drop(s.state.mine)
	s.state.favorites = drop(s.state.favorites)
	if s.state.currentID == id {
		s.state.currentID = ""
	}
	s.state.err = ""
	s.mu.Unlock()
	s.subs.notify()
	return nil
}

// UploadImage uploads an image for a listing form and returns its URL.
func (s *ListingStore) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	secureURL, err := s.api.Upload(ctx, apiclient.UploadField, filename, r)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}
	return secureURL, nil
}

func (s *ListingStore) setError(msg string) {
	s.mu.Lock()
	s.state.err = msg
	s.mu.Unlock()
	s.subs.notify()
}
