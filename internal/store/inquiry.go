package store

import (
	"context"
	"log/slog"
	"net/url"
	"slices"
	"sync"

	"homefinder-client/internal/model"
	"homefinder-client/pkg/apierror"
)

const (
	sliceInquiries        = "inquiries"
	sliceUserInquiries    = "user_inquiries"
	sliceListingInquiries = "listing_inquiries"
)

const (
	msgFetchInquiriesFailed = "Failed to fetch inquiries"
	msgCreateInquiryFailed  = "Failed to create inquiry"
	msgInquiryNotFound      = "Inquiry not found"
	msgUpdateInquiryFailed  = "Failed to update inquiry status"
)

// InquiryState is a snapshot of the inquiry store.
type InquiryState struct {
	Inquiries        []model.Inquiry
	UserInquiries    []model.Inquiry
	ListingInquiries []model.Inquiry
	IsLoading        bool
	Error            string
}

// InquiryStore keeps three lists of inquiries: everything visible to the
// user, the user's own, and those about one listing. The same inquiry may
// appear in several lists; updates are written to every copy.
type InquiryStore struct {
	api    API
	logger *slog.Logger

	mu           sync.RWMutex
	all          []model.Inquiry
	byUser       []model.Inquiry
	byListing    []model.Inquiry
	userScope    model.ID
	listingScope model.ID
	loading      bool
	err          string
	seq          sequence
	subs         subscribers
}

// NewInquiryStore creates an empty inquiry store.
func NewInquiryStore(api API, logger *slog.Logger) *InquiryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &InquiryStore{
		api:    api,
		logger: logger.With(slog.String("store", "inquiries")),
		seq:    sequence{},
	}
}

// Subscribe registers fn to run after every state change.
func (s *InquiryStore) Subscribe(fn func()) (unsubscribe func()) {
	return s.subs.add(fn)
}

func cloneInquiries(in []model.Inquiry) []model.Inquiry {
	if in == nil {
		return nil
	}
	out := make([]model.Inquiry, len(in))
	for i, q := range in {
		out[i] = q.Clone()
	}
	return out
}

// State returns a snapshot of every list.
func (s *InquiryStore) State() InquiryState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return InquiryState{
		Inquiries:        cloneInquiries(s.all),
		UserInquiries:    cloneInquiries(s.byUser),
		ListingInquiries: cloneInquiries(s.byListing),
		IsLoading:        s.loading,
		Error:            s.err,
	}
}

// Inquiries returns every inquiry visible to the user.
func (s *InquiryStore) Inquiries() []model.Inquiry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneInquiries(s.all)
}

// UserInquiries returns the inquiries of the last user fetched.
func (s *InquiryStore) UserInquiries() []model.Inquiry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneInquiries(s.byUser)
}

// ListingInquiries returns the inquiries of the last listing fetched.
func (s *InquiryStore) ListingInquiries() []model.Inquiry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneInquiries(s.byListing)
}

// Error returns the last user-facing error message.
func (s *InquiryStore) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *InquiryStore) fetch(ctx context.Context, slice, path string, apply func([]model.Inquiry)) error {
	s.mu.Lock()
	token := s.seq.next(slice)
	s.loading = true
	s.err = ""
	s.mu.Unlock()
	s.subs.notify()

	var list []model.Inquiry
	_, err := s.api.Get(ctx, path, nil, &list)

	s.mu.Lock()
	if !s.seq.current(slice, token) {
		s.mu.Unlock()
		return ErrSuperseded
	}
	s.loading = false
	if err != nil {
		s.err = msgFetchInquiriesFailed
	} else {
		if list == nil {
			list = []model.Inquiry{}
		}
		apply(list)
	}
	s.mu.Unlock()
	s.subs.notify()

	if err != nil {
		s.logger.Warn("fetch inquiries failed", slog.String("path", path), slog.String("error", err.Error()))
	}
	return err
}

// FetchAll loads every inquiry visible to the user.
func (s *InquiryStore) FetchAll(ctx context.Context) error {
	return s.fetch(ctx, sliceInquiries, "/inquiries", func(list []model.Inquiry) {
		s.all = list
	})
}

// FetchForUser loads the inquiries sent by userID.
func (s *InquiryStore) FetchForUser(ctx context.Context, userID model.ID) error {
	return s.fetch(ctx, sliceUserInquiries, "/inquiries/user/"+url.PathEscape(userID.String()), func(list []model.Inquiry) {
		s.byUser = list
		s.userScope = userID
	})
}

// FetchForListing loads the inquiries about listingID.
func (s *InquiryStore) FetchForListing(ctx context.Context, listingID model.ID) error {
	return s.fetch(ctx, sliceListingInquiries, "/inquiries/property/"+url.PathEscape(listingID.String()), func(list []model.Inquiry) {
		s.byListing = list
		s.listingScope = listingID
	})
}

// Create validates and submits an inquiry. The backend's record is appended
// to every list it belongs in.
func (s *InquiryStore) Create(ctx context.Context, in model.InquiryInput) (model.Inquiry, error) {
	if err := in.Validate(); err != nil {
		return model.Inquiry{}, err
	}

	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()
	s.subs.notify()

	var created model.Inquiry
	if _, err := s.api.Post(ctx, "/inquiries", in, &created); err != nil {
		s.mu.Lock()
		s.loading = false
		s.err = apierror.MessageOr(err, msgCreateInquiryFailed)
		s.mu.Unlock()
		s.subs.notify()
		return model.Inquiry{}, err
	}
	if created.PropertyID == "" {
		created.PropertyID = in.PropertyID
	}
	if created.Status == "" {
		created.Status = model.InquiryPending
	}

	s.mu.Lock()
	s.loading = false
	s.all = append(s.all, created.Clone())
	if s.userScope != "" && created.UserID == s.userScope {
		s.byUser = append(s.byUser, created.Clone())
	}
	if s.listingScope != "" && created.PropertyID == s.listingScope {
		s.byListing = append(s.byListing, created.Clone())
	}
	s.mu.Unlock()
	s.subs.notify()
	return created, nil
}

func indexOfInquiry(list []model.Inquiry, id model.ID) int {
	return slices.IndexFunc(list, func(q model.Inquiry) bool { return q.ID == id })
}

// UpdateStatus changes an inquiry's status on the backend, then overwrites
// every local copy. Only ids already loaded can be updated.
func (s *InquiryStore) UpdateStatus(ctx context.Context, id model.ID, status model.InquiryStatus) error {
	if !status.Valid() {
		return apierror.ValidationError("status must be one of: pending, responded, closed",
			apierror.FieldError{Field: "status", Message: "status must be one of: pending, responded, closed"})
	}

	s.mu.Lock()
	known := indexOfInquiry(s.all, id) >= 0 || indexOfInquiry(s.byUser, id) >= 0 || indexOfInquiry(s.byListing, id) >= 0
	if !known {
		s.err = msgInquiryNotFound
		s.mu.Unlock()
		s.subs.notify()
		return apierror.NotFound(msgInquiryNotFound)
	}
	s.loading = true
	s.err = ""
	s.mu.Unlock()
	s.subs.notify()

	var updated model.Inquiry
	if _, err := s.api.Put(ctx, "/inquiries/"+url.PathEscape(id.String()), map[string]model.InquiryStatus{"status": status}, &updated); err != nil {
		s.mu.Lock()
		s.loading = false
		s.err = apierror.MessageOr(err, msgUpdateInquiryFailed)
		s.mu.Unlock()
		s.subs.notify()
		return err
	}

	s.mu.Lock()
	s.loading = false
	for _, list := range [][]model.Inquiry{s.all, s.byUser, s.byListing} {
		if i := indexOfInquiry(list, id); i >= 0 {
			if updated.ID == id {
				list[i] = updated.Clone()
			} else {
				list[i].Status = status
			}
		}
	}
	s.mu.Unlock()
	s.subs.notify()
	return nil
}
