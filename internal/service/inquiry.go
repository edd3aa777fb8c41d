package service

import (
	"context"
	"log/slog"

	"homefinder-client/internal/model"
	"homefinder-client/pkg/apierror"
)

// InquiryService handles inquiries. A new inquiry from a registered user
// opens a chat with the listing owner, seeded with the inquiry message.
type InquiryService struct {
	repos  Repositories
	logger *slog.Logger
}

// NewInquiryService creates a new inquiry service.
func NewInquiryService(repos Repositories, logger *slog.Logger) *InquiryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InquiryService{repos: repos, logger: logger}
}

// Create stores an inquiry. A signed-in actor becomes its sender. An
// anonymous caller may only use an email that belongs to no account.
func (s *InquiryService) Create(ctx context.Context, actor Actor, in model.InquiryInput) (model.Inquiry, error) {
	if err := in.Validate(); err != nil {
		return model.Inquiry{}, err
	}
	listing, err := s.repos.Listings.Get(ctx, in.PropertyID)
	if err != nil {
		return model.Inquiry{}, notFoundOr(err, "Property does not exist")
	}
	if actor.ID == "" {
		if _, err := s.repos.Users.GetByLogin(ctx, in.Email); err == nil {
			return model.Inquiry{}, apierror.Unauthorized("Please login to send an inquiry with this email")
		}
	}

	q := model.Inquiry{
		PropertyID:    in.PropertyID,
		UserID:        actor.ID,
		Name:          in.Name,
		Email:         in.Email,
		Message:       in.Message,
		PropertyTitle: listing.Title,
		Status:        model.InquiryPending,
	}
	if err := s.repos.Inquiries.Create(ctx, &q); err != nil {
		return model.Inquiry{}, apierror.InternalError(err.Error())
	}

	if q.UserID != "" && q.UserID != listing.UserID {
		s.openChat(ctx, q, listing)
	}
	return q, nil
}

func (s *InquiryService) openChat(ctx context.Context, q model.Inquiry, listing model.Listing) {
	chat := model.Chat{
		SenderID:   q.UserID,
		ReceiverID: listing.UserID,
		PropertyID: listing.ID,
		InquiryID:  model.IDPtr(q.ID),
		CreatedAt:  q.CreatedAt,
	}
	if err := s.repos.Chats.Create(ctx, &chat); err != nil {
		s.logger.Warn("open chat for inquiry failed", slog.String("inquiry_id", q.ID.String()), slog.String("error", err.Error()))
		return
	}
	msg := model.Message{ChatID: chat.ID, SenderID: q.UserID, Message: q.Message, CreatedAt: q.CreatedAt}
	if err := s.repos.Chats.AddMessage(ctx, &msg); err != nil {
		s.logger.Warn("seed chat message failed", slog.String("chat_id", chat.ID.String()), slog.String("error", err.Error()))
	}
}

// List returns the inquiries the actor may see: all of them for admins,
// otherwise those the actor sent or received on their listings.
func (s *InquiryService) List(ctx context.Context, actor Actor) ([]model.Inquiry, error) {
	all, err := s.repos.Inquiries.List(ctx)
	if err != nil {
		return nil, apierror.InternalError(err.Error())
	}
	if actor.IsAdmin() {
		return all, nil
	}
	out := []model.Inquiry{}
	for _, q := range all {
		if q.UserID == actor.ID || s.ownsListing(ctx, actor, q.PropertyID) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *InquiryService) ownsListing(ctx context.Context, actor Actor, id model.ID) bool {
	l, err := s.repos.Listings.Get(ctx, id)
	return err == nil && l.UserID == actor.ID
}

// ForUser returns the inquiries sent by userID. Users may only list their own.
func (s *InquiryService) ForUser(ctx context.Context, actor Actor, userID model.ID) ([]model.Inquiry, error) {
	if userID != actor.ID && !actor.IsAdmin() {
		return nil, apierror.Forbidden("Unauthorized to view these inquiries")
	}
	all, err := s.repos.Inquiries.List(ctx)
	if err != nil {
		return nil, apierror.InternalError(err.Error())
	}
	out := []model.Inquiry{}
	for _, q := range all {
		if q.UserID == userID {
			out = append(out, q)
		}
	}
	return out, nil
}

// ForListing returns the inquiries about a listing. Owner or admin only.
func (s *InquiryService) ForListing(ctx context.Context, actor Actor, listingID model.ID) ([]model.Inquiry, error) {
	l, err := s.repos.Listings.Get(ctx, listingID)
	if err != nil {
		return nil, notFoundOr(err, "Property not found")
	}
	if l.UserID != actor.ID && !actor.IsAdmin() {
		return nil, apierror.Forbidden("Unauthorized to view these inquiries")
	}
	all, err := s.repos.Inquiries.List(ctx)
	if err != nil {
		return nil, apierror.InternalError(err.Error())
	}
	out := []model.Inquiry{}
	for _, q := range all {
		if q.PropertyID == listingID {
			out = append(out, q)
		}
	}
	return out, nil
}

// UpdateStatus changes an inquiry's status. Listing owner or admin only.
func (s *InquiryService) UpdateStatus(ctx context.Context, actor Actor, id model.ID, status model.InquiryStatus) (model.Inquiry, error) {
	if !status.Valid() {
		return model.Inquiry{}, apierror.BadRequest("Invalid status")
	}
	q, err := s.repos.Inquiries.Get(ctx, id)
	if err != nil {
		return model.Inquiry{}, notFoundOr(err, "Inquiry not found")
	}
	if !actor.IsAdmin() && !s.ownsListing(ctx, actor, q.PropertyID) {
		return model.Inquiry{}, apierror.Forbidden("Unauthorized to update this inquiry")
	}
	updated, err := s.repos.Inquiries.UpdateStatus(ctx, id, status)
	if err != nil {
		return model.Inquiry{}, notFoundOr(err, "Inquiry not found")
	}
	return updated, nil
}
