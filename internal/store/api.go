// Package store holds the client-side state containers for the marketplace:
// session, listings, inquiries and chats. Each store owns its state, talks to
// the backend through an API and notifies subscribers after every change.
package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"

	"homefinder-client/internal/apiclient"
	"homefinder-client/internal/storage"
)

// API is the subset of *apiclient.Client the stores use.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) (int, error)
	Post(ctx context.Context, path string, body, out any) (int, error)
	Put(ctx context.Context, path string, body, out any) (int, error)
	Patch(ctx context.Context, path string, body, out any) (int, error)
	Delete(ctx context.Context, path string, out any) (int, error)
	Upload(ctx context.Context, field, filename string, r io.Reader) (string, error)
}

var _ API = (*apiclient.Client)(nil)

// ErrSuperseded is returned by a fetch whose response arrived after a newer
// request for the same state slice was issued; the response was discarded.
var ErrSuperseded = errors.New("store: response superseded by a newer request")

// Stores bundles the four state containers around one client.
type Stores struct {
	Session   *SessionStore
	Listings  *ListingStore
	Inquiries *InquiryStore
	Chats     *ChatStore
}

// New wires the stores to client and registers the session's 401 reaction.
func New(client *apiclient.Client, st storage.Storage, logger *slog.Logger) *Stores {
	session := NewSessionStore(client, st, logger)
	client.OnUnauthorized(session.ExpireSession)

	return &Stores{
		Session:   session,
		Listings:  NewListingStore(client, logger),
		Inquiries: NewInquiryStore(client, logger),
		Chats:     NewChatStore(client, session, logger),
	}
}
