package mockapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"homefinder-client/internal/apiclient"
	"homefinder-client/internal/logger"
	"homefinder-client/internal/model"
	"homefinder-client/internal/service"
	"homefinder-client/internal/storage"
	"homefinder-client/internal/store"
	"homefinder-client/pkg/apierror"
)

const pngHeader = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"

func startServer(t *testing.T, opts Options) (*Server, *httptest.Server) {
	t.Helper()
	opts.Seed = true
	opts.Logger = logger.Discard()
	srv, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Close()
	})
	return srv, ts
}

func newClient(t *testing.T, ts *httptest.Server) (*store.Stores, *apiclient.Client) {
	t.Helper()
	client, err := apiclient.New(apiclient.Options{
		BaseURL: ts.URL + "/api",
		Timeout: 5 * time.Second,
		Logger:  logger.Discard(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return store.New(client, storage.NewMemoryStorage(), logger.Discard()), client
}

func login(t *testing.T, stores *store.Stores, email string) {
	t.Helper()
	if !stores.Session.Login(context.Background(), email, service.DemoPassword) {
		t.Fatalf("login %s: %s", email, stores.Session.Error())
	}
}

func TestAnonymousBrowsing(t *testing.T) {
	_, ts := startServer(t, Options{})
	stores, _ := newClient(t, ts)
	ctx := context.Background()

	if err := stores.Listings.FetchAll(ctx); err != nil {
		t.Fatal(err)
	}
	if n := len(stores.Listings.Listings()); n != 3 {
		t.Errorf("listings = %d", n)
	}
	if err := stores.Listings.FetchFeatured(ctx); err != nil {
		t.Fatal(err)
	}
	if f := stores.Listings.Featured(); len(f) != 1 || f[0].Title != "Sunny family house" {
		t.Errorf("featured = %+v", f)
	}
	if err := stores.Listings.FetchByID(ctx, "2"); err != nil {
		t.Fatal(err)
	}
	if cur := stores.Listings.Current(); cur == nil || cur.User == nil || cur.User.Username != "olga" {
		t.Errorf("current = %+v", cur)
	}

	if err := stores.Listings.FetchFavoriteIDs(ctx); err == nil {
		t.Error("favourites served without a session")
	}
}

func TestLoginFailure(t *testing.T) {
	_, ts := startServer(t, Options{})
	stores, _ := newClient(t, ts)

	if stores.Session.Login(context.Background(), "ben@homefinder.test", "wrong") {
		t.Fatal("login with a wrong password succeeded")
	}
	if stores.Session.Error() != "Invalid email or password" {
		t.Errorf("error = %q", stores.Session.Error())
	}
}

func TestFavoritesAndModeration(t *testing.T) {
	_, ts := startServer(t, Options{})
	stores, client := newClient(t, ts)
	ctx := context.Background()
	login(t, stores, "ben@homefinder.test")

	if client.CSRFToken() == "" {
		t.Fatal("no CSRF cookie after login")
	}
	if !stores.Listings.ToggleFavorite(ctx, "2") {
		t.Fatalf("add favourite: %s", stores.Listings.Error())
	}
	if err := stores.Listings.FetchFavoriteIDs(ctx); err != nil {
		t.Fatal(err)
	}
	if !stores.Listings.IsFavorite("2") {
		t.Errorf("favourites = %v", stores.Listings.Favorites())
	}
	if !stores.Listings.ToggleFavorite(ctx, "2") || stores.Listings.IsFavorite("2") {
		t.Error("remove favourite failed")
	}

	// Ben is not an admin: the flip is rolled back.
	_ = stores.Listings.FetchAll(ctx)
	if stores.Listings.ToggleFeature(ctx, "2") {
		t.Error("non-admin featured a listing")
	}
	for _, l := range stores.Listings.Listings() {
		if l.ID == "2" && l.IsFeatured {
			t.Error("rollback did not restore the flag")
		}
	}

	admin, _ := newClient(t, ts)
	login(t, admin, "admin@homefinder.test")
	_ = admin.Listings.FetchAll(ctx)
	if !admin.Listings.ToggleFeature(ctx, "2") {
		t.Fatal("admin could not feature a listing")
	}
	_ = admin.Listings.FetchFeatured(ctx)
	if len(admin.Listings.Featured()) != 2 {
		t.Errorf("featured = %+v", admin.Listings.Featured())
	}
}

func TestOwnerListingLifecycle(t *testing.T) {
	_, ts := startServer(t, Options{})
	stores, _ := newClient(t, ts)
	ctx := context.Background()
	login(t, stores, "olga@homefinder.test")

	url, err := stores.Listings.UploadImage(ctx, "front.png", bytes.NewReader([]byte(pngHeader)))
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Errorf("GET %s: %d %s", url, resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	in := model.ListingInput{
		Title: "Garden flat", Description: "Quiet flat with a private garden.",
		Price: 1200, PropertyType: "apartment", Status: "for-rent",
		Location: model.Location{City: "Leeds"}, Images: []string{url},
	}
	created, err := stores.Listings.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	in.Price = 1250
	updated, err := stores.Listings.Update(ctx, created.ID, in)
	if err != nil || updated.Price != 1250 {
		t.Fatalf("Update: %+v, %v", updated, err)
	}
	if err := stores.Listings.FetchMine(ctx); err != nil {
		t.Fatal(err)
	}
	if n := len(stores.Listings.Mine()); n != 4 {
		t.Errorf("own listings = %d", n)
	}
	if err := stores.Listings.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestInquiryOpensChat(t *testing.T) {
	srv, ts := startServer(t, Options{})
	ctx := context.Background()

	buyer, _ := newClient(t, ts)
	login(t, buyer, "ben@homefinder.test")
	if _, err := buyer.Inquiries.Create(ctx, model.InquiryInput{
		PropertyID: "2", Name: "Ben Buyer", Email: "ben@homefinder.test", Message: "Are pets allowed?",
	}); err != nil {
		t.Fatalf("Create inquiry: %v", err)
	}
	if err := buyer.Chats.FetchUserChats(ctx); err != nil {
		t.Fatal(err)
	}
	chats := buyer.Chats.Chats()
	if len(chats) != 2 || chats[0].LastMessage != "Are pets allowed?" {
		t.Fatalf("chats = %+v", chats)
	}
	if _, err := buyer.Chats.SendMessage(ctx, chats[0].ID, "Also, is parking included?"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	owner, _ := newClient(t, ts)
	login(t, owner, "olga@homefinder.test")
	_ = owner.Chats.FetchUserChats(ctx)
	id := chats[0].ID
	if err := owner.Chats.SetActiveChat(ctx, &id); err != nil {
		t.Fatalf("SetActiveChat: %v", err)
	}
	owner.Chats.Wait()
	if msgs := owner.Chats.Messages(); len(msgs) != 2 {
		t.Errorf("messages = %+v", msgs)
	}
	stored, _ := srv.Repositories().Chats.Get(ctx, id)
	if !stored.IsRead {
		t.Error("opening the chat did not mark it read on the server")
	}

	if err := owner.Inquiries.FetchAll(ctx); err != nil {
		t.Fatal(err)
	}
	if n := len(owner.Inquiries.Inquiries()); n != 2 {
		t.Fatalf("owner sees %d inquiries", n)
	}
	if err := owner.Inquiries.UpdateStatus(ctx, "2", model.InquiryResponded); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
}

func TestAnonymousInquiryWithRegisteredEmail(t *testing.T) {
	srv, ts := startServer(t, Options{})
	stores, _ := newClient(t, ts)
	ctx := context.Background()

	_, err := stores.Inquiries.Create(ctx, model.InquiryInput{
		PropertyID: "2", Name: "Ben Buyer", Email: "ben@homefinder.test", Message: "Sent by someone else",
	})
	if apierror.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("err = %v", err)
	}
	chats, _ := srv.Repositories().Chats.ListForUser(ctx, "3")
	if len(chats) != 1 {
		t.Errorf("ben has %d chats, want only the seeded one", len(chats))
	}

	guest, err := stores.Inquiries.Create(ctx, model.InquiryInput{
		PropertyID: "2", Name: "Guest", Email: "guest@example.com", Message: "Is it furnished?",
	})
	if err != nil || guest.UserID != "" {
		t.Errorf("guest inquiry = %+v, err = %v", guest, err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	_, ts := startServer(t, Options{})
	stores, client := newClient(t, ts)
	ctx := context.Background()
	login(t, stores, "ben@homefinder.test")

	saved := client.Cookies()
	if err := stores.Session.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(client.Cookies()) != 0 {
		t.Errorf("cookies left after logout: %v", client.Cookies())
	}

	// Replaying the old cookie is rejected and expires the session.
	client.SetCookies(saved)
	if err := stores.Listings.FetchFavoriteIDs(ctx); err == nil {
		t.Fatal("revoked session accepted")
	}
	if stores.Session.Error() != "Session expired. Please login again." {
		t.Errorf("session error = %q", stores.Session.Error())
	}
}

func TestExpiredSession(t *testing.T) {
	_, ts := startServer(t, Options{TokenTTL: time.Second})
	stores, _ := newClient(t, ts)
	ctx := context.Background()
	login(t, stores, "ben@homefinder.test")

	time.Sleep(2100 * time.Millisecond)
	if err := stores.Chats.FetchUserChats(ctx); err == nil {
		t.Fatal("expired token accepted")
	}
	if stores.Session.IsAuthenticated() {
		t.Error("session still authenticated after a 401")
	}
}

func TestCSRFRequired(t *testing.T) {
	_, ts := startServer(t, Options{})
	stores, client := newClient(t, ts)
	login(t, stores, "ben@homefinder.test")

	var token string
	for _, c := range client.Cookies() {
		if c.Name == "access_token_cookie" {
			token = c.Value
		}
	}
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/favourites", bytes.NewBufferString(`{"property_id":"1"}`))
	req.AddCookie(&http.Cookie{Name: "access_token_cookie", Value: token})
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status without CSRF header = %d", resp.StatusCode)
	}
}
