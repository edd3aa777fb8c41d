package service

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"homefinder-client/internal/cache"
	"homefinder-client/internal/logger"
	"homefinder-client/internal/model"
	"homefinder-client/pkg/apierror"
)

var (
	admin = Actor{ID: "1", Role: model.RoleAdmin}
	olga  = Actor{ID: "2", Role: model.RoleUser}
	ben   = Actor{ID: "3", Role: model.RoleUser}
)

func seeded(t *testing.T) Repositories {
	t.Helper()
	repos := NewMemoryRepositories()
	if err := Seed(context.Background(), repos, logger.Discard()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return repos
}

func wantStatus(t *testing.T, err error, status int) {
	t.Helper()
	if got := apierror.StatusOf(err); got != status {
		t.Fatalf("status = %d, want %d (err = %v)", got, status, err)
	}
}

func newCache(t *testing.T) *cache.MemoryCache {
	c := cache.NewMemoryCache(0)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestTokenService_IssueValidateRevoke(t *testing.T) {
	ctx := context.Background()
	tokens := NewTokenService("secret", time.Hour, newCache(t))

	token, csrf, err := tokens.Issue("7", "user")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := tokens.Validate(ctx, token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.UserID != "7" || claims.Role != "user" || claims.CSRF != csrf || csrf == "" {
		t.Errorf("claims = %+v, csrf = %q", claims, csrf)
	}

	if err := tokens.Revoke(ctx, claims); err != nil {
		t.Fatal(err)
	}
	if _, err := tokens.Validate(ctx, token); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("revoked token: err = %v", err)
	}
}

func TestTokenService_RejectsForeignSignature(t *testing.T) {
	other := NewTokenService("other", time.Hour, nil)
	token, _, _ := other.Issue("7", "user")

	tokens := NewTokenService("secret", time.Hour, nil)
	if _, err := tokens.Validate(context.Background(), token); err == nil {
		t.Error("token signed with another secret accepted")
	}
	if _, _, err := tokens.Issue("", "user"); err == nil {
		t.Error("token issued without a user")
	}
}

func newAuth(t *testing.T, repos Repositories) *AuthService {
	c := newCache(t)
	return NewAuthService(repos.Users, NewTokenService("secret", time.Hour, c), c, logger.Discard())
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(t, seeded(t))

	id, err := auth.Register(ctx, model.RegisterInput{Username: "carla", Email: "carla@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err = auth.Register(ctx, model.RegisterInput{Username: "carla", Email: "other@example.com", Password: "secret1"})
	wantStatus(t, err, http.StatusBadRequest)

	for _, login := range []string{"carla", "carla@example.com"} {
		sess, err := auth.Login(ctx, model.Credentials{Email: login, Password: "secret1"})
		if err != nil {
			t.Fatalf("Login(%s): %v", login, err)
		}
		if sess.User.ID != id || sess.User.Role != model.RoleUser || sess.Token == "" || sess.CSRF == "" {
			t.Errorf("session = %+v", sess)
		}
	}

	_, err = auth.Login(ctx, model.Credentials{Email: "carla", Password: "wrong"})
	wantStatus(t, err, http.StatusUnauthorized)
	_, err = auth.Login(ctx, model.Credentials{Email: "nobody", Password: "secret1"})
	wantStatus(t, err, http.StatusUnauthorized)
}

func TestAuth_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(t, seeded(t))

	name := "olga2"
	u, err := auth.UpdateProfile(ctx, olga.ID, model.ProfileUpdate{Username: &name})
	if err != nil {
		t.Fatal(err)
	}
	if u.Username != "olga2" || u.Email != "olga@homefinder.test" {
		t.Errorf("user = %+v", u)
	}

	taken := "ben"
	_, err = auth.UpdateProfile(ctx, olga.ID, model.ProfileUpdate{Username: &taken})
	wantStatus(t, err, http.StatusBadRequest)
}

func TestAuth_PasswordReset(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(t, seeded(t))

	token, err := auth.RequestPasswordReset(ctx, "ben@homefinder.test")
	if err != nil || token == "" {
		t.Fatalf("token = %q, err = %v", token, err)
	}
	if token, err := auth.RequestPasswordReset(ctx, "ghost@example.com"); err != nil || token != "" {
		t.Errorf("unknown address: token = %q, err = %v", token, err)
	}

	if err := auth.ResetPassword(ctx, token, "newpass1"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	wantStatus(t, auth.ResetPassword(ctx, token, "newpass2"), http.StatusBadRequest)

	if _, err := auth.Login(ctx, model.Credentials{Email: "ben", Password: "newpass1"}); err != nil {
		t.Errorf("login with new password: %v", err)
	}
	if _, err := auth.Login(ctx, model.Credentials{Email: "ben", Password: DemoPassword}); err == nil {
		t.Error("old password still accepted")
	}
}

func TestListingSearch(t *testing.T) {
	ctx := context.Background()
	listings := NewListingService(seeded(t), logger.Discard())

	page, err := listings.Search(ctx, url.Values{"location": {"springfield"}})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 2 || page.Pages != 1 || page.CurrentPage != 1 || page.PageSize != DefaultPageSize {
		t.Errorf("page = %+v", page)
	}
	if page.Properties[0].User == nil || page.Properties[0].User.Username != "olga" {
		t.Errorf("owner not embedded: %+v", page.Properties[0].User)
	}

	page, _ = listings.Search(ctx, url.Values{"page_size": {"2"}, "page": {"2"}, "sort": {"-price"}})
	if page.Total != 3 || page.Pages != 2 || len(page.Properties) != 1 || page.Properties[0].Price != 1850 {
		t.Errorf("second page = %+v", page)
	}

	page, _ = listings.Search(ctx, url.Values{"page": {"9"}})
	if len(page.Properties) != 0 || page.Total != 3 {
		t.Errorf("page past the end = %+v", page)
	}
}

func TestListingVariants(t *testing.T) {
	ctx := context.Background()
	listings := NewListingService(seeded(t), logger.Discard())

	featured, _ := listings.Featured(ctx)
	if len(featured) != 1 || !featured[0].IsFeatured {
		t.Errorf("featured = %+v", featured)
	}
	mine, _ := listings.Mine(ctx, olga)
	if len(mine) != 3 {
		t.Errorf("olga owns %d listings", len(mine))
	}
	mine, _ = listings.Mine(ctx, ben)
	if mine == nil || len(mine) != 0 {
		t.Errorf("ben's listings = %#v", mine)
	}

	_, err := listings.Get(ctx, "99")
	wantStatus(t, err, http.StatusNotFound)
}

func validInput() model.ListingInput {
	return model.ListingInput{
		Title: "Garden flat", Description: "Quiet flat with a private garden.",
		Price: 1200, PropertyType: model.PropertyType("apartment"), Status: model.ListingStatus("for-rent"),
		Location: model.Location{City: "Leeds"},
	}
}

func TestListingOwnership(t *testing.T) {
	ctx := context.Background()
	repos := seeded(t)
	listings := NewListingService(repos, logger.Discard())

	created, err := listings.Create(ctx, ben, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.UserID != ben.ID || created.ID == "" {
		t.Errorf("created = %+v", created)
	}

	edit := validInput()
	edit.Price = 1300
	_, err = listings.Update(ctx, olga, created.ID, edit)
	wantStatus(t, err, http.StatusForbidden)

	updated, err := listings.Update(ctx, ben, created.ID, edit)
	if err != nil || updated.Price != 1300 || updated.UserID != ben.ID {
		t.Errorf("updated = %+v, err = %v", updated, err)
	}

	if _, err := listings.AddFavorite(ctx, olga, created.ID); err != nil {
		t.Fatal(err)
	}
	wantStatus(t, listings.Delete(ctx, olga, created.ID), http.StatusForbidden)
	if err := listings.Delete(ctx, admin, created.ID); err != nil {
		t.Fatalf("admin Delete: %v", err)
	}
	if favs, _ := listings.Favorites(ctx, olga); len(favs) != 0 {
		t.Errorf("favorites of a deleted listing remain: %+v", favs)
	}
}

func TestListingToggleFeature(t *testing.T) {
	ctx := context.Background()
	listings := NewListingService(seeded(t), logger.Discard())

	_, err := listings.ToggleFeature(ctx, olga, "2")
	wantStatus(t, err, http.StatusForbidden)

	l, err := listings.ToggleFeature(ctx, admin, "2")
	if err != nil || !l.IsFeatured {
		t.Fatalf("listing = %+v, err = %v", l, err)
	}
	l, _ = listings.ToggleFeature(ctx, admin, "2")
	if l.IsFeatured {
		t.Error("second toggle did not unfeature")
	}
	_, err = listings.ToggleFeature(ctx, admin, "99")
	wantStatus(t, err, http.StatusNotFound)
}

func TestFavorites(t *testing.T) {
	ctx := context.Background()
	listings := NewListingService(seeded(t), logger.Discard())

	if _, err := listings.AddFavorite(ctx, ben, "1"); err != nil {
		t.Fatal(err)
	}
	_, err := listings.AddFavorite(ctx, ben, "1")
	wantStatus(t, err, http.StatusBadRequest)
	_, err = listings.AddFavorite(ctx, ben, "99")
	wantStatus(t, err, http.StatusNotFound)

	if err := listings.RemoveFavorite(ctx, ben, "1"); err != nil {
		t.Fatal(err)
	}
	wantStatus(t, listings.RemoveFavorite(ctx, ben, "1"), http.StatusNotFound)
}

func TestInquiryCreate_OpensChat(t *testing.T) {
	ctx := context.Background()
	repos := seeded(t)
	inquiries := NewInquiryService(repos, logger.Discard())
	chats := NewChatService(repos, logger.Discard())

	q, err := inquiries.Create(ctx, ben, model.InquiryInput{
		PropertyID: "2", Name: "Ben", Email: "ben@homefinder.test", Message: "Pets allowed?",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if q.UserID != ben.ID || q.Status != model.InquiryPending || q.PropertyTitle != "Downtown loft" {
		t.Errorf("inquiry = %+v", q)
	}

	list, _ := chats.List(ctx, olga)
	if len(list) != 2 {
		t.Fatalf("olga has %d chats", len(list))
	}
	top := list[0]
	if top.InquiryID == nil || *top.InquiryID != q.ID || top.LastMessage != "Pets allowed?" || top.IsRead {
		t.Errorf("chat = %+v", top)
	}
	if top.Sender == nil || top.Sender.Username != "ben" || top.Property == nil {
		t.Errorf("chat embeds = %+v", top)
	}

	anon, err := inquiries.Create(ctx, Actor{}, model.InquiryInput{
		PropertyID: "2", Name: "Guest", Email: "guest@example.com", Message: "Hi",
	})
	if err != nil || anon.UserID != "" {
		t.Errorf("anonymous inquiry = %+v, err = %v", anon, err)
	}
	if list, _ := chats.List(ctx, olga); len(list) != 2 {
		t.Errorf("anonymous inquiry opened a chat")
	}

	_, err = inquiries.Create(ctx, Actor{}, model.InquiryInput{PropertyID: "99", Name: "x", Email: "x@example.com", Message: "x"})
	wantStatus(t, err, http.StatusNotFound)
}

func TestInquiryCreate_RegisteredEmailNeedsSession(t *testing.T) {
	ctx := context.Background()
	repos := seeded(t)
	inquiries := NewInquiryService(repos, logger.Discard())
	chats := NewChatService(repos, logger.Discard())

	_, err := inquiries.Create(ctx, Actor{}, model.InquiryInput{
		PropertyID: "2", Name: "Ben", Email: "ben@homefinder.test", Message: "Sent by someone else",
	})
	wantStatus(t, err, http.StatusUnauthorized)
	if list, _ := chats.List(ctx, olga); len(list) != 1 {
		t.Errorf("rejected inquiry opened a chat: %d chats", len(list))
	}

	// The chat belongs to the signed-in sender, whatever email they typed.
	q, err := inquiries.Create(ctx, ben, model.InquiryInput{
		PropertyID: "2", Name: "Ben", Email: "olga@homefinder.test", Message: "Typo in my email",
	})
	if err != nil || q.UserID != ben.ID {
		t.Fatalf("inquiry = %+v, err = %v", q, err)
	}
	list, _ := chats.List(ctx, ben)
	if len(list) != 2 || list[0].SenderID != ben.ID {
		t.Errorf("ben's chats = %+v", list)
	}
}

func TestInquiryVisibility(t *testing.T) {
	ctx := context.Background()
	inquiries := NewInquiryService(seeded(t), logger.Discard())

	for _, tc := range []struct {
		actor Actor
		want  int
	}{{admin, 1}, {olga, 1}, {ben, 1}, {Actor{ID: "99"}, 0}} {
		list, err := inquiries.List(ctx, tc.actor)
		if err != nil || len(list) != tc.want {
			t.Errorf("List(%s) = %d inquiries, err = %v", tc.actor.ID, len(list), err)
		}
	}

	if list, err := inquiries.ForUser(ctx, ben, ben.ID); err != nil || len(list) != 1 {
		t.Errorf("ForUser = %+v, %v", list, err)
	}
	_, err := inquiries.ForUser(ctx, olga, ben.ID)
	wantStatus(t, err, http.StatusForbidden)

	if list, err := inquiries.ForListing(ctx, olga, "1"); err != nil || len(list) != 1 {
		t.Errorf("ForListing = %+v, %v", list, err)
	}
	_, err = inquiries.ForListing(ctx, ben, "1")
	wantStatus(t, err, http.StatusForbidden)
}

func TestInquiryUpdateStatus(t *testing.T) {
	ctx := context.Background()
	inquiries := NewInquiryService(seeded(t), logger.Discard())

	_, err := inquiries.UpdateStatus(ctx, olga, "1", "archived")
	wantStatus(t, err, http.StatusBadRequest)
	_, err = inquiries.UpdateStatus(ctx, ben, "1", model.InquiryClosed)
	wantStatus(t, err, http.StatusForbidden)
	_, err = inquiries.UpdateStatus(ctx, olga, "99", model.InquiryClosed)
	wantStatus(t, err, http.StatusNotFound)

	q, err := inquiries.UpdateStatus(ctx, olga, "1", model.InquiryResponded)
	if err != nil || q.Status != model.InquiryResponded {
		t.Errorf("inquiry = %+v, err = %v", q, err)
	}
}

func TestChatMessaging(t *testing.T) {
	ctx := context.Background()
	chats := NewChatService(seeded(t), logger.Discard())

	msgs, err := chats.Messages(ctx, olga, "1")
	if err != nil || len(msgs) != 1 || msgs[0].SenderID != ben.ID {
		t.Fatalf("messages = %+v, err = %v", msgs, err)
	}
	_, err = chats.Messages(ctx, admin, "1")
	wantStatus(t, err, http.StatusForbidden)
	_, err = chats.Messages(ctx, olga, "99")
	wantStatus(t, err, http.StatusNotFound)

	if err := chats.MarkRead(ctx, olga, "1"); err != nil {
		t.Fatal(err)
	}
	if list, _ := chats.List(ctx, olga); !list[0].IsRead {
		t.Error("chat not marked read")
	}

	_, err = chats.Send(ctx, olga, "1", "  ")
	wantStatus(t, err, http.StatusBadRequest)
	m, err := chats.Send(ctx, olga, "1", "Yes, it is.")
	if err != nil || m.SenderID != olga.ID || m.ID == "" {
		t.Fatalf("message = %+v, err = %v", m, err)
	}

	list, _ := chats.List(ctx, ben)
	if list[0].IsRead || list[0].LastMessage != "Yes, it is." || *list[0].LastMessageSenderID != olga.ID {
		t.Errorf("summary after send = %+v", list[0])
	}
	if msgs, _ := chats.Messages(ctx, ben, "1"); len(msgs) != 2 {
		t.Errorf("messages = %d", len(msgs))
	}
}
