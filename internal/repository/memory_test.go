package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"homefinder-client/internal/model"
)

func TestMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	u := &UserRecord{User: model.User{Username: "ann", Email: "ann@example.com"}, PasswordHash: []byte("hash")}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatal(err)
	}
	if u.ID != "1" || u.Role != model.RoleUser || u.CreatedAt.IsZero() {
		t.Errorf("created = %+v", u)
	}

	dup := &UserRecord{User: model.User{Username: "ANN", Email: "other@example.com"}}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate username: err = %v", err)
	}

	got, err := repo.GetByLogin(ctx, "Ann@Example.com")
	if err != nil || got.ID != "1" || string(got.PasswordHash) != "hash" {
		t.Fatalf("GetByLogin = %+v, %v", got, err)
	}
	got.PasswordHash[0] = 'X'
	again, _ := repo.GetByID(ctx, "1")
	if string(again.PasswordHash) != "hash" {
		t.Error("stored record shares memory with the caller")
	}

	again.FirstName = "Ann"
	if err := repo.Update(ctx, again.User); err != nil {
		t.Fatal(err)
	}
	if u, _ := repo.GetByID(ctx, "1"); u.FirstName != "Ann" || string(u.PasswordHash) != "hash" {
		t.Errorf("after update = %+v", u)
	}
	if _, err := repo.GetByID(ctx, "9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing user: err = %v", err)
	}
}

func TestMemoryListingRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryListingRepository()
	for i := 0; i < 11; i++ {
		if err := repo.Create(ctx, &model.Listing{Title: "l"}); err != nil {
			t.Fatal(err)
		}
	}
	list, _ := repo.List(ctx)
	if len(list) != 11 || list[1].ID != "2" || list[10].ID != "11" {
		t.Errorf("listings not in numeric id order: %v, %v", list[1].ID, list[10].ID)
	}

	l, _ := repo.Get(ctx, "3")
	l.Title = "changed"
	if err := repo.Update(ctx, l); err != nil {
		t.Fatal(err)
	}
	if got, _ := repo.Get(ctx, "3"); got.Title != "changed" {
		t.Errorf("title = %q", got.Title)
	}
	if err := repo.Delete(ctx, "3"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Get(ctx, "3"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted listing: err = %v", err)
	}
	if err := repo.Update(ctx, l); !errors.Is(err, ErrNotFound) {
		t.Errorf("update of deleted listing: err = %v", err)
	}
}

func TestMemoryFavoriteRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryFavoriteRepository()

	if _, err := repo.Add(ctx, "1", "10"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Add(ctx, "1", "10"); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate favorite: err = %v", err)
	}
	_, _ = repo.Add(ctx, "2", "10")
	_, _ = repo.Add(ctx, "1", "11")

	if favs, _ := repo.ListByUser(ctx, "1"); len(favs) != 2 {
		t.Errorf("favorites = %+v", favs)
	}
	if err := repo.Remove(ctx, "1", "11"); err != nil {
		t.Fatal(err)
	}
	if err := repo.Remove(ctx, "1", "11"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second remove: err = %v", err)
	}
	_ = repo.RemoveProperty(ctx, "10")
	if favs, _ := repo.ListByUser(ctx, "2"); len(favs) != 0 {
		t.Errorf("favorites of deleted listing remain: %+v", favs)
	}
}

func TestMemoryChatRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryChatRepository()

	old := &model.Chat{SenderID: "1", ReceiverID: "2", UpdatedAt: model.NewTimestamp(time.Now().Add(-time.Hour))}
	newer := &model.Chat{SenderID: "3", ReceiverID: "1"}
	_ = repo.Create(ctx, old)
	_ = repo.Create(ctx, newer)
	_ = repo.Create(ctx, &model.Chat{SenderID: "4", ReceiverID: "5"})

	chats, _ := repo.ListForUser(ctx, "1")
	if len(chats) != 2 || chats[0].ID != newer.ID {
		t.Fatalf("chats = %+v", chats)
	}

	msg := &model.Message{ChatID: old.ID, SenderID: "2", Message: "hello there"}
	if err := repo.AddMessage(ctx, msg); err != nil {
		t.Fatal(err)
	}
	chats, _ = repo.ListForUser(ctx, "1")
	if chats[0].ID != old.ID || chats[0].LastMessage != "hello there" || chats[0].IsRead {
		t.Errorf("summary not updated: %+v", chats[0])
	}

	if err := repo.MarkRead(ctx, old.ID); err != nil {
		t.Fatal(err)
	}
	if c, _ := repo.Get(ctx, old.ID); !c.IsRead {
		t.Error("chat not marked read")
	}
	if msgs, _ := repo.Messages(ctx, old.ID); len(msgs) != 1 || msgs[0].ID != "1" {
		t.Errorf("messages = %+v", msgs)
	}
	if err := repo.AddMessage(ctx, &model.Message{ChatID: "99"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("message to missing chat: err = %v", err)
	}
}
