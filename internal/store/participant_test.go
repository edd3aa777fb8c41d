package store

import (
	"testing"

	"homefinder-client/internal/model"
)

func TestOtherParticipant(t *testing.T) {
	owner := &model.User{ID: "9", Username: "olga", Email: "olga@example.com"}
	tests := []struct {
		name   string
		chat   model.Chat
		viewer model.ID
		want   Participant
	}{
		{
			name:   "embedded receiver",
			chat:   model.Chat{SenderID: "1", ReceiverID: "2", Receiver: &model.User{ID: "2", Username: "bob"}},
			viewer: "1",
			want:   Participant{ID: "2", Username: "bob"},
		},
		{
			name:   "embedded sender",
			chat:   model.Chat{SenderID: "1", ReceiverID: "2", Sender: &model.User{ID: "1", Username: "ann", ProfileImage: "a.png"}},
			viewer: "2",
			want:   Participant{ID: "1", Username: "ann", ProfileImage: "a.png"},
		},
		{
			name:   "listing owner",
			chat:   model.Chat{SenderID: "1", ReceiverID: "9", Property: &model.Listing{UserID: "9", User: owner}},
			viewer: "1",
			want:   Participant{ID: "9", Username: "olga", Email: "olga@example.com", IsPropertyOwner: true},
		},
		{
			name:   "placeholder name",
			chat:   model.Chat{SenderID: "1", ReceiverID: "1234567890"},
			viewer: "1",
			want:   Participant{ID: "1234567890", Username: "User 12345"},
		},
		{
			name:   "embedded user without username",
			chat:   model.Chat{SenderID: "1", ReceiverID: "42", Receiver: &model.User{ID: "42"}},
			viewer: "1",
			want:   Participant{ID: "42", Username: "User 42"},
		},
		{
			name:   "viewer not in chat",
			chat:   model.Chat{SenderID: "1", ReceiverID: "2"},
			viewer: "3",
			want:   Participant{Username: "Error: User not in chat"},
		},
		{
			name:   "no viewer",
			chat:   model.Chat{SenderID: "1", ReceiverID: "2"},
			want:   Participant{Username: "Error: User not in chat"},
		},
		{
			name:   "other id missing",
			chat:   model.Chat{SenderID: "1"},
			viewer: "1",
			want:   Participant{Username: "Chat Participant"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OtherParticipant(tt.chat, tt.viewer); got != tt.want {
				t.Errorf("OtherParticipant() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
