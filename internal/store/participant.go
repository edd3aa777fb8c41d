package store

import "homefinder-client/internal/model"

// Participant is the person on the other side of a conversation.
type Participant struct {
	ID              model.ID
	Username        string
	Email           string
	ProfileImage    string
	IsPropertyOwner bool
}

const (
	participantNotInChat = "Error: User not in chat"
	participantFallback  = "Chat Participant"
)

func placeholderName(id model.ID) string {
	s := id.String()
	if len(s) > 5 {
		s = s[:5]
	}
	return "User " + s
}

func participantFrom(u *model.User) Participant {
	return Participant{ID: u.ID, Username: u.Username, Email: u.Email, ProfileImage: u.ProfileImage}
}

// OtherParticipant works out who viewer is talking to in chat, using the
// embedded user records when present and a placeholder name otherwise.
func OtherParticipant(chat model.Chat, viewer model.ID) Participant {
	var other model.ID
	switch {
	case viewer != "" && chat.SenderID == viewer:
		other = chat.ReceiverID
	case viewer != "" && chat.ReceiverID == viewer:
		other = chat.SenderID
	default:
		return Participant{Username: participantNotInChat}
	}

	var p Participant
	switch {
	case chat.Sender != nil && chat.Sender.ID == other:
		p = participantFrom(chat.Sender)
	case chat.Receiver != nil && chat.Receiver.ID == other:
		p = participantFrom(chat.Receiver)
	case chat.Property != nil && chat.Property.User != nil && chat.Property.UserID == other:
		p = participantFrom(chat.Property.User)
		p.IsPropertyOwner = true
	case other != "":
		p = Participant{ID: other, Username: placeholderName(other)}
	}

	if p.Username == "" {
		if p.ID != "" {
			p.Username = placeholderName(p.ID)
		} else {
			p.Username = participantFallback
		}
	}
	return p
}
