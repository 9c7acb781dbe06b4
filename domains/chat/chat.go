package chat

import "context"

// Message is an inbound chat message as delivered by the transport.
type Message struct {
	ID       string `json:"message_id"`
	SenderID int64  `json:"sender_id"`
	ChatID   int64  `json:"chat_id"`
	Text     string `json:"text"`
	PushName string `json:"pushname,omitempty"`
}

// Profile is the optional metadata the transport knows about an identity.
type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// ITransport is the chat collaborator contract. Message delivery and
// identity lookups live outside this service.
type ITransport interface {
	SendMessage(ctx context.Context, to int64, text string) error
	GetProfile(ctx context.Context, id int64) (Profile, error)
}
