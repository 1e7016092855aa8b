// Package messaging abstracts the external chat surface promotion nudges are
// delivered through. The engine only needs three collaborators: a directory
// mapping internal users to chat identities, a credential source per org, and
// a sender that puts a structured message on the wire. All three are
// interfaces so the notifier can be tested without a chat provider.
package messaging

import (
	"context"

	"github.com/google/uuid"
)

// Message is a provider-neutral structured chat message.
type Message struct {
	Recipient string    `json:"recipient"`
	Sections  []Section `json:"sections"`
	Buttons   []Button  `json:"buttons,omitempty"`
}

// Section is one block of message text.
type Section struct {
	Text string `json:"text"`
}

// Button is one interactive response affordance. Payload is the opaque value
// posted back when the button is pressed.
type Button struct {
	Label   string `json:"label"`
	Payload string `json:"payload"`
}

// Directory resolves internal users to chat identities.
type Directory interface {
	// ChatUserID returns the chat identity for a user.
	// Returns ErrNotLinked when the user has no linked chat account.
	ChatUserID(ctx context.Context, userID uuid.UUID) (string, error)
}

// Credentials resolves per-org delivery credentials.
type Credentials interface {
	// WebhookURL returns the delivery endpoint for an org.
	// Returns ErrNoCredential when the org has none configured.
	WebhookURL(ctx context.Context, orgID uuid.UUID) (string, error)
}

// Sender delivers a message using the given credential.
type Sender interface {
	Send(ctx context.Context, webhookURL string, msg Message) error
}
