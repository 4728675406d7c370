package conversation

import (
	"context"
	"time"

	"github.com/creastat/contractbot/document"
)

// Reply is one outbound message to a session.
type Reply struct {
	Text string

	// Markdown enables link formatting.
	Markdown bool

	// Keyboard, when set, offers one reply button per entry.
	Keyboard []string

	// RemoveKeyboard hides any previously offered buttons.
	RemoveKeyboard bool
}

// Messenger delivers replies to users and contracts to the admin sink.
type Messenger interface {
	Reply(ctx context.Context, sessionID string, reply Reply) error
	SendDocument(ctx context.Context, path, caption string) error
}

// Generator produces a contract document from answers.
type Generator interface {
	Generate(ctx context.Context, answers map[string]string) (*document.Artifact, error)
}

// IssuedContract is what a Registry records after delivery.
type IssuedContract struct {
	Number       int
	ContractID   string
	FileName     string
	IssuedAt     time.Time
	SessionID    string
	CustomerName string
	Email        string
	Telegram     string
}

// Registry keeps an external record of delivered contracts.
type Registry interface {
	RecordContract(ctx context.Context, c IssuedContract) error
}
