// Package events publishes ledger domain events after their transaction
// commits.
package events

import (
	"context"
	"time"

	"github.com/cleared-dev/registru/internal/model"
	"github.com/cleared-dev/registru/internal/money"
)

const (
	TypeEntryPosted        = "entry.posted"
	TypeAccountCreated     = "account.created"
	TypeAccountDeactivated = "account.deactivated"
	TypeAccountReactivated = "account.reactivated"
	TypeAccountMoved       = "account.moved"
	TypeAccountTypeChanged = "account.type_changed"
)

// Event is one ledger change. Key orders events of the same aggregate on
// a partition: the entry number or the account code.
type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...Event) error { return nil }
func (NopPublisher) Close() error                            { return nil }

// EntryPayload is the body of entry.posted.
type EntryPayload struct {
	Number      string       `json:"entry_number"`
	Date        string       `json:"date"`
	Description string       `json:"description"`
	Reverses    string       `json:"reverses,omitempty"`
	Total       money.Amount `json:"total"`
	Lines       int          `json:"lines"`
}

// EntryPosted builds the event for a committed entry.
func EntryPosted(e model.JournalEntry) Event {
	return Event{
		Type:       TypeEntryPosted,
		Key:        e.Number,
		OccurredAt: e.PostedAt,
		Payload: EntryPayload{
			Number:      e.Number,
			Date:        model.FormatDate(e.Date),
			Description: e.Description,
			Reverses:    e.Reverses,
			Total:       e.TotalDebit(),
			Lines:       len(e.Lines),
		},
	}
}

// AccountChanged builds an account event of the given type.
func AccountChanged(eventType string, a model.Account) Event {
	return Event{
		Type:       eventType,
		Key:        a.Code,
		OccurredAt: time.Now().UTC(),
		Payload:    a,
	}
}
