package services

import (
	"context"

	"github.com/google/uuid"
)

const (
	EventCartUpdated      = "cart.updated"
	EventFavoritesUpdated = "favorites.updated"
	EventAccountActivated = "account.activated"
)

// EventPublisher pushes a realtime event to every connection of a user,
// on this instance and on its peers.
type EventPublisher interface {
	PublishToUser(ctx context.Context, userID uuid.UUID, event string, payload interface{})
}

type nopPublisher struct{}

func (nopPublisher) PublishToUser(context.Context, uuid.UUID, string, interface{}) {}

// NopPublisher drops every event.
var NopPublisher EventPublisher = nopPublisher{}

// Followup is a side effect (an email, a realtime event) held back until the
// surrounding transaction has committed.
type Followup func(ctx context.Context)

func runFollowup(ctx context.Context, f Followup) {
	if f != nil {
		f(ctx)
	}
}
