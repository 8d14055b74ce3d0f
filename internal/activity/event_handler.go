package activity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campushub/campus-forum/internal/core/events"
)

// EventHandler turns domain events into activity records. It runs off the
// event bus so a slow or failing audit write never sits on the request path.
type EventHandler struct {
	store  *Store
	logger *slog.Logger
}

func NewEventHandler(store *Store, logger *slog.Logger) *EventHandler {
	return &EventHandler{store: store, logger: logger}
}

func (h *EventHandler) HandlePostCreated(ctx context.Context, e events.Event) error {
	pc, ok := e.(*events.PostCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", e.EventType())
	}
	h.store.Record(ctx, pc.AuthorID, "post.created", "post",
		"submitted post "+pc.Title,
		map[string]any{"post_id": pc.PostID, "channel_id": pc.ChannelID})
	return nil
}

func (h *EventHandler) HandleModeratorDecision(ctx context.Context, e events.Event) error {
	md, ok := e.(*events.ModeratorDecisionEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", e.EventType())
	}
	// the decider's own record is written synchronously by the channel
	// service; this one lands in the applicant's history
	h.store.Record(ctx, md.ApplicantID, e.EventType(), "channel",
		"moderator application "+e.EventType(),
		map[string]any{"channel_id": md.ChannelID, "decided_by": md.DeciderID})
	return nil
}

// Subscribe registers the handler on the bus.
func (h *EventHandler) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventTypePostCreated, h.HandlePostCreated)
	bus.Subscribe(events.EventTypeModeratorApproved, h.HandleModeratorDecision)
	bus.Subscribe(events.EventTypeModeratorRejected, h.HandleModeratorDecision)
}
