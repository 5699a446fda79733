package dispatcher

import (
	"context"

	"github.com/vlaamswoordenboek/woordenboek/internal/domain/event"
)

// Handler processes article events
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo contains handler metadata for debugging
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}

// AllTypes subscribes a handler to every event type
const AllTypes event.Type = "*"
