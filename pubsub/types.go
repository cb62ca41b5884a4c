package pubsub

import (
	"context"
	"errors"

	"github.com/casualjim/pitwall/events"
)

// ErrHookRequired is returned when subscribing without a hook.
var ErrHookRequired = errors.New("hook is required")

type Broker interface {
	Topic(context.Context, string) Topic
}

type Topic interface {
	Publish(context.Context, events.Event) error
	Subscribe(context.Context, events.Hook) (Subscription, error)
}

type Subscription interface {
	ID() string
	Unsubscribe()
}
