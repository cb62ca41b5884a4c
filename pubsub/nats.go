package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alphadose/haxmap"
	"github.com/casualjim/pitwall/events"
	"github.com/casualjim/pitwall/pkg/slogx"
	"github.com/nats-io/nats.go"
)

type natsBroker struct {
	client *nats.Conn
	topics *haxmap.Map[string, *natsTopic]
}

// NATS returns a broker that maps every topic to the NATS subject of the same
// name. Events cross the wire in the events package JSON form, so agents in
// separate processes can share a bus.
func NATS(client *nats.Conn) Broker {
	return &natsBroker{
		client: client,
		topics: haxmap.New[string, *natsTopic](),
	}
}

func (b *natsBroker) Topic(ctx context.Context, id string) Topic {
	top, _ := b.topics.GetOrCompute(id, func() *natsTopic {
		return &natsTopic{
			subject: id,
			client:  b.client,
		}
	})
	return top
}

type natsTopic struct {
	client  *nats.Conn
	subject string
}

func (t *natsTopic) Publish(ctx context.Context, event events.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	eb, err := events.ToJSON(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return t.client.Publish(t.subject, eb)
}

func (t *natsTopic) Subscribe(ctx context.Context, hook events.Hook) (Subscription, error) {
	if hook == nil {
		return nil, ErrHookRequired
	}

	// NATS runs the handler on a goroutine dedicated to this subscription,
	// so hooks see events one at a time and in publish order.
	nsub, err := t.client.Subscribe(t.subject, func(msg *nats.Msg) {
		if ctx.Err() != nil {
			return
		}
		event, err := events.FromJSON(msg.Data)
		if err != nil {
			slog.Error("failed to unmarshal event", slogx.Error(err), slog.String("subject", t.subject))
			return
		}
		if err := events.Dispatch(ctx, hook, event); err != nil {
			slog.Error("failed to dispatch event", slogx.Error(err), slog.String("subject", t.subject))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", t.subject, err)
	}

	sub := &natsSubscription{
		id:  events.NewID().String(),
		sub: nsub,
	}
	context.AfterFunc(ctx, sub.Unsubscribe)
	return sub, nil
}

type natsSubscription struct {
	id   string
	sub  *nats.Subscription
	once sync.Once
}

func (n *natsSubscription) ID() string {
	return n.id
}

func (n *natsSubscription) Unsubscribe() {
	n.once.Do(func() {
		if !n.sub.IsValid() {
			return
		}
		if err := n.sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe", slogx.Error(err), slog.String("subscription", n.id))
		}
	})
}
