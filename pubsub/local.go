package pubsub

import (
	"context"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"

	"github.com/alphadose/haxmap"
	"github.com/casualjim/pitwall/events"
	"github.com/casualjim/pitwall/pkg/slogx"
)

type localBroker struct {
	topics *haxmap.Map[string, *localTopic]
}

// Local returns an in-process broker that delivers synchronously: Publish
// returns after every live subscriber's hook has run, in the order the
// subscribers registered.
func Local() Broker {
	return &localBroker{
		topics: haxmap.New[string, *localTopic](),
	}
}

func (b *localBroker) Topic(ctx context.Context, id string) Topic {
	topic, _ := b.topics.GetOrCompute(id, func() *localTopic {
		return &localTopic{ID: id}
	})
	return topic
}

type localTopic struct {
	ID string

	mu            sync.RWMutex
	subscriptions []*localSubscription
}

func (t *localTopic) Publish(ctx context.Context, event events.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.RLock()
	subs := slices.Clone(t.subscriptions)
	t.mu.RUnlock()

	for _, sub := range subs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if sub.ctx.Err() != nil {
			sub.Unsubscribe()
			continue
		}
		t.deliver(sub, event)
	}
	return nil
}

// deliver runs one hook; a panicking hook must not starve the subscribers after it.
func (t *localTopic) deliver(sub *localSubscription, event events.Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("subscriber panicked",
				slog.String("topic", t.ID),
				slog.String("subscription", sub.id),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	if err := events.Dispatch(sub.ctx, sub.hook, event); err != nil {
		slog.Error("failed to dispatch event", slogx.Error(err), slog.String("topic", t.ID))
	}
}

func (t *localTopic) Subscribe(ctx context.Context, hook events.Hook) (Subscription, error) {
	if hook == nil {
		return nil, ErrHookRequired
	}

	sub := &localSubscription{
		id:   events.NewID().String(),
		ctx:  ctx,
		hook: hook,
	}
	sub.onClose = func() { t.remove(sub.id) }

	t.mu.Lock()
	t.subscriptions = append(t.subscriptions, sub)
	t.mu.Unlock()
	return sub, nil
}

func (t *localTopic) remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subscriptions = slices.DeleteFunc(t.subscriptions, func(s *localSubscription) bool {
		return s.id == id
	})
}

type localSubscription struct {
	id        string
	ctx       context.Context
	hook      events.Hook
	closeOnce sync.Once
	onClose   func()
}

func (s *localSubscription) ID() string {
	return s.id
}

func (s *localSubscription) Unsubscribe() {
	s.closeOnce.Do(func() {
		if s.onClose != nil {
			s.onClose()
		}
	})
}
