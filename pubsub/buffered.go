package pubsub

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/casualjim/pitwall/events"
	"github.com/casualjim/pitwall/pkg/slogx"
)

const (
	defaultSlowSubscriberTimeout = 100 * time.Millisecond
	subscriptionBufferSize       = 50
)

type bufferedBroker struct {
	topics                *haxmap.Map[string, *bufferedTopic]
	slowSubscriberTimeout time.Duration
}

// Buffered returns an in-process broker that decouples publishers from
// subscribers: each subscription gets its own buffer and goroutine. A
// subscriber whose buffer stays full for longer than slowSubscriberTimeout is
// unsubscribed. A zero timeout selects the default of 100ms.
func Buffered(slowSubscriberTimeout time.Duration) Broker {
	if slowSubscriberTimeout <= 0 {
		slowSubscriberTimeout = defaultSlowSubscriberTimeout
	}
	return &bufferedBroker{
		topics:                haxmap.New[string, *bufferedTopic](),
		slowSubscriberTimeout: slowSubscriberTimeout,
	}
}

func (b *bufferedBroker) Topic(ctx context.Context, id string) Topic {
	topic, _ := b.topics.GetOrCompute(id, func() *bufferedTopic {
		return &bufferedTopic{
			ID:                    id,
			subscriptions:         haxmap.New[string, *bufferedSubscription](),
			slowSubscriberTimeout: b.slowSubscriberTimeout,
		}
	})
	return topic
}

type bufferedTopic struct {
	ID                    string
	subscriptions         *haxmap.Map[string, *bufferedSubscription]
	slowSubscriberTimeout time.Duration
}

func (t *bufferedTopic) Publish(ctx context.Context, event events.Event) error {
	t.subscriptions.ForEach(func(id string, sub *bufferedSubscription) bool {
		if sub == nil {
			return true
		}

		// Check if subscription is still active
		select {
		case <-ctx.Done():
			return false
		case <-sub.ctx.Done():
			sub.Unsubscribe()
			return true
		default:
		}

		select {
		case <-ctx.Done():
			return false
		case <-sub.ctx.Done():
			sub.Unsubscribe()
		case sub.channel <- event:
		case <-time.After(t.slowSubscriberTimeout):
			slog.Warn("dropping slow subscriber", slog.String("topic", t.ID), slog.String("subscription", id))
			sub.Unsubscribe()
		}
		return true
	})
	return ctx.Err()
}

func (t *bufferedTopic) Subscribe(ctx context.Context, hook events.Hook) (Subscription, error) {
	if hook == nil {
		return nil, ErrHookRequired
	}
	return t.newSubscription(ctx, hook), nil
}

func (t *bufferedTopic) newSubscription(ctx context.Context, hook events.Hook) *bufferedSubscription {
	id := events.NewID().String()
	sub := &bufferedSubscription{
		id:      id,
		ctx:     ctx,
		channel: make(chan events.Event, subscriptionBufferSize),
		done:    make(chan struct{}),
		onClose: func() { t.subscriptions.Del(id) },
		hook:    hook,
		topic:   t.ID,
	}
	t.subscriptions.Set(id, sub)
	go sub.forwardToHook()
	return sub
}

type bufferedSubscription struct {
	id        string
	topic     string
	ctx       context.Context
	channel   chan events.Event
	done      chan struct{}
	closeOnce sync.Once
	onClose   func()
	hook      events.Hook
}

func (s *bufferedSubscription) ID() string {
	return s.id
}

func (s *bufferedSubscription) Unsubscribe() {
	s.closeOnce.Do(func() {
		if s.onClose != nil {
			s.onClose()
		}
		close(s.done)
	})
}

func (s *bufferedSubscription) forwardToHook() {
	for {
		select {
		case event := <-s.channel:
			if err := events.Dispatch(s.ctx, s.hook, event); err != nil {
				slog.Error("failed to dispatch event", slogx.Error(err), slog.String("topic", s.topic))
			}
		case <-s.done:
			return
		case <-s.ctx.Done():
			return
		}
	}
}
