package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Subscriber registers handlers for a topic.
type Subscriber interface {
	Subscribe(topic Topic, h Handler) (Unsubscribe, error)
}

// Publisher emits events on a topic.
type Publisher interface {
	Publish(ctx context.Context, topic Topic, payload any) error
}

type subscription struct {
	handler Handler
}

// Bus is an in-memory, non-persistent event broker. Publish delivers on
// the caller's goroutine to a snapshot of the handlers, so events from one
// publisher reach every handler in publish order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Topic][]*subscription
	now      func() time.Time
}

// NewBus creates a Bus with no subscriptions.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[Topic][]*subscription),
		now:      time.Now,
	}
}

// Subscribe adds h to topic.
func (b *Bus) Subscribe(topic Topic, h Handler) (Unsubscribe, error) {
	if h == nil {
		return nil, errors.New("handler cannot be nil")
	}

	sub := &subscription{handler: h}
	b.mu.Lock()
	b.handlers[topic] = append(b.handlers[topic], sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(topic, sub) })
	}, nil
}

// Publish wraps payload in an Envelope and hands it to every handler
// subscribed to topic. The handlers are copied before iteration so a
// handler may subscribe or unsubscribe without deadlocking.
func (b *Bus) Publish(ctx context.Context, topic Topic, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	subs := make([]*subscription, len(b.handlers[topic]))
	copy(subs, b.handlers[topic])
	b.mu.RUnlock()

	env := Envelope{
		ID:         uuid.New(),
		Topic:      topic,
		OccurredAt: b.now(),
		Payload:    payload,
	}
	for _, s := range subs {
		s.handler(env)
	}
	return nil
}

// Count returns the number of handlers subscribed to topic.
func (b *Bus) Count(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[topic])
}

func (b *Bus) remove(topic Topic, sub *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[topic]
	for i, s := range subs {
		if s == sub {
			b.handlers[topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.handlers[topic]) == 0 {
		delete(b.handlers, topic)
	}
}
