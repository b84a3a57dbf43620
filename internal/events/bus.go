// Package events fans store changes out to subscribers, including changes
// made by other processes sharing the same medium.
package events

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// ExternalSource delivers keys written by other processes. Watch blocks until
// ctx is done or the source fails.
type ExternalSource interface {
	Watch(ctx context.Context, emit func(key string)) error
}

type subscriber struct {
	fn func()
}

// Bus is a registry of change callbacks. Notify runs them synchronously in
// registration order; a panicking callback is logged and skipped.
type Bus struct {
	mu     sync.Mutex
	subs   []*subscriber
	prefix string
	log    *logrus.Entry
	onFire func()
}

type Option func(*Bus)

// WithNotifyHook runs fn once per fan-out, e.g. to count notifications.
func WithNotifyHook(fn func()) Option {
	return func(b *Bus) { b.onFire = fn }
}

// NewBus creates a bus that treats external changes to keys starting with
// prefix as local mutations.
func NewBus(prefix string, log *logrus.Entry, opts ...Option) *Bus {
	b := &Bus{prefix: prefix, log: log.WithField("component", "bus")}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers fn and returns a function that removes it again.
// Calling the returned function more than once is harmless.
func (b *Bus) Subscribe(fn func()) (unsubscribe func()) {
	s := &subscriber{fn: fn}
	b.mu.Lock()
	b.subs = append(b.subs, s)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, cur := range b.subs {
				if cur == s {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Notify invokes every subscriber.
func (b *Bus) Notify() {
	b.mu.Lock()
	subs := make([]*subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	if b.onFire != nil {
		b.onFire()
	}
	for _, s := range subs {
		b.call(s)
	}
}

func (b *Bus) call(s *subscriber) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithField("panic", r).Error("change subscriber failed")
		}
	}()
	s.fn()
}

// Listen forwards external changes to local subscribers until ctx is done.
// Keys outside the bus prefix are ignored.
func (b *Bus) Listen(ctx context.Context, src ExternalSource) error {
	return src.Watch(ctx, func(key string) {
		if !strings.HasPrefix(key, b.prefix) {
			return
		}
		b.log.WithField("key", key).Debug("external change")
		b.Notify()
	})
}

// Len reports the number of registered subscribers.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
