// Package events delivers storage change notifications to subscribers by
// key pattern.
//
// Patterns use path.Match syntax, so "cart:*" matches every cart key and
// "session:current" matches only itself.
package events

import (
	"context"
	"path"
	"sync"

	"github.com/dmitrijs2005/cartwidget/internal/widget/models"
)

// Handler reacts to one change. Handlers run on the publishing goroutine.
type Handler func(ctx context.Context, c models.Change)

type subscription struct {
	id      uint64
	pattern string
	handler Handler
}

// Bus is a synchronous publish/subscribe hub. The zero value is ready to use.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers h for keys matching pattern and returns a function
// that removes the subscription. A malformed pattern never matches.
func (b *Bus) Subscribe(pattern string, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, pattern: pattern, handler: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish calls every handler whose pattern matches c.Key, in subscription
// order, and returns how many ran.
func (b *Bus) Publish(ctx context.Context, c models.Change) int {
	b.mu.RLock()
	matched := make([]Handler, 0, len(b.subs))
	for _, s := range b.subs {
		if ok, err := path.Match(s.pattern, c.Key); err == nil && ok {
			matched = append(matched, s.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range matched {
		h(ctx, c)
	}
	return len(matched)
}
