package buildfile

import "sync"

// ChangeHandler observes one mutation of a named file.
type ChangeHandler func(f *File)

// changeBus is a keyed synchronous pub/sub for file mutations. Subscriptions
// carry a subscriber key; re-subscribing under the same key replaces the
// previous handler, so installation is idempotent per subscriber while
// distinct subscribers observe independently. Delivery is one-shot:
// publishing drains the file's handlers before invoking them, so a handler
// that wants further notifications re-subscribes. A handler that mutates the
// file it observes therefore cannot loop.
type changeBus struct {
	mu       sync.Mutex
	handlers map[string]map[string]ChangeHandler
}

func newChangeBus() *changeBus {
	return &changeBus{handlers: map[string]map[string]ChangeHandler{}}
}

func (b *changeBus) subscribe(name, key string, h ChangeHandler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	subs := b.handlers[name]
	if subs == nil {
		subs = map[string]ChangeHandler{}
		b.handlers[name] = subs
	}
	subs[key] = h
	b.mu.Unlock()
}

func (b *changeBus) publish(f *File) {
	b.mu.Lock()
	subs := b.handlers[f.Name]
	delete(b.handlers, f.Name)
	b.mu.Unlock()

	for _, h := range subs {
		h(f)
	}
}

func (b *changeBus) drop(name string) {
	b.mu.Lock()
	delete(b.handlers, name)
	b.mu.Unlock()
}
