package camera

import "github.com/Faultbox/midgard-mirror/internal/engine/render"

// BeginFunc is called when the host is about to render a camera.
type BeginFunc func(ctx render.Context, cam *Camera)

type subscription struct {
	id int
	fn BeginFunc
}

// Notifier dispatches begin-camera notifications to subscribers in
// subscription order. Subscribing or unsubscribing from inside a callback
// takes effect on the next dispatch.
type Notifier struct {
	subs    []subscription
	scratch []subscription
	nextID  int
}

// Subscribe registers fn and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (n *Notifier) Subscribe(fn BeginFunc) (unsubscribe func()) {
	n.nextID++
	id := n.nextID
	n.subs = append(n.subs, subscription{id: id, fn: fn})

	return func() {
		for i, s := range n.subs {
			if s.id == id {
				n.subs = append(n.subs[:i], n.subs[i+1:]...)
				return
			}
		}
	}
}

// BeginCamera notifies every subscriber that cam is about to render.
func (n *Notifier) BeginCamera(ctx render.Context, cam *Camera) {
	n.scratch = append(n.scratch[:0], n.subs...)
	for _, s := range n.scratch {
		s.fn(ctx, cam)
	}
}

// Len returns the number of active subscriptions.
func (n *Notifier) Len() int {
	return len(n.subs)
}
