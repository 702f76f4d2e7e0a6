// Package notify delivers document change notifications to subscribers.
//
// Delivery is synchronous: Notify returns only after every matching
// observer has run, so a host sees a content change before control goes
// back to the code that caused it.
package notify

import (
	"sync"

	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/state"
)

// Kind is the type of a notification.
type Kind int

const (
	// KindContentChanged is sent after every transaction that changed the
	// document.
	KindContentChanged Kind = iota

	// KindSelectionChanged is sent after a transaction that only moved the
	// selection.
	KindSelectionChanged

	// KindContentReset is sent when the document is replaced wholesale.
	KindContentReset

	// KindChangesResolved is sent when tracked changes are accepted.
	// Rejections arrive as KindContentChanged with state.OriginReject.
	KindChangesResolved
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindContentChanged:
		return "content"
	case KindSelectionChanged:
		return "selection"
	case KindContentReset:
		return "reset"
	case KindChangesResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Event describes one notification.
type Event struct {
	Kind Kind

	// Version is the document version after the change.
	Version uint64

	// Origin tells where the transaction came from.
	Origin state.Origin

	// Doc is the document after the change.
	Doc *model.Node

	// Selection is the selection after the change.
	Selection state.Selection

	// Steps is the number of steps applied.
	Steps int

	// ChangeIDs lists the tracked changes recorded, accepted, or rejected.
	ChangeIDs []string
}

// Observer is called for every delivered event.
type Observer func(Event)

type entry struct {
	id    uint64
	kinds []Kind
	fn    Observer
}

func (e entry) wants(k Kind) bool {
	if len(e.kinds) == 0 {
		return true
	}
	for _, want := range e.kinds {
		if want == k {
			return true
		}
	}
	return false
}

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes this subscription. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.unsubscribe(s.id)
		s.notifier = nil
	}
}

// Notifier manages subscriptions. Observers run in subscription order.
type Notifier struct {
	mu      sync.RWMutex
	entries []entry
	nextID  uint64
	closed  bool
}

// New creates a new Notifier.
func New() *Notifier {
	return &Notifier{}
}

// Subscribe registers an observer for the given kinds, or for every kind
// when none are given.
func (n *Notifier) Subscribe(observer Observer, kinds ...Kind) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.entries = append(n.entries, entry{id: id, kinds: kinds, fn: observer})

	return &Subscription{id: id, notifier: n}
}

// Len returns the number of active subscriptions.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.entries)
}

// Notify delivers ev to every matching observer before returning.
// Observers may subscribe or unsubscribe while being notified; the change
// applies from the next event.
func (n *Notifier) Notify(ev Event) {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}
	var observers []Observer
	for _, e := range n.entries {
		if e.wants(ev.Kind) {
			observers = append(observers, e.fn)
		}
	}
	n.mu.RUnlock()

	for _, obs := range observers {
		obs(ev)
	}
}

// Close drops every subscription; later events are discarded. It is safe
// to call Close multiple times.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	n.entries = nil
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, e := range n.entries {
		if e.id == id {
			n.entries = append(n.entries[:i], n.entries[i+1:]...)
			return
		}
	}
}
