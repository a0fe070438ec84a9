package refresh

import "sync"

// Topic identifies a record set whose derived views need recomputing after a
// mutation
type Topic string

const (
	TopicAssets      Topic = "assets"
	TopicSites       Topic = "sites"
	TopicWaybills    Topic = "waybills"
	TopicMaintenance Topic = "maintenance"
)

// Notifier is a typed in-process observer registry. Handlers register
// invalidation callbacks per topic; mutating code calls Notify after a
// successful write so cached derived snapshots recompute on next read.
type Notifier struct {
	mu          sync.Mutex
	subscribers map[Topic][]func()
}

// NewNotifier creates an empty notifier
func NewNotifier() *Notifier {
	return &Notifier{
		subscribers: make(map[Topic][]func()),
	}
}

// Subscribe registers a callback for a topic. Callbacks run synchronously in
// Notify and must be cheap (flag flips, not recomputation).
func (n *Notifier) Subscribe(topic Topic, fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subscribers[topic] = append(n.subscribers[topic], fn)
}

// Notify invokes every callback registered for the topic
func (n *Notifier) Notify(topic Topic) {
	n.mu.Lock()
	callbacks := make([]func(), len(n.subscribers[topic]))
	copy(callbacks, n.subscribers[topic])
	n.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}
