// Package local implements an in-process message broker. It follows the amqp broker semantics: intents are queued per
// network for a single consumer and every snapshot consumer gets its own copy. It serves tests and deployments that
// run the wallet and background services in the same process.
package local

import (
	"errors"
	"sync"

	"github.com/tarancss/acctpanel/lib/msg"
	"github.com/tarancss/acctpanel/lib/msg/types"
)

// QueueSize is the number of messages buffered per queue.
const QueueSize = 64

// Errors returned.
var (
	ErrClosed = errors.New("broker is closed")
	ErrFull   = errors.New("queue is full")
)

// Local implements msg.MsgBroker over channels.
type Local struct {
	l       sync.Mutex
	closed  bool
	intents map[string]chan types.Intent
	snaps   map[string][]chan types.Snapshot
}

// New returns a new local broker.
func New() msg.MsgBroker {
	return &Local{
		intents: make(map[string]chan types.Intent),
		snaps:   make(map[string][]chan types.Snapshot),
	}
}

// Setup does nothing, the queues are created on demand.
func (r *Local) Setup(interface{}) error {
	return nil
}

// Close closes every queue, which ends the consumer channels.
func (r *Local) Close() error {
	r.l.Lock()
	defer r.l.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true

	for _, q := range r.intents {
		close(q)
	}

	for _, qs := range r.snaps {
		for _, q := range qs {
			close(q)
		}
	}

	return nil
}

// intentQueue returns the intent queue of net, creating it if needed. r.l must be held.
func (r *Local) intentQueue(net string) chan types.Intent {
	q, ok := r.intents[net]
	if !ok {
		q = make(chan types.Intent, QueueSize)
		r.intents[net] = q
	}

	return q
}

// SendIntent queues an intent for the background service of the network.
func (r *Local) SendIntent(net string, in types.Intent) error {
	r.l.Lock()
	defer r.l.Unlock()

	if r.closed {
		return ErrClosed
	}

	select {
	case r.intentQueue(net) <- in:
		return nil
	default:
		return ErrFull
	}
}

// SendSnapshot copies a snapshot to every snapshot consumer of the network. Consumers with a full queue lose it.
func (r *Local) SendSnapshot(net string, s types.Snapshot) error {
	r.l.Lock()
	defer r.l.Unlock()

	if r.closed {
		return ErrClosed
	}

	var err error

	for _, q := range r.snaps[net] {
		select {
		case q <- s:
		default:
			err = ErrFull
		}
	}

	return err
}

// GetIntents returns the intents of the network. The next intent is only delivered once mut is unlocked.
func (r *Local) GetIntents(net string, mut *sync.Mutex) (<-chan types.Intent, <-chan error, error) {
	r.l.Lock()
	defer r.l.Unlock()

	if r.closed {
		return nil, nil, ErrClosed
	}

	return forward(r.intentQueue(net), mut)
}

// GetSnapshots returns the snapshots of the network published from now on. The next snapshot is only delivered once
// mut is unlocked.
func (r *Local) GetSnapshots(net string, mut *sync.Mutex) (<-chan types.Snapshot, <-chan error, error) {
	r.l.Lock()
	defer r.l.Unlock()

	if r.closed {
		return nil, nil, ErrClosed
	}

	q := make(chan types.Snapshot, QueueSize)
	r.snaps[net] = append(r.snaps[net], q)

	return forward(q, mut)
}

// forward pushes the messages of q to the returned channel, waiting on mut after each one. The error channel is
// never written and is closed together with the message channel.
func forward[T any](q chan T, mut *sync.Mutex) (<-chan T, <-chan error, error) {
	out := make(chan T)
	errs := make(chan error)

	go func() {
		defer close(out)
		defer close(errs)

		for m := range q {
			out <- m
			mut.Lock() // wait for the consumer to finish with the message
		}
	}()

	return out, errs, nil
}
