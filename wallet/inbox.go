package wallet

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tarancss/acctpanel/panel"
)

// InboxSize is the number of notifications kept per network. The oldest are dropped first.
const InboxSize = 32

// Kinds of notification.
const (
	KindLocked  = "locked"  // the keyrings became locked
	KindAddress = "address" // the confirmed current address changed
)

// Notification is a one-shot message to the user.
type Notification struct {
	ID      string    `json:"id"`
	Net     string    `json:"net"`
	Kind    string    `json:"kind"`
	Message string    `json:"message,omitempty"`
	Address string    `json:"address,omitempty"`
	Time    time.Time `json:"time"`
}

// Inbox keeps the undelivered notifications of every network.
type Inbox struct {
	l    sync.Mutex
	size int
	msgs map[string][]Notification
}

// NewInbox returns an Inbox keeping up to size notifications per network. A size below 1 selects InboxSize.
func NewInbox(size int) *Inbox {
	if size < 1 {
		size = InboxSize
	}

	return &Inbox{size: size, msgs: make(map[string][]Notification)}
}

// Add stores a notification, filling its ID and Time.
func (i *Inbox) Add(n Notification) {
	n.ID = uuid.NewString()
	n.Time = time.Now().UTC()

	notifications.WithLabelValues(n.Net, n.Kind).Inc()

	i.l.Lock()
	defer i.l.Unlock()

	q := append(i.msgs[n.Net], n)
	if len(q) > i.size {
		q = q[len(q)-i.size:]
	}

	i.msgs[n.Net] = q
}

// Drain returns and forgets the notifications of net, oldest first.
func (i *Inbox) Drain(net string) []Notification {
	i.l.Lock()
	defer i.l.Unlock()

	q := i.msgs[net]
	delete(i.msgs, net)

	if q == nil {
		q = []Notification{}
	}

	return q
}

// Notifier returns a panel.Notifier raising lock notifications for net.
func (i *Inbox) Notifier(net string) panel.Notifier {
	return notifier{i: i, net: net}
}

// AddressChanged returns a panel address change callback raising address notifications for net.
func (i *Inbox) AddressChanged(net string) func(string) {
	return func(address string) {
		i.Add(Notification{Net: net, Kind: KindAddress, Address: address})
	}
}

type notifier struct {
	i   *Inbox
	net string
}

func (n notifier) Notify(message string) {
	n.i.Add(Notification{Net: n.net, Kind: KindLocked, Message: message})
}
