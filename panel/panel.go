// Package panel implements the account switcher core: grouping account records for display, reconciling user
// selections with the authoritative store, and gating keyring lock notifications.
//
// A Panel owns the selection and lock state of one network. Its state is only touched by the goroutine running Run,
// every other call is queued to that goroutine and waits for it, so no locking is needed around the state machines.
package panel

import (
	"context"
	"errors"
	"log"
	"strings"
)

// Errors returned.
var (
	ErrNoAddress = errors.New("an account address is required")
	ErrNoGroup   = errors.New("an account group is required")
	ErrLocked    = errors.New("keyrings are locked")
	ErrStopped   = errors.New("panel is not running")
)

// DefaultLockedMessage is notified when the keyrings become locked.
const DefaultLockedMessage = "Signing is locked"

// Dispatcher sends intents to the store. Calls do not wait for the store to apply them.
type Dispatcher interface {
	SelectAccount(address, net string) error
	ClearSignature(net string) error
	ResetClaimFlow(net string) error
	LockKeyrings(net string) error
	DeriveAddress(group, net string) error
}

// Notifier shows a one-shot message to the user.
type Notifier interface {
	Notify(message string)
}

// Snapshot is the part of the store state the panel observes.
type Snapshot struct {
	Address string
	Locked  bool
}

// View is a read-only copy of the panel state.
type View struct {
	Net           string `json:"net"`
	Authoritative string `json:"address"`
	Pending       string `json:"pending,omitempty"`
	State         string `json:"state"`
	Locked        bool   `json:"locked"`
}

// Panel serializes the selection reconciler and the lock gate of one network.
type Panel struct {
	net      string
	d        Dispatcher
	n        Notifier
	onChange func(string)
	msg      string
	rec      *Reconciler
	gate     LockGate
	work     chan func()
	done     chan struct{}
}

// New returns a Panel for network net. onChange is called, on the panel goroutine, with every confirmed address
// change. An empty lockedMsg selects DefaultLockedMessage.
func New(net string, d Dispatcher, n Notifier, onChange func(address string), lockedMsg string) *Panel {
	if strings.TrimSpace(lockedMsg) == "" {
		lockedMsg = DefaultLockedMessage
	}

	p := &Panel{
		net:      net,
		d:        d,
		n:        n,
		onChange: onChange,
		msg:      lockedMsg,
		work:     make(chan func()),
		done:     make(chan struct{}),
	}
	p.rec = NewReconciler(net, d, p.addressChanged)

	return p
}

// Net returns the network of the panel.
func (p *Panel) Net() string {
	return p.net
}

// Run processes queued calls until ctx is done. It must be called once.
func (p *Panel) Run(ctx context.Context) error {
	defer close(p.done)

	log.Printf("[%s] Panel running", p.net)

	for {
		select {
		case fn := <-p.work:
			fn()
		case <-ctx.Done():
			log.Printf("[%s] Panel stopped", p.net)

			return ctx.Err()
		}
	}
}

// do runs fn on the panel goroutine and waits for it to finish.
func (p *Panel) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})

	select {
	case p.work <- func() { fn(); close(finished) }:
	case <-p.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	<-finished

	return nil
}

// RequestSelection asks the store to select address. The onChange callback fires once the store confirms it.
func (p *Panel) RequestSelection(ctx context.Context, address string) (err error) {
	if errDo := p.do(ctx, func() { err = p.rec.RequestSelection(address) }); errDo != nil {
		return errDo
	}

	return err
}

// Observe feeds a store snapshot to the lock gate and then to the reconciler.
func (p *Panel) Observe(ctx context.Context, s Snapshot) error {
	return p.do(ctx, func() {
		if p.gate.Observe(s.Locked) && p.n != nil {
			p.n.Notify(p.msg)
		}

		p.rec.Observe(s.Address)
	})
}

// ToggleKeyring locks the keyrings when they are unlocked and reports an address change to "". Unlocking requires
// credentials and is not done here: ErrLocked is returned instead.
func (p *Panel) ToggleKeyring(ctx context.Context) (err error) {
	if errDo := p.do(ctx, func() {
		if p.gate.Locked() {
			err = ErrLocked

			return
		}

		if err = p.d.LockKeyrings(p.net); err != nil {
			return
		}

		p.addressChanged("")
	}); errDo != nil {
		return errDo
	}

	return err
}

// DeriveAddress asks the store to add a new address to group. Keyrings must be unlocked.
func (p *Panel) DeriveAddress(ctx context.Context, group string) (err error) {
	if strings.TrimSpace(group) == "" {
		return ErrNoGroup
	}

	if errDo := p.do(ctx, func() {
		if p.gate.Locked() {
			err = ErrLocked

			return
		}

		err = p.d.DeriveAddress(group, p.net)
	}); errDo != nil {
		return errDo
	}

	return err
}

// View returns a copy of the current state.
func (p *Panel) View(ctx context.Context) (v View, err error) {
	err = p.do(ctx, func() {
		v = View{
			Net:           p.net,
			Authoritative: p.rec.Authoritative(),
			Pending:       p.rec.Pending(),
			State:         p.rec.State().String(),
			Locked:        p.gate.Locked(),
		}
	})

	return v, err
}

func (p *Panel) addressChanged(address string) {
	log.Printf("[%s] Current address changed to %q", p.net, address)

	if p.onChange != nil {
		p.onChange(address)
	}
}
