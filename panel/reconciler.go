package panel

import (
	"log"

	"github.com/tarancss/acctpanel/lib/account"
)

// State of a Reconciler.
type State int

// Reconciler states.
const (
	Idle State = iota
	AwaitingConfirmation
)

func (s State) String() string {
	if s == AwaitingConfirmation {
		return "awaiting"
	}

	return "idle"
}

// Reconciler tracks a selection requested by the user until the store confirms it. The address-changed callback
// fires once per confirmed request and never before confirmation. A newer request supersedes an unconfirmed one.
// A Reconciler is not safe for concurrent use; Panel serializes access to it.
type Reconciler struct {
	net           string
	d             Dispatcher
	onChange      func(address string)
	pending       string // normalized, "" when idle
	authoritative string // last address observed from the store
}

// NewReconciler returns an idle reconciler for network net.
func NewReconciler(net string, d Dispatcher, onChange func(address string)) *Reconciler {
	return &Reconciler{net: net, d: d, onChange: onChange}
}

// State returns Idle or AwaitingConfirmation.
func (r *Reconciler) State() State {
	if r.pending == "" {
		return Idle
	}

	return AwaitingConfirmation
}

// Pending returns the normalized address awaiting confirmation, or "".
func (r *Reconciler) Pending() string {
	return r.pending
}

// Authoritative returns the last address observed from the store.
func (r *Reconciler) Authoritative() string {
	return r.authoritative
}

// RequestSelection arms the reconciler with address and dispatches the select intent once. Dispatch errors are logged
// only: the reconciler stays armed and waits for a confirmation that may never come.
func (r *Reconciler) RequestSelection(address string) error {
	addr := account.Normalize(address)
	if addr == "" {
		return ErrNoAddress
	}

	if err := r.d.ResetClaimFlow(r.net); err != nil {
		log.Printf("[%s] Error dispatching claim flow reset:%v", r.net, err)
	}

	if err := r.d.ClearSignature(r.net); err != nil {
		log.Printf("[%s] Error dispatching signature clear:%v", r.net, err)
	}

	r.pending = addr

	if err := r.d.SelectAccount(addr, r.net); err != nil {
		log.Printf("[%s] Error dispatching account selection %s:%v", r.net, addr, err)
	}

	r.check()

	return nil
}

// Observe records the authoritative address from the store and reports whether it confirmed the pending selection.
func (r *Reconciler) Observe(authoritative string) bool {
	r.authoritative = account.Normalize(authoritative)

	return r.check()
}

func (r *Reconciler) check() bool {
	if r.pending == "" || r.authoritative == "" || r.pending != r.authoritative {
		return false
	}

	addr := r.pending
	r.pending = ""

	if r.onChange != nil {
		r.onChange(addr)
	}

	return true
}
