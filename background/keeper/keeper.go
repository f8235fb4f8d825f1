// Package keeper holds the authoritative account state of one network for the background service.
package keeper

import (
	"errors"
	"log"
	"sync"

	"github.com/tarancss/acctpanel/lib/account"
	"github.com/tarancss/acctpanel/lib/msg/types"
	"github.com/tarancss/acctpanel/lib/store"
)

// Status possible values, control whether a Keeper is working or is/has to stop
const (
	WORK int = 0
	STOP int = 1
)

// ErrUnknownAccount is returned when selecting an account that is not kept.
var ErrUnknownAccount = errors.New("account is not known")

// Keeper contains the selection, lock state and accounts of a network.
type Keeper struct {
	l        sync.Mutex // l guards every field below
	status   int
	net      string
	sel      store.Selection
	accounts []account.Record // insertion order, addresses normalized
}

// New loads the selection and accounts of net from db and returns a Keeper.
func New(net string, db store.DB) (*Keeper, error) {
	k := &Keeper{net: net, status: WORK}

	s, err := db.LoadSelection(net)
	if err != nil && !errors.Is(err, store.ErrDataNotFound) {
		return nil, err
	}

	// if no selection was present in DB, we just start with nothing selected and keyrings unlocked
	k.FromStore(s)

	recs, err := db.GetAccounts(net)
	if err != nil {
		return nil, err
	}

	for _, r := range recs {
		k.Add(r)
	}

	log.Printf("[%s] keeper.New selection:%+v accounts:%d", net, k.sel, len(k.accounts))

	return k, nil
}

func (k *Keeper) find(addr string) int {
	for i, r := range k.accounts {
		if r.Address == addr {
			return i
		}
	}

	return -1
}

// Find returns the kept account with address addr.
func (k *Keeper) Find(addr string) (account.Record, bool) {
	k.l.Lock()
	defer k.l.Unlock()

	if i := k.find(account.Normalize(addr)); i >= 0 {
		return k.accounts[i], true
	}

	return account.Record{}, false
}

// Add keeps an account and reports whether it was not already kept.
func (k *Keeper) Add(r account.Record) bool {
	k.l.Lock()
	defer k.l.Unlock()

	r.Address = account.Normalize(r.Address)
	if r.Address == "" || k.find(r.Address) >= 0 {
		return false
	}

	r.Network = k.net
	k.accounts = append(k.accounts, r)

	return true
}

// Del removes an account returning it and an ok flag. Removing the selected account clears the selection.
func (k *Keeper) Del(addr string) (r account.Record, ok bool) {
	k.l.Lock()
	defer k.l.Unlock()

	addr = account.Normalize(addr)

	i := k.find(addr)
	if i < 0 {
		return
	}

	r, ok = k.accounts[i], true
	k.accounts = append(k.accounts[:i], k.accounts[i+1:]...)

	if k.sel.Address == addr {
		k.sel.Address = ""
	}

	return
}

// Group returns the accounts of group id in insertion order.
func (k *Keeper) Group(id string) []account.Record {
	k.l.Lock()
	defer k.l.Unlock()

	var g []account.Record

	for _, r := range k.accounts {
		if r.GroupID == id {
			g = append(g, r)
		}
	}

	return g
}

// Select makes addr the authoritative selection. addr must be a kept account.
func (k *Keeper) Select(addr string) error {
	k.l.Lock()
	defer k.l.Unlock()

	addr = account.Normalize(addr)
	if k.find(addr) < 0 {
		return ErrUnknownAccount
	}

	k.sel.Address = addr

	return nil
}

// SetLocked sets the keyrings lock state.
func (k *Keeper) SetLocked(locked bool) {
	k.l.Lock()
	k.sel.Locked = locked
	k.l.Unlock()
}

// Locked returns the keyrings lock state.
func (k *Keeper) Locked() bool {
	k.l.Lock()
	defer k.l.Unlock()

	return k.sel.Locked
}

// Next increments the snapshot sequence and returns the snapshot to publish.
func (k *Keeper) Next() types.Snapshot {
	k.l.Lock()
	defer k.l.Unlock()

	k.sel.Seq++

	return types.Snapshot{
		Net:      k.net,
		Seq:      k.sel.Seq,
		Address:  k.sel.Address,
		Locked:   k.sel.Locked,
		Accounts: len(k.accounts),
	}
}

// ToStore returns a store.Selection struct to be saved to store
func (k *Keeper) ToStore() store.Selection {
	k.l.Lock()
	defer k.l.Unlock()

	return k.sel
}

// FromStore loads the Keeper with the values read from store
func (k *Keeper) FromStore(s store.Selection) {
	k.l.Lock()
	k.sel = s
	k.sel.Address = account.Normalize(s.Address)
	k.l.Unlock()
}

// Stop sets status to STOP
func (k *Keeper) Stop() {
	k.l.Lock()
	k.status = STOP
	k.l.Unlock()
}

// Start sets status to WORK
func (k *Keeper) Start() {
	k.l.Lock()
	k.status = WORK
	k.l.Unlock()
}

// Status returns the current Keeper status
func (k *Keeper) Status() int {
	k.l.Lock()
	defer k.l.Unlock()

	return k.status
}
