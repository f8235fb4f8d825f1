// Package memory implements the store interface in process memory. Data is lost on exit; it serves single instance
// setups and tests.
package memory

import (
	"strconv"
	"sync"

	"github.com/tarancss/acctpanel/lib/account"
	"github.com/tarancss/acctpanel/lib/store"
)

type row struct {
	id  int
	rec account.Record
}

// Memory implements store.DB.
type Memory struct {
	l    sync.Mutex
	next int
	accs map[string][]row
	sels map[string]store.Selection
}

// New returns an empty Memory store.
func New() *Memory {
	return &Memory{accs: make(map[string][]row), sels: make(map[string]store.Selection)}
}

// AddAccount saves an account if its address does not already exist.
func (m *Memory) AddAccount(net string, a account.Record) ([]byte, error) {
	m.l.Lock()
	defer m.l.Unlock()

	a.Address = account.Normalize(a.Address)
	a.Network = net

	for _, r := range m.accs[net] {
		if r.rec.Address == a.Address {
			return []byte(strconv.Itoa(r.id)), nil
		}
	}

	m.next++
	m.accs[net] = append(m.accs[net], row{id: m.next, rec: a})

	return []byte(strconv.Itoa(m.next)), nil
}

// RemoveAccount deletes an account.
func (m *Memory) RemoveAccount(net, address string) error {
	m.l.Lock()
	defer m.l.Unlock()

	address = account.Normalize(address)

	rows := m.accs[net]
	for i, r := range rows {
		if r.rec.Address == address {
			m.accs[net] = append(rows[:i:i], rows[i+1:]...)

			return nil
		}
	}

	return store.ErrAccountNotFound
}

// GetAccounts returns the accounts of the network in insertion order.
func (m *Memory) GetAccounts(net string) ([]account.Record, error) {
	m.l.Lock()
	defer m.l.Unlock()

	recs := make([]account.Record, 0, len(m.accs[net]))
	for _, r := range m.accs[net] {
		recs = append(recs, r.rec)
	}

	return recs, nil
}

// LoadSelection returns the selection state of the network.
func (m *Memory) LoadSelection(net string) (store.Selection, error) {
	m.l.Lock()
	defer m.l.Unlock()

	s, ok := m.sels[net]
	if !ok {
		return s, store.ErrDataNotFound
	}

	return s, nil
}

// SaveSelection saves the selection state of the network.
func (m *Memory) SaveSelection(net string, s store.Selection) error {
	m.l.Lock()
	m.sels[net] = s
	m.l.Unlock()

	return nil
}
