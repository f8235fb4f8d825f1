// Package store defines the interface for database implementations to the wallet and background services.
package store

import (
	"errors"

	"github.com/tarancss/acctpanel/lib/account"
)

// DB defines required methods for wallets and the background service
type DB interface {
	// accounts, returned in insertion order
	AddAccount(net string, a account.Record) ([]byte, error)
	RemoveAccount(net, address string) error
	GetAccounts(net string) ([]account.Record, error)
	// authoritative selection
	LoadSelection(net string) (Selection, error)
	SaveSelection(net string, s Selection) error
}

// Errors returned
var (
	ErrAccountNotFound = errors.New("account was not found in store")
	ErrDataNotFound    = errors.New("data was not found in store")
)
