// Package msg defines the interface for different message brokers.
package msg

import (
	"sync"

	"github.com/tarancss/acctpanel/lib/msg/types"
)

// MsgBroker carries intents from wallet services to the background service and snapshots back.
type MsgBroker interface {
	Setup(interface{}) error
	Close() error

	// methods for wallet service
	SendIntent(net string, in types.Intent) error
	GetSnapshots(net string, mut *sync.Mutex) (<-chan types.Snapshot, <-chan error, error)

	// methods for background service
	GetIntents(net string, mut *sync.Mutex) (<-chan types.Intent, <-chan error, error)
	SendSnapshot(net string, s types.Snapshot) error
}
