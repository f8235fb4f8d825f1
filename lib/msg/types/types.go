// Package types defines the messages exchanged between the wallet and background services.
package types

// Kinds of intent sent by the wallet service.
const (
	EXIT       = -1
	SELECT     = 0 // select the account in Obj
	LOCK       = 1 // lock keyrings
	UNLOCK     = 2 // unlock keyrings
	DERIVE     = 3 // derive a new address in group Obj
	ADD        = 4 // add the account in Obj
	REMOVE     = 5 // remove the account in Obj
	CLEARSIG   = 6 // clear any pending signature
	RESETCLAIM = 7 // reset the claim flow
)

// Intent defines the message that the wallet service publishes for the background service to apply.
type Intent struct {
	ID       string `json:"id"`
	Net      string `json:"net"`
	Kind     int    `json:"kind"`
	Obj      string `json:"obj,omitempty"`      // address or group, depending on Kind
	Name     string `json:"name,omitempty"`     // account name for ADD
	Category string `json:"category,omitempty"` // account category for ADD, read-only if empty
}

// Snapshot defines the message that the background service publishes after applying an intent.
type Snapshot struct {
	Net      string `json:"net"`
	Seq      uint64 `json:"seq"`
	Address  string `json:"address"` // authoritative selected address, "" if none
	Locked   bool   `json:"locked"`
	Accounts int    `json:"accounts"`
}

// KindName returns a printable name for an intent kind.
func KindName(k int) string {
	switch k {
	case EXIT:
		return "exit"
	case SELECT:
		return "select"
	case LOCK:
		return "lock"
	case UNLOCK:
		return "unlock"
	case DERIVE:
		return "derive"
	case ADD:
		return "add"
	case REMOVE:
		return "remove"
	case CLEARSIG:
		return "clearsig"
	case RESETCLAIM:
		return "resetclaim"
	}

	return "unknown"
}
