// Package account defines the account summary records shown by the account switcher and the helpers used to compare
// their addresses.
package account

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Category is the kind of an account. The set is closed: any value other than the four named kinds is Unknown and is
// never displayed.
type Category int

// Account categories.
const (
	Unknown Category = iota
	ReadOnly
	Imported
	Internal
	Ledger
)

// Categories lists every known category.
var Categories = []Category{ReadOnly, Imported, Internal, Ledger} //nolint:gochecknoglobals // closed set

// ErrBadCategory is returned when a category name is not one of the known kinds.
var ErrBadCategory = errors.New("unknown account category")

var names = map[Category]string{ //nolint:gochecknoglobals // lookup table
	ReadOnly: "read-only",
	Imported: "imported",
	Internal: "internal",
	Ledger:   "ledger",
}

// String returns the text form of the category, "unknown" for anything outside the closed set.
func (c Category) String() string {
	if n, ok := names[c]; ok {
		return n
	}

	return "unknown"
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := names[c]

	return ok
}

// ParseCategory returns the category for its text form.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, n := range names {
		if n == s {
			return c, nil
		}
	}

	return Unknown, ErrBadCategory
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown names decode to Unknown without error so that a malformed
// record is skipped instead of failing a whole list.
func (c *Category) UnmarshalText(b []byte) error {
	*c, _ = ParseCategory(string(b))

	return nil
}

// Record is the summary of one account.
type Record struct {
	Address  string   `json:"address"`
	Name     string   `json:"name,omitempty"`
	Category Category `json:"category"`
	GroupID  string   `json:"group,omitempty"` // key-management group, empty when absent
	Network  string   `json:"net,omitempty"`
}

// Grouped reports whether the record belongs to a key-management group.
func (r Record) Grouped() bool {
	return strings.TrimSpace(r.GroupID) != ""
}

// Normalize returns the canonical form of an address used for comparisons: lowercase, 0x-prefixed for EVM addresses.
// Blank input normalizes to "".
func Normalize(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}

	if common.IsHexAddress(addr) {
		return strings.ToLower(common.HexToAddress(addr).Hex())
	}

	return strings.ToLower(addr)
}

// Same reports whether both addresses refer to the same account. Blank addresses never match.
func Same(a, b string) bool {
	na := Normalize(a)

	return na != "" && na == Normalize(b)
}

// Checksum returns the EIP-55 mixed-case form of an EVM address, or "" if addr is not one.
func Checksum(addr string) string {
	addr = strings.TrimSpace(addr)
	if !common.IsHexAddress(addr) {
		return ""
	}

	return common.HexToAddress(addr).Hex()
}
