package panel

import (
	"strings"

	"github.com/tarancss/acctpanel/lib/account"
)

// DefaultOrder is the order in which categories are displayed.
var DefaultOrder = []account.Category{ //nolint:gochecknoglobals // display configuration
	account.Internal,
	account.Imported,
	account.ReadOnly,
	account.Ledger,
}

// Detail holds the display data of a category. Title heads each group, Label heads the category section.
type Detail struct {
	Title string `json:"title"`
	Icon  string `json:"icon"`
	Label string `json:"label"`
}

// DefaultDetails is used when no Details are given.
var DefaultDetails = map[account.Category]Detail{ //nolint:gochecknoglobals // display configuration
	account.ReadOnly: {Title: "Read-only", Icon: "./images/eye@2x.png", Label: "Read-only"},
	account.Imported: {Title: "Imported", Icon: "./images/imported@2x.png", Label: "Others"},
	account.Internal: {Title: "Internal", Icon: "./images/stars_grey.svg", Label: "Others"},
	account.Ledger:   {Title: "Ledger", Icon: "./images/ledger_icon.svg", Label: "Ledger"},
}

// Section is one displayed category.
type Section struct {
	Category       account.Category `json:"category"`
	Label          string           `json:"label"`
	ShowHeader     bool             `json:"showHeader"`
	ShowLockToggle bool             `json:"showLockToggle"`
	Groups         []Group          `json:"groups"`
}

// Group is one numbered cluster of accounts within a section.
type Group struct {
	Number        int              `json:"number"`
	GroupID       string           `json:"group,omitempty"`
	Ungrouped     bool             `json:"ungrouped"`
	Title         string           `json:"title"`
	Icon          string           `json:"icon"`
	ShowNumber    bool             `json:"showNumber"`
	CanAddAddress bool             `json:"canAddAddress"`
	Records       []account.Record `json:"accounts"`
}

// Option customises Group behaviour.
type Option func(*groupOptions)

type groupOptions struct {
	order   []account.Category
	details map[account.Category]Detail
	locking bool
}

// WithOrder overrides the display order. Unknown and repeated categories are ignored.
func WithOrder(order []account.Category) Option {
	return func(opts *groupOptions) {
		if len(order) == 0 {
			return
		}
		seen := make(map[account.Category]bool, len(order))
		opts.order = make([]account.Category, 0, len(order))
		for _, c := range order {
			if !c.Valid() || seen[c] {
				continue
			}
			seen[c] = true
			opts.order = append(opts.order, c)
		}
	}
}

// WithDetails overrides the display details. Categories missing from m keep the default details.
func WithDetails(m map[account.Category]Detail) Option {
	return func(opts *groupOptions) {
		for k, v := range m {
			opts.details[k] = v
		}
	}
}

// WithKeyringLocking enables the lock toggle on the sections of keyring-backed categories.
func WithKeyringLocking(enabled bool) Option {
	return func(opts *groupOptions) {
		opts.locking = enabled
	}
}

// bucket is one entry of the ordered group partition.
type bucket struct {
	id        string
	ungrouped bool
	records   []account.Record
}

// GroupAccounts partitions records by category in display order, then by group id in first-seen order. Records
// without a group id fall into a single ungrouped group per category. Every record of a displayed category appears in
// exactly one group; categories without records are omitted.
func GroupAccounts(records []account.Record, opts ...Option) []Section {
	config := &groupOptions{
		order:   DefaultOrder,
		details: make(map[account.Category]Detail, len(DefaultDetails)),
	}
	for k, v := range DefaultDetails {
		config.details[k] = v
	}
	for _, opt := range opts {
		opt(config)
	}

	counts := make(map[account.Category]int, len(account.Categories))
	for _, r := range records {
		counts[r.Category]++
	}

	var sections []Section
	for _, cat := range config.order {
		if counts[cat] == 0 {
			continue
		}

		detail := config.details[cat]
		keyring := cat == account.Imported || cat == account.Internal
		s := Section{
			Category:       cat,
			Label:          detail.Label,
			ShowHeader:     !(cat == account.Imported && counts[account.Internal] > 0),
			ShowLockToggle: config.locking && keyring,
		}

		for i, b := range partition(records, cat) {
			s.Groups = append(s.Groups, Group{
				Number:        i + 1,
				GroupID:       b.id,
				Ungrouped:     b.ungrouped,
				Title:         detail.Title,
				Icon:          detail.Icon,
				ShowNumber:    cat != account.ReadOnly,
				CanAddAddress: keyring && !b.ungrouped,
				Records:       b.records,
			})
		}
		sections = append(sections, s)
	}

	return sections
}

// partition returns the records of category cat split by group id, in the order groups are first encountered. Group
// ids are compared without surrounding spaces.
func partition(records []account.Record, cat account.Category) []*bucket {
	var buckets []*bucket

	index := make(map[string]*bucket)

	var ungrouped *bucket

	for _, r := range records {
		if r.Category != cat {
			continue
		}

		var b *bucket

		if r.Grouped() {
			id := strings.TrimSpace(r.GroupID)
			if b = index[id]; b == nil {
				b = &bucket{id: id}
				index[id] = b
				buckets = append(buckets, b)
			}
		} else {
			if ungrouped == nil {
				ungrouped = &bucket{ungrouped: true}
				buckets = append(buckets, ungrouped)
			}
			b = ungrouped
		}

		b.records = append(b.records, r)
	}

	return buckets
}
