// Package background implements the background microservice. The background service is the authority on the
// selected account and the keyring lock state of every network: it consumes the intents sent by wallet services,
// applies them to its store and publishes a snapshot of the resulting state.
package background

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/tarancss/hd"

	"github.com/tarancss/acctpanel/background/keeper"
	"github.com/tarancss/acctpanel/lib/account"
	"github.com/tarancss/acctpanel/lib/msg"
	"github.com/tarancss/acctpanel/lib/msg/types"
	"github.com/tarancss/acctpanel/lib/store"
	"github.com/tarancss/acctpanel/lib/store/db"
)

// HDGroupPrefix prefixes the group id of accounts derived from the HD wallet, followed by the wallet number.
const HDGroupPrefix = "hd/"

// Errors returned when applying intents.
var (
	ErrBadKind      = errors.New("unknown intent kind")
	ErrNoObj        = errors.New("intent object is missing")
	ErrWrongNet     = errors.New("intent is for another network")
	ErrLocked       = errors.New("keyrings are locked")
	ErrNotDerivable = errors.New("group does not derive addresses")
	ErrNoHD         = errors.New("HD wallet not loaded")
	ErrDuplicate    = errors.New("derived address is already kept")
)

// Background implements the background service.
type Background struct {
	dbtype string
	db     store.DB
	mb     msg.MsgBroker
	hd     *hd.HdWallet
	nets   []string
	kps    map[string]*keeper.Keeper // map of network keepers
	quit   chan struct{}
	once   sync.Once
}

// New instantiates a new background service for the networks in nets.
func New(dbtype string, db store.DB, mb msg.MsgBroker, hdw *hd.HdWallet, nets []string) *Background {
	return &Background{
		dbtype: dbtype,
		db:     db,
		mb:     mb,
		hd:     hdw,
		nets:   nets,
		kps:    make(map[string]*keeper.Keeper),
		quit:   make(chan struct{}),
	}
}

// Serve loads a keeper and starts consuming intents for each network. A snapshot is published for every network so
// wallets started before the background service learn the current state. The returned channel is written once all
// the networks have stopped.
func (b *Background) Serve() chan string {
	ret := make(chan string, 1)
	// channel to wait for network intent consumers
	w := make(chan string, len(b.nets))

	var started int

	for _, net := range b.nets {
		if err := b.Load(net); err != nil {
			log.Printf("[%s] Cannot load keeper from DB, err:%v", net, err)

			continue
		}

		if err := b.ManageIntents(net, w); err != nil {
			log.Printf("[%s] Cannot consume intents from broker, err:%v", net, err)

			continue
		}

		started++

		b.publish(net)
	}

	go func() {
		for i := 1; i <= started; i++ {
			log.Printf("Serve, channel %d/%d returned: %s", i, started, <-w)
		}
		ret <- "Done!"
	}()

	return ret
}

// Load creates the keeper of network net from the store.
func (b *Background) Load(net string) error {
	k, err := keeper.New(net, b.db)
	if err != nil {
		return fmt.Errorf("background: cannot load keeper: %w", err)
	}

	b.kps[net] = k

	return nil
}

// Stop sends termination signals to all network keepers and intent consumers.
func (b *Background) Stop() {
	b.once.Do(func() {
		for _, k := range b.kps {
			k.Stop()
		}
		close(b.quit)
	})
}

// Close closes the database connection. Call it once Serve has returned.
func (b *Background) Close() {
	if b.db != nil {
		err := db.Close(b.dbtype, b.db)
		log.Printf("Disconnecting %v database, err:%v", b.dbtype, err)
	}
}

// ManageIntents starts a go routine to receive and apply intents for the network named 'net'. When the routine ends,
// it writes its status to 'ret'.
func (b *Background) ManageIntents(net string, ret chan string) error {
	mut := new(sync.Mutex)
	mut.Lock()

	inCh, errCh, err := b.mb.GetIntents(net, mut)
	if err != nil {
		return fmt.Errorf("background: cannot get intents: %w", err)
	}

	k := b.kps[net]

	go func() {
		log.Printf("[%s] Start listening to intent channel", net)

		defer func() { ret <- "[" + net + "] Done!" }()

		for k.Status() == keeper.WORK {
			select {
			case in, ok := <-inCh:
				if !ok {
					log.Printf("[%s] Stop listening to intent channel", net)

					return
				}

				if err := b.Apply(net, in); err != nil {
					log.Printf("[%s] Intent %s %s %q not applied: %v", net, in.ID, types.KindName(in.Kind), in.Obj, err)
				}

				mut.Unlock()
			case e, ok := <-errCh:
				if !ok {
					errCh = nil

					continue
				}

				log.Printf("[%s] Received error %+v", net, e)
			case <-b.quit:
				return
			}
		}
	}()

	return nil
}

// Apply applies intent in to the state of network net. The resulting state is saved and published, also when the
// intent is refused, so waiting wallets observe the unchanged authoritative state.
func (b *Background) Apply(net string, in types.Intent) (err error) {
	k, ok := b.kps[net]
	if !ok || in.Net != net {
		intentsApplied.WithLabelValues(net, types.KindName(in.Kind), "refused").Inc()

		return ErrWrongNet
	}

	log.Printf("[%s] Applying intent %s %s %q", net, in.ID, types.KindName(in.Kind), in.Obj)

	publish := true

	switch in.Kind {
	case types.SELECT:
		err = k.Select(in.Obj)
	case types.LOCK:
		k.SetLocked(true)
	case types.UNLOCK:
		k.SetLocked(false)
	case types.DERIVE:
		err = b.derive(net, k, in.Obj)
	case types.ADD:
		err = b.add(net, k, in)
	case types.REMOVE:
		err = b.remove(net, k, in.Obj)
	case types.CLEARSIG, types.RESETCLAIM:
		// signature and claim workflows are not kept here, nothing changes
		publish = false
	default:
		err = ErrBadKind
		publish = false
	}

	result := "ok"
	if err != nil {
		result = "refused"
	}

	intentsApplied.WithLabelValues(net, types.KindName(in.Kind), result).Inc()

	if publish {
		b.publish(net)
	}

	return err
}

// publish saves the keeper selection and sends a new snapshot to the broker.
func (b *Background) publish(net string) {
	k := b.kps[net]
	snap := k.Next()

	if err := b.db.SaveSelection(net, k.ToStore()); err != nil {
		log.Printf("[%s] Error saving selection to DB, err:%v", net, err)
	}

	if err := b.mb.SendSnapshot(net, snap); err != nil {
		log.Printf("[%s] Error sending snapshot %d, err:%v", net, snap.Seq, err)
	}
}

// derive adds the next address of an HD wallet group.
func (b *Background) derive(net string, k *keeper.Keeper, group string) error {
	if group == "" {
		return ErrNoObj
	}

	if k.Locked() {
		return ErrLocked
	}

	if !strings.HasPrefix(group, HDGroupPrefix) {
		return ErrNotDerivable
	}

	wallet, err := strconv.ParseUint(strings.TrimPrefix(group, HDGroupPrefix), 10, 32)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotDerivable, group)
	}

	if b.hd == nil {
		return ErrNoHD
	}

	members := k.Group(group)

	// indexes below the group size may still be kept after removals, skip to the first free one
	var address string

	id := uint32(len(members))

	for ; ; id++ {
		addr, _, _, err := b.hd.Address(uint32(wallet), hd.External, id)
		if err != nil {
			return fmt.Errorf("cannot derive address %d of %s: %w", id, group, err)
		}

		address = "0x" + hex.EncodeToString(addr)
		if _, kept := k.Find(address); !kept {
			break
		}
	}

	r := account.Record{
		Address:  address,
		Name:     fmt.Sprintf("Account %d", id+1),
		Category: account.Internal,
		GroupID:  group,
	}
	if len(members) > 0 {
		r.Category = members[0].Category
	}

	if _, err = b.db.AddAccount(net, r); err != nil {
		return err
	}

	if !k.Add(r) {
		return fmt.Errorf("%w: %s", ErrDuplicate, r.Address)
	}

	log.Printf("[%s] Derived address %s in group %s", net, r.Address, group)

	return nil
}

// add keeps a new account, read-only unless the intent names another category.
func (b *Background) add(net string, k *keeper.Keeper, in types.Intent) error {
	r := account.Record{Address: account.Normalize(in.Obj), Name: in.Name, Category: account.ReadOnly}
	if r.Address == "" {
		return ErrNoObj
	}

	if in.Category != "" {
		cat, err := account.ParseCategory(in.Category)
		if err != nil {
			return err
		}

		r.Category = cat
	}

	if _, err := b.db.AddAccount(net, r); err != nil {
		return err
	}

	k.Add(r)

	return nil
}

// remove deletes an account from the store and the keeper.
func (b *Background) remove(net string, k *keeper.Keeper, addr string) error {
	if account.Normalize(addr) == "" {
		return ErrNoObj
	}

	if err := b.db.RemoveAccount(net, addr); err != nil {
		return err
	}

	if _, ok := k.Del(addr); !ok {
		log.Printf("[%s] Account %s was not kept. Ignoring...", net, addr)
	}

	return nil
}
