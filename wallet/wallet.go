// Package wallet implements the wallet microservice.
//
// This microservice implements a RESTful API for clients to list their accounts grouped for display, switch the
// selected account and lock the keyrings of every served network. Selections are optimistic: they are sent to the
// background service as intents and confirmed when a snapshot carrying the requested address arrives.
package wallet

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/tarancss/acctpanel/lib/msg"
	"github.com/tarancss/acctpanel/lib/store"
	"github.com/tarancss/acctpanel/lib/store/db"
	"github.com/tarancss/acctpanel/panel"
)

// Wallet contains the data necessary to deliver the service
type Wallet struct {
	dbtype string
	db     store.DB // db connection, shared with the background service
	mb     msg.MsgBroker
	d      dispatcher
	nets   []string
	opts   []panel.Option          // grouping options
	panels map[string]*panel.Panel // one panel per network
	inbox  *Inbox
	s      *http.Server  // http server
	ss     *http.Server  // https server
	sc     chan struct{} // http server channel used for graceful shutdowns
	once   sync.Once
}

// New returns a pointer to a new Wallet service serving the networks in nets. lockedMsg is notified when keyrings get
// locked and opts customise the account grouping.
func New(dbtype string, dbConn store.DB, mb msg.MsgBroker, nets []string, lockedMsg string,
	opts ...panel.Option) *Wallet {
	w := &Wallet{
		dbtype: dbtype,
		db:     dbConn,
		mb:     mb,
		d:      dispatcher{mb: mb},
		nets:   nets,
		opts:   opts,
		panels: make(map[string]*panel.Panel, len(nets)),
		inbox:  NewInbox(InboxSize),
		sc:     make(chan struct{}),
	}

	for _, net := range nets {
		w.panels[net] = panel.New(net, w.d, w.inbox.Notifier(net), w.inbox.AddressChanged(net), lockedMsg)
	}

	return w
}

// Stop shuts down the http servers implementing the RESTful API and closes gracefully the connections to message
// broker and database. Panels stop when the context given to ManageEvents is cancelled.
func (w *Wallet) Stop() {
	w.once.Do(func() {
		// shutdown http servers
		if w.s != nil {
			if err := w.s.Shutdown(context.Background()); err != nil {
				log.Printf("Error in http server shutdown:%v", err)
			}
		}

		if w.ss != nil {
			if err := w.ss.Shutdown(context.Background()); err != nil {
				log.Printf("Error in https server shutdown:%v", err)
			}
		}

		close(w.sc) // close server channel to indicate shutdowns have finished
		// close message broker
		if err := w.mb.Close(); err != nil {
			log.Printf("Error closing message broker:%v", err)
		}
		// close database
		if w.db != nil {
			err := db.Close(w.dbtype, w.db)
			log.Printf("Disconnecting %v database, err:%v", w.dbtype, err)
		}
	})
}

// ManageEvents starts the panel of each network and go routines to consume the snapshots sent by the background
// service. For each network, two channels are opened, one for snapshots, and one for errors. Panels run until ctx is
// done.
func (w *Wallet) ManageEvents(ctx context.Context) error {
	for _, net := range w.nets {
		p := w.panels[net]

		mut := new(sync.Mutex)
		mut.Lock()

		snapCh, errCh, err := w.mb.GetSnapshots(net, mut)
		if err != nil {
			return err
		}

		go func() {
			if err := p.Run(ctx); err != nil {
				log.Printf("[%s] Panel ended:%v", p.Net(), err)
			}
		}()

		// launch snapshot channel reader
		go func(netName string) {
			log.Printf("[%s] Start listening to background snapshot channel", netName)

			for s := range snapCh {
				if err := p.Observe(ctx, panel.Snapshot{Address: s.Address, Locked: s.Locked}); err != nil {
					log.Printf("[%s] Snapshot %d not observed:%v", netName, s.Seq, err)
				} else {
					snapshotsObserved.WithLabelValues(netName).Inc()
				}

				mut.Unlock()
			}

			log.Printf("[%s] Stop listening to background snapshot channel", netName)
		}(net)

		// launch error channel reader
		go func(netName string) {
			for e := range errCh {
				log.Printf("[%s] Received error %+v", netName, e)
			}
		}(net)
	}

	return nil
}
