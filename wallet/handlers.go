package wallet

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tarancss/acctpanel/lib/account"
	"github.com/tarancss/acctpanel/lib/msg/types"
	"github.com/tarancss/acctpanel/lib/util"
	"github.com/tarancss/acctpanel/panel"
)

// Errors returned to client requests.
var (
	ErrBadrequest = errors.New("bad request")
	ErrBadAction  = errors.New("invalid keyring action: has to be either lock or unlock")
	ErrMissingNet = errors.New("undefined network - missing query: ?net=<network>")
	ErrNoAddr     = errors.New("undefined address - missing in uri")
	ErrNoNet      = errors.New("network not available")
)

// Response defines the data structure returned to the client making the http request.
type Response struct {
	Body  string `json:"body"`
	Error string `json:"error,omitempty"`
}

// Row is an account as listed to the client.
type Row struct {
	account.Record
	Checksum string `json:"checksum,omitempty"` // mixed-case address, hex addresses only
	Selected bool   `json:"selected"`
}

// GroupView is a panel.Group listing Rows.
type GroupView struct {
	panel.Group
	Accounts []Row `json:"accounts"`
}

// SectionView is a panel.Section listing GroupViews.
type SectionView struct {
	panel.Section
	Groups []GroupView `json:"groups"`
}

// AccountsView is the reply to an accounts request: the panel state and the grouped accounts.
type AccountsView struct {
	panel.View
	Sections []SectionView `json:"sections"`
}

// errStatus returns the http status code replied for err.
func errStatus(err error) int {
	switch {
	case errors.Is(err, panel.ErrLocked):
		return http.StatusConflict
	case errors.Is(err, panel.ErrStopped):
		return http.StatusServiceUnavailable
	}

	return http.StatusBadRequest
}

// reply writes the response to the client: body v JSON encoded, or a string as is, when err is nil and the error
// otherwise.
func reply(rw http.ResponseWriter, r *http.Request, status int, v interface{}, err error) {
	var res Response

	if err != nil {
		res.Error = err.Error()
		status = errStatus(err)
	} else if v != nil {
		if s, ok := v.(string); ok {
			res.Body = s
		} else {
			tmp, _ := json.Marshal(v)
			res.Body = string(tmp)
		}
	}
	// log request
	log.Printf("httpreq from %v %s %s status:%d err:%v", r.RemoteAddr, r.Method, r.RequestURI, status, err)
	// reply
	rw.Header().Set("Content-Type", "application/json;charset=utf8")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(&res)
}

// network returns the panel of the network in the ?net= query.
func (w *Wallet) network(r *http.Request) (*panel.Panel, error) {
	if err := r.ParseForm(); err != nil {
		log.Print("Error parsing request URL")

		return nil, ErrBadrequest
	}

	net, ok := util.One(r.Form["net"])
	if !ok {
		return nil, ErrMissingNet
	}

	if !util.In(w.nets, net) {
		return nil, ErrNoNet
	}

	return w.panels[net], nil
}

// homeHandler just replies a welcome message to the client.
func (w *Wallet) homeHandler(rw http.ResponseWriter, r *http.Request) {
	reply(rw, r, http.StatusOK, "Hello, this is your account panel!", nil)
}

// networksHandler replies the networks served by the wallet.
func (w *Wallet) networksHandler(rw http.ResponseWriter, r *http.Request) {
	reply(rw, r, http.StatusOK, w.nets, nil)
}

// accountsHandler replies the accounts of the network grouped for display, flagging the selected one.
func (w *Wallet) accountsHandler(rw http.ResponseWriter, r *http.Request) {
	var err error

	var res AccountsView

	defer func() { reply(rw, r, http.StatusOK, res, err) }()

	p, err := w.network(r)
	if err != nil {
		return
	}

	recs, err := w.db.GetAccounts(p.Net())
	if err != nil {
		return
	}

	if res.View, err = p.View(r.Context()); err != nil {
		return
	}

	res.Sections = []SectionView{}

	for _, s := range panel.GroupAccounts(recs, w.opts...) {
		sv := SectionView{Section: s, Groups: make([]GroupView, 0, len(s.Groups))}

		for _, g := range s.Groups {
			gv := GroupView{Group: g, Accounts: make([]Row, 0, len(g.Records))}

			for _, rec := range g.Records {
				gv.Accounts = append(gv.Accounts, Row{
					Record:   rec,
					Checksum: account.Checksum(rec.Address),
					Selected: account.Same(rec.Address, res.Authoritative),
				})
			}

			sv.Groups = append(sv.Groups, gv)
		}

		res.Sections = append(res.Sections, sv)
	}
}

// accountHandler sends an intent to add (POST) or remove (DELETE) an account. The optional queries name and category
// describe an added account, which is read-only by default. The intent id is replied with a request accepted status.
func (w *Wallet) accountHandler(rw http.ResponseWriter, r *http.Request) {
	var err error

	var id string

	defer func() { reply(rw, r, http.StatusAccepted, id, err) }()

	p, err := w.network(r)
	if err != nil {
		return
	}

	address := mux.Vars(r)["address"]
	if account.Normalize(address) == "" {
		err = ErrNoAddr

		return
	}

	in := types.Intent{Net: p.Net(), Kind: types.REMOVE, Obj: address}

	if r.Method == http.MethodPost {
		in.Kind = types.ADD
		in.Name, _ = util.One(r.Form["name"])

		if cat, ok := util.One(r.Form["category"]); ok {
			if _, err = account.ParseCategory(cat); err != nil {
				return
			}

			in.Category = cat
		}
	}

	id, err = w.d.send(in)
}

// selectHandler requests the selection of an account. The selection is confirmed asynchronously, see
// selectionHandler.
func (w *Wallet) selectHandler(rw http.ResponseWriter, r *http.Request) {
	var err error

	var address string

	defer func() { reply(rw, r, http.StatusAccepted, address, err) }()

	p, err := w.network(r)
	if err != nil {
		return
	}

	address = account.Normalize(mux.Vars(r)["address"])
	err = p.RequestSelection(r.Context(), address)
}

// selectionHandler replies the selection state of the network: the confirmed address, the pending one if any and the
// keyrings lock state.
func (w *Wallet) selectionHandler(rw http.ResponseWriter, r *http.Request) {
	var err error

	var res panel.View

	defer func() { reply(rw, r, http.StatusOK, res, err) }()

	p, err := w.network(r)
	if err != nil {
		return
	}

	res, err = p.View(r.Context())
}

// keyringHandler locks or unlocks the keyrings of the network.
func (w *Wallet) keyringHandler(rw http.ResponseWriter, r *http.Request) {
	var err error

	defer func() { reply(rw, r, http.StatusAccepted, nil, err) }()

	p, err := w.network(r)
	if err != nil {
		return
	}

	switch mux.Vars(r)["action"] {
	case "lock":
		err = p.ToggleKeyring(r.Context())
	case "unlock":
		_, err = w.d.send(types.Intent{Net: p.Net(), Kind: types.UNLOCK})
	default:
		err = ErrBadAction
	}
}

// deriveHandler requests a new address in a key-management group. Keyrings must be unlocked.
func (w *Wallet) deriveHandler(rw http.ResponseWriter, r *http.Request) {
	var err error

	defer func() { reply(rw, r, http.StatusAccepted, nil, err) }()

	p, err := w.network(r)
	if err != nil {
		return
	}

	err = p.DeriveAddress(r.Context(), mux.Vars(r)["group"])
}

// notificationsHandler replies and forgets the pending notifications of the network.
func (w *Wallet) notificationsHandler(rw http.ResponseWriter, r *http.Request) {
	var err error

	var res []Notification

	defer func() { reply(rw, r, http.StatusOK, res, err) }()

	p, err := w.network(r)
	if err != nil {
		return
	}

	res = w.inbox.Drain(p.Net())
}
