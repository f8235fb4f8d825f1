package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tarancss/acctpanel/background"
	"github.com/tarancss/acctpanel/lib/account"
	"github.com/tarancss/acctpanel/lib/msg/local"
	"github.com/tarancss/acctpanel/lib/store/db"
	"github.com/tarancss/acctpanel/lib/store/memory"
	"github.com/tarancss/acctpanel/panel"
)

// TestWallet is a component test: the wallet API runs against a background service sharing an in-process broker
// and an in-memory store.
func TestWallet(t *testing.T) {
	const net = "goerli"

	st := memory.New()
	for _, r := range []account.Record{
		{Address: "0x0a", Name: "first", Category: account.Internal, GroupID: "hd/0"},
		{Address: "0x0b", Name: "imported", Category: account.Imported},
		{Address: "0x0c", Name: "watched", Category: account.ReadOnly},
	} {
		if _, err := st.AddAccount(net, r); err != nil {
			t.Fatalf("AddAccount:%v", err)
		}
	}

	mb := local.New()

	// wallet serves a network without background service too
	w := New(db.MEMORY, st, mb, []string{"mainNet", net}, "", panel.WithKeyringLocking(true))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.ManageEvents(ctx); err != nil {
		t.Fatalf("ManageEvents:%v", err)
	}

	b := background.New(db.MEMORY, st, mb, nil, []string{net})
	done := b.Serve()

	srv := httptest.NewServer(w.Router())
	defer srv.Close()

	// requests with an immediate outcome
	cases := []struct {
		name, method, uri string
		status            int    // http status code
		errExp            string // error expected
		resExp            string // body expected, not checked if empty
	}{
		{"homePage_1", http.MethodGet, "/", http.StatusOK, "", "Hello, this is your account panel!"},
		{"homePage_2", http.MethodPost, "/", http.StatusOK, "", "Hello, this is your account panel!"},
		{"networks_0", http.MethodPost, "/networks", http.StatusMethodNotAllowed, "", ""},
		{"networks_1", http.MethodGet, "/networks", http.StatusOK, "", `["mainNet","goerli"]`},
		{"accounts_0", http.MethodGet, "/accounts", http.StatusBadRequest, ErrMissingNet.Error(), ""},
		{"accounts_1", http.MethodGet, "/accounts?net=goerli&net=mainNet", http.StatusBadRequest, ErrMissingNet.Error(), ""},
		{"accounts_2", http.MethodGet, "/accounts?net=polygon", http.StatusBadRequest, ErrNoNet.Error(), ""},
		{"accounts_3", http.MethodPut, "/accounts/0x0d?net=goerli", http.StatusMethodNotAllowed, "", ""},
		{"accounts_4", http.MethodPost, "/accounts/%20?net=goerli", http.StatusBadRequest, ErrNoAddr.Error(), ""},
		{"accounts_5", http.MethodPost, "/accounts/0x0d?net=goerli&category=paper", http.StatusBadRequest,
			account.ErrBadCategory.Error(), ""},
		{"select_0", http.MethodGet, "/select/0x0b?net=goerli", http.StatusMethodNotAllowed, "", ""},
		{"select_1", http.MethodPost, "/select/%20?net=goerli", http.StatusBadRequest, panel.ErrNoAddress.Error(), ""},
		{"keyring_0", http.MethodPost, "/keyring/open?net=goerli", http.StatusBadRequest, ErrBadAction.Error(), ""},
		{"selection_0", http.MethodGet, "/selection?net=mainNet", http.StatusOK, "",
			`{"net":"mainNet","address":"","state":"idle","locked":false}`},
		{"notifications_0", http.MethodGet, "/notifications?net=mainNet", http.StatusOK, "", "[]"},
	}

	for _, c := range cases {
		s, body, e, err := makeRequest(c.method, srv.URL+c.uri)
		if err != nil {
			t.Errorf("[%s] Error in request:%v", c.name, err)
		} else if s != c.status {
			t.Errorf("[%s] Error in StatusCode:%d expected:%d", c.name, s, c.status)
		} else if e != c.errExp {
			t.Errorf("[%s] Error in response:%s expected:%s", c.name, e, c.errExp)
		} else if c.resExp != "" && body != c.resExp {
			t.Errorf("[%s] Error in body:%s expected:%s", c.name, body, c.resExp)
		}
	}

	// select an account and wait for the background service to confirm it
	post(t, srv.URL+"/select/0x0B?net=goerli", http.StatusAccepted)

	v := waitSelection(t, srv.URL, func(v panel.View) bool { return v.Authoritative == "0x0b" })
	if v.State != "idle" || v.Pending != "" {
		t.Errorf("selection not confirmed:%+v", v)
	}

	waitNotification(t, srv.URL, KindAddress, "0x0b")

	// accounts are grouped and the selected one flagged
	var av AccountsView

	get(t, srv.URL+"/accounts?net=goerli", &av)

	if len(av.Sections) != 3 || av.Sections[0].Category != account.Internal || av.Sections[1].ShowHeader {
		t.Errorf("unexpected sections:%+v", av.Sections)
	} else if row := av.Sections[1].Groups[0].Accounts[0]; !row.Selected || row.Address != "0x0b" {
		t.Errorf("imported account not selected:%+v", row)
	} else if av.Sections[0].Groups[0].Accounts[0].Selected || !av.Sections[0].ShowLockToggle {
		t.Errorf("unexpected internal section:%+v", av.Sections[0])
	}

	// lock the keyrings: the address is reported cleared and the locked message raised once observed
	post(t, srv.URL+"/keyring/lock?net=goerli", http.StatusAccepted)
	waitNotification(t, srv.URL, KindLocked, panel.DefaultLockedMessage)
	waitSelection(t, srv.URL, func(v panel.View) bool { return v.Locked })

	post(t, srv.URL+"/keyring/lock?net=goerli", http.StatusConflict)
	post(t, srv.URL+"/derive/hd/0?net=goerli", http.StatusConflict)

	// unlock and derive: without HD wallet the background service refuses it
	post(t, srv.URL+"/keyring/unlock?net=goerli", http.StatusAccepted)
	waitSelection(t, srv.URL, func(v panel.View) bool { return !v.Locked })
	post(t, srv.URL+"/derive/hd/0?net=goerli", http.StatusAccepted)

	// add a read-only account
	post(t, srv.URL+"/accounts/0x0D?net=goerli&name=watch", http.StatusAccepted)
	waitAccounts(t, st, net, 4)

	// removing the selected account clears the selection
	if s, _, e, err := makeRequest(http.MethodDelete, srv.URL+"/accounts/0x0b?net=goerli"); err != nil ||
		s != http.StatusAccepted {
		t.Errorf("DELETE account status:%d error:%s err:%v", s, e, err)
	}

	waitSelection(t, srv.URL, func(v panel.View) bool { return v.Authoritative == "" })
	waitAccounts(t, st, net, 3)

	cancel()
	b.Stop()
	w.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Errorf("background service did not stop")
	}

	// stopped panels reply service unavailable
	post(t, srv.URL+"/select/0x0a?net=goerli", http.StatusServiceUnavailable)
}

// TestInbox checks notifications are kept per network, bounded and drained once.
func TestInbox(t *testing.T) {
	i := NewInbox(2)
	n := i.Notifier("a")

	n.Notify("one")
	n.Notify("two")
	i.AddressChanged("a")("0x01")
	i.AddressChanged("b")("0x02")

	got := i.Drain("a")
	if len(got) != 2 || got[0].Message != "two" || got[1].Address != "0x01" || got[1].Kind != KindAddress {
		t.Fatalf("unexpected notifications:%+v", got)
	}

	if got[0].ID == "" || got[0].ID == got[1].ID || got[0].Time.IsZero() {
		t.Errorf("notifications without id or time:%+v", got)
	}

	if got = i.Drain("a"); len(got) != 0 {
		t.Errorf("inbox not drained:%+v", got)
	}

	if got = i.Drain("b"); len(got) != 1 || got[0].Net != "b" {
		t.Errorf("unexpected notifications:%+v", got)
	}
}

// makeRequest places a http request on uri. Returns the status code, the body and error fields of the received JSON
// response.
func makeRequest(method, uri string) (s int, b, e string, err error) {
	req, err := http.NewRequest(method, uri, nil)
	if err != nil {
		return
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()

	s = resp.StatusCode

	p, err := io.ReadAll(resp.Body)
	if err != nil || len(p) == 0 {
		return
	}

	var v Response
	if err = json.Unmarshal(p, &v); err != nil {
		// mux replies plain text for unmatched methods
		if s == http.StatusMethodNotAllowed {
			err = nil
		}

		return
	}

	return s, v.Body, v.Error, nil
}

func post(t *testing.T, uri string, status int) {
	t.Helper()

	s, _, e, err := makeRequest(http.MethodPost, uri)
	if err != nil || s != status {
		t.Errorf("POST %s status:%d expected:%d error:%s err:%v", uri, s, status, e, err)
	}
}

func get(t *testing.T, uri string, v interface{}) {
	t.Helper()

	s, b, e, err := makeRequest(http.MethodGet, uri)
	if err != nil || s != http.StatusOK {
		t.Fatalf("GET %s status:%d error:%s err:%v", uri, s, e, err)
	}

	if err = json.Unmarshal([]byte(b), v); err != nil {
		t.Fatalf("GET %s error unmarshaling body:%s error:%v", uri, b, err)
	}
}

var errTimeout = errors.New("timed out")

// eventually calls f until it returns true or two seconds pass.
func eventually(f func() bool) error {
	for end := time.Now().Add(2 * time.Second); time.Now().Before(end); time.Sleep(10 * time.Millisecond) {
		if f() {
			return nil
		}
	}

	return errTimeout
}

func waitSelection(t *testing.T, url string, f func(panel.View) bool) (v panel.View) {
	t.Helper()

	if err := eventually(func() bool {
		get(t, url+"/selection?net=goerli", &v)

		return f(v)
	}); err != nil {
		t.Errorf("selection %+v: %v", v, err)
	}

	return v
}

// waitNotification waits for a notification of kind carrying text as message or address.
func waitNotification(t *testing.T, url, kind, text string) {
	t.Helper()

	var seen []Notification

	if err := eventually(func() bool {
		var ns []Notification

		get(t, url+"/notifications?net=goerli", &ns)
		seen = append(seen, ns...)

		for _, n := range seen {
			if n.Kind == kind && (n.Message == text || n.Address == text) {
				return true
			}
		}

		return false
	}); err != nil {
		t.Errorf("notification %s %q not seen in %+v: %v", kind, text, seen, err)
	}
}

func waitAccounts(t *testing.T, st *memory.Memory, net string, n int) {
	t.Helper()

	var recs []account.Record

	if err := eventually(func() bool {
		recs, _ = st.GetAccounts(net)

		return len(recs) == n
	}); err != nil {
		t.Errorf("expected %d accounts, got %+v: %v", n, recs, err)
	}
}
