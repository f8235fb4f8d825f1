package panel

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type fakeNotifier struct {
	mu  sync.Mutex
	msg []string
}

func (f *fakeNotifier) Notify(m string) {
	f.mu.Lock()
	f.msg = append(f.msg, m)
	f.mu.Unlock()
}

func (f *fakeNotifier) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.msg)
}

func startPanel(t *testing.T, d Dispatcher, n Notifier, onChange func(string)) (*Panel, context.CancelFunc) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	p := New("ropsten", d, n, onChange, "")

	go func() { _ = p.Run(ctx) }()

	return p, cancel
}

func TestPanel(t *testing.T) {
	d := &fakeDispatcher{}
	n := &fakeNotifier{}

	var mu sync.Mutex

	var changes []string

	p, cancel := startPanel(t, d, n, func(a string) {
		mu.Lock()
		changes = append(changes, a)
		mu.Unlock()
	})
	defer cancel()

	ctx := context.Background()

	// mount: first observation never notifies
	if err := p.Observe(ctx, Snapshot{Address: "0x11", Locked: false}); err != nil {
		t.Fatalf("Observe error:%v", err)
	}
	if err := p.RequestSelection(ctx, "0xAA"); err != nil {
		t.Fatalf("RequestSelection error:%v", err)
	}

	v, _ := p.View(ctx)
	if v.State != "awaiting" || v.Pending != "0xaa" || v.Authoritative != "0x11" {
		t.Errorf("unexpected view:%+v", v)
	}

	_ = p.Observe(ctx, Snapshot{Address: "0xBB"})
	_ = p.Observe(ctx, Snapshot{Address: "0xAA"})
	_ = p.Observe(ctx, Snapshot{Address: "0xAA", Locked: true})

	mu.Lock()
	if len(changes) != 1 || changes[0] != "0xaa" {
		t.Errorf("expected a single change to 0xaa, got %v", changes)
	}
	mu.Unlock()

	if n.len() != 1 || n.msg[0] != DefaultLockedMessage {
		t.Errorf("expected one lock notification, got %v", n.msg)
	}

	// locked: no derivation nor toggle
	if err := p.DeriveAddress(ctx, "hd/0"); !errors.Is(err, ErrLocked) {
		t.Errorf("DeriveAddress while locked err:%v", err)
	}
	if err := p.ToggleKeyring(ctx); !errors.Is(err, ErrLocked) {
		t.Errorf("ToggleKeyring while locked err:%v", err)
	}

	_ = p.Observe(ctx, Snapshot{Address: "0xAA", Locked: false})
	if err := p.DeriveAddress(ctx, "hd/0"); err != nil || d.count("derive hd/0") != 1 {
		t.Errorf("DeriveAddress err:%v calls:%v", err, d.calls)
	}
	if err := p.DeriveAddress(ctx, ""); !errors.Is(err, ErrNoGroup) {
		t.Errorf("DeriveAddress without group err:%v", err)
	}
	if err := p.ToggleKeyring(ctx); err != nil || d.count("lock") != 1 {
		t.Errorf("ToggleKeyring err:%v calls:%v", err, d.calls)
	}

	mu.Lock()
	if len(changes) != 2 || changes[1] != "" {
		t.Errorf("locking should report an empty address, got %v", changes)
	}
	mu.Unlock()
}

func TestPanelStopped(t *testing.T) {
	p, cancel := startPanel(t, &fakeDispatcher{}, nil, nil)
	cancel()
	<-p.done

	if err := p.RequestSelection(context.Background(), "0xaa"); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}
