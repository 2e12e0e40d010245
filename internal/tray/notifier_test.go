package tray

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hoppxi/sgstatus/internal/pipe"
	"github.com/hoppxi/sgstatus/internal/pipeline"
	"github.com/hoppxi/sgstatus/pkg/iconsinfo"
)

type fakeTransport struct {
	mu          sync.Mutex
	item        *Item
	publishErr  error
	registerErr error
	icons       []iconsinfo.Icon
	newIcons    int
	polls       int
	waits       []time.Duration
	done        chan struct{}
	closeOnce   sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{done: make(chan struct{})}
}

func (f *fakeTransport) Publish(item *Item) error {
	f.item = item
	return f.publishErr
}

func (f *fakeTransport) Register(context.Context) error { return f.registerErr }

func (f *fakeTransport) SetIcon(icon iconsinfo.Icon) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.icons = append(f.icons, icon)
	return nil
}

func (f *fakeTransport) NewIcon() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.newIcons++
	return nil
}

func (f *fakeTransport) Poll(wait time.Duration) error {
	f.mu.Lock()
	f.polls++
	f.waits = append(f.waits, wait)
	f.mu.Unlock()

	select {
	case <-f.done:
		return errDisconnected
	default:
	}
	if wait > 0 {
		select {
		case <-f.done:
			return errDisconnected
		case <-time.After(time.Millisecond):
		}
	}
	return nil
}

func (f *fakeTransport) Done() <-chan struct{} { return f.done }

func (f *fakeTransport) Close() error {
	f.closeOnce.Do(func() { close(f.done) })
	return nil
}

func (f *fakeTransport) snapshot() ([]iconsinfo.Icon, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]iconsinfo.Icon(nil), f.icons...), f.newIcons
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestNewItem(t *testing.T) {
	item := NewItem("power")
	if !strings.HasPrefix(item.ID, "sgstatus-power-") {
		t.Errorf("unexpected id %q", item.ID)
	}
	if item.IconName != iconsinfo.Loading {
		t.Errorf("expected loading icon, got %q", item.IconName)
	}
	if NewItem("power").ID == item.ID {
		t.Error("expected distinct ids")
	}

	props := item.properties()[ItemInterface]
	for _, name := range []string{"IconName", "Id", "Category", "Title", "Status", "Menu", "ItemIsMenu", "IconThemePath", "AttentionIconName"} {
		if _, ok := props[name]; !ok {
			t.Errorf("missing property %s", name)
		}
	}
	if props["Category"].Value != CategoryHardware || props["Status"].Value != StatusActive {
		t.Errorf("unexpected category/status %v/%v", props["Category"].Value, props["Status"].Value)
	}
	if props["Menu"].Value != NoMenu {
		t.Errorf("expected menu %s, got %v", NoMenu, props["Menu"].Value)
	}
}

func TestNotifierPublishesInOrder(t *testing.T) {
	tr := newFakeTransport()
	n, err := NewWithTransport("network", tr)
	if err != nil {
		t.Fatalf("NewWithTransport: %v", err)
	}
	if n.State() != StateUnregistered {
		t.Fatalf("expected unregistered, got %s", n.State())
	}

	tx, rx := pipe.New()
	done := make(chan error, 1)
	go func() { done <- n.Run(context.Background(), rx) }()

	want := []iconsinfo.Icon{iconsinfo.NetworkWiredAcquiring, iconsinfo.NetworkTransmitReceive, iconsinfo.NetworkWiredOffline}
	for _, icon := range want {
		if err := tx.Send(icon); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
	waitFor(t, func() bool { _, c := tr.snapshot(); return c == len(want) })

	got, newIcons := tr.snapshot()
	if newIcons != len(want) {
		t.Errorf("expected %d NewIcon signals, got %d", len(want), newIcons)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("icon %d: expected %q, got %q", i, want[i], got[i])
		}
	}
	if n.State() != StateRegistered {
		t.Errorf("expected registered, got %s", n.State())
	}

	tr.Close()
	select {
	case err := <-done:
		if pipeline.KindOf(err) != pipeline.KindConnection {
			t.Errorf("expected connection error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notifier did not stop on transport loss")
	}
	if n.icon != iconsinfo.NetworkWiredOffline || n.published != len(want) {
		t.Errorf("unexpected final state icon=%q published=%d", n.icon, n.published)
	}
	if err := tx.Send(iconsinfo.Loading); !errors.Is(err, pipe.ErrReceiverGone) {
		t.Errorf("expected receiver gone after Run, got %v", err)
	}
}

func TestNotifierRegistrationFailure(t *testing.T) {
	tr := newFakeTransport()
	tr.registerErr = errors.New("watcher rejected item")
	n, err := NewWithTransport("power", tr)
	if err != nil {
		t.Fatalf("NewWithTransport: %v", err)
	}

	tx, rx := pipe.New()
	_ = tx.Send(iconsinfo.BatteryGood)

	err = n.Run(context.Background(), rx)
	if pipeline.KindOf(err) != pipeline.KindRegistration {
		t.Fatalf("expected registration error, got %v", err)
	}
	if n.State() != StateFailed {
		t.Errorf("expected failed, got %s", n.State())
	}
	if icons, signals := tr.snapshot(); len(icons) != 0 || signals != 0 {
		t.Errorf("expected zero publications, got %d icons %d signals", len(icons), signals)
	}
}

func TestNotifierPublishFailure(t *testing.T) {
	tr := newFakeTransport()
	tr.publishErr = errors.New("path taken")
	if _, err := NewWithTransport("volume", tr); pipeline.KindOf(err) != pipeline.KindConnection {
		t.Errorf("expected connection error, got %v", err)
	}
}

func TestNotifierFrozenIcon(t *testing.T) {
	tr := newFakeTransport()
	n, _ := NewWithTransport("volume", tr)

	tx, rx := pipe.New()
	_ = tx.Send(iconsinfo.VolumeLow)
	tx.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx, rx) }()

	waitFor(t, func() bool {
		tr.mu.Lock()
		defer tr.mu.Unlock()
		return tr.polls > 5
	})

	tr.mu.Lock()
	lastWait := tr.waits[len(tr.waits)-1]
	tr.mu.Unlock()
	if lastWait != PollInterval {
		t.Errorf("expected idle poll of %s, got %s", PollInterval, lastWait)
	}
	if icons, _ := tr.snapshot(); len(icons) != 1 || icons[0] != iconsinfo.VolumeLow {
		t.Errorf("expected the last icon to stay, got %v", icons)
	}
	if n.State() != StateRegistered {
		t.Errorf("expected registered while frozen, got %s", n.State())
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notifier did not stop")
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateUnregistered: "unregistered",
		StateRegistering:  "registering",
		StateRegistered:   "registered",
		StateFailed:       "failed",
		State(9):          "state(9)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}
