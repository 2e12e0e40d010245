package watchers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hoppxi/sgstatus/internal/bridge"
	"github.com/hoppxi/sgstatus/internal/pipe"
	"github.com/hoppxi/sgstatus/internal/pipeline"
	"github.com/hoppxi/sgstatus/internal/subscribe"
	"github.com/hoppxi/sgstatus/pkg/iconsinfo"
	"github.com/jfreymuth/pulse/proto"
)

type fakePulse struct {
	mu      sync.Mutex
	subErr  error
	infoErr error
	def     string
	sinks   map[string]*proto.GetSinkInfoReply
	handler func(any)
	ready   chan struct{}
}

func newFakePulse(def string, sink *proto.GetSinkInfoReply) *fakePulse {
	f := &fakePulse{def: def, sinks: map[string]*proto.GetSinkInfoReply{}, ready: make(chan struct{})}
	if sink != nil {
		f.sinks[sink.SinkName] = sink
	}
	return f
}

func (f *fakePulse) SetClientName(string) error { return nil }

func (f *fakePulse) Subscribe(proto.SubscriptionMask) error { return f.subErr }

func (f *fakePulse) ServerInfo() (*proto.GetServerInfoReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return &proto.GetServerInfoReply{DefaultSinkName: f.def}, nil
}

func (f *fakePulse) SinkInfo(name string) (*proto.GetSinkInfoReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sinks[name]
	if !ok {
		return nil, errors.New("no such entity")
	}
	cp := *s
	return &cp, nil
}

func (f *fakePulse) SetEventHandler(h func(any)) {
	f.mu.Lock()
	f.handler = h
	f.mu.Unlock()
	close(f.ready)
}

func (f *fakePulse) emit(msg any) {
	<-f.ready
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	h(msg)
}

func (f *fakePulse) setSink(s *proto.GetSinkInfoReply) {
	f.mu.Lock()
	f.sinks[s.SinkName] = s
	f.mu.Unlock()
}

func (f *fakePulse) Close() error { return nil }

func sink(name string, muted bool, pct uint32) *proto.GetSinkInfoReply {
	vol := uint32(proto.VolumeNorm) * pct / 100
	return &proto.GetSinkInfoReply{SinkName: name, Mute: muted, ChannelVolumes: proto.ChannelVolumes{vol, vol}}
}

func newTestAudioWatcher(dial func() (subscribe.PulseServer, error)) *AudioWatcher {
	volumeSlot = new(bridge.Slot)
	return &AudioWatcher{Dial: dial, RetryDelay: time.Millisecond}
}

func TestAudioWatcherFollowsSink(t *testing.T) {
	server := newFakePulse("alsa_output", sink("alsa_output", false, 80))
	w := newTestAudioWatcher(func() (subscribe.PulseServer, error) { return server, nil })

	tx, rx := pipe.New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, tx) }()

	if got := recvIcon(t, rx); got != iconsinfo.VolumeHigh {
		t.Fatalf("expected initial %q, got %q", iconsinfo.VolumeHigh, got)
	}

	server.emit(&proto.SubscribeEvent{Event: proto.EventSource | proto.EventChange})

	server.setSink(sink("alsa_output", true, 80))
	server.emit(&proto.SubscribeEvent{Event: proto.EventSink | proto.EventChange})
	if got := recvIcon(t, rx); got != iconsinfo.VolumeMuted {
		t.Fatalf("expected %q after mute, got %q", iconsinfo.VolumeMuted, got)
	}

	server.setSink(sink("alsa_output", false, 30))
	server.emit(&proto.SubscribeEvent{Event: proto.EventSink | proto.EventChange})
	if got := recvIcon(t, rx); got != iconsinfo.VolumeMedium {
		t.Fatalf("expected %q, got %q", iconsinfo.VolumeMedium, got)
	}

	cancel()
	if err := waitDone(t, done); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if rx.Len() != 0 {
		t.Errorf("source event produced %d extra icons", rx.Len())
	}
}

func TestAudioWatcherQueryFallback(t *testing.T) {
	server := newFakePulse("gone", nil)
	w := newTestAudioWatcher(func() (subscribe.PulseServer, error) { return server, nil })

	tx, rx := pipe.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, tx) }()

	if got := recvIcon(t, rx); got != iconsinfo.VolumeMuted {
		t.Errorf("expected muted fallback, got %q", got)
	}
	cancel()
	waitDone(t, done)
}

func TestAudioWatcherRetries(t *testing.T) {
	server := newFakePulse("", nil)
	attempts := 0
	w := newTestAudioWatcher(func() (subscribe.PulseServer, error) {
		attempts++
		if attempts < 4 {
			return nil, errors.New("connection refused")
		}
		return server, nil
	})

	tx, rx := pipe.New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, tx) }()

	if got := recvIcon(t, rx); got != iconsinfo.VolumeMuted {
		t.Errorf("expected muted icon for missing default sink, got %q", got)
	}
	cancel()
	waitDone(t, done)
	if attempts != 4 {
		t.Errorf("expected 4 attempts, got %d", attempts)
	}
}

func TestAudioWatcherGivesUp(t *testing.T) {
	attempts := 0
	w := newTestAudioWatcher(func() (subscribe.PulseServer, error) {
		attempts++
		return nil, errors.New("connection refused")
	})

	tx, rx := pipe.New()
	err := w.Run(context.Background(), tx)
	if pipeline.KindOf(err) != pipeline.KindConnection {
		t.Fatalf("expected connection error, got %v", err)
	}
	if attempts != pulseConnectTries {
		t.Errorf("expected %d attempts, got %d", pulseConnectTries, attempts)
	}
	if rx.Len() != 0 {
		t.Errorf("expected no icons, got %d", rx.Len())
	}
}

func TestAudioWatcherSubscribeRejected(t *testing.T) {
	server := newFakePulse("alsa_output", sink("alsa_output", false, 50))
	server.subErr = errors.New("access denied")
	w := newTestAudioWatcher(func() (subscribe.PulseServer, error) { return server, nil })

	tx, _ := pipe.New()
	err := w.Run(context.Background(), tx)
	if pipeline.KindOf(err) != pipeline.KindSubscription {
		t.Fatalf("expected subscription error, got %v", err)
	}
}

func TestAudioWatcherSingleRun(t *testing.T) {
	volumeSlot = new(bridge.Slot)
	tx, _ := pipe.New()
	if err := volumeSlot.Init(tx); err != nil {
		t.Fatalf("Init: %v", err)
	}

	w := &AudioWatcher{Dial: func() (subscribe.PulseServer, error) {
		t.Fatal("dialed with the bridge already taken")
		return nil, nil
	}}
	if err := w.Run(context.Background(), tx); pipeline.KindOf(err) != pipeline.KindConnection {
		t.Errorf("expected connection error, got %v", err)
	}
}

func TestSinkInfoCallbackNil(t *testing.T) {
	volumeSlot = new(bridge.Slot)
	tx, rx := pipe.New()
	if err := volumeSlot.Init(tx); err != nil {
		t.Fatalf("Init: %v", err)
	}

	sinkInfoCallback(nil, nil)
	sinkInfoCallback(nil, sink("s", false, 10))

	want := []iconsinfo.Icon{iconsinfo.VolumeMuted, iconsinfo.VolumeLow}
	for _, w := range want {
		if got := recvIcon(t, rx); got != w {
			t.Errorf("expected %q, got %q", w, got)
		}
	}
}
