// Package manager runs the status pipelines. Each pipeline is a monitor and
// a notifier joined by a pipe; a pipeline that fails stays down and the
// others carry on.
package manager

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hoppxi/sgstatus/internal/pipe"
	"github.com/hoppxi/sgstatus/internal/pipeline"
	"github.com/hoppxi/sgstatus/internal/tray"
	"github.com/hoppxi/sgstatus/internal/watchers"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

// ShutdownGrace bounds how long Run waits for pipelines after ctx is done.
const ShutdownGrace = 3 * time.Second

var ErrAlreadyStarted = errors.New("manager: already started")

// Notifier consumes one pipeline's icons.
type Notifier interface {
	Run(ctx context.Context, icons *pipe.Receiver) error
}

// NotifierFactory builds the notifier for the named pipeline.
type NotifierFactory func(name string) (Notifier, error)

func trayNotifier(name string) (Notifier, error) {
	return tray.New(name)
}

type AppManager struct {
	mu      sync.Mutex
	wg      *conc.WaitGroup
	started bool

	watchers    []watchers.Watcher
	newNotifier NotifierFactory
}

// New returns a manager for the network, power and volume pipelines.
func New() *AppManager {
	return NewWith(trayNotifier,
		watchers.NewNetworkWatcher(nil),
		watchers.NewBatteryWatcher(nil),
		watchers.NewAudioWatcher(),
	)
}

func NewWith(newNotifier NotifierFactory, ws ...watchers.Watcher) *AppManager {
	return &AppManager{
		wg:          conc.NewWaitGroup(),
		watchers:    ws,
		newNotifier: newNotifier,
	}
}

// Start spawns every pipeline and returns at once.
func (m *AppManager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return ErrAlreadyStarted
	}
	m.started = true

	for _, w := range m.watchers {
		m.startPipeline(ctx, w)
	}
	slog.Info("started pipelines", "count", len(m.watchers))
	return nil
}

func (m *AppManager) startPipeline(ctx context.Context, w watchers.Watcher) {
	name := w.Name()
	tx, rx := pipe.New()

	m.wg.Go(func() {
		defer tx.Close()
		guard(name, "monitor", func() error { return w.Run(ctx, tx) })
	})

	m.wg.Go(func() {
		guard(name, "notifier", func() error {
			n, err := m.newNotifier(name)
			if err != nil {
				rx.Close()
				return err
			}
			return n.Run(ctx, rx)
		})
	})
}

// guard runs f and logs how it ended. Panics stop at this boundary.
func guard(name, component string, f func() error) {
	log := slog.Default().With("pipeline", name, "component", component)

	var err error
	if r := panics.Try(func() { err = f() }); r != nil {
		log.Error("pipeline panicked", "panic", r.Value, "stack", string(r.Stack))
		return
	}

	switch {
	case err == nil:
		log.Info("pipeline stopped")
	case errors.Is(err, context.Canceled):
		log.Info("pipeline cancelled")
	case pipeline.IsFatal(err):
		log.Error("pipeline stopped", "kind", pipeline.KindOf(err), "error", err)
	default:
		log.Warn("pipeline stopped", "error", err)
	}
}

// Wait blocks until every pipeline goroutine returned or timeout passed. It
// reports whether they all returned.
func (m *AppManager) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Run starts the default pipelines and blocks until ctx is done.
func Run(ctx context.Context) error {
	return run(ctx, New())
}

func run(ctx context.Context, m *AppManager) error {
	if err := m.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	if !m.Wait(ShutdownGrace) {
		slog.Warn("pipelines still running at shutdown", "grace", ShutdownGrace)
	}
	return nil
}
