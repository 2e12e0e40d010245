package watchers

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hoppxi/sgstatus/internal/bridge"
	"github.com/hoppxi/sgstatus/internal/pipe"
	"github.com/hoppxi/sgstatus/internal/pipeline"
	"github.com/hoppxi/sgstatus/internal/subscribe"
	"github.com/hoppxi/sgstatus/pkg/audioinfo"
	"github.com/hoppxi/sgstatus/pkg/iconsinfo"
	"github.com/jfreymuth/pulse/proto"
)

const (
	pulseClientName    = "sgstatusContext"
	pulseConnectTries  = 10
	pulseConnectDelay  = 200 * time.Millisecond
	quitSubscribeError = 1
)

// volumeSlot is how the pulse callbacks reach the volume pipe. It is filled
// by AudioWatcher.Run before any callback is installed.
var volumeSlot = new(bridge.Slot)

// AudioWatcher follows the default PulseAudio sink.
type AudioWatcher struct {
	// Dial opens a server connection; nil dials the session default.
	Dial func() (subscribe.PulseServer, error)
	// RetryDelay is the pause between failed connection attempts.
	RetryDelay time.Duration
}

func NewAudioWatcher() *AudioWatcher {
	return &AudioWatcher{RetryDelay: pulseConnectDelay}
}

func (w *AudioWatcher) Name() string { return "volume" }

func (w *AudioWatcher) dial() (subscribe.PulseServer, error) {
	if w.Dial != nil {
		return w.Dial()
	}
	return subscribe.DialPulse("")
}

// Run owns the calling goroutine for the lifetime of the pulse mainloop.
func (w *AudioWatcher) Run(ctx context.Context, out *pipe.Sender) error {
	log := logger(w.Name())

	if err := volumeSlot.Init(out); err != nil {
		return pipeline.Connection("volume bridge", err)
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	loop := subscribe.NewMainloop()
	pc := subscribe.NewPulseContext(loop, pulseClientName)

	attempt := 0
	connect := func() error {
		attempt++
		err := pc.Connect(w.dial)
		if err != nil {
			log.Error("could not connect to pulse", "attempt", attempt, "error", err)
		}
		return err
	}
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(w.RetryDelay), pulseConnectTries-1)
	if err := backoff.Retry(connect, backoff.WithContext(policy, ctx)); err != nil {
		return pipeline.Connection("pulse", errors.New("pulse connection failed, gave up"))
	}
	defer pc.Disconnect()

	stop := context.AfterFunc(ctx, func() { loop.Quit(0) })
	defer stop()

	if err := waitReady(pc); err != nil {
		return err
	}
	log.Info("starting monitor")

	pc.Subscribe(proto.SubscriptionMaskSink, subscribeSuccessCallback)
	pc.SetSubscribeCallback(sinkEventCallback)
	pc.GetServerInfo(serverInfoCallback)

	code := loop.Run()
	log.Info("pulse mainloop stopped", "code", code)
	if code == quitSubscribeError {
		return pipeline.Subscription("pulse sink", errors.New("subscribe rejected"))
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return pipeline.Connection("pulse mainloop", subscribe.ErrQuit)
}

// waitReady drives the loop until the handshake finished.
func waitReady(pc *subscribe.PulseContext) error {
	for {
		if _, err := pc.Mainloop().Iterate(true); err != nil {
			return pipeline.Connection("pulse mainloop", err)
		}
		switch s := pc.State(); s {
		case subscribe.ContextReady:
			return nil
		case subscribe.ContextFailed, subscribe.ContextTerminated:
			return pipeline.Connection("pulse context", errors.New("context "+s.String()))
		}
	}
}

func subscribeSuccessCallback(c *subscribe.PulseContext, ok bool) {
	if !ok {
		logger("volume").Error("pulse sink subscription failed")
		c.Mainloop().Quit(quitSubscribeError)
	}
}

func sinkEventCallback(c *subscribe.PulseContext, facility, _ proto.SubscriptionEventType, _ uint32) {
	if facility != proto.EventSink {
		return
	}
	c.GetServerInfo(serverInfoCallback)
}

func serverInfoCallback(c *subscribe.PulseContext, info *proto.GetServerInfoReply) {
	if info == nil {
		sendVolume(iconsinfo.VolumeMuted, "server info unavailable")
		return
	}
	// The reply belongs to the protocol reader; keep our own copy.
	sink := strings.Clone(info.DefaultSinkName)
	if sink == "" {
		sendVolume(iconsinfo.VolumeMuted, "no default sink")
		return
	}
	c.GetSinkInfoByName(sink, sinkInfoCallback)
}

func sinkInfoCallback(_ *subscribe.PulseContext, info *proto.GetSinkInfoReply) {
	if info == nil {
		sendVolume(iconsinfo.VolumeMuted, "sink info unavailable")
		return
	}
	st := audioinfo.FromSink(info)
	logger("volume").Debug("gathered volume data", "sink", st.Name, "muted", st.Muted, "level", st.Level)
	sendVolume(st.Icon(), "sink")
}

func sendVolume(icon iconsinfo.Icon, reason string) {
	log := logger("volume")
	if err := volumeSlot.Send(icon); err != nil {
		log.Error("could not send icon", "icon", icon, "reason", reason, "error", pipeline.Delivery("send icon", err))
		return
	}
	log.Info("sent icon", "icon", icon, "reason", reason)
}
