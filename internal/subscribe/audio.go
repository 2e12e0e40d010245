package subscribe

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse/proto"
)

// PulseServer is the subset of the PulseAudio native protocol the audio
// context speaks. Requests block until the server replies.
type PulseServer interface {
	SetClientName(name string) error
	Subscribe(mask proto.SubscriptionMask) error
	ServerInfo() (*proto.GetServerInfoReply, error)
	SinkInfo(name string) (*proto.GetSinkInfoReply, error)
	// SetEventHandler installs the handler the protocol reader calls for
	// unsolicited messages, on the reader's own goroutine.
	SetEventHandler(h func(any))
	Close() error
}

type protoServer struct {
	client *proto.Client
	conn   net.Conn
}

// DialPulse connects to a PulseAudio server; an empty address means the
// default server of the session.
func DialPulse(server string) (PulseServer, error) {
	client, conn, err := proto.Connect(server)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to pulse server: %w", err)
	}
	return &protoServer{client: client, conn: conn}, nil
}

func (s *protoServer) SetClientName(name string) error {
	props := proto.PropList{"application.name": proto.PropListString(name)}
	return s.client.Request(&proto.SetClientName{Props: props}, &proto.SetClientNameReply{})
}

func (s *protoServer) Subscribe(mask proto.SubscriptionMask) error {
	return s.client.Request(&proto.Subscribe{Mask: mask}, nil)
}

func (s *protoServer) ServerInfo() (*proto.GetServerInfoReply, error) {
	var reply proto.GetServerInfoReply
	if err := s.client.Request(&proto.GetServerInfo{}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (s *protoServer) SinkInfo(name string) (*proto.GetSinkInfoReply, error) {
	var reply proto.GetSinkInfoReply
	if err := s.client.Request(&proto.GetSinkInfo{SinkIndex: proto.Undefined, SinkName: name}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (s *protoServer) SetEventHandler(h func(any)) { s.client.Callback = h }

func (s *protoServer) Close() error { return s.conn.Close() }

// ErrQuit is returned by Iterate once Quit was called.
var ErrQuit = errors.New("mainloop: quit")

// Mainloop runs queued operations one at a time on the goroutine that calls
// Iterate or Run. Operations may be posted from any goroutine.
type Mainloop struct {
	mu       sync.Mutex
	ops      []func()
	quit     bool
	quitCode int
	wake     chan struct{}
}

func NewMainloop() *Mainloop {
	return &Mainloop{wake: make(chan struct{}, 1)}
}

func (m *Mainloop) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Mainloop) post(op func()) {
	m.mu.Lock()
	m.ops = append(m.ops, op)
	m.mu.Unlock()
	m.signal()
}

// Iterate runs at most one queued operation and reports how many ran. With
// block set it waits for an operation or Quit.
func (m *Mainloop) Iterate(block bool) (int, error) {
	for {
		m.mu.Lock()
		if m.quit {
			m.mu.Unlock()
			return 0, ErrQuit
		}
		if len(m.ops) > 0 {
			op := m.ops[0]
			m.ops[0] = nil
			m.ops = m.ops[1:]
			m.mu.Unlock()
			op()
			return 1, nil
		}
		m.mu.Unlock()

		if !block {
			return 0, nil
		}
		<-m.wake
	}
}

// Run dispatches operations until Quit and returns the quit code.
func (m *Mainloop) Run() int {
	for {
		if _, err := m.Iterate(true); err != nil {
			m.mu.Lock()
			defer m.mu.Unlock()
			return m.quitCode
		}
	}
}

// Quit stops Run. Operations still queued are dropped.
func (m *Mainloop) Quit(code int) {
	m.mu.Lock()
	if !m.quit {
		m.quit = true
		m.quitCode = code
		m.ops = nil
	}
	m.mu.Unlock()
	m.signal()
}

type ContextState int32

const (
	ContextUnconnected ContextState = iota
	ContextConnecting
	ContextSettingName
	ContextReady
	ContextFailed
	ContextTerminated
)

func (s ContextState) String() string {
	switch s {
	case ContextUnconnected:
		return "unconnected"
	case ContextConnecting:
		return "connecting"
	case ContextSettingName:
		return "setting-name"
	case ContextReady:
		return "ready"
	case ContextFailed:
		return "failed"
	case ContextTerminated:
		return "terminated"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Callbacks receive the context they were issued on and nothing else. State
// they need beyond that must be reachable without capture.
type (
	SubscribeCallback  func(c *PulseContext, facility, kind proto.SubscriptionEventType, index uint32)
	SuccessCallback    func(c *PulseContext, ok bool)
	ServerInfoCallback func(c *PulseContext, info *proto.GetServerInfoReply)
	SinkInfoCallback   func(c *PulseContext, info *proto.GetSinkInfoReply)
)

// PulseContext drives one server connection from a Mainloop. Replies and
// subscription events are delivered to callbacks on the loop's goroutine.
type PulseContext struct {
	loop   *Mainloop
	name   string
	server PulseServer
	state  atomic.Int32

	subscribeCb SubscribeCallback
}

func NewPulseContext(loop *Mainloop, name string) *PulseContext {
	return &PulseContext{loop: loop, name: name}
}

func (c *PulseContext) Mainloop() *Mainloop { return c.loop }

func (c *PulseContext) State() ContextState { return ContextState(c.state.Load()) }

func (c *PulseContext) setState(s ContextState) {
	old := ContextState(c.state.Swap(int32(s)))
	if old != s {
		slog.Debug("pulse context state", "from", old, "to", s)
	}
}

// Connect dials the server and queues the client-name handshake. The context
// turns Ready once the loop has run the handshake. A failed dial leaves the
// context unconnected so Connect can be tried again.
func (c *PulseContext) Connect(dial func() (PulseServer, error)) error {
	if s := c.State(); s != ContextUnconnected {
		return fmt.Errorf("pulse context: connect in state %s", s)
	}
	c.setState(ContextConnecting)

	server, err := dial()
	if err != nil {
		c.setState(ContextUnconnected)
		return err
	}
	c.server = server
	server.SetEventHandler(c.dispatch)

	c.setState(ContextSettingName)
	c.loop.post(func() {
		if err := server.SetClientName(c.name); err != nil {
			slog.Warn("pulse client name rejected", "error", err)
			c.setState(ContextFailed)
			return
		}
		c.setState(ContextReady)
	})
	return nil
}

// Disconnect closes the connection for good.
func (c *PulseContext) Disconnect() {
	if c.server != nil {
		_ = c.server.Close()
	}
	c.setState(ContextTerminated)
}

// dispatch runs on the protocol reader's goroutine and only queues work.
func (c *PulseContext) dispatch(msg any) {
	ev, ok := msg.(*proto.SubscribeEvent)
	if !ok {
		return
	}
	facility := ev.Event.GetFacility()
	kind := ev.Event.GetType()
	index := ev.Index
	c.loop.post(func() {
		if cb := c.subscribeCb; cb != nil {
			cb(c, facility, kind, index)
		}
	})
}

// SetSubscribeCallback must be called from the loop's goroutine.
func (c *PulseContext) SetSubscribeCallback(cb SubscribeCallback) {
	c.subscribeCb = cb
}

func (c *PulseContext) Subscribe(mask proto.SubscriptionMask, cb SuccessCallback) {
	c.loop.post(func() {
		err := c.server.Subscribe(mask)
		if err != nil {
			slog.Warn("pulse subscribe failed", "error", err)
		}
		if cb != nil {
			cb(c, err == nil)
		}
	})
}

// GetServerInfo calls cb with the server info, or with nil if the query
// failed.
func (c *PulseContext) GetServerInfo(cb ServerInfoCallback) {
	c.loop.post(func() {
		info, err := c.server.ServerInfo()
		if err != nil {
			slog.Warn("pulse server info failed", "error", err)
			info = nil
		}
		cb(c, info)
	})
}

// GetSinkInfoByName calls cb with the sink, or with nil if the query failed.
func (c *PulseContext) GetSinkInfoByName(name string, cb SinkInfoCallback) {
	c.loop.post(func() {
		info, err := c.server.SinkInfo(name)
		if err != nil {
			slog.Warn("pulse sink info failed", "sink", name, "error", err)
			info = nil
		}
		cb(c, info)
	})
}
