// Package pipe is the queue between a monitor and its notifier: unbounded,
// first in first out, with one consumer and any number of cloned producers.
//
// Sends never block. Once the receiver is closed every send fails with
// ErrReceiverGone. Recv blocks until an icon is queued, the context is done,
// or every sender has been closed and the queue is drained.
package pipe

import (
	"context"
	"errors"
	"sync"

	"github.com/hoppxi/sgstatus/pkg/iconsinfo"
)

var (
	ErrReceiverGone = errors.New("pipe: receiver closed")
	ErrSenderGone   = errors.New("pipe: all senders closed")
)

type queue struct {
	mu             sync.Mutex
	items          []iconsinfo.Icon
	senders        int
	receiverClosed bool
	ready          chan struct{}
}

// Sender is the producer half. It is safe for concurrent use.
type Sender struct {
	q      *queue
	once   sync.Once
	closed bool
}

// Receiver is the consumer half. Only one goroutine may call Recv.
type Receiver struct {
	q *queue
}

func New() (*Sender, *Receiver) {
	q := &queue{senders: 1, ready: make(chan struct{}, 1)}
	return &Sender{q: q}, &Receiver{q: q}
}

func (q *queue) wake() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Send queues icon for the receiver.
func (s *Sender) Send(icon iconsinfo.Icon) error {
	s.q.mu.Lock()
	if s.closed {
		s.q.mu.Unlock()
		return errors.New("pipe: send on closed sender")
	}
	if s.q.receiverClosed {
		s.q.mu.Unlock()
		return ErrReceiverGone
	}
	s.q.items = append(s.q.items, icon)
	s.q.mu.Unlock()

	s.q.wake()
	return nil
}

// Clone returns another producer for the same queue. The receiver sees
// ErrSenderGone only after every clone has been closed.
func (s *Sender) Clone() *Sender {
	s.q.mu.Lock()
	defer s.q.mu.Unlock()
	s.q.senders++
	return &Sender{q: s.q}
}

// Close drops this producer. Closing twice is a no-op.
func (s *Sender) Close() {
	s.once.Do(func() {
		s.q.mu.Lock()
		s.closed = true
		s.q.senders--
		s.q.mu.Unlock()
		s.q.wake()
	})
}

// Recv returns the oldest queued icon.
func (r *Receiver) Recv(ctx context.Context) (iconsinfo.Icon, error) {
	for {
		r.q.mu.Lock()
		if len(r.q.items) > 0 {
			icon := r.q.items[0]
			r.q.items[0] = ""
			r.q.items = r.q.items[1:]
			r.q.mu.Unlock()
			return icon, nil
		}
		if r.q.senders == 0 {
			r.q.mu.Unlock()
			return "", ErrSenderGone
		}
		r.q.mu.Unlock()

		select {
		case <-r.q.ready:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Len reports how many icons are waiting.
func (r *Receiver) Len() int {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	return len(r.q.items)
}

// Close makes every later Send fail and discards anything still queued.
func (r *Receiver) Close() {
	r.q.mu.Lock()
	r.q.receiverClosed = true
	r.q.items = nil
	r.q.mu.Unlock()
}
