// Package bridge lets callbacks that cannot capture state reach the sender of
// a pipe. A Slot is filled once before the callbacks are installed and read
// on every invocation, from whatever goroutine the event source uses.
package bridge

import (
	"errors"
	"sync"

	"github.com/hoppxi/sgstatus/internal/pipe"
	"github.com/hoppxi/sgstatus/pkg/iconsinfo"
)

var (
	ErrUninitialized      = errors.New("bridge: slot not initialized")
	ErrAlreadyInitialized = errors.New("bridge: slot already initialized")
)

// Slot holds one producer handle. The zero value is an empty slot.
type Slot struct {
	mu sync.Mutex
	tx *pipe.Sender
}

// Init stores tx. Only the first call succeeds.
func (s *Slot) Init(tx *pipe.Sender) error {
	if tx == nil {
		return errors.New("bridge: nil sender")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return ErrAlreadyInitialized
	}
	s.tx = tx
	return nil
}

// Sender returns the stored producer. The lock is released before the
// caller uses it.
func (s *Slot) Sender() (*pipe.Sender, bool) {
	s.mu.Lock()
	tx := s.tx
	s.mu.Unlock()
	return tx, tx != nil
}

// Send delivers icon through the stored producer.
func (s *Slot) Send(icon iconsinfo.Icon) error {
	tx, ok := s.Sender()
	if !ok {
		return ErrUninitialized
	}
	return tx.Send(icon)
}
