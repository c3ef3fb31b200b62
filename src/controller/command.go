package controller

import (
	"errors"
	"sync"
)

// ErrDisconnected is returned by Send once the generation loop has stopped
// receiving.
var ErrDisconnected = errors.New("command channel disconnected")

// ----- Command ----- //

// Command asks the generation loop to adopt a mode.
type Command struct {
	mode Mode
}

// NewCommand ...
func NewCommand(mode Mode) Command {
	return Command{mode: mode}
}

// Mode ...
func (c Command) Mode() Mode {
	return c.mode
}

// ----- Channel ----- //

// commandSlot holds only the most recent command. A newer Send overwrites an
// undrained one, which is all DrainLatest would return anyway.
type commandSlot struct {
	sync.Mutex
	latest    Command
	pending   bool
	coalesced int
	closed    bool
}

// Sender is the producer end of the command channel. It is safe for
// concurrent use.
type Sender struct {
	slot *commandSlot
}

// Receiver is the consumer end of the command channel. Only the generation
// loop drains it.
type Receiver struct {
	slot *commandSlot
}

// NewChannel ...
func NewChannel() (*Sender, *Receiver) {
	slot := &commandSlot{}
	return &Sender{slot: slot}, &Receiver{slot: slot}
}

// Send queues cmd without blocking.
func (s *Sender) Send(cmd Command) error {
	s.slot.Lock()
	defer s.slot.Unlock()
	if s.slot.closed {
		return ErrDisconnected
	}
	if s.slot.pending {
		s.slot.coalesced++
	}
	s.slot.latest = cmd
	s.slot.pending = true
	return nil
}

// DrainLatest takes every pending command and returns the mode of the last
// one sent. ok is false when nothing was pending.
func (r *Receiver) DrainLatest() (mode Mode, ok bool) {
	mode, _, ok = r.drain()
	return mode, ok
}

// drain also reports how many earlier commands were discarded.
func (r *Receiver) drain() (Mode, int, bool) {
	r.slot.Lock()
	defer r.slot.Unlock()
	if !r.slot.pending {
		return Mode{}, 0, false
	}
	cmd, dropped := r.slot.latest, r.slot.coalesced
	r.slot.latest = Command{}
	r.slot.pending = false
	r.slot.coalesced = 0
	return cmd.mode, dropped, true
}

// Close disconnects the channel. Pending commands are dropped.
func (r *Receiver) Close() {
	r.slot.Lock()
	defer r.slot.Unlock()
	r.slot.closed = true
	r.slot.pending = false
	r.slot.latest = Command{}
	r.slot.coalesced = 0
}
