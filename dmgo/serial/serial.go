// Package serial provides a minimal SB/SC link-cable stub. The core has
// no networking: a connected transfer always reads back 0xFF, as if no
// peer were ever attached, but still completes and raises the serial
// interrupt like real hardware would for an unplugged cable.
package serial

import (
	"log/slog"

	"github.com/adelrune/dmgo/dmgo/addr"
	"github.com/adelrune/dmgo/dmgo/bit"
)

// Port is the interface the bus expects from a serial device; the only
// valid addresses are addr.SB and addr.SC.
type Port interface {
	Write(address uint16, value byte)
	Read(address uint16) byte
	Step(cycles int)
	Reset()
}

// Stub is a serial device that completes transfers immediately (or after
// a fixed ~4096-cycle countdown) and logs the outgoing byte stream,
// which is handy for test ROMs that report results over the link port.
type Stub struct {
	irq       func()
	sb, sc    byte
	active    bool
	countdown int
	immediate bool
	line      []byte
}

// NewStub creates a serial stub. irq is called whenever a transfer
// completes and should request the serial interrupt on the bus.
func NewStub(irq func()) *Stub {
	s := &Stub{irq: irq, immediate: true}
	s.Reset()
	return s
}

func (s *Stub) Write(address uint16, value byte) {
	switch address {
	case addr.SB:
		s.sb = value
	case addr.SC:
		s.sc = value
		s.maybeStart()
	}
}

func (s *Stub) Read(address uint16) byte {
	switch address {
	case addr.SB:
		return s.sb
	case addr.SC:
		return s.sc
	default:
		return 0xFF
	}
}

func (s *Stub) Step(cycles int) {
	if s.immediate || !s.active {
		return
	}
	s.countdown -= cycles
	if s.countdown <= 0 {
		s.complete()
	}
}

func (s *Stub) Reset() {
	s.sb, s.sc = 0, 0
	s.active = false
	s.countdown = 0
	s.line = s.line[:0]
}

func (s *Stub) maybeStart() {
	if s.active {
		return
	}
	if !bit.IsSet(7, s.sc) || !bit.IsSet(0, s.sc) {
		return
	}

	b := s.sb
	if b == 0 || b == '\n' || b == '\r' {
		if len(s.line) > 0 {
			slog.Info("serial", "line", string(s.line))
			s.line = s.line[:0]
		}
	} else {
		s.line = append(s.line, b)
	}

	if s.immediate {
		s.complete()
		return
	}
	s.active = true
	s.countdown = 4096
}

func (s *Stub) complete() {
	s.sb = 0xFF
	s.sc = bit.Reset(7, s.sc)
	s.active = false
	s.countdown = 0
	if s.irq != nil {
		s.irq()
	}
}
