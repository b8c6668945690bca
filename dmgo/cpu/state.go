package cpu

// State is a flat, gob-friendly snapshot of every bit of CPU state a save
// state needs to resume execution exactly where it left off.
type State struct {
	A, B, C, D, E, H, L, F uint8
	SP, PC                 uint16

	IME        bool
	IMEEnqueue int
	Halted     bool
	Stopped    bool
}

// State captures the current register file and interrupt bookkeeping.
func (c *CPU) State() State {
	a, b, cc, d, e, h, l, f := c.Registers8()
	return State{
		A: a, B: b, C: cc, D: d, E: e, H: h, L: l, F: f,
		SP: c.sp, PC: c.pc,
		IME:        c.ime,
		IMEEnqueue: c.imeEnqueue,
		Halted:     c.halted,
		Stopped:    c.stopped,
	}
}

// LoadState restores a previously captured register file. It never
// triggers interrupt dispatch or EI re-arming; the enqueue countdown and
// IME flag are written back verbatim.
func (c *CPU) LoadState(s State) {
	c.SetState(s.A, s.B, s.D, s.E, s.H, s.L, s.F, s.C, s.SP, s.PC)
	c.SetInterruptState(s.IME, s.Halted, s.IMEEnqueue)
	c.stopped = s.Stopped
}
