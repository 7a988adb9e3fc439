package rv32

// RegFile is the bank of 32 general-purpose registers. x0 is hardwired to
// zero: writes to it are discarded, so reads never need a guard. The one-tick
// read latency of the synchronous ports is modeled by the state machine's
// FETCH_REGS phase, not here.
type RegFile struct {
	regs [32]uint32
}

func (r *RegFile) Read(i uint8) uint32 {
	return r.regs[i&31]
}

func (r *RegFile) Write(i uint8, v uint32) {
	if i&31 == 0 {
		return
	}
	r.regs[i&31] = v
}

// Dump copies out the full register state, for snapshots and tests.
func (r *RegFile) Dump() [32]uint32 {
	return r.regs
}
