package rv32

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Stats counts what the machine has done since construction.
type Stats struct {
	// Cycles is the number of ticks advanced.
	Cycles uint64 `json:"cycles"`
	// Instructions is the number of instructions retired.
	Instructions uint64 `json:"instructions"`
	// Stalls is the number of ticks a wait state held without progress.
	Stalls uint64 `json:"stalls"`
}

// Machine couples one core to one bus and advances them in lock step: each
// tick the bus observes the core's current outputs and the core observes the
// bus response for the same tick.
type Machine struct {
	Core *Core
	Bus  Bus

	stats Stats
}

func NewMachine(core *Core, bus Bus) *Machine {
	return &Machine{Core: core, Bus: bus}
}

// Tick advances the machine by one clock. The only error it can produce is
// the opt-in strict-undefined trap; in default configuration it never fails,
// matching the hardware's absent fault path.
func (m *Machine) Tick() error {
	prev := m.Core.State()
	in := m.Bus.Tick(m.Core.BusOut())
	m.Core.Tick(in)
	m.stats.Cycles++

	cur := m.Core.State()
	if prev == cur && (cur == StateWaitInstr || cur == StateWaitALUOrMem) {
		m.stats.Stalls++
	}
	// every instruction passes EXECUTE exactly once; the reset fall-through
	// does not, so it is not counted
	if prev == StateExecute {
		m.stats.Instructions++
	}
	if m.Core.cfg.StrictUndefined && m.Core.Undefined() {
		return fmt.Errorf("undefined instruction %08x at pc %08x", m.Core.Instr().Word, m.Core.InstrPC())
	}
	return nil
}

// Run ticks until the predicate holds or the tick budget runs out, and
// reports whether the predicate was reached. A nil predicate runs the full
// budget. The budget guards against the (accepted) possibility of a bus that
// never releases.
func (m *Machine) Run(maxTicks uint64, done func(*Core) bool) (bool, error) {
	for i := uint64(0); i < maxTicks; i++ {
		if done != nil && done(m.Core) {
			return true, nil
		}
		if err := m.Tick(); err != nil {
			return false, err
		}
	}
	return done != nil && done(m.Core), nil
}

// RunUntilParked ticks until the program settles into a one-instruction loop
// (the idiom the original firmware ends on), within the tick budget.
func (m *Machine) RunUntilParked(maxTicks uint64) (bool, error) {
	return m.Run(maxTicks, func(c *Core) bool {
		return c.Parked() && c.State() == StateFetchInstr
	})
}

// Parked reports that the program has settled in a one-instruction loop.
func (m *Machine) Parked() bool {
	return m.Core.Parked()
}

func (m *Machine) Stats() Stats {
	return m.stats
}

// Snapshot is the JSON-serializable machine state, for CLI dumps and
// stall-fidelity comparisons in tests. It captures everything an observer of
// the core can see.
type Snapshot struct {
	PC        hexutil.Uint64     `json:"pc"`
	State     string             `json:"state"`
	Instr     hexutil.Uint64     `json:"insn"`
	Registers [32]hexutil.Uint64 `json:"registers"`
	Cycle     uint64             `json:"cycle"`
	Stats     Stats              `json:"stats"`
}

func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{
		PC:    hexutil.Uint64(m.Core.PC()),
		State: m.Core.State().String(),
		Instr: hexutil.Uint64(m.Core.Instr().Word),
		Cycle: m.Core.Cycle(),
		Stats: m.stats,
	}
	for i, r := range m.Core.Registers() {
		s.Registers[i] = hexutil.Uint64(r)
	}
	return s
}
