package rv32

// State is the processor phase. Exactly one is active per tick; transitions
// are the only place PC, the bus registers and the instruction latch change.
// The hardware's one-hot encoding carries no extra meaning and maps to a
// plain enumeration.
type State uint8

const (
	StateFetchInstr State = iota
	StateWaitInstr
	StateFetchRegs
	StateExecute
	StateLoad
	StateWaitALUOrMem
	StateStore
)

func (s State) String() string {
	switch s {
	case StateFetchInstr:
		return "fetch-instr"
	case StateWaitInstr:
		return "wait-instr"
	case StateFetchRegs:
		return "fetch-regs"
	case StateExecute:
		return "execute"
	case StateLoad:
		return "load"
	case StateWaitALUOrMem:
		return "wait-alu-or-mem"
	case StateStore:
		return "store"
	}
	return "invalid"
}

// instrNOP is ADDI x0, x0, 0: the instruction latch resets to it so the
// fall-through from reset writes nothing.
const instrNOP = 0x00000013

// DefaultAddrWidth is the bus address width when the config leaves it zero.
const DefaultAddrWidth = 24

// Config fixes the construction-time parameters of a core. None of them are
// runtime-mutable.
type Config struct {
	// ResetAddr is the PC value after reset.
	ResetAddr uint32
	// AddrWidth is the bus address width in bits (1..32); addresses are
	// zero-extended to 32 on the bus. Zero selects DefaultAddrWidth.
	AddrWidth uint
	// CounterWidth enables a free-running cycle counter of that many bits
	// (1..32), readable through the SYSTEM instruction class. Zero leaves the
	// counter out.
	CounterWidth uint
	// StrictUndefined makes the machine surface an error when an unrecognized
	// instruction reaches EXECUTE, instead of the silent undefined execution
	// the hardware has. Off by default for compatibility.
	StrictUndefined bool
}

// Core is one RV32I execution core: register file, ALU, decoder output latch
// and the seven-phase state machine, tied to a single exclusive bus request
// stream. All state is owned by the core; the model is single-threaded.
//
// Tick semantics are synchronous: every read inside a tick observes the
// previous tick's values, and all updates commit together at the end of the
// tick.
type Core struct {
	cfg      Config
	addrMask uint32
	ctrMask  uint32

	state State
	pc    uint32
	instr Instr
	// instrPC is the address the current instruction was fetched from.
	instrPC uint32

	regs           RegFile
	alu            ALU
	rs1Val, rs2Val uint32

	// bus output registers; held stable across stall ticks
	busAddr  uint32
	busWData uint32
	busWMask uint8

	cycle  uint64
	parked bool
	undef  bool
}

// NewCore builds a core from the given parameters and resets it.
func NewCore(cfg Config) *Core {
	if cfg.AddrWidth == 0 {
		cfg.AddrWidth = DefaultAddrWidth
	}
	c := &Core{
		cfg:      cfg,
		addrMask: widthMask(cfg.AddrWidth),
		ctrMask:  widthMask(cfg.CounterWidth),
	}
	c.Reset()
	return c
}

func widthMask(bits uint) uint32 {
	if bits >= 32 {
		return ^uint32(0)
	}
	return 1<<bits - 1
}

// Reset enters WAIT_ALU_OR_MEM with the PC at the reset address. Nothing is
// busy after reset, so the first tick falls through to FETCH_INSTR; the NOP
// in the instruction latch makes that fall-through write nothing.
func (c *Core) Reset() {
	c.state = StateWaitALUOrMem
	c.pc = c.cfg.ResetAddr & c.addrMask
	c.instr = Decode(instrNOP)
	c.instrPC = c.pc
	c.regs = RegFile{}
	c.alu = ALU{}
	c.rs1Val, c.rs2Val = 0, 0
	c.busAddr = c.pc
	c.busWData = 0
	c.busWMask = 0
	c.cycle = 0
	c.parked = false
	c.undef = false
}

// BusOut returns the bus pins as driven by the current state: the read strobe
// is up during the two fetch-issuing states, everything else comes from the
// output registers.
func (c *Core) BusOut() BusOut {
	return BusOut{
		Addr:    c.busAddr & c.addrMask,
		WData:   c.busWData,
		WMask:   c.busWMask,
		RStrobe: c.state == StateFetchInstr || c.state == StateLoad,
	}
}

// Tick advances the core by one clock, observing the memory side's response
// for this tick. Stall conditions are re-evaluated every tick and hold the
// core indefinitely if the bus never releases; there is no timeout.
func (c *Core) Tick(in BusIn) {
	// busy is sampled before the shifter advances, so a shift of n stalls
	// WAIT_ALU_OR_MEM for exactly n extra ticks
	aluBusy := c.alu.Busy()
	c.alu.Tick()
	c.cycle++

	switch c.state {
	case StateFetchInstr:
		// address register already holds PC and the strobe is out
		c.state = StateWaitInstr

	case StateWaitInstr:
		if !in.RBusy {
			c.instr = Decode(in.RData)
			c.instrPC = c.busAddr
			c.state = StateFetchRegs
		}

	case StateFetchRegs:
		// the synchronous read ports were presented with rs1/rs2 last tick;
		// their values become valid now
		c.rs1Val = c.regs.Read(c.instr.Rs1)
		c.rs2Val = c.regs.Read(c.instr.Rs2)
		c.state = StateExecute

	case StateExecute:
		c.execute()

	case StateLoad:
		// effective address is on the bus with the strobe out
		c.state = StateWaitALUOrMem

	case StateStore:
		// address, data and mask were set from EXECUTE
		c.state = StateWaitALUOrMem

	case StateWaitALUOrMem:
		if !aluBusy && !in.RBusy && !in.WBusy {
			c.writeback(in.RData)
			c.busWMask = 0
			c.busAddr = c.pc
			c.state = StateFetchInstr
		}
	}
}

// execute is the decision point: it computes the next PC and next bus
// address, starts the ALU for arithmetic instructions, and picks exactly one
// successor state. Branches, jumps, LUI, AUIPC and the counter read complete
// here because their result depends on no slow external resource.
func (c *Core) execute() {
	ins := &c.instr

	in2 := c.rs2Val
	if ins.Class == ClassALUImm {
		in2 = ins.ImmI
	}
	c.alu.Latch(c.rs1Val, in2)

	switch ins.Class {
	case ClassStore:
		ea := c.rs1Val + ins.ImmS
		c.busWData, c.busWMask = storeLanes(c.rs2Val, ins.Funct3, ea)
		c.busAddr = ea
		c.setPC(c.pc + 4)
		c.state = StateStore

	case ClassALUImm, ClassALUReg:
		// SUB exists only in the register form; the arithmetic-shift
		// qualifier applies to both
		alt := ins.AltOp && (ins.Class == ClassALUReg || ins.Funct3 == aluSR)
		c.alu.Start(ins.Funct3, alt)
		c.setPC(c.pc + 4)
		c.state = StateWaitALUOrMem

	case ClassLoad:
		c.busAddr = c.rs1Val + ins.ImmI
		c.setPC(c.pc + 4)
		c.state = StateLoad

	default:
		nextPC := c.pc + 4
		switch ins.Class {
		case ClassBranch:
			if c.alu.Branch(ins.Funct3) {
				nextPC = c.pc + ins.ImmB
			}
		case ClassJAL:
			nextPC = c.pc + ins.ImmJ
		case ClassJALR:
			nextPC = (c.rs1Val + ins.ImmI) &^ 1
		case ClassUnknown:
			c.undef = true
		case ClassSystem:
			if c.cfg.CounterWidth == 0 {
				c.undef = true
			}
		}
		// link values and AUIPC read the PC before it moves
		c.writeback(0)
		c.setPC(nextPC)
		c.busAddr = c.pc
		c.state = StateFetchInstr
	}
}

func (c *Core) setPC(next uint32) {
	next &= c.addrMask
	c.parked = next == c.instrPC
	c.pc = next
}

// writeback commits the one result an instruction produces, if any. Each
// instruction reaches exactly one of the two call sites (EXECUTE for the
// single-cycle classes, WAIT_ALU_OR_MEM release for ALU ops and loads), so
// the class switch enforces the single-writeback rule. Stores and branches
// write nothing.
func (c *Core) writeback(loaded uint32) {
	ins := &c.instr
	var v uint32
	switch ins.Class {
	case ClassSystem:
		if c.cfg.CounterWidth == 0 {
			return
		}
		v = uint32(c.cycle) & c.ctrMask
	case ClassLUI:
		v = ins.ImmU
	case ClassALUImm, ClassALUReg:
		v = c.alu.Result()
	case ClassAUIPC:
		v = c.pc + ins.ImmU
	case ClassJAL, ClassJALR:
		v = c.pc + 4
	case ClassLoad:
		v = loadResult(loaded, ins.Funct3, c.busAddr)
	default:
		return
	}
	c.regs.Write(ins.Rd, v)
}

// State returns the active phase.
func (c *Core) State() State {
	return c.state
}

// PC returns the program counter: the address of the next instruction to
// fetch, masked to the configured address width.
func (c *Core) PC() uint32 {
	return c.pc
}

// InstrPC returns the fetch address of the instruction currently latched.
func (c *Core) InstrPC() uint32 {
	return c.instrPC
}

// Instr returns the decoded instruction currently latched.
func (c *Core) Instr() Instr {
	return c.instr
}

// Reg reads a register.
func (c *Core) Reg(i uint8) uint32 {
	return c.regs.Read(i)
}

// Registers copies out the register file.
func (c *Core) Registers() [32]uint32 {
	return c.regs.Dump()
}

// Cycle returns the free-running tick count since reset. The counter runs
// regardless of CounterWidth; the width only gates the SYSTEM read path.
func (c *Core) Cycle() uint64 {
	return c.cycle
}

// Parked reports that the last control transfer targeted its own fetch
// address, i.e. the program sits in a one-instruction loop.
func (c *Core) Parked() bool {
	return c.parked
}

// Undefined reports that an unrecognized instruction reached EXECUTE. The
// core keeps running regardless; Machine turns this into an error only when
// StrictUndefined is configured.
func (c *Core) Undefined() bool {
	return c.undef
}

// Err is the core's hard-wired error output. The hardware never raises it;
// it exists so the pin is part of the contract.
func (c *Core) Err() bool {
	return false
}
