package rv32

// ALU funct3 encodings, shared between the immediate and register forms.
const (
	aluADD  = 0 // ADD, or SUB when the alt bit is set
	aluSLL  = 1
	aluSLT  = 2
	aluSLTU = 3
	aluXOR  = 4
	aluSR   = 5 // SRL, or SRA when the alt bit is set
	aluOR   = 6
	aluAND  = 7
)

// ALU models the shared arithmetic/compare unit: two operand latches, a shift
// accumulator and a 5-bit shift down-counter. Adds, subtracts, compares and
// bitwise ops are combinational reads of the latches; shifts move one bit per
// tick and hold the unit busy until the counter reaches zero.
type ALU struct {
	in1, in2 uint32 // operand latches
	funct3   uint8
	alt      bool // SUB / arithmetic-right-shift qualifier

	acc   uint32 // shift accumulator
	shamt uint8  // remaining shift ticks; non-zero means busy
}

// Latch captures the two operands. Every instruction latches here at EXECUTE;
// branch predicates read the comparison outputs off the same latches.
func (a *ALU) Latch(in1, in2 uint32) {
	a.in1 = in1
	a.in2 = in2
}

// Start selects the operation and, for shifts, arms the multi-cycle shifter
// with the latched first operand and the low five bits of the second.
func (a *ALU) Start(funct3 uint8, alt bool) {
	a.funct3 = funct3
	a.alt = alt
	if funct3 == aluSLL || funct3 == aluSR {
		a.acc = a.in1
		a.shamt = uint8(a.in2 & 31)
	}
}

// Busy reports whether a shift is still in flight. The result may not be read
// while busy; it becomes valid the tick after the counter reaches zero.
func (a *ALU) Busy() bool {
	return a.shamt != 0
}

// Tick advances the shifter by one bit position. A no-op when idle.
func (a *ALU) Tick() {
	if a.shamt == 0 {
		return
	}
	switch a.funct3 {
	case aluSLL:
		a.acc <<= 1
	case aluSR:
		if a.alt {
			a.acc = uint32(int32(a.acc) >> 1)
		} else {
			a.acc >>= 1
		}
	}
	a.shamt--
}

// minus is the single 33-bit subtraction {1,^in2} + {0,in1} + 1 that all
// comparisons are derived from: bit 32 gives unsigned less-than, a zero low
// word gives equality, and a sign correction gives the signed case.
func (a *ALU) minus() uint64 {
	return (1<<32 | uint64(^a.in2)) + uint64(a.in1) + 1
}

// EQ reports in1 == in2.
func (a *ALU) EQ() bool {
	return a.minus()&0xFFFFFFFF == 0
}

// LTU reports in1 < in2, unsigned.
func (a *ALU) LTU() bool {
	return a.minus()>>32&1 != 0
}

// LT reports in1 < in2, signed: when the sign bits differ the first operand's
// sign decides, otherwise the unsigned borrow is already correct.
func (a *ALU) LT() bool {
	if (a.in1^a.in2)>>31 != 0 {
		return a.in1>>31 != 0
	}
	return a.LTU()
}

// Branch evaluates the branch predicate selected by funct3 against the
// latched operands. Encodings 010 and 011 are don't-care in the hardware and
// fall out false here.
func (a *ALU) Branch(funct3 uint8) bool {
	switch funct3 {
	case 0: // 000 = BEQ
		return a.EQ()
	case 1: // 001 = BNE
		return !a.EQ()
	case 4: // 100 = BLT
		return a.LT()
	case 5: // 101 = BGE
		return !a.LT()
	case 6: // 110 = BLTU
		return a.LTU()
	case 7: // 111 = BGEU
		return !a.LTU()
	}
	return false
}

// Result returns the value of the selected operation. For shifts this is the
// accumulator and is only meaningful once Busy is false.
func (a *ALU) Result() uint32 {
	switch a.funct3 {
	case aluADD:
		if a.alt {
			return a.in1 - a.in2
		}
		return a.in1 + a.in2
	case aluSLL, aluSR:
		return a.acc
	case aluSLT:
		return b2w(a.LT())
	case aluSLTU:
		return b2w(a.LTU())
	case aluXOR:
		return a.in1 ^ a.in2
	case aluOR:
		return a.in1 | a.in2
	case aluAND:
		return a.in1 & a.in2
	}
	return 0
}

func b2w(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
