package rv32

// Functions to parse the instruction field values from the RV32I instruction formats.
// Field positions follow the base encoding; the low two bits ([1:0] = 11 for all
// uncompressed instructions) carry no information and are never checked.

func parseOpcode(instr uint32) uint32 {
	return instr & 0x7F
}

func parseRd(instr uint32) uint8 {
	return uint8((instr >> 7) & 0x1F)
}

func parseFunct3(instr uint32) uint8 {
	return uint8((instr >> 12) & 0x7)
}

func parseRs1(instr uint32) uint8 {
	return uint8((instr >> 15) & 0x1F)
}

func parseRs2(instr uint32) uint8 {
	return uint8((instr >> 20) & 0x1F)
}

func parseImmTypeI(instr uint32) uint32 {
	return signExtend(instr>>20, 11)
}

func parseImmTypeS(instr uint32) uint32 {
	return signExtend((instr>>25)<<5|(instr>>7)&0x1F, 11)
}

func parseImmTypeB(instr uint32) uint32 {
	return signExtend(
		(instr>>8)&0xF<<1|
			(instr>>25)&0x3F<<5|
			(instr>>7)&1<<11|
			(instr>>31)<<12,
		12,
	)
}

// parseImmTypeU keeps the immediate in its in-place position (bits [31:12]),
// so LUI can write it back as-is and AUIPC can add it to PC directly.
func parseImmTypeU(instr uint32) uint32 {
	return instr & 0xFFFFF000
}

func parseImmTypeJ(instr uint32) uint32 {
	return signExtend(
		(instr>>21)&0x3FF<<1|
			(instr>>20)&1<<11|
			(instr>>12)&0xFF<<12|
			(instr>>31)<<20,
		20,
	)
}

// signExtend widens v, whose sign is at the given bit position, to 32 bits.
func signExtend(v uint32, bit uint) uint32 {
	mask := uint32(1) << bit
	return (v ^ mask) - mask
}

// Class is the instruction category, taken from opcode bits [6:2]. Exactly one
// class matches any well-formed RV32I instruction; everything else decodes to
// ClassUnknown, which the state machine simply does not special-case.
type Class uint8

const (
	ClassUnknown Class = iota
	ClassLoad          // 00000: LB, LH, LW, LBU, LHU
	ClassALUImm        // 00100: ADDI, SLTI, SLTIU, XORI, ORI, ANDI, SLLI, SRLI, SRAI
	ClassAUIPC         // 00101: AUIPC
	ClassStore         // 01000: SB, SH, SW
	ClassALUReg        // 01100: ADD, SUB, SLL, SLT, SLTU, XOR, SRL, SRA, OR, AND
	ClassLUI           // 01101: LUI
	ClassBranch        // 11000: BEQ, BNE, BLT, BGE, BLTU, BGEU
	ClassJALR          // 11001: JALR
	ClassJAL           // 11011: JAL
	ClassSystem        // 11100: cycle counter read, when the counter is present
)

func (c Class) String() string {
	switch c {
	case ClassLoad:
		return "load"
	case ClassALUImm:
		return "alu-imm"
	case ClassAUIPC:
		return "auipc"
	case ClassStore:
		return "store"
	case ClassALUReg:
		return "alu-reg"
	case ClassLUI:
		return "lui"
	case ClassBranch:
		return "branch"
	case ClassJALR:
		return "jalr"
	case ClassJAL:
		return "jal"
	case ClassSystem:
		return "system"
	}
	return "unknown"
}

// Instr is the decoded operation descriptor: class, register indices, funct
// fields and all five immediate renderings. Fields that do not apply to the
// instruction's format hold whatever the extractors produced and are ignored.
type Instr struct {
	Word   uint32
	Class  Class
	Rd     uint8
	Rs1    uint8
	Rs2    uint8
	Funct3 uint8
	// AltOp is instruction bit 30, selecting SUB over ADD and arithmetic over
	// logical right shift.
	AltOp bool
	ImmI  uint32
	ImmS  uint32
	ImmB  uint32
	ImmU  uint32
	ImmJ  uint32
}

// Decode decomposes a 32-bit instruction word. It is a pure function with no
// failure path: malformed or unsupported words come back with ClassUnknown and
// garbage fields, matching the hardware's absent validity check.
func Decode(word uint32) Instr {
	ins := Instr{
		Word:   word,
		Rd:     parseRd(word),
		Rs1:    parseRs1(word),
		Rs2:    parseRs2(word),
		Funct3: parseFunct3(word),
		AltOp:  word&(1<<30) != 0,
		ImmI:   parseImmTypeI(word),
		ImmS:   parseImmTypeS(word),
		ImmB:   parseImmTypeB(word),
		ImmU:   parseImmTypeU(word),
		ImmJ:   parseImmTypeJ(word),
	}
	switch parseOpcode(word) >> 2 {
	case 0x00: // 00000
		ins.Class = ClassLoad
	case 0x04: // 00100
		ins.Class = ClassALUImm
	case 0x05: // 00101
		ins.Class = ClassAUIPC
	case 0x08: // 01000
		ins.Class = ClassStore
	case 0x0C: // 01100
		ins.Class = ClassALUReg
	case 0x0D: // 01101
		ins.Class = ClassLUI
	case 0x18: // 11000
		ins.Class = ClassBranch
	case 0x19: // 11001
		ins.Class = ClassJALR
	case 0x1B: // 11011
		ins.Class = ClassJAL
	case 0x1C: // 11100
		ins.Class = ClassSystem
	default:
		ins.Class = ClassUnknown
	}
	return ins
}
