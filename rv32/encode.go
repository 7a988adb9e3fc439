package rv32

// Instruction-word encoders, the inverse of Decode. Tests and the demo
// program assemble with these instead of carrying opaque word constants.

func encodeR(funct7 uint32, rs2, rs1, funct3, rd uint8, opcode uint32) uint32 {
	return funct7<<25 | uint32(rs2&31)<<20 | uint32(rs1&31)<<15 |
		uint32(funct3&7)<<12 | uint32(rd&31)<<7 | opcode
}

func encodeI(imm uint32, rs1, funct3, rd uint8, opcode uint32) uint32 {
	return imm&0xFFF<<20 | uint32(rs1&31)<<15 | uint32(funct3&7)<<12 | uint32(rd&31)<<7 | opcode
}

func encodeS(imm uint32, rs2, rs1, funct3 uint8, opcode uint32) uint32 {
	return imm>>5&0x7F<<25 | uint32(rs2&31)<<20 | uint32(rs1&31)<<15 |
		uint32(funct3&7)<<12 | imm&0x1F<<7 | opcode
}

func encodeB(imm uint32, rs2, rs1, funct3 uint8) uint32 {
	return imm>>12&1<<31 | imm>>5&0x3F<<25 | uint32(rs2&31)<<20 | uint32(rs1&31)<<15 |
		uint32(funct3&7)<<12 | imm>>1&0xF<<8 | imm>>11&1<<7 | 0x63
}

func encodeJ(imm uint32, rd uint8) uint32 {
	return imm>>20&1<<31 | imm>>1&0x3FF<<21 | imm>>11&1<<20 | imm>>12&0xFF<<12 |
		uint32(rd&31)<<7 | 0x6F
}

// Register-register ALU ops.

func EncodeADD(rd, rs1, rs2 uint8) uint32  { return encodeR(0x00, rs2, rs1, aluADD, rd, 0x33) }
func EncodeSUB(rd, rs1, rs2 uint8) uint32  { return encodeR(0x20, rs2, rs1, aluADD, rd, 0x33) }
func EncodeSLL(rd, rs1, rs2 uint8) uint32  { return encodeR(0x00, rs2, rs1, aluSLL, rd, 0x33) }
func EncodeSLT(rd, rs1, rs2 uint8) uint32  { return encodeR(0x00, rs2, rs1, aluSLT, rd, 0x33) }
func EncodeSLTU(rd, rs1, rs2 uint8) uint32 { return encodeR(0x00, rs2, rs1, aluSLTU, rd, 0x33) }
func EncodeXOR(rd, rs1, rs2 uint8) uint32  { return encodeR(0x00, rs2, rs1, aluXOR, rd, 0x33) }
func EncodeSRL(rd, rs1, rs2 uint8) uint32  { return encodeR(0x00, rs2, rs1, aluSR, rd, 0x33) }
func EncodeSRA(rd, rs1, rs2 uint8) uint32  { return encodeR(0x20, rs2, rs1, aluSR, rd, 0x33) }
func EncodeOR(rd, rs1, rs2 uint8) uint32   { return encodeR(0x00, rs2, rs1, aluOR, rd, 0x33) }
func EncodeAND(rd, rs1, rs2 uint8) uint32  { return encodeR(0x00, rs2, rs1, aluAND, rd, 0x33) }

// Register-immediate ALU ops. Immediates are sign-extended 12-bit values;
// shift amounts use the low five bits.

func EncodeADDI(rd, rs1 uint8, imm int32) uint32 {
	return encodeI(uint32(imm), rs1, aluADD, rd, 0x13)
}
func EncodeSLTI(rd, rs1 uint8, imm int32) uint32 {
	return encodeI(uint32(imm), rs1, aluSLT, rd, 0x13)
}
func EncodeSLTIU(rd, rs1 uint8, imm int32) uint32 {
	return encodeI(uint32(imm), rs1, aluSLTU, rd, 0x13)
}
func EncodeXORI(rd, rs1 uint8, imm int32) uint32 {
	return encodeI(uint32(imm), rs1, aluXOR, rd, 0x13)
}
func EncodeORI(rd, rs1 uint8, imm int32) uint32 {
	return encodeI(uint32(imm), rs1, aluOR, rd, 0x13)
}
func EncodeANDI(rd, rs1 uint8, imm int32) uint32 {
	return encodeI(uint32(imm), rs1, aluAND, rd, 0x13)
}
func EncodeSLLI(rd, rs1, shamt uint8) uint32 {
	return encodeI(uint32(shamt&31), rs1, aluSLL, rd, 0x13)
}
func EncodeSRLI(rd, rs1, shamt uint8) uint32 {
	return encodeI(uint32(shamt&31), rs1, aluSR, rd, 0x13)
}
func EncodeSRAI(rd, rs1, shamt uint8) uint32 {
	return encodeI(0x400|uint32(shamt&31), rs1, aluSR, rd, 0x13)
}

// Upper-immediate and control transfer. LUI/AUIPC take the value with its low
// 12 bits already zero; branch and jump offsets are byte offsets relative to
// the instruction's own address.

func EncodeLUI(rd uint8, imm uint32) uint32   { return imm&0xFFFFF000 | uint32(rd&31)<<7 | 0x37 }
func EncodeAUIPC(rd uint8, imm uint32) uint32 { return imm&0xFFFFF000 | uint32(rd&31)<<7 | 0x17 }
func EncodeJAL(rd uint8, offset int32) uint32 { return encodeJ(uint32(offset), rd) }
func EncodeJALR(rd, rs1 uint8, imm int32) uint32 {
	return encodeI(uint32(imm), rs1, 0, rd, 0x67)
}

func EncodeBEQ(rs1, rs2 uint8, offset int32) uint32  { return encodeB(uint32(offset), rs2, rs1, 0) }
func EncodeBNE(rs1, rs2 uint8, offset int32) uint32  { return encodeB(uint32(offset), rs2, rs1, 1) }
func EncodeBLT(rs1, rs2 uint8, offset int32) uint32  { return encodeB(uint32(offset), rs2, rs1, 4) }
func EncodeBGE(rs1, rs2 uint8, offset int32) uint32  { return encodeB(uint32(offset), rs2, rs1, 5) }
func EncodeBLTU(rs1, rs2 uint8, offset int32) uint32 { return encodeB(uint32(offset), rs2, rs1, 6) }
func EncodeBGEU(rs1, rs2 uint8, offset int32) uint32 { return encodeB(uint32(offset), rs2, rs1, 7) }

// Loads and stores. funct3 picks the width and, for loads, the extension.

func EncodeLB(rd, rs1 uint8, imm int32) uint32  { return encodeI(uint32(imm), rs1, 0, rd, 0x03) }
func EncodeLH(rd, rs1 uint8, imm int32) uint32  { return encodeI(uint32(imm), rs1, 1, rd, 0x03) }
func EncodeLW(rd, rs1 uint8, imm int32) uint32  { return encodeI(uint32(imm), rs1, 2, rd, 0x03) }
func EncodeLBU(rd, rs1 uint8, imm int32) uint32 { return encodeI(uint32(imm), rs1, 4, rd, 0x03) }
func EncodeLHU(rd, rs1 uint8, imm int32) uint32 { return encodeI(uint32(imm), rs1, 5, rd, 0x03) }

func EncodeSB(rs2, rs1 uint8, imm int32) uint32 { return encodeS(uint32(imm), rs2, rs1, 0, 0x23) }
func EncodeSH(rs2, rs1 uint8, imm int32) uint32 { return encodeS(uint32(imm), rs2, rs1, 1, 0x23) }
func EncodeSW(rs2, rs1 uint8, imm int32) uint32 { return encodeS(uint32(imm), rs2, rs1, 2, 0x23) }

// EncodeRDCYCLE reads the cycle counter (CSR 0xC00) into rd.
func EncodeRDCYCLE(rd uint8) uint32 {
	return 0xC00<<20 | 2<<12 | uint32(rd&31)<<7 | 0x73
}

// EncodeNOP is ADDI x0, x0, 0.
func EncodeNOP() uint32 {
	return instrNOP
}
