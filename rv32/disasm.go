package rv32

import "fmt"

// Disassemble renders one instruction word as assembly text, for trace logs
// and the listing command. Unrecognized words render as a raw .word.
func Disassemble(word uint32) string {
	ins := Decode(word)
	switch ins.Class {
	case ClassLoad:
		op := [8]string{"lb", "lh", "lw", "l?", "lbu", "lhu", "l?u", "l??"}[ins.Funct3]
		return fmt.Sprintf("%s x%d, %d(x%d)", op, ins.Rd, int32(ins.ImmI), ins.Rs1)
	case ClassStore:
		op := [4]string{"sb", "sh", "sw", "s?"}[ins.Funct3&3]
		return fmt.Sprintf("%s x%d, %d(x%d)", op, ins.Rs2, int32(ins.ImmS), ins.Rs1)
	case ClassALUImm:
		if ins.Funct3 == aluSLL || ins.Funct3 == aluSR {
			op := "slli"
			if ins.Funct3 == aluSR {
				op = "srli"
				if ins.AltOp {
					op = "srai"
				}
			}
			return fmt.Sprintf("%s x%d, x%d, %d", op, ins.Rd, ins.Rs1, ins.ImmI&31)
		}
		op := [8]string{"addi", "", "slti", "sltiu", "xori", "", "ori", "andi"}[ins.Funct3]
		if word == instrNOP {
			return "nop"
		}
		return fmt.Sprintf("%s x%d, x%d, %d", op, ins.Rd, ins.Rs1, int32(ins.ImmI))
	case ClassALUReg:
		op := [8]string{"add", "sll", "slt", "sltu", "xor", "srl", "or", "and"}[ins.Funct3]
		if ins.AltOp {
			switch ins.Funct3 {
			case aluADD:
				op = "sub"
			case aluSR:
				op = "sra"
			}
		}
		return fmt.Sprintf("%s x%d, x%d, x%d", op, ins.Rd, ins.Rs1, ins.Rs2)
	case ClassBranch:
		op := [8]string{"beq", "bne", "b?", "b?", "blt", "bge", "bltu", "bgeu"}[ins.Funct3]
		return fmt.Sprintf("%s x%d, x%d, %d", op, ins.Rs1, ins.Rs2, int32(ins.ImmB))
	case ClassLUI:
		return fmt.Sprintf("lui x%d, 0x%x", ins.Rd, ins.ImmU>>12)
	case ClassAUIPC:
		return fmt.Sprintf("auipc x%d, 0x%x", ins.Rd, ins.ImmU>>12)
	case ClassJAL:
		return fmt.Sprintf("jal x%d, %d", ins.Rd, int32(ins.ImmJ))
	case ClassJALR:
		return fmt.Sprintf("jalr x%d, %d(x%d)", ins.Rd, int32(ins.ImmI), ins.Rs1)
	case ClassSystem:
		return fmt.Sprintf("rdcycle x%d", ins.Rd)
	}
	return fmt.Sprintf(".word 0x%08x", word)
}
