package rv32

// Byte-lane logic for 32-bit-aligned memory with sub-word access. The bus
// always moves whole words; the low two address bits only steer which lanes
// are extracted on a load or committed on a store.

// loadResult extracts the addressed sub-word from the fetched bus word.
// funct3 bits [1:0] give the access width (00 byte, 01 halfword, 10 word) and
// bit [2] selects zero- over sign-extension for the narrow widths.
func loadResult(word uint32, funct3 uint8, addr uint32) uint32 {
	unsigned := funct3&4 != 0
	switch funct3 & 3 {
	case 0: // byte: address bit 1 picks the halfword, bit 0 the byte within it
		b := word >> (8 * (addr & 3)) & 0xFF
		if unsigned {
			return b
		}
		return signExtend(b, 7)
	case 1: // halfword: address bit 1 picks upper or lower 16 bits
		h := word >> (8 * (addr & 2)) & 0xFFFF
		if unsigned {
			return h
		}
		return signExtend(h, 15)
	default:
		return word
	}
}

// storeLanes builds the bus write word and byte-lane mask for a store. The
// source value is pre-replicated into every lane it could land in, so the
// mask alone determines what memory commits.
func storeLanes(value uint32, funct3 uint8, addr uint32) (wdata uint32, wmask uint8) {
	switch funct3 & 3 {
	case 0: // byte: same byte in all four lanes, one-hot mask
		b := value & 0xFF
		return b | b<<8 | b<<16 | b<<24, 1 << (addr & 3)
	case 1: // halfword: same halfword in both positions, two-hot mask
		h := value & 0xFFFF
		return h | h<<16, 0b0011 << (addr & 2)
	default: // word
		return value, 0b1111
	}
}
