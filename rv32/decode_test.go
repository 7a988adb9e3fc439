package rv32

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeFields(t *testing.T) {
	t.Run("addi", func(t *testing.T) {
		ins := Decode(EncodeADDI(1, 2, -5))
		require.Equal(t, ClassALUImm, ins.Class)
		require.Equal(t, uint8(1), ins.Rd)
		require.Equal(t, uint8(2), ins.Rs1)
		require.Equal(t, uint8(0), ins.Funct3)
		require.Equal(t, uint32(0xFFFFFFFB), ins.ImmI, "I immediate sign-extends")
	})
	t.Run("sub", func(t *testing.T) {
		ins := Decode(EncodeSUB(3, 4, 5))
		require.Equal(t, ClassALUReg, ins.Class)
		require.Equal(t, uint8(3), ins.Rd)
		require.Equal(t, uint8(4), ins.Rs1)
		require.Equal(t, uint8(5), ins.Rs2)
		require.True(t, ins.AltOp, "bit 30 selects SUB")
	})
	t.Run("store", func(t *testing.T) {
		ins := Decode(EncodeSW(7, 8, -12))
		require.Equal(t, ClassStore, ins.Class)
		require.Equal(t, uint8(7), ins.Rs2)
		require.Equal(t, uint8(8), ins.Rs1)
		require.Equal(t, uint32(0xFFFFFFF4), ins.ImmS, "S immediate sign-extends")
	})
	t.Run("branch", func(t *testing.T) {
		ins := Decode(EncodeBEQ(1, 2, -8))
		require.Equal(t, ClassBranch, ins.Class)
		require.Equal(t, uint32(0xFFFFFFF8), ins.ImmB)
		require.Equal(t, uint32(0), ins.ImmB&1, "B immediate has a hardwired zero bit")

		ins = Decode(EncodeBGEU(3, 4, 0xA54))
		require.Equal(t, uint8(7), ins.Funct3)
		require.Equal(t, uint32(0xA54), ins.ImmB)
	})
	t.Run("jal", func(t *testing.T) {
		ins := Decode(EncodeJAL(1, 0x456))
		require.Equal(t, ClassJAL, ins.Class)
		require.Equal(t, uint32(0x456), ins.ImmJ)

		ins = Decode(EncodeJAL(0, -4))
		require.Equal(t, uint32(0xFFFFFFFC), ins.ImmJ, "J immediate sign-extends")
	})
	t.Run("lui", func(t *testing.T) {
		ins := Decode(EncodeLUI(9, 0xDEADB000))
		require.Equal(t, ClassLUI, ins.Class)
		require.Equal(t, uint32(0xDEADB000), ins.ImmU, "U immediate stays in place")
	})
	t.Run("auipc", func(t *testing.T) {
		ins := Decode(EncodeAUIPC(9, 0x1000))
		require.Equal(t, ClassAUIPC, ins.Class)
		require.Equal(t, uint32(0x1000), ins.ImmU)
	})
	t.Run("known-words", func(t *testing.T) {
		// 0x00000013 = addi x0, x0, 0 (the canonical NOP)
		ins := Decode(0x00000013)
		require.Equal(t, ClassALUImm, ins.Class)
		require.Equal(t, uint8(0), ins.Rd)
		require.Equal(t, uint32(0), ins.ImmI)

		// 0x00008067 = jalr x0, 0(x1) (ret)
		ins = Decode(0x00008067)
		require.Equal(t, ClassJALR, ins.Class)
		require.Equal(t, uint8(0), ins.Rd)
		require.Equal(t, uint8(1), ins.Rs1)
		require.Equal(t, uint32(0), ins.ImmI)
	})
	t.Run("rdcycle", func(t *testing.T) {
		ins := Decode(EncodeRDCYCLE(5))
		require.Equal(t, ClassSystem, ins.Class)
		require.Equal(t, uint8(5), ins.Rd)
	})
	t.Run("unknown", func(t *testing.T) {
		require.Equal(t, ClassUnknown, Decode(0xFFFFFFFF).Class)
		// the all-zero word matches the load class bits: only [6:2] are
		// inspected, exactly like the hardware
		require.Equal(t, ClassLoad, Decode(0).Class)
	})
}

func TestDecodeImmBRange(t *testing.T) {
	// branch offsets cover +-4 KiB in steps of 2
	for _, off := range []int32{-4096, -2, 0, 2, 30, 4094} {
		ins := Decode(EncodeBNE(1, 2, off))
		require.Equal(t, uint32(off), ins.ImmB, "offset %d", off)
	}
}

func TestDecodeImmJRange(t *testing.T) {
	for _, off := range []int32{-1048576, -2048, -2, 0, 2, 2048, 1048574} {
		ins := Decode(EncodeJAL(1, off))
		require.Equal(t, uint32(off), ins.ImmJ, "offset %d", off)
	}
}
