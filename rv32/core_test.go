package rv32

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// testMachine preloads a program at address zero on a zero-wait RAM.
func testMachine(cfg Config, program ...uint32) (*Machine, *RAM) {
	ram := NewRAM(4096)
	for i, w := range program {
		ram.SetWord(uint32(i)*4, w)
	}
	return NewMachine(NewCore(cfg), ram), ram
}

func runParked(t *testing.T, m *Machine) Stats {
	t.Helper()
	parked, err := m.RunUntilParked(10_000)
	require.NoError(t, err)
	require.True(t, parked, "program must settle in its final loop")
	return m.Stats()
}

func TestAddProgram(t *testing.T) {
	// the canonical smoke test: two immediates, an add, then a loop at self
	m, _ := testMachine(Config{},
		EncodeADDI(1, 0, 5),
		EncodeADDI(2, 0, 7),
		EncodeADD(3, 1, 2),
		EncodeJAL(0, 0),
	)
	runParked(t, m)
	require.Equal(t, uint32(5), m.Core.Reg(1))
	require.Equal(t, uint32(7), m.Core.Reg(2))
	require.Equal(t, uint32(12), m.Core.Reg(3))
	require.Equal(t, uint32(12), m.Core.PC(), "PC parks at the loop instruction")

	// the loop is stable forever
	regs := m.Core.Registers()
	for i := 0; i < 64; i++ {
		require.NoError(t, m.Tick())
	}
	require.Equal(t, uint32(12), m.Core.PC())
	require.Equal(t, regs, m.Core.Registers())
}

func TestInstructionTiming(t *testing.T) {
	// Exact tick counts on a zero-wait bus: one tick to drain the reset
	// state, then fetch/wait/regs/execute per instruction, plus the extra
	// phases of the slower classes. These numbers are the observable contract
	// of the state machine.
	cases := []struct {
		name    string
		program []uint32
		cycles  uint64
	}{
		{"jump-only", []uint32{EncodeJAL(0, 0)}, 1 + 4},
		{"alu", []uint32{EncodeADDI(1, 0, 5), EncodeJAL(0, 0)}, 1 + 5 + 4},
		{"load", []uint32{EncodeLW(1, 0, 64), EncodeJAL(0, 0)}, 1 + 6 + 4},
		{"store", []uint32{EncodeSW(1, 0, 64), EncodeJAL(0, 0)}, 1 + 6 + 4},
		{"branch-not-taken", []uint32{EncodeBNE(1, 2, 8), EncodeJAL(0, 0)}, 1 + 4 + 4},
		{"lui", []uint32{EncodeLUI(1, 0x1000), EncodeJAL(0, 0)}, 1 + 4 + 4},
		{"shift-0", []uint32{EncodeSLLI(1, 0, 0), EncodeJAL(0, 0)}, 1 + 5 + 4},
		{"shift-3", []uint32{EncodeSLLI(1, 0, 3), EncodeJAL(0, 0)}, 1 + 5 + 3 + 4},
		{"shift-31", []uint32{EncodeSLLI(1, 0, 31), EncodeJAL(0, 0)}, 1 + 5 + 31 + 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, _ := testMachine(Config{}, tc.program...)
			stats := runParked(t, m)
			require.Equal(t, tc.cycles, stats.Cycles)
			require.Equal(t, uint64(len(tc.program)), stats.Instructions)
		})
	}
}

func TestShiftStallLatency(t *testing.T) {
	// a register shift by n holds WAIT_ALU_OR_MEM for exactly n extra ticks
	for _, shamt := range []int32{0, 5} {
		m, _ := testMachine(Config{},
			EncodeADDI(1, 0, 1),
			EncodeADDI(3, 0, shamt),
			EncodeSLL(2, 1, 3),
			EncodeJAL(0, 0),
		)
		stats := runParked(t, m)
		require.Equal(t, uint32(1)<<uint32(shamt), m.Core.Reg(2), "shamt %d", shamt)
		require.Equal(t, uint64(1+5+5+5+4)+uint64(shamt), stats.Cycles, "shamt %d adds exactly %d ticks", shamt, shamt)
	}
}

func TestBranches(t *testing.T) {
	// x3 is only written when the branch falls through to the ADDI under it
	branchProgram := func(branch uint32) []uint32 {
		return []uint32{
			EncodeADDI(1, 0, 5),
			EncodeADDI(2, 0, 7),
			branch,              // at 8: taken -> skip the ADDI
			EncodeADDI(3, 0, 1), // at 12
			EncodeJAL(0, 0),     // at 16
		}
	}
	cases := []struct {
		name  string
		word  uint32
		taken bool
	}{
		{"beq-unequal", EncodeBEQ(1, 2, 8), false},
		{"beq-equal", EncodeBEQ(1, 1, 8), true},
		{"bne", EncodeBNE(1, 2, 8), true},
		{"blt", EncodeBLT(1, 2, 8), true},
		{"bge", EncodeBGE(1, 2, 8), false},
		{"bltu", EncodeBLTU(2, 1, 8), false},
		{"bgeu", EncodeBGEU(2, 1, 8), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, _ := testMachine(Config{}, branchProgram(tc.word)...)
			runParked(t, m)
			if tc.taken {
				require.Equal(t, uint32(0), m.Core.Reg(3), "taken branch skips the fall-through")
			} else {
				require.Equal(t, uint32(1), m.Core.Reg(3), "fall through to PC+4")
			}
			require.Equal(t, uint32(16), m.Core.PC())
		})
	}

	t.Run("backward", func(t *testing.T) {
		// count x1 down from 3: ADDI x1,x0,3; ADDI x1,x1,-1; BNE x1,x0,-4; JAL self
		m, _ := testMachine(Config{},
			EncodeADDI(1, 0, 3),
			EncodeADDI(1, 1, -1),
			EncodeBNE(1, 0, -4),
			EncodeJAL(0, 0),
		)
		runParked(t, m)
		require.Equal(t, uint32(0), m.Core.Reg(1))
		require.Equal(t, uint32(12), m.Core.PC())
	})
}

func TestLoadStoreRoundTrip(t *testing.T) {
	t.Run("byte", func(t *testing.T) {
		// store 0x8F at 65, load it back signed and unsigned
		m, ram := testMachine(Config{},
			EncodeADDI(1, 0, 0x8F),
			EncodeSB(1, 0, 65),
			EncodeLB(2, 0, 65),
			EncodeLBU(3, 0, 65),
			EncodeJAL(0, 0),
		)
		runParked(t, m)
		require.Equal(t, uint32(0xFFFFFF8F), m.Core.Reg(2), "signed load sign-extends")
		require.Equal(t, uint32(0x0000008F), m.Core.Reg(3), "unsigned load zero-extends")
		require.Equal(t, uint32(0x00008F00), ram.Word(64), "byte landed in lane 1 only")
	})
	t.Run("halfword", func(t *testing.T) {
		m, ram := testMachine(Config{},
			EncodeLUI(1, 0x8BCD0000), // x1 = 0x8BCD0000
			EncodeSRLI(1, 1, 16),     // x1 = 0x00008BCD
			EncodeSH(1, 0, 66),
			EncodeLH(2, 0, 66),
			EncodeLHU(3, 0, 66),
			EncodeJAL(0, 0),
		)
		runParked(t, m)
		require.Equal(t, uint32(0xFFFF8BCD), m.Core.Reg(2))
		require.Equal(t, uint32(0x00008BCD), m.Core.Reg(3))
		require.Equal(t, uint32(0x8BCD0000), ram.Word(64), "halfword landed in the upper lanes")
	})
	t.Run("word", func(t *testing.T) {
		m, ram := testMachine(Config{},
			EncodeLUI(1, 0x12345000),
			EncodeADDI(1, 1, 0x678),
			EncodeSW(1, 0, 100),
			EncodeLW(2, 0, 100),
			EncodeJAL(0, 0),
		)
		runParked(t, m)
		require.Equal(t, uint32(0x12345678), m.Core.Reg(2))
		require.Equal(t, uint32(0x12345678), ram.Word(100))
	})
	t.Run("load-data-area", func(t *testing.T) {
		m, ram := testMachine(Config{},
			EncodeLW(1, 0, 512),
			EncodeJAL(0, 0),
		)
		ram.SetWord(512, 0xCAFEBABE)
		runParked(t, m)
		require.Equal(t, uint32(0xCAFEBABE), m.Core.Reg(1))
	})
}

func TestJumpAndLink(t *testing.T) {
	t.Run("jal", func(t *testing.T) {
		m, _ := testMachine(Config{},
			EncodeJAL(1, 12),    // at 0: jump to 12, link 4
			EncodeNOP(),         // at 4: skipped
			EncodeNOP(),         // at 8: skipped
			EncodeJAL(0, 0),     // at 12
		)
		runParked(t, m)
		require.Equal(t, uint32(4), m.Core.Reg(1), "link register holds PC+4")
		require.Equal(t, uint32(12), m.Core.PC())
	})
	t.Run("jalr", func(t *testing.T) {
		m, _ := testMachine(Config{},
			EncodeADDI(1, 0, 17), // odd target: bit 0 must clear
			EncodeJALR(5, 1, 0),  // at 4: jump to 16, link 8
			EncodeNOP(),          // at 8
			EncodeNOP(),          // at 12
			EncodeJAL(0, 0),      // at 16
		)
		runParked(t, m)
		require.Equal(t, uint32(8), m.Core.Reg(5))
		require.Equal(t, uint32(16), m.Core.PC(), "JALR clears the target's low bit")
	})
}

func TestUpperImmediates(t *testing.T) {
	m, _ := testMachine(Config{},
		EncodeLUI(1, 0xABCDE000),
		EncodeAUIPC(2, 0x1000), // at 4: x2 = 4 + 0x1000
		EncodeJAL(0, 0),
	)
	runParked(t, m)
	require.Equal(t, uint32(0xABCDE000), m.Core.Reg(1))
	require.Equal(t, uint32(0x1004), m.Core.Reg(2))
}

func TestRegisterZero(t *testing.T) {
	m, _ := testMachine(Config{},
		EncodeADDI(0, 0, 5), // write to x0 is discarded
		EncodeADD(1, 0, 0),
		EncodeJAL(0, 0),
	)
	runParked(t, m)
	require.Equal(t, uint32(0), m.Core.Reg(0))
	require.Equal(t, uint32(0), m.Core.Reg(1))
}

// forceReadBusy holds read-busy high for n ticks after the first strobe,
// regardless of what the inner device reports.
type forceReadBusy struct {
	inner Bus
	n     int
	armed bool
}

func (f *forceReadBusy) Tick(out BusOut) BusIn {
	in := f.inner.Tick(out)
	if out.RStrobe {
		f.armed = true
	}
	if f.armed && f.n > 0 {
		f.n--
		in.RBusy = true
	}
	return in
}

func TestStallFidelity(t *testing.T) {
	program := []uint32{
		EncodeADDI(1, 0, 5),
		EncodeADDI(2, 0, 7),
		EncodeADD(3, 1, 2),
		EncodeJAL(0, 0),
	}

	// reference run without any forced stall
	ref, _ := testMachine(Config{}, program...)
	runParked(t, ref)
	wantRegs := ref.Core.Registers()
	wantPC := ref.Core.PC()

	for _, n := range []int{0, 1, 3, 17} {
		ram := NewRAM(4096)
		for i, w := range program {
			ram.SetWord(uint32(i)*4, w)
		}
		core := NewCore(Config{})
		m := NewMachine(core, &forceReadBusy{inner: ram, n: n})

		// reach WAIT_INSTR of the first fetch: reset drain + fetch tick
		require.NoError(t, m.Tick())
		require.NoError(t, m.Tick())
		require.Equal(t, StateWaitInstr, core.State())

		// while busy is forced, nothing observable may change
		for i := 0; i < n-1; i++ {
			pc, regs := core.PC(), core.Registers()
			require.NoError(t, m.Tick())
			require.Equal(t, StateWaitInstr, core.State(), "stalled tick %d of n=%d", i, n)
			require.Equal(t, pc, core.PC())
			require.Equal(t, regs, core.Registers())
		}

		// once released, the run completes identically
		parked, err := m.RunUntilParked(10_000)
		require.NoError(t, err)
		require.True(t, parked)
		require.Equal(t, wantRegs, core.Registers(), "n=%d", n)
		require.Equal(t, wantPC, core.PC(), "n=%d", n)
	}
}

func TestStalledStoreBus(t *testing.T) {
	ram := NewRAM(4096)
	program := []uint32{
		EncodeADDI(1, 0, 0x55),
		EncodeSB(1, 0, 256),
		EncodeLBU(2, 0, 256),
		EncodeJAL(0, 0),
	}
	for i, w := range program {
		ram.SetWord(uint32(i)*4, w)
	}
	counter := &countingBus{inner: ram}
	m := NewMachine(NewCore(Config{}), &StallBus{Inner: counter, ReadWait: 2, WriteWait: 4})
	stats := runParked(t, m)
	require.Equal(t, uint32(0x55), m.Core.Reg(2), "round trip through the slow bus")
	require.Equal(t, 1, counter.writes, "one physical write per store")
	require.NotZero(t, stats.Stalls)
}

func TestCycleCounter(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		m, _ := testMachine(Config{CounterWidth: 32},
			EncodeRDCYCLE(1),
			EncodeRDCYCLE(2),
			EncodeJAL(0, 0),
		)
		runParked(t, m)
		require.NotZero(t, m.Core.Reg(1))
		require.Equal(t, uint32(4), m.Core.Reg(2)-m.Core.Reg(1),
			"counter reads are one single-cycle instruction apart")
	})
	t.Run("narrow", func(t *testing.T) {
		m, _ := testMachine(Config{CounterWidth: 4},
			EncodeRDCYCLE(1),
			EncodeJAL(0, 0),
		)
		runParked(t, m)
		require.Less(t, m.Core.Reg(1), uint32(16), "counter value is masked to its width")
	})
	t.Run("absent", func(t *testing.T) {
		m, _ := testMachine(Config{},
			EncodeADDI(1, 0, 99),
			EncodeRDCYCLE(1),
			EncodeJAL(0, 0),
		)
		runParked(t, m)
		require.Equal(t, uint32(99), m.Core.Reg(1), "without a counter the read writes nothing")
	})
}

func TestUndefinedInstruction(t *testing.T) {
	t.Run("silent-by-default", func(t *testing.T) {
		m, _ := testMachine(Config{},
			0xFFFFFFFF, // no recognizable class
			EncodeADDI(1, 0, 3),
			EncodeJAL(0, 0),
		)
		runParked(t, m)
		require.Equal(t, uint32(3), m.Core.Reg(1), "execution continues past the undefined word")
		require.False(t, m.Core.Err(), "the hardwired error output never rises")
	})
	t.Run("strict", func(t *testing.T) {
		m, _ := testMachine(Config{StrictUndefined: true},
			0xFFFFFFFF,
			EncodeJAL(0, 0),
		)
		_, err := m.RunUntilParked(10_000)
		require.ErrorContains(t, err, "undefined instruction")
		require.ErrorContains(t, err, "ffffffff")
	})
}

func TestAddressWidth(t *testing.T) {
	c := NewCore(Config{ResetAddr: 0x0123_4567})
	require.Equal(t, uint32(0x23_4567), c.PC(), "PC is confined to the default 24-bit address space")
	require.Equal(t, uint32(0x23_4567), c.BusOut().Addr)

	c = NewCore(Config{ResetAddr: 0x0123_4567, AddrWidth: 32})
	require.Equal(t, uint32(0x0123_4567), c.PC())
}

func TestResetReentry(t *testing.T) {
	m, _ := testMachine(Config{},
		EncodeADDI(1, 0, 9),
		EncodeJAL(0, 0),
	)
	runParked(t, m)
	require.Equal(t, uint32(9), m.Core.Reg(1))

	m.Core.Reset()
	require.Equal(t, StateWaitALUOrMem, m.Core.State())
	require.Equal(t, uint32(0), m.Core.Reg(1), "registers clear on reset")

	parked, err := m.RunUntilParked(10_000)
	require.NoError(t, err)
	require.True(t, parked)
	require.Equal(t, uint32(9), m.Core.Reg(1), "the program runs again after reset")
}
