package rv32

// BusOut is the core's side of the memory bus, driven every tick: an address
// (already masked to the configured width and zero-extended to 32 bits), the
// lane-replicated write data with its byte mask, and the read strobe. The core
// holds a transaction's address, data and mask stable until the matching busy
// flag clears.
type BusOut struct {
	Addr    uint32
	WData   uint32
	WMask   uint8
	RStrobe bool
}

// BusIn is the memory side's response for the same tick. RData must be the
// aligned 32-bit word containing Addr and is sampled by the core exactly once,
// on the first tick RBusy is low after a strobe. Either busy flag may stay
// asserted for an arbitrary number of ticks; the core makes no forward
// progress while one holds.
type BusIn struct {
	RData uint32
	RBusy bool
	WBusy bool
}

// Bus is the memory/IO collaborator behind the core. Tick is called once per
// clock with the core's current outputs and returns the response the core
// observes on that same tick. Arbitration among multiple masters is out of
// scope: a Bus presents one combined response stream.
type Bus interface {
	Tick(out BusOut) BusIn
}

// RAM is a flat, word-addressed, zero-wait memory: reads are combinational on
// the stable address and neither busy flag is ever raised. It stands in for
// the on-chip block RAM of the original system.
type RAM struct {
	words []uint32
}

// NewRAM allocates size bytes of memory, rounded up to whole words.
func NewRAM(size int) *RAM {
	return &RAM{words: make([]uint32, (size+3)/4)}
}

// Size returns the memory size in bytes.
func (m *RAM) Size() int {
	return len(m.words) * 4
}

// Word returns the aligned word containing addr. Out-of-range reads are zero.
func (m *RAM) Word(addr uint32) uint32 {
	i := int(addr >> 2)
	if i >= len(m.words) {
		return 0
	}
	return m.words[i]
}

// SetWord overwrites the aligned word containing addr. Out-of-range writes
// are dropped.
func (m *RAM) SetWord(addr uint32, v uint32) {
	i := int(addr >> 2)
	if i < len(m.words) {
		m.words[i] = v
	}
}

func (m *RAM) Tick(out BusOut) BusIn {
	if out.WMask != 0 {
		i := int(out.Addr >> 2)
		if i < len(m.words) {
			m.words[i] = maskedWord(m.words[i], out.WData, out.WMask)
		}
	}
	return BusIn{RData: m.Word(out.Addr)}
}

// maskedWord merges the write data into old, lane by lane.
func maskedWord(old, wdata uint32, wmask uint8) uint32 {
	v := old
	for lane := uint(0); lane < 4; lane++ {
		if wmask&(1<<lane) != 0 {
			shift := 8 * lane
			v = v&^(0xFF<<shift) | wdata&(0xFF<<shift)
		}
	}
	return v
}

// StallBus delays every transaction of the device behind it by a fixed number
// of ticks, modeling slow external storage such as SPI flash. A transaction
// starts on the rising edge of the strobe or write mask; the level-held mask
// of an already-completed write does not start another one.
type StallBus struct {
	Inner     Bus
	ReadWait  int // busy ticks per read
	WriteWait int // busy ticks per write

	reading bool
	rleft   int
	writing bool
	wleft   int
	wheld   bool
}

func (s *StallBus) Tick(out BusOut) BusIn {
	if out.RStrobe && !s.reading {
		s.reading = true
		s.rleft = s.ReadWait
	}
	if out.WMask != 0 && !s.wheld && !s.writing {
		s.writing = true
		s.wleft = s.WriteWait
	}
	s.wheld = out.WMask != 0

	// the inner device sees each write exactly once, on its completion tick
	fwd := out
	fwd.WMask = 0
	if s.writing && s.wleft == 0 {
		fwd.WMask = out.WMask
	}
	in := s.Inner.Tick(fwd)

	if s.reading {
		if s.rleft > 0 {
			s.rleft--
			in.RBusy = true
		} else {
			s.reading = false
		}
	}
	if s.writing {
		if s.wleft > 0 {
			s.wleft--
			in.WBusy = true
		} else {
			// wait elapsed and the masked write just reached the inner device
			s.writing = false
		}
	}
	return in
}
