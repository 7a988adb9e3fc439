package rv32

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Program image loading. Firmware comes either as a raw little-endian binary
// or as the $readmemh-style listing the original build emits: one 32-bit hex
// word per line, optional `@addr` origin records (word-addressed), and `//`
// comments.

// LoadBinary copies a raw little-endian image into memory starting at addr.
func LoadBinary(m *RAM, addr uint32, r io.Reader) error {
	buf := bufio.NewReader(r)
	var word [4]byte
	for {
		n, err := io.ReadFull(buf, word[:])
		if n > 0 {
			for i := n; i < 4; i++ {
				word[i] = 0
			}
			if int(addr)+4 > m.Size() {
				return fmt.Errorf("image exceeds memory size %d at address %08x", m.Size(), addr)
			}
			m.SetWord(addr, binary.LittleEndian.Uint32(word[:]))
			addr += 4
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}
	}
}

// LoadHex parses a hex word listing into memory. The write position starts at
// word 0 and advances one word per value; an `@addr` record moves it.
func LoadHex(m *RAM, r io.Reader) error {
	sc := bufio.NewScanner(r)
	var wordAddr uint32
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.Index(text, "//"); i >= 0 {
			text = text[:i]
		}
		for _, tok := range strings.Fields(text) {
			if strings.HasPrefix(tok, "@") {
				v, err := parseHex32(tok[1:])
				if err != nil {
					return fmt.Errorf("line %d: bad origin record %q: %w", line, tok, err)
				}
				wordAddr = v
				continue
			}
			v, err := parseHex32(tok)
			if err != nil {
				return fmt.Errorf("line %d: bad word %q: %w", line, tok, err)
			}
			if int(wordAddr)*4 >= m.Size() {
				return fmt.Errorf("line %d: word address %x exceeds memory size %d", line, wordAddr, m.Size())
			}
			m.SetWord(wordAddr*4, v)
			wordAddr++
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read hex listing: %w", err)
	}
	return nil
}

func parseHex32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 16, 32)
	return uint32(v), err
}
