package mappers

import (
	"nescart/hw/snapshot"
)

var BNROM = MapperDesc{
	ID:   34,
	Name: "32kB ROM switch",
	New:  newBNROM,
}

// bnrom implements both boards sharing mapper 34: BNROM selects the PRG bank
// with writes to ROM space, NINA-001 with registers at the end of work RAM.
// NINA-001 boards carry CHR ROM, BNROM boards CHR RAM, so the registers are
// only decoded on cartridges with CHR ROM.
type bnrom struct {
	*base

	prgbank  uint8
	chrbanks [2]uint8 // NINA-001 4KB CHR banks.
}

func newBNROM(b *base) Mapper {
	m := &bnrom{base: b}
	m.chrbanks[1] = 1
	b.init(m.WritePRGROM)
	if b.rom.CHR.Len() > 0 {
		b.writeWRAM = m.writeNINA
	}
	return m
}

func (m *bnrom) WritePRGROM(addr uint16, val uint8) {
	m.latch = val
	m.selectPRG(val)
}

func (m *bnrom) selectPRG(val uint8) {
	m.prgbank = val
	m.load32kRomBank(int(val), 0x8000)
}

// writeNINA handles the NINA-001 registers. They are also regular work RAM
// cells.
func (m *bnrom) writeNINA(addr uint16, val uint8) {
	switch addr {
	case 0x7FFD:
		// 7  bit  0
		// ---- ----
		// xxxx xxxP
		//         |
		//         +- Select 32 KB PRG ROM bank for CPU $8000-$FFFF
		m.selectPRG(val & 0x01)
	case 0x7FFE:
		// Select 4 KB CHR ROM bank for PPU $0000-$0FFF
		m.chrbanks[0] = val & 0x0F
		m.loadVromBank(int(m.chrbanks[0]), 0x0000)
	case 0x7FFF:
		// Select 4 KB CHR ROM bank for PPU $1000-$1FFF
		m.chrbanks[1] = val & 0x0F
		m.loadVromBank(int(m.chrbanks[1]), 0x1000)
	}
}

func (m *bnrom) SaveState(s *snapshot.Cartridge) {
	m.base.SaveState(s)
	s.NINA = [3]uint8{m.prgbank, m.chrbanks[0], m.chrbanks[1]}
}

func (m *bnrom) LoadState(s *snapshot.Cartridge) error {
	return m.loadState(s, func() error {
		m.selectPRG(s.NINA[0])
		m.chrbanks = [2]uint8{s.NINA[1], s.NINA[2]}
		m.loadVromBank(int(m.chrbanks[0]), 0x0000)
		m.loadVromBank(int(m.chrbanks[1]), 0x1000)
		return nil
	})
}
