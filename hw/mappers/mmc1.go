package mappers

import (
	"errors"

	"nescart/hw/snapshot"
	"nescart/ines"
)

var MMC1 = MapperDesc{
	ID:   1,
	Name: "Nintendo MMC1",
	New:  newMMC1,
}

type mmc1 struct {
	*base

	serial  shiftReg // shift register
	counter uint8    // count of bits shifted

	// Internal registers, as last written.
	control uint8
	chr0    uint8
	chr1    uint8
	prg     uint8
}

type shiftReg uint8

func (sr shiftReg) push(val uint8) shiftReg {
	sr >>= 1
	sr |= shiftReg((val << 4) & 0x10)
	return sr
}

func newMMC1(b *base) Mapper {
	m := &mmc1{base: b}
	b.init(m.WritePRGROM)
	return m
}

func (m *mmc1) WritePRGROM(addr uint16, val uint8) {
	if val&0x80 != 0 {
		// if the resetbit is set.
		//	- ignore databit
		//	- reset shift register (so that the next write is the "first" write)
		//	- bits 2,3 of control reg are set (16k PRG mode, $8000 swappable)
		//	- other bits of $8000 (and other regs) are unchanged
		m.serial = 0
		m.counter = 0
		m.control |= 0x0C
		m.remap()
		return
	}

	m.serial = m.serial.push(val)
	m.counter++
	if m.counter == 5 {
		m.writeREG(addr, uint8(m.serial))
		m.serial = 0
		m.counter = 0
	}
}

func (m *mmc1) writeREG(addr uint16, val uint8) {
	switch (addr >> 13) & 3 {
	case 0:
		m.writeCTRL(val)
	case 1:
		modMapper.DebugZ("Write CHR0 reg").String("mapper", m.desc.Name).Uint8("val", val).End()
		m.chr0 = val
	case 2:
		modMapper.DebugZ("Write CHR1 reg").String("mapper", m.desc.Name).Uint8("val", val).End()
		m.chr1 = val
	case 3:
		modMapper.DebugZ("Write PRG reg").String("mapper", m.desc.Name).Uint8("val", val).End()
		m.prg = val
	}
	m.remap()
}

func (m *mmc1) writeCTRL(val uint8) {
	m.control = val
	m.setMirroring(m.mirroring())

	modMapper.DebugZ("Write CTRL reg").String("mapper", m.desc.Name).
		Uint8("val", val).
		Uint8("prgmode", m.prgmode()).
		Uint8("chrmode", m.chrmode()).
		End()
}

// 4bit0
// -----
// CPPMM
// |||||
// |||++- Mirroring (0: one-screen, lower bank; 1: one-screen, upper bank;
// |||               2: vertical; 3: horizontal)
// |++--- PRG ROM bank mode (0, 1: switch 32 KB at $8000, ignoring low bit of bank number;
// |                         2: fix first bank at $8000 and switch 16 KB bank at $C000;
// |                         3: fix last bank at $C000 and switch 16 KB bank at $8000)
// +----- CHR ROM bank mode (0: switch 8 KB at a time; 1: switch two separate 4 KB banks)

func (m *mmc1) mirroring() ines.NTMirroring {
	switch m.control & 0x03 {
	case 0:
		return ines.OnlyAScreen
	case 1:
		return ines.OnlyBScreen
	case 2:
		return ines.VertMirroring
	}
	return ines.HorzMirroring
}

func (m *mmc1) prgmode() uint8 { return (m.control >> 2) & 0x03 }
func (m *mmc1) chrmode() uint8 { return (m.control >> 4) & 0x01 }

// PRG register
//
// 4bit0
// -----
// RPPPP
// |||||
// |++++- Select 16 KB PRG ROM bank (low bit ignored in 32 KB mode)
// +----- PRG RAM chip enable (0: enabled; 1: disabled)

func (m *mmc1) remap() {
	// 512KB boards (SUROM) select the 256KB outer PRG bank with bit 4 of
	// CHR0, the same way for both 4KB and 8KB CHR modes.
	outer, nbanks := 0, m.rom.PRG.Len()
	if nbanks > 16 {
		outer = int(m.chr0>>4&1) * 16
		nbanks = 16
	}

	bank := int(m.prg & 0x0F)
	switch m.prgmode() {
	case 0, 1:
		// ignore low bit of bank number
		m.load32kRomBank((outer+bank)/2, 0x8000)
	case 2:
		m.loadRomBank(outer, 0x8000)
		m.loadRomBank(outer+bank, 0xC000)
	case 3:
		m.loadRomBank(outer+bank, 0x8000)
		m.loadRomBank(outer+nbanks-1, 0xC000)
	}

	m.wramDisabled = m.prg&0x10 != 0

	switch m.chrmode() {
	case 0:
		m.load8kVromBank(int(m.chr0&0x1E), 0x0000)
	case 1:
		m.loadVromBank(int(m.chr0), 0x0000)
		m.loadVromBank(int(m.chr1), 0x1000)
	}
}

func (m *mmc1) Load() error {
	if err := m.begin(); err != nil {
		return err
	}

	// On powerup: bits 2,3 of $8000 are set (this ensures the $8000 is bank 0,
	// and $C000 is the last bank - needed for SEROM/SHROM/SH1ROM which do no
	// support banking). Mirroring is kept from the header until the game
	// writes the control register.
	m.control = 0x0C
	m.chr0, m.chr1, m.prg = 0, 1, 0
	m.remap()

	m.loadBatteryRAM()
	m.end()
	return nil
}

func (m *mmc1) SaveState(s *snapshot.Cartridge) {
	m.base.SaveState(s)
	s.MMC1 = &snapshot.MMC1{
		Shift:   uint8(m.serial),
		Count:   m.counter,
		Control: m.control,
		CHR0:    m.chr0,
		CHR1:    m.chr1,
		PRG:     m.prg,
	}
}

func (m *mmc1) LoadState(s *snapshot.Cartridge) error {
	return m.loadState(s, func() error {
		if s.MMC1 == nil {
			return errors.New("missing MMC1 registers")
		}
		m.serial = shiftReg(s.MMC1.Shift & 0x1F)
		m.counter = s.MMC1.Count % 5
		m.control = s.MMC1.Control
		m.chr0 = s.MMC1.CHR0
		m.chr1 = s.MMC1.CHR1
		m.prg = s.MMC1.PRG
		m.remap()
		return nil
	})
}
