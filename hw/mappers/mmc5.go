package mappers

import (
	"errors"

	"nescart/hw/hwdefs"
	"nescart/hw/snapshot"
	"nescart/ines"
)

var MMC5 = MapperDesc{
	ID:   5,
	Name: "Nintendo MMC5",
	New:  newMMC5,
}

const (
	exramSize = 0x400

	mmc5IRQPending = 0x80
	mmc5InFrame    = 0x40

	mmc5VisibleLines = 240
	mmc5TotalLines   = 262
)

type mmc5 struct {
	*base

	prgSize  uint8 // $5100
	chrSize  uint8 // $5101
	sramWEA  uint8 // $5102
	sramWEB  uint8 // $5103
	gfxMode  uint8 // $5104
	ntMode   uint8 // $5105
	fillTile uint8 // $5106
	fillAttr uint8 // $5107

	prgRAMBank uint8    // $5113
	prgRegs    [4]uint8 // $5114-$5117

	chrSet uint8 // last written CHR set (0: A, 1: B)
	chrA   [8]uint8
	chrB   [4]uint8

	splitCtrl   uint8
	splitScroll uint8
	splitPage   uint8

	irqLine   uint8
	irqEnable uint8
	irqStatus uint8
	scanline  int

	multA, multB uint8

	exram [exramSize]byte
}

func newMMC5(b *base) Mapper {
	m := &mmc5{base: b}
	b.regBase = 0x5000
	b.init(m.WriteReg)
	b.readReg = m.ReadReg
	return m
}

// WriteReg handles all writes at or above $5000.
func (m *mmc5) WriteReg(addr uint16, val uint8) {
	switch {
	case addr >= 0x8000:
		modMapper.DebugZ("write to PRG ROM").
			String("mapper", m.desc.Name).
			Hex16("addr", addr).
			Hex8("val", val).
			End()
		return
	case addr >= 0x6000:
		m.WriteLow(addr, val)
		return
	case addr >= 0x5C00:
		m.writeExRAM(addr-0x5C00, val)
		return
	case addr <= 0x5015:
		// Expansion audio.
		modMapper.DebugZ("ignored audio write").
			String("mapper", m.desc.Name).
			Hex16("addr", addr).
			Hex8("val", val).
			End()
		return
	}

	switch addr {
	case 0x5100:
		m.prgSize = val & 3
		m.remapPRG()
	case 0x5101:
		m.chrSize = val & 3
		m.remapCHR()
	case 0x5102:
		m.sramWEA = val & 3
		m.applyRAMProtect()
	case 0x5103:
		m.sramWEB = val & 3
		m.applyRAMProtect()
	case 0x5104:
		m.gfxMode = val & 3
	case 0x5105:
		m.ntMode = val
		m.applyNTMode()
	case 0x5106:
		m.fillTile = val
	case 0x5107:
		m.fillAttr = val & 3
	case 0x5113:
		m.prgRAMBank = val & 7
	case 0x5114, 0x5115, 0x5116, 0x5117:
		m.prgRegs[addr-0x5114] = val
		m.remapPRG()
	case 0x5120, 0x5121, 0x5122, 0x5123, 0x5124, 0x5125, 0x5126, 0x5127:
		m.chrSet = 0
		m.chrA[addr&7] = val
		m.remapCHR()
	case 0x5128, 0x5129, 0x512A, 0x512B:
		m.chrSet = 1
		m.chrB[addr&3] = val
		m.remapCHR()
	case 0x5200:
		m.splitCtrl = val
	case 0x5201:
		m.splitScroll = val
	case 0x5202:
		m.splitPage = val & 0x3F
	case 0x5203:
		m.irqLine = val
		m.clearInterrupt(hwdefs.IRQNormal)
	case 0x5204:
		m.irqEnable = val
		m.clearInterrupt(hwdefs.IRQNormal)
	case 0x5205:
		m.multA = val
	case 0x5206:
		m.multB = val
	default:
		modMapper.DebugZ("ignored write").
			String("mapper", m.desc.Name).
			Hex16("addr", addr).
			Hex8("val", val).
			End()
	}
}

// ReadReg handles reads of the readable registers and of ExRAM.
func (m *mmc5) ReadReg(addr uint16) (uint8, bool) {
	switch {
	case addr == 0x5204:
		// 7  bit  0
		// ---- ----
		// SVxx xxxx
		// ||
		// |+-------- "In Frame" flag
		// +--------- Scanline IRQ Pending flag
		val := m.irqStatus
		m.irqStatus &^= mmc5IRQPending
		m.clearInterrupt(hwdefs.IRQNormal)
		return val, true
	case addr == 0x5205:
		return uint8(uint16(m.multA) * uint16(m.multB)), true
	case addr == 0x5206:
		return uint8(uint16(m.multA) * uint16(m.multB) >> 8), true
	case addr >= 0x5C00 && addr <= 0x5FFF:
		if m.gfxMode >= 2 {
			return m.exram[addr-0x5C00], true
		}
		return 0, true
	}
	return 0, false
}

func (m *mmc5) writeExRAM(off uint16, val uint8) {
	switch m.gfxMode {
	case 2:
		m.exram[off] = val
	case 3:
		// read-only
	default:
		// Used as nametable: writes outside of rendering store 0.
		if m.irqStatus&mmc5InFrame != 0 {
			m.exram[off] = val
		} else {
			m.exram[off] = 0
		}
	}
}

func (m *mmc5) applyRAMProtect() {
	m.wramReadOnly = !(m.sramWEA == 2 && m.sramWEB == 1)
}

// applyNTMode maps the $5105 nametable layout onto a mirroring mode. Layouts
// using ExRAM or fill mode as a nametable have no equivalent and are only
// logged.
func (m *mmc5) applyNTMode() {
	switch m.ntMode {
	case 0x00:
		m.setMirroring(ines.OnlyAScreen)
	case 0x55:
		m.setMirroring(ines.OnlyBScreen)
	case 0x44:
		m.setMirroring(ines.VertMirroring)
	case 0x50:
		m.setMirroring(ines.HorzMirroring)
	default:
		modMapper.DebugZ("unsupported nametable mode").
			String("mapper", m.desc.Name).
			Hex8("mode", m.ntMode).
			End()
	}
}

// remapPRG projects the PRG windows from $5114-$5117, according to the PRG
// mode. Bit 7 of $5114-$5116 selects ROM; RAM banks in ROM space are not
// emulated and keep the window as is. $5117 always selects ROM.
func (m *mmc5) remapPRG() {
	rom := func(i int) (int, bool) {
		v := m.prgRegs[i]
		return int(v & 0x7F), i == 3 || v&0x80 != 0
	}

	switch m.prgSize {
	case 0:
		// 32KB
		bank, _ := rom(3)
		bank &= 0x7C
		m.load8kRomBank(bank+0, 0x8000)
		m.load8kRomBank(bank+1, 0xA000)
		m.load8kRomBank(bank+2, 0xC000)
		m.load8kRomBank(bank+3, 0xE000)
	case 1:
		// 16KB + 16KB
		if bank, ok := rom(1); ok {
			bank &= 0x7E
			m.load8kRomBank(bank+0, 0x8000)
			m.load8kRomBank(bank+1, 0xA000)
		}
		bank, _ := rom(3)
		bank &= 0x7E
		m.load8kRomBank(bank+0, 0xC000)
		m.load8kRomBank(bank+1, 0xE000)
	case 2:
		// 16KB + 8KB + 8KB
		if bank, ok := rom(1); ok {
			bank &= 0x7E
			m.load8kRomBank(bank+0, 0x8000)
			m.load8kRomBank(bank+1, 0xA000)
		}
		if bank, ok := rom(2); ok {
			m.load8kRomBank(bank, 0xC000)
		}
		bank, _ := rom(3)
		m.load8kRomBank(bank, 0xE000)
	case 3:
		// 4 x 8KB
		for i, addr := range [3]uint16{0x8000, 0xA000, 0xC000} {
			if bank, ok := rom(i); ok {
				m.load8kRomBank(bank, addr)
			}
		}
		bank, _ := rom(3)
		m.load8kRomBank(bank, 0xE000)
	}
}

// remapCHR projects the last written CHR set, according to the CHR mode.
func (m *mmc5) remapCHR() {
	regs := m.chrA
	if m.chrSet == 1 {
		regs = [8]uint8{m.chrB[0], m.chrB[1], m.chrB[2], m.chrB[3], m.chrB[0], m.chrB[1], m.chrB[2], m.chrB[3]}
	}

	switch m.chrSize {
	case 0:
		m.load8kVromBank(int(regs[7])*2, 0x0000)
	case 1:
		m.loadVromBank(int(regs[3]), 0x0000)
		m.loadVromBank(int(regs[7]), 0x1000)
	case 2:
		m.load2kVromBank(int(regs[1]), 0x0000)
		m.load2kVromBank(int(regs[3]), 0x0800)
		m.load2kVromBank(int(regs[5]), 0x1000)
		m.load2kVromBank(int(regs[7]), 0x1800)
	case 3:
		for i, r := range regs {
			m.load1kVromBank(int(r), uint16(i)*0x400)
		}
	}
}

// ClockScanline is called once per scanline. The counter is compared to the
// IRQ line, an IRQ is requested on a match when enabled.
func (m *mmc5) ClockScanline() {
	m.scanline++
	if m.scanline >= mmc5TotalLines {
		m.scanline = 0
	}

	if m.scanline < mmc5VisibleLines {
		m.irqStatus |= mmc5InFrame
	} else {
		m.irqStatus &^= mmc5InFrame
	}

	if m.irqLine != 0 && m.scanline == int(m.irqLine) {
		m.irqStatus |= mmc5IRQPending
		if m.irqEnable&0x80 != 0 {
			modMapper.DebugZ("IRQ").
				String("mapper", m.desc.Name).
				Int("scanline", m.scanline).
				End()
			m.requestInterrupt(hwdefs.IRQNormal)
		}
	}
}

func (m *mmc5) Load() error {
	if err := m.begin(); err != nil {
		return err
	}

	// Last 8KB bank in all windows.
	last := uint8(m.rom.PRG.Len()*2-1) & 0x7F
	m.prgSize = 3
	m.prgRegs = [4]uint8{0x80 | last, 0x80 | last, 0x80 | last, 0x80 | last}
	m.remapPRG()

	m.chrSize = 3
	m.chrSet = 0
	m.chrA = [8]uint8{0, 1, 2, 3, 4, 5, 6, 7}
	m.remapCHR()

	m.applyRAMProtect()
	m.loadBatteryRAM()
	m.end()
	return nil
}

func (m *mmc5) SaveState(s *snapshot.Cartridge) {
	m.base.SaveState(s)
	s.MMC5 = &snapshot.MMC5{
		PRGSize:     m.prgSize,
		CHRSize:     m.chrSize,
		SRAMWEA:     m.sramWEA,
		SRAMWEB:     m.sramWEB,
		GfxMode:     m.gfxMode,
		NTMode:      m.ntMode,
		FillTile:    m.fillTile,
		FillAttr:    m.fillAttr,
		PRGRAMBank:  m.prgRAMBank,
		PRG:         m.prgRegs,
		CHRSet:      m.chrSet,
		CHRA:        m.chrA,
		CHRB:        m.chrB,
		SplitCtrl:   m.splitCtrl,
		SplitScroll: m.splitScroll,
		SplitPage:   m.splitPage,
		IRQLine:     m.irqLine,
		IRQEnable:   m.irqEnable,
		IRQStatus:   m.irqStatus,
		Scanline:    m.scanline,
		MultA:       m.multA,
		MultB:       m.multB,
		ExRAM:       append([]byte(nil), m.exram[:]...),
	}
}

func (m *mmc5) LoadState(s *snapshot.Cartridge) error {
	return m.loadState(s, func() error {
		st := s.MMC5
		if st == nil {
			return errors.New("missing MMC5 registers")
		}
		if st.Scanline < 0 || st.Scanline >= mmc5TotalLines {
			return errors.New("MMC5 scanline out of range")
		}
		m.prgSize = st.PRGSize & 3
		m.chrSize = st.CHRSize & 3
		m.sramWEA = st.SRAMWEA & 3
		m.sramWEB = st.SRAMWEB & 3
		m.gfxMode = st.GfxMode & 3
		m.ntMode = st.NTMode
		m.fillTile = st.FillTile
		m.fillAttr = st.FillAttr & 3
		m.prgRAMBank = st.PRGRAMBank & 7
		m.prgRegs = st.PRG
		m.chrSet = st.CHRSet & 1
		m.chrA = st.CHRA
		m.chrB = st.CHRB
		m.splitCtrl = st.SplitCtrl
		m.splitScroll = st.SplitScroll
		m.splitPage = st.SplitPage & 0x3F
		m.irqLine = st.IRQLine
		m.irqEnable = st.IRQEnable
		m.irqStatus = st.IRQStatus & (mmc5IRQPending | mmc5InFrame)
		m.scanline = st.Scanline
		m.multA = st.MultA
		m.multB = st.MultB
		copy(m.exram[:], st.ExRAM)

		m.remapPRG()
		m.remapCHR()
		m.applyRAMProtect()
		return nil
	})
}
