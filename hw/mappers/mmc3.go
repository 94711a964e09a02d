package mappers

import (
	"errors"

	"nescart/hw/hwdefs"
	"nescart/hw/snapshot"
	"nescart/ines"
)

var MMC3 = MapperDesc{
	ID:   4,
	Name: "Nintendo MMC3",
	New:  newMMC3,
}

// Bank register commands, selected by $8000.
const (
	cmdSel2x1kVROM0000 = iota // 2KB CHR bank at $0000 (or $1000)
	cmdSel2x1kVROM0800        // 2KB CHR bank at $0800 (or $1800)
	cmdSel1kVROM1000          // 1KB CHR bank at $1000 (or $0000)
	cmdSel1kVROM1400          // 1KB CHR bank at $1400 (or $0400)
	cmdSel1kVROM1800          // 1KB CHR bank at $1800 (or $0800)
	cmdSel1kVROM1C00          // 1KB CHR bank at $1C00 (or $0C00)
	cmdSelROMPage1            // 8KB PRG bank at $8000 (or $C000)
	cmdSelROMPage2            // 8KB PRG bank at $A000
)

type mmc3 struct {
	*base

	command uint8
	prgmode uint8
	chrmode uint8
	regs    [8]uint8

	prgRAMProtect uint8

	irqCounter int
	irqLatch   uint8
	irqEnable  bool
}

func newMMC3(b *base) Mapper {
	m := &mmc3{base: b}
	b.init(m.WritePRGROM)
	return m
}

func (m *mmc3) WritePRGROM(addr uint16, val uint8) {
	switch addr & 0xE001 {
	case 0x8000:
		// 7  bit  0
		// ---- ----
		// CPMx xRRR
		// |||   |||
		// |||   +++- Specify which bank register to update on next write to Bank Data register
		// ||+------- Nothing on the MMC3
		// |+-------- PRG ROM bank mode (0: $8000-$9FFF swappable,
		// |                                $C000-$DFFF fixed to second-last bank;
		// |                             1: $C000-$DFFF swappable,
		// |                                $8000-$9FFF fixed to second-last bank)
		// +--------- CHR A12 inversion (0: two 2 KB banks at $0000-$0FFF,
		//                                  four 1 KB banks at $1000-$1FFF;
		//                               1: two 2 KB banks at $1000-$1FFF,
		//                                  four 1 KB banks at $0000-$0FFF)
		m.command = val & 0x07
		prgmode, chrmode := (val>>6)&1, (val>>7)&1
		if prgmode != m.prgmode {
			m.prgmode = prgmode
			m.updatePRG()
		}
		if chrmode != m.chrmode {
			m.chrmode = chrmode
			m.updateCHR()
		}

	case 0x8001:
		m.regs[m.command] = val
		if m.command >= cmdSelROMPage1 {
			m.updatePRG()
		} else {
			m.updateCHRReg(m.command)
		}

	case 0xA000:
		if val&1 != 0 {
			m.setMirroring(ines.HorzMirroring)
		} else {
			m.setMirroring(ines.VertMirroring)
		}

	case 0xA001:
		// 7  bit  0
		// ---- ----
		// RWXX xxxx
		// ||||
		// ||++------ Nothing on the MMC3
		// |+-------- Write protection (0: allow writes; 1: deny writes)
		// +--------- PRG RAM chip enable (0: disable; 1: enable)
		m.prgRAMProtect = val
		m.applyPRGRAMProtect()

	case 0xC000:
		m.irqCounter = int(val)

	case 0xC001:
		m.irqLatch = val

	case 0xE000:
		m.irqEnable = false
		m.clearInterrupt(hwdefs.IRQNormal)

	case 0xE001:
		m.irqEnable = true
	}
}

func (m *mmc3) applyPRGRAMProtect() {
	m.wramDisabled = m.prgRAMProtect&0x80 == 0
	m.wramReadOnly = m.prgRAMProtect&0x40 != 0
}

func (m *mmc3) updatePRG() {
	// Second-last 8KB bank.
	last := (m.rom.PRG.Len() - 1) * 2

	if m.prgmode == 0 {
		m.load8kRomBank(int(m.regs[cmdSelROMPage1]), 0x8000)
		m.load8kRomBank(last, 0xC000)
	} else {
		m.load8kRomBank(last, 0x8000)
		m.load8kRomBank(int(m.regs[cmdSelROMPage1]), 0xC000)
	}
	m.load8kRomBank(int(m.regs[cmdSelROMPage2]), 0xA000)
	m.load8kRomBank(last+1, 0xE000)
}

func (m *mmc3) updateCHR() {
	for cmd := range uint8(cmdSelROMPage1) {
		m.updateCHRReg(cmd)
	}
}

// updateCHRReg projects the CHR banks selected by a single bank register.
func (m *mmc3) updateCHRReg(cmd uint8) {
	// 2KB banks are at $0000 and 1KB banks at $1000, swapped in CHR mode 1.
	var lo, hi uint16 = 0x0000, 0x1000
	if m.chrmode == 1 {
		lo, hi = hi, lo
	}

	arg := int(m.regs[cmd])
	switch cmd {
	case cmdSel2x1kVROM0000:
		m.load1kVromBank(arg, lo)
		m.load1kVromBank(arg+1, lo+0x0400)
	case cmdSel2x1kVROM0800:
		m.load1kVromBank(arg, lo+0x0800)
		m.load1kVromBank(arg+1, lo+0x0C00)
	case cmdSel1kVROM1000:
		m.load1kVromBank(arg, hi)
	case cmdSel1kVROM1400:
		m.load1kVromBank(arg, hi+0x0400)
	case cmdSel1kVROM1800:
		m.load1kVromBank(arg, hi+0x0800)
	case cmdSel1kVROM1C00:
		m.load1kVromBank(arg, hi+0x0C00)
	}
}

// ClockScanline is called once per scanline. When enabled, the counter is
// decremented and an IRQ is requested when it goes below zero, then the
// counter is reloaded from the latch.
func (m *mmc3) ClockScanline() {
	if !m.irqEnable {
		return
	}
	m.irqCounter--
	if m.irqCounter < 0 {
		modMapper.DebugZ("IRQ").
			String("mapper", m.desc.Name).
			Uint8("latch", m.irqLatch).
			End()
		m.requestInterrupt(hwdefs.IRQNormal)
		m.irqCounter = int(m.irqLatch)
	}
}

func (m *mmc3) Load() error {
	if err := m.begin(); err != nil {
		return err
	}

	// Hardwired banks at $C000 and $E000, banks 0 and 1 at $8000 and $A000.
	// CHR banks are laid out linearly.
	m.command, m.prgmode, m.chrmode = 0, 0, 0
	m.regs = [8]uint8{0, 2, 4, 5, 6, 7, 0, 1}
	m.updatePRG()
	m.updateCHR()

	m.prgRAMProtect = 0x80
	m.applyPRGRAMProtect()

	m.loadBatteryRAM()
	m.end()
	return nil
}

func (m *mmc3) SaveState(s *snapshot.Cartridge) {
	m.base.SaveState(s)
	s.MMC3 = &snapshot.MMC3{
		Command:       m.command,
		PRGMode:       m.prgmode,
		CHRMode:       m.chrmode,
		Regs:          m.regs,
		PRGRAMProtect: m.prgRAMProtect,
		IRQCounter:    m.irqCounter,
		IRQLatch:      m.irqLatch,
		IRQEnable:     m.irqEnable,
	}
}

func (m *mmc3) LoadState(s *snapshot.Cartridge) error {
	return m.loadState(s, func() error {
		if s.MMC3 == nil {
			return errors.New("missing MMC3 registers")
		}
		st := s.MMC3
		m.command = st.Command & 0x07
		m.prgmode = st.PRGMode & 1
		m.chrmode = st.CHRMode & 1
		m.regs = st.Regs
		m.prgRAMProtect = st.PRGRAMProtect
		m.irqCounter = st.IRQCounter
		m.irqLatch = st.IRQLatch
		m.irqEnable = st.IRQEnable

		m.updatePRG()
		m.updateCHR()
		m.applyPRGRAMProtect()
		return nil
	})
}
