package mappers

var UxROM = MapperDesc{
	ID:   2,
	Name: "UNROM",
	New:  newUxROM,
}

type uxrom struct {
	*base
}

func newUxROM(b *base) Mapper {
	m := &uxrom{base: b}
	b.init(m.WritePRGROM)
	return m
}

func (m *uxrom) WritePRGROM(addr uint16, val uint8) {
	// 7  bit  0
	// ---- ----
	// xxxx pPPP
	//      ||||
	//      ++++- Select 16 KB PRG ROM bank for CPU $8000-$BFFF
	//            (UNROM uses bits 2-0; UOROM uses bits 3-0)
	//
	// All bits are used, the bank number is reduced modulo the number of
	// banks.
	m.latch = val
	m.loadRomBank(int(val), 0x8000)
}

func (m *uxrom) Load() error {
	if err := m.begin(); err != nil {
		return err
	}
	m.loadRomBank(0, 0x8000)
	m.loadRomBank(m.rom.PRG.Len()-1, 0xC000)
	m.loadCHRROM()
	m.loadBatteryRAM()
	m.end()
	return nil
}
