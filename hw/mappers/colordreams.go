package mappers

var ColorDreams = MapperDesc{
	ID:   11,
	Name: "Color Dreams Chip",
	New:  newColorDreams,
}

type colordreams struct {
	*base
}

func newColorDreams(b *base) Mapper {
	m := &colordreams{base: b}
	b.init(m.WritePRGROM)
	return m
}

func (m *colordreams) WritePRGROM(addr uint16, val uint8) {
	// 7  bit  0
	// ---- ----
	// CCCC PPPP
	// |||| ||||
	// |||| ++++- Select 32 KB PRG ROM bank for CPU $8000-$FFFF
	// ++++------ Select 8 KB CHR ROM bank for PPU $0000-$1FFF
	m.latch = val
	m.load32kRomBank(int(val&0xF), 0x8000)
	m.load8kVromBank(int(val>>4)*2, 0x0000)
}
