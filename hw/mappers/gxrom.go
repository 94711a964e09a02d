package mappers

var GxROM = MapperDesc{
	ID:   66,
	Name: "GNROM switch",
	New:  newGxROM,
}

type gxrom struct {
	*base
}

func newGxROM(b *base) Mapper {
	m := &gxrom{base: b}
	b.init(m.WritePRGROM)
	return m
}

func (m *gxrom) WritePRGROM(addr uint16, val uint8) {
	// 7  bit  0
	// ---- ----
	// xxPP xxCC
	//   ||   ||
	//   ||   ++- Select 8 KB CHR ROM bank for PPU $0000-$1FFF
	//   ++------ Select 32 KB PRG ROM bank for CPU $8000-$FFFF
	m.latch = val
	m.load32kRomBank(int(val>>4)&0x3, 0x8000)
	m.load8kVromBank(int(val&0x3)*2, 0x0000)
}
