package mappers

import (
	"nescart/ines"
)

var AxROM = MapperDesc{
	ID:   7,
	Name: "AOROM",
	New:  newAxROM,
}

type axrom struct {
	*base
}

func newAxROM(b *base) Mapper {
	m := &axrom{base: b}
	b.init(m.WritePRGROM)
	return m
}

func (m *axrom) WritePRGROM(addr uint16, val uint8) {
	// 7  bit  0
	// ---- ----
	// xxxM xPPP
	//    |  |||
	//    |  +++- Select 32 KB PRG ROM bank for CPU $8000-$FFFF
	//    +------ Select 1 KB VRAM page for all 4 nametables
	m.latch = val
	m.load32kRomBank(int(val&0x7), 0x8000)

	prevntm := m.ntm
	ntm := ines.OnlyAScreen
	if val&0x10 == 0x10 {
		ntm = ines.OnlyBScreen
	}
	m.setMirroring(ntm)
	if prevntm != m.ntm {
		modMapper.DebugZ("select NT mirroring").
			String("mapper", m.desc.Name).
			Stringer("prev", prevntm).
			Stringer("new", m.ntm).
			End()
	}
}
