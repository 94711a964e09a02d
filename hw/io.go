package hw

import (
	"nescart/emu/log"
	"nescart/hw/hwio"
)

// IO serves the $4000-$401F register window of the CPU: APU registers, the
// OAM DMA port and both input ports. Addresses are relative to $4000.
type IO struct {
	cpu *CPU

	OAMDMA hwio.Reg8 // $4014, holds the last page copied
}

func (p *IO) init(cpu *CPU) {
	p.cpu = cpu
	p.OAMDMA = hwio.Reg8{
		Name:    "OAMDMA",
		WriteCb: func(_, val uint8) { p.oamDMA(val) },
	}
}

func (p *IO) Read8(addr uint16) uint8 {
	switch addr {
	case 0x14:
		return p.OAMDMA.Read8(addr)
	case 0x16:
		return p.cpu.Input.Read(0)
	case 0x17:
		return p.cpu.Input.Read(1)
	}
	if addr < 0x18 && p.cpu.APU != nil {
		return p.cpu.APU.Read8(addr)
	}
	return 0
}

func (p *IO) Write8(addr uint16, val uint8) {
	switch addr {
	case 0x14:
		p.OAMDMA.Write8(addr, val)
		return
	case 0x16:
		p.cpu.Input.Write(val)
		return
	}
	if addr < 0x18 && p.cpu.APU != nil {
		p.cpu.APU.Write8(addr, val)
		return
	}
	log.ModHwIo.DebugZ("write to disabled test register").
		Hex16("addr", 0x4000+addr).
		Hex8("val", val).
		End()
}

// oamDMA copies the 256 bytes of CPU page val into the PPU sprite memory,
// starting at the current OAM address.
func (p *IO) oamDMA(val uint8) {
	ppu := p.cpu.PPU
	if ppu == nil {
		return
	}

	log.ModPPU.DebugZ("OAM DMA").
		Hex16("src", uint16(val)<<8).
		End()

	base := uint16(val) << 8
	for i := range uint16(256) {
		ppu.OAM[ppu.oamAddr+uint8(i)] = p.cpu.Bus.Read8(base + i)
	}
}
