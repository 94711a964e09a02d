package hw

import (
	"nescart/emu/log"
	"nescart/hw/hwdefs"
	"nescart/hw/hwio"
)

// Locations reserved for vector pointers.
const (
	NMIVector   = uint16(0xFFFA) // Non-Maskable Interrupt
	ResetVector = uint16(0xFFFC) // Reset
	IRQVector   = uint16(0xFFFE) // Interrupt Request
)

// CPU is the CPU side of the console: its address bus, internal RAM and
// interrupt lines. Instruction execution is not emulated, the CPU only
// latches the interrupts that cartridges and the PPU raise.
type CPU struct {
	Bus *hwio.Table

	RAM hwio.Mem

	PPU   *PPU // non-nil when there's a PPU.
	APU   *APU
	Input InputPorts
	IO    IO

	pending  [hwdefs.NumInterrupts]bool
	requests [hwdefs.NumInterrupts]int
}

// NewCPU creates a new CPU at power-up state.
func NewCPU(ppu *PPU) *CPU {
	cpu := &CPU{
		Bus: hwio.NewTable("cpu"),
		RAM: hwio.Mem{
			Name:  "RAM",
			Data:  make([]byte, 0x800),
			VSize: 0x2000,
		},
		PPU: ppu,
		APU: NewAPU(),
	}
	if ppu != nil {
		ppu.CPU = cpu
	}
	return cpu
}

// InitBus maps the console side of the CPU address space, up to $401F.
// Cartridge space is left to the mapper.
func (c *CPU) InitBus() {
	// CPU internal RAM, mirrored.
	c.Bus.MapMem(0x0000, &c.RAM)

	// The 8 PPU registers, mirrored from 0x2000 to 0x3FFF.
	if c.PPU != nil {
		c.Bus.MapDevice(0x2000, &hwio.Device{
			Name:    "ppu regs",
			Size:    0x2000,
			ReadCb:  func(addr uint16) uint8 { return c.PPU.Read8(addr & 7) },
			WriteCb: func(addr uint16, val uint8) { c.PPU.Write8(addr&7, val) },
		})
	}

	// APU, OAM DMA and input ports.
	c.IO.init(c)
	c.Bus.MapDevice(0x4000, &hwio.Device{
		Name:    "io",
		Size:    0x20,
		ReadCb:  c.IO.Read8,
		WriteCb: c.IO.Write8,
	})
}

// Reset clears the interrupt lines.
func (c *CPU) Reset() {
	c.pending = [hwdefs.NumInterrupts]bool{}
	c.requests = [hwdefs.NumInterrupts]int{}
}

// RequestInterrupt raises the given interrupt line.
func (c *CPU) RequestInterrupt(kind hwdefs.Interrupt) {
	log.ModCPU.DebugZ("interrupt requested").
		Stringer("kind", kind).
		End()
	c.pending[kind] = true
	c.requests[kind]++
}

// ClearInterrupt lowers the given interrupt line, if raised.
func (c *CPU) ClearInterrupt(kind hwdefs.Interrupt) {
	c.pending[kind] = false
}

// Pending reports whether the given interrupt line is raised.
func (c *CPU) Pending(kind hwdefs.Interrupt) bool {
	return c.pending[kind]
}

// Requests returns how many times an interrupt has been requested since the
// last reset.
func (c *CPU) Requests(kind hwdefs.Interrupt) int {
	return c.requests[kind]
}

// Acknowledge lowers the interrupt line and returns the address of its
// handler, read from the vector table. ok is false if the line wasn't
// raised.
func (c *CPU) Acknowledge(kind hwdefs.Interrupt) (handler uint16, ok bool) {
	if !c.pending[kind] {
		return 0, false
	}
	c.pending[kind] = false
	return c.Vector(kind), true
}

// Vector reads the handler address for an interrupt from the vector table.
func (c *CPU) Vector(kind hwdefs.Interrupt) uint16 {
	switch kind {
	case hwdefs.NMI:
		return hwio.Read16(c.Bus, NMIVector)
	case hwdefs.IRQReset:
		return hwio.Read16(c.Bus, ResetVector)
	}
	return hwio.Read16(c.Bus, IRQVector)
}

func (c *CPU) Read8(addr uint16) uint8 {
	return c.Bus.Read8(addr)
}

func (c *CPU) Write8(addr uint16, val uint8) {
	c.Bus.Write8(addr, val)
}
