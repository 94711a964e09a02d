package hw

import (
	"nescart/emu/log"
)

// APU registers.
const (
	APUStatus       = 0x15 // channel enable / status
	APUFrameCounter = 0x17 // frame sequencer (write only)
)

// APU is a register sink for the sound unit. It records the values written
// to the $4000-$4017 registers so that cartridges and save states observe a
// consistent register file, no sound is synthesized.
type APU struct {
	Regs [0x18]uint8

	writes int
}

func NewAPU() *APU {
	return &APU{}
}

func (a *APU) Read8(addr uint16) uint8 {
	if addr != APUStatus {
		// All registers but the status are write-only.
		return 0
	}
	// Only report the enabled channels, length counters aren't emulated.
	return a.Regs[APUStatus] & 0x1F
}

func (a *APU) Write8(addr uint16, val uint8) {
	if int(addr) >= len(a.Regs) {
		return
	}
	log.ModSound.DebugZ("write APU register").
		Hex16("addr", 0x4000+addr).
		Hex8("val", val).
		End()
	a.Regs[addr] = val
	a.writes++
}

// Writes returns the number of register writes.
func (a *APU) Writes() int { return a.writes }
