// Package snapshot holds the persisted state of a cartridge. Save states are
// plain data, the hardware packages copy their state in and out of these
// structures.
package snapshot

import "errors"

// ErrMapperMismatch is returned when restoring a state saved with another
// mapper than the one of the loaded cartridge.
var ErrMapperMismatch = errors.New("save state mapper mismatch")

// Version of the save state format.
const Version = 1

type Cartridge struct {
	Version   int
	Mapper    uint16
	Mirroring uint8
	Input     Input

	WRAM   []byte // Work RAM at $6000-$7FFF
	CHRRAM []byte // Pattern tables, only for cartridges without CHR ROM

	// Bank register of discrete logic mappers (UxROM, AxROM, GxROM...)
	Latch uint8

	// NINA-001 registers, at $7FFD-$7FFF.
	NINA [3]uint8

	MMC1 *MMC1
	MMC3 *MMC3
	MMC5 *MMC5
}

// Input is the state of the controller ports.
type Input struct {
	Strobe    [2]uint8
	LastWrite uint8
}

type MMC1 struct {
	Shift uint8 // shift register
	Count uint8 // count of bits shifted

	Control uint8
	CHR0    uint8
	CHR1    uint8
	PRG     uint8
}

type MMC3 struct {
	Command       uint8
	PRGMode       uint8
	CHRMode       uint8
	Regs          [8]uint8
	PRGRAMProtect uint8

	IRQCounter int
	IRQLatch   uint8
	IRQEnable  bool
}

type MMC5 struct {
	PRGSize  uint8
	CHRSize  uint8
	SRAMWEA  uint8
	SRAMWEB  uint8
	GfxMode  uint8
	NTMode   uint8
	FillTile uint8
	FillAttr uint8

	PRGRAMBank uint8
	PRG        [4]uint8 // $5114-$5117
	CHRSet     uint8    // last written CHR set (0: A, 1: B)
	CHRA       [8]uint8 // $5120-$5127
	CHRB       [4]uint8 // $5128-$512B

	SplitCtrl   uint8
	SplitScroll uint8
	SplitPage   uint8

	IRQLine   uint8
	IRQEnable uint8
	IRQStatus uint8
	Scanline  int

	MultA uint8
	MultB uint8

	ExRAM []byte
}
