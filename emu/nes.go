package emu

import (
	"errors"
	"fmt"

	"nescart/emu/log"
	"nescart/hw"
	"nescart/hw/hwdefs"
	"nescart/hw/mappers"
	"nescart/hw/snapshot"
	"nescart/ines"
)

// ErrNoCartridge is returned by operations needing a cartridge when none is
// inserted.
var ErrNoCartridge = errors.New("no cartridge")

// Cartridge space on the CPU bus.
const (
	cartLowStart  = 0x4020
	cartLowEnd    = 0x7FFF
	cartHighStart = 0x8000
	cartHighEnd   = 0xFFFF
)

// NES is the console: CPU and PPU, their buses, and the inserted cartridge.
type NES struct {
	CPU *hw.CPU
	PPU *hw.PPU
	Rom *ines.Rom

	cfg    Config
	mapper mappers.Mapper
}

// NewNES creates a console with no cartridge.
func NewNES(cfg Config) *NES {
	ppu := hw.NewPPU()
	ppu.InitBus()
	cpu := hw.NewCPU(ppu)
	cpu.InitBus()

	cpu.Bus.LogUnmapped = cfg.Bus.LogUnmapped
	ppu.Bus.LogUnmapped = cfg.Bus.LogUnmapped

	return &NES{
		CPU: cpu,
		PPU: ppu,
		cfg: cfg,
	}
}

// AttachLogContext makes every log entry carry the inserted cartridge. Log
// contexts are global, only attach a console when it's the only one
// running.
func (nes *NES) AttachLogContext() {
	log.AddContext(nes)
}

// Close detaches the console from the logging system.
func (nes *NES) Close() {
	log.RemoveContext(nes)
}

// AddLogContext implements log.Context.
func (nes *NES) AddLogContext(z *log.EntryZ) {
	if nes.mapper != nil {
		z.String("cart", nes.mapper.Name())
	}
}

// Mapper returns the mapper of the inserted cartridge, or nil.
func (nes *NES) Mapper() mappers.Mapper { return nes.mapper }

// LoadCartridge inserts a cartridge. On failure, the previous cartridge, if
// any, stays inserted.
func (nes *NES) LoadCartridge(rom *ines.Rom) error {
	m, err := mappers.New(rom, mappers.NewBoard(nes.CPU))
	if err != nil {
		return err
	}
	if !rom.Valid() {
		return fmt.Errorf("%s: %w", m.Name(), mappers.ErrInvalidRom)
	}

	// Remove the previous cartridge.
	nes.CPU.Bus.Unmap(cartLowStart, cartHighEnd)
	nes.mapper = nil

	chrRAM := rom.CHR.Len() == 0
	if chrRAM {
		nes.PPU.TriggerRendering()
		clear(nes.PPU.PatternTableData())
		nes.PPU.InvalidateTiles(0, len(nes.PPU.PatternTableData()))
	}
	nes.PPU.SetCHRWritable(chrRAM)

	if err := m.Load(); err != nil {
		return err
	}
	if err := nes.CPU.Bus.Register(m, cartLowStart, cartLowEnd, true); err != nil {
		return fmt.Errorf("map cartridge: %w", err)
	}
	if err := nes.CPU.Bus.Register(m, cartHighStart, cartHighEnd, true); err != nil {
		return fmt.Errorf("map cartridge: %w", err)
	}

	nes.mapper = m
	nes.Rom = rom

	log.ModEmu.InfoZ("cartridge inserted").
		String("mapper", m.Name()).
		Uint16("id", m.Desc().ID).
		Bool("chr_ram", chrRAM).
		Bool("battery", rom.HasPersistent()).
		End()
	return nil
}

// Reset resets the console and requests a reset interrupt if a cartridge is
// inserted.
func (nes *NES) Reset() {
	nes.CPU.Reset()
	nes.PPU.Reset()
	if nes.mapper != nil {
		nes.CPU.RequestInterrupt(hwdefs.IRQReset)
	}
}

// ScanlineTick advances the PPU by one scanline, and clocks the cartridge
// scanline counter if it has one.
func (nes *NES) ScanlineTick() {
	nes.PPU.Tick()
	if sc, ok := nes.mapper.(mappers.ScanlineCounter); ok {
		sc.ClockScanline()
	}
}

// RunScanlines calls ScanlineTick n times.
func (nes *NES) RunScanlines(n int) {
	for range n {
		nes.ScanlineTick()
	}
}

// SaveState returns the JSON encoded state of the inserted cartridge.
func (nes *NES) SaveState() ([]byte, error) {
	if nes.mapper == nil {
		return nil, ErrNoCartridge
	}
	var s snapshot.Cartridge
	nes.mapper.SaveState(&s)
	return s.MarshalJSON()
}

// LoadState restores a state returned by SaveState. The state must have been
// saved with a cartridge using the same mapper.
func (nes *NES) LoadState(buf []byte) error {
	if nes.mapper == nil {
		return ErrNoCartridge
	}
	var s snapshot.Cartridge
	if err := s.UnmarshalJSON(buf); err != nil {
		return err
	}
	if err := nes.mapper.LoadState(&s); err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	log.ModEmu.InfoZ("state restored").
		Int("version", s.Version).
		End()
	return nil
}
