package mappers

import (
	"fmt"

	"nescart/hw"
	"nescart/hw/hwdefs"
	"nescart/hw/hwio"
	"nescart/hw/snapshot"
	"nescart/ines"
)

// CPU is the part of the CPU a cartridge interacts with.
type CPU interface {
	RequestInterrupt(kind hwdefs.Interrupt)
	ClearInterrupt(kind hwdefs.Interrupt)
}

// Video is the part of the PPU a cartridge interacts with.
type Video interface {
	SetMirroring(m ines.NTMirroring)

	// TriggerRendering is called before pattern tables are modified.
	TriggerRendering()

	// PatternTableData returns the 8KB of pattern table memory, in which CHR
	// banks are projected.
	PatternTableData() []byte

	// InvalidateTiles is called after size bytes of pattern table memory
	// have been modified at addr.
	InvalidateTiles(addr uint16, size int)
}

// Board is what a cartridge is plugged into.
type Board struct {
	CPU   CPU
	Video Video

	RAM     []byte       // 2KB internal RAM, mirrored up to $1FFF
	PPURegs hwio.BankIO8 // $2000-$2007, relative
	IO      hwio.BankIO8 // $4000-$401F, relative
	Input   *hw.InputPorts
}

// NewBoard returns the board made of the console CPU and its peripherals.
func NewBoard(cpu *hw.CPU) Board {
	b := Board{
		CPU:   cpu,
		RAM:   cpu.RAM.Data,
		IO:    &cpu.IO,
		Input: &cpu.Input,
	}
	if cpu.PPU != nil {
		b.Video = cpu.PPU
		b.PPURegs = cpu.PPU
	}
	return b
}

// A Mapper is the logic of a cartridge board. It's mapped on the whole CPU
// address space above $4020, with absolute addresses. Mappers also accept
// accesses to the lower part of the address space, which they forward to the
// board.
type Mapper interface {
	hwio.BankIO8

	Desc() MapperDesc
	Name() string

	// Load projects the initial banks and requests a reset.
	Load() error

	// WriteLow handles writes below the mapper register space.
	WriteLow(addr uint16, val uint8)

	// WriteHigh handles writes to the mapper registers.
	WriteHigh(addr uint16, val uint8)

	ReadLow(addr uint16) uint8

	SaveState(s *snapshot.Cartridge)
	LoadState(s *snapshot.Cartridge) error
}

// ScanlineCounter is implemented by mappers that count scanlines.
type ScanlineCounter interface {
	ClockScanline()
}

const (
	prgWindowSize = 0x8000
	wramSize      = 0x2000
)

type base struct {
	desc MapperDesc

	rom   *ines.Rom
	board Board

	// Start of the mapper register space.
	regBase uint16

	prg  [prgWindowSize]byte // PRG ROM, as seen from $8000
	wram [wramSize]byte      // $6000-$7FFF

	wramDisabled bool
	wramReadOnly bool

	ntm   ines.NTMirroring
	latch uint8 // last value written to discrete logic mappers.

	// Set by variants.
	writeHigh func(addr uint16, val uint8)
	readReg   func(addr uint16) (uint8, bool)
	writeWRAM func(addr uint16, val uint8)
}

func newbase(desc MapperDesc, rom *ines.Rom, board Board) *base {
	b := &base{
		desc:    desc,
		rom:     rom,
		board:   board,
		regBase: 0x8000,
	}
	b.init(func(uint16, uint8) {})
	return b
}

// init sets the handler of writes to mapper registers.
func (b *base) init(writeHigh func(addr uint16, val uint8)) {
	b.writeHigh = writeHigh
}

func (b *base) Desc() MapperDesc { return b.desc }
func (b *base) Name() string     { return b.desc.Name }

// Load is the default cartridge loading: first PRG and CHR banks, and the
// battery-backed RAM.
func (b *base) Load() error {
	if err := b.begin(); err != nil {
		return err
	}
	b.loadPRGROM()
	b.loadCHRROM()
	b.loadBatteryRAM()
	b.end()
	return nil
}

// begin starts cartridge loading.
func (b *base) begin() error {
	if !b.rom.Valid() {
		return fmt.Errorf("%s: %w", b.desc.Name, ErrInvalidRom)
	}
	b.setMirroring(b.rom.Mirroring())
	return nil
}

// end completes cartridge loading.
func (b *base) end() {
	b.requestInterrupt(hwdefs.IRQReset)

	modMapper.InfoZ("cartridge loaded").
		String("mapper", b.desc.Name).
		Int("prg", b.rom.PRG.Len()).
		Int("chr", b.rom.CHR.Len()).
		Stringer("mirroring", b.ntm).
		End()
}

// requestInterrupt and clearInterrupt drive the CPU interrupt lines, if the
// board has a CPU.
func (b *base) requestInterrupt(kind hwdefs.Interrupt) {
	if b.board.CPU != nil {
		b.board.CPU.RequestInterrupt(kind)
	}
}

func (b *base) clearInterrupt(kind hwdefs.Interrupt) {
	if b.board.CPU != nil {
		b.board.CPU.ClearInterrupt(kind)
	}
}

func (b *base) Read8(addr uint16) uint8 {
	if addr >= 0x8000 {
		return b.prg[addr-0x8000]
	}
	if b.readReg != nil {
		if val, ok := b.readReg(addr); ok {
			return val
		}
	}
	return b.ReadLow(addr)
}

func (b *base) Write8(addr uint16, val uint8) {
	if addr >= b.regBase {
		b.writeHigh(addr, val)
		return
	}
	b.WriteLow(addr, val)
}

func (b *base) WriteHigh(addr uint16, val uint8) {
	b.writeHigh(addr, val)
}

func (b *base) WriteLow(addr uint16, val uint8) {
	switch {
	case addr < 0x2000:
		// Mirroring of RAM
		if b.board.RAM != nil {
			b.board.RAM[addr&0x7FF] = val
		}
	case addr < 0x4000:
		if b.board.PPURegs != nil {
			b.board.PPURegs.Write8(addr&0x7, val)
		}
	case addr <= 0x4017:
		if b.board.IO != nil {
			b.board.IO.Write8(addr-0x4000, val)
		}
	case addr >= 0x6000 && addr < 0x8000:
		if b.wramDisabled || b.wramReadOnly {
			modMapper.DebugZ("write to protected PRG RAM").
				String("mapper", b.desc.Name).
				Hex16("addr", addr).
				End()
			return
		}
		b.wram[addr-0x6000] = val
		if b.writeWRAM != nil {
			b.writeWRAM(addr, val)
		}
	default:
		modMapper.DebugZ("ignored write").
			String("mapper", b.desc.Name).
			Hex16("addr", addr).
			Hex8("val", val).
			End()
	}
}

func (b *base) ReadLow(addr uint16) uint8 {
	switch {
	case addr < 0x2000:
		if b.board.RAM != nil {
			return b.board.RAM[addr&0x7FF]
		}
	case addr < 0x4000:
		if b.board.PPURegs != nil {
			return b.board.PPURegs.Read8(addr & 0x7)
		}
	case addr <= 0x4017:
		if b.board.IO != nil {
			return b.board.IO.Read8(addr - 0x4000)
		}
	case addr >= 0x6000 && addr < 0x8000:
		if !b.wramDisabled {
			return b.wram[addr-0x6000]
		}
	case addr >= 0x8000:
		return b.prg[addr-0x8000]
	}
	return 0
}

func (b *base) setMirroring(m ines.NTMirroring) {
	if b.rom.Mirroring() == ines.FourScreen {
		// Four-screen boards have hardwired nametables.
		m = ines.FourScreen
	}
	b.ntm = m
	if b.board.Video != nil {
		b.board.Video.SetMirroring(m)
	}
}

func (b *base) loadPRGROM() {
	if b.rom.PRG.Len() > 1 {
		// Load the two first banks into memory.
		b.loadRomBank(0, 0x8000)
		b.loadRomBank(1, 0xC000)
	} else {
		// Load the one bank into both memory locations.
		b.loadRomBank(0, 0x8000)
		b.loadRomBank(0, 0xC000)
	}
}

func (b *base) loadCHRROM() {
	if b.rom.CHR.Len() == 1 {
		b.loadVromBank(0, 0x0000)
		b.loadVromBank(0, 0x1000)
	} else {
		b.loadVromBank(0, 0x0000)
		b.loadVromBank(1, 0x1000)
	}
}

// loadBatteryRAM copies the battery-backed RAM image into work RAM.
func (b *base) loadBatteryRAM() {
	if !b.rom.HasPersistent() || len(b.rom.Battery) != wramSize {
		return
	}
	copy(b.wram[:], b.rom.Battery)
}

// loadRomBank projects the 16KB PRG bank at addr.
func (b *base) loadRomBank(bank int, addr uint16) {
	data := b.rom.PRG.Bank(bank)
	copy(b.prg[addr-0x8000:], data)

	modMapper.DebugZ("PRG bank switch").
		String("mapper", b.desc.Name).
		Int("bank", b.rom.PRG.Index(bank)).
		Int("size", ines.PRGBankSize).
		Hex16("addr", addr).
		End()
}

// load32kRomBank projects 2 consecutive PRG banks, the 32KB bank, at addr.
func (b *base) load32kRomBank(bank int, addr uint16) {
	b.loadRomBank(bank*2, addr)
	b.loadRomBank(bank*2+1, addr+0x4000)
}

// load8kRomBank projects half of a 16KB PRG bank at addr.
func (b *base) load8kRomBank(bank8k int, addr uint16) {
	data := b.rom.PRG.Bank(bank8k / 2)
	off := (bank8k % 2) * 0x2000
	copy(b.prg[addr-0x8000:addr-0x8000+0x2000], data[off:off+0x2000])

	modMapper.DebugZ("PRG bank switch").
		String("mapper", b.desc.Name).
		Int("bank", bank8k).
		Int("size", 0x2000).
		Hex16("addr", addr).
		End()
}

// loadChr projects size bytes of CHR bank at off, into the pattern tables at
// addr. It's a no-op for boards with CHR RAM.
func (b *base) loadChr(bank4k, off, size int, addr uint16) {
	if b.rom.CHR.Len() == 0 || b.board.Video == nil {
		return
	}
	b.board.Video.TriggerRendering()

	data := b.rom.CHR.Bank(bank4k)
	pt := b.board.Video.PatternTableData()
	copy(pt[addr:int(addr)+size], data[off:off+size])
	b.board.Video.InvalidateTiles(addr, size)

	modMapper.DebugZ("CHR bank switch").
		String("mapper", b.desc.Name).
		Int("bank", b.rom.CHR.Index(bank4k)).
		Int("off", off).
		Int("size", size).
		Hex16("addr", addr).
		End()
}

// loadVromBank projects the 4KB CHR bank at addr.
func (b *base) loadVromBank(bank int, addr uint16) {
	b.loadChr(bank, 0, 0x1000, addr)
}

// load8kVromBank projects 2 consecutive CHR banks, starting at bank4k.
func (b *base) load8kVromBank(bank4k int, addr uint16) {
	b.loadVromBank(bank4k, addr)
	b.loadVromBank(bank4k+1, addr+0x1000)
}

func (b *base) load2kVromBank(bank2k int, addr uint16) {
	b.loadChr(bank2k/2, (bank2k%2)*0x800, 0x800, addr)
}

func (b *base) load1kVromBank(bank1k int, addr uint16) {
	b.loadChr(bank1k/4, (bank1k%4)*0x400, 0x400, addr)
}

// hasCHRRAM reports whether the pattern tables are RAM on this board.
func (b *base) hasCHRRAM() bool {
	return b.rom.CHR.Len() == 0
}

// SaveState saves the state common to all mappers.
func (b *base) SaveState(s *snapshot.Cartridge) {
	s.Version = snapshot.Version
	s.Mapper = b.desc.ID
	s.Mirroring = uint8(b.ntm)
	s.Latch = b.latch
	s.WRAM = append([]byte(nil), b.wram[:]...)
	if b.hasCHRRAM() && b.board.Video != nil {
		s.CHRRAM = append([]byte(nil), b.board.Video.PatternTableData()...)
	}
	if b.board.Input != nil {
		b.board.Input.SaveState(&s.Input)
	}
}

// LoadState restores a state saved by SaveState. Discrete logic mappers
// have a single register, the latch, replaying the last write to it
// restores the banks.
func (b *base) LoadState(s *snapshot.Cartridge) error {
	return b.loadState(s, func() error {
		b.writeHigh(0x8000, s.Latch)
		return nil
	})
}

// loadState restores the common state, then calls restore to restore the
// mapper specific registers. Mirroring is restored last since restore may
// modify it.
func (b *base) loadState(s *snapshot.Cartridge, restore func() error) error {
	if s.Mapper != b.desc.ID {
		return fmt.Errorf("%w: state is for mapper %d, cartridge has %d (%s)",
			snapshot.ErrMapperMismatch, s.Mapper, b.desc.ID, b.desc.Name)
	}
	if ines.NTMirroring(s.Mirroring) > ines.OnlyBScreen {
		return fmt.Errorf("%s: invalid mirroring %d", b.desc.Name, s.Mirroring)
	}

	if len(s.WRAM) != 0 {
		copy(b.wram[:], s.WRAM)
	}
	if b.hasCHRRAM() && len(s.CHRRAM) != 0 && b.board.Video != nil {
		pt := b.board.Video.PatternTableData()
		b.board.Video.TriggerRendering()
		n := copy(pt, s.CHRRAM)
		b.board.Video.InvalidateTiles(0, n)
	}
	if b.board.Input != nil {
		b.board.Input.LoadState(&s.Input)
	}

	if restore != nil {
		if err := restore(); err != nil {
			return fmt.Errorf("%s: %w", b.desc.Name, err)
		}
	}
	b.latch = s.Latch
	b.setMirroring(ines.NTMirroring(s.Mirroring))
	return nil
}
