package hw

import (
	"fmt"

	"nescart/emu/log"
	"nescart/hw/hwdefs"
	"nescart/hw/hwio"
	"nescart/ines"
)

const (
	NumScanlines = 262 // Number of scanlines per frame.
	NumTiles     = 512 // Number of tiles in both pattern tables.
)

const (
	// PPUCTRL bits
	// $2000

	// VRAM address increment per CPU read/write of PPUDATA
	// (0: +1 i.e. horizontal; 1: +32 i.e. vertical)
	vramIncr = 2

	// Generate an NMI at the start of the
	// vertical blanking interval (0: off; 1: on)
	nmi = 7
)

const (
	// PPUMASK bits
	// $2001

	// 1: Show background
	showBg = 3

	// 1: Show sprites
	showSprites = 4
)

const (
	// PPUSTATUS bits
	// $2002

	sprite0Hit = 6

	// Vertical blank has started (0: not in vblank; 1: in vblank).
	// Set at line 241, cleared after reading $2002 and at the
	// pre-render line.
	vblank = 7
)

// Tile is a decoded 8x8 pattern, each pixel is a 2-bit color index.
type Tile [8][8]uint8

// Decode decodes a tile from its 16 bytes of pattern data: 8 bytes for the
// low bit plane followed by 8 bytes for the high bit plane.
func (t *Tile) Decode(b []byte) {
	for y := range 8 {
		lo, hi := b[y], b[y+8]
		for x := range 8 {
			shift := 7 - x
			t[y][x] = (lo>>shift)&1 | ((hi>>shift)&1)<<1
		}
	}
}

type PPU struct {
	Bus *hwio.Table // PPU bus
	CPU *CPU

	Scanline int // Current scanline

	//	$0000-$0FFF	$1000	Pattern table 0
	//	$1000-$1FFF	$1000	Pattern table 1
	PatternTables hwio.Mem

	// Tiles holds the decoded form of the pattern tables, it must be
	// invalidated each time the pattern tables are modified.
	Tiles [NumTiles]Tile

	// $2000-$23FF	$0400	Nametable 0
	// $2400-$27FF	$0400	Nametable 1
	// $2800-$2BFF	$0400	Nametable 2
	// $2C00-$2FFF	$0400	Nametable 3
	// $3000-$3EFF	$0F00	Mirrors of $2000-$2EFF
	Nametables [0x1000]byte

	// $3F00-$3F1F	$0020	Palette RAM indexes
	// $3F20-$3FFF	$00E0	Mirrors of $3F00-$3F1F
	Palettes hwio.Mem

	OAM [256]byte // Sprite memory

	// OnFlush, if set, is called by TriggerRendering.
	OnFlush func()

	mirroring ines.NTMirroring
	flushes   int

	// CPU-exposed registers
	ctrl, mask, status uint8
	oamAddr            uint8
	scrollX, scrollY   uint8

	// VRAM read/write
	vramAddr    uint16
	writeLatch  bool
	ppuDataRbuf uint8
}

func NewPPU() *PPU {
	return &PPU{
		Bus: hwio.NewTable("ppu"),
		PatternTables: hwio.Mem{
			Name: "pattern tables",
			Data: make([]byte, 0x2000),
		},
		Palettes: hwio.Mem{
			Name:  "palettes",
			Data:  make([]byte, 0x20),
			VSize: 0x100,
		},
	}
}

func (p *PPU) InitBus() {
	p.Bus.MapMem(0x0000, &p.PatternTables)
	p.mapNametables(ines.HorzMirroring)
	p.Bus.MapMem(0x3F00, &p.Palettes)
}

func (p *PPU) Reset() {
	p.Scanline = 0
	p.ctrl, p.mask, p.status = 0, 0, 0
	p.writeLatch = false
	p.vramAddr = 0
	p.ppuDataRbuf = 0
}

// SetCHRWritable makes the pattern tables writable from the PPU bus, for
// cartridges with CHR RAM. With CHR ROM, writes are silently dropped.
func (p *PPU) SetCHRWritable(writable bool) {
	if writable {
		p.PatternTables.Flags = hwio.MemFlagReadWrite
	} else {
		p.PatternTables.Flags = hwio.MemFlagReadOnly | hwio.MemFlagNoROLog
	}
}

// PatternTableData returns the pattern table memory in which cartridges
// project CHR banks.
func (p *PPU) PatternTableData() []byte {
	return p.PatternTables.Data
}

// InvalidateTiles decodes again the tiles overlapping the size bytes of
// pattern table memory starting at addr.
func (p *PPU) InvalidateTiles(addr uint16, size int) {
	if size <= 0 {
		return
	}
	first := int(addr) >> 4
	last := (int(addr) + size - 1) >> 4
	for i := first; i <= last && i < NumTiles; i++ {
		p.Tiles[i].Decode(p.PatternTables.Data[i<<4 : (i+1)<<4])
	}
}

// TriggerRendering is called before the pattern tables or the nametable
// layout change, to let the renderer flush what has been drawn so far with
// the previous state.
func (p *PPU) TriggerRendering() {
	p.flushes++
	if p.OnFlush != nil {
		p.OnFlush()
	}
}

// Flushes returns the number of calls to TriggerRendering.
func (p *PPU) Flushes() int { return p.flushes }

// Mirroring returns the current nametable layout.
func (p *PPU) Mirroring() ines.NTMirroring { return p.mirroring }

// SetMirroring changes the nametable layout.
func (p *PPU) SetMirroring(m ines.NTMirroring) {
	if m == p.mirroring {
		return
	}
	p.TriggerRendering()

	// Unmap all nametables
	p.Bus.Unmap(0x2000, 0x3EFF)
	p.mapNametables(m)

	log.ModPPU.DebugZ("nametable mirroring").
		Stringer("mode", m).
		End()
}

func (p *PPU) mapNametables(m ines.NTMirroring) {
	A := p.Nametables[:0x400]
	B := p.Nametables[0x400:0x800]

	var nt1, nt2, nt3, nt4 []byte

	switch m {
	case ines.HorzMirroring:
		nt1, nt2 = A, A
		nt3, nt4 = B, B
	case ines.VertMirroring:
		nt1, nt2 = A, B
		nt3, nt4 = A, B
	case ines.OnlyAScreen:
		nt1, nt2 = A, A
		nt3, nt4 = A, A
	case ines.OnlyBScreen:
		nt1, nt2 = B, B
		nt3, nt4 = B, B
	case ines.FourScreen:
		nt1, nt2 = A, B
		nt3, nt4 = p.Nametables[0x800:0xC00], p.Nametables[0xC00:]
	default:
		panic(fmt.Sprintf("unsupported mirroring %d", m))
	}
	p.mirroring = m

	// Map nametables
	p.Bus.MapMemorySlice(0x2000, 0x23FF, nt1, false)
	p.Bus.MapMemorySlice(0x2400, 0x27FF, nt2, false)
	p.Bus.MapMemorySlice(0x2800, 0x2BFF, nt3, false)
	p.Bus.MapMemorySlice(0x2C00, 0x2FFF, nt4, false)

	// Mirrors
	p.Bus.MapMemorySlice(0x3000, 0x33FF, nt1, false)
	p.Bus.MapMemorySlice(0x3400, 0x37FF, nt2, false)
	p.Bus.MapMemorySlice(0x3800, 0x3BFF, nt3, false)
	p.Bus.MapMemorySlice(0x3C00, 0x3EFF, nt4, false)
}

// RenderingEnabled reports whether background or sprites are shown.
func (p *PPU) RenderingEnabled() bool {
	return hwio.GetBit8(p.mask, showBg) || hwio.GetBit8(p.mask, showSprites)
}

// Tick advances the PPU by one scanline.
func (p *PPU) Tick() {
	switch p.Scanline {
	case 241:
		hwio.SetBit8(&p.status, vblank)
		if hwio.GetBit8(p.ctrl, nmi) && p.CPU != nil {
			p.CPU.RequestInterrupt(hwdefs.NMI)
		}
	case 261:
		// pre-render line
		hwio.ClearBit8(&p.status, vblank)
		hwio.ClearBit8(&p.status, sprite0Hit)
	}
	p.Scanline++
	if p.Scanline == NumScanlines {
		p.Scanline = 0
	}
}

// Read8 reads the register at addr (0-7).
func (p *PPU) Read8(addr uint16) uint8 {
	switch addr {
	case 2:
		val := p.status
		hwio.ClearBit8(&p.status, vblank)
		p.writeLatch = false
		return val
	case 4:
		return p.OAM[p.oamAddr]
	case 7:
		return p.readData()
	}

	log.ModPPU.DebugZ("read from write-only register").
		Hex16("addr", 0x2000+addr).
		End()
	return 0
}

// Write8 writes the register at addr (0-7).
func (p *PPU) Write8(addr uint16, val uint8) {
	switch addr {
	case 0:
		p.ctrl = val
	case 1:
		p.mask = val
	case 2:
		log.ModPPU.DebugZ("write to read-only register").
			Hex16("addr", 0x2002).
			Hex8("val", val).
			End()
	case 3:
		p.oamAddr = val
	case 4:
		p.OAM[p.oamAddr] = val
		p.oamAddr++
	case 5:
		if !p.writeLatch {
			p.scrollX = val
		} else {
			p.scrollY = val
		}
		p.writeLatch = !p.writeLatch
	case 6:
		if !p.writeLatch {
			p.vramAddr = (p.vramAddr & 0x00FF) | uint16(val&0x3F)<<8
		} else {
			p.vramAddr = (p.vramAddr & 0xFF00) | uint16(val)
		}
		p.writeLatch = !p.writeLatch
	case 7:
		p.writeData(val)
	}
}

// VRAMAddr returns the current VRAM address.
func (p *PPU) VRAMAddr() uint16 { return p.vramAddr }

func (p *PPU) incrVRAMAddr() {
	if hwio.GetBit8(p.ctrl, vramIncr) {
		p.vramAddr += 32
	} else {
		p.vramAddr++
	}
	p.vramAddr &= 0x3FFF
}

func (p *PPU) readData() uint8 {
	addr := p.vramAddr
	p.incrVRAMAddr()

	if addr >= 0x3F00 {
		// Palette reads aren't buffered, the buffer gets the nametable
		// byte 'below' the palette.
		p.ppuDataRbuf = p.Bus.Read8(addr - 0x1000)
		return p.Bus.Read8(addr)
	}
	val := p.ppuDataRbuf
	p.ppuDataRbuf = p.Bus.Read8(addr)
	return val
}

func (p *PPU) writeData(val uint8) {
	addr := p.vramAddr
	p.incrVRAMAddr()

	p.Bus.Write8(addr, val)
	if addr < 0x2000 && p.PatternTables.Flags&hwio.MemFlagReadOnly == 0 {
		p.InvalidateTiles(addr, 1)
	}
}
