package hwio

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"nescart/emu/log"
)

var (
	// ErrRangeConflict is returned when registering a range that overlaps
	// an already registered one.
	ErrRangeConflict = errors.New("range conflict")

	// ErrUnmappedAccess is reported when an address is not mapped.
	ErrUnmappedAccess = errors.New("unmapped access")

	// ErrOutOfBounds is reported on accesses past the end of a memory block.
	ErrOutOfBounds = errors.New("out of bounds")
)

// BankIO8 is implemented by everything that can be mapped on a bus.
type BankIO8 interface {
	Read8(addr uint16) uint8
	Write8(addr uint16, val uint8)
}

func Write16(b BankIO8, addr uint16, val uint16) {
	lo := uint8(val & 0xff)
	hi := uint8(val >> 8)
	b.Write8(addr, lo)
	b.Write8(addr+1, hi)
}

func Read16(b BankIO8, addr uint16) uint16 {
	lo := b.Read8(addr)
	hi := b.Read8(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

// AccessError describes a bus access that couldn't be served.
type AccessError struct {
	Bus   string
	Addr  uint16
	Write bool
	Err   error
}

func (e *AccessError) Error() string {
	op := "read"
	if e.Write {
		op = "write"
	}
	return fmt.Sprintf("%s: %s at $%04X: %v", e.Bus, op, e.Addr, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

type span struct {
	start, end uint16 // inclusive
	absolute   bool
	io         BankIO8
}

// Table is an address bus. It holds a set of disjoint address ranges, each
// one owned by a single handler, and forwards accesses to the owner of the
// range containing the address.
//
// Ranges are kept sorted by start address so that dispatch is a binary
// search. Since ranges never overlap, their end addresses are sorted too.
type Table struct {
	Name string

	// LogUnmapped logs the first access to each unmapped address. This is
	// useful for debugging but can be verbose since some games read from
	// open bus.
	LogUnmapped bool

	// OnUnmapped, if set, is called for every access to an unmapped address.
	OnUnmapped func(*AccessError)

	spans    []span
	unmapped uint64
	seen     Bitset // unmapped addresses already logged
}

func NewTable(name string) *Table {
	t := new(Table)
	t.Name = name
	t.Reset()
	return t
}

// Reset unmaps everything.
func (t *Table) Reset() {
	t.spans = t.spans[:0]
	t.unmapped = 0
	t.seen.Reset()
}

// Register maps io on the closed range [start, end]. Unless absolute is set,
// the handler sees addresses relative to start. Absolute mapping is useful
// when the same handler backs multiple windows and must tell them apart.
//
// Register fails with ErrRangeConflict if any address of the range is
// already mapped.
func (t *Table) Register(io BankIO8, start, end uint16, absolute bool) error {
	if start > end {
		return fmt.Errorf("%w: %s: invalid range [$%04X-$%04X]", ErrRangeConflict, t.Name, start, end)
	}

	// First span starting after the new range. The span before it, if any,
	// has the greatest end address of all spans starting before the new
	// range ends, so it's the only one that can overlap.
	i := sort.Search(len(t.spans), func(i int) bool { return t.spans[i].start > end })
	if i > 0 && t.spans[i-1].end >= start {
		prev := t.spans[i-1]
		return fmt.Errorf("%w: %s: [$%04X-$%04X] overlaps [$%04X-$%04X]",
			ErrRangeConflict, t.Name, start, end, prev.start, prev.end)
	}

	t.spans = slices.Insert(t.spans, i, span{
		start:    start,
		end:      end,
		absolute: absolute,
		io:       io,
	})

	log.ModHwIo.DebugZ("register range").
		String("bus", t.Name).
		Hex16("start", start).
		Hex16("end", end).
		Bool("abs", absolute).
		End()
	return nil
}

// Unmap removes all ranges entirely contained in [begin, end]. It returns the
// number of removed ranges.
func (t *Table) Unmap(begin, end uint16) int {
	n := len(t.spans)
	t.spans = slices.DeleteFunc(t.spans, func(s span) bool {
		return s.start >= begin && s.end <= end
	})
	return n - len(t.spans)
}

func (t *Table) lookup(addr uint16) *span {
	i := sort.Search(len(t.spans), func(i int) bool { return t.spans[i].start > addr })
	if i == 0 {
		return nil
	}
	s := &t.spans[i-1]
	if addr > s.end {
		return nil
	}
	return s
}

// Mapped reports whether addr belongs to a registered range.
func (t *Table) Mapped(addr uint16) bool {
	return t.lookup(addr) != nil
}

func (s *span) local(addr uint16) uint16 {
	if s.absolute {
		return addr
	}
	return addr - s.start
}

// Read8 forwards the read to the handler owning addr. Unmapped reads are
// reported and return 0.
func (t *Table) Read8(addr uint16) uint8 {
	s := t.lookup(addr)
	if s == nil {
		t.reportUnmapped(addr, false)
		return 0
	}
	return s.io.Read8(s.local(addr))
}

// Write8 forwards the write to the handler owning addr. Unmapped writes are
// reported and dropped.
func (t *Table) Write8(addr uint16, val uint8) {
	s := t.lookup(addr)
	if s == nil {
		t.reportUnmapped(addr, true)
		return
	}
	s.io.Write8(s.local(addr), val)
}

// Unmapped returns the number of accesses to unmapped addresses.
func (t *Table) Unmapped() uint64 { return t.unmapped }

func (t *Table) reportUnmapped(addr uint16, write bool) {
	t.unmapped++
	if t.LogUnmapped && !t.seen.Test(uint(addr)) {
		t.seen.Set(uint(addr))
		log.ModHwIo.WarnZ("unmapped access").
			String("bus", t.Name).
			Hex16("addr", addr).
			Bool("write", write).
			End()
	}
	if t.OnUnmapped != nil {
		t.OnUnmapped(&AccessError{Bus: t.Name, Addr: addr, Write: write, Err: ErrUnmappedAccess})
	}
}

func (t *Table) mustRegister(io BankIO8, start, end uint16, absolute bool) {
	if err := t.Register(io, start, end, absolute); err != nil {
		panic(err)
	}
}

// MapMem maps a memory block at addr. The range covers the virtual size of
// the block. It panics on conflict.
func (t *Table) MapMem(addr uint16, mem *Mem) {
	if mem.size() == 0 {
		panic(fmt.Sprintf("hwio: MapMem: %q has zero size", mem.Name))
	}
	t.mustRegister(mem, addr, addr+uint16(mem.size()-1), false)
}

// MapMemorySlice maps a slice of bytes on [addr, end]. If the range is
// bigger than the slice, the slice is mirrored. It panics on conflict.
func (t *Table) MapMemorySlice(addr, end uint16, buf []uint8, readonly bool) {
	var flags MemFlags
	if readonly {
		flags |= MemFlagReadOnly
	}
	t.mustRegister(&Mem{
		Name:  fmt.Sprintf("%s[$%04X-$%04X]", t.Name, addr, end),
		Data:  buf,
		VSize: int(end-addr) + 1,
		Flags: flags,
	}, addr, end, false)
}

// MapDevice maps a device at addr, with relative addressing. It panics on
// conflict.
func (t *Table) MapDevice(addr uint16, dev *Device) {
	if dev.Size <= 0 {
		panic(fmt.Sprintf("hwio: MapDevice: %q has zero size", dev.Name))
	}
	t.mustRegister(dev, addr, addr+uint16(dev.Size-1), false)
}

// MapReg8 maps a single register at addr. It panics on conflict.
func (t *Table) MapReg8(addr uint16, reg *Reg8) {
	t.mustRegister(reg, addr, addr, false)
}
