package mappers

import (
	"testing"

	"nescart/hw/hwdefs"
	"nescart/ines"
)

type fakeCPU struct {
	requested []hwdefs.Interrupt
	cleared   []hwdefs.Interrupt
}

func (c *fakeCPU) RequestInterrupt(kind hwdefs.Interrupt) { c.requested = append(c.requested, kind) }
func (c *fakeCPU) ClearInterrupt(kind hwdefs.Interrupt)   { c.cleared = append(c.cleared, kind) }

func (c *fakeCPU) count(kind hwdefs.Interrupt) int {
	n := 0
	for _, k := range c.requested {
		if k == kind {
			n++
		}
	}
	return n
}

type span struct {
	addr uint16
	size int
}

type fakeVideo struct {
	pt          [0x2000]byte
	mirrorings  []ines.NTMirroring
	flushes     int
	invalidated []span
}

func (v *fakeVideo) SetMirroring(m ines.NTMirroring) { v.mirrorings = append(v.mirrorings, m) }
func (v *fakeVideo) TriggerRendering()                { v.flushes++ }
func (v *fakeVideo) PatternTableData() []byte         { return v.pt[:] }
func (v *fakeVideo) InvalidateTiles(addr uint16, size int) {
	v.invalidated = append(v.invalidated, span{addr, size})
}

func (v *fakeVideo) mirroring() ines.NTMirroring {
	if len(v.mirrorings) == 0 {
		return 0xFF
	}
	return v.mirrorings[len(v.mirrorings)-1]
}

// romBuilder builds iNES images which banks are filled with markers: every
// byte of a PRG ROM 8KB half-bank holds the index of that 8KB bank, every
// byte of a CHR ROM 1KB quarter holds the index of that 1KB bank.
type romBuilder struct {
	mapper  uint16
	prg     int // 16KB banks
	chr     int // 8KB banks
	flags6  byte
	battery []byte
}

func (rb romBuilder) image() []byte {
	buf := []byte(ines.Magic)
	buf = append(buf, byte(rb.prg), byte(rb.chr), byte(rb.mapper&0x0F)<<4|rb.flags6, byte(rb.mapper&0xF0))
	buf = append(buf, make([]byte, ines.HeaderSize-len(buf))...)

	for i := range rb.prg * 2 {
		for range 0x2000 {
			buf = append(buf, byte(i))
		}
	}
	for i := range rb.chr * 8 {
		for range 0x400 {
			buf = append(buf, byte(i))
		}
	}
	return buf
}

func (rb romBuilder) build(tb testing.TB) *ines.Rom {
	tb.Helper()
	rom, err := ines.Parse(rb.image())
	if err != nil {
		tb.Fatalf("parse rom: %v", err)
	}
	rom.Battery = rb.battery
	return rom
}

type testCart struct {
	t testing.TB
	Mapper
	cpu   *fakeCPU
	video *fakeVideo
	ram   []byte
}

// newTestCart creates and loads the mapper of a rom, plugged in a fake board.
func newTestCart(tb testing.TB, rom *ines.Rom) *testCart {
	tb.Helper()
	tc := &testCart{
		t:     tb,
		cpu:   &fakeCPU{},
		video: &fakeVideo{},
		ram:   make([]byte, 0x800),
	}
	m, err := New(rom, Board{CPU: tc.cpu, Video: tc.video, RAM: tc.ram})
	if err != nil {
		tb.Fatalf("New: %v", err)
	}
	if err := m.Load(); err != nil {
		tb.Fatalf("Load: %v", err)
	}
	tc.Mapper = m
	return tc
}

// wantPRG checks the 8KB PRG banks projected at $8000, $A000, $C000, $E000.
func (tc *testCart) wantPRG(banks ...uint8) {
	tc.t.Helper()
	for i, want := range banks {
		addr := 0x8000 + uint16(i)*0x2000
		if got := tc.Read8(addr); got != want {
			tc.t.Errorf("PRG bank at $%04X = %d, want %d", addr, got, want)
		}
		if got := tc.Read8(addr + 0x1FFF); got != want {
			tc.t.Errorf("PRG bank at $%04X (end) = %d, want %d", addr, got, want)
		}
	}
}

// wantCHR checks the 1KB CHR banks projected in the pattern tables, starting
// at $0000.
func (tc *testCart) wantCHR(banks ...uint8) {
	tc.t.Helper()
	for i, want := range banks {
		addr := uint16(i) * 0x400
		if got := tc.video.pt[addr]; got != want {
			tc.t.Errorf("CHR bank at $%04X = %d, want %d", addr, got, want)
		}
		if got := tc.video.pt[addr+0x3FF]; got != want {
			tc.t.Errorf("CHR bank at $%04X (end) = %d, want %d", addr, got, want)
		}
	}
}

func (tc *testCart) wantMirroring(want ines.NTMirroring) {
	tc.t.Helper()
	if got := tc.video.mirroring(); got != want {
		tc.t.Errorf("mirroring = %v, want %v", got, want)
	}
}

func (tc *testCart) write(addr uint16, vals ...uint8) {
	for _, v := range vals {
		tc.Write8(addr, v)
	}
}
