package mappers

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"nescart/hw/hwdefs"
	"nescart/ines"
)

func TestRegistry(t *testing.T) {
	want := []uint16{0, 1, 2, 4, 5, 7, 11, 34, 66}
	if diff := cmp.Diff(want, Supported()); diff != "" {
		t.Errorf("Supported() mismatch (-want +got):\n%s", diff)
	}

	for _, id := range want {
		desc, ok := Lookup(id)
		if !ok {
			t.Fatalf("Lookup(%d) failed", id)
		}
		if desc.ID != id {
			t.Errorf("Lookup(%d).ID = %d", id, desc.ID)
		}
		if desc.Name != DisplayName(id) {
			t.Errorf("mapper %d: name %q, display name %q", id, desc.Name, DisplayName(id))
		}
	}

	names := []struct {
		id        uint16
		name      string
		supported bool
	}{
		{0, "Direct Access", true},
		{3, "CNROM", false},
		{4, "Nintendo MMC3", true},
		{9, "Nintendo MMC2", false},
		{34, "32kB ROM switch", true},
		{91, "Pirate HK-SF3 chip", false},
		{200, "Unknown Mapper", false},
	}
	for _, tt := range names {
		if got := DisplayName(tt.id); got != tt.name {
			t.Errorf("DisplayName(%d) = %q, want %q", tt.id, got, tt.name)
		}
		if got := IsSupported(tt.id); got != tt.supported {
			t.Errorf("IsSupported(%d) = %t, want %t", tt.id, got, tt.supported)
		}
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New(nil, Board{}); !errors.Is(err, ErrInvalidRom) {
		t.Errorf("New(nil) error = %v, want %v", err, ErrInvalidRom)
	}

	rom := romBuilder{mapper: 3, prg: 2, chr: 1}.build(t)
	_, err := New(rom, Board{})
	if !errors.Is(err, ErrUnsupportedMapper) {
		t.Fatalf("New(mapper 3) error = %v, want %v", err, ErrUnsupportedMapper)
	}
	if want := "unsupported mapper 3 (CNROM)"; err.Error() != want {
		t.Errorf("error = %q, want %q", err, want)
	}
}

func TestLoadInvalidRom(t *testing.T) {
	for _, id := range Supported() {
		cpu := &fakeCPU{}
		desc, _ := Lookup(id)
		m := desc.New(newbase(desc, &ines.Rom{}, Board{CPU: cpu}))
		if err := m.Load(); !errors.Is(err, ErrInvalidRom) {
			t.Errorf("%s: Load() error = %v, want %v", desc.Name, err, ErrInvalidRom)
		}
		if len(cpu.requested) != 0 {
			t.Errorf("%s: interrupts requested on failed load: %v", desc.Name, cpu.requested)
		}
	}
}

func TestLoadRequestsReset(t *testing.T) {
	roms := map[uint16]romBuilder{
		0:  {mapper: 0, prg: 1, chr: 1},
		1:  {mapper: 1, prg: 8, chr: 0},
		2:  {mapper: 2, prg: 8, chr: 0},
		4:  {mapper: 4, prg: 16, chr: 16},
		5:  {mapper: 5, prg: 16, chr: 16},
		7:  {mapper: 7, prg: 8, chr: 0},
		11: {mapper: 11, prg: 2, chr: 4},
		34: {mapper: 34, prg: 4, chr: 0},
		66: {mapper: 66, prg: 4, chr: 4},
	}
	for _, id := range Supported() {
		tc := newTestCart(t, roms[id].build(t))
		if got := tc.cpu.count(hwdefs.IRQReset); got != 1 {
			t.Errorf("%s: %d reset requested, want 1", tc.Name(), got)
		}
	}
}

func TestNROM(t *testing.T) {
	t.Run("16KB", func(t *testing.T) {
		tc := newTestCart(t, romBuilder{mapper: 0, prg: 1, chr: 1, flags6: 0x01}.build(t))
		tc.wantPRG(0, 1, 0, 1)
		tc.wantCHR(0, 1, 2, 3, 4, 5, 6, 7)
		tc.wantMirroring(ines.VertMirroring)

		// Writes to ROM are ignored.
		tc.write(0x8000, 0xFF)
		tc.wantPRG(0, 1, 0, 1)
	})
	t.Run("32KB", func(t *testing.T) {
		tc := newTestCart(t, romBuilder{mapper: 0, prg: 2, chr: 1}.build(t))
		tc.wantPRG(0, 1, 2, 3)
		tc.wantMirroring(ines.HorzMirroring)
	})
}

// Scenario: a 128KB UNROM cartridge, with CHR RAM.
func TestUNROM(t *testing.T) {
	tc := newTestCart(t, romBuilder{mapper: 2, prg: 8}.build(t))

	tc.wantPRG(0, 1, 14, 15)

	tc.write(0xC123, 3)
	tc.wantPRG(6, 7, 14, 15)

	// Bank selectors are reduced modulo the number of banks.
	tc.write(0x8000, 11)
	tc.wantPRG(6, 7, 14, 15)

	tc.write(0x8000, 0)
	tc.wantPRG(0, 1, 14, 15)

	// Nothing is ever projected in CHR RAM.
	if tc.video.flushes != 0 || len(tc.video.invalidated) != 0 {
		t.Errorf("CHR RAM board: %d flushes, invalidated %v", tc.video.flushes, tc.video.invalidated)
	}
}

func TestBankWritesIdempotent(t *testing.T) {
	tests := []struct {
		rb   romBuilder
		addr uint16
		val  uint8
	}{
		{romBuilder{mapper: 2, prg: 8}, 0x8000, 5},
		{romBuilder{mapper: 7, prg: 8}, 0x8000, 0x12},
		{romBuilder{mapper: 11, prg: 4, chr: 4}, 0x8000, 0x31},
		{romBuilder{mapper: 34, prg: 4, chr: 2}, 0x8000, 1},
		{romBuilder{mapper: 66, prg: 8, chr: 4}, 0x8000, 0x23},
	}
	for _, tt := range tests {
		once := newTestCart(t, tt.rb.build(t))
		once.write(tt.addr, tt.val)

		twice := newTestCart(t, tt.rb.build(t))
		twice.write(tt.addr, tt.val, tt.val)

		for addr := 0x8000; addr <= 0xFFFF; addr += 0x100 {
			if a, b := once.Read8(uint16(addr)), twice.Read8(uint16(addr)); a != b {
				t.Errorf("%s: $%04X = %d after one write, %d after two", once.Name(), addr, a, b)
				break
			}
		}
		if once.video.pt != twice.video.pt {
			t.Errorf("%s: pattern tables differ", once.Name())
		}
		if a, b := once.video.mirroring(), twice.video.mirroring(); a != b {
			t.Errorf("%s: mirroring %v after one write, %v after two", once.Name(), a, b)
		}
	}
}

func TestAOROM(t *testing.T) {
	tc := newTestCart(t, romBuilder{mapper: 7, prg: 8, flags6: 0x01}.build(t))
	tc.wantPRG(0, 1, 2, 3)
	tc.wantMirroring(ines.VertMirroring)

	tc.write(0x8000, 0x13)
	tc.wantPRG(12, 13, 14, 15)
	tc.wantMirroring(ines.OnlyBScreen)

	tc.write(0xFFFF, 0x0A)
	tc.wantPRG(8, 9, 10, 11)
	tc.wantMirroring(ines.OnlyAScreen)
}

func TestColorDreams(t *testing.T) {
	tc := newTestCart(t, romBuilder{mapper: 11, prg: 4, chr: 4}.build(t))
	tc.wantPRG(0, 1, 2, 3)
	tc.wantCHR(0, 1, 2, 3, 4, 5, 6, 7)

	tc.write(0x8000, 0x21)
	tc.wantPRG(4, 5, 6, 7)
	tc.wantCHR(16, 17, 18, 19, 20, 21, 22, 23)
}

func TestGNROM(t *testing.T) {
	tc := newTestCart(t, romBuilder{mapper: 66, prg: 8, chr: 4}.build(t))

	tc.write(0x8000, 0x12)
	tc.wantPRG(4, 5, 6, 7)
	tc.wantCHR(16, 17, 18, 19, 20, 21, 22, 23)

	tc.write(0x8000, 0x33)
	tc.wantPRG(12, 13, 14, 15)
	tc.wantCHR(24, 25, 26, 27, 28, 29, 30, 31)
}

func TestBNROM(t *testing.T) {
	tc := newTestCart(t, romBuilder{mapper: 34, prg: 4, chr: 8}.build(t))
	tc.wantPRG(0, 1, 2, 3)

	tc.write(0x8000, 1)
	tc.wantPRG(4, 5, 6, 7)

	// NINA-001 registers.
	tc.write(0x7FFD, 0)
	tc.wantPRG(0, 1, 2, 3)

	tc.write(0x7FFE, 3)
	tc.write(0x7FFF, 5)
	tc.wantCHR(12, 13, 14, 15, 20, 21, 22, 23)

	// They're also work RAM cells.
	if got := tc.Read8(0x7FFE); got != 3 {
		t.Errorf("$7FFE = %d, want 3", got)
	}
	if got := tc.Read8(0x7FFF); got != 5 {
		t.Errorf("$7FFF = %d, want 5", got)
	}
}

func TestBNROMCHRRAM(t *testing.T) {
	tc := newTestCart(t, romBuilder{mapper: 34, prg: 8}.build(t))

	tc.write(0x8000, 3)
	tc.wantPRG(12, 13, 14, 15)

	// No NINA-001 registers, $7FFD-$7FFF are plain work RAM.
	tc.write(0x7FFD, 0)
	tc.write(0x7FFE, 1)
	tc.write(0x7FFF, 2)
	tc.wantPRG(12, 13, 14, 15)
	if got := tc.Read8(0x7FFD); got != 0 {
		t.Errorf("$7FFD = %d, want 0", got)
	}
	if got := tc.Read8(0x7FFF); got != 2 {
		t.Errorf("$7FFF = %d, want 2", got)
	}
	if n := len(tc.video.invalidated); n != 0 {
		t.Errorf("%d pattern table ranges invalidated, want 0", n)
	}
}

func TestBoardWithoutCPU(t *testing.T) {
	tests := []struct {
		mapper uint16
		run    func(m Mapper)
	}{
		{4, func(m Mapper) {
			m.Write8(0xC000, 0)
			m.Write8(0xE001, 0)
			m.(ScanlineCounter).ClockScanline()
			m.(ScanlineCounter).ClockScanline()
			m.Write8(0xE000, 0)
		}},
		{5, func(m Mapper) {
			m.Write8(0x5203, 1)
			m.Write8(0x5204, 0x80)
			for range 262 {
				m.(ScanlineCounter).ClockScanline()
			}
			m.Read8(0x5204)
		}},
	}
	for _, tt := range tests {
		t.Run(DisplayName(tt.mapper), func(t *testing.T) {
			rom := romBuilder{mapper: tt.mapper, prg: 8, chr: 8}.build(t)
			m, err := New(rom, Board{})
			if err != nil {
				t.Fatal(err)
			}
			if err := m.Load(); err != nil {
				t.Fatal(err)
			}
			tt.run(m)
		})
	}
}

func TestCHRInvalidation(t *testing.T) {
	tc := newTestCart(t, romBuilder{mapper: 4, prg: 16, chr: 16}.build(t))
	tc.video.invalidated = nil
	flushes := tc.video.flushes

	// Select 1KB CHR bank at $1400.
	tc.write(0x8000, cmdSel1kVROM1400)
	tc.write(0x8001, 42)

	want := []span{{0x1400, 0x400}}
	if diff := cmp.Diff(want, tc.video.invalidated, cmp.AllowUnexported(span{})); diff != "" {
		t.Errorf("invalidated tiles mismatch (-want +got):\n%s", diff)
	}
	if tc.video.flushes != flushes+1 {
		t.Errorf("flushes = %d, want %d", tc.video.flushes, flushes+1)
	}
	tc.wantCHR(0, 1, 2, 3, 4, 42, 6, 7)
}

func TestWorkRAM(t *testing.T) {
	tc := newTestCart(t, romBuilder{mapper: 0, prg: 1, chr: 1}.build(t))

	tc.write(0x6000, 0xAB)
	tc.write(0x7FFF, 0xCD)
	if got := tc.Read8(0x6000); got != 0xAB {
		t.Errorf("$6000 = $%02X, want $AB", got)
	}
	if got := tc.Read8(0x7FFF); got != 0xCD {
		t.Errorf("$7FFF = $%02X, want $CD", got)
	}

	// RAM is mirrored up to $1FFF.
	tc.write(0x1801, 0x42)
	if tc.ram[0x001] != 0x42 {
		t.Errorf("RAM[1] = $%02X, want $42", tc.ram[0x001])
	}
	if got := tc.Read8(0x0801); got != 0x42 {
		t.Errorf("$0801 = $%02X, want $42", got)
	}
}

func TestBatteryRAM(t *testing.T) {
	battery := make([]byte, 0x2000)
	battery[0x10] = 0x77

	tc := newTestCart(t, romBuilder{mapper: 1, prg: 8, flags6: 0x02, battery: battery}.build(t))
	if got := tc.Read8(0x6010); got != 0x77 {
		t.Errorf("$6010 = $%02X, want $77", got)
	}

	// No battery flag in header, image is ignored.
	tc = newTestCart(t, romBuilder{mapper: 1, prg: 8, battery: battery}.build(t))
	if got := tc.Read8(0x6010); got != 0 {
		t.Errorf("$6010 = $%02X, want 0", got)
	}
}

func TestFourScreenIsHardwired(t *testing.T) {
	tc := newTestCart(t, romBuilder{mapper: 4, prg: 8, chr: 4, flags6: 0x08}.build(t))
	tc.wantMirroring(ines.FourScreen)

	tc.write(0xA000, 1)
	tc.wantMirroring(ines.FourScreen)
}
