package snapshot

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestCartridgeJSON(t *testing.T) {
	wram := make([]byte, 0x2000)
	wram[0] = 0xAA
	wram[0x1FFF] = 0x55

	tests := []struct {
		name string
		c    Cartridge
	}{
		{
			name: "uxrom",
			c: Cartridge{
				Version:   Version,
				Mapper:    2,
				Mirroring: 1,
				Input:     Input{Strobe: [2]uint8{3, 19}, LastWrite: 1},
				WRAM:      wram,
				CHRRAM:    []byte{1, 2, 3, 4},
				Latch:     5,
			},
		},
		{
			name: "nina",
			c: Cartridge{
				Version: Version,
				Mapper:  34,
				NINA:    [3]uint8{1, 2, 3},
			},
		},
		{
			name: "mmc1",
			c: Cartridge{
				Version: Version,
				Mapper:  1,
				MMC1: &MMC1{
					Shift:   0b10100,
					Count:   3,
					Control: 0x0C,
					CHR0:    1,
					CHR1:    2,
					PRG:     0x1F,
				},
			},
		},
		{
			name: "mmc3",
			c: Cartridge{
				Version: Version,
				Mapper:  4,
				MMC3: &MMC3{
					Command:       6,
					PRGMode:       1,
					Regs:          [8]uint8{0, 2, 4, 5, 6, 7, 1, 3},
					PRGRAMProtect: 0x80,
					IRQCounter:    -1,
					IRQLatch:      0x20,
					IRQEnable:     true,
				},
			},
		},
		{
			name: "mmc5",
			c: Cartridge{
				Version: Version,
				Mapper:  5,
				MMC5: &MMC5{
					PRGSize:   3,
					CHRSize:   3,
					SRAMWEA:   2,
					SRAMWEB:   1,
					NTMode:    0x44,
					PRG:       [4]uint8{0x80, 0x81, 0x82, 0xFF},
					CHRSet:    1,
					CHRA:      [8]uint8{0, 1, 2, 3, 4, 5, 6, 7},
					CHRB:      [4]uint8{8, 9, 10, 11},
					IRQLine:   100,
					IRQEnable: 0x80,
					IRQStatus: 0x40,
					Scanline:  42,
					MultA:     7,
					MultB:     9,
					ExRAM:     []byte{0xDE, 0xAD},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := json.Marshal(&tt.c)
			if err != nil {
				t.Fatal(err)
			}

			var got Cartridge
			if err := json.Unmarshal(buf, &got); err != nil {
				t.Fatalf("unmarshal: %v\n%s", err, buf)
			}
			if diff := cmp.Diff(tt.c, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCartridgeDecodeSkipsUnknown(t *testing.T) {
	const data = `{"mapper": 66, "future": {"a": [1, 2]}, "latch": 3}`

	var c Cartridge
	if err := c.UnmarshalJSON([]byte(data)); err != nil {
		t.Fatal(err)
	}
	want := Cartridge{Mapper: 66, Latch: 3}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestCartridgeDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"not an object", `[1]`, "decode cartridge state"},
		{"not a number", `{"latch": "x"}`, "latch"},
		{"too many regs", `{"nina": [1, 2, 3, 4]}`, "too many elements"},
		{"future version", `{"version": 99}`, "unsupported version"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Cartridge
			err := c.UnmarshalJSON([]byte(tt.data))
			if err == nil {
				t.Fatalf("got nil error, want %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}
