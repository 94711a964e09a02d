package emu

import (
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"nescart/hw/hwdefs"
	"nescart/hw/mappers"
	"nescart/ines"
	"nescart/tests"
)

// TestRomsCollection inserts every rom of the collection which mapper is
// supported, runs a couple frames and round trips its state.
func TestRomsCollection(t *testing.T) {
	romsDir := tests.RomsPath(t)

	var paths []string
	err := filepath.WalkDir(romsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".nes") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, path := range paths {
		name, _ := filepath.Rel(romsDir, path)
		t.Run(name, func(t *testing.T) {
			rom, err := ines.Open(path)
			if err != nil {
				t.Skipf("not a valid rom: %s", err)
			}
			if !mappers.IsSupported(rom.Mapper()) {
				t.Skipf("mapper %d not supported", rom.Mapper())
			}

			nes := newTestNES(t)
			if err := nes.LoadCartridge(rom); err != nil {
				t.Fatal(err)
			}
			if _, ok := nes.CPU.Acknowledge(hwdefs.IRQReset); !ok {
				t.Errorf("no reset requested")
			}

			nes.RunScanlines(2 * 262)
			state, err := nes.SaveState()
			if err != nil {
				t.Fatal(err)
			}
			if err := nes.LoadState(state); err != nil {
				t.Fatal(err)
			}
			again, err := nes.SaveState()
			if err != nil {
				t.Fatal(err)
			}
			if string(state) != string(again) {
				t.Errorf("state changed after restore")
			}
		})
	}
}
