package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"nescart/emu"
	"nescart/emu/log"
	"nescart/ines"
)

func init() {
	log.SetOutput(io.Discard)
}

func TestPokeParse(t *testing.T) {
	tests := []struct {
		in      string
		want    poke
		wantErr bool
	}{
		{in: "8000=3", want: poke{0x8000, 3}},
		{in: "$E001=$FF", want: poke{0xE001, 0xFF}},
		{in: "0x5105=0x44", want: poke{0x5105, 0x44}},
		{in: "8000", wantErr: true},
		{in: "10000=1", wantErr: true},
		{in: "8000=100", wantErr: true},
		{in: "zz=1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var p poke
			err := p.parse(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parse(%q) = %v, want error", tt.in, p)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if p != tt.want {
				t.Errorf("parse(%q) = %v, want %v", tt.in, p, tt.want)
			}
		})
	}
}

// writeRom writes a minimal rom image with 32KB of PRG ROM, 8KB of CHR ROM.
func writeRom(t *testing.T, dir, name string, mapper uint8) string {
	t.Helper()

	buf := []byte(ines.Magic)
	buf = append(buf, 2, 1, mapper<<4, mapper&0xF0)
	buf = append(buf, make([]byte, ines.HeaderSize-len(buf))...)
	buf = append(buf, make([]byte, 0x8000+0x2000)...)

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheckRoms(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeRom(t, dir, "nrom.nes", 0),
		writeRom(t, dir, "mmc2.nes", 9),
		writeRom(t, dir, "axrom.nes", 7),
	}
	bad := filepath.Join(dir, "bad.nes")
	if err := os.WriteFile(bad, []byte("not a rom"), 0o644); err != nil {
		t.Fatal(err)
	}
	paths = append(paths, bad)

	var out bytes.Buffer
	if checkRoms(&out, emu.Config{}, paths, 2) {
		t.Errorf("checkRoms reported success with failing roms")
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	var got []string
	for _, l := range lines {
		got = append(got, strings.Fields(l)[0])
	}
	want := []string{"ok", "FAIL", "ok", "FAIL"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s\noutput:\n%s", diff, out.String())
	}
	if !strings.Contains(lines[2], "AOROM") {
		t.Errorf("line %q doesn't name the mapper", lines[2])
	}
}

func TestDumpState(t *testing.T) {
	path := writeRom(t, t.TempDir(), "uxrom.nes", 2)

	var out bytes.Buffer
	args := State{
		RomPath: path,
		Poke:    []poke{{0x8000, 1}},
	}
	if err := dumpState(&out, emu.Config{}, args); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"mapper"`) {
		t.Errorf("state doesn't contain the mapper:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "\n  \"version\"") || !strings.HasSuffix(out.String(), "}\n") {
		t.Errorf("state isn't indented once:\n%s", out.String())
	}

	// Restoring the dumped state.
	restore := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(restore, out.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	var out2 bytes.Buffer
	if err := dumpState(&out2, emu.Config{}, State{RomPath: path, Restore: restore}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(out.String(), out2.String()); diff != "" {
		t.Errorf("restored state mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckRomsParallel(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i, mapper := range []uint8{0, 1, 2, 4, 5, 7, 11, 66} {
		paths = append(paths, writeRom(t, dir, fmt.Sprintf("rom%d.nes", i), mapper))
	}

	var out bytes.Buffer
	if !checkRoms(&out, emu.Config{}, paths, 0) {
		t.Errorf("checkRoms failed:\n%s", out.String())
	}
	if n := strings.Count(out.String(), "ok "); n != len(paths) {
		t.Errorf("%d roms loaded, want %d:\n%s", n, len(paths), out.String())
	}
}
