package hw

import (
	"testing"

	"nescart/hw/snapshot"
)

func readSequence(cpu *CPU, addr uint16, n int) []uint8 {
	seq := make([]uint8, n)
	for i := range seq {
		seq[i] = cpu.Read8(addr)
	}
	return seq
}

func TestInputStrobe(t *testing.T) {
	cpu, _ := newTestConsole()

	var pads Joypads
	pads.Press(0, ButtonA)
	pads.Press(0, ButtonStart)
	pads.Press(1, ButtonRight)
	cpu.Input.Plug(&pads)

	cpu.Write8(0x4016, 1)
	cpu.Write8(0x4016, 0)

	want0 := []uint8{
		1, 0, 0, 1, 0, 0, 0, 0, // A, B, Select, Start, Up, Down, Left, Right
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		1, // signature
		0, 0, 0, 0,
		1, // wraps after 24 reads
	}
	got := readSequence(cpu, 0x4016, len(want0))
	for i := range want0 {
		if got[i] != want0[i] {
			t.Fatalf("port 0 read %d = %d, want %d (sequence %v)", i, got[i], want0[i], got)
		}
	}

	got = readSequence(cpu, 0x4017, 8)
	if got[7] != 1 || got[0] != 0 {
		t.Errorf("port 1 sequence = %v, want Right pressed only", got)
	}

	// Writing 1 again is not a falling edge.
	pads.Release(0, ButtonA)
	cpu.Write8(0x4016, 1)
	cpu.Write8(0x4016, 1)
	if got := cpu.Read8(0x4016); got != 0 {
		t.Errorf("read after rising edge = %d, want 0 (B)", got)
	}

	cpu.Write8(0x4016, 0)
	if got := cpu.Read8(0x4016); got != 0 {
		t.Errorf("read after falling edge = %d, want 0 (A released)", got)
	}
	if got := cpu.Read8(0x4016); got != 0 {
		t.Errorf("read 1 = %d, want 0 (B)", got)
	}
}

func TestInputUnplugged(t *testing.T) {
	cpu, _ := newTestConsole()
	cpu.Write8(0x4016, 1)
	cpu.Write8(0x4016, 0)

	got := readSequence(cpu, 0x4016, 20)
	for i, v := range got {
		want := uint8(0)
		if i == 19 {
			want = 1
		}
		if v != want {
			t.Errorf("read %d = %d, want %d", i, v, want)
		}
	}
}

func TestInputState(t *testing.T) {
	cpu, _ := newTestConsole()
	cpu.Write8(0x4016, 1)
	cpu.Write8(0x4016, 0)
	readSequence(cpu, 0x4016, 5)
	readSequence(cpu, 0x4017, 2)

	var s snapshot.Input
	cpu.Input.SaveState(&s)
	if s.Strobe != [2]uint8{5, 2} || s.LastWrite != 0 {
		t.Fatalf("saved state = %+v", s)
	}

	var ip InputPorts
	s.Strobe[1] = 30
	ip.LoadState(&s)
	var restored snapshot.Input
	ip.SaveState(&restored)
	if restored.Strobe != [2]uint8{5, 6} {
		t.Errorf("restored strobe = %v, want [5 6]", restored.Strobe)
	}
}
