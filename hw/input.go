package hw

import (
	"nescart/emu/log"
	"nescart/hw/snapshot"
)

// Standard controller buttons, in the order they are shifted out.
const (
	ButtonA uint8 = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// an InputDevice is a generic interface for NES input devices.
type InputDevice interface {
	// Buttons returns the state of the buttons of the controller plugged
	// in the given port (0 or 1), one bit per button.
	Buttons(port int) uint8
}

// Joypads is an InputDevice made of 2 standard controllers.
type Joypads [2]uint8

func (j *Joypads) Buttons(port int) uint8 { return j[port] }

func (j *Joypads) Press(port int, btn uint8)   { j[port] |= btn }
func (j *Joypads) Release(port int, btn uint8) { j[port] &^= btn }

// Number of reads in a full strobe cycle.
const strobeCycle = 24

// InputPorts handles I/O with an InputDevice through the $4016/$4017
// registers.
//
// Each read returns one bit. The 8 first reads after a strobe return the
// button states, then the port reports its signature: a 1 on the 20th read,
// zeroes elsewhere. After 24 reads the sequence starts again.
type InputPorts struct {
	dev InputDevice

	strobe    [2]uint8 // read index, per port
	lastWrite uint8    // to observe strobe falling edge.
}

// Plug connects an input device, nil unplugs.
func (ip *InputPorts) Plug(dev InputDevice) {
	ip.dev = dev
}

// Write handles writes to $4016. A falling edge on bit 0 resets the read
// sequence of both ports.
func (ip *InputPorts) Write(val uint8) {
	if val&1 == 0 && ip.lastWrite&1 == 1 {
		ip.strobe[0] = 0
		ip.strobe[1] = 0
	}
	ip.lastWrite = val
}

// Read handles reads from $4016 (port 0) and $4017 (port 1).
func (ip *InputPorts) Read(port int) uint8 {
	state := ip.strobe[port]

	var ret uint8
	switch {
	case state < 8:
		if ip.dev != nil {
			ret = (ip.dev.Buttons(port) >> state) & 1
		}
	case state == 19:
		ret = 1
	}

	state++
	if state == strobeCycle {
		state = 0
	}
	ip.strobe[port] = state

	log.ModInput.DebugZ("read input port").
		Int("port", port).
		Uint8("state", state).
		Uint8("ret", ret).
		End()
	return ret
}

func (ip *InputPorts) SaveState(s *snapshot.Input) {
	s.Strobe = ip.strobe
	s.LastWrite = ip.lastWrite
}

func (ip *InputPorts) LoadState(s *snapshot.Input) {
	ip.strobe = s.Strobe
	ip.lastWrite = s.LastWrite
	for i := range ip.strobe {
		ip.strobe[i] %= strobeCycle
	}
}
