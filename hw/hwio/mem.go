package hwio

import (
	"nescart/emu/log"
)

type MemFlags int

const (
	MemFlagReadWrite MemFlags = 0
	MemFlagReadOnly  MemFlags = 1 << iota // writes are dropped and logged
	MemFlagNoROLog                        // skip logging dropped writes
)

// Mem is a fixed-size memory block. Its virtual size can be bigger than the
// physical buffer, in which case the buffer is mirrored over the whole
// virtual range (like the 2KB of internal RAM mirrored up to $1FFF).
//
// Every access is bounds checked against the virtual size, accesses out of
// bounds are reported: reads return 0 and writes are dropped.
type Mem struct {
	Name  string   // name of the memory area (for debugging)
	Data  []byte   // actual memory buffer
	VSize int      // virtual size, defaults to len(Data)
	Flags MemFlags // flags determining how the memory can be accessed

	oob int
}

func (m *Mem) size() int {
	if m.VSize == 0 {
		return len(m.Data)
	}
	return m.VSize
}

func (m *Mem) index(addr uint16, write bool) (int, bool) {
	if int(addr) >= m.size() || len(m.Data) == 0 {
		m.oob++
		log.ModHwIo.ErrorZ("memory access out of bounds").
			String("name", m.Name).
			Hex16("addr", addr).
			Int("size", m.size()).
			Bool("write", write).
			End()
		return 0, false
	}
	return int(addr) % len(m.Data), true
}

func (m *Mem) Read8(addr uint16) uint8 {
	i, ok := m.index(addr, false)
	if !ok {
		return 0
	}
	return m.Data[i]
}

func (m *Mem) Write8(addr uint16, val uint8) {
	i, ok := m.index(addr, true)
	if !ok {
		return
	}
	if m.Flags&MemFlagReadOnly != 0 {
		if m.Flags&MemFlagNoROLog == 0 {
			log.ModHwIo.ErrorZ("Write8 to readonly memory").
				String("name", m.Name).
				Hex8("val", val).
				Hex16("addr", addr).
				End()
		}
		return
	}
	m.Data[i] = val
}

// OutOfBounds returns the number of out of bounds accesses.
func (m *Mem) OutOfBounds() int { return m.oob }
