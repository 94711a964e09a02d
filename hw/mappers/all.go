package mappers

import (
	"errors"
	"fmt"
	"slices"

	"nescart/emu/log"
	"nescart/ines"
)

var modMapper = log.NewModule("mapper")

var (
	// ErrUnsupportedMapper is returned when loading a cartridge which mapper
	// is not emulated.
	ErrUnsupportedMapper = errors.New("unsupported mapper")

	// ErrInvalidRom is returned when loading a rom that hasn't been
	// successfully parsed.
	ErrInvalidRom = errors.New("invalid rom")
)

// New creates the mapper of a cartridge, plugged into board. The mapper is
// not loaded yet, see Mapper.Load.
func New(rom *ines.Rom, board Board) (Mapper, error) {
	if rom == nil {
		return nil, ErrInvalidRom
	}
	id := rom.Mapper()
	desc, ok := Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w %d (%s)", ErrUnsupportedMapper, id, DisplayName(id))
	}
	return desc.New(newbase(desc, rom, board)), nil
}

type MapperDesc struct {
	ID   uint16
	Name string
	New  func(*base) Mapper
}

var All = map[uint16]MapperDesc{
	0:  NROM,
	1:  MMC1,
	2:  UxROM,
	4:  MMC3,
	5:  MMC5,
	7:  AxROM,
	11: ColorDreams,
	34: BNROM,
	66: GxROM,
}

// Lookup returns the descriptor of a supported mapper.
func Lookup(id uint16) (MapperDesc, bool) {
	desc, ok := All[id]
	return desc, ok
}

// IsSupported reports whether the mapper is emulated.
func IsSupported(id uint16) bool {
	_, ok := All[id]
	return ok
}

// Supported returns the ids of all emulated mappers, in increasing order.
func Supported() []uint16 {
	ids := make([]uint16, 0, len(All))
	for id := range All {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// DisplayName returns the name of a mapper, supported or not.
func DisplayName(id uint16) string {
	if name, ok := names[id]; ok {
		return name
	}
	return "Unknown Mapper"
}

var names = map[uint16]string{
	0:  "Direct Access",
	1:  "Nintendo MMC1",
	2:  "UNROM",
	3:  "CNROM",
	4:  "Nintendo MMC3",
	5:  "Nintendo MMC5",
	6:  "FFE F4xxx",
	7:  "AOROM",
	8:  "FFE F3xxx",
	9:  "Nintendo MMC2",
	10: "Nintendo MMC4",
	11: "Color Dreams Chip",
	12: "FFE F6xxx",
	15: "100-in-1 switch",
	16: "Bandai chip",
	17: "FFE F8xxx",
	18: "Jaleco SS8806 chip",
	19: "Namcot 106 chip",
	20: "Famicom Disk System",
	21: "Konami VRC4a",
	22: "Konami VRC2a",
	23: "Konami VRC2a",
	24: "Konami VRC6",
	25: "Konami VRC4b",
	32: "Irem G-101 chip",
	33: "Taito TC0190/TC0350",
	34: "32kB ROM switch",
	64: "Tengen RAMBO-1 chip",
	65: "Irem H-3001 chip",
	66: "GNROM switch",
	67: "SunSoft3 chip",
	68: "SunSoft4 chip",
	69: "SunSoft5 FME-7 chip",
	71: "Camerica chip",
	78: "Irem 74HC161/32-based",
	91: "Pirate HK-SF3 chip",
}
