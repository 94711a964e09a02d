package ines

import (
	"fmt"
)

const Magic = "NES\x1a"

// Header is the 16 bytes iNES header.
//
//	0-3   Magic
//	4     Number of 16KB PRG ROM banks
//	5     Number of 8KB CHR ROM banks (0 means CHR RAM)
//	6     Flags 6: mirroring, battery, trainer, four-screen, mapper low nibble
//	7     Flags 7: mapper high nibble
//	8-15  Zeros on a well-formed header
type Header struct {
	raw [HeaderSize]byte
}

// Decode decodes and validates the header found at the start of p.
func Decode(p []byte) (Header, error) {
	var hdr Header
	if len(p) < HeaderSize {
		return hdr, fmt.Errorf("%w: header needs %d bytes, got %d", ErrTruncated, HeaderSize, len(p))
	}
	if string(p[:4]) != Magic {
		return hdr, ErrInvalidSignature
	}
	copy(hdr.raw[:], p[:HeaderSize])
	return hdr, nil
}

// Raw returns a copy of the raw header bytes.
func (hdr Header) Raw() [HeaderSize]byte { return hdr.raw }

// PRGBanks returns the number of 16KB PRG ROM banks.
func (hdr Header) PRGBanks() int { return int(hdr.raw[4]) }

// CHRBanks returns the number of 4KB CHR ROM banks. The header counts 8KB
// units, so this is twice the header value.
func (hdr Header) CHRBanks() int { return int(hdr.raw[5]) * 2 }

func (hdr Header) PRGSize() int { return hdr.PRGBanks() * PRGBankSize }
func (hdr Header) CHRSize() int { return hdr.CHRBanks() * CHRBankSize }

// HasTrainer indicates the presence of a trainer section in the rom.
func (hdr Header) HasTrainer() bool {
	return hdr.raw[6]&0x04 != 0
}

// HasPersistent indicates the presence of battery-backed memory in the rom.
func (hdr Header) HasPersistent() bool {
	return hdr.raw[6]&0x02 != 0
}

func (hdr Header) hasFourScreen() bool {
	return hdr.raw[6]&0x08 != 0
}

// IsLegacy reports whether bytes 8 to 15 contain garbage. Old dumping tools
// wrote their signature there, in which case flags 7 can't be trusted.
func (hdr Header) IsLegacy() bool {
	for _, b := range hdr.raw[8:] {
		if b != 0 {
			return true
		}
	}
	return false
}

// Mapper returns the mapper number. The high nibble from flags 7 is only
// used if the header is not legacy.
func (hdr Header) Mapper() uint16 {
	id := uint16(hdr.raw[6]>>4) | uint16(hdr.raw[7]&0xF0)
	if hdr.IsLegacy() {
		id &= 0x0F
	}
	return id
}

// Mirroring returns the nametable mirroring declared in the header.
func (hdr Header) Mirroring() NTMirroring {
	if hdr.hasFourScreen() {
		return FourScreen
	}
	if hdr.raw[6]&0x01 == 0 {
		return HorzMirroring
	}
	return VertMirroring
}
