// Package ines implements a reader for roms in the iNES file format, used for
// the distribution of NES cartridge images.
package ines

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrInvalidSignature is returned when a buffer doesn't start with the
	// iNES magic number.
	ErrInvalidSignature = errors.New("invalid iNES signature")

	// ErrTruncated is returned when a buffer is shorter than the size
	// declared by its header.
	ErrTruncated = errors.New("truncated iNES image")
)

const (
	HeaderSize  = 16
	TrainerSize = 512

	PRGBankSize = 0x4000 // 16KB
	CHRBankSize = 0x1000 // 4KB
)

// Rom is a decoded cartridge image. PRG and CHR banks are views on the
// buffer the rom has been parsed from, they are never modified.
type Rom struct {
	Header
	Trainer []byte  // Trainer, 512 bytes if present, or empty.
	PRG     BankSet // PRG ROM, 16KB banks.
	CHR     BankSet // CHR ROM, 4KB banks (may be empty).

	// Battery holds the battery-backed RAM image to restore on cartridge
	// load, if any. It's not part of the iNES image.
	Battery []byte

	valid bool
}

// Open loads a rom from file.
func Open(path string) (*Rom, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rom := new(Rom)
	if _, err := rom.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rom, nil
}

// ReadFrom implements io.ReaderFrom interface
func (rom *Rom) ReadFrom(r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	parsed, err := Parse(buf)
	if err != nil {
		return 0, err
	}
	*rom = *parsed
	return int64(len(buf)), nil
}

// Parse decodes a complete iNES image. The buffer must hold at least the
// header, the optional trainer, and all the PRG and CHR banks declared in
// the header.
func Parse(buf []byte) (*Rom, error) {
	hdr, err := Decode(buf)
	if err != nil {
		return nil, err
	}

	off := HeaderSize
	want := off + hdr.PRGSize() + hdr.CHRSize()
	if hdr.HasTrainer() {
		want += TrainerSize
	}
	if len(buf) < want {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrTruncated, want, len(buf))
	}

	rom := &Rom{Header: hdr}

	// trainer
	if hdr.HasTrainer() {
		rom.Trainer = buf[off : off+TrainerSize]
		off += TrainerSize
	}

	// PRG rom data
	rom.PRG = NewBankSet(buf[off:off+hdr.PRGSize()], PRGBankSize)
	off += hdr.PRGSize()

	// CHR rom data
	rom.CHR = NewBankSet(buf[off:off+hdr.CHRSize()], CHRBankSize)

	rom.valid = rom.PRG.Len() > 0
	return rom, nil
}

// Valid reports whether the rom has been successfully parsed and contains
// at least one PRG bank.
func (rom *Rom) Valid() bool {
	return rom != nil && rom.valid
}
