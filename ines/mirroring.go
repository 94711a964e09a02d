package ines

//go:generate go tool stringer -type=NTMirroring -linecomment

// NTMirroring describes how the 4 logical nametables are mapped onto the
// physical nametable memory.
type NTMirroring uint8

const (
	HorzMirroring NTMirroring = iota // horizontal
	VertMirroring                    // vertical
	FourScreen                       // four-screen
	OnlyAScreen                      // single-screen A
	OnlyBScreen                      // single-screen B
)
