package hwdefs

//go:generate go tool stringer -type=Interrupt -linecomment

// Interrupt identifies a CPU interrupt line.
type Interrupt uint8

const (
	IRQNormal Interrupt = iota // irq
	NMI                        // nmi
	IRQReset                   // reset

	NumInterrupts = 3
)
