package hwio

// GetBit8 reports whether bit n of v is set.
func GetBit8(v uint8, n uint) bool {
	return GetBiti8(v, n) != 0
}

// GetBiti8 returns bit n of v, as 0 or 1.
func GetBiti8(v uint8, n uint) uint8 {
	return v >> (n) & 0x01
}

func SetBit8(v *uint8, n uint) {
	*v |= (1 << n)
}

func ClearBit8(v *uint8, n uint) {
	*v &= ^(1 << n)
}
