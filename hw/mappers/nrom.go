package mappers

var NROM = MapperDesc{
	ID:   0,
	Name: "Direct Access",
	New:  newNROM,
}

// nrom has no registers, 16KB carts are mirrored at $C000.
type nrom struct {
	*base
}

func newNROM(b *base) Mapper {
	return &nrom{base: b}
}
