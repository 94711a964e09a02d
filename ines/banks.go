package ines

// BankSet is an ordered set of fixed-size banks sharing one backing buffer.
//
// Bank indices are always reduced modulo the number of banks, out of range
// selectors alias instead of faulting, as they do on real cartridges.
type BankSet struct {
	data []byte
	size int
}

// NewBankSet splits data in banks of the given size. Trailing bytes that do
// not fill a whole bank are not part of the set.
func NewBankSet(data []byte, size int) BankSet {
	n := len(data) / size
	return BankSet{data: data[:n*size], size: size}
}

// Len returns the number of banks.
func (bs BankSet) Len() int {
	if bs.size == 0 {
		return 0
	}
	return len(bs.data) / bs.size
}

// Size returns the size of a single bank.
func (bs BankSet) Size() int { return bs.size }

// Bytes returns the whole backing buffer.
func (bs BankSet) Bytes() []byte { return bs.data }

// Index reduces a bank selector modulo the number of banks. It returns -1 for
// an empty set.
func (bs BankSet) Index(n int) int {
	l := bs.Len()
	if l == 0 {
		return -1
	}
	n %= l
	if n < 0 {
		n += l
	}
	return n
}

// Bank returns bank n mod Len(), or nil for an empty set. The returned slice
// must not be modified.
func (bs BankSet) Bank(n int) []byte {
	i := bs.Index(n)
	if i < 0 {
		return nil
	}
	return bs.data[i*bs.size : (i+1)*bs.size : (i+1)*bs.size]
}
