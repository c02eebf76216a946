package sandcorn

import (
	"golang.org/x/exp/constraints"
)

const (
	// default hint for non-fixed mmap on 32/64-bit guests
	BASE      = 1024 * 1024
	PAGE_SIZE = 0x1000
)

func alignDown[T constraints.Unsigned](n, to T) T {
	return n &^ (to - 1)
}

func alignUp[T constraints.Unsigned](n, to T) T {
	return (n + to - 1) &^ (to - 1)
}

// align grows addr/size outward to page boundaries.
func align(addr, size uint64) (uint64, uint64) {
	right := alignUp(addr+size, PAGE_SIZE)
	addr = alignDown(addr, PAGE_SIZE)
	return addr, right - addr
}
