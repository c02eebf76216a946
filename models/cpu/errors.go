package cpu

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrAccessViolation is matched by every *MemError via errors.Is.
var ErrAccessViolation = errors.New("access violation")

type MemError struct {
	Addr uint64
	Size int
	Enum int
}

func (m *MemError) Error() string {
	reason := "memory error"
	switch m.Enum {
	case MEM_WRITE_UNMAPPED:
		reason = "unmapped write"
	case MEM_READ_UNMAPPED:
		reason = "unmapped read"
	case MEM_FETCH_UNMAPPED:
		reason = "unmapped fetch"
	case MEM_WRITE_PROT:
		reason = "protected write"
	case MEM_READ_PROT:
		reason = "protected read"
	case MEM_FETCH_PROT:
		reason = "protected exec"
	}
	return fmt.Sprintf("%s at %#x(%d)", reason, m.Addr, m.Size)
}

func (m *MemError) Is(target error) bool {
	return target == ErrAccessViolation
}

// Unmapped reports whether the error was caused by a missing mapping rather than protections.
func (m *MemError) Unmapped() bool {
	switch m.Enum {
	case MEM_READ_UNMAPPED, MEM_WRITE_UNMAPPED, MEM_FETCH_UNMAPPED:
		return true
	}
	return false
}

// OverlapError is returned when a new mapping intersects an existing one.
type OverlapError struct {
	Addr, Size uint64
	Existing   *Page
}

func (o *OverlapError) Error() string {
	return fmt.Sprintf("mapping %#x-%#x overlaps %s", o.Addr, o.Addr+o.Size, o.Existing)
}

func accessError(addr uint64, size int, prot int, write, mapped bool) error {
	enum := MEM_READ_UNMAPPED
	switch {
	case write && mapped:
		enum = MEM_WRITE_PROT
	case write:
		enum = MEM_WRITE_UNMAPPED
	case prot&PROT_EXEC != 0 && mapped:
		enum = MEM_FETCH_PROT
	case prot&PROT_EXEC != 0:
		enum = MEM_FETCH_UNMAPPED
	case mapped:
		enum = MEM_READ_PROT
	}
	return &MemError{Addr: addr, Size: size, Enum: enum}
}
