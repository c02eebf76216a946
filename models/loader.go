package models

import (
	"encoding/binary"
)

// image types
const (
	EXEC = iota
	DYN
	UNKNOWN
)

type Loader interface {
	Arch() string
	Bits() int
	ByteOrder() binary.ByteOrder
	OS() string
	Entry() uint64
	Type() int
	Interp() string
	// program header file offset, raw bytes and count, for auxv
	Header() (uint64, []byte, int)
	Segments() ([]SegmentData, error)
	DataSegment() (uint64, uint64)
}
