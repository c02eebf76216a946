package loader

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"

	"github.com/lunixbochs/sandcorn/models"
	"github.com/lunixbochs/sandcorn/models/cpu"
)

var ndhMagic = []byte{0x2e, 0x4e, 0x44, 0x48}

// NdhBase is where vmndh places .text.
const NdhBase = 0x8000

func MatchNdh(r io.ReaderAt) bool {
	return bytes.Equal(getMagic(r), ndhMagic)
}

type ndhHeader struct {
	Magic [4]byte
	Size  uint16
}

type NdhLoader struct {
	LoaderBase
	Text    []byte
	TextOff int
}

func unpackAt(r io.ReaderAt, i interface{}, at int64) (int, error) {
	size, err := struc.Sizeof(i)
	if err != nil {
		return 0, err
	}
	return size, struc.UnpackWithOrder(io.NewSectionReader(r, at, int64(size)), i, binary.LittleEndian)
}

func NewNdhLoader(r io.ReaderAt) (models.Loader, error) {
	var header ndhHeader
	off, err := unpackAt(r, &header, 0)
	if err != nil {
		return nil, errors.Wrap(err, "reading ndh header")
	}
	text := make([]byte, header.Size)
	if _, err := io.ReadFull(io.NewSectionReader(r, int64(off), int64(header.Size)), text); err != nil {
		return nil, errors.Wrap(err, "io.ReadFull() failed")
	}
	return &NdhLoader{
		LoaderBase: LoaderBase{
			arch:      "ndh",
			bits:      16,
			os:        "ndh",
			entry:     NdhBase,
			byteOrder: binary.LittleEndian,
		},
		Text:    text,
		TextOff: off,
	}, nil
}

// PackNdh builds an ndh image around raw code.
func PackNdh(code []byte) ([]byte, error) {
	var buf bytes.Buffer
	header := ndhHeader{Size: uint16(len(code))}
	copy(header.Magic[:], ndhMagic)
	if err := struc.PackWithOrder(&buf, &header, binary.LittleEndian); err != nil {
		return nil, err
	}
	buf.Write(code)
	return buf.Bytes(), nil
}

func (n *NdhLoader) Segments() ([]models.SegmentData, error) {
	return []models.SegmentData{{
		Off:  uint64(n.TextOff),
		Addr: NdhBase,
		// padded so the decoder can always read a full instruction
		Size: uint64(len(n.Text)) + 4,
		Prot: cpu.PROT_READ | cpu.PROT_EXEC,
		DataFunc: func() ([]byte, error) {
			return n.Text, nil
		},
	}}, nil
}

func (n *NdhLoader) DataSegment() (uint64, uint64) { return 0, 0 }
func (n *NdhLoader) Header() (uint64, []byte, int) { return 0, nil, 0 }
func (n *NdhLoader) Interp() string                { return "" }
func (n *NdhLoader) Type() int                     { return models.EXEC }
