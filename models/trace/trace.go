package trace

import (
	"encoding/binary"
	"io"
	"strings"

	"github.com/golang/snappy"
	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

var TRACE_MAGIC = "SCTR"

var order = binary.LittleEndian

type Header struct {
	// MAGIC ("SCTR")
	Magic   string `struc:"[4]byte"`
	Version uint32
	// emulated architecture and OS, right-null-padded
	Arch string `struc:"[32]byte"`
	OS   string `struc:"[32]byte"`
	Bits uint8
}

// Frame records one dispatched syscall.
type Frame struct {
	Num      uint32
	Ret      uint64
	Errno    int32
	ArgCount uint8 `struc:"uint8,sizeof=Args"`
	Args     []uint64
	NameLen  uint16 `struc:"uint16,sizeof=Name"`
	Name     string
	DescLen  uint16 `struc:"uint16,sizeof=Desc"`
	// strace rendering, if any
	Desc string
}

type Writer struct {
	w  io.WriteCloser
	zw *snappy.Writer
}

func NewWriter(w io.WriteCloser, arch, os string, bits int) (*Writer, error) {
	header := &Header{
		Magic:   TRACE_MAGIC,
		Version: 1,
		Arch:    arch,
		OS:      os,
		Bits:    uint8(bits),
	}
	if err := struc.PackWithOrder(w, header, order); err != nil {
		return nil, errors.Wrap(err, "failed to pack header")
	}
	return &Writer{w: w, zw: snappy.NewBufferedWriter(w)}, nil
}

// Pack writes a frame at a time.
func (t *Writer) Pack(frame *Frame) error {
	return errors.Wrap(struc.PackWithOrder(t.zw, frame, order), "failed to pack frame")
}

func (t *Writer) Flush() error {
	return t.zw.Flush()
}

func (t *Writer) Close() error {
	if err := t.zw.Close(); err != nil {
		t.w.Close()
		return err
	}
	return t.w.Close()
}

type Reader struct {
	r      io.ReadCloser
	zr     *snappy.Reader
	Header Header
}

func NewReader(r io.ReadCloser) (*Reader, error) {
	t := &Reader{r: r}
	if err := struc.UnpackWithOrder(r, &t.Header, order); err != nil {
		return nil, errors.Wrap(err, "failed to unpack header")
	}
	if t.Header.Magic != TRACE_MAGIC {
		return nil, errors.New("invalid trace file magic")
	}
	t.Header.Arch = strings.TrimRight(t.Header.Arch, "\x00")
	t.Header.OS = strings.TrimRight(t.Header.OS, "\x00")
	t.zr = snappy.NewReader(r)
	return t, nil
}

// Next returns io.EOF after the last frame.
func (t *Reader) Next() (*Frame, error) {
	var frame Frame
	if err := struc.UnpackWithOrder(t.zr, &frame, order); err != nil {
		if errors.Cause(err) == io.EOF {
			return nil, io.EOF
		}
		return nil, errors.Wrap(err, "failed to unpack frame")
	}
	return &frame, nil
}

func (t *Reader) Close() error {
	t.zr.Reset(nil)
	return t.r.Close()
}
