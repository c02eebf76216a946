package loader

import (
	"bytes"
	"io"

	"github.com/lunixbochs/sandcorn/models"
)

var cgcMagic = []byte{0x7f, 0x43, 0x47, 0x43}

func MatchCgc(r io.ReaderAt) bool {
	return bytes.Equal(getMagic(r), cgcMagic)
}

// cgcReader presents a DECREE binary as the ELF it is, apart from the magic.
type cgcReader struct {
	io.ReaderAt
}

func (f *cgcReader) ReadAt(p []byte, off int64) (int, error) {
	n := 0
	if off < 4 {
		n = copy(p, elfMagic[off:])
		if n == len(p) {
			return n, nil
		}
		p = p[n:]
		off = 4
	}
	n1, err := f.ReaderAt.ReadAt(p, off)
	return n1 + n, err
}

func NewCgcLoader(r io.ReaderAt) (models.Loader, error) {
	l, err := NewElfLoader(&cgcReader{r}, "cgc")
	if err != nil {
		return nil, err
	}
	return l, nil
}
