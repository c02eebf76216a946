package fs

import (
	"io"
	"os"
)

// Stream is the capability every descriptor target must provide.
type Stream interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// Optional stream capabilities, detected by type assertion.
type (
	Seeker interface {
		Seek(offset int64, whence int) (int64, error)
	}
	Truncater interface {
		Truncate(size int64) error
	}
	Stater interface {
		Stat() (os.FileInfo, error)
	}
)

type nullStream struct{}

func (nullStream) Read(p []byte) (int, error)  { return 0, io.EOF }
func (nullStream) Write(p []byte) (int, error) { return len(p), nil }
func (nullStream) Close() error                { return nil }

// Null reads as EOF and discards writes.
var Null Stream = nullStream{}

type readStream struct{ io.Reader }

func (r readStream) Write(p []byte) (int, error) { return 0, os.ErrPermission }
func (r readStream) Close() error {
	if c, ok := r.Reader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type writeStream struct{ io.Writer }

func (w writeStream) Read(p []byte) (int, error) { return 0, os.ErrPermission }
func (w writeStream) Close() error {
	if c, ok := w.Writer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ReadOnly adapts an io.Reader (e.g. a bytes.Reader used as guest stdin) into a Stream.
func ReadOnly(r io.Reader) Stream {
	return readStream{r}
}

// WriteOnly adapts an io.Writer (e.g. a bytes.Buffer capturing guest stdout) into a Stream.
func WriteOnly(w io.Writer) Stream {
	return writeStream{w}
}

// NoClose keeps the guest from closing a host-owned stream such as os.Stdout.
func NoClose(s Stream) Stream {
	return noClose{s}
}

type noClose struct{ Stream }

func (noClose) Close() error { return nil }
