package fs

import (
	"io"
	"maps"
	"os"
	"slices"

	"github.com/pkg/errors"
)

// AT_FDCWD as passed to the *at() family
const AtFdCwd = -100

// File is an open file description. Descriptors created by dup share one File.
type File struct {
	Stream   Stream
	Path     string // guest path, or a tag such as "<stdin>" for synthetic streams
	HostPath string
	Flags    int
	Pos      int64
	Dir      bool

	refs int
}

// Entry is one slot in the descriptor table.
type Entry struct {
	Fd int
	*File
}

// Table is a session's virtual descriptor table.
type Table struct {
	jail  *Jail
	files map[int]*Entry
}

// NewTable binds stdio to descriptors 0, 1 and 2. Nil streams are replaced with Null.
func NewTable(jail *Jail, stdin, stdout, stderr Stream) *Table {
	t := &Table{jail: jail, files: make(map[int]*Entry)}
	std := []struct {
		s    Stream
		name string
		flag int
	}{
		{stdin, "<stdin>", os.O_RDONLY},
		{stdout, "<stdout>", os.O_WRONLY},
		{stderr, "<stderr>", os.O_WRONLY},
	}
	for i, v := range std {
		if v.s == nil {
			v.s = Null
		}
		t.files[i] = &Entry{Fd: i, File: &File{Stream: v.s, Path: v.name, Flags: v.flag, refs: 1}}
	}
	return t
}

func (t *Table) Jail() *Jail {
	return t.jail
}

func (t *Table) lowest(from int) int {
	fd := from
	for {
		if _, ok := t.files[fd]; !ok {
			return fd
		}
		fd++
	}
}

func (t *Table) place(fd int, f *File) *Entry {
	f.refs++
	e := &Entry{Fd: fd, File: f}
	t.files[fd] = e
	return e
}

// Install places a stream at the lowest free descriptor.
func (t *Table) Install(s Stream, path string, flags int) int {
	fd := t.lowest(0)
	t.place(fd, &File{Stream: s, Path: path, Flags: flags})
	return fd
}

// InstallAt places a stream at a specific descriptor, which must be free.
func (t *Table) InstallAt(fd int, s Stream, path string, flags int) error {
	if fd < 0 {
		return badFd(fd)
	}
	if _, ok := t.files[fd]; ok {
		return errors.Wrapf(ErrDescriptorInUse, "fd %d", fd)
	}
	t.place(fd, &File{Stream: s, Path: path, Flags: flags})
	return nil
}

func (t *Table) Get(fd int) (*Entry, error) {
	if e, ok := t.files[fd]; ok {
		return e, nil
	}
	return nil, badFd(fd)
}

func (t *Table) Len() int {
	return len(t.files)
}

// Entries returns the open descriptors ordered by fd.
func (t *Table) Entries() []*Entry {
	ret := make([]*Entry, 0, len(t.files))
	for _, fd := range slices.Sorted(maps.Keys(t.files)) {
		ret = append(ret, t.files[fd])
	}
	return ret
}

// Open opens a guest path inside the jail with host os.O_* flags.
func (t *Table) Open(path string, flags int, mode os.FileMode) (int, error) {
	canon, host, err := t.jail.resolve(path)
	if err != nil {
		return -1, err
	}
	f, err := os.OpenFile(host, flags, mode)
	if err != nil {
		return -1, &IOError{Op: "open", Fd: -1, Path: path, Err: err}
	}
	file := &File{Stream: f, Path: canon, HostPath: host, Flags: flags}
	if fi, err := f.Stat(); err == nil {
		file.Dir = fi.IsDir()
	}
	fd := t.lowest(0)
	t.place(fd, file)
	return fd, nil
}

// PathAt resolves a relative path against an open directory descriptor, as the *at() family does.
func (t *Table) PathAt(dirfd int, path string) (string, error) {
	if len(path) > 0 && path[0] != '/' && dirfd != AtFdCwd {
		dir, err := t.Get(dirfd)
		if err != nil {
			return "", err
		}
		if !dir.Dir {
			return "", &IOError{Op: "openat", Fd: dirfd, Path: path, Err: errNotDir}
		}
		path = dir.Path + "/" + path
	}
	return path, nil
}

func (t *Table) OpenAt(dirfd int, path string, flags int, mode os.FileMode) (int, error) {
	path, err := t.PathAt(dirfd, path)
	if err != nil {
		return -1, err
	}
	return t.Open(path, flags, mode)
}

// Close frees a descriptor. The stream is closed when its last descriptor goes.
func (t *Table) Close(fd int) error {
	e, ok := t.files[fd]
	if !ok {
		return badFd(fd)
	}
	delete(t.files, fd)
	return t.release(e)
}

func (t *Table) release(e *Entry) error {
	e.refs--
	if e.refs > 0 {
		return nil
	}
	if err := e.Stream.Close(); err != nil {
		return &IOError{Op: "close", Fd: e.Fd, Path: e.Path, Err: err}
	}
	return nil
}

// CloseAll releases every descriptor and returns the first close error.
func (t *Table) CloseAll() error {
	var first error
	for _, e := range t.Entries() {
		if err := t.Close(e.Fd); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (t *Table) Read(fd int, p []byte) (int, error) {
	e, err := t.Get(fd)
	if err != nil {
		return 0, err
	}
	n, err := e.Stream.Read(p)
	e.Pos += int64(n)
	if err != nil && err != io.EOF {
		return n, &IOError{Op: "read", Fd: fd, Path: e.Path, Err: err}
	}
	return n, nil
}

func (t *Table) Write(fd int, p []byte) (int, error) {
	e, err := t.Get(fd)
	if err != nil {
		return 0, err
	}
	n, err := e.Stream.Write(p)
	if e.Flags&os.O_APPEND != 0 {
		if s, ok := e.Stream.(Seeker); ok {
			e.Pos, _ = s.Seek(0, io.SeekCurrent)
		}
	} else {
		e.Pos += int64(n)
	}
	if err != nil {
		return n, &IOError{Op: "write", Fd: fd, Path: e.Path, Err: err}
	}
	return n, nil
}

// ReadAt and WriteAt leave the cursor untouched, as pread/pwrite do.
func (t *Table) ReadAt(fd int, p []byte, off int64) (int, error) {
	e, err := t.Get(fd)
	if err != nil {
		return 0, err
	}
	ra, ok := e.Stream.(io.ReaderAt)
	if !ok {
		return 0, errors.Wrapf(ErrNotSeekable, "fd %d", fd)
	}
	n, err := ra.ReadAt(p, off)
	if err != nil && err != io.EOF {
		return n, &IOError{Op: "pread", Fd: fd, Path: e.Path, Err: err}
	}
	return n, nil
}

func (t *Table) WriteAt(fd int, p []byte, off int64) (int, error) {
	e, err := t.Get(fd)
	if err != nil {
		return 0, err
	}
	wa, ok := e.Stream.(io.WriterAt)
	if !ok {
		return 0, errors.Wrapf(ErrNotSeekable, "fd %d", fd)
	}
	n, err := wa.WriteAt(p, off)
	if err != nil {
		return n, &IOError{Op: "pwrite", Fd: fd, Path: e.Path, Err: err}
	}
	return n, nil
}

func (t *Table) Seek(fd int, off int64, whence int) (int64, error) {
	e, err := t.Get(fd)
	if err != nil {
		return 0, err
	}
	s, ok := e.Stream.(Seeker)
	if !ok {
		return 0, errors.Wrapf(ErrNotSeekable, "fd %d", fd)
	}
	pos, err := s.Seek(off, whence)
	if err != nil {
		return 0, &IOError{Op: "seek", Fd: fd, Path: e.Path, Err: err}
	}
	e.Pos = pos
	return pos, nil
}

func (t *Table) Ftruncate(fd int, size int64) error {
	e, err := t.Get(fd)
	if err != nil {
		return err
	}
	tr, ok := e.Stream.(Truncater)
	if !ok {
		return errors.Wrapf(ErrNotTruncatable, "fd %d", fd)
	}
	if err := tr.Truncate(size); err != nil {
		return &IOError{Op: "ftruncate", Fd: fd, Path: e.Path, Err: err}
	}
	return nil
}

func (t *Table) Fstat(fd int) (os.FileInfo, error) {
	e, err := t.Get(fd)
	if err != nil {
		return nil, err
	}
	st, ok := e.Stream.(Stater)
	if !ok {
		return nil, errors.Wrapf(ErrNotStatable, "fd %d", fd)
	}
	fi, err := st.Stat()
	if err != nil {
		return nil, &IOError{Op: "fstat", Fd: fd, Path: e.Path, Err: err}
	}
	return fi, nil
}

func (t *Table) Truncate(path string, size int64) error {
	host, err := t.jail.Resolve(path)
	if err != nil {
		return err
	}
	if err := os.Truncate(host, size); err != nil {
		return &IOError{Op: "truncate", Fd: -1, Path: path, Err: err}
	}
	return nil
}

func (t *Table) Unlink(path string) error {
	host, err := t.jail.Resolve(path)
	if err != nil {
		return err
	}
	if fi, err := os.Lstat(host); err == nil && fi.IsDir() {
		return &IOError{Op: "unlink", Fd: -1, Path: path, Err: errIsDir}
	}
	if err := os.Remove(host); err != nil {
		return &IOError{Op: "unlink", Fd: -1, Path: path, Err: err}
	}
	return nil
}

func (t *Table) Rmdir(path string) error {
	host, err := t.jail.Resolve(path)
	if err != nil {
		return err
	}
	if fi, err := os.Lstat(host); err == nil && !fi.IsDir() {
		return &IOError{Op: "rmdir", Fd: -1, Path: path, Err: errNotDir}
	}
	if err := os.Remove(host); err != nil {
		return &IOError{Op: "rmdir", Fd: -1, Path: path, Err: err}
	}
	return nil
}

func (t *Table) Stat(path string, follow bool) (os.FileInfo, error) {
	host, err := t.jail.Resolve(path)
	if err != nil {
		return nil, err
	}
	stat := os.Stat
	if !follow {
		stat = os.Lstat
	}
	fi, err := stat(host)
	if err != nil {
		return nil, &IOError{Op: "stat", Fd: -1, Path: path, Err: err}
	}
	return fi, nil
}

// Dup shares oldfd's open file at the lowest free descriptor.
func (t *Table) Dup(oldfd int) (int, error) {
	return t.DupFrom(oldfd, 0)
}

// DupFrom shares oldfd's open file at the lowest free descriptor >= min, as F_DUPFD does.
func (t *Table) DupFrom(oldfd, min int) (int, error) {
	e, err := t.Get(oldfd)
	if err != nil {
		return -1, err
	}
	fd := t.lowest(min)
	t.place(fd, e.File)
	return fd, nil
}

// Dup2 makes newfd share oldfd's open file, closing whatever newfd held.
func (t *Table) Dup2(oldfd, newfd int) (int, error) {
	e, err := t.Get(oldfd)
	if err != nil {
		return -1, err
	}
	if newfd < 0 {
		return -1, badFd(newfd)
	}
	if oldfd == newfd {
		return newfd, nil
	}
	if _, ok := t.files[newfd]; ok {
		// as with dup2(2), a failed close of newfd is not reported
		t.Close(newfd)
	}
	t.place(newfd, e.File)
	return newfd, nil
}

// Pipe installs a connected read end and write end at the two lowest free descriptors.
func (t *Table) Pipe() (r, w int, err error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return -1, -1, &IOError{Op: "pipe", Fd: -1, Err: err}
	}
	r = t.lowest(0)
	t.place(r, &File{Stream: pr, Path: "<pipe:r>", Flags: os.O_RDONLY})
	w = t.lowest(0)
	t.place(w, &File{Stream: pw, Path: "<pipe:w>", Flags: os.O_WRONLY})
	return r, w, nil
}
