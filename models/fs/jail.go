package fs

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Jail maps guest paths into a host rootfs directory.
// A host Jail has no root and passes paths through to the host unchanged.
type Jail struct {
	root string
	cwd  string
}

// NewJail confines guest paths to root, which must be non-empty.
func NewJail(root string) (*Jail, error) {
	if root == "" {
		return nil, ErrNoRoot
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, "filepath.Abs() failed")
	}
	// resolve the root itself so symlink checks compare like with like
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		abs = real
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "filepath.EvalSymlinks() failed")
	}
	return &Jail{root: abs, cwd: "/"}, nil
}

// NewHostJail gives the guest the host filesystem, starting in the host cwd.
func NewHostJail() *Jail {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "/"
	}
	return &Jail{cwd: filepath.ToSlash(cwd)}
}

func (j *Jail) Root() string {
	return j.root
}

func (j *Jail) Getcwd() string {
	return j.cwd
}

// Chdir changes the guest working directory. The target must be an existing directory.
func (j *Jail) Chdir(guest string) error {
	canon, host, err := j.resolve(guest)
	if err != nil {
		return err
	}
	fi, err := os.Stat(host)
	if err != nil {
		return &IOError{Op: "chdir", Fd: -1, Path: guest, Err: err}
	}
	if !fi.IsDir() {
		return &IOError{Op: "chdir", Fd: -1, Path: guest, Err: errNotDir}
	}
	j.cwd = canon
	return nil
}

// Canonical returns the cleaned absolute guest path, rejecting ".." above the root.
func (j *Jail) Canonical(guest string) (string, error) {
	if !strings.HasPrefix(guest, "/") {
		guest = j.cwd + "/" + guest
	}
	var parts []string
	for _, c := range strings.Split(guest, "/") {
		switch c {
		case "", ".":
		case "..":
			if len(parts) == 0 {
				return "", errors.Wrapf(ErrPathEscapesJail, "%q", guest)
			}
			parts = parts[:len(parts)-1]
		default:
			parts = append(parts, c)
		}
	}
	return "/" + strings.Join(parts, "/"), nil
}

// Resolve returns the host path for a guest path.
func (j *Jail) Resolve(guest string) (string, error) {
	_, host, err := j.resolve(guest)
	return host, err
}

func (j *Jail) resolve(guest string) (canon, host string, err error) {
	if canon, err = j.Canonical(guest); err != nil {
		return "", "", err
	}
	if j.root == "" {
		return canon, canon, nil
	}
	host = filepath.Join(j.root, filepath.FromSlash(canon))
	if err := j.checkLinks(guest, host); err != nil {
		return "", "", err
	}
	return canon, host, nil
}

// checkLinks follows symlinks on the longest existing prefix of host and
// fails if the result lands outside the root.
func (j *Jail) checkLinks(guest, host string) error {
	prefix := host
	for {
		if _, err := os.Lstat(prefix); err == nil {
			break
		}
		parent := filepath.Dir(prefix)
		if parent == prefix || !j.within(parent) {
			return nil
		}
		prefix = parent
	}
	real, err := filepath.EvalSymlinks(prefix)
	if err != nil {
		// dangling link; treat its target as unknown and refuse it
		return errors.Wrapf(ErrPathEscapesJail, "%q: %v", guest, err)
	}
	if !j.within(real) {
		return errors.Wrapf(ErrPathEscapesJail, "%q resolves to %q", guest, real)
	}
	return nil
}

func (j *Jail) within(host string) bool {
	rel, err := filepath.Rel(j.root, host)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
