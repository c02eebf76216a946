package loader

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/lunixbochs/sandcorn/models"
)

var UnknownMagic = errors.New("Could not identify file magic.")

// NoOSHint lets the loader pick the OS from the image.
const NoOSHint = ""

func getMagic(r io.ReaderAt) []byte {
	ret := make([]byte, 4)
	r.ReadAt(ret, 0)
	return ret
}

func LoadFile(path string) (models.Loader, error) {
	return LoadFileArch(path, "any", NoOSHint)
}

func Load(r io.ReaderAt) (models.Loader, error) {
	return LoadArch(r, "any", NoOSHint)
}

func LoadFileArch(path string, arch, osHint string) (models.Loader, error) {
	p, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading image")
	}
	return LoadArch(bytes.NewReader(p), arch, osHint)
}

// LoadArch identifies the image format by magic. A non-"any" arch must match
// the image, and osHint overrides the detected OS.
func LoadArch(r io.ReaderAt, arch string, osHint string) (models.Loader, error) {
	var l models.Loader
	var err error
	switch {
	case MatchElf(r):
		l, err = NewElfLoader(r, osHint)
	case MatchCgc(r):
		l, err = NewCgcLoader(r)
	case MatchNdh(r):
		l, err = NewNdhLoader(r)
	default:
		return nil, errors.WithStack(UnknownMagic)
	}
	if err != nil {
		return nil, err
	}
	if arch != "any" && arch != "" && arch != l.Arch() {
		return nil, errors.Errorf("image is %s, not %s", l.Arch(), arch)
	}
	return l, nil
}
