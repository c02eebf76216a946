package arch

import (
	"maps"
	"slices"

	"github.com/pkg/errors"

	"github.com/lunixbochs/sandcorn/arch/arm"
	"github.com/lunixbochs/sandcorn/arch/arm64"
	"github.com/lunixbochs/sandcorn/arch/mips"
	"github.com/lunixbochs/sandcorn/arch/ndh"
	"github.com/lunixbochs/sandcorn/arch/x86"
	"github.com/lunixbochs/sandcorn/arch/x86_64"
	"github.com/lunixbochs/sandcorn/models"
)

var archMap = map[string]*models.Arch{
	"arm":    arm.Arch,
	"arm64":  arm64.Arch,
	"mips":   mips.Arch,
	"mipsel": mips.ArchLE,
	"ndh":    ndh.Arch,
	"x86":    x86.Arch,
	"x86_64": x86_64.Arch,
}

var ErrUnknownArch = errors.New("unknown arch")
var ErrUnknownOS = errors.New("unknown OS")

func GetArch(name string) (*models.Arch, error) {
	if a, ok := archMap[name]; ok {
		return a, nil
	}
	return nil, errors.Wrapf(ErrUnknownArch, "%q", name)
}

// GetOS returns the descriptor for osName on the named arch.
func GetOS(archName, osName string) (*models.Arch, *models.OS, error) {
	a, err := GetArch(archName)
	if err != nil {
		return nil, nil, err
	}
	os, ok := a.OS[osName]
	if !ok {
		return nil, nil, errors.Wrapf(ErrUnknownOS, "%q on %s", osName, archName)
	}
	return a, os, nil
}

// Names lists the registered arches.
func Names() []string {
	return slices.Sorted(maps.Keys(archMap))
}
