package arm64

import (
	"encoding/binary"
	"fmt"

	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/lunixbochs/sandcorn/cpu/unicorn"
	"github.com/lunixbochs/sandcorn/models"
)

var Arch = &models.Arch{
	Name:  "arm64",
	Bits:  64,
	Order: binary.LittleEndian,

	Cpu: &unicorn.Builder{Arch: uc.ARCH_ARM64, Mode: uc.MODE_ARM},

	PC: uc.ARM64_REG_PC,
	SP: uc.ARM64_REG_SP,
	Regs: map[string]int{
		"fp": uc.ARM64_REG_FP,
		"lr": uc.ARM64_REG_LR,
		"sp": uc.ARM64_REG_SP,
		"pc": uc.ARM64_REG_PC,
	},
}

func init() {
	// X0..X28 are contiguous in Unicorn's enum
	for i := 0; i <= 28; i++ {
		name := fmt.Sprintf("x%d", i)
		Arch.Regs[name] = uc.ARM64_REG_X0 + i
		Arch.DefaultRegs = append(Arch.DefaultRegs, name)
	}
}
