package arm

import (
	"encoding/binary"

	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/lunixbochs/sandcorn/cpu/unicorn"
	"github.com/lunixbochs/sandcorn/models"
)

var Arch = &models.Arch{
	Name:  "arm",
	Bits:  32,
	Order: binary.LittleEndian,

	Cpu: &unicorn.Builder{Arch: uc.ARCH_ARM, Mode: uc.MODE_ARM},

	PC: uc.ARM_REG_PC,
	SP: uc.ARM_REG_SP,
	Regs: map[string]int{
		"r0":   uc.ARM_REG_R0,
		"r1":   uc.ARM_REG_R1,
		"r2":   uc.ARM_REG_R2,
		"r3":   uc.ARM_REG_R3,
		"r4":   uc.ARM_REG_R4,
		"r5":   uc.ARM_REG_R5,
		"r6":   uc.ARM_REG_R6,
		"r7":   uc.ARM_REG_R7,
		"r8":   uc.ARM_REG_R8,
		"r9":   uc.ARM_REG_R9,
		"r10":  uc.ARM_REG_R10,
		"r11":  uc.ARM_REG_R11,
		"r12":  uc.ARM_REG_R12,
		"lr":   uc.ARM_REG_LR,
		"sp":   uc.ARM_REG_SP,
		"pc":   uc.ARM_REG_PC,
		"cpsr": uc.ARM_REG_CPSR,
	},
	DefaultRegs: []string{
		"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7", "r8",
		"r9", "r10", "r11", "r12",
	},
}
