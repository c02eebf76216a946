package cpu

// hook enums match Unicorn's so engine adapters can pass them through
// https://github.com/unicorn-engine/unicorn/blob/master/bindings/go/unicorn/unicorn_const.go
const (
	// hook CPU interrupts
	HOOK_INTR = 1

	// hook one instruction (cpu-specific)
	HOOK_INSN = 2

	// hook each executed instruction
	HOOK_CODE = 4

	// hook each executed basic block
	HOOK_BLOCK = 8

	// hook (before) each memory read/write
	HOOK_MEM_READ  = 1024
	HOOK_MEM_WRITE = 2048
	HOOK_MEM_FETCH = 4096

	// hook all memory errors
	HOOK_MEM_ERR = 1008
)

// access kinds reported to HOOK_MEM_ERR
const (
	MEM_READ_UNMAPPED  = 19
	MEM_WRITE_UNMAPPED = 20
	MEM_FETCH_UNMAPPED = 21
	MEM_WRITE_PROT     = 22
	MEM_READ_PROT      = 23
	MEM_FETCH_PROT     = 24
)

const (
	PROT_NONE  = 0
	PROT_READ  = 1
	PROT_WRITE = 2
	PROT_EXEC  = 4
	PROT_ALL   = 7
)

// access kinds reported to memory hooks
const (
	MEM_READ  = 16
	MEM_WRITE = 17
	MEM_FETCH = 18
)

// ProtString renders a protection mask as "rwx" with dashes for missing bits.
func ProtString(prot int) string {
	s := []byte("---")
	if prot&PROT_READ != 0 {
		s[0] = 'r'
	}
	if prot&PROT_WRITE != 0 {
		s[1] = 'w'
	}
	if prot&PROT_EXEC != 0 {
		s[2] = 'x'
	}
	return string(s)
}
