package models

// Uname is the kernel identity reported to the guest.
type Uname struct {
	Sysname  string
	Nodename string
	Release  string
	Version  string
	Machine  string
	Domain   string
}

// Bytes lays the fields out as struct utsname, each NUL-padded to width.
// Linux appends domainname, the BSDs stop at machine.
func (u *Uname) Bytes(width int, domain bool) []byte {
	fields := []string{u.Sysname, u.Nodename, u.Release, u.Version, u.Machine}
	if domain {
		fields = append(fields, u.Domain)
	}
	out := make([]byte, width*len(fields))
	for i, f := range fields {
		if len(f) >= width {
			f = f[:width-1]
		}
		copy(out[i*width:], f)
	}
	return out
}
