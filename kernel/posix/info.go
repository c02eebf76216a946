package posix

import (
	"os"

	"github.com/lunixbochs/sandcorn/models"
)

const linuxUtsLen = 65

// Uname reports the OS descriptor's kernel identity with the host's node name.
func Uname(u models.Usercorn, a *models.Args) (uint64, error) {
	var buf models.Obuf
	if err := a.Unpack(&buf); err != nil {
		return 0, err
	}
	host, err := os.Hostname()
	if err != nil {
		host = "sandcorn"
	}
	uname := &models.Uname{
		Sysname:  u.OS().Sysname,
		Nodename: host,
		Release:  u.OS().Release,
		Version:  "#1 SMP sandcorn",
		Machine:  u.Arch().Name,
	}
	width := u.OS().UtsLen
	if width == 0 {
		width = linuxUtsLen
	}
	return 0, buf.Write(uname.Bytes(width, width == linuxUtsLen))
}
